package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"DATABASE_URL", "TEMPORAL_ADDRESS", "HTTP_LISTEN_ADDR", "LOG_LEVEL",
		"CHECK_POLL_INTERVAL", "STABILIZATION_DELAY", "MAX_DEPLOYMENT_DURATION",
		"MIN_SUCCESS_RATE", "KAFKA_BROKERS", "KAFKA_TOPIC",
	} {
		os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "", cfg.DatabaseURL)
	assert.Equal(t, "localhost:7233", cfg.TemporalAddress)
	assert.Equal(t, ":8090", cfg.HTTPListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.CheckPollInterval)
	assert.Equal(t, 30*time.Second, cfg.StabilizationDelay)
	assert.Equal(t, 6*time.Hour, cfg.MaxDeploymentDuration)
	assert.Equal(t, 0.9, cfg.MinSuccessRate)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "deployment-events", cfg.KafkaTopic)
}

func TestLoad_AllEnvVars(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db:5432/rollout")
	t.Setenv("TEMPORAL_ADDRESS", "temporal.example.com:7233")
	t.Setenv("HTTP_LISTEN_ADDR", ":7071")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CHECK_POLL_INTERVAL", "2s")
	t.Setenv("STABILIZATION_DELAY", "1m")
	t.Setenv("MAX_DEPLOYMENT_DURATION", "2h")
	t.Setenv("MIN_SUCCESS_RATE", "0.95")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://db:5432/rollout", cfg.DatabaseURL)
	assert.Equal(t, "temporal.example.com:7233", cfg.TemporalAddress)
	assert.Equal(t, ":7071", cfg.HTTPListenAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 2*time.Second, cfg.CheckPollInterval)
	assert.Equal(t, time.Minute, cfg.StabilizationDelay)
	assert.Equal(t, 2*time.Hour, cfg.MaxDeploymentDuration)
	assert.Equal(t, 0.95, cfg.MinSuccessRate)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("STABILIZATION_DELAY", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STABILIZATION_DELAY")
}

func TestValidate_API_MissingFields(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate("rollout-api")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "TEMPORAL_ADDRESS")
	assert.Contains(t, err.Error(), "HTTP_LISTEN_ADDR")
}

func TestValidate_Worker_MissingFields(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate("worker")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BACKUP_SERVICE_URL")
	assert.Contains(t, err.Error(), "CHECK_SERVICE_URL")
	assert.Contains(t, err.Error(), "PLATFORM_URL")
}

func TestValidate_UnknownComponent(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.Validate("node-agent"))
}

func TestValidate_TLS_MismatchedCertKey(t *testing.T) {
	cfg := validConfig()
	cfg.TemporalTLSCert = "/path/to/cert.pem"
	err := cfg.Validate("rollout-api")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TEMPORAL_TLS_CERT and TEMPORAL_TLS_KEY must both be set")
}

func TestValidate_MinSuccessRateRange(t *testing.T) {
	cfg := validConfig()
	cfg.MinSuccessRate = 1.5
	assert.Error(t, cfg.Validate("worker"))
}

func TestValidate_ArchiveNeedsEndpoint(t *testing.T) {
	cfg := validConfig()
	cfg.ArchiveBucket = "deployments"
	err := cfg.Validate("worker")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3_ENDPOINT")
}

func TestValidate_AllPresent(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate("rollout-api"))
	assert.NoError(t, cfg.Validate("worker"))
}

func TestTemporalClientOptions_Plaintext(t *testing.T) {
	cfg := validConfig()
	opts, err := cfg.TemporalClientOptions()
	require.NoError(t, err)
	assert.Equal(t, "localhost:7233", opts.HostPort)
	assert.Nil(t, opts.ConnectionOptions.TLS)
}

func TestTemporalClientOptions_MissingCertFile(t *testing.T) {
	cfg := validConfig()
	cfg.TemporalTLSCert = "/nonexistent/cert.pem"
	cfg.TemporalTLSKey = "/nonexistent/key.pem"
	_, err := cfg.TemporalClientOptions()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load temporal client cert")
}

func validConfig() *Config {
	return &Config{
		DatabaseURL:      "postgres://localhost/rollout",
		TemporalAddress:  "localhost:7233",
		HTTPListenAddr:   ":8090",
		BackupServiceURL: "http://backup:8080",
		CheckServiceURL:  "http://checks:8080",
		PlatformURL:      "http://platform:8080",
		MinSuccessRate:   0.9,
	}
}
