package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServiceName     string
	DatabaseURL     string
	TemporalAddress string
	// TemporalNamespace defaults to "default".
	TemporalNamespace string
	HTTPListenAddr    string
	MetricsAddr       string
	LogLevel          string

	TemporalTLSCert       string
	TemporalTLSKey        string
	TemporalTLSCACert     string
	TemporalTLSServerName string

	// External collaborators.
	BackupServiceURL string
	CheckServiceURL  string
	PlatformURL      string
	PlatformToken    string

	// Notification and archive sinks. Empty values disable the sink.
	KafkaBrokers  []string
	KafkaTopic    string
	ArchiveBucket string
	S3Endpoint    string
	S3Region      string
	S3AccessKey   string
	S3SecretKey   string

	// Engine defaults applied when a deployment config leaves them unset.
	CheckPollInterval     time.Duration
	StabilizationDelay    time.Duration
	MaxDeploymentDuration time.Duration
	MinSuccessRate        float64

	AuditLogRetentionDays int
}

func Load() (*Config, error) {
	cfg := &Config{
		ServiceName:           getEnv("SERVICE_NAME", ""),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		TemporalAddress:       getEnv("TEMPORAL_ADDRESS", "localhost:7233"),
		TemporalNamespace:     getEnv("TEMPORAL_NAMESPACE", "default"),
		HTTPListenAddr:        getEnv("HTTP_LISTEN_ADDR", ":8090"),
		MetricsAddr:           getEnv("METRICS_ADDR", ""),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		TemporalTLSCert:       getEnv("TEMPORAL_TLS_CERT", ""),
		TemporalTLSKey:        getEnv("TEMPORAL_TLS_KEY", ""),
		TemporalTLSCACert:     getEnv("TEMPORAL_TLS_CA_CERT", ""),
		TemporalTLSServerName: getEnv("TEMPORAL_TLS_SERVER_NAME", ""),
		BackupServiceURL:      getEnv("BACKUP_SERVICE_URL", ""),
		CheckServiceURL:       getEnv("CHECK_SERVICE_URL", ""),
		PlatformURL:           getEnv("PLATFORM_URL", ""),
		PlatformToken:         getEnv("PLATFORM_TOKEN", ""),
		KafkaBrokers:          splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:            getEnv("KAFKA_TOPIC", "deployment-events"),
		ArchiveBucket:         getEnv("ARCHIVE_BUCKET", ""),
		S3Endpoint:            getEnv("S3_ENDPOINT", ""),
		S3Region:              getEnv("S3_REGION", "us-east-1"),
		S3AccessKey:           getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:           getEnv("S3_SECRET_KEY", ""),
	}

	var err error
	if cfg.CheckPollInterval, err = getDuration("CHECK_POLL_INTERVAL", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.StabilizationDelay, err = getDuration("STABILIZATION_DELAY", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.MaxDeploymentDuration, err = getDuration("MAX_DEPLOYMENT_DURATION", 6*time.Hour); err != nil {
		return nil, err
	}
	if cfg.MinSuccessRate, err = getFloat("MIN_SUCCESS_RATE", 0.9); err != nil {
		return nil, err
	}
	if cfg.AuditLogRetentionDays, err = getInt("AUDIT_LOG_RETENTION_DAYS", 90); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the settings required by the named binary are present.
func (c *Config) Validate(component string) error {
	var missing []string
	require := func(name, value string) {
		if value == "" {
			missing = append(missing, name)
		}
	}

	switch component {
	case "rollout-api":
		require("DATABASE_URL", c.DatabaseURL)
		require("TEMPORAL_ADDRESS", c.TemporalAddress)
		require("HTTP_LISTEN_ADDR", c.HTTPListenAddr)
	case "worker":
		require("DATABASE_URL", c.DatabaseURL)
		require("TEMPORAL_ADDRESS", c.TemporalAddress)
		require("BACKUP_SERVICE_URL", c.BackupServiceURL)
		require("CHECK_SERVICE_URL", c.CheckServiceURL)
		require("PLATFORM_URL", c.PlatformURL)
	default:
		return fmt.Errorf("unknown component %q", component)
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}

	if (c.TemporalTLSCert == "") != (c.TemporalTLSKey == "") {
		return fmt.Errorf("TEMPORAL_TLS_CERT and TEMPORAL_TLS_KEY must both be set")
	}
	if c.MinSuccessRate < 0 || c.MinSuccessRate > 1 {
		return fmt.Errorf("MIN_SUCCESS_RATE must be between 0 and 1, got %v", c.MinSuccessRate)
	}
	if c.ArchiveBucket != "" && c.S3Endpoint == "" {
		return fmt.Errorf("S3_ENDPOINT is required when ARCHIVE_BUCKET is set")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return f, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
