package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	temporalclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/interceptor"
	"go.temporal.io/sdk/worker"

	"github.com/edvin/rollout/internal/activity"
	"github.com/edvin/rollout/internal/clients"
	"github.com/edvin/rollout/internal/config"
	"github.com/edvin/rollout/internal/db"
	"github.com/edvin/rollout/internal/logging"
	"github.com/edvin/rollout/internal/metrics"
	"github.com/edvin/rollout/internal/model"
	"github.com/edvin/rollout/internal/notify"
	"github.com/edvin/rollout/internal/probe"
	"github.com/edvin/rollout/internal/store"
	"github.com/edvin/rollout/internal/strategy"
	"github.com/edvin/rollout/internal/workflow"
)

const readyInterval = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("worker"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	metrics.RegisterPgxPoolMetrics(prometheus.DefaultRegisterer, pool)

	dialOpts, err := cfg.TemporalClientOptions()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure temporal client")
	}
	if dialOpts.ConnectionOptions.TLS != nil {
		logger.Info().Msg("temporal mTLS enabled")
	}
	tc, err := temporalclient.Dial(dialOpts)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to temporal")
	}
	defer tc.Close()

	w := worker.New(tc, model.TaskQueue, worker.Options{
		Interceptors: []interceptor.WorkerInterceptor{&workflow.ErrorTypingInterceptor{}},
	})

	deployments := store.NewDeploymentStore(pool)
	configs := store.NewConfigStore(pool)

	backups := clients.NewBackupClient(cfg.BackupServiceURL, cfg.PlatformToken)
	checkRuns := clients.NewCheckRunClient(cfg.CheckServiceURL, cfg.PlatformToken)
	platform := clients.NewPlatformClient(cfg.PlatformURL, cfg.PlatformToken)

	dispatcher, closeSenders := newDispatcher(cfg, logger)
	defer closeSenders()

	var objects activity.ObjectPutter
	if cfg.ArchiveBucket != "" {
		objects = activity.NewS3Client(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey)
	}

	// Register activities
	w.RegisterActivity(activity.NewStore(deployments, configs, activity.EngineSettings{
		CheckPollInterval:     cfg.CheckPollInterval,
		StabilizationDelay:    cfg.StabilizationDelay,
		MaxDeploymentDuration: cfg.MaxDeploymentDuration,
		MinSuccessRate:        cfg.MinSuccessRate,
	}, logger))
	w.RegisterActivity(activity.NewBackup(backups, logger))
	w.RegisterActivity(activity.NewChecks(checkRuns, probe.NewDefaultRegistry(checkRuns)))
	w.RegisterActivity(activity.NewRollout(strategy.NewExecutor(strategy.NewDefaultRegistry(), platform, readyInterval), backups, logger))
	w.RegisterActivity(activity.NewNotifier(dispatcher, logger))
	w.RegisterActivity(activity.NewArchive(objects, cfg.ArchiveBucket, deployments, logger))

	// Register workflows
	w.RegisterWorkflow(workflow.DeploymentWorkflow)
	w.RegisterWorkflow(workflow.CleanupAuditLogsWorkflow)

	if cfg.MetricsAddr != "" {
		metricsSrv := metrics.NewServer(cfg.MetricsAddr, func() error { return pool.Ping(ctx) })
		go func() {
			logger.Info().Str("addr", cfg.MetricsAddr).Msg("starting metrics server")
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	go func() {
		logger.Info().Str("taskQueue", model.TaskQueue).Msg("starting temporal worker")
		if err := w.Run(worker.InterruptCh()); err != nil {
			logger.Fatal().Err(err).Msg("worker failed")
		}
	}()

	registerCronSchedules(ctx, tc, cfg, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down worker")
	cancel()
}

// newDispatcher builds the notification senders. Kafka is only available when
// brokers are configured; rules on a missing channel fail at dispatch.
func newDispatcher(cfg *config.Config, logger zerolog.Logger) (*notify.Dispatcher, func()) {
	httpClient := &http.Client{Timeout: 10 * time.Second}
	senders := map[string]notify.Sender{
		model.ChannelWebhook: notify.NewWebhookSender(httpClient),
		model.ChannelSlack:   notify.NewSlackSender(httpClient),
	}

	closeFn := func() {}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSender, err := notify.NewKafkaSender(notify.KafkaConfig{
			Brokers:      cfg.KafkaBrokers,
			DefaultTopic: cfg.KafkaTopic,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure kafka sender")
		}
		senders[model.ChannelKafka] = kafkaSender
		closeFn = func() {
			if err := kafkaSender.Close(); err != nil {
				logger.Warn().Err(err).Msg("failed to close kafka writer")
			}
		}
	}
	return notify.NewDispatcher(logger, senders), closeFn
}

type cronSchedule struct {
	id       string
	cron     string
	workflow any
	args     []any
}

func registerCronSchedules(ctx context.Context, tc temporalclient.Client, cfg *config.Config, logger zerolog.Logger) {
	schedules := []cronSchedule{
		{
			id:       workflow.CleanupAuditLogsCronID,
			cron:     "0 4 * * *",
			workflow: workflow.CleanupAuditLogsWorkflow,
			args:     []any{cfg.AuditLogRetentionDays},
		},
	}

	scheduleClient := tc.ScheduleClient()

	for _, s := range schedules {
		_, err := scheduleClient.Create(ctx, temporalclient.ScheduleOptions{
			ID: s.id,
			Spec: temporalclient.ScheduleSpec{
				CronExpressions: []string{s.cron},
			},
			Action: &temporalclient.ScheduleWorkflowAction{
				ID:        s.id,
				Workflow:  s.workflow,
				Args:      s.args,
				TaskQueue: model.TaskQueue,
			},
		})
		switch {
		case err == nil:
			logger.Info().Str("id", s.id).Str("cron", s.cron).Msg("created cron schedule")
		case isAlreadyExists(err):
			logger.Info().Str("id", s.id).Msg("cron schedule already exists, skipping")
		default:
			logger.Fatal().Err(err).Str("id", s.id).Msg("failed to create cron schedule")
		}
	}
}

func isAlreadyExists(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "AlreadyExists") || strings.Contains(msg, "already registered")
}
