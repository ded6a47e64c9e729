package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"apod-feed/internal/app"
	"apod-feed/internal/domain/entity"
	workerPkg "apod-feed/internal/infra/worker"
	"apod-feed/internal/observability/logging"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := workerPkg.NewWorkerMetrics()
	workerConfig := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	logger.Info("worker configuration loaded",
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Duration("refresh_timeout", workerConfig.RefreshTimeout),
		slog.Bool("prefetch_images", workerConfig.PrefetchImages),
		slog.Int("health_port", workerConfig.HealthPort),
		slog.Int("metrics_port", workerConfig.MetricsPort))

	application, err := app.New(ctx, logger, prometheus.DefaultRegisterer)
	if err != nil {
		logger.Error("failed to initialize feed client", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("settings loaded",
		slog.String("path", application.Settings.Path()),
		slog.Int("days", application.Settings.Current().EntryCount),
		slog.Int("size", application.Settings.Current().ThumbnailSize))

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	startMetricsServer(ctx, logger, workerConfig.MetricsPort, application, healthServer)
	go func() {
		if err := healthServer.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	job := workerPkg.NewJob(application.Client, workerConfig, workerMetrics, healthServer, logger)

	// A settings change alters the listed count, so the cache is refreshed right away.
	unsubscribe := application.Client.Subscribe(func(s entity.Settings) {
		logger.Info("settings changed, scheduling refresh",
			slog.Int("days", s.EntryCount),
			slog.Int("size", s.ThumbnailSize))
		go job.Run(ctx, workerPkg.TriggerSettings)
	})
	defer unsubscribe()

	go func() {
		if err := application.Settings.Watch(ctx); err != nil {
			logger.Error("settings watcher stopped", slog.Any("error", err))
		}
	}()

	startCronWorker(ctx, logger, job, workerConfig, healthServer)
}

// startCronWorker runs the refresh once at startup, then on the schedule until ctx is done.
func startCronWorker(ctx context.Context, logger *slog.Logger, job *workerPkg.Job, cfg *workerPkg.WorkerConfig, healthServer *workerPkg.HealthServer) {
	c := cron.New(cron.WithLocation(cfg.Location()))

	_, err := c.AddFunc(cfg.CronSchedule, func() {
		job.Run(ctx, workerPkg.TriggerCron)
	})
	if err != nil {
		logger.Error("failed to add cron job", slog.Any("error", err))
		os.Exit(1)
	}
	c.Start()

	go job.Run(ctx, workerPkg.TriggerStartup)

	healthServer.SetReady(true)
	logger.Info("worker started", slog.String("schedule", cfg.CronSchedule), slog.String("timezone", cfg.Timezone))

	<-ctx.Done()
	healthServer.SetReady(false)
	logger.Info("worker shutting down, waiting for running refresh")
	<-c.Stop().Done()
	logger.Info("worker stopped")
}
