package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/whisperengine-ai/whisperengine/internal/bootstrap"
	"github.com/whisperengine-ai/whisperengine/internal/config"
	"github.com/whisperengine-ai/whisperengine/internal/core/domain"
	"github.com/whisperengine-ai/whisperengine/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewWorker(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: app.Metrics.Handler(),
	}
	go func() {
		slog.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("worker metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeEnrichmentJobs(ctx, func(handlerCtx context.Context, job domain.EnrichmentJob) error {
		app.Metrics.StartJob()
		start := time.Now()

		if n := len(job.Messages); n > 0 {
			if submitted := job.Messages[n-1].CreatedAt; !submitted.IsZero() {
				app.Metrics.ObserveQueueLag("worker", start.Sub(submitted))
			}
		}

		enrichCtx, cancel := context.WithTimeout(handlerCtx, 2*time.Minute)
		defer cancel()

		enrichErr := app.Enricher.EnrichConversation(enrichCtx, job)
		app.Metrics.FinishJob("worker", time.Since(start), enrichErr)
		return enrichErr
	})
	if err != nil {
		slog.Error("worker subscribe error", "error", err)
		os.Exit(1)
	}
}
