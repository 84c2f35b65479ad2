package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nqhuy/admissions-assistant/internal/bootstrap"
	"github.com/nqhuy/admissions-assistant/internal/config"
	"github.com/nqhuy/admissions-assistant/internal/core/domain"
	"github.com/nqhuy/admissions-assistant/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewWorker(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: app.Metrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("worker metrics server error: %v", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeQueryAnswered(ctx, func(handlerCtx context.Context, event domain.QueryAnsweredEvent) error {
		persistCtx, cancel := context.WithTimeout(handlerCtx, 30*time.Second)
		defer cancel()

		app.Metrics.StartPersist()
		start := time.Now()
		insertErr := app.Repo.Insert(persistCtx, event)
		app.Metrics.FinishPersist("worker", time.Since(start), insertErr)
		if insertErr != nil {
			slog.Error("audit_persist_failed", "event_id", event.EventID, "error", insertErr)
			return insertErr
		}

		if !event.AnsweredAt.IsZero() {
			app.Metrics.ObserveEventLag("worker", time.Since(event.AnsweredAt))
		}
		return nil
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
