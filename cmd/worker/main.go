package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/campus-faq-assistant/internal/bootstrap"
	"github.com/kirillkom/campus-faq-assistant/internal/config"
	"github.com/kirillkom/campus-faq-assistant/internal/observability/logging"
	"github.com/kirillkom/campus-faq-assistant/internal/observability/metrics"
)

const processTimeout = 5 * time.Minute

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Service: "worker", Registerer: workerMetrics.Registry()})
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           workerMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeDocumentIngested(ctx, func(handlerCtx context.Context, documentID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, processTimeout)
		defer cancel()
		return workerMetrics.Track(func(id string) error {
			return app.ProcessUC.ProcessByID(processCtx, id)
		})(documentID)
	})
	if err != nil {
		slog.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
