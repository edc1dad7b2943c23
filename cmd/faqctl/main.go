package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kirillkom/campus-faq-assistant/internal/adapters/cli"
	"github.com/kirillkom/campus-faq-assistant/internal/bootstrap"
	"github.com/kirillkom/campus-faq-assistant/internal/config"
	"github.com/kirillkom/campus-faq-assistant/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.New(os.Stderr, "faqctl", cfg.LogLevel, logging.FormatText))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Service: "faqctl"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "faqctl: %v\n", err)
		os.Exit(1)
	}

	root := cli.NewRootCommand(cli.Services{
		Query:       app.QueryUC,
		Ingest:      app.IngestUC,
		Processor:   app.ProcessUC,
		Maintenance: app.MaintenanceUC,
	})
	err = root.ExecuteContext(ctx)
	app.Close()
	if err != nil {
		os.Exit(1)
	}
}
