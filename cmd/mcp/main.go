package main

import (
	"context"
	"log/slog"
	"os"

	mcpadapter "github.com/kirillkom/campus-faq-assistant/internal/adapters/mcp"
	"github.com/kirillkom/campus-faq-assistant/internal/bootstrap"
	"github.com/kirillkom/campus-faq-assistant/internal/config"
	"github.com/kirillkom/campus-faq-assistant/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.New(os.Stderr, "mcp", cfg.LogLevel, logging.FormatJSON))

	app, err := bootstrap.New(context.Background(), cfg, bootstrap.Options{Service: "mcp"})
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	slog.Info("mcp_serving_stdio", "server", mcpadapter.ServerName, "version", mcpadapter.ServerVersion)
	if err := mcpadapter.NewServer(app.QueryUC).Serve(); err != nil {
		slog.Error("mcp_server_failed", "error", err)
	}
}
