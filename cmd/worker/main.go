package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/hugh/go-folio/internal/mail"
	"github.com/hugh/go-folio/internal/tasks"
	"github.com/hugh/go-folio/pkg/config"
	"github.com/hugh/go-folio/pkg/queue"
	"github.com/hugh/go-folio/pkg/util"
	"github.com/joho/godotenv"
)

// The worker delivers queued mail. The API only enqueues when Redis is
// configured; without it mail goes out inline and this process is unused.
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := util.NewLogger(cfg.Server.Env, cfg.Server.LogLevel)
	slog.SetDefault(logger)

	sender, err := mail.NewSender(cfg.Mail, logger)
	if err != nil {
		logger.Error("failed to configure mail", "error", err)
		os.Exit(1)
	}

	mux := asynq.NewServeMux()
	tasks.NewHandler(sender, logger).RegisterHandlers(mux)

	srv := queue.NewServer(&cfg.Redis, cfg.Redis.WorkerConcurrency)
	if err := srv.Start(mux); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}
	logger.Info("worker started",
		"redis", cfg.Redis.Addr(),
		"concurrency", cfg.Redis.WorkerConcurrency,
		"mail_driver", cfg.Mail.Driver,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down worker")
	srv.Shutdown()
	logger.Info("worker stopped")
}
