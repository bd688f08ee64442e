package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vickyyylii/pixel-haven/internal/app"
	"github.com/vickyyylii/pixel-haven/internal/jobs"
	"github.com/vickyyylii/pixel-haven/internal/platform/db"
)

func main() {
	if err := run(); err != nil {
		slog.Error("worker exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	worker := jobs.NewWorker(jobs.WorkerParams{
		Logger:            logger,
		RedisAddr:         cfg.RedisAddr,
		Pool:              pool,
		LowStockThreshold: cfg.LowStockThreshold,
		MailFrom:          cfg.SMTPFrom,
	})

	logger.Info("worker starting", slog.String("redis", cfg.RedisAddr))
	return worker.Run(ctx)
}
