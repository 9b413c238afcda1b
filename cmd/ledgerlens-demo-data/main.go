package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ledgerlens/ledgerlens/internal/demo/salesdata"
)

func main() {
	cfg, err := salesdata.LoadConfigFromEnv(os.LookupEnv)
	if err != nil {
		slog.Error("failed to load demo data config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	service, err := salesdata.NewService(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize demo data generator", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(
		"generating demo sales data",
		slog.String("output", cfg.Output),
		slog.Int("rows", cfg.Rows),
		slog.Int64("seed", cfg.Seed),
		slog.String("store", cfg.StoreDSN),
	)

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("demo data generation failed", slog.Any("error", err))
		os.Exit(1)
	}
}
