package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"dealfeed/internal/application"
	"dealfeed/internal/config"
	"dealfeed/pkg/contextx"
	"dealfeed/pkg/logx"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config.Load", logx.Error(err))
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}

	log := logx.New(os.Stdout, level, cfg.Log.Format)
	slog.SetDefault(log)

	ctx = contextx.WithLogger(ctx, log)

	if err := application.Run(ctx, cfg); err != nil {
		log.Error("application failed", logx.Error(err))
		cancel()
		os.Exit(1) //nolint:gocritic // cancel called above
	}

	log.Info("application stopped")
}
