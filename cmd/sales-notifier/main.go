package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "salesnotifier/docs"
	"salesnotifier/internal/app"
	"salesnotifier/internal/config"
	"salesnotifier/pkg/logger"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "critical: config load failed: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewZapAdapter(cfg.App.Name, cfg.Env, logger.Config{
		Level:      cfg.Logger.Level,
		Filename:   cfg.Logger.Filename,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "critical: logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Infow("application starting",
		"version", cfg.App.Version,
		"env", cfg.Env,
	)

	if err := app.Run(ctx, cfg, log); err != nil {
		log.Errorw("application crashed", "error", err)
		os.Exit(1)
	}

	log.Info("shutdown complete")
}
