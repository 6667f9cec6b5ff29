package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/quantpulse/marketstream/internal/app"
	"github.com/quantpulse/marketstream/internal/config"
	"github.com/quantpulse/marketstream/pkg/logger"
)

func main() {
	configPath := pflag.String("config", "config/config.yaml", "path to config file")
	pflag.Parse()

	// 1. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Print(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to print config: %v\n", err)
	}

	// 2. Logger
	log, err := logger.New(logger.Config{Level: cfg.Logging.Level, DevMode: cfg.Logging.DevMode})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// 3. Context cancelled by signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Sugar().Infow("starting service",
		"service.name", cfg.ServiceName,
		"service.version", cfg.ServiceVersion,
	)

	// 4. Run
	if err := app.Run(ctx, cfg, log); err != nil && ctx.Err() == nil {
		log.Sugar().Errorw("application exited with error", "error", err)
		os.Exit(1)
	}

	log.Sugar().Infow("shutdown complete")
}
