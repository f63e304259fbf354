package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"EventsDigest/internal/app"
	"EventsDigest/internal/config"
	"EventsDigest/internal/logging"
)

func main() {
	schedule := flag.Bool("schedule", false, "run the digest daily on scheduler.cronExpression instead of once")
	flag.Parse()

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Logging.Level)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("build application", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *schedule {
		logger.Info("scheduled mode", "cron", cfg.Scheduler.CronExpression, "timezone", cfg.Scheduler.Timezone)
		err = application.Serve(ctx, application.DigestJob())
	} else {
		err = application.RunDigest(ctx)
	}
	if err != nil {
		logger.Error("application stopped", "error", err)
		stop()
		os.Exit(1)
	}
	logger.Info("done")
}
