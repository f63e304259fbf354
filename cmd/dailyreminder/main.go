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
	schedule := flag.Bool("schedule", false, "send the reminder daily on scheduler.cronExpression instead of once")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Logging.Level).With("job", "today")

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
		err = application.Serve(ctx, application.TodayJob())
	} else {
		err = application.RunToday(ctx)
	}
	if err != nil {
		logger.Error("reminder failed", "error", err)
		stop()
		os.Exit(1)
	}
}
