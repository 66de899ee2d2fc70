package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"backoffice/internal/app"
	"backoffice/internal/config"
	"backoffice/internal/logger"
	"backoffice/internal/orchestrator/expiry"
	"backoffice/internal/orchestrator/mailer"

	"github.com/joho/godotenv"
)

func main() {
	// Parse mode flag
	mode := flag.String("mode", "", "Orchestrator mode: mailer|expiry")
	flag.Parse()

	// Initialize logger
	logger := logger.New()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	// Set up context with graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	services, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Msgf("Failed to initialize services: %v", err)
	}
	defer services.Close()

	// Dispatch to the selected orchestrator
	var runErr error
	switch *mode {
	case "mailer":
		if services.Queue == nil {
			logger.Fatal().Str("queue", cfg.MailQueueName).Msg("Mail queue is not available")
		}
		w := mailer.New(services.Queue, services.Invoices, services.DLQ, services.Metrics, mailer.Options{
			Queue:       cfg.MailQueueName,
			Visibility:  time.Duration(cfg.MailVisibilitySec) * time.Second,
			PollTimeout: time.Duration(cfg.MailPollTimeoutSec) * time.Second,
			MaxMessages: cfg.MailPollMaxMsg,
			MaxRetries:  cfg.MailMaxRetries,
		}, logger)
		runErr = w.Run(ctx)
	case "expiry":
		sweeper := expiry.NewSweeper(services.Accounts, services.Invoices, services.Metrics, logger)
		runErr = expiry.Run(ctx, cfg.ExpirySweepSchedule, sweeper)
	default:
		logger.Fatal().Msgf("Invalid mode: %s", *mode)
	}

	if runErr != nil {
		logger.Fatal().Msgf("%s orchestrator failed: %v", *mode, runErr)
	}

	logger.Info().Msgf("%s orchestrator stopped gracefully", *mode)
}
