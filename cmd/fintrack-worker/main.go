package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
	"fintrack/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.Config{Component: "fintrack-worker"})
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := backend.Open(ctx, cfg, logger.WithComponent("backend"))
	if err != nil {
		logger.Error("Failed to open storage backend", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Sheets mirroring is optional.
	var mirror worker.AlertMirror
	if cfg.SheetsSpreadsheetID != "" {
		client, err := sheets.New(ctx, cfg.SheetsSpreadsheetID, cfg.SheetsSheetName)
		if err != nil {
			logger.Warn("Failed to initialize Sheets mirror, continuing without it", "error", err)
		} else {
			mirror = client
			logger.Info("Initialized Sheets mirror",
				"spreadsheet_id", cfg.SheetsSpreadsheetID, "sheet", cfg.SheetsSheetName)
		}
	}

	alertWorker := worker.NewAlertWorker(store, mirror)

	group, gctx := errgroup.WithContext(ctx)

	// Queue consumer; optional, the sweep alone still works.
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, sweep only", "error", err)
		} else {
			defer client.Close()
			group.Go(func() error {
				return client.ConsumeBudgetChecks(gctx, func(msg *amqp.BudgetCheckMessage) error {
					return alertWorker.HandleCheckMessage(gctx, msg)
				})
			})
		}
	}

	group.Go(func() error {
		return alertWorker.RunSweep(gctx, cfg.SweepInterval)
	})

	logger.Info("Worker started",
		"sweep_interval", cfg.SweepInterval, "amqp_enabled", cfg.AMQPURL != "")

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped")
}
