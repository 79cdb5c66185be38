package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"ledgerview/internal/amqp"
	"ledgerview/internal/backend"
	"ledgerview/internal/cli"
	"ledgerview/internal/config"
	"ledgerview/internal/log"
	"ledgerview/internal/worker"
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		log.New(log.DefaultConfig()).Warn("Failed to load .env file", log.FieldError, err.Error())
	}

	bootstrap := cli.SetupLogger(nil, log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(bootstrap)
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	ctx, stop := cli.SignalContext(logger)
	err := run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error("Sync failed", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Sync worker stopped")
}

// run syncs once, or every SyncInterval until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return fmt.Errorf("invalid backend configuration: %w", err)
	}
	src, err := backend.NewFactory(logger).CreateSyncSource(ctx, bcfg)
	if err != nil {
		return fmt.Errorf("create %s sync source: %w", cfg.SyncSource, err)
	}
	defer src.Close()

	repo, err := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	var publisher worker.Publisher
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return fmt.Errorf("initialize AMQP client: %w", err)
		}
		defer client.Close()
		publisher = client
	}

	w := worker.NewSyncWorker(src.Name, src.Reader, repo, publisher, repo, logger)
	logger.Info("Starting ledgerview-sync",
		log.FieldSource, src.Name, "interval", cfg.SyncInterval.String(), "db_path", cfg.SQLiteDBPath)

	if err := w.Run(ctx, cfg.SyncInterval); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
