package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"ledgerview/internal/aggregate"
	"ledgerview/internal/amqp"
	"ledgerview/internal/backend"
	"ledgerview/internal/cache"
	"ledgerview/internal/cli"
	"ledgerview/internal/config"
	apphttp "ledgerview/internal/http"
	"ledgerview/internal/log"
	"ledgerview/internal/services"
)

func main() {
	if err := cli.LoadEnvFile(); err != nil {
		log.New(log.DefaultConfig()).Warn("Failed to load .env file", log.FieldError, err.Error())
	}

	bootstrap := cli.SetupLogger(nil, log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(bootstrap)
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	ctx, stop := cli.SignalContext(logger)
	err := run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error("Server stopped with error", log.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

// run serves until ctx is cancelled or a component fails. Every resource it
// opens is released before it returns.
func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return fmt.Errorf("invalid backend configuration: %w", err)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err.Error())
		}
	}()

	snapshots := cache.NewLRUCache[string, services.Snapshot](cfg.SnapshotCacheSize, cfg.SnapshotTTL)
	caches := cache.NewManager()
	caches.Register(snapshots)
	caches.StartCleanup(cfg.SnapshotTTL)
	defer caches.Stop()

	loader := services.NewSnapshotLoader(res.Name, res.Reader, snapshots, logger)
	charts := services.NewChartService(loader, aggregate.ViewMode(cfg.DefaultViewMode), logger)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:      ":" + cfg.Port,
		Charts:    charts,
		Refresher: loader,
		Ready:     res.Ready,
		Logger:    logger,
	})

	var client *amqp.Client
	if cfg.AMQPEnabled() {
		client, err = amqp.NewClient(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return fmt.Errorf("initialize AMQP client: %w", err)
		}
		defer client.Close()
	} else {
		logger.Info("AMQP disabled, snapshots refresh on TTL expiry or POST /api/snapshot/refresh")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting ledgerview server", "port", cfg.Port, "backend", res.Name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if client != nil {
		g.Go(func() error {
			err := client.ConsumeSnapshotChanged(gctx, func(ctx context.Context, msg *amqp.SnapshotChangedMessage) error {
				logger.InfoContext(ctx, "Snapshot change received",
					log.FieldSource, msg.Source, "upserted", msg.Upserted, log.FieldRejected, msg.Rejected)
				loader.Invalidate()
				return nil
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	return g.Wait()
}
