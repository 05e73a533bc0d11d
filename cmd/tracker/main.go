package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"tracker/internal/amqp"
	"tracker/internal/backend"
	"tracker/internal/cache"
	"tracker/internal/cli"
	"tracker/internal/config"
	"tracker/internal/core"
	apphttp "tracker/internal/http"
	applog "tracker/internal/log"
	"tracker/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg.SlogLevel())
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeConfiguration)
		os.Exit(1)
	}

	categories, err := config.LoadCategories(cfg.CategoriesFile)
	if err != nil {
		logger.Error("Failed to load categories", applog.FieldError, err, "path", cfg.CategoriesFile)
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Warn("Backend cleanup failed", applog.FieldError, err)
			}
		}
	}()

	opts := services.Options{
		Store:            result.Store,
		SummaryCacheSize: cfg.SummaryCacheSize,
		SummaryCacheTTL:  cfg.SummaryCacheTTL,
		Language:         cfg.Language(),
		Logger:           logger,
		IDFloor:          time.Now().UnixMilli(),
	}

	// Ledger events are optional; the service runs without a publisher.
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without ledger events",
				applog.FieldError, err,
				applog.FieldErrorType, applog.ErrorTypeNetwork)
		} else {
			defer client.Close()
			opts.Publisher = client
			logger.Info("Publishing ledger events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	svc := services.NewLedgerService(categories, opts)
	if err := svc.Load(ctx); err != nil {
		errorType := applog.ErrorTypeDatabase
		if errors.Is(err, core.ErrIntegrity) {
			errorType = applog.ErrorTypeIntegrity
		}
		logger.Error("Failed to restore ledger", applog.FieldError, err, applog.FieldErrorType, errorType)
		os.Exit(1)
	}

	cacheManager := cache.NewManager(logger)
	cacheManager.Register(svc.SummaryCache())
	cacheManager.StartCleanup(time.Minute)
	defer cacheManager.Stop()

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Language:           cfg.Language(),
		Logger:             logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting tracker server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"categories", len(categories))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return cli.GracefulShutdown(logger, 30*time.Second, srv.Shutdown)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
