package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"finvue/internal/amqp"
	"finvue/internal/analytics"
	"finvue/internal/backend"
	"finvue/internal/cache"
	"finvue/internal/cli"
	apphttp "finvue/internal/http"
	"finvue/internal/metrics"
	"finvue/internal/services"
	"finvue/internal/store"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger, nil)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to create backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	ledger, err := store.Open(ctx, store.NewJSONPersister(result.KV), store.Options{SeedDemo: cfg.SeedDemoData})
	if err != nil {
		logger.Error("Failed to open ledger", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	m.SetLedgerSize(ledger.Len())

	engine := analytics.NewEngine(ledger, cfg.AnalyticsCacheSize, cfg.AnalyticsCacheTTL, analytics.WithMetrics(m))
	caches := cache.NewManager()
	engine.RegisterCaches(caches)
	caches.StartCleanup(ctx, cfg.AnalyticsCacheTTL)
	defer caches.Stop()

	opts := []services.Option{services.WithInvalidator(engine), services.WithMetrics(m)}
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// Events are best effort; the mirror worker reconciles later.
			logger.Warn("AMQP unavailable, continuing without change events", "error", err)
		} else {
			defer client.Close()
			opts = append(opts, services.WithPublisher(client))
			logger.Info("Publishing ledger events", "exchange", cfg.AMQPExchange)
		}
	}
	svc := services.NewLedgerService(ledger, opts...)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Service:            svc,
		Engine:             engine,
		Metrics:            m,
		Logger:             logger,
		Ready:              result.Health,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustProxyHeaders:  cfg.TrustProxyHeaders,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting finvue server", "port", cfg.Port, "backend", cfg.DataBackend, "transactions", ledger.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
