package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"finvue/internal/amqp"
	"finvue/internal/backend"
	"finvue/internal/cli"
	"finvue/internal/config"
	"finvue/internal/core"
	gsheet "finvue/internal/sheets/google"
	"finvue/internal/store"
	"finvue/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting finvue-worker")

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	sheetCfg := gsheet.ConfigFromEnv()
	sheetCfg.SpreadsheetID = cfg.GoogleSpreadsheetID
	sheetCfg.SheetName = cfg.GoogleSheetName
	sheetsClient, err := gsheet.New(ctx, sheetCfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleSheetName)

	// The reconciler reads the same store the server writes to.
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
	defer result.Cleanup()
	persister := store.NewJSONPersister(result.KV)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	mirror := worker.NewMirrorWorker(sheetsClient)
	reconciler := worker.NewReconciler(func(ctx context.Context) ([]core.Transaction, error) {
		txs, _, err := persister.LoadTransactions(ctx)
		return txs, err
	}, sheetsClient, worker.ReconcilerConfig{Interval: cfg.MirrorReconcileEvery})

	if err := reconciler.Start(ctx); err != nil {
		logger.Error("Failed to start reconciler", "error", err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := amqpClient.ConsumeEvents(gctx, mirror.HandleEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	waitErr := g.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := reconciler.Stop(shutdownCtx); err != nil {
		logger.Warn("Reconciler did not stop cleanly", "error", err)
	}

	if waitErr != nil {
		logger.Error("Event consumption failed", "error", waitErr)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
