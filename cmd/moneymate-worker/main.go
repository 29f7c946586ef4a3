package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"moneymate/internal/amqp"
	"moneymate/internal/backend"
	"moneymate/internal/cli"
	"moneymate/internal/log"
	"moneymate/internal/metrics"
	"moneymate/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, logger, err := cli.LoadAndValidateConfig(log.ComponentWorker)
	if err != nil {
		cli.Fatal(logger, "Invalid configuration", err)
	}
	if err := cfg.ValidateSheets(); err != nil {
		cli.Fatal(logger, "Invalid sync configuration", err)
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}

	appender, err := backend.NewFactory(logger).CreateAppender(context.Background(), bcfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize Google Sheets client", err)
	}

	client, err := amqp.NewClient(context.Background(), cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}

	m := metrics.New()
	var metricsSrv *http.Server
	if cfg.WorkerMetricsAddr != "" {
		r := chi.NewRouter()
		r.Method(http.MethodGet, "/metrics", m.Handler())
		r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			if err := client.Ping(r.Context()); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		})
		metricsSrv = &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics listener failed", log.FieldError, err)
			}
		}()
	}

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(ctx)
		}
	})

	logger.Info("Starting moneymate-worker",
		"queue", cfg.AMQPQueue,
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)

	runErr := worker.NewSyncWorker(appender, m, logger).Run(ctx, client)
	if err := client.Close(); err != nil {
		logger.Error("Failed to close AMQP client", log.FieldError, err)
	}
	if runErr != nil {
		cli.Fatal(logger, "Message consumption failed", runErr)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
