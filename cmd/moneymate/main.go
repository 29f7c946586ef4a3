package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"moneymate/internal/analytics"
	"moneymate/internal/backend"
	"moneymate/internal/cache"
	"moneymate/internal/cli"
	apphttp "moneymate/internal/http"
	"moneymate/internal/log"
	"moneymate/internal/metrics"
	"moneymate/internal/middleware/ratelimit"
	"moneymate/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg, logger, err := cli.LoadAndValidateConfig(log.ComponentApp)
	if err != nil {
		cli.Fatal(logger, "Invalid configuration", err)
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), bcfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize ledger store", err)
	}

	m := metrics.New()
	reports := cache.NewLRUCache[analytics.Report](cfg.CacheSize, cfg.CacheTTL)
	cacheManager := cache.NewManager(logger.Slog())
	cacheManager.Register(reports)
	cacheManager.StartCleanup(cfg.CacheTTL)

	allowance := cfg.DefaultAllowance
	svc := services.NewLedgerService(result.Repository, services.Options{
		Publisher:        result.Publisher,
		Reports:          reports,
		Metrics:          m,
		Logger:           logger,
		DefaultAllowance: &allowance,
	})

	srv := apphttp.NewServer(":"+cfg.Port, svc, apphttp.Options{
		Logger:  logger,
		Metrics: m,
		Limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		OnShutdown: func() {
			cacheManager.Stop()
			if err := svc.Close(); err != nil {
				logger.Error("Failed to release backend", log.FieldError, err)
			}
		},
	})

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting moneymate server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"sync_enabled", result.Publisher != nil)
	start := time.Now()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cli.Fatal(logger, "Server error", err)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully", "uptime", time.Since(start).Round(time.Second).String())
}
