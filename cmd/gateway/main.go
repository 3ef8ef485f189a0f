package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inference-gateway/config"
	"inference-gateway/gateway"
	"inference-gateway/gateway/application"
	"inference-gateway/gateway/infra"
	"inference-gateway/logging"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	logger = logger.Named("gateway")

	// run devolve o erro para que os defers (client.Close, rdb.Close) rodem antes do exit
	err = run(cfg, logger)
	if err != nil {
		logger.Error("gateway_failed", zap.Error(err))
	}
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	// sem cliente de backend o gateway não sobe
	client, err := infra.NewBackendClient(infra.BackendClientConfig{
		BaseURL:        cfg.BackendURL,
		RequestTimeout: cfg.RequestTimeout,
		MaxConns:       cfg.PoolMaxConns,
		MaxIdleConns:   cfg.PoolMaxIdle,
	})
	if err != nil {
		return fmt.Errorf("backend client: %w", err)
	}
	defer client.Close()

	pool := infra.NewChanPool(cfg.MaxConcurrent)
	metrics := infra.NewPromMetrics(nil)
	metrics.TrackSlots(pool)

	stats, closeStats, err := newStatsStore(context.Background(), cfg.Stats)
	if err != nil {
		return err
	}
	defer closeStats()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	keyFn := gateway.DefaultKeyFunc(cfg.Rate.KeyHeader, cfg.Rate.TrustXFF)

	var rateLimit func(http.Handler) http.Handler
	if cfg.Rate.Enabled {
		store := infra.NewLimiterStore(cfg.Rate.RPS, cfg.Rate.Burst)
		store.StartJanitor(ctx)
		rateLimit = gateway.RateLimit(gateway.RateLimitOptions{
			Store:               store,
			Stats:               stats,
			KeyFn:               keyFn,
			RetryAfter:          cfg.Rate.RetryAfter,
			AddRateLimitHeaders: cfg.Rate.AddHeaders,
			Log:                 logger,
		})
	}

	h := gateway.NewHandler(gateway.Options{
		Forward: application.ForwardService{
			Backend: client,
			Pool:    pool,
			Metrics: metrics,
			Stats:   stats,
			Log:     logger,
		},
		Health: application.HealthService{
			Backend: client,
			Metrics: metrics,
			Log:     logger,
		},
		Metrics:      metrics.Handler(),
		RateLimit:    rateLimit,
		KeyFn:        keyFn,
		MaxBodyBytes: cfg.MaxBodyBytes,
		Log:          logger,
	})

	// sem WriteTimeout: a resposta pode esperar a fila do portão mais o REQUEST_TIMEOUT
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		logger.Info("gateway_shutdown", zap.Duration("grace", cfg.ShutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("gateway_shutdown_incomplete", zap.Error(err))
		}
	}()

	logger.Info("gateway_startup",
		zap.String("listen", cfg.ListenAddr),
		zap.String("backend", cfg.BackendURL),
		zap.Duration("request_timeout", cfg.RequestTimeout),
		zap.Int("max_concurrent", cfg.MaxConcurrent),
		zap.Int("pool_max_conns", cfg.PoolMaxConns),
		zap.Int("pool_max_idle", cfg.PoolMaxIdle),
		zap.Bool("rate_enabled", cfg.Rate.Enabled),
		zap.Float64("rate_rps", cfg.Rate.RPS),
		zap.Int("rate_burst", cfg.Rate.Burst),
		zap.Bool("outcome_stats", stats != nil),
	)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cancel()
		<-shutdownDone
		return fmt.Errorf("server: %w", err)
	}
	<-shutdownDone
	return nil
}
