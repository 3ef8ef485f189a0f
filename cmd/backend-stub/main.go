package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"inference-gateway/backendstub"
	"inference-gateway/logging"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("LISTEN_ADDR", ":8080")
	v.SetDefault("MODEL_NAME", "stub-uppercase")
	v.SetDefault("LOAD_DELAY", time.Duration(0))
	v.SetDefault("LOG_LEVEL", "info")

	logger, err := logging.New(v.GetString("LOG_LEVEL"))
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named("backend")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	stub := backendstub.New(backendstub.Options{
		Model: v.GetString("MODEL_NAME"),
		Log:   logger,
	})
	// o modelo "carrega" em background; /healthz responde desde o início
	go stub.Load(ctx, v.GetDuration("LOAD_DELAY"))

	addr := v.GetString("LISTEN_ADDR")
	srv := &http.Server{
		Addr:              addr,
		Handler:           stub.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("backend_listening", zap.String("listen", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("server_error", zap.Error(err))
	}
}
