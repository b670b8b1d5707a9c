package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tenant_service/internal/auth"
	"tenant_service/internal/config"
	"tenant_service/internal/http_server/router"
	"tenant_service/internal/lib/crypto"
	"tenant_service/internal/lib/jwt"
	sl "tenant_service/internal/lib/logger/sl"
	"tenant_service/internal/lib/password"
	"tenant_service/internal/lib/verification"
	"tenant_service/internal/metrics"
	"tenant_service/internal/products"
	"tenant_service/internal/rabbitmq"
	"tenant_service/internal/storage/postgres"
	"tenant_service/internal/storage/redis"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// @title                       Tenant Service API
// @version                     1.0
// @description                 Account lifecycle and tenant-scoped product catalogue.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("starting tenant service", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("service stopped with error", sl.Err(err))
		os.Exit(1)
	}

	log.Info("tenant service stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	storage, err := postgres.New(ctx, cfg.Postgres.DSN())
	if err != nil {
		return err
	}
	defer storage.Close()

	if err := storage.Migrate(ctx); err != nil {
		return err
	}

	var cache products.Cache
	if cfg.Redis.Enabled {
		rdb, err := redis.New(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.CacheTTL)
		if err != nil {
			return err
		}
		defer rdb.Close()

		cache = rdb
		log.Info("product cache enabled", slog.String("address", cfg.Redis.Address))
	}

	msgBroker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		return err
	}
	defer msgBroker.Close()

	codec, err := jwt.NewCodec(cfg.Security.JWTSecret)
	if err != nil {
		return err
	}

	cipher, err := crypto.New(cfg.Encryption.Key)
	if err != nil {
		return err
	}

	authService := auth.New(
		log,
		storage,
		storage,
		password.New(password.DefaultCost),
		verification.NewIssuer(cfg.Verification.CodeLength, cfg.Verification.CodeTTL),
		codec,
		cfg.Security.TokenTTL(),
	)

	productService := products.New(log, storage, cache)

	srv := &http.Server{
		Addr: cfg.HTTPServer.Address,
		Handler: router.New(router.Deps{
			Log:        log,
			Accounts:   authService,
			Products:   productService,
			Tokens:     codec,
			Cipher:     cipher,
			Publisher:  msgBroker,
			ExposeCode: cfg.Verification.ExposeCode,
			RateLimit:  true,
		}),
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	metricsSrv := &http.Server{
		Addr:              cfg.Metrics.Address,
		Handler:           metricsMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 2)

	go func() {
		log.Info("HTTP server is running", slog.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	go func() {
		log.Info("metrics server is running", slog.String("address", metricsSrv.Addr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var serveErr error

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case serveErr = <-errCh:
		log.Error("server failed", sl.Err(serveErr))
	}

	log.Info("shutting down HTTP servers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", sl.Err(err))
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("metrics server shutdown error", sl.Err(err))
	}

	return serveErr
}

func metricsMux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
