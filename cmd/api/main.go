// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Klyptik HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool, retried), then run migrations (idempotent).
//  4. Connect to Redis when it backs the username index.
//  5. Build the identity provider and the username index.
//  6. Wire HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
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

	"github.com/taibuivan/klyptik/internal/api"
	"github.com/taibuivan/klyptik/internal/platform/config"
	"github.com/taibuivan/klyptik/internal/platform/constants"
	"github.com/taibuivan/klyptik/internal/platform/migration"
	pgstore "github.com/taibuivan/klyptik/internal/platform/postgres"
	redisstore "github.com/taibuivan/klyptik/internal/platform/redis"
	"github.com/taibuivan/klyptik/internal/platform/sec"
	"github.com/taibuivan/klyptik/internal/quiz"
	"github.com/taibuivan/klyptik/internal/users/auth"
	"github.com/taibuivan/klyptik/internal/users/identity"
	"github.com/taibuivan/klyptik/internal/users/username"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("username_index", cfg.UsernameIndexBackend),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	poolOptions := pgstore.DefaultPoolOptions()
	poolOptions.MaxConns = cfg.DBMaxConns
	poolOptions.MinConns = cfg.DBMinConns
	poolOptions.ConnectRetries = cfg.ConnectRetries
	poolOptions.ConnectBackoff = cfg.ConnectBackoff

	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, poolOptions, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	must(log, migration.RunUp(cfg.DatabaseURL, log), "run migrations")

	checks := []api.HealthCheck{
		{Name: "postgres", Check: func(ctx context.Context) error { return pgstore.Ping(ctx, pool) }},
	}

	// ── 4. Username Index ─────────────────────────────────────────────────
	var index username.Index = username.NewPostgresIndex(pool)

	if cfg.UsernameIndexBackend == config.IndexBackendRedis {
		redisOptions := redisstore.DefaultClientOptions()
		redisOptions.PoolSize = cfg.RedisPoolSize
		redisOptions.ConnectRetries = cfg.ConnectRetries
		redisOptions.ConnectBackoff = cfg.ConnectBackoff

		rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, redisOptions, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing redis client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis close error", slog.Any("error", cerr))
			}
		}()

		index = username.NewRedisIndex(rdb)
		checks = append(checks, api.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) },
		})
	}

	// ── 5. Identity Provider ──────────────────────────────────────────────
	tokenService, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize token service")

	providerOptions := identity.DefaultLocalOptions()
	providerOptions.SessionTTL = cfg.SessionTokenTTL
	providerOptions.Timeout = cfg.ProviderTimeout
	providerOptions.HashCost = cfg.PasswordHashCost

	provider := identity.NewLocalProvider(identity.NewPostgresAccountStore(pool), tokenService, providerOptions)

	// ── 6. Domain Wiring ──────────────────────────────────────────────────
	liveness, readiness := api.NewHealthHandlers(checks, log)

	authHandler := auth.NewHandler(auth.NewService(provider, index))

	var generator quiz.Generator
	if cfg.ModelEndpoint != "" {
		generator = quiz.NewRemoteGenerator(cfg.ModelEndpoint, cfg.ModelTimeout)
	} else {
		log.Warn("quiz_generation_disabled", slog.String("reason", "MODEL_ENDPOINT not set"))
	}

	// ── 7. HTTP Server ────────────────────────────────────────────────────
	server := api.NewServer(cfg, log, provider, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
		Quiz:      quiz.NewHandler(generator),
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// newLogger builds the JSON logger every entry of which carries the app name.
func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, step string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("step", step),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
