// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package postgres provides the PostgreSQL connection pool shared by the
// account store and the username index.
//
// # Startup
//
// The database often becomes reachable a few seconds after the API process
// starts (compose, rolling deploys). [NewPool] therefore retries the first
// ping with exponential backoff before giving up.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"

	"github.com/taibuivan/klyptik/internal/platform/constants"
)

const (
	maxConnLifetime   = 60 * time.Minute
	maxConnIdleTime   = 10 * time.Minute
	healthCheckPeriod = 1 * time.Minute
	connectTimeout    = 5 * time.Second
	pingTimeout       = 2 * time.Second
)

// PoolOptions sizes the pool and bounds the startup connection attempts.
type PoolOptions struct {
	MaxConns int32
	MinConns int32

	// StatementTimeout is applied to every physical connection. Zero disables it.
	StatementTimeout time.Duration

	// ConnectRetries is the number of extra ping attempts after the first one fails.
	ConnectRetries uint64

	// ConnectBackoff is the first delay between attempts; it doubles each time.
	ConnectBackoff time.Duration
}

// DefaultPoolOptions returns the settings used when configuration does not override them.
func DefaultPoolOptions() PoolOptions {
	return PoolOptions{
		MaxConns:         25,
		MinConns:         5,
		StatementTimeout: constants.StatementTimeout,
		ConnectRetries:   5,
		ConnectBackoff:   500 * time.Millisecond,
	}
}

/*
NewPool creates a pool for dsn and waits until the database answers a ping.

Parameters:
  - ctx: context.Context bounding the whole startup, retries included
  - dsn: string (libpq connection string or postgres:// URL)
  - options: PoolOptions
  - logger: *slog.Logger

Returns:
  - *pgxpool.Pool: A pool that has served at least one ping
  - error: Invalid DSN, or the last ping failure once retries are exhausted
*/
func NewPool(ctx context.Context, dsn string, options PoolOptions, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: invalid DSN: %w", err)
	}

	poolConfig.MaxConns = options.MaxConns
	poolConfig.MinConns = options.MinConns
	poolConfig.MaxConnLifetime = maxConnLifetime
	poolConfig.MaxConnIdleTime = maxConnIdleTime
	poolConfig.HealthCheckPeriod = healthCheckPeriod
	poolConfig.ConnConfig.ConnectTimeout = connectTimeout

	if options.StatementTimeout > 0 {
		timeoutQuery := fmt.Sprintf("SET statement_timeout = %d", options.StatementTimeout.Milliseconds())
		poolConfig.AfterConnect = func(ctx context.Context, connection *pgx.Conn) error {
			_, err := connection.Exec(ctx, timeoutQuery)
			return err
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}

	attempt := 0
	backoff := retry.WithMaxRetries(options.ConnectRetries, retry.NewExponential(options.ConnectBackoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := Ping(ctx, pool); err != nil {
			logger.Warn("postgres_not_ready", slog.Int("attempt", attempt), slog.Any("error", err))
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, err
	}

	stats := pool.Stat()
	logger.Info("postgres_pool_connected",
		slog.Int("attempts", attempt),
		slog.Int("max_conns", int(stats.MaxConns())),
		slog.Int("total_conns", int(stats.TotalConns())),
	)

	return pool, nil
}

// Ping verifies that the pool can reach the database.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("postgres: ping failed: %w", err)
	}

	return nil
}
