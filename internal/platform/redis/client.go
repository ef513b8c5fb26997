// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package redis provides the client for the optional Redis username index.

The index relies on SETNX as its uniqueness-enforcing write, so no client-side
locking is involved. Index entries carry no TTL: deployments using this
backend must enable persistence (AOF or RDB).
*/
package redis

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

const (
	dialTimeout  = 3 * time.Second
	readTimeout  = 2 * time.Second
	writeTimeout = 2 * time.Second
	pingTimeout  = 2 * time.Second
)

// ClientOptions sizes the connection pool and bounds startup attempts.
type ClientOptions struct {
	PoolSize int

	// ConnectRetries is the number of extra ping attempts after the first one fails.
	ConnectRetries uint64

	// ConnectBackoff is the first delay between attempts; it doubles each time.
	ConnectBackoff time.Duration
}

// DefaultClientOptions returns the settings used when configuration does not override them.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		PoolSize:       10,
		ConnectRetries: 5,
		ConnectBackoff: 500 * time.Millisecond,
	}
}

// NewClient parses redisURL and returns a client that has answered a ping.
//
// # Parameters
//   - context: Bounds the startup attempts.
//   - redisURL: redis:// or rediss:// URL.
//   - options: Pool size and retry policy.
//   - logger: Structured logger for connection events.
func NewClient(context stdctx.Context, redisURL string, options ClientOptions, logger *slog.Logger) (*redis.Client, error) {
	redisOptions, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}

	redisOptions.PoolSize = options.PoolSize
	redisOptions.MinIdleConns = max(options.PoolSize/5, 1)
	redisOptions.MaxIdleConns = max(options.PoolSize/2, 1)

	redisOptions.DialTimeout = dialTimeout
	redisOptions.ReadTimeout = readTimeout
	redisOptions.WriteTimeout = writeTimeout

	client := redis.NewClient(redisOptions)

	attempt := 0
	backoff := retry.WithMaxRetries(options.ConnectRetries, retry.NewExponential(options.ConnectBackoff))
	err = retry.Do(context, backoff, func(context stdctx.Context) error {
		attempt++
		if err := Ping(context, client); err != nil {
			logger.Warn("redis_not_ready", slog.Int("attempt", attempt), slog.Any("error", err))
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis_client_connected",
		slog.String("addr", redisOptions.Addr),
		slog.Int("pool_size", redisOptions.PoolSize),
		slog.Int("attempts", attempt),
	)

	return client, nil
}

// Ping verifies that the Redis server answers.
func Ping(context stdctx.Context, client *redis.Client) error {
	pingCtx, cancel := stdctx.WithTimeout(context, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis: ping failed: %w", err)
	}

	return nil
}
