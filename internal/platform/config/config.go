// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/taibuivan/klyptik/pkg/slice"
)

// Supported username index backends.
const (
	IndexBackendPostgres = "postgres"
	IndexBackendRedis    = "redis"
)

// # Configuration Schema

// Config holds all runtime configuration for the Klyptik API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns  int32  `env:"DB_MIN_CONNS" envDefault:"5"`

	// Key-Value Store (Redis). Only required when the username index lives there.
	RedisURL      string `env:"REDIS_URL"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"10"`

	// Startup connection attempts against PostgreSQL and Redis
	ConnectRetries uint64        `env:"CONNECT_RETRIES" envDefault:"5"`
	ConnectBackoff time.Duration `env:"CONNECT_BACKOFF" envDefault:"500ms"`

	// UsernameIndexBackend selects where username -> account bindings are kept.
	UsernameIndexBackend string `env:"USERNAME_INDEX_BACKEND" envDefault:"postgres"`

	// Cryptographic keys for session token signing
	JWTPrivKeyPath  string        `env:"JWT_PRIVATE_KEY_PATH,required,notEmpty"`
	JWTPubKeyPath   string        `env:"JWT_PUBLIC_KEY_PATH,required,notEmpty"`
	SessionTokenTTL time.Duration `env:"SESSION_TOKEN_TTL" envDefault:"1h"`

	// ProviderTimeout bounds every identity provider call.
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"5s"`

	// PasswordHashCost is the bcrypt work factor (4..31) for new accounts.
	PasswordHashCost int `env:"PASSWORD_HASH_COST" envDefault:"10"`

	// Quiz generation collaborator
	ModelEndpoint string        `env:"MODEL_ENDPOINT"`
	ModelTimeout  time.Duration `env:"MODEL_TIMEOUT" envDefault:"60s"`

	// Cross-Origin Resource Sharing, on top of klyptik.app and its subdomains
	ExtraOrigins []string `env:"EXTRA_ORIGINS" envSeparator:","`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field rules that struct tags cannot express.
func (c *Config) Validate() error {
	switch c.UsernameIndexBackend {
	case IndexBackendPostgres:
	case IndexBackendRedis:
		if c.RedisURL == "" {
			return errors.New("config: REDIS_URL is required when USERNAME_INDEX_BACKEND=redis")
		}
	default:
		return fmt.Errorf("config: unknown USERNAME_INDEX_BACKEND %q", c.UsernameIndexBackend)
	}

	if c.SessionTokenTTL <= 0 {
		return errors.New("config: SESSION_TOKEN_TTL must be positive")
	}

	if c.ProviderTimeout <= 0 {
		return errors.New("config: PROVIDER_TIMEOUT must be positive")
	}

	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("config: DB_MIN_CONNS=%d and DB_MAX_CONNS=%d must satisfy 0 <= min <= max, max > 0", c.DBMinConns, c.DBMaxConns)
	}

	if c.PasswordHashCost < 4 || c.PasswordHashCost > 31 {
		return fmt.Errorf("config: PASSWORD_HASH_COST=%d is outside bcrypt's 4..31 range", c.PasswordHashCost)
	}

	if c.RedisPoolSize <= 0 {
		return errors.New("config: REDIS_POOL_SIZE must be positive")
	}

	if c.ConnectBackoff <= 0 {
		return errors.New("config: CONNECT_BACKOFF must be positive")
	}

	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// CORSOrigins lists origins allowed in addition to the first-party domain.
//
// Entries are trimmed and lose any trailing slash, since browsers send the
// Origin header without one. Blank entries are dropped.
func (c *Config) CORSOrigins() []string {
	origins := slice.Map(c.ExtraOrigins, func(origin string) string {
		return strings.TrimRight(strings.TrimSpace(origin), "/")
	})
	return slice.Filter(origins, func(origin string) bool { return origin != "" })
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
