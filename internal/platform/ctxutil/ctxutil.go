// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
//
// Keys are unexported, so the request ID, logger and account set here can
// only be read back through this package.
package ctxutil

import (
	"context"
	"log/slog"
)

type key string

const (
	keyRequestID key = "request_id"
	keyAccountID key = "account_id"
	keyLogger    key = "logger"
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyRequestID, id)
}

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if not found.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(keyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, keyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(keyLogger).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}

// WithLogAttrs returns a context whose logger carries attrs on every entry,
// on top of whatever the current logger already carries.
func WithLogAttrs(ctx context.Context, attrs ...slog.Attr) context.Context {
	if len(attrs) == 0 {
		return ctx
	}

	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}
	return WithLogger(ctx, GetLogger(ctx).With(args...))
}

// # Identity & Access

// WithAccountID returns a new context carrying the authenticated account identifier.
func WithAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, keyAccountID, accountID)
}

// GetAccountID retrieves the authenticated account identifier.
// Returns an empty string for anonymous requests.
func GetAccountID(ctx context.Context) string {
	id, _ := ctx.Value(keyAccountID).(string)
	return id
}

// Authenticate binds accountID to ctx and to the context logger, so every
// later log line of the request names the caller.
func Authenticate(ctx context.Context, accountID string) context.Context {
	ctx = WithAccountID(ctx, accountID)
	return WithLogAttrs(ctx, slog.String("account_id", accountID))
}
