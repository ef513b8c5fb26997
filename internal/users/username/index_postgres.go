// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package username

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/klyptik/internal/platform/database/schema"
	"github.com/taibuivan/klyptik/internal/platform/dberr"
)

// PostgresIndex implements [Index] on the identity.usernames table.
type PostgresIndex struct {
	pool *pgxpool.Pool
}

var _ Index = (*PostgresIndex)(nil)

// NewPostgresIndex creates a new PostgreSQL implementation of the Index.
func NewPostgresIndex(pool *pgxpool.Pool) *PostgresIndex {
	return &PostgresIndex{pool: pool}
}

// Reserve inserts the binding. The primary key decides races between
// concurrent registrations.
func (index *PostgresIndex) Reserve(ctx context.Context, username, accountID string) error {
	usernames := schema.IdentityUsername
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES ($1, $2)`,
		usernames.Table, usernames.Username, usernames.AccountID)

	if _, err := index.pool.Exec(ctx, query, username, accountID); err != nil {
		switch {
		case dberr.IsUniqueViolation(err, usernames.UsernameKey):
			return ErrUsernameTaken
		case dberr.IsUniqueViolation(err, usernames.AccountKey):
			return ErrAccountAlreadyIndexed
		}
		return fmt.Errorf("postgres_index_reserve_failed: %w", err)
	}

	return nil
}

// Lookup resolves a username to its account.
func (index *PostgresIndex) Lookup(ctx context.Context, username string) (string, error) {
	usernames := schema.IdentityUsername
	query := fmt.Sprintf(`SELECT %s::text FROM %s WHERE %s = $1`,
		usernames.AccountID, usernames.Table, usernames.Username)

	var accountID string
	if err := index.pool.QueryRow(ctx, query, username).Scan(&accountID); err != nil {
		if dberr.IsNotFound(err) {
			return "", ErrUsernameNotFound
		}
		return "", fmt.Errorf("postgres_index_lookup_failed: %w", err)
	}

	return accountID, nil
}

// UsernameOf resolves an account to its username.
func (index *PostgresIndex) UsernameOf(ctx context.Context, accountID string) (string, error) {
	usernames := schema.IdentityUsername
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		usernames.Username, usernames.Table, usernames.AccountID)

	var username string
	if err := index.pool.QueryRow(ctx, query, accountID).Scan(&username); err != nil {
		if dberr.IsNotFound(err) {
			return "", ErrUsernameNotFound
		}
		return "", fmt.Errorf("postgres_index_username_of_failed: %w", err)
	}

	return username, nil
}

// IsAvailable reports whether no row holds username.
func (index *PostgresIndex) IsAvailable(ctx context.Context, username string) (bool, error) {
	usernames := schema.IdentityUsername
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)`,
		usernames.Table, usernames.Username)

	var taken bool
	if err := index.pool.QueryRow(ctx, query, username).Scan(&taken); err != nil {
		return false, fmt.Errorf("postgres_index_is_available_failed: %w", err)
	}

	return !taken, nil
}
