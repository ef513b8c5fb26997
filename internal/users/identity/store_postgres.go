// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/klyptik/internal/platform/database/schema"
	"github.com/taibuivan/klyptik/internal/platform/dberr"
)

// PostgresAccountStore implements [AccountStore] on the identity.accounts table.
type PostgresAccountStore struct {
	pool *pgxpool.Pool
}

var _ AccountStore = (*PostgresAccountStore)(nil)

// NewPostgresAccountStore creates a new PostgreSQL implementation of the AccountStore.
func NewPostgresAccountStore(pool *pgxpool.Pool) *PostgresAccountStore {
	return &PostgresAccountStore{pool: pool}
}

// Insert persists a new account. The email unique constraint is the only
// arbiter of duplicate registrations.
func (store *PostgresAccountStore) Insert(ctx context.Context, record *AccountRecord) error {
	accounts := schema.IdentityAccount
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		accounts.Table, strings.Join(accounts.Columns(), ", "))

	_, err := store.pool.Exec(ctx, query,
		record.ID,
		record.Email,
		record.PasswordHash,
		record.DisplayName,
		record.PhotoURL,
		record.CreatedAt,
		record.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err, accounts.EmailKey) {
			return ErrEmailAlreadyExists
		}
		return fmt.Errorf("postgres_account_store_insert_failed: %w", err)
	}

	return nil
}

// FindByEmail retrieves an account by its unique email address.
func (store *PostgresAccountStore) FindByEmail(ctx context.Context, email string) (*AccountRecord, error) {
	return store.scanOne(ctx, "find_by_email", schema.IdentityAccount.Email, email)
}

// FindByID retrieves an account by its primary key.
func (store *PostgresAccountStore) FindByID(ctx context.Context, id string) (*AccountRecord, error) {
	return store.scanOne(ctx, "find_by_id", schema.IdentityAccount.ID, id)
}

// UpdateProfile overwrites display_name and photo_url when the matching field is non-nil.
// A nil pointer binds as NULL, which COALESCE turns into "keep the current value".
func (store *PostgresAccountStore) UpdateProfile(ctx context.Context, id string, fields ProfileFields, updatedAt time.Time) error {
	accounts := schema.IdentityAccount
	query := fmt.Sprintf(`UPDATE %s SET %s = COALESCE($2, %s), %s = COALESCE($3, %s), %s = $4 WHERE %s = $1`,
		accounts.Table,
		accounts.DisplayName, accounts.DisplayName,
		accounts.PhotoURL, accounts.PhotoURL,
		accounts.UpdatedAt,
		accounts.ID,
	)

	tag, err := store.pool.Exec(ctx, query, id, fields.DisplayName, fields.PhotoURL, updatedAt)
	if err != nil {
		return fmt.Errorf("postgres_account_store_update_profile_failed: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}

	return nil
}

func (store *PostgresAccountStore) scanOne(ctx context.Context, op, column string, arg any) (*AccountRecord, error) {
	accounts := schema.IdentityAccount
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		strings.Join(accounts.Columns(), ", "), accounts.Table, column)

	record := &AccountRecord{}
	err := store.pool.QueryRow(ctx, query, arg).Scan(
		&record.ID,
		&record.Email,
		&record.PasswordHash,
		&record.DisplayName,
		&record.PhotoURL,
		&record.CreatedAt,
		&record.UpdatedAt,
	)

	if err != nil {
		if dberr.IsNotFound(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("postgres_account_store_%s_failed: %w", op, err)
	}

	return record, nil
}
