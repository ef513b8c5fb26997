// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sethvargo/go-retry"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/klyptik/internal/platform/sec"
	"github.com/taibuivan/klyptik/pkg/uuid"
)

// LocalOptions tunes the remote-call behaviour of [LocalProvider].
type LocalOptions struct {
	// SessionTTL is the lifetime of issued session tokens.
	SessionTTL time.Duration

	// Timeout bounds each individual provider call.
	Timeout time.Duration

	// ReadRetries is how many extra attempts idempotent reads get.
	ReadRetries uint64

	// RetryDelay is the pause between read attempts.
	RetryDelay time.Duration

	// HashCost is the bcrypt work factor for new password hashes.
	HashCost int
}

// DefaultLocalOptions returns the options used when nothing is configured.
func DefaultLocalOptions() LocalOptions {
	return LocalOptions{
		SessionTTL:  time.Hour,
		Timeout:     5 * time.Second,
		ReadRetries: 1,
		RetryDelay:  50 * time.Millisecond,
		HashCost:    bcrypt.DefaultCost,
	}
}

// LocalProvider is the self-hosted [Provider]: accounts live in Postgres,
// passwords are bcrypt hashes and sessions are RS256 tokens.
type LocalProvider struct {
	store     AccountStore
	tokens    *sec.TokenService
	passwords *sec.PasswordHasher
	options   LocalOptions
	now       func() time.Time
}

var _ Provider = (*LocalProvider)(nil)

// NewLocalProvider creates a LocalProvider. Zero-valued options fall back to
// [DefaultLocalOptions].
func NewLocalProvider(store AccountStore, tokens *sec.TokenService, options LocalOptions) *LocalProvider {
	defaults := DefaultLocalOptions()
	if options.SessionTTL <= 0 {
		options.SessionTTL = defaults.SessionTTL
	}
	if options.Timeout <= 0 {
		options.Timeout = defaults.Timeout
	}
	if options.RetryDelay <= 0 {
		options.RetryDelay = defaults.RetryDelay
	}

	return &LocalProvider{
		store:     store,
		tokens:    tokens,
		passwords: sec.NewPasswordHasher(options.HashCost),
		options:   options,
		now:       time.Now,
	}
}

// # Operations

// CreateAccount registers a new account. Writes are never retried: a timed
// out insert may still have landed.
func (provider *LocalProvider) CreateAccount(ctx context.Context, email, password, displayName string) (string, error) {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return "", ErrWeakPassword
	}

	hash, err := provider.passwords.Hash(password)
	if errors.Is(err, sec.ErrPasswordTooLong) {
		return "", ErrWeakPassword
	}
	if err != nil {
		return "", fmt.Errorf("identity_hash_password: %w", err)
	}

	currentTime := provider.now().UTC()
	record := &AccountRecord{
		Account: Account{
			ID:          uuid.New(),
			Email:       CanonicalEmail(email),
			DisplayName: strings.TrimSpace(displayName),
			CreatedAt:   currentTime,
			UpdatedAt:   currentTime,
		},
		PasswordHash: hash,
	}

	err = provider.write(ctx, "create_account", func(ctx context.Context) error {
		return provider.store.Insert(ctx, record)
	})
	if err != nil {
		return "", err
	}

	return record.ID, nil
}

// VerifyCredentials checks the password and issues a session token.
//
// An unknown email still pays for one bcrypt comparison so response timing
// does not reveal which emails are registered.
func (provider *LocalProvider) VerifyCredentials(ctx context.Context, email, password string) (*Session, error) {
	var record *AccountRecord
	err := provider.read(ctx, "verify_credentials", func(ctx context.Context) error {
		found, err := provider.store.FindByEmail(ctx, CanonicalEmail(email))
		record = found
		return err
	})

	if errors.Is(err, ErrAccountNotFound) {
		provider.passwords.BurnDecoy(password)
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	if !provider.passwords.Matches(password, record.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := provider.tokens.GenerateSessionToken(record.ID, provider.options.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("identity_issue_session: %w", err)
	}

	return &Session{
		Token:     token,
		AccountID: record.ID,
		ExpiresAt: expiresAt,
		TTL:       provider.options.SessionTTL,
	}, nil
}

// VerifyToken validates a session token locally against the public key.
func (provider *LocalProvider) VerifyToken(ctx context.Context, token string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	accountID, err := provider.tokens.VerifySessionToken(token)
	if err != nil {
		if errors.Is(err, sec.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}

	return accountID, nil
}

// UpdateProfile applies a partial update.
func (provider *LocalProvider) UpdateProfile(ctx context.Context, accountID string, fields ProfileFields) error {
	if fields.IsEmpty() {
		_, err := provider.GetAccount(ctx, accountID)
		return err
	}

	return provider.write(ctx, "update_profile", func(ctx context.Context) error {
		return provider.store.UpdateProfile(ctx, accountID, fields, provider.now().UTC())
	})
}

// GetAccount returns the account record.
func (provider *LocalProvider) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	if !uuid.Valid(accountID) {
		return nil, ErrAccountNotFound
	}

	var record *AccountRecord
	err := provider.read(ctx, "get_account", func(ctx context.Context) error {
		found, err := provider.store.FindByID(ctx, accountID)
		record = found
		return err
	})
	if err != nil {
		return nil, err
	}

	account := record.Account
	return &account, nil
}

// # Call Discipline

// read runs an idempotent call under the per-call timeout and retries
// infrastructure failures up to ReadRetries times.
func (provider *LocalProvider) read(ctx context.Context, op string, call func(context.Context) error) error {
	backoff := retry.WithMaxRetries(provider.options.ReadRetries, retry.NewConstant(provider.options.RetryDelay))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := provider.attempt(ctx, call)
		if err != nil && !isDomainError(err) {
			return retry.RetryableError(err)
		}
		return err
	})

	return provider.classify(op, err)
}

// write runs a non-idempotent call exactly once under the per-call timeout.
func (provider *LocalProvider) write(ctx context.Context, op string, call func(context.Context) error) error {
	return provider.classify(op, provider.attempt(ctx, call))
}

func (provider *LocalProvider) attempt(ctx context.Context, call func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, provider.options.Timeout)
	defer cancel()
	return call(callCtx)
}

// classify passes domain failures through and folds everything else into
// ErrProviderUnavailable.
func (provider *LocalProvider) classify(op string, err error) error {
	if err == nil || isDomainError(err) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrProviderUnavailable, op, err)
}

func isDomainError(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrEmailAlreadyExists) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrWeakPassword)
}

// CanonicalEmail is the form emails are stored and matched in.
func CanonicalEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
