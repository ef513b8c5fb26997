// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package identity is the adapter around the identity provider, the service of
record for accounts, credentials and session tokens.

The provider keys accounts by email only. Usernames are not its concern: they
live in the username index, which the registration and login flows keep in
step with the accounts created here.

# Failure Kinds

Every operation fails with one of the sentinel errors below, so callers
branch with [errors.Is] and never see storage or token-library vocabulary.
*/
package identity

import (
	"context"
	"errors"
	"time"
)

// # Failure Kinds

var (
	// ErrEmailAlreadyExists means an account is already registered with the email.
	ErrEmailAlreadyExists = errors.New("identity: email already exists")

	// ErrWeakPassword means the password does not meet the provider's policy.
	ErrWeakPassword = errors.New("identity: weak password")

	// ErrInvalidCredentials means the password does not match the account.
	ErrInvalidCredentials = errors.New("identity: invalid credentials")

	// ErrAccountNotFound means no account matches the email or identifier.
	ErrAccountNotFound = errors.New("identity: account not found")

	// ErrTokenExpired means the session token was valid but is past its expiry.
	ErrTokenExpired = errors.New("identity: token expired")

	// ErrTokenInvalid means the session token is malformed, forged or foreign.
	ErrTokenInvalid = errors.New("identity: token invalid")

	// ErrProviderUnavailable means the provider could not answer. Safe to retry.
	ErrProviderUnavailable = errors.New("identity: provider unavailable")
)

// MinPasswordLength is the shortest password the provider accepts.
const MinPasswordLength = 6

// # Domain Entities

// Account is the provider's record of a registered user.
type Account struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProfileFields is a partial profile update. Nil fields are left untouched.
type ProfileFields struct {
	DisplayName *string
	PhotoURL    *string
}

// IsEmpty reports whether the update carries no field at all.
func (fields ProfileFields) IsEmpty() bool {
	return fields.DisplayName == nil && fields.PhotoURL == nil
}

// Session is an issued session token and its lifetime.
type Session struct {
	Token     string
	AccountID string
	ExpiresAt time.Time
	TTL       time.Duration
}

// # Contract

// Provider is the contract every identity provider adapter fulfils.
//
// All calls are treated as remote: they may block, time out, or fail with
// [ErrProviderUnavailable] regardless of input validity.
type Provider interface {
	// CreateAccount registers email/password and returns the new account identifier.
	CreateAccount(ctx context.Context, email, password, displayName string) (string, error)

	// VerifyCredentials checks the password for email and issues a session token.
	VerifyCredentials(ctx context.Context, email, password string) (*Session, error)

	// VerifyToken validates a session token and returns the account it is bound to.
	VerifyToken(ctx context.Context, token string) (string, error)

	// UpdateProfile applies a partial profile update to the account.
	UpdateProfile(ctx context.Context, accountID string, fields ProfileFields) error

	// GetAccount returns the account record, including its email.
	GetAccount(ctx context.Context, accountID string) (*Account, error)
}
