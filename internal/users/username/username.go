// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package username owns the username → account index and the rules that turn
free text into a usable, unique username.

The identity provider knows accounts only by email; this index is the sole
place a username is bound to an account. Uniqueness is enforced by the
backing store's atomic write ([Index.Reserve]), never by an in-process lock,
so any number of API replicas can register concurrently.
*/
package username

import (
	"context"
	"errors"
)

const (
	// MaxLength caps the base produced by [Normalize].
	MaxLength = 30

	// MaxSuffixAttempts bounds how many suffixed candidates [ResolveAvailable] tries.
	MaxSuffixAttempts = 50

	// DefaultBase is used when normalization leaves nothing behind.
	DefaultBase = "user"
)

var (
	// ErrUsernameTaken means another account already holds the username.
	ErrUsernameTaken = errors.New("username: taken")

	// ErrUsernameNotFound means no binding exists for the username or account.
	ErrUsernameNotFound = errors.New("username: not found")

	// ErrAccountAlreadyIndexed means the account is already bound to a username.
	ErrAccountAlreadyIndexed = errors.New("username: account already indexed")

	// ErrUsernameGenerationFailed means every candidate up to MaxSuffixAttempts was taken.
	ErrUsernameGenerationFailed = errors.New("username: generation failed")
)

// # Contract

// Index is the persistent username → account mapping.
type Index interface {

	/*
		Reserve atomically binds username to accountID.

		Parameters:
		  - ctx: context.Context
		  - username: string (already normalized)
		  - accountID: string

		Returns:
		  - error: ErrUsernameTaken, ErrAccountAlreadyIndexed or storage failures
	*/
	Reserve(ctx context.Context, username, accountID string) error

	/*
		Lookup resolves a username to the account it is bound to.

		Returns:
		  - string: Account identifier
		  - error: ErrUsernameNotFound or storage failures
	*/
	Lookup(ctx context.Context, username string) (string, error)

	/*
		UsernameOf is the reverse of Lookup.

		Returns:
		  - string: Username bound to the account
		  - error: ErrUsernameNotFound or storage failures
	*/
	UsernameOf(ctx context.Context, accountID string) (string, error)

	// IsAvailable reports whether username is currently unbound.
	IsAvailable(ctx context.Context, username string) (bool, error)
}
