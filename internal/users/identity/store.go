// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"time"
)

// AccountRecord is an [Account] together with its stored credential.
type AccountRecord struct {
	Account
	PasswordHash string
}

// # Account Data Access

// AccountStore defines the persistence contract behind [LocalProvider].
type AccountStore interface {

	/*
		Insert persists a brand-new account.

		Parameters:
		  - ctx: context.Context
		  - record: *AccountRecord

		Returns:
		  - error: ErrEmailAlreadyExists or storage failures
	*/
	Insert(ctx context.Context, record *AccountRecord) error

	/*
		FindByEmail returns the account registered under email.

		Parameters:
		  - ctx: context.Context
		  - email: string (lowercase)

		Returns:
		  - *AccountRecord: Hydrated record
		  - error: ErrAccountNotFound or storage failures
	*/
	FindByEmail(ctx context.Context, email string) (*AccountRecord, error)

	/*
		FindByID returns the account with the given identifier.

		Parameters:
		  - ctx: context.Context
		  - id: string

		Returns:
		  - *AccountRecord: Hydrated record
		  - error: ErrAccountNotFound or storage failures
	*/
	FindByID(ctx context.Context, id string) (*AccountRecord, error)

	/*
		UpdateProfile overwrites the non-nil profile fields.

		Parameters:
		  - ctx: context.Context
		  - id: string
		  - fields: ProfileFields
		  - updatedAt: time.Time

		Returns:
		  - error: ErrAccountNotFound or storage failures
	*/
	UpdateProfile(ctx context.Context, id string, fields ProfileFields, updatedAt time.Time) error
}
