// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema names the tables, columns and constraints owned by the
// service so that SQL in the stores never repeats raw identifiers.
package schema

// IdentityAccountTable represents the 'identity.accounts' table
type IdentityAccountTable struct {
	Table        string
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	PhotoURL     string
	CreatedAt    string
	UpdatedAt    string

	// EmailKey is the unique constraint that rejects a second account per email.
	EmailKey string
}

// IdentityAccount is the schema definition for identity.accounts
var IdentityAccount = IdentityAccountTable{
	Table:        "identity.accounts",
	ID:           "id",
	Email:        "email",
	PasswordHash: "password_hash",
	DisplayName:  "display_name",
	PhotoURL:     "photo_url",
	CreatedAt:    "created_at",
	UpdatedAt:    "updated_at",
	EmailKey:     "accounts_email_key",
}

// Columns returns all standard column names
func (t IdentityAccountTable) Columns() []string {
	return []string{
		t.ID, t.Email, t.PasswordHash, t.DisplayName, t.PhotoURL, t.CreatedAt, t.UpdatedAt,
	}
}
