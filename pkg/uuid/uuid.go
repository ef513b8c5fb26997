// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid generates the identifiers handed out to new accounts.

Values are UUIDv7, so they sort by creation time and keep the identity.accounts
primary key index append-mostly.
*/
package uuid

import (
	"strings"

	"github.com/google/uuid"
)

// # Generators

// New generates a new UUIDv7 string.
func New() string {

	// entropy failure is an unrecoverable system-level error
	id, err := uuid.NewV7()
	if err != nil {
		panic("uuid: failed to generate UUIDv7: " + err.Error())
	}

	return id.String()
}

// Compact returns id without hyphens, or id unchanged when it is not a UUID.
func Compact(id string) string {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return id
	}
	return strings.ReplaceAll(parsed.String(), "-", "")
}

// Valid reports whether id parses as a UUID of any version.
func Valid(id string) bool {
	return uuid.Validate(id) == nil
}
