// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

// # Registration Policy

const (
	// MaxReserveRounds is how many resolve-then-reserve rounds registration
	// runs before falling back to the id-derived username.
	MaxReserveRounds = 3

	// MaxPasswordBytes is the longest password bcrypt can hash.
	MaxPasswordBytes = 72

	// MaxDisplayNameLength caps display names in runes.
	MaxDisplayNameLength = 100

	// MaxPhotoURLLength caps stored photo URLs.
	MaxPhotoURLLength = 2048
)

// # Payload Fields

const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldUsername        = "username"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirm_password"
	FieldIdentifier      = "email_or_username"
	FieldDisplayName     = "display_name"
	FieldPhotoURL        = "photo_url"
)

// TokenType is reported alongside every issued session token.
const TokenType = "Bearer"
