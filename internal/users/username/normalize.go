// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package username

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/taibuivan/klyptik/pkg/uuid"
)

/*
Normalize turns arbitrary text into a username base.

# Transformation Pipeline

 1. Decomposes to NFD and drops combining marks (é → e).
 2. Lowercases.
 3. Keeps only a-z, 0-9, '.' and '_'.
 4. Trims leading and trailing dots.
 5. Caps the result at MaxLength.

An empty result becomes DefaultBase. The output never contains '@'.
*/
func Normalize(raw string) string {

	// transform.Chain keeps state, so each call gets its own.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	decomposed, _, err := transform.String(stripMarks, raw)
	if err != nil {
		decomposed = raw
	}

	var builder strings.Builder
	for _, r := range strings.ToLower(decomposed) {
		if isAllowed(r) {
			builder.WriteRune(r)
		}
	}

	name := strings.Trim(builder.String(), ".")

	// Only ASCII survives the filter, so byte length equals rune length.
	if len(name) > MaxLength {
		name = strings.TrimRight(name[:MaxLength], ".")
	}

	if name == "" {
		return DefaultBase
	}
	return name
}

// Canonical is the lookup form of a username typed at login: trimmed and
// lowercased, with no other rewriting.
func Canonical(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// FallbackFor derives a username from the account identifier. Account
// identifiers are unique, so the result is too.
func FallbackFor(accountID string) string {
	return DefaultBase + uuid.Compact(accountID)
}

func isAllowed(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.' || r == '_'
}
