// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong is returned for passwords bcrypt would silently truncate.
var ErrPasswordTooLong = errors.New("sec: password longer than 72 bytes")

// PasswordHasher hashes and checks passwords with bcrypt at a fixed cost.
type PasswordHasher struct {
	cost  int
	decoy func() string
}

// NewPasswordHasher creates a hasher. A cost outside bcrypt's range falls
// back to [bcrypt.DefaultCost].
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	hasher := &PasswordHasher{cost: cost}
	hasher.decoy = sync.OnceValue(func() string {
		hash, err := hasher.Hash("klyptik-decoy-credential")
		if err != nil {
			return ""
		}
		return hash
	})

	return hasher
}

// Cost reports the bcrypt work factor new hashes are created with.
func (hasher *PasswordHasher) Cost() int {
	return hasher.cost
}

// Hash returns the bcrypt hash of password.
func (hasher *PasswordHasher) Hash(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), hasher.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", fmt.Errorf("sec: failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// Matches reports whether password hashes to existingHash.
func (hasher *PasswordHasher) Matches(password, existingHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(password)) == nil
}

// BurnDecoy runs one comparison against a fixed hash of the same cost. Callers
// use it when there is no stored hash, so the miss costs as much as a check.
func (hasher *PasswordHasher) BurnDecoy(password string) {
	_ = hasher.Matches(password, hasher.decoy())
}
