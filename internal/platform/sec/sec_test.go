// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"crypto/rand"
	"crypto/rsa"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/klyptik/internal/platform/sec"
)

func newTokenService(t *testing.T, issuer string) *sec.TokenService {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return sec.NewTokenServiceFromKeys(key, &key.PublicKey, issuer)
}

/*
TestTokenService_RoundTrip verifies a freshly minted token resolves to its account.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	service := newTokenService(t, "klyptik.test")

	token, expiresAt, err := service.GenerateSessionToken("acc-1", time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	accountID, err := service.VerifySessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", accountID)
}

/*
TestTokenService_Expired checks that an old token is classified as expired.
*/
func TestTokenService_Expired(t *testing.T) {
	service := newTokenService(t, "klyptik.test")
	past := service.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })

	token, _, err := past.GenerateSessionToken("acc-1", time.Hour)
	require.NoError(t, err)

	_, err = service.VerifySessionToken(token)
	assert.ErrorIs(t, err, sec.ErrTokenExpired)
	assert.NotErrorIs(t, err, sec.ErrTokenInvalid)
}

/*
TestTokenService_Invalid covers tokens that must never verify.
*/
func TestTokenService_Invalid(t *testing.T) {
	service := newTokenService(t, "klyptik.test")
	stranger := newTokenService(t, "klyptik.test")

	foreign, _, err := stranger.GenerateSessionToken("acc-1", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"empty", ""},
		{"wrong_signing_key", foreign},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.VerifySessionToken(tt.token)
			assert.ErrorIs(t, err, sec.ErrTokenInvalid)
		})
	}

	t.Run("wrong_issuer", func(t *testing.T) {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		ours := sec.NewTokenServiceFromKeys(key, &key.PublicKey, "klyptik.test")
		theirs := sec.NewTokenServiceFromKeys(key, &key.PublicKey, "elsewhere.test")

		token, _, err := theirs.GenerateSessionToken("acc-1", time.Hour)
		require.NoError(t, err)

		_, err = ours.VerifySessionToken(token)
		assert.ErrorIs(t, err, sec.ErrTokenInvalid)
	})
}

/*
TestPasswordHasher verifies bcrypt hashing and comparison.
*/
func TestPasswordHasher(t *testing.T) {
	hasher := sec.NewPasswordHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("securepassword123")
	require.NoError(t, err)
	assert.NotEqual(t, "securepassword123", hash)

	assert.True(t, hasher.Matches("securepassword123", hash))
	assert.False(t, hasher.Matches("wrong", hash))
	assert.False(t, hasher.Matches("securepassword123", "not-a-hash"))

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	t.Run("too_long", func(t *testing.T) {
		_, err := hasher.Hash(strings.Repeat("a", 73))
		assert.ErrorIs(t, err, sec.ErrPasswordTooLong)
	})

	t.Run("out_of_range_cost", func(t *testing.T) {
		assert.Equal(t, bcrypt.DefaultCost, sec.NewPasswordHasher(0).Cost())
		assert.Equal(t, bcrypt.DefaultCost, sec.NewPasswordHasher(bcrypt.MaxCost+1).Cost())
	})

	t.Run("decoy", func(t *testing.T) {
		assert.NotPanics(t, func() { hasher.BurnDecoy("anything") })
	})
}
