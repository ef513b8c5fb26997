// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/taibuivan/klyptik/internal/users/identity"
	"github.com/taibuivan/klyptik/internal/users/username"
	"github.com/taibuivan/klyptik/pkg/pointer"
	"github.com/taibuivan/klyptik/pkg/uuid"
)

// # In-memory Provider

type fakeAccount struct {
	identity.Account
	password string
}

type fakeProvider struct {
	mu       sync.Mutex
	accounts map[string]*fakeAccount
}

var _ identity.Provider = (*fakeProvider)(nil)

func newFakeProvider() *fakeProvider {
	return &fakeProvider{accounts: map[string]*fakeAccount{}}
}

func (provider *fakeProvider) CreateAccount(_ context.Context, email, password, displayName string) (string, error) {
	provider.mu.Lock()
	defer provider.mu.Unlock()

	if len(password) < identity.MinPasswordLength {
		return "", identity.ErrWeakPassword
	}
	email = identity.CanonicalEmail(email)
	for _, account := range provider.accounts {
		if account.Email == email {
			return "", identity.ErrEmailAlreadyExists
		}
	}

	now := time.Now().UTC()
	id := uuid.New()
	provider.accounts[id] = &fakeAccount{
		Account: identity.Account{
			ID:          id,
			Email:       email,
			DisplayName: strings.TrimSpace(displayName),
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		password: password,
	}
	return id, nil
}

func (provider *fakeProvider) VerifyCredentials(_ context.Context, email, password string) (*identity.Session, error) {
	provider.mu.Lock()
	defer provider.mu.Unlock()

	email = identity.CanonicalEmail(email)
	for _, account := range provider.accounts {
		if account.Email != email {
			continue
		}
		if account.password != password {
			return nil, identity.ErrInvalidCredentials
		}
		return &identity.Session{
			Token:     "token-" + account.ID,
			AccountID: account.ID,
			ExpiresAt: time.Now().Add(time.Hour),
			TTL:       time.Hour,
		}, nil
	}
	return nil, identity.ErrAccountNotFound
}

func (provider *fakeProvider) VerifyToken(_ context.Context, token string) (string, error) {
	provider.mu.Lock()
	defer provider.mu.Unlock()

	if strings.HasPrefix(token, "expired-") {
		return "", identity.ErrTokenExpired
	}
	accountID, ok := strings.CutPrefix(token, "token-")
	if !ok {
		return "", identity.ErrTokenInvalid
	}
	if _, exists := provider.accounts[accountID]; !exists {
		return "", identity.ErrTokenInvalid
	}
	return accountID, nil
}

func (provider *fakeProvider) UpdateProfile(_ context.Context, accountID string, fields identity.ProfileFields) error {
	provider.mu.Lock()
	defer provider.mu.Unlock()

	account, ok := provider.accounts[accountID]
	if !ok {
		return identity.ErrAccountNotFound
	}
	account.DisplayName = pointer.Fallback(fields.DisplayName, account.DisplayName)
	account.PhotoURL = pointer.Fallback(fields.PhotoURL, account.PhotoURL)
	account.UpdatedAt = time.Now().UTC()
	return nil
}

func (provider *fakeProvider) GetAccount(_ context.Context, accountID string) (*identity.Account, error) {
	provider.mu.Lock()
	defer provider.mu.Unlock()

	account, ok := provider.accounts[accountID]
	if !ok {
		return nil, identity.ErrAccountNotFound
	}
	copied := account.Account
	return &copied, nil
}

// # In-memory Index

type memoryIndex struct {
	mu        sync.Mutex
	byName    map[string]string
	byAccount map[string]string
}

func newMemoryIndex() *memoryIndex {
	return &memoryIndex{byName: map[string]string{}, byAccount: map[string]string{}}
}

func (index *memoryIndex) Reserve(_ context.Context, name, accountID string) error {
	index.mu.Lock()
	defer index.mu.Unlock()
	if _, taken := index.byName[name]; taken {
		return username.ErrUsernameTaken
	}
	if _, bound := index.byAccount[accountID]; bound {
		return username.ErrAccountAlreadyIndexed
	}
	index.byName[name] = accountID
	index.byAccount[accountID] = name
	return nil
}

func (index *memoryIndex) Lookup(_ context.Context, name string) (string, error) {
	index.mu.Lock()
	defer index.mu.Unlock()
	accountID, ok := index.byName[name]
	if !ok {
		return "", username.ErrUsernameNotFound
	}
	return accountID, nil
}

func (index *memoryIndex) UsernameOf(_ context.Context, accountID string) (string, error) {
	index.mu.Lock()
	defer index.mu.Unlock()
	name, ok := index.byAccount[accountID]
	if !ok {
		return "", username.ErrUsernameNotFound
	}
	return name, nil
}

func (index *memoryIndex) IsAvailable(_ context.Context, name string) (bool, error) {
	index.mu.Lock()
	defer index.mu.Unlock()
	_, taken := index.byName[name]
	return !taken, nil
}

// contestedIndex loses every reservation race except for names accepted by allow.
type contestedIndex struct {
	*memoryIndex
	allow    func(name string) bool
	attempts int
}

func (index *contestedIndex) Reserve(ctx context.Context, name, accountID string) error {
	index.attempts++
	if !index.allow(name) {
		return username.ErrUsernameTaken
	}
	return index.memoryIndex.Reserve(ctx, name, accountID)
}

// # Mock Provider

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) CreateAccount(ctx context.Context, email, password, displayName string) (string, error) {
	args := m.Called(ctx, email, password, displayName)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) VerifyCredentials(ctx context.Context, email, password string) (*identity.Session, error) {
	args := m.Called(ctx, email, password)
	session, _ := args.Get(0).(*identity.Session)
	return session, args.Error(1)
}

func (m *mockProvider) VerifyToken(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) UpdateProfile(ctx context.Context, accountID string, fields identity.ProfileFields) error {
	args := m.Called(ctx, accountID, fields)
	return args.Error(0)
}

func (m *mockProvider) GetAccount(ctx context.Context, accountID string) (*identity.Account, error) {
	args := m.Called(ctx, accountID)
	account, _ := args.Get(0).(*identity.Account)
	return account, args.Error(1)
}
