// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package username_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/klyptik/internal/platform/migration"
	"github.com/taibuivan/klyptik/internal/platform/postgres"
	redisclient "github.com/taibuivan/klyptik/internal/platform/redis"
	"github.com/taibuivan/klyptik/internal/users/username"
	"github.com/taibuivan/klyptik/pkg/uuid"
)

// # Test Doubles

// memoryIndex is an in-process Index. Its mutex stands in for the store's
// atomic write.
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

// # Contract

// uniqueBase returns a base no earlier run of the suite has used.
func uniqueBase() string {
	return "t" + uuid.Compact(uuid.New())[20:]
}

func runIndexContract(t *testing.T, index username.Index) {
	ctx := context.Background()

	t.Run("reserve_then_lookup_both_ways", func(t *testing.T) {
		name, accountID := uniqueBase(), uuid.New()

		available, err := index.IsAvailable(ctx, name)
		require.NoError(t, err)
		assert.True(t, available)

		require.NoError(t, index.Reserve(ctx, name, accountID))

		resolved, err := index.Lookup(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, accountID, resolved)

		reverse, err := index.UsernameOf(ctx, accountID)
		require.NoError(t, err)
		assert.Equal(t, name, reverse)

		available, err = index.IsAvailable(ctx, name)
		require.NoError(t, err)
		assert.False(t, available)
	})

	t.Run("second_reserve_is_taken", func(t *testing.T) {
		name := uniqueBase()
		require.NoError(t, index.Reserve(ctx, name, uuid.New()))
		assert.ErrorIs(t, index.Reserve(ctx, name, uuid.New()), username.ErrUsernameTaken)
	})

	t.Run("account_holds_one_username", func(t *testing.T) {
		accountID := uuid.New()
		second := uniqueBase()
		require.NoError(t, index.Reserve(ctx, uniqueBase(), accountID))
		assert.ErrorIs(t, index.Reserve(ctx, second, accountID), username.ErrAccountAlreadyIndexed)

		available, err := index.IsAvailable(ctx, second)
		require.NoError(t, err)
		assert.True(t, available, "failed reservation must not leave the name bound")
	})

	t.Run("unknown_entries", func(t *testing.T) {
		_, err := index.Lookup(ctx, uniqueBase())
		assert.ErrorIs(t, err, username.ErrUsernameNotFound)

		_, err = index.UsernameOf(ctx, uuid.New())
		assert.ErrorIs(t, err, username.ErrUsernameNotFound)
	})

	t.Run("concurrent_reservations_have_one_winner", func(t *testing.T) {
		name := uniqueBase()
		var winners atomic.Int32
		var wg sync.WaitGroup

		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := index.Reserve(ctx, name, uuid.New())
				if err == nil {
					winners.Add(1)
					return
				}
				assert.ErrorIs(t, err, username.ErrUsernameTaken)
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), winners.Load())
	})
}

/*
TestIndexContract_Memory runs the contract against the in-process double.
*/
func TestIndexContract_Memory(t *testing.T) {
	runIndexContract(t, newMemoryIndex())
}

/*
TestIndexContract_Postgres runs the contract against a live database.
Set KLYPTIK_TEST_DATABASE_URL to enable it.
*/
func TestIndexContract_Postgres(t *testing.T) {
	dsn := os.Getenv("KLYPTIK_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("KLYPTIK_TEST_DATABASE_URL not set")
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, migration.RunUp(dsn, logger))

	pool, err := postgres.NewPool(context.Background(), dsn, postgres.DefaultPoolOptions(), logger)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	runIndexContract(t, username.NewPostgresIndex(pool))
}

/*
TestIndexContract_Redis runs the contract against a live Redis.
Set KLYPTIK_TEST_REDIS_URL to enable it.
*/
func TestIndexContract_Redis(t *testing.T) {
	redisURL := os.Getenv("KLYPTIK_TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("KLYPTIK_TEST_REDIS_URL not set")
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := redisclient.NewClient(context.Background(), redisURL, redisclient.DefaultClientOptions(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	runIndexContract(t, username.NewRedisIndex(client))
}
