// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package username

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/klyptik/internal/platform/constants"
)

// RedisIndex implements [Index] with two key families: the forward key
// (name → account) claimed with SETNX, and the reverse key (account → name).
type RedisIndex struct {
	client *redis.Client
}

var _ Index = (*RedisIndex)(nil)

// NewRedisIndex creates a new Redis implementation of the Index.
func NewRedisIndex(client *redis.Client) *RedisIndex {
	return &RedisIndex{client: client}
}

/*
Reserve claims the forward key with SETNX and then writes the reverse key.

If the reverse write fails the forward key is released, so a failed
reservation never leaves a username bound without its owner knowing.
*/
func (index *RedisIndex) Reserve(ctx context.Context, username, accountID string) error {
	nameKey := constants.RedisPrefixUsername + username
	accountKey := constants.RedisPrefixUsernameAccount + accountID

	claimed, err := index.client.SetNX(ctx, nameKey, accountID, 0).Result()
	if err != nil {
		return fmt.Errorf("redis_index_reserve_failed: %w", err)
	}
	if !claimed {
		return ErrUsernameTaken
	}

	bound, err := index.client.SetNX(ctx, accountKey, username, 0).Result()
	if err != nil || !bound {
		index.client.Del(context.WithoutCancel(ctx), nameKey)
		if err != nil {
			return fmt.Errorf("redis_index_reserve_reverse_failed: %w", err)
		}
		return ErrAccountAlreadyIndexed
	}

	return nil
}

// Lookup resolves a username to its account.
func (index *RedisIndex) Lookup(ctx context.Context, username string) (string, error) {
	return index.get(ctx, "lookup", constants.RedisPrefixUsername+username)
}

// UsernameOf resolves an account to its username.
func (index *RedisIndex) UsernameOf(ctx context.Context, accountID string) (string, error) {
	return index.get(ctx, "username_of", constants.RedisPrefixUsernameAccount+accountID)
}

// IsAvailable reports whether the forward key is absent.
func (index *RedisIndex) IsAvailable(ctx context.Context, username string) (bool, error) {
	count, err := index.client.Exists(ctx, constants.RedisPrefixUsername+username).Result()
	if err != nil {
		return false, fmt.Errorf("redis_index_is_available_failed: %w", err)
	}
	return count == 0, nil
}

func (index *RedisIndex) get(ctx context.Context, op, key string) (string, error) {
	value, err := index.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrUsernameNotFound
		}
		return "", fmt.Errorf("redis_index_%s_failed: %w", op, err)
	}
	return value, nil
}
