// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/teachplan/internal/platform/constants"
)

// RedisDenylist implements [Denylist] using Redis keys with a TTL.
type RedisDenylist struct {
	client *redis.Client
}

// NewRedisDenylist creates a new Redis-backed [Denylist].
func NewRedisDenylist(client *redis.Client) *RedisDenylist {
	return &RedisDenylist{client: client}
}

/*
Revoke lists tokenID for ttl.

Description: A non-positive ttl means the token has already expired, so
nothing is written.

Parameters:
  - context: context.Context
  - tokenID: string ('jti' claim)
  - ttl: time.Duration (remaining token lifetime)

Returns:
  - error: Execution errors
*/
func (repository *RedisDenylist) Revoke(context context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" || ttl <= 0 {
		return nil
	}

	if err := repository.client.Set(context, denylistKey(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis_denylist_revoke_failed: %w", err)
	}
	return nil
}

/*
IsRevoked reports whether tokenID is currently listed.

Parameters:
  - context: context.Context
  - tokenID: string

Returns:
  - bool: true if revoked
  - error: Connectivity errors
*/
func (repository *RedisDenylist) IsRevoked(context context.Context, tokenID string) (bool, error) {
	count, err := repository.client.Exists(context, denylistKey(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis_denylist_lookup_failed: %w", err)
	}
	return count > 0, nil
}

func denylistKey(tokenID string) string {
	return constants.RedisPrefixDenylist + tokenID
}
