// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/teachplan/internal/users/auth"
)

func newRedisDenylist(t *testing.T) (*auth.RedisDenylist, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return auth.NewRedisDenylist(client), server
}

/*
TestRedisDenylist_RevokeExpires lists a token only for its remaining lifetime.
*/
func TestRedisDenylist_RevokeExpires(t *testing.T) {
	denylist, server := newRedisDenylist(t)
	ctx := context.Background()

	require.NoError(t, denylist.Revoke(ctx, "jti-1", time.Minute))
	assert.True(t, server.Exists("auth:denylist:jti-1"))

	revoked, err := denylist.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	server.FastForward(2 * time.Minute)

	revoked, err = denylist.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

/*
TestRedisDenylist_SkipsExpired writes nothing for already-expired tokens.
*/
func TestRedisDenylist_SkipsExpired(t *testing.T) {
	denylist, server := newRedisDenylist(t)

	require.NoError(t, denylist.Revoke(context.Background(), "jti-2", 0))
	require.NoError(t, denylist.Revoke(context.Background(), "", time.Minute))
	assert.Empty(t, server.Keys())
}

/*
TestRedisDenylist_Unavailable surfaces connectivity errors.
*/
func TestRedisDenylist_Unavailable(t *testing.T) {
	denylist, server := newRedisDenylist(t)
	server.Close()

	_, err := denylist.IsRevoked(context.Background(), "jti-3")
	assert.Error(t, err)
}

func TestEnabled(t *testing.T) {
	denylist, _ := newRedisDenylist(t)

	assert.True(t, auth.Enabled(denylist))
	assert.False(t, auth.Enabled(auth.NopDenylist{}))
	assert.False(t, auth.Enabled(nil))
}
