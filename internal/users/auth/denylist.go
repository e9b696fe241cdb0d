// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// Denylist records explicitly revoked tokens by their ID ('jti').
//
// It is a revocation list, not a cache: entries live exactly as long as the
// token they revoke would have.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// NopDenylist keeps the engine fully stateless. Revocations are accepted and
// dropped; every token stays valid until it expires.
type NopDenylist struct{}

// Revoke implements [Denylist].
func (NopDenylist) Revoke(context.Context, string, time.Duration) error { return nil }

// IsRevoked implements [Denylist].
func (NopDenylist) IsRevoked(context.Context, string) (bool, error) { return false, nil }

// Enabled reports whether d actually stores revocations.
func Enabled(d Denylist) bool {
	_, nop := d.(NopDenylist)
	return d != nil && !nop
}
