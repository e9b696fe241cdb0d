// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "time"

// Principal is the verified identity attached to a request.
//
// It is rebuilt from the token on every request and never persisted.
type Principal struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`

	// TokenID is the 'jti' claim, used only by the optional denylist.
	TokenID string `json:"-"`
}

// Remaining returns how long the token backing p stays valid at now.
func (p *Principal) Remaining(now time.Time) time.Duration {
	if p == nil || !now.Before(p.ExpiresAt) {
		return 0
	}
	return p.ExpiresAt.Sub(now)
}
