// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides the cryptographic primitives of the identity engine:
// password credential hashing and signed, time-bounded identity tokens.
//
// # Architecture
//
// This package isolates security-sensitive code (hashing, JWT signing) from
// the domain logic. Services receive it through small interfaces so tests can
// swap it out.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/taibuivan/teachplan/internal/platform/apperr"
)

// ErrInvalidToken is the single failure class of [TokenService.Verify].
// Signature, format and expiry failures are not distinguished to callers.
var ErrInvalidToken = apperr.Unauthorized("Invalid or expired token")

// AuthClaims is the payload embedded inside an access token.
type AuthClaims struct {
	jwt.RegisteredClaims

	UserID string `json:"uid"`
	Email  string `json:"email"`
}

// TokenService issues and verifies HS256 tokens signed with a shared secret.
//
// Tokens are stateless: validity is purely a function of signature and expiry.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption customises a [TokenService].
type TokenOption func(*TokenService)

// WithClock replaces the time source used for issuing and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(service *TokenService) {
		service.now = now
	}
}

// NewTokenService creates a TokenService. An empty secret or a non-positive
// lifetime is a programming error and is reported at construction time.
func NewTokenService(secret, issuer string, ttl time.Duration, opts ...TokenOption) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("sec: token signing secret is empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("sec: token lifetime must be positive, got %s", ttl)
	}

	service := &TokenService{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// TTL returns the configured token lifetime.
func (service *TokenService) TTL() time.Duration {
	return service.ttl
}

// Issue creates a signed token for the given identity.
func (service *TokenService) Issue(userID, email string) (string, error) {
	issuedAt := service.now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(service.ttl)),
		},
		UserID: userID,
		Email:  email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}
	return signed, nil
}

// expiryLeeway lets the parser accept a token at exactly its expiry second;
// Verify then applies the precise bound itself.
const expiryLeeway = time.Second

// Verify checks the signature and validity window of a token and returns the
// identity it carries. A token is valid up to and including its expiry
// instant and rejected once the clock is past it. Every failure is
// [ErrInvalidToken] with the parser error attached as cause.
func (service *TokenService) Verify(tokenString string) (*Principal, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(service.now),
		jwt.WithLeeway(expiryLeeway),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(service.issuer),
		jwt.WithStrictDecoding(),
	)

	claims := &AuthClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return service.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken.WithCause(err)
	}
	if !token.Valid || claims.UserID == "" || claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}
	if service.now().After(claims.ExpiresAt.Time) {
		return nil, ErrInvalidToken.WithCause(jwt.ErrTokenExpired)
	}

	principal := &Principal{
		UserID:    claims.UserID,
		Email:     claims.Email,
		ExpiresAt: claims.ExpiresAt.Time,
		TokenID:   claims.ID,
	}
	if claims.IssuedAt != nil {
		principal.IssuedAt = claims.IssuedAt.Time
	}
	return principal, nil
}
