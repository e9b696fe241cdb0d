// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"log/slog"
	"strings"

	"github.com/taibuivan/teachplan/internal/platform/apperr"
	"github.com/taibuivan/teachplan/internal/platform/constants"
	"github.com/taibuivan/teachplan/internal/platform/sec"
)

// TokenVerifier verifies a raw token into a principal.
type TokenVerifier interface {
	Verify(token string) (*sec.Principal, error)
}

// PermissionChecker answers a single (resource, action) question for a user.
type PermissionChecker interface {
	HasPermission(ctx context.Context, userID, resource, action string) (bool, error)
}

/*
Gateway is the request-facing facade of the engine.

# State Machine

  - Unauthenticated: no or malformed 'Authorization: Bearer <token>' header.
    Rejected with 401 without touching the token service.
  - TokenPresented: the token is verified; failure is rejected with 401.
  - Authenticated: the principal is returned. Authorization checks then
    consult the permission checker; a denial is 403 and is never retried.

Gateway satisfies the middleware Authenticator and Authorizer contracts.
*/
type Gateway struct {
	tokens      TokenVerifier
	permissions PermissionChecker
	denylist    Denylist
	logger      *slog.Logger
}

// NewGateway constructs a new [Gateway]. A nil denylist keeps it stateless.
func NewGateway(tokens TokenVerifier, permissions PermissionChecker, denylist Denylist, logger *slog.Logger) *Gateway {
	if denylist == nil {
		denylist = NopDenylist{}
	}
	return &Gateway{tokens: tokens, permissions: permissions, denylist: denylist, logger: logger}
}

/*
Authenticate turns an Authorization header value into a verified principal.

Returns:
  - *sec.Principal: the verified identity
  - error: ErrMissingToken, sec.ErrInvalidToken, or apperr.Internal when the
    denylist cannot be consulted
*/
func (gateway *Gateway) Authenticate(ctx context.Context, header string) (*sec.Principal, error) {
	token, ok := BearerToken(header)
	if !ok {
		return nil, ErrMissingToken
	}

	principal, err := gateway.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	revoked, err := gateway.denylist.IsRevoked(ctx, principal.TokenID)
	if err != nil {
		// The revocation state is unknown; refuse rather than guess.
		return nil, apperr.Internal(err)
	}
	if revoked {
		gateway.logger.InfoContext(ctx, "auth_revoked_token_presented", slog.String("user_id", principal.UserID))
		return nil, sec.ErrInvalidToken
	}

	return principal, nil
}

/*
Authorize returns nil when principal may perform action on resource.

Returns:
  - error: apperr.Unauthorized without a principal, ErrForbidden on denial, or
    the storage error when the check could not run
*/
func (gateway *Gateway) Authorize(ctx context.Context, principal *sec.Principal, resource, action string) error {
	if principal == nil {
		return apperr.Unauthorized("Authentication required")
	}

	allowed, err := gateway.permissions.HasPermission(ctx, principal.UserID, resource, action)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden
	}
	return nil
}

// BearerToken extracts the token from an 'Authorization: Bearer <token>'
// value. The scheme is case-insensitive; the token must be a single non-empty
// field.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, constants.BearerScheme) {
		return "", false
	}
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}
