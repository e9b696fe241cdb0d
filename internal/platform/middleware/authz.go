// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/taibuivan/teachplan/internal/platform/apperr"
	"github.com/taibuivan/teachplan/internal/platform/constants"
	"github.com/taibuivan/teachplan/internal/platform/ctxutil"
	"github.com/taibuivan/teachplan/internal/platform/respond"
	"github.com/taibuivan/teachplan/internal/platform/sec"
)

// Authenticator turns a raw Authorization header into a verified principal.
//
// Defined here so the middleware does not depend on the auth package, and
// tests can inject a stub.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (*sec.Principal, error)
}

// Authorizer decides whether a principal may perform action on resource.
// A nil error allows the request.
type Authorizer interface {
	Authorize(ctx context.Context, principal *sec.Principal, resource, action string) error
}

// RequireAuth rejects requests without a valid bearer token.
//
// # Flow
//  1. Read the 'Authorization' header and hand it to the [Authenticator].
//  2. Missing, malformed, expired or revoked tokens abort with HTTP 401.
//  3. Inject the [*sec.Principal] into the request context for downstream use.
func RequireAuth(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			ctx := request.Context()

			principal, err := authenticator.Authenticate(ctx, request.Header.Get(constants.HeaderAuthorization))
			if err != nil {
				ctxutil.GetLogger(ctx).DebugContext(ctx, "authentication_rejected", slog.Any("error", err))
				respond.Error(writer, request, err)
				return
			}

			if holder := getPrincipalHolder(ctx); holder != nil {
				holder.principal = principal
			}

			next.ServeHTTP(writer, request.WithContext(ctxutil.WithPrincipal(ctx, principal)))
		})
	}
}

// RequirePermission blocks requests whose principal lacks (resource, action).
//
// # Usage
//
// Must be registered in the router AFTER [RequireAuth]. A request that reaches
// it without a principal is rejected with 401; a denied check yields 403 with
// a message that never names the missing permission.
func RequirePermission(authorizer Authorizer, resource, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			ctx := request.Context()

			principal := ctxutil.GetPrincipal(ctx)
			if principal == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			if err := authorizer.Authorize(ctx, principal, resource, action); err != nil {
				if apperr.IsForbidden(err) {
					ctxutil.GetLogger(ctx).InfoContext(ctx, "authorization_denied",
						slog.String("user_id", principal.UserID),
						slog.String("resource", resource),
						slog.String("action", action),
					)
				}
				respond.Error(writer, request, err)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// principalHolder lets [StructuredLogger], which wraps the whole chain, see
// the principal attached further down by [RequireAuth].
type principalHolder struct {
	principal *sec.Principal
}

type holderKey struct{}

func withPrincipalHolder(ctx context.Context, holder *principalHolder) context.Context {
	return context.WithValue(ctx, holderKey{}, holder)
}

func getPrincipalHolder(ctx context.Context) *principalHolder {
	holder, _ := ctx.Value(holderKey{}).(*principalHolder)
	return holder
}
