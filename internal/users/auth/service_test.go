// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/teachplan/internal/platform/apperr"
	"github.com/taibuivan/teachplan/internal/platform/sec"
	"github.com/taibuivan/teachplan/internal/users/account"
	"github.com/taibuivan/teachplan/internal/users/auth"
	"github.com/taibuivan/teachplan/internal/users/rbac"
)

type serviceFixture struct {
	store    *account.MemoryStore
	hasher   *sec.CredentialHasher
	tokens   *sec.TokenService
	denylist *memoryDenylist
	service  *auth.Service
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	store := account.NewMemoryStore()
	hasher := sec.NewCredentialHasher(discard, 2)
	tokens := newTokenService(t)
	denylist := &memoryDenylist{revoked: map[string]time.Duration{}}

	service, err := auth.NewService(store, hasher, tokens, rbac.NewResolver(store, discard), denylist, discard)
	require.NoError(t, err)

	return &serviceFixture{store: store, hasher: hasher, tokens: tokens, denylist: denylist, service: service}
}

func (f *serviceFixture) register(t *testing.T) *auth.Session {
	t.Helper()
	session, err := f.service.Register(context.Background(), auth.RegisterInput{
		Username: "Alice",
		Email:    "alice@example.com",
		Password: "Secret123",
	})
	require.NoError(t, err)
	return session
}

/*
TestRegister stores a hashed, normalized, active account and issues a token.
*/
func TestRegister(t *testing.T) {
	f := newServiceFixture(t)
	session := f.register(t)

	assert.Equal(t, "alice", session.User.Username)
	assert.Equal(t, "alice@example.com", session.User.Email)
	assert.True(t, session.User.IsActive)
	assert.Empty(t, session.User.Roles)
	assert.Equal(t, "Bearer", session.TokenType)
	assert.Equal(t, int64(3600), session.ExpiresIn)

	stored, err := f.store.FindUserByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123", stored.PasswordHash)
	assert.True(t, f.hasher.Verify("Secret123", stored.PasswordHash))

	principal, err := f.tokens.Verify(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, principal.UserID)
}

/*
TestRegister_DuplicateEmail conflicts regardless of email casing.
*/
func TestRegister_DuplicateEmail(t *testing.T) {
	f := newServiceFixture(t)
	f.register(t)

	_, err := f.service.Register(context.Background(), auth.RegisterInput{
		Username: "alice2",
		Email:    "  ALICE@example.com",
		Password: "Another123",
	})
	assert.True(t, apperr.IsConflict(err))
}

/*
TestRegister_UsernameTooShortAfterNormalization rejects handles with no letters.
*/
func TestRegister_UsernameTooShortAfterNormalization(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.Register(context.Background(), auth.RegisterInput{
		Username: "!!!",
		Email:    "bang@example.com",
		Password: "Secret123",
	})
	assert.True(t, apperr.IsValidation(err))
}

/*
TestLogin succeeds with the right password and stamps LastLoginAt.
*/
func TestLogin(t *testing.T) {
	f := newServiceFixture(t)
	f.register(t)

	session, err := f.service.Login(context.Background(), auth.LoginInput{Email: "Alice@Example.com", Password: "Secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)

	stored, err := f.store.FindUserByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)
	assert.WithinDuration(t, time.Now(), *stored.LastLoginAt, time.Minute)
}

/*
TestLogin_GenericFailure never distinguishes unknown email, wrong password
and a disabled account.
*/
func TestLogin_GenericFailure(t *testing.T) {
	f := newServiceFixture(t)
	f.register(t)
	ctx := context.Background()

	_, unknown := f.service.Login(ctx, auth.LoginInput{Email: "bob@example.com", Password: "Secret123"})
	_, wrong := f.service.Login(ctx, auth.LoginInput{Email: "alice@example.com", Password: "WrongPW"})

	stored, err := f.store.FindUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	stored.IsActive = false
	require.NoError(t, f.store.SaveUser(ctx, stored))
	_, inactive := f.service.Login(ctx, auth.LoginInput{Email: "alice@example.com", Password: "Secret123"})

	for _, err := range []error{unknown, wrong, inactive} {
		require.Error(t, err)
		assert.True(t, apperr.IsUnauthorized(err))
		assert.Equal(t, auth.ErrInvalidCredentials.Error(), err.Error())
	}
}

/*
TestChangePassword requires the current password and an explicit flag for
delimiter-bearing values.
*/
func TestChangePassword(t *testing.T) {
	f := newServiceFixture(t)
	session := f.register(t)
	ctx := context.Background()
	userID := session.User.ID

	err := f.service.ChangePassword(ctx, userID, auth.ChangePasswordInput{Current: "nope", New: "Fresh12345"})
	assert.True(t, apperr.IsUnauthorized(err))

	err = f.service.ChangePassword(ctx, userID, auth.ChangePasswordInput{Current: "Secret123", New: "pass:word99"})
	assert.True(t, apperr.IsValidation(err))

	require.NoError(t, f.service.ChangePassword(ctx, userID, auth.ChangePasswordInput{
		Current: "Secret123", New: "pass:word99", ForceRehash: true,
	}))

	_, err = f.service.Login(ctx, auth.LoginInput{Email: "alice@example.com", Password: "pass:word99"})
	assert.NoError(t, err)
	_, err = f.service.Login(ctx, auth.LoginInput{Email: "alice@example.com", Password: "Secret123"})
	assert.True(t, apperr.IsUnauthorized(err))
}

/*
TestLogout revokes the token for its remaining lifetime.
*/
func TestLogout(t *testing.T) {
	f := newServiceFixture(t)
	session := f.register(t)

	principal, err := f.tokens.Verify(session.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(context.Background(), principal))

	ttl, ok := f.denylist.revoked[principal.TokenID]
	require.True(t, ok)
	assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 60)
}

/*
TestMe returns the account and its effective permissions.
*/
func TestMe(t *testing.T) {
	f := newServiceFixture(t)
	session := f.register(t)
	principal, err := f.tokens.Verify(session.AccessToken)
	require.NoError(t, err)

	profile, err := f.service.Me(context.Background(), principal)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, profile.User.ID)
	assert.Empty(t, profile.Permissions.Permissions)
	assert.False(t, profile.Permissions.Admin)
}

// revokingStore revokes every role of the user right after it has been read,
// standing in for an administrator acting between a flow's read and write.
type revokingStore struct {
	*account.MemoryStore
	resolver *rbac.Resolver
	t        *testing.T
}

func (s *revokingStore) revoke(user *account.User) {
	_, err := s.resolver.AssignRoles(context.Background(), user.ID, nil)
	require.NoError(s.t, err)
}

func (s *revokingStore) FindUserByEmail(ctx context.Context, email string) (*account.User, error) {
	user, err := s.MemoryStore.FindUserByEmail(ctx, email)
	if err == nil {
		s.revoke(user)
	}
	return user, err
}

func (s *revokingStore) FindUserByID(ctx context.Context, id string) (*account.User, error) {
	user, err := s.MemoryStore.FindUserByID(ctx, id)
	if err == nil {
		s.revoke(user)
	}
	return user, err
}

// newAdminRevokedMidFlow registers an admin and returns a service whose store
// revokes that admin's roles on the next user read.
func newAdminRevokedMidFlow(t *testing.T) (*auth.Service, *rbac.Resolver, string) {
	t.Helper()
	f := newServiceFixture(t)
	ctx := context.Background()
	session := f.register(t)

	resolver := rbac.NewResolver(f.store, discard)
	require.NoError(t, f.store.SaveRole(ctx, &account.Role{ID: "r-admin", Name: account.AdminRoleName}))
	_, err := resolver.AssignRoles(ctx, session.User.ID, []string{"r-admin"})
	require.NoError(t, err)

	store := &revokingStore{MemoryStore: f.store, resolver: resolver, t: t}
	service, err := auth.NewService(store, f.hasher, f.tokens, resolver, f.denylist, discard)
	require.NoError(t, err)
	return service, resolver, session.User.ID
}

/*
TestLogin_KeepsConcurrentRoleRevocation never restores roles removed after
the account was read.
*/
func TestLogin_KeepsConcurrentRoleRevocation(t *testing.T) {
	service, resolver, userID := newAdminRevokedMidFlow(t)
	ctx := context.Background()

	_, err := service.Login(ctx, auth.LoginInput{Email: "alice@example.com", Password: "Secret123"})
	require.NoError(t, err)

	allowed, err := resolver.HasPermission(ctx, userID, "task", "view")
	require.NoError(t, err)
	assert.False(t, allowed)
}

/*
TestChangePassword_KeepsConcurrentRoleRevocation stores the new credential
without rewriting memberships.
*/
func TestChangePassword_KeepsConcurrentRoleRevocation(t *testing.T) {
	service, resolver, userID := newAdminRevokedMidFlow(t)
	ctx := context.Background()

	require.NoError(t, service.ChangePassword(ctx, userID, auth.ChangePasswordInput{Current: "Secret123", New: "Fresh12345"}))

	allowed, err := resolver.HasPermission(ctx, userID, "task", "view")
	require.NoError(t, err)
	assert.False(t, allowed)
}
