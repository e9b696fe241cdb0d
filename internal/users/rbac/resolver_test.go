// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rbac_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/teachplan/internal/platform/apperr"
	"github.com/taibuivan/teachplan/internal/users/account"
	"github.com/taibuivan/teachplan/internal/users/rbac"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixture struct {
	store    *account.MemoryStore
	resolver *rbac.Resolver
}

// newFixture seeds: permissions task:view, task:edit; roles teacher
// (task:view), editor (task:view, task:edit), admin (no rows); user alice
// without roles.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := account.NewMemoryStore()

	require.NoError(t, store.PutPermission(account.Permission{ID: "p-view", Name: "task:view", Resource: "task", Action: "view"}))
	require.NoError(t, store.PutPermission(account.Permission{ID: "p-edit", Name: "task:edit", Resource: "task", Action: "edit"}))

	roles := []account.Role{
		{ID: "r-teacher", Name: "teacher", Permissions: []account.Permission{{ID: "p-view"}}},
		{ID: "r-editor", Name: "editor", Permissions: []account.Permission{{ID: "p-view"}, {ID: "p-edit"}}},
		{ID: "r-admin", Name: "admin"},
	}
	for i := range roles {
		require.NoError(t, store.SaveRole(ctx, &roles[i]))
	}
	require.NoError(t, store.SaveUser(ctx, &account.User{ID: "u-alice", Email: "alice@example.com", IsActive: true}))

	return &fixture{store: store, resolver: rbac.NewResolver(store, discard)}
}

func (f *fixture) assign(t *testing.T, roleIDs ...string) {
	t.Helper()
	_, err := f.resolver.AssignRoles(context.Background(), "u-alice", roleIDs)
	require.NoError(t, err)
}

/*
TestHasPermission_ExactMatch grants only the exact, case-sensitive pair.
*/
func TestHasPermission_ExactMatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	allowed, err := f.resolver.HasPermission(ctx, "u-alice", "task", "view")
	require.NoError(t, err)
	assert.False(t, allowed, "no roles yet")

	f.assign(t, "r-teacher")

	tests := []struct {
		resource, action string
		want             bool
	}{
		{"task", "view", true},
		{"task", "edit", false},
		{"Task", "view", false},
		{"task", "VIEW", false},
		{"*", "view", false},
	}
	for _, tt := range tests {
		allowed, err := f.resolver.HasPermission(ctx, "u-alice", tt.resource, tt.action)
		require.NoError(t, err)
		assert.Equal(t, tt.want, allowed, "%s:%s", tt.resource, tt.action)
	}
}

/*
TestHasPermission_AdminOverride passes every pair with no permission rows.
*/
func TestHasPermission_AdminOverride(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.assign(t, "r-admin")

	for _, pair := range [][2]string{{"task", "view"}, {"grades", "publish"}, {"anything", "at-all"}} {
		allowed, err := f.resolver.HasPermission(ctx, "u-alice", pair[0], pair[1])
		require.NoError(t, err)
		assert.True(t, allowed)
	}
}

/*
TestHasPermission_UnknownUser is false without an error.
*/
func TestHasPermission_UnknownUser(t *testing.T) {
	f := newFixture(t)

	allowed, err := f.resolver.HasPermission(context.Background(), "u-ghost", "task", "view")
	assert.NoError(t, err)
	assert.False(t, allowed)
}

/*
TestHasPermission_InactiveUser holds nothing, even as admin.
*/
func TestHasPermission_InactiveUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.assign(t, "r-admin")

	user, err := f.store.FindUserByID(ctx, "u-alice")
	require.NoError(t, err)
	user.IsActive = false
	require.NoError(t, f.store.SaveUser(ctx, user))

	allowed, err := f.resolver.HasPermission(ctx, "u-alice", "task", "view")
	assert.NoError(t, err)
	assert.False(t, allowed)
}

/*
TestHasPermission_NoCaching sees a role edit on the next check.
*/
func TestHasPermission_NoCaching(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.assign(t, "r-teacher")

	allowed, err := f.resolver.HasPermission(ctx, "u-alice", "task", "edit")
	require.NoError(t, err)
	require.False(t, allowed)

	_, err = f.resolver.AssignPermissionsToRole(ctx, "r-teacher", []string{"p-edit"})
	require.NoError(t, err)

	allowed, err = f.resolver.HasPermission(ctx, "u-alice", "task", "edit")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = f.resolver.HasPermission(ctx, "u-alice", "task", "view")
	require.NoError(t, err)
	assert.False(t, allowed, "replaced, not merged")
}

/*
TestHasPermission_StorageFailure denies and surfaces the error.
*/
func TestHasPermission_StorageFailure(t *testing.T) {
	resolver := rbac.NewResolver(failingStore{err: errors.New("connection refused")}, discard)

	allowed, err := resolver.HasPermission(context.Background(), "u-alice", "task", "view")
	assert.Error(t, err)
	assert.False(t, allowed)
}

/*
TestEffectivePermissions de-duplicates by permission identity.
*/
func TestEffectivePermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.assign(t, "r-teacher", "r-editor")

	set, err := f.resolver.EffectivePermissions(ctx, "u-alice")
	require.NoError(t, err)
	assert.False(t, set.Admin)

	ids := make([]string, 0, len(set.Permissions))
	for _, permission := range set.Permissions {
		ids = append(ids, permission.ID)
	}
	assert.ElementsMatch(t, []string{"p-view", "p-edit"}, ids)
}

/*
TestEffectivePermissions_UnknownUser returns an empty set.
*/
func TestEffectivePermissions_UnknownUser(t *testing.T) {
	f := newFixture(t)

	set, err := f.resolver.EffectivePermissions(context.Background(), "u-ghost")
	require.NoError(t, err)
	assert.NotNil(t, set.Permissions)
	assert.Empty(t, set.Permissions)
	assert.False(t, set.Admin)
}

/*
TestAssignRoles_Replace leaves exactly the last assigned set.
*/
func TestAssignRoles_Replace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.assign(t, "r-teacher")
	user, err := f.resolver.AssignRoles(ctx, "u-alice", []string{"r-editor"})
	require.NoError(t, err)
	assert.Equal(t, []string{"r-editor"}, user.RoleIDs())

	stored, err := f.store.FindUserByID(ctx, "u-alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"r-editor"}, stored.RoleIDs())

	// Duplicates collapse rather than failing the count check.
	user, err = f.resolver.AssignRoles(ctx, "u-alice", []string{"r-teacher", "r-teacher"})
	require.NoError(t, err)
	assert.Equal(t, []string{"r-teacher"}, user.RoleIDs())

	// An empty set revokes everything.
	user, err = f.resolver.AssignRoles(ctx, "u-alice", []string{})
	require.NoError(t, err)
	assert.Empty(t, user.Roles)
}

/*
TestAssignRoles_UnknownRole rejects the whole request and keeps the old set.
*/
func TestAssignRoles_UnknownRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.assign(t, "r-teacher")

	_, err := f.resolver.AssignRoles(ctx, "u-alice", []string{"r-editor", "r-ghost"})
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
	assert.Equal(t, "Role not found", err.Error())

	stored, err := f.store.FindUserByID(ctx, "u-alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"r-teacher"}, stored.RoleIDs())

	_, err = f.resolver.AssignRoles(ctx, "u-ghost", []string{"r-teacher"})
	assert.True(t, apperr.IsNotFound(err))
}

/*
TestAssignPermissionsToRole validates the role and every permission ID.
*/
func TestAssignPermissionsToRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.resolver.AssignPermissionsToRole(ctx, "r-ghost", []string{"p-view"})
	assert.True(t, apperr.IsNotFound(err))
	assert.Equal(t, "Role not found", err.Error())

	_, err = f.resolver.AssignPermissionsToRole(ctx, "r-teacher", []string{"p-view", "p-ghost"})
	assert.True(t, apperr.IsNotFound(err))

	role, err := f.resolver.AssignPermissionsToRole(ctx, "r-editor", []string{"p-edit"})
	require.NoError(t, err)
	assert.Equal(t, []string{"p-edit"}, role.PermissionIDs())
}

// failingStore fails every read.
type failingStore struct {
	account.Store
	err error
}

func (s failingStore) FindUserByID(context.Context, string) (*account.User, error) {
	return nil, s.err
}
