// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/taibuivan/teachplan/internal/platform/apperr"
)

// MemoryStore is an in-process [Store] used by tests and local tooling.
//
// It keeps junctions as ID lists and hydrates on every read, so role and
// permission edits are visible to the next lookup exactly as with PostgreSQL.
// Returned entities are copies; callers cannot mutate stored state.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[string]storedUser
	roles       map[string]storedRole
	permissions map[string]Permission
}

type storedUser struct {
	user    User
	roleIDs []string
}

type storedRole struct {
	role          Role
	permissionIDs []string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:       make(map[string]storedUser),
		roles:       make(map[string]storedRole),
		permissions: make(map[string]Permission),
	}
}

// PutPermission inserts or replaces a permission. Permissions have no write
// path in [Store]; seeding them is a catalogue concern. The name must be the
// canonical spelling of the resource and action.
func (store *MemoryStore) PutPermission(permission Permission) error {
	if err := permission.Validate(); err != nil {
		return err
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	for id, existing := range store.permissions {
		if id != permission.ID && existing.Name == permission.Name {
			return apperr.Conflict("Permission already exists")
		}
	}
	store.permissions[permission.ID] = permission
	return nil
}

// FindUserByID implements [Store].
func (store *MemoryStore) FindUserByID(_ context.Context, id string) (*User, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	stored, ok := store.users[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	return store.hydrateUser(stored), nil
}

// FindUserByEmail implements [Store].
func (store *MemoryStore) FindUserByEmail(_ context.Context, email string) (*User, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	for _, stored := range store.users {
		if stored.user.Email == email {
			return store.hydrateUser(stored), nil
		}
	}
	return nil, apperr.NotFound("User")
}

// FindRolesByIDs implements [Store].
func (store *MemoryStore) FindRolesByIDs(_ context.Context, ids []string) ([]Role, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	roles := []Role{}
	for _, id := range ids {
		if stored, ok := store.roles[id]; ok {
			roles = append(roles, store.hydrateRole(stored))
		}
	}
	return roles, nil
}

// FindPermissionsByIDs implements [Store].
func (store *MemoryStore) FindPermissionsByIDs(_ context.Context, ids []string) ([]Permission, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	permissions := []Permission{}
	for _, id := range ids {
		if permission, ok := store.permissions[id]; ok {
			permissions = append(permissions, permission)
		}
	}
	return permissions, nil
}

// SaveUser implements [Store].
func (store *MemoryStore) SaveUser(_ context.Context, user *User) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	for id, stored := range store.users {
		if id != user.ID && stored.user.Email == user.Email {
			return apperr.Conflict("User already exists")
		}
	}

	roleIDs := user.RoleIDs()
	for _, id := range roleIDs {
		if _, ok := store.roles[id]; !ok {
			return apperr.NotFound("Role")
		}
	}

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	flat := *user
	flat.Roles = nil
	if user.LastLoginAt != nil {
		stamp := *user.LastLoginAt
		flat.LastLoginAt = &stamp
	}
	store.users[user.ID] = storedUser{user: flat, roleIDs: compactIDs(roleIDs)}
	return nil
}

// TouchLastLogin implements [Store].
func (store *MemoryStore) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	return store.updateUser(id, func(user *User) {
		stamp := at
		user.LastLoginAt = &stamp
	})
}

// UpdateCredential implements [Store].
func (store *MemoryStore) UpdateCredential(_ context.Context, id, passwordHash string) error {
	return store.updateUser(id, func(user *User) {
		user.PasswordHash = passwordHash
	})
}

// updateUser applies mutate to the stored row of id, keeping its roles.
func (store *MemoryStore) updateUser(id string, mutate func(*User)) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	stored, ok := store.users[id]
	if !ok {
		return apperr.NotFound("User")
	}

	mutate(&stored.user)
	stored.user.UpdatedAt = time.Now().UTC()
	store.users[id] = stored
	return nil
}

// SaveRole implements [Store].
func (store *MemoryStore) SaveRole(_ context.Context, role *Role) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	for id, stored := range store.roles {
		if id != role.ID && stored.role.Name == role.Name {
			return apperr.Conflict("Role already exists")
		}
	}

	permissionIDs := role.PermissionIDs()
	for _, id := range permissionIDs {
		if _, ok := store.permissions[id]; !ok {
			return apperr.NotFound("Permission")
		}
	}

	flat := *role
	flat.Permissions = nil
	store.roles[role.ID] = storedRole{role: flat, permissionIDs: compactIDs(permissionIDs)}
	return nil
}

// hydrateUser copies the stored user and resolves its current roles.
// Callers must hold the read lock.
func (store *MemoryStore) hydrateUser(stored storedUser) *User {
	user := stored.user
	if stored.user.LastLoginAt != nil {
		stamp := *stored.user.LastLoginAt
		user.LastLoginAt = &stamp
	}

	user.Roles = []Role{}
	for _, id := range stored.roleIDs {
		if role, ok := store.roles[id]; ok {
			user.Roles = append(user.Roles, store.hydrateRole(role))
		}
	}
	return &user
}

// hydrateRole copies the stored role and resolves its current permissions.
// Callers must hold the read lock.
func (store *MemoryStore) hydrateRole(stored storedRole) Role {
	role := stored.role
	role.Permissions = []Permission{}
	for _, id := range stored.permissionIDs {
		if permission, ok := store.permissions[id]; ok {
			role.Permissions = append(role.Permissions, permission)
		}
	}
	return role
}

// compactIDs returns a sorted copy of ids without duplicates.
func compactIDs(ids []string) []string {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	return slices.Compact(sorted)
}
