// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account holds the identity entities (User, Role, Permission) and the
storage collaborator that persists them.

# Architecture

  - Entities: User ↔ Role and Role ↔ Permission are many-to-many.
  - Storage: [Store] loads a user together with its roles and each role's
    permissions in one consistent read. [PostgresStore] backs production,
    [MemoryStore] backs tests and local tooling.
  - Domain: this package has no knowledge of tokens or HTTP; the auth and rbac
    packages build on it.
*/
package account

import (
	"time"

	"github.com/taibuivan/teachplan/internal/platform/apperr"
	"github.com/taibuivan/teachplan/pkg/ident"
	"github.com/taibuivan/teachplan/pkg/slice"
)

// AdminRoleName is the role that grants every permission.
const AdminRoleName = "admin"

// # Domain Entities

// User represents a registered account.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Explicitly omitted from JSON for security.
	IsActive     bool       `json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Roles held by the user, each with its permissions loaded.
	Roles []Role `json:"roles"`
}

// Role is a named bundle of permissions.
type Role struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Permissions []Permission `json:"permissions"`
}

// Permission is an atomic (resource, action) grant.
type Permission struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

// # Entity Helpers

// Validate checks that Name is the canonical "resource:action" (or reserved
// "system:resource:action") spelling of Resource and Action.
func (p Permission) Validate() error {
	_, _, system, err := ident.ParsePermissionName(p.Name)
	if err != nil {
		return apperr.ValidationError("Validation failed", apperr.FieldError{Field: FieldName, Message: err.Error()})
	}

	canonical := ident.PermissionName(p.Resource, p.Action)
	if system {
		canonical = ident.SystemPermissionName(p.Resource, p.Action)
	}
	if p.Name != canonical {
		return apperr.ValidationError("Validation failed", apperr.FieldError{
			Field:   FieldName,
			Message: "Must equal " + canonical,
		})
	}
	return nil
}

// IsAdmin reports whether the user holds the administrative role.
func (u *User) IsAdmin() bool {
	for _, role := range u.Roles {
		if role.IsAdmin() {
			return true
		}
	}
	return false
}

// RoleIDs returns the IDs of the roles the user holds.
func (u *User) RoleIDs() []string {
	return slice.Map(u.Roles, func(role Role) string { return role.ID })
}

// IsAdmin reports whether the role is the administrative override.
// The comparison is exact.
func (r Role) IsAdmin() bool {
	return r.Name == AdminRoleName
}

// PermissionIDs returns the IDs of the permissions the role grants.
func (r Role) PermissionIDs() []string {
	return slice.Map(r.Permissions, func(permission Permission) string { return permission.ID })
}

// Grants reports whether the role owns a permission matching exactly
// (resource, action). Matching is case-sensitive.
func (r Role) Grants(resource, action string) bool {
	for _, permission := range r.Permissions {
		if permission.Resource == resource && permission.Action == action {
			return true
		}
	}
	return false
}

// # Field Identifiers

// Field names shared by validators and handlers.
const (
	FieldName     = "name"
	FieldUsername = "username"
	FieldEmail    = "email"
	FieldRoleIDs  = "role_ids"
	FieldPermIDs  = "permission_ids"
)
