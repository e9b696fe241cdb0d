// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package rbac resolves what an identity may do.

It walks User → Role → Permission through the storage collaborator on every
call. There is no cache: a role or permission edit is visible to the very next
check.

# Decision Rules

 1. Unknown or inactive users hold nothing (fail-closed, never an error).
 2. A role named "admin" grants everything; it is checked before any
    fine-grained permission so broken permission rows never lock out an
    administrator.
 3. Otherwise a (resource, action) pair must match a granted permission
    exactly, case-sensitively.
*/
package rbac

import (
	"context"
	"log/slog"
	"slices"

	"github.com/taibuivan/teachplan/internal/platform/apperr"
	"github.com/taibuivan/teachplan/internal/users/account"
	"github.com/taibuivan/teachplan/pkg/slice"
)

// Resolver computes effective permissions and applies role assignments.
type Resolver struct {
	store  account.Store
	logger *slog.Logger
}

// NewResolver constructs a new [Resolver] over the given storage collaborator.
func NewResolver(store account.Store, logger *slog.Logger) *Resolver {
	return &Resolver{store: store, logger: logger}
}

// PermissionSet is the effective grant of a user.
//
// Admin marks the universal wildcard; Permissions lists the explicit grants,
// de-duplicated by permission ID.
type PermissionSet struct {
	Admin       bool                 `json:"admin"`
	Permissions []account.Permission `json:"permissions"`
}

// # Checks

/*
HasPermission reports whether userID may perform action on resource.

Returns:
  - (false, nil) for unknown or inactive users
  - (false, err) only when storage fails; callers must treat it as a denial
*/
func (resolver *Resolver) HasPermission(ctx context.Context, userID, resource, action string) (bool, error) {
	user, err := resolver.activeUser(ctx, userID)
	if err != nil || user == nil {
		return false, err
	}

	// Administrative override
	if user.IsAdmin() {
		return true, nil
	}

	for _, role := range user.Roles {
		if role.Grants(resource, action) {
			return true, nil
		}
	}
	return false, nil
}

/*
EffectivePermissions returns the union of permissions across the user's roles.

Unknown or inactive users yield an empty set, not an error.
*/
func (resolver *Resolver) EffectivePermissions(ctx context.Context, userID string) (*PermissionSet, error) {
	set := &PermissionSet{Permissions: []account.Permission{}}

	user, err := resolver.activeUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return set, nil
	}

	var all []account.Permission
	for _, role := range user.Roles {
		all = append(all, role.Permissions...)
	}

	set.Admin = user.IsAdmin()
	set.Permissions = slice.UniqueBy(all, func(permission account.Permission) string { return permission.ID })
	return set, nil
}

// # Assignments

/*
AssignRoles replaces the user's role memberships with exactly roleIDs.

Description: Assignment is declarative. Calling it with [r1] and then [r2]
leaves the user holding only r2. Duplicate IDs collapse; an empty list revokes
every role.

Returns:
  - *account.User: The user with its new roles
  - error: apperr.NotFound("User"), apperr.NotFound("Role") if any ID is unknown
*/
func (resolver *Resolver) AssignRoles(ctx context.Context, userID string, roleIDs []string) (*account.User, error) {
	user, err := resolver.store.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := distinct(roleIDs)
	roles, err := resolver.store.FindRolesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(roles) != len(ids) {
		return nil, apperr.NotFound("Role")
	}

	user.Roles = roles
	if err := resolver.store.SaveUser(ctx, user); err != nil {
		return nil, err
	}

	resolver.logger.InfoContext(ctx, "rbac_roles_assigned",
		slog.String("user_id", user.ID),
		slog.Any("role_ids", ids),
	)
	return user, nil
}

/*
AssignPermissionsToRole replaces the role's grants with exactly permissionIDs.

Returns:
  - *account.Role: The role with its new permissions
  - error: apperr.NotFound("Role"), apperr.NotFound("Permission") if any ID is unknown
*/
func (resolver *Resolver) AssignPermissionsToRole(ctx context.Context, roleID string, permissionIDs []string) (*account.Role, error) {
	roles, err := resolver.store.FindRolesByIDs(ctx, []string{roleID})
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return nil, apperr.NotFound("Role")
	}
	role := roles[0]

	ids := distinct(permissionIDs)
	permissions, err := resolver.store.FindPermissionsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(permissions) != len(ids) {
		return nil, apperr.NotFound("Permission")
	}

	role.Permissions = permissions
	if err := resolver.store.SaveRole(ctx, &role); err != nil {
		return nil, err
	}

	resolver.logger.InfoContext(ctx, "rbac_permissions_assigned",
		slog.String("role_id", role.ID),
		slog.Any("permission_ids", ids),
	)
	return &role, nil
}

// # Internal Helpers

// activeUser loads userID, mapping "unknown" and "inactive" to (nil, nil).
func (resolver *Resolver) activeUser(ctx context.Context, userID string) (*account.User, error) {
	user, err := resolver.store.FindUserByID(ctx, userID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, nil
		}
		resolver.logger.ErrorContext(ctx, "rbac_user_lookup_failed",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
		return nil, err
	}
	if !user.IsActive {
		return nil, nil
	}
	return user, nil
}

// distinct returns a sorted copy of ids without duplicates.
func distinct(ids []string) []string {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	return slices.Compact(sorted)
}
