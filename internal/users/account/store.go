// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"time"
)

// # Storage Collaborator

// Store defines the persistence contract of the identity engine.
//
// Lookups that miss return an [apperr.NotFound] error. Every read goes to the
// backing store; implementations must not cache.
type Store interface {

	/*
		FindUserByID returns the user with its roles and their permissions.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindUserByID(context context.Context, id string) (*User, error)

	/*
		FindUserByEmail returns the user with the given (normalized) email,
		hydrated like FindUserByID.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindUserByEmail(context context.Context, email string) (*User, error)

	/*
		FindRolesByIDs returns the roles that exist among ids, with permissions.
		Unknown IDs are skipped; callers detect them by count mismatch.

		Parameters:
		  - context: context.Context
		  - ids: []string

		Returns:
		  - []Role: Found roles
		  - error: Storage failures
	*/
	FindRolesByIDs(context context.Context, ids []string) ([]Role, error)

	/*
		FindPermissionsByIDs returns the permissions that exist among ids.

		Parameters:
		  - context: context.Context
		  - ids: []string

		Returns:
		  - []Permission: Found permissions
		  - error: Storage failures
	*/
	FindPermissionsByIDs(context context.Context, ids []string) ([]Permission, error)

	/*
		SaveUser upserts the user and replaces its role memberships with
		exactly user.Roles. Only callers that own the role list (registration
		and role assignment) may use it; column updates go through
		TouchLastLogin and UpdateCredential.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: apperr.Conflict on duplicate email, apperr.NotFound on an
		    unknown role, or storage failures
	*/
	SaveUser(context context.Context, user *User) error

	/*
		TouchLastLogin stamps the last login time of the user. Role
		memberships are left untouched.

		Returns:
		  - error: apperr.NotFound or storage failures
	*/
	TouchLastLogin(context context.Context, id string, at time.Time) error

	/*
		UpdateCredential replaces the stored password credential of the user.
		Role memberships are left untouched.

		Returns:
		  - error: apperr.NotFound or storage failures
	*/
	UpdateCredential(context context.Context, id, passwordHash string) error

	/*
		SaveRole upserts the role and replaces its permissions with exactly
		role.Permissions.

		Parameters:
		  - context: context.Context
		  - role: *Role

		Returns:
		  - error: apperr.Conflict on duplicate name, apperr.NotFound on an
		    unknown permission, or storage failures
	*/
	SaveRole(context context.Context, role *Role) error
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
