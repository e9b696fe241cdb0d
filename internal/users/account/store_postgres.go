// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account (Postgres) implements the storage collaborator on PostgreSQL.

# Schema Table Mapping
  - users.account: Identity and credential data.
  - users.role / users.permission: RBAC catalogue.
  - users.accountrole / users.rolepermission: Many-to-many junctions.

Reads that hydrate a user run inside a REPEATABLE READ, read-only transaction
so the user, role and permission queries observe a single snapshot.
*/
package account

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/teachplan/internal/platform/apperr"
	"github.com/taibuivan/teachplan/internal/platform/database/schema"
	"github.com/taibuivan/teachplan/internal/platform/dberr"
	"github.com/taibuivan/teachplan/internal/platform/postgres"
	"github.com/taibuivan/teachplan/pkg/slice"
)

// PostgresStore implements [Store] using pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new Postgres implementation of the storage collaborator.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// # Lookups

/*
FindUserByID retrieves an account with its roles and permissions.

Parameters:
  - context: context.Context
  - id: string (UUID)

Returns:
  - *User: Hydrated identity entity
  - error: apperr.NotFound or database execution failure
*/
func (store *PostgresStore) FindUserByID(context context.Context, id string) (*User, error) {
	return store.findUser(context, schema.UserAccount.ID, id)
}

/*
FindUserByEmail retrieves an account by its unique email.

Parameters:
  - context: context.Context
  - email: string (already normalized)

Returns:
  - *User: Hydrated identity entity
  - error: apperr.NotFound or database execution failure
*/
func (store *PostgresStore) FindUserByEmail(context context.Context, email string) (*User, error) {
	return store.findUser(context, schema.UserAccount.Email, email)
}

func (store *PostgresStore) findUser(context context.Context, column, value string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		strings.Join(schema.UserAccount.Columns(), ", "),
		schema.UserAccount.Table,
		column,
	)

	var user *User
	err := postgres.InTx(context, store.pool, postgres.Snapshot, func(transaction pgx.Tx) error {
		found := &User{}
		err := transaction.QueryRow(context, query, value).Scan(
			&found.ID,
			&found.Username,
			&found.Email,
			&found.PasswordHash,
			&found.IsActive,
			&found.LastLoginAt,
			&found.CreatedAt,
			&found.UpdatedAt,
		)
		if err != nil {
			return dberr.Wrap(err, "User")
		}

		roles, err := store.rolesOfUser(context, transaction, found.ID)
		if err != nil {
			return err
		}
		found.Roles = roles
		user = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

/*
FindRolesByIDs retrieves the existing roles among ids with their permissions.

Parameters:
  - context: context.Context
  - ids: []string

Returns:
  - []Role: Found roles (possibly fewer than requested)
  - error: Database retrieval failures
*/
func (store *PostgresStore) FindRolesByIDs(context context.Context, ids []string) ([]Role, error) {
	if len(ids) == 0 {
		return []Role{}, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ANY($1) ORDER BY %s`,
		strings.Join(schema.UserRole.Columns(), ", "),
		schema.UserRole.Table,
		schema.UserRole.ID,
		schema.UserRole.Name,
	)

	var roles []Role
	err := postgres.InTx(context, store.pool, postgres.Snapshot, func(transaction pgx.Tx) error {
		found, err := collectRoles(transaction.Query(context, query, ids))
		if err != nil {
			return err
		}
		if err := store.attachPermissions(context, transaction, found); err != nil {
			return err
		}
		roles = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return roles, nil
}

/*
FindPermissionsByIDs retrieves the existing permissions among ids.

Parameters:
  - context: context.Context
  - ids: []string

Returns:
  - []Permission: Found permissions (possibly fewer than requested)
  - error: Database retrieval failures
*/
func (store *PostgresStore) FindPermissionsByIDs(context context.Context, ids []string) ([]Permission, error) {
	if len(ids) == 0 {
		return []Permission{}, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ANY($1) ORDER BY %s`,
		strings.Join(schema.UserPermission.Columns(), ", "),
		schema.UserPermission.Table,
		schema.UserPermission.ID,
		schema.UserPermission.Name,
	)

	rows, err := store.pool.Query(context, query, ids)
	if err != nil {
		return nil, fmt.Errorf("postgres_permission_repo_find_failed: %w", err)
	}
	defer rows.Close()

	permissions := []Permission{}
	for rows.Next() {
		var permission Permission
		if err := rows.Scan(&permission.ID, &permission.Name, &permission.Resource, &permission.Action); err != nil {
			return nil, fmt.Errorf("postgres_permission_repo_scan_failed: %w", err)
		}
		permissions = append(permissions, permission)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_permission_repo_find_failed: %w", err)
	}
	return permissions, nil
}

// # Writes

/*
SaveUser upserts the account row and replaces its role memberships.

Parameters:
  - context: context.Context
  - user: *User

Returns:
  - error: apperr.Conflict, apperr.NotFound or execution failures
*/
func (store *PostgresStore) SaveUser(context context.Context, user *User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	account := schema.UserAccount
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (%s) DO UPDATE SET
			%s = EXCLUDED.%s,
			%s = EXCLUDED.%s,
			%s = EXCLUDED.%s,
			%s = EXCLUDED.%s,
			%s = EXCLUDED.%s,
			%s = EXCLUDED.%s`,
		account.Table, strings.Join(account.Columns(), ", "),
		account.ID,
		account.Username, account.Username,
		account.Email, account.Email,
		account.PasswordHash, account.PasswordHash,
		account.IsActive, account.IsActive,
		account.LastLoginAt, account.LastLoginAt,
		account.UpdatedAt, account.UpdatedAt,
	)

	return postgres.InTx(context, store.pool, postgres.Write, func(transaction pgx.Tx) error {
		_, err := transaction.Exec(context, query,
			user.ID,
			user.Username,
			user.Email,
			user.PasswordHash,
			user.IsActive,
			user.LastLoginAt,
			user.CreatedAt,
			user.UpdatedAt,
		)
		if err != nil {
			return dberr.Wrap(err, "User")
		}

		if err := replaceJunction(context, transaction, schema.UserAccountRole, user.ID, user.RoleIDs()); err != nil {
			return dberr.Wrap(err, "Role")
		}
		return nil
	})
}

// TouchLastLogin implements [Store]. It writes the account row only.
func (store *PostgresStore) TouchLastLogin(context context.Context, id string, at time.Time) error {
	return store.updateAccountColumn(context, id, schema.UserAccount.LastLoginAt, at)
}

// UpdateCredential implements [Store]. It writes the account row only.
func (store *PostgresStore) UpdateCredential(context context.Context, id, passwordHash string) error {
	return store.updateAccountColumn(context, id, schema.UserAccount.PasswordHash, passwordHash)
}

// updateAccountColumn sets one column of users.account without touching the
// role junction.
func (store *PostgresStore) updateAccountColumn(context context.Context, id, column string, value any) error {
	account := schema.UserAccount
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1`,
		account.Table, column, account.UpdatedAt, account.ID,
	)

	tag, err := store.pool.Exec(context, query, id, value, time.Now().UTC())
	if err != nil {
		return dberr.Wrap(err, "User")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

/*
SaveRole upserts the role row and replaces its permission grants.

Parameters:
  - context: context.Context
  - role: *Role

Returns:
  - error: apperr.Conflict, apperr.NotFound or execution failures
*/
func (store *PostgresStore) SaveRole(context context.Context, role *Role) error {
	table := schema.UserRole
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (%s) DO UPDATE SET
			%s = EXCLUDED.%s,
			%s = EXCLUDED.%s,
			%s = EXCLUDED.%s`,
		table.Table, strings.Join(table.Columns(), ", "), table.CreatedAt+", "+table.UpdatedAt,
		table.ID,
		table.Name, table.Name,
		table.Description, table.Description,
		table.UpdatedAt, table.UpdatedAt,
	)

	return postgres.InTx(context, store.pool, postgres.Write, func(transaction pgx.Tx) error {
		if _, err := transaction.Exec(context, query, role.ID, role.Name, role.Description, time.Now().UTC()); err != nil {
			return dberr.Wrap(err, "Role")
		}

		if err := replaceJunction(context, transaction, schema.UserRolePermission, role.ID, role.PermissionIDs()); err != nil {
			return dberr.Wrap(err, "Permission")
		}
		return nil
	})
}

// # Internal Helpers

// rolesOfUser loads the roles held by userID, with permissions attached.
func (store *PostgresStore) rolesOfUser(context context.Context, transaction pgx.Tx, userID string) ([]Role, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s r
		JOIN %s j ON j.%s = r.%s
		WHERE j.%s = $1
		ORDER BY r.%s`,
		strings.Join(qualify("r", schema.UserRole.Columns()), ", "),
		schema.UserRole.Table,
		schema.UserAccountRole.Table, schema.UserAccountRole.MemberID, schema.UserRole.ID,
		schema.UserAccountRole.OwnerID,
		schema.UserRole.Name,
	)

	roles, err := collectRoles(transaction.Query(context, query, userID))
	if err != nil {
		return nil, err
	}
	if err := store.attachPermissions(context, transaction, roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// attachPermissions loads the permissions of every role in one query.
func (store *PostgresStore) attachPermissions(context context.Context, transaction pgx.Tx, roles []Role) error {
	if len(roles) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		SELECT j.%s, %s
		FROM %s p
		JOIN %s j ON j.%s = p.%s
		WHERE j.%s = ANY($1)
		ORDER BY p.%s`,
		schema.UserRolePermission.OwnerID,
		strings.Join(qualify("p", schema.UserPermission.Columns()), ", "),
		schema.UserPermission.Table,
		schema.UserRolePermission.Table, schema.UserRolePermission.MemberID, schema.UserPermission.ID,
		schema.UserRolePermission.OwnerID,
		schema.UserPermission.Name,
	)

	roleIDs := slice.Map(roles, func(role Role) string { return role.ID })
	rows, err := transaction.Query(context, query, roleIDs)
	if err != nil {
		return fmt.Errorf("postgres_role_repo_permissions_failed: %w", err)
	}
	defer rows.Close()

	byRole := make(map[string][]Permission, len(roles))
	for rows.Next() {
		var roleID string
		var permission Permission
		if err := rows.Scan(&roleID, &permission.ID, &permission.Name, &permission.Resource, &permission.Action); err != nil {
			return fmt.Errorf("postgres_role_repo_permissions_scan_failed: %w", err)
		}
		byRole[roleID] = append(byRole[roleID], permission)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("postgres_role_repo_permissions_failed: %w", err)
	}

	for i := range roles {
		roles[i].Permissions = byRole[roles[i].ID]
		if roles[i].Permissions == nil {
			roles[i].Permissions = []Permission{}
		}
	}
	return nil
}

// collectRoles scans (id, name, description) rows.
func collectRoles(rows pgx.Rows, err error) ([]Role, error) {
	if err != nil {
		return nil, fmt.Errorf("postgres_role_repo_find_failed: %w", err)
	}
	defer rows.Close()

	roles := []Role{}
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description); err != nil {
			return nil, fmt.Errorf("postgres_role_repo_scan_failed: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_role_repo_find_failed: %w", err)
	}
	return roles, nil
}

/*
replaceJunction replaces every member row of owner in a junction table.

Description: Deletes the owner's existing rows, then queues one INSERT per
member in a single [pgx.Batch]. Runs inside the caller's transaction so the
replacement is atomic.
*/
func replaceJunction(context context.Context, transaction pgx.Tx, junction schema.JunctionTable, ownerID string, memberIDs []string) error {

	// Record Deletion Phase
	deleteQuery := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", junction.Table, junction.OwnerID)
	if _, err := transaction.Exec(context, deleteQuery, ownerID); err != nil {
		return fmt.Errorf("postgres: failed to clear %s: %w", junction.Table, err)
	}

	if len(memberIDs) == 0 {
		return nil
	}

	// Batch Execution Setup
	insertQuery := fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		junction.Table, junction.OwnerID, junction.MemberID)
	batch := &pgx.Batch{}
	for _, memberID := range memberIDs {
		batch.Queue(insertQuery, ownerID, memberID)
	}

	// Batch Dispatch
	if err := transaction.SendBatch(context, batch).Close(); err != nil {
		return fmt.Errorf("postgres: failed to batch insert into %s: %w", junction.Table, err)
	}
	return nil
}

// qualify prefixes every column with a table alias.
func qualify(alias string, columns []string) []string {
	return slice.Map(columns, func(column string) string { return alias + "." + column })
}
