// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rbac

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/teachplan/internal/platform/middleware"
	requestutil "github.com/taibuivan/teachplan/internal/platform/request"
	"github.com/taibuivan/teachplan/internal/platform/respond"
	"github.com/taibuivan/teachplan/internal/platform/validate"
	"github.com/taibuivan/teachplan/internal/users/account"
)

// Resources and actions guarding the RBAC endpoints themselves. They map to
// the reserved system:* permissions seeded by the initial migration.
const (
	ResourceRole       = "role"
	ResourcePermission = "permission"
	ActionAssign       = "assign"
	ActionView         = "view"
)

// Query and path parameter names.
const (
	ParamUserID   = "userID"
	ParamRoleID   = "roleID"
	QueryResource = "resource"
	QueryAction   = "action"
)

// Handler implements the role-assignment and permission-check endpoints.
type Handler struct {
	resolver *Resolver
}

// NewHandler constructs a new [Handler] with its resolver dependency.
func NewHandler(resolver *Resolver) *Handler {
	return &Handler{resolver: resolver}
}

// Routes returns a [chi.Router] configured with RBAC routes. Every route
// requires authentication; mutations additionally require a system grant.
//
// # Endpoints
//   - PUT /users/{userID}/roles          : Replace a user's roles.
//   - PUT /roles/{roleID}/permissions    : Replace a role's permissions.
//   - GET /users/{userID}/permissions    : Effective permissions of a user.
//   - GET /check?resource=&action=       : Check the caller's own permission.
func (handler *Handler) Routes(authenticator middleware.Authenticator, authorizer middleware.Authorizer) chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireAuth(authenticator))

	router.With(middleware.RequirePermission(authorizer, ResourceRole, ActionAssign)).
		Put("/users/{userID}/roles", handler.assignRoles)
	router.With(middleware.RequirePermission(authorizer, ResourcePermission, ActionAssign)).
		Put("/roles/{roleID}/permissions", handler.assignPermissions)
	router.With(middleware.RequirePermission(authorizer, ResourceRole, ActionView)).
		Get("/users/{userID}/permissions", handler.effectivePermissions)
	router.Get("/check", handler.check)

	return router
}

// # Request Payloads

type assignRolesRequest struct {
	RoleIDs []string `json:"role_ids"`
}

type assignPermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids"`
}

type checkResponse struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
	Allowed  bool   `json:"allowed"`
}

/*
assignRoles replaces the role memberships of a user.

PUT /api/v1/rbac/users/{userID}/roles

Response:
  - 200: User with its new roles
  - 400: Malformed IDs or missing role_ids
  - 404: User or any role not found
*/
func (handler *Handler) assignRoles(writer http.ResponseWriter, request *http.Request) {
	var input assignRolesRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	userID := requestutil.Param(request, ParamUserID)
	validator := &validate.Validator{}
	validator.UUID(ParamUserID, userID).
		Custom(account.FieldRoleIDs, input.RoleIDs == nil, "is required").
		UUIDs(account.FieldRoleIDs, input.RoleIDs)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.resolver.AssignRoles(request.Context(), userID, input.RoleIDs)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
assignPermissions replaces the permissions granted by a role.

PUT /api/v1/rbac/roles/{roleID}/permissions

Response:
  - 200: Role with its new permissions
  - 400: Malformed IDs or missing permission_ids
  - 404: Role or any permission not found
*/
func (handler *Handler) assignPermissions(writer http.ResponseWriter, request *http.Request) {
	var input assignPermissionsRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	roleID := requestutil.Param(request, ParamRoleID)
	validator := &validate.Validator{}
	validator.UUID(ParamRoleID, roleID).
		Custom(account.FieldPermIDs, input.PermissionIDs == nil, "is required").
		UUIDs(account.FieldPermIDs, input.PermissionIDs)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	role, err := handler.resolver.AssignPermissionsToRole(request.Context(), roleID, input.PermissionIDs)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, role)
}

/*
effectivePermissions lists the effective grant of any user.

GET /api/v1/rbac/users/{userID}/permissions

Response:
  - 200: PermissionSet (empty for unknown users)
*/
func (handler *Handler) effectivePermissions(writer http.ResponseWriter, request *http.Request) {
	userID := requestutil.Param(request, ParamUserID)
	if err := (&validate.Validator{}).UUID(ParamUserID, userID).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	set, err := handler.resolver.EffectivePermissions(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, set)
}

/*
check answers "may I?" for the calling principal.

GET /api/v1/rbac/check?resource=task&action=view

Response:
  - 200: {resource, action, allowed}
  - 400: Missing resource or action
*/
func (handler *Handler) check(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	query := request.URL.Query()
	resource := strings.TrimSpace(query.Get(QueryResource))
	action := strings.TrimSpace(query.Get(QueryAction))

	validator := &validate.Validator{}
	validator.Required(QueryResource, resource).Required(QueryAction, action)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	allowed, err := handler.resolver.HasPermission(request.Context(), principal.UserID, resource, action)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, checkResponse{Resource: resource, Action: action, Allowed: allowed})
}
