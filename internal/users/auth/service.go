// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements authentication: registration, login, password change,
token revocation, and the request-facing gateway.

Architecture:

  - Service: Orchestrates the one-shot flows (Register, Login, ChangePassword,
    Logout). Successful flows hand the caller a signed token directly.
  - Gateway: Verifies bearer tokens and answers authorization checks for the
    HTTP middleware.
  - Denylist: Optional Redis-backed revocation of individual tokens.

Login failures are deliberately indistinguishable: an unknown email, a wrong
password and a disabled account all produce [ErrInvalidCredentials].
*/
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/teachplan/internal/platform/apperr"
	"github.com/taibuivan/teachplan/internal/platform/constants"
	"github.com/taibuivan/teachplan/internal/platform/sec"
	"github.com/taibuivan/teachplan/internal/users/account"
	"github.com/taibuivan/teachplan/internal/users/rbac"
	"github.com/taibuivan/teachplan/pkg/ident"
	"github.com/taibuivan/teachplan/pkg/uuid"
)

// # Contracts & Types

// TokenIssuer defines the contract for generating access tokens.
type TokenIssuer interface {
	Issue(userID, email string) (string, error)
	TTL() time.Duration
}

// PermissionLister lists the effective grant of a user.
type PermissionLister interface {
	EffectivePermissions(ctx context.Context, userID string) (*rbac.PermissionSet, error)
}

// Service implements user authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// or login logic must be reviewed by the security team.
type Service struct {
	store       account.Store
	hasher      *sec.CredentialHasher
	tokens      TokenIssuer
	permissions PermissionLister
	denylist    Denylist
	logger      *slog.Logger
	now         func() time.Time

	// decoy is verified when the email is unknown so both failure paths pay
	// for one derivation.
	decoy string
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	store account.Store,
	hasher *sec.CredentialHasher,
	tokens TokenIssuer,
	permissions PermissionLister,
	denylist Denylist,
	logger *slog.Logger,
) (*Service, error) {
	decoy, err := hasher.Hash(uuid.New())
	if err != nil {
		return nil, fmt.Errorf("auth_service_init_failed: %w", err)
	}
	if denylist == nil {
		denylist = NopDenylist{}
	}

	return &Service{
		store:       store,
		hasher:      hasher,
		tokens:      tokens,
		permissions: permissions,
		denylist:    denylist,
		logger:      logger,
		now:         time.Now,
		decoy:       decoy,
	}, nil
}

// Session is the result of a successful registration or login.
type Session struct {
	User        *account.User `json:"user"`
	AccessToken string        `json:"access_token"`
	TokenType   string        `json:"token_type"`
	ExpiresIn   int64         `json:"expires_in"`
}

// Profile is the caller's own identity with its effective permissions.
type Profile struct {
	User        *account.User      `json:"user"`
	Permissions *rbac.PermissionSet `json:"permissions"`
	ExpiresAt   time.Time          `json:"token_expires_at"`
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

/*
Register hashes the password, persists a new active account with no roles,
and issues its first token.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *Session: Created user and access token
  - err: Conflict (if the email exists), Validation, or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*Session, error) {
	email := ident.NormalizeEmail(input.Email)
	username := ident.Username(input.Username)
	if len(username) < MinUsernameLength {
		return nil, apperr.ValidationError("Validation failed", apperr.FieldError{
			Field:   FieldUsername,
			Message: fmt.Sprintf("Must contain at least %d letters or digits", MinUsernameLength),
		})
	}

	// Verify email uniqueness. Return a client-safe Conflict err.
	_, err := service.store.FindUserByEmail(context, email)
	if err == nil {
		return nil, apperr.Conflict("Email is already registered")
	}
	if !apperr.IsNotFound(err) {
		return nil, err
	}

	hashedPassword, err := service.hasher.HashContext(context, input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Time-sortable ID to prevent PG index fragmentation.
	user := &account.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		IsActive:     true,
		Roles:        []account.Role{},
	}

	// A concurrent registration can still win the race; the unique index
	// surfaces it as Conflict.
	if err := service.store.SaveUser(context, user); err != nil {
		if apperr.IsConflict(err) {
			return nil, apperr.Conflict("Email is already registered")
		}
		return nil, err
	}

	service.logger.InfoContext(context, "auth_user_registered", slog.String("user_id", user.ID))
	return service.session(user)
}

// # Login Flow

// LoginInput holds the credentials submitted for authentication.
type LoginInput struct {
	Email    string
	Password string
}

/*
Login verifies credentials, stamps the last login time, and issues a token.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *Session: Access token and user
  - err: ErrInvalidCredentials for every authentication failure
*/
func (service *Service) Login(context context.Context, input LoginInput) (*Session, error) {
	user, err := service.store.FindUserByEmail(context, ident.NormalizeEmail(input.Email))
	if err != nil {
		if !apperr.IsNotFound(err) {
			return nil, err
		}
		service.hasher.VerifyContext(context, input.Password, service.decoy)
		service.logger.InfoContext(context, "auth_login_failed", slog.String("reason", "unknown_email"))
		return nil, ErrInvalidCredentials
	}

	if !service.hasher.VerifyContext(context, input.Password, user.PasswordHash) {
		service.logger.InfoContext(context, "auth_login_failed",
			slog.String("reason", "credential_mismatch"),
			slog.String("user_id", user.ID),
		)
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		service.logger.InfoContext(context, "auth_login_failed",
			slog.String("reason", "inactive"),
			slog.String("user_id", user.ID),
		)
		return nil, ErrInvalidCredentials
	}

	// Column-only write: a role change made since the read must survive.
	loggedInAt := service.now().UTC()
	if err := service.store.TouchLastLogin(context, user.ID, loggedInAt); err != nil {
		return nil, err
	}
	user.LastLoginAt = &loggedInAt

	return service.session(user)
}

// # Password Management

// ChangePasswordInput carries a password change request.
//
// ForceRehash must be set to store a new password that contains the
// credential delimiter; without it such values are rejected as possibly
// already-encoded credentials.
type ChangePasswordInput struct {
	Current     string
	New         string
	ForceRehash bool
}

/*
ChangePassword verifies the current password and stores a fresh credential.

Returns:
  - err: apperr.Unauthorized on a wrong current password, ValidationError when
    the new value looks already hashed and ForceRehash is false
*/
func (service *Service) ChangePassword(context context.Context, userID string, input ChangePasswordInput) error {
	user, err := service.store.FindUserByID(context, userID)
	if err != nil {
		return err
	}

	if !service.hasher.VerifyContext(context, input.Current, user.PasswordHash) {
		return apperr.Unauthorized("Current password is incorrect")
	}

	if sec.LooksHashed(input.New) && !input.ForceRehash {
		return apperr.ValidationError("Validation failed", apperr.FieldError{
			Field:   FieldNewPassword,
			Message: fmt.Sprintf("Looks like an encoded credential; set %s to store it as a password", FieldForceRehash),
		})
	}

	hashedPassword, err := service.hasher.HashContext(context, input.New)
	if err != nil {
		return fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	if err := service.store.UpdateCredential(context, user.ID, hashedPassword); err != nil {
		return err
	}

	service.logger.InfoContext(context, "auth_password_changed", slog.String("user_id", user.ID))
	return nil
}

// # Session Management

// Logout revokes the token behind principal until it would have expired.
// Without a configured denylist this is a no-op and the token stays valid.
func (service *Service) Logout(context context.Context, principal *sec.Principal) error {
	if !Enabled(service.denylist) {
		service.logger.InfoContext(context, "auth_logout_stateless", slog.String("user_id", principal.UserID))
		return nil
	}

	if err := service.denylist.Revoke(context, principal.TokenID, principal.Remaining(service.now())); err != nil {
		return err
	}

	service.logger.InfoContext(context, "auth_token_revoked", slog.String("user_id", principal.UserID))
	return nil
}

// Me returns the caller's account and effective permissions.
func (service *Service) Me(context context.Context, principal *sec.Principal) (*Profile, error) {
	user, err := service.store.FindUserByID(context, principal.UserID)
	if err != nil {
		return nil, err
	}

	permissions, err := service.permissions.EffectivePermissions(context, user.ID)
	if err != nil {
		return nil, err
	}

	return &Profile{User: user, Permissions: permissions, ExpiresAt: principal.ExpiresAt}, nil
}

func (service *Service) session(user *account.User) (*Session, error) {
	token, err := service.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("auth_service_issue_token_failed: %w", err)
	}

	return &Session{
		User:        user,
		AccessToken: token,
		TokenType:   constants.BearerScheme,
		ExpiresIn:   int64(service.tokens.TTL().Seconds()),
	}, nil
}
