// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "github.com/taibuivan/teachplan/internal/platform/apperr"

// # Credential Constraints

const (
	// MinPasswordLength is the shortest accepted plaintext password.
	MinPasswordLength = 8

	// MaxPasswordLength bounds the work a single derivation can be asked to do.
	MaxPasswordLength = 128

	// MinUsernameLength and MaxUsernameLength bound the normalized handle.
	MinUsernameLength = 3
	MaxUsernameLength = 64
)

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
	FieldForceRehash     = "force_rehash"
)

// # Errors

var (
	// ErrInvalidCredentials is the single login failure. It never reveals
	// whether the email or the password was wrong.
	ErrInvalidCredentials = apperr.Unauthorized("Invalid email or password")

	// ErrMissingToken covers absent and malformed Authorization headers.
	ErrMissingToken = apperr.Unauthorized("Missing or malformed authorization header")

	// ErrForbidden never names the permission that was required.
	ErrForbidden = apperr.Forbidden("Insufficient permission")
)
