// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/teachplan/internal/platform/apperr"
)

/*
TestTaxonomy_StatusMapping checks that every constructor maps to its HTTP status.
*/
func TestTaxonomy_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    *apperr.AppError
		status int
		code   string
	}{
		{"validation", apperr.ValidationError("bad"), http.StatusBadRequest, apperr.CodeValidation},
		{"unauthorized", apperr.Unauthorized("no"), http.StatusUnauthorized, apperr.CodeUnauthorized},
		{"forbidden", apperr.Forbidden("no"), http.StatusForbidden, apperr.CodeForbidden},
		{"not_found", apperr.NotFound("Role"), http.StatusNotFound, apperr.CodeNotFound},
		{"conflict", apperr.Conflict("dup"), http.StatusConflict, apperr.CodeConflict},
		{"internal", apperr.Internal(errors.New("boom")), http.StatusInternalServerError, apperr.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.Equal(t, tt.code, tt.err.Code)
		})
	}
}

/*
TestCodeOf_Wrapped verifies classification survives fmt.Errorf wrapping.
*/
func TestCodeOf_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("resolver_assign_roles_failed: %w", apperr.NotFound("Role"))

	assert.True(t, apperr.IsNotFound(wrapped))
	assert.False(t, apperr.IsUnauthorized(wrapped))
	assert.Equal(t, apperr.CodeInternal, apperr.CodeOf(errors.New("plain")))
	assert.Empty(t, apperr.CodeOf(nil))
}

/*
TestWithCause keeps the original sentinel untouched.
*/
func TestWithCause(t *testing.T) {
	base := apperr.Unauthorized("Invalid or expired token")
	cause := errors.New("token is expired")

	withCause := base.WithCause(cause)

	assert.Nil(t, base.Cause)
	assert.ErrorIs(t, withCause, cause)
	assert.Equal(t, base.Message, withCause.Message)
}
