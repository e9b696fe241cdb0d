// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package dberr provides a bridge between low-level database errors and
// higher-level application errors.
package dberr

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/teachplan/internal/platform/apperr"
)

// Postgres SQLSTATE codes classified by [Wrap].
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Wrap inspects a database error and classifies it into an [apperr.AppError].
// It hides internal database details from the client while keeping the cause
// for server-side logs.
//
// # Parameters
//   - err: the raw driver error (nil passes through)
//   - resource: name used for NotFound/Conflict messages (e.g. "User")
//
// Unique violations become Conflict, foreign key violations NotFound.
func Wrap(err error, resource string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound(resource)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return apperr.Conflict(resource + " already exists").WithCause(err)
		case foreignKeyViolation:
			// A junction row referenced a row that no longer exists.
			return apperr.NotFound(resource).WithCause(err)
		}
	}

	return apperr.Internal(err)
}
