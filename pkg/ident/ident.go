// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ident normalizes the human-facing identifiers of the identity
// engine: email addresses, usernames and permission names.
//
// # Usage
//
// Emails are compared after normalization so "Alice@Example.com" and
// "alice@example.com" resolve to one account. Permission names follow the
// "resource:action" convention, with a reserved "system:" namespace.
package ident

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SystemNamespace prefixes reserved permission names.
const SystemNamespace = "system"

// PermissionSeparator joins the parts of a permission name.
const PermissionSeparator = ":"

// ErrInvalidPermissionName is returned by [ParsePermissionName].
var ErrInvalidPermissionName = errors.New("ident: permission name must be resource:action")

var (
	// nonAlphanumeric matches any sequence of non-alphanumeric, non-hyphen characters.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9-]+`)
	// multiHyphen collapses multiple consecutive hyphens into one.
	multiHyphen = regexp.MustCompile(`-{2,}`)
)

// NormalizeEmail trims, NFC-normalizes and case-folds an email address.
func NormalizeEmail(email string) string {
	// A Caser is stateful and must not be shared between goroutines.
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(email)))
}

// Username converts an arbitrary Unicode display name into an ASCII handle.
//
// # Transformation Pipeline
//
// 1. Normalizes to NFD (decomposes accented chars: é → e + combining acute).
// 2. Removes combining marks (accents).
// 3. Converts to lowercase.
// 4. Replaces non-alphanumeric characters with hyphens.
// 5. Collapses multiple hyphens and trims leading/trailing hyphens.
func Username(s string) string {
	// 1. Normalize and remove accents
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn))
	result, _, _ := transform.String(t, s)

	// 2. Lowercase
	result = strings.ToLower(result)

	// 3. Replace whitespace and special chars with hyphens
	result = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '-'
	}, result)

	// 4. Clean up hyphenation
	result = nonAlphanumeric.ReplaceAllString(result, "-")
	result = multiHyphen.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// PermissionName builds the canonical "resource:action" name.
func PermissionName(resource, action string) string {
	return resource + PermissionSeparator + action
}

// SystemPermissionName builds a reserved "system:resource:action" name.
func SystemPermissionName(resource, action string) string {
	return SystemNamespace + PermissionSeparator + PermissionName(resource, action)
}

// ParsePermissionName splits a permission name into its resource and action
// and reports whether it lives in the reserved namespace. Parts are kept
// verbatim: matching is case-sensitive.
func ParsePermissionName(name string) (resource, action string, system bool, err error) {
	parts := strings.Split(name, PermissionSeparator)
	if len(parts) == 3 && parts[0] == SystemNamespace {
		system = true
		parts = parts[1:]
	}
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false, ErrInvalidPermissionName
	}
	return parts[0], parts[1], system, nil
}

// isMn reports whether r is a Unicode non-spacing mark (e.g., accents).
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
