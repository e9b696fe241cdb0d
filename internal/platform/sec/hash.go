// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"context"
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/sync/semaphore"
)

// # Credential Parameters

const (
	// SaltLength is the byte length of the random per-credential salt.
	SaltLength = 16

	// DigestLength is the byte length of the derived key.
	DigestLength = 64

	// Iterations is the PBKDF2 work factor.
	Iterations = 10000

	// DigestAlgorithm names the PRF used inside PBKDF2.
	DigestAlgorithm = "pbkdf2-sha512"

	// CredentialDelimiter joins salt and digest. It is not a hex digit, so it
	// can never occur inside either component.
	CredentialDelimiter = ":"
)

// ErrMalformedCredential is returned by [ParseCredential] for values that do not
// follow the salt:digest encoding.
var ErrMalformedCredential = errors.New("sec: malformed stored credential")

// Credential is the decoded form of a stored password.
type Credential struct {
	Salt       []byte
	Digest     []byte
	Iterations int
	Algorithm  string
}

// String encodes the credential as hex(salt):hex(digest).
func (c Credential) String() string {
	return hex.EncodeToString(c.Salt) + CredentialDelimiter + hex.EncodeToString(c.Digest)
}

// ParseCredential decodes a stored credential value.
func ParseCredential(stored string) (Credential, error) {
	saltHex, digestHex, found := strings.Cut(stored, CredentialDelimiter)
	if !found {
		return Credential{}, fmt.Errorf("%w: missing delimiter", ErrMalformedCredential)
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil || len(salt) != SaltLength {
		return Credential{}, fmt.Errorf("%w: bad salt", ErrMalformedCredential)
	}

	digest, err := hex.DecodeString(digestHex)
	if err != nil || len(digest) != DigestLength {
		return Credential{}, fmt.Errorf("%w: bad digest", ErrMalformedCredential)
	}

	return Credential{Salt: salt, Digest: digest, Iterations: Iterations, Algorithm: DigestAlgorithm}, nil
}

// LooksHashed reports whether value carries the stored-credential delimiter.
//
// This is a heuristic only: a plaintext password may legitimately contain the
// delimiter. Callers on the update path must pair it with an explicit
// force-rehash flag rather than trusting it.
func LooksHashed(value string) bool {
	return strings.Contains(value, CredentialDelimiter)
}

// # Hasher

// CredentialHasher derives and verifies salted PBKDF2-SHA512 password digests.
//
// The Context variants run derivations through a bounded semaphore so that
// CPU-bound hashing cannot starve request-serving goroutines. The hasher has
// no other shared state and is safe for concurrent use.
type CredentialHasher struct {
	logger  *slog.Logger
	workers *semaphore.Weighted
	random  io.Reader
}

// NewCredentialHasher creates a hasher allowing at most workers concurrent
// derivations through [CredentialHasher.HashContext] and [CredentialHasher.VerifyContext].
func NewCredentialHasher(logger *slog.Logger, workers int) *CredentialHasher {
	if logger == nil {
		logger = slog.Default()
	}
	if workers < 1 {
		workers = 1
	}
	return &CredentialHasher{
		logger:  logger,
		workers: semaphore.NewWeighted(int64(workers)),
		random:  rand.Reader,
	}
}

// Hash generates a fresh salt and returns the encoded salt:digest credential.
func (hasher *CredentialHasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, SaltLength)
	if _, err := io.ReadFull(hasher.random, salt); err != nil {
		return "", fmt.Errorf("sec: failed to generate salt: %w", err)
	}

	credential := Credential{
		Salt:       salt,
		Digest:     derive(plaintext, salt),
		Iterations: Iterations,
		Algorithm:  DigestAlgorithm,
	}
	return credential.String(), nil
}

// Verify reports whether plaintext matches the stored credential.
//
// It fails closed: malformed stored values yield false and are logged, never
// returned as errors. Digests are compared in constant time.
func (hasher *CredentialHasher) Verify(plaintext, stored string) bool {
	credential, err := ParseCredential(stored)
	if err != nil {
		hasher.logger.Warn("credential_verify_malformed", slog.String("reason", err.Error()))
		return false
	}

	candidate := derive(plaintext, credential.Salt)
	if subtle.ConstantTimeCompare(candidate, credential.Digest) != 1 {
		hasher.logger.Debug("credential_verify_mismatch")
		return false
	}
	return true
}

// HashContext is [CredentialHasher.Hash] gated by the worker pool.
func (hasher *CredentialHasher) HashContext(ctx context.Context, plaintext string) (string, error) {
	if err := hasher.workers.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("sec: hash worker unavailable: %w", err)
	}
	defer hasher.workers.Release(1)

	return hasher.Hash(plaintext)
}

// VerifyContext is [CredentialHasher.Verify] gated by the worker pool.
// A cancelled context fails closed.
func (hasher *CredentialHasher) VerifyContext(ctx context.Context, plaintext, stored string) bool {
	if err := hasher.workers.Acquire(ctx, 1); err != nil {
		hasher.logger.Warn("credential_verify_aborted", slog.Any("error", err))
		return false
	}
	defer hasher.workers.Release(1)

	return hasher.Verify(plaintext, stored)
}

func derive(plaintext string, salt []byte) []byte {
	return pbkdf2.Key([]byte(plaintext), salt, Iterations, DigestLength, sha512.New)
}
