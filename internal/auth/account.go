// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Account is the persisted identity. Email holds the normalized form and
// is the uniqueness key; PasswordHash is the argon2id encoding of the
// current secret, never the plaintext.
type Account struct {
	ID           ulid.ULID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewAccount creates an Account with a fresh ID and timestamps. The ID is
// assigned here, at creation, and is immutable thereafter. The email must
// already be normalized; callers go through NormalizeEmail first.
func NewAccount(normalizedEmail, passwordHash string) *Account {
	now := time.Now().UTC()
	return &Account{
		ID:           ulid.Make(),
		Email:        normalizedEmail,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NormalizeEmail canonicalizes a raw email address: leading/trailing
// whitespace stripped, the whole string lower-cased. Pure and total; it is
// applied before every repository lookup and insert so differently-cased
// inputs for the same address always collide. Syntactic validity is the
// HTTP layer's concern, not this function's.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// AccountRepository manages account persistence.
type AccountRepository interface {
	// Create stores a new account atomically. The storage layer enforces
	// a uniqueness constraint on the normalized email; a violation
	// surfaces as ErrEmailTaken. This constraint, not any pre-check, is
	// the authoritative guard against concurrent duplicate registrations.
	Create(ctx context.Context, account *Account) error

	// GetByEmail retrieves an account by normalized email.
	// Returns ErrNotFound if no account has the given email.
	GetByEmail(ctx context.Context, normalizedEmail string) (*Account, error)

	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)
}
