// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// dummyPasswordHash is verified against when no account matches the email,
// so the lookup-miss path costs roughly one argon2 computation just like
// the mismatch path. This is NOT a real credential - it is a fake hash
// that will never match any password.
//
//nolint:gosec // G101: intentionally fake hash for timing attack prevention, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Service orchestrates the registration and authentication flows. Each
// invocation is stateless; the repository's uniqueness constraint is the
// sole serialization point for concurrent registrations.
type Service struct {
	accounts AccountRepository
	hasher   PasswordHasher
	issuer   TokenIssuer
	logger   *slog.Logger
}

// NewService creates a Service. All dependencies are required.
func NewService(accounts AccountRepository, hasher PasswordHasher, issuer TokenIssuer) (*Service, error) {
	return NewServiceWithLogger(accounts, hasher, issuer, slog.Default())
}

// NewServiceWithLogger creates a Service with an explicit logger.
func NewServiceWithLogger(accounts AccountRepository, hasher PasswordHasher, issuer TokenIssuer, logger *slog.Logger) (*Service, error) {
	if accounts == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("accounts repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("password hasher is required")
	}
	if issuer == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("token issuer is required")
	}
	if logger == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("logger is required")
	}
	return &Service{
		accounts: accounts,
		hasher:   hasher,
		issuer:   issuer,
		logger:   logger,
	}, nil
}

// Register creates a new account and returns a bearer token for it.
// A duplicate email yields ErrEmailTaken whether it is caught by the
// fast-path lookup or by the storage constraint during the insert; the
// two paths are indistinguishable to the caller. On success exactly one
// account row exists; on any failure, none.
func (s *Service) Register(ctx context.Context, rawEmail, rawPassword string) (*AccessToken, error) {
	email := NormalizeEmail(rawEmail)

	// Fast-path duplicate check. Purely an optimization for a quick
	// error; the insert below is the authoritative guard.
	_, err := s.accounts.GetByEmail(ctx, email)
	if err == nil {
		return nil, oops.Code("AUTH_EMAIL_TAKEN").Wrap(ErrEmailTaken)
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "check existing account").
			Wrap(err)
	}

	hash, err := s.hasher.Hash(rawPassword)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	account := NewAccount(email, hash)
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			// Race loser: a concurrent registration won the insert.
			// Same error shape as the fast path above.
			return nil, oops.Code("AUTH_EMAIL_TAKEN").Wrap(ErrEmailTaken)
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create account").
			Wrap(err)
	}

	token, err := s.issuer.Issue(account.ID.String())
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "issue token").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "account registered", "account_id", account.ID.String())

	return &AccessToken{Token: token, TokenType: TokenTypeBearer}, nil
}

// Login authenticates an existing account and returns a bearer token.
// An unknown email and a wrong password both yield ErrInvalidCredentials;
// the unknown-email path still performs an argon2 verification against a
// dummy hash so the two paths have comparable latency. Login mutates no
// account state.
func (s *Service) Login(ctx context.Context, rawEmail, rawPassword string) (*AccessToken, error) {
	email := NormalizeEmail(rawEmail)

	account, lookupErr := s.accounts.GetByEmail(ctx, email)

	targetHash := dummyPasswordHash
	accountExists := false
	if lookupErr == nil {
		targetHash = account.PasswordHash
		accountExists = true
	} else if !errors.Is(lookupErr, ErrNotFound) {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get account by email").
			Wrap(lookupErr)
	}

	// Always verify, real hash or dummy, before branching on existence.
	valid := s.hasher.Verify(rawPassword, targetHash)
	if !accountExists || !valid {
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	token, err := s.issuer.Issue(account.ID.String())
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "issue token").
			Wrap(err)
	}

	s.logger.DebugContext(ctx, "account authenticated", "account_id", account.ID.String())

	return &AccessToken{Token: token, TokenType: TokenTypeBearer}, nil
}
