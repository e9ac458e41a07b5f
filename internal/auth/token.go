// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

// TokenTypeBearer is the token-kind label returned alongside every issued
// access token.
const TokenTypeBearer = "bearer"

// AccessToken is the transient success result of both flows: an opaque
// signed string asserting "this bearer is account X", plus the bearer
// scheme label. Never persisted by this package.
type AccessToken struct {
	Token     string
	TokenType string
}

// TokenIssuer mints an opaque bearer credential bound to an account
// identifier. The issuer owns signing-key lifecycle.
type TokenIssuer interface {
	Issue(subjectID string) (string, error)
}
