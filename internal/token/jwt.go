// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package token mints and verifies the signed bearer tokens issued to
// authenticated accounts.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// MinSecretLen is the minimum accepted HMAC secret length in bytes.
// Anything shorter is trivially brute-forceable.
const MinSecretLen = 32

// JWTIssuer implements auth.TokenIssuer with HS256-signed JWTs. The
// account id travels in the registered subject claim.
type JWTIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewJWTIssuer creates a JWTIssuer.
func NewJWTIssuer(secret []byte, issuer string, ttl time.Duration) (*JWTIssuer, error) {
	if len(secret) < MinSecretLen {
		return nil, oops.Code("TOKEN_SECRET_INVALID").
			With("min_bytes", MinSecretLen).
			Errorf("signing secret must be at least %d bytes", MinSecretLen)
	}
	if issuer == "" {
		return nil, oops.Code("TOKEN_ISSUER_INVALID").Errorf("issuer name is required")
	}
	if ttl <= 0 {
		return nil, oops.Code("TOKEN_TTL_INVALID").Errorf("token ttl must be positive")
	}
	return &JWTIssuer{secret: secret, issuer: issuer, ttl: ttl}, nil
}

// Issue mints a signed token whose subject is the given account id.
func (i *JWTIssuer) Issue(subjectID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subjectID,
		Issuer:    i.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").
			With("operation", "sign token").
			Wrap(err)
	}
	return signed, nil
}

// Subject validates a token and returns its subject (the account id).
// Signature, expiry, and issuer are all checked; the signing method is
// pinned to HMAC so an attacker cannot downgrade it.
func (i *JWTIssuer) Subject(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(_ *jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", oops.Code("TOKEN_INVALID").Wrap(err)
	}
	return claims.Subject, nil
}
