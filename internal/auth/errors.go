// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import "errors"

// Sentinel errors for the two expected domain outcomes plus repository
// misses. Layers wrap these with oops codes; callers branch with errors.Is.
var (
	// ErrNotFound is returned when a requested account does not exist.
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken is returned when a registration collides with an
	// existing account, whether caught by the pre-check or by the storage
	// uniqueness constraint. Both paths produce this one error.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned for both an unknown email and a
	// password mismatch, deliberately indistinguishable so responses
	// cannot be used to enumerate registered addresses.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
