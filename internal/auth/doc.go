// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package auth implements the account-credential core: registering new
// accounts and authenticating returning ones against a repository, issuing
// a bearer token on success. Storage and token signing are collaborator
// interfaces; the package owns normalization, hashing orchestration, and
// the two flows.
package auth
