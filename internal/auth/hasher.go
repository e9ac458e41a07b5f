// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// OWASP-recommended argon2id parameters.
const (
	argon2Time    = 1         // iterations
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4         // parallelism
	argon2SaltLen = 16        // salt length in bytes
	argon2KeyLen  = 32        // output length in bytes

	// maxArgon2Memory bounds the m parameter accepted from stored hashes
	// (4 GiB in KiB units). Anything above it is treated as corrupt.
	maxArgon2Memory = 4 * 1024 * 1024
)

// PasswordHasher converts plaintext secrets to and from a verifiable
// hashed form.
type PasswordHasher interface {
	// Hash produces a salted argon2id hash of the password. A fresh salt
	// is drawn per call, so equal passwords never produce equal hashes.
	// Failure to produce output is an infrastructure fault, never an
	// invalid-credentials outcome.
	Hash(password string) (string, error)

	// Verify reports whether the password matches the stored hash, using
	// the salt and parameters embedded in it. A malformed hash verifies
	// as false rather than erroring: only true authorizes.
	Verify(password, encodedHash string) bool
}

// Argon2idHasher implements PasswordHasher using argon2id with PHC string
// encoding.
type Argon2idHasher struct{}

// NewArgon2idHasher creates a new Argon2idHasher.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{}
}

// Hash produces an argon2id hash of the password.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_HASH_UNAVAILABLE").
			With("operation", "generate salt").
			Wrap(err)
	}

	hash := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	// PHC string format: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)

	return encoded, nil
}

// Verify reports whether the password matches the encoded hash. Any
// malformed or foreign hash verifies as false.
func (h *Argon2idHasher) Verify(password, encodedHash string) bool {
	salt, expectedHash, memory, time, threads, ok := parsePHC(encodedHash)
	if !ok {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, time, memory, threads, uint32(len(expectedHash)))

	return subtle.ConstantTimeCompare(computed, expectedHash) == 1
}

// parsePHC decodes a $argon2id$ PHC string into its salt, hash, and
// parameters. ok is false for anything that is not a well-formed argon2id
// encoding.
func parsePHC(encodedHash string) (salt, hash []byte, memory, time uint32, threads uint8, ok bool) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, 0, 0, 0, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, nil, 0, 0, 0, false
	}

	var threads32 uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads32); err != nil {
		return nil, nil, 0, 0, 0, false
	}
	// Threads must fit in uint8 for argon2.IDKey. Zero iterations panics
	// inside argon2, and an absurd memory parameter would attempt a
	// matching allocation, so both are treated as malformed.
	if threads32 == 0 || threads32 > 255 {
		return nil, nil, 0, 0, 0, false
	}
	if time == 0 || memory == 0 || memory > maxArgon2Memory {
		return nil, nil, 0, 0, 0, false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, 0, 0, 0, false
	}

	hash, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(hash) == 0 || len(hash) > 1<<30 {
		return nil, nil, 0, 0, 0, false
	}

	return salt, hash, memory, time, uint8(threads32), true
}
