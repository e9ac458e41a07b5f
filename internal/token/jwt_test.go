// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package token_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/internal/token"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newIssuer(t *testing.T, ttl time.Duration) *token.JWTIssuer {
	t.Helper()
	issuer, err := token.NewJWTIssuer(testSecret, "gatehouse", ttl)
	require.NoError(t, err)
	return issuer
}

func TestNewJWTIssuer_Validation(t *testing.T) {
	t.Run("rejects short secret", func(t *testing.T) {
		_, err := token.NewJWTIssuer([]byte("short"), "gatehouse", time.Hour)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least")
	})

	t.Run("rejects empty issuer name", func(t *testing.T) {
		_, err := token.NewJWTIssuer(testSecret, "", time.Hour)
		require.Error(t, err)
	})

	t.Run("rejects non-positive ttl", func(t *testing.T) {
		_, err := token.NewJWTIssuer(testSecret, "gatehouse", 0)
		require.Error(t, err)
	})
}

func TestJWTIssuer_RoundTrip(t *testing.T) {
	issuer := newIssuer(t, time.Hour)

	signed, err := issuer.Issue("01JXAMPLE0000000000000SUBJ")
	require.NoError(t, err)
	assert.Equal(t, 3, len(strings.Split(signed, ".")), "compact JWS has three segments")

	subject, err := issuer.Subject(signed)
	require.NoError(t, err)
	assert.Equal(t, "01JXAMPLE0000000000000SUBJ", subject)
}

func TestJWTIssuer_Subject_Rejections(t *testing.T) {
	issuer := newIssuer(t, time.Hour)

	t.Run("garbage token", func(t *testing.T) {
		_, err := issuer.Subject("not.a.jwt")
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := token.NewJWTIssuer([]byte("ffffffffffffffffffffffffffffffff"), "gatehouse", time.Hour)
		require.NoError(t, err)
		signed, err := other.Issue("subj")
		require.NoError(t, err)

		_, err = issuer.Subject(signed)
		assert.Error(t, err)
	})

	t.Run("wrong issuer name", func(t *testing.T) {
		other, err := token.NewJWTIssuer(testSecret, "someone-else", time.Hour)
		require.NoError(t, err)
		signed, err := other.Issue("subj")
		require.NoError(t, err)

		_, err = issuer.Subject(signed)
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		shortLived := newIssuer(t, time.Millisecond)
		signed, err := shortLived.Issue("subj")
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)
		_, err = shortLived.Subject(signed)
		assert.Error(t, err)
	})

	t.Run("unsigned token rejected", func(t *testing.T) {
		// alg=none style token: header/payload with empty signature
		_, err := issuer.Subject("eyJhbGciOiJub25lIn0.eyJzdWIiOiJzdWJqIn0.")
		assert.Error(t, err)
	})
}
