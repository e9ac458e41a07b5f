// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/gatehouse/gatehouse/internal/auth"
	authpg "github.com/gatehouse/gatehouse/internal/auth/postgres"
	"github.com/gatehouse/gatehouse/internal/httpapi"
	"github.com/gatehouse/gatehouse/internal/store"
	"github.com/gatehouse/gatehouse/internal/token"
)

const testTokenSecret = "integration-secret-0123456789abcdef"

// testEnv holds all the resources needed for the auth flow tests.
type testEnv struct {
	ctx       context.Context
	cancel    context.CancelFunc
	container testcontainers.Container
	pool      *pgxpool.Pool
	issuer    *token.JWTIssuer
	server    *httpapi.Server
	baseURL   string
}

// setupTestEnv starts PostgreSQL, migrates it, and serves the auth API.
func setupTestEnv() (*testEnv, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)

	env := &testEnv{
		ctx:    ctx,
		cancel: cancel,
	}

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("gatehouse_test"),
		postgres.WithUsername("gatehouse"),
		postgres.WithPassword("gatehouse"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		cancel()
		return nil, err
	}
	env.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		env.cleanup()
		return nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		env.cleanup()
		return nil, err
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		env.cleanup()
		return nil, err
	}
	_ = migrator.Close()

	env.pool, err = store.Connect(ctx, connStr)
	if err != nil {
		env.cleanup()
		return nil, err
	}

	env.issuer, err = token.NewJWTIssuer([]byte(testTokenSecret), "gatehouse-test", time.Hour)
	if err != nil {
		env.cleanup()
		return nil, err
	}

	repo := authpg.NewAccountRepository(env.pool)
	svc, err := auth.NewService(repo, auth.NewArgon2idHasher(), env.issuer)
	if err != nil {
		env.cleanup()
		return nil, err
	}

	env.server, err = httpapi.NewServer("127.0.0.1:0", svc, nil, nil)
	if err != nil {
		env.cleanup()
		return nil, err
	}
	if _, err := env.server.Start(); err != nil {
		env.cleanup()
		return nil, err
	}
	env.baseURL = "http://" + env.server.Addr()

	return env, nil
}

// cleanup releases all test resources.
func (env *testEnv) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if env.server != nil {
		_ = env.server.Stop(ctx)
	}
	if env.pool != nil {
		env.pool.Close()
	}
	if env.container != nil {
		_ = env.container.Terminate(ctx)
	}
	env.cancel()
}

type authResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Detail      string `json:"detail"`
}

func postCredentials(baseURL, path, email, password string) (int, authResponse, error) {
	body, err := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return 0, authResponse{}, err
	}

	resp, err := http.Post(baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, authResponse{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, authResponse{}, err
	}

	var parsed authResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return resp.StatusCode, authResponse{}, fmt.Errorf("bad response body %q: %w", raw, err)
	}
	return resp.StatusCode, parsed, nil
}

var _ = Describe("Auth flow", Ordered, func() {
	var env *testEnv

	BeforeAll(func() {
		var err error
		env, err = setupTestEnv()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if env != nil {
			env.cleanup()
		}
	})

	Describe("registration", func() {
		It("registers a new account and returns a bearer token", func() {
			status, resp, err := postCredentials(env.baseURL, "/auth/register", "alice@example.com", "opensesame")
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusCreated))
			Expect(resp.TokenType).To(Equal("bearer"))
			Expect(resp.AccessToken).NotTo(BeEmpty())

			subject, err := env.issuer.Subject(resp.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(subject).NotTo(BeEmpty())
		})

		It("rejects a duplicate email with 409", func() {
			status, resp, err := postCredentials(env.baseURL, "/auth/register", "alice@example.com", "different")
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusConflict))
			Expect(resp.Detail).To(Equal("email already registered"))
		})

		It("rejects a duplicate under a differently cased email", func() {
			status, _, err := postCredentials(env.baseURL, "/auth/register", "  ALICE@Example.COM ", "whatever")
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusConflict))
		})

		It("rejects malformed email addresses with 400", func() {
			status, _, err := postCredentials(env.baseURL, "/auth/register", "not-an-email", "password")
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("login", func() {
		It("logs in with the registered credentials", func() {
			status, resp, err := postCredentials(env.baseURL, "/auth/login", "alice@example.com", "opensesame")
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusOK))
			Expect(resp.TokenType).To(Equal("bearer"))
			Expect(resp.AccessToken).NotTo(BeEmpty())
		})

		It("accepts a differently cased email for the same account", func() {
			status, _, err := postCredentials(env.baseURL, "/auth/login", "Alice@EXAMPLE.com", "opensesame")
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusOK))
		})

		It("rejects a wrong password with 401", func() {
			status, resp, err := postCredentials(env.baseURL, "/auth/login", "alice@example.com", "wrong-password")
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusUnauthorized))
			Expect(resp.Detail).To(Equal("invalid credentials"))
		})

		It("returns the same response for an unknown email", func() {
			status, resp, err := postCredentials(env.baseURL, "/auth/login", "nobody@example.com", "wrong-password")
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusUnauthorized))
			Expect(resp.Detail).To(Equal("invalid credentials"))
		})

		It("issues distinct tokens for distinct accounts", func() {
			_, _, err := postCredentials(env.baseURL, "/auth/register", "bob@example.com", "hunter2hunter2")
			Expect(err).NotTo(HaveOccurred())

			_, aliceResp, err := postCredentials(env.baseURL, "/auth/login", "alice@example.com", "opensesame")
			Expect(err).NotTo(HaveOccurred())
			_, bobResp, err := postCredentials(env.baseURL, "/auth/login", "bob@example.com", "hunter2hunter2")
			Expect(err).NotTo(HaveOccurred())

			aliceSubject, err := env.issuer.Subject(aliceResp.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			bobSubject, err := env.issuer.Subject(bobResp.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(aliceSubject).NotTo(Equal(bobSubject))
		})
	})
})
