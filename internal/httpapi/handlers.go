// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strconv"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/internal/observability"
	"github.com/gatehouse/gatehouse/pkg/errutil"
)

// maxBodyBytes bounds request bodies; credential payloads are tiny.
const maxBodyBytes = 64 * 1024

// credentialsRequest is the payload for both register and login.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// tokenResponse is the standard bearer-token success payload.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// errorResponse is the error payload shape.
type errorResponse struct {
	Detail string `json:"detail"`
}

type handlers struct {
	svc     AuthService
	metrics *observability.Metrics
	logger  *slog.Logger
}

// register handles POST /auth/register.
func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	creds, ok := h.decodeCredentials(w, r, h.metricRecorder(observability.MetricRegister))
	if !ok {
		return
	}

	token, err := h.svc.Register(r.Context(), creds.Email, creds.Password)
	switch {
	case err == nil:
		h.record(observability.MetricRegister, observability.OutcomeSuccess, "/auth/register", http.StatusCreated)
		writeJSON(w, http.StatusCreated, tokenResponse{AccessToken: token.Token, TokenType: token.TokenType})
	case errors.Is(err, auth.ErrEmailTaken):
		h.record(observability.MetricRegister, observability.OutcomeEmailTaken, "/auth/register", http.StatusConflict)
		writeJSON(w, http.StatusConflict, errorResponse{Detail: "email already registered"})
	default:
		errutil.LogError(h.logger, "registration failed", err)
		h.record(observability.MetricRegister, observability.OutcomeError, "/auth/register", http.StatusInternalServerError)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "internal server error"})
	}
}

// login handles POST /auth/login.
func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	creds, ok := h.decodeCredentials(w, r, h.metricRecorder(observability.MetricLogin))
	if !ok {
		return
	}

	token, err := h.svc.Login(r.Context(), creds.Email, creds.Password)
	switch {
	case err == nil:
		h.record(observability.MetricLogin, observability.OutcomeSuccess, "/auth/login", http.StatusOK)
		writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token.Token, TokenType: token.TokenType})
	case errors.Is(err, auth.ErrInvalidCredentials):
		// Unknown email and wrong password share this one response.
		h.record(observability.MetricLogin, observability.OutcomeInvalidCredentials, "/auth/login", http.StatusUnauthorized)
		writeJSON(w, http.StatusUnauthorized, errorResponse{Detail: "invalid credentials"})
	default:
		errutil.LogError(h.logger, "login failed", err)
		h.record(observability.MetricLogin, observability.OutcomeError, "/auth/login", http.StatusInternalServerError)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "internal server error"})
	}
}

// decodeCredentials parses and validates the request payload. The auth
// core assumes syntactically valid input; this is where that guarantee
// is established. On failure it writes a 400 response and returns false.
func (h *handlers) decodeCredentials(w http.ResponseWriter, r *http.Request, badRequest func(route string)) (credentialsRequest, bool) {
	var creds credentialsRequest

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	reject := func(detail string) (credentialsRequest, bool) {
		badRequest(r.URL.Path)
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: detail})
		return credentialsRequest{}, false
	}

	if err := dec.Decode(&creds); err != nil {
		return reject("malformed request body")
	}
	if _, err := mail.ParseAddress(auth.NormalizeEmail(creds.Email)); err != nil {
		return reject("invalid email address")
	}
	if creds.Password == "" {
		return reject("password is required")
	}

	return creds, true
}

// metricRecorder returns a bad-request recorder for the given flow.
func (h *handlers) metricRecorder(flow string) func(route string) {
	return func(route string) {
		h.record(flow, observability.OutcomeBadRequest, route, http.StatusBadRequest)
	}
}

// record updates the flow and HTTP counters. Safe with nil metrics.
func (h *handlers) record(flow, outcome, route string, status int) {
	if h.metrics == nil {
		return
	}
	switch flow {
	case observability.MetricRegister:
		h.metrics.RegistrationsTotal.WithLabelValues(outcome).Inc()
	case observability.MetricLogin:
		h.metrics.LoginsTotal.WithLabelValues(outcome).Inc()
	}
	h.metrics.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	//nolint:errcheck // response write error is acceptable, client may disconnect
	json.NewEncoder(w).Encode(body)
}
