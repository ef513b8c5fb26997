// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/klyptik/internal/api"
	"github.com/taibuivan/klyptik/internal/platform/config"
	"github.com/taibuivan/klyptik/internal/quiz"
	"github.com/taibuivan/klyptik/internal/users/auth"
	"github.com/taibuivan/klyptik/internal/users/identity"
)

type rejectAll struct{}

func (rejectAll) VerifyToken(context.Context, string) (string, error) {
	return "", identity.ErrTokenInvalid
}

func newRouter(checks []api.HealthCheck) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	liveness, readiness := api.NewHealthHandlers(checks, logger)

	server := api.NewServer(&config.Config{ServerPort: "0", Environment: "test"}, logger, rejectAll{}, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      auth.NewHandler(auth.NewService(nil, nil)),
		Quiz:      quiz.NewHandler(nil),
	})
	return server.Handler()
}

func get(router http.Handler, method, path, token string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, path, strings.NewReader(`{}`))
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

/*
TestServer_Routing checks probes are public and everything else is guarded.
*/
func TestServer_Routing(t *testing.T) {
	router := newRouter(nil)

	assert.Equal(t, http.StatusOK, get(router, http.MethodGet, "/health", "").Code)
	assert.NotEmpty(t, get(router, http.MethodGet, "/health", "").Header().Get("X-Request-ID"))

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		code   string
	}{
		{"ask_without_token", http.MethodPost, "/api/ask", "", "MISSING_TOKEN"},
		{"ask_with_bad_token", http.MethodPost, "/api/ask", "forged", "UNAUTHORIZED"},
		{"me_without_token", http.MethodGet, "/auth/me", "", "MISSING_TOKEN"},
		{"update_me_with_bad_token", http.MethodPut, "/auth/me", "forged", "UNAUTHORIZED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := get(router, tt.method, tt.path, tt.token)
			assert.Equal(t, http.StatusUnauthorized, recorder.Code)
			assert.Contains(t, recorder.Body.String(), tt.code)
		})
	}
}

/*
TestServer_Fallbacks checks that unknown paths and verbs use the JSON envelope.
*/
func TestServer_Fallbacks(t *testing.T) {
	router := newRouter(nil)

	notFound := get(router, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, notFound.Code)
	assert.Contains(t, notFound.Body.String(), `"code":"NOT_FOUND"`)

	wrongVerb := get(router, http.MethodDelete, "/health", "")
	assert.Equal(t, http.StatusMethodNotAllowed, wrongVerb.Code)
	assert.Contains(t, wrongVerb.Body.String(), `"code":"METHOD_NOT_ALLOWED"`)

	guarded := get(router, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusUnauthorized, guarded.Code)
}

/*
TestReadiness reports degraded when any dependency probe fails.
*/
func TestReadiness(t *testing.T) {
	healthy := api.HealthCheck{Name: "postgres", Check: func(context.Context) error { return nil }}
	broken := api.HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("dial tcp: refused") }}

	ready := get(newRouter([]api.HealthCheck{healthy}), http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, ready.Code)
	assert.Contains(t, ready.Body.String(), `"status":"ready"`)

	degraded := get(newRouter([]api.HealthCheck{healthy, broken}), http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, degraded.Code)
	assert.Contains(t, degraded.Body.String(), `"status":"degraded"`)
	assert.NotContains(t, degraded.Body.String(), "refused")
}
