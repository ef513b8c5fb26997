// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package apperr_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/klyptik/internal/platform/apperr"
)

/*
TestConstructors pins the status and code of every error kind.
*/
func TestConstructors(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name   string
		err    *apperr.AppError
		status int
		code   string
	}{
		{"not_found", apperr.NotFound("Account"), http.StatusNotFound, "NOT_FOUND"},
		{"unauthorized", apperr.Unauthorized("Invalid credentials"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{"missing_token", apperr.MissingToken(), http.StatusUnauthorized, "MISSING_TOKEN"},
		{"method_not_allowed", apperr.MethodNotAllowed(), http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
		{"conflict", apperr.Conflict("Email already in use"), http.StatusConflict, "CONFLICT"},
		{"validation", apperr.ValidationError("Validation failed"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"internal", apperr.Internal(cause), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"bad_gateway", apperr.BadGateway("Model failed", cause), http.StatusBadGateway, "BAD_GATEWAY"},
		{"unavailable", apperr.ServiceUnavailable("Try later"), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, tt.err.HTTPStatus)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.NotEmpty(t, tt.err.Error())
		})
	}

	assert.Equal(t, "Account not found", apperr.NotFound("Account").Message)
	assert.NotContains(t, apperr.Internal(cause).Error(), "boom")
}

/*
TestWithCause checks that the cause is attached to a copy and stays reachable
through errors.Is.
*/
func TestWithCause(t *testing.T) {
	cause := errors.New("redis down")
	base := apperr.ServiceUnavailable("Try later")

	wrapped := base.WithCause(cause)

	assert.Nil(t, base.Cause)
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, base.Message, wrapped.Message)
}

/*
TestAs finds an AppError through fmt wrapping and reports nil otherwise.
*/
func TestAs(t *testing.T) {
	inner := apperr.Conflict("Username already taken")

	found := apperr.As(fmt.Errorf("register: %w", inner))
	require.NotNil(t, found)
	assert.Equal(t, "CONFLICT", found.Code)

	assert.Nil(t, apperr.As(errors.New("plain")))
}
