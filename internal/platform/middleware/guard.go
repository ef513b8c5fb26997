// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taibuivan/klyptik/internal/platform/apperr"
	"github.com/taibuivan/klyptik/internal/platform/constants"
	"github.com/taibuivan/klyptik/internal/platform/ctxutil"
	"github.com/taibuivan/klyptik/internal/platform/respond"
	"github.com/taibuivan/klyptik/internal/users/identity"
)

// # Session Token Guard

// TokenVerifier resolves a session token to the account it is bound to.
// [identity.Provider] satisfies it.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

/*
RequireBearer rejects requests without a valid "Authorization: Bearer <token>"
header and injects the verified account identifier into the context.

Expired and malformed tokens get the same response body; only the server log
records which one it was.
*/
func RequireBearer(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			ctx := request.Context()

			// 1. Extract the credential
			token, ok := bearerToken(request)
			if !ok {
				respond.Error(writer, request, apperr.MissingToken())
				return
			}

			// 2. Ask the provider who it belongs to
			accountID, err := verifier.VerifyToken(ctx, token)
			if err != nil {
				switch {
				case errors.Is(err, identity.ErrTokenExpired):
					rejectToken(writer, request, "expired")
				case errors.Is(err, identity.ErrTokenInvalid):
					rejectToken(writer, request, "invalid")
				default:
					respond.Error(writer, request,
						apperr.ServiceUnavailable("Authentication is temporarily unavailable").WithCause(err))
				}
				return
			}

			// 3. Bind the caller to the request and its logger
			next.ServeHTTP(writer, request.WithContext(ctxutil.Authenticate(ctx, accountID)))
		})
	}
}

func rejectToken(writer http.ResponseWriter, request *http.Request, reason string) {
	ctxutil.GetLogger(request.Context()).WarnContext(request.Context(), "token_rejected",
		slog.String("reason", reason),
	)
	respond.Error(writer, request, apperr.Unauthorized("Authentication failed"))
}

// bearerToken returns the token of a well-formed "Bearer <token>" header.
// The scheme is matched case-insensitively.
func bearerToken(request *http.Request) (string, bool) {
	header := request.Header.Get(constants.HeaderAuthorization)

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, constants.BearerScheme) {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}

	return token, true
}
