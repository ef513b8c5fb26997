// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts common body decoding and identity extraction patterns, ensuring
consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"

	"github.com/taibuivan/klyptik/internal/platform/apperr"
	"github.com/taibuivan/klyptik/internal/platform/ctxutil"
	"github.com/taibuivan/klyptik/internal/platform/validate"
)

// maxBodyBytes caps JSON payloads; every body in this API is a handful of fields.
const maxBodyBytes = 1 << 20

/*
DecodeJSON reads the request body and decodes it into the target structure.

Unknown fields are rejected so each endpoint only accepts the fields its
payload struct enumerates.

Parameters:
  - request: *http.Request
  - target: any (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, request.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
RequiredAccountID returns the account resolved by the session token guard.

Returns:
  - string: Account identifier
  - error: apperr.Unauthorized if the request is not authenticated
*/
func RequiredAccountID(request *http.Request) (string, error) {

	// Get the guard-injected identity
	accountID := ctxutil.GetAccountID(request.Context())

	// If the request is anonymous, return an error
	if accountID == "" {
		return "", apperr.Unauthorized("Authentication required")
	}

	return accountID, nil
}
