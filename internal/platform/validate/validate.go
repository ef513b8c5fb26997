// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package validate provides a chainable Validator that collects field-level
// errors before returning a single [apperr.AppError].
//
// # Architecture
//
// Handlers run it against decoded request payloads so that services only
// operate on semantically valid data. Each field reports at most one problem:
// once a rule fails for a field, later rules for that field are skipped.
package validate

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/taibuivan/klyptik/internal/platform/apperr"
)

var (
	// ErrInvalidJSON is returned when the request body cannot be decoded.
	ErrInvalidJSON = apperr.ValidationError("Invalid JSON payload")
)

// Validator collects field-level validation errors via a fluent, chainable API.
//
// # Concurrency
//
// Validator is not safe for concurrent use. A new instance must be created
// for every request/operation.
type Validator struct {
	errs []apperr.FieldError
}

// Required fails if the trimmed value is empty.
func (v *Validator) Required(field, value string) *Validator {
	return v.check(field, strings.TrimSpace(value) == "", "This field is required")
}

// MaxLen fails if the Unicode character count exceeds max.
func (v *Validator) MaxLen(field, value string, max int) *Validator {
	return v.check(field, utf8.RuneCountInString(value) > max, fmt.Sprintf("Maximum %d characters", max))
}

// MaxBytes fails if the UTF-8 encoding of value is longer than max bytes.
// Use it where a downstream primitive limits bytes rather than characters.
func (v *Validator) MaxBytes(field, value string, max int) *Validator {
	return v.check(field, len(value) > max, fmt.Sprintf("Maximum %d bytes", max))
}

// Email fails if the value is not a bare RFC 5322 address (no display name).
func (v *Validator) Email(field, value string) *Validator {
	address, err := mail.ParseAddress(value)
	return v.check(field, err != nil || address.Address != value, "Must be a valid email address")
}

// URL fails if the value is not an absolute http(s) URL.
func (v *Validator) URL(field, value string) *Validator {
	parsed, err := url.ParseRequestURI(value)
	invalid := err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == ""
	return v.check(field, invalid, "Must be a valid http(s) URL")
}

// Match fails if the value does not satisfy pattern.
func (v *Validator) Match(field, value string, pattern *regexp.Regexp, message string) *Validator {
	return v.check(field, !pattern.MatchString(value), message)
}

// Err returns a [apperr.AppError] (VALIDATION_ERROR) if any rules failed,
// or nil if all rules passed.
//
// This is the only output method. Call it at the end of the chain.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return apperr.ValidationError("Validation failed", v.errs...)
}

// check records message for field when failed, unless field already failed.
func (v *Validator) check(field string, failed bool, message string) *Validator {
	if !failed {
		return v
	}
	for _, existing := range v.errs {
		if existing.Field == field {
			return v
		}
	}
	v.errs = append(v.errs, apperr.FieldError{Field: field, Message: message})
	return v
}
