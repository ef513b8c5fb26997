// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package pointer provides small generic helpers for optional values.

Partial updates model "field not sent" as a nil pointer, so handlers and
stores lean on these to read and build them without boilerplate.
*/
package pointer

// To returns a pointer to the provided value.
func To[T any](v T) *T {
	return &v
}

// Val dereferences p, returning the zero value if p is nil.
func Val[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// Fallback dereferences p, returning fallback if p is nil.
func Fallback[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}

// Map applies fn to the pointed-to value, keeping nil as nil.
func Map[T, U any](p *T, fn func(T) U) *U {
	if p == nil {
		return nil
	}
	result := fn(*p)
	return &result
}
