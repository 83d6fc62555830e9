/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Package cortexerr defines the error taxonomy of spec §7 as typed,
// wrappable errors so callers can classify a failure with errors.As instead
// of string matching, the same role apimachinery's errors.IsNotFound plays
// in the teacher.
package cortexerr

import "fmt"

// Kind is one of the taxonomy buckets from spec §7.
type Kind string

const (
	Validation   Kind = "ValidationError"
	Authorization Kind = "AuthorizationError"
	Capacity     Kind = "CapacityError"
	Timeout      Kind = "TimeoutError"
	Integrity    Kind = "IntegrityError"
	Storage      Kind = "StorageError"
	Fatal        Kind = "FatalError"
)

// Error carries a Kind alongside the wrapped cause.
type Error struct {
	Kind Kind
	Op   string
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s (%s)", e.Op, e.Kind, e.Code)
	}
	return fmt.Sprintf("%s: %s (%s): %v", e.Op, e.Kind, e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a classified error.
func New(kind Kind, op, code string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Code: code, Err: cause}
}

// Is reports whether err is a cortexerr.Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if as(err, &e) {
		return e.Kind == kind
	}
	return false
}

// as walks err's Unwrap chain and reports the first *Error found, storing
// it in target.
func as(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// Retryable reports whether the error's kind is one the scheduler's retry
// policy may act on (CapacityError, TimeoutError). Validation, Authorization,
// Integrity, Storage and Fatal are never retried automatically (spec §7).
func Retryable(err error) bool {
	var e *Error
	if as(err, &e) {
		return e.Kind == Capacity || e.Kind == Timeout
	}
	return false
}
