package service

import (
	"errors"
	"fmt"
)

// ErrNoDataToday means the relative-window probe found no events for the
// current day. Callers render affected metrics as placeholders.
var ErrNoDataToday = errors.New("no events recorded today")

// ErrNotAuthenticated gates every render cycle.
var ErrNotAuthenticated = errors.New("session is not authenticated")

// ErrSessionNotFound means the session ID has no live entry.
var ErrSessionNotFound = errors.New("session not found")

// AuthInitError means the identity provider was unreachable or returned a
// malformed prepare response. Fatal to the current render, never retried.
type AuthInitError struct {
	Reason string
	Err    error
}

func (e *AuthInitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth init failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("auth init failed: %s", e.Reason)
}

func (e *AuthInitError) Unwrap() error { return e.Err }

// AuthExchangeError means the code exchange yielded no token pair; the
// session stays unauthenticated.
type AuthExchangeError struct {
	Reason string
	Err    error
}

func (e *AuthExchangeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth exchange failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("auth exchange failed: %s", e.Reason)
}

func (e *AuthExchangeError) Unwrap() error { return e.Err }

// RefreshError is always fatal to the session: the caller has already been
// logged out by the time it sees one.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token refresh failed: %v", e.Err)
	}
	return "token refresh failed"
}

func (e *RefreshError) Unwrap() error { return e.Err }

// QueryError is a transport or engine-side failure on one metric query.
// It never aborts the rest of the render cycle.
type QueryError struct {
	Metric string
	Err    error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query %s failed: %v", e.Metric, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// MalformedResultError is a shape mismatch in an engine response; treated
// like a query failure.
type MalformedResultError struct {
	Metric string
	Reason string
}

func (e *MalformedResultError) Error() string {
	return fmt.Sprintf("malformed result for %s: %s", e.Metric, e.Reason)
}
