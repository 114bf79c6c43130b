package api

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// AuthError is a 401: bad credentials or an expired/revoked token.
type AuthError struct {
	Detail string
}

func (e *AuthError) Error() string { return "unauthorized: " + e.Detail }

// ForbiddenError is a 403, e.g. an inactive subscription or a non-admin token.
type ForbiddenError struct {
	Detail string
}

func (e *ForbiddenError) Error() string { return "forbidden: " + e.Detail }

// NotFoundError is a 404; the entity was deleted or never existed.
type NotFoundError struct {
	Detail string
}

func (e *NotFoundError) Error() string { return "not found: " + e.Detail }

// ConflictError is a 409, most often an item another collector already took.
type ConflictError struct {
	Detail string
}

func (e *ConflictError) Error() string { return "conflict: " + e.Detail }

// ValidationError is a 400/422 or a check that failed before any request
// was sent. Fields maps a field name to its problem.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation: " + e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return fmt.Sprintf("validation: %s (%s)", e.Message, strings.Join(parts, "; "))
}

// Invalid builds a single-field ValidationError.
func Invalid(field, msg string) *ValidationError {
	return &ValidationError{Message: msg, Fields: map[string]string{field: msg}}
}

// ServerError is any 5xx, or a status the client does not map.
type ServerError struct {
	Status int
	Detail string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Status, e.Detail)
}

// NetworkError wraps transport failures: DNS, refused connections,
// timeouts, undecodable bodies.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *NetworkError) Unwrap() error { return e.Err }

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}

// IsUnauthorized reports whether err is an AuthError.
func IsUnauthorized(err error) bool {
	var a *AuthError
	return errors.As(err, &a)
}

// Retryable reports whether err is transient (network or 5xx). Nothing in
// this package retries; callers decide.
func Retryable(err error) bool {
	var n *NetworkError
	var s *ServerError
	return errors.As(err, &n) || errors.As(err, &s)
}
