package services

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPhoneTaken         = errors.New("phone number already registered")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrForbidden          = errors.New("not allowed")

	ErrItemNotFound      = errors.New("item not found")
	ErrItemTaken         = errors.New("item already accepted by another collector")
	ErrInvalidTransition = errors.New("item status does not allow this action")
	ErrNotSeller         = errors.New("only sellers can list items")
	ErrNotCollector      = errors.New("only collectors can do this")
	ErrOutOfRange        = errors.New("item is outside your search radius")

	ErrLocationNotSet       = errors.New("location not set")
	ErrSubscriptionInactive = errors.New("active subscription required")
)

// ValidationError wraps field-level input problems.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + ": " + joinFields(e.Fields)
}

func joinFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fields[k])
	}
	return strings.Join(parts, "; ")
}

// invalid builds a ValidationError from a single field.
func invalid(field, msg string) error {
	return &ValidationError{Message: msg, Fields: map[string]string{field: msg}}
}
