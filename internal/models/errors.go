package models

import (
	"regexp"
	"sort"
	"strings"
)

var phonePattern = regexp.MustCompile(`^\d{10,}$`)

// ValidPhone reports whether phone is at least ten digits and nothing else.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// FieldErrors maps a field name to a human-readable problem.
type FieldErrors map[string]string

// Add records msg for field, keeping the first message per field.
func (f FieldErrors) Add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

// Any reports whether at least one field failed.
func (f FieldErrors) Any() bool {
	return len(f) > 0
}

// Error joins the messages in field order.
func (f FieldErrors) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+f[k])
	}
	return strings.Join(parts, "; ")
}
