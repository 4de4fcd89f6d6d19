// Package validate collects per-field form errors.
package validate

import (
	"regexp"
	"sort"
	"strings"
)

// emailPattern mirrors the common address shape: local@domain.tld.
var emailPattern = regexp.MustCompile(`^[A-Za-z0-9+._%\-]{1,256}@[A-Za-z0-9][A-Za-z0-9\-]{0,64}(\.[A-Za-z0-9][A-Za-z0-9\-]{0,25})+$`)

var tenDigits = regexp.MustCompile(`^\d{10}$`)

// Error holds one message per invalid field.
type Error struct {
	Fields map[string]string `json:"fields"`
}

// Add records msg for field unless the field already has a message.
func (e *Error) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// Check records msg for field when ok is false.
func (e *Error) Check(ok bool, field, msg string) {
	if !ok {
		e.Add(field, msg)
	}
}

func (e *Error) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Err returns e as an error, or nil when no field failed.
func (e *Error) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Email reports whether s looks like an email address.
func Email(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// Blank reports whether s is empty or only whitespace.
func Blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// MobileNumber reports whether s is exactly ten digits.
func MobileNumber(s string) bool {
	return tenDigits.MatchString(s)
}
