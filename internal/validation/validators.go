package validation

import (
	"fmt"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/target/crud-console/internal/errors"
)

// Validator is a function that validates a string value and returns an error message if invalid.
type Validator func(v string) string

// DateLayouts are the timestamp shapes the backend is known to emit. Zone-less
// layouts come first because the API serializes DateTime without an offset.
var DateLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
	"2006-01-02",
}

// Required validates that a field is not empty and does not exceed maxLen characters.
// Uses rune count for proper Unicode support.
func Required(fieldName string, maxLen int) Validator {
	return func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return fieldName + " is required."
		}
		if utf8.RuneCountInString(v) > maxLen {
			return fmt.Sprintf("%s cannot exceed %d characters.", fieldName, maxLen)
		}
		return ""
	}
}

// RequiredRange validates that a field is not empty and is between minLen and maxLen characters.
func RequiredRange(fieldName string, minLen, maxLen int) Validator {
	return func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return fieldName + " is required."
		}
		n := utf8.RuneCountInString(v)
		if n < minLen || n > maxLen {
			return fmt.Sprintf("%s must be between %d and %d characters.", fieldName, minLen, maxLen)
		}
		return ""
	}
}

// Optional validates that an optional field does not exceed maxLen characters if provided.
func Optional(fieldName string, maxLen int) Validator {
	return func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return ""
		}
		if utf8.RuneCountInString(v) > maxLen {
			return fmt.Sprintf("%s cannot exceed %d characters.", fieldName, maxLen)
		}
		return ""
	}
}

// Positive validates that a field is a number strictly greater than zero.
func Positive(fieldName string) Validator {
	return func(v string) string {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fieldName + " must be a number."
		}
		if f <= 0 {
			return fieldName + " must be greater than 0."
		}
		return ""
	}
}

// NonNegative validates that a field is a number greater than or equal to zero.
func NonNegative(fieldName string) Validator {
	return func(v string) string {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fieldName + " must be a number."
		}
		if f < 0 {
			return fieldName + " cannot be negative."
		}
		return ""
	}
}

// Date validates that a field parses with one of DateLayouts. Empty values
// pass; chain Required in front when the field is mandatory.
func Date(fieldName string) Validator {
	return func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return ""
		}
		if _, ok := ParseDate(v); !ok {
			return fieldName + " must be a valid date."
		}
		return ""
	}
}

// ParseDate parses v with the first matching layout in DateLayouts.
func ParseDate(v string) (time.Time, bool) {
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Email validates a single RFC 5322 address without display name.
func Email(fieldName string) Validator {
	return func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return fieldName + " is required."
		}
		addr, err := mail.ParseAddress(v)
		if err != nil || addr.Address != v {
			return fieldName + " must be a valid email address."
		}
		return ""
	}
}

// HTTPSURL validates that a field is a valid HTTP(S) URL and does not exceed maxLen characters.
func HTTPSURL(fieldName string, maxLen int) Validator {
	return func(v string) string {
		v = strings.TrimSpace(v)
		if v == "" {
			return fieldName + " is required."
		}
		if utf8.RuneCountInString(v) > maxLen {
			return fmt.Sprintf("%s cannot exceed %d characters.", fieldName, maxLen)
		}
		p, e := url.Parse(v)
		if e != nil || (p.Scheme != "http" && p.Scheme != "https") || p.Host == "" {
			return "Enter a valid http(s) URL."
		}
		return ""
	}
}

// OneOf validates that a field matches one of the provided options (case-insensitive).
func OneOf(fieldName string, options []string) Validator {
	return func(v string) string {
		v = strings.ToUpper(strings.TrimSpace(v))
		for _, opt := range options {
			if v == strings.ToUpper(opt) {
				return ""
			}
		}
		return fmt.Sprintf("%s must be one of: %s", fieldName, strings.Join(options, ", "))
	}
}

// FieldValidator provides a fluent API for validating multiple fields.
type FieldValidator struct {
	errors map[string]string
}

// New creates a new FieldValidator instance.
func New() *FieldValidator {
	return &FieldValidator{errors: make(map[string]string)}
}

// Validate validates a field with one or more validators.
// It stops at the first error for each field.
func (fv *FieldValidator) Validate(field, value string, validators ...Validator) *FieldValidator {
	for _, v := range validators {
		if err := v(value); err != "" {
			fv.errors[field] = err
			break
		}
	}
	return fv
}

// Check records msg for field when ok is false. It covers rules that are not
// naturally expressed over a string value.
func (fv *FieldValidator) Check(ok bool, field, msg string) *FieldValidator {
	if !ok {
		if _, exists := fv.errors[field]; !exists {
			fv.errors[field] = msg
		}
	}
	return fv
}

// Errors returns the accumulated validation errors.
func (fv *FieldValidator) Errors() map[string]string {
	return fv.errors
}

// Err folds the accumulated messages into a validation AppError, or nil.
func (fv *FieldValidator) Err() error {
	if len(fv.errors) == 0 {
		return nil
	}
	return apperrors.ValidationFields(fv.errors)
}
