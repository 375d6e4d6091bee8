// Package errorx defines the error tiers used across the benchmark engine.
//
// Validation errors reject malformed input, not-found errors report missing
// reference data, and integrity errors report reference rows that violate
// their own invariants (e.g. a tariff rate with neither price set).
package errorx

import (
	"errors"
	"fmt"
)

// ValidationError is returned for malformed shipment input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// NotFoundError is returned when required reference data does not exist.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found (%s)", e.Entity, e.Key)
}

// IntegrityError is returned when a reference row is internally inconsistent.
type IntegrityError struct {
	Entity  string
	Message string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s integrity: %s", e.Entity, e.Message)
}

func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func NotFound(entity, format string, args ...any) error {
	return &NotFoundError{Entity: entity, Key: fmt.Sprintf(format, args...)}
}

func Integrity(entity, format string, args ...any) error {
	return &IntegrityError{Entity: entity, Message: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsNotFound(err error) bool {
	var n *NotFoundError
	return errors.As(err, &n)
}

func IsIntegrity(err error) bool {
	var i *IntegrityError
	return errors.As(err, &i)
}
