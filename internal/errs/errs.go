// Package errs defines the error shapes handed back to form handling code.
//
// Validation problems carry per-field messages so a form can show them next
// to the offending input; business-rule refusals carry the exact text to show
// the user.
package errs

import (
	"errors"
	"strings"
)

var (
	// NotFound is returned when a lookup by id or key has no match.
	NotFound = errors.New("not found")

	// PostRequired is returned when a form tries to change a record
	// outside a POST request.
	PostRequired = errors.New("POST required")
)

// FieldError is one problem with one column.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError collects the field problems found on one record.
type ValidationError struct {
	Message string       `json:"message"`
	Fields  []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Error
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

// Add appends a field problem.
func (e *ValidationError) Add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Error: msg})
}

// OrNil returns e when it holds at least one field problem.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func NewValidation(msg string, fields ...FieldError) *ValidationError {
	return &ValidationError{Message: msg, Fields: fields}
}

// RuleError is a refusal whose message is meant for the end user as-is,
// e.g. "All slots for this job have already been filled".
type RuleError struct {
	Message string
}

func (e *RuleError) Error() string { return e.Message }

func Rule(msg string) *RuleError { return &RuleError{Message: msg} }

// IsRule reports whether err is or wraps a *RuleError.
func IsRule(err error) bool {
	var re *RuleError
	return errors.As(err, &re)
}

// Fields extracts field problems from err, if it carries any.
func Fields(err error) []FieldError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}
