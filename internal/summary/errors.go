package summary

import (
	"errors"
	"fmt"
)

// Error represents a summarization failure.
//
// Errors are fatal: no partial summary is returned alongside one.
// Numerically degenerate results (zero variance, zero mean) are never errors.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Kind is the Go type of the offending input, when relevant.
	Kind string

	// Err is the underlying cause (optional).
	Err error
}

// ErrorCode categorizes summarization errors.
type ErrorCode string

const (
	// ErrCodeUnsupportedInputKind indicates the input is neither an NPAG nor an IT2B result.
	ErrCodeUnsupportedInputKind ErrorCode = "UNSUPPORTED_INPUT_KIND"

	// ErrCodeInvalidInput indicates a recognised result whose shape is inconsistent.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Kind != "" {
		msg += fmt.Sprintf(" (kind=%s)", e.Kind)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsUnsupportedInputKind returns true if err is an unsupported input kind error.
// Uses errors.As to handle wrapped errors.
func IsUnsupportedInputKind(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == ErrCodeUnsupportedInputKind
	}
	return false
}

// IsInvalidInput returns true if err reports an inconsistent result shape.
func IsInvalidInput(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == ErrCodeInvalidInput
	}
	return false
}

// Code returns the code of a summarization error, or "" when err is not one.
func Code(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return string(se.Code)
	}
	return ""
}

// NewUnsupportedInputKindError creates an Error for an unrecognised input.
func NewUnsupportedInputKindError(v any) *Error {
	return &Error{
		Code:    ErrCodeUnsupportedInputKind,
		Message: "input is neither an NPAG nor an IT2B result",
		Kind:    fmt.Sprintf("%T", v),
	}
}

// NewInvalidInputError wraps a shape validation failure.
func NewInvalidInputError(method string, cause error) *Error {
	return &Error{
		Code:    ErrCodeInvalidInput,
		Message: "inconsistent " + method + " result",
		Err:     cause,
	}
}
