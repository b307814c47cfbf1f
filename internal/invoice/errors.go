package invoice

import (
	"errors"
	"fmt"
)

// Fatal extraction errors. Everything else is reported as a Skip.
var (
	// ErrMalformedExpiredID is returned when a token of the expired invoice
	// list is not an integer.
	ErrMalformedExpiredID = errors.New("malformed expired invoice id")

	// ErrUnreadableStore is returned when the invoice store cannot be read.
	ErrUnreadableStore = errors.New("invoice store is unreadable")

	// ErrCorruptStore is returned when the invoice store cannot be decoded
	// into a sequence of invoice records.
	ErrCorruptStore = errors.New("invoice store is corrupt")

	// ErrUnsupportedFormat is returned when no decoder exists for a store.
	ErrUnsupportedFormat = errors.New("unsupported invoice store format")
)

// ExtractionError wraps a fatal error with the operation that produced it.
type ExtractionError struct {
	// Op is the operation that failed (e.g., "LoadExpired", "Load").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string

	// Source is the file the failing input came from, if any.
	Source string
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("invoice: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	if e.Source != "" {
		return fmt.Sprintf("invoice: %s failed (source: %s): %v", e.Op, e.Source, e.Err)
	}
	return fmt.Sprintf("invoice: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *ExtractionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewExtractionError creates a new ExtractionError.
func NewExtractionError(op string, err error, details string) *ExtractionError {
	return &ExtractionError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}

// WrapExtractionError wraps an error as an ExtractionError if it isn't already one.
func WrapExtractionError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var extractionErr *ExtractionError
	if errors.As(err, &extractionErr) {
		return err
	}

	return NewExtractionError(op, err, details)
}

// ParseError reports the offending token of an expired invoice list.
type ParseError struct {
	Token    string
	Position int
	Err      error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("token %d (%q): %v", e.Position, e.Token, e.Err)
}

// Unwrap returns ErrMalformedExpiredID so callers can match the fatal class.
func (e *ParseError) Unwrap() []error {
	return []error{ErrMalformedExpiredID, e.Err}
}
