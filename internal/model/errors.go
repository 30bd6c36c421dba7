// Package model defines the canonical data types shared across beefcake's
// packages: the lazy/materialised dataframe value types, the column
// statistics and summary envelope produced by the profiler, the cleaning
// and pipeline step algebra, the dataset lifecycle types, and the error
// category used throughout the engine.
package model

import (
	"errors"
	"fmt"
)

// ErrorCategory is the closed set of error kinds the engine ever returns.
// Callers switch on category rather than parsing messages.
type ErrorCategory string

const (
	ErrIo                ErrorCategory = "io"
	ErrParse             ErrorCategory = "parse"
	ErrSchema            ErrorCategory = "schema"
	ErrValidation        ErrorCategory = "validation"
	ErrCast              ErrorCategory = "cast"
	ErrArithmetic        ErrorCategory = "arithmetic"
	ErrDatabaseTransport ErrorCategory = "database_transport"
	ErrReceipt           ErrorCategory = "receipt"
	ErrAborted           ErrorCategory = "aborted"
	ErrInternal          ErrorCategory = "internal"
)

// Error is a categorised error carrying the operation context in which it
// occurred. Wrap any lower-level error with Context to attach a category
// and a human-readable action description.
type Error struct {
	Category ErrorCategory
	Op       string // the action being attempted, e.g. "loading CSV header"
	Err      error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Category, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Category, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Context wraps err with a category and the action being attempted.
// Passing a nil err returns nil, so Context can wrap the result of a
// function call inline: `return model.Context(model.ErrIo, "opening file", err)`.
func Context(cat ErrorCategory, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Category: cat, Op: op, Err: err}
}

// CategoryOf extracts the ErrorCategory from err, walking the unwrap chain.
// Returns ErrInternal if err does not carry a category.
func CategoryOf(err error) ErrorCategory {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return ErrInternal
}

// Aborted is the sentinel error returned when the process-wide abort flag
// is observed set at a checkpoint.
var Aborted = &Error{Category: ErrAborted, Op: "checkpoint", Err: errors.New("operation aborted")}
