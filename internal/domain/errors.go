package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an operation failure. Every error that crosses a
// service boundary carries exactly one kind; handlers translate kinds into
// HTTP statuses.
type ErrorKind string

const (
	// KindNotFound means a lookup matched no row, or a privileged mutation
	// matched no row owned by the caller.
	KindNotFound ErrorKind = "not_found"

	// KindUnauthorized means the caller carries no identity.
	KindUnauthorized ErrorKind = "unauthorized"

	// KindForbidden means the caller's identity lacks the required privilege.
	KindForbidden ErrorKind = "forbidden"

	// KindConflict means a unique constraint was violated.
	KindConflict ErrorKind = "conflict"

	// KindValidation means the input failed shape or range constraints.
	KindValidation ErrorKind = "validation"

	// KindEmbeddingUnavailable means the embedding oracle failed or returned
	// a malformed vector. The enclosing operation must abort; a garbage
	// vector is never persisted or ranked against.
	KindEmbeddingUnavailable ErrorKind = "embedding_unavailable"

	// KindStoreFailure is any other persistence-layer failure.
	KindStoreFailure ErrorKind = "store_failure"
)

// Error is a kinded error. It wraps an optional cause.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// E builds a kinded error.
// Parameters:
//   - kind: error classification.
//   - message: caller-facing description.
// Returns:
//   - error: kinded error value.
func E(kind ErrorKind, message string) error {
	return &Error{Kind: kind, Message: message}
}

// Ef builds a kinded error with a formatted message.
func Ef(kind ErrorKind, format string, args ...interface{}) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds a kinded error around a cause. A nil cause yields nil.
func Wrap(kind ErrorKind, message string, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, cause: cause}
}

// KindOf extracts the kind of an error, walking the wrap chain.
// Errors without a kind are classified as store failures.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStoreFailure
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
