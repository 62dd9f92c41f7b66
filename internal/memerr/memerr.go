// Package memerr defines the typed error taxonomy the core reports through.
// Components return these as values (wrapped with fmt.Errorf("...: %w", err)
// the way the teacher's store and embedding packages already do) rather than
// panicking or crossing component boundaries with ad-hoc error strings.
package memerr

import "errors"

// Kind classifies an error the way spec.md §7 enumerates them.
type Kind string

const (
	KindConfig         Kind = "ConfigError"
	KindStoreIntegrity Kind = "StoreError.Integrity"
	KindStoreIO        Kind = "StoreError.IO"
	KindStoreConflict  Kind = "StoreError.Conflict"
	KindStoreNotFound  Kind = "StoreError.NotFound"
	KindEmbedTransient Kind = "EmbedError.Transient"
	KindEmbedFatal     Kind = "EmbedError.Fatal"
	KindEmbedCircuit   Kind = "EmbedError.CircuitOpen"
	KindEmbedDimMismatch Kind = "EmbedError.DimMismatch"
	KindTimeout        Kind = "TimeoutError"
	KindValidation     Kind = "ValidationError"
)

// Error is the typed error value carried across component boundaries.
type Error struct {
	Kind      Kind
	Message   string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given kind.
func New(kind Kind, message string, retryable bool) *Error {
	return &Error{Kind: kind, Message: message, Retryable: retryable}
}

// Wrap builds an Error of the given kind around an underlying cause.
func Wrap(kind Kind, message string, retryable bool, err error) *Error {
	return &Error{Kind: kind, Message: message, Retryable: retryable, Err: err}
}

// NotFound reports whether err is (or wraps) a StoreError.NotFound.
func NotFound(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == KindStoreNotFound
	}
	return false
}

// Retryable reports whether the caller should retry the underlying operation.
func Retryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}
