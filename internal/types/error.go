package types

import (
	"errors"
	"fmt"
)

// ErrorKind partitions RPC failures by how the pipeline must react.
type ErrorKind string

const (
	// KindTransient covers timeouts, refused connections and 5xx responses.
	// The client retries these itself; if they persist the affected block is
	// deferred and its batch is not confirmed.
	KindTransient ErrorKind = "transient"
	// KindFatal covers malformed or unexpected response shapes. The block is
	// skipped and logged, the pipeline continues.
	KindFatal ErrorKind = "fatal"
)

// Error is a structured RPC failure carrying the taxonomy kind.
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s rpc error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewTransientError(err error) *Error {
	return &Error{Kind: KindTransient, Err: err}
}

func NewFatalError(err error) *Error {
	return &Error{Kind: KindFatal, Err: err}
}

// IsTransient reports whether err is (or wraps) a transient RPC error.
// Unclassified errors count as transient so that an unexpected failure mode
// defers the block instead of silently dropping it.
func IsTransient(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == KindTransient
	}
	return true
}

// IsFatal reports whether err is (or wraps) a fatal RPC error.
func IsFatal(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == KindFatal
	}
	return false
}
