package analysis

import (
	"errors"
	"fmt"
)

// Kind classifies an analysis failure. Configuration and authentication
// failures are fatal before any batch work starts; the remaining kinds
// isolate to a single request's Result.
type Kind string

const (
	KindConfiguration  Kind = "configuration"
	KindAuthentication Kind = "authentication"
	KindValidation     Kind = "validation"
	KindNetwork        Kind = "network"
	KindProvider       Kind = "provider"
	KindTimeout        Kind = "timeout"
	KindCache          Kind = "cache"
	KindCanceled       Kind = "canceled"
)

// Error is the typed failure carried through the engine.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError creates a typed error with no underlying cause.
func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// WrapError creates a typed error wrapping an underlying cause.
func WrapError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the Kind of err if it is (or wraps) a typed *Error,
// otherwise the empty string.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given failure kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
