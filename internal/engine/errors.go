package engine

import (
	"errors"
	"fmt"
)

// Kind is the error taxonomy from section 7: every engine-level failure is
// exactly one of these.
type Kind string

const (
	KindValidation Kind = "validation"
	KindStorage    Kind = "storage"
	KindNotReady   Kind = "not_ready"
	KindTimeout    Kind = "timeout"
	KindInternal   Kind = "internal"
)

// Error is the engine's single error type, carrying the taxonomy kind the
// HTTP layer maps to a status code (section 7: 400/503/504) and an
// underlying cause for logs.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func validationErr(err error) *Error { return &Error{Kind: KindValidation, Err: err} }
func storageErr(err error) *Error    { return &Error{Kind: KindStorage, Err: err} }
func notReadyErr() *Error            { return &Error{Kind: KindNotReady, Err: errors.New("engine not ready")} }
func timeoutErr(err error) *Error    { return &Error{Kind: KindTimeout, Err: err} }
func internalErr(err error) *Error   { return &Error{Kind: KindInternal, Err: err} }

// IsKind reports whether err wraps an *Error of the given kind, so callers
// can check against a kind rather than a specific instance.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
