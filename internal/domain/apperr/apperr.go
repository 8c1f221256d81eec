package apperr

import (
	"errors"
	"fmt"
)

// Kind is the machine-checkable class of a failure. The HTTP facade maps
// each kind to exactly one status code.
type Kind string

const (
	KindNotFound       Kind = "not_found"
	KindStateViolation Kind = "state_violation"
	KindDuplicateKey   Kind = "duplicate_key"
	KindValidation     Kind = "validation"
	KindInternal       Kind = "internal"
)

// Error is a tagged failure. Sentinels are declared once per domain package
// and compared with errors.Is; callers add context with fmt.Errorf("%w").
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func New(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinels by code so a Wrap-ed copy still satisfies errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Kind == t.Kind
}

// Wrap returns a copy of sentinel carrying cause.
func Wrap(sentinel *Error, cause error) *Error {
	cp := *sentinel
	cp.Err = cause
	return &cp
}

// KindOf resolves the kind of err; untagged errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf resolves the code of err, "INTERNAL" when untagged.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "INTERNAL"
}

// MessageOf returns the human-readable message of the outermost tagged error.
// Internal failures never leak driver text.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// Repository-level sentinels. Adapters translate driver errors into these so
// the use cases never see a driver type.
var (
	ErrRecordNotFound = New(KindNotFound, "RECORD_NOT_FOUND", "record not found")
	ErrDuplicateKey   = New(KindDuplicateKey, "DUPLICATE_KEY", "a record with this unique field already exists")
)
