// Package errors defines the domain error taxonomy shared by services and handlers.
// Every failure a caller can act on is a *DomainError with a stable Code and a Kind
// that decides how it is reported.
package errors

import (
	stderrors "errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindCompliance
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindCompliance:
		return "compliance"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

type DomainError struct {
	Code    string
	Message string
	Kind    Kind
	Err     error
	Fields  map[string]string // per-field messages for validation failures
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches on Code so a wrapped copy still compares equal to its sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Wrap returns a copy of e carrying err as its cause.
func (e *DomainError) Wrap(err error) *DomainError {
	cp := *e
	cp.Err = err
	return &cp
}

// WithMessage returns a copy of e with a more specific human-readable message.
func (e *DomainError) WithMessage(msg string) *DomainError {
	cp := *e
	cp.Message = msg
	return &cp
}

// KindOf reports the Kind of the first DomainError in err's chain.
func KindOf(err error) Kind {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// As is a shorthand for errors.As into a *DomainError.
func As(err error) (*DomainError, bool) {
	var de *DomainError
	ok := stderrors.As(err, &de)
	return de, ok
}

func Validation(msg string) *DomainError {
	return &DomainError{Code: "VALIDATION_FAILED", Message: msg, Kind: KindValidation}
}

// ValidationFields reports one message per invalid field.
func ValidationFields(fields map[string]string) *DomainError {
	return &DomainError{
		Code:    "VALIDATION_FAILED",
		Message: "some fields are invalid",
		Kind:    KindValidation,
		Fields:  fields,
	}
}

// Unavailable wraps an infrastructure failure as a retryable error.
func Unavailable(err error) *DomainError {
	return ErrUnavailable.Wrap(err)
}
