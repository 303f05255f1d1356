package services

import (
	"errors"

	"github.com/harjot20022001/bug-tracker/internal/store"
)

// Kind classifies service errors. Handlers map each kind to an HTTP status.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindForbidden
	KindNotFound
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not found"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error is returned by services for failures the caller should see. Message
// is safe to show to clients; Err carries the underlying cause, if any.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or KindInternal when err is not an *Error.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

func validationError(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

func authError(message string) error {
	return &Error{Kind: KindAuth, Message: message}
}

func forbiddenError(message string) error {
	return &Error{Kind: KindForbidden, Message: message}
}

func notFoundError(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

// fromStore converts repository sentinels into service errors. notFound is
// the message used for store.ErrNotFound.
func fromStore(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return &Error{Kind: KindNotFound, Message: notFound, Err: err}
	case errors.Is(err, store.ErrDuplicate):
		return &Error{Kind: KindValidation, Message: "Duplicate field value entered", Err: err}
	case errors.Is(err, store.ErrInvalidReference):
		return &Error{Kind: KindValidation, Message: "Referenced record does not exist", Err: err}
	}
	return err
}
