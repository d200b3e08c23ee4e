package apperr

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

type Kind string

const (
	KindAuth           Kind = "AUTH"
	KindConflict       Kind = "CONFLICT"
	KindNotFound       Kind = "NOT_FOUND"
	KindInvalidInput   Kind = "INVALID_INPUT"
	KindForbidden      Kind = "FORBIDDEN"
	KindInternal       Kind = "INTERNAL"
	KindPartialFailure Kind = "PARTIAL_FAILURE"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
	Stack   []byte
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) StackTrace() []byte {
	return e.Stack
}

func New(kind Kind, message string, err error) *Error {
	var stack []byte
	if err != nil {
		if stackErr, ok := err.(*goerrors.Error); ok {
			stack = stackErr.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.New(message).Stack()
	}

	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
		Stack:   stack,
	}
}

func Auth(message string, err error) *Error {
	return New(KindAuth, message, err)
}

func Conflict(message string, err error) *Error {
	return New(KindConflict, message, err)
}

func NotFound(message string, err error) *Error {
	return New(KindNotFound, message, err)
}

func InvalidInput(message string, err error) *Error {
	return New(KindInvalidInput, message, err)
}

func Forbidden(message string, err error) *Error {
	return New(KindForbidden, message, err)
}

func Internal(message string, err error) *Error {
	return New(KindInternal, message, err)
}

func PartialFailure(message string, err error) *Error {
	return New(KindPartialFailure, message, err)
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// MessageOf returns the user-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Internal server error"
}
