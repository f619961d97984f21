package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindClientInput Kind = "client_input"
	KindProcessing  Kind = "processing"
	KindNotFound    Kind = "not_found"
	KindConfig      Kind = "config"
	KindStorage     Kind = "storage"
	KindTransport   Kind = "transport"
	KindBootstrap   Kind = "bootstrap"
	KindUnknown     Kind = "unknown"
)

type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func Wrap(kind Kind, op, message string, err error) *Error {
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}

	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
		Cause:   err,
	}
}

func New(kind Kind, op, message string) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
	}
}

// IsKind checks whether any error in the chain matches the provided kind.
func IsKind(err error, kind Kind) bool {
	var target *Error
	for err != nil {
		if errors.As(err, &target) {
			return target.Kind == kind
		}
		err = errors.Unwrap(err)
	}
	return false
}

// HTTPStatus maps an error to the response status the transport layer
// should emit. Untyped errors are treated as server-side failures.
func HTTPStatus(err error) int {
	var typed *Error
	if !errors.As(err, &typed) {
		return http.StatusInternalServerError
	}
	switch typed.Kind {
	case KindClientInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Detail returns the cause text for responses that carry a details field,
// or an empty string when there is nothing beneath the message.
func Detail(err error) string {
	var typed *Error
	if errors.As(err, &typed) && typed.Cause != nil {
		return typed.Cause.Error()
	}
	return ""
}
