package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the stable machine-readable error class surfaced to API clients.
type Kind string

const (
	KindValidation          Kind = "VALIDATION_ERROR"
	KindForbidden           Kind = "FORBIDDEN"
	KindNotFound            Kind = "NOT_FOUND"
	KindInvalidTransition   Kind = "INVALID_TRANSITION"
	KindExamNotActive       Kind = "EXAM_NOT_ACTIVE"
	KindAttemptNotActive    Kind = "ATTEMPT_NOT_ACTIVE"
	KindMaxAttemptsExceeded Kind = "MAX_ATTEMPTS_EXCEEDED"
	KindAlreadySubmitted    Kind = "ALREADY_SUBMITTED"
	KindInternal            Kind = "INTERNAL"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func Validation(format string, args ...interface{}) *Error {
	return New(KindValidation, format, args...)
}

func Forbidden(format string, args ...interface{}) *Error {
	return New(KindForbidden, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

// InvalidTransition reports a state-machine precondition failure carrying the
// current and attempted states.
func InvalidTransition(current, attempted string) *Error {
	return New(KindInvalidTransition, "cannot move from %s to %s", current, attempted)
}

func ExamNotActive(format string, args ...interface{}) *Error {
	return New(KindExamNotActive, format, args...)
}

func AttemptNotActive(format string, args ...interface{}) *Error {
	return New(KindAttemptNotActive, format, args...)
}

func MaxAttemptsExceeded(format string, args ...interface{}) *Error {
	return New(KindMaxAttemptsExceeded, format, args...)
}

func AlreadySubmitted(format string, args ...interface{}) *Error {
	return New(KindAlreadySubmitted, format, args...)
}

// KindOf extracts the Kind from any error in the chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps an error kind to the status code used by all controllers.
// Timing and state conflicts share 409 per the API contract.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidTransition, KindExamNotActive, KindAttemptNotActive,
		KindMaxAttemptsExceeded, KindAlreadySubmitted:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
