package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an expected failure so the HTTP layer can pick a status.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindForbidden    Kind = "forbidden"
	KindState        Kind = "state"
	KindInsufficient Kind = "insufficient"
	KindConflict     Kind = "conflict"
	KindUnauthorized Kind = "unauthorized"
	KindInternal     Kind = "internal"
)

// Error is a tagged domain failure. Data carries a structured payload
// (e.g. a shortfall) that is safe to return to the client.
type Error struct {
	Kind    Kind
	Message string
	Data    map[string]interface{}
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) *Error {
	return newError(KindValidation, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return newError(KindNotFound, format, args...)
}

func Forbidden(format string, args ...interface{}) *Error {
	return newError(KindForbidden, format, args...)
}

func State(format string, args ...interface{}) *Error {
	return newError(KindState, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return newError(KindConflict, format, args...)
}

func Unauthorized(format string, args ...interface{}) *Error {
	return newError(KindUnauthorized, format, args...)
}

// Insufficient reports a balance shortfall.
func Insufficient(message string, required, available int64) *Error {
	shortfall := required - available
	if shortfall < 0 {
		shortfall = 0
	}
	return &Error{
		Kind:    KindInsufficient,
		Message: message,
		Data: map[string]interface{}{
			"required":  required,
			"available": available,
			"shortfall": shortfall,
		},
	}
}

// KindOf returns the Kind of err, or KindInternal for untagged errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
