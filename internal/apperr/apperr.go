// Package apperr defines the error kinds shared by the stores, services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error so the request layer can map it to a status code.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindIO
	KindDownstream
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindIO:
		return "io"
	case KindDownstream:
		return "downstream"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a classified error. Field is set for validation errors.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports a missing or malformed field.
func Validation(field, message string) error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

// NotFound reports an unknown id.
func NotFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message}
}

// IO wraps a persistence failure.
func IO(message string, err error) error {
	return &Error{Kind: KindIO, Message: message, Err: err}
}

// Downstream wraps a failure of an external collaborator.
func Downstream(message string, err error) error {
	return &Error{Kind: KindDownstream, Message: message, Err: err}
}

// Conflict reports a write that lost a race with another writer.
func Conflict(message string) error {
	return &Error{Kind: KindConflict, Message: message}
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// FieldOf returns the offending field of a validation error.
func FieldOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
