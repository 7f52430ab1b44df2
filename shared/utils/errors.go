package utils

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure so callers can tell a transient transport
// blip apart from a rejected request.
type ErrorKind string

const (
	// KindTransport covers network and downstream-service failures
	KindTransport ErrorKind = "transport"
	// KindMalformed covers unparseable or shape-mismatched payloads
	KindMalformed ErrorKind = "malformed"
	// KindValidation covers rejected user input
	KindValidation ErrorKind = "validation"
	// KindUnauthorized covers missing or insufficient credentials
	KindUnauthorized ErrorKind = "unauthorized"
	// KindConflict covers optimistic-version and uniqueness conflicts
	KindConflict ErrorKind = "conflict"
	// KindNotFound covers lookups of absent entities
	KindNotFound ErrorKind = "not_found"
	// KindInternal covers everything else
	KindInternal ErrorKind = "internal"
)

// DomainError carries an ErrorKind alongside the message so HTTP layers can
// map failures to status codes without string matching.
type DomainError struct {
	Kind    ErrorKind
	Message string
	Err     error
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

// NewError builds a DomainError of the given kind.
func NewError(kind ErrorKind, message string) *DomainError {
	return &DomainError{Kind: kind, Message: message}
}

// WrapError builds a DomainError wrapping an underlying cause.
func WrapError(kind ErrorKind, message string, err error) *DomainError {
	return &DomainError{Kind: kind, Message: message, Err: err}
}

// ValidationError builds a KindValidation error.
func ValidationError(message string) *DomainError {
	return NewError(KindValidation, message)
}

// ConflictError builds a KindConflict error.
func ConflictError(message string) *DomainError {
	return NewError(KindConflict, message)
}

// NotFoundError builds a KindNotFound error.
func NotFoundError(message string) *DomainError {
	return NewError(KindNotFound, message)
}

// KindOf extracts the ErrorKind from an error chain, defaulting to
// KindInternal for untyped errors.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
