// Package apperr defines the error-kind taxonomy the core reports to its
// boundary (§7). Kinds are inspectable via errors.As, not distinct types per
// trigger, matching the teacher's preference for a few sentinel-wrapped
// shapes over a deep exception hierarchy.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies why an operation failed.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindStateConflict     Kind = "state_conflict"
	KindAuthFailed        Kind = "auth_failed"
	KindRateLimited       Kind = "rate_limited"
	KindNetwork           Kind = "network"
	KindProviderError     Kind = "provider_error"
	KindPersistenceFailed Kind = "persistence_failed"
	KindCancelled         Kind = "cancelled"
)

// Error is the concrete error value carried through the core. Field is set
// for validation failures that name a specific input; it is empty otherwise.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Status  int   // provider HTTP status, set only for KindProviderError
	Wrapped error // underlying cause, if any
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Wrapped }

// Is reports whether target is an *Error with the same Kind, so callers can
// write errors.Is(err, apperr.New(apperr.KindNotFound, "")).
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.Kind == e.Kind
	}
	return false
}

// New builds a bare Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind that wraps cause.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, Wrapped: cause}
}

// Validation builds a KindValidation error naming the offending field.
func Validation(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

// Validationf is Validation with a formatted message.
func Validationf(field, format string, args ...any) *Error {
	return Validation(field, fmt.Sprintf(format, args...))
}

// NotFound builds a KindNotFound error for the given entity kind and id.
func NotFound(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %q not found", entity, id)}
}

// StateConflict builds a KindStateConflict error.
func StateConflict(message string) *Error {
	return &Error{Kind: KindStateConflict, Message: message}
}

// StateConflictf is StateConflict with a formatted message.
func StateConflictf(format string, args ...any) *Error {
	return StateConflict(fmt.Sprintf(format, args...))
}

// ProviderError builds a KindProviderError carrying the HTTP status.
func ProviderError(status int, detail string) *Error {
	return &Error{Kind: KindProviderError, Status: status, Message: detail}
}

// Cancelled builds the sentinel used for user-initiated stop. Boundary
// layers should treat this as a silent abort, not a user-visible error.
func Cancelled() *Error {
	return &Error{Kind: KindCancelled, Message: "cancelled"}
}

// IsKind reports whether err carries the given Kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Retryable reports whether the error's kind is one §4.2/§7 classify as
// retryable: Network, RateLimited, or a 5xx ProviderError.
func Retryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Kind {
	case KindNetwork, KindRateLimited:
		return true
	case KindProviderError:
		return e.Status >= 500
	default:
		return false
	}
}
