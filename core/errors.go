package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind is the closed set of error categories this service exposes. Every
// client-visible status code is derived from a Kind; nothing else is allowed
// to shape responses.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindTimeout         Kind = "timeout"
	KindConflict        Kind = "conflict"
	KindUnsupported     Kind = "unsupported_format"
	KindInternal        Kind = "internal"
)

// HTTPStatus maps a kind to its HTTP status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindTimeout:
		return http.StatusRequestTimeout
	case KindConflict:
		return http.StatusConflict
	case KindUnsupported:
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusInternalServerError
	}
}

// Error is a tagged error variant carrying its kind and a client-safe
// message. Internal detail travels in the wrapped cause and is never shown
// to clients.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is lets sentinel *Error values match wrapped copies of themselves.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// E creates a new tagged error.
func E(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a cause to a copy of the given sentinel.
func Wrap(sentinel *Error, cause error) *Error {
	return &Error{Kind: sentinel.Kind, Message: sentinel.Message, cause: cause}
}

// KindOf extracts the kind from any error, defaulting to internal so that
// unexpected failures can never widen access.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindInternal
}

var (
	// ErrSessionInvalid is returned when a session is absent or expired.
	ErrSessionInvalid = E(KindUnauthenticated, "session is invalid")

	// ErrStoreUnavailable is returned when the session store cannot be
	// reached. Callers must not treat it as "no session".
	ErrStoreUnavailable = E(KindInternal, "session store unavailable")

	// ErrInvalidCredentials is returned for both unknown users and wrong
	// passwords; the two are deliberately indistinguishable.
	ErrInvalidCredentials = E(KindUnauthenticated, "invalid credentials")

	// ErrTokenExpired is returned when a streaming token has expired.
	ErrTokenExpired = E(KindUnauthenticated, "token has expired")

	// ErrBadSignature is returned when a token's signature does not verify.
	ErrBadSignature = E(KindUnauthenticated, "bad token signature")

	// ErrInvalidToken is returned when a token cannot be parsed at all.
	ErrInvalidToken = E(KindUnauthenticated, "invalid token")

	// ErrWrongResource is returned when a valid token is presented for a
	// different video than it was issued for.
	ErrWrongResource = E(KindForbidden, "token is scoped to another resource")

	// ErrBindingMismatch is returned when a token's client binding does not
	// match the presenting request.
	ErrBindingMismatch = E(KindUnauthenticated, "token client binding mismatch")

	// ErrVideoNotFound is returned when the catalog has no such video.
	ErrVideoNotFound = E(KindNotFound, "video not found")

	// ErrManifestCorrupt is returned when a stored manifest cannot be
	// parsed. Distinct from not-found; nothing partial is ever emitted.
	ErrManifestCorrupt = E(KindUnsupported, "manifest is corrupt")
)
