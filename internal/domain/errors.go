package domain

import (
	"errors"
	"fmt"
)

var (
	// Validation Errors
	ErrInvalidID      = errors.New("record ID is required")
	ErrMissingPayload = errors.New("payload is required")

	// Store errors
	ErrUnknownAction = errors.New("unknown action")

	// Core errors
	ErrUnknownView  = errors.New("unknown view")
	ErrUnknownRoute = errors.New("unknown resource route")
)

// Kind classifies failures crossing the core boundary.
type Kind int

const (
	KindUnknown Kind = iota
	// KindTransport is a network or connectivity failure. Retried once.
	KindTransport
	// KindResource is a non-2xx application response. Never retried.
	KindResource
	// KindValidation is malformed mutation input caught before dispatch.
	KindValidation
	// KindAuthExpired means the bearer token is no longer accepted.
	KindAuthExpired
	// KindStaleResult marks an async result dropped after invalidation or reset.
	KindStaleResult
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindResource:
		return "resource"
	case KindValidation:
		return "validation"
	case KindAuthExpired:
		return "auth_expired"
	case KindStaleResult:
		return "stale_result"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching by kind.
var (
	ErrTransport   = &Error{Kind: KindTransport}
	ErrResource    = &Error{Kind: KindResource}
	ErrValidation  = &Error{Kind: KindValidation}
	ErrAuthExpired = &Error{Kind: KindAuthExpired}
	ErrStaleResult = &Error{Kind: KindStaleResult}
)

// Error is the typed error surfaced by the cache, transport and coordinator.
type Error struct {
	Kind Kind
	// Op is the operation that failed, e.g. "GET /posts".
	Op string
	// Status is the HTTP status for resource errors.
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = e.Kind.String() + " error"
	}
	switch {
	case e.Op != "" && e.Status != 0:
		return fmt.Sprintf("%s: %s (status %d)", e.Op, msg, e.Status)
	case e.Op != "":
		return e.Op + ": " + msg
	default:
		return msg
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrTransport) works
// for every transport failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Retryable reports whether the cache may re-attempt the operation.
func (e *Error) Retryable() bool {
	return e.Kind == KindTransport
}

func TransportError(op string, err error) *Error {
	return &Error{Kind: KindTransport, Op: op, Err: err}
}

func ResourceError(op string, status int, message string) *Error {
	return &Error{Kind: KindResource, Op: op, Status: status, Message: message}
}

func AuthExpiredError(op string, message string) *Error {
	return &Error{Kind: KindAuthExpired, Op: op, Status: 401, Message: message}
}

func ValidationError(op string, err error) *Error {
	return &Error{Kind: KindValidation, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
