package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindMalformedRequest Kind = "malformed_request"
	KindMissingField     Kind = "missing_field"
	KindStoreWrite       Kind = "store_write"
	KindStoreRead        Kind = "store_read"
	KindNotFound         Kind = "not_found"
)

// GenericMessage is what callers see for any store failure.
const GenericMessage = "internal server error"

// Error is a handled request failure. Err holds detail for logs only.
type Error struct {
	Kind  Kind
	Field string
	Err   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := string(e.Kind)
	if e.Field != "" {
		msg += "(" + e.Field + ")"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Message is the response text for the caller.
func (e *Error) Message() string {
	switch e.Kind {
	case KindMalformedRequest:
		return "malformed request body"
	case KindMissingField:
		return "missing " + e.Field
	case KindNotFound:
		return "does not exist"
	default:
		return GenericMessage
	}
}

// Status is the HTTP status used when strict status codes are enabled.
func (e *Error) Status() int {
	switch e.Kind {
	case KindMalformedRequest, KindMissingField:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func MalformedRequest(err error) *Error { return &Error{Kind: KindMalformedRequest, Err: err} }

func MissingField(field string) *Error { return &Error{Kind: KindMissingField, Field: field} }

func StoreWrite(err error) *Error { return &Error{Kind: KindStoreWrite, Err: err} }

func StoreRead(err error) *Error { return &Error{Kind: KindStoreRead, Err: err} }

func NotFound(err error) *Error { return &Error{Kind: KindNotFound, Err: err} }

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
