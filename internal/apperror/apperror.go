// Package apperror defines the domain error vocabulary shared by the store,
// service and handler layers.
//
// Every error the API can surface to a client is one of the sentinels below,
// wrapped in an *AppError that carries the human-readable message. The HTTP
// layer never inspects driver or library errors: it asks errors.Is which
// sentinel is in the chain and picks the status code from that.
package apperror

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("Validation Error")
	ErrConflict           = errors.New("conflict")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrBadRequest         = errors.New("bad request")
)

type AppError struct {
	Err     error  // sentinel this error classifies as
	Message string // Human-readable error message
	Field   string // Optional: field causing the error

	// fields holds every field-level failure when several inputs were
	// rejected at once (see Validation).
	fields []*AppError
}

func (e *AppError) Error() string {
	if len(e.fields) > 0 {
		return strings.Join(e.Messages(), "; ")
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Messages returns every client-facing message carried by the error.
// A plain AppError yields its single Message.
func (e *AppError) Messages() []string {
	if len(e.fields) == 0 {
		return []string{e.Message}
	}
	out := make([]string, 0, len(e.fields))
	for _, f := range e.fields {
		out = append(out, f.Message)
	}
	return out
}

// Fields returns the individual field failures of an aggregated validation
// error, or nil.
func (e *AppError) Fields() []*AppError {
	return e.fields
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// NotFoundMessage builds a not-found error with a message chosen by the
// caller, for cases where the id must not be echoed back (e.g. "user not found").
func NotFoundMessage(message string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: message,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Validation aggregates several field failures into one error.
// nil entries are skipped; with no failures left it returns nil, so callers
// can write `if err := apperror.Validation(checks...); err != nil`.
func Validation(fields ...*AppError) error {
	kept := make([]*AppError, 0, len(fields))
	for _, f := range fields {
		if f != nil {
			kept = append(kept, f)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return &AppError{
		Err:     ErrValidation,
		Message: kept[0].Message,
		Field:   kept[0].Field,
		fields:  kept,
	}
}

// Conflict reports a uniqueness or state clash. message is returned to the
// client verbatim, e.g. "email already in use".
func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthenticated means the request carried no usable credential.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}

func InvalidCredentials() *AppError {
	return &AppError{
		Err:     ErrInvalidCredentials,
		Message: "invalid credentials",
	}
}

// BadRequest is used for malformed path or query input, e.g. an identifier
// that is not a valid id.
func BadRequest(message string) *AppError {
	return &AppError{
		Err:     ErrBadRequest,
		Message: message,
	}
}
