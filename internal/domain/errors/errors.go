package errors

import (
	"errors"
	"fmt"
	"net/http"

	"taskmanager/internal/domain/messages"
)

// Storage-level sentinels. Repositories return these; the service layer
// turns them into classified errors.
var (
	ErrNotFound        = errors.New("document not found")
	ErrInvalidID       = errors.New("invalid document id")
	ErrStoreConnection = errors.New("document store unavailable")

	ErrConfigFileReadFailed = errors.New("failed to read config file")
	ErrConfigParseFailed    = errors.New("failed to parse config file")
	ErrConfigInvalidFormat  = errors.New("invalid config value format")
	ErrConfigMissingURI     = errors.New("mongo connection string is required")
	ErrConfigMissingSecret  = errors.New("token signing secret is required")
	ErrConfigUnknownStorage = errors.New("unknown storage backend")
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindUniqueConstraint
	KindUnauthorized
	KindForbidden
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUniqueConstraint:
		return "unique_constraint"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindServer:
		return "server"
	}
	return "unknown"
}

// Error is a classified failure. Status is the HTTP code the presentation
// layer answers with; Message is safe to show to the client.
type Error struct {
	Kind    Kind
	Status  int
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

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Status: http.StatusNotFound, Message: message}
}

func UniqueConstraint(message string, cause error) *Error {
	return &Error{Kind: KindUniqueConstraint, Status: http.StatusConflict, Message: message, Err: cause}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Status: http.StatusUnauthorized, Message: message}
}

func Forbidden(message string, cause error) *Error {
	return &Error{Kind: KindForbidden, Status: http.StatusForbidden, Message: message, Err: cause}
}

// Server hides cause behind the fixed server error message.
func Server(cause error) *Error {
	return &Error{Kind: KindServer, Status: http.StatusInternalServerError, Message: messages.ServerError, Err: cause}
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Status: http.StatusBadRequest, Message: message}
}

// As reports whether err carries a classified *Error.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}

// DuplicateKeyError is returned by repositories when a write violates a
// unique index. Its text follows the "<field> already exists." convention.
type DuplicateKeyError struct {
	Field string
	Err   error
}

func (e *DuplicateKeyError) Error() string {
	if e.Field == "" {
		return "value already exists."
	}
	return e.Field + " already exists."
}

func (e *DuplicateKeyError) Unwrap() error { return e.Err }

func AsDuplicateKey(err error) (*DuplicateKeyError, bool) {
	var dup *DuplicateKeyError
	if errors.As(err, &dup) {
		return dup, true
	}
	return nil, false
}
