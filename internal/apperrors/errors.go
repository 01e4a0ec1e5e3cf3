package apperrors

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind classifies an error for the api boundary.
type Kind string

const (
	KindNotAuthenticated     Kind = "not_authenticated"
	KindNotAuthorized        Kind = "not_authorized"
	KindNotFound             Kind = "not_found"
	KindInvalidColumn        Kind = "invalid_column"
	KindInvalidStatus        Kind = "invalid_status"
	KindValidation           Kind = "validation"
	KindStoreWriteFailure    Kind = "store_write_failure"
	KindUploadFailure        Kind = "upload_failure"
	KindEmailDeliveryFailure Kind = "email_delivery_failure"
	KindInternal             Kind = "internal"
)

// Error carries a Kind, a user facing message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match on kind alone, e.g. errors.Is(err, apperrors.ErrNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrNotAuthenticated  = &Error{Kind: KindNotAuthenticated}
	ErrNotAuthorized     = &Error{Kind: KindNotAuthorized}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrInvalidColumn     = &Error{Kind: KindInvalidColumn}
	ErrInvalidStatus     = &Error{Kind: KindInvalidStatus}
	ErrValidation        = &Error{Kind: KindValidation}
	ErrStoreWriteFailure = &Error{Kind: KindStoreWriteFailure}
	ErrUploadFailure     = &Error{Kind: KindUploadFailure}
	ErrEmailDelivery     = &Error{Kind: KindEmailDeliveryFailure}
)

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func NotAuthenticated(msg string) *Error { return New(KindNotAuthenticated, msg) }
func NotAuthorized(msg string) *Error    { return New(KindNotAuthorized, msg) }
func NotFound(msg string) *Error         { return New(KindNotFound, msg) }
func Validation(msg string) *Error       { return New(KindValidation, msg) }

func StoreWrite(msg string, err error) *Error {
	return Wrap(KindStoreWriteFailure, msg, err)
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the user facing message for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "Internal server error"
}

// HTTPStatus maps a Kind to the status code rendered by the api.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotAuthenticated:
		return fiber.StatusUnauthorized
	case KindNotAuthorized:
		return fiber.StatusForbidden
	case KindNotFound:
		return fiber.StatusNotFound
	case KindInvalidColumn, KindInvalidStatus, KindValidation:
		return fiber.StatusBadRequest
	case KindUploadFailure:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
