package bgerr

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

const (
	CodeNotFound       = "NOT_FOUND"
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeNoData         = "NO_DATA"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeInternalError  = "INTERNAL_ERROR"
)

var (
	// ErrNotFound is returned when a snapshot or artifact does not exist.
	ErrNotFound = New(fiber.StatusNotFound, CodeNotFound, "resource not found with given parameters")

	// ErrInvalidReq is returned when a request is invalid.
	ErrInvalidReq = New(fiber.StatusBadRequest, CodeInvalidRequest, "invalid request: some or all request parameters are invalid")

	// ErrNoData is returned when every shard of a selector is missing.
	ErrNoData = New(fiber.StatusConflict, CodeNoData, "no shard data available for the selector")

	ErrUnauthorized = New(fiber.StatusUnauthorized, CodeUnauthorized, "missing or invalid admin key")

	// ErrInternalError is returned when an internal error occurs.
	ErrInternalError = New(fiber.StatusInternalServerError, CodeInternalError, "internal server error occurred")
)

type Extras map[string]interface{}

// Error is an HTTP facing error with a stable machine readable code. Values
// are immutable: Msg and WithExtras return modified copies.
type Error struct {
	StatusCode int     `json:"-"`
	ErrorCode  string  `json:"code"`
	Message    string  `json:"message"`
	Extras     *Extras `json:"extras,omitempty"`
}

func New(statusCode int, errorCode string, message string) *Error {
	return &Error{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

func (e Error) Msg(format string, parts ...interface{}) *Error {
	e.Message = fmt.Sprintf(format, parts...)
	return &e
}

func (e Error) WithExtras(extras Extras) *Error {
	e.Extras = &extras
	return &e
}

func NewInvalidViolations(violations interface{}) *Error {
	return ErrInvalidReq.WithExtras(Extras{
		"violations": violations,
	})
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrorCode, e.Message)
}
