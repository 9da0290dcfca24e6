// Package goerror carries the error classification shared by usecases and
// the HTTP layer. Repositories return the ErrNotFound and ErrConflict
// sentinels; usecases turn them into *Error values with a user-facing
// message and a Code that the router maps to a status.
package goerror

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound = errors.New("resource not found")
	ErrConflict = errors.New("resource conflict")
)

type Type int

const (
	TypeServer Type = iota
	TypeBusiness
	TypeValidation
)

type Code int

const (
	CodeInternal Code = iota
	CodeInvalidFormat
	CodeInvalidInput
	CodeNotFound
	CodeConflict
	CodeTooManyRequest
	CodeUnauthorized
	CodeForbidden
	CodeTimeout
	// CodeBadRequest is for well-formed requests the domain refuses, such as
	// an invalid or expired one-time code.
	CodeBadRequest
	CodeUnavailable
)

var statusByCode = map[Code]int{
	CodeInternal:       http.StatusInternalServerError,
	CodeInvalidFormat:  http.StatusBadRequest,
	CodeInvalidInput:   http.StatusBadRequest,
	CodeBadRequest:     http.StatusBadRequest,
	CodeNotFound:       http.StatusNotFound,
	CodeConflict:       http.StatusConflict,
	CodeTooManyRequest: http.StatusTooManyRequests,
	CodeUnauthorized:   http.StatusUnauthorized,
	CodeForbidden:      http.StatusForbidden,
	CodeTimeout:        http.StatusRequestTimeout,
	CodeUnavailable:    http.StatusServiceUnavailable,
}

type Error struct {
	cause   error
	msg     string
	errType Type
	code    Code
	fields  map[string]string
}

// Error prefers the wrapped cause so logs keep the technical detail; Msg is
// what clients see.
func (e *Error) Error() string {
	switch {
	case e.cause != nil:
		return e.cause.Error()
	case e.msg != "":
		return e.msg
	}
	return http.StatusText(e.StatusCode())
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Msg() string { return e.msg }

func (e *Error) Type() Type { return e.errType }

func (e *Error) Code() Code { return e.code }

// Fields holds per-field messages for validation errors built by
// NewInvalidInput.
func (e *Error) Fields() map[string]string { return e.fields }

func (e *Error) StatusCode() int {
	if status, ok := statusByCode[e.code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// Label is the status text, e.g. "Bad Request".
func (e *Error) Label() string {
	return http.StatusText(e.StatusCode())
}

// NewServer hides err behind "Internal server error".
func NewServer(err error) error {
	return &Error{cause: err, msg: "Internal server error", errType: TypeServer, code: CodeInternal}
}

func NewBusiness(msg string, code Code) error {
	return &Error{msg: msg, errType: TypeBusiness, code: code}
}

func NewUnauthorized(msg string) error {
	return NewBusiness(msg, CodeUnauthorized)
}

// NewInvalidInput wraps a validator error, or builds field errors from
// key/value pairs when err is nil. An odd number of pairs is reported as
// an invalid body.
func NewInvalidInput(err error, kv ...string) error {
	e := &Error{cause: err, msg: "Validation error", errType: TypeValidation, code: CodeInvalidInput}
	if err != nil {
		return e
	}
	if len(kv)%2 != 0 {
		return NewInvalidFormat()
	}

	e.fields = make(map[string]string, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		e.fields[kv[i]] = kv[i+1]
	}
	return e
}

// NewInvalidFormat reports a body or parameter that could not be parsed.
// The first msg overrides the default message.
func NewInvalidFormat(msg ...string) error {
	e := &Error{msg: "Invalid request body", errType: TypeValidation, code: CodeInvalidFormat}
	if len(msg) > 0 && msg[0] != "" {
		e.msg = msg[0]
	}
	return e
}
