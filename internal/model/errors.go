package model

import "errors"

// ErrNoCredential gates every network-backed repository operation.
var ErrNoCredential = errors.New("no YouTube credential stored")

// AppError is a precondition failure local to this app (missing credential,
// missing cached channel). It never wraps a remote failure.
type AppError struct {
	Message string
	Err     error
}

func (e *AppError) Error() string { return e.Message }

func (e *AppError) Unwrap() error { return e.Err }

// APIError is any failure from the remote call path. Code is the HTTP status
// when a response was received, -1 when the failure happened before one.
type APIError struct {
	Message string
	Code    int
}

func (e *APIError) Error() string { return e.Message }

// NewAppError builds an AppError from a message.
func NewAppError(message string) *AppError {
	return &AppError{Message: message}
}

// NewAPIError builds an APIError from a message and status code.
func NewAPIError(message string, code int) *APIError {
	return &APIError{Message: message, Code: code}
}
