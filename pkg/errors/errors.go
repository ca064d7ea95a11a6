// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package errors defines the typed errors shared by the greeter services
// and their test harness.
package errors

import (
	"errors"
	"fmt"
)

// Error types
const (
	// ErrInvalidArgument is returned when configuration or input is invalid
	ErrInvalidArgument = "invalid_argument"

	// ErrTelemetry is returned when telemetry providers cannot be built or shut down
	ErrTelemetry = "telemetry"

	// ErrBackendStartup is returned when the observability backend does not become ready
	ErrBackendStartup = "backend_startup"

	// ErrInternal is returned when there is an internal error
	ErrInternal = "internal"
)

// Error represents an error in the application
type Error struct {
	// Type is the error type
	Type string

	// Message is the error message
	Message string

	// Cause is the underlying error
	Cause error
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new error
func NewError(errorType, message string, cause error) *Error {
	return &Error{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

// NewInvalidArgumentError creates a new invalid argument error
func NewInvalidArgumentError(message string, cause error) *Error {
	return NewError(ErrInvalidArgument, message, cause)
}

// NewTelemetryError creates a new telemetry error
func NewTelemetryError(message string, cause error) *Error {
	return NewError(ErrTelemetry, message, cause)
}

// NewBackendStartupError creates a new backend startup error
func NewBackendStartupError(message string, cause error) *Error {
	return NewError(ErrBackendStartup, message, cause)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *Error {
	return NewError(ErrInternal, message, cause)
}

// IsInvalidArgument checks if the error chain contains an invalid argument error
func IsInvalidArgument(err error) bool {
	return isType(err, ErrInvalidArgument)
}

// IsTelemetry checks if the error chain contains a telemetry error
func IsTelemetry(err error) bool {
	return isType(err, ErrTelemetry)
}

// IsBackendStartup checks if the error chain contains a backend startup error
func IsBackendStartup(err error) bool {
	return isType(err, ErrBackendStartup)
}

// IsInternal checks if the error chain contains an internal error
func IsInternal(err error) bool {
	return isType(err, ErrInternal)
}

func isType(err error, errorType string) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == errorType
}
