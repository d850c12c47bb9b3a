//
// Copyright (c) 2019, 2025 Oracle and/or its affiliates. All rights reserved.
//
// Licensed under the Universal Permissive License v 1.0 as shown at
//  https://oss.oracle.com/licenses/upl/
//

// Package remoteerr defines the error types returned by the remote client.
//
// Every error surfaced by a Connection, RemoteTable or Query is one of:
//
//   *ConfigError  invalid or conflicting configuration, returned at construction
//   *HttpError    a failed attempt that is not retried
//   *RetryError   the retry limit was hit; Cause holds the last *HttpError
//
// The only exception is cancellation of the caller's context, which is
// reported as the context error.
package remoteerr

import (
	"errors"
	"fmt"
)

// Classification represents how the client treats the outcome of an attempt.
type Classification int

const (
	// Success represents a 2xx response.
	Success Classification = iota

	// Retryable represents a transient failure; the request may be attempted again.
	Retryable

	// Terminal represents a failure that is returned to the caller immediately.
	Terminal
)

// String returns a string representation for the classification.
//
// This implements the fmt.Stringer interface.
func (c Classification) String() string {
	switch c {
	case Success:
		return "Success"
	case Retryable:
		return "Retryable"
	case Terminal:
		return "Terminal"
	default:
		return "N/A"
	}
}

// Phase identifies where in an HTTP exchange a failure happened.
type Phase int

const (
	// PhaseResponse represents a complete response with a non-2xx status code,
	// or a 2xx response whose content could not be handled.
	PhaseResponse Phase = iota

	// PhaseConnect represents a failure to establish the connection,
	// including a connect timeout.
	PhaseConnect

	// PhaseRead represents a failure after the connection was established,
	// while sending the request or receiving the response, including a read timeout.
	PhaseRead
)

// String returns a string representation for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseResponse:
		return "response"
	case PhaseConnect:
		return "connect"
	case PhaseRead:
		return "read"
	default:
		return "N/A"
	}
}

// ConfigError represents an invalid or conflicting configuration.
//
// This implements the error interface.
type ConfigError struct {
	// Message specifies the description of error.
	Message string `json:"message"`

	// Cause optionally specifies the cause of error.
	Cause error `json:"cause,omitempty"`
}

// NewConfigError creates a ConfigError with the specified message.
func NewConfigError(msgFmt string, msgArgs ...interface{}) *ConfigError {
	return &ConfigError{
		Message: fmt.Sprintf(msgFmt, msgArgs...),
	}
}

// NewConfigErrorWithCause creates a ConfigError with the specified cause and message.
func NewConfigErrorWithCause(cause error, msgFmt string, msgArgs ...interface{}) *ConfigError {
	return &ConfigError{
		Message: fmt.Sprintf(msgFmt, msgArgs...),
		Cause:   cause,
	}
}

// Error returns a descriptive message for the error.
func (e *ConfigError) Error() string {
	if e.Cause == nil {
		return "[ConfigError]: " + e.Message
	}

	return fmt.Sprintf("[ConfigError]: %s. Caused by:\n\t%s", e.Message, e.Cause.Error())
}

// Unwrap returns the cause of the error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// HttpError represents a single failed attempt.
//
// For a PhaseResponse error, StatusCode and Message are the status code and
// body of the response. For PhaseConnect and PhaseRead errors there is no
// response, StatusCode is 0 and Err holds the transport error.
type HttpError struct {
	// StatusCode specifies the HTTP status code of the response.
	StatusCode int `json:"status_code"`

	// Message specifies the response body or a summary of the failure.
	Message string `json:"message"`

	// RequestID specifies the x-request-id sent with the failed attempt.
	RequestID string `json:"request_id"`

	// Phase specifies where in the exchange the attempt failed.
	Phase Phase `json:"phase"`

	// Err optionally specifies the transport error.
	Err error `json:"-"`
}

// NewHttpError creates an HttpError for a response with the specified
// status code and body.
func NewHttpError(statusCode int, message, requestID string) *HttpError {
	return &HttpError{
		StatusCode: statusCode,
		Message:    message,
		RequestID:  requestID,
		Phase:      PhaseResponse,
	}
}

// NewTransportError creates an HttpError for an attempt that failed in the
// specified phase without a response.
func NewTransportError(phase Phase, requestID string, err error) *HttpError {
	return &HttpError{
		Message:   fmt.Sprintf("%s error: %v", phase, err),
		RequestID: requestID,
		Phase:     phase,
		Err:       err,
	}
}

// Error returns a descriptive message for the error.
func (e *HttpError) Error() string {
	if e.Phase != PhaseResponse {
		return fmt.Sprintf("Http error: (request_id=%s) %s", e.RequestID, e.Message)
	}

	return fmt.Sprintf("Http error: (request_id=%s) status_code=%d: %s", e.RequestID, e.StatusCode, e.Message)
}

// Unwrap returns the transport error, if any.
func (e *HttpError) Unwrap() error {
	return e.Err
}

// RetryError represents a request that failed after the retry limit was hit.
//
// Cause is the error of the last attempt and RequestID is that attempt's id.
type RetryError struct {
	// RequestID specifies the x-request-id of the last attempt.
	RequestID string `json:"request_id"`

	// StatusCode specifies the status code of the last attempt, 0 if the last
	// attempt failed without a response.
	StatusCode int `json:"status_code"`

	// NumAttempts specifies the total number of attempts made.
	NumAttempts int `json:"num_attempts"`

	// RequestRetries, ConnectRetries and ReadRetries specify the number of
	// retries performed for each kind of failure.
	RequestRetries int `json:"request_retries"`
	ConnectRetries int `json:"connect_retries"`
	ReadRetries    int `json:"read_retries"`

	// Cause specifies the error of the last attempt.
	Cause *HttpError `json:"cause"`
}

// Error returns a descriptive message for the error.
func (e *RetryError) Error() string {
	msg := fmt.Sprintf("Hit retry limit for request_id=%s (request_retries=%d, connect_retries=%d, read_retries=%d)",
		e.RequestID, e.RequestRetries, e.ConnectRetries, e.ReadRetries)
	if e.Cause == nil {
		return msg
	}

	return fmt.Sprintf("%s. Caused by:\n\t%s", msg, e.Cause.Error())
}

// Unwrap returns the error of the last attempt.
func (e *RetryError) Unwrap() error {
	if e.Cause == nil {
		return nil
	}
	return e.Cause
}

// IsConfigError returns true if the specified error is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var e *ConfigError
	return errors.As(err, &e)
}

// IsRetryError returns true if the specified error is or wraps a RetryError.
func IsRetryError(err error) bool {
	var e *RetryError
	return errors.As(err, &e)
}

// AsHttpError returns the HttpError the specified error is, or wraps.
// For a RetryError this is the error of the last attempt.
func AsHttpError(err error) (*HttpError, bool) {
	var e *HttpError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
