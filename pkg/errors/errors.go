// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package errors

import (
	goerrors "errors"
	"fmt"
)

// ErrorCode represents a structured error classification.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a resource the API server does not (yet) know
	// about. During propagation delay this condition is transient and callers
	// retry it with backoff.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodePermissionDenied indicates the cluster rejected the request with
	// a Forbidden response. Fatal except for the reserved default namespace.
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
	// ErrCodeWaitTimeout indicates a blocking wait primitive ran out of time.
	// Not fatal on its own; the poller resubmits the alternate condition.
	ErrCodeWaitTimeout ErrorCode = "WAIT_TIMEOUT"
	// ErrCodeTerminalFailure indicates a job resolved to failed, or to a
	// status that is neither succeeded nor failed.
	ErrCodeTerminalFailure ErrorCode = "TERMINAL_FAILURE"
	// ErrCodeIntegrity indicates a checksum mismatch after a transfer.
	ErrCodeIntegrity ErrorCode = "INTEGRITY"
	// ErrCodeResourceExhausted indicates insufficient local disk space for a
	// pending download.
	ErrCodeResourceExhausted ErrorCode = "RESOURCE_EXHAUSTED"
	// ErrCodeInvalidRequest indicates malformed or invalid caller input.
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	// ErrCodeInternal indicates an unexpected API shape, malformed JSON, or
	// any other condition outside the retryable taxonomy.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// StructuredError provides structured error information for better
// observability. It includes an error code for programmatic handling, a
// human-readable message, the underlying cause, and optional context.
type StructuredError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is and errors.As support.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// New creates a new StructuredError with the given code and message.
func New(code ErrorCode, message string) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new StructuredError with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// NewWithContext creates a new StructuredError with context information.
func NewWithContext(code ErrorCode, message string, context map[string]any) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Context: context,
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(code ErrorCode, message string, cause error) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapWithContext wraps an error with additional context information.
func WrapWithContext(code ErrorCode, message string, cause error, context map[string]any) *StructuredError {
	return &StructuredError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: context,
	}
}

// CodeOf returns the error code of err, walking the wrap chain.
// Errors outside the taxonomy report ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	var se *StructuredError
	if goerrors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}

// IsNotFound reports whether err classifies as a transient not-found.
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotFound
}

// IsPermissionDenied reports whether err classifies as a Forbidden response.
func IsPermissionDenied(err error) bool {
	return CodeOf(err) == ErrCodePermissionDenied
}

// IsWaitTimeout reports whether err is a non-fatal wait timeout.
func IsWaitTimeout(err error) bool {
	return CodeOf(err) == ErrCodeWaitTimeout
}

// IsIntegrity reports whether err is a post-transfer checksum mismatch.
func IsIntegrity(err error) bool {
	return CodeOf(err) == ErrCodeIntegrity
}

// IsResourceExhausted reports whether err is a local disk preflight failure.
func IsResourceExhausted(err error) bool {
	return CodeOf(err) == ErrCodeResourceExhausted
}
