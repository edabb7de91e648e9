// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
)

// ErrorType categorizes client errors for upstream handling.
type ErrorType int

const (
	// ErrTypeUnknown is an unclassified error.
	ErrTypeUnknown ErrorType = iota
	// ErrTypeTransport covers connection failures, timeouts, and non-2xx
	// responses from the backend.
	ErrTypeTransport
	// ErrTypeProtocol covers malformed or truncated response bodies.
	ErrTypeProtocol
	// ErrTypeApplication covers requests the backend accepted but could
	// not fulfill, reported through the error field of its response.
	ErrTypeApplication
	// ErrTypePersistence covers failures of the history endpoints.
	ErrTypePersistence
)

// ClientError is a structured error with a type for programmatic handling.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Sentinel causes carried inside a ClientError, matchable with errors.Is.
var (
	// ErrBackendUnavailable indicates the backend could not be reached.
	ErrBackendUnavailable = errors.New("backend is not reachable")

	// ErrEmptyBody indicates the backend returned no response body
	// where one was required.
	ErrEmptyBody = errors.New("backend returned an empty response body")
)

// IsTransportError returns true if the error is a connection-level failure.
func IsTransportError(err error) bool {
	return errorIsType(err, ErrTypeTransport)
}

// IsApplicationError returns true if the backend reported a failure of its own.
func IsApplicationError(err error) bool {
	return errorIsType(err, ErrTypeApplication)
}

// IsPersistenceError returns true if a history endpoint failed.
func IsPersistenceError(err error) bool {
	return errorIsType(err, ErrTypePersistence)
}

func errorIsType(err error, t ErrorType) bool {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Type == t
	}
	return false
}
