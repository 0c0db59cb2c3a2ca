// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"errors"
	"fmt"
	"net/url"
)

// MatrixError is a structured error response from the homeserver.
type MatrixError struct {
	// Code is the Matrix error code (e.g., "M_UNKNOWN_TOKEN").
	Code string `json:"errcode"`
	// Message is the human-readable description from the server.
	Message string `json:"error"`
	// StatusCode is the HTTP status code of the response.
	StatusCode int `json:"-"`
}

func (e *MatrixError) Error() string {
	return fmt.Sprintf("matrix: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Standard Matrix error codes seen by the bridge.
const (
	ErrCodeForbidden     = "M_FORBIDDEN"
	ErrCodeUnknownToken  = "M_UNKNOWN_TOKEN"
	ErrCodeMissingToken  = "M_MISSING_TOKEN"
	ErrCodeLimitExceeded = "M_LIMIT_EXCEEDED"
	ErrCodeUnknown       = "M_UNKNOWN"
)

// IsMatrixError reports whether err is a *MatrixError with code.
func IsMatrixError(err error, code string) bool {
	var matrixErr *MatrixError
	if errors.As(err, &matrixErr) {
		return matrixErr.Code == code
	}
	return false
}

// NetworkError reports a request that produced no HTTP response.
type NetworkError struct {
	Method string
	// Path is the request path without the query string, which may
	// carry the access token.
	Path string
	Err  error
}

// newNetworkError strips *url.Error, whose message embeds the full
// request URL (and therefore a query-string token).
func newNetworkError(method, path string, err error) *NetworkError {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	return &NetworkError{Method: method, Path: path, Err: err}
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("messaging: %s %s failed: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNetworkError reports whether err is or wraps a *NetworkError.
func IsNetworkError(err error) bool {
	var networkErr *NetworkError
	return errors.As(err, &networkErr)
}

// Sentinel causes carried by ProtocolError.
var (
	// ErrRoomNotJoined means the sync response has no rooms.join entry
	// for the requested room: the token's user is not in it.
	ErrRoomNotJoined = errors.New("room not present in rooms.join")

	// ErrEmptyTimeline means the room is joined but its timeline
	// section carried no events.
	ErrEmptyTimeline = errors.New("room timeline is empty")
)

// ProtocolError reports a successful HTTP exchange whose body could
// not be used.
type ProtocolError struct {
	// Op names the operation, e.g. "sync" or "latest event".
	Op  string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("messaging: %s: %v", e.Op, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// IsProtocolError reports whether err is or wraps a *ProtocolError.
func IsProtocolError(err error) bool {
	var protocolErr *ProtocolError
	return errors.As(err, &protocolErr)
}
