// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides bounded reads of homeserver HTTP responses.
//
// A full /sync response for an account in many rooms can be large, but
// never unbounded. Reads stop at a caller-supplied limit and report
// [ErrResponseTooLarge] instead of silently truncating, so a truncated
// body is never handed to the JSON decoder as if it were complete.
package netutil

import (
	"errors"
	"fmt"
	"io"
)

// DefaultMaxResponseSize bounds homeserver responses when the caller
// has no better limit: 64 MiB.
const DefaultMaxResponseSize int64 = 64 << 20

// ErrResponseTooLarge reports a body that exceeded the read limit.
var ErrResponseTooLarge = errors.New("response body exceeds size limit")

// ReadResponse reads body up to limit bytes. A non-positive limit
// means DefaultMaxResponseSize.
func ReadResponse(body io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultMaxResponseSize
	}
	data, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrResponseTooLarge, limit)
	}
	return data, nil
}

// ErrorBody reads up to 4 KiB of an error response for diagnostics.
// Read errors are ignored: a partial body is still useful in a message.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, 4<<10))
	return string(data)
}
