// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import "fmt"

// startupError is a problem with the command line or configuration,
// found before anything starts. It exits 2.
type startupError struct {
	err error
}

func startupErrorf(format string, args ...any) *startupError {
	return &startupError{err: fmt.Errorf(format, args...)}
}

func (e *startupError) Error() string { return e.err.Error() }
func (e *startupError) Unwrap() error { return e.err }
func (e *startupError) ExitCode() int { return 2 }
