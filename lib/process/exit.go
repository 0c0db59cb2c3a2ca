// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the binary entrypoint exit helpers.
package process

import (
	"errors"
	"fmt"
	"io"
)

// ExitCoder is implemented by errors that carry their own exit code.
type ExitCoder interface {
	ExitCode() int
}

// ExitCode maps err to a process exit code: 0 for nil, the error's own
// code when it implements ExitCoder, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var coder ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return 1
}

// Report writes "error: err" to w when err is non-nil and returns the
// exit code for it.
func Report(w io.Writer, err error) int {
	if err != nil {
		fmt.Fprintf(w, "error: %v\n", err)
	}
	return ExitCode(err)
}
