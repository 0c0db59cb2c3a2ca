// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for --version.
//
// Values are injected at build time:
//
//	go build -ldflags "-X github.com/bureau-foundation/qrlogin/lib/version.GitCommit=$(git rev-parse --short HEAD)"
package version

import (
	"fmt"
	"io"
	"runtime"
)

var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// Version is the semantic version.
	Version = "0.1.0-dev"
)

// Info returns "<version> (<commit>, <build time>)".
func Info() string {
	return fmt.Sprintf("%s (%s, %s)", Version, GitCommit, BuildTime)
}

// Print writes the --version line for binary to w.
func Print(w io.Writer, binary string) {
	fmt.Fprintf(w, "%s %s %s/%s\n", binary, Info(), runtime.GOOS, runtime.GOARCH)
}
