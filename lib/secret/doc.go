// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package secret keeps the bridge bot's Matrix access token out of the
// Go heap for the lifetime of the process.
//
// [NewToken] copies the token into an anonymous mmap region marked
// MADV_DONTDUMP so it never appears in a core dump. The region is also
// mlocked when RLIMIT_MEMLOCK allows it; containers frequently set a
// zero limit, so a failed mlock downgrades the token to "unlocked"
// ([Token.Locked] reports which) instead of refusing to start.
//
// The token is revealed as a string only at the HTTP boundary
// ([Token.Reveal]). Logs use [Token.Redacted], which keeps the
// well-known "syt_" prefix and the last four characters.
package secret
