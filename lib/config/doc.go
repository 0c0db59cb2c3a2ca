// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads bureau-qrlogin configuration.
//
// Every setting has a default ([Default]); a configuration file given
// with --config overrides them, and command-line flags override the
// file. The file is YAML (.yaml, .yml) or JSON with comments and
// trailing commas (.json, .jsonc). Unknown keys are errors, so a typo
// never silently falls back to a default.
//
// Credentials never come from the file. [ResolveCredentials] takes the
// access token and room ID from the positional arguments and fills
// any gap from QRLOGIN_ACCESS_TOKEN and QRLOGIN_ROOM_ID, optionally
// seeded from a dotenv file.
package config
