// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides validated Matrix identifiers used at the
// boundary between the command line, the homeserver's JSON, and the
// rest of the bridge.
//
// [RoomID] ("!opaque:server", or just "!opaque" from room version 12)
// names the room the WhatsApp bridge bot posts into. [UserID]
// ("@localpart:server") is the sender of a timeline event. Both are
// immutable value types whose zero value means "unset"; both implement
// encoding.TextMarshaler and encoding.TextUnmarshaler so they can be
// used directly as JSON fields and map keys.
package ref
