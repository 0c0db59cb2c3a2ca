// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging is the subset of the Matrix client-server API the
// login bridge needs: authenticate with an existing access token, run
// /sync, and pick the most recent event out of one room's timeline.
//
// [Client] holds the homeserver URL, API prefix, and HTTP transport.
// [Client.SessionFromToken] returns a [Session] that owns the access
// token in protected memory (see lib/secret) and attaches it to each
// request, either as the access_token query parameter (what older
// homeservers and the WhatsApp bridge's own tooling expect) or as an
// Authorization: Bearer header.
//
// [Timeline] binds a Session to one room. [Timeline.Latest] performs
// exactly one /sync with an inline filter scoped to that room and
// returns the last timeline event. There is no since token: every call
// sees the newest window, so a restarted bridge needs no stored state.
//
// Errors fall into three groups, distinguishable with errors.As:
//
//   - [*NetworkError]: the request never produced an HTTP response
//     (connection refused, timeout, cancelled context).
//   - [*MatrixError]: the homeserver answered with a non-2xx status
//     and the standard {"errcode","error"} body.
//   - [*ProtocolError]: a 2xx response that could not be used (bad
//     JSON, the room missing from rooms.join, an empty timeline).
//
// Error strings never include the access token, even when it travels
// in the query string.
package messaging
