// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// bureau-qrlogin serves a web page for linking a mautrix-style
// WhatsApp bridge by QR code.
//
// The bridge bot posts its login QR code and status notices into a
// management room. bureau-qrlogin polls that room's timeline with an
// existing access token, keeps the newest code and the login status in
// memory, and serves them to a browser: the code as a PNG at /qrcode,
// the status at /auth_status, and a page at / that follows both. Once
// the bot reports a successful login the process shuts the page down
// and exits 0.
//
// Usage:
//
//	bureau-qrlogin [flags] <access-token> <room-id>
//
// Either argument may instead come from QRLOGIN_ACCESS_TOKEN and
// QRLOGIN_ROOM_ID, optionally loaded from --env-file.
//
// Exit codes: 0 after a successful login or an interrupt, 1 on a
// runtime failure, 2 when the command line or configuration is
// unusable.
package main
