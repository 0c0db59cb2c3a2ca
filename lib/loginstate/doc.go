// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package loginstate holds the process-wide login state: the latest QR
// payload posted by the bridge bot and the current authorization
// status.
//
// A single [Store] is created at startup with status Pending and no
// payload. The poll scheduler is its only writer; HTTP handlers and the
// terminal view read it concurrently. Every read returns a complete
// [State] copy taken under the lock, so a reader never sees a payload
// from one tick paired with a status from another.
//
// Writers apply a whole tick at once with [Store.Commit]. [Store.Changed]
// lets readers block until the next observable change instead of
// polling.
package loginstate
