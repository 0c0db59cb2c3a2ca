// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package handshake classifies the bridge bot's login messages.
//
// The bot drives the login in its management room with three message
// shapes: an m.image whose body is the QR payload, an m.notice that
// announces a successful login, and an edit (m.new_content of type
// m.text) whose fallback body says the scan timed out. [Interpreter]
// turns one timeline event into a [loginstate.Update]; it performs no
// I/O and holds no state.
package handshake

import (
	"strings"

	"github.com/bureau-foundation/qrlogin/lib/loginstate"
	"github.com/bureau-foundation/qrlogin/messaging"
)

// Defaults for the mautrix-whatsapp bot.
const (
	DefaultBotMarker     = "@whatsappbot"
	DefaultLoginPhrase   = "Successfully logged in"
	DefaultTimeoutPhrase = "scan timed out"
)

// Interpreter holds the matching vocabulary. The zero value is not
// useful; use Default or set every field.
type Interpreter struct {
	// BotMarker must appear as a substring of the sender's user ID.
	// Substring matching accepts the bot on any server name.
	BotMarker string
	// LoginPhrase in an m.notice body means the login succeeded.
	LoginPhrase string
	// TimeoutPhrase in the outer body of a text edit means the QR scan
	// window expired.
	TimeoutPhrase string
}

// Default returns the interpreter for the mautrix-whatsapp bot.
func Default() Interpreter {
	return Interpreter{
		BotMarker:     DefaultBotMarker,
		LoginPhrase:   DefaultLoginPhrase,
		TimeoutPhrase: DefaultTimeoutPhrase,
	}
}

// FromBot reports whether event was sent by the bot.
func (in Interpreter) FromBot(event messaging.Event) bool {
	return in.BotMarker != "" && strings.Contains(event.Sender.String(), in.BotMarker)
}

// Interpret applies the classification rules to event, starting from
// previous. The poll scheduler passes Pending here, having already
// reset the status for the tick.
//
// The checks are independent and run in order against the same event;
// a later match overwrites an earlier status. The payload is only ever
// replaced, never cleared.
func (in Interpreter) Interpret(previous loginstate.AuthStatus, event messaging.Event) loginstate.Update {
	update := loginstate.Update{Status: previous}
	if !in.FromBot(event) {
		return update
	}

	content := event.Content
	if content.MsgType == messaging.MsgTypeImage {
		update.SetQR = true
		update.QRPayload = content.Body
	}
	if content.MsgType == messaging.MsgTypeNotice && in.LoginPhrase != "" &&
		strings.Contains(content.Body, in.LoginPhrase) {
		update.Status = loginstate.StatusAuthorized
	}
	if content.NewContent != nil && content.NewContent.MsgType == messaging.MsgTypeText &&
		in.TimeoutPhrase != "" && strings.Contains(content.Body, in.TimeoutPhrase) {
		update.Status = loginstate.StatusUnauthorized
	}
	return update
}
