// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package handshake

import (
	"testing"

	"github.com/bureau-foundation/qrlogin/lib/loginstate"
	"github.com/bureau-foundation/qrlogin/lib/ref"
	"github.com/bureau-foundation/qrlogin/messaging"
)

var (
	bot   = ref.MustParseUserID("@whatsappbot:example.org")
	human = ref.MustParseUserID("@operator:example.org")
)

func message(sender ref.UserID, msgType, body string) messaging.Event {
	return messaging.Event{
		Type:    messaging.EventTypeRoomMessage,
		Sender:  sender,
		Content: messaging.MessageContent{MsgType: msgType, Body: body},
	}
}

func timeoutEdit(sender ref.UserID, body string) messaging.Event {
	event := message(sender, messaging.MsgTypeText, body)
	event.Content.NewContent = &messaging.NewContent{MsgType: messaging.MsgTypeText, Body: "edited"}
	return event
}

func TestInterpret(t *testing.T) {
	interpreter := Default()

	tests := []struct {
		name  string
		event messaging.Event
		want  loginstate.Update
	}{
		{
			name:  "bot image sets payload",
			event: message(bot, messaging.MsgTypeImage, "IMG123"),
			want:  loginstate.Update{Status: loginstate.StatusPending, SetQR: true, QRPayload: "IMG123"},
		},
		{
			name:  "bot notice with login phrase authorizes",
			event: message(bot, messaging.MsgTypeNotice, "Successfully logged in now"),
			want:  loginstate.Update{Status: loginstate.StatusAuthorized},
		},
		{
			name:  "bot notice without phrase",
			event: message(bot, messaging.MsgTypeNotice, "Logging out"),
			want:  loginstate.Update{Status: loginstate.StatusPending},
		},
		{
			name:  "login phrase in plain text is ignored",
			event: message(bot, messaging.MsgTypeText, "Successfully logged in"),
			want:  loginstate.Update{Status: loginstate.StatusPending},
		},
		{
			name:  "timeout edit unauthorizes",
			event: timeoutEdit(bot, "scan timed out, retry"),
			want:  loginstate.Update{Status: loginstate.StatusUnauthorized},
		},
		{
			name:  "timeout phrase without edit is ignored",
			event: message(bot, messaging.MsgTypeText, "scan timed out"),
			want:  loginstate.Update{Status: loginstate.StatusPending},
		},
		{
			name: "timeout phrase only in new content is ignored",
			event: func() messaging.Event {
				event := timeoutEdit(bot, "* edited")
				event.Content.NewContent.Body = "scan timed out"
				return event
			}(),
			want: loginstate.Update{Status: loginstate.StatusPending},
		},
		{
			name: "edit with non-text new content is ignored",
			event: func() messaging.Event {
				event := timeoutEdit(bot, "scan timed out")
				event.Content.NewContent.MsgType = messaging.MsgTypeNotice
				return event
			}(),
			want: loginstate.Update{Status: loginstate.StatusPending},
		},
		{
			name: "image edit carrying timeout body sets payload and unauthorizes",
			event: func() messaging.Event {
				event := timeoutEdit(bot, "scan timed out")
				event.Content.MsgType = messaging.MsgTypeImage
				return event
			}(),
			want: loginstate.Update{Status: loginstate.StatusUnauthorized, SetQR: true, QRPayload: "scan timed out"},
		},
		{
			name: "notice edit with both phrases ends unauthorized",
			event: func() messaging.Event {
				event := timeoutEdit(bot, "Successfully logged in? no, scan timed out")
				event.Content.MsgType = messaging.MsgTypeNotice
				return event
			}(),
			want: loginstate.Update{Status: loginstate.StatusUnauthorized},
		},
		{
			name:  "non-bot image is ignored",
			event: message(human, messaging.MsgTypeImage, "IMG999"),
			want:  loginstate.Update{Status: loginstate.StatusPending},
		},
		{
			name:  "non-bot login notice is ignored",
			event: message(human, messaging.MsgTypeNotice, "Successfully logged in"),
			want:  loginstate.Update{Status: loginstate.StatusPending},
		},
		{
			name:  "non-bot timeout edit is ignored",
			event: timeoutEdit(human, "scan timed out"),
			want:  loginstate.Update{Status: loginstate.StatusPending},
		},
		{
			name:  "bot on another server matches",
			event: message(ref.MustParseUserID("@whatsappbot:other.example"), messaging.MsgTypeImage, "IMG2"),
			want:  loginstate.Update{Status: loginstate.StatusPending, SetQR: true, QRPayload: "IMG2"},
		},
		{
			name:  "membership event from bot",
			event: messaging.Event{Type: "m.room.member", Sender: bot},
			want:  loginstate.Update{Status: loginstate.StatusPending},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := interpreter.Interpret(loginstate.StatusPending, test.event)
			if got != test.want {
				t.Errorf("Interpret = %+v, want %+v", got, test.want)
			}
		})
	}
}

func TestInterpretNonBotKeepsPrevious(t *testing.T) {
	interpreter := Default()
	for _, previous := range []loginstate.AuthStatus{
		loginstate.StatusPending,
		loginstate.StatusAuthorized,
		loginstate.StatusUnauthorized,
	} {
		got := interpreter.Interpret(previous, message(human, messaging.MsgTypeImage, "x"))
		if got.Status != previous || got.SetQR {
			t.Errorf("previous %s: got %+v", previous.Label(), got)
		}
	}
}

func TestInterpretCustomVocabulary(t *testing.T) {
	interpreter := Interpreter{
		BotMarker:     "@signalbot",
		LoginPhrase:   "Logged in as",
		TimeoutPhrase: "QR code expired",
	}
	signal := ref.MustParseUserID("@signalbot:example.org")

	if got := interpreter.Interpret(loginstate.StatusPending, message(signal, messaging.MsgTypeNotice, "Logged in as +1555")); got.Status != loginstate.StatusAuthorized {
		t.Errorf("custom login phrase: %+v", got)
	}
	if got := interpreter.Interpret(loginstate.StatusPending, timeoutEdit(signal, "QR code expired")); got.Status != loginstate.StatusUnauthorized {
		t.Errorf("custom timeout phrase: %+v", got)
	}
	if interpreter.FromBot(message(bot, messaging.MsgTypeImage, "x")) {
		t.Error("whatsapp bot matched the signal marker")
	}
}

func TestEmptyMarkerMatchesNothing(t *testing.T) {
	interpreter := Default()
	interpreter.BotMarker = ""
	if interpreter.FromBot(message(bot, messaging.MsgTypeImage, "x")) {
		t.Error("empty marker matched a sender")
	}
}
