// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"encoding/json"
	"testing"
)

func TestParseRoomID(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", "!abc123:localhost", false},
		{"server_with_port", "!abc:matrix.example.org:8448", false},
		{"empty", "", true},
		{"wrong_sigil", "#alias:localhost", true},
		{"room_version_12", "!31hneApxJ_1o-63DmFrpeqnkFfWppnzWso1JvH3ogLM", false},
		{"no_server", "!abc123", false},
		{"sigil_only", "!", true},
		{"whitespace", "!abc :localhost", true},
		{"trailing_newline", "!abc123\n", true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			roomID, err := ParseRoomID(test.raw)
			if test.wantErr {
				if err == nil {
					t.Fatalf("ParseRoomID(%q) = %v, want error", test.raw, roomID)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRoomID(%q): %v", test.raw, err)
			}
			if roomID.String() != test.raw {
				t.Errorf("String() = %q, want %q", roomID.String(), test.raw)
			}
		})
	}
}

func TestUserIDParts(t *testing.T) {
	userID := MustParseUserID("@whatsappbot:localhost")
	if got := userID.Localpart(); got != "whatsappbot" {
		t.Errorf("Localpart() = %q, want %q", got, "whatsappbot")
	}
	if got := userID.Server(); got != "localhost" {
		t.Errorf("Server() = %q, want %q", got, "localhost")
	}

	var zero UserID
	if !zero.IsZero() {
		t.Error("zero UserID should report IsZero")
	}
	if zero.Localpart() != "" || zero.Server() != "" {
		t.Error("zero UserID should have empty parts")
	}
}

func TestRoomIDAsMapKey(t *testing.T) {
	var decoded map[RoomID]int
	if err := json.Unmarshal([]byte(`{"!room:localhost": 7}`), &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got := decoded[MustParseRoomID("!room:localhost")]; got != 7 {
		t.Errorf("decoded value = %d, want 7", got)
	}

	const hashRoom = "!31hneApxJ_1o-63DmFrpeqnkFfWppnzWso1JvH3ogLM"
	if err := json.Unmarshal([]byte(`{"`+hashRoom+`": 3}`), &decoded); err != nil {
		t.Fatalf("Unmarshal with server-less room key: %v", err)
	}
	if got := decoded[MustParseRoomID(hashRoom)]; got != 3 {
		t.Errorf("decoded value for %s = %d, want 3", hashRoom, got)
	}

	if err := json.Unmarshal([]byte(`{"not-a-room": 1}`), &decoded); err == nil {
		t.Error("Unmarshal with invalid room key should fail")
	}
}

func TestUserIDJSON(t *testing.T) {
	var holder struct {
		Sender UserID `json:"sender"`
	}
	if err := json.Unmarshal([]byte(`{"sender":"@alice:localhost"}`), &holder); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if holder.Sender.String() != "@alice:localhost" {
		t.Errorf("Sender = %q", holder.Sender)
	}

	encoded, err := json.Marshal(holder)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(encoded) != `{"sender":"@alice:localhost"}` {
		t.Errorf("Marshal = %s", encoded)
	}
}
