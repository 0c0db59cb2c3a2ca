// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strings"
)

// RoomID is a validated Matrix room ID (e.g., "!abc123:localhost", or
// "!31hneApxJ_1o-63DmFrpeqnkFfWppnzWso1JvH3ogLM" from room version 12
// onward, which has no server part).
//
// Room IDs are otherwise opaque: only the '!' sigil, a non-empty body,
// and the absence of whitespace are checked.
type RoomID struct {
	id string
}

// ParseRoomID validates and wraps a raw Matrix room ID string.
func ParseRoomID(raw string) (RoomID, error) {
	if err := checkSigil(raw, '!', "room ID"); err != nil {
		return RoomID{}, err
	}
	if len(raw) == 1 {
		return RoomID{}, fmt.Errorf("room ID has nothing after '!': %q", raw)
	}
	return RoomID{id: raw}, nil
}

// MustParseRoomID is ParseRoomID for constants and tests. Panics on
// invalid input.
func MustParseRoomID(raw string) RoomID {
	roomID, err := ParseRoomID(raw)
	if err != nil {
		panic(err)
	}
	return roomID
}

func (r RoomID) String() string { return r.id }

// IsZero reports whether the RoomID is unset.
func (r RoomID) IsZero() bool { return r.id == "" }

// MarshalText implements encoding.TextMarshaler.
func (r RoomID) MarshalText() ([]byte, error) {
	return []byte(r.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty input
// produces the zero value.
func (r *RoomID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*r = RoomID{}
		return nil
	}
	parsed, err := ParseRoomID(string(data))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// UserID is a validated Matrix user ID (e.g., "@whatsappbot:localhost").
type UserID struct {
	id string
}

// ParseUserID validates and wraps a raw Matrix user ID string.
func ParseUserID(raw string) (UserID, error) {
	_, _, err := parseSigilID(raw, '@', "user ID")
	if err != nil {
		return UserID{}, err
	}
	return UserID{id: raw}, nil
}

// MustParseUserID is ParseUserID for constants and tests. Panics on
// invalid input.
func MustParseUserID(raw string) UserID {
	userID, err := ParseUserID(raw)
	if err != nil {
		panic(err)
	}
	return userID
}

func (u UserID) String() string { return u.id }

// IsZero reports whether the UserID is unset.
func (u UserID) IsZero() bool { return u.id == "" }

// Localpart returns the part between '@' and the first ':'. Returns
// the empty string for the zero value.
func (u UserID) Localpart() string {
	localpart, _, _ := parseSigilID(u.id, '@', "user ID")
	return localpart
}

// Server returns the server name after the first ':'. Returns the
// empty string for the zero value.
func (u UserID) Server() string {
	_, server, _ := parseSigilID(u.id, '@', "user ID")
	return server
}

// MarshalText implements encoding.TextMarshaler.
func (u UserID) MarshalText() ([]byte, error) {
	return []byte(u.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty input
// produces the zero value.
func (u *UserID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*u = UserID{}
		return nil
	}
	parsed, err := ParseUserID(string(data))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// parseSigilID splits "<sigil>local:server" into its parts. Whitespace
// anywhere in the identifier is rejected: it is always a copy/paste
// accident on the command line.
func parseSigilID(raw string, sigil byte, kind string) (local, server string, err error) {
	if err := checkSigil(raw, sigil, kind); err != nil {
		return "", "", err
	}
	colonIndex := strings.IndexByte(raw, ':')
	if colonIndex < 0 {
		return "", "", fmt.Errorf("%s missing ':server' suffix: %q", kind, raw)
	}
	if colonIndex == 1 {
		return "", "", fmt.Errorf("%s has empty local part: %q", kind, raw)
	}
	if colonIndex == len(raw)-1 {
		return "", "", fmt.Errorf("%s has empty server name: %q", kind, raw)
	}
	return raw[1:colonIndex], raw[colonIndex+1:], nil
}

// checkSigil rejects empty identifiers, a wrong leading sigil, and
// whitespace anywhere in raw.
func checkSigil(raw string, sigil byte, kind string) error {
	if raw == "" {
		return fmt.Errorf("empty %s", kind)
	}
	if raw[0] != sigil {
		return fmt.Errorf("%s must start with '%c': %q", kind, sigil, raw)
	}
	if strings.ContainsAny(raw, " \t\r\n") {
		return fmt.Errorf("%s contains whitespace: %q", kind, raw)
	}
	return nil
}
