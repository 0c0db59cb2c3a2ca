// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package loginstate

import "fmt"

// AuthStatus is the authorization state of the bridge login.
type AuthStatus uint8

const (
	// StatusPending is the resting state between definitive signals.
	StatusPending AuthStatus = iota
	// StatusAuthorized means the bot reported a successful login.
	StatusAuthorized
	// StatusUnauthorized means the bot reported the scan timed out.
	StatusUnauthorized
)

// String returns the wire form served by /auth_status. Pending is the
// empty string.
func (s AuthStatus) String() string {
	switch s {
	case StatusPending:
		return ""
	case StatusAuthorized:
		return "authorized"
	case StatusUnauthorized:
		return "unauthorized"
	}
	return fmt.Sprintf("AuthStatus(%d)", uint8(s))
}

// Label is a human-readable name, used in logs and the terminal view
// where an empty string would be invisible.
func (s AuthStatus) Label() string {
	if s == StatusPending {
		return "pending"
	}
	return s.String()
}

// Valid reports whether s is one of the defined statuses.
func (s AuthStatus) Valid() bool {
	return s <= StatusUnauthorized
}

// ParseAuthStatus parses the wire form. "pending" is accepted as an
// alias for the empty string.
func ParseAuthStatus(raw string) (AuthStatus, error) {
	switch raw {
	case "", "pending":
		return StatusPending, nil
	case "authorized":
		return StatusAuthorized, nil
	case "unauthorized":
		return StatusUnauthorized, nil
	}
	return 0, fmt.Errorf("loginstate: unknown auth status %q", raw)
}

// MarshalText implements encoding.TextMarshaler.
func (s AuthStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("loginstate: cannot marshal %s", s)
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *AuthStatus) UnmarshalText(data []byte) error {
	parsed, err := ParseAuthStatus(string(data))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
