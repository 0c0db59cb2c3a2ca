// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package loginstate

import (
	"encoding/hex"
	"sync"
	"time"

	"github.com/zeebo/blake3"

	"github.com/bureau-foundation/qrlogin/lib/clock"
)

// State is a consistent snapshot of the store.
type State struct {
	// QRPayload is the body of the bot's latest image message. Empty
	// until the first one arrives.
	QRPayload string
	Status    AuthStatus
	// QRDigest is the hex BLAKE3-256 of QRPayload, empty when there is
	// no payload. Used as the /qrcode ETag.
	QRDigest string
	// QRUpdatedAt is when QRPayload last changed; zero if never set.
	QRUpdatedAt time.Time
	// Version increases by one on every observable change.
	Version uint64
}

// HasQR reports whether a QR payload has been received.
func (s State) HasQR() bool { return s.QRPayload != "" }

// Update is the outcome of interpreting one event. Status replaces the
// current status; QRPayload replaces the payload only when SetQR is
// true.
type Update struct {
	Status    AuthStatus
	SetQR     bool
	QRPayload string
}

// Digest returns the hex BLAKE3-256 of payload, or "" for an empty
// payload.
func Digest(payload string) string {
	if payload == "" {
		return ""
	}
	sum := blake3.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// Store is the guarded login state.
type Store struct {
	clock clock.Clock

	mu      sync.RWMutex
	state   State
	changed chan struct{}
}

// NewStore returns a store in the initial state: Pending, no payload.
func NewStore(clk clock.Clock) *Store {
	if clk == nil {
		panic("loginstate: NewStore requires a clock")
	}
	return &Store{
		clock:   clk,
		changed: make(chan struct{}),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Status returns the current authorization status.
func (s *Store) Status() AuthStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Status
}

// Changed returns a channel that is closed at the next observable
// change. Callers take a Snapshot after it fires and call Changed again
// for the following one.
func (s *Store) Changed() <-chan struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.changed
}

// Reset returns the status to Pending and leaves the payload alone.
// It reports whether the state changed.
func (s *Store) Reset() bool {
	_, changed := s.Commit(Update{Status: StatusPending})
	return changed
}

// Commit applies update in one critical section and returns the
// resulting state and whether anything observable changed. The update
// carries the whole tick's outcome (reset included), so readers see
// either the state before the tick or the state after it.
func (s *Store) Commit(update Update) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state
	next.Status = update.Status
	if update.SetQR && update.QRPayload != next.QRPayload {
		next.QRPayload = update.QRPayload
		next.QRDigest = Digest(update.QRPayload)
		next.QRUpdatedAt = s.clock.Now()
	}

	if next.Status == s.state.Status && next.QRPayload == s.state.QRPayload {
		return s.state, false
	}

	next.Version = s.state.Version + 1
	s.state = next
	close(s.changed)
	s.changed = make(chan struct{})
	return s.state, true
}
