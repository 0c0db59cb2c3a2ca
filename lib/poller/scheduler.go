// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package poller runs the login poll loop: fetch the newest event in
// the bridge management room, classify it, commit the result to the
// shared store, and stop once the bot has reported a successful login.
//
// Ticks run on a single goroutine and never overlap. The first tick is
// run synchronously by [Scheduler.Prime] before the HTTP server starts,
// so the first page load already reflects the room. [Scheduler.Run]
// then waits Interval between ticks on the injected clock.
//
// Authorization is observed one tick after it is committed: the tick
// that sees StatusAuthorized in the store returns without fetching and
// Run returns nil. The caller treats that as the signal to shut down.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/qrlogin/lib/clock"
	"github.com/bureau-foundation/qrlogin/lib/handshake"
	"github.com/bureau-foundation/qrlogin/lib/loginstate"
	"github.com/bureau-foundation/qrlogin/lib/ref"
	"github.com/bureau-foundation/qrlogin/messaging"
)

// DefaultInterval is the pause between ticks when Config.Interval is
// zero.
const DefaultInterval = 2 * time.Second

// Fetcher returns the newest event in the watched room.
// *messaging.Timeline implements it.
type Fetcher interface {
	Latest(ctx context.Context) (messaging.Event, error)
}

// FailurePolicy decides what a failed fetch does to the loop.
type FailurePolicy string

const (
	// FailTick logs the failure, leaves the status reset to Pending,
	// and keeps polling.
	FailTick FailurePolicy = "tick"
	// FailFatal stops the loop; Run returns the fetch error.
	FailFatal FailurePolicy = "fatal"
)

// ParseFailurePolicy validates a policy name from configuration. The
// empty string means FailTick.
func ParseFailurePolicy(raw string) (FailurePolicy, error) {
	switch FailurePolicy(raw) {
	case "":
		return FailTick, nil
	case FailTick, FailFatal:
		return FailurePolicy(raw), nil
	}
	return "", fmt.Errorf("poller: unknown fetch failure policy %q (want %q or %q)", raw, FailTick, FailFatal)
}

// Config holds the scheduler's collaborators.
type Config struct {
	Fetcher     Fetcher
	Store       *loginstate.Store
	Interpreter handshake.Interpreter

	// RoomID is only used to label log records.
	RoomID ref.RoomID

	// Interval between the end of one tick and the start of the next.
	Interval time.Duration
	// FetchTimeout bounds each fetch. Zero leaves only the HTTP
	// client's own timeout.
	FetchTimeout time.Duration

	FailurePolicy FailurePolicy

	Clock  clock.Clock
	Logger *slog.Logger
}

// Scheduler is the poll loop. Prime, Tick and Run must be called from
// one goroutine.
type Scheduler struct {
	fetcher      Fetcher
	store        *loginstate.Store
	interpreter  handshake.Interpreter
	roomID       ref.RoomID
	interval     time.Duration
	fetchTimeout time.Duration
	policy       FailurePolicy
	clock        clock.Clock
	logger       *slog.Logger

	primed bool
}

// New validates config and returns a scheduler. Missing collaborators
// are programming errors and panic.
func New(config Config) *Scheduler {
	if config.Fetcher == nil {
		panic("poller: Fetcher is required")
	}
	if config.Store == nil {
		panic("poller: Store is required")
	}
	if config.Clock == nil {
		panic("poller: Clock is required")
	}
	if config.Logger == nil {
		panic("poller: Logger is required")
	}

	interval := config.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	if interval < 0 {
		panic(fmt.Sprintf("poller: negative Interval %v", interval))
	}
	policy := config.FailurePolicy
	if policy == "" {
		policy = FailTick
	}

	return &Scheduler{
		fetcher:      config.Fetcher,
		store:        config.Store,
		interpreter:  config.Interpreter,
		roomID:       config.RoomID,
		interval:     interval,
		fetchTimeout: config.FetchTimeout,
		policy:       policy,
		clock:        config.Clock,
		logger:       config.Logger,
	}
}

// Tick runs one poll cycle. It returns terminated=true without
// fetching when the store is already authorized. Otherwise it fetches
// and commits the interpreted event together with the Pending reset in
// one store update. On a fetch error only the reset is committed and
// the error is returned; the failure policy is applied by the caller.
func (s *Scheduler) Tick(ctx context.Context) (terminated bool, err error) {
	if s.store.Status() == loginstate.StatusAuthorized {
		s.logger.Info("login authorized, stopping poll loop", "room_id", s.roomID)
		return true, nil
	}

	fetchCtx := ctx
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}

	event, err := s.fetcher.Latest(fetchCtx)
	if err != nil {
		before := s.store.Snapshot()
		if s.store.Reset() {
			s.logStatus(before.Status, loginstate.StatusPending)
		}
		return false, fmt.Errorf("poller: fetching latest event: %w", err)
	}

	update := s.interpreter.Interpret(loginstate.StatusPending, event)
	before := s.store.Snapshot()
	after, changed := s.store.Commit(update)
	if !changed {
		return false, nil
	}
	if after.QRDigest != before.QRDigest {
		s.logger.Info("QR code updated",
			"room_id", s.roomID,
			"event_id", event.EventID,
			"qr_digest", after.QRDigest,
		)
	}
	if after.Status != before.Status {
		s.logStatus(before.Status, after.Status)
	}
	return false, nil
}

func (s *Scheduler) logStatus(from, to loginstate.AuthStatus) {
	s.logger.Info("login status changed",
		"room_id", s.roomID,
		"from", from.Label(),
		"status", to.Label(),
	)
}

// Prime runs the first tick. Under FailTick a fetch error is logged
// and Prime returns nil; under FailFatal it is returned.
func (s *Scheduler) Prime(ctx context.Context) error {
	s.primed = true
	_, err := s.Tick(ctx)
	if err != nil {
		return s.handleFailure(ctx, err)
	}
	return nil
}

// Run primes the scheduler if Prime has not been called, then ticks
// every Interval. It returns nil once authorization is observed,
// ctx.Err() when ctx is cancelled, or the fetch error under FailFatal.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.primed {
		if err := s.Prime(ctx); err != nil {
			return err
		}
	}

	s.logger.Info("poll loop started",
		"room_id", s.roomID,
		"interval", s.interval,
		"fetch_failure", string(s.policy),
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(s.interval):
		}

		terminated, err := s.Tick(ctx)
		if terminated {
			return nil
		}
		if err != nil {
			if failure := s.handleFailure(ctx, err); failure != nil {
				return failure
			}
		}
	}
}

func (s *Scheduler) handleFailure(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if s.policy == FailFatal {
		s.logger.Error("fetch failed, stopping poll loop", "room_id", s.roomID, "error", err)
		return err
	}
	s.logger.Warn("fetch failed, will retry next tick",
		"room_id", s.roomID,
		"error", err,
		"interval", s.interval,
	)
	return nil
}
