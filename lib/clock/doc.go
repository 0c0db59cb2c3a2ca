// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts the two time operations the bridge needs,
// reading the current time and waiting for a duration, so the poll
// scheduler can be tested without wall-clock sleeps.
//
// Production code uses [Real]. Tests use [Fake], whose time moves only
// when [FakeClock.Advance] is called:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go scheduler.Run(ctx)        // registers a 2s wait
//	fake.WaitForTimers(1)        // block until the wait is registered
//	fake.Advance(2 * time.Second) // release it
package clock
