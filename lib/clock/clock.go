// Copyright 2026 The AgentRig Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock is the time surface the rig depends on. Every component that
// reads the clock or schedules work takes one of these instead of
// calling the time package, so tests can substitute [Fake].
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc waits for duration d, then calls f in its own
	// goroutine (real) or synchronously during Advance (fake). The
	// returned Timer cancels the pending call via Stop. If d <= 0,
	// f runs immediately.
	AfterFunc(d time.Duration, f func()) *Timer

	// NewTicker delivers ticks on its C channel every d. Panics if
	// d <= 0, matching time.NewTicker.
	NewTicker(d time.Duration) *Ticker
}

// Timer is a pending one-shot callback. The rig stores exactly one of
// these per commanded one-shot clip: the auto-idle transition. Stop it
// before superseding so two idle re-triggers never race.
type Timer struct {
	stop func() bool
}

// Stop cancels the pending callback. Returns true if this call
// prevented the callback from running, false if it already ran or was
// already stopped.
func (t *Timer) Stop() bool { return t.stop() }

// Ticker delivers periodic ticks on C. The channel has capacity 1; if
// the consumer falls behind, ticks are dropped rather than queued, so
// a stalled poll cycle never leaves a backlog of stale ticks to drain.
type Ticker struct {
	// C delivers ticks.
	C <-chan time.Time

	stop func()
}

// Stop turns the ticker off. C is not closed.
func (t *Ticker) Stop() { t.stop() }
