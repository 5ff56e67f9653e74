// Copyright 2026 The AgentRig Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake returns a deterministic clock initialized to the given time.
// Time stands still until Advance is called; pending timers and
// tickers fire, in deadline order, when the clock moves past their
// deadline. Safe for concurrent use.
func Fake(initial time.Time) *FakeClock {
	c := &FakeClock{current: initial}
	c.registered = sync.NewCond(&c.mu)
	return c
}

// FakeClock implements Clock with manually driven time. AfterFunc
// callbacks run synchronously inside Advance, so a test that advances
// past the auto-idle deadline observes the idle transition before
// Advance returns. Do not call Advance from inside a callback.
type FakeClock struct {
	mu         sync.Mutex
	current    time.Time
	pending    []*pendingTimer
	registered *sync.Cond
}

// pendingTimer is a scheduled AfterFunc callback or ticker tick.
type pendingTimer struct {
	deadline time.Time

	// callback is set for AfterFunc entries.
	callback func()

	// channel and interval are set for ticker entries. After firing,
	// the entry is rescheduled at deadline + interval.
	channel  chan time.Time
	interval time.Duration

	stopped bool
	fired   bool
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// AfterFunc schedules f to run when the clock advances past d from
// now. If d <= 0, f runs synchronously before AfterFunc returns.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	if d <= 0 {
		f()
		return &Timer{stop: func() bool { return false }}
	}

	c.mu.Lock()
	entry := &pendingTimer{deadline: c.current.Add(d), callback: f}
	c.pending = append(c.pending, entry)
	c.registered.Broadcast()
	c.mu.Unlock()

	return &Timer{stop: func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		if entry.stopped || entry.fired {
			return false
		}
		entry.stopped = true
		return true
	}}
}

// NewTicker returns a ticker driven by Advance. Panics if d <= 0.
func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}

	c.mu.Lock()
	channel := make(chan time.Time, 1)
	entry := &pendingTimer{
		deadline: c.current.Add(d),
		channel:  channel,
		interval: d,
	}
	c.pending = append(c.pending, entry)
	c.registered.Broadcast()
	c.mu.Unlock()

	return &Ticker{
		C: channel,
		stop: func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			entry.stopped = true
		},
	}
}

// Advance moves the clock forward by d and fires everything whose
// deadline falls within the new time, in deadline order. Ticker sends
// are non-blocking (drop-if-full, matching time.Ticker); callbacks run
// in the calling goroutine. A callback that schedules a new timer
// within the advanced window fires in the same Advance call.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	target := c.current
	c.mu.Unlock()

	for {
		expired := c.takeExpired(target)
		if len(expired) == 0 {
			return
		}

		sort.Slice(expired, func(i, j int) bool {
			return expired[i].deadline.Before(expired[j].deadline)
		})

		for _, entry := range expired {
			if entry.callback != nil {
				entry.callback()
				continue
			}
			select {
			case entry.channel <- target:
			default:
			}
		}
	}
}

// takeExpired removes entries due at or before target, rescheduling
// tickers for their next interval.
func (c *FakeClock) takeExpired(target time.Time) []*pendingTimer {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expired, remaining []*pendingTimer
	for _, entry := range c.pending {
		switch {
		case entry.stopped:
			// Dropped.
		case !entry.deadline.After(target):
			expired = append(expired, entry)
		default:
			remaining = append(remaining, entry)
		}
	}

	for _, entry := range expired {
		if entry.interval > 0 {
			entry.deadline = entry.deadline.Add(entry.interval)
			remaining = append(remaining, entry)
		} else {
			entry.fired = true
		}
	}

	c.pending = remaining
	return expired
}

// WaitForTimers blocks until at least n timers or tickers are pending.
// Use this before Advance when the code under test registers its
// timers from another goroutine.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.activeLocked() < n {
		c.registered.Wait()
	}
}

// PendingCount returns the number of active pending timers and
// tickers. Useful for asserting that a supersede cancelled the
// auto-idle timer.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeLocked()
}

func (c *FakeClock) activeLocked() int {
	count := 0
	for _, entry := range c.pending {
		if !entry.stopped && !entry.fired {
			count++
		}
	}
	return count
}
