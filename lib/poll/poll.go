// Copyright 2026 The AgentRig Authors
// SPDX-License-Identifier: Apache-2.0

// Package poll implements the viewer's reconciliation loop: a fixed
// interval fetch of the server's avatar state, a per-field diff
// against the last observed snapshot, and delta dispatch to the
// animation, emotion, and model subsystems.
//
// Polling is deliberate. A push channel would need its own
// reconnect-and-replay machinery; diffing against last-seen state is
// idempotent, so a viewer that lost connectivity converges by simply
// polling again. The ticker is the retry mechanism: a failed fetch
// leaves the last-seen snapshot untouched and the same delta fires on
// the next tick once the server is back.
package poll

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ValyrianTech/AgentRig/lib/avatar"
	"github.com/ValyrianTech/AgentRig/lib/clock"
)

// DefaultInterval is the reference poll cadence: loose enough to
// avoid flooding the server, tight enough to feel responsive.
const DefaultInterval = 500 * time.Millisecond

// Fetcher retrieves the server's current avatar state.
type Fetcher interface {
	FetchState(ctx context.Context) (avatar.State, error)
}

// Handler consumes deltas. Implementations must not retain the
// strings beyond the call. Errors are logged by the client and do not
// stop the remaining fields of the same tick from dispatching.
type Handler interface {
	// PlayAnimation handles an observed animation change. The poll
	// channel does not carry the loop flag, so every poll-observed
	// play is one-shot; the state machine returns to idle on its own.
	PlayAnimation(name string) error

	// ApplyEmotion handles an observed emotion or intensity change.
	ApplyEmotion(name string, intensity float64) error

	// SwapModel handles an observed model change. May take long
	// (asset download); it must not block, or it will stall delta
	// handling for the other fields on following ticks.
	SwapModel(name string) error
}

// Client is one viewer's reconciler. Create with NewClient, then
// either drive it with Run (production) or call Sync per cycle
// (tests).
type Client struct {
	fetcher  Fetcher
	handler  Handler
	clk      clock.Clock
	interval time.Duration
	logger   *slog.Logger

	// syncMu admits one cycle at a time. An overlapping Sync call
	// (the ticker racing a manual resync) is skipped, not queued:
	// two cycles diffing against the same last-seen snapshot would
	// dispatch the same delta twice, and the slower one could write
	// an older snapshot back over a newer one.
	syncMu sync.Mutex

	mu       sync.Mutex
	lastSeen avatar.State
	healthy  bool
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// Fetcher retrieves state snapshots. Required.
	Fetcher Fetcher

	// Handler consumes deltas. Required.
	Handler Handler

	// Clock drives the poll ticker. Required.
	Clock clock.Clock

	// Interval is the poll cadence. Defaults to DefaultInterval.
	Interval time.Duration

	// Logger is the structured logger. Required.
	Logger *slog.Logger
}

// NewClient creates a reconciler whose last-seen snapshot is the zero
// state. The first successful fetch therefore dispatches the server's
// current model and emotion, which is exactly the bootstrap a fresh
// viewer needs.
func NewClient(config ClientConfig) *Client {
	if config.Fetcher == nil {
		panic("poll.Client: Fetcher is required")
	}
	if config.Handler == nil {
		panic("poll.Client: Handler is required")
	}
	if config.Clock == nil {
		panic("poll.Client: Clock is required")
	}
	if config.Logger == nil {
		panic("poll.Client: Logger is required")
	}
	interval := config.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	return &Client{
		fetcher:  config.Fetcher,
		handler:  config.Handler,
		clk:      config.Clock,
		interval: interval,
		logger:   config.Logger,
	}
}

// Run polls until ctx is cancelled. Ticks are processed one at a
// time on the calling goroutine; the ticker channel's capacity of one
// means ticks that arrive while a sync is still running are dropped,
// never queued, so delta application cannot reorder.
func (c *Client) Run(ctx context.Context) {
	ticker := c.clk.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sync(ctx)
		}
	}
}

// Sync performs one poll cycle: fetch, diff, dispatch, advance. A
// fetch failure is logged and leaves the last-seen snapshot alone so
// the pending delta retries next tick. Dispatch failures are logged
// per field and never stop the other fields. If another cycle is
// already in flight the call returns immediately without fetching.
func (c *Client) Sync(ctx context.Context) {
	if !c.syncMu.TryLock() {
		return
	}
	defer c.syncMu.Unlock()

	state, err := c.fetcher.FetchState(ctx)
	if err != nil {
		c.setHealthy(false)
		c.logger.Warn("poll fetch failed", "error", err)
		return
	}
	c.setHealthy(true)

	c.mu.Lock()
	last := c.lastSeen
	c.mu.Unlock()

	// Animation: a change to the idle sentinel is not dispatched.
	// The machine reaches idle on its own after any one-shot clip,
	// and re-triggering idle here would cut a running clip short.
	if state.CurrentAnimation != last.CurrentAnimation && state.CurrentAnimation != avatar.IdleAnimation {
		if err := c.handler.PlayAnimation(state.CurrentAnimation); err != nil {
			c.logger.Warn("animation delta rejected",
				"animation", state.CurrentAnimation,
				"error", err,
			)
		}
	}

	if state.CurrentEmotion != last.CurrentEmotion || state.Intensity != last.Intensity {
		if err := c.handler.ApplyEmotion(state.CurrentEmotion, state.Intensity); err != nil {
			c.logger.Warn("emotion delta rejected",
				"emotion", state.CurrentEmotion,
				"error", err,
			)
		}
	}

	if state.CurrentModel != last.CurrentModel {
		if err := c.handler.SwapModel(state.CurrentModel); err != nil {
			c.logger.Warn("model delta rejected",
				"model", state.CurrentModel,
				"error", err,
			)
		}
	}

	// Advance unconditionally, even when a dispatch failed: retrying
	// a rejected delta every tick forever would hammer the handler
	// with the same bad input. Only a fetch failure retries.
	c.mu.Lock()
	c.lastSeen = state
	c.mu.Unlock()
}

// LastSeen returns the snapshot from the most recent successful poll.
func (c *Client) LastSeen() avatar.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

// Healthy reports whether the most recent fetch succeeded.
func (c *Client) Healthy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.healthy
}

func (c *Client) setHealthy(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.healthy = v
}
