// Copyright 2026 The AgentRig Authors
// SPDX-License-Identifier: Apache-2.0

package animation

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ValyrianTech/AgentRig/lib/avatar"
	"github.com/ValyrianTech/AgentRig/lib/clock"
)

// DefaultFadeDuration is the crossfade length used when the config
// leaves it zero. Matches the reference viewer's 0.3s fade.
const DefaultFadeDuration = 300 * time.Millisecond

// minAutoIdleDuration stands in for a clip whose asset reports no
// duration, so a one-shot play of such a clip still settles to idle.
const minAutoIdleDuration = 100 * time.Millisecond

// Machine is the per-viewer animation state machine. It is either
// idle (playing the registry's idle clip on repeat, or bind pose when
// the registry is empty) or playing a commanded clip. Transitions are
// crossfades on the mixer; a non-looping commanded clip schedules a
// single cancelable timer that returns to idle at the clip's nominal
// duration.
//
// Machine is safe for concurrent use: plays arrive from the poll
// dispatcher while the auto-idle timer fires from the clock.
type Machine struct {
	clk    clock.Clock
	mixer  *Mixer
	fade   time.Duration
	logger *slog.Logger

	mu       sync.Mutex
	registry *Registry
	current  *Action
	name     string
	looping  bool
	idle     bool

	// autoIdle is the pending one-shot-to-idle transition. At most
	// one exists; Play stops it before superseding so two idle
	// re-triggers never race.
	autoIdle *clock.Timer
}

// MachineConfig configures a Machine.
type MachineConfig struct {
	// Clock schedules the auto-idle timer. Required.
	Clock clock.Clock

	// Mixer hosts the clip actions. Required.
	Mixer *Mixer

	// FadeDuration is the crossfade length. Defaults to
	// DefaultFadeDuration if zero.
	FadeDuration time.Duration

	// Logger is the structured logger. Required.
	Logger *slog.Logger
}

// NewMachine creates a state machine with an empty registry. Call
// SetRegistry and StartIdle once a model is loaded.
func NewMachine(config MachineConfig) *Machine {
	if config.Clock == nil {
		panic("animation.Machine: Clock is required")
	}
	if config.Mixer == nil {
		panic("animation.Machine: Mixer is required")
	}
	if config.Logger == nil {
		panic("animation.Machine: Logger is required")
	}
	fade := config.FadeDuration
	if fade == 0 {
		fade = DefaultFadeDuration
	}
	return &Machine{
		clk:      config.Clock,
		mixer:    config.Mixer,
		fade:     fade,
		logger:   config.Logger,
		registry: NewRegistry(nil),
	}
}

// SetRegistry installs the clip registry for a freshly loaded model
// and forgets the old model's playback state. The caller has already
// cleared the mixer (the old model is detached before this is called).
func (m *Machine) SetRegistry(registry *Registry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancelAutoIdleLocked()
	m.registry = registry
	m.current = nil
	m.name = ""
	m.looping = false
	m.idle = false
}

// StartIdle enters idle behavior: fades in the registry's idle clip on
// repeat. With an empty registry nothing plays and the model shows its
// bind pose.
func (m *Machine) StartIdle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enterIdleLocked()
}

// Play transitions to the named clip. Unknown names return a
// NotFoundError and leave playback untouched. durationOverride, when
// non-nil, replaces the clip's nominal duration for the auto-idle
// timer of a one-shot play.
func (m *Machine) Play(name string, loop bool, durationOverride *float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clip, ok := m.registry.Lookup(name)
	if !ok {
		return &avatar.NotFoundError{Kind: "animation", Name: name}
	}

	// Supersede: the pending auto-idle (if any) must die before the
	// new clip starts, or it would yank playback back to idle
	// mid-clip.
	m.cancelAutoIdleLocked()
	m.startClipLocked(clip, loop)

	if !loop {
		duration := clip.Duration
		if durationOverride != nil {
			duration = *durationOverride
		}
		wait := time.Duration(duration * float64(time.Second))
		if wait < minAutoIdleDuration {
			wait = minAutoIdleDuration
		}
		action := m.current
		m.autoIdle = m.clk.AfterFunc(wait, func() { m.autoIdleFired(action) })
	}

	m.logger.Debug("animation transition",
		"clip", clip.Name,
		"loop", loop,
	)
	return nil
}

// Current reports the active clip name and loop flag. ok is false in
// bind pose (nothing playing).
func (m *Machine) Current() (name string, looping bool, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return "", false, false
	}
	return m.name, m.looping, true
}

// Idle reports whether the machine is in idle behavior (including
// bind pose).
func (m *Machine) Idle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current == nil || m.idle
}

// autoIdleFired is the deferred one-shot completion. The action guard
// handles the window where the timer fires concurrently with a
// superseding Play: by the time we hold the lock, a supersede has
// replaced m.current and the transition must not run.
func (m *Machine) autoIdleFired(action *Action) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != action {
		return
	}
	m.autoIdle = nil
	m.enterIdleLocked()
}

// enterIdleLocked crossfades into the idle clip per the selection
// rule: first idle candidate, else first-registered clip, else bind
// pose.
func (m *Machine) enterIdleLocked() {
	clip, ok := m.registry.IdleClip()
	if !ok {
		if m.current != nil {
			m.current.FadeOut(m.fade.Seconds())
			m.current = nil
			m.name = ""
		}
		m.idle = true
		return
	}
	m.startClipLocked(clip, true)
	m.idle = true
}

// startClipLocked performs the crossfade: the outgoing action fades
// out while the incoming one resets, fades in, and plays. Both fades
// run concurrently on the mixer so there is no pop or freeze frame.
func (m *Machine) startClipLocked(clip Clip, loop bool) {
	fadeSeconds := m.fade.Seconds()
	if m.current != nil {
		m.current.FadeOut(fadeSeconds)
	}

	mode := LoopOnce
	if loop {
		mode = LoopRepeat
	}
	action := m.mixer.Schedule(clip)
	action.Reset().SetLoopMode(mode).FadeIn(fadeSeconds).Play()

	m.current = action
	m.name = clip.Name
	m.looping = loop
	m.idle = false
}

// cancelAutoIdleLocked stops the pending auto-idle transition, if
// any. Exactly-once: the timer handle is dropped whether or not Stop
// won the race, and autoIdleFired's action guard covers the loss.
func (m *Machine) cancelAutoIdleLocked() {
	if m.autoIdle != nil {
		m.autoIdle.Stop()
		m.autoIdle = nil
	}
}
