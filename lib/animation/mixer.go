// Copyright 2026 The AgentRig Authors
// SPDX-License-Identifier: Apache-2.0

package animation

import "sync"

// LoopMode selects what happens when an action's time reaches the end
// of its clip.
type LoopMode int

const (
	// LoopOnce plays the clip to its end and holds the last frame.
	LoopOnce LoopMode = iota

	// LoopRepeat wraps the clip time and plays indefinitely.
	LoopRepeat
)

// Action is one clip scheduled on the mixer: playback position plus a
// fade envelope. Two actions run concurrently during a crossfade (the
// outgoing clip fading out while the incoming fades in); the mixer
// retires an action once its fade-out completes.
//
// Action methods are not safe for concurrent use on their own; the
// Mixer serializes access.
type Action struct {
	clip    Clip
	loop    LoopMode
	time    float64
	playing bool

	// weight is the action's current blend weight in [0,1]. target
	// is where the fade is heading; rate is the weight change per
	// second (zero when no fade is in progress).
	weight float64
	target float64
	rate   float64

	// retired marks a fully faded-out action for removal on the next
	// Update.
	retired bool

	mixer *Mixer
}

// Reset rewinds the action to time zero with zero weight, ready for a
// fade-in.
func (a *Action) Reset() *Action {
	a.mixer.mu.Lock()
	defer a.mixer.mu.Unlock()
	a.time = 0
	a.weight = 0
	a.target = 0
	a.rate = 0
	a.retired = false
	return a
}

// SetLoopMode sets the loop policy.
func (a *Action) SetLoopMode(mode LoopMode) *Action {
	a.mixer.mu.Lock()
	defer a.mixer.mu.Unlock()
	a.loop = mode
	return a
}

// FadeIn ramps the weight from its current value to 1 over the given
// seconds. A non-positive duration snaps to full weight.
func (a *Action) FadeIn(seconds float64) *Action {
	a.mixer.mu.Lock()
	defer a.mixer.mu.Unlock()
	a.retired = false
	a.target = 1
	if seconds <= 0 {
		a.weight = 1
		a.rate = 0
		return a
	}
	a.rate = (1 - a.weight) / seconds
	return a
}

// FadeOut ramps the weight from its current value to 0 over the given
// seconds, then retires the action. A non-positive duration retires it
// immediately.
func (a *Action) FadeOut(seconds float64) *Action {
	a.mixer.mu.Lock()
	defer a.mixer.mu.Unlock()
	a.target = 0
	if seconds <= 0 || a.weight <= 0 {
		a.weight = 0
		a.rate = 0
		a.retired = true
		return a
	}
	a.rate = a.weight / seconds
	return a
}

// Play starts advancing the action's clip time on Update.
func (a *Action) Play() *Action {
	a.mixer.mu.Lock()
	defer a.mixer.mu.Unlock()
	a.playing = true
	return a
}

// ActionStatus is a render-time snapshot of one scheduled action.
type ActionStatus struct {
	Clip    Clip
	Time    float64
	Weight  float64
	Looping bool
	Playing bool
}

// Mixer owns the set of scheduled actions and advances them by frame
// deltas. Update must be called every rendered frame with the elapsed
// wall-clock seconds since the previous frame, regardless of poll
// activity, so playback speed is independent of both poll cadence and
// frame-rate variation.
//
// Mixer is safe for concurrent use: the state machine schedules
// actions from poll dispatches and timer callbacks while the render
// loop calls Update and Snapshot.
type Mixer struct {
	mu      sync.Mutex
	actions []*Action
}

// NewMixer returns an empty mixer.
func NewMixer() *Mixer { return &Mixer{} }

// Schedule creates an action for the clip and adds it to the mixer.
// The action starts paused at zero weight.
func (m *Mixer) Schedule(clip Clip) *Action {
	m.mu.Lock()
	defer m.mu.Unlock()
	action := &Action{clip: clip, mixer: m}
	m.actions = append(m.actions, action)
	return action
}

// Update advances clip times and fade envelopes by dt seconds and
// drops retired actions. Looping actions wrap; one-shot actions hold
// their final frame (the state machine's auto-idle timer handles the
// transition away, not the mixer).
func (m *Mixer) Update(dt float64) {
	if dt < 0 {
		dt = 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.actions[:0]
	for _, action := range m.actions {
		if action.playing {
			action.time += dt
			if action.clip.Duration > 0 {
				if action.loop == LoopRepeat {
					for action.time >= action.clip.Duration {
						action.time -= action.clip.Duration
					}
				} else if action.time > action.clip.Duration {
					action.time = action.clip.Duration
				}
			}
		}

		if action.rate > 0 {
			step := action.rate * dt
			if action.weight < action.target {
				action.weight += step
				if action.weight >= action.target {
					action.weight = action.target
					action.rate = 0
				}
			} else {
				action.weight -= step
				if action.weight <= action.target {
					action.weight = action.target
					action.rate = 0
					if action.target == 0 {
						action.retired = true
					}
				}
			}
		}

		if !action.retired {
			kept = append(kept, action)
		}
	}
	m.actions = kept
}

// Snapshot returns the current action states for rendering.
func (m *Mixer) Snapshot() []ActionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	statuses := make([]ActionStatus, 0, len(m.actions))
	for _, action := range m.actions {
		statuses = append(statuses, ActionStatus{
			Clip:    action.clip,
			Time:    action.time,
			Weight:  action.weight,
			Looping: action.loop == LoopRepeat,
			Playing: action.playing,
		})
	}
	return statuses
}

// StopAll discards every scheduled action. Called when the displayed
// model is detached during a swap: the old model's actions must not
// outlive it.
func (m *Mixer) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = nil
}
