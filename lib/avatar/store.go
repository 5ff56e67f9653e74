// Copyright 2026 The AgentRig Authors
// SPDX-License-Identifier: Apache-2.0

package avatar

import "sync"

// Store owns the process-wide avatar state. Writes are serialized by
// an internal mutex so that each field-group write is atomic and a
// reader never observes a half-applied update. There is no versioning
// and no compare-and-swap: the last writer wins, by contract.
//
// All methods are safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	state State
}

// NewStore returns a store holding the initial avatar state.
func NewStore() *Store {
	return &Store{state: Initial()}
}

// Read returns a snapshot of the current state. The queue slice is
// copied so callers cannot alias the store's internal state.
func (s *Store) Read() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state
	if len(s.state.AnimationQueue) > 0 {
		snapshot.AnimationQueue = append([]QueueEntry(nil), s.state.AnimationQueue...)
	}
	return snapshot
}

// SetAnimation records an accepted play command: overwrites the
// current animation and appends the command to the queue.
func (s *Store) SetAnimation(cmd PlayCommand) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.CurrentAnimation = cmd.Name
	s.state.AnimationQueue = append(s.state.AnimationQueue, QueueEntry{
		Name:     cmd.Name,
		Loop:     cmd.Loop,
		Duration: cmd.Duration,
	})
}

// StopAnimation forces the idle sentinel and clears the queue.
func (s *Store) StopAnimation() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.CurrentAnimation = IdleAnimation
	s.state.AnimationQueue = nil
}

// SetEmotion overwrites the emotion target and intensity. The
// intensity is stored exactly as commanded, including values outside
// [0,1].
func (s *Store) SetEmotion(cmd EmotionCommand) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.CurrentEmotion = cmd.Name
	s.state.Intensity = cmd.Intensity
}

// SetModel overwrites the current model and resets the animation to
// the idle sentinel. A fresh model always starts in idle.
func (s *Store) SetModel(cmd ModelCommand) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.CurrentModel = cmd.Name
	s.state.CurrentAnimation = IdleAnimation
}

// ClearQueue empties the animation queue without touching any other
// field.
func (s *Store) ClearQueue() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.AnimationQueue = nil
}
