// Copyright 2026 The AgentRig Authors
// SPDX-License-Identifier: Apache-2.0

// Package animation implements the viewer-side playback core: the
// per-model clip registry, a weighted crossfade mixer, and the state
// machine that turns commanded plays into smooth transitions with an
// automatic return to idle.
package animation

import "strings"

// Clip is a named animation sequence embedded in a model asset.
type Clip struct {
	// Name is the clip's registry key, lower-cased at registration.
	Name string

	// Duration is the clip's nominal length in seconds, taken from
	// the asset. Zero means unknown; the machine substitutes a
	// minimal duration for the auto-idle timer so one-shots still
	// settle.
	Duration float64
}

// Registry maps lower-cased clip names to clips for one loaded model.
// It is rebuilt from scratch on every model swap and is immutable
// afterwards; the derived idle-candidate set is computed once at build
// time. Insertion order is preserved because the idle fallback rule
// depends on it.
type Registry struct {
	order      []string
	clips      map[string]Clip
	candidates []string
}

// NewRegistry builds a registry from the asset's clips in their
// embedded order. Names are lower-cased; a duplicate name keeps its
// first position but takes the later clip's duration.
func NewRegistry(clips []Clip) *Registry {
	r := &Registry{clips: make(map[string]Clip, len(clips))}
	for _, clip := range clips {
		key := strings.ToLower(clip.Name)
		if _, seen := r.clips[key]; !seen {
			r.order = append(r.order, key)
		}
		clip.Name = key
		r.clips[key] = clip
	}
	for _, key := range r.order {
		if strings.Contains(key, "idle") {
			r.candidates = append(r.candidates, key)
		}
	}
	return r
}

// Lookup resolves a clip by name, case-insensitively.
func (r *Registry) Lookup(name string) (Clip, bool) {
	clip, ok := r.clips[strings.ToLower(name)]
	return clip, ok
}

// Len returns the number of registered clips.
func (r *Registry) Len() int { return len(r.order) }

// Names returns the registered clip names in insertion order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// IdleCandidates returns the clips whose names contain "idle", in
// insertion order.
func (r *Registry) IdleCandidates() []string {
	return append([]string(nil), r.candidates...)
}

// IdleClip selects the clip to play when nothing is commanded: the
// first idle candidate, else the first-registered clip. Returns false
// when the registry is empty, in which case the model stays in bind
// pose and nothing plays.
func (r *Registry) IdleClip() (Clip, bool) {
	if len(r.candidates) > 0 {
		return r.clips[r.candidates[0]], true
	}
	if len(r.order) > 0 {
		return r.clips[r.order[0]], true
	}
	return Clip{}, false
}
