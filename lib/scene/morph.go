// Copyright 2026 The AgentRig Authors
// SPDX-License-Identifier: Apache-2.0

package scene

import "strings"

// MorphSet holds one model's morph target channels: a name-to-index
// mapping and the per-index influence weights. Emotion application is
// exclusive: exactly one channel carries weight at a time.
//
// MorphSet is not safe for concurrent use on its own; the Stage
// serializes access.
type MorphSet struct {
	names   []string
	index   map[string]int
	weights []float64
}

// NewMorphSet builds a morph set from the asset's target names, which
// are already lower-cased by the parser.
func NewMorphSet(names []string) *MorphSet {
	set := &MorphSet{
		names:   append([]string(nil), names...),
		index:   make(map[string]int, len(names)),
		weights: make([]float64, len(names)),
	}
	for i, name := range names {
		set.index[name] = i
	}
	return set
}

// Apply zeroes every influence, then sets the channel matching the
// emotion name to the clamped intensity. Returns false when no channel
// matches; the weights are still zeroed so a stale expression never
// lingers under an unknown emotion.
func (m *MorphSet) Apply(emotion string, intensity float64) bool {
	for i := range m.weights {
		m.weights[i] = 0
	}

	channel, ok := m.index[strings.ToLower(emotion)]
	if !ok {
		return false
	}

	// The store deliberately passes intensity through unclamped; the
	// clamp belongs here, where the value becomes an influence.
	if intensity < 0 {
		intensity = 0
	} else if intensity > 1 {
		intensity = 1
	}
	m.weights[channel] = intensity
	return true
}

// Names returns the channel names in document order.
func (m *MorphSet) Names() []string {
	return append([]string(nil), m.names...)
}

// Weights returns a copy of the current influence weights, index-
// aligned with Names.
func (m *MorphSet) Weights() []float64 {
	return append([]float64(nil), m.weights...)
}
