// Copyright 2026 The AgentRig Authors
// SPDX-License-Identifier: Apache-2.0

// Package avatar defines the authoritative avatar state record, the
// command payloads that mutate it, and the serialized store that owns
// it. The server holds exactly one Store for its process lifetime;
// viewers receive State snapshots through the polling contract and
// never write back.
package avatar

// Sentinel values for State fields. These are wire constants: server
// and viewers interpret them by string comparison, so changing them
// breaks the polling contract.
const (
	// IdleAnimation means "no commanded animation"; viewers fall back
	// to their model's idle behavior.
	IdleAnimation = "idle"

	// NeutralEmotion is the default expression at process start.
	NeutralEmotion = "neutral"

	// DefaultModel is the model shown before any load command.
	DefaultModel = "robot"
)

// QueueEntry records one accepted play command. The queue is
// informational: agents can inspect what was commanded (including the
// loop flag and duration override that the poll payload's animation
// field does not carry), but the poll reconciler never reads it.
type QueueEntry struct {
	// Name is the commanded clip name.
	Name string `json:"name"`

	// Loop is the loop flag as issued. Only honored by the client
	// that issued the command; poll-observed plays are one-shot.
	Loop bool `json:"loop"`

	// Duration overrides the clip's nominal duration in seconds.
	// Nil means "use the clip's own duration".
	Duration *float64 `json:"duration"`
}

// State is the full avatar state. Fields are independently settable;
// there is no cross-field validation, each viewer subsystem
// interprets only its own field.
type State struct {
	// CurrentModel identifies the active model asset, without
	// extension. Resolution to a file (.glb then .gltf) happens in
	// the viewer's loader.
	CurrentModel string `json:"current_model"`

	// CurrentAnimation is the clip the avatar should be playing.
	// IdleAnimation is the no-command sentinel.
	CurrentAnimation string `json:"current_animation"`

	// CurrentEmotion is the expression target, matched against the
	// model's morph target names client-side.
	CurrentEmotion string `json:"current_emotion"`

	// Intensity is the emotion weight. The store accepts values
	// outside [0,1] as-is; clamping happens only when the value is
	// applied as a morph influence.
	Intensity float64 `json:"intensity"`

	// AnimationQueue lists accepted play commands since the last
	// stop/clear, oldest first.
	AnimationQueue []QueueEntry `json:"animation_queue"`
}

// Initial returns the state every server process starts from.
func Initial() State {
	return State{
		CurrentModel:     DefaultModel,
		CurrentAnimation: IdleAnimation,
		CurrentEmotion:   NeutralEmotion,
		Intensity:        1.0,
	}
}
