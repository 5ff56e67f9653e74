// Copyright 2026 The AgentRig Authors
// SPDX-License-Identifier: Apache-2.0

package avatar

import "fmt"

// ValidationError reports a malformed command payload. The store is
// never touched when validation fails: the caller gets the error and
// no partial write happens.
type ValidationError struct {
	// Field is the offending payload field.
	Field string

	// Reason describes what is wrong with it.
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid command: field %q %s", e.Field, e.Reason)
}

// NotFoundError reports a target that does not exist: an unknown clip
// name at play time, or a model asset missing under every tried
// extension. The operation is a no-op on visible state; the previous
// good state stays on screen.
type NotFoundError struct {
	// Kind is what was looked up ("animation", "model").
	Kind string

	// Name is the identifier that failed to resolve.
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

// PlayCommand requests an animation clip. Any name is accepted; the
// server has no model-specific clip knowledge; viewers reject unknown
// names at play time.
type PlayCommand struct {
	Name string `json:"name"`

	// Loop repeats the clip until superseded. Defaults to false
	// (one-shot, auto-return to idle).
	Loop bool `json:"loop"`

	// Duration overrides the clip's nominal duration in seconds for
	// the one-shot auto-idle timer. Nil uses the clip's own duration.
	Duration *float64 `json:"duration"`
}

// Validate checks the payload shape. Clip existence is deliberately
// not checked; that knowledge lives client-side.
func (c *PlayCommand) Validate() error {
	if c.Name == "" {
		return &ValidationError{Field: "name", Reason: "must be non-empty"}
	}
	if c.Duration != nil && *c.Duration <= 0 {
		return &ValidationError{Field: "duration", Reason: "must be positive when set"}
	}
	return nil
}

// EmotionCommand sets the expression target. Intensity defaults to
// 1.0 when omitted; the JSON decoder in the handler applies that
// default before validation.
type EmotionCommand struct {
	Name      string  `json:"name"`
	Intensity float64 `json:"intensity"`
}

// Validate checks the payload shape. Intensity is intentionally not
// range-checked: callers are trusted, and the clamp happens at morph
// application time.
func (c *EmotionCommand) Validate() error {
	if c.Name == "" {
		return &ValidationError{Field: "name", Reason: "must be non-empty"}
	}
	return nil
}

// ModelCommand switches the displayed model. Existence on disk is
// resolved lazily by the viewer's fallback loader, not here.
type ModelCommand struct {
	Name string `json:"name"`
}

// Validate checks the payload shape.
func (c *ModelCommand) Validate() error {
	if c.Name == "" {
		return &ValidationError{Field: "name", Reason: "must be non-empty"}
	}
	return nil
}
