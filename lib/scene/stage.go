// Copyright 2026 The AgentRig Authors
// SPDX-License-Identifier: Apache-2.0

// Package scene owns the viewer's displayed model: the swap
// coordinator that loads a new asset with extension fallback and
// atomically replaces the old one, and the morph-target emotion
// applier. The rendering loop reads everything through Snapshot, so a
// swap is all-or-nothing from the renderer's perspective: no frame
// ever shows zero models or two.
package scene

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ValyrianTech/AgentRig/lib/animation"
	"github.com/ValyrianTech/AgentRig/lib/avatar"
	"github.com/ValyrianTech/AgentRig/lib/gltf"
)

// ExtensionOrder is the asset resolution order: the binary container
// first, then the JSON form as fallback.
var ExtensionOrder = []string{".glb", ".gltf"}

// Loader fetches and parses one model asset. Implementations decide
// where assets come from (the viewer uses HTTP against the server's
// static mount; tests use an in-memory map).
type Loader interface {
	// Load resolves name+extension to a parsed asset. A missing file
	// and a parse failure are equivalent to the caller: both trigger
	// the next extension.
	Load(ctx context.Context, name, extension string) (*gltf.Asset, error)
}

// Transform is the model's placement. Reset to Canonical on every
// swap so a new model never inherits the previous one's adjustments.
type Transform struct {
	Scale   float64
	X, Y, Z float64
}

// Canonical is the transform every freshly attached model gets.
func Canonical() Transform { return Transform{Scale: 1} }

// Model is one attached asset with its derived per-model state.
type Model struct {
	// Name is the model identifier, without extension.
	Name string

	// Source is the file the loader resolved, with extension.
	Source string

	// Transform is the model's placement.
	Transform Transform

	registry *animation.Registry
	morphs   *MorphSet
}

// Stage coordinates the displayed model, the animation machine, and
// emotion application. All mutation goes through Stage methods; the
// render loop calls Update and Snapshot.
type Stage struct {
	loader  Loader
	machine *animation.Machine
	mixer   *animation.Mixer
	logger  *slog.Logger

	// swapMu serializes swaps end to end, including the load, so two
	// model deltas can never interleave their attach sequences. The
	// stage lock (mu) is NOT held during the load: animation and
	// emotion deltas keep flowing to the old model while an asset
	// downloads.
	swapMu sync.Mutex

	mu        sync.Mutex
	model     *Model
	emotion   string
	intensity float64
	swapping  bool
}

// StageConfig configures a Stage.
type StageConfig struct {
	// Loader resolves model assets. Required.
	Loader Loader

	// Machine is the animation state machine. Required.
	Machine *animation.Machine

	// Mixer is the shared action mixer. Required.
	Mixer *animation.Mixer

	// Logger is the structured logger. Required.
	Logger *slog.Logger
}

// NewStage creates a stage with no model attached. The first
// successful Swap attaches one.
func NewStage(config StageConfig) *Stage {
	if config.Loader == nil {
		panic("scene.Stage: Loader is required")
	}
	if config.Machine == nil {
		panic("scene.Stage: Machine is required")
	}
	if config.Mixer == nil {
		panic("scene.Stage: Mixer is required")
	}
	if config.Logger == nil {
		panic("scene.Stage: Logger is required")
	}
	return &Stage{
		loader:    config.Loader,
		machine:   config.Machine,
		mixer:     config.Mixer,
		logger:    config.Logger,
		emotion:   avatar.NeutralEmotion,
		intensity: 1.0,
	}
}

// Swap loads the named model and replaces the displayed one. The
// primary extension is tried first, the fallback once on any load
// failure. When both fail the previous model stays attached and
// visible, and a NotFoundError is returned.
func (s *Stage) Swap(ctx context.Context, name string) error {
	s.swapMu.Lock()
	defer s.swapMu.Unlock()

	s.setSwapping(true)
	defer s.setSwapping(false)

	var asset *gltf.Asset
	var source string
	var lastErr error
	for _, extension := range ExtensionOrder {
		loaded, err := s.loader.Load(ctx, name, extension)
		if err != nil {
			s.logger.Warn("model load attempt failed",
				"model", name,
				"extension", extension,
				"error", err,
			)
			lastErr = err
			continue
		}
		asset = loaded
		source = name + extension
		break
	}
	if asset == nil {
		return fmt.Errorf("swap abandoned, keeping current model: %w: %w",
			&avatar.NotFoundError{Kind: "model", Name: name}, lastErr)
	}

	registryClips := make([]animation.Clip, len(asset.Clips))
	for i, clip := range asset.Clips {
		registryClips[i] = animation.Clip{Name: clip.Name, Duration: clip.Duration}
	}
	registry := animation.NewRegistry(registryClips)
	morphs := NewMorphSet(asset.MorphTargets)

	// Attach sequence, atomic under the stage lock: detach the old
	// model (its actions die with it), attach the new one at the
	// canonical transform, rebuild registry-derived state, and start
	// idle so the model is never left frozen in bind pose.
	s.mu.Lock()
	s.mixer.StopAll()
	s.model = &Model{
		Name:      name,
		Source:    source,
		Transform: Canonical(),
		registry:  registry,
		morphs:    morphs,
	}
	s.machine.SetRegistry(registry)
	s.machine.StartIdle()

	// Carry the current expression onto the new model; a model
	// without the matching morph channel simply shows neutral.
	s.model.morphs.Apply(s.emotion, s.intensity)
	s.mu.Unlock()

	s.logger.Info("model attached",
		"model", name,
		"source", source,
		"clips", registry.Len(),
		"morph_targets", len(asset.MorphTargets),
	)
	return nil
}

// PlayAnimation forwards a commanded play to the state machine.
// Before any model is attached the registry is empty and every name
// is unknown.
func (s *Stage) PlayAnimation(name string, loop bool, durationOverride *float64) error {
	return s.machine.Play(name, loop, durationOverride)
}

// ApplyEmotion records the expression target and applies it to the
// attached model's morph set. An emotion with no matching morph
// channel is a visual no-op, but the label still advances, matching
// the polling contract.
func (s *Stage) ApplyEmotion(name string, intensity float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.emotion = name
	s.intensity = intensity
	if s.model == nil {
		return
	}
	if !s.model.morphs.Apply(name, intensity) {
		s.logger.Debug("emotion has no morph target on current model",
			"emotion", name,
			"model", s.model.Name,
		)
	}
}

// Update advances the mixer by dt seconds. Called once per rendered
// frame with the measured wall-clock delta.
func (s *Stage) Update(dt float64) {
	s.mixer.Update(dt)
}

// Status is a render-time view of the stage.
type Status struct {
	// ModelName and ModelSource identify the attached model; empty
	// until the first successful swap.
	ModelName   string
	ModelSource string
	Transform   Transform

	// Actions is the mixer state: active clips with fade weights.
	Actions []animation.ActionStatus

	// Emotion and Intensity are the last applied expression command.
	Emotion   string
	Intensity float64

	// MorphNames and MorphWeights are index-aligned influence
	// channels of the attached model.
	MorphNames   []string
	MorphWeights []float64

	// Swapping is true while a model load is in flight. The previous
	// model keeps rendering meanwhile.
	Swapping bool
}

// Snapshot returns the current stage state for rendering.
func (s *Stage) Snapshot() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{
		Emotion:   s.emotion,
		Intensity: s.intensity,
		Actions:   s.mixer.Snapshot(),
		Swapping:  s.swapping,
	}
	if s.model != nil {
		status.ModelName = s.model.Name
		status.ModelSource = s.model.Source
		status.Transform = s.model.Transform
		status.MorphNames = s.model.morphs.Names()
		status.MorphWeights = s.model.morphs.Weights()
	}
	return status
}

func (s *Stage) setSwapping(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swapping = v
}
