// Copyright 2026 The AgentRig Authors
// SPDX-License-Identifier: Apache-2.0

// Package gltf reads the two facts AgentRig needs from a glTF 2.0
// asset: the embedded animation clips (name plus nominal duration)
// and the morph target names usable as emotion poses. It understands
// both the binary GLB container and bare .gltf JSON.
//
// This is not a scene loader. Geometry, materials, and buffer data
// are never decoded; clip durations come from the animation input
// accessors' declared max values, which the glTF spec requires for
// animation inputs.
package gltf

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"
)

// GLB container constants per the glTF 2.0 specification.
const (
	glbMagic     = 0x46546C67 // "glTF"
	glbVersion   = 2
	chunkJSON    = 0x4E4F534A // "JSON"
	headerLength = 12
)

// maxJSONChunk bounds the JSON chunk we are willing to parse. Real
// rig models carry kilobytes of JSON; anything beyond this is either
// corrupt or not a rig asset.
const maxJSONChunk = 64 << 20

// Clip is one embedded animation: its name (as authored, may be
// empty-adjusted to a synthetic name) and nominal duration in seconds.
type Clip struct {
	Name     string
	Duration float64
}

// Asset is the parsed metadata of one model file.
type Asset struct {
	// Clips lists the embedded animations in document order.
	Clips []Clip

	// MorphTargets lists morph target names in document order,
	// deduplicated across meshes, lower-cased for emotion matching.
	MorphTargets []string
}

// Parse reads a model asset from raw bytes, sniffing the container:
// GLB magic means binary container, anything else is treated as bare
// glTF JSON.
func Parse(data []byte) (*Asset, error) {
	if len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == glbMagic {
		jsonChunk, err := extractJSONChunk(data)
		if err != nil {
			return nil, err
		}
		return parseDocument(jsonChunk)
	}
	return parseDocument(data)
}

// extractJSONChunk validates the GLB header and returns the first
// JSON chunk's payload.
func extractJSONChunk(data []byte) ([]byte, error) {
	if len(data) < headerLength {
		return nil, fmt.Errorf("glb: truncated header: %d bytes", len(data))
	}
	version := binary.LittleEndian.Uint32(data[4:8])
	if version != glbVersion {
		return nil, fmt.Errorf("glb: unsupported container version %d", version)
	}
	declared := binary.LittleEndian.Uint32(data[8:12])
	if int(declared) > len(data) {
		return nil, fmt.Errorf("glb: declared length %d exceeds file size %d", declared, len(data))
	}

	offset := headerLength
	for offset+8 <= len(data) {
		chunkLength := binary.LittleEndian.Uint32(data[offset : offset+4])
		chunkType := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		payloadStart := offset + 8
		if chunkLength > maxJSONChunk {
			return nil, fmt.Errorf("glb: chunk of %d bytes exceeds limit", chunkLength)
		}
		payloadEnd := payloadStart + int(chunkLength)
		if payloadEnd > len(data) {
			return nil, fmt.Errorf("glb: chunk overruns file (%d > %d)", payloadEnd, len(data))
		}
		if chunkType == chunkJSON {
			return data[payloadStart:payloadEnd], nil
		}
		offset = payloadEnd
	}
	return nil, fmt.Errorf("glb: no JSON chunk found")
}

// document mirrors the subset of the glTF schema the rig reads.
type document struct {
	Asset struct {
		Version string `json:"version"`
	} `json:"asset"`
	Animations []struct {
		Name     string `json:"name"`
		Samplers []struct {
			Input int `json:"input"`
		} `json:"samplers"`
	} `json:"animations"`
	Accessors []struct {
		Max []float64 `json:"max"`
	} `json:"accessors"`
	Meshes []struct {
		Extras     meshExtras `json:"extras"`
		Primitives []struct {
			Extras meshExtras `json:"extras"`
		} `json:"primitives"`
	} `json:"meshes"`
}

// meshExtras carries morph target names. The exporter convention is
// extras.targetNames on the mesh; some exporters put it on the
// primitive or spell it target_names.
type meshExtras struct {
	TargetNames      []string `json:"targetNames"`
	TargetNamesSnake []string `json:"target_names"`
}

func (e meshExtras) names() []string {
	if len(e.TargetNames) > 0 {
		return e.TargetNames
	}
	return e.TargetNamesSnake
}

func parseDocument(data []byte) (*Asset, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("gltf: decoding document: %w", err)
	}
	if doc.Asset.Version == "" {
		return nil, fmt.Errorf("gltf: missing asset.version (not a glTF document)")
	}

	asset := &Asset{}

	for index, anim := range doc.Animations {
		name := anim.Name
		if name == "" {
			// Unnamed clips get deterministic synthetic names so
			// commands addressed to them resolve identically on
			// every viewer.
			name = fmt.Sprintf("animation_%d", index)
		}
		duration := 0.0
		for _, sampler := range anim.Samplers {
			if sampler.Input < 0 || sampler.Input >= len(doc.Accessors) {
				continue
			}
			max := doc.Accessors[sampler.Input].Max
			if len(max) > 0 && max[0] > duration {
				duration = max[0]
			}
		}
		asset.Clips = append(asset.Clips, Clip{Name: name, Duration: duration})
	}

	seen := make(map[string]bool)
	addTargets := func(names []string) {
		for _, name := range names {
			key := strings.ToLower(name)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			asset.MorphTargets = append(asset.MorphTargets, key)
		}
	}
	for _, mesh := range doc.Meshes {
		addTargets(mesh.Extras.names())
		for _, primitive := range mesh.Primitives {
			addTargets(primitive.Extras.names())
		}
	}

	return asset, nil
}
