// Copyright 2026 The AgentRig Authors
// SPDX-License-Identifier: Apache-2.0

// Package assetcache caches parsed model metadata on disk, keyed by
// the BLAKE3 digest of the raw asset bytes. A viewer that reloads a
// model it has seen before (page-reload equivalent: process restart)
// skips the glTF parse. Records are deterministic CBOR compressed
// with zstd; any unreadable record is a miss, never an error, because
// the cache can always be rebuilt from the asset itself.
package assetcache

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/blake3"

	"github.com/ValyrianTech/AgentRig/lib/codec"
	"github.com/ValyrianTech/AgentRig/lib/gltf"
)

// recordVersion is bumped when the record layout changes; mismatched
// records read as misses and get rewritten.
const recordVersion = 1

// record is the on-disk form of one parsed asset.
type record struct {
	Version      int      `cbor:"version"`
	Clips        []clip   `cbor:"clips"`
	MorphTargets []string `cbor:"morph_targets"`
}

type clip struct {
	Name     string  `cbor:"name"`
	Duration float64 `cbor:"duration"`
}

// Cache is a directory of asset metadata records. Safe for use by a
// single viewer process; records are written atomically so a crashed
// write never leaves a torn record for the next run.
type Cache struct {
	dir     string
	logger  *slog.Logger
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Open creates the cache directory if needed and returns a cache
// handle.
func Open(dir string, logger *slog.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("assetcache: creating %s: %w", dir, err)
	}
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("assetcache: zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("assetcache: zstd decoder: %w", err)
	}
	return &Cache{dir: dir, logger: logger, encoder: encoder, decoder: decoder}, nil
}

// Key returns the cache key for raw asset bytes: the hex BLAKE3
// digest. Content addressing means a re-exported model with the same
// name but different bytes never collides with its predecessor.
func Key(assetBytes []byte) string {
	sum := blake3.Sum256(assetBytes)
	return hex.EncodeToString(sum[:])
}

// Load returns the cached parse for key, or ok=false on any miss:
// absent, unreadable, wrong version, corrupt. Misses are logged at
// debug and the caller re-parses.
func (c *Cache) Load(key string) (*gltf.Asset, bool) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}

	raw, err := c.decoder.DecodeAll(data, nil)
	if err != nil {
		c.logger.Debug("asset cache record corrupt", "key", key, "error", err)
		return nil, false
	}

	var rec record
	if err := codec.Unmarshal(raw, &rec); err != nil {
		c.logger.Debug("asset cache record undecodable", "key", key, "error", err)
		return nil, false
	}
	if rec.Version != recordVersion {
		return nil, false
	}

	asset := &gltf.Asset{MorphTargets: rec.MorphTargets}
	for _, entry := range rec.Clips {
		asset.Clips = append(asset.Clips, gltf.Clip{Name: entry.Name, Duration: entry.Duration})
	}
	return asset, true
}

// Store writes the parsed asset under key. The write is atomic
// (temporary file then rename) so concurrent readers never observe a
// partial record.
func (c *Cache) Store(key string, asset *gltf.Asset) error {
	rec := record{Version: recordVersion, MorphTargets: asset.MorphTargets}
	for _, entry := range asset.Clips {
		rec.Clips = append(rec.Clips, clip{Name: entry.Name, Duration: entry.Duration})
	}

	raw, err := codec.Marshal(rec)
	if err != nil {
		return fmt.Errorf("assetcache: encoding record: %w", err)
	}
	compressed := c.encoder.EncodeAll(raw, nil)

	destination := c.path(key)
	temporary, err := os.CreateTemp(c.dir, "record-*")
	if err != nil {
		return fmt.Errorf("assetcache: creating temporary file: %w", err)
	}
	if _, err := temporary.Write(compressed); err != nil {
		temporary.Close()
		os.Remove(temporary.Name())
		return fmt.Errorf("assetcache: writing record: %w", err)
	}
	if err := temporary.Close(); err != nil {
		os.Remove(temporary.Name())
		return fmt.Errorf("assetcache: closing record: %w", err)
	}
	if err := os.Rename(temporary.Name(), destination); err != nil {
		os.Remove(temporary.Name())
		return fmt.Errorf("assetcache: installing record: %w", err)
	}
	return nil
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".meta.zst")
}
