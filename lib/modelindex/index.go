// Copyright 2026 The AgentRig Authors
// SPDX-License-Identifier: Apache-2.0

// Package modelindex maintains a SQLite catalog of the avatar models
// available under the server's models directory. The server rescans
// on demand; the catalog survives restarts so model listings and
// digests are available without re-reading every file.
package modelindex

import (
	"context"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/ValyrianTech/AgentRig/lib/clock"
)

// indexedExtensions are the model file types the scanner picks up, in
// the order the viewer tries them.
var indexedExtensions = []string{".glb", ".gltf"}

const schema = `
	CREATE TABLE IF NOT EXISTS models (
		path       TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		extension  TEXT NOT NULL,
		size       INTEGER NOT NULL,
		modified   INTEGER NOT NULL,
		digest     TEXT NOT NULL,
		generation INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_models_name ON models(name);
`

// Entry is one indexed model file.
type Entry struct {
	// Path is the file path relative to the models directory.
	Path string

	// Name is the model name clients refer to: the filename stem,
	// lowercased.
	Name string

	// Extension is ".glb" or ".gltf".
	Extension string

	// Size is the file size in bytes.
	Size int64

	// Modified is the file modification time in Unix nanoseconds.
	Modified int64

	// Digest is the hex BLAKE3 digest of the file contents. Doubles
	// as the asset cache key for viewers that fetched this file.
	Digest string
}

// ScanStats summarizes one scan pass.
type ScanStats struct {
	Indexed int // files present after the scan
	Hashed  int // files whose contents were (re)hashed
	Removed int // stale rows deleted
}

// Config holds the parameters for opening a model index.
type Config struct {
	// Path is the SQLite database file. Use ":memory:" in tests.
	Path string

	// Dir is the models directory to scan.
	Dir string

	// Clock provides scan generation timestamps.
	Clock clock.Clock

	// Logger receives operational messages.
	Logger *slog.Logger
}

// Index is a catalog of model files backed by SQLite. Safe for
// concurrent use; writes are serialized by SQLite itself.
type Index struct {
	pool   *sqlitex.Pool
	dir    string
	clk    clock.Clock
	logger *slog.Logger
}

// Open opens or creates the index database and applies the schema.
// The caller must call Close when done.
func Open(cfg Config) (*Index, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("modelindex: Path is required")
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("modelindex: Dir is required")
	}
	if cfg.Clock == nil {
		return nil, fmt.Errorf("modelindex: Clock is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("modelindex: Logger is required")
	}

	poolSize := 4
	if cfg.Path == ":memory:" {
		// Each in-memory connection is an independent database, so
		// the pool must hold exactly one.
		poolSize = 1
	}

	pool, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize:    poolSize,
		PrepareConn: prepareConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("modelindex: opening %s: %w", cfg.Path, err)
	}

	index := &Index{
		pool:   pool,
		dir:    cfg.Dir,
		clk:    cfg.Clock,
		logger: cfg.Logger,
	}

	conn, err := pool.Take(context.Background())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("modelindex: take: %w", err)
	}
	err = sqlitex.ExecuteScript(conn, schema, nil)
	pool.Put(conn)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("modelindex: applying schema: %w", err)
	}

	index.logger.Info("model index opened", "path", cfg.Path, "dir", cfg.Dir)
	return index, nil
}

// prepareConnection applies the standard pragmas to a new connection.
func prepareConnection(conn *sqlite.Conn) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("modelindex: %s: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the underlying connection pool.
func (x *Index) Close() error {
	if err := x.pool.Close(); err != nil {
		return fmt.Errorf("modelindex: closing: %w", err)
	}
	return nil
}

// Scan walks the models directory and reconciles the catalog with
// what it finds. Files whose size and modification time are unchanged
// keep their stored digest; everything else is rehashed. Rows for
// files that no longer exist are deleted.
func (x *Index) Scan(ctx context.Context) (ScanStats, error) {
	conn, err := x.pool.Take(ctx)
	if err != nil {
		return ScanStats{}, fmt.Errorf("modelindex: scan: %w", err)
	}
	defer x.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return ScanStats{}, fmt.Errorf("modelindex: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	// Previous state, keyed by relative path, for change detection.
	type fileState struct {
		size     int64
		modified int64
		digest   string
	}
	previous := make(map[string]fileState)
	err = sqlitex.Execute(conn, "SELECT path, size, modified, digest FROM models", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			previous[stmt.ColumnText(0)] = fileState{
				size:     stmt.ColumnInt64(1),
				modified: stmt.ColumnInt64(2),
				digest:   stmt.ColumnText(3),
			}
			return nil
		},
	})
	if err != nil {
		return ScanStats{}, fmt.Errorf("modelindex: reading previous state: %w", err)
	}

	// The generation stamp must strictly increase across scans even
	// when the clock stands still or steps backwards, otherwise stale
	// rows from the previous scan survive the delete below.
	generation := x.clk.Now().UnixNano()
	var highest int64
	err = sqlitex.Execute(conn, "SELECT COALESCE(MAX(generation), 0) FROM models", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			highest = stmt.ColumnInt64(0)
			return nil
		},
	})
	if err != nil {
		return ScanStats{}, fmt.Errorf("modelindex: reading generation: %w", err)
	}
	if generation <= highest {
		generation = highest + 1
	}

	var stats ScanStats

	walkErr := filepath.WalkDir(x.dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		extension := strings.ToLower(filepath.Ext(entry.Name()))
		if !indexedExtension(extension) {
			return nil
		}

		relative, err := filepath.Rel(x.dir, path)
		if err != nil {
			return err
		}

		info, err := entry.Info()
		if err != nil {
			return err
		}
		size := info.Size()
		modified := info.ModTime().UnixNano()

		digest := ""
		if prior, known := previous[relative]; known && prior.size == size && prior.modified == modified {
			digest = prior.digest
		} else {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("hashing %s: %w", relative, err)
			}
			sum := blake3.Sum256(data)
			digest = hex.EncodeToString(sum[:])
			stats.Hashed++
		}

		name := strings.ToLower(strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())))
		stats.Indexed++

		return sqlitex.Execute(conn, `INSERT INTO models
			(path, name, extension, size, modified, digest, generation)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET
				name = excluded.name,
				extension = excluded.extension,
				size = excluded.size,
				modified = excluded.modified,
				digest = excluded.digest,
				generation = excluded.generation`,
			&sqlitex.ExecOptions{
				Args: []any{relative, name, extension, size, modified, digest, generation},
			})
	})
	if walkErr != nil {
		err = fmt.Errorf("modelindex: walking %s: %w", x.dir, walkErr)
		return ScanStats{}, err
	}

	// Rows that did not get this scan's generation are gone from disk.
	err = sqlitex.Execute(conn, "DELETE FROM models WHERE generation < ?", &sqlitex.ExecOptions{
		Args: []any{generation},
	})
	if err != nil {
		return ScanStats{}, fmt.Errorf("modelindex: removing stale rows: %w", err)
	}
	stats.Removed = conn.Changes()

	x.logger.Info("model scan complete",
		"indexed", stats.Indexed,
		"hashed", stats.Hashed,
		"removed", stats.Removed,
	)
	return stats, nil
}

// Names returns the distinct model names in the catalog, sorted.
func (x *Index) Names(ctx context.Context) ([]string, error) {
	conn, err := x.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("modelindex: names: %w", err)
	}
	defer x.pool.Put(conn)

	var names []string
	err = sqlitex.Execute(conn, "SELECT DISTINCT name FROM models ORDER BY name", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			names = append(names, stmt.ColumnText(0))
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("modelindex: names: %w", err)
	}
	return names, nil
}

// Lookup returns the indexed files for a model name, binary container
// first. Returns an empty slice when the model is unknown.
func (x *Index) Lookup(ctx context.Context, name string) ([]Entry, error) {
	conn, err := x.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("modelindex: lookup: %w", err)
	}
	defer x.pool.Put(conn)

	var entries []Entry
	err = sqlitex.Execute(conn, `SELECT path, name, extension, size, modified, digest
		FROM models WHERE name = ?
		ORDER BY CASE extension WHEN '.glb' THEN 0 ELSE 1 END`,
		&sqlitex.ExecOptions{
			Args: []any{strings.ToLower(name)},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				entries = append(entries, Entry{
					Path:      stmt.ColumnText(0),
					Name:      stmt.ColumnText(1),
					Extension: stmt.ColumnText(2),
					Size:      stmt.ColumnInt64(3),
					Modified:  stmt.ColumnInt64(4),
					Digest:    stmt.ColumnText(5),
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("modelindex: lookup %s: %w", name, err)
	}
	return entries, nil
}

func indexedExtension(extension string) bool {
	for _, candidate := range indexedExtensions {
		if extension == candidate {
			return true
		}
	}
	return false
}
