// Package snapshot persists the in-memory ledger to a JSON data file.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/StakePool-Labs/staking_layer/internal/app/storage"
	"github.com/StakePool-Labs/staking_layer/pkg/logger"
)

// File writes full-state snapshots to a single JSON file. Writes go through
// a temp file and rename so a crash never leaves a truncated data file.
type File struct {
	path   string
	source storage.Snapshotter
	log    *logger.Logger

	mu sync.Mutex
}

var _ storage.Persister = (*File)(nil)

// NewFile creates a persister writing to path.
func NewFile(path string, source storage.Snapshotter, log *logger.Logger) *File {
	if log == nil {
		log = logger.NewDefault("snapshot")
	}
	return &File{path: path, source: source, log: log}
}

// Persist captures the source state and writes it to disk.
func (f *File) Persist(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap, err := f.source.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("capture snapshot: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}

// Load restores state from disk into the source. A missing file is not an
// error; the store starts empty.
func (f *File) Load(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read data file: %w", err)
	}

	var snap storage.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode data file: %w", err)
	}
	if err := f.source.Restore(ctx, snap); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}

	f.log.WithField("path", f.path).
		WithField("users", len(snap.Users)).
		WithField("transactions", len(snap.Transactions)).
		Info("data file loaded")
	return nil
}
