// Package file saves store snapshots as JSON and loads them back.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vshulcz/enginestats/internal/domain"
)

// Restorer accepts a snapshot and reports how many entries it could not place.
type Restorer interface {
	Restore(ctx context.Context, snap domain.Snapshot) (int, error)
}

type Persister struct {
	path string
}

func New(path string) *Persister {
	return &Persister{path: path}
}

// Save replaces the file atomically.
func (p *Persister) Save(_ context.Context, s domain.Snapshot) error {
	return writeJSONAtomic(p.path, s)
}

// Restore feeds the saved snapshot to dst. A missing file is not an error.
func (p *Persister) Restore(ctx context.Context, dst Restorer) (skipped int, retErr error) {
	f, err := os.Open(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("open: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("close: %w", cerr)
		}
	}()

	var snap domain.Snapshot
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return 0, fmt.Errorf("decode: %w", err)
	}
	return dst.Restore(ctx, snap)
}

func writeJSONAtomic(path string, v any) (retErr error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
	}
	tmp, err := os.CreateTemp(dir, ".enginestats-*")
	if err != nil {
		return fmt.Errorf("create tmp: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := true
	closed := false
	defer func() {
		if !closed {
			if cerr := tmp.Close(); cerr != nil && retErr == nil {
				retErr = fmt.Errorf("close tmp: %w", cerr)
			}
		}
		if cleanup {
			if err := os.Remove(tmpName); err != nil && retErr == nil {
				retErr = fmt.Errorf("remove tmp: %w", err)
			}
		}
	}()
	if err := json.NewEncoder(tmp).Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close tmp: %w", err)
	}
	closed = true
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	cleanup = false
	return nil
}
