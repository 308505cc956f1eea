// Package file appends audit events to a local JSON lines file.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/vshulcz/enginestats/internal/services/audit"
)

// Writer keeps the audit file open between events; Close releases it.
type Writer struct {
	f    *os.File
	enc  *json.Encoder
	path string
	mu   sync.Mutex
}

var _ audit.Observer = (*Writer)(nil)

// New returns a Writer for path. The file is created on the first event.
func New(path string) *Writer {
	return &Writer{path: path}
}

// Notify appends evt as one JSON line.
func (w *Writer) Notify(_ context.Context, evt audit.Event) error {
	if w == nil || w.path == "" {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.f == nil {
		f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("open audit file: %w", err)
		}
		w.f = f
		w.enc = json.NewEncoder(f)
	}
	if err := w.enc.Encode(evt); err != nil {
		return fmt.Errorf("write audit file: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file. The next Notify reopens it.
func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f, w.enc = nil, nil
	if err != nil {
		return fmt.Errorf("close audit file: %w", err)
	}
	return nil
}
