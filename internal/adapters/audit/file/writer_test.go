package file

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/vshulcz/enginestats/internal/services/audit"
)

func TestWriter_Notify_AppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	w := New(path)
	events := []audit.Event{
		{Timestamp: 1, Keys: []string{"bing.score"}, Counters: 1, IPAddress: "127.0.0.1"},
		{Timestamp: 2, Keys: []string{"bing.time.total"}, Samples: 1},
	}
	for _, evt := range events {
		if err := w.Notify(context.Background(), evt); err != nil {
			t.Fatalf("Notify error: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Notify(context.Background(), audit.Event{Timestamp: 3}); err != nil {
		t.Fatalf("Notify after Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var got []audit.Event
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var evt audit.Event
		if err := json.Unmarshal(sc.Bytes(), &evt); err != nil {
			t.Fatalf("unmarshal %q: %v", sc.Text(), err)
		}
		got = append(got, evt)
	}
	if len(got) != 3 {
		t.Fatalf("lines = %d, want 3", len(got))
	}
	if got[0].IPAddress != "127.0.0.1" || got[1].Samples != 1 || got[2].Timestamp != 3 {
		t.Fatalf("decoded mismatch: %+v", got)
	}
}

func TestWriter_NoPath(t *testing.T) {
	if err := New("").Notify(context.Background(), audit.Event{}); err != nil {
		t.Fatalf("empty path must be a no-op, got %v", err)
	}
	var w *Writer
	if err := w.Close(); err != nil {
		t.Fatalf("nil Close: %v", err)
	}
}

func TestWriter_OpenError(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing", "audit.log"))
	if err := w.Notify(context.Background(), audit.Event{}); err == nil {
		t.Fatal("expected open error")
	}
}
