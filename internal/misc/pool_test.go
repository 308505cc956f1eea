package misc

import (
	"bytes"
	"sync"
	"testing"
)

func TestBufferPool_ReturnsEmptyBuffers(t *testing.T) {
	bp := NewBufferPool(0)

	buf := bp.Get()
	buf.WriteString(`[{"kind":"sample"}]`)
	bp.Put(buf)

	for range 3 {
		if got := bp.Get(); got.Len() != 0 {
			t.Fatalf("pooled buffer holds %q", got.String())
		}
	}
}

func TestBufferPool_DropsOversized(t *testing.T) {
	bp := NewBufferPool(64)

	big := bytes.NewBuffer(make([]byte, 0, 1024))
	big.WriteString("batch")
	bp.Put(big)
	if big.Len() != len("batch") {
		t.Fatalf("oversized buffer was reset: len=%d", big.Len())
	}

	small := bp.Get()
	if small.Cap() > 64 {
		t.Fatalf("oversized buffer came back from the pool: cap=%d", small.Cap())
	}
}

func TestBufferPool_PutNil(t *testing.T) {
	bp := NewBufferPool(0)
	bp.Put(nil)
	if bp.Get() == nil {
		t.Fatal("Get returned nil after Put(nil)")
	}
}

func TestBufferPool_Concurrent(t *testing.T) {
	bp := NewBufferPool(4096)

	var wg sync.WaitGroup
	for i := range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b := bp.Get()
			b.WriteByte(byte(i))
			bp.Put(b)
		}()
	}
	wg.Wait()
}
