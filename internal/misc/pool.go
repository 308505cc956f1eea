package misc

import (
	"bytes"
	"sync"
)

// BufferPool recycles body buffers between requests. Buffers that grew past
// maxKeep bytes are left to the GC so one large batch does not pin memory.
type BufferPool struct {
	p       sync.Pool
	maxKeep int
}

// NewBufferPool returns a pool that keeps buffers up to maxKeep bytes of capacity;
// maxKeep <= 0 keeps every buffer.
func NewBufferPool(maxKeep int) *BufferPool {
	bp := &BufferPool{maxKeep: maxKeep}
	bp.p.New = func() any { return new(bytes.Buffer) }
	return bp
}

// Get returns an empty buffer.
func (bp *BufferPool) Get() *bytes.Buffer {
	if b, ok := bp.p.Get().(*bytes.Buffer); ok {
		return b
	}
	return new(bytes.Buffer)
}

// Put empties b and hands it back; nil is ignored.
func (bp *BufferPool) Put(b *bytes.Buffer) {
	if b == nil {
		return
	}
	if bp.maxKeep > 0 && b.Cap() > bp.maxKeep {
		return
	}
	b.Reset()
	bp.p.Put(b)
}
