package pool

import (
	"sync"
)

// BytesBuffer is a pooled byte slice. Data keeps the pool's size class
// while the buffer is in use.
type BytesBuffer struct {
	Data []byte
}

// BufferPool is a bounded free list of buffers of one size class.
// Buffers that no longer match the size class are dropped on Recycle.
type BufferPool struct {
	mu         sync.Mutex
	free       []*BytesBuffer
	poolSize   int
	bufferSize int
}

// New creates a pool keeping at most poolSize buffers of bufferSize bytes
func New(poolSize, bufferSize int) *BufferPool {
	if poolSize < 0 {
		poolSize = 0
	}
	return &BufferPool{
		free:       make([]*BytesBuffer, 0, poolSize),
		poolSize:   poolSize,
		bufferSize: bufferSize,
	}
}

// Get returns a pooled buffer, or a newly allocated one when the pool is empty
func (p *BufferPool) Get() *BytesBuffer {
	p.mu.Lock()
	n := len(p.free)
	if n > 0 {
		b := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		p.mu.Unlock()
		return b
	}
	p.mu.Unlock()

	return &BytesBuffer{Data: make([]byte, p.bufferSize)}
}

// Recycle returns b to the pool if it still has the pool's size class and
// there is room; otherwise the buffer is left to the garbage collector.
func (p *BufferPool) Recycle(b *BytesBuffer) {
	if b == nil || len(b.Data) != p.bufferSize {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) < p.poolSize {
		p.free = append(p.free, b)
	}
}

// Clear drops every pooled buffer
func (p *BufferPool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.free {
		p.free[i] = nil
	}
	p.free = p.free[:0]
}

// Size returns the number of buffers currently pooled
func (p *BufferPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// BufferSize returns the size class of the pool
func (p *BufferPool) BufferSize() int {
	return p.bufferSize
}
