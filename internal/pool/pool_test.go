package pool

import (
	"sync"
	"testing"
)

func TestBufferPool_GetAllocatesOnMiss(t *testing.T) {
	p := New(2, 16)

	b := p.Get()
	if len(b.Data) != 16 {
		t.Fatalf("len(Data) = %d, want 16", len(b.Data))
	}
	if p.Size() != 0 {
		t.Errorf("Size() = %d, want 0", p.Size())
	}
}

func TestBufferPool_RecycleReuses(t *testing.T) {
	p := New(2, 16)

	b := p.Get()
	p.Recycle(b)

	if p.Size() != 1 {
		t.Fatalf("Size() after recycle = %d, want 1", p.Size())
	}

	got := p.Get()
	if got != b {
		t.Error("Get should return the recycled buffer")
	}
	if len(got.Data) != 16 {
		t.Errorf("recycled buffer len = %d, want 16", len(got.Data))
	}
}

func TestBufferPool_RecycleRejects(t *testing.T) {
	tests := []struct {
		name string
		buf  *BytesBuffer
	}{
		{"nil buffer", nil},
		{"smaller buffer", &BytesBuffer{Data: make([]byte, 8)}},
		{"larger buffer", &BytesBuffer{Data: make([]byte, 32)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(2, 16)
			p.Recycle(tt.buf)
			if p.Size() != 0 {
				t.Errorf("Size() = %d, want 0", p.Size())
			}
		})
	}
}

func TestBufferPool_BoundedAndClear(t *testing.T) {
	p := New(2, 4)
	for i := 0; i < 5; i++ {
		p.Recycle(&BytesBuffer{Data: make([]byte, 4)})
	}
	if p.Size() != 2 {
		t.Errorf("Size() = %d, want pool bound 2", p.Size())
	}

	p.Clear()
	if p.Size() != 0 {
		t.Errorf("Size() after Clear = %d, want 0", p.Size())
	}
}

func TestBufferPool_ConcurrentUse(t *testing.T) {
	p := New(4, 64)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				b := p.Get()
				b.Data[0] = byte(i)
				p.Recycle(b)
			}
		}()
	}
	wg.Wait()

	if p.Size() > 4 {
		t.Errorf("Size() = %d exceeds pool bound", p.Size())
	}
}
