package queue

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/linuxmatters/flipbook/internal/frame"
)

func numbered(i int) *frame.Frame {
	f := frame.New()
	f.Index = i
	return f
}

func TestFrameQueue_FIFO(t *testing.T) {
	q := New(3, nil)

	for i := 0; i < 3; i++ {
		if !q.Put(numbered(i)) {
			t.Fatalf("Put(%d) failed", i)
		}
	}
	if q.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", q.Size())
	}

	for i := 0; i < 3; i++ {
		f, ok := q.Take()
		if !ok {
			t.Fatalf("Take %d failed", i)
		}
		if f.Index != i {
			t.Errorf("Take %d returned index %d", i, f.Index)
		}
	}
	if q.Size() != 0 {
		t.Errorf("Size() after drain = %d, want 0", q.Size())
	}
}

func TestFrameQueue_OfferRespectsCapacity(t *testing.T) {
	q := New(2, nil)

	if !q.Offer(numbered(0)) || !q.Offer(numbered(1)) {
		t.Fatal("Offer below capacity should succeed")
	}
	if q.Offer(numbered(2)) {
		t.Error("Offer on full queue should fail")
	}
	if q.Size() != 2 {
		t.Errorf("Size() = %d, want 2", q.Size())
	}
}

func TestFrameQueue_Panics(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"zero capacity", func() { New(0, nil) }},
		{"nil put", func() { New(1, nil).Put(nil) }},
		{"nil offer", func() { New(1, nil).Offer(nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			tt.fn()
		})
	}
}

func TestFrameQueue_PutBlocksWhenFull(t *testing.T) {
	q := New(1, nil)
	q.Put(numbered(0))

	done := make(chan bool)
	go func() {
		done <- q.Put(numbered(1))
	}()

	// Should be blocked
	select {
	case <-done:
		t.Fatal("Put should block on full queue")
	case <-time.After(50 * time.Millisecond):
	}

	if _, ok := q.Take(); !ok {
		t.Fatal("Take failed")
	}

	select {
	case ok := <-done:
		if !ok {
			t.Error("unblocked Put should succeed")
		}
	case <-time.After(time.Second):
		t.Fatal("Put did not unblock after Take")
	}
}

func TestFrameQueue_DestroyUnblocksWaiters(t *testing.T) {
	full := New(1, nil)
	full.Put(numbered(0))
	empty := New(1, nil)

	var wg sync.WaitGroup
	results := make(chan bool, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		results <- full.Put(numbered(1))
	}()
	go func() {
		defer wg.Done()
		_, ok := empty.Take()
		results <- ok
	}()

	time.Sleep(50 * time.Millisecond)
	full.Destroy()
	empty.Destroy()

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("waiters still blocked after Destroy")
	}

	close(results)
	for ok := range results {
		if ok {
			t.Error("operation waiting across Destroy should fail")
		}
	}
}

func TestFrameQueue_DestroyIsPermanent(t *testing.T) {
	var released atomic.Int32
	q := New(3, func(*frame.Frame) { released.Add(1) })
	q.Put(numbered(0))
	q.Put(numbered(1))

	q.Destroy()
	q.Destroy()

	if got := released.Load(); got != 2 {
		t.Errorf("released %d frames, want 2", got)
	}
	if !q.IsDestroyed() {
		t.Error("IsDestroyed() = false")
	}
	if q.Put(numbered(2)) {
		t.Error("Put after Destroy should fail")
	}
	if q.Offer(numbered(3)) {
		t.Error("Offer after Destroy should fail")
	}
	if f, ok := q.Take(); ok || f != nil {
		t.Error("Take after Destroy should fail immediately")
	}
	if q.Size() != 0 {
		t.Errorf("Size() = %d, want 0", q.Size())
	}
}

func TestFrameQueue_ResetDataReopens(t *testing.T) {
	var released atomic.Int32
	q := New(2, func(*frame.Frame) { released.Add(1) })

	taken := make(chan bool)
	go func() {
		_, ok := q.Take()
		taken <- ok
	}()
	time.Sleep(50 * time.Millisecond)

	q.ResetData()

	select {
	case ok := <-taken:
		if ok {
			t.Error("Take waiting across ResetData should fail")
		}
	case <-time.After(time.Second):
		t.Fatal("Take still blocked after ResetData")
	}

	q.Put(numbered(7))
	q.ResetData()
	if got := released.Load(); got != 1 {
		t.Errorf("released %d frames, want 1", got)
	}

	// Queue is usable again
	if !q.Put(numbered(8)) {
		t.Fatal("Put after ResetData should succeed")
	}
	f, ok := q.Take()
	if !ok || f.Index != 8 {
		t.Errorf("Take after ResetData = (%v, %v), want index 8", f, ok)
	}
	if q.IsDestroyed() {
		t.Error("ResetData should not destroy the queue")
	}
}

// TestFrameQueue_CapacityInvariant runs producers and consumers against a
// small queue and checks the count never exceeds the bound.
func TestFrameQueue_CapacityInvariant(t *testing.T) {
	const (
		capacity  = 3
		producers = 4
		perWorker = 500
	)
	q := New(capacity, nil)

	var violations atomic.Int32
	var wg sync.WaitGroup

	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				q.Put(numbered(p*perWorker + i))
				if q.Size() > capacity {
					violations.Add(1)
				}
			}
		}(p)
	}

	seen := make(map[int]bool)
	var mu sync.Mutex
	var consumers sync.WaitGroup
	for c := 0; c < 2; c++ {
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			for {
				f, ok := q.Take()
				if !ok {
					return
				}
				mu.Lock()
				seen[f.Index] = true
				done := len(seen) == producers*perWorker
				mu.Unlock()
				if done {
					q.Destroy()
					return
				}
			}
		}()
	}

	wg.Wait()
	consumers.Wait()

	if violations.Load() > 0 {
		t.Errorf("queue exceeded capacity %d times", violations.Load())
	}
	if len(seen) != producers*perWorker {
		t.Errorf("consumed %d frames, want %d", len(seen), producers*perWorker)
	}
}

// TestFrameQueue_PerProducerOrder checks a single producer's frames come
// out in the order they went in.
func TestFrameQueue_PerProducerOrder(t *testing.T) {
	q := New(3, nil)
	const n = 1000

	go func() {
		for i := 0; i < n; i++ {
			q.Put(numbered(i))
		}
	}()

	for i := 0; i < n; i++ {
		f, ok := q.Take()
		if !ok {
			t.Fatalf("Take %d failed", i)
		}
		if f.Index != i {
			t.Fatalf("Take %d returned %d", i, f.Index)
		}
	}
}

func BenchmarkFrameQueue_PutTake(b *testing.B) {
	q := New(3, nil)
	f := frame.New()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q.Put(f)
		q.Take()
	}
}
