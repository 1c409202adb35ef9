package framecache

import (
	"sync"
)

// memStore is an in-memory Store for tests
type memStore struct {
	mu      sync.Mutex
	values  map[uint64][]byte
	inserts int
	syncs   int
}

func newMemStore() *memStore {
	return &memStore{values: make(map[uint64][]byte)}
}

func (s *memStore) Lookup(key uint64, buf []byte) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	if cap(buf) >= len(v) {
		buf = buf[:len(v)]
	} else {
		buf = make([]byte, len(v))
	}
	copy(buf, v)
	return buf, true, nil
}

func (s *memStore) Insert(key uint64, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = append([]byte(nil), value...)
	s.inserts++
	return nil
}

func (s *memStore) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncs++
	return nil
}

func (s *memStore) Close() error { return nil }
