package blobcache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var (
	// ErrClosed is returned by operations on a closed cache
	ErrClosed = errors.New("blob cache is closed")
	// ErrValueTooLarge is returned when a value can never fit a region
	ErrValueTooLarge = errors.New("value exceeds cache region size")
	// ErrCorrupt is returned when a stored record fails its checksum
	ErrCorrupt = errors.New("blob cache record is corrupt")
)

// Options bounds a cache. Each of the two regions holds at most MaxEntries
// records and MaxBytes bytes before writes move to the other region.
type Options struct {
	MaxEntries int
	MaxBytes   int64
	Version    uint32
}

// Stats reports the active region's usage
type Stats struct {
	Entries    int
	Bytes      int64
	Generation uint64
}

// Cache is a persistent key/value store for cached frame entries. Values
// are zstd compressed and written to the active region; when the region
// fills, the other region is emptied and becomes active, so the oldest
// half of the cache is evicted in one step.
type Cache struct {
	mu      sync.Mutex
	name    string
	opts    Options
	regions [2]*region
	active  int
	scratch []byte
	closed  bool
}

// regionPath returns the file for one region of a named, versioned cache.
// The version is part of the file identity, so bumping it orphans old data.
func regionPath(dir, name string, version uint32, idx int) string {
	return filepath.Join(dir, fmt.Sprintf("%s.v%d.%d.blob", name, version, idx))
}

// Open opens or creates the cache called name inside dir
func Open(dir, name string, opts Options) (*Cache, error) {
	if opts.MaxEntries <= 0 || opts.MaxBytes <= regionHeaderSize {
		return nil, fmt.Errorf("invalid cache limits: %d entries, %d bytes", opts.MaxEntries, opts.MaxBytes)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	c := &Cache{name: name, opts: opts}
	for i := range c.regions {
		r, err := openRegion(regionPath(dir, name, opts.Version, i), opts.Version)
		if err != nil {
			for _, opened := range c.regions[:i] {
				opened.close()
			}
			return nil, err
		}
		c.regions[i] = r
	}

	if c.regions[1].generation > c.regions[0].generation {
		c.active = 1
	}
	if c.regions[c.active].generation == 0 {
		// Fresh cache: stamp the active region so it outranks the other
		if err := c.regions[c.active].reset(opts.Version, 1); err != nil {
			c.Close()
			return nil, err
		}
	}

	return c, nil
}

// Lookup returns the value stored for key. A hit in the inactive region is
// copied forward into the active one so it survives the next flip.
func (c *Cache) Lookup(key uint64, buf []byte) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, false, ErrClosed
	}

	idx := c.active
	ref, ok := c.regions[idx].index[key]
	if !ok {
		idx = 1 - c.active
		if ref, ok = c.regions[idx].index[key]; !ok {
			return nil, false, nil
		}
	}

	r := c.regions[idx]
	stored, err := r.read(ref, c.scratch)
	if err != nil {
		delete(r.index, key)
		return nil, false, fmt.Errorf("read %s key %016x: %w", c.name, key, err)
	}
	c.scratch = stored[:0]

	value, err := decompress(buf[:0], stored)
	if err != nil {
		delete(r.index, key)
		return nil, false, fmt.Errorf("decompress %s key %016x: %w", c.name, key, errors.Join(ErrCorrupt, err))
	}
	if len(value) != int(ref.raw) {
		delete(r.index, key)
		return nil, false, fmt.Errorf("%s key %016x: %w", c.name, key, ErrCorrupt)
	}

	if idx != c.active {
		if err := c.appendLocked(key, stored, len(value)); err != nil {
			return value, true, fmt.Errorf("copy forward %s key %016x: %w", c.name, key, err)
		}
	}

	return value, true, nil
}

// Insert stores value under key, replacing any earlier value
func (c *Cache) Insert(key uint64, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	stored, err := compress(c.scratch[:0], value)
	if err != nil {
		return fmt.Errorf("compress %s key %016x: %w", c.name, key, err)
	}
	c.scratch = stored[:0]

	return c.appendLocked(key, stored, len(value))
}

func (c *Cache) appendLocked(key uint64, stored []byte, raw int) error {
	need := int64(recordHeaderSize + len(stored))
	if need+regionHeaderSize > c.opts.MaxBytes {
		return ErrValueTooLarge
	}

	r := c.regions[c.active]
	if len(r.index)+1 > c.opts.MaxEntries || r.size+need > c.opts.MaxBytes {
		if err := c.flipLocked(); err != nil {
			return err
		}
		r = c.regions[c.active]
	}

	if err := r.append(key, stored, raw); err != nil {
		return fmt.Errorf("append to %s: %w", r.path, err)
	}
	return nil
}

// flipLocked makes the inactive region the write target, discarding its
// previous contents
func (c *Cache) flipLocked() error {
	cur := c.regions[c.active]
	if err := cur.sync(); err != nil {
		return fmt.Errorf("sync %s: %w", cur.path, err)
	}

	next := c.regions[1-c.active]
	if err := next.reset(c.opts.Version, cur.generation+1); err != nil {
		return err
	}
	if err := next.file.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", next.path, err)
	}
	c.active = 1 - c.active
	return nil
}

// Sync flushes buffered records and fsyncs the active region
func (c *Cache) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	return c.regions[c.active].sync()
}

// Stats returns usage of the active region
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := c.regions[c.active]
	return Stats{Entries: len(r.index), Bytes: r.size, Generation: r.generation}
}

// Close flushes and closes both regions. Safe to call twice.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	for _, r := range c.regions {
		if r == nil {
			continue
		}
		if err := r.sync(); err != nil {
			errs = append(errs, err)
		}
		if err := r.close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
