package framecache

import (
	"encoding/binary"
	"fmt"

	"github.com/linuxmatters/flipbook/internal/config"
	"github.com/linuxmatters/flipbook/internal/frame"
	"github.com/linuxmatters/flipbook/internal/pool"
)

// Store is the blob store contract the cache protocol runs over
type Store interface {
	// Lookup returns the value for key. The value is read into buf when it
	// fits, otherwise a new slice is allocated.
	Lookup(key uint64, buf []byte) ([]byte, bool, error)
	Insert(key uint64, value []byte) error
	Sync() error
	Close() error
}

// LoadResult describes the outcome of a cache load
type LoadResult struct {
	Hit         bool
	Reallocated bool // The destination frame needed a new pixel buffer
}

// Codec moves frames in and out of a Store using pooled scratch buffers.
// A Codec belongs to one goroutine; the decode worker owns the engine's.
type Codec struct {
	entries *pool.BufferPool
	dims    *pool.BufferPool
}

// NewCodec creates a codec with the default pool sizes
func NewCodec() *Codec {
	return NewCodecSize(config.DefaultEntryBufferSize)
}

// NewCodecSize creates a codec whose payload pool starts at entrySize bytes
func NewCodecSize(entrySize int) *Codec {
	return &Codec{
		entries: pool.New(config.EntryPoolSize, entrySize),
		dims:    pool.New(config.DimensionPoolSize, 4),
	}
}

// Load reads the entry for name into dst. Collisions and unreadable
// entries are reported as misses; err is set only for damaged entries or
// store failures so the caller can log them.
func (c *Codec) Load(store Store, name string, dst *frame.Frame) (LoadResult, error) {
	expanded := Expand(name)

	buf := c.entries.Get()
	defer c.entries.Recycle(buf)

	data, ok, err := store.Lookup(KeyBytes(expanded), buf.Data)
	if err != nil {
		return LoadResult{}, fmt.Errorf("lookup %s: %w", name, err)
	}
	if !ok {
		return LoadResult{}, nil
	}
	if cap(data) > cap(buf.Data) {
		// Store had to allocate; grow the size class so later lookups fit
		buf.Data = data[:cap(data)]
		c.grow(len(data))
	}

	if !matchesName(data, expanded) {
		if len(data) < len(expanded)+trailerSize {
			return LoadResult{}, fmt.Errorf("entry %s: %w", name, ErrShortEntry)
		}
		return LoadResult{}, nil
	}

	trailer := len(data) - len(expanded) - trailerSize
	w := c.readDim(data[trailer:])
	h := c.readDim(data[trailer+4:])
	if w <= 0 || h <= 0 || w*h*4 != trailer {
		return LoadResult{}, fmt.Errorf("entry %s (%dx%d, %d bytes): %w", name, w, h, trailer, ErrEntrySize)
	}

	realloc := dst.Ensure(w, h)
	copy(dst.Pix, data[:trailer])

	return LoadResult{Hit: true, Reallocated: realloc}, nil
}

// Save writes f under name and syncs the store. Sync follows every insert
// so a crash never leaves an entry that was reported as written unflushed.
func (c *Codec) Save(store Store, name string, f *frame.Frame) error {
	if f.Empty() {
		return nil
	}

	expanded := Expand(name)
	size := EntrySize(f.Width, f.Height, len(expanded))
	c.grow(size)

	buf := c.entries.Get()
	defer c.entries.Recycle(buf)

	value := EncodeEntry(buf.Data, f.Pix, f.Width, f.Height, expanded)
	if err := store.Insert(KeyBytes(expanded), value); err != nil {
		return fmt.Errorf("insert %s: %w", name, err)
	}
	if err := store.Sync(); err != nil {
		return fmt.Errorf("sync after %s: %w", name, err)
	}
	return nil
}

// Clear drops all pooled scratch buffers
func (c *Codec) Clear() {
	c.entries.Clear()
	c.dims.Clear()
}

func (c *Codec) readDim(b []byte) int {
	d := c.dims.Get()
	copy(d.Data, b[:4])
	v := binary.LittleEndian.Uint32(d.Data)
	c.dims.Recycle(d)
	return int(v)
}

// grow replaces the payload pool when entries outgrow its size class
func (c *Codec) grow(n int) {
	if n <= c.entries.BufferSize() {
		return
	}
	c.entries = pool.New(config.EntryPoolSize, n)
}
