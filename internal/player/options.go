package player

import (
	"image"
	"image/color"
	"sync/atomic"
	"time"

	"github.com/linuxmatters/flipbook/internal/frame"
	"github.com/linuxmatters/flipbook/internal/framecache"
	"github.com/linuxmatters/flipbook/internal/renderer"
	"golang.org/x/image/draw"
)

// Logger receives engine diagnostics
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

// RenderHost owns the drawing surface.
//
// AcquireDrawTarget returns the canvas for the next frame, or false when
// the surface cannot take one right now; the engine then holds the frame
// and tries again on the next tick. Submit presents a canvas previously
// returned by AcquireDrawTarget. Both are called from the render goroutine
// only.
type RenderHost interface {
	AcquireDrawTarget() (*image.RGBA, bool)
	Submit(canvas *image.RGBA)
}

// Decoder turns a descriptor into pixels, reusing dst's storage when the
// dimensions match
type Decoder = framecache.Decoder

// CacheOpener returns the content cache for a sequence
type CacheOpener func(seq *frame.Sequence) (framecache.Store, error)

// Options configures an Engine. Decoder is required.
type Options struct {
	Logger  Logger
	Decoder Decoder

	// OpenCache is called on the decode goroutine when a sequence loads.
	// Nil disables the content cache.
	OpenCache CacheOpener
	// Precache decodes and stores every missing frame before playback
	// starts instead of filling the cache as frames are first shown
	Precache bool

	Background    color.RGBA
	Quality       draw.Interpolator // Nil means bilinear
	Labeler       *renderer.Labeler // Frame counter overlay, nil for none
	ScaleType     renderer.ScaleType
	FrameInterval time.Duration // Fallback per-frame duration
	RepeatCount   int           // Passes for looping sequences, 0 is forever

	// OnStateChange is called after each lifecycle transition, from
	// whichever goroutine made it
	OnStateChange func(State)
	// OnFrame is called on the render goroutine after each tick that
	// consumed a frame
	OnFrame func(index, total int)
}

// Stats is a snapshot of engine counters
type Stats struct {
	FramesDecoded  int64
	FramesRendered int64
	CacheHits      int64
	CacheMisses    int64
	CacheErrors    int64
	DecodeErrors   int64
	BufferReallocs int64
	SkippedTicks   int64
	StaleDropped   int64
}

type counters struct {
	framesDecoded  atomic.Int64
	framesRendered atomic.Int64
	cacheHits      atomic.Int64
	cacheMisses    atomic.Int64
	cacheErrors    atomic.Int64
	decodeErrors   atomic.Int64
	bufferReallocs atomic.Int64
	skippedTicks   atomic.Int64
	staleDropped   atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		FramesDecoded:  c.framesDecoded.Load(),
		FramesRendered: c.framesRendered.Load(),
		CacheHits:      c.cacheHits.Load(),
		CacheMisses:    c.cacheMisses.Load(),
		CacheErrors:    c.cacheErrors.Load(),
		DecodeErrors:   c.decodeErrors.Load(),
		BufferReallocs: c.bufferReallocs.Load(),
		SkippedTicks:   c.skippedTicks.Load(),
		StaleDropped:   c.staleDropped.Load(),
	}
}
