package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Pipeline settings
const (
	BufferSize           = 3                     // Decoded frames in flight across both queues
	DefaultFrameDuration = 80 * time.Millisecond // Render cadence when a frame has no duration
	LockTimeout          = 50 * time.Millisecond // Bound on teardown waits for the draw/decode locks
)

// Content cache settings
// Sequence descriptors may override the entry/byte limits and the version.
const (
	DefaultCacheMaxEntries = 100
	DefaultCacheMaxBytes   = 100 * 1024 * 1024
	DefaultCacheVersion    = 1
	CacheDirName           = "flipbook"

	EntryPoolSize          = 4       // Pixel payload buffers kept for cache lookups
	DimensionPoolSize      = 8       // 4-byte width/height scratch buffers
	DefaultEntryBufferSize = 1 << 20 // Initial size class of the pixel payload pool
)

// Descriptor defaults
const (
	DefaultItemDuration = 100 // Milliseconds, for animation-list items without a duration
)

// Appearance
const (
	// Canvas clear colour (RGB), black unless overridden
	BackgroundColorR = 0
	BackgroundColorG = 0
	BackgroundColorB = 0

	// Frame label overlay
	LabelFontSize = 14.0
	LabelMargin   = 8

	DefaultScaleType = "fit-center"
	DefaultQuality   = "bilinear"
)

// Headless output
const (
	HeadlessWidth  = 640
	HeadlessHeight = 360
)

// RuntimeConfig holds optional overrides collected from the command line.
// Nil pointers and empty strings fall back to the package constants.
type RuntimeConfig struct {
	BackgroundColorR *uint8
	BackgroundColorG *uint8
	BackgroundColorB *uint8

	FrameInterval *time.Duration
	ScaleType     string
	Quality       string
	CacheDir      string
}

// GetBackgroundColor returns the canvas clear colour. All three components
// must be set for the override to apply.
func (c *RuntimeConfig) GetBackgroundColor() (uint8, uint8, uint8) {
	if c.BackgroundColorR != nil && c.BackgroundColorG != nil && c.BackgroundColorB != nil {
		return *c.BackgroundColorR, *c.BackgroundColorG, *c.BackgroundColorB
	}
	return BackgroundColorR, BackgroundColorG, BackgroundColorB
}

// GetFrameInterval returns the fallback render interval
func (c *RuntimeConfig) GetFrameInterval() time.Duration {
	if c.FrameInterval != nil && *c.FrameInterval > 0 {
		return *c.FrameInterval
	}
	return DefaultFrameDuration
}

// GetScaleType returns the configured scale type name
func (c *RuntimeConfig) GetScaleType() string {
	if c.ScaleType != "" {
		return c.ScaleType
	}
	return DefaultScaleType
}

// GetQuality returns the configured resampling quality name
func (c *RuntimeConfig) GetQuality() string {
	if c.Quality != "" {
		return c.Quality
	}
	return DefaultQuality
}

// GetCacheDir returns the content cache directory, defaulting to the
// user cache directory (or the temp dir when that is unavailable).
func (c *RuntimeConfig) GetCacheDir() string {
	if c.CacheDir != "" {
		return c.CacheDir
	}
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, CacheDirName)
}

// ParseHexColor parses a 6 digit hex colour with an optional leading '#'
func ParseHexColor(s string) (uint8, uint8, uint8, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid hex colour %q: want 6 hex digits", s)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}

	return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}
