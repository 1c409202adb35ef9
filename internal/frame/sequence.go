package frame

import (
	"time"
)

// Descriptor identifies one frame of a sequence
type Descriptor struct {
	SourceRef   string // Path of the encoded image
	LogicalName string // Stable name used to key the content cache
	DurationMs  uint32 // Display time, 0 means use the engine interval
}

// Duration returns the display time, or fallback when none was given
func (d Descriptor) Duration(fallback time.Duration) time.Duration {
	if d.DurationMs == 0 {
		return fallback
	}
	return time.Duration(d.DurationMs) * time.Millisecond
}

// Sequence is an ordered list of frame descriptors plus cache parameters.
// A Sequence is not modified once handed to the engine.
type Sequence struct {
	ID      string
	Items   []Descriptor
	OneShot bool

	CacheVersion    uint32
	CacheMaxEntries uint32
	CacheMaxBytes   uint64
}

// Len returns the number of frames
func (s *Sequence) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Items)
}

// At returns the descriptor at index i
func (s *Sequence) At(i int) Descriptor {
	return s.Items[i]
}

// IsLast reports whether i is the final index of the sequence
func (s *Sequence) IsLast(i int) bool {
	return i == len(s.Items)-1
}

// Passes returns how many times the sequence plays given a repeat count.
// One-shot sequences always play once; a repeat count of 0 or less means
// forever and is reported as 0.
func (s *Sequence) Passes(repeat int) int {
	if s.OneShot {
		return 1
	}
	if repeat <= 0 {
		return 0
	}
	return repeat
}
