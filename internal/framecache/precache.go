package framecache

import (
	"context"
	"fmt"

	"github.com/linuxmatters/flipbook/internal/frame"
)

// Decoder produces pixels for a descriptor
type Decoder interface {
	Decode(d frame.Descriptor, dst *frame.Frame) error
}

// PrecacheProgress is called after each descriptor is handled
type PrecacheProgress func(done, total int, name string, cached bool)

// PrecacheStats summarises an eager caching pass
type PrecacheStats struct {
	Cached  int // Newly decoded and stored
	Present int // Already in the store
	Failed  int // Decode or store errors
}

// Precache decodes every frame of seq that is not already stored and
// writes it to store. Per-frame failures are counted, not fatal; only
// cancellation stops the pass early.
func Precache(ctx context.Context, store Store, codec *Codec, seq *frame.Sequence, dec Decoder, progress PrecacheProgress) (PrecacheStats, error) {
	var stats PrecacheStats
	scratch := frame.New()
	total := seq.Len()

	for i, d := range seq.Items {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("precache interrupted at frame %d: %w", i, err)
		}

		res, err := codec.Load(store, d.LogicalName, scratch)
		if err == nil && res.Hit {
			stats.Present++
			if progress != nil {
				progress(i+1, total, d.LogicalName, false)
			}
			continue
		}

		if err := dec.Decode(d, scratch); err != nil {
			stats.Failed++
			if progress != nil {
				progress(i+1, total, d.LogicalName, false)
			}
			continue
		}

		if err := codec.Save(store, d.LogicalName, scratch); err != nil {
			stats.Failed++
		} else {
			stats.Cached++
		}
		if progress != nil {
			progress(i+1, total, d.LogicalName, true)
		}
	}

	return stats, nil
}
