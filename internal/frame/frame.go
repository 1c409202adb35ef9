package frame

import (
	"image"
)

// Frame is a decoded RGBA pixel buffer travelling between the decode and
// render workers. Exactly one queue or worker holds a Frame at a time.
type Frame struct {
	Pix    []byte
	Width  int
	Height int

	// Index of the descriptor decoded into Pix, -1 when empty
	Index int
	// Generation of the playback session that produced the pixels
	Generation uint64
	// Stale is set when the last decode into this frame failed; Pix still
	// holds whatever was there before
	Stale bool

	img *image.RGBA
}

// New returns an empty frame. Pixel storage is allocated on first decode.
func New() *Frame {
	return &Frame{Index: -1}
}

// Empty reports whether the frame holds no pixels
func (f *Frame) Empty() bool {
	return f.Width == 0 || f.Height == 0 || len(f.Pix) == 0
}

// Ensure sizes the pixel buffer for w x h. Storage is reused only when the
// dimensions match exactly; it returns true when a new buffer was allocated.
func (f *Frame) Ensure(w, h int) bool {
	if w == f.Width && h == f.Height && len(f.Pix) == w*h*4 {
		return false
	}
	f.Pix = make([]byte, w*h*4)
	f.Width = w
	f.Height = h
	f.img = nil
	return true
}

// Image returns an *image.RGBA view over Pix. The view shares storage with
// the frame and is only valid while the caller holds the frame.
func (f *Frame) Image() *image.RGBA {
	if f.img == nil {
		f.img = &image.RGBA{
			Pix:    f.Pix,
			Stride: f.Width * 4,
			Rect:   image.Rect(0, 0, f.Width, f.Height),
		}
	}
	return f.img
}

// Release drops pixel storage so the garbage collector can reclaim it
func (f *Frame) Release() {
	f.Pix = nil
	f.Width = 0
	f.Height = 0
	f.Index = -1
	f.Stale = false
	f.img = nil
}
