package renderer

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
)

// PNGSurface is a headless draw target that writes every submitted canvas
// to a numbered PNG file.
type PNGSurface struct {
	dir     string
	canvas  *image.RGBA
	encoder png.Encoder

	mu      sync.Mutex
	count   int
	err     error
	written chan struct{}
}

// NewPNGSurface creates the output directory and a width x height canvas
func NewPNGSurface(dir string, width, height int) (*PNGSurface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid surface size %dx%d", width, height)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	return &PNGSurface{
		dir:     dir,
		canvas:  image.NewRGBA(image.Rect(0, 0, width, height)),
		encoder: png.Encoder{CompressionLevel: png.BestSpeed},
		written: make(chan struct{}, 1),
	}, nil
}

// AcquireDrawTarget returns the canvas; it is always available
func (s *PNGSurface) AcquireDrawTarget() (*image.RGBA, bool) {
	return s.canvas, true
}

// Submit writes the canvas as the next frame file. The first write error
// is kept and later frames are dropped.
func (s *PNGSurface) Submit(img *image.RGBA) {
	s.mu.Lock()
	if s.err != nil {
		s.mu.Unlock()
		return
	}
	n := s.count
	s.mu.Unlock()

	path := filepath.Join(s.dir, fmt.Sprintf("frame_%05d.png", n))
	err := s.save(img, path)

	s.mu.Lock()
	if err != nil {
		s.err = err
	} else {
		s.count++
	}
	s.mu.Unlock()

	select {
	case s.written <- struct{}{}:
	default:
	}
}

func (s *PNGSurface) save(img *image.RGBA, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := s.encoder.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Written is signalled after each Submit
func (s *PNGSurface) Written() <-chan struct{} {
	return s.written
}

// Count returns the number of frames written
func (s *PNGSurface) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Err returns the first write error, if any
func (s *PNGSurface) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
