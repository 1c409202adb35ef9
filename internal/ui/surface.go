package ui

import (
	"image"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// supersample is how many canvas pixels feed each preview pixel per axis
const supersample = 4

// FrameMsg carries a rendered frame to the model
type FrameMsg struct {
	View string
}

// TerminalSurface draws engine frames into a bubbletea program. The engine
// composes onto an RGBA canvas a few times larger than the preview, and
// Submit averages it down to half-block cells.
type TerminalSurface struct {
	mu      sync.Mutex
	config  PreviewConfig
	canvas  *image.RGBA
	send    func(tea.Msg)
	enabled bool
}

// NewTerminalSurface creates a surface of the given preview size. send is
// normally (*tea.Program).Send.
func NewTerminalSurface(config PreviewConfig, send func(tea.Msg)) *TerminalSurface {
	return &TerminalSurface{config: config, send: send, enabled: true}
}

// Resize changes the preview size; the canvas follows on the next frame
func (s *TerminalSurface) Resize(config PreviewConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = config
}

// SetEnabled turns drawing off while the preview is hidden. A disabled
// surface refuses draw targets so the engine skips those ticks.
func (s *TerminalSurface) SetEnabled(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = on
}

// Config returns the current preview size
func (s *TerminalSurface) Config() PreviewConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// AcquireDrawTarget returns the canvas, or false when drawing is disabled
// or the terminal is too small to show anything
func (s *TerminalSurface) AcquireDrawTarget() (*image.RGBA, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || s.config.Width < 1 || s.config.Height < 1 {
		return nil, false
	}

	w := s.config.Width * supersample
	h := s.config.PixelRows() * supersample
	if s.canvas == nil || s.canvas.Rect.Dx() != w || s.canvas.Rect.Dy() != h {
		s.canvas = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	return s.canvas, true
}

// Submit converts the canvas to terminal cells and sends it to the program
func (s *TerminalSurface) Submit(canvas *image.RGBA) {
	s.mu.Lock()
	config := s.config
	s.mu.Unlock()

	view := RenderHalfBlocks(Downsample(canvas, config))
	s.send(FrameMsg{View: view})
}
