package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestTerminalSurfaceCanvasSize(t *testing.T) {
	s := NewTerminalSurface(PreviewConfig{Width: 10, Height: 5}, func(tea.Msg) {})

	canvas, ok := s.AcquireDrawTarget()
	if !ok {
		t.Fatal("AcquireDrawTarget() = false")
	}
	if w, h := canvas.Rect.Dx(), canvas.Rect.Dy(); w != 10*supersample || h != 10*supersample {
		t.Errorf("canvas = %dx%d, want %dx%d", w, h, 10*supersample, 10*supersample)
	}

	again, _ := s.AcquireDrawTarget()
	if again != canvas {
		t.Error("canvas reallocated without a resize")
	}

	s.Resize(PreviewConfig{Width: 4, Height: 2})
	resized, _ := s.AcquireDrawTarget()
	if w, h := resized.Rect.Dx(), resized.Rect.Dy(); w != 4*supersample || h != 4*supersample {
		t.Errorf("resized canvas = %dx%d", w, h)
	}
}

func TestTerminalSurfaceRefusesTarget(t *testing.T) {
	tests := []struct {
		name    string
		config  PreviewConfig
		enabled bool
	}{
		{"disabled", PreviewConfig{Width: 10, Height: 5}, false},
		{"zero width", PreviewConfig{Width: 0, Height: 5}, true},
		{"zero height", PreviewConfig{Width: 10, Height: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewTerminalSurface(tt.config, func(tea.Msg) {})
			s.SetEnabled(tt.enabled)
			if _, ok := s.AcquireDrawTarget(); ok {
				t.Error("AcquireDrawTarget() = true, want false")
			}
		})
	}
}

func TestTerminalSurfaceSubmitSendsFrame(t *testing.T) {
	var got []tea.Msg
	s := NewTerminalSurface(PreviewConfig{Width: 3, Height: 2}, func(m tea.Msg) { got = append(got, m) })

	canvas, _ := s.AcquireDrawTarget()
	s.Submit(canvas)

	if len(got) != 1 {
		t.Fatalf("sent %d messages, want 1", len(got))
	}
	fm, ok := got[0].(FrameMsg)
	if !ok {
		t.Fatalf("sent %T, want FrameMsg", got[0])
	}
	if lines := strings.Split(fm.View, "\n"); len(lines) != 2 {
		t.Errorf("frame view has %d lines, want 2", len(lines))
	}
}
