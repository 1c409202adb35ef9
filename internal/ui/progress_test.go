package ui

import (
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/flipbook/internal/player"
	"github.com/linuxmatters/flipbook/internal/renderer"
)

type fakeController struct {
	mu     sync.Mutex
	paused bool
	scale  renderer.ScaleType
	calls  []string
}

func (c *fakeController) record(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, s)
}

func (c *fakeController) Start()  { c.record("start") }
func (c *fakeController) Stop()   { c.record("stop") }
func (c *fakeController) Pause()  { c.record("pause"); c.paused = true }
func (c *fakeController) Resume() { c.record("resume"); c.paused = false }
func (c *fakeController) IsPaused() bool {
	return c.paused
}
func (c *fakeController) SetScaleType(st renderer.ScaleType) {
	c.record("scale " + st.String())
	c.scale = st
}
func (c *fakeController) ScaleType() renderer.ScaleType { return c.scale }
func (c *fakeController) Stats() player.Stats {
	return player.Stats{FramesRendered: 7, CacheHits: 5, CacheMisses: 2}
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func run(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}

func TestModelKeys(t *testing.T) {
	tests := []struct {
		name      string
		keys      []string
		wantCalls []string
		wantQuit  bool
	}{
		{"space pauses", []string{" "}, []string{"pause"}, false},
		{"space twice resumes", []string{" ", " "}, []string{"pause", "resume"}, false},
		{"restart", []string{"r"}, []string{"stop", "start"}, false},
		{"enter restarts while paused", []string{" ", "enter"}, []string{"pause", "stop", "start"}, false},
		{"cycle scale", []string{"s"}, []string{"scale fit-end"}, false},
		{"q quits", []string{"q"}, nil, true},
		{"ctrl+c quits", []string{"ctrl+c"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := &fakeController{scale: renderer.ScaleFitCenter}
			m := NewModel(ctrl, nil, "walk")

			var last tea.Msg
			for _, k := range tt.keys {
				_, cmd := m.Update(key(k))
				last = run(cmd)
			}

			if len(ctrl.calls) != len(tt.wantCalls) {
				t.Fatalf("calls = %v, want %v", ctrl.calls, tt.wantCalls)
			}
			for i := range tt.wantCalls {
				if ctrl.calls[i] != tt.wantCalls[i] {
					t.Errorf("calls = %v, want %v", ctrl.calls, tt.wantCalls)
				}
			}
			_, quit := last.(tea.QuitMsg)
			if quit != tt.wantQuit {
				t.Errorf("quit = %v, want %v", quit, tt.wantQuit)
			}
		})
	}
}

func TestModelTogglePreview(t *testing.T) {
	surf := NewTerminalSurface(DefaultPreviewConfig(), func(tea.Msg) {})
	m := NewModel(&fakeController{}, surf, "walk")

	m.Update(key("h"))
	if _, ok := surf.AcquireDrawTarget(); ok {
		t.Error("hidden preview should refuse draw targets")
	}
	m.Update(key("h"))
	if _, ok := surf.AcquireDrawTarget(); !ok {
		t.Error("shown preview should accept draw targets")
	}
}

func TestModelProgressAndView(t *testing.T) {
	m := NewModel(&fakeController{scale: renderer.ScaleCenterCrop}, nil, "walk-cycle")
	m.Update(FrameMsg{View: "PIXELS"})
	m.Update(ProgressMsg{Index: 2, Total: 8})
	m.Update(StateMsg{State: player.StateStart})

	view := m.View()
	for _, want := range []string{"walk-cycle", "3/8", "PIXELS", "center-crop", "start"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m.Update(key("h"))
	if strings.Contains(m.View(), "PIXELS") {
		t.Error("hidden preview still rendered")
	}
}

func TestModelStateMessages(t *testing.T) {
	m := NewModel(&fakeController{}, nil, "walk")

	_, cmd := m.Update(StateMsg{State: player.StateEnd})
	if cmd == nil {
		t.Fatal("end state should schedule the quit timer")
	}

	_, cmd = m.Update(playQuitMsg{})
	if _, ok := run(cmd).(tea.QuitMsg); !ok {
		t.Error("quit timer at end should quit")
	}

	// A restart after End cancels the pending quit
	m.Update(StateMsg{State: player.StateStart})
	_, cmd = m.Update(playQuitMsg{})
	if cmd != nil {
		t.Error("quit timer should be ignored once playback restarted")
	}

	_, cmd = m.Update(StateMsg{State: player.StateDestroy})
	if _, ok := run(cmd).(tea.QuitMsg); !ok {
		t.Error("destroy should quit")
	}
}

func TestModelCompletionSummary(t *testing.T) {
	m := NewModel(&fakeController{}, nil, "walk")
	m.Update(StateMsg{State: player.StateEnd})

	out := m.CompletionSummary()
	for _, want := range []string{"Playback complete", "walk", "5 hits, 2 misses"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestPreviewForWindow(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		want          PreviewConfig
	}{
		{"unknown size", 0, 0, DefaultPreviewConfig()},
		{"normal window", 106, 42, PreviewConfig{Width: 100, Height: 30}},
		{"tiny window", 3, 5, PreviewConfig{Width: 1, Height: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PreviewForWindow(tt.width, tt.height); got != tt.want {
				t.Errorf("PreviewForWindow(%d, %d) = %+v, want %+v", tt.width, tt.height, got, tt.want)
			}
		})
	}
}
