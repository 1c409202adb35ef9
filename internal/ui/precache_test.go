package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/flipbook/internal/framecache"
)

func TestPrecacheModelProgress(t *testing.T) {
	m := NewPrecacheModel("walk")
	if !strings.Contains(m.View(), "Opening cache") {
		t.Error("initial view should show the opening message")
	}

	m.Update(PrecacheProgress{Done: 3, Total: 4, Name: "walk_03", Cached: true})
	view := m.View()
	for _, want := range []string{"Caching walk", "75%", "walk_03", "3 of 4"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if m.CompletionSummary() != "" {
		t.Error("summary before completion should be empty")
	}
}

func TestPrecacheModelComplete(t *testing.T) {
	tests := []struct {
		name  string
		msg   PrecacheComplete
		wants []string
	}{
		{
			name: "success",
			msg: PrecacheComplete{
				Stats:      framecache.PrecacheStats{Cached: 10, Present: 2},
				Elapsed:    1500 * time.Millisecond,
				Entries:    12,
				CacheBytes: 2048,
			},
			wants: []string{"Cache ready", "10", "12 entries, 2.0 KB", "1.5s"},
		},
		{
			name: "interrupted",
			msg: PrecacheComplete{
				Stats: framecache.PrecacheStats{Cached: 1, Failed: 1},
				Err:   errors.New("context canceled"),
			},
			wants: []string{"Caching interrupted", "Failed:", "context canceled"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewPrecacheModel("walk")
			_, cmd := m.Update(tt.msg)
			if cmd == nil {
				t.Fatal("completion should schedule the quit timer")
			}
			out := m.View()
			for _, want := range tt.wants {
				if !strings.Contains(out, want) {
					t.Errorf("summary missing %q:\n%s", want, out)
				}
			}

			_, cmd = m.Update(key("x"))
			if _, ok := run(cmd).(tea.QuitMsg); !ok {
				t.Error("any key after completion should quit")
			}
		})
	}
}
