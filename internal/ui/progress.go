package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/linuxmatters/flipbook/internal/player"
	"github.com/linuxmatters/flipbook/internal/renderer"
)

// Ink palette
var (
	inkCyan    = lipgloss.Color("#5FD7FF")
	inkBlue    = lipgloss.Color("#5F87FF")
	inkMagenta = lipgloss.Color("#D75FD7")
	inkGreen   = lipgloss.Color("#5FD75F")
)

// Controller is the part of the engine the player UI drives
type Controller interface {
	Start()
	Stop()
	Pause()
	Resume()
	IsPaused() bool
	SetScaleType(renderer.ScaleType)
	ScaleType() renderer.ScaleType
	Stats() player.Stats
}

// ProgressMsg reports the frame that was just shown
type ProgressMsg struct {
	Index int
	Total int
}

// StateMsg reports an engine lifecycle transition
type StateMsg struct {
	State player.State
}

// playQuitMsg is sent when it's time to quit after showing completion
type playQuitMsg struct{}

// Model is the bubbletea model for interactive playback
type Model struct {
	ctrl     Controller
	surface  *TerminalSurface
	title    string
	progress progress.Model

	frameView string
	index     int
	total     int
	shown     int64
	state     player.State
	stats     player.Stats

	startTime       time.Time
	endTime         time.Time
	completionDelay time.Duration
	width           int
	height          int
	hidePreview     bool
}

// NewModel creates the playback UI. title is usually the sequence ID.
func NewModel(ctrl Controller, surface *TerminalSurface, title string) *Model {
	p := progress.New(
		progress.WithGradient(string(inkBlue), string(inkCyan)),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return &Model{
		ctrl:            ctrl,
		surface:         surface,
		title:           title,
		progress:        p,
		startTime:       time.Now(),
		completionDelay: 2 * time.Second,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages. Engine calls run as commands: the engine reports
// state changes back through the program, which cannot receive while
// Update is running.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = min(msg.Width-30, 50)
		if m.surface != nil {
			m.surface.Resize(PreviewForWindow(msg.Width, msg.Height))
		}
		return m, nil

	case FrameMsg:
		m.frameView = msg.View
		return m, nil

	case ProgressMsg:
		m.index = msg.Index
		m.total = msg.Total
		m.shown++
		m.stats = m.ctrl.Stats()
		return m, nil

	case StateMsg:
		m.state = msg.State
		m.stats = m.ctrl.Stats()
		if msg.State == player.StateEnd {
			m.endTime = time.Now()
			return m, tea.Tick(m.completionDelay, func(time.Time) tea.Msg {
				return playQuitMsg{}
			})
		}
		if msg.State == player.StateDestroy {
			return m, tea.Quit
		}
		return m, nil

	case playQuitMsg:
		if m.state == player.StateEnd {
			return m, tea.Quit
		}
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg.String())
	}

	return m, nil
}

func (m *Model) handleKey(key string) tea.Cmd {
	switch key {
	case "q", "ctrl+c", "esc":
		return tea.Quit
	case " ", "p":
		ctrl := m.ctrl
		return func() tea.Msg {
			if ctrl.IsPaused() {
				ctrl.Resume()
			} else {
				ctrl.Pause()
			}
			return nil
		}
	case "r", "enter":
		ctrl := m.ctrl
		return func() tea.Msg {
			// Start alone does nothing mid-playback
			ctrl.Stop()
			ctrl.Start()
			return nil
		}
	case "s":
		ctrl := m.ctrl
		next := ctrl.ScaleType().Next()
		return func() tea.Msg {
			ctrl.SetScaleType(next)
			return nil
		}
	case "h":
		m.hidePreview = !m.hidePreview
		if m.surface != nil {
			m.surface.SetEnabled(!m.hidePreview)
		}
	}
	return nil
}

// PreviewForWindow fits the preview into the window, leaving room for the frame
// around it
func PreviewForWindow(width, height int) PreviewConfig {
	c := DefaultPreviewConfig()
	if width > 0 {
		c.Width = max(width-6, 1)
	}
	if height > 0 {
		c.Height = max(height-12, 1)
	}
	return c
}

// View renders the UI
func (m *Model) View() string {
	var s strings.Builder

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(inkCyan).
		Render("Flipbook 📖")

	s.WriteString(title)
	s.WriteString("  ")
	s.WriteString(lipgloss.NewStyle().Foreground(inkBlue).Render(m.title))
	s.WriteString("\n\n")

	percent := 0.0
	if m.total > 0 {
		percent = float64(m.index+1) / float64(m.total)
	}
	s.WriteString("Frame: ")
	s.WriteString(m.progress.ViewAs(percent))
	s.WriteString(fmt.Sprintf("  %d/%d", m.index+1, max(m.total, 1)))
	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Faint(true).Render(m.statusLine()))
	s.WriteString("\n")

	if !m.hidePreview && m.frameView != "" {
		s.WriteString("\n")
		s.WriteString(m.frameView)
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Faint(true).Italic(true).Render(
		"space pause  r restart  s scale  h preview  q quit"))

	border := inkBlue
	if m.state == player.StateEnd {
		border = inkGreen
	}
	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Render(s.String())
}

func (m *Model) statusLine() string {
	elapsed := time.Since(m.startTime)
	if !m.endTime.IsZero() {
		elapsed = m.endTime.Sub(m.startTime)
	}
	return fmt.Sprintf("%-7s │  Scale: %-13s │  Cache: %d hit / %d miss  │  %s",
		m.state, m.ctrl.ScaleType(), m.stats.CacheHits, m.stats.CacheMisses, formatDuration(elapsed))
}

// CompletionSummary returns the playback summary for printing after the
// alt screen exits
func (m *Model) CompletionSummary() string {
	var s strings.Builder

	title := "Playback stopped"
	if m.state == player.StateEnd {
		title = "✓ Playback complete"
	}
	s.WriteString(lipgloss.NewStyle().Bold(true).Foreground(inkGreen).Render(title))
	s.WriteString("\n\n")

	label := lipgloss.NewStyle().Faint(true)
	row := func(k, v string) {
		s.WriteString(fmt.Sprintf("  %s%s\n", label.Render(fmt.Sprintf("%-16s", k)), v))
	}

	elapsed := time.Since(m.startTime)
	if !m.endTime.IsZero() {
		elapsed = m.endTime.Sub(m.startTime)
	}
	st := m.ctrl.Stats()
	row("Sequence:", m.title)
	row("Frames shown:", fmt.Sprintf("%d", st.FramesRendered))
	row("Frames decoded:", fmt.Sprintf("%d", st.FramesDecoded))
	row("Cache:", fmt.Sprintf("%d hits, %d misses, %d errors", st.CacheHits, st.CacheMisses, st.CacheErrors))
	if st.DecodeErrors > 0 {
		row("Decode errors:", fmt.Sprintf("%d", st.DecodeErrors))
	}
	if st.SkippedTicks > 0 {
		row("Skipped ticks:", fmt.Sprintf("%d", st.SkippedTicks))
	}
	row("Elapsed:", formatDuration(elapsed))
	if elapsed > 0 {
		row("Rate:", fmt.Sprintf("%.1f fps", float64(st.FramesRendered)/elapsed.Seconds()))
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(inkGreen).
		Padding(1, 1).
		Render(strings.TrimRight(s.String(), "\n")) + "\n"
}

// Helper functions

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatBytes(bytes int64) string {
	if bytes == 0 {
		return "0 B"
	}

	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"KB", "MB", "GB"}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), units[exp])
}
