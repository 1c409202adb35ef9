package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/linuxmatters/flipbook/internal/framecache"
)

// PrecacheProgress reports one handled frame of an eager caching pass
type PrecacheProgress struct {
	Done   int
	Total  int
	Name   string
	Cached bool // Newly written, as opposed to already present or failed
}

// PrecacheComplete signals the end of the pass
type PrecacheComplete struct {
	Stats      framecache.PrecacheStats
	Elapsed    time.Duration
	Entries    int
	CacheBytes int64
	Err        error
}

// precacheQuitMsg is sent when it's time to quit after showing completion
type precacheQuitMsg struct{}

// PrecacheModel shows progress while a sequence is written to the cache
type PrecacheModel struct {
	title           string
	progress        progress.Model
	last            PrecacheProgress
	complete        *PrecacheComplete
	startTime       time.Time
	completionDelay time.Duration
	width           int
}

// NewPrecacheModel creates the precache UI
func NewPrecacheModel(title string) *PrecacheModel {
	p := progress.New(
		progress.WithGradient(string(inkMagenta), string(inkCyan)),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)
	return &PrecacheModel{
		title:           title,
		progress:        p,
		startTime:       time.Now(),
		completionDelay: time.Second,
	}
}

// Init initializes the model
func (m *PrecacheModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *PrecacheModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = min(msg.Width-30, 50)
		return m, nil

	case PrecacheProgress:
		m.last = msg
		return m, nil

	case PrecacheComplete:
		m.complete = &msg
		return m, tea.Tick(m.completionDelay, func(time.Time) tea.Msg {
			return precacheQuitMsg{}
		})

	case precacheQuitMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		// Any key skips the completion screen
		if m.complete != nil {
			return m, tea.Quit
		}
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the UI
func (m *PrecacheModel) View() string {
	if m.complete != nil {
		return m.CompletionSummary()
	}

	var s strings.Builder
	s.WriteString(lipgloss.NewStyle().Bold(true).Foreground(inkCyan).Render("Flipbook 📖"))
	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Foreground(inkBlue).Render("Caching " + m.title))
	s.WriteString("\n\n")

	percent := 0.0
	if m.last.Total > 0 {
		percent = float64(m.last.Done) / float64(m.last.Total)
	}
	s.WriteString("Progress: ")
	s.WriteString(m.progress.ViewAs(percent))
	s.WriteString(fmt.Sprintf("  %d%%", int(percent*100)))
	s.WriteString("\n\n")

	if m.last.Name != "" {
		s.WriteString(lipgloss.NewStyle().Faint(true).Italic(true).Render(
			fmt.Sprintf("%s  (%d of %d)  │  Elapsed: %s", m.last.Name, m.last.Done, m.last.Total, formatDuration(time.Since(m.startTime)))))
	} else {
		s.WriteString(lipgloss.NewStyle().Faint(true).Render("Opening cache..."))
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(inkMagenta).
		Padding(1, 2).
		Render(s.String())
}

// CompletionSummary returns the final summary, or an empty string before
// the pass has finished
func (m *PrecacheModel) CompletionSummary() string {
	if m.complete == nil {
		return ""
	}
	c := m.complete

	var s strings.Builder
	title := lipgloss.NewStyle().Bold(true).Foreground(inkGreen).Render("✓ Cache ready")
	if c.Err != nil {
		title = lipgloss.NewStyle().Bold(true).Foreground(inkMagenta).Render("Caching interrupted")
	}
	s.WriteString(title)
	s.WriteString("\n\n")

	label := lipgloss.NewStyle().Faint(true)
	row := func(k, v string) {
		s.WriteString(fmt.Sprintf("  %s%s\n", label.Render(fmt.Sprintf("%-12s", k)), v))
	}
	row("Stored:", fmt.Sprintf("%d", c.Stats.Cached))
	row("Present:", fmt.Sprintf("%d", c.Stats.Present))
	if c.Stats.Failed > 0 {
		row("Failed:", fmt.Sprintf("%d", c.Stats.Failed))
	}
	row("Cache:", fmt.Sprintf("%d entries, %s", c.Entries, formatBytes(c.CacheBytes)))
	row("Time:", formatDuration(c.Elapsed))
	if c.Err != nil {
		row("Error:", c.Err.Error())
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(inkGreen).
		Padding(1, 1).
		Render(strings.TrimRight(s.String(), "\n")) + "\n"
}
