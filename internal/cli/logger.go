package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Level filters log output
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
	LevelSilent
)

// ParseLevel maps a --log-level value to a Level
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "error":
		return LevelError, nil
	case "silent", "off":
		return LevelSilent, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q (want debug, info, error or silent)", s)
}

var (
	debugTag = lipgloss.NewStyle().Foreground(Graphite).Render("DEBU")
	infoTag  = lipgloss.NewStyle().Bold(true).Foreground(InkCyan).Render("INFO")
	errorTag = lipgloss.NewStyle().Bold(true).Foreground(InkCoral).Render("ERRO")
	timeTag  = lipgloss.NewStyle().Foreground(Graphite)
)

// Logger writes levelled, styled lines to a writer. It is safe for
// concurrent use.
type Logger struct {
	mu    sync.Mutex
	w     io.Writer
	level Level
	now   func() time.Time
}

// NewLogger creates a logger writing lines at or above level to w
func NewLogger(w io.Writer, level Level) *Logger {
	return &Logger{w: w, level: level, now: time.Now}
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.logf(LevelDebug, debugTag, format, args...)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.logf(LevelInfo, infoTag, format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.logf(LevelError, errorTag, format, args...)
}

func (l *Logger) logf(level Level, tag, format string, args ...interface{}) {
	if level < l.level {
		return
	}
	msg := fmt.Sprintf(format, args...)

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "%s %s %s\n", timeTag.Render(l.now().Format("15:04:05.000")), tag, msg)
}
