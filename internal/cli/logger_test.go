package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"error", LevelError, false},
		{"off", LevelSilent, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoggerFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, LevelInfo)
	l.now = func() time.Time { return time.Date(2024, 1, 1, 12, 30, 0, 0, time.UTC) }

	l.Debugf("hidden %d", 1)
	l.Infof("loaded %d frames", 12)
	l.Errorf("decode failed: %s", "bad header")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line written at info level: %q", out)
	}
	if !strings.Contains(out, "loaded 12 frames") || !strings.Contains(out, "decode failed: bad header") {
		t.Errorf("missing expected lines: %q", out)
	}
	if !strings.Contains(out, "12:30:00.000") {
		t.Errorf("missing timestamp: %q", out)
	}
	if n := strings.Count(out, "\n"); n != 2 {
		t.Errorf("wrote %d lines, want 2", n)
	}
}

func TestLoggerSilent(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&buf, LevelSilent)
	l.Errorf("nothing")
	if buf.Len() != 0 {
		t.Errorf("silent logger wrote %q", buf.String())
	}
}
