package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestParseHexColor_ValidInputs covers case handling, the optional hash
// prefix and channel ordering.
func TestParseHexColor_ValidInputs(t *testing.T) {
	testCases := []struct {
		name                string
		input               string
		wantR, wantG, wantB uint8
	}{
		{name: "uppercase no hash", input: "FF0000", wantR: 255},
		{name: "lowercase with hash", input: "#ff0000", wantR: 255},
		{name: "mixed case", input: "Ff00fF", wantR: 255, wantB: 255},
		{name: "black", input: "000000"},
		{name: "white", input: "#FFFFFF", wantR: 255, wantG: 255, wantB: 255},
		{name: "distinct channels", input: "010203", wantR: 1, wantG: 2, wantB: 3},
		{name: "high channels", input: "AABBCC", wantR: 0xAA, wantG: 0xBB, wantB: 0xCC},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r, g, b, err := ParseHexColor(tc.input)
			if err != nil {
				t.Fatalf("ParseHexColor(%q) returned error: %v", tc.input, err)
			}
			if r != tc.wantR || g != tc.wantG || b != tc.wantB {
				t.Errorf("ParseHexColor(%q) = (%d, %d, %d), want (%d, %d, %d)",
					tc.input, r, g, b, tc.wantR, tc.wantG, tc.wantB)
			}
		})
	}
}

func TestParseHexColor_InvalidInputs(t *testing.T) {
	inputs := []string{
		"",
		"#",
		"FFF",
		"#FFF",
		"FFFFFFF",
		"GGGGGG",
		"FF00GG",
		"FF 000",
		"FF#000",
		"##FF0000",
		"FF0000\n",
		"+FF000",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			if _, _, _, err := ParseHexColor(input); err == nil {
				t.Errorf("ParseHexColor(%q) expected error, got nil", input)
			}
		})
	}
}

// TestRuntimeConfig_NilFields verifies that Get*() methods return defaults
// when optional fields are unset. A nil dereference here would panic in the
// render path.
func TestRuntimeConfig_NilFields(t *testing.T) {
	c := &RuntimeConfig{}

	r, g, b := c.GetBackgroundColor()
	if r != BackgroundColorR || g != BackgroundColorG || b != BackgroundColorB {
		t.Errorf("GetBackgroundColor() = (%d, %d, %d), want defaults", r, g, b)
	}
	if got := c.GetFrameInterval(); got != DefaultFrameDuration {
		t.Errorf("GetFrameInterval() = %v, want %v", got, DefaultFrameDuration)
	}
	if got := c.GetScaleType(); got != DefaultScaleType {
		t.Errorf("GetScaleType() = %q, want %q", got, DefaultScaleType)
	}
	if got := c.GetQuality(); got != DefaultQuality {
		t.Errorf("GetQuality() = %q, want %q", got, DefaultQuality)
	}
	if got := c.GetCacheDir(); !strings.HasSuffix(got, CacheDirName) {
		t.Errorf("GetCacheDir() = %q, want suffix %q", got, CacheDirName)
	}
}

func TestRuntimeConfig_Overrides(t *testing.T) {
	interval := 25 * time.Millisecond
	zero := time.Duration(0)
	dir := filepath.Join("tmp", "frames")

	tests := []struct {
		name     string
		config   *RuntimeConfig
		validate func(t *testing.T, c *RuntimeConfig)
	}{
		{
			name: "partial background falls back",
			config: &RuntimeConfig{
				BackgroundColorR: ptrUint8(10),
				BackgroundColorG: ptrUint8(20),
			},
			validate: func(t *testing.T, c *RuntimeConfig) {
				r, g, b := c.GetBackgroundColor()
				if r != BackgroundColorR || g != BackgroundColorG || b != BackgroundColorB {
					t.Errorf("partial background = (%d, %d, %d), want defaults", r, g, b)
				}
			},
		},
		{
			name: "full background applies",
			config: &RuntimeConfig{
				BackgroundColorR: ptrUint8(10),
				BackgroundColorG: ptrUint8(20),
				BackgroundColorB: ptrUint8(30),
			},
			validate: func(t *testing.T, c *RuntimeConfig) {
				r, g, b := c.GetBackgroundColor()
				if r != 10 || g != 20 || b != 30 {
					t.Errorf("GetBackgroundColor() = (%d, %d, %d), want (10, 20, 30)", r, g, b)
				}
			},
		},
		{
			name:   "frame interval override",
			config: &RuntimeConfig{FrameInterval: &interval},
			validate: func(t *testing.T, c *RuntimeConfig) {
				if got := c.GetFrameInterval(); got != interval {
					t.Errorf("GetFrameInterval() = %v, want %v", got, interval)
				}
			},
		},
		{
			name:   "zero frame interval ignored",
			config: &RuntimeConfig{FrameInterval: &zero},
			validate: func(t *testing.T, c *RuntimeConfig) {
				if got := c.GetFrameInterval(); got != DefaultFrameDuration {
					t.Errorf("GetFrameInterval() = %v, want %v", got, DefaultFrameDuration)
				}
			},
		},
		{
			name:   "string overrides",
			config: &RuntimeConfig{ScaleType: "center-crop", Quality: "nearest", CacheDir: dir},
			validate: func(t *testing.T, c *RuntimeConfig) {
				if got := c.GetScaleType(); got != "center-crop" {
					t.Errorf("GetScaleType() = %q", got)
				}
				if got := c.GetQuality(); got != "nearest" {
					t.Errorf("GetQuality() = %q", got)
				}
				if got := c.GetCacheDir(); got != dir {
					t.Errorf("GetCacheDir() = %q, want %q", got, dir)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, tt.config)
		})
	}
}

// ptrUint8 is a helper to create pointers to uint8 values for testing.
func ptrUint8(v uint8) *uint8 {
	return &v
}
