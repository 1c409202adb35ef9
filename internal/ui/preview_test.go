package ui

import (
	"image"
	"image/color"
	"strings"
	"testing"
)

func TestDownsampleAverages(t *testing.T) {
	// 4x4 source into 2x2 pixels (one cell row)
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			v := uint8(0)
			if x >= 2 {
				v = 200
			}
			if (x+y)%2 == 0 && x < 2 {
				v = 100
			}
			img.SetRGBA(x, y, color.RGBA{R: v, G: v / 2, B: 10, A: 255})
		}
	}

	grid := Downsample(img, PreviewConfig{Width: 2, Height: 1})
	if len(grid) != 2 || len(grid[0]) != 2 {
		t.Fatalf("grid is %dx%d, want 2x2", len(grid), len(grid[0]))
	}

	tests := []struct {
		row, col int
		want     color.RGBA
	}{
		{0, 0, color.RGBA{R: 50, G: 25, B: 10, A: 255}},
		{0, 1, color.RGBA{R: 200, G: 100, B: 10, A: 255}},
		{1, 0, color.RGBA{R: 50, G: 25, B: 10, A: 255}},
		{1, 1, color.RGBA{R: 200, G: 100, B: 10, A: 255}},
	}
	for _, tt := range tests {
		if got := grid[tt.row][tt.col]; got != tt.want {
			t.Errorf("grid[%d][%d] = %v, want %v", tt.row, tt.col, got, tt.want)
		}
	}
}

func TestDownsampleUpscalesSmallSource(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 9, G: 8, B: 7, A: 255})

	grid := Downsample(img, PreviewConfig{Width: 3, Height: 2})
	for r, row := range grid {
		for c, px := range row {
			if px != (color.RGBA{R: 9, G: 8, B: 7, A: 255}) {
				t.Fatalf("grid[%d][%d] = %v, want the single source pixel", r, c, px)
			}
		}
	}
}

func TestRenderHalfBlocks(t *testing.T) {
	grid := [][]color.RGBA{
		{{R: 1, G: 2, B: 3, A: 255}, {R: 4, G: 5, B: 6, A: 255}},
		{{R: 7, G: 8, B: 9, A: 255}, {R: 10, G: 11, B: 12, A: 255}},
		{{A: 255}, {A: 255}},
		{{A: 255}, {A: 255}},
	}

	out := RenderHalfBlocks(grid)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("rendered %d lines, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "\x1b[38;2;1;2;3m\x1b[48;2;7;8;9m▀") {
		t.Errorf("first cell = %q", lines[0])
	}
	if strings.Count(lines[0], "▀") != 2 {
		t.Errorf("first line has %d cells, want 2", strings.Count(lines[0], "▀"))
	}
	if !strings.HasSuffix(lines[1], "\x1b[0m") {
		t.Error("line does not reset colours")
	}
	if RenderHalfBlocks(nil) != "" {
		t.Error("empty grid should render nothing")
	}
}
