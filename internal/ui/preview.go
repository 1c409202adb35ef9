package ui

import (
	"fmt"
	"image"
	"image/color"
	"strings"
)

// PreviewConfig holds the size of the terminal preview
type PreviewConfig struct {
	Width  int // Width in terminal cells
	Height int // Height in terminal cells; each cell shows two pixel rows
}

// DefaultPreviewConfig returns the preview size used before the first
// window size message arrives. 72x20 cells is 72x40 half-block pixels.
func DefaultPreviewConfig() PreviewConfig {
	return PreviewConfig{
		Width:  72,
		Height: 20,
	}
}

// PixelRows returns the number of pixel rows the preview shows
func (c PreviewConfig) PixelRows() int {
	return c.Height * 2
}

// Downsample averages img into a grid of config.Width x config.PixelRows
// colours. Each grid entry covers a rectangular region of the source.
func Downsample(img *image.RGBA, config PreviewConfig) [][]color.RGBA {
	bounds := img.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()
	rows := config.PixelRows()

	grid := make([][]color.RGBA, rows)
	for row := 0; row < rows; row++ {
		grid[row] = make([]color.RGBA, config.Width)

		y0 := row * srcHeight / rows
		y1 := (row + 1) * srcHeight / rows
		if y1 <= y0 {
			y1 = y0 + 1
		}

		for col := 0; col < config.Width; col++ {
			x0 := col * srcWidth / config.Width
			x1 := (col + 1) * srcWidth / config.Width
			if x1 <= x0 {
				x1 = x0 + 1
			}

			var sumR, sumG, sumB uint32
			count := uint32(0)
			for y := y0; y < y1 && y < srcHeight; y++ {
				off := img.PixOffset(bounds.Min.X+x0, bounds.Min.Y+y)
				for x := x0; x < x1 && x < srcWidth; x++ {
					sumR += uint32(img.Pix[off])
					sumG += uint32(img.Pix[off+1])
					sumB += uint32(img.Pix[off+2])
					off += 4
					count++
				}
			}

			if count > 0 {
				grid[row][col] = color.RGBA{
					R: uint8(sumR / count),
					G: uint8(sumG / count),
					B: uint8(sumB / count),
					A: 255,
				}
			}
		}
	}

	return grid
}

// RenderHalfBlocks draws a pixel grid with one upper half block per cell:
// the foreground colour is the upper pixel and the background the lower,
// both as 24-bit ANSI colours.
func RenderHalfBlocks(grid [][]color.RGBA) string {
	if len(grid) == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(len(grid) / 2 * len(grid[0]) * 40)

	for row := 0; row+1 < len(grid); row += 2 {
		top, bottom := grid[row], grid[row+1]
		for col := range top {
			t, u := top[col], bottom[col]
			fmt.Fprintf(&b, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm▀", t.R, t.G, t.B, u.R, u.G, u.B)
		}
		b.WriteString("\x1b[0m")
		if row+2 < len(grid) {
			b.WriteString("\n")
		}
	}

	return b.String()
}
