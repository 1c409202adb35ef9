package renderer

import (
	"fmt"
	"image"
	"image/color"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/linuxmatters/flipbook/internal/config"
)

// Labeler draws a short text label in the bottom-left corner of a canvas
type Labeler struct {
	face   font.Face
	ascent int
	height int
	text   *image.Uniform
	plate  *image.Uniform
}

// NewLabeler loads the embedded Go Regular font at the given size
func NewLabeler(size float64) (*Labeler, error) {
	parsed, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	if size <= 0 {
		size = config.LabelFontSize
	}

	face := truetype.NewFace(parsed, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	metrics := face.Metrics()

	return &Labeler{
		face:   face,
		ascent: metrics.Ascent.Ceil(),
		height: (metrics.Ascent + metrics.Descent).Ceil(),
		text:   image.NewUniform(color.RGBA{R: 255, G: 255, B: 255, A: 255}),
		plate:  image.NewUniform(color.RGBA{A: 160}),
	}, nil
}

// Draw renders s over a translucent plate so it reads on any frame
func (l *Labeler) Draw(dst *image.RGBA, s string) {
	b := dst.Bounds()
	width := font.MeasureString(l.face, s).Ceil()

	x := b.Min.X + config.LabelMargin
	y := b.Max.Y - config.LabelMargin - l.height
	plate := image.Rect(x-4, y-2, x+width+4, y+l.height+2).Intersect(b)
	draw.Draw(dst, plate, l.plate, image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  dst,
		Src:  l.text,
		Face: l.face,
		Dot:  freetype.Pt(x, y+l.ascent),
	}
	d.DrawString(s)
}

// Close releases the font face
func (l *Labeler) Close() error {
	return l.face.Close()
}
