package renderer

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/linuxmatters/flipbook/internal/frame"
)

// qualities maps resampling names to interpolators, fastest first
var qualities = []struct {
	name   string
	interp draw.Interpolator
}{
	{"nearest", draw.NearestNeighbor},
	{"approx", draw.ApproxBiLinear},
	{"bilinear", draw.BiLinear},
	{"catmull-rom", draw.CatmullRom},
}

// ParseQuality returns the interpolator for a quality name
func ParseQuality(name string) (draw.Interpolator, error) {
	norm := normaliseName(name)
	var names []string
	for _, q := range qualities {
		if normaliseName(q.name) == norm {
			return q.interp, nil
		}
		names = append(names, q.name)
	}
	return nil, fmt.Errorf("unknown quality %q (want one of %s)", name, strings.Join(names, ", "))
}

// Compositor draws decoded frames onto a canvas
type Compositor struct {
	background color.RGBA
	interp     draw.Interpolator
	labeler    *Labeler
	transform  Transformer
}

// NewCompositor creates a compositor clearing to bg and resampling with interp.
// A nil interp uses bilinear filtering.
func NewCompositor(bg color.RGBA, interp draw.Interpolator) *Compositor {
	if interp == nil {
		interp = draw.BiLinear
	}
	return &Compositor{background: bg, interp: interp}
}

// SetLabeler enables a text overlay drawn after every frame
func (c *Compositor) SetLabeler(l *Labeler) {
	c.labeler = l
}

// Compose clears dst and draws f onto it. label is drawn only when a
// Labeler is set.
func (c *Compositor) Compose(dst *image.RGBA, f *frame.Frame, st ScaleType, matrix f64.Aff3, label string) {
	fill(dst, c.background)

	if f != nil && !f.Empty() {
		b := dst.Bounds()
		m := c.transform.Transform(f.Width, f.Height, b.Dx(), b.Dy(), st, matrix)
		src := f.Image()

		if off, ok := integerTranslation(m); ok {
			// Direct copy when no resampling is needed
			r := src.Bounds().Add(off).Add(b.Min)
			draw.Draw(dst, r, src, image.Point{}, draw.Over)
		} else {
			m[2] += float64(b.Min.X)
			m[5] += float64(b.Min.Y)
			c.interp.Transform(dst, m, src, src.Bounds(), draw.Over, nil)
		}
	}

	if c.labeler != nil && label != "" {
		c.labeler.Draw(dst, label)
	}
}

// integerTranslation reports whether m is a unit-scale whole-pixel shift
func integerTranslation(m f64.Aff3) (image.Point, bool) {
	if m[0] != 1 || m[1] != 0 || m[3] != 0 || m[4] != 1 {
		return image.Point{}, false
	}
	if m[2] != math.Trunc(m[2]) || m[5] != math.Trunc(m[5]) {
		return image.Point{}, false
	}
	return image.Pt(int(m[2]), int(m[5])), true
}

// fill sets every pixel of dst to c by painting the first row and copying
// it down
func fill(dst *image.RGBA, c color.RGBA) {
	b := dst.Bounds()
	if b.Empty() {
		return
	}

	rowLen := b.Dx() * 4
	first := dst.Pix[dst.PixOffset(b.Min.X, b.Min.Y):]
	first = first[:rowLen]
	for i := 0; i < rowLen; i += 4 {
		first[i] = c.R
		first[i+1] = c.G
		first[i+2] = c.B
		first[i+3] = c.A
	}
	for y := b.Min.Y + 1; y < b.Max.Y; y++ {
		off := dst.PixOffset(b.Min.X, y)
		copy(dst.Pix[off:off+rowLen], first)
	}
}
