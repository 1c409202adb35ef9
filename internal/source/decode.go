package source

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/linuxmatters/flipbook/internal/frame"
)

// FileDecoder decodes image files named by descriptors into frames
type FileDecoder struct{}

// Decode reads d.SourceRef into dst, reusing dst's pixel storage when the
// image has the same dimensions.
func (FileDecoder) Decode(d frame.Descriptor, dst *frame.Frame) error {
	f, err := os.Open(d.SourceRef)
	if err != nil {
		return fmt.Errorf("open %s: %w", d.SourceRef, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("decode %s: %w", d.SourceRef, err)
	}

	b := img.Bounds()
	if b.Empty() {
		return fmt.Errorf("decode %s (%s): empty image", d.SourceRef, format)
	}

	dst.Ensure(b.Dx(), b.Dy())
	rgba := dst.Image()

	// Direct copy when the decoder already produced RGBA rows
	if src, ok := img.(*image.RGBA); ok && src.Stride == rgba.Stride {
		copy(rgba.Pix, src.Pix[src.PixOffset(b.Min.X, b.Min.Y):])
		return nil
	}

	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return nil
}
