package player

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/linuxmatters/flipbook/internal/source"
)

func writeFramePNG(t *testing.T, path string, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, testSize, testSize))
	for y := 0; y < testSize; y++ {
		for x := 0; x < testSize; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

// Directory frames carry no duration, so the engine interval sets the pace
func TestEngineDirectoryUsesFrameInterval(t *testing.T) {
	dir := t.TempDir()
	for i, name := range []string{"1.png", "2.png", "3.png"} {
		writeFramePNG(t, filepath.Join(dir, name), color.RGBA{R: uint8(10 * (i + 1)), A: 255})
	}
	seq, err := source.Parse(dir)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	const interval = 150 * time.Millisecond
	h := newHarness(t, func(o *Options) {
		o.Decoder = source.FileDecoder{}
		o.FrameInterval = interval
		o.RepeatCount = 1
	})
	h.e.OnSurfaceAvailable()
	h.e.SetSequence(seq)

	start := time.Now()
	h.e.Start()
	waitFor(t, "end state", func() bool { return h.e.State() == StateEnd })
	elapsed := time.Since(start)

	if got := h.surf.submitted(); !equalBytes(got, []byte{10, 20, 30}) {
		t.Errorf("submitted = %v, want [10 20 30]", got)
	}
	// Two waits between three frames; a fixed 100ms per frame would finish in about 200ms
	if want := 2*interval - 20*time.Millisecond; elapsed < want {
		t.Errorf("played 3 frames in %v, want at least %v", elapsed, want)
	}
}
