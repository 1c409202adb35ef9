package renderer

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/image/math/f64"
)

// ScaleType selects how a frame is fitted onto the canvas
type ScaleType int

const (
	ScaleMatrix       ScaleType = iota // Caller-supplied matrix
	ScaleFitXY                         // Stretch both axes independently
	ScaleFitStart                      // Uniform fit, aligned top/left
	ScaleFitCenter                     // Uniform fit, centred
	ScaleFitEnd                        // Uniform fit, aligned bottom/right
	ScaleCenter                        // No scaling, centred
	ScaleCenterCrop                    // Uniform fill, centred, overflow cropped
	ScaleCenterInside                  // Like FitCenter but never upscales
)

var scaleNames = [...]string{
	ScaleMatrix:       "matrix",
	ScaleFitXY:        "fit-xy",
	ScaleFitStart:     "fit-start",
	ScaleFitCenter:    "fit-center",
	ScaleFitEnd:       "fit-end",
	ScaleCenter:       "center",
	ScaleCenterCrop:   "center-crop",
	ScaleCenterInside: "center-inside",
}

// Identity is the matrix that leaves frames untouched
var Identity = f64.Aff3{1, 0, 0, 0, 1, 0}

func (s ScaleType) String() string {
	if s < 0 || int(s) >= len(scaleNames) {
		return fmt.Sprintf("ScaleType(%d)", int(s))
	}
	return scaleNames[s]
}

// Next returns the following non-matrix scale type, wrapping around
func (s ScaleType) Next() ScaleType {
	n := s + 1
	if int(n) >= len(scaleNames) {
		n = ScaleFitXY
	}
	return n
}

// ParseScaleType accepts names such as "center-crop", "CENTER_CROP" or "centercrop"
func ParseScaleType(name string) (ScaleType, error) {
	norm := normaliseName(name)
	for i, n := range scaleNames {
		if normaliseName(n) == norm {
			return ScaleType(i), nil
		}
	}
	return ScaleMatrix, fmt.Errorf("unknown scale type %q (want one of %s)", name, strings.Join(ScaleTypeNames(), ", "))
}

// ScaleTypeNames lists the accepted scale type names
func ScaleTypeNames() []string {
	return append([]string(nil), scaleNames[:]...)
}

func normaliseName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
}

// ComputeTransform returns the affine matrix mapping a srcW x srcH frame
// onto a dstW x dstH canvas. ScaleMatrix returns matrix unchanged.
func ComputeTransform(srcW, srcH, dstW, dstH int, st ScaleType, matrix f64.Aff3) f64.Aff3 {
	if st == ScaleMatrix {
		return matrix
	}
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return Identity
	}

	sw, sh := float64(srcW), float64(srcH)
	dw, dh := float64(dstW), float64(dstH)

	switch st {
	case ScaleFitXY:
		return scaleTranslate(dw/sw, dh/sh, 0, 0)

	case ScaleFitStart, ScaleFitCenter, ScaleFitEnd:
		return fitRect(sw, sh, dw, dh, st)

	case ScaleCenter:
		return scaleTranslate(1, 1, roundHalfUp((dw-sw)*0.5), roundHalfUp((dh-sh)*0.5))

	case ScaleCenterCrop:
		var scale, dx, dy float64
		if sw*dh > dw*sh {
			scale = dh / sh
			dx = (dw - sw*scale) * 0.5
		} else {
			scale = dw / sw
			dy = (dh - sh*scale) * 0.5
		}
		return scaleTranslate(scale, scale, dx, dy)

	case ScaleCenterInside:
		scale := 1.0
		if sw > dw || sh > dh {
			scale = math.Min(dw/sw, dh/sh)
		}
		dx := roundHalfUp((dw - sw*scale) * 0.5)
		dy := roundHalfUp((dh - sh*scale) * 0.5)
		return scaleTranslate(scale, scale, dx, dy)
	}

	return Identity
}

// fitRect scales uniformly by the smaller axis ratio and aligns the
// leftover space on the larger axis according to st
func fitRect(sw, sh, dw, dh float64, st ScaleType) f64.Aff3 {
	sx, sy := dw/sw, dh/sh
	xLarger := sx > sy
	scale := math.Min(sx, sy)

	var diff float64
	if xLarger {
		diff = dw - sw*scale
	} else {
		diff = dh - sh*scale
	}

	switch st {
	case ScaleFitStart:
		diff = 0
	case ScaleFitCenter:
		diff /= 2
	}

	if xLarger {
		return scaleTranslate(scale, scale, diff, 0)
	}
	return scaleTranslate(scale, scale, 0, diff)
}

func scaleTranslate(sx, sy, tx, ty float64) f64.Aff3 {
	return f64.Aff3{sx, 0, tx, 0, sy, ty}
}

// roundHalfUp rounds .5 towards positive infinity
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

// Transformer caches the last computed matrix and recomputes only when an
// input changes. Not safe for concurrent use.
type Transformer struct {
	valid          bool
	srcW, srcH     int
	dstW, dstH     int
	scaleType      ScaleType
	matrix, result f64.Aff3

	computes int
}

// Transform returns the matrix for the given inputs
func (t *Transformer) Transform(srcW, srcH, dstW, dstH int, st ScaleType, matrix f64.Aff3) f64.Aff3 {
	if t.valid && t.srcW == srcW && t.srcH == srcH && t.dstW == dstW && t.dstH == dstH &&
		t.scaleType == st && t.matrix == matrix {
		return t.result
	}

	t.result = ComputeTransform(srcW, srcH, dstW, dstH, st, matrix)
	t.srcW, t.srcH, t.dstW, t.dstH = srcW, srcH, dstW, dstH
	t.scaleType = st
	t.matrix = matrix
	t.valid = true
	t.computes++
	return t.result
}
