package framecache

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// ErrShortEntry is returned for entries too small to hold their trailer
var ErrShortEntry = errors.New("cache entry too short")

// ErrEntrySize is returned when the pixel payload disagrees with the
// recorded dimensions
var ErrEntrySize = errors.New("cache entry size mismatch")

// trailerSize is the width and height fields that follow the pixels
const trailerSize = 8

// EntrySize returns the encoded size of an entry
func EntrySize(w, h, nameLen int) int {
	return w*h*4 + trailerSize + nameLen
}

// EncodeEntry writes [pixels][width u32 LE][height u32 LE][name] into dst,
// which must be at least EntrySize bytes long, and returns the used slice.
func EncodeEntry(dst, pix []byte, w, h int, name []byte) []byte {
	n := copy(dst, pix)
	binary.LittleEndian.PutUint32(dst[n:], uint32(w))
	binary.LittleEndian.PutUint32(dst[n+4:], uint32(h))
	n += trailerSize
	n += copy(dst[n:], name)
	return dst[:n]
}

// matchesName reports whether entry ends with the expanded name. A key hit
// without a name match is a hash collision and must be treated as a miss.
func matchesName(entry, name []byte) bool {
	if len(entry) < len(name)+trailerSize {
		return false
	}
	return bytes.Equal(entry[len(entry)-len(name):], name)
}
