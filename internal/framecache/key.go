package framecache

import (
	"hash/crc64"
	"unicode/utf16"
)

// keyPoly is the cache key polynomial, in the LSB-first form crc64.MakeTable expects
const keyPoly = 0x95AC9329AC4BC9B5

var keyTable = crc64.MakeTable(keyPoly)

// Expand converts a logical name to the byte form stored in cache entries:
// two bytes per UTF-16 code unit, low byte first.
func Expand(name string) []byte {
	units := utf16.Encode([]rune(name))
	out := make([]byte, len(units)*2)
	for i, u := range units {
		out[2*i] = byte(u)
		out[2*i+1] = byte(u >> 8)
	}
	return out
}

// Key returns the cache key for a logical name.
// The register starts at all ones and is not inverted at the end;
// crc64.Checksum inverts on the way out, so undo that.
func Key(name string) uint64 {
	return KeyBytes(Expand(name))
}

// KeyBytes returns the cache key for an already expanded name
func KeyBytes(expanded []byte) uint64 {
	return ^crc64.Checksum(expanded, keyTable)
}
