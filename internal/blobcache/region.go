package blobcache

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
)

const (
	regionMagic = 0x46425243 // "FBRC"
	recordMagic = 0x46425245 // "FBRE"

	regionHeaderSize = 16 // magic u32, version u32, generation u64
	recordHeaderSize = 24 // magic u32, key u64, stored u32, raw u32, crc u32
)

// recordRef locates a stored value inside a region file
type recordRef struct {
	offset int64 // Start of the payload
	stored uint32
	raw    uint32
	crc    uint32
}

// region is one append-only data file. Two regions alternate as the
// active write target; the inactive one stays readable until it is reused.
type region struct {
	path       string
	file       *os.File
	w          *bufio.Writer
	size       int64
	generation uint64
	index      map[uint64]recordRef
}

// openRegion opens or creates a region file and rebuilds its index.
// A header for another version resets the file; a torn record truncates
// the file at the last good record.
func openRegion(path string, version uint32) (*region, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open region %s: %w", path, err)
	}

	r := &region{
		path:  path,
		file:  f,
		index: make(map[uint64]recordRef),
	}

	gen, err := r.readHeader(version)
	if err != nil {
		if err := r.reset(version, 0); err != nil {
			f.Close()
			return nil, err
		}
	} else {
		r.generation = gen
		if err := r.scan(); err != nil {
			f.Close()
			return nil, err
		}
	}

	if _, err := f.Seek(r.size, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("seek region %s: %w", path, err)
	}
	r.w = bufio.NewWriter(f)
	return r, nil
}

func (r *region) readHeader(version uint32) (uint64, error) {
	var hdr [regionHeaderSize]byte
	if _, err := r.file.ReadAt(hdr[:], 0); err != nil {
		return 0, err
	}
	if binary.LittleEndian.Uint32(hdr[0:]) != regionMagic {
		return 0, errors.New("bad region magic")
	}
	if binary.LittleEndian.Uint32(hdr[4:]) != version {
		return 0, errors.New("region version mismatch")
	}
	return binary.LittleEndian.Uint64(hdr[8:]), nil
}

// scan walks records from the header onwards, indexing every intact one
func (r *region) scan() error {
	info, err := r.file.Stat()
	if err != nil {
		return fmt.Errorf("stat region %s: %w", r.path, err)
	}
	end := info.Size()

	off := int64(regionHeaderSize)
	var hdr [recordHeaderSize]byte
	payload := make([]byte, 0, 4096)

	for off+recordHeaderSize <= end {
		if _, err := r.file.ReadAt(hdr[:], off); err != nil {
			break
		}
		if binary.LittleEndian.Uint32(hdr[0:]) != recordMagic {
			break
		}
		key := binary.LittleEndian.Uint64(hdr[4:])
		ref := recordRef{
			offset: off + recordHeaderSize,
			stored: binary.LittleEndian.Uint32(hdr[12:]),
			raw:    binary.LittleEndian.Uint32(hdr[16:]),
			crc:    binary.LittleEndian.Uint32(hdr[20:]),
		}
		if ref.offset+int64(ref.stored) > end {
			break
		}

		if cap(payload) < int(ref.stored) {
			payload = make([]byte, ref.stored)
		}
		payload = payload[:ref.stored]
		if _, err := r.file.ReadAt(payload, ref.offset); err != nil {
			break
		}
		if crc32.ChecksumIEEE(payload) != ref.crc {
			break
		}

		r.index[key] = ref
		off = ref.offset + int64(ref.stored)
	}

	if off < end {
		if err := r.file.Truncate(off); err != nil {
			return fmt.Errorf("truncate torn region %s: %w", r.path, err)
		}
	}
	r.size = off
	return nil
}

// reset empties the region and stamps a fresh header
func (r *region) reset(version uint32, generation uint64) error {
	if r.w != nil {
		r.w.Reset(r.file)
	}
	if err := r.file.Truncate(0); err != nil {
		return fmt.Errorf("truncate region %s: %w", r.path, err)
	}

	var hdr [regionHeaderSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], regionMagic)
	binary.LittleEndian.PutUint32(hdr[4:], version)
	binary.LittleEndian.PutUint64(hdr[8:], generation)
	if _, err := r.file.WriteAt(hdr[:], 0); err != nil {
		return fmt.Errorf("write region header %s: %w", r.path, err)
	}
	if _, err := r.file.Seek(regionHeaderSize, io.SeekStart); err != nil {
		return fmt.Errorf("seek region %s: %w", r.path, err)
	}

	r.size = regionHeaderSize
	r.generation = generation
	clear(r.index)
	return nil
}

// append writes one record through the buffered writer
func (r *region) append(key uint64, stored []byte, raw int) error {
	var hdr [recordHeaderSize]byte
	ref := recordRef{
		offset: r.size + recordHeaderSize,
		stored: uint32(len(stored)),
		raw:    uint32(raw),
		crc:    crc32.ChecksumIEEE(stored),
	}
	binary.LittleEndian.PutUint32(hdr[0:], recordMagic)
	binary.LittleEndian.PutUint64(hdr[4:], key)
	binary.LittleEndian.PutUint32(hdr[12:], ref.stored)
	binary.LittleEndian.PutUint32(hdr[16:], ref.raw)
	binary.LittleEndian.PutUint32(hdr[20:], ref.crc)

	if _, err := r.w.Write(hdr[:]); err != nil {
		return err
	}
	if _, err := r.w.Write(stored); err != nil {
		return err
	}

	r.index[key] = ref
	r.size = ref.offset + int64(ref.stored)
	return nil
}

// read returns the stored (compressed) bytes of ref
func (r *region) read(ref recordRef, buf []byte) ([]byte, error) {
	if r.w.Buffered() > 0 {
		if err := r.w.Flush(); err != nil {
			return nil, err
		}
	}
	if cap(buf) < int(ref.stored) {
		buf = make([]byte, ref.stored)
	}
	buf = buf[:ref.stored]
	if _, err := r.file.ReadAt(buf, ref.offset); err != nil {
		return nil, err
	}
	if crc32.ChecksumIEEE(buf) != ref.crc {
		return nil, ErrCorrupt
	}
	return buf, nil
}

func (r *region) sync() error {
	if err := r.w.Flush(); err != nil {
		return err
	}
	return r.file.Sync()
}

func (r *region) close() error {
	flushErr := r.w.Flush()
	closeErr := r.file.Close()
	return errors.Join(flushErr, closeErr)
}
