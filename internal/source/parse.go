package source

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/linuxmatters/flipbook/internal/config"
	"github.com/linuxmatters/flipbook/internal/frame"
)

// ErrEmptySequence is returned when a source yields no frames
var ErrEmptySequence = errors.New("sequence has no frames")

// animationList is the frame-by-frame animation descriptor:
//
//	<animation-list oneshot="true" version="2" maxEntries="100" maxBytes="104857600">
//	    <item drawable="@drawable/walk_01" duration="80"/>
//	</animation-list>
type animationList struct {
	XMLName    xml.Name        `xml:"animation-list"`
	OneShot    string          `xml:"oneshot,attr"`
	Version    string          `xml:"version,attr"`
	MaxEntries string          `xml:"maxEntries,attr"`
	MaxBytes   string          `xml:"maxBytes,attr"`
	Items      []animationItem `xml:"item"`
}

type animationItem struct {
	Drawable string `xml:"drawable,attr"`
	Duration string `xml:"duration,attr"`
}

// frameList names frames to cache ahead of playback:
//
//	<frame-list>
//	    <frame name="walk_01" from="drawable"/>
//	</frame-list>
type frameList struct {
	XMLName xml.Name    `xml:"frame-list"`
	Frames  []frameItem `xml:"frame"`
}

type frameItem struct {
	Name     string `xml:"name,attr"`
	From     string `xml:"from,attr"`
	Duration string `xml:"duration,attr"`
}

// Parse builds a sequence from ref, which may be a directory of images,
// an animation-list or frame-list XML descriptor, or a single image.
func Parse(ref string) (*frame.Sequence, error) {
	info, err := os.Stat(ref)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}

	var seq *frame.Sequence
	switch {
	case info.IsDir():
		seq, err = parseDirectory(ref)
	case strings.EqualFold(filepath.Ext(ref), ".xml"):
		seq, err = parseDescriptorFile(ref)
	case isImage(ref):
		seq = &frame.Sequence{
			ID:    baseName(ref),
			Items: []frame.Descriptor{{SourceRef: ref, LogicalName: baseName(ref)}},
		}
	default:
		return nil, fmt.Errorf("unsupported source %s", ref)
	}
	if err != nil {
		return nil, err
	}

	if seq.Len() == 0 {
		return nil, fmt.Errorf("%s: %w", ref, ErrEmptySequence)
	}
	applyCacheDefaults(seq)
	return seq, nil
}

func parseDirectory(dir string) (*frame.Sequence, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frame directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && isImage(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return naturalLess(names[i], names[j])
	})

	seq := &frame.Sequence{ID: filepath.Base(filepath.Clean(dir))}
	for _, n := range names {
		seq.Items = append(seq.Items, frame.Descriptor{
			SourceRef:   filepath.Join(dir, n),
			LogicalName: baseName(n),
		})
	}
	return seq, nil
}

func parseDescriptorFile(path string) (*frame.Sequence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open descriptor: %w", err)
	}
	defer f.Close()

	seq, err := ParseDescriptor(f, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if seq.ID == "" {
		seq.ID = baseName(path)
	}
	return seq, nil
}

// ParseDescriptor reads an animation-list or frame-list document. Relative
// drawable references resolve against baseDir.
func ParseDescriptor(r io.Reader, baseDir string) (*frame.Sequence, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read descriptor: %w", err)
	}

	root, err := rootElement(data)
	if err != nil {
		return nil, err
	}

	switch root {
	case "animation-list":
		var doc animationList
		if err := xml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse animation-list: %w", err)
		}
		return doc.sequence(baseDir)
	case "frame-list":
		var doc frameList
		if err := xml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse frame-list: %w", err)
		}
		return doc.sequence(baseDir)
	default:
		return nil, fmt.Errorf("unknown descriptor root <%s>", root)
	}
}

func rootElement(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", fmt.Errorf("find descriptor root: %w", err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name.Local, nil
		}
	}
}

func (doc *animationList) sequence(baseDir string) (*frame.Sequence, error) {
	oneShot, err := parseBool(doc.OneShot)
	if err != nil {
		return nil, fmt.Errorf("oneshot: %w", err)
	}
	seq := &frame.Sequence{OneShot: oneShot}

	if seq.CacheVersion, err = parseUint32(doc.Version, config.DefaultCacheVersion); err != nil {
		return nil, fmt.Errorf("version: %w", err)
	}
	if seq.CacheMaxEntries, err = parseUint32(doc.MaxEntries, config.DefaultCacheMaxEntries); err != nil {
		return nil, fmt.Errorf("maxEntries: %w", err)
	}
	if seq.CacheMaxBytes, err = parseUint64(doc.MaxBytes, config.DefaultCacheMaxBytes); err != nil {
		return nil, fmt.Errorf("maxBytes: %w", err)
	}

	for i, item := range doc.Items {
		if item.Drawable == "" {
			return nil, fmt.Errorf("item %d: missing drawable", i)
		}
		dur, err := parseUint32(item.Duration, config.DefaultItemDuration)
		if err != nil {
			return nil, fmt.Errorf("item %d duration: %w", i, err)
		}
		name, dir := splitDrawable(item.Drawable)
		path, err := resolve(baseDir, dir, name)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		seq.Items = append(seq.Items, frame.Descriptor{
			SourceRef:   path,
			LogicalName: baseName(name),
			DurationMs:  dur,
		})
	}
	return seq, nil
}

func (doc *frameList) sequence(baseDir string) (*frame.Sequence, error) {
	seq := &frame.Sequence{}
	for i, f := range doc.Frames {
		if f.Name == "" {
			return nil, fmt.Errorf("frame %d: missing name", i)
		}
		from := f.From
		if from == "" {
			from = "drawable"
		}
		dur, err := parseUint32(f.Duration, 0)
		if err != nil {
			return nil, fmt.Errorf("frame %d duration: %w", i, err)
		}

		var dir string
		switch from {
		case "drawable":
			dir = "drawable"
		case "assets", "file":
		default:
			return nil, fmt.Errorf("frame %d: unknown origin %q", i, from)
		}
		path, err := resolve(baseDir, dir, f.Name)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		seq.Items = append(seq.Items, frame.Descriptor{
			SourceRef:   path,
			LogicalName: baseName(f.Name),
			DurationMs:  dur,
		})
	}
	return seq, nil
}

func applyCacheDefaults(seq *frame.Sequence) {
	if seq.CacheVersion == 0 {
		seq.CacheVersion = config.DefaultCacheVersion
	}
	if seq.CacheMaxEntries == 0 {
		seq.CacheMaxEntries = config.DefaultCacheMaxEntries
	}
	if seq.CacheMaxBytes == 0 {
		seq.CacheMaxBytes = config.DefaultCacheMaxBytes
	}
}

func parseBool(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(s))
}

func parseUint32(s string, def uint32) (uint32, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	return uint32(v), err
}

func parseUint64(s string, def uint64) (uint64, error) {
	if s == "" {
		return def, nil
	}
	return strconv.ParseUint(strings.TrimSpace(s), 10, 64)
}
