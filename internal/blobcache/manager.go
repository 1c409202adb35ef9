package blobcache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Manager owns the caches opened under one directory. Each name/version
// pair is opened once and shared by every caller asking for it.
type Manager struct {
	dir string

	mu     sync.Mutex
	caches map[string]*Cache
}

// NewManager creates a manager rooted at dir. Nothing is created on disk
// until the first Open.
func NewManager(dir string) *Manager {
	return &Manager{
		dir:    dir,
		caches: make(map[string]*Cache),
	}
}

// Dir returns the cache directory
func (m *Manager) Dir() string {
	return m.dir
}

// Open returns the cache for name and opts.Version, opening it if needed
func (m *Manager) Open(name string, opts Options) (*Cache, error) {
	name = SanitizeName(name)
	id := identity(name, opts.Version)

	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.caches[id]; ok {
		return c, nil
	}

	c, err := Open(m.dir, name, opts)
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", id, err)
	}
	m.caches[id] = c
	return c, nil
}

// Close closes and forgets the cache for name and version
func (m *Manager) Close(name string, version uint32) error {
	id := identity(SanitizeName(name), version)

	m.mu.Lock()
	c, ok := m.caches[id]
	delete(m.caches, id)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	return c.Close()
}

// CloseAll closes every open cache
func (m *Manager) CloseAll() error {
	m.mu.Lock()
	caches := m.caches
	m.caches = make(map[string]*Cache)
	m.mu.Unlock()

	var errs []error
	for id, c := range caches {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// Prune deletes region files of name whose version differs from keep.
// It returns the removed paths.
func (m *Manager) Prune(name string, keep uint32) ([]string, error) {
	name = SanitizeName(name)

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cache dir: %w", err)
	}

	var removed []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		version, ok := parseRegionName(e.Name(), name)
		if !ok || version == keep {
			continue
		}

		path := filepath.Join(m.dir, e.Name())
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("remove %s: %w", path, err)
		}
		removed = append(removed, path)
	}
	return removed, nil
}

// Clear closes every cache and deletes the whole cache directory
func (m *Manager) Clear() error {
	closeErr := m.CloseAll()
	if err := os.RemoveAll(m.dir); err != nil {
		return errors.Join(closeErr, fmt.Errorf("remove cache dir: %w", err))
	}
	return closeErr
}

func identity(name string, version uint32) string {
	return name + ".v" + strconv.FormatUint(uint64(version), 10)
}

// parseRegionName extracts the version from "<name>.v<version>.<n>.blob"
func parseRegionName(file, name string) (uint32, bool) {
	rest, ok := strings.CutPrefix(file, name+".v")
	if !ok {
		return 0, false
	}
	rest, ok = strings.CutSuffix(rest, ".blob")
	if !ok {
		return 0, false
	}
	ver, idx, ok := strings.Cut(rest, ".")
	if !ok || (idx != "0" && idx != "1") {
		return 0, false
	}
	v, err := strconv.ParseUint(ver, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

// SanitizeName maps a sequence identifier to a safe file name component
func SanitizeName(name string) string {
	if name == "" {
		return "default"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
