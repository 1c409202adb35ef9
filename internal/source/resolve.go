package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// imageExts lists the extensions tried, in order, for bare drawable names
var imageExts = []string{".png", ".webp", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff"}

func isImage(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range imageExts {
		if ext == e {
			return true
		}
	}
	return false
}

// baseName strips directories and the image extension
func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// splitDrawable turns "@drawable/walk_01" into ("walk_01", "drawable").
// Plain paths are returned unchanged with no directory hint.
func splitDrawable(ref string) (string, string) {
	if rest, ok := strings.CutPrefix(ref, "@"); ok {
		if dir, name, ok := strings.Cut(rest, "/"); ok {
			return name, dir
		}
		return rest, ""
	}
	return ref, ""
}

// resolve finds the image file for name, looking in baseDir/dir first and
// then baseDir. Names without an extension are tried with each known one.
func resolve(baseDir, dir, name string) (string, error) {
	if filepath.IsAbs(name) {
		if fileExists(name) {
			return name, nil
		}
		return "", fmt.Errorf("image %s not found", name)
	}

	roots := []string{baseDir}
	if dir != "" {
		roots = []string{filepath.Join(baseDir, dir), baseDir}
	}

	for _, root := range roots {
		candidate := filepath.Join(root, filepath.FromSlash(name))
		if isImage(name) {
			if fileExists(candidate) {
				return candidate, nil
			}
			continue
		}
		for _, ext := range imageExts {
			if fileExists(candidate + ext) {
				return candidate + ext, nil
			}
		}
	}
	return "", fmt.Errorf("cannot resolve image %q under %s", name, baseDir)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// naturalLess orders names so that "frame_2" sorts before "frame_10"
func naturalLess(a, b string) bool {
	for a != "" && b != "" {
		ca, cb := rune(a[0]), rune(b[0])
		if unicode.IsDigit(ca) && unicode.IsDigit(cb) {
			na, ra := leadingDigits(a)
			nb, rb := leadingDigits(b)
			ta := strings.TrimLeft(na, "0")
			tb := strings.TrimLeft(nb, "0")
			if len(ta) != len(tb) {
				return len(ta) < len(tb)
			}
			if ta != tb {
				return ta < tb
			}
			if len(na) != len(nb) {
				return len(na) < len(nb)
			}
			a, b = ra, rb
			continue
		}
		if ca != cb {
			return ca < cb
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func leadingDigits(s string) (string, string) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return s[:i], s[i:]
}
