package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/text/cases"

	"condaprobe/internal/platform"
)

const (
	// MetaDirName is the directory conda creates at the root of every
	// environment it manages.
	MetaDirName = "conda-meta"
	// HistoryFileName is the package history log inside MetaDirName.
	HistoryFileName = "history"
)

// Normalize returns a form of p suitable for equality checks on the given
// platform: cleaned, without trailing separators, and case-folded on
// Windows where the filesystem is case-insensitive.
func Normalize(goos platform.OS, p string) string {
	if p == "" {
		return ""
	}
	if goos != platform.Windows {
		return filepath.Clean(p)
	}

	p = strings.ReplaceAll(p, "/", `\`)
	for len(p) > 1 && strings.HasSuffix(p, `\`) && !strings.HasSuffix(p, `:\`) {
		p = p[:len(p)-1]
	}
	return cases.Fold().String(p)
}

// Same reports whether a and b name the same location on goos. Empty paths
// never match.
func Same(goos platform.OS, a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return Normalize(goos, a) == Normalize(goos, b)
}

// IsParent reports whether parent is child itself or one of its ancestor
// directories.
func IsParent(goos platform.OS, child, parent string) bool {
	if child == "" || parent == "" {
		return false
	}
	c := Normalize(goos, child)
	p := Normalize(goos, parent)
	if c == p {
		return true
	}
	sep := "/"
	if goos == platform.Windows {
		sep = `\`
	}
	if !strings.HasSuffix(p, sep) {
		p += sep
	}
	return strings.HasPrefix(c, p)
}

// MetaDirs returns the two places an environment's conda-meta directory can
// live relative to an interpreter, most common first: beside the binary
// (Windows layout) and beside its parent directory (bin/ layout).
func MetaDirs(h platform.Host, interpreter string) []string {
	dir := h.Dir(interpreter)
	return []string{
		h.Join(dir, MetaDirName),
		h.Join(h.Dir(dir), MetaDirName),
	}
}

// KnownEnvironmentsFile is the per-user list of environments conda
// maintains, or "" when h has no home directory.
func KnownEnvironmentsFile(h platform.Host) string {
	if h.Home == "" {
		return ""
	}
	return h.Join(h.Home, ".conda", "environments.txt")
}

// ConfigDir returns the user-level condaprobe directory without creating it.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil || strings.TrimSpace(base) == "" {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", errors.New("cannot determine config directory")
		}
		base = home
	}
	return filepath.Join(base, "condaprobe"), nil
}

// EnsureDir creates dir and its parents.
func EnsureDir(fs afero.Fs, dir string) error {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(fs afero.Fs, path string) (bool, error) {
	info, err := fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(fs afero.Fs, path string) (bool, error) {
	info, err := fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}
