package conda

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"condaprobe/internal/paths"
	"condaprobe/internal/platform"
)

// PythonVersion is a Python interpreter version such as 3.9.0 or 3.12.0rc1.
type PythonVersion struct {
	Major   int    `json:"major"`
	Minor   int    `json:"minor"`
	Micro   int    `json:"micro"`
	Release string `json:"release,omitempty"`
	Raw     string `json:"raw,omitempty"`
}

// UnknownPythonVersion is returned whenever a version could not be
// determined.
var UnknownPythonVersion = PythonVersion{Major: -1, Minor: -1, Micro: -1}

// Known reports whether v carries a real version.
func (v PythonVersion) Known() bool {
	return v.Major >= 0
}

func (v PythonVersion) String() string {
	if !v.Known() {
		return "unknown"
	}
	s := strconv.Itoa(v.Major)
	if v.Minor >= 0 {
		s += "." + strconv.Itoa(v.Minor)
	}
	if v.Micro >= 0 {
		s += "." + strconv.Itoa(v.Micro)
	}
	return s + v.Release
}

var pythonVersionPattern = regexp.MustCompile(`^(\d+)(?:\.(\d+))?(?:\.(\d+))?([a-z][\w.]*)?$`)

// ParsePythonVersion parses major[.minor[.micro]][release]. Missing minor or
// micro components are reported as -1.
func ParsePythonVersion(s string) (PythonVersion, error) {
	s = strings.TrimSpace(s)
	m := pythonVersionPattern.FindStringSubmatch(s)
	if m == nil {
		return UnknownPythonVersion, fmt.Errorf("invalid python version %q", s)
	}
	v := PythonVersion{Major: atoiOr(m[1], -1), Minor: atoiOr(m[2], -1), Micro: atoiOr(m[3], -1), Release: m[4], Raw: s}
	return v, nil
}

func atoiOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

// historyPattern matches "<channel>::<pkg>-<version>-<build>" entries. The
// version must start with a digit so packages like python-dateutil do not
// count as python.
func historyPattern(pkg string) *regexp.Regexp {
	return regexp.MustCompile(`:` + regexp.QuoteMeta(pkg) + `-(\d[\d.a-z]*)`)
}

// lastHistoryMatch returns the version captured from the last matching
// line.
func lastHistoryMatch(r io.Reader, pkg string) (string, bool, error) {
	pattern := historyPattern(pkg)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var last string
	for scanner.Scan() {
		if m := pattern.FindStringSubmatch(scanner.Text()); m != nil {
			last = m[1]
		}
	}
	if err := scanner.Err(); err != nil {
		return "", false, err
	}
	return last, last != "", nil
}

// ParseHistory extracts the version of pkg from a conda-meta/history log,
// where the last matching line is authoritative:
//
//	+defaults/linux-64::pip-20.2.4-py38_0
//	+defaults/linux-64::python-3.8.5-h7579374_1
//
// Anything unexpected yields UnknownPythonVersion.
func ParseHistory(r io.Reader, pkg string) PythonVersion {
	match, ok, err := lastHistoryMatch(r, pkg)
	if err != nil || !ok {
		return UnknownPythonVersion
	}
	v, err := ParsePythonVersion(match)
	if err != nil {
		return UnknownPythonVersion
	}
	return v
}

// errNoMatch marks a history file without a matching line, so the next
// location is consulted.
var errNoMatch = errors.New("no matching history entry")

// PythonVersionFromHistory reads conda-meta/history next to interpreter,
// trying the interpreter's directory and then its parent. The first file
// with a python entry decides; a file that exists but cannot be read ends
// the search with UnknownPythonVersion.
func PythonVersionFromHistory(h platform.Host, interpreter string) PythonVersion {
	fs := h.Filesystem()
	for _, dir := range paths.MetaDirs(h, interpreter) {
		v, err := historyVersion(fs, h.Join(dir, paths.HistoryFileName))
		switch {
		case err == nil:
			return v
		case errors.Is(err, errNoMatch), errors.Is(err, afero.ErrFileNotFound):
			continue
		default:
			return UnknownPythonVersion
		}
	}
	return UnknownPythonVersion
}

func historyVersion(fs afero.Fs, file string) (PythonVersion, error) {
	exists, err := paths.FileExists(fs, file)
	if err != nil {
		return UnknownPythonVersion, err
	}
	if !exists {
		return UnknownPythonVersion, afero.ErrFileNotFound
	}

	f, err := fs.Open(file)
	if err != nil {
		return UnknownPythonVersion, err
	}
	defer f.Close()

	match, ok, err := lastHistoryMatch(f, "python")
	if err != nil {
		return UnknownPythonVersion, err
	}
	if !ok {
		return UnknownPythonVersion, errNoMatch
	}
	v, err := ParsePythonVersion(match)
	if err != nil {
		return UnknownPythonVersion, err
	}
	return v, nil
}
