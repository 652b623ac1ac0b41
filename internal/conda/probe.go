package conda

import (
	"context"
	"iter"
	"strings"

	"github.com/spf13/afero"

	"condaprobe/internal/paths"
	"condaprobe/internal/platform"
)

// binarySuffix is the conda binary relative to an installation root.
func binarySuffix(h platform.Host) []string {
	if h.IsWindows() {
		return []string{"Scripts", "conda.exe"}
	}
	return []string{"bin", "conda"}
}

func underRoot(h platform.Host, root string) string {
	return h.Join(append([]string{root}, binarySuffix(h)...)...)
}

// Candidates yields the conda binaries worth probing, most plausible first:
// the configured custom path, the bare command name, registry interpreters
// (Windows only), conda-like directories under well-known prefixes, and the
// roots listed in ~/.conda/environments.txt.
//
// Later tiers are only computed once the consumer reaches them, and ranging
// over the sequence again starts from the top.
func Candidates(ctx context.Context, h platform.Host, customPath string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if customPath != "" && customPath != CommandName {
			if !yield(customPath) {
				return
			}
		}
		if !yield(CommandName) {
			return
		}

		tiers := []iter.Seq[string]{
			registryCandidates(ctx, h),
			knownPathCandidates(h),
			environmentsTxtCandidates(h),
		}
		for _, tier := range tiers {
			for candidate := range tier {
				if !yield(candidate) {
					return
				}
			}
		}
	}
}

func registryCandidates(ctx context.Context, h platform.Host) iter.Seq[string] {
	return func(yield func(string) bool) {
		if !h.IsWindows() {
			return
		}
		interps, err := h.Interpreters(ctx)
		if err != nil {
			return
		}
		for _, interp := range interps {
			if interp.InterpreterPath == "" || interp.DistroOrgName != RegistryCompany {
				continue
			}
			if !yield(underRoot(h, h.Dir(interp.InterpreterPath))) {
				return
			}
		}
	}
}

// knownPrefixes lists directories that commonly hold Anaconda or Miniconda
// installations. Globs are avoided because Windows prefixes carry drive
// letters.
func knownPrefixes(h platform.Host) []string {
	var prefixes []string
	if h.IsWindows() {
		programData := h.Env("PROGRAMDATA")
		if programData == "" {
			programData = `C:\ProgramData`
		}
		prefixes = append(prefixes, programData)
		if h.Home != "" {
			localAppData := h.Env("LOCALAPPDATA")
			if localAppData == "" {
				localAppData = h.Join(h.Home, "AppData", "Local")
			}
			prefixes = append(prefixes, h.Home, h.Join(localAppData, "Continuum"))
		}
		return prefixes
	}

	prefixes = append(prefixes, "/usr/share", "/usr/local/share", "/opt")
	if h.Home != "" {
		prefixes = append(prefixes, h.Home, h.Join(h.Home, "opt"))
	}
	return prefixes
}

func knownPathCandidates(h platform.Host) iter.Seq[string] {
	return func(yield func(string) bool) {
		fs := h.Filesystem()
		for _, prefix := range knownPrefixes(h) {
			entries, err := afero.ReadDir(fs, prefix)
			if err != nil {
				// Missing or unreadable prefixes are expected.
				continue
			}
			for _, entry := range entries {
				if entry.Mode().IsRegular() {
					continue
				}
				if !strings.Contains(strings.ToLower(entry.Name()), CommandName) {
					continue
				}
				if !yield(underRoot(h, h.Join(prefix, entry.Name()))) {
					return
				}
			}
		}
	}
}

func environmentsTxtCandidates(h platform.Host) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, root := range KnownEnvironments(h) {
			if !yield(underRoot(h, root)) {
				return
			}
		}
	}
}

// KnownEnvironments returns the environment roots recorded in
// ~/.conda/environments.txt. A missing file yields nothing.
func KnownEnvironments(h platform.Host) []string {
	file := paths.KnownEnvironmentsFile(h)
	if file == "" {
		return nil
	}
	data, err := afero.ReadFile(h.Filesystem(), file)
	if err != nil {
		return nil
	}
	return parseEnvironmentsTxt(string(data))
}

// parseEnvironmentsTxt follows conda's own yield_lines: blank lines and
// comments are skipped and surrounding whitespace is trimmed, which rules
// out paths that legitimately end in spaces.
func parseEnvironmentsTxt(contents string) []string {
	var roots []string
	for _, line := range strings.Split(contents, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		roots = append(roots, line)
	}
	return roots
}
