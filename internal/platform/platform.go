// Package platform describes the host facts the conda probe depends on: the
// operating system, the user's home directory, environment variables, the
// filesystem and (on Windows) the interpreter registry.
package platform

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/afero"
)

// OS identifies the host operating system family.
type OS string

const (
	Windows OS = "windows"
	Darwin  OS = "darwin"
	Linux   OS = "linux"
)

// RegistryInterpreter is a Python installation advertised in the Windows
// registry under Software\Python\<Company>\<Tag>.
type RegistryInterpreter struct {
	InterpreterPath string
	DistroOrgName   string
}

// Host bundles everything probing needs to know about the machine. Zero
// fields fall back to the real process environment.
type Host struct {
	OS       OS
	Home     string
	Getenv   func(string) string
	Fs       afero.Fs
	Registry func(context.Context) ([]RegistryInterpreter, error)
}

// Current returns the Host for the running process.
func Current() Host {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return Host{
		OS:       OS(runtime.GOOS),
		Home:     home,
		Getenv:   os.Getenv,
		Fs:       afero.NewOsFs(),
		Registry: RegistryInterpreters,
	}
}

// IsWindows reports whether the host is a Windows machine.
func (h Host) IsWindows() bool {
	return h.OS == Windows
}

// Env reads an environment variable, returning "" when unset.
func (h Host) Env(key string) string {
	if h.Getenv == nil {
		return os.Getenv(key)
	}
	return h.Getenv(key)
}

// Filesystem returns the host filesystem, defaulting to the OS one.
func (h Host) Filesystem() afero.Fs {
	if h.Fs == nil {
		return afero.NewOsFs()
	}
	return h.Fs
}

// Interpreters lists registry interpreters. Hosts without a registry
// function, and non-Windows hosts, report none.
func (h Host) Interpreters(ctx context.Context) ([]RegistryInterpreter, error) {
	if !h.IsWindows() || h.Registry == nil {
		return nil, nil
	}
	return h.Registry(ctx)
}

// Join joins path elements with the host's separator. Windows paths are
// joined with backslashes even when probing is simulated elsewhere.
func (h Host) Join(elem ...string) string {
	if !h.IsWindows() {
		return filepath.Join(elem...)
	}
	parts := make([]string, 0, len(elem))
	for i, e := range elem {
		if i > 0 {
			e = strings.TrimLeft(e, `\/`)
		}
		e = strings.TrimRight(e, `\/`)
		if e == "" {
			continue
		}
		parts = append(parts, e)
	}
	return strings.Join(parts, `\`)
}

// Dir returns all but the last element of p.
func (h Host) Dir(p string) string {
	if !h.IsWindows() {
		return filepath.Dir(p)
	}
	p = strings.TrimRight(p, `\/`)
	idx := strings.LastIndexAny(p, `\/`)
	switch {
	case idx < 0:
		return "."
	case idx == 2 && len(p) > 1 && p[1] == ':':
		return p[:3]
	default:
		return p[:idx]
	}
}

// Base returns the last element of p.
func (h Host) Base(p string) string {
	if !h.IsWindows() {
		return filepath.Base(p)
	}
	p = strings.TrimRight(p, `\/`)
	if idx := strings.LastIndexAny(p, `\/`); idx >= 0 {
		return p[idx+1:]
	}
	return p
}
