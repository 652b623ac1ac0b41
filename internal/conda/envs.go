package conda

import (
	"context"
	"errors"
	"fmt"

	"github.com/sahilm/fuzzy"

	"condaprobe/internal/paths"
	"condaprobe/internal/platform"
)

// BaseName is the name conda reserves for its root environment.
const BaseName = "base"

// ErrEnvironmentNotFound is returned by FindByName when no environment has
// the requested name.
var ErrEnvironmentNotFound = errors.New("conda environment not found")

// Environment is one environment known to conda. Name is empty for
// environments that live outside every envs directory; those can only be
// addressed by prefix.
type Environment struct {
	Prefix string `json:"prefix"`
	Name   string `json:"name,omitempty"`
}

// Interpreter is the Python binary of a conda environment.
type Interpreter struct {
	Path        string      `json:"path"`
	Environment Environment `json:"environment"`
}

// Environments names the prefixes listed in info. The root prefix is
// "base", a prefix directly inside one of the envs directories takes its
// directory name, and anything else stays unnamed.
func (info Info) Environments(h platform.Host) []Environment {
	if info.Envs == nil {
		return nil
	}
	envs := make([]Environment, 0, len(info.Envs))
	for _, prefix := range info.Envs {
		if prefix == "" {
			continue
		}
		envs = append(envs, Environment{Prefix: prefix, Name: info.environmentName(h, prefix)})
	}
	return envs
}

func (info Info) environmentName(h platform.Host, prefix string) string {
	if info.RootPrefix != "" && paths.Same(h.OS, prefix, info.RootPrefix) {
		return BaseName
	}
	parent := h.Dir(prefix)
	for _, envsDir := range info.EnvsDirs {
		if paths.Same(h.OS, parent, envsDir) {
			return h.Base(prefix)
		}
	}
	return ""
}

// Environments lists the environments known to this conda. Output that is
// not valid JSON is treated as an empty list; failing to run conda is an
// error.
func (c *Conda) Environments(ctx context.Context) ([]Environment, error) {
	info, err := c.Info(ctx)
	if err != nil {
		if errors.Is(err, ErrMalformedInfo) {
			c.logger.Warn("ignoring unparseable conda info", "command", c.command, "err", err)
			return nil, nil
		}
		return nil, err
	}
	return info.Environments(c.host), nil
}

// OwningEnvironment returns the first environment, in the order conda lists
// them, whose prefix is executable or one of its ancestors. Base is listed
// first and contains envs/, so an executable inside a named environment
// below the root prefix reports base.
func (c *Conda) OwningEnvironment(ctx context.Context, executable string) (Environment, bool, error) {
	envs, err := c.Environments(ctx)
	if err != nil {
		return Environment{}, false, err
	}
	env, ok := owningEnvironment(c.host.OS, envs, executable)
	return env, ok, nil
}

func owningEnvironment(goos platform.OS, envs []Environment, executable string) (Environment, bool) {
	for _, env := range envs {
		if paths.IsParent(goos, executable, env.Prefix) {
			return env, true
		}
	}
	return Environment{}, false
}

// FindByName returns the environment called name. On a miss it returns
// ErrEnvironmentNotFound together with the closest names.
func (c *Conda) FindByName(ctx context.Context, name string) (Environment, []string, error) {
	envs, err := c.Environments(ctx)
	if err != nil {
		return Environment{}, nil, err
	}

	var names []string
	for _, env := range envs {
		if env.Name == name {
			return env, nil, nil
		}
		if env.Name != "" {
			names = append(names, env.Name)
		}
	}

	var suggestions []string
	for _, match := range fuzzy.Find(name, names) {
		suggestions = append(suggestions, match.Str)
		if len(suggestions) == 3 {
			break
		}
	}
	return Environment{}, suggestions, fmt.Errorf("%w: %s", ErrEnvironmentNotFound, name)
}

// Interpreters returns the Python binary of every environment that has
// one, including the default prefix when conda reports it separately.
func (c *Conda) Interpreters(ctx context.Context) ([]Interpreter, error) {
	info, err := c.Info(ctx)
	if err != nil {
		if errors.Is(err, ErrMalformedInfo) {
			return nil, nil
		}
		return nil, err
	}

	envs := info.Environments(c.host)
	if info.DefaultPrefix != "" && !containsPrefix(c.host.OS, envs, info.DefaultPrefix) {
		envs = append(envs, Environment{Prefix: info.DefaultPrefix, Name: info.environmentName(c.host, info.DefaultPrefix)})
	}

	var out []Interpreter
	for _, env := range envs {
		python := PythonPath(c.host, env.Prefix)
		ok, err := paths.FileExists(c.fs(), python)
		if err != nil || !ok {
			continue
		}
		out = append(out, Interpreter{Path: python, Environment: env})
	}
	return out, nil
}

// PythonPath returns where conda puts the Python binary of an environment.
func PythonPath(h platform.Host, prefix string) string {
	if h.IsWindows() {
		return h.Join(prefix, "python.exe")
	}
	return h.Join(prefix, "bin", "python")
}

func containsPrefix(goos platform.OS, envs []Environment, prefix string) bool {
	for _, env := range envs {
		if paths.Same(goos, env.Prefix, prefix) {
			return true
		}
	}
	return false
}

// IsManagedEnvironment reports whether interpreter belongs to a conda
// environment, judged only by a conda-meta directory beside the binary or
// beside its parent directory. It never runs conda.
func IsManagedEnvironment(h platform.Host, interpreter string) bool {
	fs := h.Filesystem()
	for _, dir := range paths.MetaDirs(h, interpreter) {
		if ok, err := paths.DirExists(fs, dir); err == nil && ok {
			return true
		}
	}
	return false
}
