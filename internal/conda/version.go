package conda

import (
	"context"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// RunVersion is the minimum conda that supports
// `conda run --no-capture-output`.
const RunVersion = "4.9.0"

// unknownVersion stands in for a version string that exists but does not
// parse. It is low, but not absent.
var unknownVersion = semver.New(0, 0, 1, "", "")

// ResolvedVersion is conda's version as far as it could be determined.
type ResolvedVersion struct {
	// Version is nil when conda reported no version at all.
	Version *semver.Version
	// Raw is the reported version string.
	Raw string
	// Unknown is set when Raw was present but unparseable; Version then
	// holds a placeholder.
	Unknown bool
}

// Absent reports whether conda gave no version string at all.
func (v ResolvedVersion) Absent() bool {
	return v.Version == nil
}

func (v ResolvedVersion) String() string {
	switch {
	case v.Absent():
		return ""
	case v.Unknown:
		return v.Raw
	default:
		return v.Version.String()
	}
}

// ResolveVersion interprets a version string reported by conda.
func ResolveVersion(raw string) ResolvedVersion {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ResolvedVersion{}
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return ResolvedVersion{Version: unknownVersion, Raw: raw, Unknown: true}
	}
	return ResolvedVersion{Version: v, Raw: raw}
}

// Version returns the version of this conda, taken from `conda info --json`
// or, failing that, from `conda --version`.
func (c *Conda) Version(ctx context.Context) ResolvedVersion {
	v := ResolveVersion(c.versionString(ctx))
	if v.Unknown {
		// Keep going with a placeholder: some version output means conda
		// works, even if it reports something unusual.
		c.logger.Error("unable to parse version of conda", "version", v.Raw)
	}
	return v
}

func (c *Conda) versionString(ctx context.Context) string {
	if info, err := c.Info(ctx); err == nil && info.CondaVersion != "" {
		return info.CondaVersion
	}

	result, err := c.invoker.Invoke(ctx, c.command, "--version")
	if err != nil {
		return ""
	}
	out := strings.TrimSpace(string(result.Stdout))
	if out == "" {
		// conda releases before 4.4 print the version to stderr.
		out = strings.TrimSpace(string(result.Stderr))
	}
	return trimVersionPrefix(out)
}

func trimVersionPrefix(out string) string {
	if rest, ok := strings.CutPrefix(out, CommandName+" "); ok {
		return strings.TrimSpace(rest)
	}
	return out
}

// SupportsFeature reports whether this conda is newer than minVersion.
// Without any version string the answer is false; an unparseable version
// string counts as supported.
func (c *Conda) SupportsFeature(ctx context.Context, minVersion string) bool {
	return supports(c.Version(ctx), minVersion)
}

func supports(v ResolvedVersion, minVersion string) bool {
	if v.Absent() {
		return false
	}
	if v.Unknown {
		return true
	}
	minimum, err := semver.NewVersion(minVersion)
	if err != nil {
		return false
	}
	return minimum.LessThan(v.Version)
}

// RunPythonArgs builds the command line that runs script with the Python of
// env through `conda run`, or reports false when this conda is too old for
// it.
func (c *Conda) RunPythonArgs(ctx context.Context, env Environment, script string) ([]string, bool) {
	if !c.SupportsFeature(ctx, RunVersion) {
		return nil, false
	}
	args := []string{c.command, "run"}
	if env.Name != "" {
		args = append(args, "-n", env.Name)
	} else {
		args = append(args, "-p", env.Prefix)
	}
	args = append(args, "--no-capture-output", "python")
	if script != "" {
		args = append(args, script)
	}
	return args, true
}
