package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"condaprobe/internal/logx"
	"condaprobe/internal/paths"
)

// ValidationResult captures a single validation finding.
type ValidationResult struct {
	Level   string `json:"level"` // "error" or "warning"
	Message string `json:"message"`
}

// Validate checks the configuration. A conda_path that does not exist on fs
// is only a warning, since the locator falls back to other candidates.
func (c Config) Validate(fs afero.Fs) []ValidationResult {
	var results []ValidationResult
	results = append(results, c.validateDurations()...)
	results = append(results, c.validateLogLevel()...)
	results = append(results, c.validateCondaPath(fs)...)
	return results
}

func (c Config) validateDurations() []ValidationResult {
	var results []ValidationResult
	check := func(name string, negative bool) {
		if negative {
			results = append(results, ValidationResult{
				Level:   "error",
				Message: fmt.Sprintf("%s must not be negative", name),
			})
		}
	}
	check("cache.ttl", c.Cache.TTL < 0)
	check("cache.failure_ttl", c.Cache.FailureTTL < 0)
	check("timeout", c.Timeout < 0)
	return results
}

func (c Config) validateLogLevel() []ValidationResult {
	if _, err := logx.ParseLevel(c.Log.Level); err != nil {
		return []ValidationResult{{
			Level:   "error",
			Message: fmt.Sprintf("log.level: unknown level %q", c.Log.Level),
		}}
	}
	return nil
}

func (c Config) validateCondaPath(fs afero.Fs) []ValidationResult {
	path := strings.TrimSpace(c.CondaPath)
	if path == "" || fs == nil || !strings.ContainsAny(path, `/\`) {
		return nil
	}
	ok, err := paths.FileExists(fs, path)
	if err == nil && ok {
		return nil
	}
	return []ValidationResult{{
		Level:   "warning",
		Message: fmt.Sprintf("conda_path %q does not exist", path),
	}}
}

// Err joins the error-level findings into a single error, or returns nil.
func Err(results []ValidationResult) error {
	var errs []error
	for _, r := range results {
		if r.Level == "error" {
			errs = append(errs, errors.New(r.Message))
		}
	}
	return errors.Join(errs...)
}
