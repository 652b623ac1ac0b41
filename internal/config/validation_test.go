package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
)

func TestValidateDefaultsClean(t *testing.T) {
	if results := Default().Validate(afero.NewMemMapFs()); len(results) != 0 {
		t.Fatalf("expected no findings, got %+v", results)
	}
}

func TestValidateFindings(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/opt/conda/bin/conda", nil, 0o755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		level   string
		message string
	}{
		{"negative ttl", func(c *Config) { c.Cache.TTL = -time.Second }, "error", "cache.ttl"},
		{"negative failure ttl", func(c *Config) { c.Cache.FailureTTL = -time.Second }, "error", "cache.failure_ttl"},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, "error", "timeout"},
		{"unknown level", func(c *Config) { c.Log.Level = "chatty" }, "error", "log.level"},
		{"missing conda path", func(c *Config) { c.CondaPath = "/nope/bin/conda" }, "warning", "conda_path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			results := cfg.Validate(fs)
			if len(results) != 1 {
				t.Fatalf("expected one finding, got %+v", results)
			}
			if results[0].Level != tt.level || !strings.Contains(results[0].Message, tt.message) {
				t.Fatalf("unexpected finding %+v", results[0])
			}
		})
	}
}

func TestValidateAcceptsExistingAndBareCondaPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/opt/conda/bin/conda", nil, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{"/opt/conda/bin/conda", "conda"} {
		cfg := Default()
		cfg.CondaPath = p
		if results := cfg.Validate(fs); len(results) != 0 {
			t.Fatalf("conda_path %q: unexpected findings %+v", p, results)
		}
	}
}

func TestErrOnlyReportsErrors(t *testing.T) {
	if err := Err([]ValidationResult{{Level: "warning", Message: "meh"}}); err != nil {
		t.Fatalf("expected warnings to be ignored, got %v", err)
	}
	err := Err([]ValidationResult{
		{Level: "error", Message: "first"},
		{Level: "warning", Message: "meh"},
		{Level: "error", Message: "second"},
	})
	if err == nil || !strings.Contains(err.Error(), "first") || !strings.Contains(err.Error(), "second") {
		t.Fatalf("unexpected joined error %v", err)
	}
}
