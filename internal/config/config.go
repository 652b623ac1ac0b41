package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"condaprobe/internal/paths"
)

// EnvVar overrides the config file location.
const EnvVar = "CONDAPROBE_CONFIG"

// FileName is the config file name inside the condaprobe config directory.
const FileName = "config.yaml"

// Config captures user settings for locating and querying conda.
type Config struct {
	// CondaPath is tried before any other candidate when set.
	CondaPath string        `yaml:"conda_path,omitempty"`
	Cache     CacheConfig   `yaml:"cache"`
	Timeout   time.Duration `yaml:"timeout"`
	Log       LogConfig     `yaml:"log"`
}

// CacheConfig controls how long conda output is reused.
type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	FailureTTL time.Duration `yaml:"failure_ttl"`
}

// LogConfig describes logging output.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Cache: CacheConfig{
			TTL:        30 * time.Second,
			FailureTTL: 10 * time.Second,
		},
		Timeout: 50 * time.Second,
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// Path returns the config file location: $CONDAPROBE_CONFIG when set,
// otherwise config.yaml in the user config directory.
func Path() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvVar)); p != "" {
		return p, nil
	}
	dir, err := paths.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load reads the YAML configuration from disk if it exists, otherwise returns
// the default configuration.
func Load(path string) (Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills fields the YAML left at their zero value.
func (c *Config) ApplyDefaults() {
	defaults := Default()

	c.CondaPath = strings.TrimSpace(c.CondaPath)
	if c.Cache.TTL == 0 {
		c.Cache.TTL = defaults.Cache.TTL
	}
	if c.Cache.FailureTTL == 0 {
		c.Cache.FailureTTL = defaults.Cache.FailureTTL
	}
	if c.Timeout == 0 {
		c.Timeout = defaults.Timeout
	}
	if strings.TrimSpace(c.Log.Level) == "" {
		c.Log.Level = defaults.Log.Level
	}
}

// Marshal returns the YAML encoding of the configuration.
func (c Config) Marshal() ([]byte, error) {
	buf, err := yaml.Marshal(&c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return buf, nil
}
