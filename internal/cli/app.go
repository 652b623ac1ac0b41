package cli

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"condaprobe/internal/cache"
	"condaprobe/internal/conda"
	"condaprobe/internal/config"
	"condaprobe/internal/logx"
	"condaprobe/internal/platform"
)

// Test seams.
var (
	currentHost = platform.Current
	newRunner   = func() cache.Runner { return cache.CmdRunner{} }
)

// errNotFound is returned by commands that need conda when none works.
var errNotFound = errors.New("conda not found")

// app bundles what every command needs: one config, one logger, and the
// single Locator whose cache all queries share.
type app struct {
	cfg     config.Config
	logger  *log.Logger
	closer  io.Closer
	host    platform.Host
	invoker *cache.Invoker
	locator *conda.Locator

	// probeHook is called for each candidate the locator tries.
	probeHook func(candidate string)
}

// resolveConfigPath returns the --config flag, or the default location.
func resolveConfigPath() (string, error) {
	if path := strings.TrimSpace(configPath); path != "" {
		return path, nil
	}
	return config.Path()
}

func loadConfig() (config.Config, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if p := strings.TrimSpace(condaPath); p != "" {
		cfg.CondaPath = p
	}
	return cfg, nil
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := config.Err(cfg.Validate(nil)); err != nil {
		return nil, err
	}

	logger, closer, err := logx.New(logx.Options{
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		Verbose: verbose,
		Stderr:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		closer: closer,
		host:   currentHost(),
	}
	a.invoker = cache.NewInvoker(newRunner(), cache.InvokerOptions{
		TTL:        cfg.Cache.TTL,
		FailureTTL: cfg.Cache.FailureTTL,
		Timeout:    cfg.Timeout,
		Logger:     logger,
	})
	a.locator = conda.NewLocator(conda.LocatorOptions{
		Host:       a.host,
		CustomPath: cfg.CondaPath,
		Invoker:    a.invoker,
		Logger:     logger,
		OnProbe: func(candidate string) {
			if a.probeHook != nil {
				a.probeHook(candidate)
			}
		},
	})
	return a, nil
}

func (a *app) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// requireConda locates conda and turns "not installed" into errNotFound.
func (a *app) requireConda(ctx context.Context) (*conda.Conda, error) {
	c, err := a.locator.Locate(ctx)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errNotFound
	}
	return c, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
