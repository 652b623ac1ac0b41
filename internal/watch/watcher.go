// Package watch notices changes to the places conda records environments
// and drops cached conda output when they happen.
//
// Events within the debounce window are coalesced so the callback fires
// once with every changed path.
package watch

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"

	"condaprobe/internal/conda"
	"condaprobe/internal/logx"
	"condaprobe/internal/paths"
	"condaprobe/internal/platform"
)

const defaultDebounce = 300 * time.Millisecond

// ErrNothingToWatch is returned when none of the configured directories
// exist.
var ErrNothingToWatch = errors.New("watch: no directories to watch")

// Purger drops cached results. *cache.Invoker satisfies it.
type Purger interface {
	Purge()
}

// Config holds the parameters for a Watcher.
type Config struct {
	// Dirs are watched non-recursively. Missing directories are skipped.
	Dirs []string

	// Debounce is the quiet period after the last event before the
	// callback fires. Zero or negative values fall back to 300ms.
	Debounce time.Duration

	// Cache is purged before every OnChange call.
	Cache Purger

	// OnChange receives the deduplicated changed paths. A nil callback is
	// a no-op.
	OnChange func(ctx context.Context, changed []string) error

	Logger *log.Logger
}

// Watcher monitors conda's environment directories. Run must be called
// exactly once.
type Watcher struct {
	cfg      Config
	fsw      *fsnotify.Watcher
	dirs     []string
	debounce time.Duration
	logger   *log.Logger
	started  atomic.Bool
}

// New creates a Watcher and registers every existing directory in cfg.Dirs.
func New(cfg Config) (*Watcher, error) {
	logger := logx.OrDiscard(cfg.Logger)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	var added []string
	for _, dir := range cfg.Dirs {
		if err := fsw.Add(dir); err != nil {
			logger.Debug("not watching directory", "dir", dir, "err", err)
			continue
		}
		added = append(added, dir)
	}
	if len(added) == 0 {
		fsw.Close()
		return nil, ErrNothingToWatch
	}

	return &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		dirs:     added,
		debounce: debounce,
		logger:   logger,
	}, nil
}

// Dirs returns the directories actually being watched.
func (w *Watcher) Dirs() []string {
	return slices.Clone(w.dirs)
}

// Run blocks until ctx is cancelled, purging the cache and invoking
// OnChange after each burst of events. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return fmt.Errorf("watch: Run called more than once")
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if w.cfg.Cache != nil {
			w.cfg.Cache.Purge()
		}
		w.logger.Debug("conda environments changed", "paths", changed)
		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				w.logger.Error("watch callback failed", "err", err)
			}
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("close fsnotify watcher", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watch: fsnotify event channel closed unexpectedly")
			}
			if evt.Has(fsnotify.Chmod) && !evt.Has(fsnotify.Write) {
				continue
			}

			mu.Lock()
			pending[evt.Name] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watch: fsnotify error channel closed unexpectedly")
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.logger.Warn("fsnotify queue overflowed", "err", err)
				continue
			}
			w.logger.Error("fsnotify error", "err", err)
		}
	}
}

// CondaDirs lists the directories whose contents change when environments
// are created or removed: the per-user ~/.conda directory holding
// environments.txt, plus every envs directory conda reports.
func CondaDirs(h platform.Host, info conda.Info) []string {
	var dirs []string
	add := func(dir string) {
		if dir == "" {
			return
		}
		for _, d := range dirs {
			if paths.Same(h.OS, d, dir) {
				return
			}
		}
		dirs = append(dirs, dir)
	}
	if file := paths.KnownEnvironmentsFile(h); file != "" {
		add(h.Dir(file))
	}
	for _, dir := range info.EnvsDirs {
		add(dir)
	}
	return dirs
}

// Existing filters dirs down to the ones that are directories on fs.
func Existing(fs afero.Fs, dirs []string) []string {
	var out []string
	for _, dir := range dirs {
		if ok, err := paths.DirExists(fs, dir); err == nil && ok {
			out = append(out, dir)
		}
	}
	return out
}
