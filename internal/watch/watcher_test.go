package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"

	"condaprobe/internal/conda"
	"condaprobe/internal/platform"
)

type countingPurger struct {
	n atomic.Int32
}

func (p *countingPurger) Purge() { p.n.Add(1) }

func TestWatcherPurgesCacheOnChange(t *testing.T) {
	dir := t.TempDir()
	purger := &countingPurger{}
	changedCh := make(chan []string, 4)

	w, err := New(Config{
		Dirs:     []string{dir, filepath.Join(dir, "missing")},
		Debounce: 50 * time.Millisecond,
		Cache:    purger,
		OnChange: func(_ context.Context, changed []string) error {
			changedCh <- changed
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := w.Dirs(); !slices.Equal(got, []string{dir}) {
		t.Fatalf("expected only the existing directory to be watched, got %v", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	target := filepath.Join(dir, "environments.txt")
	if err := os.WriteFile(target, []byte("/opt/conda/envs/foo\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case changed := <-changedCh:
		if !slices.Contains(changed, target) {
			t.Fatalf("expected %s in changed paths, got %v", target, changed)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback")
	}
	if purger.n.Load() < 1 {
		t.Fatal("expected the cache to be purged before the callback")
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestWatcherRunOnce(t *testing.T) {
	w, err := New(Config{Dirs: []string{t.TempDir()}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.Run(ctx); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if err := w.Run(ctx); err == nil {
		t.Fatal("expected second Run to fail")
	}
}

func TestNewWithoutDirectories(t *testing.T) {
	_, err := New(Config{Dirs: []string{filepath.Join(t.TempDir(), "nope")}})
	if !errors.Is(err, ErrNothingToWatch) {
		t.Fatalf("expected ErrNothingToWatch, got %v", err)
	}
}

func TestCondaDirs(t *testing.T) {
	h := platform.Host{OS: platform.Linux, Home: "/home/user"}
	info := conda.Info{EnvsDirs: []string{"/opt/conda/envs", "/home/user/.conda", "/opt/conda/envs/"}}

	got := CondaDirs(h, info)
	want := []string{"/home/user/.conda", "/opt/conda/envs"}
	if !slices.Equal(got, want) {
		t.Fatalf("CondaDirs = %v, want %v", got, want)
	}
}

func TestExisting(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/opt/conda/envs", 0o755); err != nil {
		t.Fatal(err)
	}
	got := Existing(fs, []string{"/home/user/.conda", "/opt/conda/envs"})
	if !slices.Equal(got, []string{"/opt/conda/envs"}) {
		t.Fatalf("unexpected existing dirs %v", got)
	}
}
