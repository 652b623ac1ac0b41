package conda

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"condaprobe/internal/cache"
	"condaprobe/internal/platform"
)

// fakeRunner answers conda invocations from a table keyed by command, and
// counts every call.
type fakeRunner struct {
	mu       sync.Mutex
	info     map[string]string
	version  map[string]string
	stderr   map[string]string
	calls    map[string]int
	block    chan struct{}
	infoSeen chan string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{info: map[string]string{}, version: map[string]string{}, stderr: map[string]string{}, calls: map[string]int{}}
}

func (r *fakeRunner) Run(_ context.Context, command string, args []string, _ cache.RunOptions) (cache.RunResult, error) {
	r.mu.Lock()
	r.calls[cache.Key(command, args)]++
	block := r.block
	seen := r.infoSeen
	r.mu.Unlock()

	if seen != nil {
		select {
		case seen <- command:
		default:
		}
	}
	if block != nil {
		<-block
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case len(args) == 2 && args[0] == "info" && args[1] == "--json":
		out, ok := r.info[command]
		if !ok {
			return cache.RunResult{}, errors.New("executable file not found")
		}
		return cache.RunResult{Stdout: []byte(out)}, nil
	case len(args) == 1 && args[0] == "--version":
		if errOut, ok := r.stderr[command]; ok {
			return cache.RunResult{Stderr: []byte(errOut)}, nil
		}
		out, ok := r.version[command]
		if !ok {
			return cache.RunResult{}, errors.New("executable file not found")
		}
		return cache.RunResult{Stdout: []byte(out)}, nil
	}
	return cache.RunResult{}, errors.New("unexpected arguments")
}

func (r *fakeRunner) count(command string, args ...string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[cache.Key(command, args)]
}

func (r *fakeRunner) infoCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for key, n := range r.calls {
		if strings.HasSuffix(key, "\x00info\x00--json") {
			total += n
		}
	}
	return total
}

func linuxHost(fs afero.Fs) platform.Host {
	return platform.Host{
		OS:     platform.Linux,
		Home:   "/home/user",
		Getenv: func(string) string { return "" },
		Fs:     fs,
	}
}

func newTestConda(command string, runner cache.Runner, h platform.Host) *Conda {
	return New(command, Options{Invoker: cache.NewInvoker(runner, cache.InvokerOptions{}), Host: h})
}

func mustWrite(fs afero.Fs, path, contents string) {
	if err := afero.WriteFile(fs, path, []byte(contents), 0o644); err != nil {
		panic(err)
	}
}
