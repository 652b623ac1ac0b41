package conda

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"condaprobe/internal/cache"
	"condaprobe/internal/logx"
	"condaprobe/internal/platform"
)

// LocatorOptions configures how a Locator searches for conda.
type LocatorOptions struct {
	Host platform.Host
	// CustomPath is the user-configured conda binary, probed first.
	CustomPath string
	// Invoker runs the validating `conda info --json`; handles returned by
	// the Locator share it.
	Invoker *cache.Invoker
	Logger  *log.Logger
	// Reprobe disables memoization so that every Locate call searches
	// again. Concurrent calls still share one probe.
	Reprobe bool
	// OnProbe, when set, is called with each candidate before it is tried.
	OnProbe func(candidate string)
}

type locatorState int

const (
	stateUnresolved locatorState = iota
	stateInFlight
	stateResolved
)

type flight struct {
	done  chan struct{}
	conda *Conda
	err   error
}

func (f *flight) wait(ctx context.Context) (*Conda, error) {
	select {
	case <-f.done:
		return f.conda, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Locator finds the preferred conda binary on this system and remembers it.
// The zero state is unresolved; the first Locate call starts a probe that
// concurrent callers join, and its outcome, including "not found", is kept
// until Reset.
type Locator struct {
	opts   LocatorOptions
	logger *log.Logger

	mu     sync.Mutex
	state  locatorState
	flight *flight
	conda  *Conda
}

// NewLocator creates an unresolved Locator.
func NewLocator(opts LocatorOptions) *Locator {
	if opts.Invoker == nil {
		opts.Invoker = cache.NewInvoker(nil, cache.InvokerOptions{Timeout: GeneralTimeout, Logger: opts.Logger})
	}
	return &Locator{
		opts:   opts,
		logger: logx.OrDiscard(opts.Logger),
	}
}

// Locate returns the resolved conda, or nil when no candidate works. A nil
// result is not an error: conda simply is not installed. Errors are only
// returned when ctx ends before a result is known.
//
// The probe is shared, so it runs without the cancellation of whichever
// caller started it; each subprocess is still bounded by the invoker
// timeout. A caller that gives up does not stop the probe or change what
// the others observe.
func (l *Locator) Locate(ctx context.Context) (*Conda, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	switch {
	case l.state == stateResolved && !l.opts.Reprobe:
		c := l.conda
		l.mu.Unlock()
		return c, nil
	case l.state == stateInFlight:
		f := l.flight
		l.mu.Unlock()
		return f.wait(ctx)
	}

	f := &flight{done: make(chan struct{})}
	l.state = stateInFlight
	l.flight = f
	l.mu.Unlock()

	go l.run(context.WithoutCancel(ctx), f)
	return f.wait(ctx)
}

func (l *Locator) run(ctx context.Context, f *flight) {
	f.conda, f.err = l.probe(ctx)

	l.mu.Lock()
	// Reset may have abandoned this flight while it ran.
	if l.flight == f {
		l.flight = nil
		if f.err != nil {
			l.state = stateUnresolved
		} else {
			l.state = stateResolved
			l.conda = f.conda
		}
	}
	l.mu.Unlock()
	close(f.done)
}

// Reset forgets the resolved conda so the next Locate searches again.
func (l *Locator) Reset() {
	l.mu.Lock()
	l.state = stateUnresolved
	l.flight = nil
	l.conda = nil
	l.mu.Unlock()
}

// Options returns the collaborators handles from this Locator use.
func (l *Locator) Options() Options {
	return Options{Invoker: l.opts.Invoker, Host: l.opts.Host, Logger: l.opts.Logger}
}

func (l *Locator) probe(ctx context.Context) (*Conda, error) {
	l.logger.Debug("searching for conda")
	opts := l.Options()

	for candidate := range Candidates(ctx, l.opts.Host, l.opts.CustomPath) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		l.logger.Debug("probing conda binary", "candidate", candidate)
		if l.opts.OnProbe != nil {
			l.opts.OnProbe(candidate)
		}

		c := New(candidate, opts)
		if _, err := c.Info(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			// The binary is missing, not executable, or too old to understand
			// the arguments. None of these are fatal.
			l.logger.Debug("failed to spawn conda binary", "candidate", candidate, "err", err)
			continue
		}
		l.logger.Debug("found conda via filesystem probing", "command", candidate)
		return c, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.logger.Debug("couldn't locate the conda binary")
	return nil, nil
}
