package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"condaprobe/internal/logx"
)

const (
	// DefaultTTL is how long a successful invocation is reused.
	DefaultTTL = 30 * time.Second
	// DefaultFailureTTL is how long a failed invocation is remembered
	// before it is retried.
	DefaultFailureTTL = 10 * time.Second
	// DefaultTimeout bounds every subprocess call.
	DefaultTimeout = 50 * time.Second
)

// ErrTimeout is returned when a command exceeds the invoker timeout.
var ErrTimeout = errors.New("command timed out")

// ExitError reports a command that could not be started or exited
// unsuccessfully.
type ExitError struct {
	Command string
	Args    []string
	Stderr  string
	Err     error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Command, strings.Join(e.Args, " "), e.Err)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + firstLine(stderr)
	}
	return msg
}

func (e *ExitError) Unwrap() error { return e.Err }

// InvokerOptions configures an Invoker. Zero durations take the defaults;
// a negative TTL caches successes for the life of the process.
type InvokerOptions struct {
	TTL        time.Duration
	FailureTTL time.Duration
	Timeout    time.Duration
	Clock      func() time.Time
	Logger     *log.Logger
	// Env is added to the environment of every command.
	Env []string
}

// Invoker runs commands through a Runner and memoizes the results per
// command line.
type Invoker struct {
	runner  Runner
	timeout time.Duration
	env     []string
	results *TTL[RunResult]
	logger  *log.Logger
}

// NewInvoker wraps runner with a result cache.
func NewInvoker(runner Runner, opts InvokerOptions) *Invoker {
	if runner == nil {
		runner = CmdRunner{}
	}
	if opts.TTL == 0 {
		opts.TTL = DefaultTTL
	}
	if opts.FailureTTL == 0 {
		opts.FailureTTL = DefaultFailureTTL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Invoker{
		runner:  runner,
		timeout: opts.Timeout,
		env:     opts.Env,
		results: NewTTL[RunResult](opts.TTL, opts.FailureTTL, WithClock(opts.Clock)),
		logger:  logx.OrDiscard(opts.Logger),
	}
}

// Key identifies one command line in the cache.
func Key(command string, args []string) string {
	return command + "\x00" + strings.Join(args, "\x00")
}

// Invoke returns the cached result of running command with args, running it
// when nothing fresh is cached.
func (i *Invoker) Invoke(ctx context.Context, command string, args ...string) (RunResult, error) {
	return i.results.Get(ctx, Key(command, args), func(ctx context.Context) (RunResult, error) {
		return i.Run(ctx, command, args...)
	})
}

// Run executes command once, bypassing the cache but still bounded by the
// invoker timeout.
func (i *Invoker) Run(ctx context.Context, command string, args ...string) (RunResult, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	start := time.Now()
	result, err := i.runner.Run(ctx, command, args, RunOptions{Env: i.env})
	i.logger.Debug("ran command", "command", command, "args", args, "elapsed", time.Since(start), "err", err)

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return result, fmt.Errorf("%s %s: %w after %s", command, strings.Join(args, " "), ErrTimeout, i.timeout)
	}
	if err := ctx.Err(); err != nil {
		// The caller gave up; the command itself did not fail.
		return result, err
	}
	if err != nil {
		return result, &ExitError{Command: command, Args: args, Stderr: string(result.Stderr), Err: err}
	}
	return result, nil
}

// Invalidate forgets the cached result for one command line.
func (i *Invoker) Invalidate(command string, args ...string) {
	i.results.Invalidate(Key(command, args))
}

// Purge forgets every cached result.
func (i *Invoker) Purge() {
	i.results.Purge()
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}
