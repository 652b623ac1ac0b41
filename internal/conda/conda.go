package conda

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"condaprobe/internal/cache"
	"condaprobe/internal/logx"
	"condaprobe/internal/platform"
)

const (
	// CommandName is the unqualified conda binary name, resolved via PATH.
	CommandName = "conda"
	// AnacondaCompanyName is the distributor shown for conda interpreters.
	AnacondaCompanyName = "Anaconda, Inc."
	// RegistryCompany is the PEP 514 company key Anaconda installers use.
	RegistryCompany = "ContinuumAnalytics"
	// GeneralTimeout bounds every conda invocation.
	GeneralTimeout = 50 * time.Second
)

// Options carries the collaborators shared by every *Conda created from the
// same Locator.
type Options struct {
	Invoker *cache.Invoker
	Host    platform.Host
	Logger  *log.Logger
}

// Conda wraps one conda binary. The command has the same meaning as the
// first argument of exec.Command: a full path, or a bare name looked up on
// PATH. A *Conda is immutable.
type Conda struct {
	command string
	invoker *cache.Invoker
	host    platform.Host
	logger  *log.Logger
}

// New returns a handle for command without validating it; use a Locator to
// find a working one.
func New(command string, opts Options) *Conda {
	if opts.Invoker == nil {
		opts.Invoker = cache.NewInvoker(nil, cache.InvokerOptions{Timeout: GeneralTimeout, Logger: opts.Logger})
	}
	return &Conda{
		command: command,
		invoker: opts.Invoker,
		host:    opts.Host,
		logger:  logx.OrDiscard(opts.Logger),
	}
}

// Command returns the command used to spawn conda.
func (c *Conda) Command() string {
	return c.command
}

// Info returns global information about this conda, as reported by
// `conda info --json`. Results are cached by the invoker.
func (c *Conda) Info(ctx context.Context) (Info, error) {
	result, err := c.invoker.Invoke(ctx, c.command, "info", "--json")
	if err != nil {
		return Info{}, err
	}
	c.logger.Debug("conda info --json", "command", c.command, "stdout", string(result.Stdout))
	return ParseInfo(result.Stdout)
}

func (c *Conda) fs() afero.Fs {
	return c.host.Filesystem()
}
