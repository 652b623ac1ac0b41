package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"condaprobe/internal/conda"
	"condaprobe/internal/watch"
)

var watchDebounce time.Duration

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the environment list whenever environments are created or removed",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
	cmd.Flags().DurationVar(&watchDebounce, "debounce", 300*time.Millisecond, "Quiet period before reporting a change")
	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c, err := a.requireConda(ctx)
	if err != nil {
		return err
	}
	info, err := c.Info(ctx)
	if err != nil {
		return err
	}

	w, err := watch.New(watch.Config{
		Dirs:     watch.CondaDirs(a.host, info),
		Debounce: watchDebounce,
		Cache:    a.invoker,
		Logger:   a.logger,
		OnChange: func(ctx context.Context, _ []string) error {
			return printEnvironments(ctx, cmd, c)
		},
	})
	if err != nil {
		return err
	}

	if !outputJSON {
		for _, dir := range w.Dirs() {
			fmt.Fprintf(cmd.ErrOrStderr(), "watching %s\n", dir)
		}
	}
	if err := printEnvironments(ctx, cmd, c); err != nil {
		return err
	}
	return w.Run(ctx)
}

// printEnvironments re-reads the environment list through c, whose invoker
// the watcher purges on every change.
func printEnvironments(ctx context.Context, cmd *cobra.Command, c *conda.Conda) error {
	envs, err := c.Environments(ctx)
	if err != nil {
		return err
	}
	return writeEnvironments(cmd, envs)
}
