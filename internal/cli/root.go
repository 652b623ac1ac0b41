package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	condaPath  string
	outputJSON bool
	verbose    bool
	noProgress bool
)

// Execute runs the root cobra command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "condaprobe",
		Short:         "Locate conda and inspect its environments",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default $CONDAPROBE_CONFIG or the user config directory)")
	cmd.PersistentFlags().StringVar(&condaPath, "conda-path", "", "Conda binary to try before any other candidate")
	cmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output machine-readable JSON")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every probe and conda invocation")
	cmd.PersistentFlags().BoolVar(&noProgress, "no-progress", false, "Disable the interactive probe display")

	cmd.AddCommand(newLocateCmd())
	cmd.AddCommand(newCandidatesCmd())
	cmd.AddCommand(newEnvsCmd())
	cmd.AddCommand(newOwnerCmd())
	cmd.AddCommand(newInterpretersCmd())
	cmd.AddCommand(newIsManagedCmd())
	cmd.AddCommand(newPythonVersionCmd())
	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newSupportsCmd())
	cmd.AddCommand(newRunArgsCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newDoctorCmd())

	return cmd
}
