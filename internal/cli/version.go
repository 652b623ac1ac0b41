package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"condaprobe/internal/conda"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of the located conda",
		Args:  cobra.NoArgs,
		RunE:  runVersion,
	}
}

func newSupportsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "supports [min-version]",
		Short: "Report whether conda is newer than a version (default " + conda.RunVersion + ")",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSupports,
	}
}

func newRunArgsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run-args <env> [script]",
		Short: "Print the `conda run` command line for an environment's Python",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runRunArgs,
	}
}

type versionResult struct {
	Command string `json:"command"`
	Version string `json:"version,omitempty"`
	Absent  bool   `json:"absent"`
	Unknown bool   `json:"unknown"`
}

func runVersion(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)
	c, err := a.requireConda(ctx)
	if err != nil {
		return err
	}
	v := c.Version(ctx)

	if outputJSON {
		return writeJSON(cmd, versionResult{Command: c.Command(), Version: v.String(), Absent: v.Absent(), Unknown: v.Unknown})
	}
	if v.Absent() {
		return fmt.Errorf("%s did not report a version", c.Command())
	}
	fmt.Fprintln(cmd.OutOrStdout(), v.String())
	return nil
}

type supportsResult struct {
	Minimum   string `json:"minimum"`
	Version   string `json:"version,omitempty"`
	Supported bool   `json:"supported"`
}

func runSupports(cmd *cobra.Command, args []string) error {
	minimum := conda.RunVersion
	if len(args) == 1 {
		minimum = strings.TrimSpace(args[0])
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)
	result := supportsResult{Minimum: minimum}
	c, err := a.locator.Locate(ctx)
	if err != nil {
		return err
	}
	if c != nil {
		result.Version = c.Version(ctx).String()
		result.Supported = c.SupportsFeature(ctx, minimum)
	}

	if outputJSON {
		return writeJSON(cmd, result)
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.Supported)
	return nil
}

func runRunArgs(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)
	c, err := a.requireConda(ctx)
	if err != nil {
		return err
	}
	env, err := resolveEnvironment(cmd, c, args[0])
	if err != nil {
		return err
	}

	script := ""
	if len(args) == 2 {
		script = args[1]
	}
	runArgs, ok := c.RunPythonArgs(ctx, env, script)
	if !ok {
		return fmt.Errorf("conda %s does not support `conda run --no-capture-output` (needs newer than %s)",
			c.Version(ctx).String(), conda.RunVersion)
	}

	if outputJSON {
		return writeJSON(cmd, runArgs)
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(runArgs, " "))
	return nil
}
