package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"condaprobe/internal/conda"
	"condaprobe/internal/tui"
)

func newEnvsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "envs",
		Aliases: []string{"environments"},
		Short:   "List the environments conda knows about",
		Args:    cobra.NoArgs,
		RunE:    runEnvs,
	}
}

func newOwnerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "owner <executable>",
		Short: "Show the conda environment containing an executable",
		Args:  cobra.ExactArgs(1),
		RunE:  runOwner,
	}
}

func newInterpretersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "interpreters",
		Short: "List the Python interpreter of every conda environment",
		Args:  cobra.NoArgs,
		RunE:  runInterpreters,
	}
}

func newIsManagedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "is-managed <interpreter>",
		Short: "Report whether an interpreter lives in a conda environment",
		Long:  "Checks for a conda-meta directory next to the interpreter or its parent directory. Conda itself is never run.",
		Args:  cobra.ExactArgs(1),
		RunE:  runIsManaged,
	}
}

func newPythonVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "python-version <interpreter>",
		Short: "Read an environment's Python version from conda-meta/history",
		Args:  cobra.ExactArgs(1),
		RunE:  runPythonVersion,
	}
}

func runEnvs(cmd *cobra.Command, _ []string) error {
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
	envs, err := c.Environments(ctx)
	if err != nil {
		return err
	}
	return writeEnvironments(cmd, envs)
}

func writeEnvironments(cmd *cobra.Command, envs []conda.Environment) error {
	if outputJSON {
		if envs == nil {
			envs = []conda.Environment{}
		}
		return writeJSON(cmd, envs)
	}
	if len(envs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "(no environments)")
		return nil
	}
	rows := make([][]string, 0, len(envs))
	for _, env := range envs {
		rows = append(rows, []string{tui.NonEmptyOrDash(env.Name), env.Prefix})
	}
	printTable(cmd.OutOrStdout(), []string{"NAME", "PREFIX"}, rows)
	return nil
}

type ownerResult struct {
	Executable  string             `json:"executable"`
	Found       bool               `json:"found"`
	Environment *conda.Environment `json:"environment,omitempty"`
}

func runOwner(cmd *cobra.Command, args []string) error {
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
	env, ok, err := c.OwningEnvironment(ctx, args[0])
	if err != nil {
		return err
	}

	if outputJSON {
		result := ownerResult{Executable: args[0], Found: ok}
		if ok {
			result.Environment = &env
		}
		return writeJSON(cmd, result)
	}
	if !ok {
		return fmt.Errorf("no conda environment contains %s", args[0])
	}
	printTable(cmd.OutOrStdout(), []string{"NAME", "PREFIX"}, [][]string{{tui.NonEmptyOrDash(env.Name), env.Prefix}})
	return nil
}

func runInterpreters(cmd *cobra.Command, _ []string) error {
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
	interpreters, err := c.Interpreters(ctx)
	if err != nil {
		return err
	}

	if outputJSON {
		if interpreters == nil {
			interpreters = []conda.Interpreter{}
		}
		return writeJSON(cmd, interpreters)
	}
	if len(interpreters) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "(no interpreters)")
		return nil
	}
	rows := make([][]string, 0, len(interpreters))
	for _, interp := range interpreters {
		version := conda.PythonVersionFromHistory(a.host, interp.Path)
		rows = append(rows, []string{tui.NonEmptyOrDash(interp.Environment.Name), version.String(), interp.Path})
	}
	printTable(cmd.OutOrStdout(), []string{"ENV", "PYTHON", "PATH"}, rows)
	return nil
}

type managedResult struct {
	Interpreter string `json:"interpreter"`
	Managed     bool   `json:"managed"`
}

func runIsManaged(cmd *cobra.Command, args []string) error {
	managed := conda.IsManagedEnvironment(currentHost(), args[0])

	if outputJSON {
		return writeJSON(cmd, managedResult{Interpreter: args[0], Managed: managed})
	}
	fmt.Fprintln(cmd.OutOrStdout(), yesNo(managed))
	return nil
}

type pythonVersionResult struct {
	Interpreter string              `json:"interpreter"`
	Known       bool                `json:"known"`
	Version     conda.PythonVersion `json:"version"`
}

func runPythonVersion(cmd *cobra.Command, args []string) error {
	v := conda.PythonVersionFromHistory(currentHost(), args[0])

	if outputJSON {
		return writeJSON(cmd, pythonVersionResult{Interpreter: args[0], Known: v.Known(), Version: v})
	}
	fmt.Fprintln(cmd.OutOrStdout(), v.String())
	return nil
}

// resolveEnvironment accepts an environment name, or a prefix path for
// environments outside every envs directory.
func resolveEnvironment(cmd *cobra.Command, c *conda.Conda, arg string) (conda.Environment, error) {
	env, suggestions, err := c.FindByName(commandContext(cmd), arg)
	if err == nil {
		return env, nil
	}
	if !errors.Is(err, conda.ErrEnvironmentNotFound) {
		return conda.Environment{}, err
	}
	if strings.ContainsAny(arg, `/\`) {
		return conda.Environment{Prefix: arg}, nil
	}
	if len(suggestions) > 0 {
		return conda.Environment{}, fmt.Errorf("%w (did you mean %s?)", err, strings.Join(suggestions, ", "))
	}
	return conda.Environment{}, err
}
