package cli

import (
	"fmt"
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"condaprobe/internal/conda"
	"condaprobe/internal/tui"
)

func newLocateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "locate",
		Short: "Find the conda binary this system would use",
		Args:  cobra.NoArgs,
		RunE:  runLocate,
	}
}

func newCandidatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "candidates",
		Short: "List every place conda is looked for, in probe order",
		Args:  cobra.NoArgs,
		RunE:  runCandidates,
	}
}

type locateResult struct {
	Found   bool   `json:"found"`
	Command string `json:"command,omitempty"`
	Version string `json:"version,omitempty"`
}

func runLocate(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := commandContext(cmd)
	mode := tui.DetectMode(cmd.OutOrStdout(), noProgress, outputJSON)

	var c *conda.Conda
	if mode == tui.ModeTUI {
		_, err = tui.RunProbe(cmd.OutOrStdout(), tui.NewProbeModel("Locating conda"), func(send func(tea.Msg)) (string, error) {
			a.probeHook = func(candidate string) {
				send(tui.ProbeMsg{Candidate: candidate})
			}
			found, err := a.locator.Locate(ctx)
			if err != nil || found == nil {
				return "", err
			}
			c = found
			return found.Command(), nil
		})
	} else {
		c, err = a.locator.Locate(ctx)
	}
	if err != nil {
		return err
	}

	var result locateResult
	if c != nil {
		result = locateResult{Found: true, Command: c.Command(), Version: c.Version(ctx).String()}
	}

	if outputJSON {
		return writeJSON(cmd, result)
	}
	if c == nil {
		return errNotFound
	}
	if mode != tui.ModeTUI {
		fmt.Fprintln(cmd.OutOrStdout(), c.Command())
	}
	return nil
}

func runCandidates(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	candidates := slices.Collect(conda.Candidates(commandContext(cmd), a.host, a.cfg.CondaPath))
	if outputJSON {
		if candidates == nil {
			candidates = []string{}
		}
		return writeJSON(cmd, candidates)
	}
	for _, c := range candidates {
		fmt.Fprintln(cmd.OutOrStdout(), c)
	}
	return nil
}
