package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"condaprobe/internal/conda"
	"condaprobe/internal/config"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that conda can be found and queried",
		Args:  cobra.NoArgs,
		RunE:  runDoctor,
	}
}

type healthCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Summary string `json:"summary"`
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	cfg, cfgErr := loadConfig()
	checks := []healthCheck{checkConfig(cfg, cfgErr)}
	if cfgErr != nil {
		return writeDoctorResult(cmd, checks)
	}

	a, err := newApp(cmd)
	if err != nil {
		checks = append(checks, healthCheck{Name: "Conda", Status: "error", Summary: err.Error()})
		return writeDoctorResult(cmd, checks)
	}
	defer a.Close()

	ctx := commandContext(cmd)
	c, err := a.locator.Locate(ctx)
	checks = append(checks, checkConda(c, err))
	if c == nil {
		return writeDoctorResult(cmd, checks)
	}

	checks = append(checks, checkVersion(ctx, c))
	checks = append(checks, checkEnvironments(ctx, c))
	return writeDoctorResult(cmd, checks)
}

func checkConfig(cfg config.Config, cfgErr error) healthCheck {
	if cfgErr != nil {
		return healthCheck{Name: "Config", Status: "error", Summary: cfgErr.Error()}
	}

	results := cfg.Validate(currentHost().Filesystem())
	var warnings, errs []string
	for _, r := range results {
		switch r.Level {
		case "warning":
			warnings = append(warnings, r.Message)
		case "error":
			errs = append(errs, r.Message)
		}
	}
	switch {
	case len(errs) > 0:
		return healthCheck{Name: "Config", Status: "error", Summary: strings.Join(errs, "; ")}
	case len(warnings) > 0:
		return healthCheck{Name: "Config", Status: "warning", Summary: strings.Join(warnings, "; ")}
	}
	return healthCheck{Name: "Config", Status: "ok", Summary: "valid"}
}

func checkConda(c *conda.Conda, err error) healthCheck {
	switch {
	case err != nil:
		return healthCheck{Name: "Conda", Status: "error", Summary: err.Error()}
	case c == nil:
		return healthCheck{Name: "Conda", Status: "error", Summary: "no working conda found"}
	}
	return healthCheck{Name: "Conda", Status: "ok", Summary: c.Command()}
}

func checkVersion(ctx context.Context, c *conda.Conda) healthCheck {
	v := c.Version(ctx)
	switch {
	case v.Absent():
		return healthCheck{Name: "Version", Status: "error", Summary: "conda reported no version"}
	case v.Unknown:
		return healthCheck{Name: "Version", Status: "warning", Summary: fmt.Sprintf("unrecognized version %q", v.Raw)}
	case !c.SupportsFeature(ctx, conda.RunVersion):
		return healthCheck{Name: "Version", Status: "warning", Summary: fmt.Sprintf("%s, conda run needs newer than %s", v, conda.RunVersion)}
	}
	return healthCheck{Name: "Version", Status: "ok", Summary: v.String()}
}

func checkEnvironments(ctx context.Context, c *conda.Conda) healthCheck {
	envs, err := c.Environments(ctx)
	if err != nil {
		return healthCheck{Name: "Envs", Status: "error", Summary: err.Error()}
	}
	var names []string
	for _, env := range envs {
		if env.Name != "" {
			names = append(names, env.Name)
		}
	}
	summary := fmt.Sprintf("%d environments", len(envs))
	if len(names) > 0 {
		summary += " (" + strings.Join(names, ", ") + ")"
	}
	return healthCheck{Name: "Envs", Status: "ok", Summary: summary}
}

func writeDoctorResult(cmd *cobra.Command, checks []healthCheck) error {
	if outputJSON {
		return writeJSON(cmd, checks)
	}

	bold := lipgloss.NewStyle().Bold(true).Inline(true)
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Inline(true)
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Inline(true)
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Inline(true)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, bold.Render("CONDA HEALTH:"))

	for _, c := range checks {
		var statusStr string
		switch c.Status {
		case "ok":
			statusStr = green.Render("OK")
		case "warning":
			statusStr = yellow.Render("WARN")
		case "error":
			statusStr = red.Render("ERROR")
		}
		fmt.Fprintf(out, "  %-10s %s    %s\n", c.Name+":", statusStr, c.Summary)
	}
	return nil
}
