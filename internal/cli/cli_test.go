package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"condaprobe/internal/cache"
	"condaprobe/internal/conda"
	"condaprobe/internal/platform"
)

const testInfo = `{
  "conda_version": "4.10.3",
  "root_prefix": "/opt/conda",
  "default_prefix": "/opt/conda",
  "envs_dirs": ["/opt/conda/envs"],
  "envs": ["/opt/conda", "/opt/conda/envs/foo", "/work/scratch"]
}`

// useFakes points the command seams at an in-memory host and a runner that
// answers `info --json` for the commands in infos.
func useFakes(t *testing.T, infos map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()

	prevHost, prevRunner := currentHost, newRunner
	t.Cleanup(func() {
		currentHost, newRunner = prevHost, prevRunner
	})

	currentHost = func() platform.Host {
		return platform.Host{
			OS:     platform.Linux,
			Home:   "/home/user",
			Getenv: func(string) string { return "" },
			Fs:     fs,
		}
	}
	newRunner = func() cache.Runner {
		return cache.RunnerFunc(func(_ context.Context, command string, args []string, _ cache.RunOptions) (cache.RunResult, error) {
			out, ok := infos[command]
			if !ok || len(args) != 2 || args[0] != "info" {
				return cache.RunResult{}, errors.New("executable file not found")
			}
			return cache.RunResult{Stdout: []byte(out)}, nil
		})
	}
	return fs
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	stdout := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "config.yaml")}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func TestLocateCommand(t *testing.T) {
	useFakes(t, map[string]string{"conda": testInfo})

	out, err := runCLI(t, "locate")
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if strings.TrimSpace(out) != "conda" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestLocateCommandJSON(t *testing.T) {
	useFakes(t, map[string]string{"conda": testInfo})

	out, err := runCLI(t, "locate", "--json")
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	var result locateResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if !result.Found || result.Command != "conda" || result.Version != "4.10.3" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestLocateCommandNotFound(t *testing.T) {
	useFakes(t, nil)

	if _, err := runCLI(t, "locate"); !errors.Is(err, errNotFound) {
		t.Fatalf("expected errNotFound, got %v", err)
	}

	out, err := runCLI(t, "locate", "--json")
	if err != nil {
		t.Fatalf("JSON output should not fail: %v", err)
	}
	if !strings.Contains(out, `"found": false`) {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestLocateCommandPrefersCondaPathFlag(t *testing.T) {
	useFakes(t, map[string]string{"conda": testInfo, "/custom/conda": testInfo})

	out, err := runCLI(t, "--conda-path", "/custom/conda", "locate")
	if err != nil {
		t.Fatalf("locate: %v", err)
	}
	if strings.TrimSpace(out) != "/custom/conda" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCandidatesCommand(t *testing.T) {
	fs := useFakes(t, nil)
	if err := fs.MkdirAll("/opt/miniconda3", 0o755); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "--conda-path", "/custom/conda", "candidates")
	if err != nil {
		t.Fatalf("candidates: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 3 || lines[0] != "/custom/conda" || lines[1] != "conda" || lines[2] != "/opt/miniconda3/bin/conda" {
		t.Fatalf("unexpected candidates %q", lines)
	}
}

func TestEnvsCommand(t *testing.T) {
	useFakes(t, map[string]string{"conda": testInfo})

	out, err := runCLI(t, "envs")
	if err != nil {
		t.Fatalf("envs: %v", err)
	}
	for _, want := range []string{"NAME", "PREFIX", "base", "/opt/conda/envs/foo", "/work/scratch"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	out, err = runCLI(t, "envs", "--json")
	if err != nil {
		t.Fatalf("envs --json: %v", err)
	}
	var envs []conda.Environment
	if err := json.Unmarshal([]byte(out), &envs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envs) != 3 || envs[0].Name != "base" || envs[1].Name != "foo" || envs[2].Name != "" {
		t.Fatalf("unexpected environments %+v", envs)
	}
}

func TestEnvsCommandWithoutConda(t *testing.T) {
	useFakes(t, nil)
	if _, err := runCLI(t, "envs"); !errors.Is(err, errNotFound) {
		t.Fatalf("expected errNotFound, got %v", err)
	}
}

func TestOwnerCommand(t *testing.T) {
	useFakes(t, map[string]string{"conda": testInfo})

	out, err := runCLI(t, "owner", "/work/scratch/bin/python")
	if err != nil {
		t.Fatalf("owner: %v", err)
	}
	if !strings.Contains(out, "/work/scratch") {
		t.Fatalf("unexpected output %q", out)
	}

	if _, err := runCLI(t, "owner", "/usr/bin/python3"); err == nil {
		t.Fatal("expected an error for an executable outside conda")
	}
}

func TestInterpretersCommand(t *testing.T) {
	fs := useFakes(t, map[string]string{"conda": testInfo})
	if err := afero.WriteFile(fs, "/opt/conda/envs/foo/bin/python", nil, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, "/opt/conda/envs/foo/conda-meta/history", []byte("+defaults/linux-64::python-3.9.7-h12debd9_1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "interpreters")
	if err != nil {
		t.Fatalf("interpreters: %v", err)
	}
	if !strings.Contains(out, "/opt/conda/envs/foo/bin/python") || !strings.Contains(out, "3.9.7") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "/opt/conda/bin/python") {
		t.Fatalf("expected environments without python to be skipped:\n%s", out)
	}
}

func TestIsManagedAndPythonVersionCommands(t *testing.T) {
	fs := useFakes(t, nil)
	if err := afero.WriteFile(fs, "/envs/ml/conda-meta/history", []byte("+conda-forge/linux-64::python-3.11.4-hab00c5b_0_cpython\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, "is-managed", "/envs/ml/bin/python")
	if err != nil || strings.TrimSpace(out) != "yes" {
		t.Fatalf("is-managed = %q, %v", out, err)
	}
	out, err = runCLI(t, "is-managed", "/usr/bin/python3")
	if err != nil || strings.TrimSpace(out) != "no" {
		t.Fatalf("is-managed = %q, %v", out, err)
	}

	out, err = runCLI(t, "python-version", "/envs/ml/bin/python")
	if err != nil || strings.TrimSpace(out) != "3.11.4" {
		t.Fatalf("python-version = %q, %v", out, err)
	}
	out, err = runCLI(t, "python-version", "/usr/bin/python3")
	if err != nil || strings.TrimSpace(out) != "unknown" {
		t.Fatalf("python-version = %q, %v", out, err)
	}
}

func TestVersionAndSupportsCommands(t *testing.T) {
	useFakes(t, map[string]string{"conda": testInfo})

	out, err := runCLI(t, "version")
	if err != nil || strings.TrimSpace(out) != "4.10.3" {
		t.Fatalf("version = %q, %v", out, err)
	}
	out, err = runCLI(t, "supports")
	if err != nil || strings.TrimSpace(out) != "true" {
		t.Fatalf("supports = %q, %v", out, err)
	}
	out, err = runCLI(t, "supports", "4.10.3")
	if err != nil || strings.TrimSpace(out) != "false" {
		t.Fatalf("supports 4.10.3 = %q, %v", out, err)
	}
}

func TestSupportsWithoutConda(t *testing.T) {
	useFakes(t, nil)
	out, err := runCLI(t, "supports")
	if err != nil || strings.TrimSpace(out) != "false" {
		t.Fatalf("supports = %q, %v", out, err)
	}
}

func TestRunArgsCommand(t *testing.T) {
	useFakes(t, map[string]string{"conda": testInfo})

	out, err := runCLI(t, "run-args", "foo", "main.py")
	if err != nil {
		t.Fatalf("run-args: %v", err)
	}
	if strings.TrimSpace(out) != "conda run -n foo --no-capture-output python main.py" {
		t.Fatalf("unexpected output %q", out)
	}

	out, err = runCLI(t, "run-args", "/work/scratch")
	if err != nil {
		t.Fatalf("run-args by prefix: %v", err)
	}
	if strings.TrimSpace(out) != "conda run -p /work/scratch --no-capture-output python" {
		t.Fatalf("unexpected output %q", out)
	}

	_, err = runCLI(t, "run-args", "fo")
	if !errors.Is(err, conda.ErrEnvironmentNotFound) || !strings.Contains(err.Error(), "did you mean foo") {
		t.Fatalf("expected a suggestion, got %v", err)
	}
}

func TestRunArgsCommandOldConda(t *testing.T) {
	useFakes(t, map[string]string{"conda": `{"conda_version": "4.8.3", "envs": ["/opt/conda"], "root_prefix": "/opt/conda"}`})

	if _, err := runCLI(t, "run-args", "base"); err == nil || !strings.Contains(err.Error(), "4.8.3") {
		t.Fatalf("expected an unsupported-version error, got %v", err)
	}
}

func TestConfigShowAppliesFlag(t *testing.T) {
	useFakes(t, nil)

	out, err := runCLI(t, "--conda-path", "/custom/conda", "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "conda_path: /custom/conda") || !strings.Contains(out, "level: warn") {
		t.Fatalf("unexpected config:\n%s", out)
	}
}

func TestConfigValidateCommand(t *testing.T) {
	useFakes(t, nil)

	out, err := runCLI(t, "config", "validate")
	if err != nil || strings.TrimSpace(out) != "config ok" {
		t.Fatalf("config validate = %q, %v", out, err)
	}

	out, err = runCLI(t, "--conda-path", "/missing/conda", "config", "validate")
	if err != nil {
		t.Fatalf("warnings should not fail validation: %v", err)
	}
	if !strings.Contains(out, "warning: conda_path") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestDoctorCommandJSON(t *testing.T) {
	useFakes(t, map[string]string{"conda": testInfo})

	out, err := runCLI(t, "doctor", "--json")
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	var checks []healthCheck
	if err := json.Unmarshal([]byte(out), &checks); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(checks) != 4 {
		t.Fatalf("expected four checks, got %+v", checks)
	}
	for _, c := range checks {
		if c.Status != "ok" {
			t.Fatalf("expected all checks ok, got %+v", c)
		}
	}
}

func TestDoctorCommandWithoutConda(t *testing.T) {
	useFakes(t, nil)

	out, err := runCLI(t, "doctor")
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	if !strings.Contains(out, "ERROR") || !strings.Contains(out, "no working conda found") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestPrintTablePadsPlainCells(t *testing.T) {
	var buf bytes.Buffer
	printTable(&buf, []string{"NAME", "PREFIX"}, [][]string{
		{"base", "/opt/conda"},
		{"-", "/work"},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and two rows, got %q", buf.String())
	}
	if lines[1] != "base  /opt/conda" || lines[2] != "-     /work" {
		t.Fatalf("expected plain padded rows, got %q", lines[1:])
	}
}
