package cache

import (
	"bytes"
	"context"
	"os"
	"os/exec"
)

// RunOptions adjusts a single subprocess call.
type RunOptions struct {
	// Env is appended to the current process environment.
	Env []string
}

// RunResult holds everything a finished command wrote.
type RunResult struct {
	Stdout []byte
	Stderr []byte
}

// Runner spawns a command with an argument array; nothing is interpreted by
// a shell.
type Runner interface {
	Run(ctx context.Context, command string, args []string, opts RunOptions) (RunResult, error)
}

// CmdRunner runs real processes with os/exec. The process is killed when
// ctx ends.
type CmdRunner struct{}

func (CmdRunner) Run(ctx context.Context, command string, args []string, opts RunOptions) (RunResult, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if len(opts.Env) > 0 {
		cmd.Env = append(os.Environ(), opts.Env...)
	}

	err := cmd.Run()
	return RunResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}, err
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, command string, args []string, opts RunOptions) (RunResult, error)

func (f RunnerFunc) Run(ctx context.Context, command string, args []string, opts RunOptions) (RunResult, error) {
	return f(ctx, command, args, opts)
}

var (
	_ Runner = CmdRunner{}
	_ Runner = RunnerFunc(nil)
)
