// Package toolchain runs the external documentation tools: make (driving
// Sphinx), mkdocs, sphinx-quickstart and sphinx-apidoc.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"git.home.luguber.info/inful/metadocs/internal/logfields"
)

var (
	// ErrBinaryNotFound indicates the executable was not found on PATH.
	ErrBinaryNotFound = errors.New("binary not found")
	// ErrExecutionFailed indicates the command exited with a non-zero status.
	ErrExecutionFailed = errors.New("execution failed")
)

// Invocation describes one external command.
type Invocation struct {
	Dir  string
	Name string
	Args []string
	Env  []string // extra KEY=VALUE pairs on top of the process environment
}

func (i Invocation) String() string {
	return strings.TrimSpace(i.Name + " " + strings.Join(i.Args, " "))
}

// Result carries what a finished command printed.
type Result struct {
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Output returns stdout and stderr joined, whichever is non-empty.
func (r Result) Output() string {
	switch {
	case r.Stdout == "":
		return r.Stderr
	case r.Stderr == "":
		return r.Stdout
	default:
		return r.Stdout + "\n" + r.Stderr
	}
}

// Runner executes invocations. Implementations must honour ctx cancellation.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (Result, error)
}

// ExecRunner runs binaries found on PATH. Output is always captured; with a
// Stream writer it is also copied there as it arrives.
type ExecRunner struct {
	Stream io.Writer
}

func (r *ExecRunner) Run(ctx context.Context, inv Invocation) (Result, error) {
	if _, err := exec.LookPath(inv.Name); err != nil {
		return Result{}, fmt.Errorf("%w: %s: %w", ErrBinaryNotFound, inv.Name, err)
	}

	// #nosec G204 -- binaries and arguments come from the operator's configuration
	cmd := exec.CommandContext(ctx, inv.Name, inv.Args...)
	cmd.Dir = inv.Dir
	if len(inv.Env) > 0 {
		cmd.Env = append(os.Environ(), inv.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout, cmd.Stderr = &stdout, &stderr
	if r.Stream != nil {
		cmd.Stdout = io.MultiWriter(&stdout, r.Stream)
		cmd.Stderr = io.MultiWriter(&stderr, r.Stream)
	}

	slog.Debug("Running external command", logfields.Command(inv.String()), logfields.Dir(inv.Dir))
	start := time.Now()
	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String(), Duration: time.Since(start)}

	if res.Stderr != "" && r.Stream == nil {
		slog.Debug("External command stderr", logfields.Command(inv.Name), slog.String("error_output", res.Stderr))
	}
	if err != nil {
		if out := strings.TrimSpace(res.Output()); out != "" {
			return res, fmt.Errorf("%w: %s: %w: %s", ErrExecutionFailed, inv, err, tail(out, 20))
		}
		return res, fmt.Errorf("%w: %s: %w", ErrExecutionFailed, inv, err)
	}
	return res, nil
}

// tail keeps the last n lines of s.
func tail(s string, n int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
