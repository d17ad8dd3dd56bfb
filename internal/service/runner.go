package service

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"time"
)

type StderrFunc func(ctx context.Context, line string)

// Runner executes a command and waits for it
type Runner interface {
	Run(ctx context.Context, cmd Command) Result
}

type Command struct {
	Path    string
	Args    []string
	Env     []string // nil inherits the environment
	Dir     string
	Timeout time.Duration // zero means no timeout
}

type Result struct {
	Path     string
	Args     []string
	Started  time.Time
	Stopped  time.Time
	ExitCode int // -1 if the process did not run or was killed
	Stdout   *bytes.Buffer
	Err      error // set when the process could not run
}

// ExecRunner runs commands via os/exec
type ExecRunner struct {
	stdout     io.Writer
	stderrFunc StderrFunc
}

// NewExecRunner returns a runner copying the stdout of commands to stdout
// (if not nil) and calling stderrFunc on each line of stderr (if not nil).
func NewExecRunner(stdout io.Writer, stderrFunc StderrFunc) *ExecRunner {
	return &ExecRunner{
		stdout:     stdout,
		stderrFunc: stderrFunc,
	}
}

func (r *ExecRunner) Run(ctx context.Context, proto Command) Result {
	result := Result{
		Path:     proto.Path,
		Args:     append([]string(nil), proto.Args...),
		ExitCode: -1,
		Stdout:   &bytes.Buffer{},
	}

	if proto.Timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, proto.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, result.Path, result.Args...)
	cmd.Dir = proto.Dir
	if proto.Env != nil {
		cmd.Env = append([]string(nil), proto.Env...)
	}
	if r.stdout != nil {
		cmd.Stdout = io.MultiWriter(result.Stdout, r.stdout)
	} else {
		cmd.Stdout = result.Stdout
	}

	var stderr io.ReadCloser
	if r.stderrFunc != nil {
		var err error
		stderr, err = cmd.StderrPipe()
		if err != nil {
			result.Err = err
			return result
		}
	}

	result.Started = time.Now().UTC()
	if err := cmd.Start(); err != nil {
		result.Stopped = time.Now().UTC()
		result.Err = err
		return result
	}

	// all reads must complete before Wait closes the pipe
	if stderr != nil {
		processStderr(ctx, stderr, r.stderrFunc)
	}

	err := cmd.Wait()
	result.Stopped = time.Now().UTC()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		result.ExitCode = 0
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		result.Err = err
	}
	slog.DebugContext(ctx, "command finished",
		"path", result.Path,
		"exit_code", result.ExitCode,
		"elapsed", result.Stopped.Sub(result.Started).String(),
	)
	return result
}

func processStderr(ctx context.Context, stderr io.Reader, stderrFunc StderrFunc) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		stderrFunc(ctx, scanner.Text())
	}
	err := scanner.Err()
	if err != nil && !errors.Is(err, io.EOF) {
		slog.ErrorContext(ctx, "processing stderr", "error", err)
	}
	// drain what the scanner gave up on, so the process can't block on write
	_, _ = io.Copy(io.Discard, stderr)
}
