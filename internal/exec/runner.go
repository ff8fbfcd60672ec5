// Package exec runs external commands that print status payloads.
package exec

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// maxStderr caps how much stderr is carried in an error message.
const maxStderr = 512

// CommandRunner abstracts command execution for dependency injection.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner executes real commands using os/exec.
type ExecRunner struct {
	// Dir is the working directory; empty means the current one.
	Dir string
	// Env is appended to the parent environment.
	Env []string
}

// NewExecRunner creates a new ExecRunner for production use.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes a command and returns its stdout. A non-zero exit is an
// error that carries the command's stderr.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := execCommand(ctx, name, args...)
	cmd.Configure(r.Dir, r.Env)

	out, err := cmd.Output()
	if err != nil {
		return out, commandError(name, err)
	}
	return out, nil
}

func commandError(name string, err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		if len(stderr) > maxStderr {
			stderr = stderr[:maxStderr] + "..."
		}
		if stderr != "" {
			return fmt.Errorf("%s: exit %d: %s: %w", name, exitErr.ExitCode(), stderr, err)
		}
		return fmt.Errorf("%s: exit %d: %w", name, exitErr.ExitCode(), err)
	}
	return fmt.Errorf("%s: %w", name, err)
}

// execCommand is a variable to allow testing.
var execCommand = execCommandImpl

func execCommandImpl(ctx context.Context, name string, args ...string) execCmd {
	return &realExecCmd{cmd: exec.CommandContext(ctx, name, args...)}
}

// execCmd abstracts exec.Cmd for testing.
type execCmd interface {
	Configure(dir string, env []string)
	Output() ([]byte, error)
}

type realExecCmd struct {
	cmd *exec.Cmd
}

func (c *realExecCmd) Configure(dir string, env []string) {
	c.cmd.Dir = dir
	if len(env) > 0 {
		c.cmd.Env = append(os.Environ(), env...)
	}
}

func (c *realExecCmd) Output() ([]byte, error) {
	return c.cmd.Output()
}
