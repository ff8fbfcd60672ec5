package source

import (
	"context"
	"fmt"
	"time"

	"github.com/npratt/loanpoll/internal/exec"
	"github.com/npratt/loanpoll/internal/status"
)

// CommandFetcher runs a command and parses its stdout as the status document.
type CommandFetcher struct {
	Runner   exec.CommandRunner
	Command  string
	Args     []string
	Timeout  time.Duration
	Envelope string
}

// Fetch implements Fetcher.
func (f *CommandFetcher) Fetch(ctx context.Context) (status.RawPayload, error) {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	out, err := f.Runner.Run(ctx, f.Command, f.Args...)
	if err != nil {
		return nil, fmt.Errorf("run status command: %w", err)
	}
	return Decode(out, f.Envelope)
}
