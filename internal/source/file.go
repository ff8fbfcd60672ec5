package source

import (
	"context"
	"fmt"
	"os"

	"github.com/npratt/loanpoll/internal/status"
)

// FileFetcher re-reads a JSON file on every fetch.
type FileFetcher struct {
	Path     string
	Envelope string
}

// Fetch implements Fetcher.
func (f *FileFetcher) Fetch(ctx context.Context) (status.RawPayload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read status file: %w", err)
	}
	return Decode(data, f.Envelope)
}
