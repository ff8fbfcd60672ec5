// Package source fetches raw status payloads from the configured backend.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/npratt/loanpoll/internal/config"
	"github.com/npratt/loanpoll/internal/exec"
	"github.com/npratt/loanpoll/internal/status"
)

var (
	// ErrEmptyResponse is returned when a source yields no JSON object.
	ErrEmptyResponse = errors.New("empty status response")
	// ErrUnsupportedKind is returned by New for an unknown source kind.
	ErrUnsupportedKind = errors.New("unsupported source kind")
)

// Fetcher retrieves one status payload.
type Fetcher interface {
	Fetch(ctx context.Context) (status.RawPayload, error)
}

// New builds the Fetcher selected by cfg.Kind. A nil runner means command
// sources run real processes in cfg.Dir with cfg.Env.
func New(cfg config.SourceConfig, runner exec.CommandRunner) (Fetcher, error) {
	switch cfg.Kind {
	case config.SourceHTTP:
		return NewHTTPFetcher(cfg)
	case config.SourceCommand:
		if runner == nil {
			runner = &exec.ExecRunner{Dir: cfg.Dir, Env: cfg.Env}
		}
		return &CommandFetcher{
			Runner:   runner,
			Command:  cfg.Command,
			Args:     cfg.Args,
			Timeout:  cfg.Timeout,
			Envelope: cfg.Envelope,
		}, nil
	case config.SourceFile:
		return &FileFetcher{Path: cfg.Path, Envelope: cfg.Envelope}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, cfg.Kind)
	}
}

// Decode parses a JSON status document. When envelope is set the payload is
// read from that top-level key. Anything other than a JSON object is
// ErrEmptyResponse.
func Decode(data []byte, envelope string) (status.RawPayload, error) {
	if strings.TrimSpace(string(data)) == "" {
		return nil, ErrEmptyResponse
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse status response: %w", err)
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top level is %s", ErrEmptyResponse, jsonKind(doc))
	}
	if envelope != "" {
		inner, ok := obj[envelope].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: no object under %q", ErrEmptyResponse, envelope)
		}
		obj = inner
	}
	return status.RawPayload(obj), nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "an array"
	case string:
		return "a string"
	case float64:
		return "a number"
	case bool:
		return "a boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
