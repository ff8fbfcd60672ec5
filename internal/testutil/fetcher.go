package testutil

import (
	"context"
	"errors"
	"sync"
)

// ErrScriptExhausted is returned by ScriptedFetcher when no steps remain and
// no fallback is set.
var ErrScriptExhausted = errors.New("scripted fetcher: no more responses")

// FetchStep is one scripted fetch result.
type FetchStep struct {
	Payload map[string]any
	Err     error
	// Before runs inside the fetch call before it returns, for injecting
	// refreshes or stops while the fetch is in flight.
	Before func(ctx context.Context)
}

// ScriptedFetcher returns scripted results in order and counts calls.
// After the script is exhausted it repeats Fallback if set.
type ScriptedFetcher struct {
	mu       sync.Mutex
	steps    []FetchStep
	calls    int
	Fallback *FetchStep
}

// NewScriptedFetcher creates a fetcher with the given steps.
func NewScriptedFetcher(steps ...FetchStep) *ScriptedFetcher {
	return &ScriptedFetcher{steps: steps}
}

// Then appends steps to the script.
func (f *ScriptedFetcher) Then(steps ...FetchStep) *ScriptedFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps = append(f.steps, steps...)
	return f
}

// Fetch returns the next scripted result. Its signature matches the poller's
// fetch function, with the payload as a plain map.
func (f *ScriptedFetcher) Fetch(ctx context.Context) (map[string]any, error) {
	f.mu.Lock()
	f.calls++
	var step FetchStep
	switch {
	case len(f.steps) > 0:
		step = f.steps[0]
		f.steps = f.steps[1:]
	case f.Fallback != nil:
		step = *f.Fallback
	default:
		f.mu.Unlock()
		return nil, ErrScriptExhausted
	}
	f.mu.Unlock()

	if step.Before != nil {
		step.Before(ctx)
	}
	return step.Payload, step.Err
}

// Calls returns how many times Fetch was called.
func (f *ScriptedFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
