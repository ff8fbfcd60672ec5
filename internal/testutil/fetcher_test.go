package testutil

import (
	"context"
	"errors"
	"testing"
)

func TestScriptedFetcher(t *testing.T) {
	boom := errors.New("boom")
	beforeRan := false
	f := NewScriptedFetcher(
		FetchStep{Payload: AuditPendingPayload(30)},
		FetchStep{Err: boom, Before: func(ctx context.Context) { beforeRan = true }},
	)

	p, err := f.Fetch(context.Background())
	if err != nil || p == nil {
		t.Fatalf("first fetch = %v, %v", p, err)
	}
	if _, err := f.Fetch(context.Background()); !errors.Is(err, boom) {
		t.Errorf("second fetch err = %v", err)
	}
	if !beforeRan {
		t.Error("Before hook did not run")
	}
	if _, err := f.Fetch(context.Background()); !errors.Is(err, ErrScriptExhausted) {
		t.Errorf("exhausted err = %v", err)
	}

	f.Fallback = &FetchStep{Payload: TermsUnconfirmedPayload()}
	for i := 0; i < 3; i++ {
		if _, err := f.Fetch(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if f.Calls() != 6 {
		t.Errorf("Calls() = %d, want 6", f.Calls())
	}
}
