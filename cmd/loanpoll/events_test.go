package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npratt/loanpoll/internal/events"
)

func eventLine(t *testing.T, ev events.Event) string {
	t.Helper()
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	return string(data) + "\n"
}

func writeEvents(t *testing.T, path string, evs ...events.Event) {
	t.Helper()
	var b strings.Builder
	for _, ev := range evs {
		b.WriteString(eventLine(t, ev))
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
}

func TestEventsCommandNoLog(t *testing.T) {
	inProject(t, "")

	a, _ := newTestApp()
	out, err := execute(context.Background(), a, "", "events")
	require.NoError(t, err)
	assert.Equal(t, "No events yet (log file does not exist)\n", out)
}

func TestEventsCommandEmptyLog(t *testing.T) {
	dir := inProject(t, "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".loanpoll", "events.jsonl"), nil, 0644))

	a, _ := newTestApp()
	out, err := execute(context.Background(), a, "", "events")
	require.NoError(t, err)
	assert.Equal(t, "No events yet\n", out)
}

func TestEventsCommandCount(t *testing.T) {
	dir := inProject(t, "")
	writeEvents(t, filepath.Join(dir, ".loanpoll", "events.jsonl"),
		&events.PollerStartEvent{BaseEvent: events.NewPollerEvent(events.EventPollerStart, "s1"), SourceKind: "file"},
		&events.FetchStartEvent{BaseEvent: events.NewPollerEvent(events.EventFetchStart, "s1"), Trigger: "initial"},
		&events.StageChangedEvent{BaseEvent: events.NewPollerEvent(events.EventStageChanged, "s1"), From: "Unknown", To: "AuditPending"},
	)

	a, _ := newTestApp()
	out, err := execute(context.Background(), a, "", "events", "--count", "2")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "fetch: initial")
	assert.Contains(t, lines[1], "stage: Unknown -> AuditPending")
	assert.True(t, strings.HasPrefix(lines[1], "["), "expected timestamp prefix: %q", lines[1])
}

func TestEventsCommandSessionFilter(t *testing.T) {
	dir := inProject(t, "")
	path := filepath.Join(dir, "custom", "events.jsonl")
	writeEvents(t, path,
		&events.PollerStartEvent{BaseEvent: events.NewPollerEvent(events.EventPollerStart, "old")},
		&events.PollerStopEvent{BaseEvent: events.NewPollerEvent(events.EventPollerStop, "old"), Fetches: 4},
		&events.PollerStartEvent{BaseEvent: events.NewPollerEvent(events.EventPollerStart, "new"), SourceKind: "http"},
	)

	a, _ := newTestApp()
	out, err := execute(context.Background(), a, "", "events", "--events-file", path, "--session", "old")
	require.NoError(t, err)

	assert.Contains(t, out, "poller stopped after 4 fetches")
	assert.NotContains(t, out, "http source")
}

func TestPrintEventLine(t *testing.T) {
	start := eventLine(t, &events.FetchCoalescedEvent{
		BaseEvent: events.NewPollerEvent(events.EventFetchCoalesced, "s1"),
		Trigger:   "manual",
	})
	line := []byte(strings.TrimSuffix(start, "\n"))

	tests := []struct {
		name    string
		line    []byte
		session string
		want    string
	}{
		{name: "known event", line: line, want: "fetch coalesced: manual"},
		{name: "matching session", line: line, session: "s1", want: "fetch coalesced: manual"},
		{name: "other session", line: line, session: "s2", want: ""},
		{name: "not json", line: []byte("garbage"), want: "garbage\n"},
		{name: "not json filtered", line: []byte("garbage"), session: "s1", want: ""},
		{name: "unknown type", line: []byte(`{"type":"later.event"}`), want: ""},
		{name: "empty", line: nil, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printEventLine(&buf, tt.line, tt.session)
			if tt.want == "" {
				assert.Empty(t, buf.String())
				return
			}
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestTailFollow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	writeEvents(t, path,
		&events.PollerStartEvent{BaseEvent: events.NewPollerEvent(events.EventPollerStart, "s1")},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- tailFollow(ctx, out, path, "") }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Following events")
	}, 2*time.Second, 10*time.Millisecond)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	line := eventLine(t, &events.FetchEndEvent{
		BaseEvent:  events.NewPollerEvent(events.EventFetchEnd, "s1"),
		Trigger:    "interval",
		DurationMs: 7,
	})
	// Split the write to exercise partial line handling.
	_, err = f.WriteString(line[:10])
	require.NoError(t, err)
	time.Sleep(3 * followPollInterval)
	_, err = f.WriteString(line[10:])
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "fetch ok: interval (7ms)")
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("tailFollow did not return after cancel")
	}

	assert.NotContains(t, out.String(), "poller started", "existing events should be skipped")
}

func TestTailFollowWaitsForFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "later.jsonl")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() { done <- tailFollow(ctx, out, path, "") }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Waiting for log file")
	}, 2*time.Second, 10*time.Millisecond)

	writeEvents(t, path,
		&events.PollerStopEvent{BaseEvent: events.NewPollerEvent(events.EventPollerStop, "s1"), Fetches: 1},
	)

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "poller stopped after 1 fetches")
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
