package events

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLogSinkCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subdir", "nested", "events.jsonl")

	sink := NewLogSink(path)
	events := make(chan Event, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sink.Start(ctx, events); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if _, err := os.Stat(filepath.Dir(path)); os.IsNotExist(err) {
		t.Error("expected directory to be created")
	}

	cancel()
	_ = sink.Stop()
}

func TestLogSinkWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	sink := NewLogSink(path)
	events := make(chan Event, 10)

	if err := sink.Start(context.Background(), events); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	events <- &PollerStartEvent{BaseEvent: NewPollerEvent(EventPollerStart, "s1"), SourceKind: "http"}
	events <- &StageResolvedEvent{BaseEvent: NewPollerEvent(EventStageResolved, "s1"), Stage: "RiskCountdown", Mode: "countdown", CountdownSeconds: 45}
	close(events)

	if err := sink.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if sink.Written() != 2 {
		t.Errorf("Written() = %d, want 2", sink.Written())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	content := string(data)

	for _, want := range []string{`"type":"poller.start"`, `"type":"stage.resolved"`, `"session":"s1"`} {
		if !strings.Contains(content, want) {
			t.Errorf("log missing %s", want)
		}
	}

	for i, line := range strings.Split(strings.TrimSpace(content), "\n") {
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Errorf("line %d is not valid JSON: %v", i, err)
		}
	}
}

func TestLogSinkRotatesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.jsonl")

	initial := `{"type":"poller.start","timestamp":"2026-01-01T00:00:00Z","source":"poller"}` + "\n"
	if err := os.WriteFile(path, []byte(initial), 0644); err != nil {
		t.Fatalf("failed to write initial content: %v", err)
	}

	sink := NewLogSink(path)
	events := make(chan Event, 1)
	if err := sink.Start(context.Background(), events); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	events <- &PollerStopEvent{BaseEvent: NewPollerEvent(EventPollerStop, ""), Fetches: 3}
	close(events)
	_ = sink.Stop()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "2026-01-01") {
		t.Error("old content should have been rotated away")
	}
	if !strings.Contains(string(data), `"type":"poller.stop"`) {
		t.Error("expected new event in fresh log")
	}

	backups, _ := filepath.Glob(path + ".*.bak")
	if len(backups) != 1 {
		t.Fatalf("found %d backups, want 1", len(backups))
	}
}

func TestLogSinkSkipsRotationForEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	sink := NewLogSink(path)
	events := make(chan Event)
	if err := sink.Start(context.Background(), events); err != nil {
		t.Fatal(err)
	}
	close(events)
	_ = sink.Stop()

	backups, _ := filepath.Glob(path + ".*.bak")
	if len(backups) != 0 {
		t.Errorf("found %d backups, want 0", len(backups))
	}
}

func TestLogSinkDrainsOnCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	sink := NewLogSink(path)
	events := make(chan Event, 5)
	for i := 0; i < 3; i++ {
		events <- &FetchStartEvent{BaseEvent: NewPollerEvent(EventFetchStart, ""), Trigger: "interval"}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sink.Start(ctx, events); err != nil {
		t.Fatal(err)
	}
	_ = sink.Stop()

	if got := sink.Written(); got != 3 {
		t.Errorf("Written() = %d, want 3", got)
	}
}

func TestLogSinkHandlesClosedChannel(t *testing.T) {
	sink := NewLogSink(filepath.Join(t.TempDir(), "events.jsonl"))
	events := make(chan Event, 10)

	if err := sink.Start(context.Background(), events); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	close(events)

	done := make(chan struct{})
	go func() {
		_ = sink.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("Stop timed out after channel close")
	}
}

func TestLogSinkPath(t *testing.T) {
	sink := NewLogSink("/path/to/events.jsonl")
	if sink.Path() != "/path/to/events.jsonl" {
		t.Errorf("Path() = %q", sink.Path())
	}
}
