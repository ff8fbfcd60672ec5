package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()

	path := WriteFile(t, dir, "test.txt", "hello world")

	// Verify file exists
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("file should exist: %v", err)
	}
	if string(content) != "hello world" {
		t.Errorf("content = %q, want %q", content, "hello world")
	}
}

func TestWriteFile_CreatesSubdirectories(t *testing.T) {
	dir := t.TempDir()

	path := WriteFile(t, dir, "sub/dir/test.txt", "content")

	// Verify file exists
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("file should exist: %v", err)
	}
	if string(content) != "content" {
		t.Errorf("content = %q, want %q", content, "content")
	}
}

func TestAssertCalled(t *testing.T) {
	mock := NewMockRunner()
	mock.Responses["status-cli get"] = []byte("{}")

	_, _ = mock.Run(context.Background(), "status-cli", "get")

	// This should not fail
	AssertCalled(t, mock, "status-cli", "get")
}

func TestAssertCallCount(t *testing.T) {
	mock := NewMockRunner()
	mock.Responses["test"] = []byte("ok")

	_, _ = mock.Run(context.Background(), "test")
	_, _ = mock.Run(context.Background(), "test")
	_, _ = mock.Run(context.Background(), "other")

	AssertCallCount(t, mock, "test", 2)
	AssertCallCount(t, mock, "other", 1)
	AssertCallCount(t, mock, "never", 0)
}

func TestSlicesEqual(t *testing.T) {
	tests := []struct {
		a, b     []string
		expected bool
	}{
		{nil, nil, true},
		{[]string{}, []string{}, true},
		{[]string{"a"}, []string{"a"}, true},
		{[]string{"a", "b"}, []string{"a", "b"}, true},
		{[]string{"a"}, []string{"b"}, false},
		{[]string{"a"}, []string{"a", "b"}, false},
		{[]string{"a", "b"}, []string{"a"}, false},
	}

	for _, tt := range tests {
		result := slicesEqual(tt.a, tt.b)
		if result != tt.expected {
			t.Errorf("slicesEqual(%v, %v) = %v, want %v", tt.a, tt.b, result, tt.expected)
		}
	}
}

func TestSetupProject(t *testing.T) {
	dir := SetupProject(t, "")

	info, err := os.Stat(filepath.Join(dir, ".loanpoll"))
	if err != nil {
		t.Fatalf(".loanpoll directory should exist: %v", err)
	}
	if !info.IsDir() {
		t.Error(".loanpoll should be a directory")
	}
	if _, err := os.Stat(filepath.Join(dir, ".loanpoll/config.yaml")); !os.IsNotExist(err) {
		t.Errorf("empty config should not write a file, stat err = %v", err)
	}
}

func TestSetupProject_WithConfig(t *testing.T) {
	cfg := "source:\n  kind: file\n  path: status.json\n"
	dir := SetupProject(t, cfg)

	got, err := os.ReadFile(filepath.Join(dir, ".loanpoll/config.yaml"))
	if err != nil {
		t.Fatalf("config should exist: %v", err)
	}
	if string(got) != cfg {
		t.Errorf("config content mismatch\ngot: %s\nwant: %s", got, cfg)
	}
}

func TestSetupMockStatusCommand(t *testing.T) {
	mock := NewMockRunner()
	SetupMockStatusCommand(mock, "status-cli", []string{"get"}, AuditPendingJSON)

	result, err := mock.Run(context.Background(), "status-cli", "get")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result) != AuditPendingJSON {
		t.Error("response mismatch")
	}
}
