package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to a file in the given directory.
// It creates parent directories as needed and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// AssertCalled verifies that a command was called with the expected args.
func AssertCalled(t *testing.T, mock *MockRunner, name string, args ...string) {
	t.Helper()
	calls := mock.GetCalls()
	for _, call := range calls {
		if call.Name == name && slicesEqual(call.Args, args) {
			return
		}
	}
	t.Errorf("expected call to %s %v not found in %v", name, args, calls)
}

// AssertCallCount verifies the number of times a command was called.
func AssertCallCount(t *testing.T, mock *MockRunner, name string, expected int) {
	t.Helper()
	count := 0
	calls := mock.GetCalls()
	for _, call := range calls {
		if call.Name == name {
			count++
		}
	}
	if count != expected {
		t.Errorf("expected %d calls to %s, got %d (calls: %v)", expected, name, count, calls)
	}
}

// slicesEqual compares two string slices for equality.
func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SetupProject creates a project directory holding a .loanpoll directory
// and, when configYAML is non-empty, a .loanpoll/config.yaml with that
// content. The directory is removed when the test ends.
func SetupProject(t *testing.T, configYAML string) string {
	t.Helper()
	dir := t.TempDir()

	if err := os.MkdirAll(filepath.Join(dir, ".loanpoll"), 0755); err != nil {
		t.Fatal(err)
	}
	if configYAML != "" {
		WriteFile(t, dir, ".loanpoll/config.yaml", configYAML)
	}

	return dir
}

// SetupMockStatusCommand configures a MockRunner to answer a status command
// with the given payload.
func SetupMockStatusCommand(mock *MockRunner, name string, args []string, payload string) {
	mock.SetResponse(name, args, []byte(payload))
}
