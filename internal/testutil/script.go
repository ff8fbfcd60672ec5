package testutil

import (
	"os"
	"path/filepath"
)

// StatusScript generates a shell script that stands in for a status
// command in command-source tests.
type StatusScript struct {
	// Payload is printed to stdout.
	Payload string

	// Delay is an optional sleep duration (e.g., "0.1" for 100ms).
	Delay string

	// FailWithError makes the script print to stderr and exit 1.
	FailWithError string
}

// Write creates the script at path with executable permissions.
func (s *StatusScript) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	var script string
	if s.FailWithError != "" {
		script = s.buildFailingScript()
	} else {
		script = s.buildSuccessScript()
	}

	return os.WriteFile(path, []byte(script), 0755)
}

func (s *StatusScript) buildSuccessScript() string {
	delay := s.Delay
	if delay == "" {
		delay = "0"
	}

	return `#!/bin/sh
sleep ` + delay + `
cat << 'PAYLOAD_EOF'
` + s.Payload + `
PAYLOAD_EOF
`
}

func (s *StatusScript) buildFailingScript() string {
	return `#!/bin/sh
echo "error: ` + s.FailWithError + `" >&2
exit 1
`
}
