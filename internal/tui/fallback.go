package tui

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/npratt/loanpoll/internal/events"
)

// isTerminal returns true if both stdout and stdin are TTYs.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd()))
}

// terminalSize returns the current terminal width and height.
// Returns 0, 0 if the terminal size cannot be determined.
func terminalSize() (width, height int) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0, 0
	}
	return width, height
}

// terminalTooSmall returns true if the terminal is below the minimum size.
func terminalTooSmall() bool {
	width, height := terminalSize()
	return width < minWidth || height < minHeight
}

// runSimple provides line-by-line output for non-interactive environments.
// Exits when the channel closes or on interrupt signal; the interrupt also
// runs the quit callback so the coordinator stops.
func (t *TUI) runSimple() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	for {
		select {
		case <-sigChan:
			if t.onQuit != nil {
				t.onQuit()
			}
			return nil
		case event, ok := <-t.eventChan:
			if !ok {
				return nil
			}

			text := events.FormatWithTimestamp(event)
			if text == "" {
				continue
			}
			if _, err := fmt.Fprintln(t.out, text); err != nil {
				return fmt.Errorf("write event: %w", err)
			}
		}
	}
}
