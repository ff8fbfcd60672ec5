// Package tui provides the terminal status screen for a watch run using
// bubbletea.
package tui

import (
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/loanpoll/internal/events"
	"github.com/npratt/loanpoll/internal/refresh"
	"github.com/npratt/loanpoll/internal/status"
)

// Poller is the read side of the polling coordinator.
type Poller interface {
	Current() status.Resolved
	Directive() refresh.Directive
	Remaining() int
	Fetches() int
}

// TUI is the terminal status screen.
type TUI struct {
	eventChan <-chan events.Event
	poller    Poller
	onRefresh func() error
	onQuit    func()
	out       io.Writer
}

// Option configures the TUI.
type Option func(*TUI)

// New creates a new TUI reading poller events from eventChan.
func New(eventChan <-chan events.Event, opts ...Option) *TUI {
	t := &TUI{
		eventChan: eventChan,
		out:       os.Stdout,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// WithPoller sets the coordinator the screen reads stage and schedule from.
func WithPoller(p Poller) Option {
	return func(t *TUI) {
		t.poller = p
	}
}

// WithOnRefresh sets the callback invoked when the user presses 'r'. It runs
// off the UI goroutine and may block for the duration of a fetch.
func WithOnRefresh(fn func() error) Option {
	return func(t *TUI) {
		t.onRefresh = fn
	}
}

// WithOnQuit sets the callback invoked when the user presses 'q' or ctrl+c.
func WithOnQuit(fn func()) Option {
	return func(t *TUI) {
		t.onQuit = fn
	}
}

// WithOutput sets where the line-mode fallback writes. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(t *TUI) {
		if w != nil {
			t.out = w
		}
	}
}

// Run starts the TUI and blocks until it exits. Without a usable terminal it
// falls back to printing one line per event.
func (t *TUI) Run() error {
	if !isTerminal() || terminalTooSmall() {
		return t.runSimple()
	}

	m := newModel(t.eventChan, t.poller, t.onRefresh, t.onQuit)

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
