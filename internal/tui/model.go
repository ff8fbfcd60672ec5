package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/loanpoll/internal/events"
	"github.com/npratt/loanpoll/internal/refresh"
	"github.com/npratt/loanpoll/internal/status"
)

// eventLine represents a formatted event for display.
type eventLine struct {
	Time  time.Time
	Text  string
	Style lipgloss.Style
}

// model is the bubbletea model for the status screen.
type model struct {
	// Event source
	eventChan <-chan events.Event

	// Coordinator read side and actions
	poller    Poller
	onRefresh func() error
	onQuit    func()

	// Status as last synced from the poller
	current   status.Resolved
	directive refresh.Directive
	remaining int
	fetches   int

	// Fetch activity derived from events
	fetching  bool
	lastErr   string
	lastFetch time.Time
	stopped   bool

	spinner    spinner.Model
	eventLines []eventLine

	width  int
	height int
}

// eventMsg wraps an event for the bubbletea message system.
type eventMsg events.Event

// refreshDoneMsg carries the result of a user-triggered refresh.
type refreshDoneMsg struct {
	err error
}

// newModel creates a new model with the given configuration.
func newModel(eventChan <-chan events.Event, poller Poller, onRefresh func() error, onQuit func()) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	m := model{
		eventChan: eventChan,
		poller:    poller,
		onRefresh: onRefresh,
		onQuit:    onQuit,
		spinner:   sp,
	}
	m.sync()
	return m
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(
		waitForEvent(m.eventChan),
		doTick(),
	)
}

// sync copies the coordinator's current view into the model.
func (m *model) sync() {
	if m.poller == nil {
		return
	}
	m.current = m.poller.Current()
	m.directive = m.poller.Directive()
	m.remaining = m.poller.Remaining()
	m.fetches = m.poller.Fetches()
}

// visibleLines returns the number of event lines that fit below the status
// block.
func (m model) visibleLines() int {
	// border (2), header (1), dividers (3), footer (1), status block
	return max(1, m.height-7-len(m.statusBlock()))
}
