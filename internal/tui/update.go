package tui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/loanpoll/internal/events"
)

const (
	// maxEventLines is the maximum number of event lines to keep in the buffer.
	maxEventLines = 500
	// trimEventLines is the number of lines to remove when buffer exceeds max.
	trimEventLines = 50
	// tickInterval is how often the countdown is re-read from the poller.
	tickInterval = 500 * time.Millisecond
)

// channelClosedMsg signals that the event channel was closed.
type channelClosedMsg struct{}

// tickMsg signals a periodic tick for poller synchronization.
type tickMsg time.Time

// waitForEvent creates a command that waits for the next event from the channel.
// Returns channelClosedMsg if the channel is closed.
func waitForEvent(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return channelClosedMsg{}
		}
		return eventMsg(event)
	}
}

// doTick creates a command that waits for the tick interval and sends a tickMsg.
func doTick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// requestRefresh runs the refresh callback off the UI goroutine.
func requestRefresh(fn func() error) tea.Cmd {
	return func() tea.Msg {
		return refreshDoneMsg{err: fn()}
	}
}

// Update implements tea.Model. It handles all message types and updates the model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case eventMsg:
		wasFetching := m.fetching
		m.handleEvent(events.Event(msg))
		cmds := []tea.Cmd{waitForEvent(m.eventChan)}
		if m.fetching && !wasFetching {
			cmds = append(cmds, m.spinner.Tick)
		}
		return m, tea.Batch(cmds...)

	case channelClosedMsg:
		slog.Info("event channel closed, exiting TUI")
		return m, tea.Quit

	case tickMsg:
		m.sync()
		return m, doTick()

	case refreshDoneMsg:
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.lastErr = msg.err.Error()
		}
		m.fetching = false
		m.sync()
		return m, nil

	case spinner.TickMsg:
		if !m.fetching {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	default:
		return m, nil
	}
}

// handleKey processes keyboard input and returns the updated model and command.
func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.onQuit != nil {
			m.onQuit()
		}
		return m, tea.Quit

	case "r":
		if m.onRefresh == nil || m.fetching || m.stopped {
			return m, nil
		}
		m.fetching = true
		m.lastErr = ""
		return m, tea.Batch(requestRefresh(m.onRefresh), m.spinner.Tick)

	default:
		return m, nil
	}
}

// handleEvent processes an event and updates model state.
func (m *model) handleEvent(event events.Event) {
	switch e := event.(type) {
	case *events.FetchStartEvent:
		m.fetching = true

	case *events.FetchEndEvent:
		m.fetching = false
		m.lastErr = ""
		m.lastFetch = event.Timestamp()

	case *events.FetchErrorEvent:
		m.fetching = false
		m.lastErr = e.Error

	case *events.StageResolvedEvent:
		m.sync()

	case *events.PollerStopEvent:
		m.stopped = true
		m.fetching = false
	}

	text := events.Format(event)
	if text == "" {
		return
	}
	m.eventLines = append(m.eventLines, eventLine{
		Time:  event.Timestamp(),
		Text:  text,
		Style: StyleForEvent(event),
	})
	if len(m.eventLines) > maxEventLines {
		m.eventLines = m.eventLines[trimEventLines:]
	}
}
