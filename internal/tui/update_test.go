package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/npratt/loanpoll/internal/events"
	"github.com/npratt/loanpoll/internal/refresh"
	"github.com/npratt/loanpoll/internal/status"
)

func keyMsg(s string) tea.KeyMsg {
	if s == "ctrl+c" {
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(model)
	require.True(t, ok, "Update returned %T", next)
	return nm, cmd
}

func TestUpdate_QuitKeys(t *testing.T) {
	for _, key := range []string{"q", "ctrl+c"} {
		t.Run(key, func(t *testing.T) {
			quitCalled := false
			m := newModel(make(chan events.Event), nil, nil, func() { quitCalled = true })

			_, cmd := update(t, m, keyMsg(key))

			assert.True(t, quitCalled)
			require.NotNil(t, cmd)
			assert.IsType(t, tea.QuitMsg{}, cmd())
		})
	}
}

func TestUpdate_RefreshKey(t *testing.T) {
	calls := 0
	m := newModel(make(chan events.Event), nil, func() error { calls++; return nil }, nil)
	m.lastErr = "old failure"

	m, cmd := update(t, m, keyMsg("r"))

	assert.True(t, m.fetching)
	assert.Empty(t, m.lastErr)
	require.NotNil(t, cmd)
	assert.Equal(t, 0, calls, "refresh must run inside the command, not in Update")

	// A second press while fetching is ignored.
	_, cmd2 := update(t, m, keyMsg("r"))
	assert.Nil(t, cmd2)

	done, _ := update(t, m, refreshDoneMsg{})
	assert.False(t, done.fetching)
}

func TestUpdate_RefreshKeyIgnoredWhenStopped(t *testing.T) {
	m := newModel(make(chan events.Event), nil, func() error { return nil }, nil)
	m.stopped = true

	m, cmd := update(t, m, keyMsg("r"))
	assert.Nil(t, cmd)
	assert.False(t, m.fetching)
}

func TestRequestRefresh(t *testing.T) {
	want := errors.New("backend down")
	msg := requestRefresh(func() error { return want })()
	done, ok := msg.(refreshDoneMsg)
	require.True(t, ok)
	assert.ErrorIs(t, done.err, want)
}

func TestUpdate_RefreshDone(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr string
	}{
		{"success", nil, ""},
		{"failure", errors.New("fetch status (manual): 503"), "fetch status (manual): 503"},
		{"cancelled", context.Canceled, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			poller := &fakePoller{}
			m := newModel(make(chan events.Event), poller, nil, nil)
			m.fetching = true
			poller.set(status.Disbursing{}, refresh.None, 0, 2)

			m, _ = update(t, m, refreshDoneMsg{err: tt.err})

			assert.False(t, m.fetching)
			assert.Equal(t, tt.wantErr, m.lastErr)
			assert.Equal(t, 2, m.fetches)
		})
	}
}

func TestUpdate_FetchEvents(t *testing.T) {
	ch := make(chan events.Event)
	m := newModel(ch, nil, nil, nil)

	start := &events.FetchStartEvent{BaseEvent: events.NewPollerEvent(events.EventFetchStart, "s"), Trigger: "interval"}
	m, cmd := update(t, m, eventMsg(start))
	assert.True(t, m.fetching)
	require.NotNil(t, cmd)

	failed := &events.FetchErrorEvent{BaseEvent: events.NewPollerEvent(events.EventFetchError, "s"), Trigger: "interval", Error: "timeout"}
	m, _ = update(t, m, eventMsg(failed))
	assert.False(t, m.fetching)
	assert.Equal(t, "timeout", m.lastErr)

	end := &events.FetchEndEvent{BaseEvent: events.NewPollerEvent(events.EventFetchEnd, "s"), Trigger: "manual", DurationMs: 12}
	m, _ = update(t, m, eventMsg(end))
	assert.Empty(t, m.lastErr)
	assert.Equal(t, end.Timestamp(), m.lastFetch)

	require.Len(t, m.eventLines, 3)
	assert.Equal(t, "fetch: interval", m.eventLines[0].Text)
	assert.Contains(t, m.eventLines[1].Text, "fetch failed")
}

func TestUpdate_StageResolvedSyncs(t *testing.T) {
	poller := &fakePoller{}
	m := newModel(make(chan events.Event), poller, nil, nil)

	poller.set(status.RiskCountdown{}, refresh.Directive{Mode: refresh.ModeCountdown, CountdownSeconds: 45}, 45, 1)
	ev := &events.StageResolvedEvent{
		BaseEvent:        events.NewPollerEvent(events.EventStageResolved, "s"),
		Stage:            "RiskCountdown",
		Mode:             "countdown",
		CountdownSeconds: 45,
	}
	m, _ = update(t, m, eventMsg(ev))

	require.NotNil(t, m.current)
	assert.Equal(t, status.StageRiskCountdown, m.current.Stage())
	assert.Equal(t, 45, m.remaining)
}

func TestUpdate_PollerStop(t *testing.T) {
	m := newModel(make(chan events.Event), nil, nil, nil)
	m.fetching = true

	stop := &events.PollerStopEvent{BaseEvent: events.NewPollerEvent(events.EventPollerStop, "s"), Fetches: 4}
	m, _ = update(t, m, eventMsg(stop))

	assert.True(t, m.stopped)
	assert.False(t, m.fetching)
}

func TestUpdate_TickSyncsCountdown(t *testing.T) {
	poller := &fakePoller{}
	m := newModel(make(chan events.Event), poller, nil, nil)

	poller.set(status.RiskCountdown{}, refresh.Directive{Mode: refresh.ModeCountdown, CountdownSeconds: 60}, 17, 1)
	m, cmd := update(t, m, tickMsg(time.Now()))

	assert.Equal(t, 17, m.remaining)
	assert.NotNil(t, cmd, "tick should schedule the next tick")
}

func TestUpdate_ChannelClosedQuits(t *testing.T) {
	m := newModel(make(chan events.Event), nil, nil, nil)
	_, cmd := update(t, m, channelClosedMsg{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestUpdate_WindowSize(t *testing.T) {
	m := newModel(make(chan events.Event), nil, nil, nil)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Equal(t, 100, m.width)
	assert.Equal(t, 30, m.height)
}

func TestUpdate_SpinnerOnlyWhileFetching(t *testing.T) {
	m := newModel(make(chan events.Event), nil, nil, nil)

	_, cmd := update(t, m, spinner.TickMsg{})
	assert.Nil(t, cmd, "idle spinner should stop ticking")

	m.fetching = true
	_, cmd = update(t, m, m.spinner.Tick())
	assert.NotNil(t, cmd)
}

func TestWaitForEvent(t *testing.T) {
	ch := make(chan events.Event, 1)
	ev := &events.FetchStartEvent{BaseEvent: events.NewPollerEvent(events.EventFetchStart, "s"), Trigger: "initial"}
	ch <- ev

	msg := waitForEvent(ch)()
	got, ok := msg.(eventMsg)
	require.True(t, ok)
	assert.Equal(t, events.Event(ev), events.Event(got))

	close(ch)
	assert.IsType(t, channelClosedMsg{}, waitForEvent(ch)())
}

func TestHandleEvent_TrimsBuffer(t *testing.T) {
	m := newModel(make(chan events.Event), nil, nil, nil)
	for i := 0; i < maxEventLines+1; i++ {
		m.handleEvent(&events.FetchCoalescedEvent{
			BaseEvent: events.NewPollerEvent(events.EventFetchCoalesced, "s"),
			Trigger:   "manual",
		})
	}
	assert.Len(t, m.eventLines, maxEventLines+1-trimEventLines)
}
