// Package events defines the poller event taxonomy and the channel-based
// router that fans events out to sinks and the status screen.
package events

import "time"

// EventType identifies the category and nature of an event.
type EventType string

const (
	// Poller lifecycle
	EventPollerStart EventType = "poller.start"
	EventPollerStop  EventType = "poller.stop"

	// Fetch events
	EventFetchStart     EventType = "fetch.start"
	EventFetchEnd       EventType = "fetch.end"
	EventFetchError     EventType = "fetch.error"
	EventFetchCoalesced EventType = "fetch.coalesced"

	// Resolution events
	EventStageResolved EventType = "stage.resolved"
	EventStageChanged  EventType = "stage.changed"
)

// Source constants identify the origin of events.
const (
	SourcePoller = "poller"
	SourceCLI    = "loanpoll"
)

// Event is the base interface for all events in the system.
type Event interface {
	Type() EventType
	Timestamp() time.Time
	Source() string
}

// BaseEvent provides the common fields for all events.
type BaseEvent struct {
	EventType EventType `json:"type"`
	Time      time.Time `json:"timestamp"`
	Src       string    `json:"source"`
	Session   string    `json:"session,omitempty"`
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.Time
}

// Source returns the origin of the event.
func (e BaseEvent) Source() string {
	return e.Src
}

// PollerStartEvent is emitted when a coordinator starts.
type PollerStartEvent struct {
	BaseEvent
	SourceKind string `json:"source_kind,omitempty"`
}

// PollerStopEvent is emitted once when a coordinator stops.
type PollerStopEvent struct {
	BaseEvent
	Fetches int `json:"fetches"`
}

// FetchStartEvent is emitted before the fetch collaborator is called.
type FetchStartEvent struct {
	BaseEvent
	Trigger string `json:"trigger"`
}

// FetchEndEvent is emitted after a successful fetch.
type FetchEndEvent struct {
	BaseEvent
	Trigger    string `json:"trigger"`
	DurationMs int64  `json:"duration_ms"`
}

// FetchErrorEvent is emitted when the fetch collaborator fails.
type FetchErrorEvent struct {
	BaseEvent
	Trigger    string `json:"trigger"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error"`
}

// FetchCoalescedEvent is emitted when a refresh is dropped because another
// fetch is in flight.
type FetchCoalescedEvent struct {
	BaseEvent
	Trigger string `json:"trigger"`
}

// StageResolvedEvent is emitted for every resolution with the directive
// chosen for it.
type StageResolvedEvent struct {
	BaseEvent
	Stage            string `json:"stage"`
	Variant          string `json:"variant,omitempty"`
	Mode             string `json:"mode"`
	IntervalSeconds  int    `json:"interval_seconds,omitempty"`
	CountdownSeconds int    `json:"countdown_seconds,omitempty"`
}

// StageChangedEvent is emitted when a resolution differs in stage from the
// previous one.
type StageChangedEvent struct {
	BaseEvent
	From string `json:"from"`
	To   string `json:"to"`
}

// NewEvent creates a BaseEvent with the given type and source.
func NewEvent(eventType EventType, source string) BaseEvent {
	return BaseEvent{
		EventType: eventType,
		Time:      time.Now(),
		Src:       source,
	}
}

// NewPollerEvent creates a BaseEvent from the poller for the given session.
func NewPollerEvent(eventType EventType, session string) BaseEvent {
	e := NewEvent(eventType, SourcePoller)
	e.Session = session
	return e
}
