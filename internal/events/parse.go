package events

import (
	"encoding/json"
	"log/slog"
)

// eventEnvelope is used for initial JSON parsing to determine event type.
type eventEnvelope struct {
	Type EventType `json:"type"`
}

// ParseEvent parses a JSON line from the event log into a typed Event.
// Returns nil with no error for unknown event types.
func ParseEvent(line []byte) (Event, error) {
	var envelope eventEnvelope
	if err := json.Unmarshal(line, &envelope); err != nil {
		return nil, err
	}

	var ev Event
	switch envelope.Type {
	case EventPollerStart:
		ev = &PollerStartEvent{}
	case EventPollerStop:
		ev = &PollerStopEvent{}
	case EventFetchStart:
		ev = &FetchStartEvent{}
	case EventFetchEnd:
		ev = &FetchEndEvent{}
	case EventFetchError:
		ev = &FetchErrorEvent{}
	case EventFetchCoalesced:
		ev = &FetchCoalescedEvent{}
	case EventStageResolved:
		ev = &StageResolvedEvent{}
	case EventStageChanged:
		ev = &StageChangedEvent{}
	default:
		slog.Debug("unknown event type", "type", envelope.Type)
		return nil, nil
	}

	if err := json.Unmarshal(line, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// SessionOf returns the watch session id stamped on an event, if any.
func SessionOf(ev Event) string {
	switch e := ev.(type) {
	case *PollerStartEvent:
		return e.Session
	case *PollerStopEvent:
		return e.Session
	case *FetchStartEvent:
		return e.Session
	case *FetchEndEvent:
		return e.Session
	case *FetchErrorEvent:
		return e.Session
	case *FetchCoalescedEvent:
		return e.Session
	case *StageResolvedEvent:
		return e.Session
	case *StageChangedEvent:
		return e.Session
	default:
		return ""
	}
}
