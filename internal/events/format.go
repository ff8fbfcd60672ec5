package events

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

const (
	maxErrorLength    = 120
	truncateIndicator = "..."
)

// Format converts an event to a human-readable string for display.
// Returns empty string for nil or unknown event types.
func Format(event Event) string {
	if event == nil {
		return ""
	}

	switch e := event.(type) {
	case *PollerStartEvent:
		if e.SourceKind != "" {
			return fmt.Sprintf("poller started (%s source)", SafeString(e.SourceKind))
		}
		return "poller started"
	case *PollerStopEvent:
		return fmt.Sprintf("poller stopped after %d fetches", e.Fetches)
	case *FetchStartEvent:
		return fmt.Sprintf("fetch: %s", SafeString(e.Trigger))
	case *FetchEndEvent:
		return fmt.Sprintf("fetch ok: %s (%dms)", SafeString(e.Trigger), e.DurationMs)
	case *FetchErrorEvent:
		return formatFetchError(e)
	case *FetchCoalescedEvent:
		return fmt.Sprintf("fetch coalesced: %s", SafeString(e.Trigger))
	case *StageResolvedEvent:
		return formatStageResolved(e)
	case *StageChangedEvent:
		return fmt.Sprintf("stage: %s -> %s", SafeString(e.From), SafeString(e.To))
	default:
		return ""
	}
}

// FormatWithTimestamp formats an event with a timestamp prefix.
func FormatWithTimestamp(event Event) string {
	if event == nil {
		return ""
	}
	ts := event.Timestamp().Format("15:04:05")
	detail := Format(event)
	if detail == "" {
		return fmt.Sprintf("[%s] %s", ts, event.Type())
	}
	return fmt.Sprintf("[%s] %s", ts, detail)
}

func formatFetchError(e *FetchErrorEvent) string {
	msg := Truncate(e.Error, maxErrorLength)
	if msg == "" {
		return fmt.Sprintf("[x] fetch failed: %s", SafeString(e.Trigger))
	}
	return fmt.Sprintf("[x] fetch failed: %s: %s", SafeString(e.Trigger), msg)
}

func formatStageResolved(e *StageResolvedEvent) string {
	stage := SafeString(e.Stage)
	if e.Variant != "" {
		stage = fmt.Sprintf("%s(%s)", stage, SafeString(e.Variant))
	}
	switch e.Mode {
	case "fixed-interval":
		return fmt.Sprintf("resolved %s, next fetch in %ds", stage, e.IntervalSeconds)
	case "countdown":
		return fmt.Sprintf("resolved %s, countdown %ds", stage, e.CountdownSeconds)
	default:
		return fmt.Sprintf("resolved %s", stage)
	}
}

// Truncate shortens text to maxLen, adding indicator if truncated.
func Truncate(s string, maxLen int) string {
	s = SafeString(s)
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= len(truncateIndicator) {
		return truncateIndicator
	}
	return s[:maxLen-len(truncateIndicator)] + truncateIndicator
}

// ansiRegex matches ANSI escape sequences.
var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// StripANSI removes ANSI escape sequences from a string.
func StripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}

// SafeString sanitizes server-provided text for a single display line.
func SafeString(s string) string {
	s = StripANSI(s)
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")

	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if r == ' ' || !unicode.IsControl(r) {
			sb.WriteRune(r)
		}
	}

	result := sb.String()
	for strings.Contains(result, "  ") {
		result = strings.ReplaceAll(result, "  ", " ")
	}

	return strings.TrimSpace(result)
}
