// Package refresh decides, per resolved stage, whether and how often the
// status should be re-fetched without user action.
package refresh

import (
	"time"

	"github.com/npratt/loanpoll/internal/status"
)

// NoAutoRefresh is the server sentinel that disables interval polling.
const NoAutoRefresh = -1

// DefaultFallbackCountdownSeconds seeds a countdown when the server sends
// none, or zero.
const DefaultFallbackCountdownSeconds = 60

// Mode is the kind of automatic refresh.
type Mode int

const (
	ModeNone Mode = iota
	ModeFixedInterval
	ModeCountdown
)

func (m Mode) String() string {
	switch m {
	case ModeFixedInterval:
		return "fixed-interval"
	case ModeCountdown:
		return "countdown"
	default:
		return "none"
	}
}

// Directive tells the coordinator how to schedule the next fetch.
// IntervalSeconds is set only for ModeFixedInterval and CountdownSeconds only
// for ModeCountdown.
type Directive struct {
	Mode             Mode `json:"mode"`
	IntervalSeconds  int  `json:"interval_seconds,omitempty"`
	CountdownSeconds int  `json:"countdown_seconds,omitempty"`
}

// Interval returns IntervalSeconds as a duration.
func (d Directive) Interval() time.Duration {
	return time.Duration(d.IntervalSeconds) * time.Second
}

// None is the directive for stages refreshed only by the user.
var None = Directive{Mode: ModeNone}

// Policy maps stages to directives. The zero value uses the default fallback
// countdown.
type Policy struct {
	FallbackCountdownSeconds int
}

// DefaultPolicy returns a Policy with the standard 60 second fallback.
func DefaultPolicy() Policy {
	return Policy{FallbackCountdownSeconds: DefaultFallbackCountdownSeconds}
}

// DirectiveFor returns the refresh directive for r. It is pure.
func (p Policy) DirectiveFor(r status.Resolved) Directive {
	switch v := r.(type) {
	case status.AuditPending:
		return intervalDirective(v.RetryIntervalSeconds)
	case status.AuditRejected:
		if v.Variant == status.PendingReview {
			return intervalDirective(v.RetryIntervalSeconds)
		}
	case status.RiskCountdown:
		return Directive{Mode: ModeCountdown, CountdownSeconds: p.countdownSeconds(v.CountdownSeconds)}
	}
	return None
}

// intervalDirective polls at the server interval unless it is absent, the
// sentinel, or otherwise not positive.
func intervalDirective(seconds *int) Directive {
	if seconds == nil || *seconds == NoAutoRefresh || *seconds <= 0 {
		return None
	}
	return Directive{Mode: ModeFixedInterval, IntervalSeconds: *seconds}
}

func (p Policy) countdownSeconds(server *int) int {
	if server != nil && *server > 0 {
		return *server
	}
	if p.FallbackCountdownSeconds > 0 {
		return p.FallbackCountdownSeconds
	}
	return DefaultFallbackCountdownSeconds
}
