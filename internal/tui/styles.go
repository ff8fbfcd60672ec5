package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/loanpoll/internal/events"
	"github.com/npratt/loanpoll/internal/status"
)

// styles contains all lipgloss styles used by the TUI.
var styles = struct {
	// Layout styles
	Container lipgloss.Style
	Divider   lipgloss.Style

	// Header and footer
	Title   lipgloss.Style
	Footer  lipgloss.Style
	Muted   lipgloss.Style
	Spinner lipgloss.Style

	// Stage families
	StageProgress lipgloss.Style
	StageRejected lipgloss.Style
	StageActive   lipgloss.Style
	StageUnknown  lipgloss.Style

	// Event styles
	Fetch   lipgloss.Style
	Resolve lipgloss.Style
	Poller  lipgloss.Style
	Error   lipgloss.Style

	// Poller status
	StatusIdle     lipgloss.Style
	StatusFetching lipgloss.Style
	StatusStopped  lipgloss.Style
}{
	Container: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")),

	Divider: lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("212")),

	Footer: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	Muted: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	Spinner: lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")),

	StageProgress: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")),

	StageRejected: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("196")),

	StageActive: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("82")),

	StageUnknown: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("245")),

	Fetch: lipgloss.NewStyle().
		Foreground(lipgloss.Color("250")),

	Resolve: lipgloss.NewStyle().
		Foreground(lipgloss.Color("114")),

	Poller: lipgloss.NewStyle().
		Foreground(lipgloss.Color("177")),

	Error: lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")),

	StatusIdle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")),

	StatusFetching: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("82")),

	StatusStopped: lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")),
}

// StyleForStage returns the headline style for a stage family.
func StyleForStage(s status.Stage) lipgloss.Style {
	switch s {
	case status.StageAuditRejected, status.StageIDOrFaceRejected, status.StageDisbursementFailed:
		return styles.StageRejected
	case status.StagePayment, status.StageProductList:
		return styles.StageActive
	case status.StageUnknown:
		return styles.StageUnknown
	default:
		return styles.StageProgress
	}
}

// StyleForEvent returns the appropriate style for an event type.
func StyleForEvent(event events.Event) lipgloss.Style {
	switch event.(type) {
	case *events.FetchErrorEvent:
		return styles.Error
	case *events.StageResolvedEvent, *events.StageChangedEvent:
		return styles.Resolve
	case *events.PollerStartEvent, *events.PollerStopEvent:
		return styles.Poller
	default:
		return styles.Fetch
	}
}
