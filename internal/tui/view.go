package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/loanpoll/internal/status"
)

const (
	minWidth  = 50
	minHeight = 14
)

// View implements tea.Model. This renders the full TUI display.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if m.width < minWidth || m.height < minHeight {
		return m.renderTooSmall()
	}

	w := safeWidth(m.width - 4) // Account for container borders

	var sections []string
	sections = append(sections, m.renderHeader(w))
	sections = append(sections, m.renderDivider(w))
	sections = append(sections, m.statusBlock()...)
	sections = append(sections, m.renderDivider(w))
	sections = append(sections, m.renderEvents(w))
	sections = append(sections, m.renderDivider(w))
	sections = append(sections, m.renderFooter())

	rendered := styles.Container.
		Width(safeWidth(m.width - 2)).
		Render(strings.Join(sections, "\n"))

	return lipgloss.Place(m.width, m.height, lipgloss.Left, lipgloss.Top, rendered)
}

// renderHeader renders the title with the poller state on the right.
func (m model) renderHeader(w int) string {
	title := styles.Title.Render("loanpoll")
	state := m.renderState()

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		title,
		strings.Repeat(" ", max(1, w-lipgloss.Width(title)-lipgloss.Width(state))),
		state,
	)
}

// renderState renders the fetch indicator and fetch count.
func (m model) renderState() string {
	count := styles.Muted.Render(fmt.Sprintf("  fetches: %d", m.fetches))
	switch {
	case m.stopped:
		return styles.StatusStopped.Render("STOPPED") + count
	case m.fetching:
		return m.spinner.View() + styles.StatusFetching.Render(" FETCHING") + count
	default:
		return styles.StatusIdle.Render("IDLE") + count
	}
}

// statusBlock renders the stage headline, details, schedule and last error.
func (m model) statusBlock() []string {
	stage := status.StageOf(m.current)
	var lines []string
	if m.current != nil {
		lines = append(lines, StyleForStage(stage).Render(stage.String())+"  "+stageHeadline(m.current))
	} else {
		lines = append(lines, styles.Muted.Render(stageHeadline(nil)))
	}
	for _, d := range stageDetails(m.current) {
		lines = append(lines, styles.Muted.Render(d))
	}

	schedule := scheduleText(m.directive, m.remaining, m.stopped)
	if !m.lastFetch.IsZero() {
		schedule += "  (last ok " + m.lastFetch.Format("15:04:05") + ")"
	}
	lines = append(lines, styles.Fetch.Render(schedule))

	if m.lastErr != "" {
		lines = append(lines, styles.Error.Render("error: "+m.lastErr))
	}
	return lines
}

// renderDivider renders a horizontal divider line.
func (m model) renderDivider(w int) string {
	return styles.Divider.Render(strings.Repeat("─", w))
}

// renderEvents renders the most recent events that fit the viewport.
func (m model) renderEvents(w int) string {
	visible := m.visibleLines()

	if len(m.eventLines) == 0 {
		placeholder := "Waiting for events..."
		padding := strings.Repeat("\n", visible/2)
		return padding + lipgloss.PlaceHorizontal(w, lipgloss.Center, placeholder)
	}

	start := max(0, len(m.eventLines)-visible)
	var lines []string
	for _, el := range m.eventLines[start:] {
		lines = append(lines, m.renderEventLine(el, w))
	}
	for len(lines) < visible {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// renderEventLine renders a single event with timestamp and styling.
func (m model) renderEventLine(el eventLine, maxWidth int) string {
	prefix := el.Time.Format("15:04:05") + " "

	textWidth := maxWidth - len(prefix)
	if textWidth < 10 {
		textWidth = 10
	}

	text := el.Text
	if len(text) > textWidth {
		text = text[:textWidth-3] + "..."
	}

	return styles.Muted.Render(prefix) + el.Style.Render(text)
}

// renderFooter renders keyboard shortcuts help text.
func (m model) renderFooter() string {
	if m.stopped {
		return styles.Footer.Render("q: quit")
	}
	return styles.Footer.Render("r: refresh now  q: quit")
}

// renderTooSmall renders a minimal message for terminals that are too small.
func (m model) renderTooSmall() string {
	return fmt.Sprintf("Terminal too small (%dx%d). Need %dx%d minimum.",
		m.width, m.height, minWidth, minHeight)
}

// safeWidth returns a width that is at least 1 to prevent negative values.
func safeWidth(w int) int {
	if w < 1 {
		return 1
	}
	return w
}
