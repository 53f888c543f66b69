package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tvhomerun/internal/tvhomerun"
)

// renderHeader renders the status bar with all information.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	if m.snapshot.LastUpdated.IsZero() {
		return styles.Header.Width(m.width).Render(
			bg.Render("tvhomerun", styles.Logo) + bg.Spaces(2) +
				bg.Render("Connecting to "+m.serverLabel()+"...", styles.WarningText.Bold(true)),
		)
	}
	if m.snapshot.LastError != nil {
		return m.renderErrorHeader(styles, bg)
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(m.buildStatusContent(styles, bg))
}

// renderErrorHeader shows the last poll error. The catalog stays visible
// underneath with whatever was last fetched.
func (m Model) renderErrorHeader(styles Styles, bg BgStyle) string {
	label := classifyConnectionError(m.snapshot.LastError)
	state := bg.Render("BACKEND "+label, styles.WarningText.Bold(true))
	if m.snapshot.IsOffline() {
		state = bg.Render("BACKEND "+label, styles.DangerText.Bold(true))
	}
	parts := []string{
		bg.Render("tvhomerun", styles.Logo),
		state,
		bg.Render("Retrying...", styles.WarningText.Bold(true)),
	}
	if ts := m.formatTimestamp(); ts != "" {
		parts = append(parts, bg.Render(ts, styles.MutedText))
	}
	if m.logPath != "" {
		parts = append(parts,
			bg.Render("logs", styles.FaintText)+bg.Space()+
				bg.Render(truncateMiddle(m.logPath, 50), styles.MutedText))
	}
	return styles.Header.Width(m.width).Render(bg.Join(parts, "  "))
}

func (m Model) buildStatusContent(styles Styles, bg BgStyle) string {
	compact := m.width < 100

	parts := []string{bg.Render("tvhomerun", styles.Logo)}

	switch {
	case !m.snapshot.HasHealth:
		parts = append(parts, bg.Render("ONLINE", styles.SuccessText))
	case m.snapshot.Health.OK():
		status := "ONLINE"
		if v := m.snapshot.Health.Version; v != "" && !compact {
			status += " v" + strings.TrimPrefix(v, "v")
		}
		parts = append(parts, bg.Render(status, styles.SuccessText))
	default:
		parts = append(parts, bg.Render("DEGRADED "+strings.ToUpper(m.snapshot.Health.Status), styles.WarningText.Bold(true)))
	}

	parts = append(parts,
		bg.Render(fmt.Sprintf("%d", len(m.snapshot.Shows)), styles.Text.Bold(true))+bg.Space()+
			bg.Render("shows", styles.MutedText))
	if !compact {
		parts = append(parts,
			bg.Render(fmt.Sprintf("%d", len(m.snapshot.Recent)), styles.Text.Bold(true))+bg.Space()+
				bg.Render("recent", styles.MutedText))
		parts = append(parts, bg.Render(truncateMiddle(m.serverLabel(), 40), styles.FaintText))
	}

	if m.notice != "" {
		noticeStyle := styles.InfoText
		if m.noticeErr {
			noticeStyle = styles.DangerText
		}
		limit := 60
		if compact {
			limit = 30
		}
		parts = append(parts, bg.Render(truncate(m.notice, limit), noticeStyle))
	}

	if ts := m.formatTimestamp(); ts != "" {
		parts = append(parts, bg.Render(ts, styles.MutedText))
	}

	return bg.Join(parts, "  ")
}

func (m Model) serverLabel() string {
	if m.serverURL != "" {
		return m.serverURL
	}
	return "backend"
}

func (m Model) formatTimestamp() string {
	if m.lastUpdated.IsZero() {
		return ""
	}

	since := m.now().Sub(m.lastUpdated)
	ts := m.lastUpdated.Format("15:04:05")

	switch {
	case since < time.Minute:
		ts += " (now)"
	case since < time.Hour:
		ts += fmt.Sprintf(" (%dm ago)", int(since.Minutes()))
	case since < 24*time.Hour:
		ts += fmt.Sprintf(" (%dh ago)", int(since.Hours()))
	}
	return ts
}

// classifyConnectionError returns a short description of the connection error.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}

	var transportErr *tvhomerun.TransportError
	var parseErr *tvhomerun.ParseError
	switch {
	case errors.Is(err, tvhomerun.ErrNotConfigured):
		return "NOT CONFIGURED"
	case errors.Is(err, tvhomerun.ErrInitialization):
		return "CONFIG UNAVAILABLE"
	case tvhomerun.StatusCode(err) != 0:
		return fmt.Sprintf("HTTP %d", tvhomerun.StatusCode(err))
	case errors.As(err, &parseErr):
		return "BAD RESPONSE"
	case errors.As(err, &transportErr) && transportErr.Timeout():
		return "TIMEOUT"
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"):
		return "TIMEOUT"
	default:
		return "ERROR"
	}
}

// renderCommandBar renders the key hints for the active view.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewLogs:
		commands = []cmd{
			{"j/k", "Scroll"},
			{"g/G", "Top/Bottom"},
			{"s", "Shows"},
			{"r", "Recent"},
			{"?", "More"},
		}
	case ViewRecent:
		commands = []cmd{
			{"j/k", "Navigate"},
			{"enter", "Open show"},
			{"w", "Watched"},
			{"s", "Shows"},
			{"l", "Logs"},
			{"?", "More"},
		}
	default:
		commands = []cmd{
			{"/", "Search"},
			{"enter", "Episodes"},
			{"f", m.watchedFilter.label()},
			{"o", sortLabel(m.sortOrder)},
			{"w", "Watched"},
			{"Tab", "Focus"},
			{"r", "Recent"},
			{"l", "Logs"},
			{"D", "Discover"},
			{"?", "More"},
		}
	}

	colon := bg.Render(":", styles.FaintText)
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(bg.Join(segments, "  "))
}

func sortLabel(order string) string {
	if order == tvhomerun.SortAsc {
		return "Oldest"
	}
	return "Newest"
}

// truncate truncates a string to max length with ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// truncateMiddle truncates a string in the middle, keeping more of the end.
func truncateMiddle(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 5 {
		return string(runes[:max])
	}
	endLen := (max - 3) * 2 / 3
	startLen := max - 3 - endLen
	return string(runes[:startLen]) + "..." + string(runes[len(runes)-endLen:])
}
