package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tvhomerun/internal/logtail"
)

const logTailLines = 500

type logLinesMsg struct {
	lines []logtail.Entry
	err   error
}

func readLogsCmd(path string) tea.Cmd {
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		entries, err := logtail.ReadEntries(path, logTailLines)
		return logLinesMsg{lines: entries, err: err}
	}
}

// updateLogViewport resizes the viewport and refreshes its content. The
// viewport follows the tail unless the user scrolled up.
func (m *Model) updateLogViewport() {
	width, height := max(m.width-4, 0), max(m.height-4, 0)
	if m.logViewport.Width == 0 && m.logViewport.Height == 0 {
		m.logViewport = viewport.New(width, height)
	}
	following := m.logViewport.AtBottom() || m.logViewport.TotalLineCount() == 0
	m.logViewport.Width = width
	m.logViewport.Height = height
	m.logViewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))
	m.logViewport.SetContent(m.renderLogContent(width))
	if following {
		m.logViewport.GotoBottom()
	}
}

func (m Model) renderLogContent(width int) string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	bg := NewBgStyle(m.theme.FocusBg)

	if len(m.logLines) == 0 {
		return styles.MutedText.Render("No log entries yet")
	}

	lines := make([]string, 0, len(m.logLines))
	for _, entry := range m.logLines {
		lines = append(lines, m.colorizeEntry(entry, width, styles, bg))
	}
	return strings.Join(lines, "\n")
}

// colorizeEntry renders "15:04:05 INF message key=value" with the level
// colored. Lines that are not JSON are shown as-is.
func (m Model) colorizeEntry(entry logtail.Entry, width int, styles Styles, bg BgStyle) string {
	if !entry.Structured() {
		return bg.Render(truncate(entry.Raw, width), styles.Text)
	}

	var b strings.Builder
	if !entry.Time.IsZero() {
		b.WriteString(bg.Render(entry.Time.Local().Format("15:04:05"), styles.FaintText))
		b.WriteString(bg.Space())
	}
	b.WriteString(bg.Render(logtail.LevelTag(entry.Level), m.levelStyle(entry.Level, styles)))
	if entry.Message != "" {
		b.WriteString(bg.Space())
		b.WriteString(bg.Render(entry.Message, styles.Text))
	}
	for _, k := range entry.FieldKeys() {
		b.WriteString(bg.Space())
		b.WriteString(bg.Render(k+"=", styles.MutedText))
		b.WriteString(bg.Render(entry.Fields[k], styles.InfoText))
	}
	if entry.Error != "" {
		b.WriteString(bg.Space())
		b.WriteString(bg.Render("error="+entry.Error, styles.DangerText))
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(b.String())
}

func (m Model) levelStyle(level string, styles Styles) lipgloss.Style {
	switch strings.ToLower(level) {
	case "info":
		return styles.SuccessText
	case "warn", "warning":
		return styles.WarningText
	case "error", "fatal", "panic":
		return styles.DangerText
	case "debug", "trace":
		return styles.InfoText
	default:
		return styles.Text
	}
}

// renderLogs renders the log view.
func (m Model) renderLogs() string {
	title := "Log"
	if m.logPath != "" {
		title = fmt.Sprintf("Log · %s", truncateMiddle(m.logPath, max(m.width/2, 10)))
	}
	return m.renderTitledBox(title, m.logViewport.View(), m.width, m.height-2, true)
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		m.logViewport.ScrollDown(1)
	case key.Matches(msg, m.keys.Up):
		m.logViewport.ScrollUp(1)
	case key.Matches(msg, m.keys.Top):
		m.logViewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.logViewport.GotoBottom()
	}
	return m, nil
}
