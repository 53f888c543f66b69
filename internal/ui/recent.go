package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tvhomerun/internal/tvhomerun"
)

func (m Model) selectedRecent() *tvhomerun.Episode {
	if m.recentRow < 0 || m.recentRow >= len(m.snapshot.Recent) {
		return nil
	}
	ep := m.snapshot.Recent[m.recentRow]
	return &ep
}

func (m Model) handleRecentKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleWatched):
		ep := m.selectedRecent()
		if ep == nil || m.client == nil {
			return m, nil
		}
		return m, toggleWatchedCmd(m.ctx, m.client, *ep)

	case key.Matches(msg, m.keys.Open):
		ep := m.selectedRecent()
		if ep == nil {
			return m, nil
		}
		return m.openShow(ep.ShowID)
	}

	m.recentRow = m.moveSelection(msg, m.recentRow, len(m.snapshot.Recent))
	return m, nil
}

// openShow switches to the shows view with showID selected and its episodes
// loading. An active search is cleared when it hides the show.
func (m Model) openShow(showID int64) (tea.Model, tea.Cmd) {
	idx := indexOfShow(m.visibleShows(), showID)
	if idx < 0 && m.searchQuery != "" {
		m.clearSearch()
		idx = indexOfShow(m.visibleShows(), showID)
	}
	if idx < 0 {
		m.setError(fmt.Sprintf("show #%d is not in the catalog", showID))
		return m, nil
	}
	m.showRow = idx
	m.currentView = ViewShows
	m.focusedPane = paneEpisodes
	return m, m.loadEpisodes(showID)
}

func indexOfShow(shows []tvhomerun.Show, showID int64) int {
	for i, show := range shows {
		if show.ID == showID {
			return i
		}
	}
	return -1
}

// renderRecent renders the most recently aired episodes across all shows.
func (m Model) renderRecent() string {
	styles := m.theme.Styles()
	contentHeight := m.height - 2
	title := fmt.Sprintf("Recent Episodes (%d)", len(m.snapshot.Recent))

	if len(m.snapshot.Recent) == 0 {
		msg := "No recent episodes"
		if m.snapshot.LastUpdated.IsZero() {
			msg = "Loading catalog..."
		}
		body := lipgloss.Place(m.width-2, contentHeight-2, lipgloss.Center, lipgloss.Center,
			styles.MutedText.Background(lipgloss.Color(m.theme.FocusBg)).Render(msg))
		return m.renderTitledBox(title, body, m.width, contentHeight, true)
	}

	width := m.width - 4
	bgColor := m.theme.FocusBg
	// Keep room for the selected episode's detail.
	const detailLines = 4
	listHeight := max(contentHeight-2-detailLines-1, 3)
	start := 0
	if m.recentRow >= listHeight {
		start = m.recentRow - listHeight + 1
	}
	end := min(start+listHeight, len(m.snapshot.Recent))

	lines := make([]string, 0, end-start+detailLines+1)
	for i := start; i < end; i++ {
		selected := i == m.recentRow
		rowBg := bgColor
		if selected {
			rowBg = m.theme.SelectionBg
		}
		lines = append(lines, m.formatEpisodeRow(m.snapshot.Recent[i], width, rowBg, selected, true))
	}
	if ep := m.selectedRecent(); ep != nil {
		lines = append(lines, "")
		lines = append(lines, m.episodeDetailLines(*ep, width, styles.WithBackground(bgColor), NewBgStyle(bgColor))...)
	}

	return m.renderTitledBox(title, strings.Join(lines, "\n"), m.width, contentHeight, true)
}
