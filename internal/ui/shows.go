package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tvhomerun/internal/tvhomerun"
)

type searchMsg struct {
	query string
	shows []tvhomerun.Show
	err   error
}

// visibleShows returns search results while a query is applied, otherwise
// the polled catalog.
func (m Model) visibleShows() []tvhomerun.Show {
	if m.searchQuery != "" {
		return m.searchResults
	}
	return m.snapshot.Shows
}

func (m Model) selectedShow() *tvhomerun.Show {
	shows := m.visibleShows()
	if m.showRow < 0 || m.showRow >= len(shows) {
		return nil
	}
	show := shows[m.showRow]
	return &show
}

func (m Model) handleShowsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Tab):
		if m.focusedPane == paneShows && m.episodesShowID != 0 {
			m.focusedPane = paneEpisodes
		} else {
			m.focusedPane = paneShows
		}
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.searchInput.SetValue(m.searchQuery)
		m.searchInput.CursorEnd()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.CycleWatched):
		m.watchedFilter = m.watchedFilter.next()
		return m, m.reloadEpisodes()

	case key.Matches(msg, m.keys.ToggleSort):
		if m.sortOrder == tvhomerun.SortAsc {
			m.sortOrder = tvhomerun.SortDesc
		} else {
			m.sortOrder = tvhomerun.SortAsc
		}
		m.prefs.EpisodeSort = m.sortOrder
		m.savePrefs()
		return m, m.reloadEpisodes()
	}

	if m.focusedPane == paneEpisodes {
		return m.handleEpisodesKey(msg)
	}

	if key.Matches(msg, m.keys.Open) {
		show := m.selectedShow()
		if show == nil {
			return m, nil
		}
		m.focusedPane = paneEpisodes
		return m, m.loadEpisodes(show.ID)
	}

	m.showRow = m.moveSelection(msg, m.showRow, len(m.visibleShows()))
	return m, nil
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searching = false
		m.searchInput.Blur()
		return m, nil
	case tea.KeyEnter:
		m.searching = false
		m.searchInput.Blur()
		query := strings.TrimSpace(m.searchInput.Value())
		if query == "" {
			m.clearSearch()
			return m, nil
		}
		m.setNotice(fmt.Sprintf("searching for %q...", query))
		return m, searchCmd(m.ctx, m.client, query)
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m *Model) handleSearchResult(msg searchMsg) {
	if msg.err != nil {
		m.setError("search failed: " + msg.err.Error())
		return
	}
	m.searchQuery = msg.query
	m.searchResults = msg.shows
	m.showRow = 0
	m.focusedPane = paneShows
	m.setNotice(fmt.Sprintf("%d shows match %q", len(msg.shows), msg.query))
}

func (m *Model) clearSearch() {
	m.searchQuery = ""
	m.searchResults = nil
	m.searchInput.SetValue("")
	m.showRow = 0
	m.notice = ""
}

func searchCmd(ctx context.Context, client tvhomerun.CatalogFetcher, query string) tea.Cmd {
	return func() tea.Msg {
		shows, err := client.GetShows(ctx, tvhomerun.ShowQuery{Search: query})
		return searchMsg{query: query, shows: shows, err: err}
	}
}

// renderShows renders the shows list beside the selected show's detail.
func (m Model) renderShows() string {
	styles := m.theme.Styles()
	contentHeight := m.height - 2

	if m.searching {
		contentHeight--
	}

	shows := m.visibleShows()
	var body string
	if len(shows) == 0 {
		msg := "No shows recorded yet"
		switch {
		case m.searchQuery != "":
			msg = fmt.Sprintf("No shows match %q", m.searchQuery)
		case m.snapshot.LastUpdated.IsZero():
			msg = "Loading catalog..."
		}
		body = lipgloss.Place(m.width, contentHeight, lipgloss.Center, lipgloss.Center, styles.MutedText.Render(msg))
	} else {
		listWidth := m.width * 40 / 100
		if m.width >= 160 {
			listWidth = m.width * 30 / 100
		}
		detailWidth := m.width - listWidth

		listFocused := m.focusedPane == paneShows
		list := m.renderShowList(shows, listWidth-2, m.paneBg(listFocused))
		listPane := m.renderTitledBox(m.showsTitle(), list, listWidth, contentHeight, listFocused)

		detailFocused := m.focusedPane == paneEpisodes
		detail := m.renderShowDetail(detailWidth-4, contentHeight-2, m.paneBg(detailFocused))
		detailPane := m.renderTitledBox(m.episodesTitle(), detail, detailWidth, contentHeight, detailFocused)

		body = lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
	}

	if m.searching {
		return m.searchInput.View() + "\n" + body
	}
	return body
}

func (m Model) showsTitle() string {
	if m.searchQuery != "" {
		return fmt.Sprintf("Shows (%d) matching %q", len(m.searchResults), truncate(m.searchQuery, 20))
	}
	return fmt.Sprintf("Shows (%d)", len(m.snapshot.Shows))
}

func (m Model) renderShowList(shows []tvhomerun.Show, width int, bgColor string) string {
	lines := make([]string, 0, len(shows))
	for i, show := range shows {
		selected := i == m.showRow
		rowBg := bgColor
		if selected {
			rowBg = m.theme.SelectionBg
		}
		lines = append(lines, m.formatShowRow(show, width, rowBg, selected))
	}
	return strings.Join(lines, "\n")
}

// formatShowRow renders "Title · 12 eps".
func (m Model) formatShowRow(show tvhomerun.Show, width int, bgColor string, selected bool) string {
	bg := NewBgStyle(bgColor)
	count := fmt.Sprintf("%d eps", show.EpisodeCount)
	titleWidth := max(width-len(count)-3, 8)

	styles := m.theme.Styles()
	titleStyle, metaStyle := styles.Text, styles.MutedText
	if selected {
		sel := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
		titleStyle, metaStyle = sel, sel
	}

	title := show.Title
	if strings.TrimSpace(title) == "" {
		title = fmt.Sprintf("Show #%d", show.ID)
	}
	content := bg.Render(truncate(title, titleWidth), titleStyle) +
		bg.Render(" · ", metaStyle) +
		bg.Render(count, metaStyle)
	return bg.FillLine(content, width)
}

func (m Model) paneBg(focused bool) string {
	if focused {
		return m.theme.FocusBg
	}
	return m.theme.SurfaceAlt
}
