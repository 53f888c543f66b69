package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tvhomerun/internal/format"
	"github.com/five82/tvhomerun/internal/tvhomerun"
)

// WatchedFilter narrows the episode list by watched state.
type WatchedFilter int

const (
	WatchedAll WatchedFilter = iota
	WatchedUnwatched
	WatchedOnly
)

func (f WatchedFilter) next() WatchedFilter {
	switch f {
	case WatchedAll:
		return WatchedUnwatched
	case WatchedUnwatched:
		return WatchedOnly
	default:
		return WatchedAll
	}
}

// query returns the watched parameter for the episodes endpoint; nil means
// no filter.
func (f WatchedFilter) query() *bool {
	switch f {
	case WatchedUnwatched:
		v := false
		return &v
	case WatchedOnly:
		v := true
		return &v
	default:
		return nil
	}
}

func (f WatchedFilter) label() string {
	switch f {
	case WatchedUnwatched:
		return "Unwatched"
	case WatchedOnly:
		return "Watched"
	default:
		return "All"
	}
}

type episodesMsg struct {
	seq      int
	showID   int64
	episodes []tvhomerun.Episode
	err      error
}

type progressMsg struct {
	episodeID int64
	watched   bool
	err       error
}

type discoveryMsg struct {
	err error
}

// loadEpisodes fetches the episodes of showID with the current filter and
// sort. Responses from superseded requests are dropped.
func (m *Model) loadEpisodes(showID int64) tea.Cmd {
	if m.client == nil {
		return nil
	}
	if showID != m.episodesShowID {
		m.episodes = nil
		m.episodeRow = 0
	}
	m.episodesSeq++
	m.episodesShowID = showID
	m.episodesLoading = true

	ctx, client, seq := m.ctx, m.client, m.episodesSeq
	query := tvhomerun.EpisodeQuery{Watched: m.watchedFilter.query(), Sort: m.sortOrder}
	return func() tea.Msg {
		episodes, err := client.GetEpisodes(ctx, showID, query)
		return episodesMsg{seq: seq, showID: showID, episodes: episodes, err: err}
	}
}

func (m *Model) reloadEpisodes() tea.Cmd {
	if m.episodesShowID == 0 {
		return nil
	}
	return m.loadEpisodes(m.episodesShowID)
}

func (m *Model) handleEpisodes(msg episodesMsg) {
	if msg.seq != m.episodesSeq {
		return
	}
	m.episodesLoading = false
	if msg.err != nil {
		m.setError("load episodes: " + msg.err.Error())
		return
	}
	m.episodes = msg.episodes
	m.episodeRow = clampRow(m.episodeRow, len(m.episodes))
}

func (m Model) selectedEpisode() *tvhomerun.Episode {
	if m.episodeRow < 0 || m.episodeRow >= len(m.episodes) {
		return nil
	}
	ep := m.episodes[m.episodeRow]
	return &ep
}

func (m Model) handleEpisodesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ToggleWatched) {
		ep := m.selectedEpisode()
		if ep == nil || m.client == nil {
			return m, nil
		}
		return m, toggleWatchedCmd(m.ctx, m.client, *ep)
	}
	m.episodeRow = m.moveSelection(msg, m.episodeRow, len(m.episodes))
	return m, nil
}

// toggleWatchedCmd flips the watched flag. Marking unwatched also resets the
// resume position.
func toggleWatchedCmd(ctx context.Context, client tvhomerun.CatalogFetcher, ep tvhomerun.Episode) tea.Cmd {
	watched := !ep.IsWatched()
	position := ep.ResumePosition
	if !watched {
		position = 0
	}
	return func() tea.Msg {
		err := client.UpdateProgress(ctx, ep.ID, position, watched)
		return progressMsg{episodeID: ep.ID, watched: watched, err: err}
	}
}

func (m Model) handleProgress(msg progressMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setError("update progress: " + msg.err.Error())
		return m, nil
	}
	applyWatched(m.episodes, msg)
	m.snapshot.Recent = append([]tvhomerun.Episode(nil), m.snapshot.Recent...)
	applyWatched(m.snapshot.Recent, msg)
	if msg.watched {
		m.setNotice("marked as watched")
	} else {
		m.setNotice("marked as unwatched")
	}
	return m, m.reloadEpisodes()
}

func applyWatched(episodes []tvhomerun.Episode, msg progressMsg) {
	for i := range episodes {
		if episodes[i].ID != msg.episodeID {
			continue
		}
		episodes[i].Watched = tvhomerun.Flag(msg.watched)
		if !msg.watched {
			episodes[i].ResumePosition = 0
		}
	}
}

func discoveryCmd(ctx context.Context, client tvhomerun.CatalogFetcher) tea.Cmd {
	if client == nil {
		return nil
	}
	return func() tea.Msg {
		return discoveryMsg{err: client.TriggerDiscovery(ctx)}
	}
}

func (m Model) episodesTitle() string {
	parts := []string{"Episodes"}
	if m.watchedFilter != WatchedAll {
		parts = append(parts, m.watchedFilter.label())
	}
	if m.sortOrder == tvhomerun.SortAsc {
		parts = append(parts, "oldest first")
	} else {
		parts = append(parts, "newest first")
	}
	return strings.Join(parts, " · ")
}

// renderShowDetail renders the selected show, its loaded episodes and the
// selected episode's synopsis.
func (m Model) renderShowDetail(width, height int, bgColor string) string {
	styles := m.theme.Styles().WithBackground(bgColor)
	bg := NewBgStyle(bgColor)

	show := m.selectedShow()
	if show == nil {
		return styles.MutedText.Render("Select a show")
	}

	var lines []string
	lines = append(lines, bg.Render(truncate(show.Title, width), styles.Text.Bold(true)))
	meta := []string{fmt.Sprintf("%d episodes", show.EpisodeCount)}
	if show.Category != "" {
		meta = append(meta, format.Capitalize(show.Category))
	}
	lines = append(lines, bg.Render(strings.Join(meta, " · "), styles.MutedText))
	lines = append(lines,
		bg.Render("Artwork", styles.FaintText)+bg.Space()+
			bg.Render(truncateMiddle(format.ImageURL(show.ImageURL, ""), width-8), styles.FaintText))
	if desc := strings.TrimSpace(show.Description); desc != "" {
		lines = append(lines, bg.Render(truncate(desc, width), styles.FaintText))
	}
	lines = append(lines, "")

	switch {
	case m.episodesShowID != show.ID:
		lines = append(lines, bg.Render("enter to load episodes", styles.MutedText))
		return strings.Join(lines, "\n")
	case m.episodesLoading && len(m.episodes) == 0:
		lines = append(lines, bg.Render("Loading episodes...", styles.WarningText))
		return strings.Join(lines, "\n")
	case len(m.episodes) == 0:
		lines = append(lines, bg.Render("No episodes", styles.MutedText))
		return strings.Join(lines, "\n")
	}

	// Reserve room for the selected episode's detail below the list.
	const detailLines = 4
	listHeight := max(height-len(lines)-detailLines-1, 3)
	start := 0
	if m.episodeRow >= listHeight {
		start = m.episodeRow - listHeight + 1
	}
	end := min(start+listHeight, len(m.episodes))
	for i := start; i < end; i++ {
		selected := i == m.episodeRow && m.focusedPane == paneEpisodes
		rowBg := bgColor
		if selected {
			rowBg = m.theme.SelectionBg
		}
		lines = append(lines, m.formatEpisodeRow(m.episodes[i], width, rowBg, selected, false))
	}

	if ep := m.selectedEpisode(); ep != nil {
		lines = append(lines, "")
		lines = append(lines, m.episodeDetailLines(*ep, width, styles, bg)...)
	}
	return strings.Join(lines, "\n")
}

// formatEpisodeRow renders "S01E02 Title · Today at 8:00 PM · 30m · 45%".
// withShow prefixes the show title for views that mix shows.
func (m Model) formatEpisodeRow(ep tvhomerun.Episode, width int, bgColor string, selected, withShow bool) string {
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles()
	codeStyle, titleStyle, metaStyle := styles.AccentText, styles.Text, styles.MutedText
	stateText, state := episodeState(ep)
	stateStyle := styles.InfoText
	switch state {
	case stateWatched:
		stateStyle = styles.SuccessText
	case stateResume:
		stateStyle = styles.WarningText
	}
	if selected {
		sel := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
		codeStyle, titleStyle, metaStyle, stateStyle = sel, sel, sel, sel
	}

	var meta []string
	if aired := format.AirDate(ep.ParsedAirDate(), m.now()); aired != "" {
		meta = append(meta, aired)
	}
	if d := format.Duration(ep.DurationSeconds()); d != "" {
		meta = append(meta, d)
	}
	metaText := strings.Join(meta, " · ")

	title := episodeTitle(ep)
	if withShow && ep.ShowTitle != "" {
		title = ep.ShowTitle + ": " + title
	}
	code := ep.Code()

	used := len(code) + len(metaText) + len(stateText) + 8
	titleWidth := max(width-used, 10)

	var parts []string
	if code != "" {
		parts = append(parts, bg.Render(code, codeStyle))
	}
	parts = append(parts, bg.Render(truncate(title, titleWidth), titleStyle))
	content := strings.Join(parts, bg.Space())
	if metaText != "" {
		content += bg.Render(" · ", metaStyle) + bg.Render(metaText, metaStyle)
	}
	if stateText != "" {
		content += bg.Space() + bg.Render(stateText, stateStyle)
	}
	return bg.FillLine(content, width)
}

func (m Model) episodeDetailLines(ep tvhomerun.Episode, width int, styles Styles, bg BgStyle) []string {
	var lines []string
	if synopsis := strings.TrimSpace(ep.Synopsis); synopsis != "" {
		lines = append(lines, bg.Render(truncate(synopsis, width), styles.Text))
	}
	if format.ShouldShowResume(ep.ResumePosition, ep.DurationMinutes) {
		lines = append(lines, bg.Render("Resume at "+format.Clock(ep.ResumePosition)+" of "+format.Clock(ep.DurationSeconds()), styles.WarningText))
	}
	if m.client != nil {
		lines = append(lines,
			bg.Render("Stream", styles.FaintText)+bg.Space()+
				bg.Render(truncateMiddle(m.client.StreamURL(ep.ID), width-7), styles.InfoText))
	}
	return lines
}

type episodeStateKind int

const (
	stateNew episodeStateKind = iota
	stateResume
	stateWatched
)

// episodeState returns the badge text for an episode: a check when watched,
// the progress percentage when partly watched, otherwise nothing.
func episodeState(ep tvhomerun.Episode) (string, episodeStateKind) {
	if ep.IsWatched() {
		return "✓", stateWatched
	}
	if format.ShouldShowResume(ep.ResumePosition, ep.DurationMinutes) {
		return fmt.Sprintf("%d%%", format.Progress(ep.ResumePosition, ep.DurationSeconds())), stateResume
	}
	return "", stateNew
}

func episodeTitle(ep tvhomerun.Episode) string {
	if t := strings.TrimSpace(ep.Title); t != "" {
		return t
	}
	return fmt.Sprintf("Episode #%d", ep.ID)
}
