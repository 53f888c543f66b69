package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/five82/tvhomerun/internal/logtail"
	"github.com/five82/tvhomerun/internal/prefs"
	"github.com/five82/tvhomerun/internal/state"
	"github.com/five82/tvhomerun/internal/tvhomerun"
)

// View represents the current active view.
type View int

const (
	ViewShows View = iota
	ViewRecent
	ViewLogs
)

type pane int

const (
	paneShows pane = iota
	paneEpisodes
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Client    tvhomerun.CatalogFetcher
	Store     *state.Store
	LogPath   string
	ServerURL string
	Prefs     prefs.Prefs
	PrefsPath string
	PollTick  time.Duration
	Logger    zerolog.Logger
	Now       func() time.Time
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	client    tvhomerun.CatalogFetcher
	store     *state.Store
	log       zerolog.Logger
	logPath   string
	serverURL string
	prefs     prefs.Prefs
	prefsPath string
	pollTick  time.Duration
	now       func() time.Time
	keys      keyMap

	theme       Theme
	currentView View
	focusedPane pane
	width       int
	height      int
	ready       bool
	showHelp    bool

	snapshot    state.Snapshot
	lastUpdated time.Time

	// Shows pane
	showRow       int
	searchInput   textinput.Model
	searching     bool
	searchQuery   string
	searchResults []tvhomerun.Show

	// Episodes pane
	episodes        []tvhomerun.Episode
	episodesShowID  int64
	episodesSeq     int
	episodesLoading bool
	episodeRow      int
	watchedFilter   WatchedFilter
	sortOrder       string

	// Recent view
	recentRow int

	// Logs view
	logViewport viewport.Model
	logLines    []logtail.Entry

	// Transient status line
	notice    string
	noticeErr bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = time.Second
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	userPrefs := opts.Prefs
	if userPrefs.Theme == "" {
		userPrefs = prefs.Default()
	}
	sortOrder := tvhomerun.SortDesc
	if userPrefs.EpisodeSort == tvhomerun.SortAsc {
		sortOrder = tvhomerun.SortAsc
	}

	input := textinput.New()
	input.Placeholder = "Search shows..."
	input.CharLimit = 100
	input.Prompt = "/ "

	return Model{
		ctx:         ctx,
		client:      opts.Client,
		store:       opts.Store,
		log:         opts.Logger,
		logPath:     opts.LogPath,
		serverURL:   opts.ServerURL,
		prefs:       userPrefs,
		prefsPath:   opts.PrefsPath,
		pollTick:    pollTick,
		now:         now,
		keys:        defaultKeyMap(),
		theme:       GetTheme(userPrefs.Theme),
		currentView: ViewShows,
		searchInput: input,
		sortOrder:   sortOrder,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = m.now()
		m.clampSelections()
		return m, nil

	case searchMsg:
		m.handleSearchResult(msg)
		return m, nil

	case episodesMsg:
		m.handleEpisodes(msg)
		return m, nil

	case progressMsg:
		return m.handleProgress(msg)

	case discoveryMsg:
		if msg.err != nil {
			m.setError("discovery failed: " + msg.err.Error())
		} else {
			m.setNotice("device discovery started")
		}
		return m, nil

	case logLinesMsg:
		if msg.err != nil {
			m.setError("read log: " + msg.err.Error())
			return m, nil
		}
		m.logLines = msg.lines
		m.updateLogViewport()
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	return b.String()
}

func (m Model) renderContent() string {
	switch m.currentView {
	case ViewRecent:
		return m.renderRecent()
	case ViewLogs:
		return m.renderLogs()
	default:
		return m.renderShows()
	}
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.searching {
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		m.updateLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.Discover):
		m.setNotice("starting device discovery...")
		return m, discoveryCmd(m.ctx, m.client)

	case key.Matches(msg, m.keys.ViewShows):
		m.currentView = ViewShows
		return m, nil

	case key.Matches(msg, m.keys.ViewRecent):
		m.currentView = ViewRecent
		return m, nil

	case key.Matches(msg, m.keys.ViewLogs):
		m.currentView = ViewLogs
		return m, readLogsCmd(m.logPath)

	case key.Matches(msg, m.keys.Escape):
		return m.handleEscape()
	}

	switch m.currentView {
	case ViewShows:
		return m.handleShowsKey(msg)
	case ViewRecent:
		return m.handleRecentKey(msg)
	case ViewLogs:
		return m.handleLogsKey(msg)
	}
	return m, nil
}

func (m Model) handleEscape() (tea.Model, tea.Cmd) {
	switch {
	case m.currentView != ViewShows:
		m.currentView = ViewShows
	case m.focusedPane == paneEpisodes:
		m.focusedPane = paneShows
	case m.searchQuery != "":
		m.clearSearch()
	}
	return m, nil
}

// handleTick processes the polling tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.currentView == ViewLogs {
		cmds = append(cmds, readLogsCmd(m.logPath))
	}
	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

// moveSelection applies a navigation key to row within [0, count).
func (m Model) moveSelection(msg tea.KeyMsg, row, count int) int {
	if count == 0 {
		return 0
	}
	switch {
	case key.Matches(msg, m.keys.Down):
		if row < count-1 {
			row++
		}
	case key.Matches(msg, m.keys.Up):
		if row > 0 {
			row--
		}
	case key.Matches(msg, m.keys.Top):
		row = 0
	case key.Matches(msg, m.keys.Bottom):
		row = count - 1
	}
	return min(max(row, 0), count-1)
}

func (m *Model) clampSelections() {
	m.showRow = clampRow(m.showRow, len(m.visibleShows()))
	m.recentRow = clampRow(m.recentRow, len(m.snapshot.Recent))
	m.episodeRow = clampRow(m.episodeRow, len(m.episodes))
}

func clampRow(row, count int) int {
	if count == 0 || row < 0 {
		return 0
	}
	if row >= count {
		return count - 1
	}
	return row
}

func (m *Model) savePrefs() {
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.log.Warn().Err(err).Msg("save preferences")
	}
}

func (m *Model) setNotice(text string) {
	m.notice = text
	m.noticeErr = false
}

func (m *Model) setError(text string) {
	m.notice = text
	m.noticeErr = true
	m.log.Warn().Msg(text)
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	programOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Context != nil {
		programOpts = append(programOpts, tea.WithContext(opts.Context))
	}
	_, err := tea.NewProgram(New(opts), programOpts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
