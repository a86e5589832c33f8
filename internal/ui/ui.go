package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/gaelon/internal/auth"
	"github.com/desertthunder/gaelon/internal/dashboard"
	"github.com/desertthunder/gaelon/internal/recommend"
	"github.com/desertthunder/gaelon/internal/services"
	"github.com/desertthunder/gaelon/internal/shared"
)

// panelState is the latest known state of one tab.
type panelState struct {
	seq     int
	loading bool
	data    any
	err     error
	list    list.Model
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	load    Loader
	opts    dashboard.LoadOptions
	active  int
	panels  map[dashboard.Panel]*panelState
	expired bool
	width   int
	height  int
	help    help.Model
	keys    keyMap
	now     func() time.Time
}

// NewModel creates a new TUI model that loads panels with load.
func NewModel(ctx context.Context, load Loader, opts dashboard.LoadOptions) *Model {
	if !opts.Mood.Valid() {
		opts.Mood = recommend.Happy
	}
	if opts.Range == "" {
		opts.Range = services.MediumTerm
	}

	m := &Model{
		ctx:    ctx,
		load:   load,
		opts:   opts,
		panels: make(map[dashboard.Panel]*panelState, len(dashboard.Panels)),
		help:   help.New(),
		keys:   newKeyMap(),
		now:    time.Now,
	}

	for _, p := range dashboard.Panels {
		l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
		l.Title = p.Title()
		l.SetShowHelp(false)
		m.panels[p] = &panelState{list: l}
	}
	return m
}

// Init loads every panel concurrently.
func (m *Model) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(dashboard.Panels))
	for _, p := range dashboard.Panels {
		cmds = append(cmds, m.fetch(p))
	}
	return tea.Batch(cmds...)
}

// Active returns the panel shown in the current tab.
func (m *Model) Active() dashboard.Panel { return dashboard.Panels[m.active] }

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, st := range m.panels {
			st.list.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case panelLoadedMsg:
		return m.handleLoaded(msg)
	}

	return m.updateList(msg)
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.expired {
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		return m, nil
	}

	st := m.panels[m.Active()]
	if st.list.FilterState() == list.Filtering {
		return m.updateList(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.next):
		m.active = (m.active + 1) % len(dashboard.Panels)
		return m, nil
	case key.Matches(msg, m.keys.prev):
		m.active = (m.active + len(dashboard.Panels) - 1) % len(dashboard.Panels)
		return m, nil
	case key.Matches(msg, m.keys.jump):
		m.active = int(msg.Runes[0]-'1') % len(dashboard.Panels)
		return m, nil
	case key.Matches(msg, m.keys.reload):
		return m, m.fetch(m.Active())
	case key.Matches(msg, m.keys.mood) && m.Active() == dashboard.PanelDiscovery:
		m.opts.Mood = nextMood(m.opts.Mood)
		return m, m.fetch(dashboard.PanelDiscovery)
	case key.Matches(msg, m.keys.period) && m.Active() == dashboard.PanelStats:
		m.opts.Range = nextRange(m.opts.Range)
		return m, m.fetch(dashboard.PanelStats)
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	return m.updateList(msg)
}

// handleLoaded applies a panel result unless a newer request for the panel is in flight.
func (m *Model) handleLoaded(msg panelLoadedMsg) (tea.Model, tea.Cmd) {
	st, ok := m.panels[msg.panel]
	if !ok || msg.seq != st.seq {
		return m, nil
	}

	st.loading = false
	st.err = msg.err
	if errors.Is(msg.err, shared.ErrSessionExpired) || errors.Is(msg.err, auth.ErrAuthMissing) {
		m.expired = true
	}

	st.data = msg.data
	var items []list.Item
	switch data := msg.data.(type) {
	case *dashboard.PlaylistsPanel:
		if data != nil {
			items = playlistItems(data.Playlists)
		}
	case *dashboard.DiscoveryPanel:
		if data != nil {
			items = trackItems(data.Tracks)
		}
		st.list.Title = fmt.Sprintf("Discovery: %s", m.opts.Mood.Label())
	case *dashboard.RecentPanel:
		if data != nil {
			items = historyItems(data.Items, m.now())
		}
	}

	if items == nil {
		return m, nil
	}
	return m, st.list.SetItems(items)
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	st := m.panels[m.Active()]
	var cmd tea.Cmd
	st.list, cmd = st.list.Update(msg)
	return m, cmd
}

// fetch starts a load for p and supersedes any load already in flight for it.
func (m *Model) fetch(p dashboard.Panel) tea.Cmd {
	st := m.panels[p]
	st.seq++
	st.loading = true

	seq, opts := st.seq, m.opts
	return func() tea.Msg {
		data, err := m.load(m.ctx, p, opts)
		return panelLoadedMsg{panel: p, seq: seq, data: data, err: err}
	}
}

// View renders the tab bar, the active panel and the help line.
func (m *Model) View() string {
	if m.expired {
		return styles.err.Render("Your Spotify session has expired or is missing.") +
			"\n\nRun `gaelon auth login` and start the dashboard again.\n\n" +
			m.help.ShortHelpView([]key.Binding{m.keys.quit})
	}

	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")
	b.WriteString(m.renderPanel(m.Active()))
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderTabs() string {
	tabs := make([]string, 0, len(dashboard.Panels))
	for i, p := range dashboard.Panels {
		label := fmt.Sprintf("%d %s", i+1, p.Title())
		if i == m.active {
			tabs = append(tabs, styles.activeTab.Render(label))
		} else {
			tabs = append(tabs, styles.tab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) renderPanel(p dashboard.Panel) string {
	st := m.panels[p]

	var status string
	switch {
	case st.loading:
		status = styles.help.Render("Loading...")
	case st.err != nil:
		status = styles.warn.Render(fmt.Sprintf("Could not load %s: %v", strings.ToLower(p.Title()), st.err))
	}

	var body string
	switch data := st.data.(type) {
	case *dashboard.StatsPanel:
		body = renderStats(data)
	case *dashboard.ProfilePanel:
		body = renderProfile(data)
	case nil:
		if !st.loading && st.err == nil {
			body = styles.help.Render("No data found.")
		}
	default:
		if len(st.list.Items()) == 0 && !st.loading {
			body = styles.help.Render("No data found.")
		} else {
			body = st.list.View()
		}
	}

	if p == dashboard.PanelDiscovery {
		status = strings.TrimSpace(status + "  " + styles.help.Render("mood: "+m.opts.Mood.Label()+" (m to change)"))
	}
	if p == dashboard.PanelStats {
		status = strings.TrimSpace(status + "  " + styles.help.Render("range: "+m.opts.Range.Label()+" (t to change)"))
	}

	if status == "" {
		return body
	}
	return status + "\n" + body
}

func renderStats(s *dashboard.StatsPanel) string {
	if s == nil {
		return styles.help.Render("No data found.")
	}

	tracks := []string{styles.heading.Render("Top Tracks")}
	for i, t := range s.TopTracks {
		tracks = append(tracks, fmt.Sprintf("%2d. %s - %s", i+1, t.Name, t.PrimaryArtist()))
	}

	artists := []string{styles.heading.Render("Top Artists")}
	for i, a := range s.TopArtists {
		artists = append(artists, fmt.Sprintf("%2d. %s", i+1, a.Name))
	}

	albums := []string{styles.heading.Render("Top Albums")}
	for i, a := range s.TopAlbums {
		albums = append(albums, fmt.Sprintf("%2d. %s - %s (%d)", i+1, a.Album.Name, a.Album.PrimaryArtist(), a.Count))
	}

	playlists := []string{styles.heading.Render("Playlists")}
	for _, p := range s.Playlists {
		playlists = append(playlists, "• "+p.Name)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		styles.column.Render(strings.Join(tracks, "\n")),
		styles.column.Render(strings.Join(artists, "\n")),
		styles.column.Render(strings.Join(albums, "\n")),
		styles.column.Render(strings.Join(playlists, "\n")),
	)
}

func renderProfile(p *dashboard.ProfilePanel) string {
	if p == nil {
		return styles.help.Render("No data found.")
	}

	u := p.User
	lines := []string{
		styles.title.Render(u.Name()),
		fmt.Sprintf("Email:     %s", orDash(u.Email)),
		fmt.Sprintf("Country:   %s", orDash(u.Country)),
		fmt.Sprintf("Followers: %d", u.Followers.Total),
		fmt.Sprintf("Plan:      %s", u.Plan()),
		fmt.Sprintf("Image:     %s", u.ImageURL()),
		styles.heading.Render("Top Artists"),
	}
	for _, a := range p.TopArtists {
		lines = append(lines, fmt.Sprintf("• %s (popularity %d)", a.Name, a.Popularity))
	}
	return strings.Join(lines, "\n")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func nextMood(m recommend.Mood) recommend.Mood {
	for i, mood := range recommend.Moods {
		if mood == m {
			return recommend.Moods[(i+1)%len(recommend.Moods)]
		}
	}
	return recommend.Happy
}

func nextRange(r services.TimeRange) services.TimeRange {
	for i, tr := range services.TimeRanges {
		if tr == r {
			return services.TimeRanges[(i+1)%len(services.TimeRanges)]
		}
	}
	return services.MediumTerm
}

