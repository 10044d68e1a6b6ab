package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/mvx/internal/explorer"
	"github.com/desertthunder/mvx/internal/models"
	"github.com/desertthunder/mvx/internal/services"
	"github.com/desertthunder/mvx/internal/shared"
)

// ViewState represents the current screen in the TUI.
type ViewState int

const (
	LandingView ViewState = iota
	ExplorerView
)

var sectionNames = [3]string{"Now Playing", "Top Rated Movies", "Top Rated Series"}

// Deps are the collaborators the TUI drives.
type Deps struct {
	Catalog   services.Catalog
	Sessions  explorer.IdentitySource
	Favorites explorer.FavoritesStore
	MaxPages  int // clamp for search pagination
	PerPage   int // landing entries per section page
	Logger    *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	catalog    services.Catalog
	sessions   explorer.IdentitySource
	favorites  explorer.FavoritesStore
	controller *explorer.Controller
	logger     *log.Logger

	landing        *explorer.Landing
	landingErr     error
	landingLoading bool
	perPage        int
	section        int
	sectionPages   [3]int
	cursor         int

	toggling bool
	queued   []models.Movie // toggles waiting for the one in flight

	input   textinput.Model
	results list.Model
	width   int
	height  int
	status  string
	help    help.Model
	keys    keyMap
}

// NewModel creates a new TUI model opening at route.
func NewModel(ctx context.Context, deps Deps, route Route) *Model {
	logger := deps.Logger
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	perPage := deps.PerPage
	if perPage <= 0 {
		perPage = explorer.DefaultPerPage
	}

	input := textinput.New()
	input.Placeholder = "Search for a movie"
	input.Prompt = "🔍 "
	input.CharLimit = 100

	results := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	results.SetShowTitle(false)
	results.SetShowHelp(false)
	results.SetShowStatusBar(false)
	results.SetFilteringEnabled(false)

	view := LandingView
	if route == RouteExplorer {
		view = ExplorerView
		input.Focus()
	}

	return &Model{
		ctx:          ctx,
		view:         view,
		catalog:      deps.Catalog,
		sessions:     deps.Sessions,
		favorites:    deps.Favorites,
		controller:   explorer.NewController(deps.Sessions, deps.Favorites, deps.MaxPages),
		logger:       logger,
		perPage:      perPage,
		sectionPages: [3]int{1, 1, 1},
		input:        input,
		results:      results,
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Controller exposes the explorer state machine.
func (m *Model) Controller() *explorer.Controller {
	return m.controller
}

// ViewState returns the active screen.
func (m *Model) ViewState() ViewState {
	return m.view
}

// Init loads favorites, and the landing sections when starting on the landing screen.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.mount()}
	if m.view == LandingView {
		cmds = append(cmds, m.fetchLanding())
	} else {
		cmds = append(cmds, textinput.Blink)
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.results.SetSize(max(msg.Width-4, 20), max(msg.Height-10, 5))
		m.input.Width = max(msg.Width-10, 20)
		return m, nil

	case tea.KeyMsg:
		if m.controller.State() == explorer.Detail {
			return m.handleDetailKeys(msg)
		}
		switch m.view {
		case LandingView:
			return m.handleLandingKeys(msg)
		case ExplorerView:
			return m.handleExplorerKeys(msg)
		}

	case searchResultMsg:
		if m.controller.ApplySearch(msg.seq, msg.page, msg.err) {
			if msg.err != nil {
				m.logger.Warn("search failed", "error", msg.err)
			}
			m.syncList()
		}
		return m, nil

	case detailMsg:
		if m.controller.ApplyDetail(msg.seq, msg.detail, msg.err) && msg.err != nil {
			m.logger.Warn("detail fetch failed", "error", msg.err)
			m.status = "Could not load movie details"
		}
		return m, nil

	case favoritesMsg:
		var next tea.Cmd
		if msg.toggle {
			next = m.nextToggle()
		}
		if msg.err != nil {
			m.logger.Warn("favorites update failed", "error", msg.err)
			m.status = fmt.Sprintf("Favorites unavailable: %v", msg.err)
			if m.controller.Identity().IsNone() {
				m.controller.ApplyFavorites(msg.seq, msg.identity, nil)
			}
			return m, next
		}
		if m.controller.ApplyFavorites(msg.seq, msg.identity, msg.favorites) {
			m.syncList()
		}
		return m, next

	case landingMsg:
		m.landing = msg.landing
		m.landingErr = msg.err
		m.landingLoading = false
		if msg.err != nil {
			m.logger.Warn("landing fetch failed", "error", msg.err)
		}
		return m, nil
	}

	if m.view == ExplorerView && m.input.Focused() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.enter):
		m.controller.CloseDetail()
	case key.Matches(msg, m.keys.favorite):
		if d := m.controller.Detail(); d != nil {
			return m, m.toggleFavorite(d.Movie)
		}
	}
	return m, nil
}

func (m *Model) handleLandingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	entries := m.sectionEntries()

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.tab):
		m.section = (m.section + 1) % len(sectionNames)
		m.cursor = 0
	case key.Matches(msg, m.keys.up):
		m.cursor = max(m.cursor-1, 0)
	case key.Matches(msg, m.keys.down):
		m.cursor = min(m.cursor+1, max(len(entries)-1, 0))
	case key.Matches(msg, m.keys.nextPage):
		if m.sectionPages[m.section] < explorer.PageTotal(len(m.sectionList()), m.perPage) {
			m.sectionPages[m.section]++
			m.cursor = 0
		}
	case key.Matches(msg, m.keys.prevPage):
		if m.sectionPages[m.section] > 1 {
			m.sectionPages[m.section]--
			m.cursor = 0
		}
	case key.Matches(msg, m.keys.enter):
		if m.cursor < len(entries) {
			return m, m.openDetail(entries[m.cursor])
		}
	case key.Matches(msg, m.keys.favorite):
		if m.cursor < len(entries) {
			return m, m.toggleFavorite(entries[m.cursor])
		}
	case key.Matches(msg, m.keys.explore):
		m.view = ExplorerView
		m.input.Focus()
		return m, textinput.Blink
	}
	return m, nil
}

func (m *Model) handleExplorerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.input.Focused() {
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEsc:
			m.input.Blur()
			return m, nil
		case tea.KeyEnter:
			m.input.Blur()
			req, ok := m.controller.Submit()
			m.syncList()
			if !ok {
				return m, nil
			}
			return m, m.search(req)
		}

		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if v := m.input.Value(); v != m.controller.Query() {
			m.controller.SetQuery(v)
			m.syncList()
		}
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.search):
		m.input.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.enter):
		if movie, ok := m.selectedMovie(); ok {
			return m, m.openDetail(movie)
		}
		return m, nil
	case key.Matches(msg, m.keys.favorite):
		if movie, ok := m.selectedMovie(); ok {
			return m, m.toggleFavorite(movie)
		}
		return m, nil
	case key.Matches(msg, m.keys.tab):
		m.controller.ShowFavorites(!m.controller.FavoritesTab())
		m.syncList()
		return m, nil
	case key.Matches(msg, m.keys.nextPage):
		if m.controller.FavoritesTab() || m.controller.Page() >= m.controller.PageCount() {
			return m, nil
		}
		if req, ok := m.controller.ChangePage(m.controller.Page() + 1); ok {
			return m, m.search(req)
		}
		return m, nil
	case key.Matches(msg, m.keys.prevPage):
		if m.controller.FavoritesTab() || m.controller.Page() <= 1 {
			return m, nil
		}
		if req, ok := m.controller.ChangePage(m.controller.Page() - 1); ok {
			return m, m.search(req)
		}
		return m, nil
	case key.Matches(msg, m.keys.back):
		if m.controller.Query() != "" {
			m.status = "Clear the search to go back home"
			return m, nil
		}
		m.view = LandingView
		if m.landing == nil && !m.landingLoading {
			return m, m.fetchLanding()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

func (m *Model) selectedMovie() (models.Movie, bool) {
	item, ok := m.results.SelectedItem().(movieItem)
	if !ok {
		return models.Movie{}, false
	}
	return item.movie, true
}

func (m *Model) syncList() {
	m.results.SetItems(movieItems(m.controller.Displayed(), m.controller.IsFavorite))
}

func (m *Model) sectionList() []models.Movie {
	if m.landing == nil {
		return nil
	}
	switch m.section {
	case 1:
		return m.landing.TopRated
	case 2:
		return m.landing.Series
	default:
		return m.landing.Featured
	}
}

func (m *Model) sectionEntries() []models.Movie {
	return explorer.Paginate(m.sectionList(), m.sectionPages[m.section], m.perPage)
}

func (m *Model) mount() tea.Cmd {
	seq := m.controller.RequestFavorites()
	return func() tea.Msg {
		id, favorites, err := explorer.LoadFavorites(m.ctx, m.sessions, m.favorites)
		return favoritesMsg{seq: seq, identity: id, favorites: favorites, err: err}
	}
}

// toggleFavorite runs one toggle at a time so the store sees them in the order they were pressed.
func (m *Model) toggleFavorite(movie models.Movie) tea.Cmd {
	if m.controller.Identity().IsNone() {
		m.status = "Sign in to save favorites"
		return nil
	}
	if m.toggling {
		m.queued = append(m.queued, movie)
		return nil
	}
	return m.runToggle(movie)
}

func (m *Model) nextToggle() tea.Cmd {
	m.toggling = false
	if len(m.queued) == 0 {
		return nil
	}
	movie := m.queued[0]
	m.queued = m.queued[1:]
	return m.runToggle(movie)
}

func (m *Model) runToggle(movie models.Movie) tea.Cmd {
	id := m.controller.Identity()
	seq := m.controller.RequestFavorites()
	m.toggling = true
	return func() tea.Msg {
		favorites, err := m.favorites.Toggle(m.ctx, id, movie)
		return favoritesMsg{seq: seq, toggle: true, identity: id, favorites: favorites, err: err}
	}
}

func (m *Model) search(req explorer.SearchRequest) tea.Cmd {
	m.status = ""
	return func() tea.Msg {
		page, err := m.catalog.SearchMovies(m.ctx, req.Query, req.Page)
		return searchResultMsg{seq: req.Seq, page: page, err: err}
	}
}

// openDetail fetches the full record of a movie. Series have no movie record and show the list entry.
func (m *Model) openDetail(movie models.Movie) tea.Cmd {
	req := m.controller.Select(movie.ID)
	if movie.IsSeries() {
		m.controller.ApplyDetail(req.Seq, &models.MovieDetail{Movie: movie}, nil)
		return nil
	}
	return m.fetchDetail(req)
}

func (m *Model) fetchDetail(req explorer.DetailRequest) tea.Cmd {
	return func() tea.Msg {
		detail, err := m.catalog.MovieDetail(m.ctx, req.MovieID)
		return detailMsg{seq: req.Seq, detail: detail, err: err}
	}
}

func (m *Model) fetchLanding() tea.Cmd {
	m.landingLoading = true
	return func() tea.Msg {
		landing, err := explorer.FetchLanding(m.ctx, m.catalog)
		return landingMsg{landing: landing, err: err}
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.controller.State() == explorer.Detail {
		return m.renderDetail()
	}

	switch m.view {
	case LandingView:
		return m.renderLanding()
	case ExplorerView:
		return m.renderExplorer()
	default:
		return ""
	}
}

func (m *Model) renderHeader() string {
	who := "not signed in"
	id := m.controller.Identity()
	if u, ok := id.Username(); ok {
		who = "signed in as " + u
	} else if id.Kind() == models.ExternalIdentity {
		who = "signed in with TMDB"
	}
	return styles.title.Render("mvx") + "  " + styles.help.Render(who)
}

func (m *Model) renderStatus() string {
	if m.status == "" {
		return ""
	}
	return "\n" + styles.warn.Render(m.status)
}

func (m *Model) renderLanding() string {
	var b strings.Builder
	b.WriteString(m.renderHeader() + "\n")

	switch {
	case m.landingLoading:
		b.WriteString("Loading...\n")
	case m.landingErr != nil:
		b.WriteString(styles.err.Render("Could not load movies. Try again later.") + "\n")
	}

	for i, name := range sectionNames {
		header := name
		if i == m.section {
			header = styles.selected.Render(name)
		}

		var all []models.Movie
		if m.landing != nil {
			all = [][]models.Movie{m.landing.Featured, m.landing.TopRated, m.landing.Series}[i]
		}
		pages := explorer.PageTotal(len(all), m.perPage)
		fmt.Fprintf(&b, "\n%s %s\n", header, styles.help.Render(fmt.Sprintf("(%d/%d)", min(m.sectionPages[i], pages), pages)))

		for j, movie := range explorer.Paginate(all, m.sectionPages[i], m.perPage) {
			marker := "  "
			if i == m.section && j == m.cursor {
				marker = "› "
			}
			heart := ""
			if m.controller.IsFavorite(movie.ID) {
				heart = " ♥"
			}
			fmt.Fprintf(&b, "%s%s %s%s\n", marker, movie.Title, styles.help.Render(movie.Year()), heart)
		}
	}

	helpKeys := []key.Binding{m.keys.tab, m.keys.prevPage, m.keys.nextPage, m.keys.enter, m.keys.favorite, m.keys.explore, m.keys.quit}
	return b.String() + m.renderStatus() + "\n\n" + m.help.ShortHelpView(helpKeys)
}

func (m *Model) renderExplorer() string {
	var body string
	c := m.controller

	if c.FavoritesTab() {
		if len(c.Favorites()) == 0 {
			body = styles.help.Render("No favorites yet")
		} else {
			body = styles.ok.Render("Favorites") + "\n" + m.results.View()
		}
	} else {
		switch c.ListState() {
		case explorer.Idle:
			body = styles.help.Render("Please search to get movies")
		case explorer.Searching:
			body = "Searching..."
		case explorer.NoResults:
			body = styles.warn.Render("No movies found")
			if c.Err() != nil {
				body += "\n" + styles.err.Render("The catalog could not be reached")
			}
		case explorer.Results:
			body = fmt.Sprintf("%s\n%s", m.results.View(), styles.help.Render(fmt.Sprintf("Page %d of %d", c.Page(), c.PageCount())))
		}
	}

	helpKeys := []key.Binding{m.keys.search, m.keys.enter, m.keys.favorite, m.keys.tab, m.keys.prevPage, m.keys.nextPage, m.keys.back, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n\n%s%s\n\n%s", m.renderHeader(), m.input.View(), body, m.renderStatus(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderDetail() string {
	d := m.controller.Detail()
	if d == nil {
		return ""
	}

	var b strings.Builder
	title := d.Title
	if y := d.Year(); y != "" {
		title = fmt.Sprintf("%s (%s)", title, y)
	}
	b.WriteString(styles.title.Render(title) + "\n")
	if d.Tagline != "" {
		b.WriteString(styles.help.Render(d.Tagline) + "\n")
	}
	if genres := d.GenreNames(); len(genres) > 0 {
		b.WriteString("Genres: " + strings.Join(genres, ", ") + "\n")
	}
	if d.Runtime > 0 {
		fmt.Fprintf(&b, "Runtime: %d min\n", d.Runtime)
	}
	if d.VoteAverage > 0 {
		fmt.Fprintf(&b, "Rating: ★ %.1f (%d votes)\n", d.VoteAverage, d.VoteCount)
	}
	if d.Overview != "" {
		b.WriteString("\n" + d.Overview + "\n")
	}
	if m.controller.IsFavorite(d.ID) {
		b.WriteString("\n" + styles.ok.Render("♥ In your favorites") + "\n")
	}

	helpKeys := []key.Binding{m.keys.favorite, m.keys.back}
	width := 60
	if m.width > 10 {
		width = min(m.width-6, 80)
	}
	return styles.modal.Width(width).Render(b.String()) + m.renderStatus() + "\n" + m.help.ShortHelpView(helpKeys)
}
