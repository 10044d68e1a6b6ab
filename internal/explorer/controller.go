package explorer

import (
	"context"

	"github.com/desertthunder/mvx/internal/models"
	"github.com/desertthunder/mvx/internal/shared"
)

// DefaultMaxPages is the highest page the catalog serves reliably.
const DefaultMaxPages = 500

// State is the explorer view state.
type State int

const (
	Idle State = iota
	Searching
	Results
	NoResults
	Detail
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Searching:
		return "searching"
	case Results:
		return "results"
	case NoResults:
		return "no results"
	case Detail:
		return "detail"
	default:
		return "unknown"
	}
}

// SearchRequest is a search the caller must run and report back through [Controller.ApplySearch].
type SearchRequest struct {
	Seq   uint64
	Query string
	Page  int
}

// DetailRequest is a detail fetch the caller must run and report back through [Controller.ApplyDetail].
type DetailRequest struct {
	Seq     uint64
	MovieID int
}

// IdentitySource returns the active identity.
type IdentitySource interface {
	Identity() (models.Identity, error)
}

// FavoritesStore loads and toggles favorites for an identity.
type FavoritesStore interface {
	Load(ctx context.Context, id models.Identity) ([]models.Movie, error)
	Toggle(ctx context.Context, id models.Identity, movie models.Movie) ([]models.Movie, error)
}

// Controller is the explorer state machine. It is not safe for concurrent use; drive it from one goroutine.
type Controller struct {
	sessions  IdentitySource
	favorites FavoritesStore
	maxPages  int

	state      State
	underlying State // list state beneath an open detail
	query      string
	page       int
	results    []models.Movie
	totalPages int
	err        error

	searchSeq uint64
	detailSeq uint64
	detail    *models.MovieDetail
	detailErr error

	favoritesTab bool
	identity     models.Identity
	favList      []models.Movie
	favSeq       uint64
	favApplied   uint64
}

// NewController creates a [Controller]. maxPages <= 0 uses [DefaultMaxPages].
func NewController(sessions IdentitySource, favorites FavoritesStore, maxPages int) *Controller {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Controller{sessions: sessions, favorites: favorites, maxPages: maxPages, favList: []models.Movie{}}
}

func (c *Controller) State() State                { return c.state }
func (c *Controller) Query() string               { return c.query }
func (c *Controller) Page() int                   { return c.page }
func (c *Controller) Results() []models.Movie     { return c.results }
func (c *Controller) Err() error                  { return c.err }
func (c *Controller) Detail() *models.MovieDetail { return c.detail }
func (c *Controller) DetailErr() error            { return c.detailErr }
func (c *Controller) FavoritesTab() bool          { return c.favoritesTab }
func (c *Controller) Identity() models.Identity   { return c.identity }
func (c *Controller) Favorites() []models.Movie   { return c.favList }

// ListState returns the list state, ignoring an open detail.
func (c *Controller) ListState() State {
	if c.state == Detail {
		return c.underlying
	}
	return c.state
}

func (c *Controller) setListState(s State) {
	if c.state == Detail {
		c.underlying = s
		return
	}
	c.state = s
}

// SetQuery updates the query text. An empty query returns to [Idle], clears results and invalidates
// pending searches.
func (c *Controller) SetQuery(q string) {
	c.query = q
	if q != "" {
		return
	}

	c.searchSeq++
	c.page = 0
	c.results = nil
	c.totalPages = 0
	c.err = nil
	c.setListState(Idle)
}

// Submit starts a search for the current query at page 1. It reports false when the query is empty.
func (c *Controller) Submit() (SearchRequest, bool) {
	if c.query == "" {
		c.SetQuery("")
		return SearchRequest{}, false
	}
	return c.search(1), true
}

// ChangePage re-runs the current query at page p, clamped to [1, PageCount()].
// It reports false when there is no query.
func (c *Controller) ChangePage(p int) (SearchRequest, bool) {
	if c.query == "" {
		return SearchRequest{}, false
	}
	return c.search(min(max(p, 1), max(c.PageCount(), 1))), true
}

func (c *Controller) search(page int) SearchRequest {
	c.searchSeq++
	c.page = page
	c.err = nil
	c.setListState(Searching)
	return SearchRequest{Seq: c.searchSeq, Query: c.query, Page: page}
}

// ApplySearch records the response of request seq. It returns false and changes nothing when a newer
// request has been issued since. Failures degrade to [NoResults] with the error kept for display.
func (c *Controller) ApplySearch(seq uint64, page *models.Page, err error) bool {
	if seq != c.searchSeq || c.ListState() != Searching {
		return false
	}

	if err != nil || page == nil {
		c.results = nil
		c.totalPages = 0
		c.err = err
		c.setListState(NoResults)
		return true
	}

	c.results = page.Results
	c.totalPages = page.TotalPages
	if len(page.Results) == 0 {
		c.setListState(NoResults)
	} else {
		c.setListState(Results)
	}
	return true
}

// PageCount is the provider's total page count clamped to the configured maximum.
func (c *Controller) PageCount() int {
	return min(c.totalPages, c.maxPages)
}

// Select starts a detail fetch for movie id.
func (c *Controller) Select(id int) DetailRequest {
	c.detailSeq++
	c.detailErr = nil
	return DetailRequest{Seq: c.detailSeq, MovieID: id}
}

// ApplyDetail opens the detail for request seq. Stale responses return false. A failed fetch leaves the
// view unchanged and records the error.
func (c *Controller) ApplyDetail(seq uint64, detail *models.MovieDetail, err error) bool {
	if seq != c.detailSeq {
		return false
	}
	if err != nil || detail == nil {
		c.detailErr = err
		return true
	}

	if c.state != Detail {
		c.underlying = c.state
	}
	c.state = Detail
	c.detail = detail
	return true
}

// CloseDetail closes the detail and restores the list state beneath it.
func (c *Controller) CloseDetail() {
	if c.state != Detail {
		return
	}
	c.state = c.underlying
	c.detail = nil
}

// ShowFavorites switches the displayed collection.
func (c *Controller) ShowFavorites(on bool) {
	c.favoritesTab = on
}

// Displayed is the collection currently on screen.
func (c *Controller) Displayed() []models.Movie {
	if c.favoritesTab {
		return c.favList
	}
	return c.results
}

// IsFavorite reports whether id is in the loaded favorites.
func (c *Controller) IsFavorite(id int) bool {
	return models.IndexOf(c.favList, id) >= 0
}

// LoadFavorites resolves the active identity and its favorites without touching any controller.
// Without an identity the list is empty.
func LoadFavorites(ctx context.Context, sessions IdentitySource, favorites FavoritesStore) (models.Identity, []models.Movie, error) {
	id, err := sessions.Identity()
	if err != nil {
		return models.Identity{}, []models.Movie{}, err
	}
	if id.IsNone() {
		return id, []models.Movie{}, nil
	}

	list, err := favorites.Load(ctx, id)
	if err != nil {
		return id, []models.Movie{}, err
	}
	return id, list, nil
}

// Mount reads the active identity and loads its favorites.
func (c *Controller) Mount(ctx context.Context) error {
	id, list, err := LoadFavorites(ctx, c.sessions, c.favorites)
	c.SetFavorites(id, list)
	return err
}

// SetFavorites records favorites loaded for id outside the update loop.
func (c *Controller) SetFavorites(id models.Identity, list []models.Movie) {
	if list == nil {
		list = []models.Movie{}
	}
	c.identity = id
	c.favList = list
}

// RequestFavorites numbers a favorites load or toggle the caller is about to run.
func (c *Controller) RequestFavorites() uint64 {
	c.favSeq++
	return c.favSeq
}

// ApplyFavorites records the favorites returned by request seq. A response older than one already
// applied returns false and changes nothing.
func (c *Controller) ApplyFavorites(seq uint64, id models.Identity, list []models.Movie) bool {
	if seq <= c.favApplied {
		return false
	}
	c.favApplied = seq
	c.SetFavorites(id, list)
	return true
}

// ToggleFavorite adds or removes movie from the favorites of the mounted identity.
func (c *Controller) ToggleFavorite(ctx context.Context, movie models.Movie) error {
	if c.identity.IsNone() {
		return shared.ErrMissingIdentity
	}

	favorites, err := c.favorites.Toggle(ctx, c.identity, movie)
	if err != nil {
		return err
	}
	c.favList = favorites
	return nil
}
