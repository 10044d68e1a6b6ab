package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mvx/internal/accounts"
	"github.com/desertthunder/mvx/internal/explorer"
	"github.com/desertthunder/mvx/internal/favorites"
	"github.com/desertthunder/mvx/internal/models"
	"github.com/desertthunder/mvx/internal/session"
	"github.com/desertthunder/mvx/internal/shared"
	"github.com/desertthunder/mvx/internal/storage"
	tu "github.com/desertthunder/mvx/internal/testing"
)

func movies(prefix string, n int) []models.Movie {
	list := make([]models.Movie, n)
	for i := range list {
		list[i] = models.Movie{ID: i + 1, Title: prefix + " " + string(rune('A'+i)), PosterPath: "/p.jpg", ReleaseDate: "2008-07-18"}
	}
	return list
}

func pageOf(list []models.Movie, n, total int) *models.Page {
	return &models.Page{Page: n, TotalPages: total, TotalResults: len(list), Results: list}
}

type fixture struct {
	store     *storage.MemoryStore
	sessions  *session.Store
	accounts  *accounts.Service
	favorites *favorites.Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := storage.NewMemoryStore()
	sessions := session.New(store, nil)
	accts := accounts.NewService(store, sessions, nil)
	return &fixture{
		store:     store,
		sessions:  sessions,
		accounts:  accts,
		favorites: favorites.NewReconciler(store, accts, nil, shared.FavoritesConfig{}, nil),
	}
}

func (f *fixture) model(catalog *tu.MockCatalog, route Route) *Model {
	m := NewModel(context.Background(), Deps{
		Catalog:   catalog,
		Sessions:  f.sessions,
		Favorites: f.favorites,
		PerPage:   5,
	}, route)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

// run executes cmd and feeds the resulting messages back into m. Commands returned by Update are dropped.
func run(m *Model, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			run(m, c)
		}
	case nil:
	default:
		m.Update(msg)
	}
}

func press(m *Model, k tea.KeyMsg) tea.Cmd {
	_, cmd := m.Update(k)
	return cmd
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestResolve(t *testing.T) {
	local := models.Local("alice")
	tests := []struct {
		name string
		path string
		id   models.Identity
		want Route
	}{
		{"home signed in", "/", local, RouteHome},
		{"home anonymous", "/", models.Identity{}, RouteLogin},
		{"explorer signed in", "/explorer", local, RouteExplorer},
		{"explorer trailing slash", "/explorer/", models.External("tok"), RouteExplorer},
		{"explorer anonymous", "/explorer", models.Identity{}, RouteLogin},
		{"unknown path", "/nowhere", local, RouteHome},
		{"unknown anonymous", "/nowhere", models.Identity{}, RouteLogin},
		{"register is public", "/register", models.Identity{}, RouteRegister},
		{"callback keeps query", "/auth/callback?request_token=abc", models.Identity{}, RouteCallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.path, tt.id); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}

	if RouteLogin.RequiresIdentity() || !RouteExplorer.RequiresIdentity() {
		t.Error("unexpected guard configuration")
	}
}

func TestLandingView(t *testing.T) {
	catalog := &tu.MockCatalog{
		NowPlayingFunc: func(ctx context.Context, page int) (*models.Page, error) {
			return pageOf(movies("Now", 12), 1, 1), nil
		},
		TopRatedMoviesFunc: func(ctx context.Context, page int) (*models.Page, error) {
			return pageOf(movies("Top", 3), 1, 1), nil
		},
		TopRatedSeriesFunc: func(ctx context.Context, page int) (*models.Page, error) {
			return pageOf(movies("Series", 7), 1, 1), nil
		},
	}

	t.Run("loads all sections", func(t *testing.T) {
		m := newFixture(t).model(catalog, RouteHome)
		run(m, m.Init())

		if m.landing == nil || len(m.landing.Featured) != 12 {
			t.Fatalf("expected featured section to load, got %+v", m.landing)
		}
		if got := m.sectionEntries(); len(got) != 5 {
			t.Errorf("expected 5 entries per page, got %d", len(got))
		}

		view := m.View()
		for _, want := range []string{"Now Playing", "Top Rated Movies", "Top Rated Series", "(1/3)"} {
			if !strings.Contains(view, want) {
				t.Errorf("expected view to contain %q", want)
			}
		}
	})

	t.Run("pages each section independently", func(t *testing.T) {
		m := newFixture(t).model(catalog, RouteHome)
		run(m, m.Init())

		press(m, keyRunes("]"))
		press(m, keyRunes("]"))
		press(m, keyRunes("]"))
		if m.sectionPages[0] != 3 {
			t.Errorf("expected featured page to stop at 3, got %d", m.sectionPages[0])
		}
		if got := m.sectionEntries(); len(got) != 2 {
			t.Errorf("expected 2 entries on the last page, got %d", len(got))
		}

		press(m, tea.KeyMsg{Type: tea.KeyTab})
		if m.section != 1 || m.sectionPages[1] != 1 {
			t.Errorf("expected second section on page 1, got section %d page %d", m.section, m.sectionPages[1])
		}
		press(m, keyRunes("["))
		if m.sectionPages[1] != 1 {
			t.Errorf("expected page to stay at 1, got %d", m.sectionPages[1])
		}
	})

	t.Run("one failure empties every section", func(t *testing.T) {
		failing := &tu.MockCatalog{
			NowPlayingFunc:     catalog.NowPlayingFunc,
			TopRatedMoviesFunc: catalog.TopRatedMoviesFunc,
			TopRatedSeriesFunc: func(ctx context.Context, page int) (*models.Page, error) {
				return nil, shared.ErrNetworkFailure
			},
		}
		m := newFixture(t).model(failing, RouteHome)
		run(m, m.Init())

		if m.landingErr == nil {
			t.Fatal("expected landing error")
		}
		if len(m.landing.Featured)+len(m.landing.TopRated)+len(m.landing.Series) != 0 {
			t.Error("expected all sections to be empty")
		}
		if !strings.Contains(m.View(), "Could not load movies") {
			t.Error("expected error message in view")
		}
	})

	t.Run("series open from the list entry", func(t *testing.T) {
		withSeries := &tu.MockCatalog{
			NowPlayingFunc:     catalog.NowPlayingFunc,
			TopRatedMoviesFunc: catalog.TopRatedMoviesFunc,
			TopRatedSeriesFunc: func(ctx context.Context, page int) (*models.Page, error) {
				series := []models.Movie{{ID: 1396, Title: "Breaking Bad", Overview: "A chemistry teacher.", MediaType: models.MediaSeries}}
				return pageOf(series, 1, 1), nil
			},
		}
		m := newFixture(t).model(withSeries, RouteHome)
		run(m, m.Init())

		press(m, tea.KeyMsg{Type: tea.KeyTab})
		press(m, tea.KeyMsg{Type: tea.KeyTab})
		if cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
			t.Error("expected no detail fetch for a series")
		}

		if withSeries.Calls("MovieDetail") != 0 {
			t.Errorf("expected no movie lookup, got %d", withSeries.Calls("MovieDetail"))
		}
		if m.Controller().State() != explorer.Detail || m.Controller().Detail().ID != 1396 {
			t.Fatalf("expected series detail, got %s", m.Controller().State())
		}
		if !strings.Contains(m.View(), "Breaking Bad") {
			t.Error("expected series title in the detail view")
		}
	})

	t.Run("explore switches screens", func(t *testing.T) {
		m := newFixture(t).model(catalog, RouteHome)
		run(m, m.Init())

		press(m, keyRunes("e"))
		if m.ViewState() != ExplorerView || !m.input.Focused() {
			t.Error("expected focused explorer view")
		}
	})
}

func TestExplorerSearch(t *testing.T) {
	results := movies("Batman", 3)
	catalog := &tu.MockCatalog{
		SearchFunc: func(ctx context.Context, query string, page int) (*models.Page, error) {
			if query == "zzzz" {
				return pageOf([]models.Movie{}, 1, 0), nil
			}
			return pageOf(results, page, 4), nil
		},
	}

	t.Run("shows prompt before searching", func(t *testing.T) {
		m := newFixture(t).model(catalog, RouteExplorer)
		if !strings.Contains(m.View(), "Please search to get movies") {
			t.Error("expected idle prompt")
		}
	})

	t.Run("submit and paginate", func(t *testing.T) {
		m := newFixture(t).model(catalog, RouteExplorer)
		press(m, keyRunes("batman"))
		if m.Controller().Query() != "batman" {
			t.Fatalf("expected query to follow input, got %q", m.Controller().Query())
		}

		run(m, press(m, tea.KeyMsg{Type: tea.KeyEnter}))
		if m.Controller().State() != explorer.Results {
			t.Fatalf("expected results, got %s", m.Controller().State())
		}
		if len(m.results.Items()) != 3 {
			t.Errorf("expected 3 items, got %d", len(m.results.Items()))
		}
		if !strings.Contains(m.View(), "Page 1 of 4") {
			t.Error("expected page indicator")
		}

		run(m, press(m, keyRunes("]")))
		if m.Controller().Page() != 2 {
			t.Errorf("expected page 2, got %d", m.Controller().Page())
		}
		run(m, press(m, keyRunes("[")))
		if m.Controller().Page() != 1 {
			t.Errorf("expected page 1, got %d", m.Controller().Page())
		}
		if cmd := press(m, keyRunes("[")); cmd != nil {
			t.Error("expected no request below page 1")
		}
	})

	t.Run("no results", func(t *testing.T) {
		m := newFixture(t).model(catalog, RouteExplorer)
		press(m, keyRunes("zzzz"))
		run(m, press(m, tea.KeyMsg{Type: tea.KeyEnter}))

		if m.Controller().State() != explorer.NoResults {
			t.Fatalf("expected no results, got %s", m.Controller().State())
		}
		if !strings.Contains(m.View(), "No movies found") {
			t.Error("expected empty message")
		}
	})

	t.Run("stale responses are discarded", func(t *testing.T) {
		m := newFixture(t).model(catalog, RouteExplorer)
		press(m, keyRunes("bat"))
		first := press(m, tea.KeyMsg{Type: tea.KeyEnter})

		press(m, keyRunes("/"))
		m.input.SetValue("zzzz")
		m.Controller().SetQuery("zzzz")
		second := press(m, tea.KeyMsg{Type: tea.KeyEnter})

		run(m, second)
		run(m, first)
		if m.Controller().State() != explorer.NoResults {
			t.Errorf("expected the newer empty response to win, got %s", m.Controller().State())
		}
	})

	t.Run("search failure", func(t *testing.T) {
		failing := &tu.MockCatalog{
			SearchFunc: func(ctx context.Context, query string, page int) (*models.Page, error) {
				return nil, errors.Join(shared.ErrNetworkFailure, errors.New("boom"))
			},
		}
		m := newFixture(t).model(failing, RouteExplorer)
		press(m, keyRunes("batman"))
		run(m, press(m, tea.KeyMsg{Type: tea.KeyEnter}))

		if m.Controller().State() != explorer.NoResults || m.Controller().Err() == nil {
			t.Errorf("expected no results with error, got %s", m.Controller().State())
		}
	})
}

func TestDetailOverlay(t *testing.T) {
	catalog := &tu.MockCatalog{
		SearchFunc: func(ctx context.Context, query string, page int) (*models.Page, error) {
			return pageOf(movies("Batman", 2), 1, 1), nil
		},
		DetailFunc: func(ctx context.Context, id int) (*models.MovieDetail, error) {
			return &models.MovieDetail{
				Movie:   models.Movie{ID: id, Title: "The Dark Knight", ReleaseDate: "2008-07-18", Overview: "Gotham."},
				Tagline: "Why so serious?",
				Genres:  []models.Genre{{ID: 1, Name: "Action"}, {ID: 2, Name: "Crime"}},
				Runtime: 152,
			}, nil
		},
	}

	m := newFixture(t).model(catalog, RouteExplorer)
	press(m, keyRunes("batman"))
	run(m, press(m, tea.KeyMsg{Type: tea.KeyEnter}))
	run(m, press(m, tea.KeyMsg{Type: tea.KeyEnter}))

	if m.Controller().State() != explorer.Detail {
		t.Fatalf("expected detail, got %s", m.Controller().State())
	}

	view := m.View()
	for _, want := range []string{"The Dark Knight (2008)", "Why so serious?", "Action, Crime", "152 min"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected detail view to contain %q", want)
		}
	}

	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.Controller().State() != explorer.Results {
		t.Errorf("expected results after closing, got %s", m.Controller().State())
	}
}

func TestFavoritesInTUI(t *testing.T) {
	catalog := &tu.MockCatalog{
		SearchFunc: func(ctx context.Context, query string, page int) (*models.Page, error) {
			return pageOf(movies("Batman", 2), 1, 1), nil
		},
	}

	t.Run("anonymous toggle asks to sign in", func(t *testing.T) {
		m := newFixture(t).model(catalog, RouteExplorer)
		run(m, m.Init())
		press(m, keyRunes("batman"))
		run(m, press(m, tea.KeyMsg{Type: tea.KeyEnter}))

		if cmd := press(m, keyRunes("f")); cmd != nil {
			t.Error("expected no command without identity")
		}
		if !strings.Contains(m.View(), "Sign in to save favorites") {
			t.Error("expected sign in prompt")
		}
	})

	t.Run("local toggle persists", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.accounts.Register(models.Candidate{Username: "alice", Password: "pw123", Name: "Alice"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		m := f.model(catalog, RouteExplorer)
		run(m, m.Init())
		if name, _ := m.Controller().Identity().Username(); name != "alice" {
			t.Fatalf("expected alice to be mounted, got %v", m.Controller().Identity())
		}

		press(m, keyRunes("batman"))
		run(m, press(m, tea.KeyMsg{Type: tea.KeyEnter}))
		run(m, press(m, keyRunes("f")))

		if !m.Controller().IsFavorite(1) {
			t.Fatal("expected movie 1 to be a favorite")
		}
		profile, err := f.accounts.Profile("alice")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(profile.Favorites) != 1 || profile.Favorites[0].ID != 1 {
			t.Errorf("expected stored favorite, got %+v", profile.Favorites)
		}

		press(m, tea.KeyMsg{Type: tea.KeyTab})
		if !m.Controller().FavoritesTab() || len(m.results.Items()) != 1 {
			t.Errorf("expected favorites tab with 1 item, got %d", len(m.results.Items()))
		}

		press(m, tea.KeyMsg{Type: tea.KeyTab})
		if m.Controller().State() != explorer.Results || len(m.results.Items()) != 2 {
			t.Error("expected search results to survive the tab switch")
		}
	})
	t.Run("stale load does not overwrite a toggle", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.accounts.Register(models.Candidate{Username: "alice", Password: "pw123", Name: "Alice"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		m := f.model(catalog, RouteExplorer)
		run(m, m.Init())
		press(m, keyRunes("batman"))
		run(m, press(m, tea.KeyMsg{Type: tea.KeyEnter}))

		reload := m.mount()
		toggle := press(m, keyRunes("f"))
		older := reload()
		newer := toggle()

		m.Update(newer)
		m.Update(older)

		profile, err := f.accounts.Profile("alice")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(profile.Favorites) != 1 || !m.Controller().IsFavorite(1) || len(m.Controller().Favorites()) != 1 {
			t.Errorf("expected store and controller to agree, stored %v, shown %v", profile.Favorites, m.Controller().Favorites())
		}
	})

	t.Run("toggles run one at a time", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.accounts.Register(models.Candidate{Username: "alice", Password: "pw123", Name: "Alice"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		m := f.model(catalog, RouteExplorer)
		run(m, m.Init())
		press(m, keyRunes("batman"))
		run(m, press(m, tea.KeyMsg{Type: tea.KeyEnter}))

		first := press(m, keyRunes("f"))
		m.results.Select(1)
		if cmd := press(m, keyRunes("f")); cmd != nil {
			t.Fatal("expected second toggle to wait for the first")
		}

		_, next := m.Update(first())
		if next == nil {
			t.Fatal("expected queued toggle to start")
		}
		run(m, next)

		profile, err := f.accounts.Profile("alice")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(profile.Favorites) != 2 || len(m.Controller().Favorites()) != 2 {
			t.Errorf("expected both favorites stored and shown, stored %v, shown %v", profile.Favorites, m.Controller().Favorites())
		}
	})
}
