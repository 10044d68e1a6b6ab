// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/mvx/internal/models"
)

// MockCatalog is a test double for [services.Catalog]. Nil funcs return an empty page.
type MockCatalog struct {
	SearchFunc         func(ctx context.Context, query string, page int) (*models.Page, error)
	DetailFunc         func(ctx context.Context, id int) (*models.MovieDetail, error)
	NowPlayingFunc     func(ctx context.Context, page int) (*models.Page, error)
	TopRatedMoviesFunc func(ctx context.Context, page int) (*models.Page, error)
	TopRatedSeriesFunc func(ctx context.Context, page int) (*models.Page, error)

	mu    sync.Mutex
	calls map[string]int
}

func (m *MockCatalog) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[name]++
}

// Calls returns how many times the named method was invoked.
func (m *MockCatalog) Calls(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *MockCatalog) SearchMovies(ctx context.Context, query string, page int) (*models.Page, error) {
	m.record("SearchMovies")
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, page)
	}
	return &models.Page{Page: page}, nil
}

func (m *MockCatalog) MovieDetail(ctx context.Context, id int) (*models.MovieDetail, error) {
	m.record("MovieDetail")
	if m.DetailFunc != nil {
		return m.DetailFunc(ctx, id)
	}
	return &models.MovieDetail{Movie: models.Movie{ID: id}}, nil
}

func (m *MockCatalog) NowPlaying(ctx context.Context, page int) (*models.Page, error) {
	m.record("NowPlaying")
	if m.NowPlayingFunc != nil {
		return m.NowPlayingFunc(ctx, page)
	}
	return &models.Page{Page: page}, nil
}

func (m *MockCatalog) TopRatedMovies(ctx context.Context, page int) (*models.Page, error) {
	m.record("TopRatedMovies")
	if m.TopRatedMoviesFunc != nil {
		return m.TopRatedMoviesFunc(ctx, page)
	}
	return &models.Page{Page: page}, nil
}

func (m *MockCatalog) TopRatedSeries(ctx context.Context, page int) (*models.Page, error) {
	m.record("TopRatedSeries")
	if m.TopRatedSeriesFunc != nil {
		return m.TopRatedSeriesFunc(ctx, page)
	}
	return &models.Page{Page: page}, nil
}

// MockProvider is a test double for [services.Authenticator] and [services.AccountProvider]
// holding favorites in memory.
type MockProvider struct {
	Token     string // request token handed out by RequestToken
	SessionID string // session returned for an approved Token
	AccountID int

	RequestTokenErr error
	SessionErrs     []error // consumed one per CreateSession call
	FavoritesErr    error

	mu            sync.Mutex
	favorites     []models.Movie
	sessionCalls  int
	favoriteCalls int
	markedTypes   []string
}

// NewMockProvider creates a provider that approves token and answers with sessionID.
func NewMockProvider(token, sessionID string) *MockProvider {
	return &MockProvider{Token: token, SessionID: sessionID, AccountID: 42}
}

// SetFavorites replaces the provider-side favorites.
func (m *MockProvider) SetFavorites(movies []models.Movie) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.favorites = append([]models.Movie(nil), movies...)
}

// SessionCalls returns how many times CreateSession ran.
func (m *MockProvider) SessionCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionCalls
}

// MarkedTypes returns the media type sent by each MarkFavorite call.
func (m *MockProvider) MarkedTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.markedTypes...)
}

// FavoriteCalls returns how many times MarkFavorite ran.
func (m *MockProvider) FavoriteCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.favoriteCalls
}

func (m *MockProvider) RequestToken(ctx context.Context) (string, error) {
	if m.RequestTokenErr != nil {
		return "", m.RequestTokenErr
	}
	return m.Token, nil
}

func (m *MockProvider) CreateSession(ctx context.Context, approvedToken string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessionCalls++
	if len(m.SessionErrs) > 0 {
		err := m.SessionErrs[0]
		m.SessionErrs = m.SessionErrs[1:]
		if err != nil {
			return "", err
		}
	}
	if approvedToken != m.Token {
		return "", errors.New("request token not approved")
	}
	return m.SessionID, nil
}

func (m *MockProvider) Account(ctx context.Context, sessionID string) (int, error) {
	if sessionID != m.SessionID {
		return 0, errors.New("invalid session")
	}
	return m.AccountID, nil
}

func (m *MockProvider) Favorites(ctx context.Context, accountID int, sessionID string) ([]models.Movie, error) {
	if m.FavoritesErr != nil {
		return nil, m.FavoritesErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Movie{}, m.favorites...), nil
}

func (m *MockProvider) MarkFavorite(ctx context.Context, accountID int, sessionID, mediaType string, movieID int, favorite bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.favoriteCalls++
	m.markedTypes = append(m.markedTypes, mediaType)
	kept := m.favorites[:0]
	for _, f := range m.favorites {
		if f.ID != movieID {
			kept = append(kept, f)
		}
	}
	m.favorites = kept
	if favorite {
		m.favorites = append(m.favorites, models.Movie{ID: movieID, MediaType: mediaType})
	}
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
