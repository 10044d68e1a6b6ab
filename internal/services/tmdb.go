// TMDB v3 API implementation of [Service]
//
// Response types based on https://developer.themoviedb.org/reference
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/mvx/internal/models"
	"github.com/desertthunder/mvx/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	tmdbBaseURL      = "https://api.themoviedb.org/3"
	tmdbImageBaseURL = "https://image.tmdb.org/t/p/w500"
	// favorites are fetched page by page up to this many pages
	maxFavoritePages = 50
)

var errNotFound = errors.New("not found")

// TMDBStatus is the error envelope returned on failed requests.
type TMDBStatus struct {
	Success       *bool  `json:"success,omitempty"`
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

// TMDBRequestToken is the payload of /authentication/token/new.
type TMDBRequestToken struct {
	Success      bool   `json:"success"`
	ExpiresAt    string `json:"expires_at"`
	RequestToken string `json:"request_token"`
}

// TMDBSession is the payload of /authentication/session/new.
type TMDBSession struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id"`
}

// TMDBAccount is the payload of /account.
type TMDBAccount struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type favoriteRequest struct {
	MediaType string `json:"media_type"`
	MediaID   int    `json:"media_id"`
	Favorite  bool   `json:"favorite"`
}

// TMDBService implements [Service] against the TMDB v3 API.
type TMDBService struct {
	baseURL      string
	imageBaseURL string
	apiKey       string
	language     string
	httpClient   *http.Client
	limiter      *rate.Limiter
}

// NewTMDBService creates a TMDB client from configuration.
//
// A nil client defaults to one with a 15 second timeout. When cfg.ReadAccessToken is set, the client's
// transport is wrapped to send it as a bearer token.
func NewTMDBService(cfg shared.TMDBConfig, client *http.Client) (*TMDBService, error) {
	if !cfg.HasCredentials() {
		return nil, fmt.Errorf("%w: tmdb api_key or read_access_token", shared.ErrMissingCredentials)
	}

	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if cfg.ReadAccessToken != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.ReadAccessToken, TokenType: "Bearer"})
		client = &http.Client{
			Transport: &oauth2.Transport{Source: src, Base: client.Transport},
			Timeout:   client.Timeout,
		}
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = tmdbBaseURL
	}
	imageBaseURL := strings.TrimRight(cfg.ImageBaseURL, "/")
	if imageBaseURL == "" {
		imageBaseURL = tmdbImageBaseURL
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &TMDBService{
		baseURL:      baseURL,
		imageBaseURL: imageBaseURL,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		language:     cfg.Language,
		httpClient:   client,
		limiter:      rate.NewLimiter(limit, 1),
	}, nil
}

// Name returns the name of the service.
func (s *TMDBService) Name() string {
	return "TMDB"
}

// ImageURL returns the absolute poster URL for a poster path, or "" when the path is empty.
func (s *TMDBService) ImageURL(posterPath string) string {
	if posterPath == "" {
		return ""
	}
	return s.imageBaseURL + "/" + strings.TrimLeft(posterPath, "/")
}

// doRequest performs a rate-limited request against the TMDB API and decodes the JSON response into result.
func (s *TMDBService) doRequest(ctx context.Context, method, endpoint string, query url.Values, body, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNetworkFailure, err)
	}

	if query == nil {
		query = url.Values{}
	}
	if s.apiKey != "" {
		query.Set("api_key", s.apiKey)
	}
	if s.language != "" && method == http.MethodGet {
		query.Set("language", s.language)
	}
	apiURL := s.baseURL + endpoint + "?" + query.Encode()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var status TMDBStatus
		_ = json.NewDecoder(resp.Body).Decode(&status)
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %w", shared.ErrNetworkFailure, errNotFound)
		}
		return fmt.Errorf("%w: tmdb status %d: %s", shared.ErrNetworkFailure, resp.StatusCode, status.StatusMessage)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrNetworkFailure, err)
		}
	}
	return nil
}

func pageQuery(page int) url.Values {
	if page < 1 {
		page = 1
	}
	return url.Values{"page": {strconv.Itoa(page)}}
}

func (s *TMDBService) list(ctx context.Context, endpoint string, page int, mediaType string) (*models.Page, error) {
	var result models.Page
	if err := s.doRequest(ctx, http.MethodGet, endpoint, pageQuery(page), nil, &result); err != nil {
		return nil, err
	}
	for i := range result.Results {
		if result.Results[i].MediaType == "" {
			result.Results[i].MediaType = mediaType
		}
	}
	return &result, nil
}

// SearchMovies searches movies by title.
func (s *TMDBService) SearchMovies(ctx context.Context, query string, page int) (*models.Page, error) {
	q := pageQuery(page)
	q.Set("query", query)
	q.Set("include_adult", "false")

	var result models.Page
	if err := s.doRequest(ctx, http.MethodGet, "/search/movie", q, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// MovieDetail retrieves a movie by id.
func (s *TMDBService) MovieDetail(ctx context.Context, id int) (*models.MovieDetail, error) {
	var detail models.MovieDetail
	if err := s.doRequest(ctx, http.MethodGet, fmt.Sprintf("/movie/%d", id), nil, nil, &detail); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, fmt.Errorf("%w: %d", shared.ErrMovieNotFound, id)
		}
		return nil, err
	}
	return &detail, nil
}

// NowPlaying lists movies currently in theatres.
func (s *TMDBService) NowPlaying(ctx context.Context, page int) (*models.Page, error) {
	return s.list(ctx, "/movie/now_playing", page, models.MediaMovie)
}

// TopRatedMovies lists the highest rated movies.
func (s *TMDBService) TopRatedMovies(ctx context.Context, page int) (*models.Page, error) {
	return s.list(ctx, "/movie/top_rated", page, models.MediaMovie)
}

// TopRatedSeries lists the highest rated TV series.
func (s *TMDBService) TopRatedSeries(ctx context.Context, page int) (*models.Page, error) {
	return s.list(ctx, "/tv/top_rated", page, models.MediaSeries)
}

// RequestToken creates a new unapproved request token.
func (s *TMDBService) RequestToken(ctx context.Context) (string, error) {
	var token TMDBRequestToken
	if err := s.doRequest(ctx, http.MethodGet, "/authentication/token/new", nil, nil, &token); err != nil {
		return "", err
	}
	if !token.Success || token.RequestToken == "" {
		return "", fmt.Errorf("%w: request token not issued", shared.ErrAuthFailed)
	}
	return token.RequestToken, nil
}

// CreateSession exchanges an approved request token for a session id.
func (s *TMDBService) CreateSession(ctx context.Context, approvedToken string) (string, error) {
	if approvedToken == "" {
		return "", shared.ErrMissingRequestToken
	}

	var session TMDBSession
	body := map[string]string{"request_token": approvedToken}
	if err := s.doRequest(ctx, http.MethodPost, "/authentication/session/new", nil, body, &session); err != nil {
		return "", err
	}
	if !session.Success || session.SessionID == "" {
		return "", fmt.Errorf("%w: session not created", shared.ErrAuthFailed)
	}
	return session.SessionID, nil
}

// Account resolves the account id of a session.
func (s *TMDBService) Account(ctx context.Context, sessionID string) (int, error) {
	var account TMDBAccount
	q := url.Values{"session_id": {sessionID}}
	if err := s.doRequest(ctx, http.MethodGet, "/account", q, nil, &account); err != nil {
		return 0, err
	}
	return account.ID, nil
}

// Favorites returns every favorite movie of the account, oldest first, followed by favorite series.
func (s *TMDBService) Favorites(ctx context.Context, accountID int, sessionID string) ([]models.Movie, error) {
	movies, err := s.favoritePages(ctx, fmt.Sprintf("/account/%d/favorite/movies", accountID), sessionID, models.MediaMovie)
	if err != nil {
		return nil, err
	}
	series, err := s.favoritePages(ctx, fmt.Sprintf("/account/%d/favorite/tv", accountID), sessionID, models.MediaSeries)
	if err != nil {
		return nil, err
	}
	return models.UniqueMovies(append(movies, series...)), nil
}

func (s *TMDBService) favoritePages(ctx context.Context, endpoint, sessionID, mediaType string) ([]models.Movie, error) {
	favorites := []models.Movie{}

	for page := 1; page <= maxFavoritePages; page++ {
		q := pageQuery(page)
		q.Set("session_id", sessionID)
		q.Set("sort_by", "created_at.asc")

		var result models.Page
		if err := s.doRequest(ctx, http.MethodGet, endpoint, q, nil, &result); err != nil {
			return nil, err
		}
		for _, entry := range result.Results {
			if entry.MediaType == "" {
				entry.MediaType = mediaType
			}
			favorites = append(favorites, entry)
		}

		if page >= result.TotalPages {
			break
		}
	}
	return favorites, nil
}

// MarkFavorite adds or removes a movie or series from the account's favorites.
func (s *TMDBService) MarkFavorite(ctx context.Context, accountID int, sessionID, mediaType string, mediaID int, favorite bool) error {
	if mediaType == "" {
		mediaType = models.MediaMovie
	}
	endpoint := fmt.Sprintf("/account/%d/favorite", accountID)
	q := url.Values{"session_id": {sessionID}}
	body := favoriteRequest{MediaType: mediaType, MediaID: mediaID, Favorite: favorite}
	return s.doRequest(ctx, http.MethodPost, endpoint, q, body, nil)
}
