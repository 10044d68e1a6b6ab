// package services defines the catalog and account interfaces the client consumes
// and implements them for TMDB
package services

import (
	"context"

	"github.com/desertthunder/mvx/internal/models"
)

// Catalog is the read-only movie and series catalog.
type Catalog interface {
	// SearchMovies returns one page of movies matching query. Pages start at 1.
	SearchMovies(ctx context.Context, query string, page int) (*models.Page, error)

	// MovieDetail returns the full record for a movie id.
	MovieDetail(ctx context.Context, id int) (*models.MovieDetail, error)

	NowPlaying(ctx context.Context, page int) (*models.Page, error)
	TopRatedMovies(ctx context.Context, page int) (*models.Page, error)
	TopRatedSeries(ctx context.Context, page int) (*models.Page, error)
}

// Authenticator performs the request-token handshake of the provider.
type Authenticator interface {
	// RequestToken creates an unapproved request token.
	RequestToken(ctx context.Context) (string, error)

	// CreateSession exchanges a user-approved request token for a session id.
	CreateSession(ctx context.Context, approvedToken string) (string, error)
}

// AccountProvider exposes the favorites stored on the provider for an external session.
type AccountProvider interface {
	Account(ctx context.Context, sessionID string) (int, error)
	Favorites(ctx context.Context, accountID int, sessionID string) ([]models.Movie, error)
	// MarkFavorite sets the favorite flag of a catalog entry. mediaType is "movie" or "tv".
	MarkFavorite(ctx context.Context, accountID int, sessionID, mediaType string, mediaID int, favorite bool) error
}

// Service is a complete provider implementation.
type Service interface {
	Catalog
	Authenticator
	AccountProvider

	// Name returns the name of the provider (e.g., "TMDB")
	Name() string
}
