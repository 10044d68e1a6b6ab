package explorer

import (
	"context"
	"fmt"

	"github.com/desertthunder/mvx/internal/models"
	"github.com/desertthunder/mvx/internal/services"
	"github.com/sourcegraph/conc/pool"
)

// DefaultPerPage is the number of landing entries shown per section page.
const DefaultPerPage = 5

// Landing holds the three landing sections.
type Landing struct {
	Featured []models.Movie `json:"featured"` // now playing
	TopRated []models.Movie `json:"top_rated"`
	Series   []models.Movie `json:"series"`
}

func emptyLanding() *Landing {
	return &Landing{Featured: []models.Movie{}, TopRated: []models.Movie{}, Series: []models.Movie{}}
}

// FetchLanding loads the first page of every section concurrently. Entries without a poster are dropped.
//
// If any fetch fails the others are cancelled and every section is returned empty with the first error.
func FetchLanding(ctx context.Context, catalog services.Catalog) (*Landing, error) {
	var featured, topRated, series *models.Page

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) (err error) {
		featured, err = catalog.NowPlaying(ctx, 1)
		return wrapSection("now playing", err)
	})
	p.Go(func(ctx context.Context) (err error) {
		topRated, err = catalog.TopRatedMovies(ctx, 1)
		return wrapSection("top rated movies", err)
	})
	p.Go(func(ctx context.Context) (err error) {
		series, err = catalog.TopRatedSeries(ctx, 1)
		return wrapSection("top rated series", err)
	})

	if err := p.Wait(); err != nil {
		return emptyLanding(), err
	}

	return &Landing{
		Featured: withPosters(featured),
		TopRated: withPosters(topRated),
		Series:   withPosters(series),
	}, nil
}

func wrapSection(name string, err error) error {
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", name, err)
	}
	return nil
}

func withPosters(page *models.Page) []models.Movie {
	out := []models.Movie{}
	if page == nil {
		return out
	}
	for _, m := range page.Results {
		if m.HasPoster() {
			out = append(out, m)
		}
	}
	return out
}

// Paginate returns page (1-based) of list with perPage entries. Out of range pages are empty.
func Paginate(list []models.Movie, page, perPage int) []models.Movie {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	start := (page - 1) * perPage
	if page < 1 || start >= len(list) {
		return []models.Movie{}
	}
	return list[start:min(start+perPage, len(list))]
}

// PageTotal is the number of pages [Paginate] can return for n entries.
func PageTotal(n, perPage int) int {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return (n + perPage - 1) / perPage
}
