package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/mvx/internal/explorer"
	"github.com/desertthunder/mvx/internal/models"
	"github.com/desertthunder/mvx/internal/shared"
	"github.com/urfave/cli/v3"
)

func movieIDArg(cmd *cli.Command) (int, error) {
	raw := cmd.Args().First()
	if raw == "" {
		return 0, fmt.Errorf("%w: movie id", shared.ErrMissingArgument)
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: movie id must be a positive integer, got %q", shared.ErrInvalidArgument, raw)
	}
	return id, nil
}

func (r *Runner) writeMovie(i int, m models.Movie) {
	line := fmt.Sprintf("%3d. [%d] %s", i, m.ID, m.Title)
	if y := m.Year(); y != "" {
		line += " (" + y + ")"
	}
	if m.VoteAverage > 0 {
		line += fmt.Sprintf(" ★ %.1f", m.VoteAverage)
	}
	r.writePlain("%s\n", line)
}

// MoviesSearch searches the catalog. Pages beyond explorer.max_pages are clamped.
func (r *Runner) MoviesSearch(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCatalog(); err != nil {
		return err
	}

	query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	maxPages := r.config.Explorer.MaxPages
	if maxPages <= 0 {
		maxPages = explorer.DefaultMaxPages
	}
	page := min(max(int(cmd.Int("page")), 1), maxPages)

	result, err := r.catalog.SearchMovies(ctx, query, page)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	if len(result.Results) == 0 {
		return r.writePlain("No movies found\n")
	}

	r.writePlainHeader(fmt.Sprintf("Results for %q", query))
	for i, m := range result.Results {
		r.writeMovie(i+1, m)
	}
	return r.writePlainln("Page %d of %d (%d results)", result.Page, min(result.TotalPages, maxPages), result.TotalResults)
}

// MoviesDetail prints one movie's details.
func (r *Runner) MoviesDetail(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCatalog(); err != nil {
		return err
	}

	id, err := movieIDArg(cmd)
	if err != nil {
		return err
	}

	d, err := r.catalog.MovieDetail(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(d, true)
	}

	title := d.Title
	if y := d.Year(); y != "" {
		title += " (" + y + ")"
	}
	r.writePlainHeader(title)
	if d.Tagline != "" {
		r.writePlain("%s\n\n", d.Tagline)
	}
	if genres := d.GenreNames(); len(genres) > 0 {
		r.writePlain("Genres:  %s\n", strings.Join(genres, ", "))
	}
	if d.Runtime > 0 {
		r.writePlain("Runtime: %d min\n", d.Runtime)
	}
	if d.VoteAverage > 0 {
		r.writePlain("Rating:  ★ %.1f (%d votes)\n", d.VoteAverage, d.VoteCount)
	}
	if d.Overview != "" {
		r.writePlainln("%s", d.Overview)
	}
	return nil
}

// MoviesLanding prints the three landing sections, fetched together.
func (r *Runner) MoviesLanding(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireCatalog(); err != nil {
		return err
	}

	landing, err := explorer.FetchLanding(ctx, r.catalog)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(landing, true)
	}

	perPage := r.config.Explorer.LandingPerPage
	for _, section := range []struct {
		name   string
		movies []models.Movie
	}{
		{"Now Playing", landing.Featured},
		{"Top Rated Movies", landing.TopRated},
		{"Top Rated Series", landing.Series},
	} {
		r.writePlainHeader(fmt.Sprintf("%s (%d)", section.name, len(section.movies)))
		for i, m := range explorer.Paginate(section.movies, 1, perPage) {
			r.writeMovie(i+1, m)
		}
		r.writePlain("\n")
	}
	return nil
}
