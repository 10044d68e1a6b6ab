package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/mvx/internal/formatter"
	"github.com/desertthunder/mvx/internal/models"
	"github.com/desertthunder/mvx/internal/shared"
	"github.com/urfave/cli/v3"
)

// identity returns the active identity, or [shared.ErrNotAuthenticated] when nobody is signed in.
func (r *Runner) identity() (models.Identity, error) {
	if err := r.open(); err != nil {
		return models.Identity{}, err
	}

	id, err := r.sessions.Identity()
	if err != nil {
		return id, err
	}
	if id.IsNone() {
		return id, fmt.Errorf("%w: run 'mvx account login' or 'mvx auth tmdb' first", shared.ErrNotAuthenticated)
	}
	return id, nil
}

// FavoritesList prints the active identity's favorites.
func (r *Runner) FavoritesList(ctx context.Context, cmd *cli.Command) error {
	id, err := r.identity()
	if err != nil {
		return err
	}

	list, err := r.favorites.Load(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(list, true)
	}
	if len(list) == 0 {
		return r.writePlain("No favorites yet\n")
	}

	r.writePlainHeader(fmt.Sprintf("Favorites (%d)", len(list)))
	for i, m := range list {
		r.writeMovie(i+1, m)
	}
	return nil
}

// FavoritesToggle adds the movie when absent and removes it otherwise. With a catalog configured the
// stored entry carries the catalog's title and poster.
func (r *Runner) FavoritesToggle(ctx context.Context, cmd *cli.Command) error {
	movieID, err := movieIDArg(cmd)
	if err != nil {
		return err
	}

	id, err := r.identity()
	if err != nil {
		return err
	}

	movie := models.Movie{ID: movieID}
	if r.catalog != nil {
		if d, err := r.catalog.MovieDetail(ctx, movieID); err == nil {
			movie = d.Movie
		} else {
			r.logger.Warn("could not fetch movie details, storing id only", "movie", movieID, "error", err)
		}
	}

	list, err := r.favorites.Toggle(ctx, id, movie)
	if err != nil {
		return err
	}

	label := movie.Title
	if label == "" {
		label = fmt.Sprintf("#%d", movieID)
	}
	if models.IndexOf(list, movieID) >= 0 {
		return r.writePlain("♥ Added %s to favorites (%d total)\n", label, len(list))
	}
	return r.writePlain("Removed %s from favorites (%d total)\n", label, len(list))
}

// FavoritesExport writes the active identity's favorites in the requested format.
func (r *Runner) FavoritesExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	id, err := r.identity()
	if err != nil {
		return err
	}

	list, err := r.favorites.Load(ctx, id)
	if err != nil {
		return err
	}

	export := &models.FavoritesExport{Source: "tmdb", ExportedAt: time.Now().UTC(), Movies: list}
	if username, ok := id.Username(); ok {
		export.Owner = username
		export.Source = "local"
	} else {
		export.Owner = "tmdb"
	}

	if format != formatter.FormatMarkdown {
		path, err := formatter.WriteExport(export, format, cmd.String("output"))
		if err != nil {
			return err
		}
		r.logger.Info("exported favorites", "path", path, "count", len(list))
		return r.writePlain("✓ Exported %d favorites to %s\n", len(list), path)
	}

	opts := formatter.MarkdownOptions{Client: r.httpClient, Logger: r.logger}
	if cmd.Bool("posters") {
		images, ok := r.catalog.(interface{ ImageURL(string) string })
		if !ok {
			return fmt.Errorf("%w: poster downloads need the TMDB catalog", shared.ErrMissingCredentials)
		}
		opts.ImageURL = images.ImageURL
	}

	result, err := formatter.WriteMarkdownExport(ctx, export, cmd.String("output"), opts)
	if err != nil {
		return err
	}
	r.logger.Info("exported favorites", "dir", result.Directory, "posters", result.Posters)
	return r.writePlain("✓ Exported %d favorites to %s (%d posters)\n", len(list), result.Directory, result.Posters)
}
