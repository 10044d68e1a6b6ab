package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/mvx/internal/models"
)

var _ list.Item = movieItem{}

// movieItem wraps [models.Movie] to implement [list.Item].
type movieItem struct {
	movie    models.Movie
	favorite bool
}

func (i movieItem) FilterValue() string { return i.movie.Title }
func (i movieItem) Title() string {
	if i.favorite {
		return "♥ " + i.movie.Title
	}
	return i.movie.Title
}
func (i movieItem) Description() string {
	parts := []string{}
	if y := i.movie.Year(); y != "" {
		parts = append(parts, y)
	}
	if i.movie.VoteAverage > 0 {
		parts = append(parts, fmt.Sprintf("★ %.1f", i.movie.VoteAverage))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("#%d", i.movie.ID)
	}
	return strings.Join(parts, " • ")
}

func movieItems(movies []models.Movie, isFavorite func(int) bool) []list.Item {
	items := make([]list.Item, len(movies))
	for i, m := range movies {
		items[i] = movieItem{movie: m, favorite: isFavorite(m.ID)}
	}
	return items
}
