package ui

import (
	"github.com/desertthunder/mvx/internal/explorer"
	"github.com/desertthunder/mvx/internal/models"
)

// searchResultMsg carries the response of a search request.
type searchResultMsg struct {
	seq  uint64
	page *models.Page
	err  error
}

// detailMsg carries the response of a detail request.
type detailMsg struct {
	seq    uint64
	detail *models.MovieDetail
	err    error
}

// favoritesMsg carries the favorites of the active identity after a load or toggle.
type favoritesMsg struct {
	seq       uint64
	toggle    bool
	identity  models.Identity
	favorites []models.Movie
	err       error
}

// landingMsg carries the landing sections.
type landingMsg struct {
	landing *explorer.Landing
	err     error
}
