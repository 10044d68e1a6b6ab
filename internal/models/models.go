// package models defines the data model for the movie explorer
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Catalog media types.
const (
	MediaMovie  = "movie"
	MediaSeries = "tv"
)

// Movie is a catalog entry. Series are normalised into the same shape, with their name stored in Title.
type Movie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	PosterPath  string  `json:"poster_path"`
	Overview    string  `json:"overview,omitempty"`
	ReleaseDate string  `json:"release_date,omitempty"`
	VoteAverage float64 `json:"vote_average,omitempty"`
	MediaType   string  `json:"media_type,omitempty"`
}

// UnmarshalJSON accepts catalog objects (using the series "name" and "first_air_date" when the movie fields
// are absent) and bare numeric ids,
// which is how the oldest favorites caches were written.
func (m *Movie) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] != '{' {
		var id int
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return fmt.Errorf("movie: expected object or id, got %s", trimmed)
		}
		*m = Movie{ID: id}
		return nil
	}

	type movie Movie
	var raw struct {
		movie
		Name         string `json:"name"`
		FirstAirDate string `json:"first_air_date"`
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}

	*m = Movie(raw.movie)
	if m.Title == "" {
		m.Title = raw.Name
	}
	if m.ReleaseDate == "" {
		m.ReleaseDate = raw.FirstAirDate
	}
	return nil
}

// Year returns the release year, or an empty string when unknown.
func (m Movie) Year() string {
	if len(m.ReleaseDate) >= 4 {
		return m.ReleaseDate[:4]
	}
	return ""
}

// IsSeries reports whether the entry is a TV series.
func (m Movie) IsSeries() bool {
	return m.MediaType == MediaSeries
}

// Kind returns the catalog media type, defaulting to [MediaMovie].
func (m Movie) Kind() string {
	if m.MediaType == "" {
		return MediaMovie
	}
	return m.MediaType
}

// HasPoster reports whether the entry has a poster image.
func (m Movie) HasPoster() bool {
	return strings.TrimSpace(m.PosterPath) != ""
}

// Genre is a catalog genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MovieDetail is the full catalog record for a single movie.
type MovieDetail struct {
	Movie
	Tagline   string  `json:"tagline,omitempty"`
	Genres    []Genre `json:"genres,omitempty"`
	Runtime   int     `json:"runtime,omitempty"` // minutes
	VoteCount int     `json:"vote_count,omitempty"`
	Status    string  `json:"status,omitempty"`
	Homepage  string  `json:"homepage,omitempty"`
	IMDBID    string  `json:"imdb_id,omitempty"`
}

// UnmarshalJSON decodes the embedded [Movie] with its own rules and the detail fields alongside it.
func (d *MovieDetail) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &d.Movie); err != nil {
		return err
	}

	var extra struct {
		Tagline   string  `json:"tagline"`
		Genres    []Genre `json:"genres"`
		Runtime   int     `json:"runtime"`
		VoteCount int     `json:"vote_count"`
		Status    string  `json:"status"`
		Homepage  string  `json:"homepage"`
		IMDBID    string  `json:"imdb_id"`
	}
	if err := json.Unmarshal(data, &extra); err != nil {
		return err
	}

	d.Tagline = extra.Tagline
	d.Genres = extra.Genres
	d.Runtime = extra.Runtime
	d.VoteCount = extra.VoteCount
	d.Status = extra.Status
	d.Homepage = extra.Homepage
	d.IMDBID = extra.IMDBID
	return nil
}

// GenreNames returns the genre names in catalog order.
func (d MovieDetail) GenreNames() []string {
	names := make([]string, 0, len(d.Genres))
	for _, g := range d.Genres {
		names = append(names, g.Name)
	}
	return names
}

// Page is one page of a paginated catalog listing.
type Page struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// FavoritesExport is a snapshot of one identity's favorites.
type FavoritesExport struct {
	Owner      string    `json:"owner"`
	Source     string    `json:"source"` // "local" or "tmdb"
	ExportedAt time.Time `json:"exported_at"`
	Movies     []Movie   `json:"movies"`
}

// UserProfile is a locally registered account.
//
// Field names match the records written by earlier versions of the account store.
type UserProfile struct {
	Username  string   `json:"username"`
	Password  string   `json:"password"`
	Name      string   `json:"name"`
	Interests []string `json:"interests"`
	Favorites []Movie  `json:"favorites"`
}

// Candidate is the input to account registration.
type Candidate struct {
	Username  string
	Password  string
	Name      string
	Interests []string
}

// Validate checks that the required registration fields are present.
func (c Candidate) Validate() error {
	switch {
	case strings.TrimSpace(c.Username) == "":
		return fmt.Errorf("username is required")
	case c.Password == "":
		return fmt.Errorf("password is required")
	case strings.TrimSpace(c.Name) == "":
		return fmt.Errorf("name is required")
	}
	return nil
}

// ProfilePatch is a merge-patch for [UserProfile]. Nil fields are left untouched;
// username and favorites cannot be patched.
type ProfilePatch struct {
	Name      *string
	Password  *string
	Interests []string
}

// Apply merges the patch into p.
func (pp ProfilePatch) Apply(p *UserProfile) {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Password != nil {
		p.Password = *pp.Password
	}
	if pp.Interests != nil {
		p.Interests = UniqueStrings(pp.Interests)
	}
}

// UniqueStrings returns the non-empty entries of in without duplicates, preserving first occurrence.
func UniqueStrings(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// UniqueMovies collapses entries with the same id to their first occurrence, preserving order.
func UniqueMovies(in []Movie) []Movie {
	out := make([]Movie, 0, len(in))
	seen := make(map[int]struct{}, len(in))
	for _, m := range in {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}

// IndexOf returns the position of the movie with id in list, or -1.
func IndexOf(list []Movie, id int) int {
	for i, m := range list {
		if m.ID == id {
			return i
		}
	}
	return -1
}
