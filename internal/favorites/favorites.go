package favorites

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mvx/internal/accounts"
	"github.com/desertthunder/mvx/internal/models"
	"github.com/desertthunder/mvx/internal/services"
	"github.com/desertthunder/mvx/internal/shared"
	"github.com/desertthunder/mvx/internal/storage"
)

const legacyPrefix = "favorites_"

// LegacyKey returns the store key of the legacy favorites cache for username.
func LegacyKey(username string) string {
	return legacyPrefix + username
}

// Reconciler loads and mutates the favorites of an identity.
type Reconciler struct {
	mu           sync.Mutex
	store        storage.Store
	accounts     *accounts.Service
	provider     services.AccountProvider
	writeThrough bool
	logger       *log.Logger
}

// NewReconciler creates a [Reconciler]. provider may be nil when no external provider is configured;
// external identities then fail with [shared.ErrMissingCredentials].
func NewReconciler(store storage.Store, accts *accounts.Service, provider services.AccountProvider, cfg shared.FavoritesConfig, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Reconciler{
		store:        store,
		accounts:     accts,
		provider:     provider,
		writeThrough: cfg.LegacyWriteThrough,
		logger:       shared.WithLogger(logger, "component", "favorites"),
	}
}

// Load returns the authoritative favorites of id.
func (r *Reconciler) Load(ctx context.Context, id models.Identity) ([]models.Movie, error) {
	switch id.Kind() {
	case models.LocalIdentity:
		username, _ := id.Username()
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.loadLocal(username)
	case models.ExternalIdentity:
		token, _ := id.SessionToken()
		_, favorites, err := r.loadExternal(ctx, token)
		return favorites, err
	default:
		return nil, shared.ErrMissingIdentity
	}
}

// Toggle removes movie when present and appends it otherwise, returning the updated list.
func (r *Reconciler) Toggle(ctx context.Context, id models.Identity, movie models.Movie) ([]models.Movie, error) {
	return r.update(ctx, id, movie, func(present bool) bool { return !present })
}

// Add appends movie unless it is already a favorite.
func (r *Reconciler) Add(ctx context.Context, id models.Identity, movie models.Movie) ([]models.Movie, error) {
	return r.update(ctx, id, movie, func(bool) bool { return true })
}

// Remove drops the movie with movieID when present.
func (r *Reconciler) Remove(ctx context.Context, id models.Identity, movieID int) ([]models.Movie, error) {
	return r.update(ctx, id, models.Movie{ID: movieID}, func(bool) bool { return false })
}

// Contains reports whether movieID is a favorite of id.
func (r *Reconciler) Contains(ctx context.Context, id models.Identity, movieID int) (bool, error) {
	favorites, err := r.Load(ctx, id)
	if err != nil {
		return false, err
	}
	return models.IndexOf(favorites, movieID) >= 0, nil
}

// update sets the membership of movie to want(present).
func (r *Reconciler) update(ctx context.Context, id models.Identity, movie models.Movie, want func(present bool) bool) ([]models.Movie, error) {
	switch id.Kind() {
	case models.LocalIdentity:
		username, _ := id.Username()
		return r.updateLocal(username, movie, want)
	case models.ExternalIdentity:
		token, _ := id.SessionToken()
		return r.updateExternal(ctx, token, movie, want)
	default:
		return nil, shared.ErrMissingIdentity
	}
}

func (r *Reconciler) updateLocal(username string, movie models.Movie, want func(bool) bool) ([]models.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, err := r.loadLocal(username)
	if err != nil {
		return nil, err
	}

	i := models.IndexOf(current, movie.ID)
	present := i >= 0
	if want(present) == present {
		return current, nil
	}

	next := slices.Clone(current)
	if present {
		next = slices.Delete(next, i, i+1)
	} else {
		next = append(next, movie)
	}

	if err := r.save(username, next); err != nil {
		return nil, err
	}
	r.logger.Debug("favorites updated", "username", username, "movie", movie.ID, "favorite", !present)
	return next, nil
}

func (r *Reconciler) updateExternal(ctx context.Context, token string, movie models.Movie, want func(bool) bool) ([]models.Movie, error) {
	accountID, current, err := r.loadExternal(ctx, token)
	if err != nil {
		return nil, err
	}

	present := models.IndexOf(current, movie.ID) >= 0
	if want(present) == present {
		return current, nil
	}

	if err := r.provider.MarkFavorite(ctx, accountID, token, movie.Kind(), movie.ID, !present); err != nil {
		return nil, fmt.Errorf("failed to update provider favorites: %w", err)
	}

	favorites, err := r.provider.Favorites(ctx, accountID, token)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh provider favorites: %w", err)
	}
	return models.UniqueMovies(favorites), nil
}

// loadLocal must be called with r.mu held.
func (r *Reconciler) loadLocal(username string) ([]models.Movie, error) {
	legacy := r.readLegacy(username)

	profile, err := r.accounts.Profile(username)
	if errors.Is(err, shared.ErrUserNotFound) {
		return legacy, nil
	}
	if err != nil {
		return nil, err
	}

	if len(profile.Favorites) > 0 || len(legacy) == 0 {
		return models.UniqueMovies(profile.Favorites), nil
	}

	if err := r.save(username, legacy); err != nil {
		return nil, fmt.Errorf("failed to migrate legacy favorites: %w", err)
	}
	r.logger.Info("migrated legacy favorites", "username", username, "count", len(legacy))
	return legacy, nil
}

func (r *Reconciler) loadExternal(ctx context.Context, token string) (int, []models.Movie, error) {
	if r.provider == nil {
		return 0, nil, fmt.Errorf("%w: no provider configured for external sessions", shared.ErrMissingCredentials)
	}

	accountID, err := r.provider.Account(ctx, token)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to resolve provider account: %w", err)
	}

	favorites, err := r.provider.Favorites(ctx, accountID, token)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to load provider favorites: %w", err)
	}
	return accountID, models.UniqueMovies(favorites), nil
}

// save writes favorites to the profile and reconciles the legacy cache in the same apply.
func (r *Reconciler) save(username string, favorites []models.Movie) error {
	favorites = models.UniqueMovies(favorites)

	legacy := storage.Remove(LegacyKey(username))
	if r.writeThrough {
		m, err := storage.PutJSON(LegacyKey(username), favorites)
		if err != nil {
			return err
		}
		legacy = m
	}
	return r.accounts.ReplaceFavorites(username, favorites, legacy)
}

func (r *Reconciler) readLegacy(username string) []models.Movie {
	var legacy []models.Movie
	if _, err := storage.GetJSON(r.store, LegacyKey(username), &legacy); err != nil {
		r.logger.Warn("ignoring unreadable legacy favorites", "username", username, "error", err)
		return []models.Movie{}
	}
	if legacy == nil {
		return []models.Movie{}
	}
	return models.UniqueMovies(legacy)
}
