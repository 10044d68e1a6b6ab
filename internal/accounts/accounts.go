// Package accounts manages locally registered user profiles.
//
// Every profile lives in a single JSON array under the "users" key. Passwords are stored and compared in
// plaintext: the store is a per-machine convenience, not a credential vault.
package accounts

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mvx/internal/models"
	"github.com/desertthunder/mvx/internal/session"
	"github.com/desertthunder/mvx/internal/shared"
	"github.com/desertthunder/mvx/internal/storage"
)

// UsersKey holds the JSON array of every [models.UserProfile].
const UsersKey = "users"

// Service implements registration, login and profile updates.
type Service struct {
	mu       sync.Mutex
	store    storage.Store
	sessions *session.Store
	logger   *log.Logger
}

// NewService creates an account [Service]. A nil logger discards output.
func NewService(store storage.Store, sessions *session.Store, logger *log.Logger) *Service {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Service{
		store:    store,
		sessions: sessions,
		logger:   shared.WithLogger(logger, "component", "accounts"),
	}
}

// Register creates a profile and makes it the active local identity.
//
// The profile and the identity are written in one apply. An existing username (exact match) returns
// [shared.ErrDuplicateUsername] and leaves the store unchanged.
func (s *Service) Register(c models.Candidate) (*models.UserProfile, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.users()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Username == c.Username {
			return nil, fmt.Errorf("%w: %s", shared.ErrDuplicateUsername, c.Username)
		}
	}

	profile := models.UserProfile{
		Username:  c.Username,
		Password:  c.Password,
		Name:      c.Name,
		Interests: models.UniqueStrings(c.Interests),
		Favorites: []models.Movie{},
	}

	m, err := storage.PutJSON(UsersKey, append(users, profile))
	if err != nil {
		return nil, err
	}
	if err := s.store.Apply(append([]storage.Mutation{m}, session.LocalMutations(profile.Username)...)...); err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", c.Username, err)
	}

	s.logger.Info("registered account", "username", profile.Username)
	return &profile, nil
}

// FindByCredentials returns the profile whose username and password both match.
func (s *Service) FindByCredentials(username, password string) (*models.UserProfile, error) {
	users, err := s.users()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Username == username && u.Password == password {
			return &u, nil
		}
	}
	return nil, shared.ErrInvalidCredentials
}

// Login checks the credentials and makes the profile the active local identity.
func (s *Service) Login(username, password string) (*models.UserProfile, error) {
	profile, err := s.FindByCredentials(username, password)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.SetLocal(profile.Username); err != nil {
		return nil, err
	}
	s.logger.Info("logged in", "username", profile.Username)
	return profile, nil
}

// Profile returns the profile registered under username.
func (s *Service) Profile(username string) (*models.UserProfile, error) {
	users, err := s.users()
	if err != nil {
		return nil, err
	}
	if i := indexOf(users, username); i >= 0 {
		return &users[i], nil
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrUserNotFound, username)
}

// ActiveProfile resolves the current local identity. It returns nil when no local user is active
// or the stored username has no profile.
func (s *Service) ActiveProfile() (*models.UserProfile, error) {
	id, err := s.sessions.Identity()
	if err != nil {
		return nil, err
	}
	username, ok := id.Username()
	if !ok {
		return nil, nil
	}

	users, err := s.users()
	if err != nil {
		return nil, err
	}
	if i := indexOf(users, username); i >= 0 {
		return &users[i], nil
	}
	return nil, nil
}

// UpdateFavorites replaces the favorites of username. It does nothing when no local identity is active
// and fails with [shared.ErrNotAuthenticated] when another user is signed in.
func (s *Service) UpdateFavorites(username string, favorites []models.Movie) error {
	id, err := s.sessions.Identity()
	if err != nil {
		return err
	}
	active, ok := id.Username()
	if !ok {
		s.logger.Debug("no local identity, favorites not saved", "username", username)
		return nil
	}
	if active != username {
		return fmt.Errorf("%w: %s cannot change favorites of %s", shared.ErrNotAuthenticated, active, username)
	}
	return s.ReplaceFavorites(username, favorites)
}

// ReplaceFavorites writes favorites to the profile of username, deduplicated by id, together with extra
// mutations in one apply.
func (s *Service) ReplaceFavorites(username string, favorites []models.Movie, extra ...storage.Mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.users()
	if err != nil {
		return err
	}
	i := indexOf(users, username)
	if i < 0 {
		return fmt.Errorf("%w: %s", shared.ErrUserNotFound, username)
	}
	users[i].Favorites = models.UniqueMovies(favorites)

	m, err := storage.PutJSON(UsersKey, users)
	if err != nil {
		return err
	}
	if err := s.store.Apply(append([]storage.Mutation{m}, extra...)...); err != nil {
		return fmt.Errorf("failed to save favorites for %s: %w", username, err)
	}
	return nil
}

// UpdateProfile merges patch into the profile of username.
func (s *Service) UpdateProfile(username string, patch models.ProfilePatch) (*models.UserProfile, error) {
	if patch.Name != nil && *patch.Name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", shared.ErrInvalidInput)
	}
	if patch.Password != nil && *patch.Password == "" {
		return nil, fmt.Errorf("%w: password cannot be empty", shared.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.users()
	if err != nil {
		return nil, err
	}
	i := indexOf(users, username)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrUserNotFound, username)
	}
	patch.Apply(&users[i])

	m, err := storage.PutJSON(UsersKey, users)
	if err != nil {
		return nil, err
	}
	if err := s.store.Apply(m); err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", username, err)
	}

	s.logger.Info("updated profile", "username", username)
	profile := users[i]
	return &profile, nil
}

func (s *Service) users() ([]models.UserProfile, error) {
	var users []models.UserProfile
	if _, err := storage.GetJSON(s.store, UsersKey, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func indexOf(users []models.UserProfile, username string) int {
	for i, u := range users {
		if u.Username == username {
			return i
		}
	}
	return -1
}
