// Package session persists the single active identity of the client.
//
// An identity is either a local account username, an external provider session token, or nothing.
// Both variants live in the [storage.Store] under their own keys and every write replaces the other
// variant in the same atomic apply, so at most one of them is ever present.
package session

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mvx/internal/models"
	"github.com/desertthunder/mvx/internal/shared"
	"github.com/desertthunder/mvx/internal/storage"
)

const (
	CurrentUserKey = "currentUser" // raw username of the local identity
	SessionIDKey   = "session_id"  // raw token of the external identity
)

// Store reads and writes the active [models.Identity].
type Store struct {
	store  storage.Store
	logger *log.Logger
}

// New creates a session [Store]. A nil logger discards output.
func New(store storage.Store, logger *log.Logger) *Store {
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Store{store: store, logger: shared.WithLogger(logger, "component", "session")}
}

// LocalMutations returns the writes that make username the active identity,
// for callers that persist other records in the same apply.
func LocalMutations(username string) []storage.Mutation {
	return []storage.Mutation{storage.PutString(CurrentUserKey, username), storage.Remove(SessionIDKey)}
}

// SetLocal makes username the active identity and drops any external session.
func (s *Store) SetLocal(username string) error {
	if username == "" {
		return fmt.Errorf("%w: empty username", shared.ErrInvalidInput)
	}
	return s.store.Apply(LocalMutations(username)...)
}

// SetExternal makes token the active identity and drops any local user.
func (s *Store) SetExternal(token string) error {
	if token == "" {
		return fmt.Errorf("%w: empty session token", shared.ErrInvalidInput)
	}
	return s.store.Apply(storage.PutString(SessionIDKey, token), storage.Remove(CurrentUserKey))
}

// Identity returns the active identity.
//
// Stores written by older builds may hold both keys. The local user wins and the stale session token is removed.
func (s *Store) Identity() (models.Identity, error) {
	id, both, err := s.peek()
	if err != nil {
		return models.Identity{}, err
	}
	if both {
		s.logger.Warn("both local and external identities present, dropping external session")
		if err := s.store.Delete(SessionIDKey); err != nil {
			return id, fmt.Errorf("failed to repair session: %w", err)
		}
	}
	return id, nil
}

// Clear removes every identity.
func (s *Store) Clear() error {
	return s.store.Apply(storage.Remove(CurrentUserKey), storage.Remove(SessionIDKey))
}

// Watch calls fn with the new identity whenever it changes and returns an unsubscribe func.
func (s *Store) Watch(fn func(models.Identity)) func() {
	var (
		mu   sync.Mutex
		last models.Identity
	)
	if id, _, err := s.peek(); err == nil {
		last = id
	}

	return s.store.Subscribe(func(c storage.Change) {
		if c.Key != CurrentUserKey && c.Key != SessionIDKey {
			return
		}

		id, _, err := s.peek()
		if err != nil {
			s.logger.Error("failed to read identity", "error", err)
			return
		}

		mu.Lock()
		changed := id != last
		last = id
		mu.Unlock()

		if changed {
			fn(id)
		}
	})
}

// peek reads the identity without repairing drift. both reports whether both keys were present.
func (s *Store) peek() (id models.Identity, both bool, err error) {
	user, hasUser, err := storage.GetString(s.store, CurrentUserKey)
	if err != nil {
		return models.Identity{}, false, fmt.Errorf("failed to read %s: %w", CurrentUserKey, err)
	}
	token, hasToken, err := storage.GetString(s.store, SessionIDKey)
	if err != nil {
		return models.Identity{}, false, fmt.Errorf("failed to read %s: %w", SessionIDKey, err)
	}

	switch {
	case hasUser && user != "":
		return models.Local(user), hasToken, nil
	case hasToken && token != "":
		return models.External(token), false, nil
	default:
		return models.Identity{}, false, nil
	}
}
