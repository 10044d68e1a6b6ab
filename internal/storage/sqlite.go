package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteStore implements [Store] on the kv_store table.
//
// The store takes ownership of db; [SQLiteStore.Close] closes it.
type SQLiteStore struct {
	db   *sql.DB
	subs subscribers
}

// NewSQLiteStore creates a [SQLiteStore] on a database that already has migrations applied.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Get retrieves the value stored under key.
func (s *SQLiteStore) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRow("SELECT value FROM kv_store WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query key %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts a single key.
func (s *SQLiteStore) Set(key string, value []byte) error {
	return s.Apply(Put(key, value))
}

// Delete removes a single key.
func (s *SQLiteStore) Delete(key string) error {
	return s.Apply(Remove(key))
}

// Apply writes every mutation inside one transaction and notifies subscribers after commit.
func (s *SQLiteStore) Apply(mutations ...Mutation) error {
	if len(mutations) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, m := range mutations {
		if m.Delete {
			if _, err := tx.Exec("DELETE FROM kv_store WHERE key = ?", m.Key); err != nil {
				return fmt.Errorf("failed to delete key %s: %w", m.Key, err)
			}
			continue
		}

		query := `
			INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
		`
		if _, err := tx.Exec(query, m.Key, m.Value, now); err != nil {
			return fmt.Errorf("failed to write key %s: %w", m.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.subs.notify(changesOf(mutations))
	return nil
}

// Subscribe registers fn for committed changes.
func (s *SQLiteStore) Subscribe(fn func(Change)) func() {
	return s.subs.add(fn)
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
