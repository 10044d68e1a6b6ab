package storage

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"
)

// Store is a synchronous key-value store with change notification.
type Store interface {
	Get(key string) ([]byte, bool, error) // Get returns the value for key and whether it exists
	Set(key string, value []byte) error   // Set writes a single key
	Delete(key string) error              // Delete removes a single key; missing keys are not an error
	Apply(mutations ...Mutation) error    // Apply writes all mutations atomically
	Subscribe(fn func(Change)) func()     // Subscribe registers fn for every committed change and returns an unsubscribe func
	Close() error                         // Close releases the underlying resources
}

// Mutation is a single write inside [Store.Apply].
type Mutation struct {
	Key    string
	Value  []byte
	Delete bool
}

// Change is delivered to subscribers after a mutation commits.
type Change struct {
	Key     string
	Value   []byte
	Deleted bool
}

// Put returns a mutation that sets key to value.
func Put(key string, value []byte) Mutation {
	return Mutation{Key: key, Value: value}
}

// PutString returns a mutation that sets key to the raw string value.
func PutString(key, value string) Mutation {
	return Put(key, []byte(value))
}

// Remove returns a mutation that deletes key.
func Remove(key string) Mutation {
	return Mutation{Key: key, Delete: true}
}

// PutJSON returns a mutation that sets key to the JSON encoding of v.
func PutJSON(key string, v any) (Mutation, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Mutation{}, fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return Put(key, data), nil
}

// GetJSON decodes the value stored under key into v. It reports false when the key is absent.
func GetJSON(s Store, key string, v any) (bool, error) {
	data, ok, err := s.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// GetString returns the raw string stored under key.
func GetString(s Store, key string) (string, bool, error) {
	data, ok, err := s.Get(key)
	if err != nil || !ok {
		return "", false, err
	}
	return string(data), true, nil
}

func changesOf(mutations []Mutation) []Change {
	changes := make([]Change, len(mutations))
	for i, m := range mutations {
		changes[i] = Change{Key: m.Key, Value: m.Value, Deleted: m.Delete}
	}
	return changes
}

// subscribers fans committed changes out to registered callbacks.
type subscribers struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(Change)
}

func (s *subscribers) add(fn func(Change)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fns == nil {
		s.fns = make(map[int]func(Change))
	}
	id := s.next
	s.next++
	s.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.fns, id)
			s.mu.Unlock()
		})
	}
}

// notify calls every subscriber outside the lock so callbacks may read or write the store.
func (s *subscribers) notify(changes []Change) {
	s.mu.Lock()
	ids := make([]int, 0, len(s.fns))
	for id := range s.fns {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(Change), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.fns[id])
	}
	s.mu.Unlock()

	for _, c := range changes {
		for _, fn := range fns {
			fn(c)
		}
	}
}
