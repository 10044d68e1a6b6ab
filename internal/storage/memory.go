package storage

import "sync"

// MemoryStore implements [Store] in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
	subs subscribers
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Get(key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *MemoryStore) Set(key string, value []byte) error {
	return s.Apply(Put(key, value))
}

func (s *MemoryStore) Delete(key string) error {
	return s.Apply(Remove(key))
}

func (s *MemoryStore) Apply(mutations ...Mutation) error {
	if len(mutations) == 0 {
		return nil
	}

	s.mu.Lock()
	for _, m := range mutations {
		if m.Delete {
			delete(s.data, m.Key)
			continue
		}
		s.data[m.Key] = append([]byte(nil), m.Value...)
	}
	s.mu.Unlock()

	s.subs.notify(changesOf(mutations))
	return nil
}

func (s *MemoryStore) Subscribe(fn func(Change)) func() {
	return s.subs.add(fn)
}

func (s *MemoryStore) Close() error { return nil }
