package memory

import (
	"context"
	"sync"

	"github.com/oksasatya/go-ddd-library/internal/domain/repository"
)

// Store keeps collections in process memory. It backs the demo mode and
// the tests; contents are lost on restart.
type Store struct {
	mu   sync.RWMutex
	data map[repository.CollectionKey][]byte
}

func NewStore() *Store {
	return &Store{data: make(map[repository.CollectionKey][]byte)}
}

func (s *Store) Read(_ context.Context, key repository.CollectionKey) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out, nil
}

func (s *Store) Write(_ context.Context, key repository.CollectionKey, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)
	s.mu.Lock()
	s.data[key] = buf
	s.mu.Unlock()
	return nil
}

var _ repository.CollectionStore = (*Store)(nil)
