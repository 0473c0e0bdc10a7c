package consent

import (
	"context"
	"sync"

	"drivelog/pkg/domain"
)

type edgeKey struct {
	kind    EdgeKind
	subject domain.Identity
	reader  domain.Identity
}

type InMemoryStore struct {
	mu    sync.RWMutex
	edges map[edgeKey]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{edges: make(map[edgeKey]struct{})}
}

func (s *InMemoryStore) Set(_ context.Context, kind EdgeKind, subject, reader domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges[edgeKey{kind, subject, reader}] = struct{}{}
	return nil
}

func (s *InMemoryStore) Clear(_ context.Context, kind EdgeKind, subject, reader domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.edges, edgeKey{kind, subject, reader})
	return nil
}

func (s *InMemoryStore) Has(_ context.Context, kind EdgeKind, subject, reader domain.Identity) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.edges[edgeKey{kind, subject, reader}]
	return ok, nil
}
