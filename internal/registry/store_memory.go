package registry

import (
	"context"
	"sync"
	"time"

	"drivelog/pkg/domain"
)

type InMemoryStore struct {
	mu          sync.RWMutex
	assignments map[domain.Identity]Assignment
	attributes  map[domain.Identity]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		assignments: make(map[domain.Identity]Assignment),
		attributes:  make(map[domain.Identity]string),
	}
}

func (s *InMemoryStore) SetRole(_ context.Context, reader domain.Identity, role Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments[reader] = Assignment{Reader: reader, Role: role, UpdatedAt: time.Now().UTC()}
	return nil
}

func (s *InMemoryStore) RoleOf(_ context.Context, reader domain.Identity) (Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.assignments[reader].Role, nil
}

func (s *InMemoryStore) SetAttribute(_ context.Context, subject domain.Identity, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attributes[subject] = value
	return nil
}

func (s *InMemoryStore) AttributeOf(_ context.Context, subject domain.Identity) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.attributes[subject], nil
}
