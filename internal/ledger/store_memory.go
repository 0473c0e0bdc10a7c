package ledger

import (
	"context"
	"sync"
	"time"

	"drivelog/pkg/domain"
)

// InMemoryStore keeps each subject's records in a slice; the slice index is
// the sequence id, which makes density a structural property.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[domain.Identity][]EventRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[domain.Identity][]EventRecord)}
}

func (s *InMemoryStore) Append(_ context.Context, subject domain.Identity, attribute string, class EventClass, ts time.Time) (EventRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := EventRecord{
		Subject:           subject,
		AttributeSnapshot: attribute,
		Class:             class,
		Timestamp:         ts,
		SequenceID:        uint64(len(s.records[subject])),
	}
	s.records[subject] = append(s.records[subject], record)
	return record, nil
}

func (s *InMemoryStore) Count(_ context.Context, subject domain.Identity) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.records[subject])), nil
}

func (s *InMemoryStore) Page(_ context.Context, subject domain.Identity, offset, limit uint64) ([]EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.records[subject]
	count := uint64(len(all))
	if offset >= count || limit == 0 {
		return []EventRecord{}, nil
	}
	// Clamp before adding: offset+limit can wrap uint64 for huge limits.
	end := count
	if limit < count-offset {
		end = offset + limit
	}
	return append([]EventRecord{}, all[offset:end]...), nil
}
