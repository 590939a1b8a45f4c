package decision

import (
	"context"
	"sync"

	id "restgate/pkg/domain"
	"restgate/pkg/platform/sentinel"
)

// InMemoryStore keeps the latest record per subject behind a RWMutex.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.Identity]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[id.Identity]Record)}
}

func (s *InMemoryStore) Save(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Subject] = record
	return nil
}

func (s *InMemoryStore) Latest(_ context.Context, subject id.Identity) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[subject]
	if !ok {
		return Record{}, sentinel.ErrNotFound
	}
	return record, nil
}
