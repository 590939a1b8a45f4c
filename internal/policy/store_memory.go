package policy

import (
	"context"
	"sync"

	id "restgate/pkg/domain"
)

// InMemoryStore holds the singleton policy state behind a RWMutex. Default
// store for tests and single-node deployments.
type InMemoryStore struct {
	mu     sync.RWMutex
	policy Policy
	admin  id.Identity
}

// NewInMemoryStore creates the store with the deploying identity as the
// initial administrator and no policy configured.
func NewInMemoryStore(admin id.Identity) *InMemoryStore {
	return &InMemoryStore{admin: admin}
}

func (s *InMemoryStore) Policy(_ context.Context) (Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy, nil
}

func (s *InMemoryStore) SetPolicy(_ context.Context, p Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy = p
	return nil
}

func (s *InMemoryStore) Administrator(_ context.Context) (id.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admin, nil
}

func (s *InMemoryStore) SetAdministrator(_ context.Context, admin id.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admin = admin
	return nil
}
