package credential

import (
	"context"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

type memoryStore struct {
	mu     sync.RWMutex
	hashes map[string][]byte
	order  []string
}

// NewMemory creates an in-process credential store. Used in tests and when no
// Redis address is configured.
func NewMemory() Store {
	return &memoryStore{hashes: make(map[string][]byte)}
}

func (s *memoryStore) Enroll(_ context.Context, identifier, pin string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.hashes[identifier]; !exists {
		s.order = append(s.order, identifier)
	}
	s.hashes[identifier] = hash
	return nil
}

func (s *memoryStore) Verify(_ context.Context, identifier, pin string) (bool, error) {
	s.mu.RLock()
	hash, ok := s.hashes[identifier]
	s.mu.RUnlock()
	if !ok {
		return false, ErrNotFound
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(pin)); err != nil {
		return false, nil
	}
	return true, nil
}

func (s *memoryStore) Exists(_ context.Context, identifier string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.hashes[identifier]
	return ok, nil
}

func (s *memoryStore) Identifiers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out, nil
}
