package credential

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps the sign-in in process memory. It is the default
// backend; a restart signs the user out.
type MemoryStore struct {
	mutex sync.RWMutex
	creds *Credentials
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) Put(_ context.Context, creds Credentials) error {
	if creds.CreatedAt.IsZero() {
		creds.CreatedAt = s.now()
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.creds = &creds
	return nil
}

func (s *MemoryStore) Get(_ context.Context) (Credentials, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.creds == nil || s.now().After(s.creds.ExpiresAt()) {
		return Credentials{}, ErrNoCredentials
	}
	return *s.creds, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.creds = nil
	return nil
}
