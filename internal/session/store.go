package session

import (
	"sync"
	"time"
)

// Tokens is the persisted form of a session. A zero ExpiresAt means the entry
// lives until the manager is closed.
type Tokens struct {
	Access    string    `json:"access"`
	Refresh   string    `json:"refresh"`
	Remember  bool      `json:"remember"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (t Tokens) empty() bool {
	return t.Access == "" && t.Refresh == ""
}

func (t Tokens) expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// Store is durable token storage that may be shared with other processes.
// Load on an empty store returns zero Tokens and no error.
type Store interface {
	Load() (Tokens, error)
	Save(t Tokens) error
	Clear() error
}

type MemoryStore struct {
	mu     sync.Mutex
	tokens Tokens
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() (Tokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tokens, nil
}

func (s *MemoryStore) Save(t Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens = t

	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens = Tokens{}

	return nil
}
