// Package session stores the Sight authentication token.
// Tokens can live in process memory or in Redis, where they are shared by
// every client instance pointing at the same Redis database.
package session

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
)

// ErrNoToken is returned when no token has been stored yet.
var ErrNoToken = errors.New("no session token")

// Store holds the token sent with every authenticated request.
type Store interface {
	// Token returns the current token or ErrNoToken.
	Token(ctx context.Context) (string, error)

	// SetToken replaces the current token.
	SetToken(ctx context.Context, token string) error

	// Clear removes the current token.
	Clear(ctx context.Context) error
}

// MemoryStore keeps the token in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Token implements Store.
func (s *MemoryStore) Token(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" {
		return "", ErrNoToken
	}
	return s.token, nil
}

// SetToken implements Store.
func (s *MemoryStore) SetToken(_ context.Context, token string) error {
	if token == "" {
		return errors.New("token cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
