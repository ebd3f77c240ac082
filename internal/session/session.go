// Package session holds the panel bearer token and persists it across runs.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// tokenKey is the single key the store persists.
const tokenKey = "token"

// ErrEmptyToken is returned by Set when given an empty or blank token.
var ErrEmptyToken = errors.New("session: empty token")

// Backend is durable key-value storage for the session.
// Get returns "", nil when the key is absent.
type Backend interface {
	Get(key string) (string, error)
	Put(key, value string) error
	Delete(key string) error
}

// Store holds one opaque bearer token in memory and mirrors it to a Backend.
// The token is never parsed or inspected.
type Store struct {
	mu      sync.RWMutex
	token   string
	backend Backend
}

// New creates a Store over backend. Call Load to pick up a persisted token.
func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// Load reads the persisted token into memory and returns it.
func (s *Store) Load() (string, error) {
	tok, err := s.backend.Get(tokenKey)
	if err != nil {
		return "", fmt.Errorf("session.Load: %w", err)
	}
	s.mu.Lock()
	s.token = tok
	s.mu.Unlock()
	return tok, nil
}

// Set stores token in memory and durable storage. Surrounding whitespace is
// dropped so the token reads back unchanged from a file backend.
func (s *Store) Set(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrEmptyToken
	}
	if err := s.backend.Put(tokenKey, token); err != nil {
		return fmt.Errorf("session.Set: %w", err)
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

// Clear removes the token from memory and durable storage. The in-memory
// token is dropped even when the backend fails.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	if err := s.backend.Delete(tokenKey); err != nil {
		return fmt.Errorf("session.Clear: %w", err)
	}
	return nil
}

// Token returns the in-memory token, or "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Has reports whether a token is held.
func (s *Store) Has() bool {
	return s.Token() != ""
}

// MemoryBackend keeps values in process memory only.
type MemoryBackend struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{values: make(map[string]string)}
}

func (b *MemoryBackend) Get(key string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.values[key], nil
}

func (b *MemoryBackend) Put(key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = value
	return nil
}

func (b *MemoryBackend) Delete(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.values, key)
	return nil
}
