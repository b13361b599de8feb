package identity

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned when no credential of the requested kind is stored.
var ErrNotFound = errors.New("identity: credential not found")

// ErrNotLoggedIn is returned by operations that need a stored token.
var ErrNotLoggedIn = errors.New("identity: not logged in")

// Store persists the bearer token and the cached profile.
type Store interface {
	LoadToken(ctx context.Context) (string, error)
	SaveToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
	LoadProfile(ctx context.Context) ([]byte, error)
	SaveProfile(ctx context.Context, profile []byte) error
	ClearProfile(ctx context.Context) error
}

// MemoryStore keeps credentials for a single in-process session.
type MemoryStore struct {
	mu      sync.Mutex
	token   string
	profile []byte
}

// NewMemoryStore returns a store seeded with token ("" for none).
func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

func (m *MemoryStore) LoadToken(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return "", ErrNotFound
	}
	return m.token, nil
}

func (m *MemoryStore) SaveToken(_ context.Context, token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) ClearToken(context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) LoadProfile(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.profile) == 0 {
		return nil, ErrNotFound
	}
	return append([]byte(nil), m.profile...), nil
}

func (m *MemoryStore) SaveProfile(_ context.Context, profile []byte) error {
	m.mu.Lock()
	m.profile = append([]byte(nil), profile...)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) ClearProfile(context.Context) error {
	m.mu.Lock()
	m.profile = nil
	m.mu.Unlock()
	return nil
}
