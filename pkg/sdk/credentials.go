package sdk

import (
	"context"
	"sync"
)

// TokenKey is the fixed key under which the session credential is persisted.
const TokenKey = "token"

// Credentials is the body returned by the login endpoint.
// Older servers send the credential as "token" instead of "access_token".
type Credentials struct {
	AccessToken string `json:"access_token,omitempty"`
	Token       string `json:"token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
}

// Credential returns the issued credential, preferring access_token.
func (c *Credentials) Credential() string {
	if c.AccessToken != "" {
		return c.AccessToken
	}
	return c.Token
}

// TokenStore is the client-side key-value store holding the session credential.
// Get returns ErrTokenNotFound when key is absent. Delete of an absent key is not an error.
type TokenStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// MemoryStore is an in-process TokenStore. It backs ephemeral sessions and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ TokenStore = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", ErrTokenNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
