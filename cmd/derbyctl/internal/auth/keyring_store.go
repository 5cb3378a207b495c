package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeremysavoy/derby-director/pkg/sdk"
	"github.com/zalando/go-keyring"
)

// KeyringService is the service name credentials are filed under in the OS keychain.
const KeyringService = "Derby Director"

// KeyringStore keeps credentials in the operating system's credential store.
type KeyringStore struct {
	profile string
}

var _ Store = (*KeyringStore)(nil)

// NewKeyringStore creates a KeyringStore whose entries are scoped to profile.
func NewKeyringStore(profile string) *KeyringStore {
	return &KeyringStore{profile: profile}
}

func (s *KeyringStore) user(key string) string {
	return s.profile + ":" + key
}

func (s *KeyringStore) Get(_ context.Context, key string) (string, error) {
	v, err := keyring.Get(KeyringService, s.user(key))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", sdk.ErrTokenNotFound
		}
		return "", fmt.Errorf("failed to read from system credential store: %w", err)
	}
	return v, nil
}

func (s *KeyringStore) Set(_ context.Context, key, value string) error {
	if err := keyring.Set(KeyringService, s.user(key), value); err != nil {
		return fmt.Errorf("failed to write to system credential store: %w", err)
	}
	return nil
}

func (s *KeyringStore) Delete(_ context.Context, key string) error {
	err := keyring.Delete(KeyringService, s.user(key))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete from system credential store: %w", err)
	}
	return nil
}

func (s *KeyringStore) Close() error { return nil }
