package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeremysavoy/derby-director/pkg/sdk"
	"github.com/redis/go-redis/v9"
)

// Store kinds accepted by OpenStore.
const (
	StoreFile    = "file"
	StoreKeyring = "keyring"
	StoreSQLite  = "sqlite"
	StoreRedis   = "redis"
	StoreMemory  = "memory"
)

// StoreKinds lists every supported store kind.
var StoreKinds = []string{StoreFile, StoreKeyring, StoreSQLite, StoreRedis, StoreMemory}

// Store is a TokenStore owning resources that must be released.
type Store interface {
	sdk.TokenStore
	Close() error
}

// StoreOptions selects and configures a Store.
type StoreOptions struct {
	Kind string
	// Dir holds file and sqlite stores. Defaults to ~/.derby.
	Dir string
	// Profile namespaces keys so several servers can share one backend.
	Profile string
	// RedisURL is a redis:// URL, required for the redis store.
	RedisURL string
}

// OpenStore opens the Store described by opts. An empty kind opens the file store.
func OpenStore(opts StoreOptions) (Store, error) {
	if opts.Profile == "" {
		opts.Profile = "default"
	}

	switch strings.ToLower(opts.Kind) {
	case "", StoreFile:
		dir, err := storeDir(opts.Dir)
		if err != nil {
			return nil, err
		}
		return NewFileStore(filepath.Join(dir, opts.Profile+"-"+credentialsFile)), nil
	case StoreKeyring:
		return NewKeyringStore(opts.Profile), nil
	case StoreSQLite:
		dir, err := storeDir(opts.Dir)
		if err != nil {
			return nil, err
		}
		return NewSQLiteStore(filepath.Join(dir, "credentials.db"), opts.Profile)
	case StoreRedis:
		if opts.RedisURL == "" {
			return nil, fmt.Errorf("redis store requires a redis URL")
		}
		redisOpts, err := redis.ParseURL(opts.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis URL: %w", err)
		}
		return NewRedisStore(redis.NewClient(redisOpts), "derby:"+opts.Profile), nil
	case StoreMemory:
		return memoryStore{sdk.NewMemoryStore()}, nil
	default:
		return nil, fmt.Errorf("unknown credential store %q (expected one of %s)", opts.Kind, strings.Join(StoreKinds, ", "))
	}
}

// DefaultDir returns ~/.derby, creating it when missing.
func DefaultDir() (string, error) {
	return storeDir("")
}

func storeDir(dir string) (string, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		dir = filepath.Join(home, ".derby")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	return dir, nil
}

type memoryStore struct {
	*sdk.MemoryStore
}

func (memoryStore) Close() error { return nil }
