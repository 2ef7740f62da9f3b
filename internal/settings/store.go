package settings

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store is a backend for the configuration surface. Values is called once per
// decision and must reflect writes made since the previous call.
type Store interface {
	Values(ctx context.Context) (Values, error)
	Set(ctx context.Context, key, value string) error
}

// Load reads and parses the current settings from a store.
func Load(ctx context.Context, s Store) (*Settings, error) {
	v, err := s.Values(ctx)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	return Parse(v)
}

// DefaultPath returns ~/.offhours/settings.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "settings.yaml"
	}
	return filepath.Join(home, ".offhours", "settings.yaml")
}

// Open selects a backend from a DSN.
//
//	""               YAML file at DefaultPath
//	"sqlite://PATH"  SQLite key/value table
//	"memory://"      process-local map
//	anything else    YAML file at that path
func Open(dsn string) (Store, error) {
	switch {
	case dsn == "":
		return NewFileStore(DefaultPath()), nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return OpenSQLite(strings.TrimPrefix(dsn, "sqlite://"))
	case strings.HasPrefix(dsn, "memory://"):
		return NewMemoryStore(nil), nil
	default:
		return NewFileStore(strings.TrimPrefix(dsn, "file://")), nil
	}
}

// MemoryStore keeps settings in a map. Safe for concurrent use.
type MemoryStore struct {
	mu     sync.RWMutex
	values Values
}

// NewMemoryStore copies initial into a new store.
func NewMemoryStore(initial Values) *MemoryStore {
	m := &MemoryStore{values: Values{}}
	for k, v := range initial {
		m.values[k] = v
	}
	return m
}

func (m *MemoryStore) Values(ctx context.Context) (Values, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(Values, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryStore) Set(ctx context.Context, key, value string) error {
	if err := Validate(key, value); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
