// Package session persists the logged-in identity between runs.
//
// A Storage is a flat string key/value space. Store binds one to the
// careteamMember key and handles the JSON encoding of the identity.
package session

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/puzpuzpuz/xsync/v3"
)

// Storage is a persistent string key/value space.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// MemoryStorage keeps values for the lifetime of the process.
type MemoryStorage struct {
	values *xsync.MapOf[string, string]
}

// NewMemoryStorage creates an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: xsync.NewMapOf[string, string]()}
}

func (s *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := s.values.Load(key)
	return v, ok, nil
}

func (s *MemoryStorage) Set(_ context.Context, key, value string) error {
	s.values.Store(key, value)
	return nil
}

func (s *MemoryStorage) Remove(_ context.Context, key string) error {
	s.values.Delete(key)
	return nil
}

func storageError(err error, op, key string) error {
	return errors.Wrap(err, errors.CategoryExternal, "session storage "+op+" failed").
		WithTextCode("SESSION_STORAGE").
		WithMetadata(map[string]any{"key": key})
}
