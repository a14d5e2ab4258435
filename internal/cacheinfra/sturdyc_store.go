package cacheinfra

import (
	"time"

	"github.com/viccon/sturdyc"
)

// Config holds the configuration for the sturdyc-backed retained store.
// Entries land in the store once their last subscriber leaves and stay
// there until TTL elapses or capacity pressure evicts them.
type Config struct {
	// Capacity defines the maximum number of retained entries.
	// Must be greater than 0.
	Capacity int

	// NumShards determines the number of cache shards for concurrent access.
	// Must be greater than 0. Default: 64
	NumShards int

	// TTL is how long an unused entry is kept before it is dropped.
	// Must be greater than 0.
	TTL time.Duration

	// EvictionPercentage specifies what percentage of entries to evict
	// when the store reaches its capacity. Must be between 1-100.
	EvictionPercentage int

	// EvictionInterval sets how often the store checks for expired entries.
	// Zero value uses the sturdyc default.
	EvictionInterval time.Duration
}

// DefaultConfig returns a Config with sensible defaults for a single dashboard client.
func DefaultConfig() Config {
	return Config{
		Capacity:           1000,
		NumShards:          64,
		TTL:                60 * time.Second,
		EvictionPercentage: 10,
		EvictionInterval:   0, // Use default
	}
}

// ToSturdycOptions converts the Config to sturdyc.Option slice.
// Capacity, NumShards, TTL, and EvictionPercentage are passed directly
// to sturdyc.New() and are not included in the options.
func (c Config) ToSturdycOptions() []sturdyc.Option {
	var options []sturdyc.Option

	if c.EvictionInterval > 0 {
		options = append(options, sturdyc.WithEvictionInterval(c.EvictionInterval))
	}

	return options
}

// Validate checks if the configuration values are valid.
func (c Config) Validate() error {
	if c.Capacity <= 0 {
		return &ConfigError{Field: "Capacity", Message: "must be greater than 0"}
	}

	if c.NumShards <= 0 {
		return &ConfigError{Field: "NumShards", Message: "must be greater than 0"}
	}

	if c.TTL <= 0 {
		return &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	}

	if c.EvictionPercentage < 1 || c.EvictionPercentage > 100 {
		return &ConfigError{Field: "EvictionPercentage", Message: "must be between 1 and 100"}
	}

	if c.EvictionInterval < 0 {
		return &ConfigError{Field: "EvictionInterval", Message: "must be non-negative"}
	}

	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "config error in field " + e.Field + ": " + e.Message
}

// RetainedStore keeps values that no longer have an owner until they expire.
// It is a thin wrapper over a sturdyc client; callers are expected to
// serialize access to the values themselves.
type RetainedStore[V any] struct {
	client *sturdyc.Client[V]
}

// NewRetainedStore validates cfg and initializes the underlying sturdyc client.
//
// Version compatibility note: This implementation assumes sturdyc v1.x API.
func NewRetainedStore[V any](cfg Config) (*RetainedStore[V], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[V](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &RetainedStore[V]{client: client}, nil
}

// Put stores value under key, replacing any previous value and resetting its TTL.
func (s *RetainedStore[V]) Put(key string, value V) {
	s.client.Set(key, value)
}

// Peek returns the value stored under key without removing it.
func (s *RetainedStore[V]) Peek(key string) (V, bool) {
	return s.client.Get(key)
}

// Take removes and returns the value stored under key.
func (s *RetainedStore[V]) Take(key string) (V, bool) {
	value, ok := s.client.Get(key)
	if ok {
		s.client.Delete(key)
	}
	return value, ok
}

// Delete removes key from the store.
func (s *RetainedStore[V]) Delete(key string) {
	s.client.Delete(key)
}

// Range calls fn for every live value. Iteration stops when fn returns false.
// Keys that expire between the scan and the lookup are skipped.
func (s *RetainedStore[V]) Range(fn func(key string, value V) bool) {
	for _, key := range s.client.ScanKeys() {
		value, ok := s.client.Get(key)
		if !ok {
			continue
		}
		if !fn(key, value) {
			return
		}
	}
}

// Len returns the number of keys currently held.
func (s *RetainedStore[V]) Len() int {
	return len(s.client.ScanKeys())
}

// Clear drops every retained value.
func (s *RetainedStore[V]) Clear() {
	for _, key := range s.client.ScanKeys() {
		s.client.Delete(key)
	}
}
