package cache

import (
	"time"

	"github.com/goliatone/go-careteam-sync/internal/cacheinfra"
)

// Config exposes engine configuration options for consumers of the cache package.
type Config struct {
	// Capacity bounds how many unused entries are retained.
	Capacity int
	// NumShards for the retained store.
	NumShards int
	// KeepUnusedDataFor is how long an entry survives after its last
	// subscriber leaves. A subscription arriving within this window is
	// served from cache.
	KeepUnusedDataFor  time.Duration
	EvictionPercentage int
	EvictionInterval   time.Duration
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	return convertFromInternal(cacheinfra.DefaultConfig())
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return c.toInternal().Validate()
}

func (c Config) toInternal() cacheinfra.Config {
	return cacheinfra.Config{
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		TTL:                c.KeepUnusedDataFor,
		EvictionPercentage: c.EvictionPercentage,
		EvictionInterval:   c.EvictionInterval,
	}
}

func convertFromInternal(cfg cacheinfra.Config) Config {
	return Config{
		Capacity:           cfg.Capacity,
		NumShards:          cfg.NumShards,
		KeepUnusedDataFor:  cfg.TTL,
		EvictionPercentage: cfg.EvictionPercentage,
		EvictionInterval:   cfg.EvictionInterval,
	}
}
