package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"claimcheck/internal/model"
)

// Cache defines the interface for result caching. Expiry is evaluated at
// read time: an expired entry is absent, not an error. Implementations are
// never a source of truth - a miss means "recompute".
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a cache key from normalized claim text
func Key(normalizedClaim string) string {
	hash := sha256.Sum256([]byte(normalizedClaim))
	return "claimcheck:v1:" + hex.EncodeToString(hash[:])
}

// New creates a cache backend from configuration. A disabled cache returns
// nil, which the ResultStore treats as always-miss.
func New(cfg model.CacheConfig) (Cache, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	switch cfg.Backend {
	case "", "memory":
		return NewMemoryCache(cfg.TTL, 10*time.Minute), nil
	case "disk":
		return NewDiskCache(cfg.Dir, cfg.TTL), nil
	case "redis":
		return NewRedisCache(cfg.Redis, cfg.TTL), nil
	case "layered":
		return NewLayeredCache(cfg.TTL, cfg.Dir, cfg.TTL), nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s (supported: memory, disk, redis, layered)", cfg.Backend)
	}
}
