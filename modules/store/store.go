// Package store provides session-scoped CacheRepository backends.
package store

import (
	"fmt"

	"github.com/guarzo/repolookup/common"
	"github.com/guarzo/repolookup/common/config"
)

// New builds the backend named by cfg.Backend.
func New(cfg config.CacheConfig) (common.CacheRepository, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(cfg.SessionTTL), nil
	case "lru":
		if cfg.LRUSize <= 0 {
			return nil, fmt.Errorf("%w: lru size must be positive", common.ErrInvalidInput)
		}
		return NewLRUStore(cfg.LRUSize, cfg.SessionTTL), nil
	case "redis":
		return NewRedisStore(cfg.Redis, cfg.SessionTTL), nil
	default:
		return nil, fmt.Errorf("%w: unknown cache backend %q", common.ErrInvalidInput, cfg.Backend)
	}
}
