package store

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/guarzo/repolookup/common"
)

const cleanupInterval = 10 * time.Minute

var (
	_ common.CacheRepository = (*MemoryStore)(nil)
	_ common.PairSetter      = (*MemoryStore)(nil)
)

// MemoryStore is an in-process session store. Every entry expires sessionTTL
// after it was last written; a non-positive TTL keeps entries for the life of
// the process.
type MemoryStore struct {
	mu    sync.RWMutex
	cache *cache.Cache
}

func NewMemoryStore(sessionTTL time.Duration) *MemoryStore {
	exp := sessionTTL
	if exp <= 0 {
		exp = cache.NoExpiration
	}
	return &MemoryStore{
		cache: cache.New(exp, cleanupInterval),
	}
}

func (m *MemoryStore) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, found := m.cache.Get(key)
	if !found {
		return nil, false
	}
	b, ok := value.([]byte)
	return b, ok
}

func (m *MemoryStore) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Set(key, value, cache.DefaultExpiration)
}

func (m *MemoryStore) SetPair(key1 string, value1 []byte, key2 string, value2 []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Set(key1, value1, cache.DefaultExpiration)
	m.cache.Set(key2, value2, cache.DefaultExpiration)
}

func (m *MemoryStore) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Delete(key)
}

// Flush clears the whole session.
func (m *MemoryStore) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Flush()
}
