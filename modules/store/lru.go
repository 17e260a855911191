package store

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/guarzo/repolookup/common"
)

var (
	_ common.CacheRepository = (*LRUStore)(nil)
	_ common.PairSetter      = (*LRUStore)(nil)
)

// LRUStore is a bounded session store. Least recently used keys are dropped
// once size entries are held; all entries expire after sessionTTL.
type LRUStore struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, []byte]
}

func NewLRUStore(size int, sessionTTL time.Duration) *LRUStore {
	return &LRUStore{
		cache: expirable.NewLRU[string, []byte](size, nil, sessionTTL),
	}
}

func (l *LRUStore) Get(key string) ([]byte, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cache.Get(key)
}

func (l *LRUStore) Set(key string, value []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache.Add(key, value)
}

func (l *LRUStore) SetPair(key1 string, value1 []byte, key2 string, value2 []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache.Add(key1, value1)
	l.cache.Add(key2, value2)
}

func (l *LRUStore) Delete(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache.Remove(key)
}

// Len reports the number of live entries.
func (l *LRUStore) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cache.Len()
}
