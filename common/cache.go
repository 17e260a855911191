package common

// CacheRepository defines a minimal interface for a session-scoped key/value
// store. The values are stored as raw []byte, which you can marshal/unmarshal
// from JSON or other formats as needed.
//
// Entries live as long as the session the store was created for; there is no
// per-key expiration. Time-based validity is layered on top by callers that
// store their own timestamps.
//
// For example, you could back this with:
//   - an in-memory map
//   - Redis
//   - a bounded LRU
type CacheRepository interface {
	Get(key string) (value []byte, found bool)
	Set(key string, value []byte)
	Delete(key string)
}

// PairSetter is implemented by stores that can write two keys as one unit,
// so a reader never observes one without the other.
type PairSetter interface {
	SetPair(key1 string, value1 []byte, key2 string, value2 []byte)
}

// SetPair writes both keys, atomically when the store supports it. Without
// PairSetter the second key is written first; callers treat a lone second key
// as absent.
func SetPair(cache CacheRepository, key1 string, value1 []byte, key2 string, value2 []byte) {
	if ps, ok := cache.(PairSetter); ok {
		ps.SetPair(key1, value1, key2, value2)
		return
	}
	cache.Set(key2, value2)
	cache.Set(key1, value1)
}
