package utils

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

const defaultCacheTTL = 10 * time.Minute

type memEntry struct {
	value     []byte
	expiresAt time.Time
}

var (
	memCacheMu sync.RWMutex
	memCache   = map[string]memEntry{}
)

// CacheGetBytes returns cached bytes for a key from Redis, or the in-memory cache without Redis.
func CacheGetBytes(key string) ([]byte, bool) {
	rc := GetRedis()
	if rc == nil {
		memCacheMu.RLock()
		e, ok := memCache[key]
		memCacheMu.RUnlock()
		if !ok || time.Now().After(e.expiresAt) {
			return nil, false
		}
		return e.value, true
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b, err := rc.Get(ctx, key).Bytes()
	if err != nil {
		Sugar.Debugf("cache get miss key=%s err=%v", key, err)
		return nil, false
	}
	return b, true
}

// CacheSetBytes stores bytes with the given TTL (default when <= 0).
func CacheSetBytes(key string, b []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	rc := GetRedis()
	if rc == nil {
		memCacheMu.Lock()
		memCache[key] = memEntry{value: b, expiresAt: time.Now().Add(ttl)}
		memCacheMu.Unlock()
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Set(ctx, key, b, ttl).Err(); err != nil {
		Sugar.Warnf("cache set failed key=%s err=%v", key, err)
	}
}

// CacheSetJSON marshals v and stores JSON bytes.
func CacheSetJSON(key string, v interface{}, ttl time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	CacheSetBytes(key, b, ttl)
}

// InvalidateByPrefix deletes keys that match the given prefix using SCAN.
func InvalidateByPrefix(prefix string) {
	rc := GetRedis()
	if rc == nil {
		memCacheMu.Lock()
		for k := range memCache {
			if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
				delete(memCache, k)
			}
		}
		memCacheMu.Unlock()
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	var cursor uint64
	for i := 0; i < 10; i++ { // limit rounds to avoid long loops
		keys, cur, err := rc.Scan(ctx, cursor, prefix+"*", 1000).Result()
		if err != nil {
			break
		}
		cursor = cur
		if len(keys) > 0 {
			pipe := rc.Pipeline()
			for _, k := range keys {
				pipe.Del(ctx, k)
			}
			_, _ = pipe.Exec(ctx)
		}
		if cursor == 0 {
			break
		}
	}
}
