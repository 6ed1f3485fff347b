package cache

import (
	"sync"

	"github.com/drand/go-verifier/drand"
)

// MapCache is a simple cache that stores beacons in memory and counts the
// lookups it could answer.
type MapCache struct {
	sync.RWMutex
	data map[uint64]*drand.Beacon
	hits int
}

// NewMapCache creates a new in memory cache backed by a map.
func NewMapCache() *MapCache {
	return &MapCache{data: make(map[uint64]*drand.Beacon)}
}

// TryGet provides a round beacon or nil if it is not cached.
func (mc *MapCache) TryGet(round uint64) *drand.Beacon {
	mc.Lock()
	defer mc.Unlock()
	r, ok := mc.data[round]
	if !ok {
		return nil
	}
	mc.hits++
	return r
}

// Add adds an item to the cache
func (mc *MapCache) Add(round uint64, b *drand.Beacon) {
	mc.Lock()
	mc.data[round] = b
	mc.Unlock()
}

// Hits returns how many lookups found their round.
func (mc *MapCache) Hits() int {
	mc.RLock()
	defer mc.RUnlock()
	return mc.hits
}

// Len returns the number of cached rounds.
func (mc *MapCache) Len() int {
	mc.RLock()
	defer mc.RUnlock()
	return len(mc.data)
}
