package client

import (
	"context"

	lru "github.com/hashicorp/golang-lru"

	"github.com/drand/go-verifier/common/log"
	"github.com/drand/go-verifier/drand"
)

// Cache provides a mechanism to check for rounds in the cache.
type Cache interface {
	// TryGet provides a round beacon or nil if it is not cached.
	TryGet(round uint64) *drand.Beacon
	// Add adds an item to the cache
	Add(uint64, *drand.Beacon)
}

// makeCache creates a cache of a given size
func makeCache(size int) (Cache, error) {
	if size == 0 {
		return &nilCache{}, nil
	}
	c, err := lru.NewARC(size)
	if err != nil {
		return nil, err
	}
	return &typedCache{
		ARCCache: c,
	}, nil
}

// typedCache wraps an ARCCache containing beacons.
type typedCache struct {
	*lru.ARCCache
}

// Add a beacon to the cache
func (t *typedCache) Add(round uint64, b *drand.Beacon) {
	t.ARCCache.Add(round, b)
}

// TryGet attempts to get a beacon from the cache
func (t *typedCache) TryGet(round uint64) *drand.Beacon {
	if val, ok := t.ARCCache.Get(round); ok {
		return val.(*drand.Beacon)
	}
	return nil
}

// nilCache implements a cache with size 0
type nilCache struct{}

// Add a beacon to the cache
func (*nilCache) Add(_ uint64, _ *drand.Beacon) {
}

// TryGet attempts to get a beacon from the cache
func (*nilCache) TryGet(_ uint64) *drand.Beacon {
	return nil
}

// NewCachingSource is a meta source that stores an LRU cache of recently
// fetched beacons. Latest is always asked to the underlying source.
func NewCachingSource(l log.Logger, src drand.Source, cache Cache) drand.Source {
	return &cachingSource{
		Source: src,
		cache:  cache,
		log:    l,
	}
}

type cachingSource struct {
	drand.Source

	cache Cache
	log   log.Logger
}

// String returns the name of this source.
func (c *cachingSource) String() string {
	return "CachingSource"
}

// Latest fetches the latest beacon and remembers it by round.
func (c *cachingSource) Latest(ctx context.Context) (*drand.Beacon, error) {
	b, err := c.Source.Latest(ctx)
	if err == nil && b != nil {
		c.cache.Add(b.Round, b)
	}
	return b, err
}

// Round returns the beacon of `round` or an error.
func (c *cachingSource) Round(ctx context.Context, round uint64) (*drand.Beacon, error) {
	if b := c.cache.TryGet(round); b != nil {
		c.log.Debugw("using cached result", "round", round)
		return b, nil
	}
	b, err := c.Source.Round(ctx, round)
	if err == nil && b != nil && b.Round == round {
		c.cache.Add(round, b)
	}
	return b, err
}
