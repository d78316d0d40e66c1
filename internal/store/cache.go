package store

import lru "github.com/hashicorp/golang-lru/v2"

// blockCache is a read-through cache of the decompressed, locally stored
// blocks of the Store it is attached to. The dependency Stores a Store opens
// for its chain are opened without a cache, so back-referenced blocks are
// not cached. Keys carry the originating Store pointer so one cache can safely be
// shared across several stores without collisions.
type blockCache struct {
	lru *lru.Cache[cacheKey, []byte]
}

type cacheKey struct {
	store *Store
	block int64
}

// NewCache creates a cache holding up to capacity decompressed blocks.
func NewCache(capacity int) (*blockCache, error) {
	l, err := lru.New[cacheKey, []byte](capacity)
	if err != nil {
		return nil, formatErrorf("create block cache: %w", err)
	}
	return &blockCache{lru: l}, nil
}

func (c *blockCache) get(s *Store, block int64) ([]byte, bool) {
	return c.lru.Get(cacheKey{s, block})
}

func (c *blockCache) put(s *Store, block int64, data []byte) {
	cp := make([]byte, len(data))
	copy(cp, data)
	c.lru.Add(cacheKey{s, block}, cp)
}
