package store

import "github.com/cespare/xxhash/v2"

// Hasher computes a one-byte probabilistic content hash used as a cheap
// dedup probe. Collisions are expected and handled by the dedup path
// comparing full block contents before committing to a back-reference.
type Hasher interface {
	Hash(block []byte) uint8
}

// xxhashProbe truncates a full 64-bit xxhash sum to its low byte.
type xxhashProbe struct{}

func (xxhashProbe) Hash(block []byte) uint8 {
	return uint8(xxhash.Sum64(block))
}
