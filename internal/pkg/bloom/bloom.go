// Package bloom implements a redis-backed bloom filter. The moderation core
// uses it as a cheap membership prefilter in front of the verdict cache, so
// texts that were never classified cost one bitset probe instead of a cache
// round trip.
package bloom

import (
	"context"
	"errors"

	"biolinkbot/internal/pkg/hash"
	"biolinkbot/internal/pkg/redis"
)

// ErrTooLargeOffset indicates a bit offset beyond the filter size.
var ErrTooLargeOffset = errors.New("too large offset")

// Filter represents a bloom filter over a redis bitset.
type Filter struct {
	bitSet         bitSetProvider
	bits           uint
	kHashFunctions uint
}

// New creates a bloom filter stored under key with the given size and hash
// function count.
func New(store redis.Cache, key string, bits uint, kHashFunctions uint) *Filter {
	return &Filter{
		bits:           bits,
		bitSet:         newRedisBitSet(store, key, bits),
		kHashFunctions: kHashFunctions,
	}
}

// getLocations computes the bit locations for the given data.
func (f *Filter) getLocations(data []byte) []uint {
	locations := make([]uint, f.kHashFunctions)
	for i := uint(0); i < f.kHashFunctions; i++ {
		hashVal := hash.Hash(append(data, byte(i)))
		locations[i] = uint(hashVal % uint64(f.bits))
	}
	return locations
}

// Add adds the given data to the filter.
func (f *Filter) Add(ctx context.Context, data []byte) error {
	return f.bitSet.set(ctx, f.getLocations(data))
}

// Exists reports whether data may be in the filter. False positives are
// possible, false negatives are not.
func (f *Filter) Exists(ctx context.Context, data []byte) (bool, error) {
	return f.bitSet.check(ctx, f.getLocations(data))
}

// Reset drops the whole bitset.
func (f *Filter) Reset(ctx context.Context) error {
	return f.bitSet.del(ctx)
}
