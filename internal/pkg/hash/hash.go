// Package hash provides the hashing helpers used by the verdict cache and
// its bloom prefilter.
package hash

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
)

// Hash returns the murmur3 hash of data; used for bloom bit locations.
func Hash(data []byte) uint64 {
	return murmur3.Sum64(data)
}

// HashTextSha256 returns the hex sha256 of s; used as the stable content key
// for cached verdicts.
func HashTextSha256(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// FastHash returns an 8-byte xxhash of s; used for cheap bloom membership
// probes before touching the cache.
func FastHash(s string) []byte {
	h := xxhash.Sum64String(s)
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, h)
	return buf
}
