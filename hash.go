package hashring

import (
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// SaltScheme identifies the way virtual node positions are derived from node
// ids. Rings built with different schemes are not compatible.
const SaltScheme = 1

// HashFunc maps arbitrary bytes to a position on the ring.
// It must be deterministic and stable across process restarts.
type HashFunc func([]byte) uint64

// DefaultHash is a 64-bit xxhash digest of p.
func DefaultHash(p []byte) uint64 {
	return xxhash.Sum64(p)
}

// pointKey returns hash input for index-th virtual node of node id.
// Zero salt means the first attempt and is not encoded.
func pointKey(id string, index, salt int) []byte {
	p := make([]byte, 0, len(id)+24)
	p = append(p, id...)
	p = append(p, ':')
	p = strconv.AppendInt(p, int64(index), 10)
	if salt > 0 {
		p = append(p, ':')
		p = strconv.AppendInt(p, int64(salt), 10)
	}
	return p
}
