package cache

// hash.go centralises the one hash function the cache uses both to route a
// (key, version) pair to a shard and as the clockpro.Core lookup hash. The
// hash-function choice itself is out of scope for the eviction policy (the
// core only ever sees a uint64); this file supplies the default, and
// WithHasher lets a caller swap it for a domain-specific one (e.g. one that
// incorporates an external checksum).
//
// © 2025 arcclock authors. MIT License.

import (
	"hash/maphash"
	"unsafe"

	"github.com/arcclock/arcclock/internal/unsafehelpers"
)

// Hasher computes the combined hash of a key and its version. Implementations
// must be pure and must not retain key or ver beyond the call.
type Hasher[K comparable, Ver comparable] func(key K, ver Ver) uint64

// writeValue feeds v's bytes into h. Strings and []byte are written directly;
// everything else falls back to an unsafe view of the value's own storage.
func writeValue[T any](h *maphash.Hash, v T) {
	switch x := any(v).(type) {
	case string:
		h.WriteString(x)
	case []byte:
		h.Write(x)
	default:
		ptr := unsafe.Pointer(&v)
		size := unsafe.Sizeof(v)
		h.Write(unsafehelpers.ByteSliceFrom(ptr, size))
	}
}

// newDefaultHasher returns a Hasher seeded once at Cache construction time
// and shared by every shard, so that routing and in-shard hashing always
// agree on the same value for a given (key, ver).
func newDefaultHasher[K comparable, Ver comparable](seed maphash.Seed) Hasher[K, Ver] {
	return func(key K, ver Ver) uint64 {
		var h maphash.Hash
		h.SetSeed(seed)
		writeValue(&h, key)
		writeValue(&h, ver)
		return h.Sum64()
	}
}
