package cache

// loader.go implements the singleflight-based de-duplication layer behind
// Cache.GetOrLoad: when many goroutines miss on the same key concurrently,
// only one of them actually runs the LoaderFunc, and all of them observe the
// same result.
//
// singleflight keys on a string, so the pre-computed 64-bit hash is
// formatted once per call; this trades a small allocation for not requiring
// K to be usable as a map key in a second, independent map.
//
// © 2025 arcclock authors. MIT License.

import (
	"context"
	"strconv"

	"golang.org/x/sync/singleflight"
)

type loaderGroup[K comparable, Ver comparable, V any] struct {
	g singleflight.Group
}

func newLoaderGroup[K comparable, Ver comparable, V any]() *loaderGroup[K, Ver, V] {
	return &loaderGroup[K, Ver, V]{}
}

// load runs fn exactly once per outstanding hash across all callers. Every
// waiter receives the same value/error; shared reports whether this call
// received a result computed by another goroutine rather than running fn
// itself.
func (lg *loaderGroup[K, Ver, V]) load(ctx context.Context, hash uint64, key K, ver Ver, fn LoaderFunc[K, Ver, V]) (val V, err error, shared bool) {
	k := strconv.FormatUint(hash, 16)
	res, err, shared := lg.g.Do(k, func() (any, error) {
		return fn(ctx, key, ver)
	})
	if err != nil {
		var zero V
		return zero, err, shared
	}
	return res.(V), nil, shared
}
