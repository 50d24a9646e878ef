package cache

// loaderfunc.go defines LoaderFunc, the caller-supplied callback that
// produces a value when Cache.GetOrLoad misses.
//
// • The function must not call back into the same Cache it serves, or
//   deadlock / inconsistent state may occur.
// • It should honour the provided context for cancellation and deadlines.
// • If it returns an error, nothing is inserted and the error propagates to
//   every waiter of GetOrLoad's singleflight call.
//
// © 2025 arcclock authors. MIT License.

import "context"

// LoaderFunc is invoked by GetOrLoad when a (key, version) pair is absent.
// The same instance may be invoked concurrently for different keys and must
// be safe for that.
type LoaderFunc[K comparable, Ver comparable, V any] func(ctx context.Context, key K, ver Ver) (V, error)
