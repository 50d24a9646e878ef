// Package cache is the public, sharded facade over internal/clockpro: a
// weight-bounded, in-memory cache keyed by (key, version) pairs and backed by
// a modified CLOCK-Pro eviction engine.
//
// A Cache is split into N independent shards, each owning its own
// clockpro.Core, to keep lock contention off the hot path. Shard routing is
// computed once per call from a single cache-wide hash so that the same
// (key, version) pair always lands on the same shard regardless of which
// operation is used to reach it.
//
// © 2025 arcclock authors. MIT License.
package cache
