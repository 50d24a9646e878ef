package cache

// shard.go contains the sharded segment of the cache. A Cache is split into
// N independent shards to minimise lock contention; each shard owns one
// clockpro.Core and a single RWMutex protecting it.
//
// All CLOCK-Pro bookkeeping lives in internal/clockpro; this file's only job
// is to provide the critical section around it and translate its return
// values into the shapes pkg/cache.go's public API wants.
//
// © 2025 arcclock authors. MIT License.

import (
	"sync"

	"go.uber.org/zap"

	"github.com/arcclock/arcclock/internal/clockpro"
)

type shard[K comparable, Ver comparable, V any] struct {
	mu   sync.RWMutex
	core *clockpro.Core[K, Ver, V]
}

func newShard[K comparable, Ver comparable, V any](capacity uint32, weightFn WeightFn[K, Ver, V], logger *zap.Logger) *shard[K, Ver, V] {
	return &shard[K, Ver, V]{
		core: clockpro.New[K, Ver, V](capacity, clockpro.WeightFn[K, Ver, V](weightFn), logger),
	}
}

func (s *shard[K, Ver, V]) get(hash uint64, key K, ver Ver) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.core.Get(hash, key, ver)
}

func (s *shard[K, Ver, V]) peek(hash uint64, key K, ver Ver) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.core.Peek(hash, key, ver)
}

// getMut and peekMut take an exclusive lock for the duration of fn, since the
// pointer fn receives aliases shared storage: an API returning that pointer
// directly would let it escape the critical section entirely, which is not
// safe to expose from a concurrent, sharded cache.
func (s *shard[K, Ver, V]) getMut(hash uint64, key K, ver Ver, fn func(*V)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.core.GetMut(hash, key, ver)
	if !ok {
		return false
	}
	fn(v)
	return true
}

func (s *shard[K, Ver, V]) peekMut(hash uint64, key K, ver Ver, fn func(*V)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.core.PeekMut(hash, key, ver)
	if !ok {
		return false
	}
	fn(v)
	return true
}

func (s *shard[K, Ver, V]) insert(hash uint64, key K, ver Ver, val V) (clockpro.Evicted[K, Ver, V], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.core.Insert(hash, key, ver, val)
}

func (s *shard[K, Ver, V]) remove(hash uint64, key K, ver Ver) (clockpro.Evicted[K, Ver, V], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.core.Remove(hash, key, ver)
}

func (s *shard[K, Ver, V]) reserve(n uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.core.Reserve(n)
}

func (s *shard[K, Ver, V]) len() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.core.Len()
}

func (s *shard[K, Ver, V]) weight() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.core.Weight()
}

func (s *shard[K, Ver, V]) capacity() uint32 {
	// Immutable after construction; no lock needed.
	return s.core.Capacity()
}

// hits and misses are relaxed atomics inside clockpro.Core; no lock needed.
func (s *shard[K, Ver, V]) hits() uint64   { return s.core.Hits() }
func (s *shard[K, Ver, V]) misses() uint64 { return s.core.Misses() }

type ringStats struct {
	numHot, numCold, numGhost       uint32
	weightHot, weightCold, capacity uint32
	ghostBudget                     uint32
}

func (s *shard[K, Ver, V]) stats() ringStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ringStats{
		numHot:      s.core.NumHot(),
		numCold:     s.core.NumCold(),
		numGhost:    s.core.NumGhost(),
		weightHot:   s.core.WeightHot(),
		weightCold:  s.core.WeightCold(),
		capacity:    s.core.Capacity(),
		ghostBudget: s.core.GhostBudget(),
	}
}
