package cache

// cache.go is the public, sharded facade over internal/clockpro. A Cache is
// split into N independent shards, each owning its own clockpro.Core, to
// keep lock contention off the hot path.
//
// The cache is keyed by (key, version) pairs. Callers that have no natural
// notion of versioning can use NoVersion (an empty struct) and NewUnversioned,
// which is exactly New instantiated with Ver = NoVersion.
//
// © 2025 arcclock authors. MIT License.

import (
	"context"
	"sync/atomic"

	"github.com/arcclock/arcclock/internal/clockpro"
)

// NoVersion is the version type for caches that have no versioning concept.
// Pass NoVer wherever a Ver argument is required.
type NoVersion = struct{}

// NoVer is the single value of NoVersion, for ergonomic call sites:
// c.Get(key, cache.NoVer).
var NoVer NoVersion

// Cache is a weight-bounded, in-memory cache over (K, Ver) -> V, backed by a
// modified CLOCK-Pro eviction policy. All methods are safe for concurrent
// use.
type Cache[K comparable, Ver comparable, V any] struct {
	shards    []*shard[K, Ver, V]
	mask      uint64
	hasher    Hasher[K, Ver]
	metrics   metricsSink
	ejectCb   EjectCallback[K, Ver, V]
	loaders   *loaderGroup[K, Ver, V]
	evictions atomic.Uint64
}

// New constructs a Cache with the given total weight budget, split evenly
// across shards shards. shards must be a power of two.
func New[K comparable, Ver comparable, V any](capacity uint32, shards uint8, opts ...Option[K, Ver, V]) (*Cache[K, Ver, V], error) {
	cfg := defaultConfig[K, Ver, V](capacity, shards)
	if err := applyOptions(cfg, opts); err != nil {
		return nil, err
	}

	perShard := cfg.capacity / uint32(cfg.shards)

	var logger = cfg.logger
	if !cfg.debugLog {
		logger = nil
	}

	c := &Cache[K, Ver, V]{
		shards:  make([]*shard[K, Ver, V], cfg.shards),
		mask:    uint64(cfg.shards) - 1,
		hasher:  cfg.hasher,
		metrics: newMetricsSink(cfg.registry),
		ejectCb: cfg.ejectCb,
		loaders: newLoaderGroup[K, Ver, V](),
	}
	for i := range c.shards {
		c.shards[i] = newShard[K, Ver, V](perShard, cfg.weightFn, logger)
	}
	return c, nil
}

// NewUnversioned is New instantiated for callers with no version concept;
// pass NoVer as the Ver argument to every method.
func NewUnversioned[K comparable, V any](capacity uint32, shards uint8, opts ...Option[K, NoVersion, V]) (*Cache[K, NoVersion, V], error) {
	return New[K, NoVersion, V](capacity, shards, opts...)
}

// Hash returns the combined (key, version) hash used for both shard routing
// and the shard's internal index. Exposed so that callers who already have a
// hash in hand (e.g. from a prior lookup) can reuse it.
func (c *Cache[K, Ver, V]) Hash(key K, ver Ver) uint64 {
	return c.hasher(key, ver)
}

func (c *Cache[K, Ver, V]) shardFor(hash uint64) (uint8, *shard[K, Ver, V]) {
	idx := hash & c.mask
	return uint8(idx), c.shards[idx]
}

// Get looks up (key, ver), marking the entry referenced on a hit. A miss
// includes the case where the only match is a ghost.
func (c *Cache[K, Ver, V]) Get(key K, ver Ver) (V, bool) {
	hash := c.hasher(key, ver)
	si, s := c.shardFor(hash)
	v, ok := s.get(hash, key, ver)
	if ok {
		c.metrics.incHit(si)
	} else {
		c.metrics.incMiss(si)
	}
	return v, ok
}

// Peek is Get without marking the entry referenced and without affecting
// hit/miss counters.
func (c *Cache[K, Ver, V]) Peek(key K, ver Ver) (V, bool) {
	hash := c.hasher(key, ver)
	_, s := c.shardFor(hash)
	return s.peek(hash, key, ver)
}

// GetMut runs fn against the stored value in place if (key, ver) is
// resident, marking it referenced. It returns false without calling fn on a
// miss. fn must not retain its argument past the call.
func (c *Cache[K, Ver, V]) GetMut(key K, ver Ver, fn func(*V)) bool {
	hash := c.hasher(key, ver)
	si, s := c.shardFor(hash)
	ok := s.getMut(hash, key, ver, fn)
	if ok {
		c.metrics.incHit(si)
	} else {
		c.metrics.incMiss(si)
	}
	return ok
}

// PeekMut is GetMut without marking the entry referenced.
func (c *Cache[K, Ver, V]) PeekMut(key K, ver Ver, fn func(*V)) bool {
	hash := c.hasher(key, ver)
	_, s := c.shardFor(hash)
	return s.peekMut(hash, key, ver, fn)
}

// Insert admits or updates (key, ver) -> val, evicting as needed to stay
// within the shard's weight budget. It returns the value evicted as a side
// effect of this call, if any: when several entries are evicted only the
// last is returned, and when (key, ver) was already resident and nothing is
// evicted, the replaced previous value is returned. An oversized entry (heavier than the shard
// can ever admit to COLD) is rejected silently, with no side effect; callers
// cannot distinguish that from "admitted, nothing evicted" except by
// consulting Len()/Weight().
func (c *Cache[K, Ver, V]) Insert(key K, ver Ver, val V) (evicted V, hadEviction bool) {
	hash := c.hasher(key, ver)
	si, s := c.shardFor(hash)
	ev, had := s.insert(hash, key, ver, val)
	c.afterMutate(si, s, had, ev)
	if !had {
		var zero V
		return zero, false
	}
	return ev.Val, true
}

// Remove unconditionally drops (key, ver) if resident. It does not invoke
// the eject callback: that fires only for CLOCK-Pro-driven evictions, never
// for explicit removal.
func (c *Cache[K, Ver, V]) Remove(key K, ver Ver) (V, bool) {
	hash := c.hasher(key, ver)
	si, s := c.shardFor(hash)
	ev, ok := s.remove(hash, key, ver)
	c.refreshRingStats(si, s)
	if !ok {
		var zero V
		return zero, false
	}
	return ev.Val, true
}

func (c *Cache[K, Ver, V]) afterMutate(si uint8, s *shard[K, Ver, V], had bool, ev clockpro.Evicted[K, Ver, V]) {
	if had {
		c.evictions.Add(1)
		c.metrics.incEvict(si)
		if c.ejectCb != nil {
			c.ejectCb(ev.Key, ev.Ver, ev.Val, clockpro.ReasonCapacity)
		}
	}
	c.refreshRingStats(si, s)
}

func (c *Cache[K, Ver, V]) refreshRingStats(si uint8, s *shard[K, Ver, V]) {
	st := s.stats()
	c.metrics.setRingWeight(si, "hot", st.weightHot)
	c.metrics.setRingWeight(si, "cold", st.weightCold)
	c.metrics.setRingEntries(si, "hot", st.numHot)
	c.metrics.setRingEntries(si, "cold", st.numCold)
	c.metrics.setGhostEntries(si, st.numGhost)
}

// GetOrLoad returns the cached value for (key, ver), or loads it via fn if
// absent, coalescing concurrent loads of the same key into a single call.
// A successful load is inserted into the cache before being returned.
func (c *Cache[K, Ver, V]) GetOrLoad(ctx context.Context, key K, ver Ver, fn LoaderFunc[K, Ver, V]) (V, error) {
	if v, ok := c.Get(key, ver); ok {
		return v, nil
	}
	hash := c.hasher(key, ver)
	val, err, _ := c.loaders.load(ctx, hash, key, ver, fn)
	if err != nil {
		var zero V
		return zero, err
	}
	c.Insert(key, ver, val)
	return val, nil
}

// Reserve pre-grows every shard's hash index for roughly n/len(shards)
// additional entries, amortising the growth a cold-start fill would
// otherwise pay for incrementally.
func (c *Cache[K, Ver, V]) Reserve(n uint32) {
	perShard := n / uint32(len(c.shards))
	for _, s := range c.shards {
		s.reserve(perShard)
	}
}

// Len returns the total number of resident entries across all shards.
func (c *Cache[K, Ver, V]) Len() uint32 {
	var total uint32
	for _, s := range c.shards {
		total += s.len()
	}
	return total
}

// Weight returns the total resident weight across all shards.
func (c *Cache[K, Ver, V]) Weight() uint32 {
	var total uint32
	for _, s := range c.shards {
		total += s.weight()
	}
	return total
}

// Capacity returns the total weight budget across all shards.
func (c *Cache[K, Ver, V]) Capacity() uint32 {
	var total uint32
	for _, s := range c.shards {
		total += s.capacity()
	}
	return total
}

// Hits and Misses sum each shard's monotonic counters.
func (c *Cache[K, Ver, V]) Hits() uint64 {
	var total uint64
	for _, s := range c.shards {
		total += s.hits()
	}
	return total
}

func (c *Cache[K, Ver, V]) Misses() uint64 {
	var total uint64
	for _, s := range c.shards {
		total += s.misses()
	}
	return total
}

// Evictions returns, across all shards, the number of Insert calls that
// handed back a Resident (see Insert): an Insert that evicts several entries
// counts once, and an update that only replaces a value counts too. It does
// not count explicit Remove calls.
func (c *Cache[K, Ver, V]) Evictions() uint64 { return c.evictions.Load() }

// Stats is a point-in-time snapshot of the cache's aggregate ring state and
// cumulative counters, intended for diagnostics endpoints such as the
// /debug/arcclock/snapshot endpoint that cmd/arcclock-inspect polls.
type Stats struct {
	NumHot, NumCold, NumGhost uint32
	WeightHot, WeightCold     uint32
	Capacity                  uint32
	GhostBudget               uint32
	Hits, Misses, Evictions   uint64
}

// Stats sums each shard's ring breakdown (the same numbers refreshRingStats
// already feeds into Prometheus) into a single snapshot, plus
// the cache-wide hit/miss/eviction counters.
func (c *Cache[K, Ver, V]) Stats() Stats {
	var st Stats
	for _, s := range c.shards {
		rs := s.stats()
		st.NumHot += rs.numHot
		st.NumCold += rs.numCold
		st.NumGhost += rs.numGhost
		st.WeightHot += rs.weightHot
		st.WeightCold += rs.weightCold
		st.Capacity += rs.capacity
		st.GhostBudget += rs.ghostBudget
	}
	st.Hits = c.Hits()
	st.Misses = c.Misses()
	st.Evictions = c.Evictions()
	return st
}

// Shards returns the number of shards the cache was constructed with.
func (c *Cache[K, Ver, V]) Shards() int { return len(c.shards) }
