// Package clockpro implements the modified CLOCK-Pro eviction engine: the
// weighted-admission controller and the Hot/ColdInTest/ColdDemoted/Ghost
// state machine that the sharded cache in pkg/ builds on.
//
// The algorithm runs inside the shard's critical section — external
// synchronisation is guaranteed by the caller (pkg.Shard's mutex), so this
// package performs no locking of its own and all mutation is
// single-threaded. The one exception, per the CLOCK-Pro reference-bit
// contract, is that Get/Peek may run concurrently with each other (and with
// nothing else), and Get still flips an entry's reference bit (Peek leaves it
// alone) — slab.Slot models that bit as an atomic.Bool for exactly this reason.
//
// Reference: Qingqing He, Jun Wang, "CLOCK-Pro: An Effective Improvement of
// the CLOCK Replacement", USENIX 2005. This package keeps the classic
// CLOCK-Pro three-state model (Hot/Cold/Test) and its intrusive-ring shape,
// with a state byte and a separate reference bit per slot, but generalises it to three
// independent rings (HOT/COLD/GHOST) with explicit weight accounting, since
// admission here is weight-bounded rather than count-bounded.
//
// © 2025 arcclock authors. MIT License.
package clockpro

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/arcclock/arcclock/internal/hashindex"
	"github.com/arcclock/arcclock/internal/slab"
)

// EvictionReason classifies why a Resident was handed back to the caller.
type EvictionReason uint8

const (
	// ReasonCapacity marks a normal CLOCK-Pro eviction: the entry was
	// displaced to make (or keep) room within the weight budget.
	ReasonCapacity EvictionReason = iota + 1
)

// Resident states. Ghosts are tracked via slab.KindGhost instead of a state
// value here.
const (
	StateHot uint8 = iota
	StateColdInTest
	StateColdDemoted
)

// Evicted carries a Resident handed back from Insert/Remove so the caller
// can run destructors (or an eject callback) outside any lock.
type Evicted[K comparable, Ver comparable, V any] struct {
	Key K
	Ver Ver
	Val V
}

// WeightFn computes the externally supplied cost of a key/version/value
// triple. It must be pure: the core never re-queries it between insert and
// removal, per spec invariant 6.
type WeightFn[K comparable, Ver comparable, V any] func(K, Ver, V) uint32

// Core is one shard's worth of CLOCK-Pro state: the entry slab, the hash
// index over it, and the three ring heads plus their running counts and
// weights.
type Core[K comparable, Ver comparable, V any] struct {
	slab  *slab.Slab[K, Ver, V]
	index *hashindex.Index

	weightFn WeightFn[K, Ver, V]

	capacity  uint32 // W
	hotTarget uint32 // H = W - max(1, W/100)

	ghostBudget    uint32 // G, set once on first Cold admission
	ghostBudgetSet bool   // true once G has been computed; a computed 0 is raised to 1

	hotHead, coldHead, ghostHead uint32 // slab.NoIndex when empty

	numHot, numCold, numGhost uint32
	weightHot, weightCold     uint32

	hits, misses atomic.Uint64

	logger *zap.Logger
}

// New constructs a Core with the given weight budget. capacity below 2 is
// coerced up to 2, per spec. logger may be nil (equivalent to zap.NewNop());
// when non-nil it receives Debug-level traces for ghost creation/
// resurrection and a Warn for oversized-admission rejection — purely
// observational, never affecting control flow.
func New[K comparable, Ver comparable, V any](capacity uint32, weightFn WeightFn[K, Ver, V], logger *zap.Logger) *Core[K, Ver, V] {
	if capacity < 2 {
		capacity = 2
	}
	hotReserve := capacity / 100
	if hotReserve < 1 {
		hotReserve = 1
	}
	c := &Core[K, Ver, V]{
		slab:      slab.New[K, Ver, V](0),
		index:     hashindex.New(0),
		weightFn:  weightFn,
		capacity:  capacity,
		hotTarget: capacity - hotReserve,
		hotHead:   slab.NoIndex,
		coldHead:  slab.NoIndex,
		ghostHead: slab.NoIndex,
		logger:    logger,
	}
	return c
}

/* -------------------------------------------------------------------------
   Accessors
   ------------------------------------------------------------------------- */

// Weight returns weight_hot + weight_cold.
func (c *Core[K, Ver, V]) Weight() uint32 { return c.weightHot + c.weightCold }

// Len returns num_hot + num_cold (ghosts do not count).
func (c *Core[K, Ver, V]) Len() uint32 { return c.numHot + c.numCold }

// Capacity returns W.
func (c *Core[K, Ver, V]) Capacity() uint32 { return c.capacity }

// HotTarget returns H, exposed for diagnostics and tests.
func (c *Core[K, Ver, V]) HotTarget() uint32 { return c.hotTarget }

// GhostBudget returns G (0 before COLD has ever been used).
func (c *Core[K, Ver, V]) GhostBudget() uint32 { return c.ghostBudget }

// NumGhost returns the current ghost count.
func (c *Core[K, Ver, V]) NumGhost() uint32 { return c.numGhost }

// WeightHot and WeightCold expose the per-ring resident weight, for metrics
// and diagnostics only; neither participates in any admission decision
// beyond what Weight() (their sum) already does.
func (c *Core[K, Ver, V]) WeightHot() uint32  { return c.weightHot }
func (c *Core[K, Ver, V]) WeightCold() uint32 { return c.weightCold }

// NumHot and NumCold expose the per-ring resident entry count.
func (c *Core[K, Ver, V]) NumHot() uint32  { return c.numHot }
func (c *Core[K, Ver, V]) NumCold() uint32 { return c.numCold }

// Hits and Misses are monotonic, relaxed-atomic statistics.
func (c *Core[K, Ver, V]) Hits() uint64   { return c.hits.Load() }
func (c *Core[K, Ver, V]) Misses() uint64 { return c.misses.Load() }

// Reserve pre-grows the hash index for n additional entries, inflating by
// ~56% to account for the ghosts those entries will eventually leave
// behind, per spec §5.
func (c *Core[K, Ver, V]) Reserve(n uint32) {
	inflated := n + n/2 + n/16
	c.index.Reserve(int(inflated))
}

/* -------------------------------------------------------------------------
   Lookup
   ------------------------------------------------------------------------- */

func (c *Core[K, Ver, V]) residentEq(key K, ver Ver) func(uint32) bool {
	return func(idx uint32) bool {
		sl := c.slab.At(idx)
		return sl.Kind == slab.KindResident && sl.Key == key && sl.Ver == ver
	}
}

// Get probes for a resident entry, marks it referenced on hit, and updates
// the hit/miss counters. A hit on a Ghost (or no hit at all) counts as a
// miss, per spec §4.4.
func (c *Core[K, Ver, V]) Get(hash uint64, key K, ver Ver) (V, bool) {
	idx, found := c.index.Get(hash, c.residentEq(key, ver))
	if !found {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	sl := c.slab.At(idx)
	sl.Referenced.Store(true)
	c.hits.Add(1)
	return sl.Val, true
}

// Peek is Get without touching the reference bit or the hit/miss counters.
func (c *Core[K, Ver, V]) Peek(hash uint64, key K, ver Ver) (V, bool) {
	idx, found := c.index.Get(hash, c.residentEq(key, ver))
	if !found {
		var zero V
		return zero, false
	}
	return c.slab.At(idx).Val, true
}

// GetMut is Get's exclusive-borrow variant: the returned pointer aliases
// the slab's storage and is only valid until the next structural mutation.
func (c *Core[K, Ver, V]) GetMut(hash uint64, key K, ver Ver) (*V, bool) {
	idx, found := c.index.Get(hash, c.residentEq(key, ver))
	if !found {
		c.misses.Add(1)
		return nil, false
	}
	sl := c.slab.At(idx)
	sl.Referenced.Store(true)
	c.hits.Add(1)
	return &sl.Val, true
}

// PeekMut is Peek's exclusive-borrow variant.
func (c *Core[K, Ver, V]) PeekMut(hash uint64, key K, ver Ver) (*V, bool) {
	idx, found := c.index.Get(hash, c.residentEq(key, ver))
	if !found {
		return nil, false
	}
	return &c.slab.At(idx).Val, true
}

/* -------------------------------------------------------------------------
   Remove
   ------------------------------------------------------------------------- */

// Remove finds, unlinks and erases a resident entry, returning it so the
// caller can drop it outside any lock.
func (c *Core[K, Ver, V]) Remove(hash uint64, key K, ver Ver) (Evicted[K, Ver, V], bool) {
	idx, found := c.index.Get(hash, c.residentEq(key, ver))
	if !found {
		return Evicted[K, Ver, V]{}, false
	}
	sl := c.slab.At(idx)
	out := Evicted[K, Ver, V]{Key: sl.Key, Ver: sl.Ver, Val: sl.Val}
	w := sl.Weight
	state := sl.State

	c.index.Erase(hash, func(i uint32) bool { return i == idx })

	switch state {
	case StateHot:
		next := c.slab.Unlink(idx)
		if c.hotHead == idx {
			c.hotHead = next
		}
		c.numHot--
		c.weightHot -= w
	default: // StateColdInTest, StateColdDemoted
		next := c.slab.Unlink(idx)
		if c.coldHead == idx {
			c.coldHead = next
		}
		c.numCold--
		c.weightCold -= w
	}
	c.slab.Free(idx)
	debugAssert(c.weightHot+c.weightCold <= c.capacity, "weight_hot + weight_cold exceeds capacity after remove")
	return out, true
}

/* -------------------------------------------------------------------------
   Insert
   ------------------------------------------------------------------------- */

// Insert admits (or updates, or resurrects) an entry, evicting as needed to
// stay within the weight budget. It returns at most one Resident per call:
// the last one evicted, or, when an update in place evicts nothing, the
// entry's previous key/version/value. An oversized entry is rejected
// without any side effect and without a distinguishable return value, per
// spec §7 — callers cannot tell a rejection apart from "admitted, nothing
// evicted" except by consulting Len()/Weight().
func (c *Core[K, Ver, V]) Insert(hash uint64, key K, ver Ver, val V) (Evicted[K, Ver, V], bool) {
	w := c.weightFn(key, ver, val)
	coldBudget := c.capacity - c.hotTarget
	if w > coldBudget {
		c.logRejected(w, coldBudget)
		return Evicted[K, Ver, V]{}, false
	}

	if idx, found := c.index.Get(hash, c.existingEq(key, ver)); found {
		sl := c.slab.At(idx)
		sl.Key, sl.Ver = key, ver
		return c.updateOrResurrect(idx, val, w)
	}

	var evicted Evicted[K, Ver, V]
	hadEviction := false
	enterCold := false

	if c.weightHot+c.weightCold+w > c.capacity {
		for c.weightHot+c.weightCold+w > c.capacity {
			e, ok := c.evict()
			if ok {
				evicted = e
				hadEviction = true
			}
		}
		enterCold = true
	} else {
		enterCold = c.weightHot+w > c.hotTarget
	}

	idx := c.slab.Alloc()
	sl := c.slab.At(idx)
	sl.Kind = slab.KindResident
	sl.Hash = hash
	sl.Key = key
	sl.Ver = ver
	sl.Val = val
	sl.Weight = w
	sl.Referenced.Store(false)

	if enterCold {
		sl.State = StateColdInTest
		c.coldHead = c.slab.Link(idx, c.coldHead)
		c.numCold++
		c.weightCold += w
		c.maybeSetGhostBudget()
	} else {
		sl.State = StateHot
		c.hotHead = c.slab.Link(idx, c.hotHead)
		c.numHot++
		c.weightHot += w
	}
	c.index.Insert(hash, idx)

	debugAssert(c.weightHot+c.weightCold <= c.capacity, "weight_hot + weight_cold exceeds capacity after insert")
	debugAssert(c.ghostBudget == 0 || c.numGhost <= c.ghostBudget, "num_ghost exceeds ghost budget after insert")
	return evicted, hadEviction
}

// existingEq implements admission rule step 2's combined lookup: a
// Resident match requires full key+version equality; a Ghost match only
// requires the hash to have already matched in the index bucket, since
// ghosts carry no key/version — that IS the point of non-resident tracking
// (spec §9: "Ghost identification by hash only").
func (c *Core[K, Ver, V]) existingEq(key K, ver Ver) func(uint32) bool {
	return func(idx uint32) bool {
		sl := c.slab.At(idx)
		if sl.Kind == slab.KindResident {
			return sl.Key == key && sl.Ver == ver
		}
		return sl.Kind == slab.KindGhost
	}
}

func (c *Core[K, Ver, V]) maybeSetGhostBudget() {
	if c.ghostBudgetSet || c.numHot == 0 {
		return
	}
	avgHot := (c.weightHot + c.weightHot/8) / c.numHot
	c.ghostBudget = avgHot / 2
	if c.ghostBudget == 0 {
		c.ghostBudget = 1
	}
	c.ghostBudgetSet = true
}

func (c *Core[K, Ver, V]) updateOrResurrect(idx uint32, val V, w uint32) (Evicted[K, Ver, V], bool) {
	sl := c.slab.At(idx)

	if sl.Kind == slab.KindResident {
		prev := Evicted[K, Ver, V]{Key: sl.Key, Ver: sl.Ver, Val: sl.Val}
		oldWeight := sl.Weight
		sl.Val = val
		sl.Weight = w
		sl.Referenced.Store(true)

		delta := int64(w) - int64(oldWeight)
		switch sl.State {
		case StateHot:
			c.weightHot = addDelta(c.weightHot, delta)
		default:
			c.weightCold = addDelta(c.weightCold, delta)
		}

		evicted := prev
		hadEviction := true
		for c.weightHot+c.weightCold > c.capacity {
			e, ok := c.evict()
			if ok {
				evicted = e
				hadEviction = true
			}
		}
		return evicted, hadEviction
	}

	// Ghost resurrection: the slot becomes Hot, unconditionally.
	c.logGhostResurrected(sl.Hash)
	wasGhostHead := c.ghostHead == idx
	sl.Kind = slab.KindResident
	sl.Val = val
	sl.Weight = w
	sl.State = StateHot
	sl.Referenced.Store(false)
	c.numGhost--
	c.numHot++
	c.weightHot += w

	srcNext, dstHead := c.slab.Relink(idx, c.hotHead)
	if wasGhostHead {
		c.ghostHead = srcNext
	}
	c.hotHead = dstHead

	var evicted Evicted[K, Ver, V]
	hadEviction := false
	for c.weightHot+c.weightCold > c.capacity {
		e, ok := c.evict()
		if ok {
			evicted = e
			hadEviction = true
		}
	}
	return evicted, hadEviction
}

func addDelta(v uint32, delta int64) uint32 {
	return uint32(int64(v) + delta)
}

/* -------------------------------------------------------------------------
   Eviction
   ------------------------------------------------------------------------- */

// evict runs one full EVICT step: drive HOT down to its target (or until
// COLD has something to offer), then sacrifice one COLD entry.
func (c *Core[K, Ver, V]) evict() (Evicted[K, Ver, V], bool) {
	for c.weightHot > c.hotTarget || c.coldHead == slab.NoIndex {
		c.advanceHot()
	}
	return c.advanceCold()
}

// advanceHot walks HOT, clearing reference bits, until it demotes one
// unreferenced entry to ColdDemoted. Precondition: hotHead != NoIndex,
// guaranteed by evict()'s loop condition together with the invariant that
// num_hot >= 1 whenever weight_hot > 0.
func (c *Core[K, Ver, V]) advanceHot() {
	for {
		idx := c.hotHead
		sl := c.slab.At(idx)
		if sl.Referenced.Load() {
			sl.Referenced.Store(false)
			c.hotHead = sl.Next
			continue
		}
		sl.State = StateColdDemoted
		c.numHot--
		c.weightHot -= sl.Weight
		c.numCold++
		c.weightCold += sl.Weight

		srcNext, dstHead := c.slab.Relink(idx, c.coldHead)
		c.hotHead = srcNext
		c.coldHead = dstHead
		return
	}
}

// advanceCold walks COLD, promoting referenced entries and evicting the
// first unreferenced one it finds. Precondition: coldHead != NoIndex.
func (c *Core[K, Ver, V]) advanceCold() (Evicted[K, Ver, V], bool) {
	for {
		idx := c.coldHead
		sl := c.slab.At(idx)

		if sl.Referenced.Load() {
			sl.Referenced.Store(false)
			switch sl.State {
			case StateColdInTest:
				sl.State = StateHot
				c.numCold--
				c.weightCold -= sl.Weight
				c.numHot++
				c.weightHot += sl.Weight

				srcNext, dstHead := c.slab.Relink(idx, c.hotHead)
				c.coldHead = srcNext
				c.hotHead = dstHead

				if c.weightHot > c.hotTarget {
					c.advanceHot()
				}
				continue
			default: // StateColdDemoted
				sl.State = StateColdInTest
				c.coldHead = sl.Next
				continue
			}
		}

		hash := sl.Hash
		wasTest := sl.State == StateColdInTest
		out := Evicted[K, Ver, V]{Key: sl.Key, Ver: sl.Ver, Val: sl.Val}
		w := sl.Weight

		c.numCold--
		c.weightCold -= w

		collides := c.hasOtherIndexEntry(hash, idx)

		if wasTest && !collides {
			srcNext, dstHead := c.slab.Relink(idx, c.ghostHead)
			c.coldHead = srcNext
			c.ghostHead = dstHead

			sl.Kind = slab.KindGhost
			var zeroK K
			var zeroVer Ver
			var zeroV V
			sl.Key, sl.Ver, sl.Val = zeroK, zeroVer, zeroV
			sl.Weight = 0
			sl.Referenced.Store(false)
			c.numGhost++
			c.logGhostCreated(hash)

			if c.numGhost > c.ghostBudget {
				c.advanceGhost()
			}
		} else {
			c.index.Erase(hash, func(i uint32) bool { return i == idx })
			c.coldHead = c.slab.Unlink(idx)
			c.slab.Free(idx)
		}
		return out, true
	}
}

// advanceGhost drops the oldest ghost to bring num_ghost back within
// budget. Precondition: ghostHead != NoIndex, guaranteed by the caller only
// invoking it right after num_ghost > ghostBudget.
func (c *Core[K, Ver, V]) advanceGhost() {
	idx := c.ghostHead
	sl := c.slab.At(idx)
	hash := sl.Hash
	c.index.Erase(hash, func(i uint32) bool { return i == idx })
	c.ghostHead = c.slab.Unlink(idx)
	c.slab.Free(idx)
	c.numGhost--
}

// hasOtherIndexEntry implements the hash-index equality policy (b) from
// spec §4.2: hash-only compare plus "not equal to a given index".
func (c *Core[K, Ver, V]) hasOtherIndexEntry(hash uint64, exclude uint32) bool {
	_, found := c.index.Get(hash, func(candidate uint32) bool { return candidate != exclude })
	return found
}

/* -------------------------------------------------------------------------
   Debug tracing (purely observational, never affects control flow)
   ------------------------------------------------------------------------- */

func (c *Core[K, Ver, V]) logRejected(weight, coldBudget uint32) {
	if c.logger == nil {
		return
	}
	c.logger.Warn("oversized entry rejected",
		zap.Uint32("weight", weight),
		zap.Uint32("cold_budget", coldBudget),
	)
}

func (c *Core[K, Ver, V]) logGhostCreated(hash uint64) {
	if c.logger == nil {
		return
	}
	c.logger.Debug("ghost created", zap.Uint64("hash", hash))
}

func (c *Core[K, Ver, V]) logGhostResurrected(hash uint64) {
	if c.logger == nil {
		return
	}
	c.logger.Debug("ghost resurrected", zap.Uint64("hash", hash))
}
