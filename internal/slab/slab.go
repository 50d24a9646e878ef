// Package slab implements the entry slab described in the CLOCK-Pro design:
// a stable-index container of slots, each holding either a resident
// key/value or a non-resident ghost hash, plus two sibling indices forming
// doubly-linked ring membership.
//
// Indices are stable for the lifetime of the slot: they never move when
// other slots are inserted, removed, or when the slab grows. The slab never
// shrinks — freed slots are recycled via an intrusive free list instead of
// being compacted away.
//
// The slab does not know which ring (HOT/COLD/GHOST) a slot belongs to;
// ring heads are owned by the caller (internal/clockpro). Concurrency is the
// caller's responsibility, mirroring internal/arena's rule in the teacher
// codebase that off-heap/slab-like containers stay single-threaded and rely
// on the shard's mutex for serialisation.
//
// © 2025 arcclock authors. MIT License.
package slab

import (
	"sync/atomic"

	"github.com/arcclock/arcclock/internal/unsafehelpers"
)

// growthAlign is the boundary New rounds a non-zero capacity hint up to
// before preallocating the backing slice.
const growthAlign = 16

// NoIndex marks the absence of a slab index (empty ring, no successor, …).
const NoIndex uint32 = ^uint32(0)

// Kind discriminates what a slot currently holds.
type Kind uint8

const (
	// KindFree marks a slot sitting on the internal free list.
	KindFree Kind = iota
	// KindResident marks a slot holding a live key/value.
	KindResident
	// KindGhost marks a slot holding only the hash of an evicted entry.
	KindGhost
)

// Slot is the discriminated union of Resident or Ghost data, plus the two
// intrusive ring links. K is the key type, Ver the version type and V the
// value type of the cache that owns this slab.
type Slot[K comparable, Ver comparable, V any] struct {
	Kind Kind
	Hash uint64

	// Resident fields. Key, Ver and Val are zeroed when Kind !=
	// KindResident; a ghost keeps the State it had when it was evicted.
	Key   K
	Ver   Ver
	Val   V
	State uint8

	// Referenced is the CLOCK-Pro reference bit. It is mutated under a
	// shared borrow on lookups (Get sets it without exclusive access; Peek
	// leaves it alone)
	// and cleared only by clock walks, which always run under exclusive
	// access. Modelled as an atomic to satisfy that contract.
	Referenced atomic.Bool

	// Weight is the externally supplied cost of the resident entry. For
	// ghosts it is always 0.
	Weight uint32

	// Ring links. A singleton ring links to itself.
	Prev, Next uint32

	nextFree uint32
}

// reset clears a slot's payload before it returns to the free list, so the
// slab does not pin an evicted key/value behind the scenes.
func (s *Slot[K, Ver, V]) reset() {
	var zeroK K
	var zeroVer Ver
	var zeroV V
	s.Kind = KindFree
	s.Hash = 0
	s.Key = zeroK
	s.Ver = zeroVer
	s.Val = zeroV
	s.State = 0
	s.Referenced.Store(false)
	s.Weight = 0
	s.Prev, s.Next = NoIndex, NoIndex
}

// Slab is the stable-index container of slots.
type Slab[K comparable, Ver comparable, V any] struct {
	slots    []Slot[K, Ver, V]
	freeHead uint32
}

// New constructs an empty slab. capacityHint pre-sizes the backing slice;
// zero is a legal hint.
func New[K comparable, Ver comparable, V any](capacityHint int) *Slab[K, Ver, V] {
	s := &Slab[K, Ver, V]{freeHead: NoIndex}
	if capacityHint > 0 {
		aligned := int(unsafehelpers.AlignUp(uintptr(capacityHint), growthAlign))
		s.slots = make([]Slot[K, Ver, V], 0, aligned)
	}
	return s
}

// At returns a pointer to the slot at idx. idx must be a live index
// previously returned by Alloc; the caller must not retain the pointer
// across a subsequent Alloc call, since the backing slice may grow and
// reallocate.
func (s *Slab[K, Ver, V]) At(idx uint32) *Slot[K, Ver, V] {
	return &s.slots[idx]
}

// Len returns the number of slots ever allocated, including free ones.
func (s *Slab[K, Ver, V]) Len() int { return len(s.slots) }

// Alloc reserves a slot — either recycled from the free list or freshly
// appended — and returns its stable index. The returned slot starts as a
// self-linked singleton ring (Prev == Next == idx); the caller fills in
// Kind/Hash/Key/Ver/Val/Weight/State and then calls Link to place it in the
// correct ring relative to a head hint.
func (s *Slab[K, Ver, V]) Alloc() uint32 {
	var idx uint32
	if s.freeHead != NoIndex {
		idx = s.freeHead
		s.freeHead = s.slots[idx].nextFree
	} else {
		s.slots = append(s.slots, Slot[K, Ver, V]{})
		idx = uint32(len(s.slots) - 1)
	}
	sl := &s.slots[idx]
	sl.Prev, sl.Next = idx, idx
	return idx
}

// Free releases idx back to the free list. The caller must have already
// unlinked idx from whatever ring it belonged to.
func (s *Slab[K, Ver, V]) Free(idx uint32) {
	sl := &s.slots[idx]
	sl.reset()
	sl.nextFree = s.freeHead
	s.freeHead = idx
}

// Link splices idx into the ring identified by headHint, placing it
// immediately before the head (i.e. as the new tail). If headHint is
// NoIndex, idx becomes a singleton ring and is itself returned as the ring's
// new head; otherwise the caller's existing head is unchanged and should
// keep using headHint as the ring head.
func (s *Slab[K, Ver, V]) Link(idx, headHint uint32) uint32 {
	if headHint == NoIndex {
		s.slots[idx].Prev = idx
		s.slots[idx].Next = idx
		return idx
	}
	head := &s.slots[headHint]
	tailIdx := head.Prev
	tail := &s.slots[tailIdx]

	tail.Next = idx
	s.slots[idx].Prev = tailIdx
	s.slots[idx].Next = headHint
	head.Prev = idx
	return headHint
}

// Unlink removes idx from whatever ring it currently sits in and returns
// idx's successor in that ring (NoIndex if idx was the ring's only member),
// so that a caller whose head pointer equals idx can repair it.
func (s *Slab[K, Ver, V]) Unlink(idx uint32) uint32 {
	sl := &s.slots[idx]
	next := sl.Next
	if next == idx {
		// Singleton ring.
		sl.Prev, sl.Next = idx, idx
		return NoIndex
	}
	prevIdx := sl.Prev
	s.slots[prevIdx].Next = next
	s.slots[next].Prev = prevIdx
	sl.Prev, sl.Next = idx, idx
	return next
}

// Relink unlinks idx from its current ring and links it into the ring
// identified by dstHeadHint (NoIndex meaning "currently empty"). It returns
// the pair (successor in source ring, new destination head), so the caller
// can repair both the source ring's head (if idx was it) and the
// destination ring's head (if it was previously empty).
func (s *Slab[K, Ver, V]) Relink(idx, dstHeadHint uint32) (srcNext, dstHead uint32) {
	srcNext = s.Unlink(idx)
	dstHead = s.Link(idx, dstHeadHint)
	return srcNext, dstHead
}
