package hashindex

import "testing"

func TestInsertGetRoundTrip(t *testing.T) {
	ix := New(0)
	ix.Insert(42, 7)

	got, ok := ix.Get(42, func(slot uint32) bool { return slot == 7 })
	if !ok || got != 7 {
		t.Fatalf("expected to find slot 7, got %d ok=%v", got, ok)
	}
}

func TestGetMissingHash(t *testing.T) {
	ix := New(0)
	ix.Insert(1, 1)
	if _, ok := ix.Get(2, func(uint32) bool { return true }); ok {
		t.Fatalf("expected miss for absent hash")
	}
}

func TestCollisionsResolvedByClosure(t *testing.T) {
	ix := New(0)
	ix.Insert(9, 1)
	ix.Insert(9, 2)
	ix.Insert(9, 3)

	got, ok := ix.Get(9, func(slot uint32) bool { return slot == 2 })
	if !ok || got != 2 {
		t.Fatalf("expected closure to pick slot 2, got %d ok=%v", got, ok)
	}
}

func TestEraseRemovesExactlyOne(t *testing.T) {
	ix := New(0)
	ix.Insert(5, 1)
	ix.Insert(5, 2)

	if !ix.Erase(5, func(slot uint32) bool { return slot == 1 }) {
		t.Fatalf("expected erase to find slot 1")
	}
	if ix.Len() != 1 {
		t.Fatalf("expected one entry left, got %d", ix.Len())
	}
	got, ok := ix.Get(5, func(slot uint32) bool { return slot == 2 })
	if !ok || got != 2 {
		t.Fatalf("slot 2 should still be found, got %d ok=%v", got, ok)
	}
	if _, ok := ix.Get(5, func(slot uint32) bool { return slot == 1 }); ok {
		t.Fatalf("slot 1 should no longer be found")
	}
}

func TestEraseMissingReturnsFalse(t *testing.T) {
	ix := New(0)
	if ix.Erase(123, func(uint32) bool { return true }) {
		t.Fatalf("expected erase of absent hash to fail")
	}
}

func TestGrowPreservesEntries(t *testing.T) {
	ix := New(0)
	const n = 500
	for i := uint32(0); i < n; i++ {
		ix.Insert(uint64(i)*2654435761, i)
	}
	for i := uint32(0); i < n; i++ {
		h := uint64(i) * 2654435761
		got, ok := ix.Get(h, func(slot uint32) bool { return slot == i })
		if !ok || got != i {
			t.Fatalf("entry %d lost after growth (got %d ok=%v)", i, got, ok)
		}
	}
	if ix.Len() != n {
		t.Fatalf("expected %d live entries, got %d", n, ix.Len())
	}
}

func TestReservePreSizes(t *testing.T) {
	ix := New(0)
	ix.Reserve(1000)
	if len(ix.buckets) < 1000 {
		t.Fatalf("expected buckets pre-sized for 1000 entries, got %d", len(ix.buckets))
	}
}
