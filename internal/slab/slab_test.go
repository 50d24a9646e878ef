package slab

import "testing"

func TestAllocLinkSingleton(t *testing.T) {
	s := New[string, struct{}, int](0)
	idx := s.Alloc()
	if idx != 0 {
		t.Fatalf("expected first alloc to be index 0, got %d", idx)
	}
	head := s.Link(idx, NoIndex)
	if head != idx {
		t.Fatalf("singleton link should return idx as head")
	}
	sl := s.At(idx)
	if sl.Prev != idx || sl.Next != idx {
		t.Fatalf("singleton ring must self-link, got prev=%d next=%d", sl.Prev, sl.Next)
	}
}

func TestLinkGrowsRingInOrder(t *testing.T) {
	s := New[string, struct{}, int](0)
	a := s.Alloc()
	head := s.Link(a, NoIndex)

	b := s.Alloc()
	head = s.Link(b, head)

	c := s.Alloc()
	head = s.Link(c, head)

	// Expect ring order: a -> b -> c -> a
	if s.At(head).Next != b {
		t.Fatalf("expected head.Next == b, got %d", s.At(head).Next)
	}
	if s.At(b).Next != c {
		t.Fatalf("expected b.Next == c, got %d", s.At(b).Next)
	}
	if s.At(c).Next != head {
		t.Fatalf("expected c.Next == head, got %d", s.At(c).Next)
	}
	if s.At(head).Prev != c {
		t.Fatalf("expected head.Prev == c, got %d", s.At(head).Prev)
	}
}

func TestUnlinkRepairsNeighbors(t *testing.T) {
	s := New[string, struct{}, int](0)
	a := s.Alloc()
	head := s.Link(a, NoIndex)
	b := s.Alloc()
	head = s.Link(b, head)
	c := s.Alloc()
	head = s.Link(c, head)

	next := s.Unlink(b)
	if next != c {
		t.Fatalf("unlink should return b's old successor c, got %d", next)
	}
	if s.At(head).Next != c {
		t.Fatalf("after unlinking b, head.Next should be c, got %d", s.At(head).Next)
	}
	if s.At(c).Next != head {
		t.Fatalf("ring should close a<->c, got c.Next=%d", s.At(c).Next)
	}
}

func TestUnlinkSingletonReturnsNoIndex(t *testing.T) {
	s := New[string, struct{}, int](0)
	a := s.Alloc()
	s.Link(a, NoIndex)
	next := s.Unlink(a)
	if next != NoIndex {
		t.Fatalf("unlinking the only member should report NoIndex, got %d", next)
	}
}

func TestFreeAndRecycle(t *testing.T) {
	s := New[string, struct{}, int](0)
	a := s.Alloc()
	s.At(a).Key = "a"
	s.Free(a)

	b := s.Alloc()
	if b != a {
		t.Fatalf("expected Alloc to recycle freed index %d, got %d", a, b)
	}
	if s.At(b).Key != "" {
		t.Fatalf("recycled slot must be cleared, got key %q", s.At(b).Key)
	}
}

func TestRelinkMovesAcrossRings(t *testing.T) {
	s := New[string, struct{}, int](0)
	a := s.Alloc()
	srcHead := s.Link(a, NoIndex)
	b := s.Alloc()
	srcHead = s.Link(b, srcHead)

	var dstHead uint32 = NoIndex
	srcNext, dstHead := s.Relink(a, dstHead)
	if srcNext != b {
		t.Fatalf("expected src successor b, got %d", srcNext)
	}
	if dstHead != a {
		t.Fatalf("expected dst head to become a, got %d", dstHead)
	}
	if s.At(b).Next != b {
		t.Fatalf("b should now be a singleton ring, got next=%d", s.At(b).Next)
	}
}
