package clockpro

import (
	"fmt"
	"math/rand"
	"testing"
)

// TestInvariantsHoldAcrossRandomSequence runs a long randomized sequence of
// Insert/Get/Peek/Remove calls against a small, heavily-contended cache and
// checks the universally-quantified invariants from spec §8 after every
// operation.
func TestInvariantsHoldAcrossRandomSequence(t *testing.T) {
	weightFn := func(_ string, _ struct{}, w int) uint32 { return uint32(w) }
	const capacity = 20
	c := New[string, struct{}, int](capacity, weightFn, nil)

	rng := rand.New(rand.NewSource(7))
	keyspace := make([]string, 40)
	for i := range keyspace {
		keyspace[i] = fmt.Sprintf("k%d", i)
	}

	var totalGets uint64

	for step := 0; step < 20000; step++ {
		key := keyspace[rng.Intn(len(keyspace))]
		h := hashOf(key)

		switch rng.Intn(4) {
		case 0:
			w := 1 + rng.Intn(3)
			c.Insert(h, key, struct{}{}, w)
		case 1:
			c.Get(h, key, struct{}{})
			totalGets++
		case 2:
			c.Peek(h, key, struct{}{})
		case 3:
			c.Remove(h, key, struct{}{})
		}

		if c.weightHot+c.weightCold > c.capacity {
			t.Fatalf("step %d: weight_hot+weight_cold=%d exceeds capacity=%d", step, c.weightHot+c.weightCold, c.capacity)
		}
		if c.ghostBudget > 0 && c.numGhost > c.ghostBudget {
			t.Fatalf("step %d: num_ghost=%d exceeds ghost budget=%d", step, c.numGhost, c.ghostBudget)
		}
		if c.Len() != c.numHot+c.numCold {
			t.Fatalf("step %d: Len() diverges from num_hot+num_cold", step)
		}
		if c.Hits()+c.Misses() != totalGets {
			t.Fatalf("step %d: hits+misses=%d does not match total Get calls=%d", step, c.Hits()+c.Misses(), totalGets)
		}
	}
}
