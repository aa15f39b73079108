package grid

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDisjointCoverage exercises the scenario from spec.md §8 "Grid
// disjointness": a 4x4 grid's eight directional iterators together cover
// every adjacent unordered cell pair exactly once, with no self-pairs and
// no duplicate coverage.
func TestDisjointCoverage(t *testing.T) {
	const n = 4
	type key struct{ r1, c1, r2, c2 int }
	norm := func(p Pair) key {
		a, b := [2]int{p.RowA, p.ColA}, [2]int{p.RowB, p.ColB}
		if a[0] > b[0] || (a[0] == b[0] && a[1] > b[1]) {
			a, b = b, a
		}
		return key{a[0], a[1], b[0], b[1]}
	}

	seen := map[key]int{}
	for _, d := range Directions() {
		pairs := Pairs(n, d)
		within := map[key]bool{}
		for _, p := range pairs {
			require.NotEqual(t, [2]int{p.RowA, p.ColA}, [2]int{p.RowB, p.ColB}, "no self-pairs")
			k := norm(p)
			assert.False(t, within[k], "direction %s repeats a cell pair", d)
			within[k] = true
			seen[k]++
		}
	}

	// Every unordered adjacent pair (orthogonal + diagonal) must appear
	// exactly once across all eight directions.
	expected := map[key]bool{}
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			for _, off := range [][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}} {
				r2, c2 := r+off[0], c+off[1]
				if r2 < 0 || r2 >= n || c2 < 0 || c2 >= n {
					continue
				}
				expected[norm(Pair{RowA: r, ColA: c, RowB: r2, ColB: c2})] = true
			}
		}
	}

	assert.Equal(t, len(expected), len(seen))
	for k, count := range seen {
		assert.Equalf(t, 1, count, "pair %+v covered %d times", k, count)
		assert.True(t, expected[k])
	}
}

// TestSingleCellGridHasNoPairs exercises the 1x1 boundary case: all eight
// directional iterators yield zero pairs.
func TestSingleCellGridHasNoPairs(t *testing.T) {
	for _, d := range Directions() {
		assert.Empty(t, Pairs(1, d))
	}
}

func TestForEachPairVisitsEveryPair(t *testing.T) {
	const n = 6
	for _, d := range Directions() {
		want := len(Pairs(n, d))
		got := 0
		var mu sync.Mutex
		err := ForEachPair(context.Background(), n, d, func(Pair) error {
			mu.Lock()
			got++
			mu.Unlock()
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
