package grid

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Direction names one of the eight disjoint cell-pair stripings used by the
// interaction phase.
type Direction int

const (
	N Direction = iota
	NE
	E
	SE
	S
	SW
	W
	NW
	numDirections
)

var directionNames = [numDirections]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

func (d Direction) String() string {
	if d < 0 || int(d) >= len(directionNames) {
		return "?"
	}
	return directionNames[d]
}

// Directions lists all eight directions in a stable order.
func Directions() []Direction {
	out := make([]Direction, numDirections)
	for i := range out {
		out[i] = Direction(i)
	}
	return out
}

// Pair is one disjoint pair of cell coordinates produced by a directional
// iterator.
type Pair struct {
	RowA, ColA int
	RowB, ColB int
}

// Pairs returns every disjoint cell-pair for the given direction over an
// N x N grid. The eight directions collectively cover every unordered
// adjacent cell pair (horizontal, vertical, and both diagonals) exactly
// once; within a single direction no cell appears in more than one pair,
// which is what lets callers process a direction's pairs concurrently
// without per-cell locks.
func Pairs(n int, d Direction) []Pair {
	var pairs []Pair
	switch d {
	case E, W:
		parity := 0
		if d == W {
			parity = 1
		}
		for r := 0; r < n; r++ {
			for c := parity; c+1 < n; c += 2 {
				pairs = append(pairs, Pair{RowA: r, ColA: c, RowB: r, ColB: c + 1})
			}
		}
	case N, S:
		parity := 0
		if d == S {
			parity = 1
		}
		for c := 0; c < n; c++ {
			for r := parity; r+1 < n; r += 2 {
				pairs = append(pairs, Pair{RowA: r, ColA: c, RowB: r + 1, ColB: c})
			}
		}
	case NE, SW:
		parity := 0
		if d == SW {
			parity = 1
		}
		for r := parity; r+1 < n; r += 2 {
			for c := 0; c+1 < n; c++ {
				pairs = append(pairs, Pair{RowA: r, ColA: c, RowB: r + 1, ColB: c + 1})
			}
		}
	case SE, NW:
		parity := 0
		if d == NW {
			parity = 1
		}
		for r := parity; r+1 < n; r += 2 {
			for c := 1; c < n; c++ {
				pairs = append(pairs, Pair{RowA: r, ColA: c, RowB: r + 1, ColB: c - 1})
			}
		}
	}
	return pairs
}

// ForEachPair runs fn over every pair of the given direction, splitting the
// (indexed, disjoint) pair list across an errgroup-bounded worker pool. The
// disjointness invariant established by Pairs is the only synchronization
// argument needed: fn may freely mutate the two cells it is handed.
func ForEachPair(ctx context.Context, n int, d Direction, fn func(p Pair) error) error {
	pairs := Pairs(n, d)
	if len(pairs) == 0 {
		return nil
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, runtime.GOMAXPROCS(0))) //nolint:gocritic // builtin min/max (go1.21)
	for _, p := range pairs {
		p := p
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return fn(p)
		})
	}
	return g.Wait()
}
