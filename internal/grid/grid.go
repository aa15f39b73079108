// Package grid implements the spatial mesh that partitions the simulated
// field into an N x N array of cells, each owning a slice of field-located
// agent indices.
package grid

// Cell holds the indices (into the world's agent slice) of the agents
// currently located in this mesh cell.
type Cell struct {
	Agents []int
}

// Add appends an agent index to the cell.
func (c *Cell) Add(idx int) {
	c.Agents = append(c.Agents, idx)
}

// Remove deletes the first occurrence of idx from the cell, preserving
// neither order nor panicking if idx is absent.
func (c *Cell) Remove(idx int) {
	for i, a := range c.Agents {
		if a == idx {
			c.Agents[i] = c.Agents[len(c.Agents)-1]
			c.Agents = c.Agents[:len(c.Agents)-1]
			return
		}
	}
}

// Clear empties the cell without releasing its backing array.
func (c *Cell) Clear() {
	c.Agents = c.Agents[:0]
}

// Grid is a square mesh of side N overlaid on a field of side FieldSize.
// ResRate = N / FieldSize is the quantization factor used to map a
// continuous point to a cell coordinate.
type Grid struct {
	N         int
	FieldSize float64
	ResRate   float64
	cells     []Cell // row-major, length N*N
}

// New creates an empty N x N grid over a field of the given side length.
func New(n int, fieldSize float64) *Grid {
	return &Grid{
		N:         n,
		FieldSize: fieldSize,
		ResRate:   float64(n) / fieldSize,
		cells:     make([]Cell, n*n),
	}
}

// Quantize maps a point (x, y) to clamped cell coordinates (row, col).
func (g *Grid) Quantize(x, y float64) (row, col int) {
	row = int(y * g.ResRate)
	col = int(x * g.ResRate)
	if row < 0 {
		row = 0
	} else if row >= g.N {
		row = g.N - 1
	}
	if col < 0 {
		col = 0
	} else if col >= g.N {
		col = g.N - 1
	}
	return row, col
}

// At returns the cell at (row, col). Out-of-range coordinates panic, as
// callers are expected to always route through Quantize.
func (g *Grid) At(row, col int) *Cell {
	return &g.cells[row*g.N+col]
}

// Clear empties every cell in the grid.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i].Clear()
	}
}

// Move relocates an agent index from cell (fromRow, fromCol) to
// (toRow, toCol). It is a no-op (other than the remove+add) when the two
// coordinates are identical.
func (g *Grid) Move(idx, fromRow, fromCol, toRow, toCol int) {
	g.At(fromRow, fromCol).Remove(idx)
	g.At(toRow, toCol).Add(idx)
}

// Len returns the total number of agent slots currently tracked by the grid,
// used by population-conservation invariant checks.
func (g *Grid) Len() int {
	n := 0
	for i := range g.cells {
		n += len(g.cells[i].Agents)
	}
	return n
}
