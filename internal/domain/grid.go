package domain

import "fmt"

// DefaultGridSize is the side length of a new board.
const DefaultGridSize = 64

// Grid is a fixed N×N array of cells addressed by i = row*N + col.
// It is not safe for concurrent use.
type Grid struct {
	size  int
	cells []Cell
}

// NewGrid returns an all-empty grid of side n.
func NewGrid(n int) (*Grid, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, n)
	}
	return &Grid{size: n, cells: make([]Cell, n*n)}, nil
}

// Size returns N.
func (g *Grid) Size() int { return g.size }

// Len returns N*N.
func (g *Grid) Len() int { return len(g.cells) }

func (g *Grid) checkIndex(i int) error {
	if i < 0 || i >= len(g.cells) {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrOutOfRange, i, len(g.cells))
	}
	return nil
}

// Get returns the cell at index i.
func (g *Grid) Get(i int) (Cell, error) {
	if err := g.checkIndex(i); err != nil {
		return Empty, err
	}
	return g.cells[i], nil
}

// Set stores c at index i.
func (g *Grid) Set(i int, c Cell) error {
	if err := g.checkIndex(i); err != nil {
		return err
	}
	g.cells[i] = c
	return nil
}

// IndexOf converts a row/column pair to a cell index.
func (g *Grid) IndexOf(row, col int) (int, error) {
	if row < 0 || row >= g.size || col < 0 || col >= g.size {
		return 0, fmt.Errorf("%w: row %d col %d on %dx%d grid", ErrOutOfRange, row, col, g.size, g.size)
	}
	return row*g.size + col, nil
}

// Neighbors returns the in-bounds 4-connected neighbours of i
// (up, down, left, right). There is no wraparound.
func (g *Grid) Neighbors(i int) []int {
	return neighbors(i, g.size)
}

func neighbors(i, n int) []int {
	row, col := i/n, i%n
	out := make([]int, 0, 4)
	if row > 0 {
		out = append(out, i-n)
	}
	if row < n-1 {
		out = append(out, i+n)
	}
	if col > 0 {
		out = append(out, i-1)
	}
	if col < n-1 {
		out = append(out, i+1)
	}
	return out
}

// ToSnapshot copies the current cells.
func (g *Grid) ToSnapshot() Snapshot {
	return NewSnapshot(g.size, g.cells)
}

// Restore overwrites every cell from s. On a size mismatch nothing changes.
func (g *Grid) Restore(s Snapshot) error {
	if s.Len() != len(g.cells) {
		return fmt.Errorf("%w: snapshot has %d cells, grid has %d", ErrSizeMismatch, s.Len(), len(g.cells))
	}
	copy(g.cells, s.cells)
	return nil
}

// Clear empties every cell.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = Empty
	}
}

// FilledCount returns how many cells hold a color.
func (g *Grid) FilledCount() int {
	n := 0
	for _, c := range g.cells {
		if !c.IsEmpty() {
			n++
		}
	}
	return n
}
