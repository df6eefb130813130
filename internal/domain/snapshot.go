package domain

import (
	"fmt"
	"time"
)

// Snapshot is an immutable copy of a grid's cells. It never shares
// storage with the grid it was taken from.
type Snapshot struct {
	size  int
	cells []Cell
}

// NewSnapshot copies cells into a snapshot of side size.
func NewSnapshot(size int, cells []Cell) Snapshot {
	cp := make([]Cell, len(cells))
	copy(cp, cells)
	return Snapshot{size: size, cells: cp}
}

// EmptySnapshot returns an all-empty snapshot of side n.
func EmptySnapshot(n int) Snapshot {
	if n < 0 {
		n = 0
	}
	return Snapshot{size: n, cells: make([]Cell, n*n)}
}

// Size returns the side length the snapshot was taken with.
func (s Snapshot) Size() int { return s.size }

// Len returns the number of cells.
func (s Snapshot) Len() int { return len(s.cells) }

// At returns the cell at i; out-of-range indices read as Empty.
func (s Snapshot) At(i int) Cell {
	if i < 0 || i >= len(s.cells) {
		return Empty
	}
	return s.cells[i]
}

// Cells returns a copy of the cell slice.
func (s Snapshot) Cells() []Cell {
	cp := make([]Cell, len(s.cells))
	copy(cp, s.cells)
	return cp
}

// Equal reports whether both snapshots hold the same cells in the same order.
func (s Snapshot) Equal(o Snapshot) bool {
	if s.size != o.size || len(s.cells) != len(o.cells) {
		return false
	}
	for i := range s.cells {
		if s.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

// BoardSnapshot is an archived grid state of a board stored in the database.
type BoardSnapshot struct {
	ID        uint      `gorm:"primaryKey"`
	BoardID   uint      `gorm:"index;not null"`
	GridSize  int       `gorm:"not null"`
	Data      string    `gorm:"type:longtext;not null"` // encoded grid, see EncodeSnapshot
	Version   uint      `gorm:"index"`                  // board version the archive was taken at
	CreatedAt time.Time `gorm:"index;not null"`
}

// ParseState decodes the archived grid.
func (s *BoardSnapshot) ParseState() (Snapshot, error) {
	if s.Data == "" {
		return EmptySnapshot(s.GridSize), nil
	}
	return DecodeSnapshot([]byte(s.Data), s.GridSize)
}

// SetState encodes snap into the Data column.
func (s *BoardSnapshot) SetState(snap Snapshot) error {
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return fmt.Errorf("failed to encode board state: %w", err)
	}
	s.GridSize = snap.Size()
	s.Data = string(data)
	return nil
}
