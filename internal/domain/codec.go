package domain

import (
	"encoding/json"
	"fmt"
)

// EncodeSnapshot serializes a snapshot as a JSON array of N*N strings,
// "" for empty cells and "#rrggbb" for colors.
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	entries := make([]string, len(s.cells))
	for i, c := range s.cells {
		entries[i] = c.Hex()
	}
	return json.Marshal(entries)
}

// DecodeSnapshot parses data produced by EncodeSnapshot for a grid of side n.
// Entries written by older clients ("rgb(r, g, b)", "transparent",
// "rgba(0, 0, 0, 0)", null) are accepted. Every failure wraps ErrDeserialize.
func DecodeSnapshot(data []byte, n int) (Snapshot, error) {
	if n <= 0 {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrDeserialize, ErrInvalidSize)
	}
	var entries []*string
	if err := json.Unmarshal(data, &entries); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrDeserialize, err)
	}
	if len(entries) != n*n {
		return Snapshot{}, fmt.Errorf("%w: %d entries, want %d", ErrDeserialize, len(entries), n*n)
	}
	cells := make([]Cell, len(entries))
	for i, e := range entries {
		if e == nil {
			continue
		}
		c, err := ParseCell(*e)
		if err != nil {
			return Snapshot{}, fmt.Errorf("%w: entry %d: %v", ErrDeserialize, i, err)
		}
		cells[i] = c
	}
	return Snapshot{size: n, cells: cells}, nil
}
