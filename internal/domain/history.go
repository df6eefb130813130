package domain

// DefaultHistoryCapacity is how many undo steps a session keeps.
const DefaultHistoryCapacity = 100

// History is a bounded stack of grid snapshots. Pushing past capacity
// drops the oldest entry; Undo consumes the newest.
type History struct {
	capacity int
	entries  []Snapshot
}

// NewHistory returns an empty history. A non-positive capacity
// falls back to DefaultHistoryCapacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{capacity: capacity, entries: make([]Snapshot, 0, capacity)}
}

// Push records the current state of g. Call it before mutating g.
func (h *History) Push(g *Grid) {
	h.push(g.ToSnapshot())
}

func (h *History) push(s Snapshot) {
	if len(h.entries) >= h.capacity {
		copy(h.entries, h.entries[1:])
		h.entries = h.entries[:len(h.entries)-1]
	}
	h.entries = append(h.entries, s)
}

// Undo restores g to the most recent snapshot. It returns false when
// there is nothing to undo. If the snapshot does not fit g the entry is
// kept and the error returned.
func (h *History) Undo(g *Grid) (bool, error) {
	if len(h.entries) == 0 {
		return false, nil
	}
	last := h.entries[len(h.entries)-1]
	if err := g.Restore(last); err != nil {
		return false, err
	}
	h.entries[len(h.entries)-1] = Snapshot{}
	h.entries = h.entries[:len(h.entries)-1]
	return true, nil
}

// Len returns the number of stored snapshots.
func (h *History) Len() int { return len(h.entries) }

// Capacity returns the maximum depth.
func (h *History) Capacity() int { return h.capacity }

// Reset drops every entry.
func (h *History) Reset() {
	for i := range h.entries {
		h.entries[i] = Snapshot{}
	}
	h.entries = h.entries[:0]
}
