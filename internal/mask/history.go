package mask

// DefaultDepth is the number of snapshots kept when no depth is configured.
const DefaultDepth = 20

// History is a bounded stack of surface snapshots. The top entry is the
// state from just before the most recent stroke. The bottom entry is the
// base state that undo never removes; once the depth is exceeded the oldest
// entry is evicted and the next one becomes the base.
type History struct {
	ring  []Snapshot
	start int
	n     int
}

// NewHistory creates a History holding at most depth snapshots.
// Depths below 2 are raised to 2 so at least one undo is possible.
func NewHistory(depth int) *History {
	if depth < 2 {
		depth = 2
	}
	return &History{ring: make([]Snapshot, depth)}
}

// Push adds a snapshot, evicting the oldest when the stack is full.
func (h *History) Push(s Snapshot) {
	if h.n == len(h.ring) {
		h.ring[h.start] = Snapshot{}
		h.start = (h.start + 1) % len(h.ring)
		h.n--
	}
	h.ring[(h.start+h.n)%len(h.ring)] = s
	h.n++
}

// Capture snapshots surf and pushes the copy.
func (h *History) Capture(surf *Surface) error {
	snap, err := surf.Snapshot()
	if err != nil {
		return err
	}
	h.Push(snap)
	return nil
}

// Reset discards every entry and stores surf's current state as the base.
func (h *History) Reset(surf *Surface) error {
	for i := range h.ring {
		h.ring[i] = Snapshot{}
	}
	h.start, h.n = 0, 0
	return h.Capture(surf)
}

// Undo restores surf to the top snapshot and discards it. It is a no-op
// returning false when only the base entry remains.
func (h *History) Undo(surf *Surface) (bool, error) {
	if !h.CanUndo() {
		return false, nil
	}
	top := h.ring[h.index(h.n-1)]
	if err := surf.Restore(top); err != nil {
		return false, err
	}
	h.ring[h.index(h.n-1)] = Snapshot{}
	h.n--
	return true, nil
}

// CanUndo reports whether more than the base entry remains.
func (h *History) CanUndo() bool {
	return h.n > 1
}

// Len returns the number of stored snapshots.
func (h *History) Len() int {
	return h.n
}

// Cap returns the maximum number of stored snapshots.
func (h *History) Cap() int {
	return len(h.ring)
}

func (h *History) index(i int) int {
	return (h.start + i) % len(h.ring)
}
