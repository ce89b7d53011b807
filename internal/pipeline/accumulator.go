package pipeline

import (
	"sync"

	"github.com/sells-group/geopost/internal/model"
)

// Accumulator is the append-only, in-memory collection of resolved entries
// for one run. Entries can be read any number of times.
type Accumulator struct {
	mu      sync.RWMutex
	entries []model.Entry
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Append adds an entry at the end.
func (a *Accumulator) Append(e model.Entry) {
	a.mu.Lock()
	a.entries = append(a.entries, e)
	a.mu.Unlock()
}

// Len returns the number of entries appended so far.
func (a *Accumulator) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.entries)
}

// Entries returns a copy of the entries in append order.
func (a *Accumulator) Entries() []model.Entry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]model.Entry, len(a.entries))
	copy(out, a.entries)
	return out
}
