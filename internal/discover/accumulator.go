package discover

import (
	"sync"

	"github.com/atelierlab/archharvest/internal/ledger"
)

// Accumulator is the single shared result table discovery workers append
// into. Appends are atomic under an internal lock and Snapshot returns a full
// copy, so no reader ever observes a half-written batch.
type Accumulator struct {
	mu   sync.Mutex
	rows []ledger.Row
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Append adds a batch of rows in one atomic step.
func (a *Accumulator) Append(rows []ledger.Row) {
	if len(rows) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rows = append(a.rows, rows...)
}

// Snapshot returns a copy of all rows appended so far.
func (a *Accumulator) Snapshot() []ledger.Row {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]ledger.Row, len(a.rows))
	copy(out, a.rows)
	return out
}

// Len reports the current row count.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.rows)
}
