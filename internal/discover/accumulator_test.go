package discover

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierlab/archharvest/internal/ledger"
)

func TestAccumulatorConcurrentAppends(t *testing.T) {
	const workers = 8
	const batch = 50

	acc := NewAccumulator()
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			rows := make([]ledger.Row, batch)
			for i := range rows {
				rows[i] = ledger.Row{ProjectID: fmt.Sprintf("%d-%d", w, i)}
			}
			acc.Append(rows)
		}(w)
	}
	wg.Wait()

	require.Equal(t, workers*batch, acc.Len())

	// Batches are atomic: each worker's rows stay contiguous.
	snapshot := acc.Snapshot()
	for i := 0; i < len(snapshot); i += batch {
		first := snapshot[i].ProjectID
		last := snapshot[i+batch-1].ProjectID
		assert.Equal(t, first[:1], last[:1], "batch split across rows %d..%d", i, i+batch-1)
	}
}

func TestAccumulatorSnapshotIsACopy(t *testing.T) {
	acc := NewAccumulator()
	acc.Append([]ledger.Row{{ProjectID: "100"}})

	snap := acc.Snapshot()
	snap[0].ProjectID = "mutated"

	assert.Equal(t, "100", acc.Snapshot()[0].ProjectID)
}

func TestAccumulatorEmptyAppendIgnored(t *testing.T) {
	acc := NewAccumulator()
	acc.Append(nil)
	assert.Equal(t, 0, acc.Len())
}
