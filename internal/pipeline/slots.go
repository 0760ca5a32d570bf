package pipeline

import (
	"fmt"
	"sync"
)

type slotState uint8

const (
	slotEmpty slotState = iota
	slotFilled
	slotFailed
)

type slot struct {
	state  slotState
	record Record
}

// slotTable holds one slot per identifier of the current batch, indexed
// by the identifier's position within the batch. Each slot transitions
// Empty -> Filled | Failed exactly once; a second write is a pipeline
// bug and is reported as an error rather than overwriting.
//
// The table is what makes final output ordering independent of
// completion order: workers finish in any order, compaction walks slots
// in identifier order.
type slotTable struct {
	mu    sync.Mutex
	slots []slot
}

func newSlotTable(size int) *slotTable {
	return &slotTable{slots: make([]slot, size)}
}

func (t *slotTable) fill(idx int, rec Record) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if idx < 0 || idx >= len(t.slots) {
		return fmt.Errorf("slot index %d out of range [0, %d)", idx, len(t.slots))
	}
	if t.slots[idx].state != slotEmpty {
		return fmt.Errorf("slot %d resolved twice", idx)
	}
	t.slots[idx] = slot{state: slotFilled, record: rec}
	return nil
}

func (t *slotTable) fail(idx int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if idx < 0 || idx >= len(t.slots) {
		return fmt.Errorf("slot index %d out of range [0, %d)", idx, len(t.slots))
	}
	if t.slots[idx].state != slotEmpty {
		return fmt.Errorf("slot %d resolved twice", idx)
	}
	t.slots[idx].state = slotFailed
	return nil
}

// unresolved returns the indexes of slots still empty. After a batch
// drains this must be empty; anything else means an identifier was
// silently dropped.
func (t *slotTable) unresolved() []int {
	t.mu.Lock()
	defer t.mu.Unlock()

	var idxs []int
	for i := range t.slots {
		if t.slots[i].state == slotEmpty {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

// compact walks the slots in identifier order, skips failed ones, and
// assigns dense serial numbers continuing from serialBase.
func (t *slotTable) compact(serialBase int) []Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	records := make([]Record, 0, len(t.slots))
	serial := serialBase
	for i := range t.slots {
		if t.slots[i].state != slotFilled {
			continue
		}
		serial++
		rec := t.slots[i].record
		rec.SerialNo = serial
		records = append(records, rec)
	}
	return records
}
