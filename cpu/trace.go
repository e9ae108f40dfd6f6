package cpu

import (
	"slices"

	"github.com/ezrec/stackvm/internal"
)

// History is a snapshot taken after a successfully executed instruction.
type History struct {
	Text  string  `json:"command"`        // Executed instruction.
	Ip    int     `json:"programCounter"` // Address it was executed from.
	Stack []int32 `json:"stack"`          // Stack after execution.
	Flags Flags   `json:"flags"`          // Flags after execution.
}

// Trace records the most recent history entries.
type Trace struct {
	ring *internal.Ring[History]
}

// NewTrace creates a trace holding up to depth entries.
func NewTrace(depth int) *Trace {
	return &Trace{ring: internal.NewRing[History](depth)}
}

// Record appends a history entry.
func (tr *Trace) Record(text string, ip int, stack []int32, flags Flags) {
	tr.ring.Push(History{
		Text:  text,
		Ip:    ip,
		Stack: slices.Clone(stack),
		Flags: flags,
	})
}

// Len returns the number of entries held.
func (tr *Trace) Len() int {
	return tr.ring.Len()
}

// Reset drops all entries.
func (tr *Trace) Reset() {
	tr.ring.Clear()
}

// Entries returns the entries from oldest to newest.
func (tr *Trace) Entries() []History {
	return slices.Collect(tr.ring.All())
}
