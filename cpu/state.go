package cpu

import (
	"fmt"
	"strings"
)

// State is a read-only snapshot of the Cpu. It shares no memory with the Cpu.
type State struct {
	Ip      int       `json:"pc"`
	Stack   []int32   `json:"stack"`
	Data    []int32   `json:"data_memory"` // Leading window of the data memory.
	Code    []uint32  `json:"instruction_memory"`
	Flags   Flags     `json:"flags"`
	Halted  bool      `json:"halted"`
	Err     error     `json:"-"`
	Error   string    `json:"error,omitempty"`
	Cycles  int       `json:"cycles"`
	Current string    `json:"current_command"`
	History []History `json:"history,omitempty"`
}

// Sp returns the index of the top of stack, or -1 when empty.
func (st *State) Sp() int {
	return len(st.Stack) - 1
}

// String returns the state as register-style text.
func (st *State) String() (text string) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%7s: %04X\n", "pc", st.Ip)
	fmt.Fprintf(&sb, "%7s: %v\n", "flags", st.Flags)
	fmt.Fprintf(&sb, "%7s: %v\n", "cycles", st.Cycles)
	fmt.Fprintf(&sb, "%7s: %v\n", "halted", st.Halted)
	fmt.Fprintf(&sb, "%7s: %v\n", "stack", st.Stack)
	if len(st.Current) != 0 {
		fmt.Fprintf(&sb, "%7s: %v\n", "current", st.Current)
	}
	if len(st.Error) != 0 {
		fmt.Fprintf(&sb, "%7s: %v\n", "error", st.Error)
	}

	return sb.String()
}
