package cpu

import (
	"math"
)

// Flags are the condition bits derived from the last value-producing instruction.
type Flags struct {
	Zero     bool `json:"zero"`
	Negative bool `json:"negative"`
	Overflow bool `json:"overflow"`
}

// flagsOf computes the flags for an untruncated result.
func flagsOf(result int64) Flags {
	return Flags{
		Zero:     result == 0,
		Negative: result < 0,
		Overflow: result > math.MaxInt32 || result < math.MinInt32,
	}
}

// Taken returns true if the jump opcode's condition holds.
func (fl Flags) Taken(op OpCode) bool {
	switch op {
	case OP_JMP:
		return true
	case OP_JZ:
		return fl.Zero
	case OP_JNZ:
		return !fl.Zero
	case OP_JL:
		return fl.Negative
	case OP_JG:
		return !fl.Negative && !fl.Zero
	case OP_JLE:
		return fl.Negative || fl.Zero
	case OP_JGE:
		return !fl.Negative
	}
	return false
}

func (fl Flags) String() string {
	bit := func(set bool, name string) string {
		if set {
			return name
		}
		return "-"
	}
	return bit(fl.Zero, "Z") + bit(fl.Negative, "N") + bit(fl.Overflow, "V")
}
