package emulator

import (
	"cmp"
	"slices"

	"github.com/ezrec/stackvm/cpu"
)

var _opcode_description = map[cpu.OpCode]string{
	cpu.OP_NOP:   "no operation; only advances the program counter",
	cpu.OP_ADD:   "pop b and a, push a+b",
	cpu.OP_SUB:   "pop b and a, push a-b",
	cpu.OP_MUL:   "pop b and a, push a*b",
	cpu.OP_DIV:   "pop b and a, push the floor quotient a/b then the remainder a%b",
	cpu.OP_AND:   "pop b and a, push the bitwise AND",
	cpu.OP_OR:    "pop b and a, push the bitwise OR",
	cpu.OP_XOR:   "pop b and a, push the bitwise exclusive OR",
	cpu.OP_NOT:   "pop a, push the bitwise complement",
	cpu.OP_CMP:   "pop b, compare against a without removing it, set the flags from a-b",
	cpu.OP_INC:   "pop a, push a+1",
	cpu.OP_DEC:   "pop a, push a-1",
	cpu.OP_PUSH:  "push the operand",
	cpu.OP_POP:   "discard the top of the stack",
	cpu.OP_DUP:   "duplicate the top of the stack",
	cpu.OP_SWAP:  "exchange the top two entries",
	cpu.OP_ROT:   "rotate the top three entries, moving the third to the top",
	cpu.OP_LOAD:  "pop an address, push the data memory cell at it",
	cpu.OP_STORE: "pop an address and a value, store the value at the address",
	cpu.OP_JMP:   "jump to the operand address",
	cpu.OP_JZ:    "jump if the zero flag is set",
	cpu.OP_JNZ:   "jump if the zero flag is clear",
	cpu.OP_JL:    "jump if the negative flag is set",
	cpu.OP_JG:    "jump if neither the negative nor the zero flag is set",
	cpu.OP_JLE:   "jump if the negative or the zero flag is set",
	cpu.OP_JGE:   "jump if the negative flag is clear",
	cpu.OP_HALT:  "stop execution",
}

// Describe returns the translated description of an opcode.
func Describe(op cpu.OpCode) string {
	desc, ok := _opcode_description[op]
	if !ok {
		return f("unknown operation")
	}

	return f(desc)
}

// OpcodeInfo is a catalog entry for an opcode.
type OpcodeInfo struct {
	Op          cpu.OpCode
	Mnemonic    string
	Class       cpu.CodeClass
	Arity       int
	Description string
}

// Opcodes returns the opcode catalog, grouped by class and ordered by tag.
func Opcodes() (infos []OpcodeInfo) {
	for _, op := range cpu.AllOpCodes {
		infos = append(infos, OpcodeInfo{
			Op:          op,
			Mnemonic:    op.String(),
			Class:       op.Class(),
			Arity:       op.Arity(),
			Description: Describe(op),
		})
	}

	slices.SortStableFunc(infos, func(a, b OpcodeInfo) int {
		return cmp.Or(cmp.Compare(a.Class, b.Class), cmp.Compare(a.Op, b.Op))
	})

	return
}
