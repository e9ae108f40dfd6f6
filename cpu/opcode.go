package cpu

import (
	"fmt"
	"strings"
)

// OpCode is the 8-bit operation tag held in the low byte of an instruction word.
type OpCode uint8

//go:generate go tool stringer -linecomment -type=OpCode
const (
	OP_NOP   = OpCode(0x00) // NOP
	OP_ADD   = OpCode(0x01) // ADD
	OP_SUB   = OpCode(0x02) // SUB
	OP_MUL   = OpCode(0x03) // MUL
	OP_DIV   = OpCode(0x04) // DIV
	OP_AND   = OpCode(0x05) // AND
	OP_OR    = OpCode(0x06) // OR
	OP_XOR   = OpCode(0x07) // XOR
	OP_NOT   = OpCode(0x08) // NOT
	OP_CMP   = OpCode(0x09) // CMP
	OP_INC   = OpCode(0x0a) // INC
	OP_DEC   = OpCode(0x0b) // DEC
	OP_PUSH  = OpCode(0x10) // PUSH
	OP_POP   = OpCode(0x11) // POP
	OP_DUP   = OpCode(0x12) // DUP
	OP_SWAP  = OpCode(0x13) // SWAP
	OP_ROT   = OpCode(0x14) // ROT
	OP_LOAD  = OpCode(0x20) // LOAD
	OP_STORE = OpCode(0x21) // STORE
	OP_JMP   = OpCode(0x30) // JMP
	OP_JZ    = OpCode(0x31) // JZ
	OP_JNZ   = OpCode(0x32) // JNZ
	OP_JL    = OpCode(0x33) // JL
	OP_JG    = OpCode(0x34) // JG
	OP_JLE   = OpCode(0x35) // JLE
	OP_JGE   = OpCode(0x36) // JGE
	OP_HALT  = OpCode(0x99) // HALT
)

// CodeClass groups opcodes by the part of the machine they act on.
type CodeClass int

//go:generate go tool stringer -linecomment -type=CodeClass
const (
	CLASS_STACK      = CodeClass(0) // stack
	CLASS_ARITHMETIC = CodeClass(1) // arithmetic
	CLASS_LOGICAL    = CodeClass(2) // logical
	CLASS_MEMORY     = CodeClass(3) // memory
	CLASS_JUMP       = CodeClass(4) // jump
	CLASS_SYSTEM     = CodeClass(5) // system
)

// Operand field layout of a packed instruction word.
const (
	OPERAND_SHIFT = 8
	OPERAND_BITS  = 32 - OPERAND_SHIFT
	OPERAND_MASK  = uint32(1<<OPERAND_BITS) - 1
	OPERAND_MIN   = -(1 << (OPERAND_BITS - 1))
	OPERAND_MAX   = (1 << OPERAND_BITS) - 1 // Largest 0x/0b magnitude.

	OPERAND_SIGNED_MAX = (1 << (OPERAND_BITS - 1)) - 1 // Largest decimal.
)

// AllOpCodes lists every defined opcode, in tag order.
var AllOpCodes = []OpCode{
	OP_NOP, OP_ADD, OP_SUB, OP_MUL, OP_DIV, OP_AND, OP_OR, OP_XOR, OP_NOT,
	OP_CMP, OP_INC, OP_DEC,
	OP_PUSH, OP_POP, OP_DUP, OP_SWAP, OP_ROT,
	OP_LOAD, OP_STORE,
	OP_JMP, OP_JZ, OP_JNZ, OP_JL, OP_JG, OP_JLE, OP_JGE,
	OP_HALT,
}

// opMap maps upper-case mnemonics to opcodes.
var opMap = func() map[string]OpCode {
	m := make(map[string]OpCode, len(AllOpCodes))
	for _, op := range AllOpCodes {
		m[op.String()] = op
	}
	return m
}()

// LookupOpCode finds the opcode for a case-insensitive mnemonic.
func LookupOpCode(mnemonic string) (op OpCode, ok bool) {
	op, ok = opMap[strings.ToUpper(mnemonic)]
	return
}

// Valid returns true if the opcode is a defined tag.
func (op OpCode) Valid() bool {
	switch op {
	case OP_NOP, OP_ADD, OP_SUB, OP_MUL, OP_DIV, OP_AND, OP_OR, OP_XOR, OP_NOT,
		OP_CMP, OP_INC, OP_DEC,
		OP_PUSH, OP_POP, OP_DUP, OP_SWAP, OP_ROT,
		OP_LOAD, OP_STORE,
		OP_JMP, OP_JZ, OP_JNZ, OP_JL, OP_JG, OP_JLE, OP_JGE,
		OP_HALT:
		return true
	}
	return false
}

// Arity returns the number of operands (0 or 1) the opcode carries.
func (op OpCode) Arity() int {
	switch op {
	case OP_PUSH, OP_JMP, OP_JZ, OP_JNZ, OP_JL, OP_JG, OP_JLE, OP_JGE:
		return 1
	}
	return 0
}

// IsJump returns true for the opcodes that set the instruction pointer.
func (op OpCode) IsJump() bool {
	return op.Class() == CLASS_JUMP
}

// Class returns the category of the opcode.
func (op OpCode) Class() CodeClass {
	switch op {
	case OP_PUSH, OP_POP, OP_DUP, OP_SWAP, OP_ROT:
		return CLASS_STACK
	case OP_ADD, OP_SUB, OP_MUL, OP_DIV, OP_INC, OP_DEC:
		return CLASS_ARITHMETIC
	case OP_AND, OP_OR, OP_XOR, OP_NOT, OP_CMP:
		return CLASS_LOGICAL
	case OP_LOAD, OP_STORE:
		return CLASS_MEMORY
	case OP_JMP, OP_JZ, OP_JNZ, OP_JL, OP_JG, OP_JLE, OP_JGE:
		return CLASS_JUMP
	}
	return CLASS_SYSTEM
}

// SetsFlags returns true if the opcode recomputes the flags.
func (op OpCode) SetsFlags() bool {
	switch op.Class() {
	case CLASS_ARITHMETIC, CLASS_LOGICAL:
		return true
	}
	return false
}

// Code is a single decoded instruction.
type Code struct {
	Op      OpCode
	Operand int32 // Ignored unless Op.Arity() is 1.
}

// MakeCode creates an instruction without an operand.
func MakeCode(op OpCode) Code {
	return Code{Op: op}
}

// MakeCodeOperand creates an instruction with an operand.
func MakeCodeOperand(op OpCode, operand int32) Code {
	return Code{Op: op, Operand: operand}
}

// Word packs the instruction as (operand << 8) | opcode.
// The operand is truncated to its low 24 bits.
func (code Code) Word() uint32 {
	word := uint32(code.Op)
	if code.Op.Arity() != 0 {
		word |= (uint32(code.Operand) & OPERAND_MASK) << OPERAND_SHIFT
	}
	return word
}

// DecodeWord unpacks an instruction word. The 24-bit operand is sign extended.
func DecodeWord(word uint32) (code Code, err error) {
	op := OpCode(word & 0xff)
	if !op.Valid() {
		err = ErrOpcode(word)
		return
	}

	code.Op = op
	if op.Arity() != 0 {
		code.Operand = int32(word) >> OPERAND_SHIFT
	}

	return
}

// String returns the assembly language representation of this instruction.
func (code Code) String() string {
	if code.Op.Arity() == 0 {
		return code.Op.String()
	}
	return fmt.Sprintf("%v %d", code.Op, code.Operand)
}
