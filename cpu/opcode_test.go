package cpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpCode_Lookup(t *testing.T) {
	assert := assert.New(t)

	for _, op := range AllOpCodes {
		assert.True(op.Valid(), op.String())

		found, ok := LookupOpCode(op.String())
		assert.True(ok, op.String())
		assert.Equal(op, found)
	}

	op, ok := LookupOpCode("push")
	assert.True(ok)
	assert.Equal(OP_PUSH, op)

	op, ok = LookupOpCode("Jge")
	assert.True(ok)
	assert.Equal(OP_JGE, op)

	_, ok = LookupOpCode("LOOP")
	assert.False(ok)
}

func TestOpCode_Tags(t *testing.T) {
	assert := assert.New(t)

	table := map[OpCode]uint8{
		OP_NOP:   0x00,
		OP_ADD:   0x01,
		OP_CMP:   0x09,
		OP_PUSH:  0x10,
		OP_LOAD:  0x20,
		OP_STORE: 0x21,
		OP_JMP:   0x30,
		OP_JGE:   0x36,
		OP_HALT:  0x99,
	}

	for op, tag := range table {
		assert.Equal(tag, uint8(op), op.String())
	}

	assert.False(OpCode(0x0c).Valid())
	assert.False(OpCode(0xff).Valid())
	assert.Equal("OpCode(255)", OpCode(0xff).String())
}

func TestOpCode_Arity(t *testing.T) {
	assert := assert.New(t)

	for _, op := range AllOpCodes {
		expected := 0
		switch op {
		case OP_PUSH, OP_JMP, OP_JZ, OP_JNZ, OP_JL, OP_JG, OP_JLE, OP_JGE:
			expected = 1
		}
		assert.Equal(expected, op.Arity(), op.String())
		assert.Equal(op.Class() == CLASS_JUMP, op.IsJump(), op.String())
	}
}

func TestOpCode_Class(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(CLASS_STACK, OP_ROT.Class())
	assert.Equal(CLASS_ARITHMETIC, OP_DEC.Class())
	assert.Equal(CLASS_LOGICAL, OP_CMP.Class())
	assert.Equal(CLASS_MEMORY, OP_STORE.Class())
	assert.Equal(CLASS_JUMP, OP_JLE.Class())
	assert.Equal(CLASS_SYSTEM, OP_HALT.Class())
	assert.Equal(CLASS_SYSTEM, OP_NOP.Class())
	assert.Equal("arithmetic", CLASS_ARITHMETIC.String())

	assert.True(OP_CMP.SetsFlags())
	assert.True(OP_NOT.SetsFlags())
	assert.False(OP_LOAD.SetsFlags())
	assert.False(OP_DUP.SetsFlags())
}

func TestCode_Word(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		code Code
		word uint32
		text string
	}){
		{MakeCodeOperand(OP_PUSH, 5), 0x510, "PUSH 5"},
		{MakeCodeOperand(OP_PUSH, 3), 0x310, "PUSH 3"},
		{MakeCode(OP_ADD), 0x01, "ADD"},
		{MakeCode(OP_HALT), 0x99, "HALT"},
		{MakeCodeOperand(OP_JZ, 8), 0x831, "JZ 8"},
		{MakeCodeOperand(OP_PUSH, -1), 0xffffff10, "PUSH -1"},
		{MakeCodeOperand(OP_PUSH, OPERAND_MIN), 0x80000010, "PUSH -8388608"},
		{MakeCodeOperand(OP_PUSH, 0x7fffff), 0x7fffff10, "PUSH 8388607"},
		{Code{Op: OP_ADD, Operand: 7}, 0x01, "ADD"},
	}

	for _, entry := range table {
		assert.Equal(entry.word, entry.code.Word(), entry.text)
		assert.Equal(entry.text, entry.code.String())

		code, err := DecodeWord(entry.word)
		assert.NoError(err, entry.text)
		assert.Equal(entry.text, code.String())
	}
}

func TestDecodeWord_Unknown(t *testing.T) {
	assert := assert.New(t)

	_, err := DecodeWord(0x12345677)
	assert.Error(err)
	assert.True(errors.Is(err, ErrOpcode(0)))
	assert.Equal(ErrOpcode(0x12345677), err)
}

func TestDecodeWord_Unsigned(t *testing.T) {
	assert := assert.New(t)

	// Unsigned 24-bit operands decode sign extended.
	code, err := DecodeWord(MakeCodeOperand(OP_PUSH, 0xffffff).Word())
	assert.NoError(err)
	assert.Equal(int32(-1), code.Operand)
}

func FuzzDecodeWord(f *testing.F) {
	f.Add(uint32(0))
	f.Add(uint32(0x510))
	f.Add(uint32(0xffffff99))
	f.Add(uint32(0x12345677))

	f.Fuzz(func(t *testing.T, word uint32) {
		assert := assert.New(t)

		code, err := DecodeWord(word)
		if err != nil {
			assert.False(OpCode(word & 0xff).Valid())
			return
		}

		again, err := DecodeWord(code.Word())
		assert.NoError(err)
		assert.Equal(code, again)

		if code.Op.Arity() == 1 {
			assert.Equal(word, code.Word())
		} else {
			assert.Equal(uint32(code.Op), code.Word())
		}
	})
}
