package cpu

import (
	"errors"

	"github.com/ezrec/stackvm/translate"
)

var f = translate.From

var (
	// Cpu errors
	ErrStackEmpty   = errors.New(f("stack underflow"))
	ErrStackFull    = errors.New(f("stack overflow"))
	ErrDivideByZero = errors.New(f("division by zero"))

	// Assembler errors
	ErrEquateSyntax       = errors.New(f(".equ syntax"))
	ErrEquateDuplicate    = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate     = errors.New(f("label duplicated"))
	ErrLabelInvalid       = errors.New(f("label invalid"))
	ErrLabelLonely        = errors.New(f("label without instruction"))
	ErrMacroSyntax        = errors.New(f(".macro syntax"))
	ErrMacroNesting       = errors.New(f(".macro in .macro prohibited"))
	ErrMacroDuplicate     = errors.New(f(".macro duplicated"))
	ErrMacroLonely        = errors.New(f(".macro without .endm"))
	ErrMacroLonelyEndm    = errors.New(f(".endm without .macro"))
	ErrMacroRecursion     = errors.New(f(".macro expands itself"))
	ErrOpcodeExtraArgs    = errors.New(f("excessive arguments"))
	ErrOpcodeValueMissing = errors.New(f("value missing"))
	ErrOpcodeInvalid      = errors.New(f("opcode invalid"))
)

// ErrLabelMissing is an unresolved label reference.
type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

// ErrOpcode is an instruction word with an unknown opcode.
type ErrOpcode uint32

func (eo ErrOpcode) Error() string {
	return f("bad opcode 0x%02x in word 0x%08x", uint32(eo)&0xff, uint32(eo))
}

func (eo ErrOpcode) Is(err error) (ok bool) {
	_, ok = err.(ErrOpcode)
	return
}

// ErrMemoryAddress is a data memory access outside of the data memory.
type ErrMemoryAddress int64

func (em ErrMemoryAddress) Error() string {
	return f("invalid memory address %d", int64(em))
}

func (em ErrMemoryAddress) Is(err error) (ok bool) {
	_, ok = err.(ErrMemoryAddress)
	return
}

// ErrFault records the instruction that halted the CPU.
type ErrFault struct {
	Ip   int
	Word uint32
	Err  error
}

func (err *ErrFault) Error() string {
	code, derr := DecodeWord(err.Word)
	if derr != nil {
		return f("ip %d %v", err.Ip, err.Err)
	}
	return f("ip %d '%v' %v", err.Ip, code, err.Err)
}

func (err *ErrFault) Unwrap() error {
	return err.Err
}

type ErrSyntax struct {
	LineNo int
	Line   string
	Token  string
	Err    error
}

func (err ErrSyntax) Error() string {
	if len(err.Token) == 0 {
		return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
	}
	return f("line %d '%v' at '%v' %v", err.LineNo, err.Line, err.Token, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

type ErrParseCharacter string

func (err ErrParseCharacter) Error() string {
	return f("'%v' is not a character", string(err))
}

type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}

// ErrOperandRange is an operand that does not fit in the instruction word.
type ErrOperandRange int64

func (err ErrOperandRange) Error() string {
	return f("operand %d does not fit in %d bits", int64(err), OPERAND_BITS)
}

type ErrMacro struct {
	Macro string
	Line  int
	Err   error
}

func (err ErrMacro) Error() string {
	return f("macro %v line %v %v", err.Macro, err.Line, err.Err.Error())
}

func (err ErrMacro) Unwrap() error {
	return err.Err
}
