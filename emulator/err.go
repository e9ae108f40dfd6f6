package emulator

import (
	"github.com/ezrec/stackvm/translate"
)

var f = translate.From

// ErrRuntime indicates the source location of a runtime fault.
type ErrRuntime struct {
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo == 0 {
		return err.Err.Error()
	}
	return f("line %d %v", err.LineNo, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}

// ErrInstructionAddress is an address outside of instruction memory.
type ErrInstructionAddress int

func (err ErrInstructionAddress) Error() string {
	return f("invalid instruction address %d", int(err))
}
