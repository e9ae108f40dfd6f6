package cpu

import (
	"iter"
	"slices"

	log "github.com/sirupsen/logrus"
)

// Cpu is the simulation context for the stack machine.
//
// Instruction memory and data memory are separate address spaces. All
// execution faults halt the Cpu and are recorded in its state; Step and Run
// never return them. A Cpu must only be used by one goroutine at a time.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	config Config

	code    []uint32 // Instruction memory.
	data    []int32  // Data memory.
	stack   Stack    // Operand stack.
	ip      int      // Program counter.
	flags   Flags    // Condition flags.
	halted  bool     // Halted by HALT, end of program, or a fault.
	err     error    // Fault that halted the Cpu, if any.
	ticks   int      // Executed instruction count.
	current string   // Text of the last fetched instruction.
	trace   *Trace   // Optional execution history.
}

// NewCpu creates a new CPU with the given memory sizing.
func NewCpu(config Config) (cpu *Cpu) {
	cpu = &Cpu{
		config: config.normalize(),
	}

	if cpu.config.TraceDepth > 0 {
		cpu.trace = NewTrace(cpu.config.TraceDepth)
	}

	cpu.Reset()

	return
}

// Config returns the memory sizing of the Cpu.
func (cpu *Cpu) Config() Config {
	return cpu.config
}

// Defines returns the assembler equates describing this Cpu.
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return cpu.config.Defines()
}

// Reset the CPU state.
// - Clears the stack, flags, data memory, and history.
// - Zeros the cycle counter.
// - Sets the program counter to 0.
// The instruction memory is retained.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Debugf("cpu: reset")
	}

	cpu.data = make([]int32, cpu.config.DataSize)
	cpu.stack = Stack{Limit: cpu.config.StackLimit}
	cpu.ip = 0
	cpu.flags = Flags{}
	cpu.halted = false
	cpu.err = nil
	cpu.ticks = 0
	cpu.current = ""
	if cpu.trace != nil {
		cpu.trace.Reset()
	}
}

// Load resets the CPU and installs a program and initial data.
// Data is copied to data memory starting at dataStart; values that would
// fall outside of data memory are dropped.
func (cpu *Cpu) Load(prog *Program, data []int32, dataStart int) {
	cpu.LoadWords(prog.Binary(), data, dataStart)
}

// LoadWords is Load for a raw instruction word image.
func (cpu *Cpu) LoadWords(words []uint32, data []int32, dataStart int) {
	cpu.code = slices.Clone(words)
	cpu.Reset()

	for n, value := range data {
		addr := dataStart + n
		if addr < 0 || addr >= len(cpu.data) {
			continue
		}
		cpu.data[addr] = value
	}

	if cpu.Verbose {
		log.WithFields(log.Fields{"words": len(words), "data": len(data), "start": dataStart}).Debug("cpu: load")
	}
}

// Halted returns true once the Cpu has stopped.
func (cpu *Cpu) Halted() bool {
	return cpu.halted
}

// Err returns the fault that halted the Cpu, or nil.
func (cpu *Cpu) Err() error {
	return cpu.err
}

// Ip returns the program counter.
func (cpu *Cpu) Ip() int {
	return cpu.ip
}

// Ticks returns the number of executed instructions.
func (cpu *Cpu) Ticks() int {
	return cpu.ticks
}

// Peek reads a data memory cell.
func (cpu *Cpu) Peek(addr int) (value int32, err error) {
	if addr < 0 || addr >= len(cpu.data) {
		err = ErrMemoryAddress(addr)
		return
	}
	value = cpu.data[addr]
	return
}

// Poke writes a data memory cell.
func (cpu *Cpu) Poke(addr int, value int32) (err error) {
	if addr < 0 || addr >= len(cpu.data) {
		err = ErrMemoryAddress(addr)
		return
	}
	cpu.data[addr] = value
	return
}

// State returns a snapshot of the Cpu.
func (cpu *Cpu) State() (st State) {
	window := cpu.config.DataWindow
	if window < 0 || window > len(cpu.data) {
		window = len(cpu.data)
	}

	st = State{
		Ip:      cpu.ip,
		Stack:   slices.Clone(cpu.stack.Data),
		Data:    slices.Clone(cpu.data[:window]),
		Code:    slices.Clone(cpu.code),
		Flags:   cpu.flags,
		Halted:  cpu.halted,
		Err:     cpu.err,
		Cycles:  cpu.ticks,
		Current: cpu.current,
	}
	if st.Stack == nil {
		st.Stack = []int32{}
	}
	if cpu.err != nil {
		st.Error = cpu.err.Error()
	}
	if cpu.trace != nil {
		st.History = cpu.trace.Entries()
	}

	return
}

// halt stops the Cpu, recording the fault if err is not nil.
func (cpu *Cpu) halt(word uint32, err error) {
	cpu.halted = true
	if err == nil {
		return
	}

	cpu.err = &ErrFault{Ip: cpu.ip, Word: word, Err: err}
	if cpu.Verbose {
		log.WithFields(log.Fields{"ip": cpu.ip, "cycle": cpu.ticks}).Debugf("cpu: %v", cpu.err)
	}
}

// Step executes a single instruction.
// Returns false once the Cpu is halted.
func (cpu *Cpu) Step() (continues bool) {
	if cpu.halted {
		return
	}

	if cpu.ip < 0 || cpu.ip >= len(cpu.code) {
		if cpu.Verbose {
			log.WithField("ip", cpu.ip).Debug("cpu: end of program")
		}
		cpu.halted = true
		return
	}

	word := cpu.code[cpu.ip]
	code, err := DecodeWord(word)
	if err != nil {
		cpu.current = DisassembleWord(word)
		cpu.halt(word, err)
		return
	}

	cpu.current = code.String()

	if cpu.Verbose {
		log.WithFields(log.Fields{"ip": cpu.ip, "op": code.Op, "cycle": cpu.ticks}).Debugf("cpu: %v", code)
	}

	ip := cpu.ip
	err = cpu.Execute(code)
	if err != nil {
		cpu.halt(word, err)
		return
	}

	cpu.ticks++
	if cpu.trace != nil {
		cpu.trace.Record(cpu.current, ip, cpu.stack.Data, cpu.flags)
	}

	return !cpu.halted
}

// Run steps until the Cpu halts or maxCycles instructions have executed.
// Reaching maxCycles is not an error; the returned State is simply not halted.
func (cpu *Cpu) Run(maxCycles int) State {
	for range maxCycles {
		if !cpu.Step() {
			break
		}
	}

	return cpu.State()
}

// Execute executes a single decoded instruction at the program counter.
// On error, the Cpu state is unchanged.
func (cpu *Cpu) Execute(code Code) (err error) {
	s := &cpu.stack
	next_ip := cpu.ip + 1

	// Operand and room checks come first, so a fault leaves the stack intact.
	switch code.Op {
	case OP_POP, OP_DUP, OP_NOT, OP_INC, OP_DEC, OP_LOAD:
		if !s.Has(1) {
			return ErrStackEmpty
		}
	case OP_SWAP, OP_ADD, OP_SUB, OP_MUL, OP_DIV, OP_AND, OP_OR, OP_XOR, OP_CMP, OP_STORE:
		if !s.Has(2) {
			return ErrStackEmpty
		}
	case OP_ROT:
		if !s.Has(3) {
			return ErrStackEmpty
		}
	}

	switch code.Op {
	case OP_PUSH, OP_DUP:
		if !s.Room(1) {
			return ErrStackFull
		}
	}

	switch code.Op {
	case OP_NOP:
		// pass
	case OP_HALT:
		cpu.halted = true
	case OP_PUSH:
		s.Push(code.Operand)
	case OP_POP:
		s.Pop()
	case OP_DUP:
		a, _ := s.Peek()
		s.Push(a)
	case OP_SWAP:
		b, _ := s.Pop()
		a, _ := s.Pop()
		s.Push(b)
		s.Push(a)
	case OP_ROT:
		// [a b c] => [b c a]
		c, _ := s.Pop()
		b, _ := s.Pop()
		a, _ := s.Pop()
		s.Push(b)
		s.Push(c)
		s.Push(a)
	case OP_ADD, OP_SUB, OP_MUL, OP_AND, OP_OR, OP_XOR:
		b, _ := s.Pop()
		a, _ := s.Pop()
		result := doAlu(code.Op, int64(a), int64(b))
		s.Push(int32(result))
		cpu.flags = flagsOf(result)
	case OP_DIV:
		b, _ := s.Peek()
		if b == 0 {
			return ErrDivideByZero
		}
		s.Pop()
		a, _ := s.Pop()
		quotient, remainder := floorDiv(int64(a), int64(b))
		s.Push(int32(quotient))
		s.Push(int32(remainder))
		cpu.flags = flagsOf(quotient)
	case OP_NOT:
		a, _ := s.Pop()
		result := int64(^a)
		s.Push(int32(result))
		cpu.flags = flagsOf(result)
	case OP_INC, OP_DEC:
		a, _ := s.Pop()
		result := int64(a) + 1
		if code.Op == OP_DEC {
			result = int64(a) - 1
		}
		s.Push(int32(result))
		cpu.flags = flagsOf(result)
	case OP_CMP:
		b, _ := s.Pop()
		a, _ := s.Peek()
		cpu.flags = flagsOf(int64(a) - int64(b))
	case OP_LOAD:
		addr, _ := s.Peek()
		if int(addr) < 0 || int(addr) >= len(cpu.data) {
			return ErrMemoryAddress(addr)
		}
		s.Pop()
		s.Push(cpu.data[addr])
	case OP_STORE:
		addr, _ := s.PeekAt(0)
		if int(addr) < 0 || int(addr) >= len(cpu.data) {
			return ErrMemoryAddress(addr)
		}
		s.Pop()
		value, _ := s.Pop()
		cpu.data[addr] = value
	case OP_JMP, OP_JZ, OP_JNZ, OP_JL, OP_JG, OP_JLE, OP_JGE:
		if cpu.flags.Taken(code.Op) {
			next_ip = int(code.Operand)
		}
	default:
		return ErrOpcode(code.Word())
	}

	cpu.ip = next_ip

	return
}

// doAlu performs a two operand operation without truncation.
func doAlu(op OpCode, a, b int64) (result int64) {
	switch op {
	case OP_ADD:
		result = a + b
	case OP_SUB:
		result = a - b
	case OP_MUL:
		result = a * b
	case OP_AND:
		result = a & b
	case OP_OR:
		result = a | b
	case OP_XOR:
		result = a ^ b
	}

	return
}

// floorDiv divides rounding toward negative infinity.
// The remainder has the sign of the divisor.
func floorDiv(a, b int64) (quotient, remainder int64) {
	quotient = a / b
	remainder = a % b
	if remainder != 0 && (remainder < 0) != (b < 0) {
		quotient--
		remainder += b
	}
	return
}
