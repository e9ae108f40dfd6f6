// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"fmt"
	"io"
	"iter"
	"maps"
	"slices"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/ezrec/stackvm/cpu"
	"github.com/ezrec/stackvm/internal"
)

const (
	MAX_CYCLES = 10000 // Default Run budget.
)

var _emulator_defines = map[string]string{
	"OPERAND_MIN": fmt.Sprintf("%v", cpu.OPERAND_MIN),
	"OPERAND_MAX": fmt.Sprintf("0x%x", cpu.OPERAND_MAX),
}

// Emulator state. CPU + program listing + initial data.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Reference to the currently loaded program listing.

	Data      []int32 // Initial data memory contents, applied on Reset.
	DataStart int     // Data memory address of Data[0].

	image []uint32 // Instruction words applied on Reset.
}

// NewEmulator creates a new emulator.
func NewEmulator(config cpu.Config) (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(config),
		Program: cpu.NewProgram(),
	}

	return
}

// Defines returns an iterator over the assembler predefines of a machine
// with the given configuration.
func Defines(config cpu.Config) iter.Seq2[string, string] {
	return internal.Concat2(maps.All(_emulator_defines),
		config.Defines(),
	)
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return Defines(emu.Cpu.Config())
}

// Compile assembles source and loads it, retaining the current initial data.
func (emu *Emulator) Compile(input io.Reader) (err error) {
	asm := &cpu.Assembler{Verbose: emu.Verbose}
	for equ, value := range emu.Defines() {
		asm.Predefine(equ, value)
	}

	prog, err := asm.Parse(input)
	if err != nil {
		return
	}

	emu.Load(prog)

	return
}

// Load installs an assembled program and resets the emulator.
func (emu *Emulator) Load(prog *cpu.Program) {
	emu.Program = prog
	emu.image = prog.Binary()
	emu.Reset()
}

// LoadWords installs a raw instruction image and resets the emulator.
// Words with an unknown opcode are kept, and fault when executed.
func (emu *Emulator) LoadWords(words []uint32) {
	prog := cpu.NewProgram()
	for ip, word := range words {
		code, err := cpu.DecodeWord(word)
		if err != nil {
			continue
		}
		prog.Opcodes = append(prog.Opcodes, cpu.Opcode{
			Ip:    ip,
			Words: strings.Fields(code.String()),
			Code:  code,
		})
	}

	emu.Program = prog
	emu.image = slices.Clone(words)
	emu.Reset()
}

// Reset the emulator to the start of the loaded program, with the
// initial data in place.
func (emu *Emulator) Reset() {
	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.LoadWords(emu.image, emu.Data, emu.DataStart)
}

// Words returns the loaded instruction image.
func (emu *Emulator) Words() []uint32 {
	return slices.Clone(emu.image)
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	return emu.lineNoAt(emu.Cpu.Ip())
}

func (emu *Emulator) lineNoAt(ip int) int {
	dbg := emu.Program.Debug(ip)
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// Step performs a single instruction of the emulator.
// done is set once the CPU has halted; err is the fault that halted it.
func (emu *Emulator) Step() (done bool, err error) {
	emu.Cpu.Verbose = emu.Verbose

	lineno := emu.LineNo()

	done = !emu.Cpu.Step()
	if done {
		err = emu.fault(lineno)
	}

	return
}

// Run steps the emulator until it halts or maxCycles have executed.
func (emu *Emulator) Run(maxCycles int) (st cpu.State, err error) {
	emu.Cpu.Verbose = emu.Verbose

	st = emu.Cpu.Run(maxCycles)
	if emu.Verbose {
		log.WithFields(log.Fields{"ip": st.Ip, "cycle": st.Cycles, "halted": st.Halted}).Debug("emulator: run")
	}

	err = emu.fault(emu.LineNo())

	return
}

func (emu *Emulator) fault(lineno int) (err error) {
	if emu.Cpu.Err() == nil {
		return
	}

	err = &ErrRuntime{LineNo: lineno, Err: emu.Cpu.Err()}
	return
}

// Instruction describes a word of instruction memory.
type Instruction struct {
	Ip          int    // Instruction address.
	Word        uint32 // Raw instruction word.
	Op          cpu.OpCode
	Operand     int32
	Valid       bool     // Set if the opcode is known.
	Text        string   // Disassembled text.
	Description string   // Opcode description.
	LineNo      int      // Source line, if known.
	Source      string   // Source words, if known.
	Labels      []string // Labels bound to this address.
}

// Instruction returns the description of the word at ip.
func (emu *Emulator) Instruction(ip int) (info Instruction, err error) {
	if ip < 0 || ip >= len(emu.image) {
		err = ErrInstructionAddress(ip)
		return
	}

	word := emu.image[ip]
	info = Instruction{
		Ip:      ip,
		Word:    word,
		Op:      cpu.OpCode(word & 0xff),
		Operand: int32(word) >> cpu.OPERAND_SHIFT,
		Text:    cpu.DisassembleWord(word),
		LineNo:  emu.lineNoAt(ip),
	}

	if code, derr := cpu.DecodeWord(word); derr == nil {
		info.Valid = true
		info.Operand = code.Operand
		info.Description = Describe(code.Op)
	} else {
		info.Description = f("unknown instruction")
	}

	if dbg := emu.Program.Debug(ip); dbg.Opcode != nil {
		info.Source = strings.Join(dbg.Words, " ")
	}

	for _, label := range emu.Program.Labels() {
		if emu.Program.Label[label] == ip {
			info.Labels = append(info.Labels, label)
		}
	}

	return
}

// StackInfo summarizes the operand stack.
type StackInfo struct {
	Size  int     // Number of entries.
	Limit int     // Maximum number of entries.
	Top   int32   // Top of stack, if Size > 0.
	Min   int32   // Smallest entry, if Size > 0.
	Max   int32   // Largest entry, if Size > 0.
	Sum   int64   // Sum of all entries.
	Stack []int32 // Entries, bottom first.
}

// StackInfo returns a summary of the operand stack.
func (emu *Emulator) StackInfo() (info StackInfo) {
	stack := emu.Cpu.State().Stack

	info = StackInfo{
		Size:  len(stack),
		Limit: emu.Cpu.Config().StackLimit,
		Stack: stack,
	}

	if len(stack) == 0 {
		return
	}

	info.Top = stack[len(stack)-1]
	info.Min = slices.Min(stack)
	info.Max = slices.Max(stack)
	for _, value := range stack {
		info.Sum += int64(value)
	}

	return
}
