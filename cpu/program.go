package cpu

import (
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"
)

// Opcode is a line of assembled code with its source location.
type Opcode struct {
	LineNo    int      // Source line number.
	Ip        int      // Instruction index.
	Words     []string // Source words, after equate substitution.
	Code      Code     // Resolved instruction.
	LinkLabel string   // Label the operand was resolved from, if any.
}

// Program is an assembled, label-resolved program.
type Program struct {
	Opcodes []Opcode
	Label   map[string]int // Map of labels to instruction indexes.
}

// Debug locates the source of an instruction index.
type Debug struct {
	*Opcode
}

// NewProgram creates a program from bare instructions, with no source lines.
func NewProgram(codes ...Code) (prog *Program) {
	prog = &Program{Label: map[string]int{}}
	for ip, code := range codes {
		prog.Opcodes = append(prog.Opcodes, Opcode{Ip: ip, Code: code})
	}
	return
}

// Len returns the number of instructions.
func (prog *Program) Len() int {
	return len(prog.Opcodes)
}

// Debug returns the opcode at ip. Opcode is nil if no opcode has that index.
// Opcodes must be ordered by Ip, but may skip indexes.
func (prog *Program) Debug(ip int) (dbg Debug) {
	if ip >= 0 && ip < len(prog.Opcodes) && prog.Opcodes[ip].Ip == ip {
		dbg.Opcode = &prog.Opcodes[ip]
		return
	}

	n, found := slices.BinarySearchFunc(prog.Opcodes, ip, func(op Opcode, ip int) int {
		return op.Ip - ip
	})
	if found {
		dbg.Opcode = &prog.Opcodes[n]
	}

	return
}

// Codes iterates over the instructions by index.
func (prog *Program) Codes() iter.Seq2[int, Code] {
	return func(yield func(ip int, code Code) bool) {
		for _, op := range prog.Opcodes {
			if !yield(op.Ip, op.Code) {
				return
			}
		}
	}
}

// Instructions returns the instruction sequence.
func (prog *Program) Instructions() (codes []Code) {
	codes = make([]Code, 0, len(prog.Opcodes))
	for _, code := range prog.Codes() {
		codes = append(codes, code)
	}
	return
}

// Binary returns the packed instruction words.
func (prog *Program) Binary() (bins []uint32) {
	bins = make([]uint32, 0, len(prog.Opcodes))
	for _, code := range prog.Codes() {
		bins = append(bins, code.Word())
	}
	return
}

// Labels returns the label names, ordered by address then name.
func (prog *Program) Labels() []string {
	return slices.SortedFunc(maps.Keys(prog.Label), func(a, b string) int {
		if prog.Label[a] != prog.Label[b] {
			return prog.Label[a] - prog.Label[b]
		}
		return strings.Compare(a, b)
	})
}

// Listing returns an address, word, and source listing of the program.
func (prog *Program) Listing() string {
	at := map[int][]string{}
	for _, label := range prog.Labels() {
		ip := prog.Label[label]
		at[ip] = append(at[ip], label)
	}

	var sb strings.Builder
	for _, op := range prog.Opcodes {
		for _, label := range at[op.Ip] {
			fmt.Fprintf(&sb, "%s:\n", label)
		}
		text := op.Code.String()
		if len(op.LinkLabel) != 0 {
			text += " ; " + op.LinkLabel
		}
		fmt.Fprintf(&sb, "%04X: %08X  %-16s", op.Ip, op.Code.Word(), text)
		if op.LineNo != 0 {
			fmt.Fprintf(&sb, " ; line %d", op.LineNo)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// DisassembleWord returns the mnemonic text of an instruction word.
func DisassembleWord(word uint32) string {
	code, err := DecodeWord(word)
	if err != nil {
		return fmt.Sprintf(".word 0x%08x", word)
	}
	return code.String()
}

// Disassemble returns an address-prefixed listing of instruction words.
func Disassemble(words []uint32) string {
	var sb strings.Builder
	for ip, word := range words {
		fmt.Fprintf(&sb, "%04X: %s\n", ip, DisassembleWord(word))
	}
	return sb.String()
}
