package cpu

import (
	"errors"
	"fmt"
	"maps"
	"testing"

	"github.com/stretchr/testify/assert"
)

func load(t *testing.T, config Config, data []int32, program ...string) (cpu *Cpu) {
	prog := parse(t, program...)
	cpu = NewCpu(config)
	cpu.Load(prog, data, 0)
	return
}

func run(t *testing.T, program ...string) State {
	cpu := load(t, DefaultConfig(), nil, program...)
	return cpu.Run(10000)
}

func TestCpu(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(Config{})
	assert.Equal(DefaultConfig(), cpu.Config())

	st := cpu.State()
	assert.Equal(0, st.Ip)
	assert.Equal([]int32{}, st.Stack)
	assert.Equal(DATA_WINDOW, len(st.Data))
	assert.False(st.Halted)
	assert.Nil(st.Err)
	assert.Equal(-1, st.Sp())

	// Nothing loaded; running off the end halts without error.
	assert.False(cpu.Step())
	assert.True(cpu.Halted())
	assert.NoError(cpu.Err())
}

func TestConfigDefines(t *testing.T) {
	assert := assert.New(t)

	defines := maps.Collect(Config{DataSize: 64}.Defines())
	assert.Equal(map[string]string{
		"DATA_SIZE":   "64",
		"STACK_LIMIT": fmt.Sprintf("%v", DefaultConfig().StackLimit),
	}, defines)

	cpu := NewCpu(Config{DataSize: 64, StackLimit: 8})
	assert.Equal(map[string]string{"DATA_SIZE": "64", "STACK_LIMIT": "8"}, maps.Collect(cpu.Defines()))
}

func TestCpuAdd(t *testing.T) {
	assert := assert.New(t)

	st := run(t, "PUSH 5", "PUSH 3", "ADD", "HALT")

	assert.Equal([]int32{8}, st.Stack)
	assert.True(st.Halted)
	assert.False(st.Flags.Zero)
	assert.False(st.Flags.Negative)
	assert.False(st.Flags.Overflow)
	assert.Equal(4, st.Cycles)
	assert.Equal(4, st.Ip)
	assert.Equal("HALT", st.Current)
	assert.Empty(st.Error)
}

func TestCpuStep(t *testing.T) {
	assert := assert.New(t)

	cpu := load(t, DefaultConfig(), nil, "PUSH 5", "PUSH 3", "SUB", "HALT")

	assert.True(cpu.Step())
	assert.Equal([]int32{5}, cpu.State().Stack)
	assert.Equal(1, cpu.Ip())
	assert.True(cpu.Step())
	assert.True(cpu.Step())
	assert.Equal([]int32{2}, cpu.State().Stack)
	assert.Equal(3, cpu.Ticks())

	assert.False(cpu.Step())
	assert.True(cpu.Halted())
	assert.Equal(4, cpu.Ticks())

	// Halted is terminal.
	assert.False(cpu.Step())
	assert.Equal(4, cpu.Ticks())

	cpu.Reset()
	assert.False(cpu.Halted())
	assert.Equal(0, cpu.Ip())
	assert.Equal(0, cpu.Ticks())
	assert.True(cpu.Step())
}

func TestCpuCompareBranch(t *testing.T) {
	assert := assert.New(t)

	st := run(t,
		"PUSH 0",
		"PUSH 0",
		"CMP",
		"JZ 5",
		"PUSH 1",
		"HALT",
	)

	assert.True(st.Halted)
	assert.True(st.Flags.Zero)
	assert.Equal([]int32{0}, st.Stack)
	assert.Equal(5, st.Cycles)
}

func TestCpuDivideByZero(t *testing.T) {
	assert := assert.New(t)

	st := run(t, "PUSH 5", "PUSH 0", "DIV", "HALT")

	assert.True(st.Halted)
	assert.True(errors.Is(st.Err, ErrDivideByZero))
	assert.NotEmpty(st.Error)
	assert.Equal([]int32{5, 0}, st.Stack)
	assert.Equal(2, st.Ip)
	assert.Equal(2, st.Cycles)

	var fault *ErrFault
	assert.True(errors.As(st.Err, &fault))
	assert.Equal(2, fault.Ip)
	assert.Equal(uint32(OP_DIV), fault.Word)
}

func TestCpuUnderflow(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name    string
		program []string
		stack   []int32
	}){
		{"pop", []string{"POP"}, []int32{}},
		{"dup", []string{"DUP"}, []int32{}},
		{"swap", []string{"PUSH 1", "SWAP"}, []int32{1}},
		{"rot", []string{"PUSH 1", "PUSH 2", "ROT"}, []int32{1, 2}},
		{"add", []string{"PUSH 1", "ADD"}, []int32{1}},
		{"cmp", []string{"PUSH 1", "CMP"}, []int32{1}},
		{"not", []string{"NOT"}, []int32{}},
		{"inc", []string{"INC"}, []int32{}},
		{"load", []string{"LOAD"}, []int32{}},
		{"store", []string{"PUSH 1", "STORE"}, []int32{1}},
		{"div", []string{"PUSH 1", "DIV"}, []int32{1}},
	}

	for _, entry := range table {
		st := run(t, append(entry.program, "HALT")...)
		assert.True(st.Halted, entry.name)
		assert.True(errors.Is(st.Err, ErrStackEmpty), entry.name)
		assert.Equal(entry.stack, st.Stack, entry.name)
		assert.GreaterOrEqual(st.Sp(), -1, entry.name)
	}
}

func TestCpuOverflow(t *testing.T) {
	assert := assert.New(t)

	cpu := load(t, Config{StackLimit: 2}, nil, "PUSH 1", "DUP", "DUP", "HALT")
	st := cpu.Run(100)

	assert.True(st.Halted)
	assert.True(errors.Is(st.Err, ErrStackFull))
	assert.Equal([]int32{1, 1}, st.Stack)
	assert.Equal(2, st.Ip)

	cpu = load(t, Config{StackLimit: 2}, nil, "PUSH 1", "PUSH 2", "PUSH 3")
	st = cpu.Run(100)
	assert.True(errors.Is(st.Err, ErrStackFull))
	assert.Equal([]int32{1, 2}, st.Stack)

	// DIV replaces two entries with two entries on a full stack.
	cpu = load(t, Config{StackLimit: 2}, nil, "PUSH 7", "PUSH 2", "DIV", "HALT")
	st = cpu.Run(100)
	assert.NoError(st.Err)
	assert.Equal([]int32{3, 1}, st.Stack)
}

func TestCpuArithmetic(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name    string
		program []string
		stack   []int32
		flags   Flags
	}){
		{"sub", []string{"PUSH 3", "PUSH 5", "SUB"}, []int32{-2}, Flags{Negative: true}},
		{"mul", []string{"PUSH -4", "PUSH 6", "MUL"}, []int32{-24}, Flags{Negative: true}},
		{"div", []string{"PUSH 17", "PUSH 5", "DIV"}, []int32{3, 2}, Flags{}},
		{"divneg", []string{"PUSH -7", "PUSH 2", "DIV"}, []int32{-4, 1}, Flags{Negative: true}},
		{"divnegb", []string{"PUSH 7", "PUSH -2", "DIV"}, []int32{-4, -1}, Flags{Negative: true}},
		{"divzero", []string{"PUSH 1", "PUSH 5", "DIV"}, []int32{0, 1}, Flags{Zero: true}},
		{"and", []string{"PUSH 0b1100", "PUSH 0b1010", "AND"}, []int32{0b1000}, Flags{}},
		{"or", []string{"PUSH 0b1100", "PUSH 0b1010", "OR"}, []int32{0b1110}, Flags{}},
		{"xor", []string{"PUSH 5", "PUSH 5", "XOR"}, []int32{0}, Flags{Zero: true}},
		{"not", []string{"PUSH 0", "NOT"}, []int32{-1}, Flags{Negative: true}},
		{"inc", []string{"PUSH -1", "INC"}, []int32{0}, Flags{Zero: true}},
		{"dec", []string{"PUSH 0", "DEC"}, []int32{-1}, Flags{Negative: true}},
		{"cmp", []string{"PUSH 3", "PUSH 5", "CMP"}, []int32{3}, Flags{Negative: true}},
		{"cmpgt", []string{"PUSH 9", "PUSH 5", "CMP"}, []int32{9}, Flags{}},
		{"dup", []string{"PUSH 4", "DUP"}, []int32{4, 4}, Flags{}},
		{"swap", []string{"PUSH 1", "PUSH 2", "SWAP"}, []int32{2, 1}, Flags{}},
		{"rot", []string{"PUSH 1", "PUSH 2", "PUSH 3", "ROT"}, []int32{2, 3, 1}, Flags{}},
		{"pop", []string{"PUSH 1", "PUSH 2", "POP"}, []int32{1}, Flags{}},
		{"nop", []string{"NOP"}, []int32{}, Flags{}},
	}

	for _, entry := range table {
		st := run(t, append(entry.program, "HALT")...)
		assert.NoError(st.Err, entry.name)
		assert.True(st.Halted, entry.name)
		assert.Equal(entry.stack, st.Stack, entry.name)
		assert.Equal(entry.flags, st.Flags, entry.name)
	}
}

func TestCpuWordOverflow(t *testing.T) {
	assert := assert.New(t)

	st := run(t,
		"PUSH 0x7fffff",
		"DUP",
		"MUL",
		"HALT",
	)

	assert.NoError(st.Err)
	assert.True(st.Flags.Overflow)
	assert.False(st.Flags.Negative)
	assert.Equal(1, len(st.Stack))

	expected := int64(0x7fffff) * 0x7fffff
	assert.Equal(int32(expected), st.Stack[0])

	st = run(t, "PUSH 1", "PUSH 2", "ADD", "HALT")
	assert.False(st.Flags.Overflow)
}

func TestCpuFlagsPreserved(t *testing.T) {
	assert := assert.New(t)

	// Stack, memory and jump instructions leave the flags alone.
	st := run(t,
		"PUSH 1",
		"PUSH 1",
		"SUB",
		"PUSH 5",
		"DUP",
		"SWAP",
		"POP",
		"PUSH 0",
		"STORE",
		"PUSH 0",
		"LOAD",
		"JMP next",
		"next: NOP",
		"HALT",
	)

	assert.NoError(st.Err)
	assert.True(st.Flags.Zero)
	assert.Equal([]int32{0, 5}, st.Stack)
}

func TestCpuJumps(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		a, b  string
		taken []string
	}){
		{"1", "1", []string{"JZ", "JLE", "JGE"}},
		{"1", "2", []string{"JNZ", "JL", "JLE"}},
		{"2", "1", []string{"JNZ", "JG", "JGE"}},
	}

	for _, entry := range table {
		for _, jump := range []string{"JZ", "JNZ", "JL", "JG", "JLE", "JGE"} {
			st := run(t,
				"PUSH "+entry.a,
				"PUSH "+entry.b,
				"CMP",
				jump+" taken",
				"PUSH 0",
				"HALT",
				"taken: PUSH 1",
				"HALT",
			)
			expected := int32(0)
			for _, name := range entry.taken {
				if name == jump {
					expected = 1
				}
			}
			assert.NoError(st.Err)
			assert.Equal(expected, st.Stack[len(st.Stack)-1], entry.a+" "+jump+" "+entry.b)
		}
	}
}

func TestCpuMemory(t *testing.T) {
	assert := assert.New(t)

	cpu := load(t, Config{DataSize: 8}, []int32{10, 20, 30},
		"PUSH 0",
		"LOAD",
		"PUSH 7",
		"LOAD",
		"ADD",
		"PUSH 7",
		"STORE",
		"PUSH 99",
		"PUSH 0",
		"STORE",
		"HALT",
	)
	st := cpu.Run(100)
	assert.NoError(st.Err)
	assert.Equal([]int32{99, 20, 30, 0, 0, 0, 0, 10}, st.Data)

	value, err := cpu.Peek(7)
	assert.NoError(err)
	assert.Equal(int32(10), value)

	_, err = cpu.Peek(8)
	assert.Equal(ErrMemoryAddress(8), err)
	assert.Error(cpu.Poke(-1, 0))
	assert.NoError(cpu.Poke(3, 4))
	value, _ = cpu.Peek(3)
	assert.Equal(int32(4), value)
}

func TestCpuMemoryBounds(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name    string
		program []string
		err     bool
		stack   []int32
	}){
		{"load0", []string{"PUSH 0", "LOAD"}, false, []int32{0}},
		{"loadlast", []string{"PUSH 15", "LOAD"}, false, []int32{0}},
		{"loadend", []string{"PUSH 16", "LOAD"}, true, []int32{16}},
		{"loadneg", []string{"PUSH -1", "LOAD"}, true, []int32{-1}},
		{"store0", []string{"PUSH 1", "PUSH 0", "STORE"}, false, []int32{}},
		{"storelast", []string{"PUSH 1", "PUSH 15", "STORE"}, false, []int32{}},
		{"storeend", []string{"PUSH 1", "PUSH 16", "STORE"}, true, []int32{1, 16}},
	}

	for _, entry := range table {
		cpu := load(t, Config{DataSize: 16}, nil, append(entry.program, "HALT")...)
		st := cpu.Run(100)
		assert.True(st.Halted, entry.name)
		assert.Equal(entry.err, errors.Is(st.Err, ErrMemoryAddress(0)), entry.name)
		assert.Equal(entry.stack, st.Stack, entry.name)
	}
}

func TestCpuRunBudget(t *testing.T) {
	assert := assert.New(t)

	cpu := load(t, DefaultConfig(), nil, "LOOP: JMP LOOP")
	st := cpu.Run(1000)

	assert.False(st.Halted)
	assert.NoError(st.Err)
	assert.Equal(1000, st.Cycles)
	assert.Equal(0, st.Ip)

	// Running again continues from where it stopped.
	st = cpu.Run(10)
	assert.Equal(1010, st.Cycles)

	st = cpu.Run(0)
	assert.Equal(1010, st.Cycles)
}

func TestCpuRunOffEnd(t *testing.T) {
	assert := assert.New(t)

	st := run(t, "PUSH 1", "JMP 100")
	assert.True(st.Halted)
	assert.NoError(st.Err)
	assert.Equal(100, st.Ip)
	assert.Equal(2, st.Cycles)
}

func TestCpuUnknownOpcode(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(DefaultConfig())
	cpu.LoadWords([]uint32{0x510, 0x0c}, nil, 0)
	st := cpu.Run(10)

	assert.True(st.Halted)
	assert.True(errors.Is(st.Err, ErrOpcode(0)))
	assert.Equal(1, st.Ip)
	assert.Equal([]int32{5}, st.Stack)
	assert.Equal(".word 0x0000000c", st.Current)
}

func TestCpuLoadData(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu(Config{DataSize: 4, DataWindow: -1})
	cpu.Load(NewProgram(MakeCode(OP_HALT)), []int32{1, 2, 3}, 2)

	st := cpu.State()
	assert.Equal([]int32{0, 0, 1, 2}, st.Data)

	cpu.Load(NewProgram(MakeCode(OP_HALT)), []int32{7}, -1)
	assert.Equal([]int32{0, 0, 0, 0}, cpu.State().Data)
}

func TestCpuStateIsolated(t *testing.T) {
	assert := assert.New(t)

	cpu := load(t, DefaultConfig(), []int32{1}, "PUSH 1", "HALT")
	cpu.Step()

	st := cpu.State()
	st.Stack[0] = 42
	st.Data[0] = 42
	st.Code[0] = 0

	again := cpu.State()
	assert.Equal([]int32{1}, again.Stack)
	assert.Equal(int32(1), again.Data[0])
	assert.Equal(uint32(0x110), again.Code[0])
}

func TestCpuTrace(t *testing.T) {
	assert := assert.New(t)

	cpu := load(t, Config{TraceDepth: 3}, nil, "PUSH 2", "PUSH 3", "MUL", "DUP", "HALT")
	st := cpu.Run(100)

	assert.Equal(5, st.Cycles)
	assert.Equal([]History{
		{Text: "MUL", Ip: 2, Stack: []int32{6}, Flags: Flags{}},
		{Text: "DUP", Ip: 3, Stack: []int32{6, 6}, Flags: Flags{}},
		{Text: "HALT", Ip: 4, Stack: []int32{6, 6}, Flags: Flags{}},
	}, st.History)

	cpu.Reset()
	assert.Empty(cpu.State().History)

	// No entry is recorded for a faulting instruction.
	cpu = load(t, Config{TraceDepth: 10}, nil, "PUSH 1", "POP", "POP")
	st = cpu.Run(100)
	assert.Equal(2, len(st.History))

	// Tracing is off by default.
	st = run(t, "PUSH 1", "HALT")
	assert.Nil(st.History)
}

func TestCpuStateString(t *testing.T) {
	assert := assert.New(t)

	st := run(t, "PUSH 1", "POP", "POP")

	text := st.String()
	assert.Contains(text, "pc: 0002")
	assert.Contains(text, "halted: true")
	assert.Contains(text, "current: POP")
	assert.Contains(text, "stack underflow")
}
