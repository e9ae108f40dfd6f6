package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ezrec/stackvm/emulator"
)

var debugCmd = &cobra.Command{
	Use:   "debug [flags] file",
	Short: "Step through a program.",
	Long: `Step through a program interactively. Commands are read from stdin:

  s [n]        step n instructions (default 1; an empty line steps once)
  c            continue until halted or the cycle budget is spent
  p            print the machine state
  i [addr]     describe the instruction at addr (default: ip)
  m addr [val] read, or write, a data memory cell
  k            print the stack summary
  r            reset to the start of the program
  q            quit`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		emu := newEmulator(cmd, args[0])

		dbg := &debugger{
			emu:       emu,
			out:       os.Stdout,
			maxCycles: GetInt(cmd, "max-cycles"),
			prompt:    term.IsTerminal(int(os.Stdin.Fd())),
		}

		dbg.Loop(os.Stdin)
	},
}

// debugger is a line oriented command interpreter over an emulator.
type debugger struct {
	emu       *emulator.Emulator
	out       io.Writer
	maxCycles int
	prompt    bool
}

// Loop reads commands until end of input or 'q'.
func (dbg *debugger) Loop(in io.Reader) {
	scanner := bufio.NewScanner(in)

	dbg.where()
	for {
		if dbg.prompt {
			fmt.Fprint(dbg.out, "(stackvm) ")
		}
		if !scanner.Scan() {
			return
		}
		if !dbg.Command(strings.Fields(scanner.Text())) {
			return
		}
	}
}

// Command executes a single debugger command. Returns false to quit.
func (dbg *debugger) Command(words []string) bool {
	emu := dbg.emu

	if len(words) == 0 {
		words = []string{"s"}
	}

	arg := func(n int, def int) (value int, ok bool) {
		if len(words) <= n {
			return def, true
		}
		value, err := strconv.Atoi(words[n])
		if err != nil {
			fmt.Fprintf(dbg.out, "%v: not a number\n", words[n])
			return 0, false
		}
		return value, true
	}

	switch words[0] {
	case "q", "quit":
		return false
	case "s", "step":
		count, ok := arg(1, 1)
		if !ok {
			break
		}
		for range count {
			done, err := emu.Step()
			if err != nil {
				fmt.Fprintln(dbg.out, err)
			}
			if done {
				break
			}
		}
		dbg.where()
	case "c", "continue":
		_, err := emu.Run(dbg.maxCycles)
		if err != nil {
			fmt.Fprintln(dbg.out, err)
		}
		dbg.where()
	case "p", "print":
		fmt.Fprintln(dbg.out, stateTable(emu.State()))
	case "i", "instruction":
		ip, ok := arg(1, emu.Ip())
		if !ok {
			break
		}
		info, err := emu.Instruction(ip)
		if err != nil {
			fmt.Fprintln(dbg.out, err)
			break
		}
		fmt.Fprintf(dbg.out, "%04X: %08X  %-16s %v\n", info.Ip, info.Word, info.Text, info.Description)
		if info.LineNo != 0 {
			fmt.Fprintf(dbg.out, "      line %d: %v\n", info.LineNo, info.Source)
		}
		for _, label := range info.Labels {
			fmt.Fprintf(dbg.out, "      %v:\n", label)
		}
	case "m", "memory":
		if len(words) < 2 {
			fmt.Fprintln(dbg.out, "m addr [value]")
			break
		}
		addr, ok := arg(1, 0)
		if !ok {
			break
		}
		if len(words) > 2 {
			value, ok := arg(2, 0)
			if !ok {
				break
			}
			err := emu.Poke(addr, int32(value))
			if err != nil {
				fmt.Fprintln(dbg.out, err)
			}
			break
		}
		value, err := emu.Peek(addr)
		if err != nil {
			fmt.Fprintln(dbg.out, err)
			break
		}
		fmt.Fprintf(dbg.out, "[%d] = %d (0x%08x)\n", addr, value, uint32(value))
	case "k", "stack":
		info := emu.StackInfo()
		fmt.Fprintf(dbg.out, "size %d/%d stack %v\n", info.Size, info.Limit, info.Stack)
		if info.Size != 0 {
			fmt.Fprintf(dbg.out, "top %d min %d max %d sum %d\n", info.Top, info.Min, info.Max, info.Sum)
		}
	case "r", "reset":
		emu.Reset()
		dbg.where()
	default:
		fmt.Fprintf(dbg.out, "%v: unknown command\n", words[0])
	}

	return true
}

// where prints the next instruction to execute.
func (dbg *debugger) where() {
	emu := dbg.emu

	st := emu.State()
	if st.Halted {
		fmt.Fprintf(dbg.out, "halted at %04X after %d cycles\n", st.Ip, st.Cycles)
		return
	}

	info, err := emu.Instruction(st.Ip)
	if err != nil {
		fmt.Fprintf(dbg.out, "%04X: end of program\n", st.Ip)
		return
	}

	line := ""
	if info.LineNo != 0 {
		line = fmt.Sprintf(" ; line %d", info.LineNo)
	}
	fmt.Fprintf(dbg.out, "%04X: %-16s stack %v flags %v%v\n", st.Ip, info.Text, st.Stack, st.Flags, line)
}

func init() {
	addMachineFlags(debugCmd)
	debugCmd.Flags().Int("max-cycles", emulator.MAX_CYCLES, "cycle budget for 'c'")
}
