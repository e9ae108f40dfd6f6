package main

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/ezrec/stackvm/cpu"
	"github.com/ezrec/stackvm/emulator"
)

// GetFlag gets an expected boolean flag, or exits.
func GetFlag(cmd *cobra.Command, flag string) bool {
	value, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fatalf(2, "%v", err)
	}

	return value
}

// GetInt gets an expected integer flag, or exits.
func GetInt(cmd *cobra.Command, flag string) int {
	value, err := cmd.Flags().GetInt(flag)
	if err != nil {
		fatalf(2, "%v", err)
	}

	return value
}

// GetString gets an expected string flag, or exits.
func GetString(cmd *cobra.Command, flag string) string {
	value, err := cmd.Flags().GetString(flag)
	if err != nil {
		fatalf(2, "%v", err)
	}

	return value
}

// fatalf logs an error and exits, running the registered exit handlers.
func fatalf(code int, format string, args ...any) {
	log.Errorf(format, args...)
	atexit.Exit(code)
}

// addMachineFlags adds the flags that size and seed the emulator.
func addMachineFlags(cmd *cobra.Command) {
	def := cpu.DefaultConfig()

	cmd.Flags().BoolP("binary", "b", false, "input is a little-endian instruction image")
	cmd.Flags().String("data", "", "comma separated initial data memory values")
	cmd.Flags().Int("data-start", 0, "data memory address of the first --data value")
	cmd.Flags().Int("data-size", def.DataSize, "data memory cells")
	cmd.Flags().Int("stack-limit", def.StackLimit, "maximum operand stack depth")
	cmd.Flags().Int("window", def.DataWindow, "data memory cells shown in the state (-1 for all)")
	cmd.Flags().Int("trace", 0, "execution history entries to keep")
}

// newEmulator creates an emulator from the machine flags, and loads the
// program named by path into it.
func newEmulator(cmd *cobra.Command, path string) (emu *emulator.Emulator) {
	config := cpu.Config{
		DataSize:   GetInt(cmd, "data-size"),
		StackLimit: GetInt(cmd, "stack-limit"),
		DataWindow: GetInt(cmd, "window"),
		TraceDepth: GetInt(cmd, "trace"),
	}

	data, err := parseData(GetString(cmd, "data"))
	if err != nil {
		fatalf(2, "--data: %v", err)
	}

	emu = emulator.NewEmulator(config)
	emu.Verbose = GetFlag(cmd, "verbose")
	emu.Data = data
	emu.DataStart = GetInt(cmd, "data-start")

	inf := openInput(path)
	defer inf.Close()

	if GetFlag(cmd, "binary") {
		words, err := readWords(inf)
		if err != nil {
			fatalf(3, "%v: %v", path, err)
		}
		emu.LoadWords(words)
		return
	}

	err = emu.Compile(inf)
	if err != nil {
		fatalf(3, "%v: %v", path, err)
	}

	return
}

// parseData parses a comma separated list of data values.
func parseData(text string) (data []int32, err error) {
	text = strings.TrimSpace(text)
	if len(text) == 0 {
		return
	}

	for _, item := range strings.Split(text, ",") {
		item = strings.TrimSpace(item)
		var value int64
		value, err = strconv.ParseInt(item, 0, 32)
		if err != nil {
			err = fmt.Errorf("%q: %w", item, err)
			return
		}
		data = append(data, int32(value))
	}

	return
}

// openInput opens a file for reading; "-" is stdin.
func openInput(path string) io.ReadCloser {
	if path == "-" {
		return io.NopCloser(os.Stdin)
	}

	inf, err := os.Open(path)
	if err != nil {
		fatalf(2, "%v", err)
	}

	return inf
}

// createOutput creates a file for writing; "-" is stdout.
// The file is closed on exit.
func createOutput(path string) io.Writer {
	if path == "-" {
		return os.Stdout
	}

	ouf, err := os.Create(path)
	if err != nil {
		fatalf(2, "%v", err)
	}

	bouf := bufio.NewWriter(ouf)
	atexit.Register(func() {
		err := bouf.Flush()
		if err == nil {
			err = ouf.Close()
		}
		if err != nil {
			log.Errorf("%v: %v", path, err)
		}
	})

	return bouf
}

// readWords reads a little-endian instruction image.
func readWords(r io.Reader) (words []uint32, err error) {
	var raw []byte
	raw, err = io.ReadAll(r)
	if err != nil {
		return
	}

	if len(raw)%4 != 0 {
		err = errors.New("image is not a multiple of 4 bytes")
		return
	}

	words = make([]uint32, len(raw)/4)
	for n := range words {
		words[n] = binary.LittleEndian.Uint32(raw[n*4:])
	}

	return
}

// writeWords writes a little-endian instruction image.
func writeWords(w io.Writer, words []uint32) (err error) {
	raw := make([]byte, 0, len(words)*4)
	for _, word := range words {
		raw = binary.LittleEndian.AppendUint32(raw, word)
	}

	_, err = w.Write(raw)
	return
}

// stateTable renders a state snapshot.
func stateTable(st cpu.State) string {
	tw := table.NewWriter()
	tw.SetTitle("State")
	tw.AppendRow(table.Row{"ip", st.Ip})
	tw.AppendRow(table.Row{"sp", st.Sp()})
	tw.AppendRow(table.Row{"stack", fmt.Sprint(st.Stack)})
	tw.AppendRow(table.Row{"flags", st.Flags.String()})
	tw.AppendRow(table.Row{"halted", st.Halted})
	tw.AppendRow(table.Row{"cycles", st.Cycles})
	if len(st.Current) != 0 {
		tw.AppendRow(table.Row{"last", st.Current})
	}
	if len(st.Error) != 0 {
		tw.AppendRow(table.Row{"error", st.Error})
	}

	return tw.Render()
}

// dataTable renders data memory, eight cells to a row. Rows of zeros are skipped.
func dataTable(data []int32) string {
	tw := table.NewWriter()
	tw.SetTitle("Data")
	tw.AppendHeader(table.Row{"addr", "+0", "+1", "+2", "+3", "+4", "+5", "+6", "+7"})

	for base := 0; base < len(data); base += 8 {
		row := table.Row{fmt.Sprintf("%04X", base)}
		zero := true
		for n := base; n < base+8 && n < len(data); n++ {
			row = append(row, data[n])
			zero = zero && data[n] == 0
		}
		if !zero {
			tw.AppendRow(row)
		}
	}

	return tw.Render()
}

// historyTable renders the execution history, oldest first.
func historyTable(history []cpu.History) string {
	tw := table.NewWriter()
	tw.SetTitle("History")
	tw.AppendHeader(table.Row{"ip", "instruction", "stack", "flags"})

	for _, entry := range history {
		tw.AppendRow(table.Row{entry.Ip, entry.Text, fmt.Sprint(entry.Stack), entry.Flags.String()})
	}

	return tw.Render()
}
