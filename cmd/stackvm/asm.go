package main

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ezrec/stackvm/cpu"
	"github.com/ezrec/stackvm/emulator"
)

var asmCmd = &cobra.Command{
	Use:   "asm [flags] file.asm",
	Short: "Assemble a program.",
	Long: `Assemble a program into a little-endian instruction image.
Without --output, a listing is written to stdout instead.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		output := GetString(cmd, "output")

		inf := openInput(args[0])
		defer inf.Close()

		prog, err := assemble(inf, GetFlag(cmd, "verbose"))
		if err != nil {
			fatalf(3, "%v: %v", args[0], err)
		}

		if len(output) == 0 {
			fmt.Print(prog.Listing())
		} else {
			err = writeWords(createOutput(output), prog.Binary())
			if err != nil {
				fatalf(4, "%v: %v", output, err)
			}
		}

		if GetFlag(cmd, "labels") {
			fmt.Println(labelTable(prog))
		}
	},
}

// assemble a program with the default machine defines.
func assemble(input io.Reader, verbose bool) (prog *cpu.Program, err error) {
	asm := &cpu.Assembler{Verbose: verbose}
	for equ, value := range emulator.Defines(cpu.DefaultConfig()) {
		asm.Predefine(equ, value)
	}

	prog, err = asm.Parse(input)
	return
}

// labelTable renders the label symbol table.
func labelTable(prog *cpu.Program) string {
	tw := table.NewWriter()
	tw.SetTitle("Labels")
	tw.AppendHeader(table.Row{"label", "address"})

	for _, label := range prog.Labels() {
		tw.AppendRow(table.Row{label, fmt.Sprintf("%04X", prog.Label[label])})
	}

	return tw.Render()
}

func init() {
	asmCmd.Flags().StringP("output", "o", "", "instruction image file (- for stdout)")
	asmCmd.Flags().Bool("labels", false, "print the label table")
}
