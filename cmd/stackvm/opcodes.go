package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ezrec/stackvm/emulator"
)

var opcodesCmd = &cobra.Command{
	Use:   "opcodes",
	Short: "List the instruction set.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(opcodeTable())
	},
}

// opcodeTable renders the opcode catalog, one section per class.
func opcodeTable() string {
	tw := table.NewWriter()
	tw.SetTitle("Instruction word: [24-bit operand][8-bit opcode]")
	tw.AppendHeader(table.Row{"class", "opcode", "mnemonic", "operand", "description"})

	var class string
	for _, info := range emulator.Opcodes() {
		if info.Class.String() != class {
			if len(class) != 0 {
				tw.AppendSeparator()
			}
			class = info.Class.String()
		}
		operand := ""
		if info.Arity == 1 {
			operand = "yes"
		}
		tw.AppendRow(table.Row{info.Class, fmt.Sprintf("0x%02X", uint8(info.Op)), info.Mnemonic, operand, info.Description})
	}

	return tw.Render()
}
