package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ezrec/stackvm/cpu"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm [flags] file.bin",
	Short: "Disassemble an instruction image.",
	Long:  `Disassemble a little-endian instruction image. Unknown words are shown as .word directives.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		inf := openInput(args[0])
		defer inf.Close()

		words, err := readWords(inf)
		if err != nil {
			fatalf(3, "%v: %v", args[0], err)
		}

		fmt.Print(cpu.Disassemble(words))
	},
}
