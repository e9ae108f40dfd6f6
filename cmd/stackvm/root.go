package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ezrec/stackvm/translate"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stackvm",
	Short: "A stack machine assembler and emulator.",
	Long: `Assembler, disassembler and emulator for a Harvard architecture stack
machine with 32-bit instruction words and a bounded operand stack.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
		if lang := GetString(cmd, "lang"); len(lang) != 0 {
			tag := translate.Use(lang)
			log.Debugf("stackvm: language %v", tag)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
	rootCmd.PersistentFlags().String("lang", "", "message language (BCP 47 tag)")

	rootCmd.AddCommand(asmCmd)
	rootCmd.AddCommand(disasmCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(debugCmd)
	rootCmd.AddCommand(opcodesCmd)
}
