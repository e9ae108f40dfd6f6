package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ezrec/stackvm/cpu"
	"github.com/ezrec/stackvm/emulator"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] file",
	Short: "Run a program.",
	Long: `Run a program until it halts or the cycle budget is spent, then
print the machine state. Exits non-zero if the program faulted.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		emu := newEmulator(cmd, args[0])

		st, err := emu.Run(GetInt(cmd, "max-cycles"))

		if GetFlag(cmd, "json") {
			jerr := writeJson(os.Stdout, st)
			if jerr != nil {
				fatalf(4, "%v", jerr)
			}
		} else {
			fmt.Print(stateText(st, GetFlag(cmd, "dump")))
		}

		if err != nil {
			fatalf(5, "%v: %v", args[0], err)
		}
		if !st.Halted {
			log.Warnf("%v: not halted after %d cycles", args[0], st.Cycles)
		}
	},
}

// stateText renders the state tables.
func stateText(st cpu.State, dump bool) (text string) {
	text = stateTable(st) + "\n"
	if dump {
		text += dataTable(st.Data) + "\n"
	}
	if len(st.History) != 0 {
		text += historyTable(st.History) + "\n"
	}

	return
}

// writeJson writes the state as indented JSON.
func writeJson(w io.Writer, st cpu.State) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(st)
}

func init() {
	addMachineFlags(runCmd)
	runCmd.Flags().Int("max-cycles", emulator.MAX_CYCLES, "cycle budget")
	runCmd.Flags().Bool("dump", false, "print the non-zero rows of the data window")
	runCmd.Flags().Bool("json", false, "print the state as JSON")
}
