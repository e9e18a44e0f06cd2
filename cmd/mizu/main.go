// Command mizu runs, disassembles and inspects binary Mizu programs.
//
// Grounded on oisee-z80-optimizer/cmd/z80opt/main.go's cobra layout and on
// KTStephano-GVM/vm/run.go's run/debug split.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "mizu",
		Short: "Mizu — an embeddable register-based bytecode virtual machine",
	}
	root.AddCommand(newRunCmd(), newDisasmCmd(), newListCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
