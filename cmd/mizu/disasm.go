package main

import (
	"fmt"
	"io"
	"os"

	"github.com/data-oriented-ir/mizu"
	"github.com/data-oriented-ir/mizu/serialize"
	"github.com/spf13/cobra"
)

func newDisasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm <program.bin>",
		Short: "Disassemble a binary program into its opcode listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			reg, err := buildRegistry()
			if err != nil {
				return err
			}
			prog := serialize.FromBinary(data, reg)
			printProgram(cmd.OutOrStdout(), prog, reg)
			return nil
		},
	}
}

func printProgram(w io.Writer, prog mizu.Program, reg *mizu.Registry) {
	for i, op := range prog {
		name, ok := reg.LookupName(op.Op)
		if !ok {
			name = fmt.Sprintf("<unknown:%d>", op.Op)
		}
		fmt.Fprintf(w, "%5d  %-28s out=%-3d a=%-3d b=%-3d\n", i, name, op.Out, op.A, op.B)
	}
}
