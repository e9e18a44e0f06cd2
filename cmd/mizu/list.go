package main

import (
	"fmt"

	"github.com/data-oriented-ir/mizu"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "registry",
		Short: "List every instruction name known to the CLI's registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := buildRegistry()
			if err != nil {
				return err
			}
			for id := 0; id < reg.Len(); id++ {
				name, _ := reg.LookupName(mizu.OperationID(id))
				fmt.Fprintf(cmd.OutOrStdout(), "%4d  %s\n", id, name)
			}
			return nil
		},
	}
}
