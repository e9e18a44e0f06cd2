package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/data-oriented-ir/mizu"
	"github.com/data-oriented-ir/mizu/concurrency"
	"github.com/data-oriented-ir/mizu/serialize"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var debug bool
	var trace bool
	var stackWords int

	cmd := &cobra.Command{
		Use:   "run <program.bin>",
		Short: "Run a binary Mizu program",
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

			cfg := mizu.DefaultConfig()
			if stackWords > 0 {
				cfg.StackWords = stackWords
			}
			cfg.Trace = trace

			th := mizu.NewThread(prog, reg, cfg)
			th.Sched = concurrency.NewScheduler()

			if debug {
				runDebug(th, reg)
			} else {
				runPlain(th)
			}
			if th.Err != nil {
				return th.Err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "Step through the program interactively")
	cmd.Flags().BoolVar(&trace, "trace", false, "Log every dispatched instruction")
	cmd.Flags().IntVar(&stackWords, "stack-words", 0, "Environment size in 64-bit words (0 = default)")
	return cmd
}

// runPlain drives a thread to completion with no interaction, mirroring
// KTStephano-GVM/vm/run.go's RunProgram. Goes through concurrency.RunThread
// rather than th.Run() directly so a forked program actually runs its
// children under the cooperative build.
func runPlain(th *mizu.Thread) {
	_ = concurrency.RunThread(th)
	if th.Err != nil && th.Err != mizu.ErrProgramFinished {
		fmt.Println(th.Err)
	}
}

// runDebug is a step/run/breakpoint REPL over concurrency.StepThread,
// grounded on
// KTStephano-GVM/vm/run.go's RunProgramDebugMode — "n"/"next" steps one
// instruction, "r"/"run" free-runs until a breakpoint or halt, "b <pc>"
// toggles a breakpoint, "program" lists the opcode stream, "regs" dumps
// registers.
func runDebug(th *mizu.Thread, reg *mizu.Registry) {
	fmt.Println("Commands:\n\tn or next: execute next instruction\n\tr or run: run program\n\tb <pc>: toggle breakpoint\n\tregs: print registers\n\tprogram: list program\n")
	printState(th, reg)

	reader := bufio.NewReader(os.Stdin)
	breakpoints := make(map[int]struct{})
	waitForInput := true

	for !th.Done {
		line := ""
		if waitForInput {
			fmt.Print("\n-> ")
			line, _ = reader.ReadString('\n')
			line = strings.ToLower(strings.TrimSpace(line))
		} else if _, hit := breakpoints[th.PC]; hit {
			fmt.Println("breakpoint")
			printState(th, reg)
			waitForInput = true
			continue
		}

		switch {
		case !waitForInput || line == "n" || line == "next":
			// Under the cooperative build this steps whichever context is
			// next in the scheduler's rotation, not necessarily th — the
			// printed state below may belong to a forked child.
			concurrency.StepThread(th)
			if waitForInput {
				printState(th, reg)
			}
		case line == "program":
			printProgram(os.Stdout, th.Program, reg)
		case line == "regs":
			printRegisters(th)
		case line == "r" || line == "run":
			waitForInput = false
		case strings.HasPrefix(line, "b"):
			arg := strings.TrimSpace(strings.TrimPrefix(line, "b"))
			pc, err := strconv.Atoi(arg)
			if err != nil {
				fmt.Println("unknown pc:", err)
				continue
			}
			if _, ok := breakpoints[pc]; ok {
				delete(breakpoints, pc)
			} else {
				breakpoints[pc] = struct{}{}
			}
		}
	}

	if th.Err != nil && th.Err != mizu.ErrProgramFinished {
		fmt.Println(th.Err)
	}
}

func printState(th *mizu.Thread, reg *mizu.Registry) {
	if th.PC < 0 || th.PC >= len(th.Program) {
		fmt.Println("(pc out of range)")
		return
	}
	op := th.Program[th.PC]
	name, _ := reg.LookupName(op.Op)
	fmt.Printf("pc=%d  %s out=%d a=%d b=%d\n", th.PC, name, op.Out, op.A, op.B)
}

func printRegisters(th *mizu.Thread) {
	regs := th.Registers()
	for i, v := range regs {
		if v == 0 {
			continue
		}
		fmt.Printf("r%d = %d (0x%x)\n", i, v, v)
	}
}
