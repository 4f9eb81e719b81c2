package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"qdebugger/debugger"
	"qdebugger/internal/engine"
)

func newStepCmd() *cobra.Command {
	var count int
	var backward bool

	cmd := &cobra.Command{
		Use:   "step <file.qasm>",
		Short: "Single-step a program forward or backward, printing state after each step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return ioError(err)
			}
			source, err := readSource(args[0])
			if err != nil {
				return ioError(err)
			}

			dbg := debugger.New(debugger.WithLogger(newLogger(cfg)))
			if res := dbg.LoadCodeWithResult(source); !res.OK {
				return parseError(fmt.Errorf("<input>:%d:%d: %s", res.ErrorLine, res.ErrorColumn, res.Detail))
			}
			for _, pos := range cfg.Breakpoints {
				dbg.SetBreakpoint(pos)
			}

			for i := 0; i < count; i++ {
				var stepErr error
				if backward {
					if !dbg.CanStepBackward() {
						break
					}
					stepErr = dbg.StepBackward()
				} else {
					if !dbg.CanStepForward() {
						break
					}
					stepErr = dbg.StepForward()
				}
				if stepErr != nil {
					return fmt.Errorf("step: %w", stepErr)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "pc=%d state=%s\n", dbg.GetCurrentInstruction(), dbg.State())

				if dbg.State() == engine.AssertionFailed {
					printAssertionFailure(cmd, dbg)
					return assertionError(fmt.Errorf("assertion failed at instruction %d", dbg.FailedInstruction()))
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 1, "number of steps to take")
	cmd.Flags().BoolVar(&backward, "backward", false, "step backward instead of forward")
	return cmd
}
