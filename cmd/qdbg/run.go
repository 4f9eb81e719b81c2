package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"qdebugger/debugger"
	"qdebugger/internal/engine"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <file.qasm>",
		Short: "Run a program to completion or until an assertion fails",
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

			if err := dbg.Run(); err != nil {
				return fmt.Errorf("run: %w", err)
			}

			if dbg.State() == engine.AssertionFailed {
				printAssertionFailure(cmd, dbg)
				return assertionError(fmt.Errorf("assertion failed at instruction %d", dbg.FailedInstruction()))
			}

			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("run completed: "+dbg.State().String()))
			return nil
		},
	}
}
