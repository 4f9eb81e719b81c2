package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"qdebugger/debugger"
	"qdebugger/internal/engine"
)

func newDiagnoseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose <file.qasm>",
		Short: "Run a program and report assertion-failure causes plus static suggestions",
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

			if err := dbg.Run(); err != nil {
				return fmt.Errorf("run: %w", err)
			}

			out := cmd.OutOrStdout()
			if dbg.State() == engine.AssertionFailed {
				printAssertionFailure(cmd, dbg)
			} else {
				fmt.Fprintln(out, successStyle.Render("no assertion failed"))
			}

			diag := dbg.Diagnostics()
			fmt.Fprintln(out, titleStyle.Render("\nsuggested assertion movements:"))
			moves := diag.SuggestAssertionMovements()
			if len(moves) == 0 {
				fmt.Fprintln(out, dimStyle.Render("  (none)"))
			}
			for _, m := range moves {
				fmt.Fprintf(out, "  line %d could move earlier, to line %d\n", m.AssertionLine, m.NewLine)
			}

			fmt.Fprintln(out, titleStyle.Render("\nsuggested new assertions:"))
			sugg := diag.SuggestNewAssertions()
			if len(sugg) == 0 {
				fmt.Fprintln(out, dimStyle.Render("  (none)"))
			}
			for _, s := range sugg {
				fmt.Fprintf(out, "  before line %d: %s\n", s.InsertBefore, s.Text)
			}

			if dbg.State() == engine.AssertionFailed {
				return assertionError(fmt.Errorf("assertion failed at instruction %d", dbg.FailedInstruction()))
			}
			return nil
		},
	}
}
