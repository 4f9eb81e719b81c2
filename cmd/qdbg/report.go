package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"qdebugger/debugger"
)

// printAssertionFailure renders the failed assertion, its stack trace, and
// potential-error-cause diagnostics as one panel.
func printAssertionFailure(cmd *cobra.Command, dbg *debugger.Debugger) {
	failed := dbg.FailedInstruction()
	var b strings.Builder
	fmt.Fprintf(&b, "assertion failed at instruction %d\n", failed)

	trace := dbg.StackTrace(-1)
	if len(trace) > 0 {
		fmt.Fprintf(&b, "stack trace (innermost first): %v\n", trace)
	}

	causes := dbg.Diagnostics().PotentialErrorCauses()
	if len(causes) > 0 {
		fmt.Fprintln(&b, "potential causes:")
		for _, c := range causes {
			fmt.Fprintf(&b, "  - %s at instruction %d\n", c.Kind, c.Instruction)
		}
	}

	fmt.Fprint(cmd.OutOrStdout(), failureStyle.Render(strings.TrimRight(b.String(), "\n")))
	fmt.Fprintln(cmd.OutOrStdout())
}
