// Command qdbg is the non-interactive CLI front-end for the debugger
// package. It is deliberately a run-to-completion / single-command tool
// rather than an interactive TUI: a batch run, a bounded step sequence, a
// compile, or a diagnose pass, one process per invocation.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}
