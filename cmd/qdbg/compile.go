package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"qdebugger/debugger"
	"qdebugger/internal/compile"
)

func newCompileCmd() *cobra.Command {
	var opt int
	var sliceIndex int

	cmd := &cobra.Command{
		Use:   "compile <file.qasm>",
		Short: "Re-emit a program's source with assertions elided",
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

			out, err := dbg.Compile(compile.Settings{Opt: opt, SliceIndex: sliceIndex})
			if err != nil {
				return fmt.Errorf("compile: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().IntVar(&opt, "opt", 0, "optimization level (0 preserves minimal layout)")
	cmd.Flags().IntVar(&sliceIndex, "slice-index", -1, "truncate before the (slice-index+1)-th assertion; -1 keeps the whole program")
	return cmd
}
