// combotrial is a host harness exercising the trial compiler and engines
// against recorded input: it loads a trial file and a move database,
// compiles and builds an engine via the factory (C10), and replays a
// recorded frame log through it frame-by-frame. It contains no recognition
// logic of its own — everything here calls into pkg/combotrial.
//
// Usage:
//
//	combotrial validate --trial <file> --movedb <file>
//	combotrial run --trial <file> --movedb <file> --frames <file> [--mode timeline|stepper]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "combotrial",
	Short: "Combo trial compiler and engine replay harness",
	Long: `combotrial compiles a declarative trial file against a move database
and replays a recorded frame log through the resulting engine.

Available commands:
  validate  - Compile a trial file and report every validation error
  run       - Replay a frame log against a compiled trial, printing assessments`,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(runCmd)
}
