package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kaijuforge/combotrial/pkg/combotrial/movedb"
	"github.com/kaijuforge/combotrial/pkg/combotrial/trial"
)

var (
	validateTrialPath  string
	validateMovedbPath string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Compile a trial file and report every validation error",
	Long:  `Loads a move database and a trial file, compiles the trial, and reports every problem found at once rather than stopping at the first.`,
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateTrialPath, "trial", "", "path to the trial JSON file (required)")
	validateCmd.Flags().StringVar(&validateMovedbPath, "movedb", "", "path to the move database JSON file (required)")
	validateCmd.MarkFlagRequired("trial")
	validateCmd.MarkFlagRequired("movedb")
}

func runValidate(cmd *cobra.Command, args []string) error {
	db, err := loadMovedb(validateMovedbPath)
	if err != nil {
		return err
	}

	tf, err := loadTrialFile(validateTrialPath)
	if err != nil {
		return err
	}

	compiled, err := trial.Compile(tf, db)
	if err != nil {
		if errs, ok := err.(trial.CompileErrors); ok {
			for _, e := range errs {
				fmt.Fprintf(os.Stderr, "error: %s\n", e.Error())
			}
			os.Exit(1)
		}
		return err
	}

	fmt.Printf("trial %q (%s) is valid: %d step(s), default mode %s\n",
		compiled.ID, compiled.Name, len(compiled.Steps), compiled.Rules.DefaultMode)
	return nil
}

func loadMovedb(path string) (*movedb.Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open movedb %s: %w", path, err)
	}
	defer f.Close()
	return movedb.LoadDatabase(f)
}

func loadTrialFile(path string) (*trial.TrialFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trial %s: %w", path, err)
	}
	defer f.Close()
	return trial.ParseTrialFile(f)
}
