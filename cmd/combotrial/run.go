package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kaijuforge/combotrial/pkg/combotrial"
	"github.com/kaijuforge/combotrial/pkg/combotrial/config"
	"github.com/kaijuforge/combotrial/pkg/combotrial/constants"
	"github.com/kaijuforge/combotrial/pkg/combotrial/i18n"
	"github.com/kaijuforge/combotrial/pkg/combotrial/session"
	"github.com/kaijuforge/combotrial/pkg/combotrial/trial"
)

var (
	runTrialPath      string
	runMovedbPath     string
	runFramesPath     string
	runModeFlag       string
	runConfigPath     string
	runBindingsPath   string
	runResetComboPath string
	runMessagePaths   []string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a frame log against a compiled trial",
	Long: `Compiles a trial against a move database and replays a recorded frame
log through a live session: physical buttons are expanded to attack buttons
through the loaded bindings, the reset combo is armed, and the engine is
advanced frame-by-frame, printing assessments, drained events, and the
compressed input history.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runTrialPath, "trial", "", "path to the trial JSON file (required)")
	runCmd.Flags().StringVar(&runMovedbPath, "movedb", "", "path to the move database JSON file (required)")
	runCmd.Flags().StringVar(&runFramesPath, "frames", "", "path to the recorded frame log JSON file (required)")
	runCmd.Flags().StringVar(&runModeFlag, "mode", "", "engine mode override: timeline or stepper")
	runCmd.Flags().StringVar(&runConfigPath, "config", "", "path to the engine defaults TOML file")
	runCmd.Flags().StringVar(&runBindingsPath, "bindings", "", "path to the button bindings TOML file")
	runCmd.Flags().StringVar(&runResetComboPath, "reset-combo", "", "path to the reset combo TOML file")
	runCmd.Flags().StringSliceVar(&runMessagePaths, "messages", nil, "i18n message files for step/move labels")
	runCmd.MarkFlagRequired("trial")
	runCmd.MarkFlagRequired("movedb")
	runCmd.MarkFlagRequired("frames")
}

// recordedFrame is the on-disk shape of one entry in a frame log: the raw
// driver output of §6 — frame, timestamp, direction, held physical
// buttons by name. Attack buttons are resolved through the session's
// bindings during replay, the same path a live controller takes.
type recordedFrame struct {
	Frame        uint32   `json:"frame"`
	TimestampMS  float64  `json:"timestampMs"`
	Direction    int      `json:"direction"`
	HeldPhysical []string `json:"heldPhysical"`
}

func runRun(cmd *cobra.Command, args []string) error {
	db, err := loadMovedb(runMovedbPath)
	if err != nil {
		return err
	}

	tf, err := loadTrialFile(runTrialPath)
	if err != nil {
		return err
	}

	defaults, err := config.LoadEngineDefaults(runConfigPath)
	if err != nil {
		return err
	}
	opts := trial.CompileOptions{
		MotionWindowFrames:       defaults.MotionMaxWindowFrames,
		MotionButtonGapFrames:    defaults.MotionButtonGapFrames,
		TimelineHistoryCapFrames: defaults.TimelineHistoryCapFrames,
		StepperTimeoutFrames:     defaults.StepperDefaultTimeoutFrames,
	}
	if len(runMessagePaths) > 0 {
		loc, err := i18n.New(runMessagePaths)
		if err != nil {
			return err
		}
		opts.Localizer = loc
	}

	compiled, err := trial.CompileWithOptions(tf, db, opts)
	if err != nil {
		return err
	}

	bindings, err := config.LoadBindings(runBindingsPath)
	if err != nil {
		return err
	}

	s := session.New()
	s.SetBindings(bindings)

	combo, err := resolveResetCombo(compiled)
	if err != nil {
		return err
	}
	s.SetResetCombo(combo)

	s.LoadTrial(compiled.ID, compiled)
	if err := s.Activate(compiled.ID, trial.EngineMode(runModeFlag)); err != nil {
		return err
	}
	engine, _ := s.Engine()

	frames, err := loadFrameLog(runFramesPath)
	if err != nil {
		return err
	}

	history := combotrial.NewDisplayHistory(0)
	var prev *combotrial.InputFrame

	for _, rf := range frames {
		held, err := rf.heldButtons()
		if err != nil {
			return fmt.Errorf("frame %d: %w", rf.Frame, err)
		}
		snapResult, err := s.AdvanceFrame(rf.Frame, rf.TimestampMS, constants.Direction(rf.Direction), held)
		if err != nil {
			return fmt.Errorf("advance frame %d: %w", rf.Frame, err)
		}

		frame, err := combotrial.BuildFrame(combotrial.InputSnapshot{
			Frame:         rf.Frame,
			TimestampMS:   rf.TimestampMS,
			Direction:     constants.Direction(rf.Direction),
			HeldPhysical:  held,
			HeldCanonical: combotrial.MapPhysicalToCanonical(held, s.Bindings()),
		}, prev)
		if err == nil {
			cp := frame
			prev = &cp
			history.Append(frame)
		}

		printSnapshot(rf.Frame, snapResult, engine.DrainEvents())
	}

	printHistory(history)
	return nil
}

// resolveResetCombo prefers the trial's own rules.resetCombo names over
// the session-level TOML file, falling back to no combo at all when
// neither configures one.
func resolveResetCombo(compiled *trial.CompiledTrial) ([]constants.PhysicalButton, error) {
	if len(compiled.Rules.ResetCombo) > 0 {
		combo := make([]constants.PhysicalButton, 0, len(compiled.Rules.ResetCombo))
		for _, name := range compiled.Rules.ResetCombo {
			b, ok := physicalButtonByName(name)
			if !ok {
				return nil, fmt.Errorf("trial rules: unknown physical button %q in resetCombo", name)
			}
			combo = append(combo, b)
		}
		return combo, nil
	}

	cfg, err := config.LoadResetCombo(runResetComboPath)
	if err != nil {
		return nil, err
	}
	return cfg.Combo, nil
}

func loadFrameLog(path string) ([]recordedFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frames %s: %w", path, err)
	}
	defer f.Close()

	var frames []recordedFrame
	if err := json.NewDecoder(f).Decode(&frames); err != nil {
		return nil, fmt.Errorf("decode frames %s: %w", path, err)
	}
	return frames, nil
}

func (rf recordedFrame) heldButtons() ([]constants.PhysicalButton, error) {
	held := make([]constants.PhysicalButton, 0, len(rf.HeldPhysical))
	for _, name := range rf.HeldPhysical {
		b, ok := physicalButtonByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown physical button %q", name)
		}
		held = append(held, b)
	}
	return held, nil
}

func physicalButtonByName(name string) (constants.PhysicalButton, bool) {
	for _, b := range constants.PhysicalButtons {
		if b.String() == name {
			return b, true
		}
	}
	return 0, false
}

func printSnapshot(frame uint32, s trial.TrialEngineSnapshot, events []trial.ModeEvent) {
	fmt.Printf("frame %d: mode=%s status=%s step=%d\n", frame, s.Mode, s.Status, s.CurrentStepIndex)
	for _, a := range s.Assessments {
		delta := "-"
		if a.DeltaFrames != nil {
			delta = fmt.Sprintf("%d", *a.DeltaFrames)
		}
		actual := "-"
		if a.ActualFrame != nil {
			actual = fmt.Sprintf("%d", *a.ActualFrame)
		}
		fmt.Printf("  %s: %-8s actual=%-4s delta=%-4s attempts=%d\n", a.StepID, a.Result, actual, delta, a.Attempts)
	}
	for _, e := range events {
		fmt.Printf("  event: %s step=%s frame=%d %s\n", e.Type, e.StepID, e.Frame, e.Message)
	}
}

func printHistory(h *combotrial.DisplayHistory) {
	entries := h.Entries()
	if len(entries) == 0 {
		return
	}
	fmt.Println("input history:")
	for _, e := range entries {
		held := make([]string, len(e.Held))
		for i, b := range e.Held {
			held[i] = b.String()
		}
		sat := ""
		if e.IsSaturated {
			sat = "+"
		}
		fmt.Printf("  %s %-10s x%d%s\n", e.Direction, strings.Join(held, "+"), e.DisplayLength(), sat)
	}
}
