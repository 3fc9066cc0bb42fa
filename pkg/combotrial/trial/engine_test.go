package trial

import (
	"testing"

	"github.com/kaijuforge/combotrial/pkg/combotrial/constants"
	"github.com/kaijuforge/combotrial/pkg/combotrial/internal"
)

func minimalTrial(rules CompiledTrialRules) *CompiledTrial {
	return &CompiledTrial{
		ID:    "t",
		Rules: rules,
		Steps: []CompiledTrialStep{
			{ID: "s0", Kind: StepKindMove, Expectation: internal.StepExpectation{Buttons: []constants.CanonicalButton{constants.LP}}},
		},
	}
}

func TestNewEngineDefaultsToTimeline(t *testing.T) {
	e, err := NewEngine(minimalTrial(CompiledTrialRules{}), "")
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if e.Mode() != ModeTimeline {
		t.Fatalf("expected timeline default, got %v", e.Mode())
	}
}

func TestNewEngineHonorsTrialDefaultMode(t *testing.T) {
	e, err := NewEngine(minimalTrial(CompiledTrialRules{DefaultMode: ModeStepper}), "")
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if e.Mode() != ModeStepper {
		t.Fatalf("expected trial default (stepper), got %v", e.Mode())
	}
}

func TestNewEngineRejectsOverrideWhenNotAllowed(t *testing.T) {
	_, err := NewEngine(minimalTrial(CompiledTrialRules{DefaultMode: ModeTimeline, AllowModeOverride: false}), ModeStepper)
	if err == nil {
		t.Fatal("expected an error when requesting a mode override the trial disallows")
	}
}

func TestNewEngineOverrideWinsWhenAllowed(t *testing.T) {
	e, err := NewEngine(minimalTrial(CompiledTrialRules{DefaultMode: ModeTimeline, AllowModeOverride: true}), ModeStepper)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if e.Mode() != ModeStepper {
		t.Fatalf("expected override to win, got %v", e.Mode())
	}
}

func TestNewEngineRejectsEmptyTrial(t *testing.T) {
	if _, err := NewEngine(&CompiledTrial{ID: "empty"}, ""); err == nil {
		t.Fatal("expected an error for a trial with no steps")
	}
	if _, err := NewEngine(nil, ""); err == nil {
		t.Fatal("expected an error for a nil compiled trial")
	}
}

func TestEngineMonotonicityAcrossFrames(t *testing.T) {
	trial := &CompiledTrial{
		ID:    "mono",
		Rules: CompiledTrialRules{DefaultMode: ModeTimeline},
		Steps: []CompiledTrialStep{
			{ID: "s0", Kind: StepKindMove, Expectation: internal.StepExpectation{Buttons: []constants.CanonicalButton{constants.LP}}},
			{
				ID:          "s1",
				Kind:        StepKindMove,
				Expectation: internal.StepExpectation{Buttons: []constants.CanonicalButton{constants.MP}},
				Window:      &CompiledStepWindow{MaxAfterPrevFrames: 24, Connect: ConnectLink, Provenance: ProvenanceDefault},
			},
		},
	}
	e, err := NewEngine(trial, "")
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	in := []internal.InputSnapshot{
		snap(0, constants.DirNeutral),
		snap(1, constants.DirNeutral, constants.LP),
		snap(2, constants.DirNeutral),
		snap(3, constants.DirNeutral, constants.MP),
	}

	lastIdx := 0
	sawSuccess := false
	for _, f := range in {
		s, err := e.Advance(f)
		if err != nil {
			t.Fatalf("Advance: %v", err)
		}
		if s.CurrentStepIndex < lastIdx {
			t.Fatalf("currentStepIndex regressed: %d -> %d", lastIdx, s.CurrentStepIndex)
		}
		lastIdx = s.CurrentStepIndex
		if s.Status == StatusSuccess {
			sawSuccess = true
		}
		if sawSuccess && s.Status != StatusSuccess {
			t.Fatal("status regressed from success back to running")
		}
	}
}
