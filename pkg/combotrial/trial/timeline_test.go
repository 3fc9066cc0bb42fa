package trial

import (
	"testing"

	"github.com/kaijuforge/combotrial/pkg/combotrial/constants"
	"github.com/kaijuforge/combotrial/pkg/combotrial/internal"
)

func down(d constants.Direction) *constants.Direction { return &d }
func mo(m internal.MotionCode) *internal.MotionCode { return &m }

func snap(frame uint32, dir constants.Direction, held ...constants.CanonicalButton) internal.InputSnapshot {
	return internal.InputSnapshot{
		Frame:         frame,
		TimestampMS:   float64(frame) * 16,
		Direction:     dir,
		HeldCanonical: append([]constants.CanonicalButton(nil), held...),
	}
}

// TestTimelineScenario1 is spec scenario 1: 2LK -> 236 LP.
func TestTimelineScenario1(t *testing.T) {
	trial := &CompiledTrial{
		ID:   "scenario1",
		Name: "2LK into fireball",
		Rules: CompiledTrialRules{
			DefaultMode:              ModeTimeline,
			TimelineHistoryCapFrames: 240,
		},
		Steps: []CompiledTrialStep{
			{
				ID:   "s0",
				Kind: StepKindMove,
				Expectation: internal.StepExpectation{
					Direction: down(constants.DirDown),
					Buttons:   []constants.CanonicalButton{constants.LK},
				},
			},
			{
				ID:   "s1",
				Kind: StepKindMove,
				Expectation: internal.StepExpectation{
					Motion:                   mo(internal.Motion236),
					Buttons:                  []constants.CanonicalButton{constants.LP},
					SimultaneousWithinFrames: 2,
				},
				Window: &CompiledStepWindow{
					MinAfterPrevFrames: 0,
					MaxAfterPrevFrames: 24,
					Connect:            ConnectLink,
					Provenance:         ProvenanceDefault,
				},
			},
		},
	}

	e, err := NewEngine(trial, "")
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	frames := []internal.InputSnapshot{
		snap(0, constants.DirNeutral),
		snap(1, constants.DirDown, constants.LK),
		snap(2, constants.DirDown),
		snap(3, constants.DirDownForward),
		snap(4, constants.DirForward, constants.LP),
	}

	var last TrialEngineSnapshot
	for _, f := range frames {
		last, err = e.Advance(f)
		if err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}

	if last.Status != StatusSuccess {
		t.Fatalf("expected success, got status %v, assessments=%+v", last.Status, last.Assessments)
	}
	if last.CurrentFrame != 4 {
		t.Fatalf("expected status transition to land at frame 4, got %d", last.CurrentFrame)
	}
	if *last.Assessments[0].ActualFrame != 1 {
		t.Fatalf("expected step 0 actualFrame=1, got %d", *last.Assessments[0].ActualFrame)
	}
	if *last.Assessments[1].ActualFrame != 4 {
		t.Fatalf("expected step 1 actualFrame=4, got %d", *last.Assessments[1].ActualFrame)
	}
	if *last.Assessments[1].DeltaFrames != -20 {
		t.Fatalf("expected step 1 deltaFrames=-20, got %d", *last.Assessments[1].DeltaFrames)
	}
}

// TestTimelineScenario2 is spec scenario 2: a missed middle step followed by
// a later step matching within its own (re-anchored) window.
func TestTimelineScenario2(t *testing.T) {
	trial := &CompiledTrial{
		ID:   "scenario2",
		Name: "miss then continue",
		Rules: CompiledTrialRules{
			DefaultMode:              ModeTimeline,
			TimelineHistoryCapFrames: 240,
		},
		Steps: []CompiledTrialStep{
			{
				ID:   "a",
				Kind: StepKindMove,
				Expectation: internal.StepExpectation{
					Buttons: []constants.CanonicalButton{constants.LP},
				},
			},
			{
				ID:   "b",
				Kind: StepKindMove,
				Expectation: internal.StepExpectation{
					Buttons: []constants.CanonicalButton{constants.MP},
				},
				Window: &CompiledStepWindow{
					MinAfterPrevFrames: 2,
					MaxAfterPrevFrames: 2,
					Connect:            ConnectLink,
					Provenance:         ProvenanceDefault,
				},
			},
			{
				ID:   "c",
				Kind: StepKindMove,
				Expectation: internal.StepExpectation{
					Buttons: []constants.CanonicalButton{constants.HP},
				},
				Window: &CompiledStepWindow{
					MinAfterPrevFrames: 3,
					MaxAfterPrevFrames: 6,
					Connect:            ConnectLink,
					Provenance:         ProvenanceDefault,
				},
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
		snap(3, constants.DirNeutral),
		snap(4, constants.DirNeutral),
		snap(5, constants.DirNeutral),
		snap(6, constants.DirNeutral, constants.HP),
	}

	var last TrialEngineSnapshot
	for _, f := range in {
		last, err = e.Advance(f)
		if err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}

	if *last.Assessments[0].ActualFrame != 1 {
		t.Fatalf("expected step a actualFrame=1, got %d", *last.Assessments[0].ActualFrame)
	}
	if last.Assessments[1].Result != ResultMissed {
		t.Fatalf("expected step b to be missed, got %v", last.Assessments[1].Result)
	}
	if *last.Assessments[1].TargetFrame != 2 {
		t.Fatalf("expected step b targetFrame=2 (the window's raw max), got %d", *last.Assessments[1].TargetFrame)
	}
	if last.Assessments[2].Result != ResultMatched {
		t.Fatalf("expected step c matched, got %v", last.Assessments[2].Result)
	}
	if *last.Assessments[2].ActualFrame != 6 {
		t.Fatalf("expected step c actualFrame=6, got %d", *last.Assessments[2].ActualFrame)
	}
	if *last.Assessments[2].DeltaFrames != 0 {
		t.Fatalf("expected step c deltaFrames=0, got %d", *last.Assessments[2].DeltaFrames)
	}
	if last.Status != StatusSuccess {
		t.Fatalf("expected overall success once the final step matches, got %v", last.Status)
	}
}

// TestTimelineMirroredMotionScenario5 is spec scenario 5: direction-mirrored
// mode maps the raw numpad directions before the motion detector ever sees
// them, so a raw 1-4-... sequence can still resolve a 236 (forward) motion.
func TestTimelineMirroredMotionScenario5(t *testing.T) {
	trial := &CompiledTrial{
		ID:   "scenario5",
		Name: "mirrored 236 LP",
		Rules: CompiledTrialRules{
			DefaultMode:       ModeTimeline,
			DirectionMirrored: true,
		},
		Steps: []CompiledTrialStep{
			{
				ID:   "s0",
				Kind: StepKindMove,
				Expectation: internal.StepExpectation{
					Motion:                   mo(internal.Motion236),
					Buttons:                  []constants.CanonicalButton{constants.LP},
					SimultaneousWithinFrames: 2,
				},
			},
		},
	}

	e, err := NewEngine(trial, "")
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	// Raw numpad sequence from the scenario: 5,2,1,4,4+LP. Mirroring swaps
	// 1<->3 and 4<->6 (2, 5, 8 are self-mirrored), so the engine sees the
	// direction sequence 5,2,3,6,6 — a clean 236 motion — with LP pressed
	// on the final frame.
	raw := []internal.InputSnapshot{
		snap(0, constants.DirNeutral),
		snap(1, constants.DirDown),
		snap(2, constants.DirDownBack),
		snap(3, constants.DirBack),
		snap(4, constants.DirBack, constants.LP),
	}

	var last TrialEngineSnapshot
	for _, f := range raw {
		last, err = e.Advance(f)
		if err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}

	if last.Status != StatusSuccess {
		t.Fatalf("expected the mirrored motion+button to resolve, got status=%v assessments=%+v", last.Status, last.Assessments)
	}
}

func TestTimelineResetIsIdempotentAndClearsState(t *testing.T) {
	trial := &CompiledTrial{
		ID:    "reset",
		Rules: CompiledTrialRules{DefaultMode: ModeTimeline},
		Steps: []CompiledTrialStep{
			{ID: "s0", Kind: StepKindMove, Expectation: internal.StepExpectation{Buttons: []constants.CanonicalButton{constants.LP}}},
		},
	}
	e, err := NewEngine(trial, "")
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if _, err := e.Advance(snap(0, constants.DirNeutral, constants.LP)); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	e.Reset()
	e.Reset()
	s := e.Snapshot()
	if s.Status != StatusRunning {
		t.Fatalf("expected running after reset, got %v", s.Status)
	}
	for _, a := range s.Assessments {
		if a.Result != ResultPending {
			t.Fatalf("expected all assessments pending after reset, got %v", a.Result)
		}
	}
	if len(s.Events) != 0 {
		t.Fatalf("expected events cleared after reset, got %v", s.Events)
	}
}
