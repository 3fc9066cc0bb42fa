package internal

import (
	"testing"

	"github.com/kaijuforge/combotrial/pkg/combotrial/constants"
)

func dir(d constants.Direction) *constants.Direction { return &d }
func motion(m MotionCode) *MotionCode { return &m }

func TestResolveStepDirectionOnly(t *testing.T) {
	frames := []InputFrame{
		{Frame: 0, Direction: constants.DirNeutral},
		{Frame: 1, Direction: constants.DirDown},
	}
	exp := StepExpectation{Direction: dir(constants.DirDown)}

	if r := ResolveStep(exp, frames, 0); r != nil {
		t.Fatalf("expected no match at frame 0, got %+v", r)
	}
	r := ResolveStep(exp, frames, 1)
	if r == nil || r.InputFrame != 1 {
		t.Fatalf("expected match at frame 1, got %+v", r)
	}
}

func TestResolveStepButtonsWithinTolerance(t *testing.T) {
	frames := []InputFrame{
		{Frame: 0, PressedCanonical: nil},
		{Frame: 1, PressedCanonical: []constants.CanonicalButton{constants.LP}},
		{Frame: 2, PressedCanonical: []constants.CanonicalButton{constants.LK}},
	}
	exp := StepExpectation{
		Buttons:                  []constants.CanonicalButton{constants.LP, constants.LK},
		SimultaneousWithinFrames: 2,
	}

	r := ResolveStep(exp, frames, 2)
	if r == nil || r.InputFrame != 2 {
		t.Fatalf("expected resolved frame 2 (max press frame), got %+v", r)
	}
}

func TestResolveStepButtonsExceedTolerance(t *testing.T) {
	frames := []InputFrame{
		{Frame: 0, PressedCanonical: []constants.CanonicalButton{constants.LP}},
		{Frame: 1},
		{Frame: 2},
		{Frame: 3},
		{Frame: 4, PressedCanonical: []constants.CanonicalButton{constants.LK}},
	}
	exp := StepExpectation{
		Buttons:                  []constants.CanonicalButton{constants.LP, constants.LK},
		SimultaneousWithinFrames: 2,
	}
	if r := ResolveStep(exp, frames, 4); r != nil {
		t.Fatalf("expected no match outside the tolerance window, got %+v", r)
	}
}

func TestResolveStepAnyTwoButtonsFrom(t *testing.T) {
	frames := []InputFrame{
		{Frame: 0, PressedCanonical: []constants.CanonicalButton{constants.LP}},
		{Frame: 1, PressedCanonical: []constants.CanonicalButton{constants.MP}},
	}
	exp := StepExpectation{
		AnyTwoButtonsFrom:        []constants.CanonicalButton{constants.LP, constants.MP, constants.HP},
		SimultaneousWithinFrames: 2,
	}
	r := ResolveStep(exp, frames, 1)
	if r == nil || r.InputFrame != 1 {
		t.Fatalf("expected resolved frame 1, got %+v", r)
	}
}

func TestResolveStepMotionPlusButtonGap(t *testing.T) {
	frames := []InputFrame{
		{Frame: 0, Direction: constants.DirDown},
		{Frame: 1, Direction: constants.DirDownForward},
		{Frame: 2, Direction: constants.DirForward}, // motion ends here
		{Frame: 3, Direction: constants.DirForward},
		{Frame: 4, Direction: constants.DirForward, PressedCanonical: []constants.CanonicalButton{constants.LP}},
	}
	exp := StepExpectation{
		Motion:                   motion(Motion236),
		Buttons:                  []constants.CanonicalButton{constants.LP},
		SimultaneousWithinFrames: 2,
	}
	r := ResolveStep(exp, frames, 4)
	if r == nil {
		t.Fatal("expected a match within the 12-frame motion-to-button gap")
	}
	if r.InputFrame != 4 {
		t.Fatalf("expected resolved frame 4, got %+v", r)
	}
	if r.MotionCompletionFrame == nil || *r.MotionCompletionFrame != 2 {
		t.Fatalf("expected motion completion frame 2, got %+v", r.MotionCompletionFrame)
	}
}

func TestResolveStepMotionButtonGapExceeded(t *testing.T) {
	frames := make([]InputFrame, 0, 16)
	frames = append(frames,
		InputFrame{Frame: 0, Direction: constants.DirDown},
		InputFrame{Frame: 1, Direction: constants.DirDownForward},
		InputFrame{Frame: 2, Direction: constants.DirForward},
	)
	for i := uint32(3); i < 15; i++ {
		frames = append(frames, InputFrame{Frame: i, Direction: constants.DirForward})
	}
	frames = append(frames, InputFrame{Frame: 15, Direction: constants.DirForward, PressedCanonical: []constants.CanonicalButton{constants.LP}})

	exp := StepExpectation{
		Motion:                   motion(Motion236),
		Buttons:                  []constants.CanonicalButton{constants.LP},
		SimultaneousWithinFrames: 2,
	}
	if r := ResolveStep(exp, frames, 15); r != nil {
		t.Fatalf("expected no match once the motion-to-button gap exceeds 12 frames, got %+v", r)
	}
}

func TestShouldStartTrialGatesPreHoldDirection(t *testing.T) {
	exp := StepExpectation{
		Direction: dir(constants.DirDown),
		Buttons:   []constants.CanonicalButton{constants.LK},
	}

	holding := InputFrame{Direction: constants.DirDown, HeldCanonical: nil, PressedCanonical: nil}
	if ShouldStartTrial(exp, holding) {
		t.Fatal("expected no start: crouch held from before the session with no pressed edge")
	}

	pressed := InputFrame{Direction: constants.DirDown, PressedCanonical: []constants.CanonicalButton{constants.LK}}
	if !ShouldStartTrial(exp, pressed) {
		t.Fatal("expected start: a genuine pressed edge this frame")
	}
}

func TestShouldStartTrialActivityGate(t *testing.T) {
	exp := StepExpectation{}
	idle := InputFrame{Direction: constants.DirNeutral}
	if ShouldStartTrial(exp, idle) {
		t.Fatal("expected no start on a fully neutral frame")
	}
	active := InputFrame{Direction: constants.DirForward}
	if !ShouldStartTrial(exp, active) {
		t.Fatal("expected start once direction is non-neutral")
	}
}
