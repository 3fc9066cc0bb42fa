package trial

import (
	"fmt"

	"github.com/kaijuforge/combotrial/pkg/combotrial/constants"
	"github.com/kaijuforge/combotrial/pkg/combotrial/internal"
)

// stepperEngine is the C9 scheduling discipline: steps never miss outright.
// A step that overstays its timeout retries in place; matches are gated by
// a release-before-reuse check and an optional neutral-observed check
// instead of a timing window.
type stepperEngine struct {
	trial *CompiledTrial

	frames     []internal.InputFrame
	currentDir *internal.InputFrame

	startFrame *uint32
	stepIndex  int
	status     Status

	base *uint32 // chaining anchor, used only by delay steps

	stepStartFrame       *uint32
	releaseGateSatisfied bool
	neutralObserved      bool
	lastRecorded         *uint32

	lastMatchedInputFrame  *uint32
	lastMatchedCommitFrame *uint32

	assessments []StepAssessment
	events      eventLog
	drainMark   int

	historyCap int
}

func newStepperEngine(t *CompiledTrial) *stepperEngine {
	cap := t.Rules.TimelineHistoryCapFrames
	if cap <= 0 {
		cap = timelineHistoryCapFramesDefault
	}
	e := &stepperEngine{trial: t, historyCap: cap, status: StatusRunning}
	e.resetAssessments()
	return e
}

func (e *stepperEngine) Mode() EngineMode { return ModeStepper }

func (e *stepperEngine) resetAssessments() {
	e.assessments = make([]StepAssessment, len(e.trial.Steps))
	for i, s := range e.trial.Steps {
		e.assessments[i] = StepAssessment{StepIndex: i, StepID: s.ID, Result: ResultPending}
	}
}

func (e *stepperEngine) Reset() {
	e.frames = nil
	e.currentDir = nil
	e.startFrame = nil
	e.stepIndex = 0
	e.status = StatusRunning
	e.base = nil
	e.stepStartFrame = nil
	e.releaseGateSatisfied = false
	e.neutralObserved = false
	e.lastRecorded = nil
	e.lastMatchedInputFrame = nil
	e.lastMatchedCommitFrame = nil
	e.events.clear()
	e.drainMark = 0
	e.resetAssessments()
}

// DrainEvents returns every event pushed since the last call.
func (e *stepperEngine) DrainEvents() []ModeEvent {
	return e.events.drain(&e.drainMark)
}

func (e *stepperEngine) Advance(snap internal.InputSnapshot) (TrialEngineSnapshot, error) {
	frame, err := internal.BuildFrame(snap, e.currentDir)
	if err != nil {
		return e.Snapshot(), err
	}
	if e.trial.Rules.DirectionMirrored {
		frame = internal.MirrorFrame(frame)
	}

	e.frames = append(e.frames, frame)
	if len(e.frames) > e.historyCap {
		e.frames = e.frames[len(e.frames)-e.historyCap:]
	}
	prevDir := e.currentDir
	cp := frame
	e.currentDir = &cp

	if e.startFrame == nil {
		firstExp := e.startGateExpectation()
		if !internal.ShouldStartTrial(firstExp, frame) {
			return e.Snapshot(), nil
		}
		f := frame.Frame
		e.startFrame = &f
		b := f
		e.base = &b
		e.configureStep(f, nil)
	}

	if e.status != StatusSuccess && e.stepIndex < len(e.trial.Steps) {
		e.resolveStep(frame, prevDir)
	}

	if e.stepIndex >= len(e.trial.Steps) && e.status != StatusSuccess {
		e.status = StatusSuccess
		e.events.push(ModeEvent{
			Type:      EventSuccess,
			Mode:      ModeStepper,
			Frame:     frame.Frame,
			StepIndex: e.stepIndex - 1,
			Message:   "trial complete",
		})
	}

	return e.Snapshot(), nil
}

func (e *stepperEngine) startGateExpectation() internal.StepExpectation {
	first := e.trial.Steps[0]
	if first.Kind == StepKindMove {
		return first.Expectation
	}
	return internal.StepExpectation{}
}

// configureStep (re)enters the current step at the given frame: resets the
// per-step start frame, the release and neutral gates, and the
// already-seen guard, per §4.9's "on step entry" rules.
func (e *stepperEngine) configureStep(frame uint32, prevStep *CompiledTrialStep) {
	f := frame
	e.stepStartFrame = &f
	e.neutralObserved = false
	e.lastRecorded = nil

	if e.stepIndex >= len(e.trial.Steps) {
		return
	}
	step := e.trial.Steps[e.stepIndex]

	hasButtons := len(step.Expectation.Buttons) > 0 || len(step.Expectation.AnyTwoButtonsFrom) > 0
	if !hasButtons || !e.trial.Rules.RequireReleaseBeforeReuse {
		e.releaseGateSatisfied = true
		return
	}
	if prevStep == nil || !buttonSetsOverlap(*prevStep, step) {
		e.releaseGateSatisfied = true
		return
	}
	e.releaseGateSatisfied = false
}

func buttonSetsOverlap(a, b CompiledTrialStep) bool {
	set := make(map[constants.CanonicalButton]bool)
	for _, btn := range a.Expectation.Buttons {
		set[btn] = true
	}
	for _, btn := range a.Expectation.AnyTwoButtonsFrom {
		set[btn] = true
	}
	for _, btn := range b.Expectation.Buttons {
		if set[btn] {
			return true
		}
	}
	for _, btn := range b.Expectation.AnyTwoButtonsFrom {
		if set[btn] {
			return true
		}
	}
	return false
}

func (e *stepperEngine) resolveStep(frame internal.InputFrame, prevDir *internal.InputFrame) {
	step := e.trial.Steps[e.stepIndex]

	if !e.releaseGateSatisfied {
		hasAny := false
		all := append(append([]constants.CanonicalButton(nil), step.Expectation.Buttons...), step.Expectation.AnyTwoButtonsFrom...)
		for _, b := range all {
			if frame.HasCanonical(b) {
				hasAny = true
				break
			}
		}
		if !hasAny {
			e.releaseGateSatisfied = true
		}
	}
	if frame.IsNeutral() {
		e.neutralObserved = true
	}

	switch step.Kind {
	case StepKindDelay:
		target := *e.base + uint32(step.DelayFrames)
		if frame.Frame >= target {
			e.commitMatch(step, target)
		}
		return
	case StepKindMove:
		e.resolveMoveStep(step, frame, prevDir)
	}
}

func (e *stepperEngine) resolveMoveStep(step CompiledTrialStep, frame internal.InputFrame, prevDir *internal.InputFrame) {
	timeout := 60
	if step.StepperTimeoutFrames != nil {
		timeout = *step.StepperTimeoutFrames
	}

	elapsed := frame.Frame - *e.stepStartFrame
	if int(elapsed) > timeout {
		a := &e.assessments[e.stepIndex]
		a.Result = ResultRetried
		a.Attempts++
		a.Notes = append(a.Notes, fmt.Sprintf("timeout (%dF)", timeout))

		e.events.push(ModeEvent{
			Type:      EventStepRetry,
			Mode:      ModeStepper,
			Frame:     frame.Frame,
			StepIndex: e.stepIndex,
			StepID:    step.ID,
			Message:   fmt.Sprintf("timeout (%dF)", timeout),
		})

		internal.GetLogger().Warn("step retry",
			"mode", ModeStepper, "step", step.ID, "stepIndex", e.stepIndex, "attempts", a.Attempts, "timeoutFrames", timeout)

		e.configureStep(frame.Frame, e.prevCompiledStep())
		return
	}

	result := internal.ResolveStep(step.Expectation, e.frames, frame.Frame)
	if result == nil {
		return
	}
	if result.InputFrame < *e.stepStartFrame {
		return
	}
	if e.lastRecorded != nil && result.InputFrame <= *e.lastRecorded {
		return
	}

	hasButtons := len(step.Expectation.Buttons) > 0 || len(step.Expectation.AnyTwoButtonsFrom) > 0
	// A button step commits only on a frame carrying a pressed edge, so a
	// tolerance-window match cannot land on a later frame where the buttons
	// are merely held.
	if hasButtons && len(frame.PressedCanonical) == 0 {
		return
	}
	if !e.releaseGateSatisfied {
		return
	}
	if e.trial.Rules.RequireNeutralBeforeStep && !e.neutralObserved {
		return
	}

	directionOnly := step.Expectation.Direction != nil && step.Expectation.Motion == nil && !hasButtons
	if directionOnly && e.trial.Rules.RequireNeutralBeforeStep {
		if prevDir == nil || prevDir.Direction != constants.DirNeutral {
			return
		}
	}

	f := result.InputFrame
	e.lastRecorded = &f
	e.commitMatch(step, result.InputFrame)
}

func (e *stepperEngine) prevCompiledStep() *CompiledTrialStep {
	if e.stepIndex == 0 {
		return nil
	}
	s := e.trial.Steps[e.stepIndex-1]
	return &s
}

func (e *stepperEngine) commitMatch(step CompiledTrialStep, actualFrame uint32) {
	a := &e.assessments[e.stepIndex]
	a.Result = ResultMatched
	a.ActualFrame = u32ptr(actualFrame)
	a.Attempts++

	e.events.push(ModeEvent{
		Type:      EventStepMatched,
		Mode:      ModeStepper,
		Frame:     actualFrame,
		StepIndex: e.stepIndex,
		StepID:    step.ID,
	})

	e.lastMatchedInputFrame = u32ptr(actualFrame)
	e.lastMatchedCommitFrame = u32ptr(actualFrame)
	internal.GetEngineLogger().Debug("step matched",
		"mode", ModeStepper, "step", step.ID, "stepIndex", e.stepIndex, "actualFrame", actualFrame, "attempts", a.Attempts)

	b := actualFrame
	e.base = &b
	e.stepIndex++

	if e.stepIndex < len(e.trial.Steps) {
		e.configureStep(actualFrame, &step)
	}
}

func (e *stepperEngine) Snapshot() TrialEngineSnapshot {
	var cur uint32
	if e.currentDir != nil {
		cur = e.currentDir.Frame
	}

	return TrialEngineSnapshot{
		Mode:                   ModeStepper,
		Status:                 e.status,
		CurrentStepIndex:       e.stepIndex,
		CurrentFrame:           cur,
		LastMatchedInputFrame:  e.lastMatchedInputFrame,
		LastMatchedCommitFrame: e.lastMatchedCommitFrame,
		Assessments:            cloneAssessments(e.assessments),
		Events:                 e.events.snapshot(),
	}
}
