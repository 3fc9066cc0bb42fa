package trial

import (
	"github.com/kaijuforge/combotrial/pkg/combotrial/internal"
)

// timelineHistoryCapFramesDefault is used when a trial's rules leave the cap
// unset (zero value), §4.8.
const timelineHistoryCapFramesDefault = 240

// timelineEngine is the C8 scheduling discipline: steps advance against
// absolute target frames derived from the previously resolved step, never
// retrying a step once its window has closed.
type timelineEngine struct {
	trial *CompiledTrial

	frames     []internal.InputFrame
	currentDir *internal.InputFrame // nil until the first frame arrives

	startFrame *uint32
	stepIndex  int
	status     Status

	// base is the anchor frame for the current step: the start frame for
	// step 0, otherwise the previous step's resolved frame or miss
	// boundary.
	base *uint32

	// lastRecorded is the last resolved input frame seen for the step
	// currently pending, used to require the matcher to report a strictly
	// newer frame before it counts (§4.8 point 3).
	lastRecorded *uint32

	lastMatchedInputFrame  *uint32
	lastMatchedCommitFrame *uint32

	assessments []StepAssessment
	events      eventLog
	drainMark   int

	historyCap int
}

func newTimelineEngine(t *CompiledTrial) *timelineEngine {
	cap := t.Rules.TimelineHistoryCapFrames
	if cap <= 0 {
		cap = timelineHistoryCapFramesDefault
	}
	e := &timelineEngine{trial: t, historyCap: cap, status: StatusRunning}
	e.resetAssessments()
	return e
}

func (e *timelineEngine) Mode() EngineMode { return ModeTimeline }

func (e *timelineEngine) resetAssessments() {
	e.assessments = make([]StepAssessment, len(e.trial.Steps))
	for i, s := range e.trial.Steps {
		e.assessments[i] = StepAssessment{StepIndex: i, StepID: s.ID, Result: ResultPending}
	}
}

func (e *timelineEngine) Reset() {
	e.frames = nil
	e.currentDir = nil
	e.startFrame = nil
	e.stepIndex = 0
	e.status = StatusRunning
	e.base = nil
	e.lastRecorded = nil
	e.lastMatchedInputFrame = nil
	e.lastMatchedCommitFrame = nil
	e.events.clear()
	e.drainMark = 0
	e.resetAssessments()
}

// DrainEvents returns every event pushed since the last call.
func (e *timelineEngine) DrainEvents() []ModeEvent {
	return e.events.drain(&e.drainMark)
}

func (e *timelineEngine) Advance(snap internal.InputSnapshot) (TrialEngineSnapshot, error) {
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
	}

	if e.status != StatusSuccess && e.stepIndex < len(e.trial.Steps) {
		e.resolveStep(frame)
	}

	if e.stepIndex >= len(e.trial.Steps) && e.status != StatusSuccess {
		e.status = StatusSuccess
		e.events.push(ModeEvent{
			Type:      EventSuccess,
			Mode:      ModeTimeline,
			Frame:     frame.Frame,
			StepIndex: e.stepIndex - 1,
			Message:   "trial complete",
		})
	}

	return e.Snapshot(), nil
}

// startGateExpectation returns the expectation used to gate trial start: the
// first step's own expectation for a move step, or a zero-value expectation
// (activity-only gating) when the trial opens with a delay step.
func (e *timelineEngine) startGateExpectation() internal.StepExpectation {
	first := e.trial.Steps[0]
	if first.Kind == StepKindMove {
		return first.Expectation
	}
	return internal.StepExpectation{}
}

func (e *timelineEngine) resolveStep(frame internal.InputFrame) {
	step := e.trial.Steps[e.stepIndex]
	base := *e.base

	switch step.Kind {
	case StepKindDelay:
		target := base + uint32(step.DelayFrames)
		if frame.Frame >= target {
			e.commitMatch(step, target, target, 0)
		}
	case StepKindMove:
		if step.Window == nil {
			e.resolveFirstMoveStep(step, frame)
			return
		}
		e.resolveWindowedStep(step, frame, base)
	}
}

func (e *timelineEngine) resolveFirstMoveStep(step CompiledTrialStep, frame internal.InputFrame) {
	result := internal.ResolveStep(step.Expectation, e.frames, frame.Frame)
	if result == nil {
		return
	}
	if e.lastRecorded != nil && result.InputFrame <= *e.lastRecorded {
		return
	}
	f := result.InputFrame
	e.lastRecorded = &f
	e.commitMatchNoTarget(step, result.InputFrame)
}

func (e *timelineEngine) resolveWindowedStep(step CompiledTrialStep, frame internal.InputFrame, base uint32) {
	win := step.Window
	windowOpen := base + uint32(win.MinAfterPrevFrames)
	windowClose := base + uint32(win.MaxAfterPrevFrames)

	result := internal.ResolveStep(step.Expectation, e.frames, frame.Frame)
	if result != nil && (e.lastRecorded == nil || result.InputFrame > *e.lastRecorded) {
		f := result.InputFrame
		e.lastRecorded = &f
		if result.InputFrame >= windowOpen && result.InputFrame <= windowClose {
			target := uint32(win.MaxAfterPrevFrames)
			delta := int(result.InputFrame) - int(target)
			e.commitMatch(step, target, result.InputFrame, delta)
			return
		}
	}

	if frame.Frame >= windowClose {
		e.commitMiss(step, windowClose)
	}
}

func (e *timelineEngine) commitMatch(step CompiledTrialStep, targetFrame, actualFrame uint32, delta int) {
	a := &e.assessments[e.stepIndex]
	a.Result = ResultMatched
	a.TargetFrame = u32ptr(targetFrame)
	a.ActualFrame = u32ptr(actualFrame)
	a.DeltaFrames = intptr(delta)
	a.Attempts = 1

	e.events.push(ModeEvent{
		Type:      EventStepMatched,
		Mode:      ModeTimeline,
		Frame:     actualFrame,
		StepIndex: e.stepIndex,
		StepID:    step.ID,
	})

	e.lastMatchedInputFrame = u32ptr(actualFrame)
	e.lastMatchedCommitFrame = u32ptr(actualFrame)
	internal.GetEngineLogger().Debug("step matched",
		"mode", ModeTimeline, "step", step.ID, "stepIndex", e.stepIndex, "actualFrame", actualFrame, "delta", delta)
	e.advanceStep(actualFrame)
}

// commitMatchNoTarget handles the windowless first-move-step case: the
// match carries delta 0 but no target frame, so consumers can tell "no
// target" from "target equals zero".
func (e *timelineEngine) commitMatchNoTarget(step CompiledTrialStep, actualFrame uint32) {
	a := &e.assessments[e.stepIndex]
	a.Result = ResultMatched
	a.ActualFrame = u32ptr(actualFrame)
	a.DeltaFrames = intptr(0)
	a.Attempts = 1

	e.events.push(ModeEvent{
		Type:      EventStepMatched,
		Mode:      ModeTimeline,
		Frame:     actualFrame,
		StepIndex: e.stepIndex,
		StepID:    step.ID,
	})

	e.lastMatchedInputFrame = u32ptr(actualFrame)
	e.lastMatchedCommitFrame = u32ptr(actualFrame)
	e.advanceStep(actualFrame)
}

func (e *timelineEngine) commitMiss(step CompiledTrialStep, closeFrame uint32) {
	a := &e.assessments[e.stepIndex]
	a.Result = ResultMissed
	a.TargetFrame = u32ptr(uint32(step.Window.MaxAfterPrevFrames))
	a.Attempts++
	a.Notes = append(a.Notes, "timed_out")

	e.events.push(ModeEvent{
		Type:      EventStepMissed,
		Mode:      ModeTimeline,
		Frame:     closeFrame,
		StepIndex: e.stepIndex,
		StepID:    step.ID,
		Message:   "timed_out",
	})

	internal.GetLogger().Warn("step missed",
		"mode", ModeTimeline, "step", step.ID, "stepIndex", e.stepIndex, "closeFrame", closeFrame)

	e.advanceStep(closeFrame)
}

func (e *timelineEngine) advanceStep(resolvedBase uint32) {
	b := resolvedBase
	e.base = &b
	e.lastRecorded = nil
	e.stepIndex++
}

func (e *timelineEngine) Snapshot() TrialEngineSnapshot {
	var cur uint32
	if e.currentDir != nil {
		cur = e.currentDir.Frame
	}

	var open, close *uint32
	if e.status != StatusSuccess && e.stepIndex < len(e.trial.Steps) && e.base != nil {
		step := e.trial.Steps[e.stepIndex]
		if step.Kind == StepKindMove && step.Window != nil {
			o := *e.base + uint32(step.Window.MinAfterPrevFrames)
			c := *e.base + uint32(step.Window.MaxAfterPrevFrames)
			open, close = &o, &c
		} else if step.Kind == StepKindDelay {
			t := *e.base + uint32(step.DelayFrames)
			open, close = &t, &t
		}
	}

	return TrialEngineSnapshot{
		Mode:                   ModeTimeline,
		Status:                 e.status,
		CurrentStepIndex:       e.stepIndex,
		CurrentFrame:           cur,
		WindowOpen:             open,
		WindowClose:            close,
		LastMatchedInputFrame:  e.lastMatchedInputFrame,
		LastMatchedCommitFrame: e.lastMatchedCommitFrame,
		Assessments:            cloneAssessments(e.assessments),
		Events:                 e.events.snapshot(),
	}
}
