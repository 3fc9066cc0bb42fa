// Package trial implements the trial compiler (C7) and the timeline and
// stepper trial engines (C8/C9) plus the engine factory (C10).
package trial

import (
	"github.com/kaijuforge/combotrial/pkg/combotrial/internal"
)

// ConnectKind is the relationship between consecutive steps, controlling
// the default inter-step timing window (§4.7, GLOSSARY).
type ConnectKind string

const (
	ConnectLink   ConnectKind = "link"
	ConnectCancel ConnectKind = "cancel"
	ConnectChain  ConnectKind = "chain"
	ConnectTarget ConnectKind = "target"
)

// defaultWindowMax is the default max frames for each connect kind, §4.7.
var defaultWindowMax = map[ConnectKind]int{
	ConnectLink:   24,
	ConnectCancel: 40,
	ConnectChain:  20,
	ConnectTarget: 20,
}

// drCancelWindowMax is the default max for a cancel step whose CancelKind
// is "dr" (drive rush), overriding the plain cancel default.
const drCancelWindowMax = 12

// StepKind distinguishes a move step from a delay step.
type StepKind string

const (
	StepKindMove  StepKind = "move"
	StepKindDelay StepKind = "delay"
)

// WindowProvenance records whether a step's timing window came from an
// inline override in the trial file or from the connect-kind default.
type WindowProvenance string

const (
	ProvenanceInlineOverride WindowProvenance = "inline_override"
	ProvenanceDefault        WindowProvenance = "default"
)

// CompiledStepWindow is the derived inter-step timing window, §3/§4.7.
type CompiledStepWindow struct {
	MinAfterPrevFrames int
	MaxAfterPrevFrames int
	Connect            ConnectKind
	CancelKind         string
	Provenance         WindowProvenance
}

// CompiledTrialStep is one fully-resolved step of a compiled trial.
type CompiledTrialStep struct {
	ID           string
	DisplayLabel string
	Kind         StepKind

	// Move steps.
	MoveID      string
	Expectation internal.StepExpectation
	Window      *CompiledStepWindow // nil only for the first move step

	// Delay steps.
	DelayFrames int
	DelayReason string

	// StepperTimeoutFrames is this step's resolved stepper timeout, filled
	// in by the compiler from the fallback chain (per-step override, trial
	// default, close-after-prev, session option, 60), §4.9. The stepper
	// engine uses 60 when it is nil.
	StepperTimeoutFrames *int
}

// EngineMode selects which scheduling discipline drives a trial.
type EngineMode string

const (
	ModeTimeline EngineMode = "timeline"
	ModeStepper  EngineMode = "stepper"
)

// CompiledTrialRules holds the trial-wide defaults and overrides that
// shape engine behavior (§3).
type CompiledTrialRules struct {
	DefaultMode       EngineMode
	AllowModeOverride bool

	DirectionMirrored bool

	TimelineHistoryCapFrames int

	StepperDefaultTimeoutFrames int
	StepperCloseAfterPrevFrames int
	RequireReleaseBeforeReuse   bool
	RequireNeutralBeforeStep    bool

	ResetCombo []string // physical button names; resolved by the session
}

// CompiledTrial is the fully-resolved output of the compiler (§4.7).
type CompiledTrial struct {
	ID    string
	Name  string
	Notes string
	Rules CompiledTrialRules
	Steps []CompiledTrialStep
}

// StepResult is the per-step verdict tracked in a StepAssessment.
type StepResult string

const (
	ResultPending StepResult = "pending"
	ResultMatched StepResult = "matched"
	ResultMissed  StepResult = "missed"
	ResultRetried StepResult = "retried"
)

// StepAssessment is the per-step record of match/miss, timing, and retry
// history, §3/GLOSSARY.
type StepAssessment struct {
	StepIndex   int
	StepID      string
	Result      StepResult
	TargetFrame *uint32
	ActualFrame *uint32
	DeltaFrames *int
	Attempts    int
	Notes       []string
}

func (a StepAssessment) clone() StepAssessment {
	out := a
	if a.TargetFrame != nil {
		v := *a.TargetFrame
		out.TargetFrame = &v
	}
	if a.ActualFrame != nil {
		v := *a.ActualFrame
		out.ActualFrame = &v
	}
	if a.DeltaFrames != nil {
		v := *a.DeltaFrames
		out.DeltaFrames = &v
	}
	out.Notes = append([]string(nil), a.Notes...)
	return out
}

// EventType is the tag of a ModeEvent.
type EventType string

const (
	EventStepMatched EventType = "step_matched"
	EventStepMissed  EventType = "step_missed"
	EventStepRetry   EventType = "step_retry"
	EventSuccess     EventType = "success"
)

// ModeEvent is one emitted engine event, §3.
type ModeEvent struct {
	Type      EventType
	Mode      EngineMode
	Frame     uint32
	StepIndex int
	StepID    string
	Message   string
}

// maxEventLog is the FIFO cap on TrialEngineSnapshot.Events, §3.
const maxEventLog = 80

// eventLog is a capped, FIFO-evicting event buffer. total counts every push
// ever made, independent of eviction, so drain can locate a consumer's mark
// in the buffer even after older events were evicted.
type eventLog struct {
	events []ModeEvent
	total  int
}

func (l *eventLog) push(e ModeEvent) {
	l.events = append(l.events, e)
	l.total++
	if len(l.events) > maxEventLog {
		l.events = l.events[len(l.events)-maxEventLog:]
	}
}

func (l *eventLog) snapshot() []ModeEvent {
	return append([]ModeEvent(nil), l.events...)
}

func (l *eventLog) clear() {
	l.events = nil
	l.total = 0
}

// drain returns every event pushed since *mark and advances *mark to the
// current total. If the consumer fell far enough behind that events were
// already evicted, it returns only what the buffer still holds — a slow
// DrainEvents caller loses the oldest events rather than blocking others.
func (l *eventLog) drain(mark *int) []ModeEvent {
	firstHeld := l.total - len(l.events)
	start := *mark - firstHeld
	if start < 0 {
		start = 0
	}
	if start > len(l.events) {
		start = len(l.events)
	}
	out := append([]ModeEvent(nil), l.events[start:]...)
	*mark = l.total
	return out
}

// Status is the engine's overall run status, §3.
type Status string

const (
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
)

// TrialEngineSnapshot is the deep-copied result of every Advance call, §3/§5.
type TrialEngineSnapshot struct {
	Mode             EngineMode
	Status           Status
	CurrentStepIndex int
	CurrentFrame     uint32

	WindowOpen  *uint32
	WindowClose *uint32

	LastMatchedInputFrame  *uint32
	LastMatchedCommitFrame *uint32

	Assessments []StepAssessment
	Events      []ModeEvent
}

func cloneAssessments(in []StepAssessment) []StepAssessment {
	out := make([]StepAssessment, len(in))
	for i, a := range in {
		out[i] = a.clone()
	}
	return out
}

func u32ptr(v uint32) *uint32 { return &v }
func intptr(v int) *int { return &v }
