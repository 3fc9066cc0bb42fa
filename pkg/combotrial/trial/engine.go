package trial

import (
	"fmt"

	"github.com/kaijuforge/combotrial/pkg/combotrial/internal"
)

// Engine is the common surface of the timeline and stepper trial engines
// (C8/C9), driven once per frame by the host, §5.
type Engine interface {
	// Advance consumes one already-normalized InputSnapshot (direction and
	// canonical buttons resolved upstream per C2) and returns a deep-copied
	// snapshot of the engine's state after processing it.
	Advance(snap internal.InputSnapshot) (TrialEngineSnapshot, error)

	// Reset restores all mutable state: assessments revert to pending, the
	// event log is cleared, the frame counter and start frame return to
	// none. Always succeeds; idempotent when already reset.
	Reset()

	// Snapshot returns the current state without advancing a frame.
	Snapshot() TrialEngineSnapshot

	// Mode reports which scheduling discipline this engine implements.
	Mode() EngineMode

	// DrainEvents returns every ModeEvent pushed since the last DrainEvents
	// call (or since construction/Reset), consuming them. An alternative to
	// reading TrialEngineSnapshot.Events wholesale for a host that wants to
	// process each event exactly once.
	DrainEvents() []ModeEvent
}

// NewEngine builds the engine for the trial's default mode, or "timeline"
// when the rules leave it unset, §4.10. A non-empty modeOverride replaces
// that mode when the trial's rules allow an override; when they do not, the
// override is rejected with an error. Engine construction validates the trial by requiring a
// non-empty, already-Compiled step list — Compile itself does the rest of
// the validation in §4.7.
func NewEngine(t *CompiledTrial, modeOverride EngineMode) (Engine, error) {
	if t == nil {
		return nil, fmt.Errorf("trial: nil compiled trial")
	}
	if len(t.Steps) == 0 {
		return nil, fmt.Errorf("trial: no steps")
	}

	mode := t.Rules.DefaultMode
	if mode == "" {
		mode = ModeTimeline
	}
	if modeOverride != "" {
		if !t.Rules.AllowModeOverride {
			return nil, fmt.Errorf("trial: mode override requested but not allowed by rules")
		}
		mode = modeOverride
	}

	switch mode {
	case ModeTimeline:
		return newTimelineEngine(t), nil
	case ModeStepper:
		return newStepperEngine(t), nil
	default:
		return nil, fmt.Errorf("trial: unknown engine mode %q", mode)
	}
}
