// Package session owns the pieces C8-C11 deliberately keep out of their own
// hands: the live ButtonBindings (the one shared mutable item per §5), a
// registry of compiled trials so a host can switch the active one without
// recompiling, and the out-of-band wiring between the reset combo detector
// (C11) and the active engine's reset hook.
package session

import (
	"fmt"
	"sync"

	"go.uber.org/atomic"

	"github.com/kaijuforge/combotrial/pkg/combotrial/constants"
	"github.com/kaijuforge/combotrial/pkg/combotrial/internal"
	"github.com/kaijuforge/combotrial/pkg/combotrial/trial"
)

// Session is the host-facing owner of one engine at a time, the button
// bindings it reads through, and the reset combo that swaps it back to a
// fresh run. Safe for concurrent reads of Bindings/ActiveTrial from a
// second goroutine (e.g. a preferences UI) while AdvanceFrame runs on the
// engine's own thread, per §5's shared-resource policy.
//
// Grounded on pawndev-gabagool's status_bar.go DynamicStatusBarIcon
// (atomic.Value publishing a value read from another goroutine) for
// bindings publication, and combo.go's RegisterChord/UnregisterCombo/
// ProcessComboEvent surface for the trial registry and drain API.
type Session struct {
	bindings atomic.Value // internal.ButtonBindings

	mu       sync.Mutex
	trials   map[string]*trial.CompiledTrial
	activeID string
	engine   trial.Engine

	resetDetector *internal.ResetComboDetector
	resetPrev     *internal.InputFrame
}

// New constructs a Session with the default button bindings and no active
// trial.
func New() *Session {
	s := &Session{trials: make(map[string]*trial.CompiledTrial)}
	s.bindings.Store(internal.DefaultBindings())
	s.resetDetector = internal.NewResetComboDetector(nil)
	return s
}

// Bindings returns the currently published button bindings.
func (s *Session) Bindings() internal.ButtonBindings {
	return s.bindings.Load().(internal.ButtonBindings)
}

// SetBindings publishes a new bindings value, visible to the next
// AdvanceFrame call. The engine itself never mutates bindings; only the
// session does, between frames, per §5.
func (s *Session) SetBindings(b internal.ButtonBindings) {
	s.bindings.Store(b)
}

// SetResetCombo reconfigures the reset combo chord. An empty combo never
// triggers.
func (s *Session) SetResetCombo(combo []constants.PhysicalButton) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetDetector = internal.NewResetComboDetector(combo)
	s.resetPrev = nil
}

// LoadTrial registers a compiled trial under id, available to become
// active without recompiling. Compilation (§4.7) is pure, so this is a
// cache, not a new source of recognition semantics.
func (s *Session) LoadTrial(id string, compiled *trial.CompiledTrial) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trials[id] = compiled
}

// UnloadTrial removes a registered trial. If it is the active one, the
// active engine is cleared and AdvanceFrame will fail until a new trial is
// activated.
func (s *Session) UnloadTrial(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.trials, id)
	if s.activeID == id {
		s.activeID = ""
		s.engine = nil
	}
}

// ActiveTrial returns the compiled trial currently driving the engine, if
// any.
func (s *Session) ActiveTrial() (*trial.CompiledTrial, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trials[s.activeID]
	return t, ok
}

// Activate builds a fresh engine for the registered trial id, per the
// factory rules in §4.10. The previous active engine, if any, is discarded.
func (s *Session) Activate(id string, modeOverride trial.EngineMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.trials[id]
	if !ok {
		return fmt.Errorf("session: trial %q not loaded", id)
	}
	e, err := trial.NewEngine(t, modeOverride)
	if err != nil {
		internal.GetLogger().Error("engine activation failed", "trial", id, "error", err)
		return fmt.Errorf("session: activate %q: %w", id, err)
	}
	internal.GetLogger().Info("trial activated", "trial", id, "mode", e.Mode())
	s.activeID = id
	s.engine = e
	s.resetPrev = nil
	return nil
}

// Engine returns the currently active engine, if one has been activated.
func (s *Session) Engine() (trial.Engine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine, s.engine != nil
}

// AdvanceFrame expands heldPhysical into canonical buttons via the current
// bindings (C2), advances the active engine one frame (C1 onward), and
// evaluates the reset combo (C11) out of band: a triggered chord resets the
// engine before returning rather than after, so the returned snapshot
// already reflects the fresh run.
func (s *Session) AdvanceFrame(frameNum uint32, timestampMS float64, direction constants.Direction, heldPhysical []constants.PhysicalButton) (trial.TrialEngineSnapshot, error) {
	s.mu.Lock()
	engine := s.engine
	bindings := s.Bindings()
	s.mu.Unlock()

	if engine == nil {
		internal.GetLogger().Error("advance with no active trial", "frame", frameNum)
		return trial.TrialEngineSnapshot{}, fmt.Errorf("session: no active trial")
	}

	canonical := internal.MapPhysicalToCanonical(heldPhysical, bindings)
	snap := internal.InputSnapshot{
		Frame:         frameNum,
		TimestampMS:   timestampMS,
		Direction:     direction,
		HeldPhysical:  heldPhysical,
		HeldCanonical: canonical,
	}

	s.mu.Lock()
	resetFrame, err := internal.BuildFrame(snap, s.resetPrev)
	if err == nil {
		cp := resetFrame
		s.resetPrev = &cp
	}
	triggered := err == nil && s.resetDetector.Observe(resetFrame)
	s.mu.Unlock()

	if triggered {
		engine.Reset()
		s.mu.Lock()
		s.resetDetector.Reset()
		s.resetPrev = nil
		s.mu.Unlock()
	}

	return engine.Advance(snap)
}
