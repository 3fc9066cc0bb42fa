package internal

import "github.com/kaijuforge/combotrial/pkg/combotrial/constants"

// ResetComboDetector watches for a configured physical-button chord and
// reports a triggered edge the frame it is first fully, actively pressed
// (§4.11). It never calls reset itself — the host wires Triggered to the
// engine's reset hook, out of band per §6.
type ResetComboDetector struct {
	combo  []constants.PhysicalButton
	active bool
}

// NewResetComboDetector configures the detector with the chord that must
// be held exactly (no extra buttons) to trigger a reset. An empty combo
// never triggers.
func NewResetComboDetector(combo []constants.PhysicalButton) *ResetComboDetector {
	cp := append([]constants.PhysicalButton(nil), combo...)
	return &ResetComboDetector{combo: cp}
}

// Observe feeds one frame to the detector and reports whether a reset was
// triggered on this frame.
func (d *ResetComboDetector) Observe(f InputFrame) bool {
	if len(d.combo) == 0 {
		d.active = false
		return false
	}

	isActive := physicalSetEquals(d.combo, f.HeldPhysical)

	triggered := false
	if isActive && !d.active && len(f.PressedPhysical) > 0 {
		triggered = true
	}
	d.active = isActive

	return triggered
}

// Reset clears the detector's latched active state (used when the engine
// itself resets). The next observed frame that holds the combo with a
// pressed edge triggers again.
func (d *ResetComboDetector) Reset() {
	d.active = false
}

func physicalSetEquals(binding, held []constants.PhysicalButton) bool {
	if len(binding) == 0 || len(binding) != len(held) {
		return false
	}
	set := make(map[constants.PhysicalButton]bool, len(held))
	for _, b := range held {
		set[b] = true
	}
	for _, b := range binding {
		if !set[b] {
			return false
		}
	}
	return true
}
