package internal

import "github.com/kaijuforge/combotrial/pkg/combotrial/constants"

// InputSnapshot is the per-frame input delivered by an external driver,
// already normalized: canonical buttons resolved via ButtonBindings by the
// driver or by the caller before handing the snapshot to the frame
// builder. See §6 for the external driver contract.
type InputSnapshot struct {
	Frame         uint32
	TimestampMS   float64
	Direction     constants.Direction
	HeldPhysical  []constants.PhysicalButton
	HeldCanonical []constants.CanonicalButton
}

// InputFrame is the immutable output of the frame builder (§4.1). Equality
// is by Frame index; all sets are sorted by canonical enumeration order.
type InputFrame struct {
	Frame       uint32
	TimestampMS float64
	Direction   constants.Direction

	HeldCanonical     []constants.CanonicalButton
	PressedCanonical  []constants.CanonicalButton
	ReleasedCanonical []constants.CanonicalButton

	HeldPhysical     []constants.PhysicalButton
	PressedPhysical  []constants.PhysicalButton
	ReleasedPhysical []constants.PhysicalButton
}

// HasCanonical reports whether b is currently held in this frame.
func (f InputFrame) HasCanonical(b constants.CanonicalButton) bool {
	for _, x := range f.HeldCanonical {
		if x == b {
			return true
		}
	}
	return false
}

// PressedCanonicalHas reports whether b has a pressed edge this frame.
func (f InputFrame) PressedCanonicalHas(b constants.CanonicalButton) bool {
	for _, x := range f.PressedCanonical {
		if x == b {
			return true
		}
	}
	return false
}

// IsNeutral reports whether the frame shows no input activity: neutral
// direction and no held buttons of either kind.
func (f InputFrame) IsNeutral() bool {
	return f.Direction == constants.DirNeutral && len(f.HeldCanonical) == 0 && len(f.HeldPhysical) == 0
}
