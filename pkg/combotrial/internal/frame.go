package internal

import (
	"fmt"
	"sort"

	"github.com/kaijuforge/combotrial/pkg/combotrial/constants"
)

// BuildFrame differentiates a new InputSnapshot against the previous
// InputFrame (nil on the very first frame) to produce the next InputFrame,
// per §4.1. pressed = held_now \ held_prev, released = held_prev \
// held_now, computed independently for the canonical and physical sets.
//
// Fails only on invariant violation: a duplicate entry in either held set
// of the snapshot.
func BuildFrame(snap InputSnapshot, prev *InputFrame) (InputFrame, error) {
	canonical, err := sortUniqueCanonical(snap.HeldCanonical)
	if err != nil {
		return InputFrame{}, fmt.Errorf("frame %d: %w", snap.Frame, err)
	}
	physical, err := sortUniquePhysical(snap.HeldPhysical)
	if err != nil {
		return InputFrame{}, fmt.Errorf("frame %d: %w", snap.Frame, err)
	}

	var prevCanonical []constants.CanonicalButton
	var prevPhysical []constants.PhysicalButton
	if prev != nil {
		prevCanonical = prev.HeldCanonical
		prevPhysical = prev.HeldPhysical
	}

	pressedC, releasedC := diffCanonical(prevCanonical, canonical)
	pressedP, releasedP := diffPhysical(prevPhysical, physical)

	return InputFrame{
		Frame:             snap.Frame,
		TimestampMS:       snap.TimestampMS,
		Direction:         snap.Direction,
		HeldCanonical:     canonical,
		PressedCanonical:  pressedC,
		ReleasedCanonical: releasedC,
		HeldPhysical:      physical,
		PressedPhysical:   pressedP,
		ReleasedPhysical:  releasedP,
	}, nil
}

func sortUniqueCanonical(in []constants.CanonicalButton) ([]constants.CanonicalButton, error) {
	seen := make(map[constants.CanonicalButton]bool, len(in))
	out := make([]constants.CanonicalButton, 0, len(in))
	for _, b := range in {
		if seen[b] {
			return nil, fmt.Errorf("duplicate canonical button %s in snapshot", b)
		}
		seen[b] = true
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func sortUniquePhysical(in []constants.PhysicalButton) ([]constants.PhysicalButton, error) {
	seen := make(map[constants.PhysicalButton]bool, len(in))
	out := make([]constants.PhysicalButton, 0, len(in))
	for _, b := range in {
		if seen[b] {
			return nil, fmt.Errorf("duplicate physical button %s in snapshot", b)
		}
		seen[b] = true
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func diffCanonical(prev, now []constants.CanonicalButton) (pressed, released []constants.CanonicalButton) {
	prevSet := make(map[constants.CanonicalButton]bool, len(prev))
	for _, b := range prev {
		prevSet[b] = true
	}
	nowSet := make(map[constants.CanonicalButton]bool, len(now))
	for _, b := range now {
		nowSet[b] = true
	}
	for _, b := range now {
		if !prevSet[b] {
			pressed = append(pressed, b)
		}
	}
	for _, b := range prev {
		if !nowSet[b] {
			released = append(released, b)
		}
	}
	sort.Slice(pressed, func(i, j int) bool { return pressed[i] < pressed[j] })
	sort.Slice(released, func(i, j int) bool { return released[i] < released[j] })
	return pressed, released
}

func diffPhysical(prev, now []constants.PhysicalButton) (pressed, released []constants.PhysicalButton) {
	prevSet := make(map[constants.PhysicalButton]bool, len(prev))
	for _, b := range prev {
		prevSet[b] = true
	}
	nowSet := make(map[constants.PhysicalButton]bool, len(now))
	for _, b := range now {
		nowSet[b] = true
	}
	for _, b := range now {
		if !prevSet[b] {
			pressed = append(pressed, b)
		}
	}
	for _, b := range prev {
		if !nowSet[b] {
			released = append(released, b)
		}
	}
	sort.Slice(pressed, func(i, j int) bool { return pressed[i] < pressed[j] })
	sort.Slice(released, func(i, j int) bool { return released[i] < released[j] })
	return pressed, released
}
