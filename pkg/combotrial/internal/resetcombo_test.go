package internal

import (
	"testing"

	"github.com/kaijuforge/combotrial/pkg/combotrial/constants"
)

func TestResetComboTriggersOnPressedEdge(t *testing.T) {
	d := NewResetComboDetector([]constants.PhysicalButton{constants.PhysSelect, constants.PhysStart})

	f0 := InputFrame{Frame: 0, HeldPhysical: nil}
	if d.Observe(f0) {
		t.Fatal("expected no trigger on an idle frame")
	}

	f1 := InputFrame{
		Frame:           1,
		HeldPhysical:    []constants.PhysicalButton{constants.PhysSelect, constants.PhysStart},
		PressedPhysical: []constants.PhysicalButton{constants.PhysSelect, constants.PhysStart},
	}
	if !d.Observe(f1) {
		t.Fatal("expected trigger on the frame the combo becomes actively held")
	}

	// Held steady the next frame: must not re-trigger.
	f2 := InputFrame{
		Frame:        2,
		HeldPhysical: []constants.PhysicalButton{constants.PhysSelect, constants.PhysStart},
	}
	if d.Observe(f2) {
		t.Fatal("expected no re-trigger while the combo is merely held")
	}
}

func TestResetComboExcludesPassiveHoldAtStart(t *testing.T) {
	d := NewResetComboDetector([]constants.PhysicalButton{constants.PhysSelect, constants.PhysStart})

	// The combo is already held with no pressed edge on the very first
	// observed frame (e.g. the session started mid-hold): must not trigger.
	f0 := InputFrame{
		Frame:        0,
		HeldPhysical: []constants.PhysicalButton{constants.PhysSelect, constants.PhysStart},
	}
	if d.Observe(f0) {
		t.Fatal("expected no trigger for a combo already held before observation began")
	}
}

func TestResetComboEmptyNeverTriggers(t *testing.T) {
	d := NewResetComboDetector(nil)
	f := InputFrame{
		Frame:           0,
		HeldPhysical:    []constants.PhysicalButton{constants.PhysSelect},
		PressedPhysical: []constants.PhysicalButton{constants.PhysSelect},
	}
	if d.Observe(f) {
		t.Fatal("expected an empty combo to never trigger")
	}
}

func TestResetComboResetClearsLatch(t *testing.T) {
	d := NewResetComboDetector([]constants.PhysicalButton{constants.PhysSelect})

	held := InputFrame{
		Frame:           0,
		HeldPhysical:    []constants.PhysicalButton{constants.PhysSelect},
		PressedPhysical: []constants.PhysicalButton{constants.PhysSelect},
	}
	if !d.Observe(held) {
		t.Fatal("expected initial trigger")
	}

	d.Reset()

	// Held steady across the reset with a synthetic pressed edge (as the
	// host would report after rebuilding its own previous-frame state):
	// should trigger again since the latch was cleared.
	again := InputFrame{
		Frame:           1,
		HeldPhysical:    []constants.PhysicalButton{constants.PhysSelect},
		PressedPhysical: []constants.PhysicalButton{constants.PhysSelect},
	}
	if !d.Observe(again) {
		t.Fatal("expected trigger to be possible again after Reset")
	}
}
