package internal

import (
	"testing"

	"github.com/kaijuforge/combotrial/pkg/combotrial/constants"
)

func TestDisplayHistoryRunLengthEncodes(t *testing.T) {
	h := NewDisplayHistory(0)

	f := func(frame uint32, dir constants.Direction, held ...constants.CanonicalButton) InputFrame {
		return InputFrame{Frame: frame, Direction: dir, HeldCanonical: held}
	}

	h.Append(f(0, constants.DirNeutral))
	h.Append(f(1, constants.DirNeutral))
	h.Append(f(2, constants.DirDown, constants.LK))
	h.Append(f(3, constants.DirDown, constants.LK))
	h.Append(f(4, constants.DirDown, constants.LK))

	entries := h.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(entries), entries)
	}
	if entries[0].Length != 2 || entries[0].StartFrame != 0 || entries[0].EndFrame != 1 {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Length != 3 || entries[1].StartFrame != 2 || entries[1].EndFrame != 4 {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}

	total := 0
	for _, e := range entries {
		total += e.Length
	}
	if total != 5 {
		t.Fatalf("sum of lengths should equal frame count (5), got %d", total)
	}
}

func TestDisplayHistorySaturation(t *testing.T) {
	h := NewDisplayHistory(0)
	for i := uint32(0); i < 120; i++ {
		h.Append(InputFrame{Frame: i, Direction: constants.DirNeutral})
	}

	entries := h.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected exactly one entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Length != 120 {
		t.Fatalf("expected internal length 120, got %d", e.Length)
	}
	if !e.IsSaturated {
		t.Fatal("expected saturation flag set at length 120")
	}
	if e.DisplayLength() != 99 {
		t.Fatalf("expected displayed length 99, got %d", e.DisplayLength())
	}
}

func TestDisplayHistoryFIFOEviction(t *testing.T) {
	h := NewDisplayHistory(3)
	for i := uint32(0); i < 5; i++ {
		// Alternate direction every frame so each Append starts a new entry.
		dir := constants.DirNeutral
		if i%2 == 0 {
			dir = constants.DirDown
		}
		h.Append(InputFrame{Frame: i, Direction: dir})
	}

	entries := h.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected eviction down to cap 3, got %d entries", len(entries))
	}
}
