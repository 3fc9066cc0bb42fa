package internal

import "github.com/kaijuforge/combotrial/pkg/combotrial/constants"

// SaturationCap is the internal run length at or beyond which an
// InputHistoryEntry is flagged saturated for downstream UI hints, even
// though the internal length keeps counting past it (§4.3).
const SaturationCap = 99

// DefaultMaxHistoryEntries bounds the display history's FIFO eviction so a
// long idle session does not grow the entry list unboundedly.
const DefaultMaxHistoryEntries = 256

// HistoryEntry is a contiguous run of frames sharing the same
// (direction, held canonical set), per §3/§4.3.
type HistoryEntry struct {
	Direction   constants.Direction
	Held        []constants.CanonicalButton
	StartFrame  uint32
	EndFrame    uint32
	Length      int
	IsSaturated bool
}

// DisplayLength returns min(Length, SaturationCap).
func (e HistoryEntry) DisplayLength() int {
	if e.Length > SaturationCap {
		return SaturationCap
	}
	return e.Length
}

// DisplayHistory run-length-compresses the canonical frame stream into
// entries for presentation, per §4.3. It is distinct from the engine's raw
// frame window (used by the matcher/motion detector), which keeps every
// frame uncompressed.
//
// Grounded on pawndev-gabagool's sequenceBuffer accumulation pattern in
// internal/input_processor.go, generalized from a flat press-event log to a
// run-length-encoded display history with FIFO eviction.
type DisplayHistory struct {
	entries    []HistoryEntry
	maxEntries int
}

// NewDisplayHistory constructs an empty history bounded at maxEntries. A
// non-positive value falls back to DefaultMaxHistoryEntries.
func NewDisplayHistory(maxEntries int) *DisplayHistory {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxHistoryEntries
	}
	return &DisplayHistory{maxEntries: maxEntries}
}

// Append adds the frame to the history, extending the current tail entry
// if it has the identical (direction, held) pair, otherwise pushing a new
// entry and evicting the oldest if the cap is exceeded.
func (h *DisplayHistory) Append(f InputFrame) {
	if len(h.entries) > 0 {
		tail := &h.entries[len(h.entries)-1]
		if tail.Direction == f.Direction && canonicalSetEqual(tail.Held, f.HeldCanonical) {
			tail.Length++
			tail.EndFrame = f.Frame
			tail.IsSaturated = tail.Length >= SaturationCap
			return
		}
	}

	h.entries = append(h.entries, HistoryEntry{
		Direction:  f.Direction,
		Held:       append([]constants.CanonicalButton(nil), f.HeldCanonical...),
		StartFrame: f.Frame,
		EndFrame:   f.Frame,
		Length:     1,
	})

	if len(h.entries) > h.maxEntries {
		h.entries = h.entries[len(h.entries)-h.maxEntries:]
	}
}

// Entries returns a copy of the current entry list, oldest first.
func (h *DisplayHistory) Entries() []HistoryEntry {
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

func canonicalSetEqual(a, b []constants.CanonicalButton) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
