package internal

import (
	"testing"

	"github.com/kaijuforge/combotrial/pkg/combotrial/constants"
)

func framesFromDirs(dirs ...constants.Direction) []InputFrame {
	out := make([]InputFrame, len(dirs))
	for i, d := range dirs {
		out[i] = InputFrame{Frame: uint32(i), Direction: d}
	}
	return out
}

func TestDetectMotion236(t *testing.T) {
	frames := framesFromDirs(
		constants.DirNeutral,     // 0
		constants.DirDown,        // 1
		constants.DirDownForward, // 2
		constants.DirForward,     // 3
	)
	m := DetectMotion(Motion236, frames, 3, DefaultMotionWindowFrames)
	if m == nil {
		t.Fatal("expected a 236 match")
	}
	if m.EndFrame != 3 {
		t.Fatalf("expected end frame 3, got %d", m.EndFrame)
	}
}

func TestDetectMotionReversedIsNone(t *testing.T) {
	// 632, the reverse of 236, must not match 236.
	frames := framesFromDirs(
		constants.DirForward,
		constants.DirDownForward,
		constants.DirDown,
	)
	m := DetectMotion(Motion236, frames, 2, DefaultMotionWindowFrames)
	if m != nil {
		t.Fatalf("expected no 236 match for reversed sequence, got %+v", m)
	}
}

func TestDetectMotionSkipsNeutralAndRepeats(t *testing.T) {
	frames := framesFromDirs(
		constants.DirDown,        // 0
		constants.DirDown,        // 1 (repeat, skipped)
		constants.DirNeutral,     // 2 (skipped while walking)
		constants.DirDownForward, // 3
		constants.DirForward,     // 4
	)
	m := DetectMotion(Motion236, frames, 4, DefaultMotionWindowFrames)
	if m == nil {
		t.Fatal("expected 236 to tolerate neutral/repeat frames while walking")
	}
	if m.EndFrame != 4 {
		t.Fatalf("expected end frame 4, got %d", m.EndFrame)
	}
}

func TestDetectMotion22RequiresDistinctPress(t *testing.T) {
	// A single held "down" run compresses to one event: no match.
	hold := framesFromDirs(constants.DirDown, constants.DirDown, constants.DirDown)
	if m := DetectMotion(Motion22, hold, 2, DefaultMotionWindowFrames); m != nil {
		t.Fatalf("expected no 22 match for a continuous hold, got %+v", m)
	}

	// Two distinct down events separated by a different one: matches.
	tap := framesFromDirs(constants.DirDown, constants.DirNeutral, constants.DirDown)
	m := DetectMotion(Motion22, tap, 2, DefaultMotionWindowFrames)
	if m == nil {
		t.Fatal("expected 22 to match a real re-press")
	}
	if m.EndFrame != 2 {
		t.Fatalf("expected end frame 2, got %d", m.EndFrame)
	}
}

func TestDetectMotionLatestMatchWins(t *testing.T) {
	// Two 236 windows back to back; DetectMotion should return the later one.
	frames := framesFromDirs(
		constants.DirDown, constants.DirDownForward, constants.DirForward, // ends at 2
		constants.DirNeutral,
		constants.DirDown, constants.DirDownForward, constants.DirForward, // ends at 6
	)
	m := DetectMotion(Motion236, frames, 6, DefaultMotionWindowFrames)
	if m == nil || m.EndFrame != 6 {
		t.Fatalf("expected the latest match (end frame 6), got %+v", m)
	}
}

func TestDetectMotionBoundedByWindow(t *testing.T) {
	frames := framesFromDirs(
		constants.DirDown, constants.DirDownForward, constants.DirForward, // frames 0-2
	)
	// A 1-frame window ending at frame 2 keeps only the final direction: the
	// rest of the motion falls outside it.
	if m := DetectMotion(Motion236, frames, 2, 1); m != nil {
		t.Fatalf("expected no match once the pattern falls outside a 1-frame window, got %+v", m)
	}
}
