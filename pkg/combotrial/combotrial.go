// Package combotrial is the public facade over the internal input pipeline:
// frame building, button mapping, display history, motion detection, step
// matching, and the reset combo detector. Code outside pkg/combotrial —
// drivers, the CLI harness, embedding hosts — imports this package (plus
// constants, trial, and session) and never the internal package directly.
package combotrial

import (
	"log/slog"

	"github.com/kaijuforge/combotrial/pkg/combotrial/constants"
	"github.com/kaijuforge/combotrial/pkg/combotrial/internal"
)

// InputSnapshot is the per-frame input delivered by an external driver,
// already normalized per the driver contract.
type InputSnapshot = internal.InputSnapshot

// InputFrame is the immutable output of the frame builder: held sets plus
// pressed/released edges, sorted by enumeration order.
type InputFrame = internal.InputFrame

// BuildFrame differentiates a new InputSnapshot against the previous
// InputFrame (nil on the very first frame) to produce the next InputFrame.
func BuildFrame(snap InputSnapshot, prev *InputFrame) (InputFrame, error) {
	return internal.BuildFrame(snap, prev)
}

// MirrorFrame rewrites the frame's direction for mirrored-side play.
func MirrorFrame(f InputFrame) InputFrame {
	return internal.MirrorFrame(f)
}

// ButtonBindings maps attack actions to physical buttons.
type ButtonBindings = internal.ButtonBindings

// DefaultBindings returns the initial mapping used when no user preference
// exists.
func DefaultBindings() ButtonBindings {
	return internal.DefaultBindings()
}

// SetBinding returns a new ButtonBindings with action bound to physical
// (or unbound when physical is nil), clearing any other action that owned
// the same physical button.
func SetBinding(b ButtonBindings, action constants.AttackAction, physical *constants.PhysicalButton) ButtonBindings {
	return internal.SetBinding(b, action, physical)
}

// MapPhysicalToCanonical expands a held physical button set into a sorted
// canonical button set through the given bindings.
func MapPhysicalToCanonical(heldPhysical []constants.PhysicalButton, b ButtonBindings) []constants.CanonicalButton {
	return internal.MapPhysicalToCanonical(heldPhysical, b)
}

// DisplayHistory run-length-compresses the frame stream for presentation.
type DisplayHistory = internal.DisplayHistory

// HistoryEntry is one run of frames sharing (direction, held set).
type HistoryEntry = internal.HistoryEntry

// NewDisplayHistory constructs an empty history bounded at maxEntries; a
// non-positive value uses the built-in default cap.
func NewDisplayHistory(maxEntries int) *DisplayHistory {
	return internal.NewDisplayHistory(maxEntries)
}

// MotionCode is one of the recognized directional commands.
type MotionCode = internal.MotionCode

const (
	Motion236 = internal.Motion236
	Motion214 = internal.Motion214
	Motion623 = internal.Motion623
	Motion22  = internal.Motion22
)

// MotionMatch is a detected motion within the searched history window.
type MotionMatch = internal.MotionMatch

// DetectMotion searches the frame window for the latest occurrence of code
// ending at or before currentFrame.
func DetectMotion(code MotionCode, frames []InputFrame, currentFrame uint32, maxWindowFrames int) *MotionMatch {
	return internal.DetectMotion(code, frames, currentFrame, maxWindowFrames)
}

// StepExpectation describes what a single trial step requires of the input
// stream.
type StepExpectation = internal.StepExpectation

// MatchResult is the outcome of a successful ResolveStep call.
type MatchResult = internal.MatchResult

// ResolveStep computes the earliest input frame at which exp becomes true
// as of currentFrame, or nil when it is not (yet) satisfied.
func ResolveStep(exp StepExpectation, frames []InputFrame, currentFrame uint32) *MatchResult {
	return internal.ResolveStep(exp, frames, currentFrame)
}

// ShouldStartTrial gates the initial activation of a trial on the first
// frame showing genuine input activity.
func ShouldStartTrial(firstStep StepExpectation, frame InputFrame) bool {
	return internal.ShouldStartTrial(firstStep, frame)
}

// ResetComboDetector watches for a configured physical-button chord.
type ResetComboDetector = internal.ResetComboDetector

// NewResetComboDetector configures a detector for the given chord. An
// empty combo never triggers.
func NewResetComboDetector(combo []constants.PhysicalButton) *ResetComboDetector {
	return internal.NewResetComboDetector(combo)
}

// SetLogFilename overrides the log file name before the first logger is
// constructed.
func SetLogFilename(filename string) { internal.SetLogFilename(filename) }

// SetLogLevel sets the host-facing logger's level.
func SetLogLevel(level slog.Level) { internal.SetLogLevel(level) }

// SetEngineLogLevel sets the engine-internal logger's level.
func SetEngineLogLevel(level slog.Level) { internal.SetEngineLogLevel(level) }

// SetRawLogLevel parses a level name and applies it to the host-facing
// logger, defaulting to Info on an unrecognized value.
func SetRawLogLevel(rawLevel string) { internal.SetRawLogLevel(rawLevel) }

// CloseLogger flushes and closes the underlying log file.
func CloseLogger() { internal.CloseLogger() }
