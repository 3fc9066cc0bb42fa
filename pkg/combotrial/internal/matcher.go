package internal

import "github.com/kaijuforge/combotrial/pkg/combotrial/constants"

// MotionToButtonGapFrames is the maximum number of frames a motion's end
// may precede the button-resolved frame and still count as the same input
// (§4.6). The reference behavior accepts a gap of exactly this many frames.
const MotionToButtonGapFrames = 12

// StepExpectation describes what a single trial step requires of the
// input stream, per §3. The facets are independent and optional; a step
// may combine a direction or motion with a button requirement.
type StepExpectation struct {
	Direction                *constants.Direction
	Motion                   *MotionCode
	Buttons                  []constants.CanonicalButton
	AnyTwoButtonsFrom        []constants.CanonicalButton
	SimultaneousWithinFrames int
	MaxMotionWindowFrames    int
	MotionButtonGapFrames    int
}

// MatchResult is the outcome of a successful ResolveStep call.
type MatchResult struct {
	InputFrame            uint32
	MotionCompletionFrame *uint32
}

// ResolveStep computes the earliest input frame at which exp becomes true
// as of currentFrame, per §4.6. frames must be ordered ascending and
// contain an entry for currentFrame. Returns nil if the expectation is not
// (yet) satisfied.
func ResolveStep(exp StepExpectation, frames []InputFrame, currentFrame uint32) *MatchResult {
	cur := frameAt(frames, currentFrame)
	if cur == nil {
		return nil
	}

	if exp.Direction != nil && cur.Direction != *exp.Direction {
		return nil
	}

	hasButtons := len(exp.Buttons) > 0
	hasAnyTwo := len(exp.AnyTwoButtonsFrom) > 0

	var buttonFrame *uint32
	if hasButtons {
		f, ok := resolveButtons(exp.Buttons, exp.SimultaneousWithinFrames, frames, currentFrame)
		if !ok {
			return nil
		}
		buttonFrame = &f
	} else if hasAnyTwo {
		f, ok := resolveAnyTwo(exp.AnyTwoButtonsFrom, exp.SimultaneousWithinFrames, frames, currentFrame)
		if !ok {
			return nil
		}
		buttonFrame = &f
	}

	if exp.Motion != nil {
		deadline := currentFrame
		if buttonFrame != nil {
			deadline = *buttonFrame
		}
		match := DetectMotion(*exp.Motion, frames, deadline, exp.MaxMotionWindowFrames)
		if match == nil {
			return nil
		}
		gap := int64(MotionToButtonGapFrames)
		if exp.MotionButtonGapFrames > 0 {
			gap = int64(exp.MotionButtonGapFrames)
		}
		if int64(deadline)-int64(match.EndFrame) > gap {
			return nil
		}
		if buttonFrame == nil {
			end := match.EndFrame
			return &MatchResult{InputFrame: end, MotionCompletionFrame: &end}
		}
		end := match.EndFrame
		return &MatchResult{InputFrame: *buttonFrame, MotionCompletionFrame: &end}
	}

	if buttonFrame != nil {
		return &MatchResult{InputFrame: *buttonFrame}
	}

	return &MatchResult{InputFrame: currentFrame}
}

func frameAt(frames []InputFrame, frame uint32) *InputFrame {
	for i := len(frames) - 1; i >= 0; i-- {
		if frames[i].Frame == frame {
			return &frames[i]
		}
		if frames[i].Frame < frame {
			break
		}
	}
	return nil
}

func resolveButtons(buttons []constants.CanonicalButton, tolerance int, frames []InputFrame, currentFrame uint32) (uint32, bool) {
	low := int64(currentFrame) - int64(tolerance)

	var minF, maxF int64 = -1, -1
	for _, b := range buttons {
		pf, ok := latestPress(b, frames, low, int64(currentFrame))
		if !ok {
			return 0, false
		}
		if minF == -1 || int64(pf) < minF {
			minF = int64(pf)
		}
		if maxF == -1 || int64(pf) > maxF {
			maxF = int64(pf)
		}
	}

	if maxF-minF > int64(tolerance) {
		return 0, false
	}
	return uint32(maxF), true
}

// latestPress finds the latest frame in [low, high] on which button has a
// pressed edge.
func latestPress(button constants.CanonicalButton, frames []InputFrame, low, high int64) (uint32, bool) {
	for i := len(frames) - 1; i >= 0; i-- {
		f := frames[i]
		if int64(f.Frame) > high {
			continue
		}
		if int64(f.Frame) < low {
			break
		}
		if f.PressedCanonicalHas(button) {
			return f.Frame, true
		}
	}
	return 0, false
}

type pressEvent struct {
	Button constants.CanonicalButton
	Frame  uint32
}

func resolveAnyTwo(allowed []constants.CanonicalButton, tolerance int, frames []InputFrame, currentFrame uint32) (uint32, bool) {
	low := int64(currentFrame) - int64(tolerance)

	var events []pressEvent
	for _, f := range frames {
		if int64(f.Frame) < low || int64(f.Frame) > int64(currentFrame) {
			continue
		}
		for _, b := range allowed {
			if f.PressedCanonicalHas(b) {
				events = append(events, pressEvent{Button: b, Frame: f.Frame})
			}
		}
	}

	var bestFrame int64 = -1
	for i := 0; i < len(events); i++ {
		for j := i + 1; j < len(events); j++ {
			if events[i].Button == events[j].Button {
				continue
			}
			dist := int64(events[j].Frame) - int64(events[i].Frame)
			if dist < 0 {
				dist = -dist
			}
			if dist > int64(tolerance) {
				continue
			}
			resolved := int64(events[i].Frame)
			if int64(events[j].Frame) > resolved {
				resolved = int64(events[j].Frame)
			}
			if resolved > bestFrame {
				bestFrame = resolved
			}
		}
	}

	if bestFrame == -1 {
		return 0, false
	}
	return uint32(bestFrame), true
}

// ShouldStartTrial gates the initial activation per §4.6's start policy:
// the trial starts on the first frame that shows input activity (a
// non-neutral direction, or any held button), and, if the first step
// requires attack buttons and its direction is a pre-hold direction (1, 2,
// or 3), only on a frame with at least one pressed edge — so holding a
// crouch block from before the session began does not spuriously start it.
func ShouldStartTrial(firstStep StepExpectation, frame InputFrame) bool {
	active := frame.Direction != constants.DirNeutral || len(frame.HeldCanonical) > 0 || len(frame.HeldPhysical) > 0
	if !active {
		return false
	}

	requiresButtons := len(firstStep.Buttons) > 0 || len(firstStep.AnyTwoButtonsFrom) > 0
	isPreHoldDirection := firstStep.Direction != nil &&
		(*firstStep.Direction == constants.DirDownBack || *firstStep.Direction == constants.DirDown || *firstStep.Direction == constants.DirDownForward)

	if requiresButtons && isPreHoldDirection {
		return len(frame.PressedCanonical) > 0
	}
	return true
}
