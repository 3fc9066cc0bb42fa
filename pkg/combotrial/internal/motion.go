package internal

import "github.com/kaijuforge/combotrial/pkg/combotrial/constants"

// MotionCode is one of the four recognized directional commands (§3).
type MotionCode int

const (
	Motion236 MotionCode = 236 // quarter-circle forward
	Motion214 MotionCode = 214 // quarter-circle back
	Motion623 MotionCode = 623 // dragon punch
	Motion22  MotionCode = 22  // double-tap down
)

// DefaultMotionWindowFrames is the default search window, §4.5 step 1.
const DefaultMotionWindowFrames = 20

var motionPatterns = map[MotionCode][]constants.Direction{
	Motion236: {constants.DirDown, constants.DirDownForward, constants.DirForward},
	Motion214: {constants.DirDown, constants.DirDownBack, constants.DirBack},
	Motion623: {constants.DirForward, constants.DirDown, constants.DirDownForward},
}

// MotionMatch is a detected motion within the searched history window.
type MotionMatch struct {
	StartFrame uint32
	EndFrame   uint32
}

type directionEvent struct {
	Frame uint32
	Dir   constants.Direction
}

// DetectMotion searches frames (ascending, already bounded to the engine's
// retained window) for the latest occurrence of code ending at or before
// currentFrame, within the last maxWindowFrames frames (§4.5). Returns nil
// if no match is found. A maxWindowFrames <= 0 uses DefaultMotionWindowFrames.
func DetectMotion(code MotionCode, frames []InputFrame, currentFrame uint32, maxWindowFrames int) *MotionMatch {
	if maxWindowFrames <= 0 {
		maxWindowFrames = DefaultMotionWindowFrames
	}

	lowBound := int64(currentFrame) - int64(maxWindowFrames) + 1
	var windowed []InputFrame
	for _, f := range frames {
		if int64(f.Frame) >= lowBound && f.Frame <= currentFrame {
			windowed = append(windowed, f)
		}
	}
	if len(windowed) == 0 {
		return nil
	}

	events := compressDirectionEvents(windowed)

	if code == Motion22 {
		return detectDoubleTapDown(events)
	}

	pattern, ok := motionPatterns[code]
	if !ok || len(pattern) == 0 {
		return nil
	}
	return detectSequence(pattern, events)
}

// compressDirectionEvents collapses consecutive frames with an unchanged
// direction into a single event recording the frame on which the
// direction changed (or the very first frame in the window). Neutral is
// kept as its own event; it is only skipped later, while walking a
// candidate match, not during this compression step.
func compressDirectionEvents(frames []InputFrame) []directionEvent {
	var events []directionEvent
	for i, f := range frames {
		if i == 0 || f.Direction != frames[i-1].Direction {
			events = append(events, directionEvent{Frame: f.Frame, Dir: f.Direction})
		}
	}
	return events
}

func detectSequence(pattern []constants.Direction, events []directionEvent) *MotionMatch {
	var best *MotionMatch

	for i, start := range events {
		if start.Dir != pattern[0] {
			continue
		}

		patternIdx := 1
		lastDir := start.Dir
		endFrame := start.Frame
		matched := patternIdx == len(pattern)

		for _, e := range events[i+1:] {
			if matched {
				break
			}
			switch {
			case e.Dir == constants.DirNeutral:
				continue
			case e.Dir == lastDir:
				continue
			case e.Dir == pattern[patternIdx]:
				lastDir = e.Dir
				endFrame = e.Frame
				patternIdx++
				if patternIdx == len(pattern) {
					matched = true
				}
			default:
				patternIdx = -1 // invalidate; stop walking this candidate
			}
			if patternIdx < 0 {
				break
			}
		}

		if matched {
			m := MotionMatch{StartFrame: start.Frame, EndFrame: endFrame}
			if best == nil || m.EndFrame > best.EndFrame {
				best = &m
			}
		}
	}

	return best
}

// detectDoubleTapDown implements the 22 pattern: two distinct "down"
// events separated by at least one different event, i.e. a real re-press
// rather than a continuous hold (which compresses to a single event).
func detectDoubleTapDown(events []directionEvent) *MotionMatch {
	var downs []directionEvent
	for _, e := range events {
		if e.Dir == constants.DirDown {
			downs = append(downs, e)
		}
	}
	if len(downs) < 2 {
		return nil
	}
	last := downs[len(downs)-1]
	prev := downs[len(downs)-2]
	return &MotionMatch{StartFrame: prev.Frame, EndFrame: last.Frame}
}
