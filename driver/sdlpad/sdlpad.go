// Package sdlpad implements driver.InputDriver over go-sdl2, polling a
// single game controller's buttons, D-pad and analog triggers per frame.
// Adapted from the teacher's internal/input_processor.go event-driven
// mapper: that code translates discrete SDL events into combo-tracking
// button edges, while Poll here instead samples absolute state once per
// frame (the engine's own frame builder derives press/release edges from
// consecutive held-sets, so the driver only needs "what's down right now").
package sdlpad

import (
	"fmt"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/kaijuforge/combotrial/pkg/combotrial"
	"github.com/kaijuforge/combotrial/pkg/combotrial/constants"
)

// buttonMap is the fixed SDL game controller button to PhysicalButton
// table, mirroring the layout of the teacher's DefaultInputMapping
// ControllerButtonMap but targeting this domain's 16 physical buttons
// instead of gabagool's menu-navigation VirtualButton set.
var buttonMap = map[sdl.GameControllerButton]constants.PhysicalButton{
	sdl.CONTROLLER_BUTTON_A:             constants.PhysFaceA,
	sdl.CONTROLLER_BUTTON_B:             constants.PhysFaceB,
	sdl.CONTROLLER_BUTTON_X:             constants.PhysFaceX,
	sdl.CONTROLLER_BUTTON_Y:             constants.PhysFaceY,
	sdl.CONTROLLER_BUTTON_LEFTSHOULDER:  constants.PhysL1,
	sdl.CONTROLLER_BUTTON_RIGHTSHOULDER: constants.PhysR1,
	sdl.CONTROLLER_BUTTON_LEFTSTICK:     constants.PhysL3,
	sdl.CONTROLLER_BUTTON_RIGHTSTICK:    constants.PhysR3,
	sdl.CONTROLLER_BUTTON_BACK:          constants.PhysSelect,
	sdl.CONTROLLER_BUTTON_START:         constants.PhysStart,
	sdl.CONTROLLER_BUTTON_DPAD_UP:       constants.PhysDPadUp,
	sdl.CONTROLLER_BUTTON_DPAD_DOWN:     constants.PhysDPadDown,
	sdl.CONTROLLER_BUTTON_DPAD_LEFT:     constants.PhysDPadLeft,
	sdl.CONTROLLER_BUTTON_DPAD_RIGHT:    constants.PhysDPadRight,
}

// axisTriggerMap maps the two analog triggers to the two physical buttons
// the D-pad table above left unassigned.
var axisTriggerMap = map[sdl.GameControllerAxis]constants.PhysicalButton{
	sdl.CONTROLLER_AXIS_TRIGGERLEFT:  constants.PhysL2,
	sdl.CONTROLLER_AXIS_TRIGGERRIGHT: constants.PhysR2,
}

const triggerThreshold = 8000

// Driver polls one SDL game controller by joystick index.
type Driver struct {
	index      int
	controller *sdl.GameController
}

// New returns a Driver for the controller at the given SDL joystick index
// (0 for the first connected controller).
func New(index int) *Driver {
	return &Driver{index: index}
}

// Open initializes the SDL game controller subsystem and opens the
// configured controller.
func (d *Driver) Open() error {
	if d.controller != nil {
		return nil
	}
	if err := sdl.InitSubSystem(sdl.INIT_GAMECONTROLLER); err != nil {
		return fmt.Errorf("sdlpad: init subsystem: %w", err)
	}
	if !sdl.IsGameController(d.index) {
		return fmt.Errorf("sdlpad: joystick %d is not a game controller", d.index)
	}
	c := sdl.GameControllerOpen(d.index)
	if c == nil {
		return fmt.Errorf("sdlpad: open controller %d failed", d.index)
	}
	d.controller = c
	return nil
}

// Poll samples the controller's current button and D-pad state and
// derives a numpad direction from whichever D-pad buttons are held.
func (d *Driver) Poll(frame uint32) (combotrial.InputSnapshot, error) {
	if d.controller == nil {
		return combotrial.InputSnapshot{}, fmt.Errorf("sdlpad: driver not open")
	}
	sdl.GameControllerUpdate()

	var held []constants.PhysicalButton
	for sdlBtn, phys := range buttonMap {
		if d.controller.Button(sdlBtn) > 0 {
			held = append(held, phys)
		}
	}
	for axis, phys := range axisTriggerMap {
		if d.controller.Axis(axis) > triggerThreshold {
			held = append(held, phys)
		}
	}

	dir := directionFromHeld(held)

	return combotrial.InputSnapshot{
		Frame:        frame,
		Direction:    dir,
		HeldPhysical: held,
	}, nil
}

// Close releases the controller handle.
func (d *Driver) Close() error {
	if d.controller == nil {
		return nil
	}
	d.controller.Close()
	d.controller = nil
	return nil
}

// directionFromHeld reduces whichever D-pad directions are held into a
// single numpad digit, favoring diagonals when two adjacent cardinals are
// both held.
func directionFromHeld(held []constants.PhysicalButton) constants.Direction {
	has := func(p constants.PhysicalButton) bool {
		for _, h := range held {
			if h == p {
				return true
			}
		}
		return false
	}

	up, down := has(constants.PhysDPadUp), has(constants.PhysDPadDown)
	left, right := has(constants.PhysDPadLeft), has(constants.PhysDPadRight)

	switch {
	case up && left:
		return constants.DirUpBack
	case up && right:
		return constants.DirUpForward
	case down && left:
		return constants.DirDownBack
	case down && right:
		return constants.DirDownForward
	case up:
		return constants.DirUp
	case down:
		return constants.DirDown
	case left:
		return constants.DirBack
	case right:
		return constants.DirForward
	default:
		return constants.DirNeutral
	}
}
