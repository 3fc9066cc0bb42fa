// Package evdevpad implements driver.InputDriver over github.com/holoplot/
// go-evdev, reading a Linux evdev device node directly — for headless or
// embedded hosts without an SDL video subsystem, confirming the driver
// contract (§6) is implementation-agnostic rather than tied to sdlpad.
package evdevpad

import (
	"fmt"

	evdev "github.com/holoplot/go-evdev"

	"github.com/kaijuforge/combotrial/pkg/combotrial"
	"github.com/kaijuforge/combotrial/pkg/combotrial/constants"
)

// buttonMap is the fixed evdev BTN_* code to PhysicalButton table, the
// standard gamepad layout evdev reports for SOUTH/EAST/NORTH/WEST and the
// shoulder/stick/menu buttons.
var buttonMap = map[evdev.EvCode]constants.PhysicalButton{
	evdev.BTN_SOUTH:  constants.PhysFaceA,
	evdev.BTN_EAST:   constants.PhysFaceB,
	evdev.BTN_WEST:   constants.PhysFaceX,
	evdev.BTN_NORTH:  constants.PhysFaceY,
	evdev.BTN_TL:     constants.PhysL1,
	evdev.BTN_TR:     constants.PhysR1,
	evdev.BTN_TL2:    constants.PhysL2,
	evdev.BTN_TR2:    constants.PhysR2,
	evdev.BTN_THUMBL: constants.PhysL3,
	evdev.BTN_THUMBR: constants.PhysR3,
	evdev.BTN_SELECT: constants.PhysSelect,
	evdev.BTN_START:  constants.PhysStart,
}

// hatAxes holds the ABS_HAT0X/ABS_HAT0Y values last seen, so the D-pad
// direction can be derived from whichever axes most recently changed.
type hatAxes struct {
	x, y int32
}

// Driver reads one evdev device node, tracking held BTN_* state and D-pad
// hat axes across calls to Poll.
type Driver struct {
	path   string
	device *evdev.InputDevice

	held map[constants.PhysicalButton]bool
	hat  hatAxes
}

// New returns a Driver for the given device node (e.g. "/dev/input/event5").
func New(path string) *Driver {
	return &Driver{path: path, held: make(map[constants.PhysicalButton]bool)}
}

// Open opens the device node.
func (d *Driver) Open() error {
	if d.device != nil {
		return nil
	}
	dev, err := evdev.Open(d.path)
	if err != nil {
		return fmt.Errorf("evdevpad: open %s: %w", d.path, err)
	}
	d.device = dev
	return nil
}

// Poll drains every evdev event queued since the last call, updating held
// button and hat-axis state, and returns one InputSnapshot reflecting the
// result. Reading stops at the first error (including EAGAIN on a
// nonblocking device), which is treated as "no more events pending" rather
// than a failure, since a controller idling between inputs is the common
// case, not an error condition.
func (d *Driver) Poll(frame uint32) (combotrial.InputSnapshot, error) {
	if d.device == nil {
		return combotrial.InputSnapshot{}, fmt.Errorf("evdevpad: driver not open")
	}

	for {
		ev, err := d.device.ReadOne()
		if err != nil {
			// Treat any read error (including EAGAIN on a nonblocking
			// device) as "nothing queued" rather than a failure.
			break
		}
		d.applyEvent(ev)
	}

	held := make([]constants.PhysicalButton, 0, len(d.held))
	for btn, down := range d.held {
		if down {
			held = append(held, btn)
		}
	}

	return combotrial.InputSnapshot{
		Frame:        frame,
		Direction:    directionFromHat(d.hat),
		HeldPhysical: held,
	}, nil
}

func (d *Driver) applyEvent(ev *evdev.InputEvent) {
	switch ev.Type {
	case evdev.EV_KEY:
		if phys, ok := buttonMap[ev.Code]; ok {
			d.held[phys] = ev.Value != 0
		}
	case evdev.EV_ABS:
		switch ev.Code {
		case evdev.ABS_HAT0X:
			d.hat.x = ev.Value
		case evdev.ABS_HAT0Y:
			d.hat.y = ev.Value
		}
	}
}

// Close releases the device handle.
func (d *Driver) Close() error {
	if d.device == nil {
		return nil
	}
	err := d.device.Close()
	d.device = nil
	return err
}

func directionFromHat(h hatAxes) constants.Direction {
	switch {
	case h.y < 0 && h.x < 0:
		return constants.DirUpBack
	case h.y < 0 && h.x > 0:
		return constants.DirUpForward
	case h.y > 0 && h.x < 0:
		return constants.DirDownBack
	case h.y > 0 && h.x > 0:
		return constants.DirDownForward
	case h.y < 0:
		return constants.DirUp
	case h.y > 0:
		return constants.DirDown
	case h.x < 0:
		return constants.DirBack
	case h.x > 0:
		return constants.DirForward
	default:
		return constants.DirNeutral
	}
}
