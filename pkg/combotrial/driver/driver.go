// Package driver defines the external input driver contract (§6): the
// narrow interface a controller-acquisition backend implements to feed
// frames into a session, kept separate from any single backend so the core
// never imports SDL or evdev directly.
package driver

import "github.com/kaijuforge/combotrial/pkg/combotrial"

// InputDriver samples one physical input device (or device set) and emits
// one InputSnapshot per call to Poll. The engine performs no I/O itself;
// a host drives Poll on its own animation cadence (target 60 Hz) and feeds
// the result to session.Session.AdvanceFrame.
type InputDriver interface {
	// Open acquires whatever OS/library resources the driver needs
	// (opening a joystick, an evdev device node, an SDL subsystem). Open
	// is idempotent; calling it on an already-open driver is a no-op.
	Open() error

	// Poll samples the current input state and returns one InputSnapshot.
	// frame is supplied by the caller — the driver does not keep its own
	// frame counter, since a host may drive several sessions from one
	// polling loop with the same frame number.
	Poll(frame uint32) (combotrial.InputSnapshot, error)

	// Close releases driver resources. Safe to call multiple times.
	Close() error
}
