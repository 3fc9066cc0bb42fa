// Package config loads the session-level tunables that sit outside any one
// trial file: the timeline history capacity, the motion detector's window,
// the motion-to-button gap, Stepper's fallback timeout, the reset-combo
// binding, and the button bindings themselves. Backed by TOML, the same
// format the teacher uses for its message bundles, generalized here to
// engine configuration.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/kaijuforge/combotrial/pkg/combotrial/constants"
	"github.com/kaijuforge/combotrial/pkg/combotrial/internal"
)

// EngineDefaults holds the tunables the trial compiler accepts as
// session-level options. A zero value for any field falls back to the
// built-in default, never to zero itself. The compiler consumes these via
// trial.CompileOptions; the CLI's run command is the path that loads them.
type EngineDefaults struct {
	MotionMaxWindowFrames       int
	MotionButtonGapFrames       int
	TimelineHistoryCapFrames    int
	StepperDefaultTimeoutFrames int
}

// Defaults returns the constants named in spec.md, used whenever a config
// file is absent or leaves a field unset.
func Defaults() EngineDefaults {
	return EngineDefaults{
		MotionMaxWindowFrames:       20,
		MotionButtonGapFrames:       12,
		TimelineHistoryCapFrames:    240,
		StepperDefaultTimeoutFrames: 60,
	}
}

// engineDefaultsFile is the TOML wire shape for EngineDefaults.
type engineDefaultsFile struct {
	MotionMaxWindowFrames       int `toml:"motion_max_window_frames"`
	MotionButtonGapFrames       int `toml:"motion_button_gap_frames"`
	TimelineHistoryCapFrames    int `toml:"timeline_history_cap_frames"`
	StepperDefaultTimeoutFrames int `toml:"stepper_default_timeout_frames"`
}

// LoadEngineDefaults reads path and overlays any set fields onto the
// built-in defaults. A missing file is not an error: it simply yields
// Defaults().
func LoadEngineDefaults(path string) (EngineDefaults, error) {
	out := Defaults()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return out, nil
	}

	var f engineDefaultsFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return EngineDefaults{}, fmt.Errorf("config: decode %s: %w", path, err)
	}

	if f.MotionMaxWindowFrames > 0 {
		out.MotionMaxWindowFrames = f.MotionMaxWindowFrames
	}
	if f.MotionButtonGapFrames > 0 {
		out.MotionButtonGapFrames = f.MotionButtonGapFrames
	}
	if f.TimelineHistoryCapFrames > 0 {
		out.TimelineHistoryCapFrames = f.TimelineHistoryCapFrames
	}
	if f.StepperDefaultTimeoutFrames > 0 {
		out.StepperDefaultTimeoutFrames = f.StepperDefaultTimeoutFrames
	}
	return out, nil
}

// ResetComboConfig is the file-backed form of the reset combo chord (§4.11),
// so a host need not hardcode it.
type ResetComboConfig struct {
	Combo []constants.PhysicalButton
}

type resetComboFile struct {
	Combo []string `toml:"combo"`
}

// LoadResetCombo reads path and resolves the named physical buttons into a
// ResetComboConfig. A missing file yields an empty (never-triggering)
// combo, matching ResetComboDetector's own empty-combo behavior.
func LoadResetCombo(path string) (ResetComboConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return ResetComboConfig{}, nil
	}

	var f resetComboFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return ResetComboConfig{}, fmt.Errorf("config: decode %s: %w", path, err)
	}

	combo := make([]constants.PhysicalButton, 0, len(f.Combo))
	for _, name := range f.Combo {
		btn, ok := physicalButtonByName(name)
		if !ok {
			return ResetComboConfig{}, fmt.Errorf("config: %s: unknown physical button %q", path, name)
		}
		combo = append(combo, btn)
	}
	return ResetComboConfig{Combo: combo}, nil
}

func physicalButtonByName(name string) (constants.PhysicalButton, bool) {
	for _, b := range constants.PhysicalButtons {
		if b.String() == name {
			return b, true
		}
	}
	return 0, false
}

// bindingsFile is the TOML wire DTO for internal.ButtonBindings, mirroring
// the teacher's Mapping/InputMapping split: a plain-string-keyed export
// format that converts to/from the in-memory type rather than serializing
// it directly.
type bindingsFile struct {
	Bindings map[string]string `toml:"bindings"`
}

// SaveBindings writes b to path as TOML, one action-name to physical-button-
// name entry per bound action.
func SaveBindings(path string, b internal.ButtonBindings) error {
	f := bindingsFile{Bindings: make(map[string]string)}
	for _, action := range b.Actions() {
		phys, ok := b.Lookup(action)
		if !ok {
			continue
		}
		f.Bindings[action.String()] = phys.String()
	}

	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create %s: %w", path, err)
	}
	defer fh.Close()

	if err := toml.NewEncoder(fh).Encode(f); err != nil {
		return fmt.Errorf("config: encode %s: %w", path, err)
	}
	return nil
}

// LoadBindings reads path and resolves it into a ButtonBindings, starting
// from internal.DefaultBindings() and overlaying whatever the file sets. A
// missing file yields the defaults unchanged.
func LoadBindings(path string) (internal.ButtonBindings, error) {
	out := internal.DefaultBindings()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return out, nil
	}

	var f bindingsFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return internal.ButtonBindings{}, fmt.Errorf("config: decode %s: %w", path, err)
	}

	for actionName, physName := range f.Bindings {
		action, ok := attackActionByName(actionName)
		if !ok {
			return internal.ButtonBindings{}, fmt.Errorf("config: %s: unknown action %q", path, actionName)
		}
		phys, ok := physicalButtonByName(physName)
		if !ok {
			return internal.ButtonBindings{}, fmt.Errorf("config: %s: unknown physical button %q", path, physName)
		}
		out = internal.SetBinding(out, action, &phys)
	}
	return out, nil
}

func attackActionByName(name string) (constants.AttackAction, bool) {
	for _, a := range constants.AttackActions {
		if a.String() == name {
			return a, true
		}
	}
	return 0, false
}
