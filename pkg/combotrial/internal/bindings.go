package internal

import (
	"sort"

	"github.com/kaijuforge/combotrial/pkg/combotrial/constants"
)

// ButtonBindings maps an AttackAction to the PhysicalButton that triggers
// it, or to no binding at all. It is the only place multi-button aliases
// are resolved back to physical input; §4.2.
//
// Grounded on pawndev-gabagool's internal.InputMapping / DefaultInputMapping,
// generalized from per-source-device maps (keyboard/controller/joystick) to
// a single AttackAction->PhysicalButton table, since this domain's "physical
// acquisition" is already normalized upstream per §1.
type ButtonBindings struct {
	byAction map[constants.AttackAction]constants.PhysicalButton
	bound    map[constants.AttackAction]bool
}

// DefaultBindings returns the initial mapping used when no user preference
// exists. Binds the three cross-pair combos to L1, L2 and L3 as one-button
// shortcuts, matching how the teacher's DefaultInputMapping binds a
// fixed starter layout before any user customization.
func DefaultBindings() ButtonBindings {
	b := newEmptyBindings()
	b = b.withBinding(constants.ActionLP, constants.PhysFaceY)
	b = b.withBinding(constants.ActionMP, constants.PhysFaceX)
	b = b.withBinding(constants.ActionHP, constants.PhysR1)
	b = b.withBinding(constants.ActionLK, constants.PhysFaceB)
	b = b.withBinding(constants.ActionMK, constants.PhysFaceA)
	b = b.withBinding(constants.ActionHK, constants.PhysR2)
	b = b.withBinding(constants.ActionLP_LK, constants.PhysL1)
	b = b.withBinding(constants.ActionMP_MK, constants.PhysL2)
	b = b.withBinding(constants.ActionHP_HK, constants.PhysL3)
	return b
}

func newEmptyBindings() ButtonBindings {
	return ButtonBindings{
		byAction: make(map[constants.AttackAction]constants.PhysicalButton),
		bound:    make(map[constants.AttackAction]bool),
	}
}

func (b ButtonBindings) clone() ButtonBindings {
	out := newEmptyBindings()
	for k, v := range b.byAction {
		out.byAction[k] = v
	}
	for k, v := range b.bound {
		out.bound[k] = v
	}
	return out
}

func (b ButtonBindings) withBinding(action constants.AttackAction, phys constants.PhysicalButton) ButtonBindings {
	out := b.clone()
	out.byAction[action] = phys
	out.bound[action] = true
	return out
}

// SetBinding returns a new ButtonBindings with action bound to physical.
// If physical is already bound to a different action, that action's
// binding is cleared — no PhysicalButton may be owned by more than one
// AttackAction.
func SetBinding(b ButtonBindings, action constants.AttackAction, physical *constants.PhysicalButton) ButtonBindings {
	out := b.clone()

	if physical == nil {
		delete(out.byAction, action)
		delete(out.bound, action)
		return out
	}

	for a, p := range out.byAction {
		if a != action && p == *physical {
			delete(out.byAction, a)
			delete(out.bound, a)
		}
	}

	out.byAction[action] = *physical
	out.bound[action] = true
	return out
}

// Lookup returns the physical button bound to action, if any.
func (b ButtonBindings) Lookup(action constants.AttackAction) (constants.PhysicalButton, bool) {
	_, ok := b.bound[action]
	if !ok {
		return 0, false
	}
	return b.byAction[action], true
}

// Actions returns the set of currently-bound actions, in enumeration order.
func (b ButtonBindings) Actions() []constants.AttackAction {
	var out []constants.AttackAction
	for _, a := range constants.AttackActions {
		if b.bound[a] {
			out = append(out, a)
		}
	}
	return out
}

// MapPhysicalToCanonical expands the held physical button set into a
// sorted, de-duplicated canonical button set per §4.2: every bound action
// whose physical button is held contributes its member canonical buttons;
// the result is the union across all such actions.
func MapPhysicalToCanonical(heldPhysical []constants.PhysicalButton, b ButtonBindings) []constants.CanonicalButton {
	held := make(map[constants.PhysicalButton]bool, len(heldPhysical))
	for _, p := range heldPhysical {
		held[p] = true
	}

	seen := make(map[constants.CanonicalButton]bool)
	for action, phys := range b.byAction {
		if !b.bound[action] || !held[phys] {
			continue
		}
		for _, cb := range action.Members() {
			seen[cb] = true
		}
	}

	out := make([]constants.CanonicalButton, 0, len(seen))
	for cb := range seen {
		out = append(out, cb)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
