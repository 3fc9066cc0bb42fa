package constants

// CanonicalButton is one of the six attack buttons. The iota order here is
// the canonical enumeration order used for sorting held/pressed/released
// sets throughout the pipeline.
type CanonicalButton int

const (
	LP CanonicalButton = iota
	MP
	HP
	LK
	MK
	HK
)

// CanonicalButtons lists all six in enumeration order.
var CanonicalButtons = []CanonicalButton{LP, MP, HP, LK, MK, HK}

func (b CanonicalButton) String() string {
	switch b {
	case LP:
		return "LP"
	case MP:
		return "MP"
	case HP:
		return "HP"
	case LK:
		return "LK"
	case MK:
		return "MK"
	case HK:
		return "HK"
	default:
		return "?"
	}
}

// PhysicalButton is one of the 16 controller buttons, independent of attack
// semantics.
type PhysicalButton int

const (
	PhysFaceA PhysicalButton = iota
	PhysFaceB
	PhysFaceX
	PhysFaceY
	PhysL1
	PhysR1
	PhysL2
	PhysR2
	PhysL3
	PhysR3
	PhysDPadUp
	PhysDPadDown
	PhysDPadLeft
	PhysDPadRight
	PhysSelect
	PhysStart
)

// PhysicalButtons lists all 16 in enumeration order.
var PhysicalButtons = []PhysicalButton{
	PhysFaceA, PhysFaceB, PhysFaceX, PhysFaceY,
	PhysL1, PhysR1, PhysL2, PhysR2,
	PhysL3, PhysR3,
	PhysDPadUp, PhysDPadDown, PhysDPadLeft, PhysDPadRight,
	PhysSelect, PhysStart,
}

func (b PhysicalButton) String() string {
	names := map[PhysicalButton]string{
		PhysFaceA: "FaceA", PhysFaceB: "FaceB", PhysFaceX: "FaceX", PhysFaceY: "FaceY",
		PhysL1: "L1", PhysR1: "R1", PhysL2: "L2", PhysR2: "R2",
		PhysL3: "L3", PhysR3: "R3",
		PhysDPadUp: "DPadUp", PhysDPadDown: "DPadDown", PhysDPadLeft: "DPadLeft", PhysDPadRight: "DPadRight",
		PhysSelect: "Select", PhysStart: "Start",
	}
	if n, ok := names[b]; ok {
		return n
	}
	return "?"
}

// AttackAction is one of the 17 identifiers a physical button can be bound
// to: the six single attack buttons plus the fixed multi-button
// combinations recognized by the system.
type AttackAction int

const (
	ActionLP AttackAction = iota
	ActionMP
	ActionHP
	ActionLK
	ActionMK
	ActionHK

	ActionLP_MP
	ActionMP_HP
	ActionLP_HP

	ActionLK_MK
	ActionMK_HK
	ActionLK_HK

	ActionLP_LK
	ActionMP_MK
	ActionHP_HK

	ActionLP_MP_HP
	ActionLK_MK_HK
)

// AttackActions lists all 17 in enumeration order.
var AttackActions = []AttackAction{
	ActionLP, ActionMP, ActionHP, ActionLK, ActionMK, ActionHK,
	ActionLP_MP, ActionMP_HP, ActionLP_HP,
	ActionLK_MK, ActionMK_HK, ActionLK_HK,
	ActionLP_LK, ActionMP_MK, ActionHP_HK,
	ActionLP_MP_HP, ActionLK_MK_HK,
}

// actionMembers is the fixed table resolving each action to the canonical
// buttons it expands to. This is the only place multi-button aliases are
// defined; §4.2 is the only consumer that should read it directly.
var actionMembers = map[AttackAction][]CanonicalButton{
	ActionLP: {LP}, ActionMP: {MP}, ActionHP: {HP},
	ActionLK: {LK}, ActionMK: {MK}, ActionHK: {HK},

	ActionLP_MP: {LP, MP},
	ActionMP_HP: {MP, HP},
	ActionLP_HP: {LP, HP},

	ActionLK_MK: {LK, MK},
	ActionMK_HK: {MK, HK},
	ActionLK_HK: {LK, HK},

	ActionLP_LK: {LP, LK},
	ActionMP_MK: {MP, MK},
	ActionHP_HK: {HP, HK},

	ActionLP_MP_HP: {LP, MP, HP},
	ActionLK_MK_HK: {LK, MK, HK},
}

// Members returns the canonical buttons this action expands to.
func (a AttackAction) Members() []CanonicalButton {
	return actionMembers[a]
}

func (a AttackAction) String() string {
	names := map[AttackAction]string{
		ActionLP: "LP", ActionMP: "MP", ActionHP: "HP",
		ActionLK: "LK", ActionMK: "MK", ActionHK: "HK",
		ActionLP_MP: "LP+MP", ActionMP_HP: "MP+HP", ActionLP_HP: "LP+HP",
		ActionLK_MK: "LK+MK", ActionMK_HK: "MK+HK", ActionLK_HK: "LK+HK",
		ActionLP_LK: "LP+LK", ActionMP_MK: "MP+MK", ActionHP_HK: "HP+HK",
		ActionLP_MP_HP: "LP+MP+HP", ActionLK_MK_HK: "LK+MK+HK",
	}
	if n, ok := names[a]; ok {
		return n
	}
	return "?"
}
