package trial

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/kaijuforge/combotrial/pkg/combotrial/constants"
	"github.com/kaijuforge/combotrial/pkg/combotrial/i18n"
	"github.com/kaijuforge/combotrial/pkg/combotrial/internal"
	"github.com/kaijuforge/combotrial/pkg/combotrial/movedb"
)

// CompileError is a single validation failure from the compiler, §7.
type CompileError struct {
	Field  string
	Reason string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// CompileErrors aggregates every validation failure found while compiling
// a trial — the compiler reports everything wrong at once rather than
// stopping at the first problem, §10.2.
type CompileErrors []*CompileError

func (e CompileErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// WindowOverrideFile is the optional inline {min,max} window on a step.
type WindowOverrideFile struct {
	Min *int `json:"min,omitempty"`
	Max int  `json:"max"`
}

type StepperStepOverrideFile struct {
	TimeoutFrames *int `json:"timeoutFrames,omitempty"`
}

// TrialStepFile is the on-disk shape of a single trial step, §4.7/§6: a
// move step or a wait (delay) step.
type TrialStepFile struct {
	Move       *string                  `json:"move,omitempty"`
	Connect    *string                  `json:"connect,omitempty"`
	CancelKind *string                  `json:"cancelKind,omitempty"`
	Label      *string                  `json:"label,omitempty"`
	Window     *WindowOverrideFile      `json:"window,omitempty"`
	Stepper    *StepperStepOverrideFile `json:"stepper,omitempty"`

	Wait   *int    `json:"wait,omitempty"`
	Reason *string `json:"reason,omitempty"`
}

// TrialRulesFile is the on-disk shape of a trial's rules block.
type TrialRulesFile struct {
	DefaultMode       *string `json:"defaultMode,omitempty"`
	AllowModeOverride *bool   `json:"allowModeOverride,omitempty"`
	DirectionMirrored *bool   `json:"directionMirrored,omitempty"`

	TimelineHistoryCapFrames *int `json:"timelineHistoryCapFrames,omitempty"`

	StepperDefaultTimeoutFrames *int  `json:"stepperDefaultTimeoutFrames,omitempty"`
	StepperCloseAfterPrevFrames *int  `json:"stepperCloseAfterPrevFrames,omitempty"`
	RequireReleaseBeforeReuse   *bool `json:"requireReleaseBeforeReuse,omitempty"`
	RequireNeutralBeforeStep    *bool `json:"requireNeutralBeforeStep,omitempty"`

	ResetCombo []string `json:"resetCombo,omitempty"`
}

// TrialFile is the on-disk trial shape, §6.
type TrialFile struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Notes string          `json:"notes,omitempty"`
	Rules *TrialRulesFile `json:"rules,omitempty"`
	Steps []TrialStepFile `json:"steps"`
}

// ParseTrialFile decodes a trial JSON document, rejecting unknown
// top-level and nested fields per §4.7's validation rules.
func ParseTrialFile(r io.Reader) (*TrialFile, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, fmt.Errorf("trial: read: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(buf.Bytes()))
	dec.DisallowUnknownFields()

	var tf TrialFile
	if err := dec.Decode(&tf); err != nil {
		return nil, &CompileError{Field: "$", Reason: err.Error()}
	}
	return &tf, nil
}

// CompileOptions carries the session-level knobs that shape compilation
// without belonging to any single trial file: the engine tunables loaded
// from the config package, and an optional localizer for display labels.
// The zero value compiles with the built-in defaults and plain labels.
type CompileOptions struct {
	// Localizer, when non-nil, overrides step display labels and move
	// official names with any "step.<id>.label" / "move.<id>.name"
	// messages it can resolve.
	Localizer *i18n.Localizer

	// Zero means the built-in default for each of these.
	MotionWindowFrames       int
	MotionButtonGapFrames    int
	TimelineHistoryCapFrames int
	StepperTimeoutFrames     int
}

// Compile derives a CompiledTrial from a parsed trial file and a resolved
// move database with default options, per §4.7.
func Compile(tf *TrialFile, db *movedb.Database) (*CompiledTrial, error) {
	return CompileWithOptions(tf, db, CompileOptions{})
}

// CompileWithOptions is Compile with session-level tunables and label
// localization applied. All validation problems are collected and returned
// together; a non-nil CompiledTrial is only returned alongside a nil error.
func CompileWithOptions(tf *TrialFile, db *movedb.Database, opts CompileOptions) (*CompiledTrial, error) {
	var errs CompileErrors

	if tf.ID == "" {
		errs = append(errs, &CompileError{Field: "id", Reason: "required"})
	}

	rules, ruleErrs := compileRules(tf.Rules, opts)
	errs = append(errs, ruleErrs...)

	steps := make([]CompiledTrialStep, 0, len(tf.Steps))
	for i, sf := range tf.Steps {
		step, stepErrs := compileStep(i, sf, db, rules, opts)
		errs = append(errs, stepErrs...)
		if step != nil {
			steps = append(steps, *step)
		}
	}

	if len(errs) > 0 {
		internal.GetLogger().Error("trial compile failed", "id", tf.ID, "errors", errs.Error())
		return nil, errs
	}

	return &CompiledTrial{
		ID:    tf.ID,
		Name:  tf.Name,
		Notes: tf.Notes,
		Rules: rules,
		Steps: steps,
	}, nil
}

func compileRules(rf *TrialRulesFile, opts CompileOptions) (CompiledTrialRules, CompileErrors) {
	historyCap := 240
	if opts.TimelineHistoryCapFrames > 0 {
		historyCap = opts.TimelineHistoryCapFrames
	}
	rules := CompiledTrialRules{
		DefaultMode:                 ModeTimeline,
		AllowModeOverride:           false,
		TimelineHistoryCapFrames:    historyCap,
		StepperDefaultTimeoutFrames: 0, // 0 = not configured; resolved per-step against the fallback chain
		StepperCloseAfterPrevFrames: 0,
	}
	if rf == nil {
		return rules, nil
	}

	var errs CompileErrors

	if rf.DefaultMode != nil {
		switch EngineMode(*rf.DefaultMode) {
		case ModeTimeline, ModeStepper:
			rules.DefaultMode = EngineMode(*rf.DefaultMode)
		default:
			errs = append(errs, &CompileError{Field: "rules.defaultMode", Reason: "must be timeline or stepper"})
		}
	}
	if rf.AllowModeOverride != nil {
		rules.AllowModeOverride = *rf.AllowModeOverride
	}
	if rf.DirectionMirrored != nil {
		rules.DirectionMirrored = *rf.DirectionMirrored
	}
	if rf.TimelineHistoryCapFrames != nil {
		rules.TimelineHistoryCapFrames = *rf.TimelineHistoryCapFrames
	}
	if rf.StepperDefaultTimeoutFrames != nil {
		rules.StepperDefaultTimeoutFrames = *rf.StepperDefaultTimeoutFrames
	}
	if rf.StepperCloseAfterPrevFrames != nil {
		rules.StepperCloseAfterPrevFrames = *rf.StepperCloseAfterPrevFrames
	}
	if rf.RequireReleaseBeforeReuse != nil {
		rules.RequireReleaseBeforeReuse = *rf.RequireReleaseBeforeReuse
	}
	if rf.RequireNeutralBeforeStep != nil {
		rules.RequireNeutralBeforeStep = *rf.RequireNeutralBeforeStep
	}
	rules.ResetCombo = rf.ResetCombo

	return rules, errs
}

func compileStep(index int, sf TrialStepFile, db *movedb.Database, rules CompiledTrialRules, opts CompileOptions) (*CompiledTrialStep, CompileErrors) {
	var errs CompileErrors
	id := fmt.Sprintf("s%d", index)

	isDelay := sf.Wait != nil
	isMove := sf.Move != nil

	if isDelay && isMove {
		errs = append(errs, &CompileError{Field: id, Reason: "step cannot be both a move and a wait"})
		return nil, errs
	}
	if !isDelay && !isMove {
		errs = append(errs, &CompileError{Field: id, Reason: "step must specify move or wait"})
		return nil, errs
	}

	if isDelay {
		if index != 0 {
			// A wait step after the first position is explicitly unsupported, §4.7.
			errs = append(errs, &CompileError{Field: id, Reason: "wait step unsupported after index 0"})
		}
		reason := ""
		if sf.Reason != nil {
			reason = *sf.Reason
		}
		label := fmt.Sprintf("Wait %dF", *sf.Wait)
		if sf.Label != nil {
			label = *sf.Label
		}
		if opts.Localizer != nil {
			if localized, ok := opts.Localizer.Resolve(i18n.StepLabelKey(id)); ok {
				label = localized
			}
		}
		if len(errs) > 0 {
			return nil, errs
		}
		return &CompiledTrialStep{
			ID:           id,
			DisplayLabel: label,
			Kind:         StepKindDelay,
			DelayFrames:  *sf.Wait,
			DelayReason:  reason,
		}, nil
	}

	if index != 0 && sf.Connect == nil {
		errs = append(errs, &CompileError{Field: id + ".connect", Reason: "required on non-first step"})
	}
	var connect ConnectKind
	if sf.Connect != nil {
		connect = ConnectKind(*sf.Connect)
		switch connect {
		case ConnectLink, ConnectCancel, ConnectChain, ConnectTarget:
		default:
			errs = append(errs, &CompileError{Field: id + ".connect", Reason: "unknown connect kind"})
		}
	}

	cancelKind := ""
	if sf.CancelKind != nil {
		cancelKind = *sf.CancelKind
		if connect != ConnectCancel {
			errs = append(errs, &CompileError{Field: id + ".cancelKind", Reason: "present without connect=cancel"})
		}
	}

	move, ok := db.Lookup(*sf.Move)
	if !ok {
		errs = append(errs, &CompileError{Field: id + ".move", Reason: fmt.Sprintf("unknown move id %q", *sf.Move)})
		return nil, errs
	}

	exp, expErr := parseExpectation(move.Command.Tokens)
	if expErr != nil {
		errs = append(errs, &CompileError{Field: id + ".move", Reason: expErr.Error()})
	}
	if exp.Motion != nil {
		exp.MaxMotionWindowFrames = opts.MotionWindowFrames
		exp.MotionButtonGapFrames = opts.MotionButtonGapFrames
	}

	label := move.ID
	if move.Official != nil && move.Official.MoveName != "" {
		label = move.Official.MoveName
	}
	if opts.Localizer != nil {
		if name, ok := opts.Localizer.Resolve(i18n.MoveNameKey(move.ID)); ok {
			label = name
		}
	}
	if sf.Label != nil {
		label = *sf.Label
	}
	if opts.Localizer != nil {
		if localized, ok := opts.Localizer.Resolve(i18n.StepLabelKey(id)); ok {
			label = localized
		}
	}

	step := &CompiledTrialStep{
		ID:           id,
		DisplayLabel: label,
		Kind:         StepKindMove,
		MoveID:       move.ID,
		Expectation:  exp,
	}

	timeout := 60
	if opts.StepperTimeoutFrames > 0 {
		timeout = opts.StepperTimeoutFrames
	}
	if rules.StepperCloseAfterPrevFrames > 0 {
		timeout = rules.StepperCloseAfterPrevFrames
	}
	if rules.StepperDefaultTimeoutFrames > 0 {
		timeout = rules.StepperDefaultTimeoutFrames
	}
	if sf.Stepper != nil && sf.Stepper.TimeoutFrames != nil {
		timeout = *sf.Stepper.TimeoutFrames
	}
	step.StepperTimeoutFrames = &timeout

	if index > 0 {
		win, winErrs := compileWindow(id, connect, cancelKind, sf.Window)
		errs = append(errs, winErrs...)
		step.Window = win
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return step, nil
}

func compileWindow(id string, connect ConnectKind, cancelKind string, override *WindowOverrideFile) (*CompiledStepWindow, CompileErrors) {
	var errs CompileErrors

	max, ok := defaultWindowMax[connect]
	if !ok {
		// Unknown connect already reported by the caller; keep compiling
		// with a permissive default so later steps can still be checked.
		max = defaultWindowMax[ConnectLink]
	}
	if connect == ConnectCancel && cancelKind == "dr" {
		max = drCancelWindowMax
	}

	win := &CompiledStepWindow{
		MinAfterPrevFrames: 0,
		MaxAfterPrevFrames: max,
		Connect:            connect,
		CancelKind:         cancelKind,
		Provenance:         ProvenanceDefault,
	}

	if override != nil {
		min := 0
		if override.Min != nil {
			min = *override.Min
		}
		if override.Max < min {
			errs = append(errs, &CompileError{Field: id + ".window", Reason: "max < min"})
		}
		win.MinAfterPrevFrames = min
		win.MaxAfterPrevFrames = override.Max
		win.Provenance = ProvenanceInlineOverride
	}

	return win, errs
}

// parseExpectation derives a StepExpectation from a move's official
// command token stream, per §4.7 steps 1-6.
func parseExpectation(tokens []movedb.Token) (internal.StepExpectation, error) {
	relevant := tokensAfterLastContinuation(tokens)

	var specific []constants.CanonicalButton
	var directions []constants.Direction
	genericPunch, genericKick := 0, 0

	for _, t := range relevant {
		if t.Type != movedb.TokenIcon {
			continue
		}
		class, payload := movedb.ClassifyIcon(t.File)
		switch class {
		case movedb.IconSpecificButton:
			specific = append(specific, payload.(constants.CanonicalButton))
		case movedb.IconGenericPunch:
			genericPunch++
		case movedb.IconGenericKick:
			genericKick++
		case movedb.IconDirection:
			directions = append(directions, payload.(constants.Direction))
		case movedb.IconOr, movedb.IconContinuation, movedb.IconOther:
			// Separators and unrecognized icons carry no expectation weight.
		}
	}

	if len(specific) > 0 && (genericPunch > 0 || genericKick > 0) {
		return internal.StepExpectation{}, fmt.Errorf("mixing specific and generic button icons")
	}
	if genericPunch > 0 && genericKick > 0 {
		return internal.StepExpectation{}, fmt.Errorf("mixing generic punch and generic kick icons")
	}

	var exp internal.StepExpectation

	switch len(directions) {
	case 0:
	case 1:
		d := directions[0]
		exp.Direction = &d
	default:
		code, ok := matchMotionCode(directions)
		if !ok {
			return internal.StepExpectation{}, fmt.Errorf("direction sequence does not form a known motion")
		}
		exp.Motion = &code
	}

	haveButtons := false
	switch {
	case len(specific) > 0:
		sorted := append([]constants.CanonicalButton(nil), specific...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		exp.Buttons = sorted
		haveButtons = true
	case genericPunch >= 2:
		exp.AnyTwoButtonsFrom = []constants.CanonicalButton{constants.LP, constants.MP, constants.HP}
		haveButtons = true
	case genericKick >= 2:
		exp.AnyTwoButtonsFrom = []constants.CanonicalButton{constants.LK, constants.MK, constants.HK}
		haveButtons = true
	case genericPunch == 1 || genericKick == 1:
		return internal.StepExpectation{}, fmt.Errorf("a single generic button icon does not derive an expectation")
	}

	if exp.Direction == nil && exp.Motion == nil && !haveButtons {
		return internal.StepExpectation{}, fmt.Errorf("no derivable expectation")
	}

	isMultiButton := len(exp.Buttons) >= 2 || len(exp.AnyTwoButtonsFrom) > 0
	motionPlusButton := exp.Motion != nil && haveButtons
	if isMultiButton || motionPlusButton {
		exp.SimultaneousWithinFrames = 2
	}

	return exp, nil
}

func tokensAfterLastContinuation(tokens []movedb.Token) []movedb.Token {
	last := -1
	for i, t := range tokens {
		if t.Type == movedb.TokenIcon {
			if class, _ := movedb.ClassifyIcon(t.File); class == movedb.IconContinuation {
				last = i
			}
		}
	}
	if last == -1 {
		return tokens
	}
	return tokens[last+1:]
}

var knownMotions = map[string]internal.MotionCode{
	"236": internal.Motion236,
	"214": internal.Motion214,
	"623": internal.Motion623,
	"22":  internal.Motion22,
}

func matchMotionCode(dirs []constants.Direction) (internal.MotionCode, bool) {
	var sb strings.Builder
	for _, d := range dirs {
		sb.WriteString(d.String())
	}
	code, ok := knownMotions[sb.String()]
	return code, ok
}
