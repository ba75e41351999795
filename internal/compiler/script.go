package compiler

import (
	"fmt"
	"math"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/smartscript/internal/ir"
)

// DefaultChance is the chance of a rule that does not name one.
const DefaultChance = 100

// CompileScript parses one entry of the top-level script struct into a
// rule set. Uses the CUE SDK's Go API directly.
//
//	script: boar: {
//		source: "creature"
//		entry:  100
//		rules: [{id: 0, event: {type: "update_ic", params: [1000, 2000, 8000, 9000]},
//			action: {type: "cast", params: [1234]}, target: {type: "victim"}}]
//	}
//
// guid: N in place of entry keys a spawn-specific set (entry-or-guid -N).
func CompileScript(v cue.Value) (*ir.RuleSet, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	rs := &ir.RuleSet{Name: labelOf(v)}

	sourceName, err := requiredString(v, "source")
	if err != nil {
		return nil, err
	}
	source, ok := ir.ParseSourceType(sourceName)
	if !ok || source == ir.SourceTimedActionList {
		return nil, &CompileError{Field: "source", Message: fmt.Sprintf("unknown source type %q", sourceName), Pos: v.Pos()}
	}
	rs.Source = source

	entryVal := v.LookupPath(cue.ParsePath("entry"))
	guidVal := v.LookupPath(cue.ParsePath("guid"))
	switch {
	case entryVal.Exists() && guidVal.Exists():
		return nil, &CompileError{Field: "entry", Message: "entry and guid are mutually exclusive", Pos: v.Pos()}
	case entryVal.Exists():
		n, err := positive(entryVal, "entry")
		if err != nil {
			return nil, err
		}
		rs.EntryOrGuid = n
	case guidVal.Exists():
		n, err := positive(guidVal, "guid")
		if err != nil {
			return nil, err
		}
		rs.EntryOrGuid = -n
	default:
		return nil, &CompileError{Field: "entry", Message: "entry or guid is required", Pos: v.Pos()}
	}

	rs.Rules, err = parseRules(v, rs.Source, rs.EntryOrGuid)
	if err != nil {
		return nil, err
	}
	return rs, nil
}

// CompileTimedList parses one entry of the top-level timed_list struct.
// Timed list rules are usually update events; their delays run in sequence.
func CompileTimedList(v cue.Value) (*ir.RuleSet, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	entryVal := v.LookupPath(cue.ParsePath("entry"))
	if !entryVal.Exists() {
		return nil, &CompileError{Field: "entry", Message: "entry is required", Pos: v.Pos()}
	}
	entry, err := positive(entryVal, "entry")
	if err != nil {
		return nil, err
	}
	rs := &ir.RuleSet{Name: labelOf(v), Source: ir.SourceTimedActionList, EntryOrGuid: entry}
	rs.Rules, err = parseRules(v, rs.Source, rs.EntryOrGuid)
	if err != nil {
		return nil, err
	}
	return rs, nil
}

// CompileCondition parses one entry of the top-level condition struct.
// The expression is kept as source; Validate compiles it.
func CompileCondition(v cue.Value) (*ir.Condition, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	c := &ir.Condition{Comment: labelOf(v)}

	sourceName, err := requiredString(v, "source")
	if err != nil {
		return nil, err
	}
	source, ok := ir.ParseSourceType(sourceName)
	if !ok {
		return nil, &CompileError{Field: "source", Message: fmt.Sprintf("unknown source type %q", sourceName), Pos: v.Pos()}
	}
	c.Source = source

	entryVal := v.LookupPath(cue.ParsePath("entry"))
	if !entryVal.Exists() {
		return nil, &CompileError{Field: "entry", Message: "entry is required", Pos: v.Pos()}
	}
	if c.EntryOrGuid, err = entryVal.Int64(); err != nil {
		return nil, formatCUEError(err)
	}
	if c.EventID, err = optionalUint32(v, "event"); err != nil {
		return nil, err
	}
	if c.Group, err = optionalUint32(v, "group"); err != nil {
		return nil, err
	}
	if c.Expr, err = requiredString(v, "expr"); err != nil {
		return nil, err
	}
	return c, nil
}

func parseRules(v cue.Value, source ir.SourceType, entryOrGuid int64) ([]ir.Rule, error) {
	rulesVal := v.LookupPath(cue.ParsePath("rules"))
	if !rulesVal.Exists() {
		return nil, &CompileError{Field: "rules", Message: "rules are required", Pos: v.Pos()}
	}
	iter, err := rulesVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var rules []ir.Rule
	for i := 0; iter.Next(); i++ {
		r, err := parseRule(iter.Value(), fmt.Sprintf("rules[%d]", i))
		if err != nil {
			return nil, err
		}
		r.SourceType = source
		r.EntryOrGuid = entryOrGuid
		rules = append(rules, r)
	}
	if len(rules) == 0 {
		return nil, &CompileError{Field: "rules", Message: "at least one rule is required", Pos: rulesVal.Pos()}
	}
	return rules, nil
}

func parseRule(v cue.Value, field string) (ir.Rule, error) {
	var r ir.Rule
	var err error

	if r.ID, err = optionalUint32(v, "id"); err != nil {
		return r, prefixed(err, field)
	}
	if r.Link, err = optionalUint32(v, "link"); err != nil {
		return r, prefixed(err, field)
	}
	if c := v.LookupPath(cue.ParsePath("comment")); c.Exists() {
		if r.Comment, err = c.String(); err != nil {
			return r, formatCUEError(err)
		}
	}

	if r.Event, err = parseEvent(v, field+".event"); err != nil {
		return r, err
	}
	if r.Action, err = parseAction(v, field+".action"); err != nil {
		return r, err
	}
	if r.Target, err = parseTarget(v, field+".target"); err != nil {
		return r, err
	}
	return r, nil
}

func parseEvent(parent cue.Value, field string) (ir.Event, error) {
	var ev ir.Event
	v := parent.LookupPath(cue.ParsePath("event"))
	if !v.Exists() {
		return ev, &CompileError{Field: field, Message: "event is required", Pos: parent.Pos()}
	}

	name, err := requiredString(v, "type")
	if err != nil {
		return ev, prefixed(err, field)
	}
	t, ok := ir.ParseEventType(name)
	if !ok || name == "" {
		return ev, &CompileError{Field: field + ".type", Message: fmt.Sprintf("unknown event type %q", name), Pos: v.Pos()}
	}
	ev.Type = t

	params, err := parseParams(v, field, len(ev.Params))
	if err != nil {
		return ev, err
	}
	copy(ev.Params[:], params)

	ev.Chance = DefaultChance
	if c := v.LookupPath(cue.ParsePath("chance")); c.Exists() {
		if ev.Chance, err = uint32Of(c, field+".chance"); err != nil {
			return ev, err
		}
	}

	if ph := v.LookupPath(cue.ParsePath("phases")); ph.Exists() {
		iter, err := ph.List()
		if err != nil {
			return ev, formatCUEError(err)
		}
		for iter.Next() {
			p, err := uint32Of(iter.Value(), field+".phases")
			if err != nil {
				return ev, err
			}
			if p == 0 || p > ir.MaxPhase {
				return ev, &CompileError{
					Field:   field + ".phases",
					Message: fmt.Sprintf("phase %d out of range 1..%d", p, ir.MaxPhase),
					Pos:     iter.Value().Pos(),
				}
			}
			ev.PhaseMask |= ir.PhaseBit(p)
		}
	}

	if fl := v.LookupPath(cue.ParsePath("flags")); fl.Exists() {
		iter, err := fl.List()
		if err != nil {
			return ev, formatCUEError(err)
		}
		for iter.Next() {
			s, err := iter.Value().String()
			if err != nil {
				return ev, formatCUEError(err)
			}
			f, ok := ir.ParseEventFlag(s)
			if !ok || f&ir.FlagsAllowed == 0 {
				return ev, &CompileError{Field: field + ".flags", Message: fmt.Sprintf("unknown event flag %q", s), Pos: iter.Value().Pos()}
			}
			ev.Flags |= f
		}
	}
	return ev, nil
}

func parseAction(parent cue.Value, field string) (ir.Action, error) {
	var a ir.Action
	v := parent.LookupPath(cue.ParsePath("action"))
	if !v.Exists() {
		return a, &CompileError{Field: field, Message: "action is required", Pos: parent.Pos()}
	}
	name, err := requiredString(v, "type")
	if err != nil {
		return a, prefixed(err, field)
	}
	t, ok := ir.ParseActionType(name)
	if !ok || name == "" {
		return a, &CompileError{Field: field + ".type", Message: fmt.Sprintf("unknown action type %q", name), Pos: v.Pos()}
	}
	a.Type = t

	params, err := parseParams(v, field, len(a.Params))
	if err != nil {
		return a, err
	}
	copy(a.Params[:], params)
	return a, nil
}

// parseTarget defaults to self when the rule names no target.
func parseTarget(parent cue.Value, field string) (ir.Target, error) {
	tg := ir.Target{Type: ir.TargetSelf}
	v := parent.LookupPath(cue.ParsePath("target"))
	if !v.Exists() {
		return tg, nil
	}
	name, err := requiredString(v, "type")
	if err != nil {
		return tg, prefixed(err, field)
	}
	t, ok := ir.ParseTargetType(name)
	if !ok || name == "" {
		return tg, &CompileError{Field: field + ".type", Message: fmt.Sprintf("unknown target type %q", name), Pos: v.Pos()}
	}
	tg.Type = t

	params, err := parseParams(v, field, len(tg.Params))
	if err != nil {
		return tg, err
	}
	copy(tg.Params[:], params)

	if pos := v.LookupPath(cue.ParsePath("pos")); pos.Exists() {
		for _, c := range []struct {
			name string
			dst  *float64
		}{{"x", &tg.Pos.X}, {"y", &tg.Pos.Y}, {"z", &tg.Pos.Z}, {"o", &tg.Pos.O}} {
			cv := pos.LookupPath(cue.ParsePath(c.name))
			if !cv.Exists() {
				continue
			}
			f, err := cv.Float64()
			if err != nil {
				return tg, formatCUEError(err)
			}
			*c.dst = f
		}
	}
	return tg, nil
}

// parseParams reads an optional list of at most n unsigned 32-bit params.
func parseParams(v cue.Value, field string, n int) ([]uint32, error) {
	pv := v.LookupPath(cue.ParsePath("params"))
	if !pv.Exists() {
		return nil, nil
	}
	iter, err := pv.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []uint32
	for iter.Next() {
		if len(out) == n {
			return nil, &CompileError{
				Field:   field + ".params",
				Message: fmt.Sprintf("at most %d params allowed", n),
				Pos:     pv.Pos(),
			}
		}
		p, err := uint32Of(iter.Value(), field+".params")
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func labelOf(v cue.Value) string {
	sels := v.Path().Selectors()
	if len(sels) == 0 {
		return ""
	}
	return sels[len(sels)-1].String()
}

func requiredString(v cue.Value, name string) (string, error) {
	sv := v.LookupPath(cue.ParsePath(name))
	if !sv.Exists() {
		return "", &CompileError{Field: name, Message: name + " is required", Pos: v.Pos()}
	}
	s, err := sv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func optionalUint32(v cue.Value, name string) (uint32, error) {
	nv := v.LookupPath(cue.ParsePath(name))
	if !nv.Exists() {
		return 0, nil
	}
	return uint32Of(nv, name)
}

func uint32Of(v cue.Value, field string) (uint32, error) {
	n, err := v.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	if n < 0 || n > math.MaxUint32 {
		return 0, &CompileError{Field: field, Message: fmt.Sprintf("%d out of range 0..%d", n, uint32(math.MaxUint32)), Pos: v.Pos()}
	}
	return uint32(n), nil
}

func positive(v cue.Value, field string) (int64, error) {
	n, err := v.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	if n <= 0 {
		return 0, &CompileError{Field: field, Message: fmt.Sprintf("%s must be positive, got %d", field, n), Pos: v.Pos()}
	}
	return n, nil
}

// prefixed qualifies a CompileError's field with the enclosing path.
func prefixed(err error, prefix string) error {
	var ce *CompileError
	if errors.As(err, &ce) {
		return &CompileError{Field: prefix + "." + ce.Field, Message: ce.Message, Pos: ce.Pos}
	}
	return err
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
