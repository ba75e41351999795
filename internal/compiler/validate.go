package compiler

import (
	"fmt"

	"github.com/roach88/smartscript/internal/condition"
	"github.com/roach88/smartscript/internal/engine"
	"github.com/roach88/smartscript/internal/ir"
)

// Validation error codes (E100-E199)
const (
	// Rule set errors (E100-E109)
	ErrUnknownSource   = "E100" // unknown source type
	ErrUnknownEvent    = "E101" // unknown event type
	ErrUnknownAction   = "E102" // unknown action type
	ErrUnknownTarget   = "E103" // unknown target type
	ErrDuplicateRuleID = "E104" // two rules share an id within a set
	ErrChanceRange     = "E105" // chance above 100
	ErrPhaseRange      = "E106" // phase mask beyond MaxPhase
	ErrMinAboveMax     = "E107" // timer range with min > max
	ErrUnknownFlags    = "E108" // flags outside the allowed set
	ErrEmptyRuleSet    = "E109" // rule set without rules

	// Link warnings (E110-E119)
	ErrMissingLink = "E110" // link names no rule in the set
	ErrLinkKind    = "E111" // link target is not a link event
	ErrLinkCycle   = "E112" // links form a cycle

	// Condition errors (E120-E129)
	ErrInvalidCondition = "E120" // expression does not compile
	ErrConditionSource  = "E121" // unknown source type
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled rule set. Returns all errors found (does not
// fail-fast). Link problems are warnings, reported by AnalyzeLinks.
func Validate(rs *ir.RuleSet) []ValidationError {
	var errs []ValidationError
	set := fmt.Sprintf("%s %d", rs.Source, rs.EntryOrGuid)

	if !rs.Source.Known() {
		errs = append(errs, ValidationError{
			Field:   set,
			Message: fmt.Sprintf("unknown source type %d", uint8(rs.Source)),
			Code:    ErrUnknownSource,
		})
	}
	if len(rs.Rules) == 0 {
		errs = append(errs, ValidationError{
			Field:   set,
			Message: "rule set has no rules",
			Code:    ErrEmptyRuleSet,
		})
	}

	seen := make(map[uint32]bool)
	for _, r := range rs.Rules {
		field := fmt.Sprintf("%s #%d", set, r.ID)

		if seen[r.ID] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate rule id %d", r.ID),
				Code:    ErrDuplicateRuleID,
			})
		}
		seen[r.ID] = true

		errs = append(errs, validateRule(r, field)...)
	}
	return errs
}

func validateRule(r ir.Rule, field string) []ValidationError {
	var errs []ValidationError
	ev := r.Event

	if !ev.Type.Known() {
		errs = append(errs, ValidationError{Field: field + ".event", Message: fmt.Sprintf("unknown event type %d", uint32(ev.Type)), Code: ErrUnknownEvent})
	}
	if !r.Action.Type.Known() {
		errs = append(errs, ValidationError{Field: field + ".action", Message: fmt.Sprintf("unknown action type %d", uint32(r.Action.Type)), Code: ErrUnknownAction})
	}
	if !r.Target.Type.Known() {
		errs = append(errs, ValidationError{Field: field + ".target", Message: fmt.Sprintf("unknown target type %d", uint32(r.Target.Type)), Code: ErrUnknownTarget})
	}
	if ev.Chance > 100 {
		errs = append(errs, ValidationError{Field: field + ".chance", Message: fmt.Sprintf("chance %d above 100", ev.Chance), Code: ErrChanceRange})
	}
	if ev.PhaseMask&^ir.PhaseMaskAll != 0 {
		errs = append(errs, ValidationError{Field: field + ".phases", Message: fmt.Sprintf("phase mask %#x beyond phase %d", ev.PhaseMask, ir.MaxPhase), Code: ErrPhaseRange})
	}
	if extra := ev.Flags &^ (ir.FlagsAllowed | ir.FlagNotRepeatable); extra != 0 {
		errs = append(errs, ValidationError{Field: field + ".flags", Message: fmt.Sprintf("flags %#x not allowed", uint32(extra)), Code: ErrUnknownFlags})
	}
	for _, pr := range engine.ParamRanges(ev.Type) {
		lo, hi := ev.Params[pr[0]], ev.Params[pr[1]]
		if lo > hi {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.event.params[%d..%d]", field, pr[0], pr[1]),
				Message: fmt.Sprintf("min %d above max %d", lo, hi),
				Code:    ErrMinAboveMax,
			})
		}
	}
	return errs
}

// ValidateConditions compiles every condition expression.
func ValidateConditions(conds []ir.Condition) []ValidationError {
	var errs []ValidationError
	for _, c := range conds {
		field := fmt.Sprintf("condition %s %d #%d", c.Source, c.EntryOrGuid, c.EventID)
		if !c.Source.Known() {
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("unknown source type %d", uint8(c.Source)), Code: ErrConditionSource})
		}
		if _, err := condition.Compile(c.Expr); err != nil {
			errs = append(errs, ValidationError{Field: field, Message: err.Error(), Code: ErrInvalidCondition})
		}
	}
	return errs
}
