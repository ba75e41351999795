package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/smartscript/internal/world"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] step %d %s %d -> %d %v (%s)\n",
				ev.Seq, ev.Step, ev.Action, ev.Caster, ev.Target, ev.Params, ev.Result)
		}
	}
	return buf.String()
}

// matches reports whether ev satisfies the filters of a.
func matches(ev TraceEvent, a Assertion) bool {
	if ev.Action != a.Action {
		return false
	}
	if a.Caster != nil && ev.Caster != *a.Caster {
		return false
	}
	if a.Target != nil && ev.Target != *a.Target {
		return false
	}
	if a.RuleID != nil && ev.RuleID != *a.RuleID {
		return false
	}
	return true
}

// assertTraceContains checks that some effect matches the assertion.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if matches(ev, a) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: describeMatch(a),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

func describeMatch(a Assertion) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "action %s", a.Action)
	if a.Caster != nil {
		fmt.Fprintf(&buf, " caster %d", *a.Caster)
	}
	if a.Target != nil {
		fmt.Fprintf(&buf, " target %d", *a.Target)
	}
	if a.RuleID != nil {
		fmt.Fprintf(&buf, " rule %d", *a.RuleID)
	}
	return buf.String()
}

// assertTraceOrder checks that the actions appear in order. Other effects
// may appear in between.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, ev := range trace {
		if next < len(a.Actions) && ev.Action == a.Actions[next] {
			next++
		}
	}
	if next == len(a.Actions) {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: fmt.Sprintf("actions in order %v", a.Actions),
		Actual:   fmt.Sprintf("matched %v, missing %s", a.Actions[:next], a.Actions[next]),
		Trace:    trace,
	}
}

// assertTraceCount checks the number of matching effects.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	n := 0
	for _, ev := range trace {
		if matches(ev, a) {
			n++
		}
	}
	if n == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("%s %d times", describeMatch(a), a.Count),
		Actual:   fmt.Sprintf("%d times", n),
		Trace:    trace,
	}
}

// assertEngineState checks counter, phase and stored list assertions.
func assertEngineState(w *world.World, a Assertion) error {
	e, ok := w.Engine(a.Object)
	if !ok {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("object %d runs a script", a.Object), Actual: "no engine"}
	}
	switch a.Type {
	case AssertCounter:
		if got := e.Counter(a.ID); got != a.Value {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("object %d counter %d = %d", a.Object, a.ID, a.Value),
				Actual:   fmt.Sprint(got),
			}
		}
	case AssertPhase:
		if got := e.Phase(); got != a.Value {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("object %d phase %d", a.Object, a.Value),
				Actual:   fmt.Sprint(got),
			}
		}
	case AssertStored:
		got := e.StoredTargets(a.ID)
		if !slices.Equal(got, a.Objects) {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("object %d stored list %d = %v", a.Object, a.ID, a.Objects),
				Actual:   fmt.Sprint(got),
			}
		}
	}
	return nil
}

// assertAura checks the stack count of an aura on a world object.
func assertAura(w *world.World, a Assertion) error {
	info, ok := w.Object(a.Object)
	if !ok {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("object %d exists", a.Object), Actual: "not found"}
	}
	if got := info.AuraCount(a.Spell); got != a.Value {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("object %d aura %d x%d", a.Object, a.Spell, a.Value),
			Actual:   fmt.Sprintf("x%d", got),
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result and the
// final world. Returns one message per failed assertion.
func EvaluateAssertions(result *Result, assertions []Assertion, w *world.World) []string {
	var errors []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertCounter, AssertPhase, AssertStored:
			if w == nil {
				err = fmt.Errorf("assertion[%d]: %s requires a world", i, a.Type)
			} else {
				err = assertEngineState(w, a)
			}
		case AssertAura:
			if w == nil {
				err = fmt.Errorf("assertion[%d]: aura requires a world", i)
			} else {
				err = assertAura(w, a)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}
