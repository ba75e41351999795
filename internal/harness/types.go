package harness

import (
	"github.com/roach88/smartscript/internal/engine"
	"github.com/roach88/smartscript/internal/ir"
	"github.com/roach88/smartscript/internal/world"
)

// TraceEvent is one effect applied to the world during a run.
type TraceEvent struct {
	Seq     int64       `json:"seq"`
	Step    int         `json:"step"`
	Action  string      `json:"action"`
	Caster  ir.ObjectID `json:"caster"`
	Target  ir.ObjectID `json:"target,omitempty"`
	Invoker ir.ObjectID `json:"invoker,omitempty"`
	Params  []uint32    `json:"params,omitempty"`
	Source  string      `json:"source"`
	RuleID  uint32      `json:"rule_id"`
	Result  string      `json:"result"`
}

// traceEvent converts an effect record. Trailing zero params are dropped.
func traceEvent(step int, rec world.Record) TraceEvent {
	fx := rec.Effect
	params := fx.Params[:]
	for len(params) > 0 && params[len(params)-1] == 0 {
		params = params[:len(params)-1]
	}
	var kept []uint32
	if len(params) > 0 {
		kept = append(kept, params...)
	}
	return TraceEvent{
		Seq:     rec.Seq,
		Step:    step,
		Action:  fx.Action.String(),
		Caster:  fx.Caster,
		Target:  fx.Target,
		Invoker: fx.Invoker,
		Params:  kept,
		Source:  fx.Source.String(),
		RuleID:  fx.RuleID,
		Result:  rec.Result.String(),
	}
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	RunID string `json:"run_id"`

	// Trace holds the applied effects in order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds assertion failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Stats holds the counters of every engine that ran, keyed by object.
	Stats map[ir.ObjectID]engine.Stats `json:"stats,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(runID string) *Result {
	return &Result{
		Pass:   true,
		RunID:  runID,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Stats:  make(map[ir.ObjectID]engine.Stats),
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
