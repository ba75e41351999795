package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/smartscript/internal/ir"
	"github.com/roach88/smartscript/internal/testutil"
)

// TraceSnapshot captures the trace of one scenario run for golden
// comparison.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	RunID        string       `json:"run_id,omitempty"`
	Trace        []TraceEvent `json:"trace"`
}

// toCanonicalMap converts the snapshot for ir.MarshalCanonical, which only
// handles primitives, []any and map[string]any.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		m := map[string]any{
			"seq":     ev.Seq,
			"step":    ev.Step,
			"action":  ev.Action,
			"caster":  ev.Caster,
			"source":  ev.Source,
			"rule_id": ev.RuleID,
			"result":  ev.Result,
		}
		if ev.Target.Valid() {
			m["target"] = ev.Target
		}
		if ev.Invoker.Valid() {
			m["invoker"] = ev.Invoker
		}
		if len(ev.Params) > 0 {
			params := make([]any, len(ev.Params))
			for j, p := range ev.Params {
				params[j] = p
			}
			m["params"] = params
		}
		traceList[i] = m
	}

	out := map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
	}
	if s.RunID != "" {
		out["run_id"] = s.RunID
	}
	return out
}

// MarshalTrace renders a result's trace as canonical JSON.
func MarshalTrace(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		RunID:        result.RunID,
		Trace:        result.Trace,
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden. Runs without a scenario run_id
// use testutil.DefaultRunID.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, WithRunIDGenerator(testutil.NewFixedRunID("")))
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result's trace against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalTrace(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
