package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/smartscript/internal/engine"
	"github.com/roach88/smartscript/internal/ir"
	"github.com/roach88/smartscript/internal/world"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Seq: 1, Action: "cast", Caster: 1, Target: 2, RuleID: 0},
		{Seq: 2, Action: "talk", Caster: 1, Target: 1, RuleID: 1},
		{Seq: 3, Action: "cast", Caster: 1, Target: 3, RuleID: 0},
	}
}

func idPtr(id ir.ObjectID) *ir.ObjectID { return &id }

func TestAssertTraceContains(t *testing.T) {
	trace := sampleTrace()
	assert.NoError(t, assertTraceContains(trace, Assertion{Action: "cast", Target: idPtr(3)}))

	rule := uint32(1)
	assert.NoError(t, assertTraceContains(trace, Assertion{Action: "talk", RuleID: &rule}))

	err := assertTraceContains(trace, Assertion{Action: "cast", Caster: idPtr(9)})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "action cast caster 9", ae.Expected)
	assert.Contains(t, err.Error(), "Full trace:")
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()
	assert.NoError(t, assertTraceOrder(trace, Assertion{Actions: []string{"cast", "talk", "cast"}}))
	assert.NoError(t, assertTraceOrder(trace, Assertion{Actions: []string{"talk", "cast"}}))

	err := assertTraceOrder(trace, Assertion{Actions: []string{"talk", "talk"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing talk")
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()
	assert.NoError(t, assertTraceCount(trace, Assertion{Action: "cast", Count: 2}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Action: "cast", Target: idPtr(2), Count: 1}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Action: "die", Count: 0}))
	assert.Error(t, assertTraceCount(trace, Assertion{Action: "talk", Count: 3}))
}

func stateWorld(t *testing.T) *world.World {
	t.Helper()
	w := world.New()
	require.NoError(t, w.Add(world.Object{ObjectInfo: engine.ObjectInfo{
		ID: 1, Kind: ir.KindCreature, Entry: 1, Alive: true, Spawned: true, Health: 10, MaxHealth: 10,
		Auras: map[uint32]uint32{55: 2},
	}}))
	require.NoError(t, w.Add(world.Object{ObjectInfo: engine.ObjectInfo{
		ID: 2, Kind: ir.KindPlayer, Alive: true, Spawned: true, Health: 10, MaxHealth: 10,
	}}))
	e, err := w.Script(1, emptyRules{}, nil)
	require.NoError(t, err)
	e.StoreCounter(3, 4, true)
	e.SetPhase(2)
	e.StoreTargetList(1, []ir.ObjectID{2})
	return w
}

type emptyRules struct{}

func (emptyRules) Rules(ir.SourceType, uint32, uint64) []ir.Rule { return nil }
func (emptyRules) TimedList(uint32) []ir.Rule                    { return nil }

func TestEvaluateAssertions_State(t *testing.T) {
	w := stateWorld(t)
	pass := []Assertion{
		{Type: AssertCounter, Object: 1, ID: 3, Value: 4},
		{Type: AssertPhase, Object: 1, Value: 2},
		{Type: AssertStored, Object: 1, ID: 1, Objects: []ir.ObjectID{2}},
		{Type: AssertStored, Object: 1, ID: 9},
		{Type: AssertAura, Object: 1, Spell: 55, Value: 2},
		{Type: AssertAura, Object: 2, Spell: 55, Value: 0},
	}
	assert.Empty(t, EvaluateAssertions(NewResult(""), pass, w))

	fail := []Assertion{
		{Type: AssertCounter, Object: 1, ID: 3, Value: 5},
		{Type: AssertPhase, Object: 2, Value: 0},
		{Type: AssertStored, Object: 1, ID: 1},
		{Type: AssertAura, Object: 7, Spell: 55},
		{Type: "vibes"},
	}
	errs := EvaluateAssertions(NewResult(""), fail, w)
	require.Len(t, errs, 5)
	assert.Contains(t, errs[1], "no engine")
	assert.Contains(t, errs[4], "unknown assertion type")
}

func TestEvaluateAssertions_NeedsWorld(t *testing.T) {
	errs := EvaluateAssertions(NewResult(""), []Assertion{{Type: AssertPhase, Object: 1}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "requires a world")
}
