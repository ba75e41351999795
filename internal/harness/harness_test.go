package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/smartscript/internal/ir"
	"github.com/roach88/smartscript/internal/testutil"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
	require.NoError(t, err)
	return s
}

func TestRun_Scenarios(t *testing.T) {
	for _, name := range []string{"boar_aggro", "keeper_timed_list", "guard_condition"} {
		t.Run(name, func(t *testing.T) {
			result, err := Run(loadTestScenario(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_BoarTrace(t *testing.T) {
	result, err := Run(loadTestScenario(t, "boar_aggro"))
	require.NoError(t, err)

	require.Len(t, result.Trace, 3)
	cast := result.Trace[0]
	assert.Equal(t, "cast", cast.Action)
	assert.Equal(t, ir.ObjectID(1), cast.Caster)
	assert.Equal(t, ir.ObjectID(2), cast.Target)
	assert.Equal(t, []uint32{1234}, cast.Params)
	assert.Equal(t, 1, cast.Step)

	assert.Equal(t, uint32(1), result.Trace[1].RuleID, "link follows in the same step")
	assert.Equal(t, 1, result.Trace[1].Step)
	assert.Equal(t, 3, result.Trace[2].Step, "update fires once its timer elapses")

	assert.Equal(t, "0190c5d2-0000-7000-8000-000000000001", result.RunID)
	stats := result.Stats[1]
	assert.Equal(t, uint64(3), stats.Executed)
}

func TestRun_ConditionBlocksNonPlayers(t *testing.T) {
	result, err := Run(loadTestScenario(t, "guard_condition"))
	require.NoError(t, err)

	require.Len(t, result.Trace, 2)
	assert.Equal(t, ir.ObjectID(2), result.Trace[0].Invoker)
	assert.Equal(t, 2, result.Trace[0].Step)
	assert.Equal(t, ir.ObjectID(4), result.Trace[1].Caster)
}

func TestRun_RunIDs(t *testing.T) {
	s := loadTestScenario(t, "guard_condition")

	result, err := Run(s)
	require.NoError(t, err)
	assert.Len(t, result.RunID, 36, "uuid v7 by default")

	result, err = Run(s, WithRunIDGenerator(testutil.NewFixedRunID("fixed")))
	require.NoError(t, err)
	assert.Equal(t, "fixed", result.RunID)

	s.RunID = "from-scenario"
	result, err = Run(s, WithRunIDGenerator(testutil.NewFixedRunID("fixed")))
	require.NoError(t, err)
	assert.Equal(t, "from-scenario", result.RunID)
}

func TestRun_FailedAssertions(t *testing.T) {
	s := loadTestScenario(t, "boar_aggro")
	s.Assertions = []Assertion{
		{Type: AssertTraceCount, Action: "talk", Count: 5},
		{Type: AssertAura, Object: 2, Spell: 1234, Value: 1},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Assertion failed: trace_count")
}

func TestRun_Deterministic(t *testing.T) {
	s := loadTestScenario(t, "keeper_timed_list")
	first, err := Run(s)
	require.NoError(t, err)
	for range 5 {
		again, err := Run(s)
		require.NoError(t, err)
		assert.Equal(t, first.Trace, again.Trace)
	}
}

func TestRun_StepErrors(t *testing.T) {
	tests := []struct {
		name string
		step Step
		want string
	}{
		{"raise on player", Step{Raise: &RaiseStep{Object: 2, Event: "aggro"}}, "object 2 has no script"},
		{"despawn unknown", Step{Despawn: 42}, "no object 42"},
		{"set unknown", Step{Set: &SetStep{Object: 42}}, "no object 42"},
		{"reset unknown", Step{Reset: 42}, "object 42 has no script"},
		{"spawn duplicate", Step{Spawn: &ObjectSpec{ID: 1, Kind: "creature"}}, "already exists"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := loadTestScenario(t, "boar_aggro")
			s.Steps = []Step{tt.step}
			_, err := Run(s)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "steps[0]")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRun_MissingRules(t *testing.T) {
	s := loadTestScenario(t, "boar_aggro")
	s.Rules = t.TempDir()
	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load rules")
}

func TestRun_SetAndReset(t *testing.T) {
	s := loadTestScenario(t, "boar_aggro")
	health := uint32(40)
	victim := ir.ObjectID(2)
	s.Steps = []Step{
		{Set: &SetStep{Object: 1, Health: &health, Victim: &victim, Auras: map[uint32]uint32{77: 2}}},
		{Tick: 1000},
		{Reset: 1},
		{Tick: 1000},
	}
	s.Assertions = []Assertion{
		{Type: AssertAura, Object: 1, Spell: 77, Value: 2},
		{Type: AssertTraceCount, Action: "talk", Count: 2},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestObjectFrom_Defaults(t *testing.T) {
	o := objectFrom(ObjectSpec{ID: 1, Kind: "creature"})
	assert.Equal(t, uint32(100), o.Health)
	assert.Equal(t, uint32(100), o.MaxHealth)
	assert.True(t, o.Alive)
	assert.True(t, o.Spawned)
	assert.Equal(t, ir.KindCreature, o.Kind)

	o = objectFrom(ObjectSpec{ID: 1, Kind: "player", Health: 30, MaxHealth: 60, Dead: true, Unspawned: true, Power: 10})
	assert.Equal(t, uint32(0), o.Health)
	assert.Equal(t, uint32(60), o.MaxHealth)
	assert.False(t, o.Alive)
	assert.False(t, o.Spawned)
	assert.Equal(t, uint32(10), o.MaxPower)
}
