package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/smartscript/internal/ir"
)

func compileCUE(t *testing.T, src, path string) cue.Value {
	t.Helper()
	v := cuecontext.New().CompileString(src)
	require.NoError(t, v.Err())
	return v.LookupPath(cue.ParsePath(path))
}

func TestCompileScriptBasic(t *testing.T) {
	v := compileCUE(t, `
		script: boar: {
			source: "creature"
			entry:  100
			rules: [{
				id:   0
				link: 1
				event: {type: "update_ic", params: [1000, 2000, 8000, 9000], chance: 50, phases: [1, 3], flags: ["dont_reset"]}
				action: {type: "cast", params: [1234, 1]}
				target: {type: "victim"}
				comment: "charge"
			}, {
				id: 1
				event: {type: "link"}
				action: {type: "talk", params: [0]}
			}]
		}
	`, "script.boar")

	rs, err := CompileScript(v)
	require.NoError(t, err)

	assert.Equal(t, "boar", rs.Name)
	assert.Equal(t, ir.SourceCreature, rs.Source)
	assert.Equal(t, int64(100), rs.EntryOrGuid)
	require.Len(t, rs.Rules, 2)

	r := rs.Rules[0]
	assert.Equal(t, uint32(1), r.Link)
	assert.Equal(t, ir.EventUpdateIC, r.Event.Type)
	assert.Equal(t, [5]uint32{1000, 2000, 8000, 9000, 0}, r.Event.Params)
	assert.Equal(t, uint32(50), r.Event.Chance)
	assert.Equal(t, ir.PhaseMask(1, 3), r.Event.PhaseMask)
	assert.Equal(t, ir.FlagDontReset, r.Event.Flags)
	assert.Equal(t, ir.ActionCast, r.Action.Type)
	assert.Equal(t, uint32(1234), r.Action.Params[0])
	assert.Equal(t, ir.TargetVictim, r.Target.Type)
	assert.Equal(t, "charge", r.Comment)
	assert.Equal(t, ir.SourceCreature, r.SourceType)
	assert.Equal(t, int64(100), r.EntryOrGuid)

	link := rs.Rules[1]
	assert.Equal(t, uint32(DefaultChance), link.Event.Chance, "chance defaults to 100")
	assert.Equal(t, ir.TargetSelf, link.Target.Type, "target defaults to self")
}

func TestCompileScriptGuidOverride(t *testing.T) {
	v := compileCUE(t, `
		script: boar_spawn: {
			source: "creature"
			guid:   42
			rules: [{event: {type: "aggro"}, action: {type: "talk"}}]
		}
	`, "script.boar_spawn")

	rs, err := CompileScript(v)
	require.NoError(t, err)
	assert.Equal(t, int64(-42), rs.EntryOrGuid)
	assert.True(t, rs.Rules[0].IsSpawnOverride())
}

func TestCompileScriptPositionTarget(t *testing.T) {
	v := compileCUE(t, `
		script: s: {
			source: "gameobject"
			entry:  7
			rules: [{
				event: {type: "reset"}
				action: {type: "summon_creature", params: [55]}
				target: {type: "position", pos: {x: 1.5, y: -2, z: 3}}
			}]
		}
	`, "script.s")

	rs, err := CompileScript(v)
	require.NoError(t, err)
	assert.Equal(t, ir.Position{X: 1.5, Y: -2, Z: 3}, rs.Rules[0].Target.Pos)
}

func TestCompileScriptErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing source", `entry: 1, rules: [{event: {type: "aggro"}, action: {type: "talk"}}]`, "source"},
		{"unknown source", `source: "vehicle", entry: 1, rules: [{event: {type: "aggro"}, action: {type: "talk"}}]`, "source"},
		{"timed list as script", `source: "timed_actionlist", entry: 1, rules: [{event: {type: "aggro"}, action: {type: "talk"}}]`, "source"},
		{"missing entry", `source: "creature", rules: [{event: {type: "aggro"}, action: {type: "talk"}}]`, "entry"},
		{"entry and guid", `source: "creature", entry: 1, guid: 2, rules: [{event: {type: "aggro"}, action: {type: "talk"}}]`, "entry"},
		{"zero entry", `source: "creature", entry: 0, rules: [{event: {type: "aggro"}, action: {type: "talk"}}]`, "entry"},
		{"no rules", `source: "creature", entry: 1, rules: []`, "rules"},
		{"unknown event", `source: "creature", entry: 1, rules: [{event: {type: "sneeze"}, action: {type: "talk"}}]`, "rules[0].event.type"},
		{"unknown action", `source: "creature", entry: 1, rules: [{event: {type: "aggro"}, action: {type: "dance"}}]`, "rules[0].action.type"},
		{"unknown target", `source: "creature", entry: 1, rules: [{event: {type: "aggro"}, action: {type: "talk"}, target: {type: "moon"}}]`, "rules[0].target.type"},
		{"missing action", `source: "creature", entry: 1, rules: [{event: {type: "aggro"}}]`, "rules[0].action"},
		{"phase zero", `source: "creature", entry: 1, rules: [{event: {type: "aggro", phases: [0]}, action: {type: "talk"}}]`, "rules[0].event.phases"},
		{"phase thirteen", `source: "creature", entry: 1, rules: [{event: {type: "aggro", phases: [13]}, action: {type: "talk"}}]`, "rules[0].event.phases"},
		{"internal flag", `source: "creature", entry: 1, rules: [{event: {type: "aggro", flags: ["ignore_chance_roll"]}, action: {type: "talk"}}]`, "rules[0].event.flags"},
		{"too many params", `source: "creature", entry: 1, rules: [{event: {type: "aggro", params: [1, 2, 3, 4, 5, 6]}, action: {type: "talk"}}]`, "rules[0].event.params"},
		{"negative param", `source: "creature", entry: 1, rules: [{event: {type: "aggro"}, action: {type: "talk", params: [-1]}}]`, "rules[0].action.params"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := compileCUE(t, "script: x: {"+tt.body+"}", "script.x")
			_, err := CompileScript(v)
			require.Error(t, err)

			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestCompileTimedList(t *testing.T) {
	v := compileCUE(t, `
		timed_list: intro: {
			entry: 5000
			rules: [
				{id: 0, event: {type: "update", params: [1000, 1000]}, action: {type: "talk", params: [0]}},
				{id: 1, event: {type: "update", params: [2000, 2000]}, action: {type: "talk", params: [1]}},
			]
		}
	`, "timed_list.intro")

	rs, err := CompileTimedList(v)
	require.NoError(t, err)
	assert.Equal(t, ir.SourceTimedActionList, rs.Source)
	assert.Equal(t, int64(5000), rs.EntryOrGuid)
	require.Len(t, rs.Rules, 2)
	assert.Equal(t, ir.SourceTimedActionList, rs.Rules[1].SourceType)
}

func TestCompileCondition(t *testing.T) {
	v := compileCUE(t, `
		condition: low_health: {
			source: "creature"
			entry:  100
			event:  2
			group:  1
			expr:   "Actor.HealthPct < 50"
		}
	`, "condition.low_health")

	c, err := CompileCondition(v)
	require.NoError(t, err)
	assert.Equal(t, ir.Condition{
		Source:      ir.SourceCreature,
		EntryOrGuid: 100,
		EventID:     2,
		Group:       1,
		Expr:        "Actor.HealthPct < 50",
		Comment:     "low_health",
	}, *c)
}

func TestCompileConditionMissingExpr(t *testing.T) {
	v := compileCUE(t, `condition: c: {source: "creature", entry: 1}`, "condition.c")
	_, err := CompileCondition(v)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "expr", ce.Field)
}

func TestCompileErrorFormat(t *testing.T) {
	err := &CompileError{Field: "source", Message: "source is required"}
	assert.Equal(t, "source: source is required", err.Error())
}
