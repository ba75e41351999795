package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/smartscript/internal/catalog"
	"github.com/roach88/smartscript/internal/ir"
)

const boarRules = `package rules

script: boar: {
	source: "creature"
	entry:  100
	rules: [{event: {type: "aggro"}, action: {type: "call_timed_actionlist", params: [5000]}}]
}

script: boar_elite: {
	source: "creature"
	guid:   7
	rules: [{event: {type: "aggro"}, action: {type: "talk", params: [2]}}]
}
`

const introRules = `package rules

timed_list: intro: {
	entry: 5000
	rules: [
		{id: 1, event: {type: "update", params: [500, 500]}, action: {type: "talk", params: [1]}},
		{id: 0, event: {type: "update", params: [0, 0]}, action: {type: "talk", params: [0]}},
	]
}

condition: players_only: {
	source: "creature"
	entry:  100
	event:  0
	expr:   "Actor.IsPlayer()"
}
`

func writeRules(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
	}
	return dir
}

func TestLoadDir(t *testing.T) {
	dir := writeRules(t, map[string]string{"boar.cue": boarRules, "intro.cue": introRules})

	res, errs := LoadDir(dir, LoadModeCollectAll)
	require.Empty(t, errs)
	assert.Equal(t, 2, res.FileCount)

	require.Len(t, res.Scripts, 2)
	assert.Equal(t, int64(-7), res.Scripts[0].EntryOrGuid, "sets are ordered by entry-or-guid")
	assert.Equal(t, int64(100), res.Scripts[1].EntryOrGuid)
	require.Len(t, res.TimedLists, 1)
	require.Len(t, res.Conditions, 1)
	assert.Len(t, res.RuleSets(), 3)

	cat := res.Catalog()
	assert.Equal(t, 3, cat.Len())
	list := cat.TimedList(5000)
	require.Len(t, list, 2)
	assert.Equal(t, uint32(0), list[0].ID)
	assert.True(t, list[0].Event.Flags.Has(ir.FlagNotRepeatable), "catalog normalizes rules")

	override := cat.Rules(ir.SourceCreature, 100, 7)
	require.Len(t, override, 1)
	assert.Equal(t, ir.ActionTalk, override[0].Action.Type)

	set, ok := cat.Set(catalog.Key{Source: ir.SourceCreature, EntryOrGuid: 100})
	require.True(t, ok)
	assert.Equal(t, ir.ActionCallTimedActionList, set[0].Action.Type)
}

func TestLoadDir_NotFound(t *testing.T) {
	_, errs := LoadDir(filepath.Join(t.TempDir(), "missing"), LoadModeFailFast)
	require.Len(t, errs, 1)

	var le *LoadError
	require.ErrorAs(t, errs[0], &le)
	assert.Equal(t, ErrCodeNotFound, le.Code)
}

func TestLoadDir_NoFiles(t *testing.T) {
	dir := writeRules(t, map[string]string{"README.md": "nothing here"})
	_, errs := LoadDir(dir, LoadModeFailFast)
	require.Len(t, errs, 1)

	var le *LoadError
	require.ErrorAs(t, errs[0], &le)
	assert.Equal(t, ErrCodeNoFiles, le.Code)
}

func TestLoadString_Modes(t *testing.T) {
	src := `
		script: a: {source: "creature", entry: 1, rules: [{event: {type: "nope"}, action: {type: "talk"}}]}
		script: b: {source: "creature", entry: 2, rules: [{event: {type: "aggro"}, action: {type: "nope"}}]}
		script: c: {source: "creature", entry: 3, rules: [{event: {type: "aggro"}, action: {type: "talk"}}]}
	`

	_, errs := LoadString(src, LoadModeFailFast)
	require.Len(t, errs, 1)

	res, errs := LoadString(src, LoadModeCollectAll)
	require.Len(t, errs, 2)
	require.Len(t, res.Scripts, 1)
	assert.Equal(t, int64(3), res.Scripts[0].EntryOrGuid)

	var le *LoadError
	require.ErrorAs(t, errs[1], &le)
	assert.Equal(t, ErrCodeCompile, le.Code)
	assert.Contains(t, le.Message, "script.b: rules[0].action.type")
}

func TestLoadString_Empty(t *testing.T) {
	_, errs := LoadString(`other: 1`, LoadModeCollectAll)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "no scripts or timed lists")
}

func TestLoadString_BuildError(t *testing.T) {
	_, errs := LoadString(`script: {`, LoadModeCollectAll)
	require.Len(t, errs, 1)

	var le *LoadError
	require.ErrorAs(t, errs[0], &le)
	assert.Equal(t, ErrCodeBuildFailed, le.Code)
}
