package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/smartscript/internal/ir"
)

func rule(source ir.SourceType, entryOrGuid int64, id uint32, ev ir.EventType) ir.Rule {
	return ir.Rule{
		SourceType:  source,
		EntryOrGuid: entryOrGuid,
		ID:          id,
		Event:       ir.Event{Type: ev, Chance: 100},
		Action:      ir.Action{Type: ir.ActionTalk},
		Target:      ir.Target{Type: ir.TargetSelf},
	}
}

func TestRulesPrefersSpawnOverride(t *testing.T) {
	c := New()
	c.Add(
		rule(ir.SourceCreature, 100, 0, ir.EventAggro),
		rule(ir.SourceCreature, 100, 1, ir.EventDeath),
		rule(ir.SourceCreature, -5001, 0, ir.EventEvade),
	)

	override := c.Rules(ir.SourceCreature, 100, 5001)
	require.Len(t, override, 1)
	assert.Equal(t, ir.EventEvade, override[0].Event.Type)

	template := c.Rules(ir.SourceCreature, 100, 5002)
	require.Len(t, template, 2)
	assert.Equal(t, ir.EventAggro, template[0].Event.Type)
	assert.Equal(t, ir.EventDeath, template[1].Event.Type)

	assert.Empty(t, c.Rules(ir.SourceGameObject, 100, 0))
}

func TestRulesReturnsCopy(t *testing.T) {
	c := New()
	c.Add(rule(ir.SourceCreature, 1, 0, ir.EventAggro))

	got := c.Rules(ir.SourceCreature, 1, 0)
	got[0].ID = 99

	again := c.Rules(ir.SourceCreature, 1, 0)
	assert.Equal(t, uint32(0), again[0].ID)
}

func TestAddNormalizes(t *testing.T) {
	c := New()
	r := rule(ir.SourceCreature, 1, 0, ir.EventUpdateOOC)
	r.Event.Params = [5]uint32{1000, 1000, 0, 0}
	c.Add(r)

	got := c.Rules(ir.SourceCreature, 1, 0)
	assert.True(t, got[0].Event.Flags.Has(ir.FlagNotRepeatable))
}

func TestDebugOnlyRules(t *testing.T) {
	r := rule(ir.SourceCreature, 1, 0, ir.EventAggro)
	r.Event.Flags = ir.FlagDebugOnly

	c := New()
	c.Add(r)
	assert.Empty(t, c.Rules(ir.SourceCreature, 1, 0))

	dbg := New(WithDebugRules())
	dbg.Add(r)
	assert.Len(t, dbg.Rules(ir.SourceCreature, 1, 0), 1)
}

func TestTimedListSortedByID(t *testing.T) {
	c := New()
	c.Add(
		rule(ir.SourceTimedActionList, 500, 2, ir.EventUpdate),
		rule(ir.SourceTimedActionList, 500, 0, ir.EventUpdate),
		rule(ir.SourceTimedActionList, 500, 1, ir.EventUpdate),
	)

	list := c.TimedList(500)
	require.Len(t, list, 3)
	assert.Equal(t, []uint32{0, 1, 2}, []uint32{list[0].ID, list[1].ID, list[2].ID})
}

func TestReplaceAndSwap(t *testing.T) {
	c := New()
	c.Add(rule(ir.SourceCreature, 1, 0, ir.EventAggro))

	k := Key{Source: ir.SourceCreature, EntryOrGuid: 1}
	c.Replace(k, []ir.Rule{rule(ir.SourceGameObject, 7, 3, ir.EventDeath)})
	got, ok := c.Set(k)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, ir.SourceCreature, got[0].SourceType, "Replace rewrites the owner key")
	assert.Equal(t, int64(1), got[0].EntryOrGuid)

	next := New()
	next.Add(rule(ir.SourceAreaTrigger, 9, 0, ir.EventAreaTriggerOnTrigger))
	c.Swap(next)
	assert.Equal(t, []Key{{Source: ir.SourceAreaTrigger, EntryOrGuid: 9}}, c.Keys())

	c.Replace(Key{Source: ir.SourceAreaTrigger, EntryOrGuid: 9}, nil)
	assert.Equal(t, 0, c.Len())
}

func TestKeysOrdered(t *testing.T) {
	c := New()
	c.Add(
		rule(ir.SourceGameObject, 3, 0, ir.EventAggro),
		rule(ir.SourceCreature, 10, 0, ir.EventAggro),
		rule(ir.SourceCreature, -2, 0, ir.EventAggro),
	)
	assert.Equal(t, []Key{
		{Source: ir.SourceCreature, EntryOrGuid: -2},
		{Source: ir.SourceCreature, EntryOrGuid: 10},
		{Source: ir.SourceGameObject, EntryOrGuid: 3},
	}, c.Keys())
}

func TestHashStable(t *testing.T) {
	c := New()
	c.Add(rule(ir.SourceCreature, 1, 0, ir.EventAggro))
	k := Key{Source: ir.SourceCreature, EntryOrGuid: 1}

	h1, err := c.Hash(k)
	require.NoError(t, err)
	h2, err := c.Hash(k)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}
