package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnumNamesRoundTrip(t *testing.T) {
	for e := EventType(0); e < EventTypeCount; e++ {
		require.NotEmpty(t, e.String(), "event %d has no name", uint32(e))
		got, ok := ParseEventType(e.String())
		require.True(t, ok, e.String())
		assert.Equal(t, e, got)
	}
	for a := ActionType(0); a < ActionTypeCount; a++ {
		require.NotEmpty(t, a.String(), "action %d has no name", uint32(a))
		got, ok := ParseActionType(a.String())
		require.True(t, ok, a.String())
		assert.Equal(t, a, got)
	}
	for tt := TargetType(0); tt < TargetTypeCount; tt++ {
		require.NotEmpty(t, tt.String(), "target %d has no name", uint32(tt))
		got, ok := ParseTargetType(tt.String())
		require.True(t, ok, tt.String())
		assert.Equal(t, tt, got)
	}
}

func TestEnumNumbering(t *testing.T) {
	// Rule rows are stored by number; these must never move.
	assert.Equal(t, EventType(25), EventReset)
	assert.Equal(t, EventType(61), EventLink)
	assert.Equal(t, EventType(77), EventCounterSet)
	assert.Equal(t, ActionType(11), ActionCast)
	assert.Equal(t, ActionType(67), ActionCreateTimedEvent)
	assert.Equal(t, ActionType(80), ActionCallTimedActionList)
	assert.Equal(t, ActionType(148), ActionAddToStoredTargetList)
	assert.Equal(t, TargetType(12), TargetStored)
	assert.Equal(t, TargetType(30), TargetClosestUnspawnedGameObject)
}

func TestUnknownEnumStrings(t *testing.T) {
	assert.Equal(t, "event(500)", EventType(500).String())
	assert.Equal(t, "action(999)", ActionType(999).String())
	assert.False(t, TargetType(99).Known())
	_, ok := ParseEventType("no_such_event")
	assert.False(t, ok)
}

func TestIsTimed(t *testing.T) {
	assert.True(t, EventUpdate.IsTimed())
	assert.True(t, EventUpdateIC.IsTimed())
	assert.True(t, EventHealthPct.IsTimed())
	assert.False(t, EventAggro.IsTimed())
	assert.False(t, EventLink.IsTimed())
	assert.False(t, EventCounterSet.IsTimed())
}

func TestPhaseHelpers(t *testing.T) {
	assert.Equal(t, uint32(0), PhaseBit(0))
	assert.Equal(t, uint32(1), PhaseBit(1))
	assert.Equal(t, uint32(1<<11), PhaseBit(12))
	assert.Equal(t, uint32(0), PhaseBit(13))
	assert.Equal(t, uint32(0b101), PhaseMask(1, 3))
	assert.Equal(t, []uint32{1, 3}, Phases(0b101))
	assert.Equal(t, uint32(0xFFF), PhaseMaskAll)
}

func TestEventFlags(t *testing.T) {
	f := FlagNotRepeatable | FlagDontReset
	assert.True(t, f.Has(FlagNotRepeatable))
	assert.False(t, f.Has(FlagWhileCharmed))
	assert.Equal(t, []string{"not_repeatable", "dont_reset"}, f.Names())

	got, ok := ParseEventFlag("while_charmed")
	require.True(t, ok)
	assert.Equal(t, FlagWhileCharmed, got)
}

func TestRuleNormalize(t *testing.T) {
	r := Rule{Event: Event{Type: EventUpdateOOC, Params: [5]uint32{1000, 1000}}}
	assert.True(t, r.Normalize().Event.Flags.Has(FlagNotRepeatable))

	r.Event.Params[3] = 2000
	assert.False(t, r.Normalize().Event.Flags.Has(FlagNotRepeatable))

	r = Rule{Event: Event{Type: EventAggro, Flags: FlagTempIgnoreChanceRoll}}
	assert.Equal(t, EventFlags(0), r.Normalize().Event.Flags)
}

func TestSourceTypeNames(t *testing.T) {
	s, ok := ParseSourceType("timed_actionlist")
	require.True(t, ok)
	assert.Equal(t, SourceTimedActionList, s)
	assert.Equal(t, "gameobject", SourceGameObject.String())
	assert.False(t, SourceType(3).Known())
}

func TestRuleString(t *testing.T) {
	r := Rule{EntryOrGuid: -42, SourceType: SourceCreature, ID: 3,
		Event: Event{Type: EventAggro}, Action: Action{Type: ActionTalk}, Target: Target{Type: TargetVictim}}
	assert.Equal(t, "creature -42 #3 (aggro -> talk -> victim)", r.String())
	assert.True(t, r.IsSpawnOverride())
}
