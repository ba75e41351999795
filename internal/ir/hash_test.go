package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRules() []Rule {
	return []Rule{
		{
			EntryOrGuid: 1200,
			SourceType:  SourceCreature,
			ID:          0,
			Link:        1,
			Event:       Event{Type: EventUpdateIC, Params: [5]uint32{1000, 2000, 5000, 6000}, Chance: 100},
			Action:      Action{Type: ActionCast, Params: [7]uint32{133}},
			Target:      Target{Type: TargetVictim},
		},
		{
			EntryOrGuid: 1200,
			SourceType:  SourceCreature,
			ID:          1,
			Event:       Event{Type: EventLink, Chance: 100},
			Action:      Action{Type: ActionTalk},
			Target:      Target{Type: TargetPosition, Pos: Position{X: 1.5, Y: -2.25}},
			Comment:     "yell after casting",
		},
	}
}

func TestRuleSetHashDeterminism(t *testing.T) {
	h1, err := RuleSetHash(sampleRules())
	require.NoError(t, err)
	h2, err := RuleSetHash(sampleRules())
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestRuleSetHashIgnoresComment(t *testing.T) {
	a := sampleRules()
	b := sampleRules()
	b[1].Comment = "different words"

	ha, err := RuleSetHash(a)
	require.NoError(t, err)
	hb, err := RuleSetHash(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)
}

func TestRuleSetHashChangesWithBehavior(t *testing.T) {
	base, err := RuleSetHash(sampleRules())
	require.NoError(t, err)

	mutations := map[string]func([]Rule){
		"chance":   func(r []Rule) { r[0].Event.Chance = 50 },
		"link":     func(r []Rule) { r[0].Link = 0 },
		"position": func(r []Rule) { r[1].Target.Pos.X = 1.501 },
		"order":    func(r []Rule) { r[0], r[1] = r[1], r[0] },
		"phase":    func(r []Rule) { r[0].Event.PhaseMask = PhaseMask(2) },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			rules := sampleRules()
			mutate(rules)
			h, err := RuleSetHash(rules)
			require.NoError(t, err)
			assert.NotEqual(t, base, h)
		})
	}
}

func TestHashWithDomainSeparation(t *testing.T) {
	data := []byte(`[]`)
	assert.NotEqual(t, hashWithDomain(DomainRuleSet, data), hashWithDomain(DomainTrace, data))
	assert.Equal(t, TraceHash(data), hashWithDomain(DomainTrace, data))
}

func TestFixedPoint(t *testing.T) {
	assert.Equal(t, int64(1500), FixedPoint(1.5))
	assert.Equal(t, int64(-2250), FixedPoint(-2.25))
	assert.Equal(t, int64(1), FixedPoint(0.0006))
}
