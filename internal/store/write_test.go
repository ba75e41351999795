package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/smartscript/internal/ir"
)

func TestImportRuleSet_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rs := createTestSet(100, 2, 0, 1)

	res, err := s.ImportRuleSet(ctx, rs)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, int64(1), res.Revision)

	got, ok, err := s.RuleSet(ctx, ir.SourceCreature, 100)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rs, got, "rules keep import order and every column")
}

func TestImportRuleSet_Revisions(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rs := createTestSet(100, 0, 1)

	_, err := s.ImportRuleSet(ctx, rs)
	require.NoError(t, err)

	res, err := s.ImportRuleSet(ctx, rs)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, int64(1), res.Revision)

	rs.Rules[0].Comment = "edited"
	res, err = s.ImportRuleSet(ctx, rs)
	require.NoError(t, err)
	assert.False(t, res.Changed, "comments do not change the hash")
	got, _, err := s.RuleSet(ctx, ir.SourceCreature, 100)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Rules[0].Comment, "rows are rewritten anyway")

	rs.Rules = rs.Rules[:1]
	res, err = s.ImportRuleSet(ctx, rs)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, int64(2), res.Revision)

	got, _, err = s.RuleSet(ctx, ir.SourceCreature, 100)
	require.NoError(t, err)
	assert.Len(t, got.Rules, 1, "dropped rules are removed")
}

func TestImportRuleSet_DuplicateIDRollsBack(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.ImportRuleSet(ctx, createTestSet(100, 0))
	require.NoError(t, err)

	_, err = s.ImportRuleSet(ctx, createTestSet(100, 3, 3))
	require.Error(t, err)

	got, ok, err := s.RuleSet(ctx, ir.SourceCreature, 100)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got.Rules, 1)
	assert.Equal(t, uint32(0), got.Rules[0].ID, "failed import leaves the previous set")
}

func TestImportRuleSet_UsesSetKey(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	rs := createTestSet(-9, 0)
	rs.Rules[0].EntryOrGuid = 12345

	_, err := s.ImportRuleSet(ctx, rs)
	require.NoError(t, err)

	got, ok, err := s.RuleSet(ctx, ir.SourceCreature, -9)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(-9), got.Rules[0].EntryOrGuid)
}

func TestDeleteRuleSet_Cascades(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	_, err := s.ImportRuleSet(ctx, createTestSet(100, 0, 1))
	require.NoError(t, err)

	ok, err := s.DeleteRuleSet(ctx, ir.SourceCreature, 100)
	require.NoError(t, err)
	assert.True(t, ok)

	var n int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM smart_scripts").Scan(&n))
	assert.Zero(t, n)

	ok, err = s.DeleteRuleSet(ctx, ir.SourceCreature, 100)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReplaceConditions(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	c := ir.Condition{Source: ir.SourceCreature, EntryOrGuid: 100, EventID: 1, Group: 0, Expr: "Actor.Alive"}

	require.NoError(t, s.ReplaceConditions(ctx, []ir.Condition{c, c}))
	got, err := s.Conditions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ir.Condition{c}, got)

	require.NoError(t, s.ReplaceConditions(ctx, nil))
	got, err = s.Conditions(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}
