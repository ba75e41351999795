package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/smartscript/internal/ir"
)

// createTestStore opens a fresh database under t.TempDir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRule builds a creature rule with every column populated.
func createTestRule(entry int64, id uint32) ir.Rule {
	return ir.Rule{
		SourceType:  ir.SourceCreature,
		EntryOrGuid: entry,
		ID:          id,
		Link:        id + 1,
		Event: ir.Event{
			Type:      ir.EventUpdateIC,
			Params:    [5]uint32{1000, 2000, 3000, 4000, 5},
			Chance:    75,
			PhaseMask: ir.PhaseMask(2, 12),
			Flags:     ir.FlagDontReset,
		},
		Action: ir.Action{Type: ir.ActionCast, Params: [7]uint32{11, 12, 13, 14, 15, 16, 4294967295}},
		Target: ir.Target{
			Type:   ir.TargetPosition,
			Params: [4]uint32{21, 22, 23, 24},
			Pos:    ir.Position{X: 1.25, Y: -7.5, Z: 3, O: 0.5},
		},
		Comment: "rule " + string(rune('a'+id)),
	}
}

func createTestSet(entry int64, ids ...uint32) ir.RuleSet {
	rs := ir.RuleSet{Name: "set", Source: ir.SourceCreature, EntryOrGuid: entry}
	for _, id := range ids {
		rs.Rules = append(rs.Rules, createTestRule(entry, id))
	}
	return rs
}
