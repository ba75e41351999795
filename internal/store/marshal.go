package store

import (
	"fmt"

	"github.com/roach88/smartscript/internal/ir"
)

// ruleColumns lists smart_scripts columns in the order ruleArgs and
// scanRule use.
const ruleColumns = `source_type, entry_or_guid, id, link, position,
	event_type, event_phase_mask, event_chance, event_flags,
	event_param1, event_param2, event_param3, event_param4, event_param5,
	action_type, action_param1, action_param2, action_param3, action_param4,
	action_param5, action_param6, action_param7,
	target_type, target_param1, target_param2, target_param3, target_param4,
	target_x, target_y, target_z, target_o, comment`

const ruleColumnCount = 32

// ruleArgs flattens a rule into insert arguments.
func ruleArgs(r ir.Rule, position int) []any {
	args := make([]any, 0, ruleColumnCount)
	args = append(args,
		int64(r.SourceType), r.EntryOrGuid, int64(r.ID), int64(r.Link), position,
		int64(r.Event.Type), int64(r.Event.PhaseMask), int64(r.Event.Chance), int64(r.Event.Flags))
	for _, p := range r.Event.Params {
		args = append(args, int64(p))
	}
	args = append(args, int64(r.Action.Type))
	for _, p := range r.Action.Params {
		args = append(args, int64(p))
	}
	args = append(args, int64(r.Target.Type))
	for _, p := range r.Target.Params {
		args = append(args, int64(p))
	}
	pos := r.Target.Pos
	return append(args, pos.X, pos.Y, pos.Z, pos.O, r.Comment)
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanRule reads one smart_scripts row selected with ruleColumns.
func scanRule(sc scanner) (ir.Rule, error) {
	var (
		r        ir.Rule
		position int
		ints     [4 + 5 + 1 + 7 + 1 + 4]int64
		source   int64
		id, link int64
	)
	dest := []any{&source, &r.EntryOrGuid, &id, &link, &position}
	for i := range ints {
		dest = append(dest, &ints[i])
	}
	pos := &r.Target.Pos
	dest = append(dest, &pos.X, &pos.Y, &pos.Z, &pos.O, &r.Comment)
	if err := sc.Scan(dest...); err != nil {
		return ir.Rule{}, fmt.Errorf("scan rule: %w", err)
	}

	r.SourceType = ir.SourceType(source)
	r.ID = uint32(id)
	r.Link = uint32(link)
	r.Event.Type = ir.EventType(ints[0])
	r.Event.PhaseMask = uint32(ints[1])
	r.Event.Chance = uint32(ints[2])
	r.Event.Flags = ir.EventFlags(ints[3])
	for i := range r.Event.Params {
		r.Event.Params[i] = uint32(ints[4+i])
	}
	r.Action.Type = ir.ActionType(ints[9])
	for i := range r.Action.Params {
		r.Action.Params[i] = uint32(ints[10+i])
	}
	r.Target.Type = ir.TargetType(ints[17])
	for i := range r.Target.Params {
		r.Target.Params[i] = uint32(ints[18+i])
	}
	return r, nil
}
