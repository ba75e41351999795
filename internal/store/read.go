package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/smartscript/internal/catalog"
	"github.com/roach88/smartscript/internal/condition"
	"github.com/roach88/smartscript/internal/ir"
)

// SetSummary describes one stored rule set without its rules.
type SetSummary struct {
	Source      ir.SourceType `json:"source_type"`
	EntryOrGuid int64         `json:"entry_or_guid"`
	Name        string        `json:"name"`
	Hash        string        `json:"hash"`
	Revision    int64         `json:"revision"`
	Rules       int           `json:"rules"`
}

// Summaries lists every stored set, ordered by source type then
// entry-or-guid. Returns an empty slice (not nil) for an empty store.
func (s *Store) Summaries(ctx context.Context) ([]SetSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rs.source_type, rs.entry_or_guid, rs.name, rs.hash, rs.revision,
		       (SELECT COUNT(*) FROM smart_scripts ss
		        WHERE ss.source_type = rs.source_type AND ss.entry_or_guid = rs.entry_or_guid)
		FROM rule_sets rs
		ORDER BY rs.source_type ASC, rs.entry_or_guid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	out := []SetSummary{}
	for rows.Next() {
		var sum SetSummary
		var source int64
		if err := rows.Scan(&source, &sum.EntryOrGuid, &sum.Name, &sum.Hash, &sum.Revision, &sum.Rules); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		sum.Source = ir.SourceType(source)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}
	return out, nil
}

// RuleSet reads one set. The bool is false when the set does not exist.
func (s *Store) RuleSet(ctx context.Context, source ir.SourceType, entryOrGuid int64) (ir.RuleSet, bool, error) {
	rs := ir.RuleSet{Source: source, EntryOrGuid: entryOrGuid}
	err := s.db.QueryRowContext(ctx, `
		SELECT name FROM rule_sets WHERE source_type = ? AND entry_or_guid = ?
	`, int64(source), entryOrGuid).Scan(&rs.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.RuleSet{}, false, nil
	}
	if err != nil {
		return ir.RuleSet{}, false, fmt.Errorf("read rule set: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+ruleColumns+`
		FROM smart_scripts
		WHERE source_type = ? AND entry_or_guid = ?
		ORDER BY position ASC
	`, int64(source), entryOrGuid)
	if err != nil {
		return ir.RuleSet{}, false, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return ir.RuleSet{}, false, err
		}
		rs.Rules = append(rs.Rules, r)
	}
	if err := rows.Err(); err != nil {
		return ir.RuleSet{}, false, fmt.Errorf("iterate rules: %w", err)
	}
	return rs, true, nil
}

// RuleSets reads every stored set with its rules, in summary order.
func (s *Store) RuleSets(ctx context.Context) ([]ir.RuleSet, error) {
	names := make(map[catalog.Key]string)
	sums, err := s.Summaries(ctx)
	if err != nil {
		return nil, err
	}
	for _, sum := range sums {
		names[catalog.Key{Source: sum.Source, EntryOrGuid: sum.EntryOrGuid}] = sum.Name
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+ruleColumns+`
		FROM smart_scripts
		ORDER BY source_type ASC, entry_or_guid ASC, position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	out := []ir.RuleSet{}
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		n := len(out)
		if n == 0 || out[n-1].Source != r.SourceType || out[n-1].EntryOrGuid != r.EntryOrGuid {
			k := catalog.Key{Source: r.SourceType, EntryOrGuid: r.EntryOrGuid}
			out = append(out, ir.RuleSet{Name: names[k], Source: k.Source, EntryOrGuid: k.EntryOrGuid})
			n++
		}
		out[n-1].Rules = append(out[n-1].Rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}
	return out, nil
}

// RulesByEvent lists every stored rule whose event is kind, across sets.
func (s *Store) RulesByEvent(ctx context.Context, kind ir.EventType) ([]ir.Rule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+ruleColumns+`
		FROM smart_scripts
		WHERE event_type = ?
		ORDER BY source_type ASC, entry_or_guid ASC, position ASC
	`, int64(kind))
	if err != nil {
		return nil, fmt.Errorf("query rules by event: %w", err)
	}
	defer rows.Close()

	out := []ir.Rule{}
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules by event: %w", err)
	}
	return out, nil
}

// Conditions reads every stored condition in key order.
func (s *Store) Conditions(ctx context.Context) ([]ir.Condition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_type, entry_or_guid, event_id, else_group, expr, comment
		FROM conditions
		ORDER BY source_type ASC, entry_or_guid ASC, event_id ASC, else_group ASC, expr COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query conditions: %w", err)
	}
	defer rows.Close()

	out := []ir.Condition{}
	for rows.Next() {
		var c ir.Condition
		var source, event, group int64
		if err := rows.Scan(&source, &c.EntryOrGuid, &event, &group, &c.Expr, &c.Comment); err != nil {
			return nil, fmt.Errorf("scan condition: %w", err)
		}
		c.Source, c.EventID, c.Group = ir.SourceType(source), uint32(event), uint32(group)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conditions: %w", err)
	}
	return out, nil
}

// LoadCatalog builds a catalog from every stored set.
func (s *Store) LoadCatalog(ctx context.Context, opts ...catalog.Option) (*catalog.Catalog, error) {
	sets, err := s.RuleSets(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	c := catalog.New(opts...)
	for _, rs := range sets {
		c.Replace(catalog.Key{Source: rs.Source, EntryOrGuid: rs.EntryOrGuid}, rs.Rules)
	}
	return c, nil
}

// LoadConditions adds every stored condition to set. A stored expression
// that no longer compiles fails the load.
func (s *Store) LoadConditions(ctx context.Context, set *condition.Set) error {
	conds, err := s.Conditions(ctx)
	if err != nil {
		return fmt.Errorf("load conditions: %w", err)
	}
	if err := set.Add(conds...); err != nil {
		return fmt.Errorf("load conditions: %w", err)
	}
	return nil
}
