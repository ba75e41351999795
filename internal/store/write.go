package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/smartscript/internal/ir"
)

var insertRuleSQL = fmt.Sprintf(`INSERT INTO smart_scripts (%s) VALUES (%s)`,
	ruleColumns, strings.TrimSuffix(strings.Repeat("?, ", ruleColumnCount), ", "))

// ImportResult describes what ImportRuleSet did to a set.
type ImportResult struct {
	Hash     string `json:"hash"`
	Revision int64  `json:"revision"`
	Changed  bool   `json:"changed"`
}

// ImportRuleSet replaces the stored rules of rs's key with rs.Rules in one
// transaction. Rows are always rewritten; the revision advances only when
// the set's content hash changes. Comments are not part of the hash.
func (s *Store) ImportRuleSet(ctx context.Context, rs ir.RuleSet) (ImportResult, error) {
	hash, err := ir.RuleSetHash(rs.Rules)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import rule set: %w", err)
	}
	res := ImportResult{Hash: hash, Revision: 1, Changed: true}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import rule set: begin: %w", err)
	}
	defer tx.Rollback()

	var oldHash string
	var oldRevision int64
	err = tx.QueryRowContext(ctx, `
		SELECT hash, revision FROM rule_sets
		WHERE source_type = ? AND entry_or_guid = ?
	`, int64(rs.Source), rs.EntryOrGuid).Scan(&oldHash, &oldRevision)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return ImportResult{}, fmt.Errorf("import rule set: read revision: %w", err)
	case oldHash == hash:
		res.Revision, res.Changed = oldRevision, false
	default:
		res.Revision = oldRevision + 1
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO rule_sets (source_type, entry_or_guid, name, hash, revision)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (source_type, entry_or_guid)
		DO UPDATE SET name = excluded.name, hash = excluded.hash, revision = excluded.revision
	`, int64(rs.Source), rs.EntryOrGuid, rs.Name, hash, res.Revision)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import rule set: write set: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM smart_scripts WHERE source_type = ? AND entry_or_guid = ?
	`, int64(rs.Source), rs.EntryOrGuid); err != nil {
		return ImportResult{}, fmt.Errorf("import rule set: clear rules: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertRuleSQL)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import rule set: prepare: %w", err)
	}
	defer stmt.Close()
	for i, r := range rs.Rules {
		r.SourceType, r.EntryOrGuid = rs.Source, rs.EntryOrGuid
		if _, err := stmt.ExecContext(ctx, ruleArgs(r, i)...); err != nil {
			return ImportResult{}, fmt.Errorf("import rule set: rule %d: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return ImportResult{}, fmt.Errorf("import rule set: commit: %w", err)
	}
	return res, nil
}

// DeleteRuleSet removes a set and its rules. Reports whether it existed.
func (s *Store) DeleteRuleSet(ctx context.Context, source ir.SourceType, entryOrGuid int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM rule_sets WHERE source_type = ? AND entry_or_guid = ?
	`, int64(source), entryOrGuid)
	if err != nil {
		return false, fmt.Errorf("delete rule set: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete rule set: %w", err)
	}
	return n > 0, nil
}

// ReplaceConditions replaces every stored condition with conds.
// Uses INSERT OR IGNORE so repeated identical conditions collapse.
func (s *Store) ReplaceConditions(ctx context.Context, conds []ir.Condition) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("replace conditions: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM conditions`); err != nil {
		return fmt.Errorf("replace conditions: clear: %w", err)
	}
	for _, c := range conds {
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO conditions
			(source_type, entry_or_guid, event_id, else_group, expr, comment)
			VALUES (?, ?, ?, ?, ?, ?)
		`, int64(c.Source), c.EntryOrGuid, int64(c.EventID), int64(c.Group), c.Expr, c.Comment)
		if err != nil {
			return fmt.Errorf("replace conditions: %s: %w", c, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("replace conditions: commit: %w", err)
	}
	return nil
}
