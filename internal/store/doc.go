// Package store provides SQLite-backed storage for compiled rule sets and
// their conditions.
//
// Tables:
//   - rule_sets: one row per (source_type, entry_or_guid) with the content
//     hash and a revision that advances when the hash changes
//   - smart_scripts: one row per rule, in the classic flat column layout
//   - conditions: boolean expressions keyed by (source_type,
//     entry_or_guid, event_id) and OR-ed across else_group
//
// # Deterministic Query Results
//
// Every multi-row query orders by source_type, entry_or_guid and then the
// rule's position within its set, so a catalog loaded from the store is
// identical to the one that was imported.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Rules cascade with their set
//
// Set hashes come from ir.RuleSetHash (canonical JSON, SHA-256 with domain
// separation).
package store
