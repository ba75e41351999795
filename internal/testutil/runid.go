// Package testutil holds deterministic helpers shared by tests and the
// scenario harness.
package testutil

// DefaultRunID is returned by a FixedRunID created with an empty id.
const DefaultRunID = "test-run-default"

// FixedRunID generates the same run id every time, so a scenario run with it
// produces byte-identical golden traces.
//
// Thread-safety: FixedRunID is stateless and safe for concurrent use.
type FixedRunID struct {
	id string
}

// NewFixedRunID creates a generator for id. The id is typically set in the
// scenario YAML:
//
//	run_id: "0190c5d2-0000-7000-8000-000000000001"
func NewFixedRunID(id string) *FixedRunID {
	if id == "" {
		id = DefaultRunID
	}
	return &FixedRunID{id: id}
}

// Generate returns the fixed run id.
func (g *FixedRunID) Generate() string {
	return g.id
}
