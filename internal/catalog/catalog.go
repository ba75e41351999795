// Package catalog is the in-memory rule store.
//
// Rule sets are keyed by (source type, entry-or-guid). A positive key is a
// template-wide set; a negative key is a spawn-specific override that takes
// precedence over its template when both exist. The catalog is read-mostly:
// engines read rule sets at creation, while hot reload replaces the whole
// content with Swap.
package catalog

import (
	"cmp"
	"slices"
	"sync"

	"github.com/roach88/smartscript/internal/ir"
)

// Key identifies one rule set.
type Key struct {
	Source      ir.SourceType `json:"source_type"`
	EntryOrGuid int64         `json:"entry_or_guid"`
}

// Catalog holds compiled rule sets.
//
// Thread-safety: all methods are safe for concurrent use. Returned slices
// are copies and may be modified by the caller.
type Catalog struct {
	mu    sync.RWMutex
	sets  map[Key][]ir.Rule
	debug bool
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithDebugRules keeps rules flagged debug_only when serving rule sets.
func WithDebugRules() Option {
	return func(c *Catalog) {
		c.debug = true
	}
}

// New creates an empty catalog.
func New(opts ...Option) *Catalog {
	c := &Catalog{sets: make(map[Key][]ir.Rule)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add appends rules to their sets, preserving the given order within each
// set. Rules are normalized on the way in.
func (c *Catalog) Add(rules ...ir.Rule) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range rules {
		k := Key{Source: r.SourceType, EntryOrGuid: r.EntryOrGuid}
		c.sets[k] = append(c.sets[k], r.Normalize())
	}
}

// Replace installs rules as the complete set for k. An empty slice removes it.
func (c *Catalog) Replace(k Key, rules []ir.Rule) {
	normalized := make([]ir.Rule, len(rules))
	for i, r := range rules {
		r.SourceType = k.Source
		r.EntryOrGuid = k.EntryOrGuid
		normalized[i] = r.Normalize()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(normalized) == 0 {
		delete(c.sets, k)
		return
	}
	c.sets[k] = normalized
}

// Swap replaces the whole content of c with the content of next.
// Engines created before the swap keep the rules they loaded.
func (c *Catalog) Swap(next *Catalog) {
	next.mu.RLock()
	sets := make(map[Key][]ir.Rule, len(next.sets))
	for k, v := range next.sets {
		sets[k] = slices.Clone(v)
	}
	next.mu.RUnlock()

	c.mu.Lock()
	c.sets = sets
	c.mu.Unlock()
}

// Set returns a copy of the rule set stored under k.
func (c *Catalog) Set(k Key) ([]ir.Rule, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rules, ok := c.sets[k]
	if !ok {
		return nil, false
	}
	return c.filter(rules), true
}

// Rules returns the rule set for an owner. A spawn-specific override
// (keyed by -spawnID) wins over the template set keyed by entry.
func (c *Catalog) Rules(source ir.SourceType, entry uint32, spawnID uint64) []ir.Rule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if spawnID != 0 {
		if rules, ok := c.sets[Key{Source: source, EntryOrGuid: -int64(spawnID)}]; ok {
			return c.filter(rules)
		}
	}
	return c.filter(c.sets[Key{Source: source, EntryOrGuid: int64(entry)}])
}

// TimedList returns the rules of a timed action list, ordered by id.
func (c *Catalog) TimedList(entry uint32) []ir.Rule {
	c.mu.RLock()
	rules := c.filter(c.sets[Key{Source: ir.SourceTimedActionList, EntryOrGuid: int64(entry)}])
	c.mu.RUnlock()
	slices.SortStableFunc(rules, func(a, b ir.Rule) int { return cmp.Compare(a.ID, b.ID) })
	return rules
}

// Keys returns all set keys ordered by source type then entry-or-guid.
func (c *Catalog) Keys() []Key {
	c.mu.RLock()
	keys := make([]Key, 0, len(c.sets))
	for k := range c.sets {
		keys = append(keys, k)
	}
	c.mu.RUnlock()
	slices.SortFunc(keys, func(a, b Key) int {
		if n := cmp.Compare(a.Source, b.Source); n != 0 {
			return n
		}
		return cmp.Compare(a.EntryOrGuid, b.EntryOrGuid)
	})
	return keys
}

// Len returns the number of rule sets.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sets)
}

// Hash returns the content hash of the set stored under k.
func (c *Catalog) Hash(k Key) (string, error) {
	rules, _ := c.Set(k)
	return ir.RuleSetHash(rules)
}

// filter copies rules, dropping debug-only rules unless enabled.
// Caller holds at least the read lock.
func (c *Catalog) filter(rules []ir.Rule) []ir.Rule {
	out := make([]ir.Rule, 0, len(rules))
	for _, r := range rules {
		if !c.debug && r.Event.Flags.Has(ir.FlagDebugOnly) {
			continue
		}
		out = append(out, r)
	}
	return out
}
