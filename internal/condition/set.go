// Package condition implements the engine's condition collaborator.
//
// Conditions are boolean expr-lang expressions attached to a rule by
// (source type, entry-or-guid, event id). They are compiled once when
// loaded and evaluated against an Env built from the actor and the base
// object on every match.
package condition

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/roach88/smartscript/internal/engine"
	"github.com/roach88/smartscript/internal/ir"
)

type compiled struct {
	cond    ir.Condition
	program *vm.Program
}

// Set holds compiled conditions keyed by rule.
//
// Thread-safety: Set is safe for concurrent use. Swap replaces the contents
// atomically so a reload never exposes a half-built set.
type Set struct {
	mu      sync.RWMutex
	byKey   map[engine.ConditionKey][]compiled
	objects engine.Objects
	log     *slog.Logger
}

// Option configures a Set.
type Option func(*Set)

// WithLogger sets the logger used for evaluation errors.
func WithLogger(l *slog.Logger) Option {
	return func(s *Set) {
		s.log = l
	}
}

// New creates an empty set resolving actor and base through objects.
func New(objects engine.Objects, opts ...Option) *Set {
	s := &Set{
		byKey:   make(map[engine.ConditionKey][]compiled),
		objects: objects,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// KeyOf returns the engine key a condition is attached to.
func KeyOf(c ir.Condition) engine.ConditionKey {
	return engine.ConditionKey{EntryOrGuid: c.EntryOrGuid, EventID: c.EventID, Source: c.Source}
}

// Compile checks that src is a valid boolean condition expression.
func Compile(src string) (*vm.Program, error) {
	return expr.Compile(src, expr.Env(Env{}), expr.AsBool())
}

// Add compiles and attaches conditions. Nothing is added if any fails.
func (s *Set) Add(conds ...ir.Condition) error {
	out := make([]compiled, 0, len(conds))
	for _, c := range conds {
		prog, err := Compile(c.Expr)
		if err != nil {
			return fmt.Errorf("compile condition %s: %w", c, err)
		}
		out = append(out, compiled{cond: c, program: prog})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range out {
		k := KeyOf(c.cond)
		s.byKey[k] = append(s.byKey[k], c)
	}
	return nil
}

// Swap replaces the contents of s with those of next.
func (s *Set) Swap(next *Set) {
	next.mu.RLock()
	byKey := next.byKey
	next.mu.RUnlock()

	s.mu.Lock()
	s.byKey = byKey
	s.mu.Unlock()
}

// Len returns the number of conditions.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, cs := range s.byKey {
		n += len(cs)
	}
	return n
}

// Conditions returns all conditions ordered by key, group and insertion.
func (s *Set) Conditions() []ir.Condition {
	s.mu.RLock()
	var out []ir.Condition
	for _, cs := range s.byKey {
		for _, c := range cs {
			out = append(out, c.cond)
		}
	}
	s.mu.RUnlock()
	slices.SortStableFunc(out, func(a, b ir.Condition) int {
		if n := cmp.Compare(a.Source, b.Source); n != 0 {
			return n
		}
		if n := cmp.Compare(a.EntryOrGuid, b.EntryOrGuid); n != 0 {
			return n
		}
		if n := cmp.Compare(a.EventID, b.EventID); n != 0 {
			return n
		}
		return cmp.Compare(a.Group, b.Group)
	})
	return out
}

// Meets implements engine.Conditions. A rule without conditions always
// passes. Otherwise it passes when every condition of at least one group
// holds. An expression that fails to run counts as false.
func (s *Set) Meets(key engine.ConditionKey, actor, base ir.ObjectID) bool {
	s.mu.RLock()
	conds := s.byKey[key]
	s.mu.RUnlock()
	if len(conds) == 0 {
		return true
	}

	env := Env{
		Actor: s.view(actor),
		Base:  s.view(base),
		Event: key.EventID,
	}

	groups := make(map[uint32]bool)
	var order []uint32
	for _, c := range conds {
		ok, seen := groups[c.cond.Group]
		if !seen {
			order = append(order, c.cond.Group)
			ok = true
		}
		if ok {
			ok = s.eval(c, env)
		}
		groups[c.cond.Group] = ok
	}
	for _, g := range order {
		if groups[g] {
			return true
		}
	}
	return false
}

func (s *Set) eval(c compiled, env Env) bool {
	out, err := vm.Run(c.program, env)
	if err != nil {
		s.log.Warn("condition error",
			"source_type", c.cond.Source.String(),
			"entry", c.cond.EntryOrGuid,
			"rule_id", c.cond.EventID,
			"error", err)
		return false
	}
	ok, _ := out.(bool)
	return ok
}

func (s *Set) view(id ir.ObjectID) Object {
	if !id.Valid() || s.objects == nil {
		return Object{}
	}
	return viewOf(s.objects.Object(id))
}
