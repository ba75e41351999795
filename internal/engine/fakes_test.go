package engine

import (
	"cmp"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/smartscript/internal/catalog"
	"github.com/roach88/smartscript/internal/ir"
)

const (
	ownerID  ir.ObjectID = 1
	ownerEnt uint32      = 100
)

// fakeWorld implements the collaborators the engine tests need.
type fakeWorld struct {
	objects map[ir.ObjectID]ObjectInfo
	spawns  map[uint64]ir.ObjectID
	victim  ir.ObjectID
	threat  []ir.ObjectID
	engines map[ir.ObjectID]*Engine
	effects []Effect

	party      map[ir.ObjectID][]ir.ObjectID
	loot       []ir.ObjectID
	passengers []Passenger
	friends    map[ir.ObjectID]bool
	conditions func(key ConditionKey, actor, base ir.ObjectID) bool

	// failCasts makes the next n cast effects fail.
	failCasts int
}

func newFakeWorld() *fakeWorld {
	w := &fakeWorld{
		objects: make(map[ir.ObjectID]ObjectInfo),
		spawns:  make(map[uint64]ir.ObjectID),
		engines: make(map[ir.ObjectID]*Engine),
		party:   make(map[ir.ObjectID][]ir.ObjectID),
		friends: make(map[ir.ObjectID]bool),
	}
	w.add(ObjectInfo{ID: ownerID, Kind: ir.KindCreature, Entry: ownerEnt, Alive: true, Spawned: true, Health: 100, MaxHealth: 100})
	return w
}

func (w *fakeWorld) add(o ObjectInfo) {
	w.objects[o.ID] = o
	if o.SpawnID != 0 {
		w.spawns[o.SpawnID] = o.ID
	}
}

func (w *fakeWorld) update(id ir.ObjectID, fn func(o *ObjectInfo)) {
	o := w.objects[id]
	fn(&o)
	w.objects[id] = o
}

func (w *fakeWorld) Object(id ir.ObjectID) (ObjectInfo, bool) {
	o, ok := w.objects[id]
	return o, ok
}

func (w *fakeWorld) BySpawnID(_ ir.ObjectKind, spawnID uint64) (ir.ObjectID, bool) {
	id, ok := w.spawns[spawnID]
	return id, ok
}

func (w *fakeWorld) Victim(ir.ObjectID) (ir.ObjectID, bool) {
	return w.victim, w.victim.Valid()
}

func (w *fakeWorld) ThreatRanked(_ ir.ObjectID, _ ThreatOrder, _ int, _ ThreatFilter) []ir.ObjectID {
	return w.threat
}

func (w *fakeWorld) IsFriendly(_, b ir.ObjectID) bool { return w.friends[b] }

func (w *fakeWorld) matches(o ObjectInfo, f SpatialFilter) bool {
	switch {
	case o.ID == f.Exclude:
		return false
	case f.Kind != 0 && o.Kind != f.Kind:
		return false
	case f.UnitsOnly && !o.IsUnit():
		return false
	case f.Entry != 0 && o.Entry != f.Entry:
		return false
	case f.Life == LifeAlive && !o.Alive, f.Life == LifeDead && o.Alive:
		return false
	}
	return o.Spawned != f.Unspawned
}

func (w *fakeWorld) FindInRadius(origin ir.Position, radius float64, f SpatialFilter) []ir.ObjectID {
	var out []ir.ObjectID
	for _, o := range w.objects {
		if w.matches(o, f) && distance(origin, o.Pos) <= radius {
			out = append(out, o.ID)
		}
	}
	slices.SortFunc(out, func(a, b ir.ObjectID) int {
		da, db := distance(origin, w.objects[a].Pos), distance(origin, w.objects[b].Pos)
		if n := cmp.Compare(da, db); n != 0 {
			return n
		}
		return cmp.Compare(a, b)
	})
	return out
}

func (w *fakeWorld) FindNearest(origin ir.Position, maxRadius float64, f SpatialFilter) (ir.ObjectID, bool) {
	found := w.FindInRadius(origin, maxRadius, f)
	if len(found) == 0 {
		return ir.NoObject, false
	}
	return found[0], true
}

func (w *fakeWorld) Party(member ir.ObjectID) []ir.ObjectID { return w.party[member] }

func (w *fakeWorld) LootRecipients(ir.ObjectID) []ir.ObjectID { return w.loot }

func (w *fakeWorld) Passengers(ir.ObjectID) []Passenger { return w.passengers }

func (w *fakeWorld) Meets(key ConditionKey, actor, base ir.ObjectID) bool {
	if w.conditions == nil {
		return true
	}
	return w.conditions(key, actor, base)
}

func (w *fakeWorld) Apply(fx Effect) EffectResult {
	w.effects = append(w.effects, fx)
	if fx.Action.IsCast() && w.failCasts > 0 {
		w.failCasts--
		return EffectFailed
	}
	return EffectApplied
}

func (w *fakeWorld) Engine(id ir.ObjectID) (*Engine, bool) {
	e, ok := w.engines[id]
	return e, ok
}

// actions returns the action of every recorded effect, in order.
func (w *fakeWorld) actions() []ir.ActionType {
	out := make([]ir.ActionType, 0, len(w.effects))
	for _, fx := range w.effects {
		out = append(out, fx.Action)
	}
	return out
}

// ruleIDs returns the rule id of every recorded effect, in order.
func (w *fakeWorld) ruleIDs() []uint32 {
	out := make([]uint32, 0, len(w.effects))
	for _, fx := range w.effects {
		out = append(out, fx.RuleID)
	}
	return out
}

func (w *fakeWorld) collaborators(cat *catalog.Catalog) Collaborators {
	return Collaborators{
		Objects:    w,
		Spatial:    w,
		Combat:     w,
		Social:     w,
		Conditions: w,
		Effects:    w,
		Rules:      cat,
		Registry:   w,
	}
}

// newTestEngine creates an engine for the owner object with a seeded random
// source and registers it with the fake world.
func newTestEngine(t *testing.T, w *fakeWorld, cat *catalog.Catalog, opts ...Option) *Engine {
	t.Helper()
	return newTestEngineFor(t, w, cat, Owner{ID: ownerID, Source: ir.SourceCreature, Entry: ownerEnt}, opts...)
}

func newTestEngineFor(t *testing.T, w *fakeWorld, cat *catalog.Catalog, owner Owner, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithRand(rand.New(rand.NewPCG(7, 11)))}, opts...)
	e, err := New(owner, w.collaborators(cat), opts...)
	require.NoError(t, err)
	w.engines[owner.ID] = e
	return e
}

// rule builds a creature rule for the test owner.
func rule(id uint32, ev ir.EventType, act ir.ActionType, tgt ir.TargetType) ir.Rule {
	return ir.Rule{
		EntryOrGuid: int64(ownerEnt),
		SourceType:  ir.SourceCreature,
		ID:          id,
		Event:       ir.Event{Type: ev, Chance: 100},
		Action:      ir.Action{Type: act},
		Target:      ir.Target{Type: tgt},
	}
}

func timedRule(entry, id uint32, delay uint32, act ir.ActionType) ir.Rule {
	return ir.Rule{
		EntryOrGuid: int64(entry),
		SourceType:  ir.SourceTimedActionList,
		ID:          id,
		Event:       ir.Event{Type: ir.EventUpdate, Params: [5]uint32{delay, delay}, Chance: 100},
		Action:      ir.Action{Type: act},
		Target:      ir.Target{Type: ir.TargetSelf},
	}
}
