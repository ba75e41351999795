// Package world is an in-memory reference world implementing every engine
// collaborator.
//
// It keeps an arena of objects keyed by id, a 2D spatial index built on the
// chipmunk space from jakecoffman/cp, threat lists, parties, loot taps,
// vehicle seats, the registry of running engines and the log of applied
// effects. The harness and the CLI simulator drive scripted objects through
// it; it is not a game simulation and applies only the handful of effect
// consequences scripts commonly observe (auras, death, despawn, movement).
package world

import (
	"cmp"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/roach88/smartscript/internal/engine"
	"github.com/roach88/smartscript/internal/ir"
)

// Object is one world object as the world stores it.
type Object struct {
	engine.ObjectInfo
	// Faction decides friendliness: objects of the same nonzero faction
	// are friendly.
	Faction uint32
}

// World holds the objects and relations of one simulation.
//
// Thread-safety: World is safe for concurrent use. No world lock is held
// while an engine runs, so engines may call back into the world freely.
type World struct {
	mu      sync.RWMutex
	objects map[ir.ObjectID]*Object
	spawns  map[spawnKey]ir.ObjectID
	index   *spatialIndex

	victims    map[ir.ObjectID]ir.ObjectID
	threat     map[ir.ObjectID][]threatEntry
	parties    map[ir.ObjectID]uint32
	loot       map[ir.ObjectID][]ir.ObjectID
	passengers map[ir.ObjectID][]engine.Passenger

	engines map[ir.ObjectID]*engine.Engine

	effects   []Record
	clock     *engine.Clock
	castFails map[uint32]int

	log *slog.Logger
}

type spawnKey struct {
	kind    ir.ObjectKind
	spawnID uint64
}

// Option configures a World.
type Option func(*World)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *World) {
		w.log = l
	}
}

// New creates an empty world.
func New(opts ...Option) *World {
	w := &World{
		objects:    make(map[ir.ObjectID]*Object),
		spawns:     make(map[spawnKey]ir.ObjectID),
		index:      newSpatialIndex(),
		victims:    make(map[ir.ObjectID]ir.ObjectID),
		threat:     make(map[ir.ObjectID][]threatEntry),
		parties:    make(map[ir.ObjectID]uint32),
		loot:       make(map[ir.ObjectID][]ir.ObjectID),
		passengers: make(map[ir.ObjectID][]engine.Passenger),
		engines:    make(map[ir.ObjectID]*engine.Engine),
		clock:      engine.NewClock(),
		castFails:  make(map[uint32]int),
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Add places an object in the world. Its id must be unused.
func (w *World) Add(o Object) error {
	if !o.ID.Valid() {
		return fmt.Errorf("world: object id must be nonzero")
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.objects[o.ID]; ok {
		return fmt.Errorf("world: object %d already exists", o.ID)
	}
	o.Auras = maps.Clone(o.Auras)
	w.objects[o.ID] = &o
	if o.SpawnID != 0 {
		w.spawns[spawnKey{o.Kind, o.SpawnID}] = o.ID
	}
	w.index.insert(o.ID, o.Kind, o.Pos)
	w.log.Debug("object added", "object", uint64(o.ID), "kind", o.Kind.String(), "entry", o.Entry)
	return nil
}

// Remove deletes an object together with its relations and engine. Ids
// held elsewhere simply stop resolving.
func (w *World) Remove(id ir.ObjectID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	o, ok := w.objects[id]
	if !ok {
		return false
	}
	delete(w.objects, id)
	if o.SpawnID != 0 {
		delete(w.spawns, spawnKey{o.Kind, o.SpawnID})
	}
	w.index.remove(id)
	delete(w.victims, id)
	delete(w.threat, id)
	delete(w.parties, id)
	delete(w.loot, id)
	delete(w.passengers, id)
	delete(w.engines, id)
	w.log.Debug("object removed", "object", uint64(id))
	return true
}

// Update applies fn to the stored object and reindexes it if it moved.
func (w *World) Update(id ir.ObjectID, fn func(o *Object)) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.update(id, fn)
}

func (w *World) update(id ir.ObjectID, fn func(o *Object)) bool {
	o, ok := w.objects[id]
	if !ok {
		return false
	}
	before := o.Pos
	fn(o)
	if o.Pos != before {
		w.index.move(id, o.Kind, o.Pos)
	}
	return true
}

// Get returns a copy of the stored object.
func (w *World) Get(id ir.ObjectID) (Object, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	o, ok := w.objects[id]
	if !ok {
		return Object{}, false
	}
	return *o, true
}

// IDs returns every object id in ascending order.
func (w *World) IDs() []ir.ObjectID {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Sorted(maps.Keys(w.objects))
}

// Object implements engine.Objects.
func (w *World) Object(id ir.ObjectID) (engine.ObjectInfo, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	o, ok := w.objects[id]
	if !ok {
		return engine.ObjectInfo{}, false
	}
	return o.ObjectInfo, true
}

// BySpawnID implements engine.Objects.
func (w *World) BySpawnID(kind ir.ObjectKind, spawnID uint64) (ir.ObjectID, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	id, ok := w.spawns[spawnKey{kind, spawnID}]
	return id, ok
}

// Collaborators returns the engine collaborators backed by w. Conditions
// may be nil.
func (w *World) Collaborators(rules engine.RuleSource, conds engine.Conditions) engine.Collaborators {
	return engine.Collaborators{
		Objects:    w,
		Spatial:    w,
		Combat:     w,
		Social:     w,
		Conditions: conds,
		Effects:    w,
		Rules:      rules,
		Registry:   w,
	}
}

// Script creates and registers an engine for an existing object, loading
// its rules by kind, entry and spawn id.
func (w *World) Script(id ir.ObjectID, rules engine.RuleSource, conds engine.Conditions, opts ...engine.Option) (*engine.Engine, error) {
	o, ok := w.Get(id)
	if !ok {
		return nil, fmt.Errorf("world: no object %d", id)
	}
	source, err := sourceFor(o.Kind)
	if err != nil {
		return nil, err
	}
	e, err := engine.New(engine.Owner{ID: id, Source: source, Entry: o.Entry, SpawnID: o.SpawnID}, w.Collaborators(rules, conds), opts...)
	if err != nil {
		return nil, fmt.Errorf("world: script object %d: %w", id, err)
	}
	w.mu.Lock()
	w.engines[id] = e
	w.mu.Unlock()
	return e, nil
}

func sourceFor(kind ir.ObjectKind) (ir.SourceType, error) {
	switch kind {
	case ir.KindCreature:
		return ir.SourceCreature, nil
	case ir.KindGameObject:
		return ir.SourceGameObject, nil
	case ir.KindAreaTrigger:
		return ir.SourceAreaTriggerEntity, nil
	}
	return 0, fmt.Errorf("world: %s objects cannot run scripts", kind)
}

// Engine implements engine.Registry.
func (w *World) Engine(id ir.ObjectID) (*engine.Engine, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.engines[id]
	return e, ok
}

// Engines returns the registered engines ordered by object id.
func (w *World) Engines() []*engine.Engine {
	w.mu.RLock()
	defer w.mu.RUnlock()
	ids := slices.Sorted(maps.Keys(w.engines))
	out := make([]*engine.Engine, 0, len(ids))
	for _, id := range ids {
		out = append(out, w.engines[id])
	}
	return out
}

// Tick updates every registered engine by diff, in object id order.
func (w *World) Tick(diff time.Duration) {
	for _, e := range w.Engines() {
		e.Update(diff)
	}
}

// sortByDistance orders ids by distance from origin, then id.
func (w *World) sortByDistance(origin ir.Position, ids []ir.ObjectID) {
	slices.SortFunc(ids, func(a, b ir.ObjectID) int {
		da := distance(origin, w.objects[a].Pos)
		db := distance(origin, w.objects[b].Pos)
		if n := cmp.Compare(da, db); n != 0 {
			return n
		}
		return cmp.Compare(a, b)
	})
}
