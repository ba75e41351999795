package engine

import (
	"errors"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/roach88/smartscript/internal/ir"
)

// Owner identifies the object an engine drives and the rule set it loads.
type Owner struct {
	ID      ir.ObjectID
	Source  ir.SourceType
	Entry   uint32
	SpawnID uint64
}

// Trigger is the payload of a raised event.
type Trigger struct {
	// Actor is the unit or object that caused the event; it becomes the
	// invoker of every rule the event fires.
	Actor  ir.ObjectID
	Value0 uint32
	Value1 uint32
	Flag   bool
	Spell  uint32
	Object ir.ObjectID
	Text   string
}

// Stats counts what happened on one engine since creation.
type Stats struct {
	Dispatched     uint64 `json:"dispatched"`
	Executed       uint64 `json:"executed"`
	ChanceFailures uint64 `json:"chance_failures"`
	Retries        uint64 `json:"retries"`
	DroppedEvents  uint64 `json:"dropped_events"`
	MissingLinks   uint64 `json:"missing_links"`
	ConfigErrors   uint64 `json:"config_errors"`
}

// Engine is the SmartScript interpreter for one world object.
//
// The engine is synchronous: RaiseEvent and Update run every matching rule
// to completion before returning, and nothing blocks. One owning goroutine
// normally drives it, but every public method takes the engine lock so a
// reset from another call path cannot interleave with a tick.
//
// Cross-engine calls (set data, set counter, timed action lists on targets)
// carry a call chain. An engine already locked on the same chain is entered
// without relocking, so A -> B -> A recursion is bounded by the depth guard
// rather than deadlocking.
//
// INVARIANTS:
//   - rules are iterated from a snapshot; rules installed during dispatch
//     wait in the install queue until the next tick
//   - within a tick rules run in ascending (priority, insertion order)
//   - the engine never holds object pointers, only ids
type Engine struct {
	mu    sync.Mutex
	chain *callChain

	owner Owner
	base  ir.ObjectID
	deps  Collaborators
	log   *slog.Logger
	rng   *rand.Rand

	events      []*holder
	installs    []*holder
	stored      map[uint32]*holder
	storedOrder []uint32
	removals    []uint32

	timed      []*holder
	timedEntry uint32
	timedGen   uint64

	counters    map[uint32]uint32
	targetLists map[uint32][]ir.ObjectID
	phase       uint32
	lastInvoker ir.ObjectID

	depth      *DepthGuard
	order      *Clock
	priorities *Clock
	sortNeeded bool
	stats      Stats
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxDepth sets the nested dispatch ceiling (default 10).
func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		e.depth = NewDepthGuard(n)
	}
}

// WithRand sets the random source used for timers, chance rolls and
// random selections. Tests pass a seeded source for determinism.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = r
	}
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithRegistry sets the registry used for cross-engine calls.
func WithRegistry(r Registry) Option {
	return func(e *Engine) {
		e.deps.Registry = r
	}
}

// ErrMissingCollaborator is returned by New when a required collaborator is nil.
var ErrMissingCollaborator = errors.New("engine: Objects, Effects and Rules collaborators are required")

// New creates an engine for owner and loads its rule set: the spawn
// override when one exists, the template set otherwise. Initial timers are
// computed immediately; no event is raised until Initialize.
func New(owner Owner, deps Collaborators, opts ...Option) (*Engine, error) {
	if deps.Objects == nil || deps.Effects == nil || deps.Rules == nil {
		return nil, ErrMissingCollaborator
	}

	e := &Engine{
		owner:       owner,
		base:        owner.ID,
		deps:        deps,
		log:         slog.Default(),
		rng:         rand.New(rand.NewPCG(uint64(owner.ID), uint64(owner.Entry))),
		stored:      make(map[uint32]*holder),
		counters:    make(map[uint32]uint32),
		targetLists: make(map[uint32][]ir.ObjectID),
		depth:       NewDepthGuard(DefaultMaxDepth),
		order:       NewClock(),
		priorities:  NewClock(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.With("owner", uint64(owner.ID), "source_type", owner.Source.String(), "entry", owner.Entry)

	for _, r := range deps.Rules.Rules(owner.Source, owner.Entry, owner.SpawnID) {
		h := e.newHolder(r, listEvents)
		e.initTimer(h)
		e.events = append(e.events, h)
	}
	e.log.Debug("rules loaded", "count", len(e.events), "spawn_id", owner.SpawnID)
	return e, nil
}

// Owner returns the identity the engine was created for.
func (e *Engine) Owner() Owner {
	return e.owner
}

// Initialize raises the AI-init and just-created events, in that order.
// Call it once after the owning object has spawned.
func (e *Engine) Initialize() {
	release := e.acquire(nil)
	defer release()
	e.raiseEvent(ir.EventAIInit, Trigger{})
	e.mergeInstalls()
	e.raiseEvent(ir.EventJustCreated, Trigger{})
}

// RaiseEvent dispatches one logical event to every matching rule.
func (e *Engine) RaiseEvent(kind ir.EventType, t Trigger) {
	release := e.acquire(nil)
	defer release()
	e.raiseEvent(kind, t)
}

// Update advances the engine by diff. Millisecond precision.
func (e *Engine) Update(diff time.Duration) {
	release := e.acquire(nil)
	defer release()
	e.update(uint32(diff / time.Millisecond))
}

// Reset reinitializes timers of all rules not flagged dont_reset, clears
// run-once and priority overrides and the last invoker, restores the base
// object and raises the reset event. Counters and stored lists survive.
func (e *Engine) Reset() {
	release := e.acquire(nil)
	defer release()
	e.reset()
}

// Install queues rules that join the live rule list before the next tick.
func (e *Engine) Install(rules ...ir.Rule) {
	release := e.acquire(nil)
	defer release()
	for _, r := range rules {
		h := e.newHolder(r.Normalize(), listEvents)
		e.initTimer(h)
		e.installs = append(e.installs, h)
	}
}

// StoreCounter adds value to counter id, or overwrites it when reset is
// true, then raises counter_set for id.
func (e *Engine) StoreCounter(id, value uint32, reset bool) {
	release := e.acquire(nil)
	defer release()
	e.storeCounter(id, value, reset)
}

// StoreTargetList replaces stored list id.
func (e *Engine) StoreTargetList(id uint32, objects []ir.ObjectID) {
	release := e.acquire(nil)
	defer release()
	e.storeTargetList(id, objects)
}

// AppendTargetList appends to stored list id, creating it if absent.
func (e *Engine) AppendTargetList(id uint32, objects []ir.ObjectID) {
	release := e.acquire(nil)
	defer release()
	e.appendTargetList(id, objects)
}

// SetTimedActionList replaces the active timed action list with the rules
// of entry whose id is at least startFrom. The list runs regardless of
// combat state.
func (e *Engine) SetTimedActionList(entry uint32, invoker ir.ObjectID, startFrom uint32) {
	release := e.acquire(nil)
	defer release()
	e.setTimedActionList(entry, invoker, startFrom, TimedListAlways, true)
}

// SetPhase sets the current phase, raising event_phase_change on change.
func (e *Engine) SetPhase(phase uint32) {
	release := e.acquire(nil)
	defer release()
	e.setPhase(phase)
}

// Counter returns the value of counter id.
func (e *Engine) Counter(id uint32) uint32 {
	release := e.acquire(nil)
	defer release()
	return e.counters[id]
}

// Phase returns the current phase, 0 for none.
func (e *Engine) Phase() uint32 {
	release := e.acquire(nil)
	defer release()
	return e.phase
}

// StoredTargets returns the live re-resolution of stored list id: ids of
// objects that no longer exist are dropped.
func (e *Engine) StoredTargets(id uint32) []ir.ObjectID {
	release := e.acquire(nil)
	defer release()
	return e.storedTargets(id)
}

// TimedActionList returns the entry of the active timed action list and
// the ids of its rules that are currently enabled.
func (e *Engine) TimedActionList() (entry uint32, enabled []uint32) {
	release := e.acquire(nil)
	defer release()
	for _, h := range e.timed {
		if h.enabled {
			enabled = append(enabled, h.rule.ID)
		}
	}
	return e.timedEntry, enabled
}

// LastInvoker returns the actor of the most recent executed action.
func (e *Engine) LastInvoker() ir.ObjectID {
	release := e.acquire(nil)
	defer release()
	return e.lastInvoker
}

// BaseObject returns the current base object, which an action may have
// overridden.
func (e *Engine) BaseObject() ir.ObjectID {
	release := e.acquire(nil)
	defer release()
	return e.base
}

// RuleState is an introspection view of one live rule.
type RuleState struct {
	ID       uint32
	Kind     ir.EventType
	Timer    uint32
	Active   bool
	RunOnce  bool
	Priority uint32
}

// Rules returns the live rule list in processing order.
func (e *Engine) Rules() []RuleState {
	release := e.acquire(nil)
	defer release()
	out := make([]RuleState, 0, len(e.events))
	for _, h := range e.events {
		out = append(out, RuleState{
			ID:       h.rule.ID,
			Kind:     h.kind,
			Timer:    h.timer,
			Active:   h.active,
			RunOnce:  h.runOnce,
			Priority: h.priority,
		})
	}
	return out
}

// Stats returns a copy of the engine counters.
func (e *Engine) Stats() Stats {
	release := e.acquire(nil)
	defer release()
	s := e.stats
	s.DroppedEvents = uint64(e.depth.Dropped())
	return s
}

// callChain records the engines locked by one outermost call.
type callChain struct {
	held map[*Engine]struct{}
}

// acquire locks the engine unless it is already held by chain c.
// It returns the release function for the caller to defer.
func (e *Engine) acquire(c *callChain) func() {
	if c != nil {
		if _, ok := c.held[e]; ok {
			return func() {}
		}
	} else {
		c = &callChain{held: make(map[*Engine]struct{})}
	}
	e.mu.Lock()
	c.held[e] = struct{}{}
	e.chain = c
	return func() {
		delete(c.held, e)
		e.chain = nil
		e.mu.Unlock()
	}
}

// peer returns the engine driving id: this engine for its own base object,
// otherwise whatever the registry knows.
func (e *Engine) peer(id ir.ObjectID) (*Engine, bool) {
	if id == e.base || id == e.owner.ID {
		return e, true
	}
	if e.deps.Registry == nil {
		return nil, false
	}
	return e.deps.Registry.Engine(id)
}

// onPeer runs fn against the engine driving id, entering it on the current
// call chain. It reports whether such an engine exists.
func (e *Engine) onPeer(id ir.ObjectID, fn func(p *Engine)) bool {
	p, ok := e.peer(id)
	if !ok {
		return false
	}
	if p == e {
		fn(e)
		return true
	}
	release := p.acquire(e.chain)
	defer release()
	fn(p)
	return true
}

// mergeInstalls moves queued rules into the live list.
func (e *Engine) mergeInstalls() {
	if len(e.installs) == 0 {
		return
	}
	e.events = append(e.events, e.installs...)
	e.installs = nil
	e.sortNeeded = true
}

// snapshot copies the live rule list for iteration.
func (e *Engine) snapshot() []*holder {
	return slices.Clone(e.events)
}
