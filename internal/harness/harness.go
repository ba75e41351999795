package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/smartscript/internal/catalog"
	"github.com/roach88/smartscript/internal/compiler"
	"github.com/roach88/smartscript/internal/condition"
	"github.com/roach88/smartscript/internal/engine"
	"github.com/roach88/smartscript/internal/ir"
	"github.com/roach88/smartscript/internal/testutil"
	"github.com/roach88/smartscript/internal/world"
)

// Harness runs one scenario against a fresh reference world.
type Harness struct {
	world  *world.World
	rules  *catalog.Catalog
	conds  *condition.Set
	seed   uint64
	runIDs RunIDGenerator
	logger *slog.Logger
}

// Option configures a run.
type Option func(*Harness)

// WithRunIDGenerator sets the run id source (default UUIDv7Generator). A
// run_id set in the scenario takes precedence.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(h *Harness) {
		h.runIDs = g
	}
}

// WithLogger sets the logger handed to the world, conditions and engines.
// Logs are discarded by default.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = l
	}
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Compile the rules directory into a catalog and a condition set
//  2. Build the world and attach an engine to every scripted object
//  3. Initialize the engines in object id order (trace step 0)
//  4. Execute the steps (trace steps 1..n)
//  5. Evaluate assertions against the trace and the final world
//
// An error is returned when the scenario cannot be executed; failed
// assertions are reported in the result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{
		seed:   scenario.Seed,
		runIDs: UUIDv7Generator{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	if scenario.RunID != "" {
		h.runIDs = testutil.NewFixedRunID(scenario.RunID)
	}

	compiled, errs := compiler.LoadDir(scenario.Rules, compiler.LoadModeCollectAll)
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to load rules: %w", errors.Join(errs...))
	}
	h.world = world.New(world.WithLogger(h.logger))
	h.rules = compiled.Catalog()
	h.conds = condition.New(h.world, condition.WithLogger(h.logger))
	if err := h.conds.Add(compiled.Conditions...); err != nil {
		return nil, fmt.Errorf("failed to compile conditions: %w", err)
	}

	for _, o := range scenario.Objects {
		if err := h.world.Add(objectFrom(o)); err != nil {
			return nil, err
		}
	}
	var scripted []*engine.Engine
	for _, o := range scenario.Objects {
		h.relate(o)
		if !o.scripted() {
			continue
		}
		e, err := h.script(o.ID)
		if err != nil {
			return nil, err
		}
		scripted = append(scripted, e)
	}

	result := NewResult(h.runIDs.Generate())
	seen := 0
	collect := func(step int) {
		recs := h.world.Effects()
		for _, rec := range recs[seen:] {
			result.Trace = append(result.Trace, traceEvent(step, rec))
		}
		seen = len(recs)
	}

	for _, e := range scripted {
		e.Initialize()
	}
	collect(0)

	for i, step := range scenario.Steps {
		if err := h.execute(step); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		collect(i + 1)
	}

	for _, e := range h.world.Engines() {
		result.Stats[e.Owner().ID] = e.Stats()
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, h.world) {
		result.AddError(msg)
	}

	h.logger.Info("scenario finished",
		"scenario", scenario.Name,
		"run_id", result.RunID,
		"effects", len(result.Trace),
		"pass", result.Pass)
	return result, nil
}

func (h *Harness) script(id ir.ObjectID) (*engine.Engine, error) {
	return h.world.Script(id, h.rules, h.conds,
		engine.WithRand(testutil.NewRand(h.seed, uint64(id))),
		engine.WithLogger(h.logger))
}

func (h *Harness) engine(id ir.ObjectID) (*engine.Engine, error) {
	e, ok := h.world.Engine(id)
	if !ok {
		return nil, fmt.Errorf("object %d has no script", id)
	}
	return e, nil
}

// execute runs one step.
func (h *Harness) execute(step Step) error {
	switch {
	case step.Tick != 0:
		h.world.Tick(time.Duration(step.Tick) * time.Millisecond)

	case step.Raise != nil:
		r := step.Raise
		e, err := h.engine(r.Object)
		if err != nil {
			return err
		}
		kind, _ := ir.ParseEventType(r.Event)
		e.RaiseEvent(kind, engine.Trigger{
			Actor:  r.Actor,
			Value0: r.Value0,
			Value1: r.Value1,
			Flag:   r.Flag,
			Spell:  r.Spell,
			Object: r.Target,
			Text:   r.Text,
		})

	case step.Set != nil:
		return h.set(*step.Set)

	case step.Spawn != nil:
		o := *step.Spawn
		if err := h.world.Add(objectFrom(o)); err != nil {
			return err
		}
		h.relate(o)
		if o.scripted() {
			e, err := h.script(o.ID)
			if err != nil {
				return err
			}
			e.Initialize()
		}

	case step.Despawn != 0:
		if !h.world.Remove(step.Despawn) {
			return fmt.Errorf("no object %d", step.Despawn)
		}

	case step.Reset != 0:
		e, err := h.engine(step.Reset)
		if err != nil {
			return err
		}
		e.Reset()

	case step.TimedList != nil:
		tl := step.TimedList
		e, err := h.engine(tl.Object)
		if err != nil {
			return err
		}
		e.SetTimedActionList(tl.Entry, tl.Invoker, tl.StartFrom)

	case step.Counter != nil:
		c := step.Counter
		e, err := h.engine(c.Object)
		if err != nil {
			return err
		}
		e.StoreCounter(c.ID, c.Value, c.Reset)

	case step.FailCasts != nil:
		h.world.FailCasts(step.FailCasts.Spell, step.FailCasts.Count)
	}
	return nil
}

func (h *Harness) set(s SetStep) error {
	ok := h.world.Update(s.Object, func(o *world.Object) {
		if s.Health != nil {
			o.Health = min(*s.Health, o.MaxHealth)
		}
		if s.Power != nil {
			o.Power = min(*s.Power, o.MaxPower)
		}
		if s.Pos != nil {
			o.Pos = *s.Pos
		}
		if s.Alive != nil {
			o.Alive = *s.Alive
		}
		if s.Engaged != nil {
			o.Engaged = *s.Engaged
		}
		if s.Evading != nil {
			o.Evading = *s.Evading
		}
		if s.Charmed != nil {
			o.Charmed = *s.Charmed
		}
		if s.Casting != nil {
			o.Casting = *s.Casting
		}
		if s.CrowdControlled != nil {
			o.CrowdControlled = *s.CrowdControlled
		}
		if s.Auras != nil {
			o.Auras = make(map[uint32]uint32, len(s.Auras))
			for spell, n := range s.Auras {
				o.Auras[spell] = n
			}
		}
	})
	if !ok {
		return fmt.Errorf("no object %d", s.Object)
	}
	if s.Victim != nil {
		h.world.SetVictim(s.Object, *s.Victim)
	}
	for _, t := range s.Threat {
		h.world.AddThreat(s.Object, t.Target, t.Amount)
	}
	return nil
}

// relate installs the relations of o that live outside the object itself.
func (h *Harness) relate(o ObjectSpec) {
	if o.Victim.Valid() {
		h.world.SetVictim(o.ID, o.Victim)
	}
	for _, t := range o.Threat {
		h.world.AddThreat(o.ID, t.Target, t.Amount)
	}
	if o.Party != 0 {
		h.world.JoinParty(o.ID, o.Party)
	}
	if len(o.Loot) > 0 {
		h.world.SetLootRecipients(o.ID, o.Loot)
	}
	if o.Vehicle.Valid() {
		h.world.Board(o.Vehicle, o.ID, o.Seat)
	}
}

// objectFrom builds a world object. Health defaults to 100/100.
func objectFrom(o ObjectSpec) world.Object {
	kind, _ := ir.ParseObjectKind(o.Kind)
	maxHealth, health := o.MaxHealth, o.Health
	if maxHealth == 0 {
		maxHealth = 100
	}
	if health == 0 || health > maxHealth {
		health = maxHealth
	}
	if o.Dead {
		health = 0
	}
	return world.Object{
		ObjectInfo: engine.ObjectInfo{
			ID:              o.ID,
			Kind:            kind,
			Entry:           o.Entry,
			SpawnID:         o.SpawnID,
			Pos:             o.Pos,
			Alive:           !o.Dead,
			Spawned:         !o.Unspawned,
			Engaged:         o.Engaged,
			Evading:         o.Evading,
			Charmed:         o.Charmed,
			Casting:         o.Casting,
			CastingSpell:    o.CastingSpell,
			CrowdControlled: o.CrowdControlled,
			Health:          health,
			MaxHealth:       maxHealth,
			Power:           o.Power,
			MaxPower:        max(o.MaxPower, o.Power),
			PowerType:       o.PowerType,
			Auras:           o.Auras,
			Owner:           o.Owner,
			Charmer:         o.Charmer,
			Summoner:        o.Summoner,
			Creator:         o.Creator,
			Vehicle:         o.Vehicle,
		},
		Faction: o.Faction,
	}
}
