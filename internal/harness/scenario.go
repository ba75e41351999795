package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/smartscript/internal/ir"
)

// Scenario is a scripted simulation: a world, the rules its objects run,
// a sequence of steps and the assertions checked afterwards.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario exercises.
	Description string `yaml:"description"`

	// Rules is the CUE rules directory, relative to the scenario file.
	Rules string `yaml:"rules"`

	// Seed seeds every engine's random source.
	Seed uint64 `yaml:"seed,omitempty"`

	// RunID is an optional fixed run id for deterministic golden files.
	RunID string `yaml:"run_id,omitempty"`

	Objects    []ObjectSpec `yaml:"objects"`
	Steps      []Step       `yaml:"steps"`
	Assertions []Assertion  `yaml:"assertions,omitempty"`
}

// ObjectSpec describes one world object. Non-player objects run scripts
// unless Script is false.
type ObjectSpec struct {
	ID      ir.ObjectID `yaml:"id"`
	Kind    string      `yaml:"kind"`
	Entry   uint32      `yaml:"entry,omitempty"`
	SpawnID uint64      `yaml:"spawn_id,omitempty"`
	Pos     ir.Position `yaml:"pos,omitempty"`
	Faction uint32      `yaml:"faction,omitempty"`
	Script  *bool       `yaml:"script,omitempty"`

	// Health and MaxHealth default to 100 when MaxHealth is zero.
	Health    uint32 `yaml:"health,omitempty"`
	MaxHealth uint32 `yaml:"max_health,omitempty"`
	Power     uint32 `yaml:"power,omitempty"`
	MaxPower  uint32 `yaml:"max_power,omitempty"`
	PowerType uint32 `yaml:"power_type,omitempty"`

	Dead            bool   `yaml:"dead,omitempty"`
	Unspawned       bool   `yaml:"unspawned,omitempty"`
	Engaged         bool   `yaml:"engaged,omitempty"`
	Evading         bool   `yaml:"evading,omitempty"`
	Charmed         bool   `yaml:"charmed,omitempty"`
	Casting         bool   `yaml:"casting,omitempty"`
	CastingSpell    uint32 `yaml:"casting_spell,omitempty"`
	CrowdControlled bool   `yaml:"crowd_controlled,omitempty"`

	Auras map[uint32]uint32 `yaml:"auras,omitempty"`

	Owner    ir.ObjectID `yaml:"owner,omitempty"`
	Charmer  ir.ObjectID `yaml:"charmer,omitempty"`
	Summoner ir.ObjectID `yaml:"summoner,omitempty"`
	Creator  ir.ObjectID `yaml:"creator,omitempty"`

	Party  uint32        `yaml:"party,omitempty"`
	Victim ir.ObjectID   `yaml:"victim,omitempty"`
	Threat []ThreatSpec  `yaml:"threat,omitempty"`
	Loot   []ir.ObjectID `yaml:"loot,omitempty"`

	// Vehicle boards this object onto a vehicle at Seat.
	Vehicle ir.ObjectID `yaml:"vehicle,omitempty"`
	Seat    uint8       `yaml:"seat,omitempty"`
}

// ThreatSpec is one threat list entry.
type ThreatSpec struct {
	Target ir.ObjectID `yaml:"target"`
	Amount float64     `yaml:"amount"`
}

// scripted reports whether the object gets an engine.
func (o ObjectSpec) scripted() bool {
	if o.Script != nil {
		return *o.Script
	}
	return o.Kind != ir.KindPlayer.String()
}

// Step is one simulation step. Exactly one field is set.
type Step struct {
	// Tick advances every engine by this many milliseconds.
	Tick      uint32         `yaml:"tick,omitempty"`
	Raise     *RaiseStep     `yaml:"raise,omitempty"`
	Set       *SetStep       `yaml:"set,omitempty"`
	Spawn     *ObjectSpec    `yaml:"spawn,omitempty"`
	Despawn   ir.ObjectID    `yaml:"despawn,omitempty"`
	Reset     ir.ObjectID    `yaml:"reset,omitempty"`
	TimedList *TimedListStep `yaml:"timed_list,omitempty"`
	Counter   *CounterStep   `yaml:"counter,omitempty"`
	FailCasts *FailCastsStep `yaml:"fail_casts,omitempty"`
}

// RaiseStep raises an event on an object's engine.
type RaiseStep struct {
	Object ir.ObjectID `yaml:"object"`
	Event  string      `yaml:"event"`
	Actor  ir.ObjectID `yaml:"actor,omitempty"`
	Value0 uint32      `yaml:"value0,omitempty"`
	Value1 uint32      `yaml:"value1,omitempty"`
	Flag   bool        `yaml:"flag,omitempty"`
	Spell  uint32      `yaml:"spell,omitempty"`
	Target ir.ObjectID `yaml:"target,omitempty"`
	Text   string      `yaml:"text,omitempty"`
}

// SetStep changes the state of an object. Unset fields are left alone.
type SetStep struct {
	Object          ir.ObjectID       `yaml:"object"`
	Health          *uint32           `yaml:"health,omitempty"`
	Power           *uint32           `yaml:"power,omitempty"`
	Pos             *ir.Position      `yaml:"pos,omitempty"`
	Alive           *bool             `yaml:"alive,omitempty"`
	Engaged         *bool             `yaml:"engaged,omitempty"`
	Evading         *bool             `yaml:"evading,omitempty"`
	Charmed         *bool             `yaml:"charmed,omitempty"`
	Casting         *bool             `yaml:"casting,omitempty"`
	CrowdControlled *bool             `yaml:"crowd_controlled,omitempty"`
	Auras           map[uint32]uint32 `yaml:"auras,omitempty"`
	Victim          *ir.ObjectID      `yaml:"victim,omitempty"`
	Threat          []ThreatSpec      `yaml:"threat,omitempty"`
}

// TimedListStep starts a timed action list on an object.
type TimedListStep struct {
	Object    ir.ObjectID `yaml:"object"`
	Entry     uint32      `yaml:"entry"`
	Invoker   ir.ObjectID `yaml:"invoker,omitempty"`
	StartFrom uint32      `yaml:"start_from,omitempty"`
}

// CounterStep stores a counter on an object's engine.
type CounterStep struct {
	Object ir.ObjectID `yaml:"object"`
	ID     uint32      `yaml:"id"`
	Value  uint32      `yaml:"value"`
	Reset  bool        `yaml:"reset,omitempty"`
}

// FailCastsStep makes the next Count casts of Spell fail.
type FailCastsStep struct {
	Spell uint32 `yaml:"spell"`
	Count int    `yaml:"count"`
}

// kinds lists the names of the fields set on s.
func (s Step) kinds() []string {
	var out []string
	add := func(set bool, name string) {
		if set {
			out = append(out, name)
		}
	}
	add(s.Tick != 0, "tick")
	add(s.Raise != nil, "raise")
	add(s.Set != nil, "set")
	add(s.Spawn != nil, "spawn")
	add(s.Despawn != 0, "despawn")
	add(s.Reset != 0, "reset")
	add(s.TimedList != nil, "timed_list")
	add(s.Counter != nil, "counter")
	add(s.FailCasts != nil, "fail_casts")
	return out
}

// Assertion validates the trace or the final engine and world state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Action names an action (trace_contains, trace_count).
	Action string `yaml:"action,omitempty"`

	// Caster, Target and RuleID narrow trace_contains matches.
	Caster *ir.ObjectID `yaml:"caster,omitempty"`
	Target *ir.ObjectID `yaml:"target,omitempty"`
	RuleID *uint32      `yaml:"rule_id,omitempty"`

	// Count is the expected number of matching effects (trace_count).
	Count int `yaml:"count,omitempty"`

	// Actions is the expected action order (trace_order).
	Actions []string `yaml:"actions,omitempty"`

	// Object is the engine or world object inspected by state assertions.
	Object ir.ObjectID `yaml:"object,omitempty"`

	// ID is the counter or stored list id; Spell the aura spell.
	ID    uint32 `yaml:"id,omitempty"`
	Spell uint32 `yaml:"spell,omitempty"`

	// Value is the expected counter, phase or aura stack count.
	Value uint32 `yaml:"value,omitempty"`

	// Objects is the expected stored target list.
	Objects []ir.ObjectID `yaml:"objects,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertCounter       = "counter"
	AssertPhase         = "phase"
	AssertStored        = "stored"
	AssertAura          = "aura"
)

// LoadScenario reads and parses a scenario YAML file. The rules directory
// is resolved relative to the file. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the rules directory relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, basePath)
}

// ParseScenario parses scenario YAML held in memory.
func ParseScenario(data []byte, basePath string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Rules != "" && !filepath.IsAbs(scenario.Rules) && basePath != "" {
		scenario.Rules = filepath.Join(basePath, scenario.Rules)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Rules == "" {
		return fmt.Errorf("rules directory is required")
	}
	if len(s.Objects) == 0 {
		return fmt.Errorf("objects list is required and must be non-empty")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	ids := make(map[ir.ObjectID]bool)
	for i, o := range s.Objects {
		if err := validateObject(o); err != nil {
			return fmt.Errorf("objects[%d]: %w", i, err)
		}
		if ids[o.ID] {
			return fmt.Errorf("objects[%d]: duplicate id %d", i, o.ID)
		}
		ids[o.ID] = true
	}

	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateObject(o ObjectSpec) error {
	if !o.ID.Valid() {
		return fmt.Errorf("id is required")
	}
	if _, ok := ir.ParseObjectKind(o.Kind); !ok {
		return fmt.Errorf("unknown kind %q", o.Kind)
	}
	return nil
}

func validateStep(s Step) error {
	kinds := s.kinds()
	switch len(kinds) {
	case 0:
		return fmt.Errorf("empty step")
	case 1:
	default:
		return fmt.Errorf("step sets %v; exactly one is allowed", kinds)
	}
	switch {
	case s.Raise != nil:
		if !s.Raise.Object.Valid() {
			return fmt.Errorf("raise: object is required")
		}
		if _, ok := ir.ParseEventType(s.Raise.Event); !ok {
			return fmt.Errorf("raise: unknown event %q", s.Raise.Event)
		}
	case s.Set != nil:
		if !s.Set.Object.Valid() {
			return fmt.Errorf("set: object is required")
		}
	case s.Spawn != nil:
		if err := validateObject(*s.Spawn); err != nil {
			return fmt.Errorf("spawn: %w", err)
		}
	case s.TimedList != nil:
		if !s.TimedList.Object.Valid() || s.TimedList.Entry == 0 {
			return fmt.Errorf("timed_list: object and entry are required")
		}
	case s.Counter != nil:
		if !s.Counter.Object.Valid() {
			return fmt.Errorf("counter: object is required")
		}
	case s.FailCasts != nil:
		if s.FailCasts.Spell == 0 || s.FailCasts.Count <= 0 {
			return fmt.Errorf("fail_casts: spell and a positive count are required")
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
	case AssertCounter, AssertPhase, AssertStored:
		if !a.Object.Valid() {
			return fmt.Errorf("assertions[%d]: object is required for %s", index, a.Type)
		}
	case AssertAura:
		if !a.Object.Valid() || a.Spell == 0 {
			return fmt.Errorf("assertions[%d]: object and spell are required for aura", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
