package engine

import "github.com/roach88/smartscript/internal/ir"

// ObjectInfo is a read-only snapshot of a world object, taken at lookup time.
type ObjectInfo struct {
	ID      ir.ObjectID
	Kind    ir.ObjectKind
	Entry   uint32
	SpawnID uint64
	Pos     ir.Position

	Alive           bool
	Spawned         bool
	Engaged         bool
	Evading         bool
	Charmed         bool
	Casting         bool
	CastingSpell    uint32
	CrowdControlled bool

	Health    uint32
	MaxHealth uint32
	Power     uint32
	MaxPower  uint32
	PowerType uint32

	// Auras maps spell id to stack count.
	Auras map[uint32]uint32

	Owner    ir.ObjectID
	Charmer  ir.ObjectID
	Summoner ir.ObjectID
	Creator  ir.ObjectID
	Vehicle  ir.ObjectID
}

// PowerMana is the power type whose percentage mana events watch.
const PowerMana uint32 = 0

// HealthPct returns current health as an integer percentage.
func (o ObjectInfo) HealthPct() uint32 {
	if o.MaxHealth == 0 {
		return 0
	}
	return uint32(uint64(o.Health) * 100 / uint64(o.MaxHealth))
}

// ManaPct returns current mana as an integer percentage, 0 for units
// without mana.
func (o ObjectInfo) ManaPct() uint32 {
	if o.PowerType != PowerMana || o.MaxPower == 0 {
		return 0
	}
	return uint32(uint64(o.Power) * 100 / uint64(o.MaxPower))
}

// AuraCount returns the stack count of spell on the object.
func (o ObjectInfo) AuraCount(spell uint32) uint32 {
	return o.Auras[spell]
}

// IsUnit reports whether the object takes part in combat.
func (o ObjectInfo) IsUnit() bool { return o.Kind.IsUnit() }

// Objects resolves object ids to snapshots.
type Objects interface {
	Object(id ir.ObjectID) (ObjectInfo, bool)
	BySpawnID(kind ir.ObjectKind, spawnID uint64) (ir.ObjectID, bool)
}

// LifeState filters spatial searches by alive/dead state.
type LifeState uint8

const (
	LifeAny LifeState = iota
	LifeAlive
	LifeDead
)

// SpatialFilter narrows a spatial search.
type SpatialFilter struct {
	// Kind restricts results to one object kind; 0 matches any.
	Kind ir.ObjectKind
	// UnitsOnly restricts results to creatures and players.
	UnitsOnly bool
	// Entry restricts results to one template entry; 0 matches any.
	Entry uint32
	Life  LifeState
	// Unspawned returns only despawned gameobjects awaiting respawn.
	// Otherwise only spawned objects are returned.
	Unspawned bool
	Exclude   ir.ObjectID
}

// Spatial answers radius and nearest-match queries.
// FindInRadius returns matches ordered by distance, then id.
type Spatial interface {
	FindInRadius(origin ir.Position, radius float64, f SpatialFilter) []ir.ObjectID
	FindNearest(origin ir.Position, maxRadius float64, f SpatialFilter) (ir.ObjectID, bool)
}

// ThreatOrder selects the direction of a threat ranking.
type ThreatOrder uint8

const (
	ThreatHighestFirst ThreatOrder = iota
	ThreatLowestFirst
)

// ThreatFilter narrows a threat ranking.
type ThreatFilter struct {
	// MaxDist drops entries farther than this from the owner; 0 disables.
	MaxDist    float64
	PlayerOnly bool
	// PowerType keeps only units using this power type + 1; 0 disables.
	PowerType uint32
}

// Combat exposes the owner's combat state.
type Combat interface {
	Victim(self ir.ObjectID) (ir.ObjectID, bool)
	// ThreatRanked returns up to count entries (0 = all) of self's threat list.
	ThreatRanked(self ir.ObjectID, order ThreatOrder, count int, f ThreatFilter) []ir.ObjectID
	IsFriendly(a, b ir.ObjectID) bool
}

// Passenger is one seated passenger of a vehicle.
type Passenger struct {
	ID   ir.ObjectID
	Seat uint8
}

// Social exposes group membership, loot taps and vehicle seats.
type Social interface {
	Party(member ir.ObjectID) []ir.ObjectID
	LootRecipients(self ir.ObjectID) []ir.ObjectID
	Passengers(vehicle ir.ObjectID) []Passenger
}

// ConditionKey identifies the condition set attached to one rule.
type ConditionKey struct {
	EntryOrGuid int64
	EventID     uint32
	Source      ir.SourceType
}

// Conditions vetoes rule matches.
type Conditions interface {
	Meets(key ConditionKey, actor, base ir.ObjectID) bool
}

// RuleSource supplies rule sets. Implemented by catalog.Catalog.
type RuleSource interface {
	Rules(source ir.SourceType, entry uint32, spawnID uint64) []ir.Rule
	TimedList(entry uint32) []ir.Rule
}

// Effect is one side effect requested by an action.
// A global effect has no Target.
type Effect struct {
	Action  ir.ActionType
	Params  [7]uint32
	Caster  ir.ObjectID
	Target  ir.ObjectID
	Invoker ir.ObjectID
	Pos     ir.Position

	RuleID      uint32
	Source      ir.SourceType
	EntryOrGuid int64
}

// EffectResult reports what happened to an effect.
type EffectResult uint8

const (
	// EffectApplied means the effect took place.
	EffectApplied EffectResult = iota
	// EffectFailed means the effect was rejected, e.g. a cast while
	// another cast is in progress. Cast opcodes turn this into a retry.
	EffectFailed
	// EffectSkipped means there was nothing to do.
	EffectSkipped
)

func (r EffectResult) String() string {
	switch r {
	case EffectApplied:
		return "applied"
	case EffectFailed:
		return "failed"
	default:
		return "skipped"
	}
}

// Effects applies side effects to the world.
type Effects interface {
	Apply(fx Effect) EffectResult
}

// Registry finds the engine driving another object, for cross-engine calls
// such as set data or set counter on targets.
type Registry interface {
	Engine(id ir.ObjectID) (*Engine, bool)
}

// Collaborators bundles everything the engine consumes.
// Objects, Effects and Rules are required; the rest are optional and a nil
// value makes the dependent selectors or checks come up empty.
type Collaborators struct {
	Objects    Objects
	Spatial    Spatial
	Combat     Combat
	Social     Social
	Conditions Conditions
	Effects    Effects
	Rules      RuleSource
	Registry   Registry
}
