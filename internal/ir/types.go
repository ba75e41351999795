package ir

import "fmt"

// ObjectID is an opaque, stable identifier for a world object.
//
// The engine never holds live object references. Owners, invokers and stored
// targets are kept as ObjectIDs and resolved through a lookup collaborator at
// the time of use, so an object that despawns mid-tick simply stops resolving.
type ObjectID uint64

// NoObject is the zero ObjectID; it never names a live object.
const NoObject ObjectID = 0

// Valid reports whether id names an object.
func (id ObjectID) Valid() bool { return id != NoObject }

// ObjectKind classifies world objects for spatial and target filtering.
type ObjectKind uint8

const (
	KindCreature ObjectKind = iota + 1
	KindGameObject
	KindPlayer
	KindAreaTrigger
)

var objectKindNames = map[ObjectKind]string{
	KindCreature:    "creature",
	KindGameObject:  "gameobject",
	KindPlayer:      "player",
	KindAreaTrigger: "areatrigger",
}

func (k ObjectKind) String() string {
	if n, ok := objectKindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsUnit reports whether objects of this kind take part in combat.
func (k ObjectKind) IsUnit() bool {
	return k == KindCreature || k == KindPlayer
}

// ParseObjectKind maps a snake_case name back to its ObjectKind.
func ParseObjectKind(name string) (ObjectKind, bool) {
	for k, n := range objectKindNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// Position is a point in the world plus a facing.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
	O float64 `json:"o" yaml:"o"`
}

// IsZero reports whether all coordinates are zero.
func (p Position) IsZero() bool {
	return p == Position{}
}

// SourceType identifies what kind of owner a rule set belongs to.
type SourceType uint8

const (
	SourceCreature          SourceType = 0
	SourceGameObject        SourceType = 1
	SourceAreaTrigger       SourceType = 2
	SourceQuest             SourceType = 5
	SourceTimedActionList   SourceType = 9
	SourceScene             SourceType = 10
	SourceAreaTriggerEntity SourceType = 11
)

var sourceTypeNames = map[SourceType]string{
	SourceCreature:          "creature",
	SourceGameObject:        "gameobject",
	SourceAreaTrigger:       "areatrigger",
	SourceQuest:             "quest",
	SourceTimedActionList:   "timed_actionlist",
	SourceScene:             "scene",
	SourceAreaTriggerEntity: "areatrigger_entity",
}

func (s SourceType) String() string {
	if n, ok := sourceTypeNames[s]; ok {
		return n
	}
	return fmt.Sprintf("source(%d)", uint8(s))
}

// Known reports whether s is a supported source type.
func (s SourceType) Known() bool {
	_, ok := sourceTypeNames[s]
	return ok
}

// ParseSourceType maps a snake_case name back to its SourceType.
func ParseSourceType(name string) (SourceType, bool) {
	for s, n := range sourceTypeNames {
		if n == name {
			return s, true
		}
	}
	return 0, false
}

// EventFlags modify how a rule's event is dispatched.
type EventFlags uint32

const (
	// FlagNotRepeatable fires the rule at most once per reset cycle.
	FlagNotRepeatable EventFlags = 0x001
	// FlagDebugOnly rules are loaded only by debug builds of a catalog.
	FlagDebugOnly EventFlags = 0x080
	// FlagDontReset protects the rule's timer and run-once state from Reset.
	FlagDontReset EventFlags = 0x100
	// FlagWhileCharmed allows the rule to fire while the owner is charmed.
	FlagWhileCharmed EventFlags = 0x200
	// FlagTempIgnoreChanceRoll skips the next chance roll. Engine-internal.
	FlagTempIgnoreChanceRoll EventFlags = 0x800

	// FlagsAllowed are the flags a rule source may set.
	FlagsAllowed = FlagNotRepeatable | FlagDebugOnly | FlagDontReset | FlagWhileCharmed
)

var eventFlagNames = []struct {
	flag EventFlags
	name string
}{
	{FlagNotRepeatable, "not_repeatable"},
	{FlagDebugOnly, "debug_only"},
	{FlagDontReset, "dont_reset"},
	{FlagWhileCharmed, "while_charmed"},
	{FlagTempIgnoreChanceRoll, "ignore_chance_roll"},
}

// Has reports whether all bits of f2 are set in f.
func (f EventFlags) Has(f2 EventFlags) bool { return f&f2 == f2 }

// Names returns the flag names set in f, in bit order.
func (f EventFlags) Names() []string {
	var out []string
	for _, fn := range eventFlagNames {
		if f&fn.flag != 0 {
			out = append(out, fn.name)
		}
	}
	return out
}

// ParseEventFlag maps a flag name to its bit.
func ParseEventFlag(name string) (EventFlags, bool) {
	for _, fn := range eventFlagNames {
		if fn.name == name {
			return fn.flag, true
		}
	}
	return 0, false
}

// Phases are 1..MaxPhase; phase 0 means "no phase".
const (
	MaxPhase     uint32 = 12
	PhaseMaskAll uint32 = 1<<MaxPhase - 1
)

// PhaseBit returns the mask bit of phase p, or 0 for phase 0.
func PhaseBit(p uint32) uint32 {
	if p == 0 || p > MaxPhase {
		return 0
	}
	return 1 << (p - 1)
}

// PhaseMask builds a mask from a list of phases.
func PhaseMask(phases ...uint32) uint32 {
	var m uint32
	for _, p := range phases {
		m |= PhaseBit(p)
	}
	return m
}

// Phases expands a mask into its ascending phase list.
func Phases(mask uint32) []uint32 {
	var out []uint32
	for p := uint32(1); p <= MaxPhase; p++ {
		if mask&PhaseBit(p) != 0 {
			out = append(out, p)
		}
	}
	return out
}

// Event is the trigger half of a rule.
type Event struct {
	Type      EventType  `json:"type"`
	Params    [5]uint32  `json:"params"`
	Chance    uint32     `json:"chance"`
	PhaseMask uint32     `json:"phase_mask"`
	Flags     EventFlags `json:"flags"`
}

// Action is the effect half of a rule.
type Action struct {
	Type   ActionType `json:"type"`
	Params [7]uint32  `json:"params"`
}

// Target selects the objects an action applies to.
type Target struct {
	Type   TargetType `json:"type"`
	Params [4]uint32  `json:"params"`
	Pos    Position   `json:"pos"`
}

// Rule is one event/action/target line of a script.
//
// EntryOrGuid is positive for template-wide rules (creature entry, gameobject
// entry, areatrigger id, timed action list entry) and negative for
// spawn-specific overrides keyed by spawn id.
//
// INVARIANT: a Rule is immutable once handed to an engine. Run-state (timer,
// active, run-once, priority) lives in the engine, never here.
type Rule struct {
	EntryOrGuid int64      `json:"entry_or_guid"`
	SourceType  SourceType `json:"source_type"`
	ID          uint32     `json:"id"`
	Link        uint32     `json:"link"`
	Event       Event      `json:"event"`
	Action      Action     `json:"action"`
	Target      Target     `json:"target"`
	Comment     string     `json:"comment,omitempty"`
}

// String is a short identification used in logs and errors.
func (r Rule) String() string {
	return fmt.Sprintf("%s %d #%d (%s -> %s -> %s)",
		r.SourceType, r.EntryOrGuid, r.ID, r.Event.Type, r.Action.Type, r.Target.Type)
}

// IsSpawnOverride reports whether the rule belongs to a spawn-specific set.
func (r Rule) IsSpawnOverride() bool { return r.EntryOrGuid < 0 }

// Normalize applies load-time fixups shared by every rule source:
// update kinds with an empty repeat range become not-repeatable.
func (r Rule) Normalize() Rule {
	switch r.Event.Type {
	case EventUpdate, EventUpdateIC, EventUpdateOOC:
		if r.Event.Params[2] == 0 && r.Event.Params[3] == 0 {
			r.Event.Flags |= FlagNotRepeatable
		}
	}
	r.Event.Flags &^= FlagTempIgnoreChanceRoll
	return r
}
