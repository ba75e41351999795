package condition

import (
	"math"

	"github.com/roach88/smartscript/internal/engine"
	"github.com/roach88/smartscript/internal/ir"
)

// Object is the view of a world object exposed to condition expressions.
// A missing object has Valid == false and zero fields.
type Object struct {
	Valid     bool
	ID        uint64
	Kind      string
	Entry     uint32
	Alive     bool
	Engaged   bool
	Casting   bool
	Charmed   bool
	Health    uint32
	MaxHealth uint32
	HealthPct uint32
	ManaPct   uint32
	X, Y, Z   float64

	auras map[uint32]uint32
}

func viewOf(info engine.ObjectInfo, ok bool) Object {
	if !ok {
		return Object{}
	}
	return Object{
		Valid:     true,
		ID:        uint64(info.ID),
		Kind:      info.Kind.String(),
		Entry:     info.Entry,
		Alive:     info.Alive,
		Engaged:   info.Engaged,
		Casting:   info.Casting,
		Charmed:   info.Charmed,
		Health:    info.Health,
		MaxHealth: info.MaxHealth,
		HealthPct: info.HealthPct(),
		ManaPct:   info.ManaPct(),
		X:         info.Pos.X,
		Y:         info.Pos.Y,
		Z:         info.Pos.Z,
		auras:     info.Auras,
	}
}

// HasAura reports whether the object carries at least one stack of spell.
func (o Object) HasAura(spell int) bool {
	return spell >= 0 && o.auras[uint32(spell)] > 0
}

// AuraStacks returns the stack count of spell.
func (o Object) AuraStacks(spell int) int {
	if spell < 0 {
		return 0
	}
	return int(o.auras[uint32(spell)])
}

// IsPlayer reports whether the object is a player.
func (o Object) IsPlayer() bool {
	return o.Kind == ir.KindPlayer.String()
}

// Env is the environment condition expressions run against.
//
//	Actor.IsPlayer() && Actor.HealthPct < 50
//	Base.HasAura(1234) && Distance() <= 10
type Env struct {
	Actor Object
	Base  Object
	// Event is the id of the rule the condition belongs to.
	Event uint32
}

// Distance returns the distance between actor and base, or -1 when either
// is missing.
func (e Env) Distance() float64 {
	if !e.Actor.Valid || !e.Base.Valid {
		return -1
	}
	dx, dy, dz := e.Actor.X-e.Base.X, e.Actor.Y-e.Base.Y, e.Actor.Z-e.Base.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// InRange reports whether actor and base are both present and at most limit apart.
func (e Env) InRange(limit float64) bool {
	d := e.Distance()
	return d >= 0 && d <= limit
}
