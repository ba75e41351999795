package world

import (
	"maps"
	"slices"

	"github.com/roach88/smartscript/internal/engine"
	"github.com/roach88/smartscript/internal/ir"
)

// Record is one applied effect, stamped with a logical sequence number.
type Record struct {
	Seq    int64
	Effect engine.Effect
	Result engine.EffectResult
}

// FailCasts makes the next n casts of spell fail.
func (w *World) FailCasts(spell uint32, n int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.castFails[spell] += n
}

// Effects returns the effect log in application order.
func (w *World) Effects() []Record {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.effects)
}

// ResetEffects clears the effect log.
func (w *World) ResetEffects() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.effects = nil
}

// Apply implements engine.Effects. Every effect is logged; a few update
// world state so later checks and selectors observe them.
func (w *World) Apply(fx engine.Effect) engine.EffectResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	res := w.apply(fx)
	w.effects = append(w.effects, Record{Seq: w.clock.Next(), Effect: fx, Result: res})
	w.log.Debug("effect applied",
		"action", fx.Action.String(),
		"caster", uint64(fx.Caster),
		"target", uint64(fx.Target),
		"rule_id", fx.RuleID,
		"result", res.String())
	return res
}

func (w *World) apply(fx engine.Effect) engine.EffectResult {
	p := fx.Params
	switch fx.Action {
	case ir.ActionCast, ir.ActionSelfCast, ir.ActionCrossCast, ir.ActionInvokerCast:
		return w.cast(fx)

	case ir.ActionDie, ir.ActionKillUnit:
		id := fx.Target
		if fx.Action == ir.ActionDie && !id.Valid() {
			id = fx.Caster
		}
		if !w.update(id, func(o *Object) {
			o.Alive = false
			o.Health = 0
			o.Engaged = false
		}) {
			return engine.EffectSkipped
		}

	case ir.ActionForceDespawn:
		if !w.update(fx.Target, func(o *Object) { o.Spawned = false }) {
			return engine.EffectSkipped
		}

	case ir.ActionSetHealthPct:
		if !w.update(fx.Target, func(o *Object) {
			o.Health = uint32(uint64(o.MaxHealth) * uint64(min(p[0], 100)) / 100)
		}) {
			return engine.EffectSkipped
		}

	case ir.ActionAttackStart:
		if !fx.Target.Valid() {
			return engine.EffectSkipped
		}
		w.victims[fx.Caster] = fx.Target
		w.update(fx.Caster, func(o *Object) { o.Engaged = true })

	case ir.ActionCombatStop:
		delete(w.victims, fx.Caster)
		w.update(fx.Caster, func(o *Object) { o.Engaged = false })

	case ir.ActionMoveToPos, ir.ActionTeleport:
		dest := fx.Pos
		if fx.Target.Valid() {
			if t, ok := w.objects[fx.Target]; ok {
				dest = t.Pos
			}
		}
		w.update(fx.Caster, func(o *Object) { o.Pos = dest })
	}
	return engine.EffectApplied
}

// cast fails while the caster is casting without the interrupt flag, or
// when a failure was scripted for the spell. A successful cast adds one
// stack of the spell's aura to the target.
func (w *World) cast(fx engine.Effect) engine.EffectResult {
	spell, flags := fx.Params[0], fx.Params[1]
	caster, ok := w.objects[fx.Caster]
	if !ok {
		return engine.EffectFailed
	}
	if caster.Casting && flags&ir.CastInterruptPrevious == 0 {
		return engine.EffectFailed
	}
	if n := w.castFails[spell]; n > 0 {
		w.castFails[spell] = n - 1
		return engine.EffectFailed
	}
	target, ok := w.objects[fx.Target]
	if !ok {
		return engine.EffectFailed
	}
	auras := maps.Clone(target.Auras)
	if auras == nil {
		auras = make(map[uint32]uint32)
	}
	auras[spell]++
	target.Auras = auras
	return engine.EffectApplied
}
