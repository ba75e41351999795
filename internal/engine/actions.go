package engine

import (
	"github.com/roach88/smartscript/internal/ir"
)

// outcome is what an executed action reports back to dispatch.
type outcome uint8

const (
	// outcomeSuccess follows the rule's link.
	outcomeSuccess outcome = iota
	// outcomeRetry raises the rule's priority and suppresses the link.
	outcomeRetry
	// outcomeSkipped means the action could not run at all.
	outcomeSkipped
)

func (o outcome) String() string {
	switch o {
	case outcomeSuccess:
		return "success"
	case outcomeRetry:
		return "retry"
	case outcomeSkipped:
		return "skipped"
	}
	return "unknown"
}

type actionScope uint8

const (
	// scopePerTarget applies the effect once per resolved target, or once
	// at the rule's coordinates for a position target.
	scopePerTarget actionScope = iota
	// scopeGlobal applies the effect once regardless of targets.
	scopeGlobal
	// scopeSelf applies the effect once with the base object as target.
	scopeSelf
)

type actionHandler func(e *Engine, h *holder, targets []ir.ObjectID, t Trigger) outcome

type actionSpec struct {
	scope   actionScope
	handler actionHandler
}

var actionSpecs [ir.ActionTypeCount]actionSpec

func init() {
	for _, a := range []ir.ActionType{
		ir.ActionGameEventStart,
		ir.ActionGameEventStop,
		ir.ActionTriggerGameEvent,
		ir.ActionSpawnSpawnGroup,
		ir.ActionDespawnSpawnGroup,
		ir.ActionSummonCreatureGroup,
		ir.ActionRespawnBySpawnID,
		ir.ActionSetInstData,
		ir.ActionSetInstData64,
		ir.ActionOverrideLight,
		ir.ActionOverrideWeather,
		ir.ActionRemoveAllGameObjects,
	} {
		actionSpecs[a].scope = scopeGlobal
	}
	actionSpecs[ir.ActionTalk].scope = scopeSelf

	handlers := map[ir.ActionType]actionHandler{
		ir.ActionNone:                           func(*Engine, *holder, []ir.ObjectID, Trigger) outcome { return outcomeSuccess },
		ir.ActionCast:                           actCast,
		ir.ActionSelfCast:                       actSelfCast,
		ir.ActionCrossCast:                      actCrossCast,
		ir.ActionInvokerCast:                    actInvokerCast,
		ir.ActionSetEventPhase:                  actSetPhase,
		ir.ActionIncEventPhase:                  actIncPhase,
		ir.ActionRandomPhase:                    actRandomPhase,
		ir.ActionRandomPhaseRange:               actRandomPhaseRange,
		ir.ActionSetCounter:                     actSetCounter,
		ir.ActionStoreTargetList:                actStoreTargetList,
		ir.ActionAddToStoredTargetList:          actAddToStoredTargetList,
		ir.ActionCreateTimedEvent:               actCreateTimedEvent,
		ir.ActionTriggerTimedEvent:              actTriggerTimedEvent,
		ir.ActionRemoveTimedEvent:               actRemoveTimedEvent,
		ir.ActionTriggerRandomTimedEvent:        actTriggerRandomTimedEvent,
		ir.ActionCallTimedActionList:            actCallTimedActionList,
		ir.ActionCallRandomTimedActionList:      actCallRandomTimedActionList,
		ir.ActionCallRandomRangeTimedActionList: actCallRandomRangeTimedActionList,
		ir.ActionCallScriptReset:                actCallScriptReset,
		ir.ActionSetData:                        actSetData,
		ir.ActionDoAction:                       actDoAction,
		ir.ActionOverrideScriptBaseObject:       actOverrideBase,
		ir.ActionResetScriptBaseObject:          actResetBase,
	}
	for a, fn := range handlers {
		actionSpecs[a].handler = fn
	}
}

// execute runs the rule's action against the resolved targets.
func (e *Engine) execute(h *holder, targets []ir.ObjectID, t Trigger) outcome {
	a := h.rule.Action.Type
	if !a.Known() {
		e.configError(newRuleError(ErrCodeUnknownAction, h.rule, "unknown action %d", uint32(a)))
		return outcomeSkipped
	}
	spec := actionSpecs[a]
	if spec.handler != nil {
		return spec.handler(e, h, targets, t)
	}
	return e.delegate(h, spec.scope, targets, t)
}

// invoker is the object an action runs on behalf of.
func (e *Engine) invoker(t Trigger) ir.ObjectID {
	if t.Actor.Valid() {
		return t.Actor
	}
	return e.lastInvoker
}

func (e *Engine) effect(h *holder, caster, target ir.ObjectID, t Trigger) Effect {
	return Effect{
		Action:      h.rule.Action.Type,
		Params:      h.rule.Action.Params,
		Caster:      caster,
		Target:      target,
		Invoker:     e.invoker(t),
		Pos:         h.rule.Target.Pos,
		RuleID:      h.rule.ID,
		Source:      h.rule.SourceType,
		EntryOrGuid: h.rule.EntryOrGuid,
	}
}

// delegate hands an effect-only action to the effects collaborator. The
// result of individual effects does not change the outcome.
func (e *Engine) delegate(h *holder, scope actionScope, targets []ir.ObjectID, t Trigger) outcome {
	switch {
	case scope == scopeGlobal:
		e.deps.Effects.Apply(e.effect(h, e.base, ir.NoObject, t))
	case scope == scopeSelf:
		e.deps.Effects.Apply(e.effect(h, e.base, e.base, t))
	case h.rule.Target.Type == ir.TargetPosition:
		e.deps.Effects.Apply(e.effect(h, e.base, ir.NoObject, t))
	default:
		for _, id := range targets {
			e.deps.Effects.Apply(e.effect(h, e.base, id, t))
		}
	}
	return outcomeSuccess
}

// castResult folds per-target cast results: retry when at least one cast
// failed and none succeeded.
type castResult struct {
	failed, succeeded bool
}

func (c *castResult) add(r EffectResult) {
	switch r {
	case EffectApplied:
		c.succeeded = true
	case EffectFailed:
		c.failed = true
	}
}

func (c castResult) outcome() outcome {
	if c.failed && !c.succeeded {
		return outcomeRetry
	}
	return outcomeSuccess
}

// hasAura reports whether target already carries the spell's aura.
func (e *Engine) hasAura(target ir.ObjectID, spell uint32) bool {
	info, ok := e.deps.Objects.Object(target)
	return ok && info.AuraCount(spell) > 0
}

// actCast decodes (spell, cast flags, trigger flags, targets limit).
func actCast(e *Engine, h *holder, targets []ir.ObjectID, t Trigger) outcome {
	p := h.rule.Action.Params
	targets = e.randomResize(targets, p[3])
	var res castResult
	for _, id := range targets {
		if p[1]&ir.CastAuraNotPresent != 0 && e.hasAura(id, p[0]) {
			continue
		}
		res.add(e.deps.Effects.Apply(e.effect(h, e.base, id, t)))
	}
	return res.outcome()
}

// actSelfCast makes every target cast the spell on itself.
func actSelfCast(e *Engine, h *holder, targets []ir.ObjectID, t Trigger) outcome {
	p := h.rule.Action.Params
	targets = e.randomResize(targets, p[3])
	var res castResult
	for _, id := range targets {
		if p[1]&ir.CastAuraNotPresent != 0 && e.hasAura(id, p[0]) {
			continue
		}
		res.add(e.deps.Effects.Apply(e.effect(h, id, id, t)))
	}
	return res.outcome()
}

// actCrossCast decodes (spell, cast flags, caster selector, caster params
// x4): every resolved caster casts on every target.
func actCrossCast(e *Engine, h *holder, targets []ir.ObjectID, t Trigger) outcome {
	p := h.rule.Action.Params
	casterSel := ir.Target{Type: ir.TargetType(p[2]), Params: [4]uint32{p[3], p[4], p[5], p[6]}}
	casters := e.resolve(h.rule, casterSel, t)
	var res castResult
	for _, caster := range casters {
		for _, id := range targets {
			if p[1]&ir.CastAuraNotPresent != 0 && e.hasAura(id, p[0]) {
				continue
			}
			res.add(e.deps.Effects.Apply(e.effect(h, caster, id, t)))
		}
	}
	return res.outcome()
}

// actInvokerCast makes the invoker cast the spell on every target.
func actInvokerCast(e *Engine, h *holder, targets []ir.ObjectID, t Trigger) outcome {
	invoker := e.invoker(t)
	if !invoker.Valid() {
		return outcomeSkipped
	}
	p := h.rule.Action.Params
	var res castResult
	for _, id := range targets {
		if p[1]&ir.CastAuraNotPresent != 0 && e.hasAura(id, p[0]) {
			continue
		}
		res.add(e.deps.Effects.Apply(e.effect(h, invoker, id, t)))
	}
	return res.outcome()
}

func actSetPhase(e *Engine, h *holder, _ []ir.ObjectID, _ Trigger) outcome {
	e.setPhase(h.rule.Action.Params[0])
	return outcomeSuccess
}

// actIncPhase decodes (increment, decrement); one of them is set.
func actIncPhase(e *Engine, h *holder, _ []ir.ObjectID, _ Trigger) outcome {
	p := h.rule.Action.Params
	if p[0] != 0 {
		e.incPhase(p[0])
	} else if p[1] != 0 {
		e.decPhase(p[1])
	}
	return outcomeSuccess
}

// pickNonZero returns a random nonzero value from vals, 0 if none.
func (e *Engine) pickNonZero(vals []uint32) uint32 {
	var choices []uint32
	for _, v := range vals {
		if v != 0 {
			choices = append(choices, v)
		}
	}
	if len(choices) == 0 {
		return 0
	}
	return choices[e.rng.IntN(len(choices))]
}

// pickRange returns a uniform value in [lo, hi].
func (e *Engine) pickRange(lo, hi uint32) uint32 {
	if hi <= lo {
		return lo
	}
	return lo + e.rng.Uint32N(hi-lo+1)
}

func actRandomPhase(e *Engine, h *holder, _ []ir.ObjectID, _ Trigger) outcome {
	e.setPhase(e.pickNonZero(h.rule.Action.Params[:6]))
	return outcomeSuccess
}

func actRandomPhaseRange(e *Engine, h *holder, _ []ir.ObjectID, _ Trigger) outcome {
	p := h.rule.Action.Params
	e.setPhase(e.pickRange(p[0], p[1]))
	return outcomeSuccess
}

// actSetCounter decodes (counter id, value, reset). Targets that run their
// own engine get the counter; without targets it is stored locally.
func actSetCounter(e *Engine, h *holder, targets []ir.ObjectID, _ Trigger) outcome {
	p := h.rule.Action.Params
	if len(targets) == 0 {
		e.storeCounter(p[0], p[1], p[2] != 0)
		return outcomeSuccess
	}
	for _, id := range targets {
		e.onPeer(id, func(peer *Engine) {
			peer.storeCounter(p[0], p[1], p[2] != 0)
		})
	}
	return outcomeSuccess
}

func actStoreTargetList(e *Engine, h *holder, targets []ir.ObjectID, _ Trigger) outcome {
	e.storeTargetList(h.rule.Action.Params[0], targets)
	return outcomeSuccess
}

func actAddToStoredTargetList(e *Engine, h *holder, targets []ir.ObjectID, _ Trigger) outcome {
	e.appendTargetList(h.rule.Action.Params[0], targets)
	return outcomeSuccess
}

// actCreateTimedEvent decodes (id, min, max, repeat min, repeat max, chance).
func actCreateTimedEvent(e *Engine, h *holder, _ []ir.ObjectID, _ Trigger) outcome {
	p := h.rule.Action.Params
	chance := p[5]
	if chance == 0 {
		chance = 100
	}
	e.createTimedEvent(p[0], p[1], p[2], p[3], p[4], chance)
	return outcomeSuccess
}

func actTriggerTimedEvent(e *Engine, h *holder, _ []ir.ObjectID, t Trigger) outcome {
	e.triggerTimedEvent(h.rule.Action.Params[0], e.invoker(t))
	return outcomeSuccess
}

func actRemoveTimedEvent(e *Engine, h *holder, _ []ir.ObjectID, _ Trigger) outcome {
	e.removeTimedEvent(h.rule.Action.Params[0])
	return outcomeSuccess
}

func actTriggerRandomTimedEvent(e *Engine, h *holder, _ []ir.ObjectID, t Trigger) outcome {
	p := h.rule.Action.Params
	e.triggerTimedEvent(e.pickRange(p[0], p[1]), e.invoker(t))
	return outcomeSuccess
}

// startTimedList sets the timed action list entry on every target that runs
// an engine.
func (e *Engine) startTimedList(targets []ir.ObjectID, entry uint32, timer TimedListTimer, allowOverride bool, t Trigger) {
	if entry == 0 {
		return
	}
	invoker := e.invoker(t)
	for _, id := range targets {
		if !e.onPeer(id, func(peer *Engine) {
			peer.setTimedActionList(entry, invoker, 0, timer, allowOverride)
		}) {
			e.log.Debug("timed action list target has no script", "target", uint64(id), "timed_list", entry)
		}
	}
}

// actCallTimedActionList decodes (entry, timer type, allow override).
func actCallTimedActionList(e *Engine, h *holder, targets []ir.ObjectID, t Trigger) outcome {
	p := h.rule.Action.Params
	e.startTimedList(targets, p[0], TimedListTimer(p[1]), p[2] != 0, t)
	return outcomeSuccess
}

func actCallRandomTimedActionList(e *Engine, h *holder, targets []ir.ObjectID, t Trigger) outcome {
	entry := e.pickNonZero(h.rule.Action.Params[:])
	e.startTimedList(targets, entry, TimedListAlways, true, t)
	return outcomeSuccess
}

func actCallRandomRangeTimedActionList(e *Engine, h *holder, targets []ir.ObjectID, t Trigger) outcome {
	p := h.rule.Action.Params
	e.startTimedList(targets, e.pickRange(p[0], p[1]), TimedListAlways, true, t)
	return outcomeSuccess
}

// actCallScriptReset clears the phase, then resets the engine.
func actCallScriptReset(e *Engine, _ *holder, _ []ir.ObjectID, _ Trigger) outcome {
	e.setPhase(0)
	e.reset()
	return outcomeSuccess
}

// actSetData decodes (field, data) and raises data_set on every target's
// engine with the base object as invoker.
func actSetData(e *Engine, h *holder, targets []ir.ObjectID, t Trigger) outcome {
	p := h.rule.Action.Params
	from := e.base
	for _, id := range targets {
		e.deps.Effects.Apply(e.effect(h, e.base, id, t))
		e.onPeer(id, func(peer *Engine) {
			peer.raiseEvent(ir.EventDataSet, Trigger{Actor: from, Value0: p[0], Value1: p[1]})
		})
	}
	return outcomeSuccess
}

// actDoAction decodes (action id) and raises action_done on every target's
// engine.
func actDoAction(e *Engine, h *holder, targets []ir.ObjectID, t Trigger) outcome {
	p := h.rule.Action.Params
	from := e.base
	for _, id := range targets {
		e.deps.Effects.Apply(e.effect(h, e.base, id, t))
		e.onPeer(id, func(peer *Engine) {
			peer.raiseEvent(ir.EventActionDone, Trigger{Actor: from, Value0: p[0]})
		})
	}
	return outcomeSuccess
}

// actOverrideBase makes the first unit target the base object.
func actOverrideBase(e *Engine, h *holder, targets []ir.ObjectID, _ Trigger) outcome {
	for _, id := range targets {
		info, ok := e.deps.Objects.Object(id)
		if !ok || !info.IsUnit() {
			continue
		}
		e.base = id
		e.log.Debug("base object overridden", "rule_id", h.rule.ID, "base", uint64(id))
		return outcomeSuccess
	}
	return outcomeSkipped
}

func actResetBase(e *Engine, _ *holder, _ []ir.ObjectID, _ Trigger) outcome {
	e.base = e.owner.ID
	return outcomeSuccess
}
