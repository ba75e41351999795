package engine

import (
	"github.com/roach88/smartscript/internal/ir"
)

// raiseEvent is the depth-guarded dispatch of one event under the lock.
func (e *Engine) raiseEvent(kind ir.EventType, t Trigger) {
	if err := e.depth.Enter(); err != nil {
		e.log.Error("event dropped", "event", kind.String(), "depth", e.depth.Current(), "error", err)
		return
	}
	defer e.depth.Leave()

	for _, h := range e.snapshot() {
		if h.kind == ir.EventLink || h.kind != kind {
			continue
		}
		if !e.meetsConditions(h, t.Actor) {
			continue
		}
		e.processEvent(h, t)
	}
}

// meetsConditions consults the condition collaborator for a rule.
func (e *Engine) meetsConditions(h *holder, actor ir.ObjectID) bool {
	if e.deps.Conditions == nil {
		return true
	}
	key := ConditionKey{
		EntryOrGuid: h.rule.EntryOrGuid,
		EventID:     h.rule.ID,
		Source:      h.rule.SourceType,
	}
	return e.deps.Conditions.Meets(key, actor, e.base)
}

// processEvent applies the per-rule gates and the kind-specific check, then
// hands a passing rule to the action path.
func (e *Engine) processEvent(h *holder, t Trigger) {
	if !h.active && h.kind != ir.EventLink {
		return
	}
	if !e.phaseAllows(h) {
		return
	}
	if h.flags.Has(ir.FlagNotRepeatable) && h.runOnce {
		return
	}
	if !h.flags.Has(ir.FlagWhileCharmed) && e.ownerCharmed() {
		return
	}
	if !h.kind.Known() {
		e.configError(newRuleError(ErrCodeUnknownEvent, h.rule, "unknown event kind %d", uint32(h.kind)))
		return
	}

	spec := eventSpecs[h.kind]
	if spec.check != nil && !spec.check(e, h, &t) {
		return
	}
	e.stats.Dispatched++

	p := h.rule.Event.Params
	if h.kind.IsTimed() {
		lo, hi := spec.cooldown.bounds(p)
		e.processTimedAction(h, lo, hi, t)
		return
	}
	if spec.cooldown.set() {
		lo, hi := spec.cooldown.bounds(p)
		e.recalcTimer(h, lo, hi)
	}
	e.processAction(h, t)
}

// processTimedAction runs a due polled rule. On success its timer is redrawn
// from the repeat range; when conditions veto it is re-polled after
// min(repeatMin, 5s).
func (e *Engine) processTimedAction(h *holder, lo, hi uint32, t Trigger) {
	if !e.meetsConditions(h, t.Actor) {
		repoll := min(lo, failedConditionsRepoll)
		e.recalcTimer(h, repoll, repoll)
		return
	}
	e.recalcTimer(h, lo, hi)
	e.processAction(h, t)
}

// rollChance applies the chance gate. A pending ignore-roll flag is
// consumed instead of rolling. Links never roll: the predecessor's roll
// already decided the chain. Chance 0 means always.
func (e *Engine) rollChance(h *holder) bool {
	if h.flags.Has(ir.FlagTempIgnoreChanceRoll) {
		h.flags &^= ir.FlagTempIgnoreChanceRoll
		return true
	}
	chance := h.rule.Event.Chance
	if h.kind == ir.EventLink || chance == 0 || chance >= 100 {
		return true
	}
	return e.rng.Uint32N(100) < chance
}

// processAction rolls the chance gate, resolves targets, executes the
// action and follows the link on success.
func (e *Engine) processAction(h *holder, t Trigger) {
	if !e.rollChance(h) {
		e.stats.ChanceFailures++
		return
	}
	if t.Actor.Valid() {
		e.lastInvoker = t.Actor
	}
	h.runOnce = true

	targets := e.resolveTargets(h, t)
	res := e.execute(h, targets, t)
	e.stats.Executed++
	e.log.Debug("rule executed",
		"rule_id", h.rule.ID,
		"event", h.kind.String(),
		"action", h.rule.Action.Type.String(),
		"targets", len(targets),
		"outcome", res.String(),
		"depth", e.depth.Current())

	switch res {
	case outcomeRetry:
		e.retryLater(h)
	case outcomeSuccess:
		if h.rule.Link != 0 && h.rule.Link != h.rule.ID {
			e.followLink(h, t)
		}
	}
}

// followLink dispatches the linked rule synchronously with the same payload.
func (e *Engine) followLink(h *holder, t Trigger) {
	linked := e.findLinked(h)
	if linked == nil {
		err := newRuleError(ErrCodeMissingLink, h.rule, "link %d not found", h.rule.Link)
		e.stats.MissingLinks++
		e.log.Warn("link skipped", "rule_id", h.rule.ID, "link", h.rule.Link, "error", err)
		return
	}
	if err := e.depth.Enter(); err != nil {
		e.log.Error("link dropped", "rule_id", h.rule.ID, "link", h.rule.Link, "depth", e.depth.Current(), "error", err)
		return
	}
	defer e.depth.Leave()
	e.processEvent(linked, t)
}

// findLinked looks up the link target in the list the rule belongs to.
func (e *Engine) findLinked(h *holder) *holder {
	var list []*holder
	switch h.list {
	case listTimed:
		list = e.timed
	default:
		list = e.events
	}
	for _, other := range list {
		if other.rule.ID == h.rule.Link {
			return other
		}
	}
	return nil
}

// configError logs and counts a configuration error.
func (e *Engine) configError(err *RuntimeError) {
	e.stats.ConfigErrors++
	e.log.Warn("rule skipped", "rule_id", err.RuleID, "code", string(err.Code), "error", err)
}
