package engine

import (
	"slices"

	"github.com/roach88/smartscript/internal/ir"
)

// TimedListTimer selects which update kind the rules of a timed action list
// count down as.
type TimedListTimer uint32

const (
	// TimedListOutOfCombat counts down only while the owner is not engaged.
	TimedListOutOfCombat TimedListTimer = 0
	// TimedListInCombat counts down only while the owner is engaged.
	TimedListInCombat TimedListTimer = 1
	// TimedListAlways counts down unconditionally. Any larger value means the same.
	TimedListAlways TimedListTimer = 2
)

func (t TimedListTimer) eventType() ir.EventType {
	switch t {
	case TimedListOutOfCombat:
		return ir.EventUpdateOOC
	case TimedListInCombat:
		return ir.EventUpdateIC
	default:
		return ir.EventUpdate
	}
}

func (e *Engine) storeCounter(id, value uint32, reset bool) {
	if reset {
		e.counters[id] = value
	} else {
		e.counters[id] += value
	}
	e.log.Debug("counter stored", "counter", id, "value", e.counters[id], "reset", reset)
	e.raiseEvent(ir.EventCounterSet, Trigger{Value0: id, Value1: e.counters[id]})
}

func (e *Engine) storeTargetList(id uint32, objects []ir.ObjectID) {
	e.targetLists[id] = slices.Clone(objects)
}

func (e *Engine) appendTargetList(id uint32, objects []ir.ObjectID) {
	e.targetLists[id] = append(e.targetLists[id], objects...)
}

// storedTargets re-resolves list id through the object collaborator. Stale
// ids are dropped from the result; the stored list itself is untouched so an
// object that respawns under the same id resolves again.
func (e *Engine) storedTargets(id uint32) []ir.ObjectID {
	list, ok := e.targetLists[id]
	if !ok {
		return nil
	}
	out := make([]ir.ObjectID, 0, len(list))
	for _, oid := range list {
		if _, ok := e.deps.Objects.Object(oid); ok {
			out = append(out, oid)
		}
	}
	return out
}

// setTimedActionList swaps in the timed action list entry. Rules with an
// id below startFrom are skipped and only the first remaining rule starts
// enabled. A running list is kept when allowOverride is false.
func (e *Engine) setTimedActionList(entry uint32, invoker ir.ObjectID, startFrom uint32, timer TimedListTimer, allowOverride bool) {
	if !allowOverride && e.timedRunning() {
		e.log.Debug("timed action list kept", "timed_list", e.timedEntry, "requested", entry)
		return
	}

	e.timedGen++
	e.timed = nil
	e.timedEntry = entry
	for _, r := range e.deps.Rules.TimedList(entry) {
		if r.ID < startFrom {
			continue
		}
		h := e.newHolder(r, listTimed)
		h.kind = timer.eventType()
		e.initTimer(h)
		e.timed = append(e.timed, h)
	}
	if len(e.timed) == 0 {
		e.log.Warn("timed action list empty", "timed_list", entry, "start_from", startFrom)
		return
	}
	e.timed[0].enabled = true
	if invoker.Valid() {
		e.lastInvoker = invoker
	}
	e.log.Info("timed action list set", "timed_list", entry, "rules", len(e.timed), "start_from", startFrom)
}

func (e *Engine) timedRunning() bool {
	for _, h := range e.timed {
		if h.enabled {
			return true
		}
	}
	return false
}

// enableNextTimed enables the rule following id in the timed action list.
func (e *Engine) enableNextTimed(id uint32) {
	for _, h := range e.timed {
		if h.rule.ID > id {
			h.enabled = true
			return
		}
	}
}

// createTimedEvent installs a stored timed event that raises
// timed_event_triggered with id when it fires. An existing event with the
// same id is replaced in place.
func (e *Engine) createTimedEvent(id, minDelay, maxDelay, repeatMin, repeatMax, chance uint32) {
	r := ir.Rule{
		EntryOrGuid: int64(e.owner.Entry),
		SourceType:  e.owner.Source,
		ID:          id,
		Event: ir.Event{
			Type:   ir.EventUpdate,
			Params: [5]uint32{minDelay, maxDelay, repeatMin, repeatMax},
			Chance: chance,
		},
		Action:  ir.Action{Type: ir.ActionTriggerTimedEvent, Params: [7]uint32{id}},
		Target:  ir.Target{Type: ir.TargetSelf},
		Comment: "stored timed event",
	}
	h := e.newHolder(r.Normalize(), listStored)
	e.initTimer(h)
	if _, ok := e.stored[id]; !ok {
		e.storedOrder = append(e.storedOrder, id)
	}
	e.stored[id] = h
	e.removals = slices.DeleteFunc(e.removals, func(x uint32) bool { return x == id })
	e.log.Debug("timed event created", "timed_event", id, "timer", h.timer)
}

// triggerTimedEvent raises timed_event_triggered for id. Id 0 is reserved.
func (e *Engine) triggerTimedEvent(id uint32, invoker ir.ObjectID) {
	if id == 0 {
		return
	}
	e.raiseEvent(ir.EventTimedEventTriggered, Trigger{Actor: invoker, Value0: id})
}

// removeTimedEvent schedules stored event id for removal at the end of the
// current tick.
func (e *Engine) removeTimedEvent(id uint32) {
	if _, ok := e.stored[id]; ok && !slices.Contains(e.removals, id) {
		e.removals = append(e.removals, id)
	}
}

func (e *Engine) applyRemovals() {
	if len(e.removals) == 0 {
		return
	}
	for _, id := range e.removals {
		delete(e.stored, id)
	}
	e.storedOrder = slices.DeleteFunc(e.storedOrder, func(id uint32) bool {
		_, ok := e.stored[id]
		return !ok
	})
	e.removals = e.removals[:0]
}

// setPhase changes the current phase, clamped to the highest phase, and
// raises event_phase_change when it actually changes.
func (e *Engine) setPhase(phase uint32) {
	phase = min(phase, ir.MaxPhase)
	if phase == e.phase {
		return
	}
	old := e.phase
	e.phase = phase
	e.log.Debug("phase changed", "from", old, "to", phase)
	e.raiseEvent(ir.EventPhaseChange, Trigger{Value0: old, Value1: phase})
}

func (e *Engine) incPhase(n uint32) {
	if n >= ir.MaxPhase {
		e.setPhase(ir.MaxPhase)
		return
	}
	e.setPhase(e.phase + n)
}

func (e *Engine) decPhase(n uint32) {
	if n >= e.phase {
		e.setPhase(0)
		return
	}
	e.setPhase(e.phase - n)
}
