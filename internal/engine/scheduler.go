package engine

import (
	"cmp"
	"math"
	"slices"

	"github.com/roach88/smartscript/internal/ir"
)

// DefaultPriority is the priority of a rule that has not been retried.
// Lower priorities sort first.
const DefaultPriority uint32 = math.MaxUint32

// retryTimer is the timer a retried rule gets: due on the next tick.
const retryTimer uint32 = 1

// failedConditionsRepoll caps the re-poll delay of a timed rule whose
// conditions failed.
const failedConditionsRepoll uint32 = 5000

type listKind uint8

const (
	listEvents listKind = iota
	listStored
	listTimed
)

// holder is the run-state of one rule on one engine.
type holder struct {
	rule ir.Rule
	// kind is the effective event kind; timed action lists override it.
	kind     ir.EventType
	flags    ir.EventFlags
	list     listKind
	timer    uint32
	active   bool
	runOnce  bool
	priority uint32
	order    int64
	// enabled gates sequential execution inside a timed action list.
	enabled bool
}

func (e *Engine) newHolder(r ir.Rule, list listKind) *holder {
	return &holder{
		rule:     r,
		kind:     r.Event.Type,
		flags:    r.Event.Flags,
		list:     list,
		priority: DefaultPriority,
		order:    e.order.Next(),
	}
}

// initTimer computes the initial timer of a rule. Rules without a timer are
// permanently active.
func (e *Engine) initTimer(h *holder) {
	p := h.rule.Event.Params
	switch h.kind {
	case ir.EventUpdate, ir.EventUpdateIC, ir.EventUpdateOOC:
		e.recalcTimer(h, p[0], p[1])
	case ir.EventOOCLos, ir.EventICLos:
		e.recalcTimer(h, p[2], p[3])
	case ir.EventDistanceCreature, ir.EventDistanceGameObject:
		e.recalcTimer(h, p[3], p[3])
	default:
		h.active = true
	}
}

// recalcTimer draws a timer uniformly from [lo, hi]. A zero timer makes the
// rule active immediately; otherwise it waits for the countdown.
func (e *Engine) recalcTimer(h *holder, lo, hi uint32) {
	if hi < lo {
		hi = lo
	}
	h.timer = lo
	if hi > lo {
		h.timer = lo + uint32(e.rng.Uint64N(uint64(hi-lo)+1))
	}
	h.active = h.timer == 0
}

// raisePriority makes the rule due on the next tick and, unless it already
// holds a retry priority, gives it the next priority sequence number so it
// sorts ahead of default-priority rules.
func (e *Engine) raisePriority(h *holder) {
	h.timer = retryTimer
	if h.priority == DefaultPriority {
		h.priority = uint32(e.priorities.Next())
		e.sortNeeded = true
	}
}

// retryLater schedules a failed action to be asked again next tick without
// a new chance roll.
func (e *Engine) retryLater(h *holder) {
	e.raisePriority(h)
	h.flags |= ir.FlagTempIgnoreChanceRoll
	h.runOnce = false
	e.stats.Retries++
}

// inPhase reports whether the current phase is in mask. Phase 0 is in no
// mask; callers treat an empty mask as always eligible.
func (e *Engine) inPhase(mask uint32) bool {
	if e.phase == 0 {
		return false
	}
	return mask&ir.PhaseBit(e.phase) != 0
}

// phaseAllows is the phase gate applied before advancing or dispatching.
func (e *Engine) phaseAllows(h *holder) bool {
	mask := h.rule.Event.PhaseMask
	return mask == 0 || e.inPhase(mask)
}

// sortEvents orders the live list by (priority, insertion order).
func (e *Engine) sortEvents() {
	slices.SortStableFunc(e.events, func(a, b *holder) int {
		if n := cmp.Compare(a.priority, b.priority); n != 0 {
			return n
		}
		return cmp.Compare(a.order, b.order)
	})
	e.sortNeeded = false
}

// update is one engine tick.
func (e *Engine) update(diff uint32) {
	info, ok := e.baseInfo()
	if !ok && e.owner.Source != ir.SourceQuest && e.owner.Source != ir.SourceScene {
		return
	}
	if ok && info.Evading {
		if !e.timedRunning() {
			e.timed = nil
		}
		return
	}

	e.mergeInstalls()
	e.applyRemovals()
	if e.sortNeeded {
		e.sortEvents()
	}

	for _, h := range e.snapshot() {
		e.updateTimer(h, diff)
	}

	for _, id := range slices.Clone(e.storedOrder) {
		if h, ok := e.stored[id]; ok {
			e.updateTimer(h, diff)
		}
	}

	// Only rules enabled when the pass starts are advanced, so a successor's
	// delay counts from the tick after its predecessor fired.
	gen := e.timedGen
	var due []*holder
	for _, h := range e.timed {
		if h.enabled {
			due = append(due, h)
		}
	}
	for _, h := range due {
		if e.timedGen != gen {
			break
		}
		if h.enabled {
			e.updateTimer(h, diff)
		}
	}
	if len(due) == 0 && e.timedGen == gen {
		e.timed = nil
	}

	e.applyRemovals()
}

// updateTimer advances one rule by diff and processes it when due.
func (e *Engine) updateTimer(h *holder, diff uint32) {
	if h.kind == ir.EventLink {
		return
	}
	if !e.phaseAllows(h) {
		return
	}
	timed := h.kind.IsTimed()
	if !timed && h.active {
		return
	}
	switch h.kind {
	case ir.EventUpdateIC:
		if !e.ownerEngaged() {
			return
		}
	case ir.EventUpdateOOC:
		if e.ownerEngaged() {
			return
		}
	}

	if diff < h.timer {
		h.timer -= diff
		return
	}

	if timed && h.rule.Action.Type == ir.ActionCast &&
		h.rule.Action.Params[1]&ir.CastInterruptPrevious == 0 && e.ownerCasting() {
		e.raisePriority(h)
		return
	}

	h.active = true
	if timed {
		if err := e.depth.Enter(); err != nil {
			e.log.Error("timed rule dropped", "rule_id", h.rule.ID, "error", err)
			return
		}
		gen := e.timedGen
		e.processEvent(h, Trigger{})
		e.depth.Leave()
		if h.list == listTimed && e.timedGen == gen {
			h.enabled = false
			e.enableNextTimed(h.rule.ID)
		}
	}

	if h.priority != DefaultPriority && h.timer > retryTimer {
		h.priority = DefaultPriority
		e.sortNeeded = true
	}
}

// reset implements Reset under the lock.
func (e *Engine) reset() {
	e.base = e.owner.ID
	for _, h := range e.events {
		if !h.flags.Has(ir.FlagDontReset) {
			e.initTimer(h)
			h.runOnce = false
		}
		if h.priority != DefaultPriority {
			h.priority = DefaultPriority
			e.sortNeeded = true
		}
	}
	e.log.Info("script reset")
	e.raiseEvent(ir.EventReset, Trigger{})
	e.lastInvoker = ir.NoObject
}

func (e *Engine) baseInfo() (ObjectInfo, bool) {
	if !e.base.Valid() {
		return ObjectInfo{}, false
	}
	return e.deps.Objects.Object(e.base)
}

func (e *Engine) ownerEngaged() bool {
	info, ok := e.baseInfo()
	return ok && info.Engaged
}

func (e *Engine) ownerCasting() bool {
	info, ok := e.baseInfo()
	return ok && info.Casting
}

func (e *Engine) ownerCharmed() bool {
	info, ok := e.baseInfo()
	return ok && info.Charmed
}
