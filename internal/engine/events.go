package engine

import (
	"math"

	"github.com/roach88/smartscript/internal/ir"
)

// eventCheck decides whether a rule's event parameters match. Polled
// checks may set t.Actor to the unit that satisfied them; that unit becomes
// the invoker.
type eventCheck func(e *Engine, h *holder, t *Trigger) bool

// paramRange names the two event parameters holding a cooldown or repeat
// range.
type paramRange struct {
	lo, hi int
	ok     bool
}

func cd(lo, hi int) paramRange { return paramRange{lo: lo, hi: hi, ok: true} }

func (r paramRange) set() bool { return r.ok }

func (r paramRange) bounds(p [5]uint32) (uint32, uint32) {
	if !r.ok {
		return 0, 0
	}
	return p[r.lo], p[r.hi]
}

type eventSpec struct {
	check    eventCheck
	cooldown paramRange
}

// eventSpecs is indexed by event kind. A nil check always matches. Polled
// kinds use cooldown as the repeat range; pushed kinds re-arm their timer
// from it after firing.
var eventSpecs = [ir.EventTypeCount]eventSpec{
	ir.EventUpdateIC:  {cooldown: cd(2, 3)},
	ir.EventUpdateOOC: {cooldown: cd(2, 3)},
	ir.EventUpdate:    {cooldown: cd(2, 3)},

	ir.EventHealthPct:           {check: checkHealthPct, cooldown: cd(2, 3)},
	ir.EventManaPct:             {check: checkManaPct, cooldown: cd(2, 3)},
	ir.EventTargetHealthPct:     {check: checkTargetHealthPct, cooldown: cd(2, 3)},
	ir.EventTargetManaPct:       {check: checkTargetManaPct, cooldown: cd(2, 3)},
	ir.EventRange:               {check: checkRange, cooldown: cd(2, 3)},
	ir.EventVictimCasting:       {check: checkVictimCasting, cooldown: cd(0, 1)},
	ir.EventFriendlyHealth:      {check: checkFriendlyHealth, cooldown: cd(2, 3)},
	ir.EventFriendlyIsCC:        {check: checkFriendlyIsCC, cooldown: cd(1, 2)},
	ir.EventFriendlyMissingBuff: {check: checkFriendlyMissingBuff, cooldown: cd(2, 3)},
	ir.EventHasAura:             {check: checkHasAura, cooldown: cd(2, 3)},
	ir.EventTargetBuffed:        {check: checkTargetBuffed, cooldown: cd(2, 3)},
	ir.EventIsBehindTarget:      {check: checkIsBehindTarget, cooldown: cd(0, 1)},
	ir.EventFriendlyHealthPct:   {check: checkFriendlyHealthPct, cooldown: cd(2, 3)},
	ir.EventDistanceCreature:    {check: checkDistance(ir.KindCreature), cooldown: cd(3, 3)},
	ir.EventDistanceGameObject:  {check: checkDistance(ir.KindGameObject), cooldown: cd(3, 3)},

	ir.EventKill:             {check: checkKill, cooldown: cd(0, 1)},
	ir.EventSpellHit:         {check: checkSpellHit, cooldown: cd(2, 3)},
	ir.EventSpellHitTarget:   {check: checkSpellHit, cooldown: cd(2, 3)},
	ir.EventOOCLos:           {check: checkLos(false), cooldown: cd(2, 3)},
	ir.EventICLos:            {check: checkLos(true), cooldown: cd(2, 3)},
	ir.EventRespawn:          {check: checkRespawn},
	ir.EventSummonedUnit:     {check: checkActorEntry, cooldown: cd(1, 2)},
	ir.EventSummonedUnitDies: {check: checkActorEntry, cooldown: cd(1, 2)},
	ir.EventSummonDespawned:  {check: checkValue0Any(0), cooldown: cd(1, 2)},
	ir.EventAcceptedQuest:    {check: checkValue0Any(0), cooldown: cd(1, 2)},
	ir.EventRewardQuest:      {check: checkValue0Any(0), cooldown: cd(1, 2)},
	ir.EventReceiveEmote:     {check: checkValue0Exact(0), cooldown: cd(1, 2)},
	ir.EventDamaged:          {check: checkValue0Between, cooldown: cd(2, 3)},
	ir.EventDamagedTarget:    {check: checkValue0Between, cooldown: cd(2, 3)},
	ir.EventReceiveHeal:      {check: checkValue0Between, cooldown: cd(2, 3)},
	ir.EventMovementInform:   {check: checkMovementInform},
	ir.EventDataSet:          {check: checkDataSet, cooldown: cd(2, 3)},
	ir.EventCharmed:          {check: checkCharmed},

	ir.EventWaypointStart:    {check: checkWaypoint},
	ir.EventWaypointReached:  {check: checkWaypoint},
	ir.EventWaypointPaused:   {check: checkWaypoint},
	ir.EventWaypointResumed:  {check: checkWaypoint},
	ir.EventWaypointStopped:  {check: checkWaypoint},
	ir.EventWaypointEnded:    {check: checkWaypoint},
	ir.EventTextOver:         {check: checkTextOver},
	ir.EventPassengerBoarded: {cooldown: cd(0, 1)},
	ir.EventPassengerRemoved: {cooldown: cd(0, 1)},

	ir.EventTransportAddCreature: {check: checkValue0Any(0)},
	ir.EventTransportRelocate:    {check: checkValue0Any(0)},
	ir.EventInstancePlayerEnter:  {check: checkValue0Any(0), cooldown: cd(1, 2)},
	ir.EventAreaTriggerOnTrigger: {check: checkValue0Any(0)},
	ir.EventTimedEventTriggered:  {check: checkValue0Exact(0)},
	ir.EventGossipSelect:         {check: checkGossipSelect},
	ir.EventGossipHello:          {check: checkGossipHello},
	ir.EventPhaseChange:          {check: checkPhaseChange},
	ir.EventGameEventStart:       {check: checkValue0Exact(0)},
	ir.EventGameEventEnd:         {check: checkValue0Exact(0)},
	ir.EventGOLootStateChanged:   {check: checkValue0Exact(0)},
	ir.EventGOEventInform:        {check: checkValue0Exact(0)},
	ir.EventActionDone:           {check: checkValue0Exact(0)},
	ir.EventCounterSet:           {check: checkCounterSet, cooldown: cd(2, 3)},
	ir.EventOnSpellCast:          {check: checkSpell, cooldown: cd(1, 2)},
	ir.EventOnSpellFailed:        {check: checkSpell, cooldown: cd(1, 2)},
	ir.EventOnSpellStart:         {check: checkSpell, cooldown: cd(1, 2)},
}

func anyOr(param, v uint32) bool { return param == 0 || param == v }

func between(v, lo, hi uint32) bool { return v >= lo && v <= hi }

func checkValue0Any(i int) eventCheck {
	return func(_ *Engine, h *holder, t *Trigger) bool {
		return anyOr(h.rule.Event.Params[i], t.Value0)
	}
}

func checkValue0Exact(i int) eventCheck {
	return func(_ *Engine, h *holder, t *Trigger) bool {
		return h.rule.Event.Params[i] == t.Value0
	}
}

func checkValue0Between(_ *Engine, h *holder, t *Trigger) bool {
	p := h.rule.Event.Params
	return between(t.Value0, p[0], p[1])
}

func checkHealthPct(e *Engine, h *holder, _ *Trigger) bool {
	me, ok := e.baseInfo()
	if !ok || !me.Engaged || me.MaxHealth == 0 {
		return false
	}
	p := h.rule.Event.Params
	return between(me.HealthPct(), p[0], p[1])
}

func checkManaPct(e *Engine, h *holder, _ *Trigger) bool {
	me, ok := e.baseInfo()
	if !ok || !me.Engaged || me.PowerType != PowerMana || me.MaxPower == 0 {
		return false
	}
	p := h.rule.Event.Params
	return between(me.ManaPct(), p[0], p[1])
}

func checkTargetHealthPct(e *Engine, h *holder, t *Trigger) bool {
	v, ok := e.engagedVictim()
	if !ok || v.MaxHealth == 0 {
		return false
	}
	p := h.rule.Event.Params
	if !between(v.HealthPct(), p[0], p[1]) {
		return false
	}
	t.Actor = v.ID
	return true
}

func checkTargetManaPct(e *Engine, h *holder, t *Trigger) bool {
	v, ok := e.engagedVictim()
	if !ok || v.PowerType != PowerMana || v.MaxPower == 0 {
		return false
	}
	p := h.rule.Event.Params
	if !between(v.ManaPct(), p[0], p[1]) {
		return false
	}
	t.Actor = v.ID
	return true
}

func checkRange(e *Engine, h *holder, t *Trigger) bool {
	me, ok := e.baseInfo()
	if !ok {
		return false
	}
	v, ok := e.engagedVictim()
	if !ok {
		return false
	}
	p := h.rule.Event.Params
	d := distance(me.Pos, v.Pos)
	if d < float64(p[0]) || d > float64(p[1]) {
		return false
	}
	t.Actor = v.ID
	return true
}

func checkVictimCasting(e *Engine, h *holder, t *Trigger) bool {
	v, ok := e.engagedVictim()
	if !ok || !v.Casting {
		return false
	}
	if !anyOr(h.rule.Event.Params[2], v.CastingSpell) {
		return false
	}
	t.Actor = v.ID
	return true
}

func checkFriendlyHealth(e *Engine, h *holder, t *Trigger) bool {
	if !e.ownerEngaged() {
		return false
	}
	p := h.rule.Event.Params
	for _, f := range e.friendlyUnits(float64(p[1])) {
		if f.MaxHealth > f.Health && f.MaxHealth-f.Health >= p[0] {
			t.Actor = f.ID
			return true
		}
	}
	return false
}

func checkFriendlyIsCC(e *Engine, h *holder, t *Trigger) bool {
	if !e.ownerEngaged() {
		return false
	}
	for _, f := range e.friendlyUnits(float64(h.rule.Event.Params[0])) {
		if f.CrowdControlled {
			t.Actor = f.ID
			return true
		}
	}
	return false
}

func checkFriendlyMissingBuff(e *Engine, h *holder, t *Trigger) bool {
	p := h.rule.Event.Params
	for _, f := range e.friendlyUnits(float64(p[1])) {
		if f.AuraCount(p[0]) == 0 {
			t.Actor = f.ID
			return true
		}
	}
	return false
}

func checkFriendlyHealthPct(e *Engine, h *holder, t *Trigger) bool {
	if !e.ownerEngaged() {
		return false
	}
	p := h.rule.Event.Params
	for _, f := range e.friendlyUnits(float64(p[4])) {
		if f.MaxHealth > 0 && between(f.HealthPct(), p[0], p[1]) {
			t.Actor = f.ID
			return true
		}
	}
	return false
}

func checkHasAura(e *Engine, h *holder, _ *Trigger) bool {
	me, ok := e.baseInfo()
	if !ok {
		return false
	}
	p := h.rule.Event.Params
	count := me.AuraCount(p[0])
	return (p[1] == 0 && count == 0) || (p[1] != 0 && count >= p[1])
}

func checkTargetBuffed(e *Engine, h *holder, t *Trigger) bool {
	v, ok := e.victimInfo()
	if !ok {
		return false
	}
	p := h.rule.Event.Params
	if v.AuraCount(p[0]) < max(p[1], 1) {
		return false
	}
	t.Actor = v.ID
	return true
}

func checkIsBehindTarget(e *Engine, _ *holder, t *Trigger) bool {
	me, ok := e.baseInfo()
	if !ok {
		return false
	}
	v, ok := e.victimInfo()
	if !ok || !isBehind(me.Pos, v.Pos) {
		return false
	}
	t.Actor = v.ID
	return true
}

func checkDistance(kind ir.ObjectKind) eventCheck {
	return func(e *Engine, h *holder, t *Trigger) bool {
		me, ok := e.baseInfo()
		if !ok {
			return false
		}
		p := h.rule.Event.Params
		dist := float64(p[2])
		if p[0] != 0 {
			id, ok := e.deps.Objects.BySpawnID(kind, uint64(p[0]))
			if !ok {
				return false
			}
			other, ok := e.deps.Objects.Object(id)
			if !ok || distance(me.Pos, other.Pos) > dist {
				return false
			}
			t.Actor = id
			return true
		}
		if e.deps.Spatial == nil {
			return false
		}
		id, ok := e.deps.Spatial.FindNearest(me.Pos, dist, SpatialFilter{
			Kind: kind, Entry: p[1], Life: LifeAlive, Exclude: me.ID,
		})
		if !ok {
			return false
		}
		t.Actor = id
		return true
	}
}

func checkKill(e *Engine, h *holder, t *Trigger) bool {
	victim, ok := e.deps.Objects.Object(t.Actor)
	if !ok {
		return false
	}
	p := h.rule.Event.Params
	if p[2] != 0 && victim.Kind != ir.KindPlayer {
		return false
	}
	return anyOr(p[3], victim.Entry)
}

func checkSpellHit(_ *Engine, h *holder, t *Trigger) bool {
	p := h.rule.Event.Params
	if !anyOr(p[0], t.Spell) {
		return false
	}
	return p[1] == 0 || p[1]&t.Value0 != 0
}

func checkSpell(_ *Engine, h *holder, t *Trigger) bool {
	return h.rule.Event.Params[0] == t.Spell
}

// Line-of-sight hostility modes.
const (
	losHostile    = 0
	losNotHostile = 1
	losAny        = 2
)

func checkLos(inCombat bool) eventCheck {
	return func(e *Engine, h *holder, t *Trigger) bool {
		me, ok := e.baseInfo()
		if !ok || me.Engaged != inCombat {
			return false
		}
		actor, ok := e.deps.Objects.Object(t.Actor)
		if !ok || !actor.IsUnit() {
			return false
		}
		p := h.rule.Event.Params
		if p[4] != 0 && actor.Kind != ir.KindPlayer {
			return false
		}
		if distance(me.Pos, actor.Pos) > float64(p[1]) {
			return false
		}
		switch p[0] {
		case losHostile:
			return e.deps.Combat != nil && !e.deps.Combat.IsFriendly(me.ID, actor.ID)
		case losNotHostile:
			return e.deps.Combat != nil && e.deps.Combat.IsFriendly(me.ID, actor.ID)
		}
		return true
	}
}

// Respawn filter modes: any, map id in Value0, area id in Value1.
func checkRespawn(_ *Engine, h *holder, t *Trigger) bool {
	p := h.rule.Event.Params
	switch p[0] {
	case 1:
		return p[1] == t.Value0
	case 2:
		return p[2] == t.Value1
	}
	return true
}

func checkActorEntry(e *Engine, h *holder, t *Trigger) bool {
	want := h.rule.Event.Params[0]
	if want == 0 {
		return true
	}
	actor, ok := e.deps.Objects.Object(t.Actor)
	return ok && actor.Entry == want
}

// anyMovementID matches every point id in movement-inform rules.
const anyMovementID = math.MaxUint32

func checkMovementInform(_ *Engine, h *holder, t *Trigger) bool {
	p := h.rule.Event.Params
	if p[0] != 0 && p[0] != t.Value0 {
		return false
	}
	return p[1] == anyMovementID || p[1] == t.Value1
}

func checkDataSet(_ *Engine, h *holder, t *Trigger) bool {
	p := h.rule.Event.Params
	return p[0] == t.Value0 && p[1] == t.Value1
}

// checkCharmed matches charm apply (Flag set) unless the rule asks for
// charm removal.
func checkCharmed(_ *Engine, h *holder, t *Trigger) bool {
	onRemove := h.rule.Event.Params[0] != 0
	return onRemove != t.Flag
}

func checkWaypoint(_ *Engine, h *holder, t *Trigger) bool {
	p := h.rule.Event.Params
	return anyOr(p[0], t.Value0) && anyOr(p[1], t.Value1)
}

func checkTextOver(_ *Engine, h *holder, t *Trigger) bool {
	p := h.rule.Event.Params
	return p[0] == t.Value0 && anyOr(p[1], t.Value1)
}

func checkGossipSelect(_ *Engine, h *holder, t *Trigger) bool {
	p := h.rule.Event.Params
	return p[0] == t.Value0 && p[1] == t.Value1
}

// Gossip hello filters: 0 any, 1 hello only, 2 report-use only (Flag set).
func checkGossipHello(_ *Engine, h *holder, t *Trigger) bool {
	switch h.rule.Event.Params[0] {
	case 1:
		return !t.Flag
	case 2:
		return t.Flag
	}
	return true
}

func checkPhaseChange(e *Engine, h *holder, _ *Trigger) bool {
	return e.inPhase(h.rule.Event.Params[0])
}

func checkCounterSet(e *Engine, h *holder, t *Trigger) bool {
	p := h.rule.Event.Params
	return p[0] == t.Value0 && e.counters[p[0]] == p[1]
}

// victimInfo returns the owner's current combat target.
func (e *Engine) victimInfo() (ObjectInfo, bool) {
	if e.deps.Combat == nil {
		return ObjectInfo{}, false
	}
	id, ok := e.deps.Combat.Victim(e.base)
	if !ok {
		return ObjectInfo{}, false
	}
	return e.deps.Objects.Object(id)
}

func (e *Engine) engagedVictim() (ObjectInfo, bool) {
	if !e.ownerEngaged() {
		return ObjectInfo{}, false
	}
	return e.victimInfo()
}

// friendlyUnits returns living units friendly to the owner within radius,
// nearest first.
func (e *Engine) friendlyUnits(radius float64) []ObjectInfo {
	me, ok := e.baseInfo()
	if !ok || e.deps.Spatial == nil || e.deps.Combat == nil {
		return nil
	}
	var out []ObjectInfo
	for _, id := range e.deps.Spatial.FindInRadius(me.Pos, radius, SpatialFilter{UnitsOnly: true, Life: LifeAlive}) {
		if id != me.ID && !e.deps.Combat.IsFriendly(me.ID, id) {
			continue
		}
		if info, ok := e.deps.Objects.Object(id); ok {
			out = append(out, info)
		}
	}
	return out
}

func distance(a, b ir.Position) float64 {
	return math.Sqrt((a.X-b.X)*(a.X-b.X) + (a.Y-b.Y)*(a.Y-b.Y) + (a.Z-b.Z)*(a.Z-b.Z))
}

// isBehind reports whether me stands in the rear half-plane of target.
func isBehind(me, target ir.Position) bool {
	angle := math.Atan2(me.Y-target.Y, me.X-target.X) - target.O
	angle = math.Remainder(angle, 2*math.Pi)
	return math.Abs(angle) > math.Pi/2
}

// ParamRanges returns the index pairs of kind's parameters that hold a
// min/max timer range: the initial timer of update kinds and the cooldown.
func ParamRanges(kind ir.EventType) [][2]int {
	var out [][2]int
	switch kind {
	case ir.EventUpdate, ir.EventUpdateIC, ir.EventUpdateOOC:
		out = append(out, [2]int{0, 1})
	}
	if kind.Known() {
		if r := eventSpecs[kind].cooldown; r.set() && r.lo != r.hi {
			out = append(out, [2]int{r.lo, r.hi})
		}
	}
	return out
}
