package engine

import (
	"slices"

	"github.com/roach88/smartscript/internal/ir"
)

// defaultClosestRange is used by closest-of-type selectors without a range.
const defaultClosestRange = 100

// targetContext carries what a selector may reference.
type targetContext struct {
	rule    ir.Rule
	me      ObjectInfo
	hasMe   bool
	invoker ir.ObjectID
}

// ref is the reference object of spatial selectors: the owner, or the
// invoker when the owner is absent.
func (e *Engine) ref(tc *targetContext) (ObjectInfo, bool) {
	if tc.hasMe {
		return tc.me, true
	}
	if !tc.invoker.Valid() {
		return ObjectInfo{}, false
	}
	return e.deps.Objects.Object(tc.invoker)
}

type targetSelector func(e *Engine, tc *targetContext) []ir.ObjectID

// targetSelectors is indexed by selector kind.
var targetSelectors = [ir.TargetTypeCount]targetSelector{
	ir.TargetNone:                       func(*Engine, *targetContext) []ir.ObjectID { return nil },
	ir.TargetPosition:                   func(*Engine, *targetContext) []ir.ObjectID { return nil },
	ir.TargetSelf:                       selectSelf,
	ir.TargetVictim:                     selectVictim,
	ir.TargetHostileTopAggro:            selectThreat(threatTop),
	ir.TargetHostileSecondAggro:         selectThreat(threatSecond),
	ir.TargetHostileLastAggro:           selectThreat(threatLast),
	ir.TargetHostileRandom:              selectThreat(threatRandom),
	ir.TargetHostileRandomNotTop:        selectThreat(threatRandomNotTop),
	ir.TargetActionInvoker:              selectInvoker,
	ir.TargetCreatureRange:              selectRange(ir.KindCreature),
	ir.TargetGameObjectRange:            selectRange(ir.KindGameObject),
	ir.TargetPlayerRange:                selectPlayerRange,
	ir.TargetCreatureDistance:           selectDistance(ir.KindCreature),
	ir.TargetGameObjectDistance:         selectDistance(ir.KindGameObject),
	ir.TargetPlayerDistance:             selectPlayerDistance,
	ir.TargetCreatureGUID:               selectGUID(ir.KindCreature),
	ir.TargetGameObjectGUID:             selectGUID(ir.KindGameObject),
	ir.TargetStored:                     selectStored,
	ir.TargetInvokerParty:               selectInvokerParty,
	ir.TargetClosestCreature:            selectClosestCreature,
	ir.TargetClosestGameObject:          selectClosest(ir.KindGameObject, false),
	ir.TargetClosestUnspawnedGameObject: selectClosest(ir.KindGameObject, true),
	ir.TargetClosestPlayer:              selectClosestPlayer,
	ir.TargetActionInvokerVehicle:       selectInvokerVehicle,
	ir.TargetOwnerOrSummoner:            selectOwnerOrSummoner,
	ir.TargetThreatList:                 selectThreatList,
	ir.TargetClosestEnemy:               selectClosestFaction(false),
	ir.TargetClosestFriendly:            selectClosestFaction(true),
	ir.TargetLootRecipients:             selectLootRecipients,
	ir.TargetFarthest:                   selectFarthest,
	ir.TargetVehiclePassenger:           selectVehiclePassenger,
}

// resolveTargets computes the ordered target list of a rule. The invoker is
// the trigger's actor, falling back to the last invoker.
func (e *Engine) resolveTargets(h *holder, t Trigger) []ir.ObjectID {
	return e.resolve(h.rule, h.rule.Target, t)
}

func (e *Engine) resolve(r ir.Rule, target ir.Target, t Trigger) []ir.ObjectID {
	tc := &targetContext{rule: r, invoker: t.Actor}
	tc.rule.Target = target
	if !tc.invoker.Valid() {
		tc.invoker = e.lastInvoker
	}
	tc.me, tc.hasMe = e.baseInfo()

	if !target.Type.Known() {
		e.configError(newRuleError(ErrCodeUnknownTarget, r, "unknown target type %d", uint32(target.Type)))
		return nil
	}
	return targetSelectors[target.Type](e, tc)
}

func selectSelf(_ *Engine, tc *targetContext) []ir.ObjectID {
	if !tc.hasMe {
		return nil
	}
	return []ir.ObjectID{tc.me.ID}
}

func selectVictim(e *Engine, tc *targetContext) []ir.ObjectID {
	if !tc.hasMe || e.deps.Combat == nil {
		return nil
	}
	if id, ok := e.deps.Combat.Victim(tc.me.ID); ok {
		return []ir.ObjectID{id}
	}
	return nil
}

func selectInvoker(e *Engine, tc *targetContext) []ir.ObjectID {
	if !tc.invoker.Valid() {
		return nil
	}
	if _, ok := e.deps.Objects.Object(tc.invoker); !ok {
		return nil
	}
	return []ir.ObjectID{tc.invoker}
}

type threatPick uint8

const (
	threatTop threatPick = iota
	threatSecond
	threatLast
	threatRandom
	threatRandomNotTop
)

// threatFilter decodes (max distance, player only, power type + 1).
func threatFilter(p [4]uint32) ThreatFilter {
	return ThreatFilter{MaxDist: float64(p[0]), PlayerOnly: p[1] != 0, PowerType: p[2]}
}

func selectThreat(pick threatPick) targetSelector {
	return func(e *Engine, tc *targetContext) []ir.ObjectID {
		if e.deps.Combat == nil {
			e.missingCollaborator(tc, "combat")
			return nil
		}
		if !tc.hasMe {
			return nil
		}
		ranked := e.deps.Combat.ThreatRanked(tc.me.ID, ThreatHighestFirst, 0, threatFilter(tc.rule.Target.Params))
		var idx int
		switch pick {
		case threatTop:
			idx = 0
		case threatSecond:
			idx = 1
		case threatLast:
			idx = len(ranked) - 1
		case threatRandom:
			if len(ranked) == 0 {
				return nil
			}
			idx = e.rng.IntN(len(ranked))
		case threatRandomNotTop:
			if len(ranked) < 2 {
				return nil
			}
			idx = 1 + e.rng.IntN(len(ranked)-1)
		}
		if idx < 0 || idx >= len(ranked) {
			return nil
		}
		return []ir.ObjectID{ranked[idx]}
	}
}

func selectThreatList(e *Engine, tc *targetContext) []ir.ObjectID {
	if !tc.hasMe || e.deps.Combat == nil {
		return nil
	}
	p := tc.rule.Target.Params
	return e.deps.Combat.ThreatRanked(tc.me.ID, ThreatHighestFirst, 0, ThreatFilter{MaxDist: float64(p[0]), PlayerOnly: p[1] != 0})
}

func selectFarthest(e *Engine, tc *targetContext) []ir.ObjectID {
	if !tc.hasMe || e.deps.Combat == nil {
		return nil
	}
	p := tc.rule.Target.Params
	ranked := e.deps.Combat.ThreatRanked(tc.me.ID, ThreatHighestFirst, 0, ThreatFilter{MaxDist: float64(p[0]), PlayerOnly: p[1] != 0})
	var best ir.ObjectID
	bestDist := -1.0
	for _, id := range ranked {
		info, ok := e.deps.Objects.Object(id)
		if !ok {
			continue
		}
		if d := distance(tc.me.Pos, info.Pos); d > bestDist {
			best, bestDist = id, d
		}
	}
	if !best.Valid() {
		return nil
	}
	return []ir.ObjectID{best}
}

// searchRadius runs a radius search around the reference object and keeps
// matches at least minDist away.
func (e *Engine) searchRadius(tc *targetContext, minDist, maxDist float64, f SpatialFilter) []ir.ObjectID {
	if e.deps.Spatial == nil {
		e.missingCollaborator(tc, "spatial")
		return nil
	}
	ref, ok := e.ref(tc)
	if !ok {
		e.configError(newRuleError(ErrCodeNoBaseObject, tc.rule, "no reference object for %s", tc.rule.Target.Type))
		return nil
	}
	found := e.deps.Spatial.FindInRadius(ref.Pos, maxDist, f)
	if minDist <= 0 {
		return found
	}
	out := found[:0:0]
	for _, id := range found {
		info, ok := e.deps.Objects.Object(id)
		if ok && distance(ref.Pos, info.Pos) >= minDist {
			out = append(out, id)
		}
	}
	return out
}

// selectRange decodes (entry, min distance, max distance, max size).
func selectRange(kind ir.ObjectKind) targetSelector {
	return func(e *Engine, tc *targetContext) []ir.ObjectID {
		p := tc.rule.Target.Params
		found := e.searchRadius(tc, float64(p[1]), float64(p[2]), SpatialFilter{Kind: kind, Entry: p[0]})
		return e.randomResize(found, p[3])
	}
}

// selectDistance decodes (entry, distance, max size).
func selectDistance(kind ir.ObjectKind) targetSelector {
	return func(e *Engine, tc *targetContext) []ir.ObjectID {
		p := tc.rule.Target.Params
		found := e.searchRadius(tc, 0, float64(p[1]), SpatialFilter{Kind: kind, Entry: p[0]})
		return e.randomResize(found, p[2])
	}
}

// selectPlayerRange decodes (min distance, max distance, max size).
func selectPlayerRange(e *Engine, tc *targetContext) []ir.ObjectID {
	p := tc.rule.Target.Params
	found := e.searchRadius(tc, float64(p[0]), float64(p[1]), SpatialFilter{Kind: ir.KindPlayer, Life: LifeAlive})
	return e.randomResize(found, p[2])
}

func selectPlayerDistance(e *Engine, tc *targetContext) []ir.ObjectID {
	p := tc.rule.Target.Params
	return e.searchRadius(tc, 0, float64(p[0]), SpatialFilter{Kind: ir.KindPlayer, Life: LifeAlive})
}

// selectGUID decodes (spawn id, entry).
func selectGUID(kind ir.ObjectKind) targetSelector {
	return func(e *Engine, tc *targetContext) []ir.ObjectID {
		p := tc.rule.Target.Params
		id, ok := e.deps.Objects.BySpawnID(kind, uint64(p[0]))
		if !ok {
			return nil
		}
		if p[1] != 0 {
			info, ok := e.deps.Objects.Object(id)
			if !ok || info.Entry != p[1] {
				return nil
			}
		}
		return []ir.ObjectID{id}
	}
}

// selectStored re-resolves a stored list. Without an owner the invoker is
// the reference, and only if the rule's conditions accept it.
func selectStored(e *Engine, tc *targetContext) []ir.ObjectID {
	if !tc.hasMe {
		if !tc.invoker.Valid() || e.deps.Conditions == nil {
			return nil
		}
		key := ConditionKey{EntryOrGuid: tc.rule.EntryOrGuid, EventID: tc.rule.ID, Source: tc.rule.SourceType}
		if !e.deps.Conditions.Meets(key, tc.invoker, ir.NoObject) {
			return nil
		}
	}
	return e.storedTargets(tc.rule.Target.Params[0])
}

func selectInvokerParty(e *Engine, tc *targetContext) []ir.ObjectID {
	if !tc.invoker.Valid() || e.deps.Social == nil {
		return nil
	}
	party := e.deps.Social.Party(tc.invoker)
	if len(party) == 0 {
		return []ir.ObjectID{tc.invoker}
	}
	return party
}

// selectClosestCreature decodes (entry, distance, dead).
func selectClosestCreature(e *Engine, tc *targetContext) []ir.ObjectID {
	p := tc.rule.Target.Params
	life := LifeAlive
	if p[2] != 0 {
		life = LifeDead
	}
	return e.nearest(tc, float64(p[1]), SpatialFilter{Kind: ir.KindCreature, Entry: p[0], Life: life})
}

// selectClosest decodes (entry, distance).
func selectClosest(kind ir.ObjectKind, unspawned bool) targetSelector {
	return func(e *Engine, tc *targetContext) []ir.ObjectID {
		p := tc.rule.Target.Params
		return e.nearest(tc, float64(p[1]), SpatialFilter{Kind: kind, Entry: p[0], Unspawned: unspawned})
	}
}

func selectClosestPlayer(e *Engine, tc *targetContext) []ir.ObjectID {
	return e.nearest(tc, float64(tc.rule.Target.Params[0]), SpatialFilter{Kind: ir.KindPlayer, Life: LifeAlive})
}

func (e *Engine) nearest(tc *targetContext, dist float64, f SpatialFilter) []ir.ObjectID {
	if e.deps.Spatial == nil {
		e.missingCollaborator(tc, "spatial")
		return nil
	}
	ref, ok := e.ref(tc)
	if !ok {
		return nil
	}
	if dist == 0 {
		dist = defaultClosestRange
	}
	f.Exclude = ref.ID
	if id, ok := e.deps.Spatial.FindNearest(ref.Pos, dist, f); ok {
		return []ir.ObjectID{id}
	}
	return nil
}

// selectClosestFaction decodes (max distance, player only).
func selectClosestFaction(friendly bool) targetSelector {
	return func(e *Engine, tc *targetContext) []ir.ObjectID {
		if !tc.hasMe || e.deps.Combat == nil {
			return nil
		}
		p := tc.rule.Target.Params
		dist := float64(p[0])
		if dist == 0 {
			dist = defaultClosestRange
		}
		f := SpatialFilter{UnitsOnly: true, Life: LifeAlive, Exclude: tc.me.ID}
		if p[1] != 0 {
			f.Kind = ir.KindPlayer
		}
		for _, id := range e.searchRadius(tc, 0, dist, f) {
			if e.deps.Combat.IsFriendly(tc.me.ID, id) == friendly {
				return []ir.ObjectID{id}
			}
		}
		return nil
	}
}

func selectInvokerVehicle(e *Engine, tc *targetContext) []ir.ObjectID {
	if !tc.invoker.Valid() {
		return nil
	}
	info, ok := e.deps.Objects.Object(tc.invoker)
	if !ok || !info.Vehicle.Valid() {
		return nil
	}
	return []ir.ObjectID{info.Vehicle}
}

// selectOwnerOrSummoner walks charmer-or-owner, then summoner, then creator.
// With the first parameter set it takes one more hop to that object's own
// charmer-or-owner.
func selectOwnerOrSummoner(e *Engine, tc *targetContext) []ir.ObjectID {
	if !tc.hasMe {
		return nil
	}
	id := ownerOf(tc.me)
	if !id.Valid() {
		return nil
	}
	if tc.rule.Target.Params[0] != 0 {
		if info, ok := e.deps.Objects.Object(id); ok {
			if next := charmerOrOwner(info); next.Valid() {
				id = next
			}
		}
	}
	if _, ok := e.deps.Objects.Object(id); !ok {
		return nil
	}
	return []ir.ObjectID{id}
}

func charmerOrOwner(o ObjectInfo) ir.ObjectID {
	if o.Charmer.Valid() {
		return o.Charmer
	}
	return o.Owner
}

func ownerOf(o ObjectInfo) ir.ObjectID {
	for _, id := range []ir.ObjectID{charmerOrOwner(o), o.Summoner, o.Creator} {
		if id.Valid() {
			return id
		}
	}
	return ir.NoObject
}

func selectLootRecipients(e *Engine, tc *targetContext) []ir.ObjectID {
	if !tc.hasMe || e.deps.Social == nil {
		return nil
	}
	var out []ir.ObjectID
	for _, id := range e.deps.Social.LootRecipients(tc.me.ID) {
		if _, ok := e.deps.Objects.Object(id); ok {
			out = append(out, id)
		}
	}
	return out
}

// selectVehiclePassenger decodes (seat mask); mask 0 matches every seat.
func selectVehiclePassenger(e *Engine, tc *targetContext) []ir.ObjectID {
	if !tc.hasMe || e.deps.Social == nil {
		return nil
	}
	mask := tc.rule.Target.Params[0]
	var out []ir.ObjectID
	for _, p := range e.deps.Social.Passengers(tc.me.ID) {
		if mask == 0 || mask&(1<<p.Seat) != 0 {
			out = append(out, p.ID)
		}
	}
	return out
}

// randomResize drops random entries until at most n remain, keeping the
// order of the survivors. n == 0 keeps everything.
func (e *Engine) randomResize(ids []ir.ObjectID, n uint32) []ir.ObjectID {
	if n == 0 || len(ids) <= int(n) {
		return ids
	}
	out := slices.Clone(ids)
	for len(out) > int(n) {
		i := e.rng.IntN(len(out))
		out = slices.Delete(out, i, i+1)
	}
	return out
}

func (e *Engine) missingCollaborator(tc *targetContext, name string) {
	e.configError(newRuleError(ErrCodeMissingCollaborator, tc.rule, "%s collaborator not configured", name))
}
