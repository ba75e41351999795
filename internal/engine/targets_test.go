package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/smartscript/internal/catalog"
	"github.com/roach88/smartscript/internal/ir"
)

// resolveFor resolves target against the test owner with actor as invoker.
func resolveFor(t *testing.T, w *fakeWorld, target ir.Target, actor ir.ObjectID) []ir.ObjectID {
	t.Helper()
	e := newTestEngine(t, w, catalog.New())
	r := rule(1, ir.EventAggro, ir.ActionTalk, target.Type)
	r.Target = target
	release := e.acquire(nil)
	defer release()
	h := e.newHolder(r, listEvents)
	return e.resolveTargets(h, Trigger{Actor: actor})
}

func unit(id ir.ObjectID, kind ir.ObjectKind, entry uint32, x float64) ObjectInfo {
	return ObjectInfo{ID: id, Kind: kind, Entry: entry, Pos: ir.Position{X: x}, Alive: true, Spawned: true}
}

func TestResolve_SelfVictimInvoker(t *testing.T) {
	w := newFakeWorld()
	w.add(unit(2, ir.KindPlayer, 0, 5))
	w.victim = 2

	assert.Equal(t, []ir.ObjectID{ownerID}, resolveFor(t, w, ir.Target{Type: ir.TargetSelf}, ir.NoObject))
	assert.Equal(t, []ir.ObjectID{2}, resolveFor(t, w, ir.Target{Type: ir.TargetVictim}, ir.NoObject))
	assert.Equal(t, []ir.ObjectID{2}, resolveFor(t, w, ir.Target{Type: ir.TargetActionInvoker}, 2))
	assert.Empty(t, resolveFor(t, w, ir.Target{Type: ir.TargetActionInvoker}, 99), "stale invoker")
	assert.Empty(t, resolveFor(t, w, ir.Target{Type: ir.TargetPosition}, 2))
}

func TestResolve_ThreatSelectors(t *testing.T) {
	w := newFakeWorld()
	for _, id := range []ir.ObjectID{10, 11, 12} {
		w.add(unit(id, ir.KindPlayer, 0, 1))
	}
	w.threat = []ir.ObjectID{10, 11, 12}

	tests := []struct {
		kind ir.TargetType
		want []ir.ObjectID
	}{
		{ir.TargetHostileTopAggro, []ir.ObjectID{10}},
		{ir.TargetHostileSecondAggro, []ir.ObjectID{11}},
		{ir.TargetHostileLastAggro, []ir.ObjectID{12}},
		{ir.TargetThreatList, []ir.ObjectID{10, 11, 12}},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, resolveFor(t, w, ir.Target{Type: tt.kind}, ir.NoObject))
		})
	}

	got := resolveFor(t, w, ir.Target{Type: ir.TargetHostileRandomNotTop}, ir.NoObject)
	assert.Len(t, got, 1)
	assert.NotEqual(t, ir.ObjectID(10), got[0])

	w.threat = []ir.ObjectID{10}
	assert.Empty(t, resolveFor(t, w, ir.Target{Type: ir.TargetHostileSecondAggro}, ir.NoObject))
	assert.Empty(t, resolveFor(t, w, ir.Target{Type: ir.TargetHostileRandomNotTop}, ir.NoObject))
}

func TestResolve_CreatureRange(t *testing.T) {
	w := newFakeWorld()
	w.add(unit(20, ir.KindCreature, 7, 2))
	w.add(unit(21, ir.KindCreature, 7, 8))
	w.add(unit(22, ir.KindCreature, 8, 3))
	w.add(unit(23, ir.KindCreature, 7, 30))

	got := resolveFor(t, w, ir.Target{Type: ir.TargetCreatureRange, Params: [4]uint32{7, 0, 10}}, ir.NoObject)
	assert.Equal(t, []ir.ObjectID{20, 21}, got)

	got = resolveFor(t, w, ir.Target{Type: ir.TargetCreatureRange, Params: [4]uint32{7, 5, 10}}, ir.NoObject)
	assert.Equal(t, []ir.ObjectID{21}, got, "min distance filter")

	got = resolveFor(t, w, ir.Target{Type: ir.TargetCreatureDistance, Params: [4]uint32{0, 10, 2}}, ir.NoObject)
	assert.Len(t, got, 2, "random resize to max size")
}

func TestResolve_RandomResizeKeepsOrder(t *testing.T) {
	w := newFakeWorld()
	e := newTestEngine(t, w, catalog.New())
	ids := []ir.ObjectID{1, 2, 3, 4, 5, 6}

	got := e.randomResize(ids, 3)
	assert.Len(t, got, 3)
	assert.IsIncreasing(t, got)
	assert.Len(t, ids, 6, "input untouched")
	assert.Equal(t, ids, e.randomResize(ids, 0))
}

func TestResolve_Closest(t *testing.T) {
	w := newFakeWorld()
	w.add(unit(20, ir.KindCreature, 7, 9))
	w.add(unit(21, ir.KindCreature, 7, 4))
	dead := unit(22, ir.KindCreature, 7, 1)
	dead.Alive = false
	w.add(dead)
	gone := unit(30, ir.KindGameObject, 5, 2)
	gone.Spawned = false
	w.add(gone)
	w.add(unit(31, ir.KindGameObject, 5, 6))

	assert.Equal(t, []ir.ObjectID{21}, resolveFor(t, w, ir.Target{Type: ir.TargetClosestCreature, Params: [4]uint32{7}}, ir.NoObject))
	assert.Equal(t, []ir.ObjectID{22}, resolveFor(t, w, ir.Target{Type: ir.TargetClosestCreature, Params: [4]uint32{7, 0, 1}}, ir.NoObject))
	assert.Equal(t, []ir.ObjectID{31}, resolveFor(t, w, ir.Target{Type: ir.TargetClosestGameObject, Params: [4]uint32{5}}, ir.NoObject))
	assert.Equal(t, []ir.ObjectID{30}, resolveFor(t, w, ir.Target{Type: ir.TargetClosestUnspawnedGameObject, Params: [4]uint32{5}}, ir.NoObject))
}

func TestResolve_ClosestEnemyFriendly(t *testing.T) {
	w := newFakeWorld()
	w.add(unit(20, ir.KindCreature, 7, 2))
	w.add(unit(21, ir.KindPlayer, 0, 4))
	w.friends[20] = true

	assert.Equal(t, []ir.ObjectID{20}, resolveFor(t, w, ir.Target{Type: ir.TargetClosestFriendly}, ir.NoObject))
	assert.Equal(t, []ir.ObjectID{21}, resolveFor(t, w, ir.Target{Type: ir.TargetClosestEnemy}, ir.NoObject))
}

func TestResolve_GUID(t *testing.T) {
	w := newFakeWorld()
	o := unit(20, ir.KindCreature, 7, 100)
	o.SpawnID = 9001
	w.add(o)

	assert.Equal(t, []ir.ObjectID{20}, resolveFor(t, w, ir.Target{Type: ir.TargetCreatureGUID, Params: [4]uint32{9001}}, ir.NoObject))
	assert.Equal(t, []ir.ObjectID{20}, resolveFor(t, w, ir.Target{Type: ir.TargetCreatureGUID, Params: [4]uint32{9001, 7}}, ir.NoObject))
	assert.Empty(t, resolveFor(t, w, ir.Target{Type: ir.TargetCreatureGUID, Params: [4]uint32{9001, 8}}, ir.NoObject), "entry mismatch")
	assert.Empty(t, resolveFor(t, w, ir.Target{Type: ir.TargetCreatureGUID, Params: [4]uint32{1}}, ir.NoObject))
}

func TestResolve_InvokerParty(t *testing.T) {
	w := newFakeWorld()
	w.add(unit(10, ir.KindPlayer, 0, 1))
	w.add(unit(11, ir.KindPlayer, 0, 1))
	w.party[10] = []ir.ObjectID{10, 11}

	assert.Equal(t, []ir.ObjectID{10, 11}, resolveFor(t, w, ir.Target{Type: ir.TargetInvokerParty}, 10))
	assert.Equal(t, []ir.ObjectID{11}, resolveFor(t, w, ir.Target{Type: ir.TargetInvokerParty}, 11), "solo invoker")
}

func TestResolve_OwnerOrSummoner(t *testing.T) {
	w := newFakeWorld()
	w.add(unit(10, ir.KindPlayer, 0, 1))
	summoner := unit(11, ir.KindCreature, 3, 1)
	summoner.Owner = 10
	w.add(summoner)
	w.update(ownerID, func(o *ObjectInfo) { o.Summoner = 11 })

	assert.Equal(t, []ir.ObjectID{11}, resolveFor(t, w, ir.Target{Type: ir.TargetOwnerOrSummoner}, ir.NoObject))
	assert.Equal(t, []ir.ObjectID{10}, resolveFor(t, w, ir.Target{Type: ir.TargetOwnerOrSummoner, Params: [4]uint32{1}}, ir.NoObject))

	w.update(ownerID, func(o *ObjectInfo) { o.Charmer = 10 })
	assert.Equal(t, []ir.ObjectID{10}, resolveFor(t, w, ir.Target{Type: ir.TargetOwnerOrSummoner}, ir.NoObject), "charmer wins")
}

func TestResolve_VehiclePassengers(t *testing.T) {
	w := newFakeWorld()
	w.passengers = []Passenger{{ID: 10, Seat: 0}, {ID: 11, Seat: 1}, {ID: 12, Seat: 3}}

	assert.Equal(t, []ir.ObjectID{10, 11, 12}, resolveFor(t, w, ir.Target{Type: ir.TargetVehiclePassenger}, ir.NoObject))
	assert.Equal(t, []ir.ObjectID{11, 12}, resolveFor(t, w, ir.Target{Type: ir.TargetVehiclePassenger, Params: [4]uint32{0b1010}}, ir.NoObject))
}

func TestResolve_LootRecipientsDropStale(t *testing.T) {
	w := newFakeWorld()
	w.add(unit(10, ir.KindPlayer, 0, 1))
	w.loot = []ir.ObjectID{10, 99}

	assert.Equal(t, []ir.ObjectID{10}, resolveFor(t, w, ir.Target{Type: ir.TargetLootRecipients}, ir.NoObject))
}

func TestResolve_Farthest(t *testing.T) {
	w := newFakeWorld()
	w.add(unit(10, ir.KindPlayer, 0, 3))
	w.add(unit(11, ir.KindPlayer, 0, 12))
	w.add(unit(12, ir.KindPlayer, 0, 7))
	w.threat = []ir.ObjectID{10, 11, 12}

	assert.Equal(t, []ir.ObjectID{11}, resolveFor(t, w, ir.Target{Type: ir.TargetFarthest}, ir.NoObject))
}

func TestResolve_StoredWithoutOwnerIsGatedByConditions(t *testing.T) {
	w := newFakeWorld()
	w.add(unit(10, ir.KindPlayer, 0, 1))
	cat := catalog.New()
	e := newTestEngineFor(t, w, cat, Owner{Source: ir.SourceAreaTrigger, Entry: 44})
	e.StoreTargetList(1, []ir.ObjectID{10})

	r := rule(1, ir.EventAreaTriggerOnTrigger, ir.ActionTalk, ir.TargetStored)
	r.Target.Params[0] = 1
	h := e.newHolder(r, listEvents)

	allow := false
	w.conditions = func(ConditionKey, ir.ObjectID, ir.ObjectID) bool { return allow }
	assert.Empty(t, e.resolveTargets(h, Trigger{Actor: 10}))

	allow = true
	assert.Equal(t, []ir.ObjectID{10}, e.resolveTargets(h, Trigger{Actor: 10}))
	assert.Empty(t, e.resolveTargets(h, Trigger{}), "no invoker, no reference")
}

func TestResolve_UnknownSelector(t *testing.T) {
	w := newFakeWorld()
	e := newTestEngine(t, w, catalog.New())
	h := e.newHolder(rule(1, ir.EventAggro, ir.ActionTalk, ir.TargetType(77)), listEvents)

	assert.Empty(t, e.resolveTargets(h, Trigger{}))
	assert.Equal(t, uint64(1), e.stats.ConfigErrors)
}

func TestResolve_MissingSpatialIsConfigError(t *testing.T) {
	w := newFakeWorld()
	cat := catalog.New()
	deps := w.collaborators(cat)
	deps.Spatial = nil
	e, err := New(Owner{ID: ownerID, Source: ir.SourceCreature, Entry: ownerEnt}, deps)
	assert.NoError(t, err)

	h := e.newHolder(rule(1, ir.EventAggro, ir.ActionTalk, ir.TargetPlayerRange), listEvents)
	assert.Empty(t, e.resolveTargets(h, Trigger{}))
	assert.Equal(t, uint64(1), e.stats.ConfigErrors)
}

func TestResolve_ThreatWithoutOwnerIsSilent(t *testing.T) {
	w := newFakeWorld()
	w.add(unit(10, ir.KindPlayer, 0, 1))
	w.threat = []ir.ObjectID{10}
	e := newTestEngineFor(t, w, catalog.New(), Owner{Source: ir.SourceAreaTrigger, Entry: 44})

	h := e.newHolder(rule(1, ir.EventAggro, ir.ActionTalk, ir.TargetHostileTopAggro), listEvents)
	assert.Empty(t, e.resolveTargets(h, Trigger{Actor: 10}))
	assert.Zero(t, e.stats.ConfigErrors)
}

func TestResolve_MissingCombatIsConfigError(t *testing.T) {
	w := newFakeWorld()
	deps := w.collaborators(catalog.New())
	deps.Combat = nil
	e, err := New(Owner{ID: ownerID, Source: ir.SourceCreature, Entry: ownerEnt}, deps)
	assert.NoError(t, err)

	h := e.newHolder(rule(1, ir.EventAggro, ir.ActionTalk, ir.TargetHostileTopAggro), listEvents)
	assert.Empty(t, e.resolveTargets(h, Trigger{}))
	assert.Equal(t, uint64(1), e.stats.ConfigErrors)
}
