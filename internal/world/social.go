package world

import (
	"maps"
	"slices"

	"github.com/roach88/smartscript/internal/engine"
	"github.com/roach88/smartscript/internal/ir"
)

// JoinParty puts member in party group. Group 0 leaves any party.
func (w *World) JoinParty(member ir.ObjectID, group uint32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if group == 0 {
		delete(w.parties, member)
		return
	}
	w.parties[member] = group
}

// SetLootRecipients replaces the tap list of a creature.
func (w *World) SetLootRecipients(self ir.ObjectID, players []ir.ObjectID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.loot[self] = slices.Clone(players)
}

// Board seats passenger in vehicle. A taken seat is reassigned.
func (w *World) Board(vehicle, passenger ir.ObjectID, seat uint8) {
	w.mu.Lock()
	defer w.mu.Unlock()
	seats := slices.DeleteFunc(w.passengers[vehicle], func(p engine.Passenger) bool {
		return p.Seat == seat || p.ID == passenger
	})
	seats = append(seats, engine.Passenger{ID: passenger, Seat: seat})
	slices.SortFunc(seats, func(a, b engine.Passenger) int { return int(a.Seat) - int(b.Seat) })
	w.passengers[vehicle] = seats
	w.update(passenger, func(o *Object) { o.Vehicle = vehicle })
}

// Party implements engine.Social. Members are ordered by id; a member
// without a party gets nil.
func (w *World) Party(member ir.ObjectID) []ir.ObjectID {
	w.mu.RLock()
	defer w.mu.RUnlock()
	group, ok := w.parties[member]
	if !ok {
		return nil
	}
	var out []ir.ObjectID
	for _, id := range slices.Sorted(maps.Keys(w.parties)) {
		if w.parties[id] != group {
			continue
		}
		if _, alive := w.objects[id]; alive {
			out = append(out, id)
		}
	}
	return out
}

// LootRecipients implements engine.Social.
func (w *World) LootRecipients(self ir.ObjectID) []ir.ObjectID {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.loot[self])
}

// Passengers implements engine.Social.
func (w *World) Passengers(vehicle ir.ObjectID) []engine.Passenger {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var out []engine.Passenger
	for _, p := range w.passengers[vehicle] {
		if _, ok := w.objects[p.ID]; ok {
			out = append(out, p)
		}
	}
	return out
}
