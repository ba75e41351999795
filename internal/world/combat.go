package world

import (
	"cmp"
	"slices"

	"github.com/roach88/smartscript/internal/engine"
	"github.com/roach88/smartscript/internal/ir"
)

type threatEntry struct {
	id     ir.ObjectID
	threat float64
}

// SetVictim sets self's current combat target. NoObject clears it.
func (w *World) SetVictim(self, victim ir.ObjectID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !victim.Valid() {
		delete(w.victims, self)
		return
	}
	w.victims[self] = victim
}

// AddThreat adds threat from target to self's threat list, creating the
// entry if needed.
func (w *World) AddThreat(self, target ir.ObjectID, threat float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	list := w.threat[self]
	for i := range list {
		if list[i].id == target {
			list[i].threat += threat
			return
		}
	}
	w.threat[self] = append(list, threatEntry{id: target, threat: threat})
}

// ClearThreat empties self's threat list.
func (w *World) ClearThreat(self ir.ObjectID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.threat, self)
}

// Victim implements engine.Combat. A victim that no longer exists, or is
// dead, is no victim.
func (w *World) Victim(self ir.ObjectID) (ir.ObjectID, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	id, ok := w.victims[self]
	if !ok {
		return ir.NoObject, false
	}
	o, ok := w.objects[id]
	if !ok || !o.Alive {
		return ir.NoObject, false
	}
	return id, true
}

// ThreatRanked implements engine.Combat. Ties in threat rank by id.
func (w *World) ThreatRanked(self ir.ObjectID, order engine.ThreatOrder, count int, f engine.ThreatFilter) []ir.ObjectID {
	w.mu.RLock()
	defer w.mu.RUnlock()
	me, ok := w.objects[self]
	if !ok {
		return nil
	}

	entries := slices.Clone(w.threat[self])
	slices.SortFunc(entries, func(a, b threatEntry) int {
		n := cmp.Compare(b.threat, a.threat)
		if order == engine.ThreatLowestFirst {
			n = -n
		}
		if n != 0 {
			return n
		}
		return cmp.Compare(a.id, b.id)
	})

	var out []ir.ObjectID
	for _, te := range entries {
		o, ok := w.objects[te.id]
		if !ok || !o.Alive {
			continue
		}
		if f.MaxDist > 0 && distance(me.Pos, o.Pos) > f.MaxDist {
			continue
		}
		if f.PlayerOnly && o.Kind != ir.KindPlayer {
			continue
		}
		if f.PowerType != 0 && o.PowerType != f.PowerType-1 {
			continue
		}
		out = append(out, te.id)
		if count > 0 && len(out) == count {
			break
		}
	}
	return out
}

// IsFriendly implements engine.Combat.
func (w *World) IsFriendly(a, b ir.ObjectID) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	oa, ok := w.objects[a]
	if !ok {
		return false
	}
	ob, ok := w.objects[b]
	if !ok {
		return false
	}
	return oa.Faction != 0 && oa.Faction == ob.Faction
}
