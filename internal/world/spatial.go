package world

import (
	"math"

	"github.com/jakecoffman/cp"

	"github.com/roach88/smartscript/internal/engine"
	"github.com/roach88/smartscript/internal/ir"
)

// shapeRadius is the footprint of every object in the index. Queries widen
// by it and then filter on exact center distance.
const shapeRadius = 0.5

// spatialIndex keeps one static sensor circle per object in a cp.Space.
// The index is 2D; Z only enters the exact distance filter.
type spatialIndex struct {
	space  *cp.Space
	shapes map[ir.ObjectID]*cp.Shape
}

func newSpatialIndex() *spatialIndex {
	return &spatialIndex{
		space:  cp.NewSpace(),
		shapes: make(map[ir.ObjectID]*cp.Shape),
	}
}

// kindCategory puts each object kind in its own collision category so
// queries can narrow by kind inside the index.
func kindCategory(kind ir.ObjectKind) uint {
	return 1 << uint(kind)
}

func queryFilter(f engine.SpatialFilter) cp.ShapeFilter {
	filter := cp.SHAPE_FILTER_ALL
	switch {
	case f.Kind != 0:
		filter.Mask = kindCategory(f.Kind)
	case f.UnitsOnly:
		filter.Mask = kindCategory(ir.KindCreature) | kindCategory(ir.KindPlayer)
	}
	return filter
}

func (s *spatialIndex) insert(id ir.ObjectID, kind ir.ObjectKind, pos ir.Position) {
	shape := cp.NewCircle(s.space.StaticBody, shapeRadius, cp.Vector{X: pos.X, Y: pos.Y})
	shape.SetSensor(true)
	shape.SetFilter(cp.NewShapeFilter(cp.NO_GROUP, kindCategory(kind), cp.ALL_CATEGORIES))
	shape.UserData = id
	s.space.AddShape(shape)
	s.shapes[id] = shape
}

func (s *spatialIndex) remove(id ir.ObjectID) {
	shape, ok := s.shapes[id]
	if !ok {
		return
	}
	s.space.RemoveShape(shape)
	delete(s.shapes, id)
}

func (s *spatialIndex) move(id ir.ObjectID, kind ir.ObjectKind, pos ir.Position) {
	s.remove(id)
	s.insert(id, kind, pos)
}

// candidates returns ids whose footprint overlaps the box around a circle
// of radius at origin, narrowed by kind. Callers filter on exact distance.
// Order is unspecified.
func (s *spatialIndex) candidates(origin ir.Position, radius float64, f engine.SpatialFilter) []ir.ObjectID {
	var out []ir.ObjectID
	bb := cp.NewBBForCircle(cp.Vector{X: origin.X, Y: origin.Y}, radius+shapeRadius)
	s.space.BBQuery(bb, queryFilter(f), func(shape *cp.Shape, _ interface{}) {
		if id, ok := shape.UserData.(ir.ObjectID); ok {
			out = append(out, id)
		}
	}, nil)
	return out
}

// nearest asks the index for the closest footprint of the filtered kind.
func (s *spatialIndex) nearest(origin ir.Position, radius float64, f engine.SpatialFilter) (ir.ObjectID, bool) {
	info := s.space.PointQueryNearest(cp.Vector{X: origin.X, Y: origin.Y}, radius, queryFilter(f))
	if info == nil || info.Shape == nil {
		return ir.NoObject, false
	}
	id, ok := info.Shape.UserData.(ir.ObjectID)
	return id, ok
}

func distance(a, b ir.Position) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// matches applies the non-spatial parts of a filter.
func matches(o *Object, f engine.SpatialFilter) bool {
	switch {
	case o.ID == f.Exclude:
		return false
	case f.Kind != 0 && o.Kind != f.Kind:
		return false
	case f.UnitsOnly && !o.IsUnit():
		return false
	case f.Entry != 0 && o.Entry != f.Entry:
		return false
	case f.Life == engine.LifeAlive && !o.Alive:
		return false
	case f.Life == engine.LifeDead && o.Alive:
		return false
	}
	if o.Kind == ir.KindGameObject {
		return o.Spawned != f.Unspawned
	}
	return !f.Unspawned && o.Spawned
}

// FindInRadius implements engine.Spatial. Results are ordered by distance,
// then id.
func (w *World) FindInRadius(origin ir.Position, radius float64, f engine.SpatialFilter) []ir.ObjectID {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.findInRadius(origin, radius, f)
}

func (w *World) findInRadius(origin ir.Position, radius float64, f engine.SpatialFilter) []ir.ObjectID {
	var out []ir.ObjectID
	for _, id := range w.index.candidates(origin, radius, f) {
		o, ok := w.objects[id]
		if !ok || !matches(o, f) || distance(origin, o.Pos) > radius {
			continue
		}
		out = append(out, id)
	}
	w.sortByDistance(origin, out)
	return out
}

// FindNearest implements engine.Spatial. The index answers directly when
// its nearest footprint passes the filter; otherwise the radius search
// decides.
func (w *World) FindNearest(origin ir.Position, maxRadius float64, f engine.SpatialFilter) (ir.ObjectID, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if id, ok := w.index.nearest(origin, maxRadius, f); ok {
		if o, found := w.objects[id]; found && matches(o, f) && distance(origin, o.Pos) <= maxRadius {
			if w.unambiguous(origin, id, maxRadius, f) {
				return id, true
			}
		}
	}
	found := w.findInRadius(origin, maxRadius, f)
	if len(found) == 0 {
		return ir.NoObject, false
	}
	return found[0], true
}

// unambiguous reports whether no other candidate ties with or beats id on
// exact 3D distance. The index measures in the plane only.
func (w *World) unambiguous(origin ir.Position, id ir.ObjectID, radius float64, f engine.SpatialFilter) bool {
	best := distance(origin, w.objects[id].Pos)
	for _, other := range w.index.candidates(origin, best+shapeRadius, f) {
		if other == id {
			continue
		}
		o, ok := w.objects[other]
		if !ok || !matches(o, f) {
			continue
		}
		if d := distance(origin, o.Pos); d < best || (d == best && other < id) {
			return false
		}
	}
	return best <= radius
}
