package physics

import (
	"cmp"
	"slices"

	"rigid3d/internal/components"
	"rigid3d/internal/engine"
	"rigid3d/internal/geom"

	"github.com/go-gl/mathgl/mgl64"
)

// RaycastHit contains information about a raycast hit
type RaycastHit struct {
	Entity   engine.EntityID
	Point    mgl64.Vec3
	Normal   mgl64.Vec3
	Distance float64
}

// Raycast returns the closest non-trigger collider hit along the ray.
func (w *World) Raycast(origin, direction mgl64.Vec3, maxDistance float64) (RaycastHit, bool) {
	return w.RaycastFiltered(origin, direction, maxDistance, components.AllLayers, 0)
}

// RaycastFiltered is Raycast restricted to colliders whose Layer is in mask,
// skipping the ignore entity (0 ignores nothing).
func (w *World) RaycastFiltered(origin, direction mgl64.Vec3, maxDistance float64, mask uint32, ignore engine.EntityID) (RaycastHit, bool) {
	var closest RaycastHit
	hit := false
	w.castRay(origin, direction, maxDistance, mask, ignore, func(h RaycastHit) {
		if !hit || h.Distance < closest.Distance {
			closest = h
			hit = true
		}
	})
	return closest, hit
}

// RaycastAll returns every non-trigger collider hit along the ray, nearest first.
func (w *World) RaycastAll(origin, direction mgl64.Vec3, maxDistance float64) []RaycastHit {
	var hits []RaycastHit
	w.castRay(origin, direction, maxDistance, components.AllLayers, 0, func(h RaycastHit) {
		hits = append(hits, h)
	})
	slices.SortStableFunc(hits, func(a, b RaycastHit) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	return hits
}

func (w *World) castRay(origin, direction mgl64.Vec3, maxDistance float64, mask uint32, ignore engine.EntityID, emit func(RaycastHit)) {
	if direction.Len() == 0 || maxDistance <= 0 {
		return
	}
	dir := direction.Normalize()

	engine.Each(w.reg, func(id engine.EntityID, col *components.Collider) {
		if col.IsTrigger || col.Shape == nil || id == ignore || col.Layer&mask == 0 {
			return
		}
		e := w.reg.Get(id)
		h, ok := geom.RaycastShape(col.Shape, col.Placement(e.Transform), origin, dir, maxDistance, 0)
		if !ok {
			return
		}
		emit(RaycastHit{
			Entity:   id,
			Point:    h.Point,
			Normal:   h.Normal,
			Distance: h.Distance,
		})
	})
}
