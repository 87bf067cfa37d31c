package physics

import (
	"rigid3d/internal/components"
	"rigid3d/internal/engine"
	"rigid3d/internal/geom"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	ccdMaxIterations  = 20
	ccdWindowFraction = 0.01
	// Bodies stop this far (world units) short of the impact point.
	ccdBackoff = 1e-3
)

// TOI is a time of impact found by a sweep.
type TOI struct {
	Time     float64    // seconds into the step, in [0, dt]
	Distance float64    // distance travelled before impact
	Normal   mgl64.Vec3 // surface normal of Other at impact, facing the moving body
	Other    engine.EntityID
}

// SweepTest sweeps entity e with the given velocity over dt against every other
// non-trigger collider. Targets already overlapping at the start are ignored;
// the solver handles those.
func SweepTest(reg *engine.Registry, e engine.EntityID, velocity mgl64.Vec3, dt float64) (TOI, bool) {
	return sweep(reg, e, velocity, dt, engine.EntitiesWith[*components.Collider](reg))
}

func sweep(reg *engine.Registry, e engine.EntityID, velocity mgl64.Vec3, dt float64, targets []engine.EntityID) (TOI, bool) {
	col, ok := engine.Lookup[*components.Collider](reg, e)
	if !ok || col.Shape == nil || col.IsTrigger || dt <= 0 {
		return TOI{}, false
	}
	speed := velocity.Len()
	if speed == 0 {
		return TOI{}, false
	}
	self := reg.Get(e).Transform
	placement := col.Placement(self)

	var best TOI
	found := false
	for _, id := range targets {
		if id == e {
			continue
		}
		other, ok := engine.Lookup[*components.Collider](reg, id)
		if !ok || other.Shape == nil || other.IsTrigger || !col.CanCollide(other) {
			continue
		}
		target := reg.Get(id).Transform

		var toi TOI
		var hit bool
		switch sh := col.Shape.(type) {
		case *geom.SphereShape:
			toi, hit = sphereCast([]mgl64.Vec3{placement.Position}, placement.SphereRadius(sh), velocity, dt, other, target)
		case *geom.CapsuleShape:
			a, b, r := geom.CapsuleSegment(sh, placement)
			toi, hit = sphereCast([]mgl64.Vec3{a, a.Add(b).Mul(0.5), b}, r, velocity, dt, other, target)
		default:
			toi, hit = boundsSweep(col.WorldAABB(self), velocity, dt, other.WorldAABB(target))
		}
		if hit && (!found || toi.Time < best.Time) {
			toi.Other = id
			best, found = toi, true
		}
	}
	return best, found
}

// sphereCast casts rays from each center against the target grown by radius.
func sphereCast(centers []mgl64.Vec3, radius float64, velocity mgl64.Vec3, dt float64, other *components.Collider, target engine.Transform) (TOI, bool) {
	speed := velocity.Len()
	dir := velocity.Mul(1 / speed)
	maxDist := speed * dt
	placement := other.Placement(target)

	var best TOI
	found := false
	for _, c := range centers {
		h, ok := geom.RaycastShape(other.Shape, placement, c, dir, maxDist, radius)
		// Distance 0 means the shapes already overlap.
		if !ok || h.Distance <= 0 || h.Normal.Dot(dir) >= 0 {
			continue
		}
		if !found || h.Distance < best.Distance {
			best = TOI{Time: h.Distance / speed, Distance: h.Distance, Normal: h.Normal}
			found = true
		}
	}
	return best, found
}

// boundsSweep bisects the step for the first time the moving box touches the target.
func boundsSweep(box geom.AABB3D, velocity mgl64.Vec3, dt float64, target geom.AABB3D) (TOI, bool) {
	if box.Intersects(target) || !box.Swept(velocity.Mul(dt)).Intersects(target) {
		return TOI{}, false
	}
	lo, hi := 0.0, dt
	for i := 0; i < ccdMaxIterations && hi-lo > ccdWindowFraction*dt; i++ {
		mid := (lo + hi) / 2
		if box.Swept(velocity.Mul(mid)).Intersects(target) {
			hi = mid
		} else {
			lo = mid
		}
	}

	n := box.Translate(velocity.Mul(hi)).Resolve(target)
	if n.Len() == 0 || n.Dot(velocity) >= 0 {
		n = velocity.Mul(-1)
	}
	return TOI{Time: lo, Distance: velocity.Len() * lo, Normal: n.Normalize()}, true
}

// applyCCD moves fast bodies up to their first impact and strips the approaching
// velocity. It reports which bodies it moved so integration skips their translation.
func (w *World) applyCCD(bodies []engine.EntityID, dt float64) map[engine.EntityID]bool {
	var moved map[engine.EntityID]bool
	for _, id := range bodies {
		rb, ok := engine.Lookup[*components.Rigidbody](w.reg, id)
		if !ok || !rb.IsDynamic() || rb.IsSleeping || rb.CCD != components.CCDSwept {
			continue
		}
		speed := rb.Velocity.Len()
		if speed <= w.cfg.CCDSpeedThreshold {
			continue
		}
		col, ok := engine.Lookup[*components.Collider](w.reg, id)
		if !ok || col.Shape == nil {
			continue
		}
		t, _ := w.reg.Transform(id)
		swept := col.WorldAABB(*t).Swept(rb.Velocity.Mul(dt))
		candidates := append(w.grid.QueryAABB(swept), w.sleepGrid.QueryAABB(swept)...)

		toi, hit := sweep(w.reg, id, rb.Velocity, dt, candidates)
		if !hit {
			continue
		}
		advance := max(toi.Time-ccdBackoff/speed, 0)
		t.Position = t.Position.Add(rb.Velocity.Mul(advance))
		if vn := rb.Velocity.Dot(toi.Normal); vn < 0 {
			rb.Velocity = rb.Velocity.Sub(toi.Normal.Mul(vn))
		}
		if moved == nil {
			moved = make(map[engine.EntityID]bool)
		}
		moved[id] = true
		w.stats.CCDHits++
	}
	return moved
}
