// Package debugdraw renders physics state as raylib wireframes.
// Must be called between rl.BeginMode3D and rl.EndMode3D.
package debugdraw

import (
	"rigid3d/internal/components"
	"rigid3d/internal/engine"
	"rigid3d/internal/geom"
	"rigid3d/internal/physics"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
)

const hullEpsilon = 1e-6

var (
	ColorDynamic   = rl.Orange
	ColorKinematic = rl.SkyBlue
	ColorStatic    = rl.Gray
	ColorSleeping  = rl.DarkGray
	ColorTrigger   = rl.Lime
	ColorAABB      = rl.NewColor(253, 249, 0, 100)
	ColorContact   = rl.Red
	ColorJoint     = rl.Purple
)

type Options struct {
	Colliders bool
	AABBs     bool
	Contacts  bool
	Joints    bool
}

func DefaultOptions() Options {
	return Options{Colliders: true, Contacts: true, Joints: true}
}

// Vec narrows a physics vector for the GPU.
func Vec(v mgl64.Vec3) rl.Vector3 {
	return rl.Vector3{X: float32(v[0]), Y: float32(v[1]), Z: float32(v[2])}
}

// World draws every collider of the world's registry plus the requested overlays.
func World(w *physics.World, opts Options) {
	reg := w.Registry()
	engine.Each(reg, func(id engine.EntityID, col *components.Collider) {
		if col.Shape == nil {
			return
		}
		e := reg.Get(id)
		if opts.Colliders {
			Shape(col.Shape, col.Placement(e.Transform), colliderColor(reg, id, col))
		}
		if opts.AABBs {
			AABB(col.WorldAABB(e.Transform), ColorAABB)
		}
	})
	if opts.Contacts {
		for _, m := range w.Cache().Manifolds() {
			Manifold(m)
		}
	}
	if opts.Joints {
		for _, j := range w.Joints() {
			Joint(reg, j)
		}
	}
}

func colliderColor(reg *engine.Registry, id engine.EntityID, col *components.Collider) rl.Color {
	if col.IsTrigger {
		return ColorTrigger
	}
	rb, ok := engine.Lookup[*components.Rigidbody](reg, id)
	switch {
	case !ok || rb.BodyType == components.BodyStatic:
		return ColorStatic
	case rb.IsSleeping:
		return ColorSleeping
	case rb.BodyType == components.BodyKinematic:
		return ColorKinematic
	}
	return ColorDynamic
}

// Shape draws one shape at its placement.
func Shape(s geom.Shape, p geom.Placement, color rl.Color) {
	switch s := s.(type) {
	case *geom.AABBShape:
		AABB(geom.WorldAABB(s, p), color)
	case *geom.SphereShape:
		rl.DrawSphereWires(Vec(p.Position), float32(p.SphereRadius(s)), 8, 12, color)
	case *geom.CapsuleShape:
		a, b, r := geom.CapsuleSegment(s, p)
		rl.DrawCapsuleWires(Vec(a), Vec(b), float32(r), 12, 4, color)
	case *geom.OBBShape:
		box(geom.OBBOf(s, p).Corners(), color)
	case *geom.ConvexHullShape:
		hull(s, p, color)
	case *geom.CompoundShape:
		for _, c := range s.Children {
			Shape(c.Shape, p.Child(c), color)
		}
	}
}

func AABB(b geom.AABB3D, color rl.Color) {
	rl.DrawCubeWiresV(Vec(b.Center()), Vec(b.HalfExtents().Mul(2)), color)
}

// box draws the 12 edges of corners laid out as geom.OBB.Corners does:
// bit i of the index selects the sign along axis i.
func box(corners [8]mgl64.Vec3, color rl.Color) {
	for i := range corners {
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) == 0 {
				rl.DrawLine3D(Vec(corners[i]), Vec(corners[i|1<<axis]), color)
			}
		}
	}
}

// hull draws every vertex pair that shares two face planes.
func hull(h *geom.ConvexHullShape, p geom.Placement, color rl.Color) {
	planes := h.Planes()
	world := geom.HullVertices(h, p)
	for i := range h.Vertices {
		for j := i + 1; j < len(h.Vertices); j++ {
			shared := 0
			for _, pl := range planes {
				if onPlane(pl, h.Vertices[i]) && onPlane(pl, h.Vertices[j]) {
					shared++
				}
			}
			if shared >= 2 {
				rl.DrawLine3D(Vec(world[i]), Vec(world[j]), color)
			}
		}
	}
}

func onPlane(pl geom.Plane, v mgl64.Vec3) bool {
	d := pl.Normal.Dot(v) - pl.D
	return d < hullEpsilon && d > -hullEpsilon
}

// Manifold draws each contact point with its normal scaled by penetration.
func Manifold(m *physics.ContactManifold) {
	for _, cp := range m.Points {
		pos := Vec(cp.Position)
		rl.DrawSphere(pos, 0.04, ColorContact)
		tip := cp.Position.Add(m.Normal.Mul(0.25 + cp.Penetration))
		rl.DrawLine3D(pos, Vec(tip), ColorContact)
	}
}

// Joint draws a line between the centers of the two bodies. Joints anchored
// to the world (entity 0) are skipped.
func Joint(reg *engine.Registry, j physics.Joint) {
	if j.Broken() {
		return
	}
	a, b := j.Bodies()
	pa, okA := bodyPosition(reg, a)
	pb, okB := bodyPosition(reg, b)
	if !okA || !okB {
		return
	}
	rl.DrawLine3D(Vec(pa), Vec(pb), ColorJoint)
}

func bodyPosition(reg *engine.Registry, id engine.EntityID) (mgl64.Vec3, bool) {
	t, ok := reg.Transform(id)
	if !ok {
		return mgl64.Vec3{}, false
	}
	return t.Position, true
}
