package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// RayHit is a single ray/shape intersection. Distance is along the unit direction.
type RayHit struct {
	Distance float64
	Point    mgl64.Vec3
	Normal   mgl64.Vec3
}

// RaycastShape intersects a ray with a placed shape grown by inflate on every side.
// dir must be normalized. A ray starting inside reports distance 0.
// Inflated boxes and hulls keep sharp corners, so they are slightly conservative.
func RaycastShape(s Shape, p Placement, origin, dir mgl64.Vec3, maxDist, inflate float64) (RayHit, bool) {
	switch sh := s.(type) {
	case *AABBShape:
		h := p.ScaledHalfExtents(sh.HalfExtents).Add(mgl64.Vec3{inflate, inflate, inflate})
		return RayAABB(origin, dir, NewAABBFromCenter(p.Position, h), maxDist)
	case *SphereShape:
		return RaySphere(origin, dir, p.Position, p.SphereRadius(sh)+inflate, maxDist)
	case *CapsuleShape:
		a, b, r := CapsuleSegment(sh, p)
		return RayCapsule(origin, dir, a, b, r+inflate, maxDist)
	case *OBBShape:
		o := OBBOf(sh, p)
		o.HalfSize = o.HalfSize.Add(mgl64.Vec3{inflate, inflate, inflate})
		return RayOBB(origin, dir, o, maxDist)
	case *ConvexHullShape:
		localOrigin := p.ToLocal(origin)
		localDir := p.Rotation.Conjugate().Rotate(dir)
		hit, ok := rayHull(localOrigin, localDir, scaledPlanes(sh, p.Scale), maxDist, inflate)
		if !ok {
			return RayHit{}, false
		}
		hit.Point = origin.Add(dir.Mul(hit.Distance))
		hit.Normal = p.Rotation.Rotate(hit.Normal)
		return hit, true
	case *CompoundShape:
		var best RayHit
		found := false
		for _, c := range sh.Children {
			if hit, ok := RaycastShape(c.Shape, p.Child(c), origin, dir, maxDist, inflate); ok {
				if !found || hit.Distance < best.Distance {
					best, found = hit, true
				}
			}
		}
		return best, found
	}
	return RayHit{}, false
}

// RayAABB is a slab test.
func RayAABB(origin, dir mgl64.Vec3, box AABB3D, maxDist float64) (RayHit, bool) {
	tmin := 0.0
	tmax := maxDist
	var normal mgl64.Vec3
	for i := 0; i < 3; i++ {
		if math.Abs(dir[i]) < 1e-12 {
			if origin[i] < box.Min[i] || origin[i] > box.Max[i] {
				return RayHit{}, false
			}
			continue
		}
		inv := 1 / dir[i]
		t1 := (box.Min[i] - origin[i]) * inv
		t2 := (box.Max[i] - origin[i]) * inv
		n := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			n = 1
		}
		if t1 > tmin {
			tmin = t1
			normal = mgl64.Vec3{}
			normal[i] = n
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return RayHit{}, false
		}
	}
	if normal == (mgl64.Vec3{}) {
		// Origin inside the box
		normal = dir.Mul(-1)
	}
	return RayHit{Distance: tmin, Point: origin.Add(dir.Mul(tmin)), Normal: normal}, true
}

// RaySphere solves |o + t d - c|^2 = r^2 for the smallest t >= 0.
func RaySphere(origin, dir, center mgl64.Vec3, radius, maxDist float64) (RayHit, bool) {
	m := origin.Sub(center)
	b := m.Dot(dir)
	c := m.Dot(m) - radius*radius
	if c > 0 && b > 0 {
		return RayHit{}, false
	}
	disc := b*b - c
	if disc < 0 {
		return RayHit{}, false
	}
	t := -b - math.Sqrt(disc)
	if t < 0 {
		t = 0
	}
	if t > maxDist {
		return RayHit{}, false
	}
	point := origin.Add(dir.Mul(t))
	normal := safeNormalize(point.Sub(center))
	if c <= 0 {
		normal = dir.Mul(-1)
	}
	return RayHit{Distance: t, Point: point, Normal: normal}, true
}

// RayCapsule tests the side cylinder and both end caps.
func RayCapsule(origin, dir, a, b mgl64.Vec3, radius, maxDist float64) (RayHit, bool) {
	if closest, _ := ClosestPointOnSegment(origin, a, b); origin.Sub(closest).LenSqr() <= radius*radius {
		return RayHit{Point: origin, Normal: dir.Mul(-1)}, true
	}

	var best RayHit
	found := false
	take := func(h RayHit, ok bool) {
		if ok && (!found || h.Distance < best.Distance) {
			best, found = h, true
		}
	}
	take(RaySphere(origin, dir, a, radius, maxDist))
	take(RaySphere(origin, dir, b, radius, maxDist))

	axis := b.Sub(a)
	length := axis.Len()
	if length > segmentEpsilon {
		axis = axis.Mul(1 / length)
		// Project onto the plane perpendicular to the axis and solve the 2D circle.
		m := origin.Sub(a)
		dPerp := dir.Sub(axis.Mul(dir.Dot(axis)))
		mPerp := m.Sub(axis.Mul(m.Dot(axis)))
		qa := dPerp.Dot(dPerp)
		qb := mPerp.Dot(dPerp)
		qc := mPerp.Dot(mPerp) - radius*radius
		if qa > 1e-12 {
			disc := qb*qb - qa*qc
			if disc >= 0 {
				t := (-qb - math.Sqrt(disc)) / qa
				if t >= 0 && t <= maxDist {
					p := origin.Add(dir.Mul(t))
					h := p.Sub(a).Dot(axis)
					if h >= 0 && h <= length {
						onAxis := a.Add(axis.Mul(h))
						take(RayHit{Distance: t, Point: p, Normal: safeNormalize(p.Sub(onAxis))}, true)
					}
				}
			}
		}
	}
	return best, found
}

// RayOBB transforms the ray into box space and runs the slab test there.
func RayOBB(origin, dir mgl64.Vec3, o OBB, maxDist float64) (RayHit, bool) {
	localOrigin := o.ToLocal(origin)
	localDir := o.LocalDirection(dir)
	hit, ok := RayAABB(localOrigin, localDir, NewAABBFromCenter(mgl64.Vec3{}, o.HalfSize), maxDist)
	if !ok {
		return RayHit{}, false
	}
	hit.Point = origin.Add(dir.Mul(hit.Distance))
	hit.Normal = o.WorldDirection(hit.Normal)
	return hit, true
}

func scaledPlanes(h *ConvexHullShape, scale mgl64.Vec3) []Plane {
	planes := h.Planes()
	if scale == (mgl64.Vec3{1, 1, 1}) {
		return planes
	}
	// Normals transform by the inverse scale; pick d from a supporting vertex.
	out := make([]Plane, 0, len(planes))
	inv := mgl64.Vec3{1 / scale.X(), 1 / scale.Y(), 1 / scale.Z()}
	for _, pl := range planes {
		n := MulComp(pl.Normal, inv).Normalize()
		d := math.Inf(-1)
		for _, v := range h.Vertices {
			d = math.Max(d, n.Dot(MulComp(v, scale)))
		}
		out = append(out, Plane{Normal: n, D: d})
	}
	return out
}

// rayHull clips the ray against every face plane.
func rayHull(origin, dir mgl64.Vec3, planes []Plane, maxDist, inflate float64) (RayHit, bool) {
	if len(planes) == 0 {
		return RayHit{}, false
	}
	tmin, tmax := 0.0, maxDist
	var normal mgl64.Vec3
	for _, pl := range planes {
		denom := pl.Normal.Dot(dir)
		dist := pl.D + inflate - pl.Normal.Dot(origin)
		if math.Abs(denom) < 1e-12 {
			if dist < 0 {
				return RayHit{}, false
			}
			continue
		}
		t := dist / denom
		if denom < 0 {
			if t > tmin {
				tmin = t
				normal = pl.Normal
			}
		} else if t < tmax {
			tmax = t
		}
		if tmin > tmax {
			return RayHit{}, false
		}
	}
	if normal == (mgl64.Vec3{}) {
		normal = dir.Mul(-1)
	}
	return RayHit{Distance: tmin, Normal: normal}, true
}
