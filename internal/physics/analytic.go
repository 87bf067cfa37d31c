package physics

import (
	"math"

	"rigid3d/internal/geom"

	"github.com/go-gl/mathgl/mgl64"
)

// Analytic tests for {Sphere, AABB, Capsule} pairs. Each yields at most one
// contact. pointA is A's surface point deepest into B, pointB the reverse,
// and normal points from A to B.

func sphereSphere(a, b shapeRef) (contact, bool) {
	ra := a.place.SphereRadius(a.shape.(*geom.SphereShape))
	rb := b.place.SphereRadius(b.shape.(*geom.SphereShape))
	return roundRound(a.place.Position, ra, b.place.Position, rb)
}

// roundRound is the sphere-sphere core shared by every capsule routine.
func roundRound(ca mgl64.Vec3, ra float64, cb mgl64.Vec3, rb float64) (contact, bool) {
	d := cb.Sub(ca)
	dist := d.Len()
	if dist > ra+rb {
		return contact{}, false
	}
	n := mgl64.Vec3{0, 1, 0}
	if dist > 1e-9 {
		n = d.Mul(1 / dist)
	}
	return contact{
		pointA: ca.Add(n.Mul(ra)),
		pointB: cb.Sub(n.Mul(rb)),
		normal: n,
		depth:  ra + rb - dist,
	}, true
}

func sphereAABB(a, b shapeRef) (contact, bool) {
	r := a.place.SphereRadius(a.shape.(*geom.SphereShape))
	box := geom.WorldAABB(b.shape, b.place)
	return roundBox(a.place.Position, r, box)
}

// roundBox tests a sphere of radius r at c against a box.
func roundBox(c mgl64.Vec3, r float64, box geom.AABB3D) (contact, bool) {
	q := box.ClosestPoint(c)
	d := q.Sub(c)
	dist := d.Len()
	if dist > 1e-9 {
		if dist > r {
			return contact{}, false
		}
		n := d.Mul(1 / dist)
		return contact{pointA: c.Add(n.Mul(r)), pointB: q, normal: n, depth: r - dist}, true
	}

	// Center inside the box: leave through the nearest face.
	axis, outward, faceDist := nearestFace(c, box)
	n := mgl64.Vec3{}
	n[axis] = -outward
	face := c
	face[axis] += outward * faceDist
	return contact{pointA: c.Add(n.Mul(r)), pointB: face, normal: n, depth: r + faceDist}, true
}

// nearestFace finds the box face closest to an interior point.
func nearestFace(c mgl64.Vec3, box geom.AABB3D) (axis int, outward, dist float64) {
	dist = math.Inf(1)
	for i := 0; i < 3; i++ {
		if d := box.Max[i] - c[i]; d < dist {
			axis, outward, dist = i, 1, d
		}
		if d := c[i] - box.Min[i]; d < dist {
			axis, outward, dist = i, -1, d
		}
	}
	return axis, outward, dist
}

func sphereCapsule(a, b shapeRef) (contact, bool) {
	ra := a.place.SphereRadius(a.shape.(*geom.SphereShape))
	p, q, rb := geom.CapsuleSegment(b.shape.(*geom.CapsuleShape), b.place)
	closest, _ := geom.ClosestPointOnSegment(a.place.Position, p, q)
	return roundRound(a.place.Position, ra, closest, rb)
}

func aabbSphere(a, b shapeRef) (contact, bool) {
	return flipContact(sphereAABB(b, a))
}

func aabbAABB(a, b shapeRef) (contact, bool) {
	boxA := geom.WorldAABB(a.shape, a.place)
	boxB := geom.WorldAABB(b.shape, b.place)
	mtv := boxA.Resolve(boxB)
	depth := mtv.Len()
	if depth < 1e-12 {
		return contact{}, false
	}
	// mtv pushes A out of B, so A -> B is the opposite direction.
	n := mtv.Mul(-1 / depth)
	overlap := geom.AABB3D{
		Min: mgl64.Vec3{math.Max(boxA.Min.X(), boxB.Min.X()), math.Max(boxA.Min.Y(), boxB.Min.Y()), math.Max(boxA.Min.Z(), boxB.Min.Z())},
		Max: mgl64.Vec3{math.Min(boxA.Max.X(), boxB.Max.X()), math.Min(boxA.Max.Y(), boxB.Max.Y()), math.Min(boxA.Max.Z(), boxB.Max.Z())},
	}
	mid := overlap.Center()
	return contact{
		pointA: mid.Add(n.Mul(depth / 2)),
		pointB: mid.Sub(n.Mul(depth / 2)),
		normal: n,
		depth:  depth,
	}, true
}

func aabbCapsule(a, b shapeRef) (contact, bool) {
	return flipContact(capsuleAABB(b, a))
}

func capsuleSphere(a, b shapeRef) (contact, bool) {
	return flipContact(sphereCapsule(b, a))
}

// capsuleAABB has no closed form; the segment/box closest points come from a
// sampled search with refinement.
func capsuleAABB(a, b shapeRef) (contact, bool) {
	p, q, r := geom.CapsuleSegment(a.shape.(*geom.CapsuleShape), a.place)
	box := geom.WorldAABB(b.shape, b.place)
	onSeg, onBox := geom.SegmentAABBDistance(p, q, box)
	if onBox.Sub(onSeg).LenSqr() > 1e-18 {
		return roundBox(onSeg, r, box)
	}
	return segmentThroughBox(p, q, r, box), true
}

// segmentThroughBox separates a capsule whose core segment enters the box
// along the face axis with the least overlap of the whole segment.
func segmentThroughBox(p, q mgl64.Vec3, r float64, box geom.AABB3D) contact {
	best := contact{depth: math.Inf(1)}
	for i := 0; i < 3; i++ {
		lo, hi := min(p[i], q[i]), max(p[i], q[i])
		for _, side := range [2]float64{1, -1} {
			// side 1 pushes the capsule out through the min face, -1 through the max face.
			depth := hi + r - box.Min[i]
			if side < 0 {
				depth = box.Max[i] - lo + r
			}
			if depth >= best.depth {
				continue
			}
			n := mgl64.Vec3{}
			n[i] = side
			deepest := p
			if q.Dot(n) > p.Dot(n) {
				deepest = q
			}
			for j := 0; j < 3; j++ {
				if j != i {
					deepest[j] = mgl64.Clamp(deepest[j], box.Min[j], box.Max[j])
				}
			}
			pointA := deepest.Add(n.Mul(r))
			best = contact{pointA: pointA, pointB: pointA.Sub(n.Mul(depth)), normal: n, depth: depth}
		}
	}
	return best
}

func capsuleCapsule(a, b shapeRef) (contact, bool) {
	p1, q1, ra := geom.CapsuleSegment(a.shape.(*geom.CapsuleShape), a.place)
	p2, q2, rb := geom.CapsuleSegment(b.shape.(*geom.CapsuleShape), b.place)
	c1, c2, _, _ := geom.ClosestPointsSegments(p1, q1, p2, q2)
	if c2.Sub(c1).LenSqr() > 1e-18 {
		return roundRound(c1, ra, c2, rb)
	}

	// Segments cross: separate along their common perpendicular.
	n := q1.Sub(p1).Cross(q2.Sub(p2))
	if n.LenSqr() < 1e-18 {
		n = mgl64.Vec3{0, 1, 0}
	}
	n = n.Normalize()
	if n.Dot(b.place.Position.Sub(a.place.Position)) < 0 {
		n = n.Mul(-1)
	}
	return contact{pointA: c1.Add(n.Mul(ra)), pointB: c2.Sub(n.Mul(rb)), normal: n, depth: ra + rb}, true
}

// flipContact turns a B-vs-A result into A-vs-B: labels swap and the normal negates.
func flipContact(c contact, ok bool) (contact, bool) {
	if !ok {
		return c, false
	}
	return contact{pointA: c.pointB, pointB: c.pointA, normal: c.normal.Mul(-1), depth: c.depth}, true
}
