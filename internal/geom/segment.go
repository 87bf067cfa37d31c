package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const segmentEpsilon = 1e-12

// ClosestPointOnSegment returns the point of [a,b] nearest p and its parameter t in [0,1].
func ClosestPointOnSegment(p, a, b mgl64.Vec3) (mgl64.Vec3, float64) {
	ab := b.Sub(a)
	denom := ab.Dot(ab)
	if denom < segmentEpsilon {
		return a, 0
	}
	t := mgl64.Clamp(p.Sub(a).Dot(ab)/denom, 0, 1)
	return a.Add(ab.Mul(t)), t
}

// ClosestPointsSegments computes the closest points c1 on [p1,q1] and c2 on [p2,q2]
// with their parameters s and t. Degenerate segments collapse to points.
func ClosestPointsSegments(p1, q1, p2, q2 mgl64.Vec3) (c1, c2 mgl64.Vec3, s, t float64) {
	d1 := q1.Sub(p1)
	d2 := q2.Sub(p2)
	r := p1.Sub(p2)
	a := d1.Dot(d1)
	e := d2.Dot(d2)
	f := d2.Dot(r)

	switch {
	case a <= segmentEpsilon && e <= segmentEpsilon:
		return p1, p2, 0, 0
	case a <= segmentEpsilon:
		t = mgl64.Clamp(f/e, 0, 1)
	default:
		c := d1.Dot(r)
		if e <= segmentEpsilon {
			s = mgl64.Clamp(-c/a, 0, 1)
		} else {
			b := d1.Dot(d2)
			denom := a*e - b*b
			if denom != 0 {
				s = mgl64.Clamp((b*f-c*e)/denom, 0, 1)
			}
			t = (b*s + f) / e
			if t < 0 {
				t = 0
				s = mgl64.Clamp(-c/a, 0, 1)
			} else if t > 1 {
				t = 1
				s = mgl64.Clamp((b-c)/a, 0, 1)
			}
		}
	}
	return p1.Add(d1.Mul(s)), p2.Add(d2.Mul(t)), s, t
}

// SegmentAABBDistance estimates the closest points between a segment and a box.
// Five evenly spaced samples seed the search, then two refinement passes project
// the box point back onto the segment and re-clamp. Not globally exact.
func SegmentAABBDistance(a, b mgl64.Vec3, box AABB3D) (onSegment, onBox mgl64.Vec3) {
	const samples = 5
	bestT := 0.0
	bestD := math.Inf(1)
	ab := b.Sub(a)
	for i := 0; i < samples; i++ {
		t := float64(i) / float64(samples-1)
		p := a.Add(ab.Mul(t))
		if d := box.ClosestPoint(p).Sub(p).LenSqr(); d < bestD {
			bestD, bestT = d, t
		}
	}
	onSegment = a.Add(ab.Mul(bestT))
	onBox = box.ClosestPoint(onSegment)
	for pass := 0; pass < 2; pass++ {
		onSegment, _ = ClosestPointOnSegment(onBox, a, b)
		onBox = box.ClosestPoint(onSegment)
	}
	return onSegment, onBox
}
