package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB3D is a world-space axis-aligned box. Shared by broadphase and CCD.
type AABB3D struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// NewAABBFromCenter creates an AABB from a center point and half extents.
func NewAABBFromCenter(center, half mgl64.Vec3) AABB3D {
	return AABB3D{
		Min: center.Sub(half),
		Max: center.Add(half),
	}
}

func (a AABB3D) Intersects(b AABB3D) bool {
	return a.Min.X() <= b.Max.X() && a.Max.X() >= b.Min.X() &&
		a.Min.Y() <= b.Max.Y() && a.Max.Y() >= b.Min.Y() &&
		a.Min.Z() <= b.Max.Z() && a.Max.Z() >= b.Min.Z()
}

func (a AABB3D) Contains(p mgl64.Vec3) bool {
	return p.X() >= a.Min.X() && p.X() <= a.Max.X() &&
		p.Y() >= a.Min.Y() && p.Y() <= a.Max.Y() &&
		p.Z() >= a.Min.Z() && p.Z() <= a.Max.Z()
}

func (a AABB3D) Center() mgl64.Vec3 {
	return a.Min.Add(a.Max).Mul(0.5)
}

func (a AABB3D) HalfExtents() mgl64.Vec3 {
	return a.Max.Sub(a.Min).Mul(0.5)
}

func (a AABB3D) Expand(margin float64) AABB3D {
	m := mgl64.Vec3{margin, margin, margin}
	return AABB3D{Min: a.Min.Sub(m), Max: a.Max.Add(m)}
}

func (a AABB3D) Translate(d mgl64.Vec3) AABB3D {
	return AABB3D{Min: a.Min.Add(d), Max: a.Max.Add(d)}
}

func (a AABB3D) Union(b AABB3D) AABB3D {
	return AABB3D{Min: minVec(a.Min, b.Min), Max: maxVec(a.Max, b.Max)}
}

func (a AABB3D) ExtendPoint(p mgl64.Vec3) AABB3D {
	return AABB3D{Min: minVec(a.Min, p), Max: maxVec(a.Max, p)}
}

// Swept returns the box covering a moving from its current position by d.
func (a AABB3D) Swept(d mgl64.Vec3) AABB3D {
	return a.Union(a.Translate(d))
}

// ClosestPoint clamps p into the box.
func (a AABB3D) ClosestPoint(p mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		mgl64.Clamp(p.X(), a.Min.X(), a.Max.X()),
		mgl64.Clamp(p.Y(), a.Min.Y(), a.Max.Y()),
		mgl64.Clamp(p.Z(), a.Min.Z(), a.Max.Z()),
	}
}

// Resolve returns the minimum translation vector to push 'a' out of 'b'.
// Returns zero vector if no overlap.
func (a AABB3D) Resolve(b AABB3D) mgl64.Vec3 {
	if !a.Intersects(b) {
		return mgl64.Vec3{}
	}

	// Signed push along +X, -X, +Y, -Y, +Z, -Z
	candidates := [6]mgl64.Vec3{
		{b.Max.X() - a.Min.X(), 0, 0},
		{-(a.Max.X() - b.Min.X()), 0, 0},
		{0, b.Max.Y() - a.Min.Y(), 0},
		{0, -(a.Max.Y() - b.Min.Y()), 0},
		{0, 0, b.Max.Z() - a.Min.Z()},
		{0, 0, -(a.Max.Z() - b.Min.Z())},
	}

	// The axis with minimum penetration is the push-out direction
	result := candidates[0]
	best := math.Abs(result.X())
	for _, c := range candidates[1:] {
		if d := math.Abs(c.X() + c.Y() + c.Z()); d < best {
			best = d
			result = c
		}
	}
	return result
}
