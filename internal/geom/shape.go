// Package geom holds the collider shape variants and the pure geometric
// queries the physics core runs on them: world bounds, support mapping,
// inertia tensors, closest points and ray intersection.
package geom

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

type ShapeKind int

const (
	KindAABB ShapeKind = iota
	KindSphere
	KindCapsule
	KindOBB
	KindConvexHull
	KindCompound

	NumShapeKinds
)

func (k ShapeKind) String() string {
	switch k {
	case KindAABB:
		return "aabb"
	case KindSphere:
		return "sphere"
	case KindCapsule:
		return "capsule"
	case KindOBB:
		return "obb"
	case KindConvexHull:
		return "convex_hull"
	case KindCompound:
		return "compound"
	}
	return "unknown"
}

// Shape is the closed set of collider geometries. Kind drives narrowphase dispatch.
type Shape interface {
	Kind() ShapeKind
}

// AABBShape stays axis-aligned in world space; entity rotation is ignored.
type AABBShape struct {
	HalfExtents mgl64.Vec3
}

type SphereShape struct {
	Radius float64
}

type Axis int

const (
	AxisY Axis = iota
	AxisX
	AxisZ
)

func (a Axis) Unit() mgl64.Vec3 {
	switch a {
	case AxisX:
		return mgl64.Vec3{1, 0, 0}
	case AxisZ:
		return mgl64.Vec3{0, 0, 1}
	}
	return mgl64.Vec3{0, 1, 0}
}

// CapsuleShape is a segment of length 2*HalfHeight along Axis, swept by Radius.
type CapsuleShape struct {
	Radius     float64
	HalfHeight float64
	Axis       Axis
}

// OBBShape is a box that always follows the entity rotation.
type OBBShape struct {
	HalfExtents mgl64.Vec3
}

// ConvexHullShape is the convex hull of Vertices (local space).
// Vertices must describe a convex set; this is not validated.
type ConvexHullShape struct {
	Vertices []mgl64.Vec3

	planesOnce sync.Once
	planes     []Plane
}

type CompoundChild struct {
	Shape         Shape
	LocalPosition mgl64.Vec3
	LocalRotation mgl64.Quat
}

type CompoundShape struct {
	Children []CompoundChild
}

func (*AABBShape) Kind() ShapeKind       { return KindAABB }
func (*SphereShape) Kind() ShapeKind     { return KindSphere }
func (*CapsuleShape) Kind() ShapeKind    { return KindCapsule }
func (*OBBShape) Kind() ShapeKind        { return KindOBB }
func (*ConvexHullShape) Kind() ShapeKind { return KindConvexHull }
func (*CompoundShape) Kind() ShapeKind   { return KindCompound }

// Placement is where a shape sits in the world: the entity transform with the
// collider offset already applied.
type Placement struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Scale    mgl64.Vec3
}

// Place builds a Placement from a resolved entity transform and a local collider offset.
// The offset is scaled and rotated with the entity.
func Place(position mgl64.Vec3, rotation mgl64.Quat, scale, offset mgl64.Vec3) Placement {
	if rotation.Len() < 1e-12 {
		rotation = mgl64.QuatIdent()
	}
	if scale == (mgl64.Vec3{}) {
		scale = mgl64.Vec3{1, 1, 1}
	}
	return Placement{
		Position: position.Add(rotation.Rotate(MulComp(offset, scale))),
		Rotation: rotation,
		Scale:    scale,
	}
}

// Child returns the placement of a compound child.
func (p Placement) Child(c CompoundChild) Placement {
	rot := c.LocalRotation
	if rot.Len() < 1e-12 {
		rot = mgl64.QuatIdent()
	}
	return Placement{
		Position: p.Position.Add(p.Rotation.Rotate(MulComp(c.LocalPosition, p.Scale))),
		Rotation: p.Rotation.Mul(rot).Normalize(),
		Scale:    p.Scale,
	}
}

// ToLocal maps a world point into the placement's rotated frame.
func (p Placement) ToLocal(v mgl64.Vec3) mgl64.Vec3 {
	return p.Rotation.Conjugate().Rotate(v.Sub(p.Position))
}

func (p Placement) maxScale() float64 {
	return math.Max(math.Abs(p.Scale.X()), math.Max(math.Abs(p.Scale.Y()), math.Abs(p.Scale.Z())))
}

// ScaledHalfExtents applies the placement scale to box half extents.
func (p Placement) ScaledHalfExtents(h mgl64.Vec3) mgl64.Vec3 {
	return AbsVec(MulComp(h, p.Scale))
}

// SphereRadius is the world radius of a sphere under the placement scale.
func (p Placement) SphereRadius(s *SphereShape) float64 {
	return s.Radius * p.maxScale()
}

// CapsuleSegment returns the world-space segment endpoints and radius of a capsule.
func CapsuleSegment(c *CapsuleShape, p Placement) (a, b mgl64.Vec3, radius float64) {
	axis := c.Axis.Unit()
	half := c.HalfHeight * math.Abs(axis.Dot(p.Scale))
	var radial float64
	switch c.Axis {
	case AxisX:
		radial = math.Max(math.Abs(p.Scale.Y()), math.Abs(p.Scale.Z()))
	case AxisZ:
		radial = math.Max(math.Abs(p.Scale.X()), math.Abs(p.Scale.Y()))
	default:
		radial = math.Max(math.Abs(p.Scale.X()), math.Abs(p.Scale.Z()))
	}
	dir := p.Rotation.Rotate(axis).Mul(half)
	return p.Position.Sub(dir), p.Position.Add(dir), c.Radius * radial
}

// OBBOf returns the world oriented box of an OBB shape.
func OBBOf(s *OBBShape, p Placement) OBB {
	return NewOBB(p.Position, p.ScaledHalfExtents(s.HalfExtents), p.Rotation)
}

// HullVertices returns the hull vertices in world space.
func HullVertices(h *ConvexHullShape, p Placement) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, len(h.Vertices))
	for i, v := range h.Vertices {
		out[i] = p.Position.Add(p.Rotation.Rotate(MulComp(v, p.Scale)))
	}
	return out
}

// WorldAABB is the world-space bounding box of a shape.
func WorldAABB(s Shape, p Placement) AABB3D {
	switch sh := s.(type) {
	case *AABBShape:
		return NewAABBFromCenter(p.Position, p.ScaledHalfExtents(sh.HalfExtents))
	case *SphereShape:
		r := p.SphereRadius(sh)
		return NewAABBFromCenter(p.Position, mgl64.Vec3{r, r, r})
	case *CapsuleShape:
		a, b, r := CapsuleSegment(sh, p)
		box := AABB3D{Min: minVec(a, b), Max: maxVec(a, b)}
		return box.Expand(r)
	case *OBBShape:
		return OBBOf(sh, p).Bounds()
	case *ConvexHullShape:
		verts := HullVertices(sh, p)
		if len(verts) == 0 {
			return NewAABBFromCenter(p.Position, mgl64.Vec3{})
		}
		box := AABB3D{Min: verts[0], Max: verts[0]}
		for _, v := range verts[1:] {
			box = box.ExtendPoint(v)
		}
		return box
	case *CompoundShape:
		if len(sh.Children) == 0 {
			return NewAABBFromCenter(p.Position, mgl64.Vec3{})
		}
		box := WorldAABB(sh.Children[0].Shape, p.Child(sh.Children[0]))
		for _, c := range sh.Children[1:] {
			box = box.Union(WorldAABB(c.Shape, p.Child(c)))
		}
		return box
	}
	return NewAABBFromCenter(p.Position, mgl64.Vec3{})
}

// Support returns the farthest world point of the shape along dir.
func Support(s Shape, p Placement, dir mgl64.Vec3) mgl64.Vec3 {
	switch sh := s.(type) {
	case *AABBShape:
		h := p.ScaledHalfExtents(sh.HalfExtents)
		return p.Position.Add(mgl64.Vec3{sign(dir.X()) * h.X(), sign(dir.Y()) * h.Y(), sign(dir.Z()) * h.Z()})
	case *SphereShape:
		return p.Position.Add(safeNormalize(dir).Mul(p.SphereRadius(sh)))
	case *CapsuleShape:
		a, b, r := CapsuleSegment(sh, p)
		end := a
		if b.Dot(dir) > a.Dot(dir) {
			end = b
		}
		return end.Add(safeNormalize(dir).Mul(r))
	case *OBBShape:
		return OBBOf(sh, p).Support(dir)
	case *ConvexHullShape:
		best := p.Position
		bestDot := math.Inf(-1)
		for _, v := range sh.Vertices {
			w := p.Position.Add(p.Rotation.Rotate(MulComp(v, p.Scale)))
			if d := w.Dot(dir); d > bestDot {
				best, bestDot = w, d
			}
		}
		return best
	case *CompoundShape:
		best := p.Position
		bestDot := math.Inf(-1)
		for _, c := range sh.Children {
			w := Support(c.Shape, p.Child(c), dir)
			if d := w.Dot(dir); d > bestDot {
				best, bestDot = w, d
			}
		}
		return best
	}
	return p.Position
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func safeNormalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < 1e-12 {
		return mgl64.Vec3{0, 1, 0}
	}
	return v.Mul(1 / l)
}

// MulComp is the component-wise product.
func MulComp(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a.X() * b.X(), a.Y() * b.Y(), a.Z() * b.Z()}
}

func AbsVec(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Abs(v.X()), math.Abs(v.Y()), math.Abs(v.Z())}
}

func minVec(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Min(a.X(), b.X()), math.Min(a.Y(), b.Y()), math.Min(a.Z(), b.Z())}
}

func maxVec(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{math.Max(a.X(), b.X()), math.Max(a.Y(), b.Y()), math.Max(a.Z(), b.Z())}
}
