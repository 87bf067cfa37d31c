package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// OBB represents an Oriented Bounding Box
type OBB struct {
	Center   mgl64.Vec3    // World-space center
	HalfSize mgl64.Vec3    // Half-extents along local axes
	Axes     [3]mgl64.Vec3 // Local X, Y, Z axes (rotated)
}

func NewOBB(center, half mgl64.Vec3, rotation mgl64.Quat) OBB {
	return OBB{
		Center:   center,
		HalfSize: half,
		Axes: [3]mgl64.Vec3{
			rotation.Rotate(mgl64.Vec3{1, 0, 0}).Normalize(),
			rotation.Rotate(mgl64.Vec3{0, 1, 0}).Normalize(),
			rotation.Rotate(mgl64.Vec3{0, 0, 1}).Normalize(),
		},
	}
}

// Support returns the corner farthest along dir.
func (o OBB) Support(dir mgl64.Vec3) mgl64.Vec3 {
	p := o.Center
	for i := 0; i < 3; i++ {
		p = p.Add(o.Axes[i].Mul(sign(dir.Dot(o.Axes[i])) * o.HalfSize[i]))
	}
	return p
}

// Corners lists the 8 world corners.
func (o OBB) Corners() [8]mgl64.Vec3 {
	var out [8]mgl64.Vec3
	for i := 0; i < 8; i++ {
		p := o.Center
		for axis := 0; axis < 3; axis++ {
			s := -1.0
			if i&(1<<axis) != 0 {
				s = 1
			}
			p = p.Add(o.Axes[axis].Mul(s * o.HalfSize[axis]))
		}
		out[i] = p
	}
	return out
}

// Bounds is the world AABB enclosing the box.
func (o OBB) Bounds() AABB3D {
	var ext mgl64.Vec3
	for i := 0; i < 3; i++ {
		ext[i] = math.Abs(o.Axes[0][i])*o.HalfSize[0] +
			math.Abs(o.Axes[1][i])*o.HalfSize[1] +
			math.Abs(o.Axes[2][i])*o.HalfSize[2]
	}
	return NewAABBFromCenter(o.Center, ext)
}

// IntersectsOBB tests if two OBBs intersect using the Separating Axis Theorem
func (a OBB) IntersectsOBB(b OBB) bool {
	t := b.Center.Sub(a.Center)

	// 3 face normals from each box, then 9 edge cross products
	for i := 0; i < 3; i++ {
		if !overlapOnAxis(a, b, a.Axes[i], t) || !overlapOnAxis(a, b, b.Axes[i], t) {
			return false
		}
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			axis := a.Axes[i].Cross(b.Axes[j])
			// Skip near-zero axes (parallel edges)
			if axis.Len() > 1e-6 {
				if !overlapOnAxis(a, b, axis.Normalize(), t) {
					return false
				}
			}
		}
	}
	return true
}

func (o OBB) project(axis mgl64.Vec3) float64 {
	return o.HalfSize[0]*math.Abs(o.Axes[0].Dot(axis)) +
		o.HalfSize[1]*math.Abs(o.Axes[1].Dot(axis)) +
		o.HalfSize[2]*math.Abs(o.Axes[2].Dot(axis))
}

// overlapOnAxis checks if two OBBs overlap when projected onto a given axis
func overlapOnAxis(a, b OBB, axis, t mgl64.Vec3) bool {
	return math.Abs(t.Dot(axis)) <= a.project(axis)+b.project(axis)
}

// ClosestPoint returns the closest point on or inside the OBB to p.
func (o OBB) ClosestPoint(p mgl64.Vec3) mgl64.Vec3 {
	local := o.ToLocal(p)
	local = mgl64.Vec3{
		mgl64.Clamp(local.X(), -o.HalfSize.X(), o.HalfSize.X()),
		mgl64.Clamp(local.Y(), -o.HalfSize.Y(), o.HalfSize.Y()),
		mgl64.Clamp(local.Z(), -o.HalfSize.Z(), o.HalfSize.Z()),
	}
	return o.ToWorld(local)
}

func (o OBB) ToLocal(p mgl64.Vec3) mgl64.Vec3 {
	d := p.Sub(o.Center)
	return mgl64.Vec3{d.Dot(o.Axes[0]), d.Dot(o.Axes[1]), d.Dot(o.Axes[2])}
}

func (o OBB) ToWorld(local mgl64.Vec3) mgl64.Vec3 {
	return o.Center.
		Add(o.Axes[0].Mul(local.X())).
		Add(o.Axes[1].Mul(local.Y())).
		Add(o.Axes[2].Mul(local.Z()))
}

// LocalDirection rotates a world direction into the box frame.
func (o OBB) LocalDirection(d mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{d.Dot(o.Axes[0]), d.Dot(o.Axes[1]), d.Dot(o.Axes[2])}
}

// WorldDirection rotates a box-frame direction into world space.
func (o OBB) WorldDirection(d mgl64.Vec3) mgl64.Vec3 {
	return o.Axes[0].Mul(d.X()).Add(o.Axes[1].Mul(d.Y())).Add(o.Axes[2].Mul(d.Z()))
}
