package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Volume of the shape under the given scale. Hulls use their local bounding box.
func Volume(s Shape, scale mgl64.Vec3) float64 {
	p := Placement{Rotation: mgl64.QuatIdent(), Scale: scale}
	switch sh := s.(type) {
	case *AABBShape:
		h := p.ScaledHalfExtents(sh.HalfExtents)
		return 8 * h.X() * h.Y() * h.Z()
	case *OBBShape:
		h := p.ScaledHalfExtents(sh.HalfExtents)
		return 8 * h.X() * h.Y() * h.Z()
	case *SphereShape:
		r := p.SphereRadius(sh)
		return 4.0 / 3.0 * math.Pi * r * r * r
	case *CapsuleShape:
		a, b, r := CapsuleSegment(sh, p)
		h := b.Sub(a).Len()
		return math.Pi*r*r*h + 4.0/3.0*math.Pi*r*r*r
	case *ConvexHullShape:
		h := WorldAABB(sh, p).HalfExtents()
		return 8 * h.X() * h.Y() * h.Z()
	case *CompoundShape:
		total := 0.0
		for _, c := range sh.Children {
			total += Volume(c.Shape, scale)
		}
		return total
	}
	return 0
}

// Inertia is the local-space inertia tensor about the shape origin.
// Non-positive mass yields the zero tensor.
func Inertia(s Shape, mass float64, scale mgl64.Vec3) mgl64.Mat3 {
	if mass <= 0 || math.IsNaN(mass) {
		return mgl64.Mat3{}
	}
	if scale == (mgl64.Vec3{}) {
		scale = mgl64.Vec3{1, 1, 1}
	}
	p := Placement{Rotation: mgl64.QuatIdent(), Scale: scale}
	switch sh := s.(type) {
	case *AABBShape:
		return boxInertia(mass, p.ScaledHalfExtents(sh.HalfExtents))
	case *OBBShape:
		return boxInertia(mass, p.ScaledHalfExtents(sh.HalfExtents))
	case *ConvexHullShape:
		return boxInertia(mass, WorldAABB(sh, p).HalfExtents())
	case *SphereShape:
		r := p.SphereRadius(sh)
		i := 0.4 * mass * r * r
		return mgl64.Diag3(mgl64.Vec3{i, i, i})
	case *CapsuleShape:
		a, b, r := CapsuleSegment(sh, p)
		return capsuleInertia(mass, r, b.Sub(a).Len(), sh.Axis)
	case *CompoundShape:
		return compoundInertia(sh, mass, scale)
	}
	return mgl64.Mat3{}
}

// InverseInertia inverts Inertia. Singular or non-finite tensors become zero,
// which the solver treats as infinite rotational mass.
func InverseInertia(s Shape, mass float64, scale mgl64.Vec3) mgl64.Mat3 {
	return SanitizeInverse(Inertia(s, mass, scale).Inv())
}

// SanitizeInverse zeroes a tensor that holds any NaN or Inf entry.
func SanitizeInverse(m mgl64.Mat3) mgl64.Mat3 {
	for _, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return mgl64.Mat3{}
		}
	}
	return m
}

func boxInertia(mass float64, h mgl64.Vec3) mgl64.Mat3 {
	// 1/12 m (h^2 + d^2) with full sizes, i.e. 1/3 m with half sizes
	x2, y2, z2 := h.X()*h.X(), h.Y()*h.Y(), h.Z()*h.Z()
	return mgl64.Diag3(mgl64.Vec3{
		mass / 3 * (y2 + z2),
		mass / 3 * (x2 + z2),
		mass / 3 * (x2 + y2),
	})
}

// capsuleInertia splits mass between the cylinder and the two hemispheres by volume.
// Hemisphere terms are shifted from their own centroid (3r/8 from the flat face) to the origin.
func capsuleInertia(mass, r, height float64, axis Axis) mgl64.Mat3 {
	cylVol := math.Pi * r * r * height
	sphVol := 4.0 / 3.0 * math.Pi * r * r * r
	total := cylVol + sphVol
	if total <= 0 {
		return mgl64.Mat3{}
	}
	mc := mass * cylVol / total
	ms := mass * sphVol / total

	r2 := r * r
	h2 := height * height
	axial := mc*r2/2 + ms*0.4*r2
	perp := mc*(r2/4+h2/12) + ms*(0.4*r2+h2/4+3.0/8.0*height*r)

	switch axis {
	case AxisX:
		return mgl64.Diag3(mgl64.Vec3{axial, perp, perp})
	case AxisZ:
		return mgl64.Diag3(mgl64.Vec3{perp, perp, axial})
	}
	return mgl64.Diag3(mgl64.Vec3{perp, axial, perp})
}

// compoundInertia distributes mass by child volume and sums each child's
// rotated tensor plus the parallel-axis term about the compound origin.
// Products of inertia are kept; the tensor is not diagonalized.
func compoundInertia(c *CompoundShape, mass float64, scale mgl64.Vec3) mgl64.Mat3 {
	total := Volume(c, scale)
	if total <= 0 {
		return mgl64.Mat3{}
	}
	var sum mgl64.Mat3
	for _, child := range c.Children {
		m := mass * Volume(child.Shape, scale) / total
		if m <= 0 {
			continue
		}
		rot := child.LocalRotation
		if rot.Len() < 1e-12 {
			rot = mgl64.QuatIdent()
		}
		r := rot.Mat4().Mat3()
		local := Inertia(child.Shape, m, scale)
		rotated := r.Mul3(local).Mul3(r.Transpose())

		d := MulComp(child.LocalPosition, scale)
		sum = sum.Add(rotated).Add(parallelAxis(m, d))
	}
	return sum
}

// parallelAxis is m (|d|^2 I - d d^T).
func parallelAxis(m float64, d mgl64.Vec3) mgl64.Mat3 {
	dd := d.Dot(d)
	var out mgl64.Mat3
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			v := -d[row] * d[col]
			if row == col {
				v += dd
			}
			out.Set(row, col, m*v)
		}
	}
	return out
}
