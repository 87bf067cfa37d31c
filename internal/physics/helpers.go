package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

func abs(x float64) float64 {
	return math.Abs(x)
}

// sqrt treats non-positive input as zero.
func sqrt(x float64) float64 {
	if x <= 0 {
		return 0
	}
	return math.Sqrt(x)
}

// skew returns [r]x, the matrix with skew(r)*v == r.Cross(v).
func skew(r mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Mat3{
		0, r.Z(), -r.Y(),
		-r.Z(), 0, r.X(),
		r.Y(), -r.X(), 0,
	}
}

// orthonormalBasis returns two unit tangents perpendicular to n.
// The choice depends only on n, so cached tangent impulses stay meaningful.
func orthonormalBasis(n mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	var t mgl64.Vec3
	if math.Abs(n.X()) >= 0.57735 {
		t = mgl64.Vec3{n.Y(), -n.X(), 0}
	} else {
		t = mgl64.Vec3{0, n.Z(), -n.Y()}
	}
	t = t.Normalize()
	return t, n.Cross(t)
}

// rotateInertia maps a local inverse inertia to world space: R I^-1 R^T.
func rotateInertia(local mgl64.Mat3, q mgl64.Quat) mgl64.Mat3 {
	r := q.Mat4().Mat3()
	return r.Mul3(local).Mul3(r.Transpose())
}

func isFiniteVec(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// clampLength scales v down to at most max.
func clampLength(v mgl64.Vec3, max float64) mgl64.Vec3 {
	if l := v.Len(); l > max && l > 0 {
		return v.Mul(max / l)
	}
	return v
}
