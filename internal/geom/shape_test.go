package geom

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identity(pos mgl64.Vec3) Placement {
	return Place(pos, mgl64.QuatIdent(), mgl64.Vec3{1, 1, 1}, mgl64.Vec3{})
}

func assertVec(t *testing.T, want, got mgl64.Vec3, delta float64) {
	t.Helper()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, want[i], got[i], delta, "component %d of %v vs %v", i, want, got)
	}
}

func TestWorldAABB(t *testing.T) {
	rot45 := mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 1, 0})
	s2 := math.Sqrt2

	tests := []struct {
		name  string
		shape Shape
		place Placement
		min   mgl64.Vec3
		max   mgl64.Vec3
	}{
		{"aabb ignores rotation", &AABBShape{HalfExtents: mgl64.Vec3{1, 2, 3}},
			Place(mgl64.Vec3{1, 0, 0}, rot45, mgl64.Vec3{1, 1, 1}, mgl64.Vec3{}),
			mgl64.Vec3{0, -2, -3}, mgl64.Vec3{2, 2, 3}},
		{"sphere scaled by max axis", &SphereShape{Radius: 1},
			Place(mgl64.Vec3{}, mgl64.QuatIdent(), mgl64.Vec3{1, 2, 1}, mgl64.Vec3{}),
			mgl64.Vec3{-2, -2, -2}, mgl64.Vec3{2, 2, 2}},
		{"capsule along y", &CapsuleShape{Radius: 0.5, HalfHeight: 1},
			identity(mgl64.Vec3{}),
			mgl64.Vec3{-0.5, -1.5, -0.5}, mgl64.Vec3{0.5, 1.5, 0.5}},
		{"obb rotated", &OBBShape{HalfExtents: mgl64.Vec3{1, 1, 1}},
			Place(mgl64.Vec3{}, rot45, mgl64.Vec3{1, 1, 1}, mgl64.Vec3{}),
			mgl64.Vec3{-s2, -1, -s2}, mgl64.Vec3{s2, 1, s2}},
		{"offset applied", &SphereShape{Radius: 1},
			Place(mgl64.Vec3{0, 5, 0}, mgl64.QuatIdent(), mgl64.Vec3{1, 1, 1}, mgl64.Vec3{0, 1, 0}),
			mgl64.Vec3{-1, 5, -1}, mgl64.Vec3{1, 7, 1}},
		{"compound union", &CompoundShape{Children: []CompoundChild{
			{Shape: &SphereShape{Radius: 1}, LocalPosition: mgl64.Vec3{-2, 0, 0}, LocalRotation: mgl64.QuatIdent()},
			{Shape: &SphereShape{Radius: 1}, LocalPosition: mgl64.Vec3{2, 0, 0}},
		}}, identity(mgl64.Vec3{}),
			mgl64.Vec3{-3, -1, -1}, mgl64.Vec3{3, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			box := WorldAABB(tt.shape, tt.place)
			assertVec(t, tt.min, box.Min, 1e-9)
			assertVec(t, tt.max, box.Max, 1e-9)
		})
	}
}

func TestSupport(t *testing.T) {
	p := identity(mgl64.Vec3{1, 0, 0})
	assertVec(t, mgl64.Vec3{2, 1, 1}, Support(&AABBShape{HalfExtents: mgl64.Vec3{1, 1, 1}}, p, mgl64.Vec3{1, 1, 1}), 1e-12)
	assertVec(t, mgl64.Vec3{3, 0, 0}, Support(&SphereShape{Radius: 2}, p, mgl64.Vec3{5, 0, 0}), 1e-12)
	assertVec(t, mgl64.Vec3{1, 1.5, 0}, Support(&CapsuleShape{Radius: 0.5, HalfHeight: 1}, p, mgl64.Vec3{0, 1, 0}), 1e-12)

	hull := &ConvexHullShape{Vertices: []mgl64.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}}
	assertVec(t, mgl64.Vec3{1, 1, 0}, Support(hull, p, mgl64.Vec3{0, 1, 0}), 1e-12)
}

func TestInertiaFormulas(t *testing.T) {
	box := Inertia(&AABBShape{HalfExtents: mgl64.Vec3{0.5, 1, 1.5}}, 12, mgl64.Vec3{1, 1, 1})
	// 1/12 m (h^2 + d^2) with full sizes 1, 2, 3
	assert.InDelta(t, 4+9, box.At(0, 0), 1e-9)
	assert.InDelta(t, 1+9, box.At(1, 1), 1e-9)
	assert.InDelta(t, 1+4, box.At(2, 2), 1e-9)

	sphere := Inertia(&SphereShape{Radius: 2}, 5, mgl64.Vec3{1, 1, 1})
	assert.InDelta(t, 0.4*5*4, sphere.At(1, 1), 1e-9)

	capsule := Inertia(&CapsuleShape{Radius: 0.5, HalfHeight: 1}, 1, mgl64.Vec3{1, 1, 1})
	assert.Less(t, capsule.At(1, 1), capsule.At(0, 0), "axial inertia is smaller than perpendicular")
	assert.InDelta(t, capsule.At(0, 0), capsule.At(2, 2), 1e-12)
}

func TestInertiaZeroMassIsZeroTensor(t *testing.T) {
	for _, m := range []float64{0, -1, math.NaN()} {
		assert.Equal(t, mgl64.Mat3{}, Inertia(&SphereShape{Radius: 1}, m, mgl64.Vec3{1, 1, 1}))
		assert.Equal(t, mgl64.Mat3{}, InverseInertia(&SphereShape{Radius: 1}, m, mgl64.Vec3{1, 1, 1}))
	}
}

func TestSanitizeInverse(t *testing.T) {
	m := mgl64.Ident3()
	m[4] = math.Inf(1)
	assert.Equal(t, mgl64.Mat3{}, SanitizeInverse(m))
	assert.Equal(t, mgl64.Ident3(), SanitizeInverse(mgl64.Ident3()))
}

func TestCompoundInertiaKeepsProducts(t *testing.T) {
	c := &CompoundShape{Children: []CompoundChild{
		{Shape: &SphereShape{Radius: 0.5}, LocalPosition: mgl64.Vec3{1, 1, 0}},
		{Shape: &SphereShape{Radius: 0.5}, LocalPosition: mgl64.Vec3{0, 0, 0}},
	}}
	in := Inertia(c, 2, mgl64.Vec3{1, 1, 1})
	// Child at (1,1,0) with mass 1 contributes -m*x*y to Ixy.
	assert.InDelta(t, -1, in.At(0, 1), 1e-9)
	assert.InDelta(t, in.At(0, 1), in.At(1, 0), 1e-12)

	inv := InverseInertia(c, 2, mgl64.Vec3{1, 1, 1})
	prod := in.Mul3(inv)
	for i := 0; i < 9; i++ {
		assert.InDelta(t, mgl64.Ident3()[i], prod[i], 1e-9)
	}
}

func TestClosestPointsSegments(t *testing.T) {
	c1, c2, s, tt := ClosestPointsSegments(
		mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{1, 0, 0},
		mgl64.Vec3{0, 1, -1}, mgl64.Vec3{0, 1, 1},
	)
	assertVec(t, mgl64.Vec3{0, 0, 0}, c1, 1e-12)
	assertVec(t, mgl64.Vec3{0, 1, 0}, c2, 1e-12)
	assert.InDelta(t, 0.5, s, 1e-12)
	assert.InDelta(t, 0.5, tt, 1e-12)

	// Degenerate first segment
	c1, c2, _, _ = ClosestPointsSegments(
		mgl64.Vec3{0, 2, 0}, mgl64.Vec3{0, 2, 0},
		mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{1, 0, 0},
	)
	assertVec(t, mgl64.Vec3{0, 2, 0}, c1, 1e-12)
	assertVec(t, mgl64.Vec3{0, 0, 0}, c2, 1e-12)
}

func TestSegmentAABBDistance(t *testing.T) {
	box := NewAABBFromCenter(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1})
	seg, onBox := SegmentAABBDistance(mgl64.Vec3{-3, 2, 0}, mgl64.Vec3{3, 2, 0}, box)
	assert.InDelta(t, 2, seg.Y(), 1e-9)
	assert.InDelta(t, 1, onBox.Y(), 1e-9)
	assert.InDelta(t, 1, seg.Sub(onBox).Len(), 1e-9)
}

func TestAABBResolve(t *testing.T) {
	a := NewAABBFromCenter(mgl64.Vec3{0, 0.9, 0}, mgl64.Vec3{0.5, 0.5, 0.5})
	b := NewAABBFromCenter(mgl64.Vec3{}, mgl64.Vec3{5, 0.5, 5})
	assertVec(t, mgl64.Vec3{0, 0.1, 0}, a.Resolve(b), 1e-9)
	assert.Equal(t, mgl64.Vec3{}, a.Translate(mgl64.Vec3{0, 10, 0}).Resolve(b))
}

func TestOBBIntersects(t *testing.T) {
	a := NewOBB(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}, mgl64.QuatIdent())
	b := NewOBB(mgl64.Vec3{2.3, 0, 0}, mgl64.Vec3{1, 1, 1}, mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 1, 0}))
	assert.True(t, a.IntersectsOBB(b), "rotated corner reaches into a")

	c := NewOBB(mgl64.Vec3{2.5, 0, 0}, mgl64.Vec3{1, 1, 1}, mgl64.QuatIdent())
	assert.False(t, a.IntersectsOBB(c))
}

func TestHullPlanesOfCube(t *testing.T) {
	var verts []mgl64.Vec3
	for _, x := range []float64{-1, 1} {
		for _, y := range []float64{-1, 1} {
			for _, z := range []float64{-1, 1} {
				verts = append(verts, mgl64.Vec3{x, y, z})
			}
		}
	}
	hull := &ConvexHullShape{Vertices: verts}
	planes := hull.Planes()
	require.Len(t, planes, 6)
	for _, p := range planes {
		assert.InDelta(t, 1, p.D, 1e-9)
	}
}
