package engine

import "github.com/go-gl/mathgl/mgl64"

// Transform is the resolved world transform of an entity.
// Hierarchy composition happens elsewhere; physics only sees the result.
type Transform struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
	Scale    mgl64.Vec3
}

// IdentityTransform returns a transform at the origin with unit scale.
func IdentityTransform() Transform {
	return Transform{
		Rotation: mgl64.QuatIdent(),
		Scale:    mgl64.Vec3{1, 1, 1},
	}
}

// Orientation returns the rotation, falling back to identity for a zero quaternion.
func (t Transform) Orientation() mgl64.Quat {
	if t.Rotation.Len() < 1e-12 {
		return mgl64.QuatIdent()
	}
	return t.Rotation
}

// ToLocal maps a world-space point into the transform's rotation frame (scale ignored).
func (t Transform) ToLocal(p mgl64.Vec3) mgl64.Vec3 {
	return t.Orientation().Conjugate().Rotate(p.Sub(t.Position))
}

// ToWorld is the inverse of ToLocal.
func (t Transform) ToWorld(p mgl64.Vec3) mgl64.Vec3 {
	return t.Position.Add(t.Orientation().Rotate(p))
}
