package components

import (
	"rigid3d/internal/engine"
	"rigid3d/internal/geom"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	DefaultLayer uint32 = 1
	AllLayers    uint32 = ^uint32(0)
)

// Collider attaches a shape to an entity. Offset is in entity-local space.
type Collider struct {
	engine.BaseComponent
	Shape     geom.Shape
	Offset    mgl64.Vec3
	IsTrigger bool

	// Two colliders interact only if each one's Layer is in the other's Mask.
	Layer uint32
	Mask  uint32
}

func NewCollider(shape geom.Shape) *Collider {
	return &Collider{
		Shape: shape,
		Layer: DefaultLayer,
		Mask:  AllLayers,
	}
}

func NewBoxCollider(halfExtents mgl64.Vec3) *Collider {
	return NewCollider(&geom.AABBShape{HalfExtents: halfExtents})
}

func NewOrientedBoxCollider(halfExtents mgl64.Vec3) *Collider {
	return NewCollider(&geom.OBBShape{HalfExtents: halfExtents})
}

func NewSphereCollider(radius float64) *Collider {
	return NewCollider(&geom.SphereShape{Radius: radius})
}

func NewCapsuleCollider(radius, halfHeight float64, axis geom.Axis) *Collider {
	return NewCollider(&geom.CapsuleShape{Radius: radius, HalfHeight: halfHeight, Axis: axis})
}

func NewHullCollider(vertices []mgl64.Vec3) *Collider {
	return NewCollider(&geom.ConvexHullShape{Vertices: vertices})
}

func NewCompoundCollider(children ...geom.CompoundChild) *Collider {
	return NewCollider(&geom.CompoundShape{Children: children})
}

// NewTrigger returns a trigger volume: it reports overlaps but never collides.
func NewTrigger(shape geom.Shape) *Collider {
	c := NewCollider(shape)
	c.IsTrigger = true
	return c
}

// Placement resolves where the shape sits for the given entity transform.
func (c *Collider) Placement(t engine.Transform) geom.Placement {
	return geom.Place(t.Position, t.Orientation(), t.Scale, c.Offset)
}

func (c *Collider) WorldAABB(t engine.Transform) geom.AABB3D {
	return geom.WorldAABB(c.Shape, c.Placement(t))
}

func (c *Collider) CanCollide(other *Collider) bool {
	return c.Layer&other.Mask != 0 && other.Layer&c.Mask != 0
}
