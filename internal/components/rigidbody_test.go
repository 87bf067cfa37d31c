package components

import (
	"testing"

	"rigid3d/internal/engine"
	"rigid3d/internal/geom"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestSetMass(t *testing.T) {
	rb := NewRigidbody()
	shape := &geom.SphereShape{Radius: 1}
	rb.SetMass(2, shape, mgl64.Vec3{1, 1, 1})

	assert.InDelta(t, 0.5, rb.InverseMass, 1e-12)
	assert.InDelta(t, 1/(0.4*2), rb.InverseInertia.At(0, 0), 1e-12)

	rb.SetMass(0, shape, mgl64.Vec3{1, 1, 1})
	assert.Zero(t, rb.InverseMass)
	assert.Equal(t, mgl64.Mat3{}, rb.InverseInertia)
}

func TestStaticAndKinematicHaveInfiniteMass(t *testing.T) {
	shape := &geom.AABBShape{HalfExtents: mgl64.Vec3{1, 1, 1}}
	for _, bt := range []BodyType{BodyStatic, BodyKinematic} {
		rb := NewRigidbody()
		rb.BodyType = bt
		rb.SyncMass(shape, mgl64.Vec3{1, 1, 1})
		assert.Zero(t, rb.InverseMass, bt.String())
		assert.Equal(t, mgl64.Mat3{}, rb.InverseInertia, bt.String())
	}
}

func TestSyncMassRecomputesOnChange(t *testing.T) {
	rb := NewRigidbody()
	shape := &geom.SphereShape{Radius: 1}
	rb.SyncMass(shape, mgl64.Vec3{1, 1, 1})
	assert.InDelta(t, 1.0, rb.InverseMass, 1e-12)

	rb.Mass = 4
	rb.SyncMass(shape, mgl64.Vec3{1, 1, 1})
	assert.InDelta(t, 0.25, rb.InverseMass, 1e-12)
}

// meshShape is a shape from outside geom whose value is not comparable.
type meshShape struct {
	vertices []mgl64.Vec3
}

func (meshShape) Kind() geom.ShapeKind { return geom.NumShapeKinds }

func TestSyncMassAcceptsAnyShape(t *testing.T) {
	rb := NewRigidbody()
	shape := meshShape{vertices: []mgl64.Vec3{{1, 0, 0}}}

	assert.NotPanics(t, func() {
		rb.SyncMass(shape, mgl64.Vec3{1, 1, 1})
		rb.SyncMass(shape, mgl64.Vec3{1, 1, 1})
	})
	assert.InDelta(t, 1.0, rb.InverseMass, 1e-12)
	assert.Equal(t, mgl64.Mat3{}, rb.InverseInertia)
}

func TestSyncMassSeesShapeEditedInPlace(t *testing.T) {
	rb := NewRigidbody()
	shape := &geom.SphereShape{Radius: 1}
	rb.SyncMass(shape, mgl64.Vec3{1, 1, 1})
	before := rb.InverseInertia.At(0, 0)

	shape.Radius = 2
	rb.SyncMass(shape, mgl64.Vec3{1, 1, 1})
	assert.InDelta(t, before/4, rb.InverseInertia.At(0, 0), 1e-12)
}

func TestAccumulateSleep(t *testing.T) {
	rb := NewRigidbody()
	rb.AccumulateSleep(0.1, 0.05, 0.05)
	rb.AccumulateSleep(0.1, 0.05, 0.05)
	assert.InDelta(t, 0.2, rb.SleepTimer, 1e-12)

	rb.Velocity = mgl64.Vec3{1, 0, 0}
	rb.AccumulateSleep(0.1, 0.05, 0.05)
	assert.Zero(t, rb.SleepTimer)

	rb.Velocity = mgl64.Vec3{}
	rb.CanSleep = false
	rb.AccumulateSleep(0.1, 0.05, 0.05)
	assert.Zero(t, rb.SleepTimer)
}

func TestWakeAndImpulse(t *testing.T) {
	rb := NewRigidbody()
	rb.Sleep()
	assert.True(t, rb.IsSleeping)

	rb.AddImpulse(mgl64.Vec3{0, 2, 0})
	assert.False(t, rb.IsSleeping)
	assert.Equal(t, mgl64.Vec3{0, 2, 0}, rb.Velocity)
}

func TestColliderLayers(t *testing.T) {
	a := NewSphereCollider(1)
	b := NewSphereCollider(1)
	assert.True(t, a.CanCollide(b))

	b.Layer = 1 << 3
	a.Mask = DefaultLayer
	assert.False(t, a.CanCollide(b))
	assert.False(t, b.CanCollide(a))
}

func TestColliderPlacementUsesOffset(t *testing.T) {
	c := NewSphereCollider(0.5)
	c.Offset = mgl64.Vec3{0, 1, 0}
	tr := engine.IdentityTransform()
	tr.Position = mgl64.Vec3{2, 0, 0}

	box := c.WorldAABB(tr)
	assert.Equal(t, mgl64.Vec3{1.5, 0.5, -0.5}, box.Min)
	assert.Equal(t, mgl64.Vec3{2.5, 1.5, 0.5}, box.Max)
}
