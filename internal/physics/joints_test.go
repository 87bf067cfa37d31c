package physics

import (
	"math"
	"testing"

	"rigid3d/internal/components"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedJointHoldsPose(t *testing.T) {
	w, reg := newTestWorld(sixtyHertz())
	anchor := mgl64.Vec3{0, 3, 0}
	body, rb := addBody(reg, "welded", mgl64.Vec3{1, 3, 0}, components.NewOrientedBoxCollider(mgl64.Vec3{0.5, 0.1, 0.1}))
	rb.CanSleep = false

	w.AddJoint(NewFixedJoint(0, body.ID, anchor, mgl64.Vec3{-1, 0, 0}))
	for range 120 {
		w.StepFixed()
	}

	assert.InDelta(t, 1.0, body.Transform.Position.X(), 0.05)
	assert.InDelta(t, 3.0, body.Transform.Position.Y(), 0.1)
	assert.Greater(t, math.Abs(body.Transform.Rotation.W), 0.98, "welded body rotated: %v", body.Transform.Rotation)
}

func hingedArm(t *testing.T, lower, upper float64) (*World, *HingeJoint, func() mgl64.Vec3) {
	t.Helper()
	w, reg := newTestWorld(sixtyHertz())
	arm, rb := addBody(reg, "arm", mgl64.Vec3{1, 2, 0}, components.NewSphereCollider(0.25))
	rb.CanSleep = false
	rb.LinearDamping = 0
	rb.AngularDamping = 0
	// Tangential for a spin of +2 rad/s about Y.
	rb.Velocity = mgl64.Vec3{0, 0, -2}
	rb.AngularVelocity = mgl64.Vec3{0, 2, 0}

	hinge := NewHingeJoint(0, arm.ID, mgl64.Vec3{0, 2, 0}, mgl64.Vec3{0, 1, 0}, lower, upper)
	w.AddJoint(hinge)
	return w, hinge, func() mgl64.Vec3 { return arm.Transform.Position }
}

func TestHingeJointSwingsAboutAxis(t *testing.T) {
	w, hinge, pos := hingedArm(t, 0, 0)

	for range 30 {
		w.StepFixed()
		p := pos()
		require.InDelta(t, 1.0, math.Hypot(p.X(), p.Z()), 0.1)
		// Gravity is perpendicular to the axis, so the hinge holds the arm up.
		require.InDelta(t, 2.0, p.Y(), 0.1)
	}
	assert.Greater(t, math.Abs(hinge.Angle()), 0.3)
}

func TestHingeJointLimits(t *testing.T) {
	w, hinge, _ := hingedArm(t, -0.3, 0.3)

	for range 120 {
		w.StepFixed()
		require.LessOrEqual(t, math.Abs(hinge.Angle()), 0.3+0.05)
	}
	// The arm stops on the limit instead of bouncing back off it.
	assert.InDelta(t, 0.3, math.Abs(hinge.Angle()), 0.05)
}

func TestSliderJointConstrainsToAxis(t *testing.T) {
	w, reg := newTestWorld(sixtyHertz())
	cart, rb := addBody(reg, "cart", mgl64.Vec3{0, 1, 0}, components.NewSphereCollider(0.25))
	rb.UseGravity = false
	rb.CanSleep = false
	rb.Velocity = mgl64.Vec3{3, 0, 2}

	slider := NewSliderJoint(0, cart.ID, mgl64.Vec3{1, 0, 0}, -1, 1)
	w.AddJoint(slider)

	for range 90 {
		w.StepFixed()
		p := cart.Transform.Position
		require.InDelta(t, 0.0, p.Z(), 0.05)
		require.InDelta(t, 1.0, p.Y(), 0.05)
		require.LessOrEqual(t, p.X(), 1.1)
	}
	assert.InDelta(t, 1.0, slider.Translation(), 0.02)

	for range 240 {
		w.StepFixed()
		require.InDelta(t, 1.0, slider.Translation(), 0.02, "cart drifted off the limit")
	}
	assert.InDelta(t, 0.0, rb.Velocity.X(), 1e-3)
}

func TestLimitRow(t *testing.T) {
	const dt, beta, slop = 0.1, 0.2, 0.01

	tests := []struct {
		name         string
		value, speed float64
		bias         float64
		side         int
	}{
		{"far from both", 0, 1, 0, 0},
		{"will cross upper", 0.8, 3, 2, 1},
		{"resting on upper", 1, 0, 0, 1},
		{"within slop past upper", 1.005, 0, 0, 1},
		{"deep past upper", 1.11, 0, -0.2, 1},
		{"will cross lower", -0.9, -2, -1, -1},
		{"deep past lower", -1.11, 0, 0.2, -1},
		{"moving away from upper", 0.95, -1, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bias, side := limitRow(tt.value, tt.speed, -1, 1, dt, beta, slop)
			assert.Equal(t, tt.side, side)
			assert.InDelta(t, tt.bias, bias, 1e-9)
		})
	}

	_, side := limitRow(5, 10, 0, 0, dt, beta, slop)
	assert.Zero(t, side, "limits off when lower == upper")
}
