package physics

import (
	"math"
	"testing"

	"rigid3d/internal/components"
	"rigid3d/internal/engine"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const floorTop = 0.0

func newTestWorld(cfg Config, opts ...Option) (*World, *engine.Registry) {
	reg := engine.NewRegistry("test")
	return NewWorld(reg, cfg, opts...), reg
}

func sixtyHertz() Config {
	cfg := DefaultConfig()
	cfg.FixedDt = 1.0 / 60.0
	return cfg
}

// addFloor spawns a static slab whose top face is at y = floorTop.
func addFloor(reg *engine.Registry) *engine.Entity {
	floor := reg.Spawn("floor")
	floor.Transform.Position = mgl64.Vec3{0, floorTop - 0.5, 0}
	floor.AddComponent(components.NewBoxCollider(mgl64.Vec3{20, 0.5, 20}))
	return floor
}

func addBody(reg *engine.Registry, name string, pos mgl64.Vec3, col *components.Collider) (*engine.Entity, *components.Rigidbody) {
	e := reg.Spawn(name)
	e.Transform.Position = pos
	if col != nil {
		e.AddComponent(col)
	}
	rb := components.NewRigidbody()
	e.AddComponent(rb)
	return e, rb
}

func TestBoxSettlesOnFloor(t *testing.T) {
	cfg := sixtyHertz()
	w, reg := newTestWorld(cfg)
	addFloor(reg)
	box, rb := addBody(reg, "box", mgl64.Vec3{0, 1, 0}, components.NewBoxCollider(mgl64.Vec3{0.5, 0.5, 0.5}))

	for range 200 {
		w.StepFixed()
		require.GreaterOrEqual(t, box.Transform.Position.Y()-0.5, floorTop-0.5, "box fell through")
	}

	bottom := box.Transform.Position.Y() - 0.5
	assert.GreaterOrEqual(t, bottom, floorTop-cfg.Slop)
	assert.Less(t, bottom, floorTop+0.01)
	assert.Less(t, rb.Velocity.Len(), 0.1)
	assert.True(t, rb.Grounded || rb.IsSleeping)
}

func TestRestitutionOrdersBounceHeight(t *testing.T) {
	w, reg := newTestWorld(DefaultConfig())
	addFloor(reg)
	dull, dullRB := addBody(reg, "dull", mgl64.Vec3{-5, 3, 0}, components.NewSphereCollider(0.5))
	bouncy, bouncyRB := addBody(reg, "bouncy", mgl64.Vec3{5, 3, 0}, components.NewSphereCollider(0.5))
	dullRB.Restitution = 0.1
	bouncyRB.Restitution = 0.9

	peak := func(e *engine.Entity, rb *components.Rigidbody, bounced *bool, best *float64) {
		if rb.Velocity.Y() > 0 {
			*bounced = true
		}
		if *bounced {
			*best = math.Max(*best, e.Transform.Position.Y())
		}
	}
	var dullUp, bouncyUp bool
	var dullPeak, bouncyPeak float64
	for range 240 {
		w.StepFixed()
		peak(dull, dullRB, &dullUp, &dullPeak)
		peak(bouncy, bouncyRB, &bouncyUp, &bouncyPeak)
	}

	require.True(t, bouncyUp)
	assert.Greater(t, bouncyPeak, dullPeak+0.5)
	assert.Greater(t, bouncyPeak, 1.5)
	assert.Less(t, bouncyPeak, 3.0)
}

func TestBallSocketPendulumKeepsLength(t *testing.T) {
	w, reg := newTestWorld(sixtyHertz())
	anchor := mgl64.Vec3{0, 5, 0}
	bob, rb := addBody(reg, "bob", mgl64.Vec3{2, 5, 0}, components.NewSphereCollider(0.2))
	rb.Velocity = mgl64.Vec3{0, 0, 3}

	w.AddJoint(NewBallSocketJoint(0, bob.ID, anchor, mgl64.Vec3{-2, 0, 0}))

	minY := bob.Transform.Position.Y()
	for range 120 {
		w.StepFixed()
		dist := bob.Transform.Position.Sub(anchor).Len()
		require.InDelta(t, 2.0, dist, 0.5)
		minY = math.Min(minY, bob.Transform.Position.Y())
	}
	assert.Less(t, minY, 4.0, "bob never swung down")
}

func TestDistanceJointHoldsRod(t *testing.T) {
	w, reg := newTestWorld(sixtyHertz())
	a, _ := addBody(reg, "a", mgl64.Vec3{0, 5, 0}, nil)
	engine.GetComponent[*components.Rigidbody](a).BodyType = components.BodyStatic
	b, rb := addBody(reg, "b", mgl64.Vec3{0, 3, 0}, nil)
	rb.Velocity = mgl64.Vec3{4, 0, 0}

	w.AddJoint(NewDistanceJoint(a.ID, b.ID, mgl64.Vec3{}, mgl64.Vec3{}, 2))
	for range 120 {
		w.StepFixed()
		require.InDelta(t, 2.0, b.Transform.Position.Sub(a.Transform.Position).Len(), 0.1)
	}
}

func TestJointBreaksAboveLimit(t *testing.T) {
	w, reg := newTestWorld(sixtyHertz())
	bob, _ := addBody(reg, "bob", mgl64.Vec3{0, 3, 0}, components.NewSphereCollider(0.2))
	j := NewBallSocketJoint(0, bob.ID, mgl64.Vec3{0, 5, 0}, mgl64.Vec3{0, 2, 0})
	j.BreakImpulse = 0.05
	w.AddJoint(j)

	for range 10 {
		w.StepFixed()
	}
	assert.True(t, j.Broken())
	assert.Less(t, bob.Transform.Position.Y(), 3.0)
}

func TestStepAccumulatesFixedSubsteps(t *testing.T) {
	cfg := DefaultConfig()
	w, _ := newTestWorld(cfg)

	assert.Equal(t, 2, w.Step(1.0/60.0+1e-9))
	assert.Equal(t, 0, w.Step(0))
	assert.Equal(t, 0, w.Step(math.NaN()))

	// A long frame is capped at MaxSubsteps and the excess dropped.
	assert.Equal(t, cfg.MaxSubsteps, w.Step(1.0))
	assert.Less(t, w.Alpha(), 1.0)
	assert.Equal(t, cfg.MaxSubsteps, w.Stats().Substeps)
}

func TestKinematicBodyMovesButIgnoresImpulses(t *testing.T) {
	w, reg := newTestWorld(sixtyHertz())
	platform, prb := addBody(reg, "platform", mgl64.Vec3{0, 0, 0}, components.NewBoxCollider(mgl64.Vec3{2, 0.25, 2}))
	prb.BodyType = components.BodyKinematic
	prb.Velocity = mgl64.Vec3{0, 1, 0}
	addBody(reg, "crate", mgl64.Vec3{0, 0.7, 0}, components.NewBoxCollider(mgl64.Vec3{0.5, 0.5, 0.5}))

	for range 60 {
		w.StepFixed()
	}
	assert.InDelta(t, 1.0, platform.Transform.Position.Y(), 1e-6)
	assert.Equal(t, mgl64.Vec3{0, 1, 0}, prb.Velocity)
}

func TestNonFiniteVelocityReset(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cfg := sixtyHertz()
	w, reg := newTestWorld(cfg, WithLogger(zap.New(core)))
	body, rb := addBody(reg, "body", mgl64.Vec3{0, 10, 0}, components.NewSphereCollider(0.5))
	rb.UseGravity = false
	rb.Velocity = mgl64.Vec3{math.NaN(), 0, 0}
	rb.AngularVelocity = mgl64.Vec3{0, math.Inf(1), 0}

	w.StepFixed()

	assert.Equal(t, mgl64.Vec3{}, rb.Velocity)
	assert.Equal(t, mgl64.Vec3{}, rb.AngularVelocity)
	assert.True(t, isFiniteVec(body.Transform.Position))
	assert.Equal(t, 1, logs.FilterMessage("non-finite velocity reset to zero").Len())
}

func TestSpeedsClamped(t *testing.T) {
	cfg := sixtyHertz()
	w, reg := newTestWorld(cfg)
	_, rb := addBody(reg, "body", mgl64.Vec3{0, 10, 0}, components.NewSphereCollider(0.5))
	rb.UseGravity = false
	rb.LinearDamping = 0
	rb.AngularDamping = 0
	rb.Velocity = mgl64.Vec3{1000, 0, 0}
	rb.AngularVelocity = mgl64.Vec3{0, 0, 400}

	w.StepFixed()

	assert.InDelta(t, cfg.MaxLinearSpeed, rb.Velocity.Len(), 1e-9)
	assert.InDelta(t, cfg.MaxAngularSpeed, rb.AngularVelocity.Len(), 1e-9)
}

func TestPanickingListenerDoesNotStopOthers(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	w, reg := newTestWorld(sixtyHertz(), WithLogger(zap.New(core)))
	addFloor(reg)
	addBody(reg, "ball", mgl64.Vec3{0, 0.45, 0}, components.NewSphereCollider(0.5))

	var calls int
	w.OnCollisionEnter.AddListener(func(ContactEvent) { panic("boom") })
	w.OnCollisionEnter.AddListener(func(ev ContactEvent) {
		calls++
		assert.NotNil(t, ev.Manifold)
	})

	require.NotPanics(t, w.StepFixed)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, logs.FilterMessage("contact listener panicked").Len())
}

type contactRecorder struct {
	engine.BaseComponent
	enters, exits []engine.EntityID
	panics        bool
}

func (c *contactRecorder) OnCollisionEnter(other engine.EntityID) {
	c.enters = append(c.enters, other)
	if c.panics {
		panic("handler")
	}
}

func (c *contactRecorder) OnCollisionExit(other engine.EntityID) {
	c.exits = append(c.exits, other)
}

func TestCollisionHandlersSeeEnterAndExit(t *testing.T) {
	w, reg := newTestWorld(sixtyHertz())
	floor := addFloor(reg)
	floorRec := &contactRecorder{panics: true}
	floor.AddComponent(floorRec)

	ball, rb := addBody(reg, "ball", mgl64.Vec3{0, 0.45, 0}, components.NewSphereCollider(0.5))
	rb.UseGravity = false
	rec := &contactRecorder{}
	ball.AddComponent(rec)

	var exits int
	w.OnCollisionExit.AddListener(func(ev ContactEvent) {
		exits++
		assert.Nil(t, ev.Manifold)
	})

	w.StepFixed()
	require.Equal(t, []engine.EntityID{floor.ID}, rec.enters)
	assert.Equal(t, []engine.EntityID{ball.ID}, floorRec.enters)

	// Lift the ball well clear of the floor.
	ball.Transform.Position = mgl64.Vec3{0, 5, 0}
	rb.Velocity = mgl64.Vec3{}
	w.StepFixed()

	assert.Equal(t, []engine.EntityID{floor.ID}, rec.exits)
	assert.Equal(t, 1, exits)
	assert.Len(t, rec.enters, 1)
}

func TestRemovedColliderFiresExit(t *testing.T) {
	w, reg := newTestWorld(sixtyHertz())
	addFloor(reg)
	ball, rb := addBody(reg, "ball", mgl64.Vec3{0, 0.45, 0}, components.NewSphereCollider(0.5))
	rb.UseGravity = false

	var exits int
	w.OnCollisionExit.AddListener(func(ContactEvent) { exits++ })

	w.StepFixed()
	require.Zero(t, exits)
	engine.RemoveComponent[*components.Collider](ball)
	w.StepFixed()
	assert.Equal(t, 1, exits)
}

func TestFallingAsleepFiresExit(t *testing.T) {
	w, reg := newTestWorld(sixtyHertz())
	floor := addFloor(reg)
	box, rb := addBody(reg, "box", mgl64.Vec3{0, 0.49, 0}, components.NewBoxCollider(mgl64.Vec3{0.5, 0.5, 0.5}))

	var enters, exits []ContactEvent
	w.OnCollisionEnter.AddListener(func(ev ContactEvent) { enters = append(enters, ev) })
	w.OnCollisionExit.AddListener(func(ev ContactEvent) { exits = append(exits, ev) })

	for range 600 {
		w.StepFixed()
		if rb.IsSleeping {
			break
		}
	}
	require.True(t, rb.IsSleeping, "box never fell asleep")
	require.Len(t, enters, 1)
	require.Empty(t, exits)

	// The sleeper leaves the broadphase, so its contact ends on the next step.
	w.StepFixed()
	require.Len(t, exits, 1)
	assert.ElementsMatch(t, []engine.EntityID{floor.ID, box.ID}, []engine.EntityID{exits[0].A, exits[0].B})
	assert.Nil(t, exits[0].Manifold)

	for range 60 {
		w.StepFixed()
	}
	assert.Len(t, enters, 1)
	assert.Len(t, exits, 1)
	assert.True(t, rb.IsSleeping)
}

func TestGroundedOnlyWhenSupported(t *testing.T) {
	w, reg := newTestWorld(sixtyHertz())
	addFloor(reg)
	_, resting := addBody(reg, "resting", mgl64.Vec3{0, 0.49, 0}, components.NewSphereCollider(0.5))
	_, flying := addBody(reg, "flying", mgl64.Vec3{5, 4, 0}, components.NewSphereCollider(0.5))

	w.StepFixed()
	assert.True(t, resting.Grounded)
	assert.False(t, flying.Grounded)
}

func TestLayerMaskFiltersPairs(t *testing.T) {
	w, reg := newTestWorld(sixtyHertz())
	floor := addFloor(reg)
	engine.GetComponent[*components.Collider](floor).Layer = 1 << 2

	ghostCol := components.NewSphereCollider(0.5)
	ghostCol.Mask = components.AllLayers &^ (1 << 2)
	ghost, _ := addBody(reg, "ghost", mgl64.Vec3{0, 0.5, 0}, ghostCol)

	for range 30 {
		w.StepFixed()
	}
	assert.Less(t, ghost.Transform.Position.Y(), 0.0, "ghost should fall through the floor")
	assert.Zero(t, w.Stats().Manifolds)
}

func TestParallelNarrowphaseMatchesSequential(t *testing.T) {
	run := func(workers int) []mgl64.Vec3 {
		cfg := sixtyHertz()
		cfg.NarrowphaseWorkers = workers
		w, reg := newTestWorld(cfg)
		addFloor(reg)
		var bodies []*engine.Entity
		for i := range 12 {
			x := float64(i%4)*1.5 - 2
			z := float64(i/4)*1.5 - 1.5
			e, _ := addBody(reg, "b", mgl64.Vec3{x, 0.6 + float64(i%3)*0.3, z}, components.NewSphereCollider(0.5))
			bodies = append(bodies, e)
		}
		for range 60 {
			w.StepFixed()
		}
		out := make([]mgl64.Vec3, len(bodies))
		for i, e := range bodies {
			out[i] = e.Transform.Position
		}
		return out
	}

	assert.Equal(t, run(0), run(4))
}

func TestResetClearsState(t *testing.T) {
	w, reg := newTestWorld(sixtyHertz())
	addFloor(reg)
	bob, _ := addBody(reg, "ball", mgl64.Vec3{0, 0.45, 0}, components.NewSphereCollider(0.5))
	w.AddJoint(NewBallSocketJoint(0, bob.ID, mgl64.Vec3{0, 2, 0}, mgl64.Vec3{0, 1.55, 0}))
	w.StepFixed()
	require.NotZero(t, w.Cache().Len())

	w.Reset()
	assert.Zero(t, w.Cache().Len())
	assert.Empty(t, w.Joints())
	assert.Empty(t, w.Islands())
	assert.Zero(t, w.Stats().Steps)

	var enters int
	w.OnCollisionEnter.AddListener(func(ContactEvent) { enters++ })
	w.StepFixed()
	assert.Equal(t, 1, enters, "contacts re-enter after a reset")
}

func TestSetConfigWakesSleepersOnGravityChange(t *testing.T) {
	w, reg := newTestWorld(sixtyHertz())
	addFloor(reg)
	_, rb := addBody(reg, "crate", mgl64.Vec3{0, 0.5, 0}, components.NewBoxCollider(mgl64.Vec3{0.5, 0.5, 0.5}))
	for range 120 {
		w.StepFixed()
	}
	require.True(t, rb.IsSleeping)

	bad := w.Config()
	bad.SolverIterations = 0
	require.ErrorIs(t, w.SetConfig(bad), ErrInvalidConfig)
	assert.True(t, rb.IsSleeping)

	cfg := w.Config()
	cfg.Gravity = mgl64.Vec3{0, 9.81, 0}
	require.NoError(t, w.SetConfig(cfg))
	assert.False(t, rb.IsSleeping)

	w.StepFixed()
	assert.Greater(t, rb.Velocity.Y(), 0.0)
}
