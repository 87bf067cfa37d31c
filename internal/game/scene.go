package game

import (
	"fmt"
	"math"

	"rigid3d/internal/components"
	"rigid3d/internal/engine"
	"rigid3d/internal/geom"
	"rigid3d/internal/physics"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	stackHeight  = 6
	wallZ        = -8.0
	bulletSpeed  = 300.0
	pendulumArm  = 2.5
	doorHalfWide = 1.0
	sweeperSpin  = 1.5 // rad/s

	// The door never touches its own post.
	postLayer uint32 = 1 << 1
)

// Scene holds the handles the demo reads back each frame.
type Scene struct {
	Floor    engine.EntityID
	Stack    []engine.EntityID
	Pivot    engine.EntityID
	Bob      engine.EntityID
	Wall     engine.EntityID
	Bullet   engine.EntityID
	Zone     engine.EntityID
	Door     engine.EntityID
	Sweeper  engine.EntityID
	Balls    []engine.EntityID
	Pendulum *physics.BallSocketJoint
	Hinge    *physics.HingeJoint
}

// BuildScene spawns the demo content into reg and registers its joints on w.
func BuildScene(reg *engine.Registry, w *physics.World) *Scene {
	s := &Scene{}

	floor := reg.Spawn("Floor")
	floor.Transform.Position = mgl64.Vec3{0, -0.5, 0}
	floor.AddComponent(components.NewBoxCollider(mgl64.Vec3{15, 0.5, 15}))
	s.Floor = floor.ID

	// Box stack, slightly staggered so it does not start perfectly balanced
	for i := range stackHeight {
		crate := reg.Spawn(fmt.Sprintf("Crate_%d", i))
		crate.Transform.Position = mgl64.Vec3{-4 + 0.03*float64(i%2), 0.5 + float64(i)*1.01, 0}
		crate.AddComponent(components.NewOrientedBoxCollider(mgl64.Vec3{0.5, 0.5, 0.5}))
		rb := components.NewRigidbody()
		rb.Friction = 0.6
		rb.Restitution = 0.05
		crate.AddComponent(rb)
		s.Stack = append(s.Stack, crate.ID)
	}

	// Pendulum hanging from a pivot that collides with nothing
	pivot := reg.Spawn("Pivot")
	pivot.Transform.Position = mgl64.Vec3{4, 6, 0}
	pivotCol := components.NewSphereCollider(0.15)
	pivotCol.Mask = 0
	pivot.AddComponent(pivotCol)
	pivot.AddComponent(components.NewStaticBody())
	s.Pivot = pivot.ID

	bob := reg.Spawn("Bob")
	bob.Transform.Position = mgl64.Vec3{4 + pendulumArm, 6, 0}
	bob.AddComponent(components.NewSphereCollider(0.3))
	bobRB := components.NewRigidbody()
	bobRB.Mass = 2
	bobRB.CanSleep = false
	bobRB.Velocity = mgl64.Vec3{0, 0, 2}
	bob.AddComponent(bobRB)
	s.Bob = bob.ID

	s.Pendulum = physics.NewBallSocketJoint(pivot.ID, bob.ID, mgl64.Vec3{}, mgl64.Vec3{-pendulumArm, 0, 0})
	w.AddJoint(s.Pendulum)

	// Thin wall and a bullet fast enough to tunnel without CCD
	wall := reg.Spawn("Wall")
	wall.Transform.Position = mgl64.Vec3{0, 2, wallZ}
	wall.AddComponent(components.NewBoxCollider(mgl64.Vec3{2, 2, 0.1}))
	s.Wall = wall.ID

	s.Bullet = SpawnBullet(reg, "Bullet", mgl64.Vec3{0, 1.5, 6}, mgl64.Vec3{0, 0, -1})

	// Trigger pad
	zone := reg.Spawn("Zone")
	zone.Transform.Position = mgl64.Vec3{4, 0.25, 5}
	zone.AddComponent(components.NewTrigger(&geom.AABBShape{HalfExtents: mgl64.Vec3{1.5, 0.25, 1.5}}))
	s.Zone = zone.ID

	// Swinging door hinged on a post
	post := reg.Spawn("DoorPost")
	post.Transform.Position = mgl64.Vec3{-4, 1.25, 6}
	postCol := components.NewBoxCollider(mgl64.Vec3{0.1, 1.25, 0.1})
	postCol.Layer = postLayer
	post.AddComponent(postCol)

	door := reg.Spawn("Door")
	door.Transform.Position = mgl64.Vec3{-4 + 0.1 + doorHalfWide, 1.25, 6}
	doorCol := components.NewOrientedBoxCollider(mgl64.Vec3{doorHalfWide, 1.2, 0.05})
	doorCol.Mask = components.AllLayers &^ postLayer
	door.AddComponent(doorCol)
	doorRB := components.NewRigidbody()
	doorRB.UseGravity = false
	doorRB.AngularDamping = 0.5
	door.AddComponent(doorRB)
	s.Door = door.ID

	s.Hinge = physics.NewHingeJoint(post.ID, door.ID, mgl64.Vec3{-4 + 0.1, 1.25, 6}, mgl64.Vec3{0, 1, 0}, -math.Pi/2, math.Pi/2)
	w.AddJoint(s.Hinge)

	// Kinematic paddle spinning about Y, pushing a few loose balls around
	sweeper := reg.Spawn("Sweeper")
	sweeper.Transform.Position = mgl64.Vec3{9, 0.3, -3}
	sweeper.AddComponent(components.NewOrientedBoxCollider(mgl64.Vec3{3, 0.3, 0.15}))
	sweeperRB := components.NewRigidbody()
	sweeperRB.BodyType = components.BodyKinematic
	sweeperRB.UseGravity = false
	sweeperRB.CanSleep = false
	sweeperRB.AngularVelocity = mgl64.Vec3{0, sweeperSpin, 0}
	sweeper.AddComponent(sweeperRB)
	s.Sweeper = sweeper.ID

	for i := range 3 {
		ball := reg.Spawn(fmt.Sprintf("Ball_%d", i))
		ball.Transform.Position = mgl64.Vec3{9 + 1.5 + float64(i)*0.6, 0.25, -3 + 1}
		ball.AddComponent(components.NewSphereCollider(0.25))
		rb := components.NewRigidbody()
		rb.Restitution = 0.5
		ball.AddComponent(rb)
		s.Balls = append(s.Balls, ball.ID)
	}

	return s
}

// SpawnBullet creates a CCD sphere travelling along dir at bulletSpeed.
func SpawnBullet(reg *engine.Registry, name string, pos, dir mgl64.Vec3) engine.EntityID {
	bullet := reg.Spawn(name)
	bullet.Transform.Position = pos
	bullet.AddComponent(components.NewSphereCollider(0.2))
	rb := components.NewRigidbody()
	rb.Mass = 0.2
	rb.Restitution = 0.3
	rb.CCD = components.CCDSwept
	rb.UseGravity = false
	if dir.Len() > 0 {
		rb.Velocity = dir.Normalize().Mul(bulletSpeed)
	}
	bullet.AddComponent(rb)
	return bullet.ID
}
