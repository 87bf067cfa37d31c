package components

import (
	"rigid3d/internal/engine"
	"rigid3d/internal/geom"

	"github.com/go-gl/mathgl/mgl64"
)

type BodyType int

const (
	BodyStatic BodyType = iota
	BodyKinematic
	BodyDynamic
)

func (t BodyType) String() string {
	switch t {
	case BodyStatic:
		return "static"
	case BodyKinematic:
		return "kinematic"
	case BodyDynamic:
		return "dynamic"
	}
	return "unknown"
}

type CCDMode int

const (
	CCDNone CCDMode = iota
	CCDSwept
)

type Rigidbody struct {
	engine.BaseComponent
	BodyType        BodyType
	Velocity        mgl64.Vec3 // world space, m/s
	AngularVelocity mgl64.Vec3 // world space, rad/s
	Mass            float64

	// InverseMass and InverseInertia are zero for infinite-mass bodies.
	// InverseInertia is local space; the solver rotates it to world each step.
	InverseMass    float64
	InverseInertia mgl64.Mat3

	Restitution    float64 // 0 = no bounce, 1 = perfect bounce
	Friction       float64
	LinearDamping  float64 // per second
	AngularDamping float64 // per second
	UseGravity     bool
	CCD            CCDMode

	// Sleep state - sleeping bodies skip the solver and broadphase
	IsSleeping bool
	SleepTimer float64 // seconds spent below the sleep thresholds
	CanSleep   bool

	// Grounded is written by the world after each step.
	Grounded bool
}

func NewRigidbody() *Rigidbody {
	return &Rigidbody{
		BodyType:       BodyDynamic,
		Mass:           1.0,
		InverseMass:    1.0,
		InverseInertia: mgl64.Ident3(),
		Restitution:    0.2,
		Friction:       0.5,
		LinearDamping:  0.01,
		AngularDamping: 0.05,
		UseGravity:     true,
		CanSleep:       true,
	}
}

func NewStaticBody() *Rigidbody {
	rb := NewRigidbody()
	rb.BodyType = BodyStatic
	rb.UseGravity = false
	rb.InverseMass = 0
	rb.InverseInertia = mgl64.Mat3{}
	return rb
}

func (r *Rigidbody) IsDynamic() bool {
	return r.BodyType == BodyDynamic
}

// SetMass recomputes inverse mass and inverse inertia from the collider shape.
// Non-dynamic bodies and non-positive masses get the zero encoding.
func (r *Rigidbody) SetMass(mass float64, shape geom.Shape, scale mgl64.Vec3) {
	r.Mass = mass
	if r.BodyType != BodyDynamic || mass <= 0 {
		r.InverseMass = 0
		r.InverseInertia = mgl64.Mat3{}
		return
	}
	r.InverseMass = 1 / mass
	if shape == nil {
		r.InverseInertia = mgl64.Mat3{}
		return
	}
	r.InverseInertia = geom.InverseInertia(shape, mass, scale)
}

// SyncMass rederives inverse mass and inertia from the current Mass, body type,
// shape and scale. Shapes may be edited in place, so nothing is cached.
func (r *Rigidbody) SyncMass(shape geom.Shape, scale mgl64.Vec3) {
	r.SetMass(r.Mass, shape, scale)
}

// AddImpulse changes velocity directly and wakes the body.
func (r *Rigidbody) AddImpulse(impulse mgl64.Vec3) {
	if r.InverseMass == 0 {
		return
	}
	r.Velocity = r.Velocity.Add(impulse.Mul(r.InverseMass))
	r.Wake()
}

// Wake forces the rigidbody out of sleep state
func (r *Rigidbody) Wake() {
	r.IsSleeping = false
	r.SleepTimer = 0
}

// Sleep puts the body to rest.
func (r *Rigidbody) Sleep() {
	r.IsSleeping = true
	r.Velocity = mgl64.Vec3{}
	r.AngularVelocity = mgl64.Vec3{}
}

// AccumulateSleep advances the sleep timer while both speeds stay under the
// thresholds and resets it otherwise. The island decides when to actually sleep.
func (r *Rigidbody) AccumulateSleep(dt, linear, angular float64) {
	if !r.CanSleep {
		r.SleepTimer = 0
		return
	}
	if r.Velocity.Len() < linear && r.AngularVelocity.Len() < angular {
		r.SleepTimer += dt
	} else {
		r.SleepTimer = 0
	}
}
