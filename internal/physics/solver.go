package physics

import (
	"rigid3d/internal/components"
	"rigid3d/internal/engine"

	"github.com/go-gl/mathgl/mgl64"
)

// Closing speeds below this do not bounce, which keeps resting contacts quiet.
const restitutionVelocityThreshold = 1.0

// solverBody is the per-step velocity snapshot of one body.
// Index 0 of every solver is a shared immovable body for statics and the world.
type solverBody struct {
	id         engine.EntityID
	rb         *components.Rigidbody
	position   mgl64.Vec3
	rotation   mgl64.Quat
	v          mgl64.Vec3
	w          mgl64.Vec3
	invMass    float64
	invInertia mgl64.Mat3 // world space
}

func (b *solverBody) applyImpulse(p, r mgl64.Vec3) {
	b.v = b.v.Add(p.Mul(b.invMass))
	b.w = b.w.Add(b.invInertia.Mul3x1(r.Cross(p)))
}

func (b *solverBody) applyAngularImpulse(l mgl64.Vec3) {
	b.w = b.w.Add(b.invInertia.Mul3x1(l))
}

func (b *solverBody) velocityAt(r mgl64.Vec3) mgl64.Vec3 {
	return b.v.Add(b.w.Cross(r))
}

// solver runs sequential impulses over contacts and joints for one step.
type solver struct {
	cfg    Config
	dt     float64
	bodies []solverBody
	lookup map[engine.EntityID]int

	manifolds []*ContactManifold
	joints    []Joint
}

func newSolver(cfg Config, dt float64) *solver {
	s := &solver{
		cfg:    cfg,
		dt:     dt,
		lookup: make(map[engine.EntityID]int),
	}
	s.bodies = append(s.bodies, solverBody{rotation: mgl64.QuatIdent()})
	return s
}

// addBody snapshots a rigid body. Only dynamic bodies get finite mass;
// kinematic bodies keep their velocity but never respond to impulses.
func (s *solver) addBody(id engine.EntityID, rb *components.Rigidbody, t engine.Transform) {
	if _, ok := s.lookup[id]; ok {
		return
	}
	b := solverBody{
		id:       id,
		rb:       rb,
		position: t.Position,
		rotation: t.Orientation(),
		v:        rb.Velocity,
		w:        rb.AngularVelocity,
	}
	if rb.IsDynamic() {
		b.invMass = rb.InverseMass
		b.invInertia = rotateInertia(rb.InverseInertia, b.rotation)
	}
	s.lookup[id] = len(s.bodies)
	s.bodies = append(s.bodies, b)
}

// addStatic registers an entity without a moving body, so joints can still read its pose.
func (s *solver) addStatic(id engine.EntityID, t engine.Transform) {
	if _, ok := s.lookup[id]; ok {
		return
	}
	s.lookup[id] = len(s.bodies)
	s.bodies = append(s.bodies, solverBody{id: id, position: t.Position, rotation: t.Orientation()})
}

func (s *solver) body(id engine.EntityID) *solverBody {
	if i, ok := s.lookup[id]; ok {
		return &s.bodies[i]
	}
	return &s.bodies[0]
}

func (s *solver) preStep() {
	for _, m := range s.manifolds {
		a, b := s.body(m.EntityA), s.body(m.EntityB)
		for i := range m.Points {
			s.prepareContact(m, &m.Points[i], a, b)
		}
	}
	for _, j := range s.joints {
		a, b := j.Bodies()
		j.preStep(s.body(a), s.body(b), s.dt, s.cfg.Baumgarte, s.cfg.Slop)
	}
}

func effectiveMass(a, b *solverBody, rA, rB, dir mgl64.Vec3) float64 {
	raxd := rA.Cross(dir)
	rbxd := rB.Cross(dir)
	k := a.invMass + b.invMass +
		raxd.Dot(a.invInertia.Mul3x1(raxd)) +
		rbxd.Dot(b.invInertia.Mul3x1(rbxd))
	if k <= 0 {
		return 0
	}
	return 1 / k
}

func (s *solver) prepareContact(m *ContactManifold, p *ContactPoint, a, b *solverBody) {
	n := p.Normal
	p.rA = p.Position.Sub(a.position)
	p.rB = p.Position.Sub(b.position)
	p.tangent1, p.tangent2 = orthonormalBasis(n)

	p.normalMass = effectiveMass(a, b, p.rA, p.rB, n)
	p.tangentMass1 = effectiveMass(a, b, p.rA, p.rB, p.tangent1)
	p.tangentMass2 = effectiveMass(a, b, p.rA, p.rB, p.tangent2)

	// Penetration is pushed back to half the slop over several steps, so a body
	// that falls asleep while still correcting rests within the slop.
	// A small gap lets bodies close it within this step but no further.
	switch {
	case p.Penetration > s.cfg.Slop/2:
		p.bias = s.cfg.Baumgarte / s.dt * (p.Penetration - s.cfg.Slop/2)
	case p.Penetration < 0:
		p.bias = p.Penetration / s.dt
	default:
		p.bias = 0
	}

	vn := b.velocityAt(p.rB).Sub(a.velocityAt(p.rA)).Dot(n)
	if vn < -restitutionVelocityThreshold && m.Restitution > 0 {
		p.bias = max(p.bias, -m.Restitution*vn)
	}
}

func (s *solver) warmStart() {
	for _, m := range s.manifolds {
		a, b := s.body(m.EntityA), s.body(m.EntityB)
		for i := range m.Points {
			p := &m.Points[i]
			impulse := p.Normal.Mul(p.NormalImpulse).
				Add(p.tangent1.Mul(p.TangentImpulse1)).
				Add(p.tangent2.Mul(p.TangentImpulse2))
			a.applyImpulse(impulse.Mul(-1), p.rA)
			b.applyImpulse(impulse, p.rB)
		}
	}
	for _, j := range s.joints {
		ia, ib := j.Bodies()
		j.applyCachedImpulse(s.body(ia), s.body(ib))
	}
}

// iterate runs the PGS loop: every contact, then every joint, per iteration.
func (s *solver) iterate(iterations int) {
	for it := 0; it < iterations; it++ {
		for _, m := range s.manifolds {
			a, b := s.body(m.EntityA), s.body(m.EntityB)
			for i := range m.Points {
				s.solveContact(m, &m.Points[i], a, b)
			}
		}
		for _, j := range s.joints {
			ia, ib := j.Bodies()
			j.applyImpulse(s.body(ia), s.body(ib))
		}
	}
}

func (s *solver) solveContact(m *ContactManifold, p *ContactPoint, a, b *solverBody) {
	// Normal: non-penetration, accumulated impulse clamped to >= 0.
	dv := b.velocityAt(p.rB).Sub(a.velocityAt(p.rA))
	vn := dv.Dot(p.Normal)
	lambda := p.normalMass * (p.bias - vn)
	old := p.NormalImpulse
	p.NormalImpulse = max(old+lambda, 0)
	lambda = p.NormalImpulse - old
	impulse := p.Normal.Mul(lambda)
	a.applyImpulse(impulse.Mul(-1), p.rA)
	b.applyImpulse(impulse, p.rB)

	// Friction: both tangents, then project onto the cone of radius mu*lambda_n.
	dv = b.velocityAt(p.rB).Sub(a.velocityAt(p.rA))
	old1, old2 := p.TangentImpulse1, p.TangentImpulse2
	t1 := old1 - p.tangentMass1*dv.Dot(p.tangent1)
	t2 := old2 - p.tangentMass2*dv.Dot(p.tangent2)
	limit := m.Friction * p.NormalImpulse
	if mag := sqrt(t1*t1 + t2*t2); mag > limit {
		scale := 0.0
		if mag > 0 {
			scale = limit / mag
		}
		t1 *= scale
		t2 *= scale
	}
	p.TangentImpulse1, p.TangentImpulse2 = t1, t2
	impulse = p.tangent1.Mul(t1 - old1).Add(p.tangent2.Mul(t2 - old2))
	a.applyImpulse(impulse.Mul(-1), p.rA)
	b.applyImpulse(impulse, p.rB)
}

// writeBack stores solved velocities on dynamic bodies only.
func (s *solver) writeBack() {
	for i := 1; i < len(s.bodies); i++ {
		b := &s.bodies[i]
		if b.rb == nil || !b.rb.IsDynamic() {
			continue
		}
		b.rb.Velocity = b.v
		b.rb.AngularVelocity = b.w
	}
}

// solve runs the full velocity phase.
func (s *solver) solve() {
	s.preStep()
	s.warmStart()
	s.iterate(s.cfg.SolverIterations)
	s.writeBack()
}
