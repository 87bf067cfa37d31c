package physics

import (
	"math"

	"rigid3d/internal/engine"

	"github.com/go-gl/mathgl/mgl64"
)

// Joint is a constraint between two bodies. Either side may be 0 to pin the
// other body to the world; world anchors are then world-space points.
//
// The solver drives every joint through preStep, applyCachedImpulse and
// applyImpulse, in that order, once per step. Limit rows tolerate slop of
// overshoot before correcting it.
type Joint interface {
	Bodies() (engine.EntityID, engine.EntityID)
	Broken() bool

	preStep(a, b *solverBody, dt, beta, slop float64)
	applyCachedImpulse(a, b *solverBody)
	applyImpulse(a, b *solverBody)
	// appliedImpulse is the magnitude of the accumulated linear impulse.
	appliedImpulse() float64
	breakLimit() float64
	setBroken()
}

type jointBase struct {
	A, B engine.EntityID
	// BreakImpulse > 0 disables the joint once its accumulated impulse exceeds it.
	BreakImpulse float64

	broken bool
}

func (j *jointBase) Bodies() (engine.EntityID, engine.EntityID) {
	return j.A, j.B
}

func (j *jointBase) Broken() bool {
	return j.broken
}

func (j *jointBase) breakLimit() float64 {
	return j.BreakImpulse
}

func (j *jointBase) setBroken() {
	j.broken = true
}

// point3 is a three-row point-to-point block shared by several joints.
type point3 struct {
	anchorA, anchorB mgl64.Vec3 // local
	r1, r2           mgl64.Vec3
	k                mgl64.Mat3
	bias             mgl64.Vec3
	jAcc             mgl64.Vec3
}

func (p *point3) preStep(a, b *solverBody, dt, beta float64) {
	p.r1 = a.rotation.Rotate(p.anchorA)
	p.r2 = b.rotation.Rotate(p.anchorB)

	// K = (mA + mB) I - [r1] IA [r1] - [r2] IB [r2]
	s1, s2 := skew(p.r1), skew(p.r2)
	k := mgl64.Ident3().Mul(a.invMass + b.invMass)
	k = k.Sub(s1.Mul3(a.invInertia).Mul3(s1))
	k = k.Sub(s2.Mul3(b.invInertia).Mul3(s2))
	p.k = k.Inv()

	delta := b.position.Add(p.r2).Sub(a.position.Add(p.r1))
	p.bias = delta.Mul(-beta / dt)
}

func (p *point3) applyCached(a, b *solverBody) {
	a.applyImpulse(p.jAcc.Mul(-1), p.r1)
	b.applyImpulse(p.jAcc, p.r2)
}

func (p *point3) apply(a, b *solverBody) {
	vr := b.velocityAt(p.r2).Sub(a.velocityAt(p.r1))
	j := p.k.Mul3x1(p.bias.Sub(vr))
	p.jAcc = p.jAcc.Add(j)
	a.applyImpulse(j.Mul(-1), p.r1)
	b.applyImpulse(j, p.r2)
}

// angularRow keeps relative rotation about one world axis at a target rate.
type angularRow struct {
	axis  mgl64.Vec3
	mass  float64
	bias  float64
	jAcc  float64
	lower float64 // accumulated impulse clamp
	upper float64
}

func newAngularRow(a, b *solverBody, axis mgl64.Vec3, bias float64) angularRow {
	k := axis.Dot(a.invInertia.Mul3x1(axis)) + axis.Dot(b.invInertia.Mul3x1(axis))
	row := angularRow{axis: axis, bias: bias, lower: math.Inf(-1), upper: math.Inf(1)}
	if k > 0 {
		row.mass = 1 / k
	}
	return row
}

func (r *angularRow) applyCached(a, b *solverBody) {
	l := r.axis.Mul(r.jAcc)
	a.applyAngularImpulse(l.Mul(-1))
	b.applyAngularImpulse(l)
}

func (r *angularRow) apply(a, b *solverBody) {
	wr := b.w.Sub(a.w).Dot(r.axis)
	j := r.mass * (r.bias - wr)
	old := r.jAcc
	r.jAcc = mgl64.Clamp(old+j, r.lower, r.upper)
	j = r.jAcc - old
	l := r.axis.Mul(j)
	a.applyAngularImpulse(l.Mul(-1))
	b.applyAngularImpulse(l)
}

// limitRow decides whether a one-sided limit on value is solved this step.
// The row switches on before the limit is reached when speed would carry value
// past it within dt, and then only allows the closing speed that lands exactly
// on it. side is +1 for the upper limit, -1 for the lower one and 0 for none.
// Limits are disabled unless lower < upper.
func limitRow(value, speed, lower, upper, dt, beta, slop float64) (bias float64, side int) {
	if lower >= upper {
		return 0, 0
	}
	if gap := upper - value; gap <= slop || gap < speed*dt {
		return limitSpeed(gap, dt, beta, slop), 1
	}
	if gap := value - lower; gap <= slop || gap < -speed*dt {
		return -limitSpeed(gap, dt, beta, slop), -1
	}
	return 0, 0
}

// limitSpeed is the largest speed allowed toward a limit gap away. Overshoot
// within slop is held, deeper overshoot is pushed back out.
func limitSpeed(gap, dt, beta, slop float64) float64 {
	if gap >= 0 {
		return gap / dt
	}
	return beta / dt * min(gap+slop, 0)
}

// limitClamp bounds the accumulated impulse so a limit only pushes inward.
func limitClamp(side int) (lower, upper float64) {
	if side > 0 {
		return math.Inf(-1), 0
	}
	return 0, math.Inf(1)
}

// angularLock holds the relative orientation fixed at the one seen on the first step.
type angularLock struct {
	relative    mgl64.Quat // conj(qA) * qB at rest
	initialized bool
	rows        [3]angularRow
}

func (l *angularLock) preStep(a, b *solverBody, dt, beta float64) {
	if !l.initialized {
		l.relative = a.rotation.Conjugate().Mul(b.rotation)
		l.initialized = true
	}
	// Error rotation taking the target orientation of B to its current one.
	target := a.rotation.Mul(l.relative)
	qErr := b.rotation.Mul(target.Conjugate())
	if qErr.W < 0 {
		qErr = qErr.Scale(-1)
	}
	errVec := qErr.V.Mul(2)

	axes := [3]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	for i, axis := range axes {
		old := l.rows[i].jAcc
		l.rows[i] = newAngularRow(a, b, axis, -beta/dt*errVec.Dot(axis))
		l.rows[i].jAcc = old
	}
}

func (l *angularLock) applyCached(a, b *solverBody) {
	for i := range l.rows {
		l.rows[i].applyCached(a, b)
	}
}

func (l *angularLock) apply(a, b *solverBody) {
	for i := range l.rows {
		l.rows[i].apply(a, b)
	}
}

// BallSocketJoint pins a point of A to a point of B; rotation is free.
type BallSocketJoint struct {
	jointBase
	point point3
}

// NewBallSocketJoint joins anchorA (local to a) with anchorB (local to b).
func NewBallSocketJoint(a, b engine.EntityID, anchorA, anchorB mgl64.Vec3) *BallSocketJoint {
	return &BallSocketJoint{
		jointBase: jointBase{A: a, B: b},
		point:     point3{anchorA: anchorA, anchorB: anchorB},
	}
}

func (j *BallSocketJoint) preStep(a, b *solverBody, dt, beta, slop float64) {
	j.point.preStep(a, b, dt, beta)
}

func (j *BallSocketJoint) applyCachedImpulse(a, b *solverBody) {
	j.point.applyCached(a, b)
}

func (j *BallSocketJoint) applyImpulse(a, b *solverBody) {
	j.point.apply(a, b)
}

func (j *BallSocketJoint) appliedImpulse() float64 {
	return j.point.jAcc.Len()
}

// DistanceJoint keeps two anchors at a fixed distance, like a rigid rod.
type DistanceJoint struct {
	jointBase
	AnchorA, AnchorB mgl64.Vec3
	Distance         float64

	r1, r2 mgl64.Vec3
	n      mgl64.Vec3
	nMass  float64
	bias   float64
	jnAcc  float64
}

func NewDistanceJoint(a, b engine.EntityID, anchorA, anchorB mgl64.Vec3, distance float64) *DistanceJoint {
	return &DistanceJoint{
		jointBase: jointBase{A: a, B: b},
		AnchorA:   anchorA,
		AnchorB:   anchorB,
		Distance:  distance,
	}
}

func (j *DistanceJoint) preStep(a, b *solverBody, dt, beta, slop float64) {
	j.r1 = a.rotation.Rotate(j.AnchorA)
	j.r2 = b.rotation.Rotate(j.AnchorB)

	delta := b.position.Add(j.r2).Sub(a.position.Add(j.r1))
	dist := delta.Len()
	j.n = mgl64.Vec3{0, 1, 0}
	if dist > 1e-9 {
		j.n = delta.Mul(1 / dist)
	}
	j.nMass = effectiveMass(a, b, j.r1, j.r2, j.n)
	j.bias = -beta / dt * (dist - j.Distance)
}

func (j *DistanceJoint) applyCachedImpulse(a, b *solverBody) {
	p := j.n.Mul(j.jnAcc)
	a.applyImpulse(p.Mul(-1), j.r1)
	b.applyImpulse(p, j.r2)
}

func (j *DistanceJoint) applyImpulse(a, b *solverBody) {
	vrn := b.velocityAt(j.r2).Sub(a.velocityAt(j.r1)).Dot(j.n)
	jn := (j.bias - vrn) * j.nMass
	j.jnAcc += jn
	p := j.n.Mul(jn)
	a.applyImpulse(p.Mul(-1), j.r1)
	b.applyImpulse(p, j.r2)
}

func (j *DistanceJoint) appliedImpulse() float64 {
	return abs(j.jnAcc)
}

// FixedJoint welds two bodies: a ball socket plus a full angular lock.
type FixedJoint struct {
	jointBase
	point   point3
	angular angularLock
}

func NewFixedJoint(a, b engine.EntityID, anchorA, anchorB mgl64.Vec3) *FixedJoint {
	return &FixedJoint{
		jointBase: jointBase{A: a, B: b},
		point:     point3{anchorA: anchorA, anchorB: anchorB},
	}
}

func (j *FixedJoint) preStep(a, b *solverBody, dt, beta, slop float64) {
	j.point.preStep(a, b, dt, beta)
	j.angular.preStep(a, b, dt, beta)
}

func (j *FixedJoint) applyCachedImpulse(a, b *solverBody) {
	j.point.applyCached(a, b)
	j.angular.applyCached(a, b)
}

func (j *FixedJoint) applyImpulse(a, b *solverBody) {
	j.point.apply(a, b)
	j.angular.apply(a, b)
}

func (j *FixedJoint) appliedImpulse() float64 {
	return j.point.jAcc.Len()
}

// HingeJoint allows rotation about one axis through a shared anchor, with
// optional angle limits (enabled when Lower < Upper, radians).
type HingeJoint struct {
	jointBase
	Lower, Upper float64

	worldAnchor mgl64.Vec3
	worldAxis   mgl64.Vec3
	initialized bool

	point        point3
	axisA, axisB mgl64.Vec3 // local
	refA, refB   mgl64.Vec3 // local, perpendicular to the axis
	rows         [2]angularRow
	limit        angularRow
	limitSide    int
	angle        float64
}

// NewHingeJoint hinges a and b about axis through anchor, both in world space
// at the moment the joint is first solved.
func NewHingeJoint(a, b engine.EntityID, anchor, axis mgl64.Vec3, lower, upper float64) *HingeJoint {
	return &HingeJoint{
		jointBase:   jointBase{A: a, B: b},
		Lower:       lower,
		Upper:       upper,
		worldAnchor: anchor,
		worldAxis:   axis.Normalize(),
	}
}

// Angle is the relative rotation about the hinge axis measured last step.
func (j *HingeJoint) Angle() float64 {
	return j.angle
}

func (j *HingeJoint) init(a, b *solverBody) {
	toLocal := func(body *solverBody, p mgl64.Vec3) mgl64.Vec3 {
		return body.rotation.Conjugate().Rotate(p.Sub(body.position))
	}
	j.point.anchorA = toLocal(a, j.worldAnchor)
	j.point.anchorB = toLocal(b, j.worldAnchor)
	j.axisA = a.rotation.Conjugate().Rotate(j.worldAxis)
	j.axisB = b.rotation.Conjugate().Rotate(j.worldAxis)
	ref, _ := orthonormalBasis(j.worldAxis)
	j.refA = a.rotation.Conjugate().Rotate(ref)
	j.refB = b.rotation.Conjugate().Rotate(ref)
	j.initialized = true
}

func (j *HingeJoint) preStep(a, b *solverBody, dt, beta, slop float64) {
	if !j.initialized {
		j.init(a, b)
	}
	j.point.preStep(a, b, dt, beta)

	axisA := a.rotation.Rotate(j.axisA)
	axisB := b.rotation.Rotate(j.axisB)
	t1, t2 := orthonormalBasis(axisA)
	// axisA x axisB is the small rotation needed to bring B's axis back.
	errVec := axisA.Cross(axisB)
	for i, t := range [2]mgl64.Vec3{t1, t2} {
		old := j.rows[i].jAcc
		j.rows[i] = newAngularRow(a, b, t, -beta/dt*errVec.Dot(t))
		j.rows[i].jAcc = old
	}

	refA := a.rotation.Rotate(j.refA)
	refB := b.rotation.Rotate(j.refB)
	j.angle = math.Atan2(refA.Cross(refB).Dot(axisA), refA.Dot(refB))

	old, oldSide := j.limit.jAcc, j.limitSide
	wr := b.w.Sub(a.w).Dot(axisA)
	var bias float64
	bias, j.limitSide = limitRow(j.angle, wr, j.Lower, j.Upper, dt, beta, slop)
	if j.limitSide != 0 {
		j.limit = newAngularRow(a, b, axisA, bias)
		j.limit.lower, j.limit.upper = limitClamp(j.limitSide)
		if j.limitSide == oldSide {
			j.limit.jAcc = old
		}
	}
}

func (j *HingeJoint) applyCachedImpulse(a, b *solverBody) {
	j.point.applyCached(a, b)
	for i := range j.rows {
		j.rows[i].applyCached(a, b)
	}
	if j.limitSide != 0 {
		j.limit.applyCached(a, b)
	}
}

func (j *HingeJoint) applyImpulse(a, b *solverBody) {
	j.point.apply(a, b)
	for i := range j.rows {
		j.rows[i].apply(a, b)
	}
	if j.limitSide != 0 {
		j.limit.apply(a, b)
	}
}

func (j *HingeJoint) appliedImpulse() float64 {
	return j.point.jAcc.Len()
}

// SliderJoint lets b translate along one axis of a with no relative rotation.
// Translation limits along the axis are enabled when Lower < Upper.
type SliderJoint struct {
	jointBase
	Lower, Upper float64

	worldAxis   mgl64.Vec3
	initialized bool

	axisA       mgl64.Vec3 // local to a
	offsetPerp  mgl64.Vec3 // initial perpendicular offset of b, local to a
	angular     angularLock
	perp        [2]linearRow
	limit       linearRow
	limitSide   int
	translation float64
}

// NewSliderJoint constrains b to slide along axis (world space at first solve).
func NewSliderJoint(a, b engine.EntityID, axis mgl64.Vec3, lower, upper float64) *SliderJoint {
	return &SliderJoint{
		jointBase: jointBase{A: a, B: b},
		Lower:     lower,
		Upper:     upper,
		worldAxis: axis.Normalize(),
	}
}

// Translation is b's offset from a along the axis, measured last step.
func (j *SliderJoint) Translation() float64 {
	return j.translation
}

// linearRow constrains relative velocity of b's center along dir, with the
// lever arm r on a.
type linearRow struct {
	dir   mgl64.Vec3
	r1    mgl64.Vec3
	mass  float64
	bias  float64
	jAcc  float64
	lower float64
	upper float64
}

func newLinearRow(a, b *solverBody, dir, r1 mgl64.Vec3, bias float64) linearRow {
	return linearRow{
		dir:   dir,
		r1:    r1,
		mass:  effectiveMass(a, b, r1, mgl64.Vec3{}, dir),
		bias:  bias,
		lower: math.Inf(-1),
		upper: math.Inf(1),
	}
}

func (r *linearRow) applyCached(a, b *solverBody) {
	p := r.dir.Mul(r.jAcc)
	a.applyImpulse(p.Mul(-1), r.r1)
	b.applyImpulse(p, mgl64.Vec3{})
}

func (r *linearRow) apply(a, b *solverBody) {
	vr := b.v.Sub(a.velocityAt(r.r1)).Dot(r.dir)
	j := r.mass * (r.bias - vr)
	old := r.jAcc
	r.jAcc = mgl64.Clamp(old+j, r.lower, r.upper)
	j = r.jAcc - old
	p := r.dir.Mul(j)
	a.applyImpulse(p.Mul(-1), r.r1)
	b.applyImpulse(p, mgl64.Vec3{})
}

func (j *SliderJoint) preStep(a, b *solverBody, dt, beta, slop float64) {
	if !j.initialized {
		j.axisA = a.rotation.Conjugate().Rotate(j.worldAxis)
		d := a.rotation.Conjugate().Rotate(b.position.Sub(a.position))
		j.offsetPerp = d.Sub(j.axisA.Mul(d.Dot(j.axisA)))
		j.initialized = true
	}
	j.angular.preStep(a, b, dt, beta)

	axis := a.rotation.Rotate(j.axisA)
	d := b.position.Sub(a.position)
	target := a.rotation.Rotate(j.offsetPerp)
	t1, t2 := orthonormalBasis(axis)
	for i, t := range [2]mgl64.Vec3{t1, t2} {
		old := j.perp[i].jAcc
		c := d.Sub(target).Dot(t)
		j.perp[i] = newLinearRow(a, b, t, d, -beta/dt*c)
		j.perp[i].jAcc = old
	}

	j.translation = d.Dot(axis)
	old, oldSide := j.limit.jAcc, j.limitSide
	vr := b.v.Sub(a.velocityAt(d)).Dot(axis)
	var bias float64
	bias, j.limitSide = limitRow(j.translation, vr, j.Lower, j.Upper, dt, beta, slop)
	if j.limitSide != 0 {
		j.limit = newLinearRow(a, b, axis, d, bias)
		j.limit.lower, j.limit.upper = limitClamp(j.limitSide)
		if j.limitSide == oldSide {
			j.limit.jAcc = old
		}
	}
}

func (j *SliderJoint) applyCachedImpulse(a, b *solverBody) {
	j.angular.applyCached(a, b)
	for i := range j.perp {
		j.perp[i].applyCached(a, b)
	}
	if j.limitSide != 0 {
		j.limit.applyCached(a, b)
	}
}

func (j *SliderJoint) applyImpulse(a, b *solverBody) {
	j.angular.apply(a, b)
	for i := range j.perp {
		j.perp[i].apply(a, b)
	}
	if j.limitSide != 0 {
		j.limit.apply(a, b)
	}
}

func (j *SliderJoint) appliedImpulse() float64 {
	return math.Hypot(j.perp[0].jAcc, j.perp[1].jAcc)
}
