package physics

import (
	"math"

	"rigid3d/internal/components"
	"rigid3d/internal/engine"
	"rigid3d/internal/geom"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// groundedCos is the minimum upward component of a supporting contact normal.
const groundedCos = 0.7

// Stats describes the most recent fixed step.
type Stats struct {
	Steps          uint64
	Substeps       int // run by the last Step call
	Bodies         int
	Sleeping       int
	CandidatePairs int
	Manifolds      int
	TriggerPairs   int
	Islands        int
	CCDHits        int
}

// World owns every piece of per-simulation physics state. It is not safe for
// concurrent use; read results between steps.
type World struct {
	ID uuid.UUID

	OnCollisionEnter engine.EventWithArg[ContactEvent]
	OnCollisionStay  engine.EventWithArg[ContactEvent]
	OnCollisionExit  engine.EventWithArg[ContactEvent]
	OnTriggerEnter   engine.EventWithArg[ContactEvent]
	OnTriggerStay    engine.EventWithArg[ContactEvent]
	OnTriggerExit    engine.EventWithArg[ContactEvent]

	cfg    Config
	reg    *engine.Registry
	logger *zap.Logger
	narrow *Narrowphase

	grid      *SpatialHashGrid
	sleepGrid *SpatialHashGrid // sleeping bodies, only used to wake them
	cache     *ContactCache
	joints    []Joint

	collisions *PairTracker
	triggers   *PairTracker

	sleepGroups map[engine.EntityID][]engine.EntityID
	islands     []SimulationIsland

	accumulator float64
	stats       Stats
}

type Option func(*World)

// WithLogger sets the logger. The world adds its own id field.
func WithLogger(logger *zap.Logger) Option {
	return func(w *World) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWorld creates a world simulating the entities of reg. cfg must be valid;
// use LoadConfig or Config.Validate for untrusted input.
func NewWorld(reg *engine.Registry, cfg Config, opts ...Option) *World {
	w := &World{
		ID:          uuid.New(),
		cfg:         cfg,
		reg:         reg,
		logger:      zap.NewNop(),
		grid:        NewSpatialHashGrid(cfg.CellSize),
		sleepGrid:   NewSpatialHashGrid(cfg.CellSize),
		cache:       NewContactCache(),
		collisions:  NewPairTracker(),
		triggers:    NewPairTracker(),
		sleepGroups: make(map[engine.EntityID][]engine.EntityID),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With(zap.String("world", w.ID.String()))
	w.narrow = NewNarrowphase(w.logger)
	return w
}

func (w *World) Config() Config {
	return w.cfg
}

// SetConfig retunes a running world. Sleeping bodies are woken when gravity
// changes so they react to it.
func (w *World) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.CellSize != w.cfg.CellSize {
		w.grid = NewSpatialHashGrid(cfg.CellSize)
		w.sleepGrid = NewSpatialHashGrid(cfg.CellSize)
	}
	if cfg.Gravity != w.cfg.Gravity {
		engine.Each(w.reg, func(id engine.EntityID, rb *components.Rigidbody) {
			if rb.IsSleeping {
				w.wakeGroup(id)
			}
		})
	}
	w.cfg = cfg
	return nil
}

func (w *World) Registry() *engine.Registry {
	return w.reg
}

func (w *World) Stats() Stats {
	return w.stats
}

// Cache exposes the contact cache for inspection.
func (w *World) Cache() *ContactCache {
	return w.cache
}

// Islands returns the islands built by the last step.
func (w *World) Islands() []SimulationIsland {
	return w.islands
}

// Collide tests two entities with the world's narrowphase, outside of a step.
func (w *World) Collide(a, b engine.EntityID) *ContactManifold {
	return w.narrow.Collide(w.reg, a, b)
}

func (w *World) Joints() []Joint {
	return w.joints
}

// Alpha is the fraction of a fixed step left in the accumulator, for render interpolation.
func (w *World) Alpha() float64 {
	return w.accumulator / w.cfg.FixedDt
}

// AddJoint registers a joint and wakes both of its bodies.
func (w *World) AddJoint(j Joint) {
	if j == nil {
		return
	}
	w.joints = append(w.joints, j)
	a, b := j.Bodies()
	for _, id := range []engine.EntityID{a, b} {
		if id != 0 {
			w.wakeGroup(id)
		}
	}
}

func (w *World) RemoveJoint(j Joint) {
	for i, other := range w.joints {
		if other == j {
			w.joints = append(w.joints[:i], w.joints[i+1:]...)
			return
		}
	}
}

// Reset drops all cached simulation state: contacts, pair sets, islands, joints
// and the accumulator. Entities and their components are left alone.
func (w *World) Reset() {
	w.grid.Clear()
	w.sleepGrid.Clear()
	w.cache.Clear()
	w.collisions.Reset()
	w.triggers.Reset()
	w.joints = nil
	w.islands = nil
	clear(w.sleepGroups)
	w.accumulator = 0
	w.stats = Stats{}
}

// Step advances by frameDt using fixed sub-steps and returns how many ran.
// Time beyond MaxSubsteps steps is discarded rather than carried forward.
func (w *World) Step(frameDt float64) int {
	if frameDt <= 0 || math.IsNaN(frameDt) || math.IsInf(frameDt, 0) {
		return 0
	}
	dt := w.cfg.FixedDt
	w.accumulator += frameDt
	n := 0
	for w.accumulator >= dt && n < w.cfg.MaxSubsteps {
		w.StepFixed()
		w.accumulator -= dt
		n++
	}
	if w.accumulator >= dt {
		w.accumulator = math.Mod(w.accumulator, dt)
	}
	w.stats.Substeps = n
	return n
}

// stepBody is one entity taking part in a step.
type stepBody struct {
	id  engine.EntityID
	t   *engine.Transform
	col *components.Collider // nil when the entity has no collider
	rb  *components.Rigidbody
}

func (b stepBody) awake() bool {
	return b.rb != nil && b.rb.BodyType != components.BodyStatic && !b.rb.IsSleeping
}

func (b stepBody) dynamic() bool {
	return b.rb != nil && b.rb.IsDynamic()
}

// StepFixed advances the simulation by exactly one FixedDt.
func (w *World) StepFixed() {
	dt := w.cfg.FixedDt
	w.stats = Stats{Steps: w.stats.Steps + 1, Substeps: w.stats.Substeps}

	bodies := w.gatherBodies()
	w.wakeSleepers(bodies, dt)
	w.applyForces(bodies, dt)
	w.sanitize(bodies)

	candidates := w.broadphase(bodies)
	manifolds := w.narrowphasePairs(candidates)

	var contacts []*ContactManifold
	var touching []CollisionPair
	triggers := make(map[CollisionPair]*ContactManifold)
	var overlapping []CollisionPair
	for _, m := range manifolds {
		if m == nil {
			continue
		}
		ca, _ := engine.Lookup[*components.Collider](w.reg, m.EntityA)
		cb, _ := engine.Lookup[*components.Collider](w.reg, m.EntityB)
		if ca.IsTrigger || cb.IsTrigger {
			triggers[m.Pair()] = m
			overlapping = append(overlapping, m.Pair())
			continue
		}
		contacts = append(contacts, m)
	}
	contacts = w.cache.Update(contacts, w.pose)
	byPair := make(map[CollisionPair]*ContactManifold, len(contacts))
	for _, m := range contacts {
		byPair[m.Pair()] = m
		touching = append(touching, m.Pair())
	}
	w.stats.Manifolds = len(contacts)
	w.stats.TriggerPairs = len(overlapping)

	joints := w.activeJoints()
	s := newSolver(w.cfg, dt)
	for _, m := range contacts {
		w.addSolverBody(s, m.EntityA)
		w.addSolverBody(s, m.EntityB)
	}
	for _, j := range joints {
		a, b := j.Bodies()
		w.addSolverBody(s, a)
		w.addSolverBody(s, b)
	}
	s.manifolds = contacts
	s.joints = joints
	s.solve()
	w.breakJoints(joints)
	w.sanitize(bodies)

	moved := w.applyCCD(bodyIDs(bodies), dt)
	w.integrate(bodies, moved, dt)
	w.updateGrounded(bodies, contacts)

	w.dispatch(w.collisions, touching, byPair, collisionEnter, collisionStay, collisionExit)
	w.dispatch(w.triggers, overlapping, triggers, triggerEnter, triggerStay, triggerExit)

	w.updateIslands(bodies, contacts, joints, dt)
}

func (w *World) gatherBodies() []stepBody {
	var bodies []stepBody
	w.reg.ForEach(func(e *engine.Entity) {
		b := stepBody{
			id:  e.ID,
			t:   &e.Transform,
			col: engine.GetComponent[*components.Collider](e),
			rb:  engine.GetComponent[*components.Rigidbody](e),
		}
		if b.col == nil && b.rb == nil {
			return
		}
		if b.rb != nil {
			var shape geom.Shape
			if b.col != nil && !b.col.IsTrigger {
				shape = b.col.Shape
			}
			b.rb.SyncMass(shape, b.t.Scale)
		}
		bodies = append(bodies, b)
		w.stats.Bodies++
	})
	return bodies
}

func bodyIDs(bodies []stepBody) []engine.EntityID {
	ids := make([]engine.EntityID, len(bodies))
	for i, b := range bodies {
		ids[i] = b.id
	}
	return ids
}

func (w *World) pose(id engine.EntityID) (Pose, bool) {
	t, ok := w.reg.Transform(id)
	if !ok {
		return Pose{}, false
	}
	return Pose{Position: t.Position, Rotation: t.Orientation()}, true
}

// moving reports whether a body is fast enough to disturb sleeping neighbours.
func (w *World) moving(rb *components.Rigidbody) bool {
	return rb.Velocity.Len() > w.cfg.SleepLinear || rb.AngularVelocity.Len() > w.cfg.SleepAngular
}

// wakeSleepers wakes sleeping islands that were poked since the last step:
// velocity set from outside, sleep flag cleared from outside, a moving body
// about to reach them, or a joint to an awake body.
func (w *World) wakeSleepers(bodies []stepBody, dt float64) {
	for _, b := range bodies {
		if !b.dynamic() {
			continue
		}
		_, grouped := w.sleepGroups[b.id]
		switch {
		case b.rb.IsSleeping && (b.rb.Velocity != (mgl64.Vec3{}) || b.rb.AngularVelocity != (mgl64.Vec3{})):
			w.wakeGroup(b.id)
		case !b.rb.IsSleeping && grouped:
			w.wakeGroup(b.id)
		}
	}

	w.sleepGrid.Clear()
	for _, b := range bodies {
		if b.dynamic() && b.rb.IsSleeping && b.col != nil && !b.col.IsTrigger {
			w.sleepGrid.Insert(b.id, b.col.WorldAABB(*b.t))
		}
	}
	if w.sleepGrid.Len() > 0 {
		for _, b := range bodies {
			if !b.awake() || b.col == nil || b.col.IsTrigger || !w.moving(b.rb) {
				continue
			}
			box := b.col.WorldAABB(*b.t).Swept(b.rb.Velocity.Mul(dt))
			for _, id := range w.sleepGrid.QueryAABB(box) {
				if other, ok := engine.Lookup[*components.Collider](w.reg, id); ok && b.col.CanCollide(other) {
					w.wakeGroup(id)
				}
			}
		}
	}

	for _, j := range w.joints {
		if j.Broken() {
			continue
		}
		a, b := j.Bodies()
		ra, okA := engine.Lookup[*components.Rigidbody](w.reg, a)
		rb, okB := engine.Lookup[*components.Rigidbody](w.reg, b)
		if !okA || !okB || ra.IsSleeping == rb.IsSleeping {
			continue
		}
		if ra.IsSleeping {
			w.wakeGroup(a)
		} else {
			w.wakeGroup(b)
		}
	}
}

// applyForces integrates gravity and damping into awake dynamic bodies.
func (w *World) applyForces(bodies []stepBody, dt float64) {
	for _, b := range bodies {
		if !b.dynamic() || b.rb.IsSleeping {
			continue
		}
		rb := b.rb
		if rb.UseGravity && rb.InverseMass > 0 {
			rb.Velocity = rb.Velocity.Add(w.cfg.Gravity.Mul(dt))
		}
		rb.Velocity = rb.Velocity.Mul(max(0, 1-rb.LinearDamping*dt))
		rb.AngularVelocity = rb.AngularVelocity.Mul(max(0, 1-rb.AngularDamping*dt))
	}
}

// sanitize resets non-finite velocities and clamps speeds.
func (w *World) sanitize(bodies []stepBody) {
	for _, b := range bodies {
		if !b.awake() {
			continue
		}
		rb := b.rb
		if !isFiniteVec(rb.Velocity) || !isFiniteVec(rb.AngularVelocity) {
			w.logger.Warn("non-finite velocity reset to zero",
				zap.Uint64("entity", uint64(b.id)),
				zap.Stringer("body", rb.BodyType))
			rb.Velocity = mgl64.Vec3{}
			rb.AngularVelocity = mgl64.Vec3{}
		}
		rb.Velocity = clampLength(rb.Velocity, w.cfg.MaxLinearSpeed)
		rb.AngularVelocity = clampLength(rb.AngularVelocity, w.cfg.MaxAngularSpeed)
	}
}

// broadphase rebuilds both grids and returns the candidate pairs worth testing.
func (w *World) broadphase(bodies []stepBody) []CollisionPair {
	w.grid.Clear()
	w.sleepGrid.Clear()
	for _, b := range bodies {
		if b.col == nil || b.col.Shape == nil {
			continue
		}
		box := b.col.WorldAABB(*b.t)
		if b.rb != nil && b.rb.IsSleeping {
			w.sleepGrid.Insert(b.id, box)
			continue
		}
		w.grid.Insert(b.id, box)
	}

	pairs := w.grid.QueryPairs()
	out := pairs[:0]
	for _, p := range pairs {
		if w.shouldTest(p) {
			out = append(out, p)
		}
	}
	w.stats.CandidatePairs = len(out)
	return out
}

// shouldTest filters pairs by layer and drops pairs where nothing can move.
// Triggers also report overlaps with kinematic bodies.
func (w *World) shouldTest(p CollisionPair) bool {
	ca, okA := engine.Lookup[*components.Collider](w.reg, p.A)
	cb, okB := engine.Lookup[*components.Collider](w.reg, p.B)
	if !okA || !okB || !ca.CanCollide(cb) || (ca.IsTrigger && cb.IsTrigger) {
		return false
	}
	ra, hasA := engine.Lookup[*components.Rigidbody](w.reg, p.A)
	rb, hasB := engine.Lookup[*components.Rigidbody](w.reg, p.B)
	dynA := hasA && ra.IsDynamic()
	dynB := hasB && rb.IsDynamic()
	if dynA || dynB {
		return true
	}
	if ca.IsTrigger || cb.IsTrigger {
		return (hasA && ra.BodyType == components.BodyKinematic) || (hasB && rb.BodyType == components.BodyKinematic)
	}
	return false
}

// narrowphasePairs tests candidates, concurrently when configured. Results are
// index-aligned with pairs, so the output order never depends on scheduling.
func (w *World) narrowphasePairs(pairs []CollisionPair) []*ContactManifold {
	out := make([]*ContactManifold, len(pairs))
	if w.cfg.NarrowphaseWorkers <= 1 || len(pairs) < 2 {
		for i, p := range pairs {
			out[i] = w.narrow.Collide(w.reg, p.A, p.B)
		}
		return out
	}

	var g errgroup.Group
	g.SetLimit(w.cfg.NarrowphaseWorkers)
	for i, p := range pairs {
		g.Go(func() error {
			out[i] = w.narrow.Collide(w.reg, p.A, p.B)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (w *World) addSolverBody(s *solver, id engine.EntityID) {
	if id == 0 {
		return
	}
	if rb, ok := engine.Lookup[*components.Rigidbody](w.reg, id); ok && rb.BodyType != components.BodyStatic {
		t, _ := w.reg.Transform(id)
		s.addBody(id, rb, *t)
		return
	}
	if t, ok := w.reg.Transform(id); ok {
		s.addStatic(id, *t)
	}
}

// activeJoints returns unbroken joints whose entities exist and that have at
// least one awake dynamic body.
func (w *World) activeJoints() []Joint {
	var out []Joint
	for _, j := range w.joints {
		if j.Broken() {
			continue
		}
		a, b := j.Bodies()
		if !w.jointEnd(a) || !w.jointEnd(b) {
			continue
		}
		if w.awakeDynamic(a) || w.awakeDynamic(b) {
			out = append(out, j)
		}
	}
	return out
}

func (w *World) jointEnd(id engine.EntityID) bool {
	if id == 0 {
		return true
	}
	e := w.reg.Get(id)
	return e != nil && e.Active
}

func (w *World) awakeDynamic(id engine.EntityID) bool {
	rb, ok := engine.Lookup[*components.Rigidbody](w.reg, id)
	return ok && rb.IsDynamic() && !rb.IsSleeping
}

func (w *World) breakJoints(joints []Joint) {
	for _, j := range joints {
		limit := j.breakLimit()
		if limit <= 0 {
			continue
		}
		if impulse := j.appliedImpulse(); impulse > limit {
			j.setBroken()
			a, b := j.Bodies()
			w.logger.Info("joint broken",
				zap.Uint64("entity_a", uint64(a)),
				zap.Uint64("entity_b", uint64(b)),
				zap.Float64("impulse", impulse),
				zap.Float64("limit", limit))
		}
	}
}

// integrate moves awake dynamic and kinematic bodies. Bodies already advanced
// by CCD keep their position this step.
func (w *World) integrate(bodies []stepBody, moved map[engine.EntityID]bool, dt float64) {
	for _, b := range bodies {
		if !b.awake() {
			continue
		}
		if !moved[b.id] {
			b.t.Position = b.t.Position.Add(b.rb.Velocity.Mul(dt))
		}
		b.t.Rotation = integrateRotation(b.t.Orientation(), b.rb.AngularVelocity, dt)
	}
}

// integrateRotation applies q' = q + dt/2 * (0, w) * q and renormalizes.
func integrateRotation(q mgl64.Quat, omega mgl64.Vec3, dt float64) mgl64.Quat {
	if omega.LenSqr() == 0 {
		return q
	}
	spin := mgl64.Quat{W: 0, V: omega}.Mul(q).Scale(0.5 * dt)
	return q.Add(spin).Normalize()
}

// updateGrounded flags bodies held up by a contact whose normal, pointing
// away from the support, is close enough to +Y.
func (w *World) updateGrounded(bodies []stepBody, contacts []*ContactManifold) {
	for _, b := range bodies {
		if b.awake() {
			b.rb.Grounded = false
		}
	}
	for _, m := range contacts {
		if -m.Normal.Y() >= groundedCos {
			w.setGrounded(m.EntityA)
		}
		if m.Normal.Y() >= groundedCos {
			w.setGrounded(m.EntityB)
		}
	}
}

func (w *World) setGrounded(id engine.EntityID) {
	if rb, ok := engine.Lookup[*components.Rigidbody](w.reg, id); ok && rb.BodyType != components.BodyStatic {
		rb.Grounded = true
	}
}

func (w *World) dispatch(tracker *PairTracker, now []CollisionPair, manifolds map[CollisionPair]*ContactManifold, enter, stay, exit eventKind) {
	entered, stayed, exited := tracker.Update(now)
	for _, p := range entered {
		w.publish(enter, p, manifolds[p])
	}
	for _, p := range stayed {
		w.publish(stay, p, manifolds[p])
	}
	for _, p := range exited {
		w.publish(exit, p, nil)
	}
}

// updateIslands advances sleep timers, rebuilds islands and puts resting ones to sleep.
func (w *World) updateIslands(bodies []stepBody, contacts []*ContactManifold, joints []Joint, dt float64) {
	var awake []engine.EntityID
	for _, b := range bodies {
		if !b.dynamic() || b.rb.IsSleeping {
			continue
		}
		b.rb.AccumulateSleep(dt, w.cfg.SleepLinear, w.cfg.SleepAngular)
		awake = append(awake, b.id)
	}
	w.islands = BuildIslands(awake, contacts, joints)
	w.stats.Islands = len(w.islands)
	w.updateSleep(w.islands)

	for _, b := range bodies {
		if b.dynamic() && b.rb.IsSleeping {
			w.stats.Sleeping++
		}
	}
}
