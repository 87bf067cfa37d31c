package physics

import (
	"sync"

	"rigid3d/internal/components"
	"rigid3d/internal/engine"
	"rigid3d/internal/geom"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

const (
	defaultFriction    = 0.5
	defaultRestitution = 0.0
)

type shapeRef struct {
	shape geom.Shape
	place geom.Placement
}

type contact struct {
	pointA mgl64.Vec3
	pointB mgl64.Vec3
	normal mgl64.Vec3
	depth  float64
}

type collideFunc func(a, b shapeRef) (contact, bool)

// dispatch is the shape-pair table. Every cell is populated once at init and
// only read afterwards.
var dispatch [geom.NumShapeKinds][geom.NumShapeKinds]collideFunc

func init() {
	analytic := map[[2]geom.ShapeKind]collideFunc{
		{geom.KindSphere, geom.KindSphere}:   sphereSphere,
		{geom.KindSphere, geom.KindAABB}:     sphereAABB,
		{geom.KindSphere, geom.KindCapsule}:  sphereCapsule,
		{geom.KindAABB, geom.KindSphere}:     aabbSphere,
		{geom.KindAABB, geom.KindAABB}:       aabbAABB,
		{geom.KindAABB, geom.KindCapsule}:    aabbCapsule,
		{geom.KindCapsule, geom.KindSphere}:  capsuleSphere,
		{geom.KindCapsule, geom.KindAABB}:    capsuleAABB,
		{geom.KindCapsule, geom.KindCapsule}: capsuleCapsule,
	}
	for i := geom.ShapeKind(0); i < geom.NumShapeKinds; i++ {
		for j := geom.ShapeKind(0); j < geom.NumShapeKinds; j++ {
			switch {
			case i == geom.KindCompound:
				dispatch[i][j] = compoundVsShape
			case j == geom.KindCompound:
				dispatch[i][j] = shapeVsCompound
			case analytic[[2]geom.ShapeKind{i, j}] != nil:
				dispatch[i][j] = analytic[[2]geom.ShapeKind{i, j}]
			case i == geom.KindOBB && j == geom.KindOBB:
				dispatch[i][j] = obbOBB
			default:
				dispatch[i][j] = gjkEPA
			}
		}
	}
}

func (r shapeRef) support(dir mgl64.Vec3) mgl64.Vec3 {
	return geom.Support(r.shape, r.place, dir)
}

// gjkEPA handles every convex pair without an analytic routine.
func gjkEPA(a, b shapeRef) (contact, bool) {
	s, hit := gjkIntersect(a.support, b.support, b.place.Position.Sub(a.place.Position))
	if !hit {
		return contact{}, false
	}
	if s.n < 4 && !completeSimplex(a.support, b.support, &s) {
		return contact{}, false
	}
	res, ok := expandPolytope(a.support, b.support, s)
	if !ok || res.depth < 0 {
		return contact{}, false
	}
	return contact{pointA: res.pointA, pointB: res.pointB, normal: res.normal, depth: res.depth}, true
}

// obbOBB rejects with SAT before paying for GJK+EPA.
func obbOBB(a, b shapeRef) (contact, bool) {
	oa := geom.OBBOf(a.shape.(*geom.OBBShape), a.place)
	ob := geom.OBBOf(b.shape.(*geom.OBBShape), b.place)
	if !oa.IntersectsOBB(ob) {
		return contact{}, false
	}
	return gjkEPA(a, b)
}

// compoundVsShape keeps the single deepest child contact; child manifolds are not merged.
func compoundVsShape(a, b shapeRef) (contact, bool) {
	var best contact
	found := false
	for _, child := range a.shape.(*geom.CompoundShape).Children {
		ca := shapeRef{shape: child.Shape, place: a.place.Child(child)}
		if c, ok := collideShapes(ca, b); ok && (!found || c.depth > best.depth) {
			best, found = c, true
		}
	}
	return best, found
}

func shapeVsCompound(a, b shapeRef) (contact, bool) {
	return flipContact(compoundVsShape(b, a))
}

func collideShapes(a, b shapeRef) (contact, bool) {
	ka, kb := a.shape.Kind(), b.shape.Kind()
	if ka < 0 || ka >= geom.NumShapeKinds || kb < 0 || kb >= geom.NumShapeKinds {
		return contact{}, false
	}
	fn := dispatch[ka][kb]
	if fn == nil {
		return contact{}, false
	}
	return fn(a, b)
}

// Narrowphase turns candidate pairs into contact manifolds.
// Safe for concurrent use.
type Narrowphase struct {
	logger *zap.Logger

	mu     sync.Mutex
	warned map[[2]geom.ShapeKind]struct{}
}

func NewNarrowphase(logger *zap.Logger) *Narrowphase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Narrowphase{
		logger: logger,
		warned: make(map[[2]geom.ShapeKind]struct{}),
	}
}

// supported reports whether the pair has a routine, warning once per kind pair when it doesn't.
func (n *Narrowphase) supported(a, b geom.Shape) bool {
	ka, kb := a.Kind(), b.Kind()
	if ka >= 0 && ka < geom.NumShapeKinds && kb >= 0 && kb < geom.NumShapeKinds && dispatch[ka][kb] != nil {
		return true
	}
	key := [2]geom.ShapeKind{ka, kb}
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.warned[key]; !ok {
		n.warned[key] = struct{}{}
		n.logger.Warn("unsupported shape pair, treating as no collision",
			zap.Stringer("shape_a", ka), zap.Stringer("shape_b", kb))
	}
	return false
}

// CollideShapes tests two placed shapes. The returned normal points from a to b.
func (n *Narrowphase) CollideShapes(sa geom.Shape, pa geom.Placement, sb geom.Shape, pb geom.Placement) (normal mgl64.Vec3, depth float64, pointA, pointB mgl64.Vec3, ok bool) {
	if sa == nil || sb == nil || !n.supported(sa, sb) {
		return normal, 0, pointA, pointB, false
	}
	c, hit := collideShapes(shapeRef{sa, pa}, shapeRef{sb, pb})
	if !hit || c.depth < 0 {
		return normal, 0, pointA, pointB, false
	}
	return c.normal, c.depth, c.pointA, c.pointB, true
}

// Collide tests two entities and returns a single-point manifold, or nil when
// they don't touch or either one lacks a collider.
func (n *Narrowphase) Collide(reg *engine.Registry, a, b engine.EntityID) *ContactManifold {
	ca, okA := engine.Lookup[*components.Collider](reg, a)
	cb, okB := engine.Lookup[*components.Collider](reg, b)
	if !okA || !okB || ca.Shape == nil || cb.Shape == nil {
		return nil
	}
	ta, tb := reg.Get(a).Transform, reg.Get(b).Transform

	normal, depth, pA, pB, ok := n.CollideShapes(ca.Shape, ca.Placement(ta), cb.Shape, cb.Placement(tb))
	if !ok {
		return nil
	}

	friction, restitution := combinedMaterial(reg, a, b)
	return &ContactManifold{
		EntityA:     a,
		EntityB:     b,
		Normal:      normal,
		Friction:    friction,
		Restitution: restitution,
		Points: []ContactPoint{{
			Position:    pA.Add(pB).Mul(0.5),
			Normal:      normal,
			Penetration: depth,
			LocalA:      ta.ToLocal(pA),
			LocalB:      tb.ToLocal(pB),
		}},
	}
}

// combinedMaterial mixes friction geometrically and takes the bouncier restitution.
func combinedMaterial(reg *engine.Registry, a, b engine.EntityID) (friction, restitution float64) {
	fa, ea := defaultFriction, defaultRestitution
	fb, eb := defaultFriction, defaultRestitution
	if rb, ok := engine.Lookup[*components.Rigidbody](reg, a); ok {
		fa, ea = rb.Friction, rb.Restitution
	}
	if rb, ok := engine.Lookup[*components.Rigidbody](reg, b); ok {
		fb, eb = rb.Friction, rb.Restitution
	}
	return sqrt(fa * fb), max(ea, eb)
}

// Collide runs narrowphase on two entities without logging unsupported pairs.
// World.Collide reports them through the world's logger.
func Collide(reg *engine.Registry, a, b engine.EntityID) *ContactManifold {
	return NewNarrowphase(nil).Collide(reg, a, b)
}
