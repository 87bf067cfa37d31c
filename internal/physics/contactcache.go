package physics

import (
	"slices"

	"rigid3d/internal/engine"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// Points closer than this (world units, per surface) are the same contact.
	contactMatchDistance = 0.02
	// Cached points drifting further than this are dropped.
	contactBreakingDistance = 0.02
)

// Pose is the rigid frame a contact anchor is expressed in.
type Pose struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

func (p Pose) ToWorld(local mgl64.Vec3) mgl64.Vec3 {
	return p.Position.Add(p.Rotation.Rotate(local))
}

// ContactCache persists manifolds across steps, keyed by canonical pair.
type ContactCache struct {
	manifolds map[CollisionPair]*ContactManifold
}

func NewContactCache() *ContactCache {
	return &ContactCache{manifolds: make(map[CollisionPair]*ContactManifold)}
}

func (c *ContactCache) Len() int {
	return len(c.manifolds)
}

func (c *ContactCache) Clear() {
	clear(c.manifolds)
}

// Manifolds lists the cached manifolds ordered by pair.
func (c *ContactCache) Manifolds() []*ContactManifold {
	out := make([]*ContactManifold, 0, len(c.manifolds))
	for _, m := range c.manifolds {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b *ContactManifold) int {
		return comparePairs(a.Pair(), b.Pair())
	})
	return out
}

// Get returns the cached manifold for the pair, oriented as stored.
func (c *ContactCache) Get(a, b engine.EntityID) *ContactManifold {
	return c.manifolds[MakePair(a, b)]
}

// Update merges this step's manifolds into the cache and returns the merged
// manifolds in input order. Matching points copy (never add) their previous
// accumulated impulses. Pairs absent from fresh are dropped together with
// their impulses, so a contact that reappears later starts cold.
func (c *ContactCache) Update(fresh []*ContactManifold, poses func(engine.EntityID) (Pose, bool)) []*ContactManifold {
	out := make([]*ContactManifold, 0, len(fresh))
	next := make(map[CollisionPair]*ContactManifold, len(fresh))

	for _, m := range fresh {
		if m == nil {
			continue
		}
		key := m.Pair()
		if _, dup := next[key]; dup {
			continue
		}

		var old []ContactPoint
		if prev := c.manifolds[key]; prev != nil {
			if prev.EntityA != m.EntityA {
				prev = prev.flipped()
			}
			old = refreshPoints(prev.Points, m.Normal, m.EntityA, m.EntityB, poses)
		}

		points := make([]ContactPoint, 0, len(m.Points)+len(old))
		for _, np := range m.Points {
			if i := matchPoint(old, np); i >= 0 {
				np.NormalImpulse = old[i].NormalImpulse
				np.TangentImpulse1 = old[i].TangentImpulse1
				np.TangentImpulse2 = old[i].TangentImpulse2
				old = append(old[:i], old[i+1:]...)
			}
			points = append(points, np)
		}
		points = append(points, old...)

		merged := &ContactManifold{
			EntityA:     m.EntityA,
			EntityB:     m.EntityB,
			Normal:      m.Normal,
			Friction:    m.Friction,
			Restitution: m.Restitution,
			Points:      reduceToFour(points, m.Normal),
		}
		next[key] = merged
		out = append(out, merged)
	}

	c.manifolds = next
	return out
}

// refreshPoints re-evaluates cached points under the current poses and drops
// those that separated or slid too far.
func refreshPoints(points []ContactPoint, normal mgl64.Vec3, a, b engine.EntityID, poses func(engine.EntityID) (Pose, bool)) []ContactPoint {
	poseA, okA := poses(a)
	poseB, okB := poses(b)
	if !okA || !okB {
		return nil
	}
	kept := make([]ContactPoint, 0, len(points))
	for _, p := range points {
		wa := poseA.ToWorld(p.LocalA)
		wb := poseB.ToWorld(p.LocalB)
		d := wa.Sub(wb)
		pen := d.Dot(normal)
		drift := d.Sub(normal.Mul(pen))
		if pen < -contactBreakingDistance || drift.Len() > contactBreakingDistance {
			continue
		}
		p.Position = wa.Add(wb).Mul(0.5)
		p.Normal = normal
		p.Penetration = pen
		kept = append(kept, p)
	}
	return kept
}

func matchPoint(old []ContactPoint, p ContactPoint) int {
	best := -1
	bestDist := contactMatchDistance * contactMatchDistance
	for i, o := range old {
		d := o.LocalA.Sub(p.LocalA).LenSqr()
		if db := o.LocalB.Sub(p.LocalB).LenSqr(); db > d {
			d = db
		}
		if d <= bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
