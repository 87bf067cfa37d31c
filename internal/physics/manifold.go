package physics

import (
	"rigid3d/internal/engine"

	"github.com/go-gl/mathgl/mgl64"
)

const maxManifoldPoints = 4

// ContactPoint is one point of contact between two bodies.
type ContactPoint struct {
	Position    mgl64.Vec3 // world, midway between the two surfaces
	Normal      mgl64.Vec3 // A -> B
	Penetration float64    // >= 0 when overlapping; cached points may go slightly negative

	// Surface points in each entity's local frame. Used to refresh cached
	// points as bodies move and to match points across frames.
	LocalA mgl64.Vec3
	LocalB mgl64.Vec3

	// Accumulated impulses, carried between frames for warm-starting.
	NormalImpulse   float64
	TangentImpulse1 float64
	TangentImpulse2 float64

	// Solver scratch, recomputed every step.
	rA, rB       mgl64.Vec3
	tangent1     mgl64.Vec3
	tangent2     mgl64.Vec3
	normalMass   float64
	tangentMass1 float64
	tangentMass2 float64
	bias         float64
}

// ContactManifold groups up to four points sharing one normal.
// EntityA / EntityB are not canonicalized; Normal points from A to B.
type ContactManifold struct {
	EntityA     engine.EntityID
	EntityB     engine.EntityID
	Normal      mgl64.Vec3
	Points      []ContactPoint
	Friction    float64
	Restitution float64
}

// Pair returns the canonical pair key for the manifold.
func (m *ContactManifold) Pair() CollisionPair {
	return MakePair(m.EntityA, m.EntityB)
}

// MaxPenetration is the deepest point's penetration, or 0 for an empty manifold.
func (m *ContactManifold) MaxPenetration() float64 {
	best := 0.0
	for i, p := range m.Points {
		if i == 0 || p.Penetration > best {
			best = p.Penetration
		}
	}
	return best
}

// TotalNormalImpulse sums accumulated normal impulses.
func (m *ContactManifold) TotalNormalImpulse() float64 {
	total := 0.0
	for _, p := range m.Points {
		total += p.NormalImpulse
	}
	return total
}

// flipped returns a copy with A and B swapped and the normal negated.
func (m *ContactManifold) flipped() *ContactManifold {
	out := &ContactManifold{
		EntityA:     m.EntityB,
		EntityB:     m.EntityA,
		Normal:      m.Normal.Mul(-1),
		Friction:    m.Friction,
		Restitution: m.Restitution,
		Points:      make([]ContactPoint, len(m.Points)),
	}
	for i, p := range m.Points {
		p.Normal = p.Normal.Mul(-1)
		p.LocalA, p.LocalB = p.LocalB, p.LocalA
		out.Points[i] = p
	}
	return out
}

// reduceToFour keeps the deepest point, then greedily adds the points that
// maximize the contact polygon area. Input order is otherwise irrelevant.
func reduceToFour(points []ContactPoint, normal mgl64.Vec3) []ContactPoint {
	if len(points) <= maxManifoldPoints {
		return points
	}

	chosen := make([]int, 0, maxManifoldPoints)
	used := make([]bool, len(points))

	deepest := 0
	for i, p := range points {
		if p.Penetration > points[deepest].Penetration {
			deepest = i
		}
	}
	chosen = append(chosen, deepest)
	used[deepest] = true

	// Farthest from the deepest point
	pick(points, used, &chosen, func(p mgl64.Vec3) float64 {
		return p.Sub(points[chosen[0]].Position).LenSqr()
	})
	// Largest triangle with the first two
	pick(points, used, &chosen, func(p mgl64.Vec3) float64 {
		a, b := points[chosen[0]].Position, points[chosen[1]].Position
		return abs(b.Sub(a).Cross(p.Sub(a)).Dot(normal))
	})
	// Largest area added on the far side of any triangle edge
	pick(points, used, &chosen, func(p mgl64.Vec3) float64 {
		a, b, c := points[chosen[0]].Position, points[chosen[1]].Position, points[chosen[2]].Position
		best := 0.0
		for _, e := range [3][2]mgl64.Vec3{{a, b}, {b, c}, {c, a}} {
			area := -e[1].Sub(e[0]).Cross(p.Sub(e[0])).Dot(normal)
			if area > best {
				best = area
			}
			if -area > best {
				best = -area
			}
		}
		return best
	})

	out := make([]ContactPoint, 0, maxManifoldPoints)
	for _, i := range chosen {
		out = append(out, points[i])
	}
	return out
}

func pick(points []ContactPoint, used []bool, chosen *[]int, score func(mgl64.Vec3) float64) {
	best := -1
	bestScore := -1.0
	for i, p := range points {
		if used[i] {
			continue
		}
		if s := score(p.Position); s > bestScore {
			best, bestScore = i, s
		}
	}
	if best >= 0 {
		used[best] = true
		*chosen = append(*chosen, best)
	}
}
