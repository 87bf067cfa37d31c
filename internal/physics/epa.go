package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	epaMaxIterations = 64
	epaTolerance     = 1e-6
)

type epaFace struct {
	i, j, k  int
	normal   mgl64.Vec3
	distance float64
}

type epaEdge struct {
	a, b int
}

// epaResult is the penetration recovered from the polytope: normal points
// from A to B, pointA / pointB are the deepest points on each shape.
type epaResult struct {
	normal    mgl64.Vec3
	depth     float64
	pointA    mgl64.Vec3
	pointB    mgl64.Vec3
	converged bool
}

// newEPAFace orients the face away from inside, a point strictly inside the polytope.
func newEPAFace(verts []supportPoint, inside mgl64.Vec3, i, j, k int) (epaFace, bool) {
	a, b, c := verts[i].v, verts[j].v, verts[k].v
	n := b.Sub(a).Cross(c.Sub(a))
	l := n.Len()
	if l < 1e-12 {
		return epaFace{}, false
	}
	n = n.Mul(1 / l)
	if n.Dot(a.Sub(inside)) < 0 {
		n = n.Mul(-1)
		j, k = k, j
	}
	return epaFace{i: i, j: j, k: k, normal: n, distance: n.Dot(a)}, true
}

// expandPolytope runs EPA from a tetrahedron that contains the origin.
func expandPolytope(sa, sb supportFn, s simplex) (epaResult, bool) {
	verts := make([]supportPoint, 0, 32)
	verts = append(verts, s.pts[:4]...)

	inside := verts[0].v.Add(verts[1].v).Add(verts[2].v).Add(verts[3].v).Mul(0.25)

	faces := make([]epaFace, 0, 32)
	for _, tri := range [4][3]int{{0, 1, 2}, {0, 3, 1}, {0, 2, 3}, {1, 3, 2}} {
		if f, ok := newEPAFace(verts, inside, tri[0], tri[1], tri[2]); ok {
			faces = append(faces, f)
		}
	}
	if len(faces) < 4 {
		return epaResult{}, false
	}

	var closest epaFace
	for iter := 0; iter < epaMaxIterations; iter++ {
		closest = faces[0]
		for _, f := range faces[1:] {
			if f.distance < closest.distance {
				closest = f
			}
		}

		p := minkowskiSupport(sa, sb, closest.normal)
		if p.v.Dot(closest.normal)-closest.distance < epaTolerance {
			return epaWitness(verts, closest, true), true
		}

		newIndex := len(verts)
		verts = append(verts, p)

		// Remove every face the new point can see and keep the horizon.
		var horizon []epaEdge
		kept := faces[:0]
		for _, f := range faces {
			if f.normal.Dot(p.v.Sub(verts[f.i].v)) > 0 {
				horizon = toggleEdge(horizon, epaEdge{f.i, f.j})
				horizon = toggleEdge(horizon, epaEdge{f.j, f.k})
				horizon = toggleEdge(horizon, epaEdge{f.k, f.i})
				continue
			}
			kept = append(kept, f)
		}
		faces = kept

		for _, e := range horizon {
			if f, ok := newEPAFace(verts, inside, e.a, e.b, newIndex); ok {
				faces = append(faces, f)
			}
		}
		if len(faces) == 0 {
			return epaWitness(verts, closest, false), true
		}
	}
	return epaWitness(verts, closest, false), true
}

// toggleEdge adds e unless its reverse is present, in which case both cancel.
func toggleEdge(edges []epaEdge, e epaEdge) []epaEdge {
	for i, x := range edges {
		if x.a == e.b && x.b == e.a {
			return append(edges[:i], edges[i+1:]...)
		}
	}
	return append(edges, e)
}

func epaWitness(verts []supportPoint, f epaFace, converged bool) epaResult {
	a, b, c := verts[f.i], verts[f.j], verts[f.k]
	u, v, w := barycentric(f.normal.Mul(f.distance), a.v, b.v, c.v)
	return epaResult{
		normal:    f.normal,
		depth:     f.distance,
		pointA:    a.a.Mul(u).Add(b.a.Mul(v)).Add(c.a.Mul(w)),
		pointB:    a.b.Mul(u).Add(b.b.Mul(v)).Add(c.b.Mul(w)),
		converged: converged,
	}
}

// barycentric coordinates of p with respect to triangle abc.
func barycentric(p, a, b, c mgl64.Vec3) (u, v, w float64) {
	v0 := b.Sub(a)
	v1 := c.Sub(a)
	v2 := p.Sub(a)
	d00 := v0.Dot(v0)
	d01 := v0.Dot(v1)
	d11 := v1.Dot(v1)
	d20 := v2.Dot(v0)
	d21 := v2.Dot(v1)
	denom := d00*d11 - d01*d01
	if math.Abs(denom) < 1e-18 {
		return 1, 0, 0
	}
	v = (d11*d20 - d01*d21) / denom
	w = (d00*d21 - d01*d20) / denom
	u = 1 - v - w
	return u, v, w
}
