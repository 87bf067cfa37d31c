package physics

import (
	"github.com/go-gl/mathgl/mgl64"
)

const gjkMaxIterations = 64

// supportFn returns the farthest world point of a convex shape along dir.
type supportFn func(dir mgl64.Vec3) mgl64.Vec3

// supportPoint is a vertex of the Minkowski difference A - B together with
// the two shape vertices that produced it, so EPA can recover witness points.
type supportPoint struct {
	v mgl64.Vec3
	a mgl64.Vec3
	b mgl64.Vec3
}

func minkowskiSupport(sa, sb supportFn, dir mgl64.Vec3) supportPoint {
	a := sa(dir)
	b := sb(dir.Mul(-1))
	return supportPoint{v: a.Sub(b), a: a, b: b}
}

// simplex holds 1-4 points; the most recent point is last.
type simplex struct {
	pts [4]supportPoint
	n   int
}

func (s *simplex) push(p supportPoint) {
	s.pts[s.n] = p
	s.n++
}

func (s *simplex) set(pts ...supportPoint) {
	s.n = copy(s.pts[:], pts)
}

// gjkIntersect reports whether the shapes overlap. On overlap the simplex
// encloses (or touches) the origin and seeds EPA.
func gjkIntersect(sa, sb supportFn, initial mgl64.Vec3) (simplex, bool) {
	var s simplex
	dir := initial
	if dir.LenSqr() < 1e-12 {
		dir = mgl64.Vec3{1, 0, 0}
	}

	s.push(minkowskiSupport(sa, sb, dir))
	dir = s.pts[0].v.Mul(-1)
	if dir.LenSqr() < 1e-16 {
		return s, true
	}

	for i := 0; i < gjkMaxIterations; i++ {
		p := minkowskiSupport(sa, sb, dir)
		if p.v.Dot(dir) <= 0 {
			return s, false
		}
		s.push(p)
		if s.containsOrigin(&dir) {
			return s, true
		}
		if dir.LenSqr() < 1e-20 {
			// Origin lies on the current feature: touching.
			return s, true
		}
	}
	return s, false
}

func (s *simplex) containsOrigin(dir *mgl64.Vec3) bool {
	switch s.n {
	case 2:
		return s.line(dir)
	case 3:
		return s.triangle(dir)
	case 4:
		return s.tetrahedron(dir)
	}
	return false
}

func (s *simplex) line(dir *mgl64.Vec3) bool {
	a, b := s.pts[1], s.pts[0]
	ab := b.v.Sub(a.v)
	ao := a.v.Mul(-1)

	if ab.LenSqr() < 1e-12 {
		s.set(a)
		*dir = ao
		return ao.LenSqr() < 1e-12
	}
	if ab.Dot(ao) <= 0 {
		s.set(a)
		*dir = ao
		return false
	}
	perp := ab.Cross(ao).Cross(ab)
	if perp.LenSqr() < 1e-16 {
		return true
	}
	*dir = perp
	return false
}

func (s *simplex) triangle(dir *mgl64.Vec3) bool {
	a, b, c := s.pts[2], s.pts[1], s.pts[0]
	ab := b.v.Sub(a.v)
	ac := c.v.Sub(a.v)
	ao := a.v.Mul(-1)
	abc := ab.Cross(ac)

	if abc.LenSqr() < 1e-14 {
		// Collinear: keep the newest edge.
		s.set(b, a)
		return s.line(dir)
	}

	if ab.Cross(abc).Dot(ao) > 0 {
		s.set(b, a)
		*dir = ab.Cross(ao).Cross(ab)
		return false
	}
	if abc.Cross(ac).Dot(ao) > 0 {
		s.set(c, a)
		*dir = ac.Cross(ao).Cross(ac)
		return false
	}

	switch d := abc.Dot(ao); {
	case d > 0:
		*dir = abc
	case d < 0:
		s.set(b, c, a)
		*dir = abc.Mul(-1)
	default:
		return true
	}
	return false
}

func (s *simplex) tetrahedron(dir *mgl64.Vec3) bool {
	a, b, c, d := s.pts[3], s.pts[2], s.pts[1], s.pts[0]
	ab := b.v.Sub(a.v)
	ac := c.v.Sub(a.v)
	ad := d.v.Sub(a.v)
	ao := a.v.Mul(-1)

	// Face normals oriented away from the opposite vertex
	abc := ab.Cross(ac)
	if abc.Dot(ad) > 0 {
		abc = abc.Mul(-1)
	}
	acd := ac.Cross(ad)
	if acd.Dot(ab) > 0 {
		acd = acd.Mul(-1)
	}
	adb := ad.Cross(ab)
	if adb.Dot(ac) > 0 {
		adb = adb.Mul(-1)
	}

	if abc.LenSqr() < 1e-14 || acd.LenSqr() < 1e-14 || adb.LenSqr() < 1e-14 {
		s.set(c, b, a)
		return s.triangle(dir)
	}

	switch {
	case abc.Dot(ao) > 0:
		s.set(c, b, a)
		return s.triangle(dir)
	case acd.Dot(ao) > 0:
		s.set(d, c, a)
		return s.triangle(dir)
	case adb.Dot(ao) > 0:
		s.set(b, d, a)
		return s.triangle(dir)
	}
	return true
}

var searchAxes = [6]mgl64.Vec3{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// completeSimplex grows a touching simplex into a tetrahedron so EPA has a
// volume to expand. Reports false when the Minkowski difference is flat.
func completeSimplex(sa, sb supportFn, s *simplex) bool {
	const eps = 1e-10

	if s.n == 1 {
		for _, axis := range searchAxes {
			p := minkowskiSupport(sa, sb, axis)
			if p.v.Sub(s.pts[0].v).LenSqr() > eps {
				s.push(p)
				break
			}
		}
		if s.n == 1 {
			return false
		}
	}

	if s.n == 2 {
		ab := s.pts[1].v.Sub(s.pts[0].v)
		added := false
		for _, axis := range searchAxes {
			perp := ab.Cross(axis)
			if perp.LenSqr() < eps {
				continue
			}
			for _, d := range [2]mgl64.Vec3{perp, perp.Mul(-1)} {
				p := minkowskiSupport(sa, sb, d)
				if ab.Cross(p.v.Sub(s.pts[0].v)).LenSqr() > eps {
					s.push(p)
					added = true
					break
				}
			}
			if added {
				break
			}
		}
		if !added {
			return false
		}
	}

	if s.n == 3 {
		n := s.pts[1].v.Sub(s.pts[0].v).Cross(s.pts[2].v.Sub(s.pts[0].v))
		if n.LenSqr() < eps {
			return false
		}
		added := false
		for _, d := range [2]mgl64.Vec3{n, n.Mul(-1)} {
			p := minkowskiSupport(sa, sb, d)
			if abs(p.v.Sub(s.pts[0].v).Dot(n)) > 1e-9*n.Len() {
				s.push(p)
				added = true
				break
			}
		}
		if !added {
			return false
		}
	}
	return s.n == 4
}
