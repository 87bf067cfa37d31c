package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Plane is n·x = d with an outward unit normal.
type Plane struct {
	Normal mgl64.Vec3
	D      float64
}

const planeEpsilon = 1e-7

// Planes returns the local-space face planes of the hull. They are derived once
// by brute force over vertex triples, so keep hulls small.
func (h *ConvexHullShape) Planes() []Plane {
	h.planesOnce.Do(func() {
		h.planes = hullPlanes(h.Vertices)
	})
	return h.planes
}

func hullPlanes(verts []mgl64.Vec3) []Plane {
	var planes []Plane
	n := len(verts)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				normal := verts[j].Sub(verts[i]).Cross(verts[k].Sub(verts[i]))
				if normal.Len() < planeEpsilon {
					continue
				}
				normal = normal.Normalize()
				d := normal.Dot(verts[i])

				above, below := false, false
				for _, v := range verts {
					s := normal.Dot(v) - d
					if s > planeEpsilon {
						above = true
					} else if s < -planeEpsilon {
						below = true
					}
				}
				if above && below {
					continue
				}
				if above {
					normal, d = normal.Mul(-1), -d
				}
				if !containsPlane(planes, normal, d) {
					planes = append(planes, Plane{Normal: normal, D: d})
				}
			}
		}
	}
	return planes
}

func containsPlane(planes []Plane, n mgl64.Vec3, d float64) bool {
	for _, p := range planes {
		if p.Normal.Dot(n) > 1-1e-6 && math.Abs(p.D-d) < 1e-6 {
			return true
		}
	}
	return false
}
