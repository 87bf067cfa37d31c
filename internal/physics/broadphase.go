package physics

import (
	"encoding/binary"
	"math"
	"slices"

	"rigid3d/internal/engine"
	"rigid3d/internal/geom"

	"github.com/cespare/xxhash/v2"
)

// maxCellsPerEntity bounds how many cells one AABB may be hashed into.
// Larger boxes (floors, terrain slabs) go to the oversized list instead.
const maxCellsPerEntity = 4096

// CellKey is an integer grid coordinate.
type CellKey struct {
	X, Y, Z int64
}

// Hash packs the coordinate and hashes it into a bucket key.
// Distinct cells that collide in the hash share a bucket; pairs are
// always re-verified against the stored AABBs, so this only costs time.
func (k CellKey) Hash() uint64 {
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:], uint64(k.X))
	binary.LittleEndian.PutUint64(buf[8:], uint64(k.Y))
	binary.LittleEndian.PutUint64(buf[16:], uint64(k.Z))
	return xxhash.Sum64(buf[:])
}

// CollisionPair is an unordered candidate pair stored as (min, max).
type CollisionPair struct {
	A, B engine.EntityID
}

// MakePair creates a consistent collision pair (smaller id first)
func MakePair(a, b engine.EntityID) CollisionPair {
	if a > b {
		return CollisionPair{A: b, B: a}
	}
	return CollisionPair{A: a, B: b}
}

func (p CollisionPair) Other(id engine.EntityID) engine.EntityID {
	if p.A == id {
		return p.B
	}
	return p.A
}

// SpatialHashGrid is a uniform grid rebuilt from scratch every step.
type SpatialHashGrid struct {
	CellSize float64

	cells     map[uint64][]engine.EntityID
	aabbs     map[engine.EntityID]geom.AABB3D
	order     []engine.EntityID
	oversized []engine.EntityID
}

func NewSpatialHashGrid(cellSize float64) *SpatialHashGrid {
	return &SpatialHashGrid{
		CellSize: cellSize,
		cells:    make(map[uint64][]engine.EntityID),
		aabbs:    make(map[engine.EntityID]geom.AABB3D),
	}
}

// Clear empties the grid. Buckets used last step keep their allocation;
// buckets that stayed empty for a whole step are dropped.
func (g *SpatialHashGrid) Clear() {
	for k, bucket := range g.cells {
		if len(bucket) == 0 {
			delete(g.cells, k)
			continue
		}
		g.cells[k] = bucket[:0]
	}
	clear(g.aabbs)
	g.order = g.order[:0]
	g.oversized = g.oversized[:0]
}

func (g *SpatialHashGrid) Len() int {
	return len(g.order)
}

func (g *SpatialHashGrid) AABB(id engine.EntityID) (geom.AABB3D, bool) {
	box, ok := g.aabbs[id]
	return box, ok
}

func (g *SpatialHashGrid) cellOf(v float64) int64 {
	return int64(math.Floor(v / g.CellSize))
}

func (g *SpatialHashGrid) cellRange(box geom.AABB3D) (lo, hi CellKey) {
	lo = CellKey{g.cellOf(box.Min.X()), g.cellOf(box.Min.Y()), g.cellOf(box.Min.Z())}
	hi = CellKey{g.cellOf(box.Max.X()), g.cellOf(box.Max.Y()), g.cellOf(box.Max.Z())}
	return lo, hi
}

func cellCount(lo, hi CellKey) int64 {
	return (hi.X - lo.X + 1) * (hi.Y - lo.Y + 1) * (hi.Z - lo.Z + 1)
}

// Insert hashes every cell the AABB spans, both ends inclusive.
// A zero-size box lands in exactly one cell.
func (g *SpatialHashGrid) Insert(id engine.EntityID, box geom.AABB3D) {
	g.aabbs[id] = box
	g.order = append(g.order, id)

	lo, hi := g.cellRange(box)
	if n := cellCount(lo, hi); n <= 0 || n > maxCellsPerEntity {
		g.oversized = append(g.oversized, id)
		return
	}
	for x := lo.X; x <= hi.X; x++ {
		for y := lo.Y; y <= hi.Y; y++ {
			for z := lo.Z; z <= hi.Z; z++ {
				h := CellKey{x, y, z}.Hash()
				g.cells[h] = append(g.cells[h], id)
			}
		}
	}
}

// QueryPairs returns every pair whose stored AABBs overlap, each exactly once,
// sorted so that downstream solving is independent of map iteration order.
func (g *SpatialHashGrid) QueryPairs() []CollisionPair {
	seen := make(map[CollisionPair]struct{})
	var pairs []CollisionPair

	consider := func(a, b engine.EntityID) {
		if a == b {
			return
		}
		p := MakePair(a, b)
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		if g.aabbs[a].Intersects(g.aabbs[b]) {
			pairs = append(pairs, p)
		}
	}

	for _, bucket := range g.cells {
		for i := 0; i < len(bucket); i++ {
			for j := i + 1; j < len(bucket); j++ {
				consider(bucket[i], bucket[j])
			}
		}
	}
	for _, big := range g.oversized {
		for _, id := range g.order {
			consider(big, id)
		}
	}

	slices.SortFunc(pairs, comparePairs)
	return pairs
}

// QueryAABB lists entities whose stored AABB overlaps box, in insertion order.
func (g *SpatialHashGrid) QueryAABB(box geom.AABB3D) []engine.EntityID {
	found := make(map[engine.EntityID]struct{})
	lo, hi := g.cellRange(box)
	if n := cellCount(lo, hi); n > 0 && n <= maxCellsPerEntity {
		for x := lo.X; x <= hi.X; x++ {
			for y := lo.Y; y <= hi.Y; y++ {
				for z := lo.Z; z <= hi.Z; z++ {
					for _, id := range g.cells[CellKey{x, y, z}.Hash()] {
						found[id] = struct{}{}
					}
				}
			}
		}
		for _, id := range g.oversized {
			found[id] = struct{}{}
		}
	} else {
		for _, id := range g.order {
			found[id] = struct{}{}
		}
	}

	var out []engine.EntityID
	for _, id := range g.order {
		if _, ok := found[id]; ok && g.aabbs[id].Intersects(box) {
			out = append(out, id)
		}
	}
	return out
}

func comparePairs(a, b CollisionPair) int {
	switch {
	case a.A < b.A:
		return -1
	case a.A > b.A:
		return 1
	case a.B < b.B:
		return -1
	case a.B > b.B:
		return 1
	}
	return 0
}

// BruteForcePairs is the O(n^2) reference the grid is measured against.
func BruteForcePairs(ids []engine.EntityID, boxes []geom.AABB3D) []CollisionPair {
	var pairs []CollisionPair
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if boxes[i].Intersects(boxes[j]) {
				pairs = append(pairs, MakePair(ids[i], ids[j]))
			}
		}
	}
	slices.SortFunc(pairs, comparePairs)
	return pairs
}
