package physics

import (
	"math/rand/v2"
	"testing"

	"rigid3d/internal/engine"
	"rigid3d/internal/geom"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomBoxes(rng *rand.Rand, n int) ([]engine.EntityID, []geom.AABB3D) {
	ids := make([]engine.EntityID, n)
	boxes := make([]geom.AABB3D, n)
	for i := range n {
		ids[i] = engine.EntityID(i + 1)
		center := mgl64.Vec3{rng.Float64()*40 - 20, rng.Float64()*40 - 20, rng.Float64()*40 - 20}
		half := mgl64.Vec3{rng.Float64() * 3, rng.Float64() * 3, rng.Float64() * 3}
		boxes[i] = geom.NewAABBFromCenter(center, half)
	}
	return ids, boxes
}

func TestQueryPairsMatchesBruteForce(t *testing.T) {
	for _, cellSize := range []float64{0.25, 1, 2, 8, 100} {
		rng := rand.New(rand.NewPCG(7, uint64(cellSize*100)))
		ids, boxes := randomBoxes(rng, 300)

		g := NewSpatialHashGrid(cellSize)
		for i, id := range ids {
			g.Insert(id, boxes[i])
		}

		want := BruteForcePairs(ids, boxes)
		got := g.QueryPairs()
		require.NotEmpty(t, want)
		assert.Equal(t, want, got, "cell size %v", cellSize)
	}
}

func TestQueryPairsUniqueAndCanonical(t *testing.T) {
	g := NewSpatialHashGrid(1)
	big := geom.NewAABBFromCenter(mgl64.Vec3{}, mgl64.Vec3{5, 5, 5})
	g.Insert(9, big)
	g.Insert(3, big)

	pairs := g.QueryPairs()
	require.Len(t, pairs, 1)
	assert.Equal(t, CollisionPair{A: 3, B: 9}, pairs[0])
}

func TestZeroSizeEntityOccupiesOneCell(t *testing.T) {
	g := NewSpatialHashGrid(2)
	p := mgl64.Vec3{1.5, -0.5, 3}
	g.Insert(1, geom.AABB3D{Min: p, Max: p})

	assert.Len(t, g.cells, 1)
	assert.Equal(t, []engine.EntityID{1}, g.QueryAABB(geom.NewAABBFromCenter(p, mgl64.Vec3{0.1, 0.1, 0.1})))
}

func TestCellBoundariesInclusive(t *testing.T) {
	g := NewSpatialHashGrid(1)
	// Touching exactly at x=1, which is also a cell boundary.
	g.Insert(1, geom.AABB3D{Min: mgl64.Vec3{0, 0, 0}, Max: mgl64.Vec3{1, 0.5, 0.5}})
	g.Insert(2, geom.AABB3D{Min: mgl64.Vec3{1, 0, 0}, Max: mgl64.Vec3{2, 0.5, 0.5}})

	assert.Equal(t, BruteForcePairs([]engine.EntityID{1, 2}, []geom.AABB3D{g.aabbs[1], g.aabbs[2]}), g.QueryPairs())
}

func TestOversizedEntityStillPaired(t *testing.T) {
	g := NewSpatialHashGrid(0.1)
	g.Insert(1, geom.NewAABBFromCenter(mgl64.Vec3{}, mgl64.Vec3{100, 1, 100}))
	g.Insert(2, geom.NewAABBFromCenter(mgl64.Vec3{50, 1, 50}, mgl64.Vec3{0.5, 0.5, 0.5}))
	g.Insert(3, geom.NewAABBFromCenter(mgl64.Vec3{50, 50, 50}, mgl64.Vec3{0.5, 0.5, 0.5}))

	assert.Equal(t, []CollisionPair{{A: 1, B: 2}}, g.QueryPairs())
}

func TestGridClearKeepsNothing(t *testing.T) {
	g := NewSpatialHashGrid(1)
	g.Insert(1, geom.NewAABBFromCenter(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}))
	g.Insert(2, geom.NewAABBFromCenter(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}))
	g.Clear()

	assert.Zero(t, g.Len())
	assert.Empty(t, g.QueryPairs())
	_, ok := g.AABB(1)
	assert.False(t, ok)
}

func TestCellKeyHashDistinguishesNeighbours(t *testing.T) {
	seen := make(map[uint64]CellKey)
	for x := int64(-3); x <= 3; x++ {
		for y := int64(-3); y <= 3; y++ {
			for z := int64(-3); z <= 3; z++ {
				k := CellKey{x, y, z}
				h := k.Hash()
				prev, dup := seen[h]
				require.False(t, dup, "%v and %v collide", prev, k)
				seen[h] = k
			}
		}
	}
}
