package physics

import (
	"rigid3d/internal/components"
	"rigid3d/internal/engine"

	"go.uber.org/zap"
)

// SimulationIsland is a set of dynamic bodies linked by contacts or joints.
// Static bodies never join islands, so two stacks on one floor stay separate.
type SimulationIsland struct {
	Entities []engine.EntityID
}

// islandBuilder is an arena union-find over a dense body index.
type islandBuilder struct {
	index  map[engine.EntityID]int32
	bodies []engine.EntityID
	parent []int32
	rank   []uint8
}

func newIslandBuilder(bodies []engine.EntityID) *islandBuilder {
	b := &islandBuilder{
		index:  make(map[engine.EntityID]int32, len(bodies)),
		bodies: bodies,
		parent: make([]int32, len(bodies)),
		rank:   make([]uint8, len(bodies)),
	}
	for i, id := range bodies {
		b.index[id] = int32(i)
		b.parent[i] = int32(i)
	}
	return b
}

func (b *islandBuilder) find(i int32) int32 {
	for b.parent[i] != i {
		b.parent[i] = b.parent[b.parent[i]]
		i = b.parent[i]
	}
	return i
}

// link joins the islands of two entities. Entities outside the arena are ignored.
func (b *islandBuilder) link(x, y engine.EntityID) {
	i, okA := b.index[x]
	j, okB := b.index[y]
	if !okA || !okB {
		return
	}
	ri, rj := b.find(i), b.find(j)
	if ri == rj {
		return
	}
	switch {
	case b.rank[ri] < b.rank[rj]:
		b.parent[ri] = rj
	case b.rank[ri] > b.rank[rj]:
		b.parent[rj] = ri
	default:
		b.parent[rj] = ri
		b.rank[ri]++
	}
}

// islands groups the bodies, each island and its members in body order.
func (b *islandBuilder) islands() []SimulationIsland {
	slot := make(map[int32]int)
	var out []SimulationIsland
	for i, id := range b.bodies {
		root := b.find(int32(i))
		k, ok := slot[root]
		if !ok {
			k = len(out)
			slot[root] = k
			out = append(out, SimulationIsland{})
		}
		out[k].Entities = append(out[k].Entities, id)
	}
	return out
}

// BuildIslands partitions bodies into islands connected by the manifolds and
// the unbroken joints.
func BuildIslands(bodies []engine.EntityID, manifolds []*ContactManifold, joints []Joint) []SimulationIsland {
	b := newIslandBuilder(bodies)
	for _, m := range manifolds {
		b.link(m.EntityA, m.EntityB)
	}
	for _, j := range joints {
		if j.Broken() {
			continue
		}
		b.link(j.Bodies())
	}
	return b.islands()
}

// updateSleep puts to sleep every island whose bodies have all been at rest long enough.
func (w *World) updateSleep(islands []SimulationIsland) {
	for _, island := range islands {
		if !w.islandResting(island) {
			continue
		}
		for _, id := range island.Entities {
			if rb, ok := engine.Lookup[*components.Rigidbody](w.reg, id); ok {
				rb.Sleep()
			}
			w.sleepGroups[id] = island.Entities
		}
		w.logger.Debug("island asleep",
			zap.Int("bodies", len(island.Entities)),
			zap.Uint64("first", uint64(island.Entities[0])))
	}
}

func (w *World) islandResting(island SimulationIsland) bool {
	for _, id := range island.Entities {
		rb, ok := engine.Lookup[*components.Rigidbody](w.reg, id)
		if !ok || !rb.CanSleep || rb.SleepTimer < w.cfg.SleepTime {
			return false
		}
	}
	return len(island.Entities) > 0
}

// wakeGroup wakes id together with every body it fell asleep with.
func (w *World) wakeGroup(id engine.EntityID) {
	group, ok := w.sleepGroups[id]
	if !ok {
		group = []engine.EntityID{id}
	}
	for _, member := range group {
		delete(w.sleepGroups, member)
		if rb, ok := engine.Lookup[*components.Rigidbody](w.reg, member); ok && (rb.IsSleeping || member == id) {
			rb.Wake()
		}
	}
	if ok {
		w.logger.Debug("island awake",
			zap.Int("bodies", len(group)),
			zap.Uint64("trigger", uint64(id)))
	}
}

// Wake wakes the entity and the island it sleeps with.
func (w *World) Wake(id engine.EntityID) {
	w.wakeGroup(id)
}
