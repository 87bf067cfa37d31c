// Stress test comparing spatial-hash vs brute-force broad-phase, then timing
// full world steps at the same body counts.
package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"rigid3d/internal/components"
	"rigid3d/internal/engine"
	"rigid3d/internal/geom"
	"rigid3d/internal/logging"
	"rigid3d/internal/physics"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "physics config YAML (defaults when empty)")
	steps := flag.Int("steps", 120, "world steps per body count")
	workers := flag.Int("workers", 0, "narrowphase workers, overrides the config when > 0")
	flag.Parse()

	logger := logging.New(logging.Options{Level: logging.LevelWarn})
	defer logger.Sync()

	cfg := physics.DefaultConfig()
	if *configPath != "" {
		f, err := os.Open(*configPath)
		if err != nil {
			logger.Fatal("open config", zap.Error(err))
		}
		cfg, err = physics.LoadConfig(f)
		f.Close()
		if err != nil {
			logger.Fatal("load config", zap.Error(err))
		}
	}
	if *steps < 1 {
		*steps = 1
	}
	if *workers > 0 {
		cfg.NarrowphaseWorkers = *workers
	}

	// Test various object counts
	testCounts := []int{100, 500, 1000, 2000, 5000}

	fmt.Println("broadphase")
	for _, count := range testCounts {
		testBroadPhase(count, cfg.CellSize)
	}

	fmt.Printf("\nworld (%d steps, %d workers)\n", *steps, cfg.NarrowphaseWorkers)
	for _, count := range testCounts {
		testWorld(count, *steps, cfg, logger)
	}
}

// randomBoxes spawns spheres in a cube whose size scales with count to keep density reasonable.
func randomBoxes(count int) ([]engine.EntityID, []geom.AABB3D) {
	rng := rand.New(rand.NewPCG(42, 42)) // Consistent results
	spawnSize := 50.0 + float64(count)/100.0

	ids := make([]engine.EntityID, count)
	boxes := make([]geom.AABB3D, count)
	for i := range boxes {
		center := mgl64.Vec3{
			rng.Float64()*spawnSize - spawnSize/2,
			rng.Float64()*spawnSize - spawnSize/2,
			rng.Float64()*spawnSize - spawnSize/2,
		}
		r := 0.5 + rng.Float64()*0.5 // 0.5 to 1.0 radius
		ids[i] = engine.EntityID(i + 1)
		boxes[i] = geom.NewAABBFromCenter(center, mgl64.Vec3{r, r, r})
	}
	return ids, boxes
}

func testBroadPhase(count int, cellSize float64) {
	ids, boxes := randomBoxes(count)
	grid := physics.NewSpatialHashGrid(cellSize)

	const iterations = 10
	gridStart := time.Now()
	var gridPairs []physics.CollisionPair
	for range iterations {
		grid.Clear()
		for i, id := range ids {
			grid.Insert(id, boxes[i])
		}
		gridPairs = grid.QueryPairs()
	}
	gridTime := time.Since(gridStart) / iterations

	bruteStart := time.Now()
	var brutePairs []physics.CollisionPair
	for range iterations {
		brutePairs = physics.BruteForcePairs(ids, boxes)
	}
	bruteTime := time.Since(bruteStart) / iterations

	speedup := float64(bruteTime) / float64(gridTime)
	match := "ok"
	if len(gridPairs) != len(brutePairs) {
		match = "MISMATCH"
	}

	fmt.Printf("%5d objects: grid %10v (%5d pairs) | brute %10v (%5d pairs) | %.1fx speedup %s\n",
		count, gridTime.Round(time.Microsecond), len(gridPairs),
		bruteTime.Round(time.Microsecond), len(brutePairs), speedup, match)
}

// testWorld drops count spheres onto a floor and times fixed steps.
func testWorld(count, steps int, cfg physics.Config, logger *zap.Logger) {
	reg := engine.NewRegistry("stress")
	floor := reg.Spawn("floor")
	floor.Transform.Position = mgl64.Vec3{0, -0.5, 0}
	floor.AddComponent(components.NewBoxCollider(mgl64.Vec3{200, 0.5, 200}))

	_, boxes := randomBoxes(count)
	for i, box := range boxes {
		e := reg.Spawn(fmt.Sprintf("body_%d", i))
		center := box.Center()
		// Lift everything above the floor.
		e.Transform.Position = mgl64.Vec3{center.X(), center.Y() + 100, center.Z()}
		e.AddComponent(components.NewSphereCollider(box.HalfExtents().X()))
		e.AddComponent(components.NewRigidbody())
	}

	w := physics.NewWorld(reg, cfg, physics.WithLogger(logger))
	start := time.Now()
	var worst time.Duration
	for range steps {
		stepStart := time.Now()
		w.StepFixed()
		worst = max(worst, time.Since(stepStart))
	}
	avg := time.Since(start) / time.Duration(steps)
	s := w.Stats()

	fmt.Printf("%5d bodies: avg %10v worst %10v | pairs %5d manifolds %5d islands %5d sleeping %5d\n",
		count, avg.Round(time.Microsecond), worst.Round(time.Microsecond),
		s.CandidatePairs, s.Manifolds, s.Islands, s.Sleeping)
}
