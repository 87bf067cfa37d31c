package game

import (
	"fmt"
	"time"

	"rigid3d/internal/camera"
	"rigid3d/internal/debugdraw"
	"rigid3d/internal/engine"
	"rigid3d/internal/physics"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// maxFrameDt caps the frame time handed to the physics accumulator, so a
// stalled window does not queue a burst of substeps.
const maxFrameDt = 0.25

type Game struct {
	Registry *engine.Registry
	World    *physics.World
	Scene    *Scene
	Camera   *camera.OrbitCamera
	Overlay  debugdraw.Options

	Paused      bool
	stepOnce    bool
	shotCounter int

	// Event counters shown in the HUD
	triggerEnters int
	triggerExits  int
	collisions    int

	logger *zap.Logger

	// Debug timing (ms)
	updateMs float64
	drawMs   float64

	lastShotTime float64
}

func New(cfg physics.Config, logger *zap.Logger) *Game {
	reg := engine.NewRegistry("demo")
	w := physics.NewWorld(reg, cfg, physics.WithLogger(logger))
	g := &Game{
		Registry: reg,
		World:    w,
		Camera:   camera.New(rl.Vector3{X: 0, Y: 1, Z: 0}),
		Overlay:  debugdraw.DefaultOptions(),
		logger:   logger,
	}
	g.Scene = BuildScene(reg, w)
	g.hookEvents()
	return g
}

func (g *Game) hookEvents() {
	g.World.OnTriggerEnter.AddListener(func(ev physics.ContactEvent) {
		g.triggerEnters++
		g.logger.Debug("trigger enter", zap.Uint64("a", uint64(ev.A)), zap.Uint64("b", uint64(ev.B)))
	})
	g.World.OnTriggerExit.AddListener(func(physics.ContactEvent) {
		g.triggerExits++
	})
	g.World.OnCollisionEnter.AddListener(func(physics.ContactEvent) {
		g.collisions++
	})
}

func (g *Game) Run() {
	rl.SetConfigFlags(rl.FlagWindowHighdpi | rl.FlagMsaa4xHint)
	rl.InitWindow(1280, 720, "rigid3d physics demo")
	defer rl.CloseWindow()

	rl.SetTargetFPS(120)
	initRayguiStyle()

	for !rl.WindowShouldClose() {
		g.Update()
		g.Draw()
	}
}

func (g *Game) Update() {
	updateStart := time.Now()
	deltaTime := rl.GetFrameTime()

	g.Camera.Update(deltaTime)

	if rl.IsKeyPressed(rl.KeyP) {
		g.Paused = !g.Paused
	}
	if rl.IsKeyPressed(rl.KeyN) {
		g.stepOnce = true
	}
	if rl.IsKeyPressed(rl.KeyR) {
		g.Restart()
	}

	// Shoot a CCD sphere toward the camera target (with cooldown)
	const shootCooldown = 0.15
	if rl.IsKeyDown(rl.KeySpace) && rl.GetTime()-g.lastShotTime >= shootCooldown {
		g.Shoot()
		g.lastShotTime = rl.GetTime()
	}

	switch {
	case g.stepOnce:
		g.World.StepFixed()
		g.stepOnce = false
	case !g.Paused:
		g.World.Step(min(float64(deltaTime), maxFrameDt))
	}

	g.updateMs = float64(time.Since(updateStart).Microseconds()) / 1000.0
}

func (g *Game) Draw() {
	cam := g.Camera.GetRaylibCamera()

	rl.BeginDrawing()
	rl.ClearBackground(rl.NewColor(20, 20, 30, 255))

	drawStart := time.Now()
	rl.BeginMode3D(cam)
	rl.DrawGrid(30, 1)
	debugdraw.World(g.World, g.Overlay)
	rl.EndMode3D()
	g.drawMs = float64(time.Since(drawStart).Microseconds()) / 1000.0

	g.DrawUI()
	rl.EndDrawing()
}

// Shoot fires a bullet from the eye toward the orbit target.
func (g *Game) Shoot() {
	g.shotCounter++
	eye := g.Camera.Position()
	target := g.Camera.Target
	from := mgl64.Vec3{float64(eye.X), float64(eye.Y), float64(eye.Z)}
	dir := mgl64.Vec3{float64(target.X), float64(target.Y), float64(target.Z)}.Sub(from)
	SpawnBullet(g.Registry, fmt.Sprintf("Shot_%d", g.shotCounter), from, dir)
}

// Restart rebuilds the scene from scratch, keeping config and listeners.
func (g *Game) Restart() {
	g.Registry.Clear()
	g.World.Reset()
	g.Scene = BuildScene(g.Registry, g.World)
	g.triggerEnters, g.triggerExits, g.collisions = 0, 0, 0
	g.logger.Info("scene restarted")
}
