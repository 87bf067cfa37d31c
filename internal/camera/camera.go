package camera

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// OrbitCamera circles a target point. Right mouse drag orbits, the wheel zooms
// and WASD pans the target on the ground plane.
type OrbitCamera struct {
	Target   rl.Vector3
	Yaw      float32
	Pitch    float32
	Distance float32

	LookSpeed float32
	PanSpeed  float32
	ZoomSpeed float32
}

func New(target rl.Vector3) *OrbitCamera {
	return &OrbitCamera{
		Target:    target,
		Yaw:       -135.0,
		Pitch:     25.0,
		Distance:  22.0,
		LookSpeed: 0.25,
		PanSpeed:  10.0, // Units per second
		ZoomSpeed: 1.5,
	}
}

func (c *OrbitCamera) Update(deltaTime float32) {
	if rl.IsMouseButtonDown(rl.MouseRightButton) {
		mouseDelta := rl.GetMouseDelta()
		c.Yaw += mouseDelta.X * c.LookSpeed
		c.Pitch += mouseDelta.Y * c.LookSpeed
	}

	// Clamp pitch
	if c.Pitch > 89 {
		c.Pitch = 89
	}
	if c.Pitch < -10 {
		c.Pitch = -10
	}

	c.Distance -= rl.GetMouseWheelMove() * c.ZoomSpeed
	if c.Distance < 2 {
		c.Distance = 2
	}

	forward, right := c.getDirections()

	var moveDir rl.Vector3
	if rl.IsKeyDown(rl.KeyW) {
		moveDir.X += forward.X
		moveDir.Z += forward.Z
	}
	if rl.IsKeyDown(rl.KeyS) {
		moveDir.X -= forward.X
		moveDir.Z -= forward.Z
	}
	if rl.IsKeyDown(rl.KeyA) {
		moveDir.X -= right.X
		moveDir.Z -= right.Z
	}
	if rl.IsKeyDown(rl.KeyD) {
		moveDir.X += right.X
		moveDir.Z += right.Z
	}

	// Normalize diagonal movement so you don't go faster diagonally
	moveLen := float32(math.Sqrt(float64(moveDir.X*moveDir.X + moveDir.Z*moveDir.Z)))
	if moveLen > 0 {
		c.Target.X += moveDir.X / moveLen * c.PanSpeed * deltaTime
		c.Target.Z += moveDir.Z / moveLen * c.PanSpeed * deltaTime
	}
}

// getDirections returns the horizontal forward (eye toward target) and right vectors.
func (c *OrbitCamera) getDirections() (forward, right rl.Vector3) {
	yawRad := float64(c.Yaw) * math.Pi / 180
	forward = rl.Vector3{
		X: float32(-math.Cos(yawRad)),
		Y: 0,
		Z: float32(-math.Sin(yawRad)),
	}
	right = rl.Vector3{
		X: float32(math.Sin(yawRad)),
		Y: 0,
		Z: float32(-math.Cos(yawRad)),
	}
	return
}

// Position is the eye point on the orbit sphere.
func (c *OrbitCamera) Position() rl.Vector3 {
	yawRad := float64(c.Yaw) * math.Pi / 180
	pitchRad := float64(c.Pitch) * math.Pi / 180
	d := float64(c.Distance)
	return rl.Vector3{
		X: c.Target.X + float32(math.Cos(yawRad)*math.Cos(pitchRad)*d),
		Y: c.Target.Y + float32(math.Sin(pitchRad)*d),
		Z: c.Target.Z + float32(math.Sin(yawRad)*math.Cos(pitchRad)*d),
	}
}

func (c *OrbitCamera) GetRaylibCamera() rl.Camera3D {
	return rl.Camera3D{
		Position:   c.Position(),
		Target:     c.Target,
		Up:         rl.Vector3{X: 0, Y: 1, Z: 0},
		Fovy:       45,
		Projection: rl.CameraPerspective,
	}
}
