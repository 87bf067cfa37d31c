package camera

import (
	"testing"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/stretchr/testify/assert"
)

func TestPositionOrbitsTarget(t *testing.T) {
	c := New(rl.Vector3{X: 1, Y: 2, Z: 3})
	c.Yaw, c.Pitch, c.Distance = 0, 0, 10

	p := c.Position()
	assert.InDelta(t, 11, p.X, 1e-4)
	assert.InDelta(t, 2, p.Y, 1e-4)
	assert.InDelta(t, 3, p.Z, 1e-4)

	c.Pitch = 90
	p = c.Position()
	assert.InDelta(t, 12, p.Y, 1e-4)
}

func TestDirectionsFaceTarget(t *testing.T) {
	c := New(rl.Vector3{})
	for _, yaw := range []float32{-135, 0, 45, 170} {
		c.Yaw = yaw
		c.Pitch = 0
		forward, right := c.getDirections()
		eye := c.Position()

		// forward points from the eye toward the target.
		assert.Less(t, eye.X*forward.X+eye.Z*forward.Z, float32(0), "yaw %v", yaw)
		assert.InDelta(t, 0, forward.X*right.X+forward.Z*right.Z, 1e-5, "yaw %v", yaw)
	}
}
