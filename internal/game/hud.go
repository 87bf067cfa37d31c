package game

import (
	"fmt"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"go.uber.org/zap"
)

// Theme colors - indigo dark theme
var (
	colorBgDark    = rl.NewColor(10, 10, 15, 255)
	colorBgPanel   = rl.NewColor(18, 18, 24, 245)
	colorBgElement = rl.NewColor(28, 28, 38, 255)
	colorBgHover   = rl.NewColor(38, 38, 52, 255)

	colorAccent        = rl.NewColor(108, 99, 255, 255) // #6c63ff
	colorTextPrimary   = rl.NewColor(255, 255, 255, 255)
	colorTextSecondary = rl.NewColor(200, 200, 208, 255)
	colorTextMuted     = rl.NewColor(119, 119, 119, 255)
)

const (
	panelX     = 10
	panelY     = 10
	panelWidth = 260
	rowHeight  = 24
)

func initRayguiStyle() {
	gui.SetStyle(gui.DEFAULT, gui.BACKGROUND_COLOR, gui.NewColorPropertyValue(colorBgDark))
	gui.SetStyle(gui.DEFAULT, gui.BASE_COLOR_NORMAL, gui.NewColorPropertyValue(colorBgElement))
	gui.SetStyle(gui.DEFAULT, gui.BASE_COLOR_FOCUSED, gui.NewColorPropertyValue(colorBgHover))
	gui.SetStyle(gui.DEFAULT, gui.BASE_COLOR_PRESSED, gui.NewColorPropertyValue(colorAccent))

	gui.SetStyle(gui.DEFAULT, gui.TEXT_COLOR_NORMAL, gui.NewColorPropertyValue(colorTextSecondary))
	gui.SetStyle(gui.DEFAULT, gui.TEXT_COLOR_FOCUSED, gui.NewColorPropertyValue(colorTextPrimary))
	gui.SetStyle(gui.DEFAULT, gui.TEXT_COLOR_PRESSED, gui.NewColorPropertyValue(colorTextPrimary))

	gui.SetStyle(gui.DEFAULT, gui.BORDER_COLOR_NORMAL, gui.NewColorPropertyValue(rl.NewColor(50, 50, 65, 255)))
	gui.SetStyle(gui.DEFAULT, gui.BORDER_COLOR_FOCUSED, gui.NewColorPropertyValue(colorAccent))

	gui.SetStyle(gui.DEFAULT, gui.TEXT_SIZE, 15)
}

// row hands out consecutive control rectangles inside the panel.
type row struct {
	y float32
}

func (r *row) next() rl.Rectangle {
	rect := rl.Rectangle{X: panelX + 10, Y: r.y, Width: panelWidth - 20, Height: rowHeight - 4}
	r.y += rowHeight
	return rect
}

func (r *row) half() (rl.Rectangle, rl.Rectangle) {
	rect := r.next()
	w := (rect.Width - 6) / 2
	left := rl.Rectangle{X: rect.X, Y: rect.Y, Width: w, Height: rect.Height}
	right := rl.Rectangle{X: rect.X + w + 6, Y: rect.Y, Width: w, Height: rect.Height}
	return left, right
}

func (g *Game) DrawUI() {
	stats := g.World.Stats()
	cfg := g.World.Config()

	rl.DrawRectangle(panelX, panelY, panelWidth, 24*rowHeight, colorBgPanel)
	r := &row{y: panelY + 8}

	text := func(s string, color rl.Color) {
		rect := r.next()
		rl.DrawText(s, int32(rect.X), int32(rect.Y)+3, 15, color)
	}

	text("rigid3d", colorTextPrimary)
	rl.DrawFPS(panelX+panelWidth-90, panelY+8)

	pauseLabel := "Pause"
	if g.Paused {
		pauseLabel = "Resume"
	}
	left, right := r.half()
	if gui.Button(left, pauseLabel) {
		g.Paused = !g.Paused
	}
	if gui.Button(right, "Step") {
		g.stepOnce = true
	}
	left, right = r.half()
	if gui.Button(left, "Restart") {
		g.Restart()
	}
	if gui.Button(right, "Shoot") {
		g.Shoot()
	}

	text("Solver iterations", colorTextSecondary)
	iterations := gui.Slider(r.next(), "", fmt.Sprintf("%d", cfg.SolverIterations), float32(cfg.SolverIterations), 1, 30)
	text("Gravity Y", colorTextSecondary)
	gravity := gui.Slider(r.next(), "", fmt.Sprintf("%.1f", cfg.Gravity.Y()), float32(cfg.Gravity.Y()), -20, 20)

	if next := int(iterations + 0.5); next != cfg.SolverIterations || gravity != float32(cfg.Gravity.Y()) {
		cfg.SolverIterations = next
		cfg.Gravity[1] = float64(gravity)
		if err := g.World.SetConfig(cfg); err != nil {
			g.logger.Warn("rejected config change", zap.Error(err))
		}
	}

	g.Overlay.Colliders = gui.CheckBox(r.next(), "Colliders", g.Overlay.Colliders)
	g.Overlay.AABBs = gui.CheckBox(r.next(), "AABBs", g.Overlay.AABBs)
	g.Overlay.Contacts = gui.CheckBox(r.next(), "Contacts", g.Overlay.Contacts)
	g.Overlay.Joints = gui.CheckBox(r.next(), "Joints", g.Overlay.Joints)

	text(fmt.Sprintf("Bodies:   %d (%d asleep)", stats.Bodies, stats.Sleeping), colorTextSecondary)
	text(fmt.Sprintf("Pairs:    %d candidate", stats.CandidatePairs), colorTextSecondary)
	text(fmt.Sprintf("Contacts: %d manifolds", stats.Manifolds), colorTextSecondary)
	text(fmt.Sprintf("Islands:  %d", stats.Islands), colorTextSecondary)
	text(fmt.Sprintf("Substeps: %d  CCD hits: %d", stats.Substeps, stats.CCDHits), colorTextSecondary)
	text(fmt.Sprintf("Triggers: %d in / %d out", g.triggerEnters, g.triggerExits), colorTextSecondary)
	text(fmt.Sprintf("Collisions: %d", g.collisions), colorTextSecondary)
	text(fmt.Sprintf("Hinge: %.0f deg", g.Scene.Hinge.Angle()*180/math.Pi), colorTextSecondary)
	text(fmt.Sprintf("Update: %.2f ms  Draw: %.2f ms", g.updateMs, g.drawMs), colorTextMuted)
	text("RMB orbit, WASD pan, wheel zoom", colorTextMuted)
	text("Space shoot, P pause, N step, R restart", colorTextMuted)
}
