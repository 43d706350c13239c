// Package app is the interactive window: it renders the track, robot,
// sensor markers and beam overlays with ebiten, stepping the simulation
// once per display tick.
package app

import (
	"errors"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/linesim/linesim/internal/core/observability/log"
	"github.com/linesim/linesim/pkg/beacon"
	"github.com/linesim/linesim/pkg/linesim"
	"github.com/linesim/linesim/pkg/sensor"
)

// Stepper advances the simulation one frame. The default stepper calls
// Update directly; controllers and scripts install their own.
type Stepper func(*linesim.Simulation) error

// Marker and overlay colors.
var (
	colorSensorIdle   = color.RGBA{G: 0xc8, A: 0xff}
	colorSensorActive = color.RGBA{R: 0xe5, G: 0x39, B: 0x35, A: 0xff}
	colorBeamClear    = color.RGBA{R: 0x90, G: 0xa4, B: 0xae, A: 0xff}
	colorBeamHit      = color.RGBA{R: 0xe5, G: 0x39, B: 0x35, A: 0xff}
	colorMagnetic     = color.RGBA{R: 0x8e, G: 0x24, B: 0xaa, A: 0xff}
	colorInfrared     = color.RGBA{R: 0xfb, G: 0x8c, A: 0xff}
)

// Game drives one simulation inside an ebiten window.
type Game struct {
	sim  *linesim.Simulation
	step Stepper
	log  log.Log

	track *ebiten.Image
	robot *ebiten.Image
}

// New wraps a simulation in a renderable game. A nil stepper steps the
// simulation directly.
func New(sim *linesim.Simulation, step Stepper, logger log.Log) *Game {
	if step == nil {
		step = func(s *linesim.Simulation) error { return s.Update() }
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Game{
		sim:   sim,
		step:  step,
		log:   logger,
		track: ebiten.NewImageFromImage(sim.Track().Image()),
		robot: ebiten.NewImageFromImage(renderRobotSprite()),
	}
}

// Update handles input and advances the simulation one frame.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyO) {
		g.sim.SetOverlays(!g.sim.Overlays())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		g.sim.Quit()
	}
	if !g.sim.Running() {
		return ebiten.Termination
	}
	if err := g.step(g.sim); err != nil {
		if errors.Is(err, linesim.ErrNotRunning) {
			return ebiten.Termination
		}
		g.log.Error("frame step failed", log.Error(err))
		return err
	}
	return nil
}

// Draw renders the track, beacons, sensors and robot.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.DrawImage(g.track, nil)
	g.drawBeacons(screen)
	g.drawSensors(screen)
	g.drawRobot(screen)
}

// Layout sizes the window to the track.
func (g *Game) Layout(_, _ int) (int, int) {
	return g.sim.Track().Size()
}

func (g *Game) drawBeacons(screen *ebiten.Image) {
	for _, b := range g.sim.Beacons().All() {
		col := colorMagnetic
		if b.Kind == beacon.Infrared {
			col = colorInfrared
		}
		x, y := float32(b.Pos.X), float32(b.Pos.Y)
		vector.StrokeCircle(screen, x, y, float32(b.Radius), 1, col, true)
		vector.DrawFilledCircle(screen, x, y, 3, col, true)
	}
}

func (g *Game) drawSensors(screen *ebiten.Image) {
	for _, s := range g.sim.Robot().Sensors() {
		if u, ok := s.(*sensor.Ultrasonic); ok && g.sim.Overlays() {
			g.drawBeam(screen, u)
		}
		col := colorSensorIdle
		if s.Kind() == sensor.KindLine && s.Value() > 0 {
			col = colorSensorActive
		}
		pos := s.Position()
		vector.DrawFilledCircle(screen, float32(pos.X), float32(pos.Y), 3, col, true)
	}
}

func (g *Game) drawBeam(screen *ebiten.Image, u *sensor.Ultrasonic) {
	u.Distance()
	trace, hit := u.Trace()
	if len(trace) < 2 {
		return
	}
	col := colorBeamClear
	if hit {
		col = colorBeamHit
	}
	a, b := trace[0], trace[len(trace)-1]
	vector.StrokeLine(screen, float32(a.X), float32(a.Y), float32(b.X), float32(b.Y), 1, col, true)
}

func (g *Game) drawRobot(screen *ebiten.Image) {
	op := &ebiten.DrawImageOptions{}
	b := g.robot.Bounds()
	op.GeoM.Translate(-float64(b.Dx())/2, -float64(b.Dy())/2)
	op.GeoM.Rotate(g.sim.Robot().Heading() * math.Pi / 180)
	pos := g.sim.Robot().Position()
	op.GeoM.Translate(pos.X, pos.Y)
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(g.robot, op)
}

// Run opens the window and runs the game loop until the simulation stops
// or the window closes. The simulation's own frame pacing should be
// disabled; the display tick rate paces the run.
func Run(g *Game, fps int) error {
	w, h := g.sim.Track().Size()
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle("linesim - " + g.sim.Track().Name())
	if fps > 0 {
		ebiten.SetTPS(fps)
	}
	return ebiten.RunGame(g)
}
