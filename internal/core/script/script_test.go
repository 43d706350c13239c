package script

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesim/linesim/internal/core/events/bus"
	"github.com/linesim/linesim/pkg/geometry"
	"github.com/linesim/linesim/pkg/linesim"
	"github.com/linesim/linesim/pkg/sensor"
	"github.com/linesim/linesim/pkg/track"
)

func blankSim(t *testing.T) *linesim.Simulation {
	t.Helper()
	sim, err := linesim.New(linesim.WithFPS(0))
	require.NoError(t, err)
	return sim
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{
		"move",
		"fly 10",
		"repeat { move 1 }",
		"if line(0) move 1",
	} {
		_, err := Parse(src)
		assert.Error(t, err, "source %q", src)
	}
}

func TestMoveAndRotate(t *testing.T) {
	prog, err := Parse("move 10 rotate 90 move 10 rotate -90")
	require.NoError(t, err)

	sim := blankSim(t)
	start := sim.Robot().Position()
	require.NoError(t, prog.Run(&Context{Sim: sim}))

	pos := sim.Robot().Position()
	assert.InDelta(t, start.X+10, pos.X, 1e-9)
	assert.InDelta(t, start.Y+10, pos.Y, 1e-9)
	assert.InDelta(t, 0, sim.Robot().Heading(), 1e-9)
	assert.Equal(t, uint64(4), sim.Frame(), "each command advances one frame")
}

func TestRepeat(t *testing.T) {
	prog, err := Parse("repeat 5 { move 2 }")
	require.NoError(t, err)

	sim := blankSim(t)
	start := sim.Robot().Position()
	require.NoError(t, prog.Run(&Context{Sim: sim}))
	assert.InDelta(t, start.X+10, sim.Robot().Position().X, 1e-9)
}

func lineWorldSim(t *testing.T) (*linesim.Simulation, *sensor.Line) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	white := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			img.SetRGBA(x, y, white)
		}
	}
	img.SetRGBA(100, 100, color.RGBA{A: 0xff}) // line pixel under the start
	tr := track.FromImage("test", img)

	sim, err := linesim.New(
		linesim.WithFPS(0),
		linesim.WithTrack(tr),
		linesim.WithStart(geometry.Pose{Pos: geometry.Vec2{X: 100, Y: 100}}),
	)
	require.NoError(t, err)
	line, err := sim.AddLineSensor(geometry.Vec2{})
	require.NoError(t, err)
	return sim, line
}

func TestIfElse(t *testing.T) {
	sim, line := lineWorldSim(t)
	prog, err := Parse("if line(0) { rotate 45 } else { move 4 }")
	require.NoError(t, err)
	require.NoError(t, prog.Run(&Context{Sim: sim, Lines: []*sensor.Line{line}}))
	assert.InDelta(t, 45, sim.Robot().Heading(), 1e-9, "sensor on the line takes the then-branch")

	// Off the line the else-branch runs.
	sim2, line2 := lineWorldSim(t)
	sim2.Robot().Move(10)
	prog2, err := Parse("if line(0) { rotate 45 } else { move 4 }")
	require.NoError(t, err)
	require.NoError(t, prog2.Run(&Context{Sim: sim2, Lines: []*sensor.Line{line2}}))
	assert.InDelta(t, 0, sim2.Robot().Heading(), 1e-9)
}

func TestNotCond(t *testing.T) {
	sim, line := lineWorldSim(t)
	prog, err := Parse("if not line(0) { rotate 45 }")
	require.NoError(t, err)
	require.NoError(t, prog.Run(&Context{Sim: sim, Lines: []*sensor.Line{line}}))
	assert.InDelta(t, 0, sim.Robot().Heading(), 1e-9)
}

func TestLineIndexOutOfRange(t *testing.T) {
	sim := blankSim(t)
	prog, err := Parse("if line(3) { move 1 }")
	require.NoError(t, err)
	assert.Error(t, prog.Run(&Context{Sim: sim}))
}

func TestUntilEmptyBodyStillBurnsFrames(t *testing.T) {
	sim := blankSim(t)
	sim.Bus().Subscribe(bus.TypeFrame, func(e bus.Event) error {
		if f, ok := e.Data.(linesim.FrameData); ok && f.Frame >= 5 {
			sim.Quit()
		}
		return nil
	})

	prog, err := Parse("until finish { }")
	require.NoError(t, err)
	require.NoError(t, prog.Run(&Context{Sim: sim}))

	assert.Equal(t, linesim.ReasonQuit, sim.Reason())
	assert.GreaterOrEqual(t, sim.Frame(), uint64(5), "empty body still advances frames")
}

func TestCustomStepHook(t *testing.T) {
	sim := blankSim(t)
	start := sim.Robot().Position()

	calls := 0
	ctx := &Context{Sim: sim, Step: func() error {
		calls++
		if calls >= 3 {
			return linesim.ErrNotRunning
		}
		return sim.Update()
	}}

	prog, err := Parse("repeat 10 { move 1 }")
	require.NoError(t, err)
	require.NoError(t, prog.Run(ctx))

	assert.Equal(t, 3, calls, "every command advances through the hook")
	assert.InDelta(t, start.X+3, sim.Robot().Position().X, 1e-9)
}

func TestUntilFinishStopsWhenRunEnds(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	white := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	red := color.RGBA{R: 0xff, A: 0xff}
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			img.SetRGBA(x, y, white)
		}
	}
	for y := 0; y < 200; y++ {
		for x := 150; x < 160; x++ {
			img.SetRGBA(x, y, red)
		}
	}
	tr := track.FromImage("finish", img)
	sim, err := linesim.New(
		linesim.WithFPS(0),
		linesim.WithTrack(tr),
		linesim.WithStart(geometry.Pose{Pos: geometry.Vec2{X: 100, Y: 100}}),
	)
	require.NoError(t, err)

	prog, err := Parse("until finish { move 4 }")
	require.NoError(t, err)
	require.NoError(t, prog.Run(&Context{Sim: sim}))

	assert.False(t, sim.Running())
	assert.Equal(t, linesim.ReasonFinish, sim.Reason())
	assert.GreaterOrEqual(t, sim.Robot().Position().X, 150.0)
}
