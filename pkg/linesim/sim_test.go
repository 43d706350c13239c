package linesim

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesim/linesim/internal/core/events/bus"
	"github.com/linesim/linesim/pkg/geometry"
	"github.com/linesim/linesim/pkg/sensor"
	"github.com/linesim/linesim/pkg/track"
)

func testTrack(w, h int, paint func(img *image.RGBA)) *track.Track {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	white := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, white)
		}
	}
	if paint != nil {
		paint(img)
	}
	return track.FromImage("test", img)
}

func newTestSim(t *testing.T, opts ...Option) *Simulation {
	t.Helper()
	opts = append([]Option{WithFPS(0)}, opts...)
	sim, err := New(opts...)
	require.NoError(t, err)
	return sim
}

func TestNewDefaults(t *testing.T) {
	sim := newTestSim(t)
	assert.True(t, sim.Running())
	assert.Equal(t, ReasonNone, sim.Reason())
	assert.Equal(t, track.Blank, sim.Track().Name())
	// Blank track default start.
	assert.Equal(t, geometry.Vec2{X: 250, Y: 250}, sim.Robot().Position())
}

func TestNewUnknownBuiltin(t *testing.T) {
	_, err := New(WithBuiltinTrack("lava"))
	assert.Error(t, err)
}

func TestNewMissingCustomTrack(t *testing.T) {
	_, err := New(WithTrackImage("/does/not/exist.png"))
	assert.Error(t, err)
}

func TestMoveAndRotate(t *testing.T) {
	sim := newTestSim(t)
	r := sim.Robot()
	start := r.Position()

	r.Move(10)
	assert.InDelta(t, start.X+10, r.Position().X, 1e-9)
	assert.InDelta(t, start.Y, r.Position().Y, 1e-9)

	r.Rotate(90)
	r.Move(10)
	assert.InDelta(t, start.X+10, r.Position().X, 1e-9)
	assert.InDelta(t, start.Y+10, r.Position().Y, 1e-9)
}

func TestUpdateStopsOnFinish(t *testing.T) {
	tr := testTrack(200, 200, func(img *image.RGBA) {
		red := color.RGBA{R: 0xff, A: 0xff}
		for y := 90; y < 110; y++ {
			for x := 120; x < 140; x++ {
				img.SetRGBA(x, y, red)
			}
		}
	})
	sim := newTestSim(t, WithTrack(tr), WithStart(geometry.Pose{Pos: geometry.Vec2{X: 100, Y: 100}}))

	for i := 0; i < 20 && sim.Running(); i++ {
		sim.Robot().Move(4)
		require.NoError(t, sim.Update())
	}
	assert.False(t, sim.Running())
	assert.Equal(t, ReasonFinish, sim.Reason())
}

func TestUpdateStopsOutOfBounds(t *testing.T) {
	sim := newTestSim(t)
	sim.Robot().Rotate(180)
	for i := 0; i < 100 && sim.Running(); i++ {
		sim.Robot().Move(10)
		require.NoError(t, sim.Update())
	}
	assert.False(t, sim.Running())
	assert.Equal(t, ReasonOutOfBounds, sim.Reason())
}

func TestBoundsCheckDisabled(t *testing.T) {
	sim := newTestSim(t, WithBoundsCheck(false))
	sim.Robot().Rotate(180)
	for i := 0; i < 40; i++ {
		sim.Robot().Move(10)
		require.NoError(t, sim.Update())
	}
	assert.True(t, sim.Running(), "without bounds checking the robot may leave the frame")
}

func TestUpdateAfterStop(t *testing.T) {
	sim := newTestSim(t)
	sim.Quit()
	assert.False(t, sim.Running())
	assert.Equal(t, ReasonQuit, sim.Reason())
	assert.ErrorIs(t, sim.Update(), ErrNotRunning)
}

func TestAddSensorKinds(t *testing.T) {
	sim := newTestSim(t)

	s, err := sim.AddSensor(geometry.Vec2{X: 20, Y: 10}, "line")
	require.NoError(t, err)
	assert.Equal(t, sensor.KindLine, s.Kind())

	_, err = sim.AddSensor(geometry.Vec2{X: 20}, "ultrasonic")
	assert.ErrorIs(t, err, ErrMissingAngle)

	s, err = sim.AddSensor(geometry.Vec2{X: 20}, "ultrasonic", WithAngle(45))
	require.NoError(t, err)
	assert.Equal(t, sensor.KindUltrasonic, s.Kind())

	_, err = sim.AddSensor(geometry.Vec2{}, "hall")
	require.NoError(t, err)
	_, err = sim.AddSensor(geometry.Vec2{}, "infrared")
	require.NoError(t, err)

	_, err = sim.AddSensor(geometry.Vec2{}, "gps")
	assert.ErrorIs(t, err, sensor.ErrUnknownKind)

	assert.Len(t, sim.Robot().Sensors(), 4)
}

func TestAddSensorOptions(t *testing.T) {
	sim := newTestSim(t)

	s, err := sim.AddSensor(geometry.Vec2{}, "line", WithThreshold(120))
	require.NoError(t, err)
	assert.Equal(t, uint8(120), s.(*sensor.Line).Threshold())

	s, err = sim.AddSensor(geometry.Vec2{}, "ultrasonic", WithAngle(0), WithMaxRange(42))
	require.NoError(t, err)
	assert.Equal(t, 42, s.(*sensor.Ultrasonic).MaxRange())
}

func TestAddBeacon(t *testing.T) {
	sim := newTestSim(t)
	require.NoError(t, sim.AddBeacon(geometry.Vec2{X: 260, Y: 250}, "magnetic"))
	assert.Error(t, sim.AddBeacon(geometry.Vec2{}, "laser"))

	hall, err := sim.AddHallSensor(geometry.Vec2{})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, hall.Read(), 1e-9)
}

func TestUpdatePublishesFrameEvents(t *testing.T) {
	b := bus.New()
	var frames []FrameData
	b.Subscribe(bus.TypeFrame, func(e bus.Event) error {
		frames = append(frames, e.Data.(FrameData))
		return nil
	})
	sim := newTestSim(t, WithBus(b))
	sim.Robot().Move(5)
	require.NoError(t, sim.Update())
	require.NoError(t, sim.Update())

	require.Len(t, frames, 2)
	assert.Equal(t, uint64(1), frames[0].Frame)
	assert.InDelta(t, 255.0, frames[0].X, 1e-9)
}

func TestSensorTelemetryEvents(t *testing.T) {
	b := bus.New()
	var reads []SensorRead
	b.Subscribe(bus.TypeSensorRead, func(e bus.Event) error {
		reads = append(reads, e.Data.(SensorRead))
		return nil
	})
	sim := newTestSim(t, WithBus(b), WithSensorTelemetry(true))
	_, err := sim.AddLineSensor(geometry.Vec2{})
	require.NoError(t, err)
	_, err = sim.AddUltrasonicSensor(geometry.Vec2{}, 0)
	require.NoError(t, err)

	require.NoError(t, sim.Update())
	require.Len(t, reads, 2)
	assert.Equal(t, "line", reads[0].Kind)
	assert.Equal(t, "ultrasonic", reads[1].Kind)
}

func TestQuitPublishesStopEvent(t *testing.T) {
	b := bus.New()
	var stops []StopData
	b.Subscribe(bus.TypeQuit, func(e bus.Event) error {
		stops = append(stops, e.Data.(StopData))
		return nil
	})
	sim := newTestSim(t, WithBus(b))
	sim.Quit()
	require.Len(t, stops, 1)
	assert.Equal(t, "quit", stops[0].Reason)
}
