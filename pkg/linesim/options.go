package linesim

import (
	"github.com/linesim/linesim/internal/core/events/bus"
	"github.com/linesim/linesim/internal/core/observability/log"
	"github.com/linesim/linesim/pkg/geometry"
	"github.com/linesim/linesim/pkg/track"
)

// DefaultFPS is the frame rate cap used when none is configured.
const DefaultFPS = 30

type options struct {
	builtin     string
	imagePath   string
	track       *track.Track
	start       *geometry.Pose
	fps         int
	checkBounds bool
	telemetry   bool
	log         log.Log
	bus         *bus.Bus
}

// Option configures a Simulation.
type Option func(*options)

// WithBuiltinTrack selects one of the generated tracks ("blank", "lines",
// "maze"). The default is "blank".
func WithBuiltinTrack(name string) Option {
	return func(o *options) { o.builtin = name }
}

// WithTrackImage loads a custom track from a raster image path. Color
// conventions: black line, red finish, blue walls.
func WithTrackImage(path string) Option {
	return func(o *options) { o.imagePath = path }
}

// WithTrack uses an already constructed track.
func WithTrack(t *track.Track) Option {
	return func(o *options) { o.track = t }
}

// WithStart overrides the track's default start pose.
func WithStart(p geometry.Pose) Option {
	return func(o *options) { o.start = &p }
}

// WithFPS caps the frame rate of Update. Zero disables pacing, which is
// what headless batch runs and tests want.
func WithFPS(fps int) Option {
	return func(o *options) { o.fps = fps }
}

// WithBoundsCheck controls whether the run stops when the robot approaches
// the frame edge. Enabled by default.
func WithBoundsCheck(enabled bool) Option {
	return func(o *options) { o.checkBounds = enabled }
}

// WithSensorTelemetry publishes a sensor.read event for every mounted
// sensor on every frame. Off by default; the recorder and the telemetry
// server turn it on.
func WithSensorTelemetry(enabled bool) Option {
	return func(o *options) { o.telemetry = enabled }
}

// WithLogger attaches a logger. The default discards everything.
func WithLogger(l log.Log) Option {
	return func(o *options) { o.log = l }
}

// WithBus attaches an existing event bus so observers wired before the
// simulation exists can see its events.
func WithBus(b *bus.Bus) Option {
	return func(o *options) { o.bus = b }
}
