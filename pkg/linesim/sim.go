// Package linesim is the student-facing surface of the simulator: build a
// Simulation over a track, mount sensors on the robot, then alternate
// between reading sensors, steering and calling Update.
//
//	sim, _ := linesim.New(linesim.WithBuiltinTrack("lines"))
//	left, _ := sim.AddLineSensor(geometry.Vec2{X: 20, Y: 10})
//	for sim.Running() {
//		if left.Read() {
//			sim.Robot().Rotate(4)
//		} else {
//			sim.Robot().Move(4)
//		}
//		sim.Update()
//	}
package linesim

import (
	"fmt"
	"time"

	"github.com/linesim/linesim/internal/core/events/bus"
	"github.com/linesim/linesim/internal/core/observability/log"
	"github.com/linesim/linesim/pkg/beacon"
	"github.com/linesim/linesim/pkg/geometry"
	"github.com/linesim/linesim/pkg/sensor"
	"github.com/linesim/linesim/pkg/track"
)

// boundsMargin is how close to the frame edge the robot center may get
// before the run terminates, in pixels.
const boundsMargin = 30

// StopReason explains why a run ended.
type StopReason int

const (
	ReasonNone StopReason = iota
	ReasonFinish
	ReasonOutOfBounds
	ReasonQuit
)

func (r StopReason) String() string {
	switch r {
	case ReasonFinish:
		return "finish"
	case ReasonOutOfBounds:
		return "out_of_bounds"
	case ReasonQuit:
		return "quit"
	default:
		return "running"
	}
}

// FrameData is the payload of sim.frame events.
type FrameData struct {
	Frame   uint64  `json:"frame"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"`
}

// SensorRead is the payload of sensor.read events.
type SensorRead struct {
	Frame uint64  `json:"frame"`
	Index int     `json:"index"`
	Kind  string  `json:"kind"`
	Value float64 `json:"value"`
}

// StopData is the payload of finish, bounds_exit and quit events.
type StopData struct {
	Frame  uint64 `json:"frame"`
	Reason string `json:"reason"`
}

// clock paces Update calls to a fixed frame rate.
type clock struct {
	fps  int
	last time.Time
}

func (c *clock) tick() {
	if c.fps <= 0 {
		return
	}
	interval := time.Second / time.Duration(c.fps)
	if !c.last.IsZero() {
		if wait := interval - time.Since(c.last); wait > 0 {
			time.Sleep(wait)
		}
	}
	c.last = time.Now()
}

// Simulation owns the track, the robot, the beacon field and the frame
// loop bookkeeping. It is not safe for concurrent use; the loop is meant
// to be driven from a single goroutine.
type Simulation struct {
	track     *track.Track
	robot     *Robot
	field     *beacon.Field
	bus       *bus.Bus
	log       log.Log
	clock     clock
	overlays  bool
	telemetry bool

	checkBounds bool
	running     bool
	reason      StopReason
	frame       uint64
}

// New builds a simulation. Without options it runs on the blank builtin
// track at 30 FPS with bounds checking enabled.
func New(opts ...Option) (*Simulation, error) {
	o := options{
		builtin:     track.Blank,
		fps:         DefaultFPS,
		checkBounds: true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	tr := o.track
	var err error
	switch {
	case tr != nil:
	case o.imagePath != "":
		if tr, err = track.Load(o.imagePath); err != nil {
			return nil, err
		}
	case o.builtin != "":
		if tr, err = track.Builtin(o.builtin); err != nil {
			return nil, err
		}
	default:
		return nil, ErrNoTrack
	}

	start := tr.StartPose()
	if o.start != nil {
		start = *o.start
	}

	logger := o.log
	if logger == nil {
		logger = log.Nop()
	}
	eventBus := o.bus
	if eventBus == nil {
		eventBus = bus.New()
	}

	s := &Simulation{
		track:       tr,
		robot:       newRobot(start),
		field:       beacon.NewField(),
		bus:         eventBus,
		log:         logger,
		clock:       clock{fps: o.fps},
		telemetry:   o.telemetry,
		checkBounds: o.checkBounds,
		running:     true,
	}
	s.log.Info("simulation ready",
		log.String("track", tr.Name()),
		log.Uint64("fingerprint", tr.Fingerprint()),
		log.Float64("start_x", start.Pos.X),
		log.Float64("start_y", start.Pos.Y),
	)
	return s, nil
}

// Robot returns the simulated robot.
func (s *Simulation) Robot() *Robot { return s.robot }

// Track returns the active track.
func (s *Simulation) Track() *track.Track { return s.track }

// Beacons returns the beacon field.
func (s *Simulation) Beacons() *beacon.Field { return s.field }

// Bus returns the simulation event bus.
func (s *Simulation) Bus() *bus.Bus { return s.bus }

// Frame returns the number of completed Update calls.
func (s *Simulation) Frame() uint64 { return s.frame }

// Running reports whether the frame loop is still live.
func (s *Simulation) Running() bool { return s.running }

// Reason returns why the run stopped, or ReasonNone while running.
func (s *Simulation) Reason() StopReason { return s.reason }

// SetOverlays toggles ultrasonic beam overlays in the windowed renderer.
func (s *Simulation) SetOverlays(enabled bool) { s.overlays = enabled }

// Overlays reports whether beam overlays are enabled.
func (s *Simulation) Overlays() bool { return s.overlays }

// AddLineSensor mounts a line sensor at a body-frame offset.
func (s *Simulation) AddLineSensor(offset geometry.Vec2) (*sensor.Line, error) {
	if !s.running {
		return nil, ErrNotRunning
	}
	l := sensor.NewLine(s.robot, s.track, offset)
	s.robot.mount(l)
	return l, nil
}

// AddUltrasonicSensor mounts an ultrasonic sensor with a beam angle in
// degrees relative to the robot heading.
func (s *Simulation) AddUltrasonicSensor(offset geometry.Vec2, angle float64) (*sensor.Ultrasonic, error) {
	if !s.running {
		return nil, ErrNotRunning
	}
	u := sensor.NewUltrasonic(s.robot, s.track, offset, angle)
	s.robot.mount(u)
	return u, nil
}

// AddHallSensor mounts a hall effect sensor reading magnetic beacons.
func (s *Simulation) AddHallSensor(offset geometry.Vec2) (*sensor.Hall, error) {
	if !s.running {
		return nil, ErrNotRunning
	}
	h := sensor.NewHall(s.robot, s.field, offset)
	s.robot.mount(h)
	return h, nil
}

// AddIRSensor mounts an infrared sensor reading infrared beacons.
func (s *Simulation) AddIRSensor(offset geometry.Vec2) (*sensor.IR, error) {
	if !s.running {
		return nil, ErrNotRunning
	}
	i := sensor.NewIR(s.robot, s.field, offset)
	s.robot.mount(i)
	return i, nil
}

// AddSensor mounts a sensor by kind name. Ultrasonic sensors need an
// explicit beam angle supplied through WithAngle.
func (s *Simulation) AddSensor(offset geometry.Vec2, kind string, opts ...SensorOption) (sensor.Sensor, error) {
	k, err := sensor.ParseKind(kind)
	if err != nil {
		return nil, err
	}
	var so sensorOptions
	for _, opt := range opts {
		opt(&so)
	}
	switch k {
	case sensor.KindLine:
		l, err := s.AddLineSensor(offset)
		if err != nil {
			return nil, err
		}
		if so.threshold != nil {
			l.SetThreshold(*so.threshold)
		}
		return l, nil
	case sensor.KindUltrasonic:
		if so.angle == nil {
			return nil, ErrMissingAngle
		}
		u, err := s.AddUltrasonicSensor(offset, *so.angle)
		if err != nil {
			return nil, err
		}
		if so.maxRange != nil {
			u.SetMaxRange(*so.maxRange)
		}
		return u, nil
	case sensor.KindHall:
		return s.AddHallSensor(offset)
	default:
		return s.AddIRSensor(offset)
	}
}

// AddBeacon places a beacon on the track.
func (s *Simulation) AddBeacon(pos geometry.Vec2, kind string) error {
	k, err := beacon.ParseKind(kind)
	if err != nil {
		return err
	}
	return s.field.Add(beacon.New(pos, k))
}

// Update advances the simulation one frame: it paces to the configured
// frame rate, terminates the run when the robot center touches a
// finish-colored pixel or (with bounds checking) drifts within 30 px of
// the frame edge, and publishes the frame events.
func (s *Simulation) Update() error {
	if !s.running {
		return ErrNotRunning
	}
	s.clock.tick()
	s.frame++

	pos := s.robot.Position()
	if s.track.FinishAt(int(pos.X), int(pos.Y)) {
		return s.stop(ReasonFinish, bus.TypeFinish)
	}
	if s.checkBounds && s.outOfBounds(pos) {
		return s.stop(ReasonOutOfBounds, bus.TypeBoundsExit)
	}

	err := s.bus.Publish(bus.NewEvent(bus.TypeFrame, "sim", FrameData{
		Frame:   s.frame,
		X:       pos.X,
		Y:       pos.Y,
		Heading: s.robot.Heading(),
	}))
	if s.telemetry {
		for i, sn := range s.robot.Sensors() {
			readErr := s.bus.Publish(bus.NewEvent(bus.TypeSensorRead, "sim", SensorRead{
				Frame: s.frame,
				Index: i,
				Kind:  string(sn.Kind()),
				Value: sn.Value(),
			}))
			if readErr != nil && err == nil {
				err = readErr
			}
		}
	}
	if err != nil {
		s.log.Warn("event delivery failed", log.Error(err))
	}
	return nil
}

// Quit stops the run.
func (s *Simulation) Quit() {
	if !s.running {
		return
	}
	_ = s.stop(ReasonQuit, bus.TypeQuit)
}

func (s *Simulation) stop(reason StopReason, eventType string) error {
	s.running = false
	s.reason = reason
	s.log.Info("run stopped",
		log.String("reason", reason.String()),
		log.Uint64("frame", s.frame),
	)
	if err := s.bus.Publish(bus.NewEvent(eventType, "sim", StopData{
		Frame:  s.frame,
		Reason: reason.String(),
	})); err != nil {
		return fmt.Errorf("linesim: publishing %s: %w", eventType, err)
	}
	return nil
}

func (s *Simulation) outOfBounds(pos geometry.Vec2) bool {
	w, h := s.track.Size()
	return pos.X-boundsMargin < 0 || pos.Y-boundsMargin < 0 ||
		pos.X+boundsMargin > float64(w) || pos.Y+boundsMargin > float64(h)
}

type sensorOptions struct {
	angle     *float64
	threshold *uint8
	maxRange  *int
}

// SensorOption configures AddSensor.
type SensorOption func(*sensorOptions)

// WithAngle sets the ultrasonic beam angle in degrees.
func WithAngle(deg float64) SensorOption {
	return func(o *sensorOptions) { o.angle = &deg }
}

// WithThreshold sets a line sensor detection threshold.
func WithThreshold(threshold uint8) SensorOption {
	return func(o *sensorOptions) { o.threshold = &threshold }
}

// WithMaxRange sets an ultrasonic maximum range in pixels.
func WithMaxRange(px int) SensorOption {
	return func(o *sensorOptions) { o.maxRange = &px }
}
