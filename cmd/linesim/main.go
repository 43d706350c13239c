// Command linesim runs the robot simulator: it loads a run configuration,
// mounts sensors and beacons, then drives the robot with a built-in
// controller or a script, windowed or headless.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/linesim/linesim/internal/app"
	"github.com/linesim/linesim/internal/core/config"
	"github.com/linesim/linesim/internal/core/control"
	"github.com/linesim/linesim/internal/core/events/bus"
	"github.com/linesim/linesim/internal/core/observability/log"
	"github.com/linesim/linesim/internal/core/record"
	"github.com/linesim/linesim/internal/core/report"
	"github.com/linesim/linesim/internal/core/script"
	"github.com/linesim/linesim/internal/server"
	"github.com/linesim/linesim/pkg/geometry"
	"github.com/linesim/linesim/pkg/linesim"
	"github.com/linesim/linesim/pkg/sensor"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "linesim:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "path to a YAML run configuration")
		trackName  = flag.String("track", "", "builtin track name (blank, lines, maze)")
		trackImage = flag.String("track-image", "", "path to a custom track image")
		controller = flag.String("controller", "", "built-in controller to drive the robot")
		scriptPath = flag.String("script", "", "script file to drive the robot")
		headless   = flag.Bool("headless", false, "run without a window")
		frames     = flag.Int("frames", 0, "stop after this many frames (headless)")
		fps        = flag.Int("fps", 0, "frame rate cap, 0 keeps the configured value")
		overlays   = flag.Bool("overlays", false, "draw ultrasonic beam overlays")
		recordPath = flag.String("record", "", "record the run to this SQLite database")
		reportPath = flag.String("report", "", "write an HTML trajectory report to this file")
		serveAddr  = flag.String("serve", "", "serve live telemetry on this address")
		logLevel   = flag.String("log-level", "", "log level (debug, info, warn, error)")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	applyFlags(cfg, *trackName, *trackImage, *controller, *scriptPath,
		*headless, *fps, *overlays, *recordPath, *reportPath, *serveAddr, *logLevel)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := log.New(log.ParseLevel(cfg.LogLevel))
	defer func() { _ = logger.Sync() }()

	sim, lines, err := buildSimulation(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-stopCh:
			logger.Info("interrupted, stopping run")
			sim.Quit()
		case <-ctx.Done():
		}
	}()

	// Recording backs both -record and -report; a report without an
	// explicit database records into memory.
	var (
		db  *record.DB
		rec *record.Recorder
	)
	if cfg.Record != "" || cfg.Report != "" {
		path := cfg.Record
		if path == "" {
			path = ":memory:"
		}
		db, err = record.Open(path)
		if err != nil {
			return err
		}
		defer db.Close()
		rec, err = db.Start(sim.Bus(), sim.Track().Name(), sim.Track().Fingerprint())
		if err != nil {
			return err
		}
		defer rec.Close()
	}

	if cfg.Serve != "" {
		srv := server.New(cfg.Serve, sim, logger)
		if err := srv.Start(ctx); err != nil {
			return err
		}
		defer func() { _ = srv.Stop(context.Background()) }()
	}

	if err := drive(cfg, sim, lines, logger, *frames); err != nil {
		return err
	}

	logger.Info("run ended",
		log.String("reason", sim.Reason().String()),
		log.Uint64("frames", sim.Frame()),
	)

	if cfg.Report != "" {
		if err := writeReport(cfg.Report, db, rec); err != nil {
			return err
		}
		logger.Info("report written", log.String("path", cfg.Report))
	}
	return nil
}

// applyFlags lets command-line flags override the loaded configuration.
func applyFlags(cfg *config.Config, trackName, trackImage, controller, scriptPath string,
	headless bool, fps int, overlays bool, recordPath, reportPath, serveAddr, logLevel string,
) {
	if trackName != "" {
		cfg.Track = config.TrackConfig{Name: trackName}
	}
	if trackImage != "" {
		cfg.Track = config.TrackConfig{Path: trackImage}
	}
	if controller != "" {
		cfg.Controller = controller
	}
	if scriptPath != "" {
		cfg.Script = scriptPath
	}
	if headless {
		cfg.Headless = true
	}
	if fps > 0 {
		cfg.FPS = fps
	}
	if overlays {
		cfg.Overlays = true
	}
	if recordPath != "" {
		cfg.Record = recordPath
	}
	if reportPath != "" {
		cfg.Report = reportPath
	}
	if serveAddr != "" {
		cfg.Serve = serveAddr
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
}

// buildSimulation assembles the simulation, mounts the configured sensors
// and places the configured beacons. It returns the mounted line sensors
// in mount order for script conditions.
func buildSimulation(cfg *config.Config, logger log.Log) (*linesim.Simulation, []*sensor.Line, error) {
	opts := []linesim.Option{
		linesim.WithBus(bus.New()),
		linesim.WithLogger(logger),
		linesim.WithBoundsCheck(cfg.CheckBounds()),
		linesim.WithSensorTelemetry(cfg.Record != "" || cfg.Report != "" || cfg.Serve != ""),
	}
	if cfg.Track.Path != "" {
		opts = append(opts, linesim.WithTrackImage(cfg.Track.Path))
	} else {
		opts = append(opts, linesim.WithBuiltinTrack(cfg.Track.Name))
	}
	if cfg.Track.Start != nil || cfg.Track.Heading != nil {
		opts = append(opts, startOption(cfg.Track))
	}
	// Windowed runs are paced by the display tick, headless runs by the
	// simulation clock.
	if cfg.Headless {
		opts = append(opts, linesim.WithFPS(cfg.FPS))
	} else {
		opts = append(opts, linesim.WithFPS(0))
	}

	sim, err := linesim.New(opts...)
	if err != nil {
		return nil, nil, err
	}
	sim.SetOverlays(cfg.Overlays)

	var lines []*sensor.Line
	for i, sc := range cfg.Sensors {
		var sensorOpts []linesim.SensorOption
		if sc.Angle != nil {
			sensorOpts = append(sensorOpts, linesim.WithAngle(*sc.Angle))
		}
		if sc.Threshold != nil {
			sensorOpts = append(sensorOpts, linesim.WithThreshold(*sc.Threshold))
		}
		if sc.MaxRange != nil {
			sensorOpts = append(sensorOpts, linesim.WithMaxRange(*sc.MaxRange))
		}
		s, err := sim.AddSensor(geometry.Vec2{X: sc.Offset[0], Y: sc.Offset[1]}, sc.Kind, sensorOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("sensor %d: %w", i, err)
		}
		if line, ok := s.(*sensor.Line); ok {
			lines = append(lines, line)
		}
	}
	for i, bc := range cfg.Beacons {
		pos := geometry.Vec2{X: bc.Position[0], Y: bc.Position[1]}
		if err := sim.AddBeacon(pos, bc.Kind); err != nil {
			return nil, nil, fmt.Errorf("beacon %d: %w", i, err)
		}
	}
	return sim, lines, nil
}

func startOption(tc config.TrackConfig) linesim.Option {
	pose := geometry.Pose{}
	if tc.Start != nil {
		pose.Pos = geometry.Vec2{X: tc.Start[0], Y: tc.Start[1]}
	}
	if tc.Heading != nil {
		pose.Heading = *tc.Heading
	}
	return linesim.WithStart(pose)
}

// drive runs the simulation to completion with the configured driver.
func drive(cfg *config.Config, sim *linesim.Simulation, lines []*sensor.Line, logger log.Log, maxFrames int) error {
	switch {
	case cfg.Script != "":
		return driveScript(cfg, sim, lines, logger)
	case cfg.Controller != "":
		ctl, err := control.Builtin(cfg.Controller, sim)
		if err != nil {
			return err
		}
		logger.Info("controller running", log.String("controller", ctl.Name()))
		if cfg.Headless {
			return headlessLoop(sim, ctl.Step, maxFrames)
		}
		return app.Run(app.New(sim, ctl.Step, logger), cfg.FPS)
	default:
		if cfg.Headless {
			if maxFrames <= 0 {
				return errors.New("headless runs need a controller, a script or -frames")
			}
			return headlessLoop(sim, (*linesim.Simulation).Update, maxFrames)
		}
		return app.Run(app.New(sim, nil, logger), cfg.FPS)
	}
}

func driveScript(cfg *config.Config, sim *linesim.Simulation, lines []*sensor.Line, logger log.Log) error {
	src, err := os.ReadFile(cfg.Script)
	if err != nil {
		return err
	}
	prog, err := script.Parse(string(src))
	if err != nil {
		return err
	}
	sctx := &script.Context{Sim: sim, Lines: lines}
	logger.Info("script running", log.String("path", cfg.Script))

	if cfg.Headless {
		if err := prog.Run(sctx); err != nil {
			return err
		}
		sim.Quit()
		return nil
	}

	// Windowed: the script runs on its own goroutine, but the gate only
	// lets it execute while the display tick is parked inside the
	// stepper, so a single goroutine touches the simulation at a time.
	g := newGate()
	sctx.Step = g.scriptStep(sim)
	go func() {
		<-g.resume
		g.done <- prog.Run(sctx)
	}()
	if err := app.Run(app.New(sim, g.stepper, logger), cfg.FPS); err != nil {
		return err
	}
	return g.drain()
}

// gate hands frames back and forth between the script goroutine and the
// display goroutine. The script owns the simulation from a resume until
// the matching yield; the display owns it the rest of the time.
type gate struct {
	resume chan struct{}
	yield  chan struct{}
	done   chan error
}

func newGate() *gate {
	return &gate{
		resume: make(chan struct{}),
		yield:  make(chan struct{}),
		done:   make(chan error, 1),
	}
}

// scriptStep is installed as the script's frame advance: it updates the
// simulation on the script goroutine, yields the frame to the display
// and parks until the next tick.
func (g *gate) scriptStep(sim *linesim.Simulation) func() error {
	return func() error {
		err := sim.Update()
		stopped := err != nil || !sim.Running()
		g.yield <- struct{}{}
		if err != nil {
			return err
		}
		if stopped {
			return linesim.ErrNotRunning
		}
		<-g.resume
		return nil
	}
}

// stepper runs on the display tick: it wakes the parked script, waits
// for it to hand the frame back and reports when the script is done.
func (g *gate) stepper(*linesim.Simulation) error {
	select {
	case g.resume <- struct{}{}:
	case err := <-g.done:
		g.done <- err // keep for drain
		return stepErr(err)
	}
	select {
	case <-g.yield:
		return nil
	case err := <-g.done:
		g.done <- err // keep for drain
		return stepErr(err)
	}
}

// drain unparks the script after the window has closed so it can observe
// the stopped run and finish.
func (g *gate) drain() error {
	for {
		select {
		case err := <-g.done:
			return err
		case g.resume <- struct{}{}:
		case <-g.yield:
		}
	}
}

func stepErr(err error) error {
	if err != nil {
		return err
	}
	return linesim.ErrNotRunning
}

func headlessLoop(sim *linesim.Simulation, step func(*linesim.Simulation) error, maxFrames int) error {
	for sim.Running() {
		if maxFrames > 0 && sim.Frame() >= uint64(maxFrames) {
			sim.Quit()
			return nil
		}
		if err := step(sim); err != nil {
			if errors.Is(err, linesim.ErrNotRunning) {
				return nil
			}
			return err
		}
	}
	return nil
}

// writeReport renders the recorded session as an HTML trajectory chart.
func writeReport(path string, db *record.DB, rec *record.Recorder) error {
	sessions, err := db.Sessions()
	if err != nil {
		return err
	}
	var session record.Session
	for _, s := range sessions {
		if s.ID == rec.SessionID() {
			session = s
			break
		}
	}
	poses, err := db.Poses(rec.SessionID())
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return report.WriteTrajectoryChart(f, session, poses)
}
