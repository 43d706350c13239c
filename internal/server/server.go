// Package server streams live simulation telemetry over HTTP: a websocket
// event feed for dashboards, a JSON state snapshot and an HTML chart of
// the robot's trail so far.
package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/linesim/linesim/internal/core/events/bus"
	"github.com/linesim/linesim/internal/core/observability/log"
	"github.com/linesim/linesim/internal/core/record"
	"github.com/linesim/linesim/internal/core/report"
	"github.com/linesim/linesim/pkg/linesim"
)

// maxTrail bounds the in-memory trail kept for the /trail chart.
const maxTrail = 5000

// wireEvent is the JSON envelope sent to websocket clients.
type wireEvent struct {
	Type string    `json:"type"`
	Time time.Time `json:"time"`
	Data any       `json:"data"`
}

// stateSnapshot is the /state response body.
type stateSnapshot struct {
	Track   string  `json:"track"`
	Frame   uint64  `json:"frame"`
	Running bool    `json:"running"`
	Reason  string  `json:"reason"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"`
	Clients int     `json:"clients"`
}

// Server publishes one simulation's events to any number of observers.
// Handlers never touch the live simulation; they serve from state
// mirrored off the bus, so they stay safe beside the frame loop.
type Server struct {
	addr      string
	sim       *linesim.Simulation
	trackName string
	log       log.Log
	hub       *hub

	mu         sync.Mutex
	running    bool
	last       linesim.FrameData
	simRunning bool
	simReason  string
	trail      []record.Pose
	subs       []*bus.Subscription
	httpSrv    *http.Server
	listener   net.Listener
	group      *errgroup.Group
}

// New creates a telemetry server for sim, listening on addr once started.
// It must be called before the frame loop starts running.
func New(addr string, sim *linesim.Simulation, logger log.Log) *Server {
	if logger == nil {
		logger = log.Nop()
	}
	pose := sim.Robot().Pose()
	return &Server{
		addr:      addr,
		sim:       sim,
		trackName: sim.Track().Name(),
		log:       logger,
		hub:       newHub(),
		last: linesim.FrameData{
			X:       pose.Pos.X,
			Y:       pose.Pos.Y,
			Heading: pose.Heading,
		},
		simRunning: sim.Running(),
		simReason:  sim.Reason().String(),
	}
}

// Start subscribes to the simulation's bus and begins serving HTTP.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrServerAlreadyRunning
	}

	for _, typ := range []string{
		bus.TypeFrame, bus.TypeSensorRead,
		bus.TypeFinish, bus.TypeBoundsExit, bus.TypeQuit,
	} {
		s.subs = append(s.subs, s.sim.Bus().Subscribe(typ, s.onEvent))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/state", s.handleState)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/trail", s.handleTrail)

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.httpSrv = &http.Server{Handler: mux}

	s.group, _ = errgroup.WithContext(ctx)
	s.group.Go(func() error {
		if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	s.running = true
	s.log.Info("telemetry server listening", log.String("addr", ln.Addr().String()))
	return nil
}

// Addr returns the bound listen address, useful when addr was ":0".
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Stop detaches from the bus and shuts the HTTP server down.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrServerNotRunning
	}
	s.running = false
	subs := s.subs
	s.subs = nil
	srv := s.httpSrv
	group := s.group
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
	s.hub.closeAll()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	return group.Wait()
}

// onEvent serializes a bus event and fans it out. Frame and stop events
// also update the mirrored state that /state and /trail serve from.
func (s *Server) onEvent(e bus.Event) error {
	switch d := e.Data.(type) {
	case linesim.FrameData:
		s.mu.Lock()
		s.last = d
		if len(s.trail) < maxTrail {
			s.trail = append(s.trail, record.Pose{Frame: d.Frame, X: d.X, Y: d.Y, Heading: d.Heading})
		}
		s.mu.Unlock()
	case linesim.StopData:
		s.mu.Lock()
		s.simRunning = false
		s.simReason = d.Reason
		s.mu.Unlock()
	}

	payload, err := json.Marshal(wireEvent{Type: e.Type, Time: e.Time, Data: e.Data})
	if err != nil {
		return err
	}
	s.hub.broadcast(payload)
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	snap := stateSnapshot{
		Track:   s.trackName,
		Frame:   s.last.Frame,
		Running: s.simRunning,
		Reason:  s.simReason,
		X:       s.last.X,
		Y:       s.last.Y,
		Heading: s.last.Heading,
	}
	s.mu.Unlock()
	snap.Clients = s.hub.count()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		s.log.Warn("state encode failed", log.Error(err))
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", log.Error(err))
		return
	}
	s.hub.add(conn)
	s.log.Debug("websocket client connected", log.String("remote", conn.RemoteAddr().String()))

	// Drain the connection so pings and close frames are processed. The
	// feed is one-way, inbound payloads are discarded.
	go func() {
		defer s.hub.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) handleTrail(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	trail := make([]record.Pose, len(s.trail))
	copy(trail, s.trail)
	reason := s.simReason
	s.mu.Unlock()

	session := record.Session{
		ID:     "live",
		Track:  s.trackName,
		Reason: reason,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.WriteTrajectoryChart(w, session, trail); err != nil {
		s.log.Warn("trail chart render failed", log.Error(err))
	}
}
