// Package control runs built-in robot controllers as small behavior trees:
// sensors write readings into a blackboard each frame, then the tree picks
// a steering action.
package control

import (
	"github.com/linesim/linesim/pkg/linesim"
)

// Status is the result of ticking a node.
type Status int

const (
	StatusSuccess Status = iota
	StatusFailure
	StatusRunning
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	default:
		return "running"
	}
}

// Context is passed to every node tick.
type Context struct {
	Sim *linesim.Simulation
	BB  *Blackboard
}

// Node is a behavior tree node.
type Node interface {
	Name() string
	Tick(ctx *Context) Status
}

// Sequence ticks children in order and fails on the first failure.
type Sequence struct {
	name     string
	children []Node
}

// NewSequence builds a sequence node.
func NewSequence(name string, children ...Node) *Sequence {
	return &Sequence{name: name, children: children}
}

func (s *Sequence) Name() string { return s.name }

func (s *Sequence) Tick(ctx *Context) Status {
	for _, c := range s.children {
		if st := c.Tick(ctx); st != StatusSuccess {
			return st
		}
	}
	return StatusSuccess
}

// Selector ticks children in order and succeeds on the first success.
type Selector struct {
	name     string
	children []Node
}

// NewSelector builds a selector node.
func NewSelector(name string, children ...Node) *Selector {
	return &Selector{name: name, children: children}
}

func (s *Selector) Name() string { return s.name }

func (s *Selector) Tick(ctx *Context) Status {
	for _, c := range s.children {
		if st := c.Tick(ctx); st != StatusFailure {
			return st
		}
	}
	return StatusFailure
}

// Condition is a leaf node that checks a predicate.
type Condition struct {
	name string
	fn   func(ctx *Context) bool
}

// NewCondition builds a condition leaf.
func NewCondition(name string, fn func(ctx *Context) bool) *Condition {
	return &Condition{name: name, fn: fn}
}

func (c *Condition) Name() string { return c.name }

func (c *Condition) Tick(ctx *Context) Status {
	if c.fn(ctx) {
		return StatusSuccess
	}
	return StatusFailure
}

// Action is a leaf node that performs a side effect and always succeeds.
type Action struct {
	name string
	fn   func(ctx *Context)
}

// NewAction builds an action leaf.
func NewAction(name string, fn func(ctx *Context)) *Action {
	return &Action{name: name, fn: fn}
}

func (a *Action) Name() string { return a.name }

func (a *Action) Tick(ctx *Context) Status {
	a.fn(ctx)
	return StatusSuccess
}

// Sensor feeds the blackboard before the tree ticks.
type Sensor interface {
	Name() string
	Update(bb *Blackboard)
}

// SensorFunc adapts a function to the Sensor interface.
type SensorFunc struct {
	SensorName string
	Fn         func(bb *Blackboard)
}

func (s SensorFunc) Name() string          { return s.SensorName }
func (s SensorFunc) Update(bb *Blackboard) { s.Fn(bb) }

// Controller owns a behavior tree, its blackboard and its sensors, and
// steps the simulation one frame at a time.
type Controller struct {
	name    string
	root    Node
	sensors []Sensor
	bb      *Blackboard
}

// NewController assembles a controller.
func NewController(name string, root Node, sensors ...Sensor) *Controller {
	return &Controller{name: name, root: root, sensors: sensors, bb: NewBlackboard()}
}

// Name returns the controller name.
func (c *Controller) Name() string { return c.name }

// Blackboard exposes the controller's blackboard, mainly for tests.
func (c *Controller) Blackboard() *Blackboard { return c.bb }

// Step updates all sensors, ticks the tree once and advances the
// simulation one frame.
func (c *Controller) Step(sim *linesim.Simulation) error {
	for _, s := range c.sensors {
		s.Update(c.bb)
	}
	c.root.Tick(&Context{Sim: sim, BB: c.bb})
	return sim.Update()
}
