// Package script implements the small command language used to drive the
// robot without writing Go. A script is a sequence of commands:
//
//	repeat 10 { move 4 }
//	until finish {
//		if line(0) { rotate 4 } else { move 4 }
//	}
//
// Every move and rotate advances the simulation by one frame, so a script
// runs at the same cadence as a hand-written control loop.
package script

import (
	"errors"
	"fmt"

	"github.com/alecthomas/participle/v2"

	"github.com/linesim/linesim/pkg/linesim"
	"github.com/linesim/linesim/pkg/sensor"
)

// Program is a parsed script.
type Program struct {
	Statements []*Statement `parser:"@@*"`
}

// Statement is a single command or control block.
type Statement struct {
	Move   *Move   `parser:"@@"`
	Rotate *Rotate `parser:"| @@"`
	Repeat *Repeat `parser:"| @@"`
	If     *If     `parser:"| @@"`
	Until  *Until  `parser:"| @@"`
}

// Move drives the robot forward by a number of pixels.
type Move struct {
	Pixels float64 `parser:"'move' @('-'? (Float|Int))"`
}

// Rotate turns the robot by a number of degrees.
type Rotate struct {
	Degrees float64 `parser:"'rotate' @('-'? (Float|Int))"`
}

// Repeat runs its body a fixed number of times.
type Repeat struct {
	Count int      `parser:"'repeat' @Int"`
	Body  *Program `parser:"'{' @@ '}'"`
}

// If branches on a sensor condition.
type If struct {
	Cond *Cond    `parser:"'if' @@"`
	Then *Program `parser:"'{' @@ '}'"`
	Else *Program `parser:"('else' '{' @@ '}')?"`
}

// Until repeats its body until the condition holds.
type Until struct {
	Cond *Cond    `parser:"'until' @@"`
	Body *Program `parser:"'{' @@ '}'"`
}

// Cond is a readable sensor predicate: line(i) tests the i-th line sensor,
// finish tests whether the robot stands on the finish color. A leading
// "not" negates.
type Cond struct {
	Not    bool `parser:"@'not'?"`
	Line   *int `parser:"( 'line' '(' @Int ')'"`
	Finish bool `parser:"| @'finish' )"`
}

var parser = participle.MustBuild[Program]()

// Parse compiles script source.
func Parse(src string) (*Program, error) {
	prog, err := parser.ParseString("script", src)
	if err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	return prog, nil
}

// Context binds a script to a simulation and the line sensors it may test.
type Context struct {
	Sim   *linesim.Simulation
	Lines []*sensor.Line

	// Step optionally replaces the default frame advance. It must update
	// the simulation exactly once and return linesim.ErrNotRunning once
	// the run has ended; after it returns, the interpreter does not touch
	// the simulation again until the next command. Windowed runs use this
	// to hand each frame to the display goroutine.
	Step func() error
}

// errStopped unwinds execution when the simulation run ends mid-script.
var errStopped = errors.New("script: simulation stopped")

// Run executes the program against the simulation. It returns nil when the
// script completes or the run ends (finish, bounds exit or quit).
func (p *Program) Run(ctx *Context) error {
	if err := p.exec(ctx); err != nil && !errors.Is(err, errStopped) {
		return err
	}
	return nil
}

func (p *Program) exec(ctx *Context) error {
	for _, stmt := range p.Statements {
		if err := stmt.exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Statement) exec(ctx *Context) error {
	if !ctx.Sim.Running() {
		return errStopped
	}
	switch {
	case s.Move != nil:
		ctx.Sim.Robot().Move(s.Move.Pixels)
		return step(ctx)
	case s.Rotate != nil:
		ctx.Sim.Robot().Rotate(s.Rotate.Degrees)
		return step(ctx)
	case s.Repeat != nil:
		for i := 0; i < s.Repeat.Count; i++ {
			if err := s.Repeat.Body.exec(ctx); err != nil {
				return err
			}
		}
	case s.If != nil:
		ok, err := s.If.Cond.eval(ctx)
		if err != nil {
			return err
		}
		if ok {
			return s.If.Then.exec(ctx)
		}
		if s.If.Else != nil {
			return s.If.Else.exec(ctx)
		}
	case s.Until != nil:
		for {
			ok, err := s.Until.Cond.eval(ctx)
			if err != nil {
				return err
			}
			if ok {
				return nil
			}
			before := ctx.Sim.Frame()
			if err := s.Until.Body.exec(ctx); err != nil {
				return err
			}
			// A body that issued no command must still burn a frame, or a
			// bad script would spin without ever reaching a stop condition.
			if ctx.Sim.Frame() == before {
				if err := step(ctx); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func step(ctx *Context) error {
	advance := ctx.Step
	if advance == nil {
		advance = func() error {
			if err := ctx.Sim.Update(); err != nil {
				return err
			}
			if !ctx.Sim.Running() {
				return linesim.ErrNotRunning
			}
			return nil
		}
	}
	if err := advance(); err != nil {
		if errors.Is(err, linesim.ErrNotRunning) {
			return errStopped
		}
		return err
	}
	return nil
}

func (c *Cond) eval(ctx *Context) (bool, error) {
	var v bool
	switch {
	case c.Line != nil:
		i := *c.Line
		if i < 0 || i >= len(ctx.Lines) {
			return false, fmt.Errorf("script: no line sensor %d (have %d)", i, len(ctx.Lines))
		}
		v = ctx.Lines[i].Read()
	case c.Finish:
		pos := ctx.Sim.Robot().Position()
		v = ctx.Sim.Track().FinishAt(int(pos.X), int(pos.Y))
	}
	if c.Not {
		v = !v
	}
	return v, nil
}
