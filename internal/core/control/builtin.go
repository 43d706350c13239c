package control

import (
	"fmt"

	"github.com/linesim/linesim/pkg/geometry"
	"github.com/linesim/linesim/pkg/linesim"
)

// Built-in controller names selectable from the CLI and config.
const (
	FollowController = "follow"
	AvoidController  = "avoid"
)

// Builtin assembles a named built-in controller, mounting the sensors it
// needs on the simulation's robot.
func Builtin(name string, sim *linesim.Simulation) (*Controller, error) {
	switch name {
	case FollowController:
		return newFollow(sim)
	case AvoidController:
		return newAvoid(sim)
	default:
		return nil, fmt.Errorf("control: no built-in controller %q", name)
	}
}

// BuiltinNames lists the available built-in controllers.
func BuiltinNames() []string { return []string{FollowController, AvoidController} }

// newFollow is the classic three-sensor line follower: when an outer
// sensor sees the line, turn toward it, otherwise drive straight.
func newFollow(sim *linesim.Simulation) (*Controller, error) {
	left, err := sim.AddLineSensor(geometry.Vec2{X: 20, Y: -10})
	if err != nil {
		return nil, err
	}
	right, err := sim.AddLineSensor(geometry.Vec2{X: 20, Y: 10})
	if err != nil {
		return nil, err
	}

	read := SensorFunc{SensorName: "line-pair", Fn: func(bb *Blackboard) {
		bb.Set("line.left", left.Read())
		bb.Set("line.right", right.Read())
	}}

	root := NewSelector("follow",
		NewSequence("turn-left",
			NewCondition("left-on-line", func(ctx *Context) bool { return ctx.BB.GetBool("line.left") }),
			NewAction("rotate-left", func(ctx *Context) { ctx.Sim.Robot().Rotate(-4) }),
		),
		NewSequence("turn-right",
			NewCondition("right-on-line", func(ctx *Context) bool { return ctx.BB.GetBool("line.right") }),
			NewAction("rotate-right", func(ctx *Context) { ctx.Sim.Robot().Rotate(4) }),
		),
		NewAction("forward", func(ctx *Context) { ctx.Sim.Robot().Move(4) }),
	)
	return NewController(FollowController, root, read), nil
}

// avoidTurnDistance is how close a wall may get before the avoid
// controller turns away, in pixels.
const avoidTurnDistance = 25

// newAvoid wanders forward and turns away from whichever side wall is
// closer once the front beam reports an obstacle.
func newAvoid(sim *linesim.Simulation) (*Controller, error) {
	front, err := sim.AddUltrasonicSensor(geometry.Vec2{X: 15}, 0)
	if err != nil {
		return nil, err
	}
	leftBeam, err := sim.AddUltrasonicSensor(geometry.Vec2{X: 10}, -60)
	if err != nil {
		return nil, err
	}
	rightBeam, err := sim.AddUltrasonicSensor(geometry.Vec2{X: 10}, 60)
	if err != nil {
		return nil, err
	}

	read := SensorFunc{SensorName: "beams", Fn: func(bb *Blackboard) {
		bb.Set("range.front", float64(front.Distance()))
		bb.Set("range.left", float64(leftBeam.Distance()))
		bb.Set("range.right", float64(rightBeam.Distance()))
	}}

	blocked := func(ctx *Context) bool {
		d, ok := ctx.BB.GetFloat("range.front")
		return ok && d < avoidTurnDistance
	}
	turnAway := func(ctx *Context) {
		l, _ := ctx.BB.GetFloat("range.left")
		r, _ := ctx.BB.GetFloat("range.right")
		if l < r {
			ctx.Sim.Robot().Rotate(6)
		} else {
			ctx.Sim.Robot().Rotate(-6)
		}
	}

	root := NewSelector("avoid",
		NewSequence("evade",
			NewCondition("wall-ahead", blocked),
			NewAction("turn-away", turnAway),
		),
		NewAction("forward", func(ctx *Context) { ctx.Sim.Robot().Move(3) }),
	)
	return NewController(AvoidController, root, read), nil
}
