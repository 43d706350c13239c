package linesim

import (
	"github.com/linesim/linesim/pkg/geometry"
	"github.com/linesim/linesim/pkg/sensor"
)

// Robot is the simulated vehicle. It has a pose on the track and carries
// the mounted sensors. Movement is purely kinematic: Move translates along
// the current heading, Rotate adjusts the heading in place.
type Robot struct {
	pose    geometry.Pose
	sensors []sensor.Sensor
}

func newRobot(start geometry.Pose) *Robot {
	return &Robot{pose: start}
}

// Pose returns the robot's current pose. It also satisfies sensor.Body.
func (r *Robot) Pose() geometry.Pose { return r.pose }

// Position returns the robot center in track pixels.
func (r *Robot) Position() geometry.Vec2 { return r.pose.Pos }

// Heading returns the robot heading in degrees.
func (r *Robot) Heading() float64 { return r.pose.Heading }

// Move drives the robot forward by dist pixels along its heading. Negative
// values reverse.
func (r *Robot) Move(dist float64) { r.pose = r.pose.Forward(dist) }

// Rotate turns the robot by deg degrees.
func (r *Robot) Rotate(deg float64) { r.pose = r.pose.Rotate(deg) }

// Sensors returns the mounted sensors in mount order.
func (r *Robot) Sensors() []sensor.Sensor { return r.sensors }

func (r *Robot) mount(s sensor.Sensor) { r.sensors = append(r.sensors, s) }
