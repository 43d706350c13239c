// Package sensor implements the robot-mounted sensors: line sensors that
// sample track pixels, ultrasonic sensors that cast short rays to walls,
// and hall/IR sensors that measure proximity to beacons.
package sensor

import (
	"errors"
	"fmt"

	"github.com/linesim/linesim/pkg/geometry"
)

// Kind identifies a sensor type.
type Kind string

const (
	KindLine       Kind = "line"
	KindUltrasonic Kind = "ultrasonic"
	KindHall       Kind = "hall"
	KindIR         Kind = "ir"
)

// ErrUnknownKind reports an unrecognized sensor type name.
var ErrUnknownKind = errors.New("sensor: unknown sensor kind")

// ParseKind maps a user-supplied name to a sensor kind.
func ParseKind(name string) (Kind, error) {
	switch Kind(name) {
	case KindLine, KindUltrasonic, KindHall, KindIR:
		return Kind(name), nil
	case "infrared":
		return KindIR, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
}

// Body is anything a sensor can be mounted on. The robot implements it.
type Body interface {
	Pose() geometry.Pose
}

// Sensor is the common surface of all mounted sensors.
type Sensor interface {
	Kind() Kind
	// Position returns the sensor's world position derived from the body
	// pose and the mount offset.
	Position() geometry.Vec2
	// Value returns the current reading as a float: 0/1 for line sensors,
	// the range for ultrasonic, the field strength for hall and IR.
	Value() float64
}

// Mount fixes a sensor to a body at a body-frame offset from its center.
type Mount struct {
	body   Body
	offset geometry.Vec2
}

// NewMount attaches to a body at the given offset.
func NewMount(body Body, offset geometry.Vec2) Mount {
	return Mount{body: body, offset: offset}
}

// Offset returns the body-frame offset.
func (m Mount) Offset() geometry.Vec2 { return m.offset }

// Position returns the mount's world position for the current body pose.
func (m Mount) Position() geometry.Vec2 {
	return m.body.Pose().Transform(m.offset)
}

// Heading returns the body heading in degrees.
func (m Mount) Heading() float64 { return m.body.Pose().Heading }
