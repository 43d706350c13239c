package beacon

import (
	"fmt"

	"github.com/linesim/linesim/pkg/geometry"
)

// Kind identifies what class of sensor can detect a beacon.
type Kind string

const (
	// Magnetic beacons are read by hall sensors.
	Magnetic Kind = "magnetic"
	// Infrared beacons are read by IR sensors.
	Infrared Kind = "infrared"
)

// Default effect radii in track pixels.
const (
	MagneticRadius = 20
	InfraredRadius = 80
)

// ParseKind maps a user-supplied name to a beacon kind.
func ParseKind(name string) (Kind, error) {
	switch Kind(name) {
	case Magnetic, Infrared:
		return Kind(name), nil
	case "ir":
		return Infrared, nil
	default:
		return "", fmt.Errorf("beacon: no such beacon kind %q", name)
	}
}

// Beacon is a detectable marker placed on the track.
type Beacon struct {
	Pos    geometry.Vec2
	Radius float64
	Kind   Kind
}

// New creates a beacon of the given kind with its default effect radius.
func New(pos geometry.Vec2, kind Kind) Beacon {
	b := Beacon{Pos: pos, Kind: kind}
	switch kind {
	case Infrared:
		b.Radius = InfraredRadius
	default:
		b.Radius = MagneticRadius
	}
	return b
}

// Reading returns the power-law strength of the beacon at a point: the
// effect radius divided by the distance, inside the radius, otherwise 0.
// Readings saturate at the radius value when sampled on top of the beacon.
func (b Beacon) Reading(at geometry.Vec2) float64 {
	dist := geometry.Distance(at, b.Pos)
	if dist > b.Radius {
		return 0
	}
	if dist < 1 {
		return b.Radius
	}
	return b.Radius / dist
}
