package sensor

import (
	"math"

	"github.com/linesim/linesim/pkg/geometry"
	"github.com/linesim/linesim/pkg/track"
)

// DefaultMaxRange is the default ultrasonic range in track pixels.
const DefaultMaxRange = 100

// Ultrasonic casts a ray from its mount along the robot heading plus a fixed
// beam angle, stepping one pixel at a time until it hits a wall-colored
// pixel or leaves the frame.
type Ultrasonic struct {
	Mount
	track    *track.Track
	angle    float64
	maxRange int

	lastTrace []geometry.Vec2
	lastHit   bool
}

// NewUltrasonic mounts an ultrasonic sensor with the given beam angle in
// degrees relative to the robot heading.
func NewUltrasonic(body Body, tr *track.Track, offset geometry.Vec2, angle float64) *Ultrasonic {
	return &Ultrasonic{
		Mount:    NewMount(body, offset),
		track:    tr,
		angle:    angle,
		maxRange: DefaultMaxRange,
	}
}

// SetMaxRange adjusts the maximum measured range in pixels.
func (u *Ultrasonic) SetMaxRange(r int) {
	if r > 0 {
		u.maxRange = r
	}
}

// MaxRange returns the maximum measured range in pixels.
func (u *Ultrasonic) MaxRange() int { return u.maxRange }

// Angle returns the beam angle relative to the robot heading.
func (u *Ultrasonic) Angle() float64 { return u.angle }

// Distance walks outward along the beam and returns the distance in pixels
// to the nearest wall-colored pixel. Leaving the frame counts as a hit at
// the frame edge. Without an obstacle the maximum range is returned.
func (u *Ultrasonic) Distance() int {
	origin := u.Position()
	sin, cos := math.Sincos((u.Heading() + u.angle) * math.Pi / 180)

	u.lastTrace = u.lastTrace[:0]
	u.lastHit = false
	for dist := 0; dist < u.maxRange; dist++ {
		p := geometry.Vec2{
			X: origin.X + float64(dist)*cos,
			Y: origin.Y + float64(dist)*sin,
		}
		x, y := int(p.X), int(p.Y)
		if !u.track.InBounds(x, y) {
			u.lastHit = true
			return dist
		}
		u.lastTrace = append(u.lastTrace, p)
		if u.track.WallAt(x, y) {
			u.lastHit = true
			return dist
		}
	}
	return u.maxRange
}

// Trace returns the pixels sampled by the last Distance call, for overlay
// rendering. The second result reports whether the beam ended on a hit.
func (u *Ultrasonic) Trace() ([]geometry.Vec2, bool) {
	return u.lastTrace, u.lastHit
}

func (u *Ultrasonic) Kind() Kind { return KindUltrasonic }

func (u *Ultrasonic) Value() float64 { return float64(u.Distance()) }
