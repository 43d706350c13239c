package geometry

import "math"

// Vec2 is a 2D vector in track pixel coordinates.
type Vec2 struct{ X, Y float64 }

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(f float64) Vec2 { return Vec2{v.X * f, v.Y * f} }
func (v Vec2) Len() float64         { return math.Hypot(v.X, v.Y) }

// Distance computes Euclidean distance between two points.
func Distance(a, b Vec2) float64 { return math.Hypot(b.X-a.X, b.Y-a.Y) }

// Pose is a position plus a heading in degrees. Heading 0 points along +X
// and grows clockwise in screen coordinates (y grows downward).
type Pose struct {
	Pos     Vec2
	Heading float64
}

// Radians converts the heading to radians.
func (p Pose) Radians() float64 { return p.Heading * math.Pi / 180 }

// Transform rotates a body-frame offset into world frame and translates it
// by the pose position. An offset of (0,0) always maps to the pose position.
func (p Pose) Transform(offset Vec2) Vec2 {
	sin, cos := math.Sincos(p.Radians())
	return Vec2{
		X: p.Pos.X + offset.X*cos - offset.Y*sin,
		Y: p.Pos.Y + offset.Y*cos + offset.X*sin,
	}
}

// Forward returns the pose advanced by dist pixels along its heading.
func (p Pose) Forward(dist float64) Pose {
	sin, cos := math.Sincos(p.Radians())
	p.Pos.X += dist * cos
	p.Pos.Y += dist * sin
	return p
}

// Rotate returns the pose with the heading adjusted by deg degrees.
func (p Pose) Rotate(deg float64) Pose {
	p.Heading += deg
	return p
}

// NormalizeHeading maps a heading in degrees into [0, 360).
func NormalizeHeading(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}
