package geometry

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestTransformZeroOffset(t *testing.T) {
	p := Pose{Pos: Vec2{X: 120, Y: 45}, Heading: 73}
	got := p.Transform(Vec2{})
	if !almostEqual(got.X, 120) || !almostEqual(got.Y, 45) {
		t.Fatalf("zero offset must map to pose position, got %+v", got)
	}
}

func TestTransformRotatesOffset(t *testing.T) {
	p := Pose{Pos: Vec2{X: 10, Y: 10}, Heading: 90}
	// At heading 90 a forward offset points along +Y.
	got := p.Transform(Vec2{X: 5, Y: 0})
	if !almostEqual(got.X, 10) || !almostEqual(got.Y, 15) {
		t.Fatalf("expected (10,15), got %+v", got)
	}
	// A left offset points along -X.
	got = p.Transform(Vec2{X: 0, Y: -5})
	if !almostEqual(got.X, 15) || !almostEqual(got.Y, 10) {
		t.Fatalf("expected (15,10), got %+v", got)
	}
}

func TestRotateRoundTrip(t *testing.T) {
	p := Pose{Heading: 30}
	q := p.Rotate(47).Rotate(-47)
	if !almostEqual(q.Heading, p.Heading) {
		t.Fatalf("rotate round trip changed heading: %v", q.Heading)
	}
}

func TestForwardAlongHeading(t *testing.T) {
	p := Pose{Pos: Vec2{X: 0, Y: 0}, Heading: 0}
	q := p.Forward(4)
	if !almostEqual(q.Pos.X, 4) || !almostEqual(q.Pos.Y, 0) {
		t.Fatalf("forward at heading 0: %+v", q.Pos)
	}
	q = Pose{Heading: 180}.Forward(4)
	if !almostEqual(q.Pos.X, -4) || !almostEqual(math.Abs(q.Pos.Y), 0) {
		t.Fatalf("forward at heading 180: %+v", q.Pos)
	}
}

func TestNormalizeHeading(t *testing.T) {
	cases := map[float64]float64{
		0:    0,
		360:  0,
		-90:  270,
		450:  90,
		-720: 0,
	}
	for in, want := range cases {
		if got := NormalizeHeading(in); !almostEqual(got, want) {
			t.Fatalf("NormalizeHeading(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestDistance(t *testing.T) {
	if d := Distance(Vec2{0, 0}, Vec2{3, 4}); !almostEqual(d, 5) {
		t.Fatalf("distance = %v", d)
	}
}
