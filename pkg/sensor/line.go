package sensor

import (
	"github.com/linesim/linesim/pkg/geometry"
	"github.com/linesim/linesim/pkg/track"
)

// Line samples the track pixel under its mount and compares the average RGB
// value against a threshold to detect the (black) line.
type Line struct {
	Mount
	track     *track.Track
	threshold uint8
}

// NewLine mounts a line sensor on a body over the given track.
func NewLine(body Body, tr *track.Track, offset geometry.Vec2) *Line {
	return &Line{
		Mount:     NewMount(body, offset),
		track:     tr,
		threshold: track.DefaultLineThreshold,
	}
}

// SetThreshold adjusts the per-channel average below which the sensor reads
// true. The classroom default matches a black line on a light floor.
func (l *Line) SetThreshold(threshold uint8) { l.threshold = threshold }

// Threshold returns the current detection threshold.
func (l *Line) Threshold() uint8 { return l.threshold }

// Read reports whether the pixel under the sensor is line-colored. A sensor
// hanging outside the frame reads false.
func (l *Line) Read() bool {
	pos := l.Position()
	return l.track.LineAt(int(pos.X), int(pos.Y), l.threshold)
}

func (l *Line) Kind() Kind { return KindLine }

func (l *Line) Value() float64 {
	if l.Read() {
		return 1
	}
	return 0
}
