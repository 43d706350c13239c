package linesim

import "errors"

// Simulation errors.
var (
	ErrNotRunning   = errors.New("linesim: simulation is not running")
	ErrMissingAngle = errors.New("linesim: ultrasonic sensors require a beam angle")
	ErrNoTrack      = errors.New("linesim: no track configured")
)
