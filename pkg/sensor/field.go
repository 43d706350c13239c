package sensor

import (
	"github.com/linesim/linesim/pkg/beacon"
	"github.com/linesim/linesim/pkg/geometry"
)

// Hall measures the summed strength of all magnetic beacons at the sensor
// position.
type Hall struct {
	Mount
	field *beacon.Field
}

// NewHall mounts a hall effect sensor reading from a beacon field.
func NewHall(body Body, field *beacon.Field, offset geometry.Vec2) *Hall {
	return &Hall{Mount: NewMount(body, offset), field: field}
}

// Read returns the summed magnetic reading at the sensor position.
func (h *Hall) Read() float64 {
	return h.field.Sum(beacon.Magnetic, h.Position())
}

func (h *Hall) Kind() Kind     { return KindHall }
func (h *Hall) Value() float64 { return h.Read() }

// IR measures the summed strength of all infrared beacons at the sensor
// position.
type IR struct {
	Mount
	field *beacon.Field
}

// NewIR mounts an infrared sensor reading from a beacon field.
func NewIR(body Body, field *beacon.Field, offset geometry.Vec2) *IR {
	return &IR{Mount: NewMount(body, offset), field: field}
}

// Read returns the summed infrared reading at the sensor position.
func (i *IR) Read() float64 {
	return i.field.Sum(beacon.Infrared, i.Position())
}

func (i *IR) Kind() Kind     { return KindIR }
func (i *IR) Value() float64 { return i.Read() }
