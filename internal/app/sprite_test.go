package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRobotSprite(t *testing.T) {
	img := renderRobotSprite()
	b := img.Bounds()
	assert.Equal(t, robotSize, b.Dx())
	assert.Equal(t, robotSize, b.Dy())

	// Corners stay transparent, the center is opaque body.
	assert.Zero(t, img.RGBAAt(0, 0).A)
	assert.EqualValues(t, 0xff, img.RGBAAt(robotSize/2, robotSize/2).A)

	// The heading wedge tints the +X side differently from the -X side.
	front := img.RGBAAt(robotSize-5, robotSize/2)
	back := img.RGBAAt(4, robotSize/2)
	assert.NotEqual(t, front, back)
}
