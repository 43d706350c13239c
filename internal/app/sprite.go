package app

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

// robotSize is the on-screen robot sprite diameter in track pixels.
const robotSize = 30

// spriteScale is how much larger the sprite is rasterized before
// downscaling, which keeps the circle edge smooth without an
// antialiasing pass.
const spriteScale = 4

// renderRobotSprite rasterizes the robot body at high resolution and
// scales it down with Catmull-Rom resampling.
func renderRobotSprite() *image.RGBA {
	big := drawRobotBody(robotSize * spriteScale)
	out := image.NewRGBA(image.Rect(0, 0, robotSize, robotSize))
	xdraw.CatmullRom.Scale(out, out.Bounds(), big, big.Bounds(), xdraw.Over, nil)
	return out
}

// drawRobotBody fills a circular body with a heading wedge pointing
// along +X, the robot's zero heading.
func drawRobotBody(size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	body := color.RGBA{R: 0x37, G: 0x47, B: 0x4f, A: 0xff}
	wedge := color.RGBA{R: 0xff, G: 0xb3, A: 0xff}
	c := float64(size) / 2
	r := c - 1
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) + 0.5 - c
			dy := float64(y) + 0.5 - c
			if dx*dx+dy*dy > r*r {
				continue
			}
			img.SetRGBA(x, y, body)
			if dx > 0 && dy < dx/2 && dy > -dx/2 {
				img.SetRGBA(x, y, wedge)
			}
		}
	}
	return img
}
