package track

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/linesim/linesim/pkg/geometry"
)

// Builtin track names.
const (
	Blank = "blank"
	Lines = "lines"
	Maze  = "maze"
)

var (
	white = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	black = color.RGBA{A: 0xff}
	red   = color.RGBA{R: 0xff, A: 0xff}
	blue  = color.RGBA{B: 0xff, A: 0xff}
)

const builtinSize = 500

// Builtin returns one of the generated classroom tracks: "blank" (empty
// floor), "lines" (a line-following course ending on a finish strip) or
// "maze" (blue walls with a finish pocket). Unknown names are an error.
func Builtin(name string) (*Track, error) {
	switch name {
	case Blank:
		return buildBlank(), nil
	case Lines:
		return buildLines(), nil
	case Maze:
		return buildMaze(), nil
	default:
		return nil, fmt.Errorf("track: no builtin track %q", name)
	}
}

// BuiltinNames lists the available generated tracks.
func BuiltinNames() []string { return []string{Blank, Lines, Maze} }

func newCanvas() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, builtinSize, builtinSize))
	draw.Draw(img, img.Bounds(), image.NewUniform(white), image.Point{}, draw.Src)
	return img
}

func fill(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	draw.Draw(img, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// band paints an axis-aligned segment of the given thickness between two
// points that share a row or a column.
func band(img *image.RGBA, x0, y0, x1, y1, thick int, c color.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	half := thick / 2
	fill(img, image.Rect(x0-half, y0-half, x1+half+1, y1+half+1), c)
}

func buildBlank() *Track {
	t := FromImage(Blank, newCanvas())
	t.start = geometry.Pose{Pos: geometry.Vec2{X: 250, Y: 250}}
	return t
}

func buildLines() *Track {
	img := newCanvas()
	// A zig-zag course: up the left side, across, down, across again.
	const w = 6
	band(img, 50, 460, 50, 300, w, black)
	band(img, 50, 300, 220, 300, w, black)
	band(img, 220, 300, 220, 120, w, black)
	band(img, 220, 120, 400, 120, w, black)
	band(img, 400, 120, 400, 380, w, black)
	band(img, 400, 380, 460, 380, w, black)
	// Finish strip at the course end.
	fill(img, image.Rect(455, 360, 490, 400), red)

	t := FromImage(Lines, img)
	t.start = geometry.Pose{Pos: geometry.Vec2{X: 50, Y: 450}, Heading: -90}
	return t
}

func buildMaze() *Track {
	img := newCanvas()
	const w = 10
	// Outer walls.
	band(img, 5, 5, 495, 5, w, blue)
	band(img, 5, 495, 495, 495, w, blue)
	band(img, 5, 5, 5, 495, w, blue)
	band(img, 495, 5, 495, 495, w, blue)
	// Inner walls forming a simple two-turn corridor maze.
	band(img, 120, 5, 120, 380, w, blue)
	band(img, 250, 120, 250, 495, w, blue)
	band(img, 380, 5, 380, 380, w, blue)
	// Finish pocket in the far corner.
	fill(img, image.Rect(430, 430, 480, 480), red)

	t := FromImage(Maze, img)
	t.start = geometry.Pose{Pos: geometry.Vec2{X: 30, Y: 280}}
	return t
}
