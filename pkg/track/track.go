package track

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/cespare/xxhash/v2"

	"github.com/linesim/linesim/pkg/geometry"
)

// Track pixel color conventions: black is the line, red marks the finish and
// blue marks walls. Anything else is drivable background.
const (
	// DefaultLineThreshold is the per-channel average below which a pixel
	// counts as part of the line.
	DefaultLineThreshold = 50

	wallBlueMin    = 220
	wallOtherMax   = 50
	finishRedMin   = 230
	finishOtherMax = 50
)

// ErrOutOfBounds reports a pixel lookup outside the track image.
var ErrOutOfBounds = errors.New("track: pixel out of bounds")

// Track is a raster image used both for display and for sensor pixel lookup.
type Track struct {
	name        string
	img         *image.RGBA
	start       geometry.Pose
	fingerprint uint64
}

// Load reads a custom track from an ordinary raster image (PNG, JPEG or GIF).
func Load(path string) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("track: open %s: %w", path, err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("track: decode %s: %w", path, err)
	}
	return FromImage(path, src), nil
}

// FromImage wraps an in-memory image as a track. The image is copied into an
// RGBA buffer so pixel lookups stay O(1) regardless of the source format.
func FromImage(name string, src image.Image) *Track {
	b := src.Bounds()
	img := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(img, img.Bounds(), src, b.Min, draw.Src)
	return &Track{
		name:        name,
		img:         img,
		start:       geometry.Pose{Pos: geometry.Vec2{X: float64(b.Dx()) / 2, Y: float64(b.Dy()) / 2}},
		fingerprint: xxhash.Sum64(img.Pix),
	}
}

// Name returns the track name (builtin name or source path).
func (t *Track) Name() string { return t.name }

// Size returns the track dimensions in pixels.
func (t *Track) Size() (w, h int) {
	b := t.img.Bounds()
	return b.Dx(), b.Dy()
}

// Image exposes the backing raster for rendering.
func (t *Track) Image() *image.RGBA { return t.img }

// StartPose returns the default robot start pose for this track.
func (t *Track) StartPose() geometry.Pose { return t.start }

// Fingerprint is a content hash of the raster, used to dedupe loaded tracks
// and to tag recorded sessions.
func (t *Track) Fingerprint() uint64 { return t.fingerprint }

// InBounds reports whether the pixel lies inside the track image.
func (t *Track) InBounds(x, y int) bool {
	return image.Pt(x, y).In(t.img.Bounds())
}

// At returns the pixel color at (x, y) or ErrOutOfBounds.
func (t *Track) At(x, y int) (color.RGBA, error) {
	if !t.InBounds(x, y) {
		return color.RGBA{}, fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, x, y)
	}
	return t.img.RGBAAt(x, y), nil
}

// LineAt reports whether the pixel at (x, y) is line-colored: the average of
// the RGB channels is below the threshold. Out-of-bounds pixels are not line.
func (t *Track) LineAt(x, y int, threshold uint8) bool {
	c, err := t.At(x, y)
	if err != nil {
		return false
	}
	return int(c.R)+int(c.G)+int(c.B) < int(threshold)*3
}

// WallAt reports whether the pixel at (x, y) is wall-colored (strong blue).
func (t *Track) WallAt(x, y int) bool {
	c, err := t.At(x, y)
	if err != nil {
		return false
	}
	return c.B > wallBlueMin && c.R < wallOtherMax && c.G < wallOtherMax
}

// FinishAt reports whether the pixel at (x, y) is finish-colored (strong red).
func (t *Track) FinishAt(x, y int) bool {
	c, err := t.At(x, y)
	if err != nil {
		return false
	}
	return c.R > finishRedMin && c.G < finishOtherMax && c.B < finishOtherMax
}
