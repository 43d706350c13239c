package track

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func TestAtOutOfBounds(t *testing.T) {
	tr := FromImage("test", solid(10, 10, white))
	_, err := tr.At(-1, 0)
	require.ErrorIs(t, err, ErrOutOfBounds)
	_, err = tr.At(10, 3)
	require.ErrorIs(t, err, ErrOutOfBounds)
	_, err = tr.At(9, 9)
	require.NoError(t, err)
}

func TestClassification(t *testing.T) {
	img := solid(10, 10, white)
	img.SetRGBA(1, 1, black)
	img.SetRGBA(2, 2, color.RGBA{R: 40, G: 40, B: 40, A: 0xff})
	img.SetRGBA(3, 3, blue)
	img.SetRGBA(4, 4, red)
	tr := FromImage("test", img)

	assert.True(t, tr.LineAt(1, 1, DefaultLineThreshold))
	assert.True(t, tr.LineAt(2, 2, DefaultLineThreshold), "dark grey counts as line")
	assert.False(t, tr.LineAt(0, 0, DefaultLineThreshold))
	assert.False(t, tr.LineAt(-5, -5, DefaultLineThreshold), "out of frame is not line")

	assert.True(t, tr.WallAt(3, 3))
	assert.False(t, tr.WallAt(4, 4))
	assert.False(t, tr.WallAt(1, 1), "line pixels are not walls")

	assert.True(t, tr.FinishAt(4, 4))
	assert.False(t, tr.FinishAt(3, 3))
}

func TestBuiltinTracks(t *testing.T) {
	for _, name := range BuiltinNames() {
		tr, err := Builtin(name)
		require.NoError(t, err, name)
		w, h := tr.Size()
		assert.Equal(t, builtinSize, w)
		assert.Equal(t, builtinSize, h)
		// Start pose must be on drivable ground, not inside a wall.
		sp := tr.StartPose().Pos
		assert.False(t, tr.WallAt(int(sp.X), int(sp.Y)), "%s start inside wall", name)
	}

	_, err := Builtin("volcano")
	assert.Error(t, err)
}

func TestLinesTrackHasLineUnderStart(t *testing.T) {
	tr, err := Builtin(Lines)
	require.NoError(t, err)
	sp := tr.StartPose().Pos
	assert.True(t, tr.LineAt(int(sp.X), int(sp.Y), DefaultLineThreshold))
}

func TestFingerprintDistinguishesTracks(t *testing.T) {
	a, err := Builtin(Lines)
	require.NoError(t, err)
	b, err := Builtin(Maze)
	require.NoError(t, err)
	c, err := Builtin(Lines)
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	assert.Equal(t, a.Fingerprint(), c.Fingerprint(), "generation must be deterministic")
}

func TestLoadCustomTrack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, solid(20, 30, white)))
	require.NoError(t, f.Close())

	tr, err := Load(path)
	require.NoError(t, err)
	w, h := tr.Size()
	assert.Equal(t, 20, w)
	assert.Equal(t, 30, h)

	_, err = Load(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)
}
