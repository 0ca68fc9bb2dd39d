package texture

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend/backendtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red  = color.RGBA{255, 0, 0, 255}
	blue = color.RGBA{0, 0, 255, 255}
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	src := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range src.Pix {
		src.Pix[i] = 200
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))
	return buf.Bytes()
}

func TestDecodeFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wall.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, 4, 2), 0o644))

	img, err := Decode(path, 0)
	require.NoError(t, err)
	assert.Equal(t, path, img.Name)
	assert.Equal(t, 4, img.Width)
	assert.Equal(t, 2, img.Height)
	assert.Len(t, img.Pixels, 4*2*4)
	assert.Equal(t, byte(200), img.Pixels[0])
}

func TestDecodeDownscalesLargeImages(t *testing.T) {
	img, err := DecodeBytes(encodePNG(t, 64, 16), 32)
	require.NoError(t, err)
	assert.Equal(t, 32, img.Width)
	assert.Equal(t, 8, img.Height)
	assert.Len(t, img.Pixels, 32*8*4)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := DecodeBytes([]byte("not an image"), 0)
	assert.Error(t, err)

	_, err = Decode(filepath.Join(t.TempDir(), "missing.png"), 0)
	assert.Error(t, err)
}

func TestChecker(t *testing.T) {
	img := Checker(4, 2, red, blue)
	px := func(x, y int) []byte { o := (y*4 + x) * 4; return img.Pixels[o : o+4] }
	assert.Equal(t, []byte{255, 0, 0, 255}, px(0, 0))
	assert.Equal(t, []byte{0, 0, 255, 255}, px(2, 0))
	assert.Equal(t, []byte{0, 0, 255, 255}, px(0, 3))
	assert.Equal(t, []byte{255, 0, 0, 255}, px(3, 3))
}

func TestTableKeepsWhiteDefaultAtZero(t *testing.T) {
	rec := backendtest.NewDefault()
	table, err := NewTable(rec)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())

	white := rec.Textures[table.Handles()[DefaultIndex]]
	assert.Equal(t, []byte{255, 255, 255, 255}, white.Data)
	assert.Equal(t, backend.TextureFormatRGBA8, white.Format)

	idx, err := table.Add(Checker(8, 4, red, blue))
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Equal(t, 1, table.Index("checker_8_4"))
	assert.Equal(t, DefaultIndex, table.Index("nope"))

	table.Destroy()
	assert.Empty(t, rec.Textures)
}
