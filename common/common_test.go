package common

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlignUp(t *testing.T) {
	cases := []struct {
		value, alignment, want int
	}{
		{0, 256, 0},
		{1, 256, 256},
		{256, 256, 256},
		{257, 256, 512},
		{112, 16, 112},
		{113, 16, 128},
		{50, 48, 96},
		{7, 0, 7},
		{7, 1, 7},
	}
	for _, c := range cases {
		got := AlignUp(c.value, c.alignment)
		assert.Equal(t, c.want, got, "AlignUp(%d, %d)", c.value, c.alignment)
		if c.alignment > 1 {
			assert.Zero(t, got%c.alignment)
			assert.GreaterOrEqual(t, got, c.value)
			assert.Less(t, got-c.value, c.alignment)
		}
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, float32(89), Clamp(float32(120), -89, 89))
	assert.Equal(t, float32(-89), Clamp(float32(-95), -89, 89))
	assert.Equal(t, 3, Clamp(3, 0, 4))
}

func TestPutMat4ColumnMajor(t *testing.T) {
	buf := make([]byte, 64)
	PutMat4(buf, mgl32.Translate3D(1, 2, 3))
	// translation lives in the last column (elements 12..14)
	var back mgl32.Mat4
	for i := range 16 {
		back[i] = float32frombytes(buf[i*4:])
	}
	require.Equal(t, mgl32.Translate3D(1, 2, 3), back)
	assert.Equal(t, float32(1), back[12])
	assert.Equal(t, float32(3), back[14])
}

func TestLoggerDefaultsToSilent(t *testing.T) {
	l := Logger()
	require.NotNil(t, l)
	assert.False(t, l.Enabled(t.Context(), 12))

	SetLogger(nil)
	assert.NotNil(t, Logger())
}

func float32frombytes(b []byte) float32 {
	bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return math.Float32frombits(bits)
}
