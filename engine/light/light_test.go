package light

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f32At(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off : off+4]))
}

func TestGPULightLayout(t *testing.T) {
	l := NewLight(LightTypePoint,
		WithColor(mgl32.Vec3{0, 1, 0}),
		WithPosition(mgl32.Vec3{1, 2, 3}),
	)
	g := ToGPULight(l)
	assert.Equal(t, GPULightSize, g.Size())

	buf := g.Marshal()
	require.Len(t, buf, GPULightSize)
	assert.Equal(t, float32(1), f32At(buf, 4))
	assert.Equal(t, uint32(LightTypePoint), binary.LittleEndian.Uint32(buf[12:16]))
	assert.Equal(t, float32(-1), f32At(buf, 20))
	assert.Equal(t, float32(1), f32At(buf, 32))
	assert.Equal(t, float32(3), f32At(buf, 40))
}

func TestDirectionIsNormalized(t *testing.T) {
	l := NewLight(LightTypeDirectional, WithDirection(mgl32.Vec3{1, -1, 1}))
	assert.InDelta(t, 1, l.Direction().Len(), 1e-6)

	l.SetDirection(mgl32.Vec3{})
	assert.InDelta(t, 1, l.Direction().Len(), 1e-6)
}

func TestParseLightType(t *testing.T) {
	lt, ok := ParseLightType("point")
	assert.True(t, ok)
	assert.Equal(t, LightTypePoint, lt)
	assert.Equal(t, "directional", LightTypeDirectional.String())

	_, ok = ParseLightType("spot")
	assert.False(t, ok)
}
