package opengl

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/stretchr/testify/assert"
)

func TestMipBounds(t *testing.T) {
	base, top := mipBounds(backend.AllMips, 5)
	assert.Equal(t, 0, base)
	assert.Equal(t, 4, top)

	base, top = mipBounds(backend.SingleMip(3), 5)
	assert.Equal(t, 3, base)
	assert.Equal(t, 3, top)

	base, top = mipBounds(backend.MipRange{Base: 2, Count: 10}, 5)
	assert.Equal(t, 2, base)
	assert.Equal(t, 4, top)

	base, top = mipBounds(backend.SingleMip(7), 1)
	assert.Equal(t, 0, base)
	assert.Equal(t, 0, top)
}

func TestColorAttachments(t *testing.T) {
	assert.Nil(t, colorAttachments(nil))
	assert.Equal(t, []uint32{gl.COLOR_ATTACHMENT0 + 1}, colorAttachments([]int{1}))
	assert.Equal(t, []uint32{gl.COLOR_ATTACHMENT0, gl.COLOR_ATTACHMENT0 + 1}, colorAttachments([]int{0, 1}))
}

func TestUniformName(t *testing.T) {
	assert.Equal(t, "uLights", uniformName("uLights[0]"))
	assert.Equal(t, "uAlbedo", uniformName("uAlbedo"))
}

func TestTargetsAndFormats(t *testing.T) {
	assert.Equal(t, uint32(gl.UNIFORM_BUFFER), bufferTarget(backend.BufferUsageUniform))
	assert.Equal(t, uint32(gl.ELEMENT_ARRAY_BUFFER), bufferTarget(backend.BufferUsageIndex))
	assert.Equal(t, uint32(gl.UNSIGNED_SHORT), indexType(backend.IndexFormatUint16))
	assert.Equal(t, uint32(gl.UNSIGNED_INT), indexType(backend.IndexFormatUint32))
	assert.Equal(t, int32(gl.LINEAR_MIPMAP_LINEAR), filterMode(backend.FilterLinearMipmapLinear))

	_, ok := textureFormats[backend.TextureFormatInvalid]
	assert.False(t, ok)
	assert.Equal(t, 8, textureFormats[backend.TextureFormatRGBA16F].pixel)
}
