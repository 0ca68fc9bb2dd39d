package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsFollowKey(t *testing.T) {
	p := NewPipeline(Key{Program: 1, Depth: true, DepthTest: true})
	assert.True(t, p.DepthTestEnabled())
	assert.True(t, p.DepthWriteEnabled())
	assert.False(t, p.BlendEnabled())
	assert.Equal(t, wgpu.CullModeNone, p.CullMode())
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, p.Topology())

	ds := p.DepthStencilState()
	require.NotNil(t, ds)
	assert.Equal(t, wgpu.CompareFunctionLess, ds.DepthCompare)
	assert.Equal(t, wgpu.TextureFormatDepth24Plus, ds.Format)
}

func TestDepthAttachmentWithoutTest(t *testing.T) {
	p := NewPipeline(Key{Program: 1, Depth: true})
	ds := p.DepthStencilState()
	require.NotNil(t, ds)
	assert.Equal(t, wgpu.CompareFunctionAlways, ds.DepthCompare)
	assert.False(t, ds.DepthWriteEnabled)
}

func TestNoDepthAttachment(t *testing.T) {
	p := NewPipeline(Key{Program: 1, DepthTest: true}, WithDepthTestEnabled(true), WithDepthWriteEnabled(true))
	assert.False(t, p.DepthTestEnabled())
	assert.False(t, p.DepthWriteEnabled())
	assert.Nil(t, p.DepthStencilState())
}

func TestAdditiveBlend(t *testing.T) {
	p := NewPipeline(Key{Program: 1, Blend: backend.BlendAdditive})
	assert.True(t, p.BlendEnabled())
	assert.Equal(t, wgpu.BlendFactorOne, p.BlendState().Color.DstFactor)

	p = NewPipeline(Key{Program: 1, Blend: backend.BlendAdditive}, WithBlendEnabled(false), WithCullMode(wgpu.CullModeBack))
	assert.False(t, p.BlendEnabled())
	assert.Equal(t, wgpu.CullModeBack, p.CullMode())
}

func TestSignatures(t *testing.T) {
	a := wgpu.VertexBufferLayout{
		ArrayStride: 32,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x2, ShaderLocation: 1, Offset: 12},
		},
	}
	b := a
	b.Attributes = append([]wgpu.VertexAttribute(nil), a.Attributes...)
	assert.Equal(t, VertexSignature(a), VertexSignature(b))

	b.Attributes[1].Offset = 24
	assert.NotEqual(t, VertexSignature(a), VertexSignature(b))

	assert.Equal(t, "", TargetSignature(nil))
	assert.NotEqual(t,
		TargetSignature([]wgpu.TextureFormat{wgpu.TextureFormatRGBA8Unorm}),
		TargetSignature([]wgpu.TextureFormat{wgpu.TextureFormatRGBA16Float}),
	)
}

func TestCacheEvictsByProgram(t *testing.T) {
	c := NewCache()
	c.Add(NewPipeline(Key{Program: 1, Targets: "a"}))
	c.Add(NewPipeline(Key{Program: 1, Targets: "b"}))
	c.Add(NewPipeline(Key{Program: 2, Targets: "a"}))
	assert.Equal(t, 3, c.Len())

	_, ok := c.Get(Key{Program: 1, Targets: "b"})
	assert.True(t, ok)

	assert.Equal(t, 2, c.EvictProgram(1))
	assert.Equal(t, 1, c.Len())
	_, ok = c.Get(Key{Program: 1, Targets: "b"})
	assert.False(t, ok)

	c.Release()
	assert.Equal(t, 0, c.Len())
}
