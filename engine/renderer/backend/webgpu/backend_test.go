package webgpu

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reflectProgram(t *testing.T, name string) *shader.Reflection {
	t.Helper()
	src, err := shader.EmbeddedSource(shader.LanguageWGSL, name)
	require.NoError(t, err)
	out, err := shader.NewPreProcessor(shader.LanguageWGSL).Process(src)
	require.NoError(t, err)
	r, err := shader.Reflect(out)
	require.NoError(t, err)
	return r
}

func TestEmbeddedProgramsFitGroupConvention(t *testing.T) {
	for _, def := range shader.Programs() {
		t.Run(def.Name, func(t *testing.T) {
			r := reflectProgram(t, def.Name)
			assert.NoError(t, checkBindings(r))

			names := samplerNames(r.Group(groupTextures))
			for sampler, unit := range def.Samplers {
				got, ok := names[sampler]
				if assert.True(t, ok, sampler) {
					assert.Equal(t, unit, got, sampler)
				}
			}
		})
	}
}

func TestForwardParamsLayout(t *testing.T) {
	r := reflectProgram(t, shader.ProgramForward)
	pb, ok := paramsBinding(r)
	require.True(t, ok)
	assert.Equal(t, 16, bindSize(pb))

	layout := r.Structs[pb.TypeName]
	albedo, ok := layout.Field("uAlbedo")
	require.True(t, ok)
	assert.Equal(t, 0, albedo.Offset)
	useTexture, ok := layout.Field("useTexture")
	require.True(t, ok)
	assert.Equal(t, 12, useTexture.Offset)

	global := r.Group(groupGlobal)
	require.Len(t, global, 1)
	assert.Equal(t, 16+16*48, bindSize(global[0]))
}

func TestPassthroughHasNoParams(t *testing.T) {
	r := reflectProgram(t, shader.ProgramPassthrough)
	_, ok := paramsBinding(r)
	assert.False(t, ok)
	assert.Equal(t, groupTextures, r.MaxGroup())
}

func TestCheckBindingsRejects(t *testing.T) {
	r := &shader.Reflection{Bindings: []shader.Binding{{Group: 4, Binding: 0, Kind: shader.BindingUniform}}}
	assert.Error(t, checkBindings(r))

	r = &shader.Reflection{Bindings: []shader.Binding{{Group: groupTextures, Binding: 0, Kind: shader.BindingSampler}}}
	assert.Error(t, checkBindings(r))

	r = &shader.Reflection{Bindings: []shader.Binding{{Group: groupTextures, Binding: 2 * maxTextureUnits, Kind: shader.BindingTexture}}}
	assert.Error(t, checkBindings(r))

	r = &shader.Reflection{Bindings: []shader.Binding{{Group: groupEntity, Binding: 1, Kind: shader.BindingUniform}}}
	assert.Error(t, checkBindings(r))
}

func TestLayoutEntry(t *testing.T) {
	u := layoutEntry(shader.Binding{Binding: 0, Kind: shader.BindingUniform, Size: 100})
	assert.Equal(t, wgpu.BufferBindingTypeUniform, u.Buffer.Type)
	assert.True(t, u.Buffer.HasDynamicOffset)
	assert.Equal(t, uint64(112), u.Buffer.MinBindingSize)

	tex := layoutEntry(shader.Binding{Binding: 2, Kind: shader.BindingTexture})
	assert.Equal(t, uint32(2), tex.Binding)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, tex.Texture.SampleType)

	s := layoutEntry(shader.Binding{Binding: 3, Kind: shader.BindingSampler})
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, s.Sampler.Type)
	assert.Equal(t, 1, textureUnit(shader.Binding{Binding: 3}))
}

func TestMipSpan(t *testing.T) {
	base, count := mipSpan(backend.AllMips, 5)
	assert.Equal(t, 0, base)
	assert.Equal(t, 5, count)

	base, count = mipSpan(backend.SingleMip(3), 5)
	assert.Equal(t, 3, base)
	assert.Equal(t, 1, count)

	base, count = mipSpan(backend.MipRange{Base: 2, Count: 10}, 5)
	assert.Equal(t, 2, base)
	assert.Equal(t, 3, count)

	base, count = mipSpan(backend.SingleMip(7), 1)
	assert.Equal(t, 0, base)
	assert.Equal(t, 1, count)
}

func TestVertexLayoutIsRelativeToBaseOffset(t *testing.T) {
	layout, ok := vertexLayout(backend.VertexArrayDescriptor{
		Stride:     32,
		BaseOffset: 320,
		Attributes: []backend.VertexAttributeBinding{
			{Location: 0, Components: 3, Offset: 320},
			{Location: 2, Components: 2, Offset: 344},
		},
	})
	require.True(t, ok)
	assert.Equal(t, uint64(32), layout.ArrayStride)
	require.Len(t, layout.Attributes, 2)
	assert.Equal(t, uint64(0), layout.Attributes[0].Offset)
	assert.Equal(t, wgpu.VertexFormatFloat32x3, layout.Attributes[0].Format)
	assert.Equal(t, uint64(24), layout.Attributes[1].Offset)
	assert.Equal(t, uint32(2), layout.Attributes[1].ShaderLocation)

	_, ok = vertexLayout(backend.VertexArrayDescriptor{Attributes: []backend.VertexAttributeBinding{{Components: 5}}})
	assert.False(t, ok)
}

func TestParamArena(t *testing.T) {
	a := newParamArena(768, 256)
	off, ok := a.push(make([]byte, 16))
	require.True(t, ok)
	assert.Equal(t, 0, off)

	off, ok = a.push([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16})
	require.True(t, ok)
	assert.Equal(t, 256, off)
	assert.Equal(t, byte(1), a.data[256])

	off, ok = a.push(make([]byte, 16))
	require.True(t, ok)
	assert.Equal(t, 512, off)
	assert.Len(t, a.used(), 528)

	_, ok = a.push(make([]byte, 16))
	assert.False(t, ok)

	a.reset()
	off, ok = a.push(make([]byte, 16))
	require.True(t, ok)
	assert.Equal(t, 0, off)
}

func TestAllocSize(t *testing.T) {
	assert.Equal(t, 8, allocSize(backend.BufferUsageIndex, 6))
	assert.Equal(t, 256+uniformPadding, allocSize(backend.BufferUsageUniform, 256))
}

func TestMipChain(t *testing.T) {
	pixels := make([]byte, 4*4*4)
	for i := range pixels {
		pixels[i] = 200
	}
	chain := mipChain(pixels, 4, 4, 3)
	require.Len(t, chain, 3)
	assert.Len(t, chain[1], 2*2*4)
	assert.Len(t, chain[2], 1*1*4)
	assert.Equal(t, byte(200), chain[2][0])
}

func TestAttachmentsAgree(t *testing.T) {
	fb := &framebufferState{colors: []attachmentState{{width: 8, height: 8}, {width: 8, height: 8}}}
	assert.True(t, attachmentsAgree(fb))

	fb.depth = &attachmentState{width: 4, height: 4}
	assert.False(t, attachmentsAgree(fb))
	assert.Len(t, fb.colors, 2)
}

func TestSamplerDescriptor(t *testing.T) {
	d := samplerDescriptor(backend.TextureDescriptor{MinFilter: backend.FilterLinearMipmapLinear, MagFilter: backend.FilterLinear, Wrap: backend.WrapRepeat})
	assert.Equal(t, wgpu.AddressModeRepeat, d.AddressModeU)
	assert.Equal(t, wgpu.MipmapFilterModeLinear, d.MipmapFilter)
	assert.Equal(t, wgpu.FilterModeLinear, d.MinFilter)

	d = samplerDescriptor(backend.TextureDescriptor{})
	assert.Equal(t, wgpu.AddressModeClampToEdge, d.AddressModeU)
	assert.Equal(t, wgpu.FilterModeNearest, d.MagFilter)
}

func TestColorBytesPerSample(t *testing.T) {
	gbuffer := []backend.TextureFormat{backend.TextureFormatRGBA8}
	for range 7 {
		gbuffer = append(gbuffer, backend.TextureFormatRGBA16F)
	}
	assert.Equal(t, 64, colorBytesPerSample(gbuffer))
	assert.Greater(t, colorBytesPerSample(gbuffer), 32, "G-buffer must not fit wgpu's 32-byte default")

	assert.Equal(t, 16, colorBytesPerSample([]backend.TextureFormat{backend.TextureFormatRGBA16F, backend.TextureFormatRGBA16F}))
	assert.Equal(t, 8, colorBytesPerSample([]backend.TextureFormat{backend.TextureFormatRGBA8, backend.TextureFormatDepth24}))
	assert.Zero(t, colorBytesPerSample(nil))
}

func TestDrawInputsReportsUnknownHandles(t *testing.T) {
	b := &wgpuBackend{
		buffers:      map[backend.BufferHandle]*bufferState{},
		programs:     map[backend.ProgramHandle]*programState{},
		vertexArrays: map[backend.VertexArrayHandle]*vertexArrayState{},
	}
	b.draw.program = 1
	b.draw.vertexArray = 2

	_, _, _, _, err := b.drawInputs()
	assert.ErrorIs(t, err, backend.ErrUnknownHandle)
	assert.ErrorContains(t, err, "program 1")

	b.programs[1] = &programState{}
	_, _, _, _, err = b.drawInputs()
	assert.ErrorContains(t, err, "vertex array 2")

	b.vertexArrays[2] = &vertexArrayState{vertex: 3, index: 4}
	b.buffers[3] = &bufferState{}
	_, _, _, _, err = b.drawInputs()
	assert.ErrorIs(t, err, backend.ErrUnknownHandle)
	assert.ErrorContains(t, err, "index buffer 4")

	b.buffers[4] = &bufferState{}
	p, va, vb, ib, err := b.drawInputs()
	require.NoError(t, err)
	assert.Same(t, b.programs[1], p)
	assert.Same(t, b.vertexArrays[2], va)
	assert.Same(t, b.buffers[3], vb)
	assert.Same(t, b.buffers[4], ib)
}
