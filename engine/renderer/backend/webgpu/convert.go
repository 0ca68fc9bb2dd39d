package webgpu

import (
	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// Fixed bind group slots. Uniform binding point N of the backend interface is @group(N).
const (
	groupGlobal   = shader.GlobalParamsBinding
	groupEntity   = shader.EntityParamsBinding
	groupTextures = 2
	groupParams   = 3
	maxGroups     = 4
)

// maxTextureUnits bounds the texture units a program can sample, two bindings per unit.
const maxTextureUnits = 8

// uniformPadding is appended to every uniform buffer so a binding sized to the full reflected
// struct stays inside the buffer when the caller only wrote the live prefix.
const uniformPadding = 4096

// paramsBlockName is the struct a program declares for its loose uniforms at @group(3) @binding(0).
const paramsBlockName = "DrawParams"

type formatInfo struct {
	format wgpu.TextureFormat
	pixel  int
	// targetCost and targetAlign are the render target pixel byte cost and alignment
	// counted against MaxColorAttachmentBytesPerSample. Zero for depth formats.
	targetCost  int
	targetAlign int
}

var textureFormats = map[backend.TextureFormat]formatInfo{
	backend.TextureFormatRGBA8:   {wgpu.TextureFormatRGBA8Unorm, 4, 8, 1},
	backend.TextureFormatRGBA16F: {wgpu.TextureFormatRGBA16Float, 8, 8, 2},
	backend.TextureFormatDepth24: {wgpu.TextureFormatDepth24Plus, 4, 0, 0},
}

// colorBytesPerSample returns the bytes per sample a set of color attachments occupies,
// laid out in order with each format aligned to its own boundary.
func colorBytesPerSample(formats []backend.TextureFormat) int {
	total := 0
	for _, f := range formats {
		info, ok := textureFormats[f]
		if !ok || info.targetCost == 0 {
			continue
		}
		total = common.AlignUp(total, info.targetAlign) + info.targetCost
	}
	return total
}

var vertexFormats = map[int]wgpu.VertexFormat{
	1: wgpu.VertexFormatFloat32,
	2: wgpu.VertexFormatFloat32x2,
	3: wgpu.VertexFormatFloat32x3,
	4: wgpu.VertexFormatFloat32x4,
}

func bufferUsage(u backend.BufferUsage) wgpu.BufferUsage {
	switch u {
	case backend.BufferUsageVertex:
		return wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst
	case backend.BufferUsageIndex:
		return wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst
	default:
		return wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
	}
}

// allocSize returns the GPU allocation for a buffer of the given usage and requested size.
func allocSize(u backend.BufferUsage, size int) int {
	if u == backend.BufferUsageUniform {
		size += uniformPadding
	}
	return common.AlignUp(size, 4)
}

func textureUsage(f backend.TextureFormat) wgpu.TextureUsage {
	if f.IsDepth() {
		return wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding
	}
	return wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst
}

func samplerDescriptor(desc backend.TextureDescriptor) *wgpu.SamplerDescriptor {
	address := wgpu.AddressModeClampToEdge
	if desc.Wrap == backend.WrapRepeat {
		address = wgpu.AddressModeRepeat
	}
	mipmap := wgpu.MipmapFilterModeNearest
	if desc.MinFilter == backend.FilterLinearMipmapLinear {
		mipmap = wgpu.MipmapFilterModeLinear
	}
	return &wgpu.SamplerDescriptor{
		Label:         desc.Label + " Sampler",
		AddressModeU:  address,
		AddressModeV:  address,
		AddressModeW:  address,
		MagFilter:     filterMode(desc.MagFilter),
		MinFilter:     filterMode(desc.MinFilter),
		MipmapFilter:  mipmap,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	}
}

func filterMode(f backend.FilterMode) wgpu.FilterMode {
	if f == backend.FilterNearest {
		return wgpu.FilterModeNearest
	}
	return wgpu.FilterModeLinear
}

func indexFormat(f backend.IndexFormat) wgpu.IndexFormat {
	if f == backend.IndexFormatUint16 {
		return wgpu.IndexFormatUint16
	}
	return wgpu.IndexFormatUint32
}

// mipSpan resolves a MipRange against a texture's level count into a base level and level count.
func mipSpan(r backend.MipRange, levels int) (int, int) {
	base := common.Clamp(r.Base, 0, levels-1)
	count := levels - base
	if r.Count > 0 {
		count = min(r.Count, count)
	}
	return base, count
}

// vertexLayout converts a vertex array descriptor into a single-buffer WebGPU layout. Attribute
// offsets become relative to the submesh's first vertex, which is applied as the buffer offset.
func vertexLayout(desc backend.VertexArrayDescriptor) (wgpu.VertexBufferLayout, bool) {
	attrs := make([]wgpu.VertexAttribute, 0, len(desc.Attributes))
	for _, a := range desc.Attributes {
		format, ok := vertexFormats[a.Components]
		if !ok || a.Offset < desc.BaseOffset {
			return wgpu.VertexBufferLayout{}, false
		}
		attrs = append(attrs, wgpu.VertexAttribute{
			Format:         format,
			Offset:         uint64(a.Offset - desc.BaseOffset),
			ShaderLocation: a.Location,
		})
	}
	return wgpu.VertexBufferLayout{
		ArrayStride: uint64(desc.Stride),
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  attrs,
	}, true
}

// bindSize is the byte size bound for a uniform binding, at least the reflected struct size.
func bindSize(b shader.Binding) int {
	return common.AlignUp(max(b.Size, 16), 16)
}

// layoutEntry converts a reflected binding into a layout entry. Uniform buffers are bound with
// dynamic offsets so one bind group serves every range of a buffer.
func layoutEntry(b shader.Binding) wgpu.BindGroupLayoutEntry {
	entry := wgpu.BindGroupLayoutEntry{
		Binding:    uint32(b.Binding),
		Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
	}
	switch b.Kind {
	case shader.BindingUniform:
		entry.Buffer.Type = wgpu.BufferBindingTypeUniform
		entry.Buffer.HasDynamicOffset = true
		entry.Buffer.MinBindingSize = uint64(bindSize(b))
	case shader.BindingStorage:
		entry.Buffer.Type = wgpu.BufferBindingTypeStorage
	case shader.BindingReadOnlyStorage:
		entry.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
	case shader.BindingTexture:
		entry.Texture.SampleType = wgpu.TextureSampleTypeFloat
		entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
	case shader.BindingDepthTexture:
		entry.Texture.SampleType = wgpu.TextureSampleTypeDepth
		entry.Texture.ViewDimension = wgpu.TextureViewDimension2D
	case shader.BindingSampler:
		entry.Sampler.Type = wgpu.SamplerBindingTypeFiltering
	case shader.BindingComparisonSampler:
		entry.Sampler.Type = wgpu.SamplerBindingTypeComparison
	}
	return entry
}

// textureUnit maps a @group(2) binding to its texture unit. Unit k owns bindings 2k and 2k+1.
func textureUnit(b shader.Binding) int {
	return b.Binding / 2
}

// samplerNames maps each texture unit to the name of the texture bound there, for matching the
// GLSL sampler table against a WGSL module.
func samplerNames(bindings []shader.Binding) map[string]int {
	out := make(map[string]int)
	for _, b := range bindings {
		if b.Kind == shader.BindingTexture {
			out[b.Name] = textureUnit(b)
		}
	}
	return out
}

// paramArena packs per-draw DrawParams blocks into one uniform buffer at aligned offsets.
type paramArena struct {
	data  []byte
	head  int
	align int
}

func newParamArena(size, align int) *paramArena {
	return &paramArena{data: make([]byte, size), align: max(align, 1)}
}

func (a *paramArena) reset() {
	a.head = 0
}

// push copies a block into the arena and returns its offset, or false when it does not fit.
func (a *paramArena) push(block []byte) (int, bool) {
	off := common.AlignUp(a.head, a.align)
	if off+len(block) > len(a.data) {
		return 0, false
	}
	copy(a.data[off:], block)
	a.head = off + len(block)
	return off, true
}

// used returns the written prefix of the arena, rounded for queue writes.
func (a *paramArena) used() []byte {
	return a.data[:min(common.AlignUp(a.head, 4), len(a.data))]
}
