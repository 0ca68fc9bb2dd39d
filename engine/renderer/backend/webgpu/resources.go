package webgpu

import (
	"fmt"
	"image"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
	"golang.org/x/image/draw"
)

// bufferState is a GPU buffer with a CPU shadow used for mapping. Unmap uploads the shadow.
type bufferState struct {
	buf    *wgpu.Buffer
	usage  backend.BufferUsage
	size   int
	alloc  int
	shadow []byte
	mapped bool
}

type textureState struct {
	desc    backend.TextureDescriptor
	format  wgpu.TextureFormat
	tex     *wgpu.Texture
	sampler *wgpu.Sampler
	views   map[backend.MipRange]*wgpu.TextureView
}

// view returns a cached view exposing the resolved mip range.
func (t *textureState) view(r backend.MipRange) (*wgpu.TextureView, error) {
	base, count := mipSpan(r, t.desc.Levels())
	key := backend.MipRange{Base: base, Count: count}
	if v, ok := t.views[key]; ok {
		return v, nil
	}
	v, err := t.tex.CreateView(&wgpu.TextureViewDescriptor{
		Label:           t.desc.Label,
		Format:          t.format,
		Dimension:       wgpu.TextureViewDimension2D,
		BaseMipLevel:    uint32(base),
		MipLevelCount:   uint32(count),
		BaseArrayLayer:  0,
		ArrayLayerCount: 1,
		Aspect:          wgpu.TextureAspectAll,
	})
	if err != nil {
		return nil, err
	}
	t.views[key] = v
	return v, nil
}

func (t *textureState) release() {
	for k, v := range t.views {
		v.Release()
		delete(t.views, k)
	}
	if t.sampler != nil {
		t.sampler.Release()
	}
	t.tex.Release()
}

type attachmentState struct {
	view          *wgpu.TextureView
	format        wgpu.TextureFormat
	width, height int
}

type framebufferState struct {
	colors      []attachmentState
	depth       *attachmentState
	drawBuffers []int
}

type vertexArrayState struct {
	vertex     backend.BufferHandle
	index      backend.BufferHandle
	layout     wgpu.VertexBufferLayout
	signature  string
	baseOffset uint64
}

func (b *wgpuBackend) CreateBuffer(desc backend.BufferDescriptor) (backend.BufferHandle, error) {
	size := max(desc.Size, len(desc.Data))
	if size == 0 {
		return backend.InvalidBuffer, fmt.Errorf("create buffer %q: zero size", desc.Label)
	}
	alloc := allocSize(desc.Usage, size)
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: desc.Label,
		Size:  uint64(alloc),
		Usage: bufferUsage(desc.Usage),
	})
	if err != nil {
		return backend.InvalidBuffer, fmt.Errorf("create buffer %q: %w", desc.Label, err)
	}
	if len(desc.Data) > 0 {
		data := desc.Data
		if padded := common.AlignUp(len(data), 4); padded != len(data) {
			data = make([]byte, padded)
			copy(data, desc.Data)
		}
		b.queue.WriteBuffer(buf, 0, data)
	}

	h := backend.BufferHandle(b.handle())
	b.buffers[h] = &bufferState{buf: buf, usage: desc.Usage, size: size, alloc: alloc}
	return h, nil
}

func (b *wgpuBackend) MapBuffer(h backend.BufferHandle) ([]byte, error) {
	st, ok := b.buffers[h]
	if !ok {
		return nil, fmt.Errorf("map buffer %d: %w", h, backend.ErrUnknownHandle)
	}
	if st.mapped {
		return nil, fmt.Errorf("map buffer %d: %w", h, backend.ErrAlreadyMapped)
	}
	if st.shadow == nil {
		st.shadow = make([]byte, common.AlignUp(st.size, 4))
	}
	st.mapped = true
	return st.shadow[:st.size], nil
}

func (b *wgpuBackend) UnmapBuffer(h backend.BufferHandle) error {
	st, ok := b.buffers[h]
	if !ok {
		return fmt.Errorf("unmap buffer %d: %w", h, backend.ErrUnknownHandle)
	}
	if !st.mapped {
		return fmt.Errorf("unmap buffer %d: %w", h, backend.ErrNotMapped)
	}
	st.mapped = false
	b.queue.WriteBuffer(st.buf, 0, st.shadow)
	return nil
}

func (b *wgpuBackend) DestroyBuffer(h backend.BufferHandle) {
	st, ok := b.buffers[h]
	if !ok {
		return
	}
	b.dropBindGroups()
	st.buf.Release()
	delete(b.buffers, h)
}

func (b *wgpuBackend) CreateTexture(desc backend.TextureDescriptor) (backend.TextureHandle, error) {
	info, ok := textureFormats[desc.Format]
	if !ok || desc.Width <= 0 || desc.Height <= 0 {
		return backend.InvalidTexture, fmt.Errorf("create texture %q: invalid descriptor %s %dx%d", desc.Label, desc.Format, desc.Width, desc.Height)
	}
	if len(desc.Data) > 0 && len(desc.Data) < desc.Width*desc.Height*info.pixel {
		return backend.InvalidTexture, fmt.Errorf("create texture %q: %d bytes of pixel data for %dx%d", desc.Label, len(desc.Data), desc.Width, desc.Height)
	}
	levels := desc.Levels()

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     desc.Label,
		Usage:     textureUsage(desc.Format),
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              uint32(desc.Width),
			Height:             uint32(desc.Height),
			DepthOrArrayLayers: 1,
		},
		Format:        info.format,
		MipLevelCount: uint32(levels),
		SampleCount:   1,
	})
	if err != nil {
		return backend.InvalidTexture, fmt.Errorf("create texture %q: %w", desc.Label, err)
	}

	if len(desc.Data) > 0 {
		chain := [][]byte{desc.Data}
		if desc.Format == backend.TextureFormatRGBA8 {
			chain = mipChain(desc.Data, desc.Width, desc.Height, levels)
		}
		for level, pixels := range chain {
			w, h := max(desc.Width>>level, 1), max(desc.Height>>level, 1)
			b.queue.WriteTexture(
				&wgpu.ImageCopyTexture{
					Texture:  tex,
					MipLevel: uint32(level),
					Origin:   wgpu.Origin3D{},
					Aspect:   wgpu.TextureAspectAll,
				},
				pixels,
				&wgpu.TextureDataLayout{
					Offset:       0,
					BytesPerRow:  uint32(w * info.pixel),
					RowsPerImage: uint32(h),
				},
				&wgpu.Extent3D{
					Width:              uint32(w),
					Height:             uint32(h),
					DepthOrArrayLayers: 1,
				},
			)
		}
	}

	st := &textureState{format: info.format, tex: tex, views: make(map[backend.MipRange]*wgpu.TextureView)}
	if desc.Format.IsColor() {
		st.sampler, err = b.device.CreateSampler(samplerDescriptor(desc))
		if err != nil {
			tex.Release()
			return backend.InvalidTexture, fmt.Errorf("create texture %q: sampler: %w", desc.Label, err)
		}
	}
	desc.Data = nil
	st.desc = desc

	h := backend.TextureHandle(b.handle())
	b.textures[h] = st
	return h, nil
}

// mipChain builds every level of an RGBA8 image by repeated bilinear halving.
func mipChain(pixels []byte, width, height, levels int) [][]byte {
	out := make([][]byte, 0, levels)
	out = append(out, pixels)
	src := &image.RGBA{Pix: pixels, Stride: width * 4, Rect: image.Rect(0, 0, width, height)}
	for level := 1; level < levels; level++ {
		dst := image.NewRGBA(image.Rect(0, 0, max(width>>level, 1), max(height>>level, 1)))
		draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		out = append(out, dst.Pix)
		src = dst
	}
	return out
}

func (b *wgpuBackend) DestroyTexture(h backend.TextureHandle) {
	st, ok := b.textures[h]
	if !ok {
		return
	}
	b.dropBindGroups()
	st.release()
	delete(b.textures, h)
}

func (b *wgpuBackend) attachment(a backend.Attachment, depth bool) (attachmentState, error) {
	st, ok := b.textures[a.Texture]
	if !ok {
		return attachmentState{}, fmt.Errorf("texture %d: %w", a.Texture, backend.ErrUnknownHandle)
	}
	if st.desc.Format.IsDepth() != depth || a.MipLevel < 0 || a.MipLevel >= st.desc.Levels() {
		return attachmentState{}, fmt.Errorf("texture %d %s mip %d: %w", a.Texture, st.desc.Format, a.MipLevel, backend.ErrFramebufferIncomplete)
	}
	view, err := st.view(backend.SingleMip(a.MipLevel))
	if err != nil {
		return attachmentState{}, err
	}
	return attachmentState{
		view:   view,
		format: st.format,
		width:  max(st.desc.Width>>a.MipLevel, 1),
		height: max(st.desc.Height>>a.MipLevel, 1),
	}, nil
}

func (b *wgpuBackend) CreateFramebuffer(desc backend.FramebufferDescriptor) (backend.FramebufferHandle, error) {
	if len(desc.ColorAttachments) > b.limits.MaxColorAttachments {
		return backend.DefaultFramebuffer, fmt.Errorf("%q: %d color attachments: %w", desc.Label, len(desc.ColorAttachments), backend.ErrFramebufferIncomplete)
	}

	formats := make([]backend.TextureFormat, 0, len(desc.ColorAttachments))
	for _, a := range desc.ColorAttachments {
		if st, ok := b.textures[a.Texture]; ok {
			formats = append(formats, st.desc.Format)
		}
	}
	if limit := b.limits.MaxColorAttachmentBytesPerSample; limit > 0 {
		if n := colorBytesPerSample(formats); n > limit {
			return backend.DefaultFramebuffer, fmt.Errorf("%q: %d color bytes per sample exceeds %d: %w", desc.Label, n, limit, backend.ErrFramebufferIncomplete)
		}
	}

	fb := &framebufferState{}
	for _, a := range desc.ColorAttachments {
		att, err := b.attachment(a, false)
		if err != nil {
			return backend.DefaultFramebuffer, fmt.Errorf("%q: %w", desc.Label, err)
		}
		fb.colors = append(fb.colors, att)
	}
	if desc.Depth != nil {
		att, err := b.attachment(*desc.Depth, true)
		if err != nil {
			return backend.DefaultFramebuffer, fmt.Errorf("%q: %w", desc.Label, err)
		}
		fb.depth = &att
	}
	if !attachmentsAgree(fb) {
		return backend.DefaultFramebuffer, fmt.Errorf("%q: attachment sizes differ: %w", desc.Label, backend.ErrFramebufferIncomplete)
	}

	fb.drawBuffers = desc.DrawBuffers
	if fb.drawBuffers == nil {
		fb.drawBuffers = make([]int, len(fb.colors))
		for i := range fb.drawBuffers {
			fb.drawBuffers[i] = i
		}
	}
	for _, slot := range fb.drawBuffers {
		if slot < 0 || slot >= len(fb.colors) {
			return backend.DefaultFramebuffer, fmt.Errorf("%q: draw buffer %d: %w", desc.Label, slot, backend.ErrFramebufferIncomplete)
		}
	}

	h := backend.FramebufferHandle(b.handle())
	b.framebuffers[h] = fb
	common.Logger().Debug("framebuffer created", "label", desc.Label, "attachments", len(fb.colors), "depth", fb.depth != nil)
	return h, nil
}

// attachmentsAgree reports whether every attachment of a framebuffer has the same size.
func attachmentsAgree(fb *framebufferState) bool {
	all := fb.colors
	if fb.depth != nil {
		all = append(all[:len(all):len(all)], *fb.depth)
	}
	for _, a := range all {
		if a.width != all[0].width || a.height != all[0].height {
			return false
		}
	}
	return true
}

func (b *wgpuBackend) DestroyFramebuffer(h backend.FramebufferHandle) {
	delete(b.framebuffers, h)
}

func (b *wgpuBackend) CreateVertexArray(desc backend.VertexArrayDescriptor) (backend.VertexArrayHandle, error) {
	if _, ok := b.buffers[desc.VertexBuffer]; !ok {
		return backend.InvalidVertexArray, fmt.Errorf("vertex array %q: vertex buffer %d: %w", desc.Label, desc.VertexBuffer, backend.ErrUnknownHandle)
	}
	if _, ok := b.buffers[desc.IndexBuffer]; !ok {
		return backend.InvalidVertexArray, fmt.Errorf("vertex array %q: index buffer %d: %w", desc.Label, desc.IndexBuffer, backend.ErrUnknownHandle)
	}
	layout, ok := vertexLayout(desc)
	if !ok {
		return backend.InvalidVertexArray, fmt.Errorf("vertex array %q: unsupported attribute layout", desc.Label)
	}

	h := backend.VertexArrayHandle(b.handle())
	b.vertexArrays[h] = &vertexArrayState{
		vertex:     desc.VertexBuffer,
		index:      desc.IndexBuffer,
		layout:     layout,
		signature:  pipeline.VertexSignature(layout),
		baseOffset: uint64(desc.BaseOffset),
	}
	return h, nil
}

func (b *wgpuBackend) DestroyVertexArray(h backend.VertexArrayHandle) {
	if b.draw.vertexArray == h {
		b.draw.vertexArray = backend.InvalidVertexArray
	}
	delete(b.vertexArrays, h)
}
