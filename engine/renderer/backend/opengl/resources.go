package opengl

import (
	"fmt"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
	"github.com/go-gl/gl/v4.1-core/gl"
)

// textureFormat is the GL triple used to allocate one texture format.
type textureFormat struct {
	internal int32
	format   uint32
	xtype    uint32
	pixel    int
}

var textureFormats = map[backend.TextureFormat]textureFormat{
	backend.TextureFormatRGBA8:   {gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE, 4},
	backend.TextureFormatRGBA16F: {gl.RGBA16F, gl.RGBA, gl.HALF_FLOAT, 8},
	backend.TextureFormatDepth24: {gl.DEPTH_COMPONENT24, gl.DEPTH_COMPONENT, gl.UNSIGNED_INT, 4},
}

func bufferTarget(u backend.BufferUsage) uint32 {
	switch u {
	case backend.BufferUsageVertex:
		return gl.ARRAY_BUFFER
	case backend.BufferUsageIndex:
		return gl.ELEMENT_ARRAY_BUFFER
	default:
		return gl.UNIFORM_BUFFER
	}
}

func filterMode(f backend.FilterMode) int32 {
	switch f {
	case backend.FilterLinear:
		return gl.LINEAR
	case backend.FilterLinearMipmapLinear:
		return gl.LINEAR_MIPMAP_LINEAR
	default:
		return gl.NEAREST
	}
}

func wrapMode(w backend.WrapMode) int32 {
	if w == backend.WrapRepeat {
		return gl.REPEAT
	}
	return gl.CLAMP_TO_EDGE
}

func (b *glBackend) CreateBuffer(desc backend.BufferDescriptor) (backend.BufferHandle, error) {
	size := max(desc.Size, len(desc.Data))
	if size == 0 {
		return backend.InvalidBuffer, fmt.Errorf("create buffer %q: zero size", desc.Label)
	}
	target := bufferTarget(desc.Usage)
	usage := uint32(gl.STATIC_DRAW)
	if desc.Usage == backend.BufferUsageUniform {
		usage = gl.DYNAMIC_DRAW
	}

	// keep index buffer binds out of whatever vertex array is bound
	gl.BindVertexArray(0)

	var name uint32
	gl.GenBuffers(1, &name)
	gl.BindBuffer(target, name)
	gl.BufferData(target, size, nil, usage)
	if len(desc.Data) > 0 {
		gl.BufferSubData(target, 0, len(desc.Data), gl.Ptr(desc.Data))
	}
	gl.BindBuffer(target, 0)
	if err := b.glError("create buffer " + desc.Label); err != nil {
		gl.DeleteBuffers(1, &name)
		return backend.InvalidBuffer, err
	}

	h := backend.BufferHandle(name)
	b.buffers[h] = &bufferState{target: target, size: size}
	return h, nil
}

func (b *glBackend) MapBuffer(h backend.BufferHandle) ([]byte, error) {
	st, ok := b.buffers[h]
	if !ok {
		return nil, fmt.Errorf("map buffer %d: %w", h, backend.ErrUnknownHandle)
	}
	if st.mapped {
		return nil, fmt.Errorf("map buffer %d: %w", h, backend.ErrAlreadyMapped)
	}
	if st.target == gl.ELEMENT_ARRAY_BUFFER {
		gl.BindVertexArray(0)
	}
	gl.BindBuffer(st.target, uint32(h))
	ptr := gl.MapBufferRange(st.target, 0, st.size, gl.MAP_WRITE_BIT|gl.MAP_INVALIDATE_BUFFER_BIT)
	if ptr == nil {
		gl.BindBuffer(st.target, 0)
		return nil, fmt.Errorf("map buffer %d: driver returned no mapping", h)
	}
	st.mapped = true
	return unsafe.Slice((*byte)(ptr), st.size), nil
}

func (b *glBackend) UnmapBuffer(h backend.BufferHandle) error {
	st, ok := b.buffers[h]
	if !ok {
		return fmt.Errorf("unmap buffer %d: %w", h, backend.ErrUnknownHandle)
	}
	if !st.mapped {
		return fmt.Errorf("unmap buffer %d: %w", h, backend.ErrNotMapped)
	}
	gl.BindBuffer(st.target, uint32(h))
	intact := gl.UnmapBuffer(st.target)
	gl.BindBuffer(st.target, 0)
	st.mapped = false
	if !intact {
		return fmt.Errorf("unmap buffer %d: contents lost", h)
	}
	return nil
}

func (b *glBackend) DestroyBuffer(h backend.BufferHandle) {
	if _, ok := b.buffers[h]; !ok {
		return
	}
	name := uint32(h)
	gl.DeleteBuffers(1, &name)
	delete(b.buffers, h)
}

func (b *glBackend) CreateTexture(desc backend.TextureDescriptor) (backend.TextureHandle, error) {
	tf, ok := textureFormats[desc.Format]
	if !ok || desc.Width <= 0 || desc.Height <= 0 {
		return backend.InvalidTexture, fmt.Errorf("create texture %q: invalid descriptor %s %dx%d", desc.Label, desc.Format, desc.Width, desc.Height)
	}
	levels := desc.Levels()
	if len(desc.Data) > 0 && len(desc.Data) < desc.Width*desc.Height*tf.pixel {
		return backend.InvalidTexture, fmt.Errorf("create texture %q: %d bytes of pixel data for %dx%d", desc.Label, len(desc.Data), desc.Width, desc.Height)
	}

	var name uint32
	gl.GenTextures(1, &name)
	gl.BindTexture(gl.TEXTURE_2D, name)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	for level := range levels {
		w, h := max(desc.Width>>level, 1), max(desc.Height>>level, 1)
		var pixels unsafe.Pointer
		if level == 0 && len(desc.Data) > 0 {
			pixels = gl.Ptr(desc.Data)
		}
		gl.TexImage2D(gl.TEXTURE_2D, int32(level), tf.internal, int32(w), int32(h), 0, tf.format, tf.xtype, pixels)
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filterMode(desc.MinFilter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filterMode(desc.MagFilter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrapMode(desc.Wrap))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrapMode(desc.Wrap))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_BASE_LEVEL, 0)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAX_LEVEL, int32(levels-1))
	if levels > 1 && len(desc.Data) > 0 {
		gl.GenerateMipmap(gl.TEXTURE_2D)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
	if err := b.glError("create texture " + desc.Label); err != nil {
		gl.DeleteTextures(1, &name)
		return backend.InvalidTexture, err
	}

	h := backend.TextureHandle(name)
	desc.Data = nil
	b.textures[h] = desc
	return h, nil
}

func (b *glBackend) DestroyTexture(h backend.TextureHandle) {
	if _, ok := b.textures[h]; !ok {
		return
	}
	name := uint32(h)
	gl.DeleteTextures(1, &name)
	delete(b.textures, h)
}

func (b *glBackend) CreateFramebuffer(desc backend.FramebufferDescriptor) (backend.FramebufferHandle, error) {
	if len(desc.ColorAttachments) > b.limits.MaxColorAttachments {
		return backend.DefaultFramebuffer, fmt.Errorf("%q: %d color attachments: %w", desc.Label, len(desc.ColorAttachments), backend.ErrFramebufferIncomplete)
	}

	var name uint32
	gl.GenFramebuffers(1, &name)
	gl.BindFramebuffer(gl.FRAMEBUFFER, name)
	for i, a := range desc.ColorAttachments {
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0+uint32(i), gl.TEXTURE_2D, uint32(a.Texture), int32(a.MipLevel))
	}
	if desc.Depth != nil {
		gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.DEPTH_ATTACHMENT, gl.TEXTURE_2D, uint32(desc.Depth.Texture), int32(desc.Depth.MipLevel))
	}

	slots := desc.DrawBuffers
	if slots == nil {
		slots = make([]int, len(desc.ColorAttachments))
		for i := range slots {
			slots[i] = i
		}
	}
	bufs := colorAttachments(slots)
	if len(bufs) > 0 {
		gl.DrawBuffers(int32(len(bufs)), &bufs[0])
	} else {
		gl.DrawBuffer(gl.NONE)
	}

	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		gl.DeleteFramebuffers(1, &name)
		return backend.DefaultFramebuffer, fmt.Errorf("%q: status 0x%04x: %w", desc.Label, status, backend.ErrFramebufferIncomplete)
	}

	h := backend.FramebufferHandle(name)
	b.framebuffers[h] = &framebufferState{drawBuffers: bufs}
	common.Logger().Debug("framebuffer created", "label", desc.Label, "attachments", len(desc.ColorAttachments), "depth", desc.Depth != nil)
	return h, nil
}

func (b *glBackend) DestroyFramebuffer(h backend.FramebufferHandle) {
	if _, ok := b.framebuffers[h]; !ok {
		return
	}
	name := uint32(h)
	gl.DeleteFramebuffers(1, &name)
	delete(b.framebuffers, h)
}

func (b *glBackend) CreateVertexArray(desc backend.VertexArrayDescriptor) (backend.VertexArrayHandle, error) {
	if _, ok := b.buffers[desc.VertexBuffer]; !ok {
		return backend.InvalidVertexArray, fmt.Errorf("vertex array %q: vertex buffer %d: %w", desc.Label, desc.VertexBuffer, backend.ErrUnknownHandle)
	}
	if _, ok := b.buffers[desc.IndexBuffer]; !ok {
		return backend.InvalidVertexArray, fmt.Errorf("vertex array %q: index buffer %d: %w", desc.Label, desc.IndexBuffer, backend.ErrUnknownHandle)
	}

	var name uint32
	gl.GenVertexArrays(1, &name)
	gl.BindVertexArray(name)
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(desc.VertexBuffer))
	for _, a := range desc.Attributes {
		gl.EnableVertexAttribArray(a.Location)
		gl.VertexAttribPointerWithOffset(a.Location, int32(a.Components), gl.FLOAT, false, int32(desc.Stride), uintptr(a.Offset))
	}
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, uint32(desc.IndexBuffer))
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	if err := b.glError("create vertex array " + desc.Label); err != nil {
		gl.DeleteVertexArrays(1, &name)
		return backend.InvalidVertexArray, err
	}

	h := backend.VertexArrayHandle(name)
	b.vertexArrays[h] = struct{}{}
	return h, nil
}

func (b *glBackend) DestroyVertexArray(h backend.VertexArrayHandle) {
	if _, ok := b.vertexArrays[h]; !ok {
		return
	}
	name := uint32(h)
	gl.DeleteVertexArrays(1, &name)
	delete(b.vertexArrays, h)
}
