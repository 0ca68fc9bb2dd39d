// Package opengl implements backend.Backend on an OpenGL 4.1 core context. Every handle it returns
// is the GL object name, so the zero values line up with GL's "no object" and default framebuffer.
package opengl

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

type bufferState struct {
	target uint32
	size   int
	mapped bool
}

type framebufferState struct {
	drawBuffers []uint32
}

// glBackend is the implementation of backend.Backend on OpenGL.
type glBackend struct {
	limits      backend.Limits
	checkErrors bool

	buffers      map[backend.BufferHandle]*bufferState
	textures     map[backend.TextureHandle]backend.TextureDescriptor
	framebuffers map[backend.FramebufferHandle]*framebufferState
	programs     map[backend.ProgramHandle]struct{}
	vertexArrays map[backend.VertexArrayHandle]struct{}

	width, height int
}

var _ backend.Backend = &glBackend{}

// NewBackend loads the GL entry points and queries the device limits. A 4.1 core context must be
// current on the calling thread, and every later call must come from that thread.
//
// Parameters:
//   - width: initial back buffer width in pixels
//   - height: initial back buffer height in pixels
//   - options: functional options
//
// Returns:
//   - backend.Backend: the OpenGL backend
//   - error: error if the GL functions could not be loaded
func NewBackend(width, height int, options ...BackendBuilderOption) (backend.Backend, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("opengl init: %w", err)
	}

	b := &glBackend{
		buffers:      make(map[backend.BufferHandle]*bufferState),
		textures:     make(map[backend.TextureHandle]backend.TextureDescriptor),
		framebuffers: make(map[backend.FramebufferHandle]*framebufferState),
		programs:     make(map[backend.ProgramHandle]struct{}),
		vertexArrays: make(map[backend.VertexArrayHandle]struct{}),
		width:        width,
		height:       height,
	}
	for _, opt := range options {
		opt(b)
	}

	var maxBlock, alignment, attachments int32
	gl.GetIntegerv(gl.MAX_UNIFORM_BLOCK_SIZE, &maxBlock)
	gl.GetIntegerv(gl.UNIFORM_BUFFER_OFFSET_ALIGNMENT, &alignment)
	gl.GetIntegerv(gl.MAX_COLOR_ATTACHMENTS, &attachments)
	b.limits = backend.Limits{
		MaxUniformBlockSize:    int(maxBlock),
		UniformOffsetAlignment: int(max(alignment, 1)),
		MaxColorAttachments:    int(attachments),
	}

	common.Logger().Info("opengl backend ready",
		"version", gl.GoStr(gl.GetString(gl.VERSION)),
		"renderer", gl.GoStr(gl.GetString(gl.RENDERER)),
		"max_uniform_block", b.limits.MaxUniformBlockSize,
		"uniform_alignment", b.limits.UniformOffsetAlignment,
		"color_attachments", b.limits.MaxColorAttachments,
	)
	return b, nil
}

func (b *glBackend) Type() backend.BackendType {
	return backend.BackendTypeOpenGL
}

func (b *glBackend) Limits() backend.Limits {
	return b.limits
}

// glError drains the GL error queue and reports the first error, when error checking is enabled.
func (b *glBackend) glError(op string) error {
	if !b.checkErrors {
		return nil
	}
	var first uint32
	for code := gl.GetError(); code != gl.NO_ERROR; code = gl.GetError() {
		if first == 0 {
			first = code
		}
	}
	if first != 0 {
		return fmt.Errorf("%s: gl error 0x%04x", op, first)
	}
	return nil
}

func (b *glBackend) BeginFrame() error {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(b.width), int32(b.height))
	return b.glError("begin frame")
}

func (b *glBackend) BeginPass(desc backend.PassDescriptor) {
	fb := uint32(desc.Target)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb)

	if desc.Target != backend.DefaultFramebuffer {
		bufs := colorAttachments(desc.DrawBuffers)
		if len(bufs) == 0 {
			if st, ok := b.framebuffers[desc.Target]; ok {
				bufs = st.drawBuffers
			}
		}
		if len(bufs) > 0 {
			gl.DrawBuffers(int32(len(bufs)), &bufs[0])
		}
	}

	vp := desc.Viewport
	if vp.Width == 0 || vp.Height == 0 {
		vp = backend.Viewport{Width: b.width, Height: b.height}
	}
	gl.Viewport(int32(vp.X), int32(vp.Y), int32(vp.Width), int32(vp.Height))

	if desc.DepthTest {
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(gl.LESS)
		gl.DepthMask(true)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}

	switch desc.Blend {
	case backend.BlendAdditive:
		gl.Enable(gl.BLEND)
		gl.BlendFunc(gl.ONE, gl.ONE)
	default:
		gl.Disable(gl.BLEND)
	}

	var mask uint32
	if desc.ClearColor {
		gl.ClearColor(desc.Color[0], desc.Color[1], desc.Color[2], desc.Color[3])
		mask |= gl.COLOR_BUFFER_BIT
	}
	if desc.ClearDepth {
		gl.DepthMask(true)
		mask |= gl.DEPTH_BUFFER_BIT
	}
	if mask != 0 {
		gl.Clear(mask)
	}
	if !desc.DepthTest {
		gl.DepthMask(false)
	}
}

func (b *glBackend) UseProgram(h backend.ProgramHandle) {
	gl.UseProgram(uint32(h))
}

func (b *glBackend) BindUniformRange(binding int, buf backend.BufferHandle, offset, size int) {
	gl.BindBufferRange(gl.UNIFORM_BUFFER, uint32(binding), uint32(buf), offset, size)
}

func (b *glBackend) BindTexture(unit int, tex backend.TextureHandle, mips backend.MipRange) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	gl.BindTexture(gl.TEXTURE_2D, uint32(tex))
	desc, ok := b.textures[tex]
	if !ok {
		return
	}
	base, top := mipBounds(mips, desc.Levels())
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_BASE_LEVEL, int32(base))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAX_LEVEL, int32(top))
}

func (b *glBackend) SetUniformInt(loc backend.UniformLocation, v int32) {
	if loc.Valid() {
		gl.Uniform1i(int32(loc), v)
	}
}

func (b *glBackend) SetUniformFloat(loc backend.UniformLocation, v float32) {
	if loc.Valid() {
		gl.Uniform1f(int32(loc), v)
	}
}

func (b *glBackend) SetUniformVec3(loc backend.UniformLocation, v mgl32.Vec3) {
	if loc.Valid() {
		gl.Uniform3f(int32(loc), v[0], v[1], v[2])
	}
}

func (b *glBackend) BindVertexArray(h backend.VertexArrayHandle) {
	gl.BindVertexArray(uint32(h))
}

func (b *glBackend) DrawIndexed(count int, format backend.IndexFormat, byteOffset int) {
	gl.DrawElementsWithOffset(gl.TRIANGLES, int32(count), indexType(format), uintptr(byteOffset))
}

func (b *glBackend) EndPass() {
	gl.BindVertexArray(0)
}

func (b *glBackend) EndFrame() error {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.DepthMask(true)
	return b.glError("end frame")
}

func (b *glBackend) Resize(width, height int) {
	b.width, b.height = width, height
}

func (b *glBackend) Release() {
	for h := range b.vertexArrays {
		b.DestroyVertexArray(h)
	}
	for h := range b.programs {
		b.DestroyProgram(h)
	}
	for h := range b.framebuffers {
		b.DestroyFramebuffer(h)
	}
	for h := range b.textures {
		b.DestroyTexture(h)
	}
	for h := range b.buffers {
		b.DestroyBuffer(h)
	}
}

// colorAttachments converts color slots into GL attachment enums.
func colorAttachments(slots []int) []uint32 {
	if len(slots) == 0 {
		return nil
	}
	out := make([]uint32, len(slots))
	for i, s := range slots {
		out[i] = gl.COLOR_ATTACHMENT0 + uint32(s)
	}
	return out
}

// mipBounds resolves a MipRange against a texture's level count into inclusive base and max levels.
func mipBounds(r backend.MipRange, levels int) (int, int) {
	base := common.Clamp(r.Base, 0, levels-1)
	top := levels - 1
	if r.Count > 0 {
		top = min(base+r.Count-1, levels-1)
	}
	return base, top
}

func indexType(f backend.IndexFormat) uint32 {
	if f == backend.IndexFormatUint16 {
		return gl.UNSIGNED_SHORT
	}
	return gl.UNSIGNED_INT
}
