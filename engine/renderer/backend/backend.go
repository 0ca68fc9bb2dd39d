// Package backend defines the graphics API abstraction used by the renderer. Every GPU object is
// referred to through a strongly typed handle, and every implementation owns the objects it creates.
package backend

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrFramebufferIncomplete is returned when a framebuffer fails its completeness check.
	ErrFramebufferIncomplete = errors.New("framebuffer incomplete")

	// ErrProgramCompile is returned when a program fails to compile or link.
	ErrProgramCompile = errors.New("program compile failed")

	// ErrUnknownHandle is returned when an operation references a handle the backend does not own.
	ErrUnknownHandle = errors.New("unknown handle")

	// ErrAlreadyMapped is returned when mapping a buffer that is already mapped.
	ErrAlreadyMapped = errors.New("buffer already mapped")

	// ErrNotMapped is returned when unmapping a buffer that is not mapped.
	ErrNotMapped = errors.New("buffer not mapped")
)

// BackendType selects a Backend implementation.
type BackendType int

const (
	// BackendTypeOpenGL renders through an OpenGL 4.1 core context.
	BackendTypeOpenGL BackendType = iota
	// BackendTypeWGPU renders through WebGPU.
	BackendTypeWGPU
)

// String returns the configuration name of the backend type.
func (t BackendType) String() string {
	switch t {
	case BackendTypeOpenGL:
		return "opengl"
	case BackendTypeWGPU:
		return "wgpu"
	default:
		return fmt.Sprintf("BackendType(%d)", int(t))
	}
}

// ParseBackendType converts a configuration name into a BackendType.
//
// Parameters:
//   - name: "opengl", "gl", "wgpu" or "webgpu"
//
// Returns:
//   - BackendType: the matching type
//   - error: error if the name is unknown
func ParseBackendType(name string) (BackendType, error) {
	switch name {
	case "opengl", "gl":
		return BackendTypeOpenGL, nil
	case "wgpu", "webgpu":
		return BackendTypeWGPU, nil
	}
	return 0, fmt.Errorf("unknown backend %q", name)
}

// Limits are the device limits the renderer sizes its resources from.
type Limits struct {
	// MaxUniformBlockSize is the largest uniform buffer the renderer allocates.
	MaxUniformBlockSize int

	// UniformOffsetAlignment is the required alignment of every bound uniform range.
	UniformOffsetAlignment int

	// MaxColorAttachments is the largest number of color attachments in one framebuffer.
	MaxColorAttachments int

	// MaxColorAttachmentBytesPerSample caps the summed per-sample size of a framebuffer's
	// color attachments. Zero means the backend imposes no such limit.
	MaxColorAttachmentBytesPerSample int

	// DepthZeroToOne is true when clip-space depth spans [0, 1] instead of [-1, 1].
	DepthZeroToOne bool
}

// Backend is the explicit-resource graphics API the renderer drives.
// All calls are made from the render thread.
type Backend interface {
	// Type returns the backend implementation type.
	Type() BackendType

	// Limits returns the device limits queried at initialization.
	Limits() Limits

	// CreateBuffer allocates a buffer and uploads the optional initial data.
	CreateBuffer(desc BufferDescriptor) (BufferHandle, error)

	// MapBuffer maps the whole buffer for CPU writes. The slice is valid until UnmapBuffer.
	MapBuffer(h BufferHandle) ([]byte, error)

	// UnmapBuffer ends CPU access and makes the written bytes visible to the GPU.
	UnmapBuffer(h BufferHandle) error

	// DestroyBuffer releases the buffer.
	DestroyBuffer(h BufferHandle)

	// CreateTexture allocates a texture with its full mip chain.
	CreateTexture(desc TextureDescriptor) (TextureHandle, error)

	// DestroyTexture releases the texture.
	DestroyTexture(h TextureHandle)

	// CreateFramebuffer builds a render target and validates completeness.
	// Returns an error wrapping ErrFramebufferIncomplete when validation fails.
	CreateFramebuffer(desc FramebufferDescriptor) (FramebufferHandle, error)

	// DestroyFramebuffer releases the framebuffer object. Attachments are not destroyed.
	DestroyFramebuffer(h FramebufferHandle)

	// CreateProgram compiles, links and reflects a program.
	// Returns an error wrapping ErrProgramCompile carrying the full driver diagnostic on failure.
	CreateProgram(desc ProgramDescriptor) (ProgramInfo, error)

	// DestroyProgram releases the program.
	DestroyProgram(h ProgramHandle)

	// CreateVertexArray binds vertex and index buffers to a program's inputs.
	CreateVertexArray(desc VertexArrayDescriptor) (VertexArrayHandle, error)

	// DestroyVertexArray releases the vertex array.
	DestroyVertexArray(h VertexArrayHandle)

	// BeginFrame starts recording a frame.
	BeginFrame() error

	// BeginPass binds a render target, sets the viewport and applies clears and fixed-function state.
	BeginPass(desc PassDescriptor)

	// UseProgram selects the program used by subsequent draws.
	UseProgram(h ProgramHandle)

	// BindUniformRange binds [offset, offset+size) of a uniform buffer to a binding point.
	BindUniformRange(binding int, buf BufferHandle, offset, size int)

	// BindTexture binds a texture to a unit, restricted to the given mip range.
	BindTexture(unit int, tex TextureHandle, mips MipRange)

	// SetUniformInt sets a named int uniform of the current program.
	SetUniformInt(loc UniformLocation, v int32)

	// SetUniformFloat sets a named float uniform of the current program.
	SetUniformFloat(loc UniformLocation, v float32)

	// SetUniformVec3 sets a named vec3 uniform of the current program.
	SetUniformVec3(loc UniformLocation, v mgl32.Vec3)

	// BindVertexArray selects the vertex array used by subsequent draws.
	BindVertexArray(h VertexArrayHandle)

	// DrawIndexed draws count indices starting at byteOffset in the bound index buffer.
	DrawIndexed(count int, format IndexFormat, byteOffset int)

	// EndPass finishes the current render pass.
	EndPass()

	// EndFrame submits the recorded frame.
	EndFrame() error

	// Resize reconfigures the back buffer.
	Resize(width, height int)

	// Release destroys every object the backend still owns.
	Release()
}
