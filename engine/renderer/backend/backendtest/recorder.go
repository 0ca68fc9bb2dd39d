// Package backendtest provides an in-memory backend.Backend that records every call, so the
// renderer core can be exercised without a GPU.
package backendtest

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
	"github.com/go-gl/mathgl/mgl32"
)

// Op names recorded by the Recorder.
const (
	OpCreateBuffer       = "CreateBuffer"
	OpMapBuffer          = "MapBuffer"
	OpUnmapBuffer        = "UnmapBuffer"
	OpDestroyBuffer      = "DestroyBuffer"
	OpCreateTexture      = "CreateTexture"
	OpDestroyTexture     = "DestroyTexture"
	OpCreateFramebuffer  = "CreateFramebuffer"
	OpDestroyFramebuffer = "DestroyFramebuffer"
	OpCreateProgram      = "CreateProgram"
	OpDestroyProgram     = "DestroyProgram"
	OpCreateVertexArray  = "CreateVertexArray"
	OpDestroyVertexArray = "DestroyVertexArray"
	OpBeginFrame         = "BeginFrame"
	OpBeginPass          = "BeginPass"
	OpUseProgram         = "UseProgram"
	OpBindUniformRange   = "BindUniformRange"
	OpBindTexture        = "BindTexture"
	OpSetUniformInt      = "SetUniformInt"
	OpSetUniformFloat    = "SetUniformFloat"
	OpSetUniformVec3     = "SetUniformVec3"
	OpBindVertexArray    = "BindVertexArray"
	OpDrawIndexed        = "DrawIndexed"
	OpEndPass            = "EndPass"
	OpEndFrame           = "EndFrame"
	OpResize             = "Resize"
)

// Call is one recorded backend call. Only the fields relevant to Op are set.
type Call struct {
	Op          string
	Pass        backend.PassDescriptor
	Program     backend.ProgramHandle
	Buffer      backend.BufferHandle
	Texture     backend.TextureHandle
	Framebuffer backend.FramebufferHandle
	VertexArray backend.VertexArrayHandle
	Binding     int
	Offset      int
	Size        int
	Unit        int
	Mips        backend.MipRange
	Location    backend.UniformLocation
	Int         int32
	Float       float32
	Vec3        mgl32.Vec3
	Count       int
	IndexFormat backend.IndexFormat
}

// ProgramStub is the reflection result the Recorder reports for a program name.
type ProgramStub struct {
	Attributes []backend.AttributeInfo
	Uniforms   map[string]backend.UniformLocation

	// Fail makes CreateProgram report a compile error for this name.
	Fail bool
}

type bufferState struct {
	desc   backend.BufferDescriptor
	data   []byte
	mapped bool
}

// Recorder is a fake backend.Backend. The zero value is not usable, use New.
type Recorder struct {
	limits backend.Limits

	// Programs maps program names to the reflection reported by CreateProgram.
	// Unknown names get position/normal/uv attributes at locations 0, 1 and 2.
	Programs map[string]ProgramStub

	// FailBufferCreation makes CreateBuffer fail.
	FailBufferCreation bool

	Calls []Call

	Buffers      map[backend.BufferHandle]*bufferState
	Textures     map[backend.TextureHandle]backend.TextureDescriptor
	Framebuffers map[backend.FramebufferHandle]backend.FramebufferDescriptor
	ProgramDescs map[backend.ProgramHandle]backend.ProgramDescriptor
	VertexArrays map[backend.VertexArrayHandle]backend.VertexArrayDescriptor

	nextHandle uint32
	width      int
	height     int
}

var _ backend.Backend = &Recorder{}

// New creates a Recorder reporting the given limits.
//
// Parameters:
//   - limits: the limits returned from Limits()
//
// Returns:
//   - *Recorder: the recorder
func New(limits backend.Limits) *Recorder {
	return &Recorder{
		limits:       limits,
		Programs:     make(map[string]ProgramStub),
		Buffers:      make(map[backend.BufferHandle]*bufferState),
		Textures:     make(map[backend.TextureHandle]backend.TextureDescriptor),
		Framebuffers: make(map[backend.FramebufferHandle]backend.FramebufferDescriptor),
		ProgramDescs: make(map[backend.ProgramHandle]backend.ProgramDescriptor),
		VertexArrays: make(map[backend.VertexArrayHandle]backend.VertexArrayDescriptor),
	}
}

// NewDefault creates a Recorder with typical desktop OpenGL limits:
// 64 KiB uniform blocks, 256-byte offset alignment and 8 color attachments.
func NewDefault() *Recorder {
	return New(backend.Limits{
		MaxUniformBlockSize:    64 * 1024,
		UniformOffsetAlignment: 256,
		MaxColorAttachments:    8,
	})
}

func (r *Recorder) next() uint32 {
	r.nextHandle++
	return r.nextHandle
}

func (r *Recorder) record(c Call) {
	r.Calls = append(r.Calls, c)
}

// Ops returns the recorded calls with the given op, in order.
//
// Parameters:
//   - op: the op name to filter by
//
// Returns:
//   - []Call: matching calls
func (r *Recorder) Ops(op string) []Call {
	var out []Call
	for _, c := range r.Calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Passes returns the descriptors of every recorded BeginPass.
func (r *Recorder) Passes() []backend.PassDescriptor {
	var out []backend.PassDescriptor
	for _, c := range r.Ops(OpBeginPass) {
		out = append(out, c.Pass)
	}
	return out
}

// ResetCalls clears the call log while keeping every live object.
func (r *Recorder) ResetCalls() {
	r.Calls = r.Calls[:0]
}

// BufferData returns the current contents of a buffer.
//
// Parameters:
//   - h: the buffer handle
//
// Returns:
//   - []byte: the backing bytes, or nil for an unknown handle
func (r *Recorder) BufferData(h backend.BufferHandle) []byte {
	if b, ok := r.Buffers[h]; ok {
		return b.data
	}
	return nil
}

// Size returns the last size passed to Resize.
func (r *Recorder) Size() (int, int) {
	return r.width, r.height
}

func (r *Recorder) Type() backend.BackendType {
	return backend.BackendTypeOpenGL
}

func (r *Recorder) Limits() backend.Limits {
	return r.limits
}

func (r *Recorder) CreateBuffer(desc backend.BufferDescriptor) (backend.BufferHandle, error) {
	if r.FailBufferCreation {
		return backend.InvalidBuffer, fmt.Errorf("create buffer %q: out of memory", desc.Label)
	}
	size := max(desc.Size, len(desc.Data))
	h := backend.BufferHandle(r.next())
	data := make([]byte, size)
	copy(data, desc.Data)
	r.Buffers[h] = &bufferState{desc: desc, data: data}
	r.record(Call{Op: OpCreateBuffer, Buffer: h, Size: size})
	return h, nil
}

func (r *Recorder) MapBuffer(h backend.BufferHandle) ([]byte, error) {
	b, ok := r.Buffers[h]
	if !ok {
		return nil, fmt.Errorf("map buffer %d: %w", h, backend.ErrUnknownHandle)
	}
	if b.mapped {
		return nil, fmt.Errorf("map buffer %d: %w", h, backend.ErrAlreadyMapped)
	}
	b.mapped = true
	r.record(Call{Op: OpMapBuffer, Buffer: h})
	return b.data, nil
}

func (r *Recorder) UnmapBuffer(h backend.BufferHandle) error {
	b, ok := r.Buffers[h]
	if !ok {
		return fmt.Errorf("unmap buffer %d: %w", h, backend.ErrUnknownHandle)
	}
	if !b.mapped {
		return fmt.Errorf("unmap buffer %d: %w", h, backend.ErrNotMapped)
	}
	b.mapped = false
	r.record(Call{Op: OpUnmapBuffer, Buffer: h})
	return nil
}

func (r *Recorder) DestroyBuffer(h backend.BufferHandle) {
	delete(r.Buffers, h)
	r.record(Call{Op: OpDestroyBuffer, Buffer: h})
}

func (r *Recorder) CreateTexture(desc backend.TextureDescriptor) (backend.TextureHandle, error) {
	if desc.Format == backend.TextureFormatInvalid || desc.Width <= 0 || desc.Height <= 0 {
		return backend.InvalidTexture, fmt.Errorf("create texture %q: invalid descriptor", desc.Label)
	}
	h := backend.TextureHandle(r.next())
	r.Textures[h] = desc
	r.record(Call{Op: OpCreateTexture, Texture: h})
	return h, nil
}

func (r *Recorder) DestroyTexture(h backend.TextureHandle) {
	delete(r.Textures, h)
	r.record(Call{Op: OpDestroyTexture, Texture: h})
}

// CreateFramebuffer validates the same rules a driver would: every attachment exists, color
// attachments use color formats, all attachments share one size at their mip level, and the
// count stays within MaxColorAttachments.
func (r *Recorder) CreateFramebuffer(desc backend.FramebufferDescriptor) (backend.FramebufferHandle, error) {
	if len(desc.ColorAttachments) > r.limits.MaxColorAttachments {
		return backend.DefaultFramebuffer, fmt.Errorf("%q: %d color attachments: %w", desc.Label, len(desc.ColorAttachments), backend.ErrFramebufferIncomplete)
	}
	w, h := -1, -1
	check := func(a backend.Attachment, color bool) error {
		td, ok := r.Textures[a.Texture]
		if !ok {
			return fmt.Errorf("%q: missing attachment texture %d: %w", desc.Label, a.Texture, backend.ErrFramebufferIncomplete)
		}
		if color != td.Format.IsColor() || a.MipLevel >= td.Levels() {
			return fmt.Errorf("%q: attachment %d not renderable: %w", desc.Label, a.Texture, backend.ErrFramebufferIncomplete)
		}
		aw, ah := max(td.Width>>a.MipLevel, 1), max(td.Height>>a.MipLevel, 1)
		if w < 0 {
			w, h = aw, ah
		} else if aw != w || ah != h {
			return fmt.Errorf("%q: attachment size mismatch: %w", desc.Label, backend.ErrFramebufferIncomplete)
		}
		return nil
	}
	for _, a := range desc.ColorAttachments {
		if err := check(a, true); err != nil {
			return backend.DefaultFramebuffer, err
		}
	}
	if desc.Depth != nil {
		if err := check(*desc.Depth, false); err != nil {
			return backend.DefaultFramebuffer, err
		}
	}
	fb := backend.FramebufferHandle(r.next())
	desc.ColorAttachments = slices.Clone(desc.ColorAttachments)
	desc.DrawBuffers = slices.Clone(desc.DrawBuffers)
	r.Framebuffers[fb] = desc
	r.record(Call{Op: OpCreateFramebuffer, Framebuffer: fb})
	return fb, nil
}

func (r *Recorder) DestroyFramebuffer(h backend.FramebufferHandle) {
	delete(r.Framebuffers, h)
	r.record(Call{Op: OpDestroyFramebuffer, Framebuffer: h})
}

func (r *Recorder) CreateProgram(desc backend.ProgramDescriptor) (backend.ProgramInfo, error) {
	stub, ok := r.Programs[desc.Name]
	if !ok {
		stub = ProgramStub{
			Attributes: []backend.AttributeInfo{
				{Name: "aPosition", Location: 0, Components: 3},
				{Name: "aNormal", Location: 1, Components: 3},
				{Name: "aUV", Location: 2, Components: 2},
			},
		}
	}
	r.record(Call{Op: OpCreateProgram})
	if stub.Fail {
		return backend.ProgramInfo{}, fmt.Errorf("%s: 0:1(1): error: syntax error: %w", desc.Name, backend.ErrProgramCompile)
	}
	h := backend.ProgramHandle(r.next())
	r.ProgramDescs[h] = desc
	uniforms := make(map[string]backend.UniformLocation, len(stub.Uniforms))
	for k, v := range stub.Uniforms {
		uniforms[k] = v
	}
	return backend.ProgramInfo{
		Handle:     h,
		Attributes: slices.Clone(stub.Attributes),
		Uniforms:   uniforms,
	}, nil
}

func (r *Recorder) DestroyProgram(h backend.ProgramHandle) {
	delete(r.ProgramDescs, h)
	r.record(Call{Op: OpDestroyProgram, Program: h})
}

func (r *Recorder) CreateVertexArray(desc backend.VertexArrayDescriptor) (backend.VertexArrayHandle, error) {
	h := backend.VertexArrayHandle(r.next())
	desc.Attributes = slices.Clone(desc.Attributes)
	r.VertexArrays[h] = desc
	r.record(Call{Op: OpCreateVertexArray, VertexArray: h, Program: desc.Program})
	return h, nil
}

func (r *Recorder) DestroyVertexArray(h backend.VertexArrayHandle) {
	delete(r.VertexArrays, h)
	r.record(Call{Op: OpDestroyVertexArray, VertexArray: h})
}

func (r *Recorder) BeginFrame() error {
	r.record(Call{Op: OpBeginFrame})
	return nil
}

func (r *Recorder) BeginPass(desc backend.PassDescriptor) {
	desc.DrawBuffers = slices.Clone(desc.DrawBuffers)
	r.record(Call{Op: OpBeginPass, Pass: desc, Framebuffer: desc.Target})
}

func (r *Recorder) UseProgram(h backend.ProgramHandle) {
	r.record(Call{Op: OpUseProgram, Program: h})
}

func (r *Recorder) BindUniformRange(binding int, buf backend.BufferHandle, offset, size int) {
	r.record(Call{Op: OpBindUniformRange, Binding: binding, Buffer: buf, Offset: offset, Size: size})
}

func (r *Recorder) BindTexture(unit int, tex backend.TextureHandle, mips backend.MipRange) {
	r.record(Call{Op: OpBindTexture, Unit: unit, Texture: tex, Mips: mips})
}

func (r *Recorder) SetUniformInt(loc backend.UniformLocation, v int32) {
	r.record(Call{Op: OpSetUniformInt, Location: loc, Int: v})
}

func (r *Recorder) SetUniformFloat(loc backend.UniformLocation, v float32) {
	r.record(Call{Op: OpSetUniformFloat, Location: loc, Float: v})
}

func (r *Recorder) SetUniformVec3(loc backend.UniformLocation, v mgl32.Vec3) {
	r.record(Call{Op: OpSetUniformVec3, Location: loc, Vec3: v})
}

func (r *Recorder) BindVertexArray(h backend.VertexArrayHandle) {
	r.record(Call{Op: OpBindVertexArray, VertexArray: h})
}

func (r *Recorder) DrawIndexed(count int, format backend.IndexFormat, byteOffset int) {
	r.record(Call{Op: OpDrawIndexed, Count: count, IndexFormat: format, Offset: byteOffset})
}

func (r *Recorder) EndPass() {
	r.record(Call{Op: OpEndPass})
}

func (r *Recorder) EndFrame() error {
	r.record(Call{Op: OpEndFrame})
	return nil
}

func (r *Recorder) Resize(width, height int) {
	r.width, r.height = width, height
	r.record(Call{Op: OpResize, Size: width * height})
}

func (r *Recorder) Release() {
	clear(r.Buffers)
	clear(r.Textures)
	clear(r.Framebuffers)
	clear(r.ProgramDescs)
	clear(r.VertexArrays)
}
