package backend

// BufferUsage declares how a buffer is bound.
type BufferUsage int

const (
	// BufferUsageUniform marks a buffer bound with BindUniformRange.
	BufferUsageUniform BufferUsage = iota
	// BufferUsageVertex marks a buffer holding interleaved vertex data.
	BufferUsageVertex
	// BufferUsageIndex marks a buffer holding triangle indices.
	BufferUsageIndex
)

// BufferDescriptor describes a buffer to allocate.
type BufferDescriptor struct {
	// Label is a debug name.
	Label string

	// Usage selects the binding target.
	Usage BufferUsage

	// Size is the capacity in bytes. When zero, len(Data) is used.
	Size int

	// Data is optional initial content uploaded at creation.
	Data []byte
}

// TextureFormat is the pixel format of a texture.
type TextureFormat int

const (
	// TextureFormatInvalid is the zero value and is rejected by every backend.
	TextureFormatInvalid TextureFormat = iota
	// TextureFormatRGBA8 is 8-bit unsigned normalized RGBA.
	TextureFormatRGBA8
	// TextureFormatRGBA16F is 16-bit floating point RGBA.
	TextureFormatRGBA16F
	// TextureFormatDepth24 is a 24-bit depth buffer.
	TextureFormatDepth24
)

// IsColor reports whether the format can be used as a color attachment.
func (f TextureFormat) IsColor() bool {
	return f == TextureFormatRGBA8 || f == TextureFormatRGBA16F
}

// IsDepth reports whether the format can be used as a depth attachment.
func (f TextureFormat) IsDepth() bool {
	return f == TextureFormatDepth24
}

// String returns the format name used in logs.
func (f TextureFormat) String() string {
	switch f {
	case TextureFormatRGBA8:
		return "rgba8"
	case TextureFormatRGBA16F:
		return "rgba16f"
	case TextureFormatDepth24:
		return "depth24"
	default:
		return "invalid"
	}
}

// FilterMode selects texture sampling.
type FilterMode int

const (
	// FilterNearest samples the closest texel.
	FilterNearest FilterMode = iota
	// FilterLinear interpolates between texels of one level.
	FilterLinear
	// FilterLinearMipmapLinear interpolates between texels and between mip levels.
	FilterLinearMipmapLinear
)

// WrapMode selects addressing outside [0, 1].
type WrapMode int

const (
	// WrapClampToEdge clamps coordinates to the edge texel.
	WrapClampToEdge WrapMode = iota
	// WrapRepeat tiles the texture.
	WrapRepeat
)

// TextureDescriptor describes a 2D texture to allocate.
type TextureDescriptor struct {
	Label     string
	Width     int
	Height    int
	Format    TextureFormat
	MipLevels int // 0 is treated as 1
	MinFilter FilterMode
	MagFilter FilterMode
	Wrap      WrapMode

	// Data is optional tightly packed level-0 pixel data.
	Data []byte
}

// Levels returns the number of mip levels, at least 1.
func (d TextureDescriptor) Levels() int {
	return max(d.MipLevels, 1)
}

// Attachment references one mip level of a texture as a render target.
type Attachment struct {
	Texture  TextureHandle
	MipLevel int
}

// FramebufferDescriptor describes a render target made of color attachments and an optional depth attachment.
type FramebufferDescriptor struct {
	Label string

	// ColorAttachments occupy color slots 0..len-1 in order.
	ColorAttachments []Attachment

	// DrawBuffers lists the color slots written by default. Nil selects every slot in order.
	DrawBuffers []int

	// Depth is the optional depth attachment.
	Depth *Attachment
}

// ProgramDescriptor describes a shader program to compile and link.
type ProgramDescriptor struct {
	// Name is the logical program name, also injected as a preprocessor define for GLSL sources.
	Name string

	// Source is the program source in the backend's shading language.
	Source string

	// UniformBlocks maps uniform block names to fixed binding points.
	UniformBlocks map[string]int

	// Samplers maps sampler uniform names to fixed texture units.
	Samplers map[string]int
}

// AttributeInfo is one reflected vertex input of a program.
type AttributeInfo struct {
	Name       string
	Location   uint32
	Components int
}

// ProgramInfo is the result of a successful CreateProgram.
type ProgramInfo struct {
	Handle ProgramHandle

	// Attributes are the active vertex inputs in reflected order.
	Attributes []AttributeInfo

	// Uniforms maps every named non-block uniform to its location.
	Uniforms map[string]UniformLocation
}

// VertexAttributeBinding binds one program input to a slice of the vertex buffer.
type VertexAttributeBinding struct {
	Location   uint32
	Components int

	// Offset is the absolute byte offset of the attribute's first element in the vertex buffer.
	Offset int
}

// VertexArrayDescriptor describes the binding between a vertex layout and a program's inputs.
type VertexArrayDescriptor struct {
	Label        string
	Program      ProgramHandle
	VertexBuffer BufferHandle
	IndexBuffer  BufferHandle
	Attributes   []VertexAttributeBinding
	Stride       int

	// BaseOffset is the byte offset of the first vertex of the submesh. Attribute offsets already include it.
	BaseOffset int
}

// IndexFormat is the element type of an index buffer.
type IndexFormat int

const (
	// IndexFormatUint16 indexes with 16-bit unsigned integers.
	IndexFormatUint16 IndexFormat = iota
	// IndexFormatUint32 indexes with 32-bit unsigned integers.
	IndexFormatUint32
)

// Size returns the byte size of one index.
func (f IndexFormat) Size() int {
	if f == IndexFormatUint16 {
		return 2
	}
	return 4
}

// BlendMode selects color blending for a pass.
type BlendMode int

const (
	// BlendNone overwrites the destination.
	BlendNone BlendMode = iota
	// BlendAdditive adds the source to the destination (ONE, ONE).
	BlendAdditive
)

// Viewport is a pixel rectangle.
type Viewport struct {
	X, Y, Width, Height int
}

// MipRange restricts the levels visible to a sampler. A zero Count exposes every level from Base.
type MipRange struct {
	Base  int
	Count int
}

// AllMips exposes every mip level of a texture.
var AllMips = MipRange{}

// SingleMip exposes exactly one level.
//
// Parameters:
//   - level: the mip level to expose
//
// Returns:
//   - MipRange: a range covering only that level
func SingleMip(level int) MipRange {
	return MipRange{Base: level, Count: 1}
}

// PassDescriptor configures a render pass.
type PassDescriptor struct {
	Label string

	// Target is the framebuffer drawn into. DefaultFramebuffer is the back buffer.
	Target FramebufferHandle

	// DrawBuffers overrides the framebuffer's draw buffers for this pass. Fragment output i is written to slot DrawBuffers[i].
	DrawBuffers []int

	Viewport Viewport

	ClearColor bool
	Color      [4]float32
	ClearDepth bool

	Blend     BlendMode
	DepthTest bool
}
