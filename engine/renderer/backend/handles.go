package backend

// BufferHandle identifies a GPU buffer owned by a Backend. The zero value is invalid.
type BufferHandle uint32

// TextureHandle identifies a GPU texture owned by a Backend. The zero value is invalid.
type TextureHandle uint32

// FramebufferHandle identifies a render target owned by a Backend.
// The zero value names the window's back buffer (DefaultFramebuffer).
type FramebufferHandle uint32

// ProgramHandle identifies a linked shader program owned by a Backend. The zero value is invalid.
type ProgramHandle uint32

// VertexArrayHandle identifies a vertex attribute binding owned by a Backend. The zero value is invalid.
type VertexArrayHandle uint32

// UniformLocation identifies a named uniform inside a program.
// For OpenGL it is the driver location, for WebGPU it is the byte offset of the field in the
// program's per-draw parameter block. InvalidUniformLocation marks an unknown name.
type UniformLocation int32

const (
	// InvalidBuffer is the sentinel for an unallocated buffer.
	InvalidBuffer BufferHandle = 0

	// InvalidTexture is the sentinel for an unallocated texture.
	InvalidTexture TextureHandle = 0

	// DefaultFramebuffer is the window back buffer.
	DefaultFramebuffer FramebufferHandle = 0

	// InvalidProgram is the sentinel for a program that failed to compile or link.
	InvalidProgram ProgramHandle = 0

	// InvalidVertexArray is the sentinel for an unallocated vertex array.
	InvalidVertexArray VertexArrayHandle = 0

	// InvalidUniformLocation is returned for names the program does not declare.
	InvalidUniformLocation UniformLocation = -1
)

// Valid reports whether the handle refers to an allocated buffer.
func (h BufferHandle) Valid() bool { return h != InvalidBuffer }

// Valid reports whether the handle refers to an allocated texture.
func (h TextureHandle) Valid() bool { return h != InvalidTexture }

// Valid reports whether the handle refers to a linked program.
func (h ProgramHandle) Valid() bool { return h != InvalidProgram }

// Valid reports whether the handle refers to an allocated vertex array.
func (h VertexArrayHandle) Valid() bool { return h != InvalidVertexArray }

// Valid reports whether the location names a declared uniform.
func (l UniformLocation) Valid() bool { return l >= 0 }
