package renderer

// RendererBuilderOption is a functional option for configuring a renderer.
type RendererBuilderOption func(r *renderer)

// WithMode sets the mode of the first frame.
//
// Parameters:
//   - m: the initial mode
//
// Returns:
//   - RendererBuilderOption: option function to apply
func WithMode(m Mode) RendererBuilderOption {
	return func(r *renderer) {
		r.mode = m
	}
}

// WithStagingCapacity sets the size of the per-frame uniform staging buffer.
// Without it the backend's maximum uniform block size is used.
//
// Parameters:
//   - capacity: the capacity in bytes
//
// Returns:
//   - RendererBuilderOption: option function to apply
func WithStagingCapacity(capacity int) RendererBuilderOption {
	return func(r *renderer) {
		r.stagingCapacity = capacity
	}
}

// WithShaderDir loads program sources from a directory before falling back to the embedded ones.
func WithShaderDir(dir string) RendererBuilderOption {
	return func(r *renderer) {
		r.shaderDir = dir
	}
}

// WithHotReload watches the shader directory for changes.
//
// Parameters:
//   - enabled: whether to start a filesystem watcher
//
// Returns:
//   - RendererBuilderOption: option function to apply
func WithHotReload(enabled bool) RendererBuilderOption {
	return func(r *renderer) {
		r.hotReload = enabled
	}
}
