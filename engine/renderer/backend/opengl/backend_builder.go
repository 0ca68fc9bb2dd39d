package opengl

// BackendBuilderOption is a functional option for configuring the OpenGL backend.
type BackendBuilderOption func(b *glBackend)

// WithErrorChecks drains glGetError after every resource creation and at frame boundaries.
// It costs a driver round trip per check and is meant for debugging.
//
// Parameters:
//   - enabled: whether to check for GL errors
//
// Returns:
//   - BackendBuilderOption: option function to apply
func WithErrorChecks(enabled bool) BackendBuilderOption {
	return func(b *glBackend) {
		b.checkErrors = enabled
	}
}
