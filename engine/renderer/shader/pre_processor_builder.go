package shader

import "io/fs"

// PreProcessorBuilderOption configures a PreProcessor.
type PreProcessorBuilderOption func(*preProcessor)

// WithSourceFS resolves includes against root instead of the embedded assets.
// root must follow the embedded layout: include/<lang>/<name>.<lang>.
//
// Parameters:
//   - root: the shader root
//
// Returns:
//   - PreProcessorBuilderOption: the option
func WithSourceFS(root fs.FS) PreProcessorBuilderOption {
	return func(p *preProcessor) {
		p.root = root
	}
}
