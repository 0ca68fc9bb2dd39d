package program

import (
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/shader"
)

// LibraryBuilderOption configures a Library.
type LibraryBuilderOption func(*library)

// WithShaderDir loads sources from dir when a file exists there. dir uses the embedded layout:
// <lang>/<program>.<lang> and include/<lang>/<name>.<lang>.
//
// Parameters:
//   - dir: the shader directory, already expanded
//
// Returns:
//   - LibraryBuilderOption: the option
func WithShaderDir(dir string) LibraryBuilderOption {
	return func(l *library) {
		l.shaderDir = dir
	}
}

// WithLanguage overrides the shading language picked from the backend type.
func WithLanguage(lang shader.Language) LibraryBuilderOption {
	return func(l *library) {
		l.lang = lang
	}
}

// WithReloadCallback registers fn to run with the old program before a reloaded program's old
// handle is destroyed.
//
// Parameters:
//   - fn: the callback
//
// Returns:
//   - LibraryBuilderOption: the option
func WithReloadCallback(fn func(old *Program)) LibraryBuilderOption {
	return func(l *library) {
		l.onReload = fn
	}
}
