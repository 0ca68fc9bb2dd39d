// Package program holds linked shader programs, their reflected inputs and uniforms, and the library
// that loads them from embedded or on-disk sources and reloads them when the sources change.
package program

import (
	"time"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
)

// Program is a linked shader program with the reflection captured at load time.
type Program struct {
	// Handle is InvalidProgram when the last compile failed.
	Handle backend.ProgramHandle

	// Name is the logical program name, e.g. "deferred_geometry".
	Name string

	// Path is the on-disk source path, or empty when loaded from embedded sources.
	Path string

	// LastModified is the source modification time at the last load.
	LastModified time.Time

	// Includes are the include names the source expanded at the last load.
	Includes []string

	// Attributes are the active vertex inputs in reflected order.
	Attributes []backend.AttributeInfo

	// Uniforms maps uniform names to their locations.
	Uniforms map[string]backend.UniformLocation
}

// Valid reports whether the program linked successfully.
func (p *Program) Valid() bool {
	return p != nil && p.Handle.Valid()
}

// Uniform looks up a uniform location by name.
//
// Parameters:
//   - name: the uniform name as declared in the source
//
// Returns:
//   - backend.UniformLocation: the location, or InvalidUniformLocation if the program does not declare it
func (p *Program) Uniform(name string) backend.UniformLocation {
	if loc, ok := p.Uniforms[name]; ok {
		return loc
	}
	return backend.InvalidUniformLocation
}
