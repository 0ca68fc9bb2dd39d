// Package shader owns the program sources the renderer compiles: the embedded GLSL and WGSL assets,
// the include pre-processor that assembles them, and a WGSL reflector the WebGPU backend builds
// pipeline layouts from.
package shader

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

//go:embed assets
var assets embed.FS

// Language identifies the shading language of a program source.
type Language int

const (
	// LanguageGLSL is GLSL 4.10 core, compiled once per stage with a stage define.
	LanguageGLSL Language = iota

	// LanguageWGSL is WebGPU shading language with vs_main and fs_main entry points in one module.
	LanguageWGSL
)

// String returns the directory name of the language under the asset root.
func (l Language) String() string {
	switch l {
	case LanguageGLSL:
		return "glsl"
	case LanguageWGSL:
		return "wgsl"
	default:
		return fmt.Sprintf("Language(%d)", int(l))
	}
}

// Extension returns the file extension of sources in the language, including the dot.
func (l Language) Extension() string {
	return "." + l.String()
}

// Stage is a programmable pipeline stage.
type Stage int

const (
	// StageVertex is the vertex stage.
	StageVertex Stage = iota

	// StageFragment is the fragment stage.
	StageFragment
)

// Define returns the preprocessor symbol that selects the stage in a combined GLSL source.
func (s Stage) Define() string {
	if s == StageVertex {
		return "VERTEX"
	}
	return "FRAGMENT"
}

// Program names shared by the renderer and the asset tree.
const (
	ProgramForward           = "forward"
	ProgramDeferredGeometry  = "deferred_geometry"
	ProgramDeferredComposite = "deferred_composite"
	ProgramBrightPass        = "bright_pass"
	ProgramBlur              = "blur"
	ProgramBloomComposite    = "bloom_composite"
	ProgramPassthrough       = "passthrough"
)

// Uniform block names and their fixed binding points.
const (
	BlockGlobalParams = "GlobalParams"
	BlockEntityParams = "EntityParams"

	GlobalParamsBinding = 0
	EntityParamsBinding = 1
)

// glslVersion is prepended to every GLSL stage.
const glslVersion = "#version 410 core"

// ProgramDef is the static binding table of one program: which uniform blocks it reads at which
// binding point and which sampler is bound to which texture unit.
type ProgramDef struct {
	Name          string
	UniformBlocks map[string]int
	Samplers      map[string]int
}

var lightingBlocks = map[string]int{
	BlockGlobalParams: GlobalParamsBinding,
	BlockEntityParams: EntityParamsBinding,
}

var programDefs = []ProgramDef{
	{Name: ProgramForward, UniformBlocks: lightingBlocks, Samplers: map[string]int{"uTexture": 0}},
	{Name: ProgramDeferredGeometry, UniformBlocks: lightingBlocks, Samplers: map[string]int{"uTexture": 0}},
	{
		Name:          ProgramDeferredComposite,
		UniformBlocks: map[string]int{BlockGlobalParams: GlobalParamsBinding},
		Samplers:      map[string]int{"uAlbedo": 0, "uNormals": 1, "uPosition": 2, "uViewDir": 3},
	},
	{Name: ProgramBrightPass, Samplers: map[string]int{"colorTexture": 0}},
	{Name: ProgramBlur, Samplers: map[string]int{"colorMap": 0}},
	{Name: ProgramBloomComposite, Samplers: map[string]int{"colorMap": 0}},
	{Name: ProgramPassthrough, Samplers: map[string]int{"colorTexture": 0}},
}

// Programs returns the definition of every program the renderer loads, in load order.
//
// Returns:
//   - []ProgramDef: a copy of the program table
func Programs() []ProgramDef {
	out := make([]ProgramDef, len(programDefs))
	copy(out, programDefs)
	return out
}

// Lookup returns the definition of a program by name.
//
// Parameters:
//   - name: the program name
//
// Returns:
//   - ProgramDef: the definition
//   - bool: false if no program has that name
func Lookup(name string) (ProgramDef, bool) {
	for _, d := range programDefs {
		if d.Name == name {
			return d, true
		}
	}
	return ProgramDef{}, false
}

// Assets returns the embedded asset tree. Its layout is the layout expected of an on-disk shader
// directory: <lang>/<program>.<lang> and include/<lang>/<name>.<lang>.
func Assets() fs.FS {
	sub, err := fs.Sub(assets, "assets")
	if err != nil {
		panic(err)
	}
	return sub
}

// SourcePath returns the slash-separated path of a program source relative to a shader root.
//
// Parameters:
//   - lang: the source language
//   - name: the program name
//
// Returns:
//   - string: e.g. "glsl/forward.glsl"
func SourcePath(lang Language, name string) string {
	return path.Join(lang.String(), name+lang.Extension())
}

// IncludePath returns the slash-separated path of an include file relative to a shader root.
func IncludePath(lang Language, name string) string {
	return path.Join("include", lang.String(), name+lang.Extension())
}

// EmbeddedSource returns the raw, unprocessed embedded source of a program.
//
// Parameters:
//   - lang: the source language
//   - name: the program name
//
// Returns:
//   - string: the source text
//   - error: error if no embedded source exists
func EmbeddedSource(lang Language, name string) (string, error) {
	b, err := fs.ReadFile(Assets(), SourcePath(lang, name))
	if err != nil {
		return "", fmt.Errorf("embedded %s source %q: %w", lang, name, err)
	}
	return string(b), nil
}

// StageSource builds the text of one GLSL stage from a processed combined source: the version
// directive, a define naming the program and the stage define.
//
// Parameters:
//   - source: the processed program source
//   - name: the program name, defined upper-cased
//   - stage: the stage to select
//
// Returns:
//   - string: source ready for glShaderSource
func StageSource(source, name string, stage Stage) string {
	var sb strings.Builder
	sb.Grow(len(source) + 64)
	sb.WriteString(glslVersion)
	sb.WriteString("\n#define ")
	sb.WriteString(strings.ToUpper(name))
	sb.WriteString("\n#define ")
	sb.WriteString(stage.Define())
	sb.WriteString("\n")
	sb.WriteString(source)
	return sb.String()
}
