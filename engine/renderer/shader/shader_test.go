package shader

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedProgramsProcess(t *testing.T) {
	for _, lang := range []Language{LanguageGLSL, LanguageWGSL} {
		pp := NewPreProcessor(lang)
		for _, def := range Programs() {
			src, err := EmbeddedSource(lang, def.Name)
			require.NoError(t, err, "%s/%s", lang, def.Name)

			out, err := pp.Process(src)
			require.NoError(t, err, "%s/%s", lang, def.Name)
			assert.NotContains(t, out, annotationPrefix, "%s/%s", lang, def.Name)
		}
	}
}

func TestPreProcessorIncludes(t *testing.T) {
	root := fstest.MapFS{
		"include/glsl/a.glsl": {Data: []byte("//@oxy:include b\nfloat a;\n")},
		"include/glsl/b.glsl": {Data: []byte("float b;\n")},
	}
	pp := NewPreProcessor(LanguageGLSL, WithSourceFS(root))

	out, err := pp.Process("// plain comment\n//@oxy:include a\n//@oxy:include b\nvoid main() {}")
	require.NoError(t, err)
	assert.Equal(t, "// plain comment\nfloat b;\nfloat a;\nvoid main() {}", out)
	assert.Equal(t, []string{"a", "b"}, pp.Includes())
}

func TestPreProcessorErrors(t *testing.T) {
	pp := NewPreProcessor(LanguageWGSL, WithSourceFS(fstest.MapFS{}))

	_, err := pp.Process("//@oxy:include missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown include "missing"`)

	_, err = pp.Process("//@oxy:include")
	require.Error(t, err)

	_, err = pp.Process("//@oxy:group 0 0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown annotation type")
}

func TestReflectForward(t *testing.T) {
	src, err := EmbeddedSource(LanguageWGSL, ProgramForward)
	require.NoError(t, err)
	src, err = NewPreProcessor(LanguageWGSL).Process(src)
	require.NoError(t, err)

	r, err := Reflect(src)
	require.NoError(t, err)
	assert.Equal(t, "vs_main", r.VertexEntry)
	assert.Equal(t, "fs_main", r.FragmentEntry)

	require.Len(t, r.VertexInputs, 3)
	assert.Equal(t, VertexInput{Name: "aPosition", Location: 0, Components: 3}, r.VertexInputs[0])
	assert.Equal(t, VertexInput{Name: "aNormal", Location: 1, Components: 3}, r.VertexInputs[1])
	assert.Equal(t, VertexInput{Name: "aUV", Location: 2, Components: 2}, r.VertexInputs[2])

	light := r.Structs["Light"]
	assert.Equal(t, 48, light.Size)
	kind, ok := light.Field("kind")
	require.True(t, ok)
	assert.Equal(t, 12, kind.Offset)
	pos, _ := light.Field("position")
	assert.Equal(t, 32, pos.Offset)

	assert.Equal(t, 784, r.Structs[BlockGlobalParams].Size)
	assert.Equal(t, 128, r.Structs[BlockEntityParams].Size)

	useTexture, ok := r.Structs["DrawParams"].Field("useTexture")
	require.True(t, ok)
	assert.Equal(t, 12, useTexture.Offset)

	g0 := r.Group(0)
	require.Len(t, g0, 1)
	assert.Equal(t, BindingUniform, g0[0].Kind)
	assert.Equal(t, 784, g0[0].Size)

	g2 := r.Group(2)
	require.Len(t, g2, 2)
	assert.Equal(t, Binding{Group: 2, Binding: 0, Name: "uTexture", TypeName: "texture_2d<f32>", Kind: BindingTexture}, g2[0])
	assert.Equal(t, BindingSampler, g2[1].Kind)
	assert.Equal(t, "uTexture_sampler", g2[1].Name)

	assert.Equal(t, 3, r.MaxGroup())
}

func TestReflectQuadPrograms(t *testing.T) {
	pp := NewPreProcessor(LanguageWGSL)
	for _, name := range []string{ProgramDeferredComposite, ProgramBrightPass, ProgramBlur, ProgramBloomComposite, ProgramPassthrough} {
		src, err := EmbeddedSource(LanguageWGSL, name)
		require.NoError(t, err)
		src, err = pp.Process(src)
		require.NoError(t, err)

		r, err := Reflect(src)
		require.NoError(t, err, name)
		require.Len(t, r.VertexInputs, 2, name)
		assert.Equal(t, "aUV", r.VertexInputs[1].Name, name)
	}
}

func TestReflectMissingEntryPoint(t *testing.T) {
	_, err := Reflect("@fragment fn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(1.0); }")
	assert.ErrorIs(t, err, ErrNoEntryPoint)

	_, err = Reflect("@vertex fn vs_main(@location(0) p: mat4x4<f32>) -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }\n@fragment fn fs_main() {}")
	assert.ErrorIs(t, err, ErrUnsupportedVertexInput)
}

func TestStageSource(t *testing.T) {
	out := StageSource("void main() {}", ProgramBlur, StageFragment)
	assert.True(t, strings.HasPrefix(out, "#version 410 core\n#define BLUR\n#define FRAGMENT\n"))
	assert.True(t, strings.HasSuffix(out, "void main() {}"))
}

func TestLookup(t *testing.T) {
	def, ok := Lookup(ProgramDeferredComposite)
	require.True(t, ok)
	assert.Equal(t, 3, def.Samplers["uViewDir"])
	assert.Equal(t, GlobalParamsBinding, def.UniformBlocks[BlockGlobalParams])

	_, ok = Lookup("unknown")
	assert.False(t, ok)
}
