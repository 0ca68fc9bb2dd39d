package program

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend/backendtest"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadAllEmbedded(t *testing.T) {
	rec := backendtest.NewDefault()
	rec.Programs[shader.ProgramBlur] = backendtest.ProgramStub{Fail: true}
	lib := NewLibrary(rec)

	require.NoError(t, lib.LoadAll())
	assert.Equal(t, shader.LanguageGLSL, lib.Language())
	assert.Len(t, lib.Programs(), len(shader.Programs()))

	blur := lib.Get(shader.ProgramBlur)
	require.NotNil(t, blur)
	assert.False(t, blur.Valid())

	fwd := lib.Get(shader.ProgramForward)
	require.True(t, fwd.Valid())
	assert.Empty(t, fwd.Path)

	desc := rec.ProgramDescs[fwd.Handle]
	assert.Equal(t, 0, desc.Samplers["uTexture"])
	assert.Equal(t, shader.EntityParamsBinding, desc.UniformBlocks[shader.BlockEntityParams])
	assert.Contains(t, desc.Source, "uCameraPosition")
	assert.NotContains(t, desc.Source, "@oxy:")
	assert.Equal(t, []string{"global_params", "entity_params", "lighting"}, fwd.Includes)
}

func TestLoadMissingSource(t *testing.T) {
	lib := NewLibrary(backendtest.NewDefault())
	_, err := lib.Load("does_not_exist")
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestShaderDirOverridesEmbedded(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "glsl", "forward.glsl")
	writeFile(t, src, "//@oxy:include custom\n//@oxy:include global_params\nvoid main() {}\n")
	writeFile(t, filepath.Join(dir, "include", "glsl", "custom.glsl"), "float custom;\n")

	rec := backendtest.NewDefault()
	lib := NewLibrary(rec, WithShaderDir(dir))

	p, err := lib.Load(shader.ProgramForward)
	require.NoError(t, err)
	assert.Equal(t, src, p.Path)
	assert.False(t, p.LastModified.IsZero())
	assert.Equal(t, []string{"custom", "global_params"}, p.Includes)

	desc := rec.ProgramDescs[p.Handle]
	assert.Contains(t, desc.Source, "float custom;")
	assert.Contains(t, desc.Source, "uCameraPosition")

	// programs without a file in the directory still come from the embedded assets
	blur, err := lib.Load(shader.ProgramBlur)
	require.NoError(t, err)
	assert.Empty(t, blur.Path)
}

func TestCheckTimestampsAndReload(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "glsl", "forward.glsl")
	writeFile(t, src, "void main() {}\n")

	rec := backendtest.NewDefault()
	var retired backend.ProgramHandle
	lib := NewLibrary(rec, WithShaderDir(dir), WithReloadCallback(func(old *Program) {
		retired = old.Handle
	}))

	p, err := lib.Load(shader.ProgramForward)
	require.NoError(t, err)
	old := p.Handle
	assert.Equal(t, 0, lib.CheckTimestamps())

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(src, later, later))
	assert.Equal(t, 1, lib.CheckTimestamps())
	assert.Equal(t, []string{shader.ProgramForward}, lib.Dirty())

	assert.Equal(t, []string{shader.ProgramForward}, lib.ReloadDirty())
	assert.Empty(t, lib.Dirty())
	assert.Equal(t, old, retired)
	assert.NotEqual(t, old, p.Handle)
	assert.Same(t, p, lib.Get(shader.ProgramForward))

	destroyed := rec.Ops(backendtest.OpDestroyProgram)
	require.Len(t, destroyed, 1)
	assert.Equal(t, old, destroyed[0].Program)
	assert.Equal(t, 0, lib.CheckTimestamps())
}

func TestReloadFailureKeepsPreviousHandle(t *testing.T) {
	rec := backendtest.NewDefault()
	lib := NewLibrary(rec)

	p, err := lib.Load(shader.ProgramPassthrough)
	require.NoError(t, err)
	old := p.Handle

	rec.Programs[shader.ProgramPassthrough] = backendtest.ProgramStub{Fail: true}
	lib.MarkDirty(shader.ProgramPassthrough)
	assert.Empty(t, lib.ReloadDirty())
	assert.Equal(t, old, p.Handle)
	assert.Empty(t, rec.Ops(backendtest.OpDestroyProgram))
}

func TestMarkDirtyDuringReloadIsKept(t *testing.T) {
	lib := NewLibrary(backendtest.NewDefault()).(*library)
	lib.MarkDirty(shader.ProgramForward)

	taken := lib.takeDirty()
	lib.MarkDirty(shader.ProgramPassthrough)
	assert.Equal(t, []string{shader.ProgramForward}, taken)
	assert.Equal(t, []string{shader.ProgramPassthrough}, lib.Dirty())

	const marks = 200
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range marks {
			lib.MarkDirty(shader.ProgramForward)
		}
	}()
	for range marks {
		lib.takeDirty()
	}
	<-done
	lib.MarkDirty(shader.ProgramForward)
	assert.Contains(t, lib.takeDirty(), shader.ProgramForward)
}

func TestWatchMarksDirty(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "glsl", "passthrough.glsl")
	writeFile(t, src, "//@oxy:include quad_vertex\nvoid main() {}\n")
	writeFile(t, filepath.Join(dir, "include", "glsl", "quad_vertex.glsl"), "// quad\n")

	lib := NewLibrary(backendtest.NewDefault(), WithShaderDir(dir))
	require.NoError(t, lib.LoadAll())
	require.NoError(t, lib.Watch())
	defer lib.Close()

	writeFile(t, filepath.Join(dir, "include", "glsl", "quad_vertex.glsl"), "// quad edited\n")
	require.Eventually(t, func() bool {
		dirty := lib.Dirty()
		return slices.Contains(dirty, shader.ProgramBlur) && slices.Contains(dirty, shader.ProgramPassthrough)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCloseDestroysPrograms(t *testing.T) {
	rec := backendtest.NewDefault()
	lib := NewLibrary(rec)
	require.NoError(t, lib.LoadAll())
	require.NoError(t, lib.Close())

	assert.Len(t, rec.Ops(backendtest.OpDestroyProgram), len(shader.Programs()))
	for _, p := range lib.Programs() {
		assert.False(t, p.Valid())
	}
}
