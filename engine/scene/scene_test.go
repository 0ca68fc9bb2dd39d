package scene

import (
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-pipeline/config"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/camera"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/entity"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/light"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend/backendtest"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/texture"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext(t *testing.T) *renderer.Context {
	t.Helper()
	ctx, err := renderer.NewContext(backendtest.NewDefault(), nil)
	require.NoError(t, err)
	return ctx
}

func TestDefaultScene(t *testing.T) {
	ctx := newContext(t)
	s, err := Default(ctx, camera.NewCamera(), 2)
	require.NoError(t, err)

	require.Equal(t, 4, s.Count())
	positions := []mgl32.Vec3{{-10, 0, -2}, {0, 0, -2}, {-5, 0, -2}, {0, 0, 0}}
	for i, e := range s.Entities() {
		assert.Equal(t, positions[i], e.Position(), "entity %d", i)
	}
	assert.Equal(t, mgl32.Vec3{10, 1, 10}, s.Entities()[3].Scale())
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, s.Entities()[0].Scale())

	statue, ok := ctx.Model(s.Entities()[0].Model())
	require.True(t, ok)
	assert.Equal(t, "statue", statue.Name)
	require.Len(t, ctx.Mesh(statue.Mesh).SubMeshes, 2)
	assert.Len(t, statue.Materials, 2)
	assert.Equal(t, s.Entities()[0].Model(), s.Entities()[2].Model())

	ground, ok := ctx.Model(s.Entities()[3].Model())
	require.True(t, ok)
	groundMat := ctx.Material(ground.Materials[0])
	assert.True(t, groundMat.UseTexture())
	assert.Equal(t, ctx.Textures.Index("checker"), groundMat.AlbedoTexture())
	assert.NotEqual(t, texture.DefaultIndex, groundMat.AlbedoTexture())

	require.Len(t, s.Lights(), 2)
	assert.Equal(t, light.LightTypeDirectional, s.Lights()[0].Type())
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, s.Lights()[0].Color())
	assert.Equal(t, light.LightTypePoint, s.Lights()[1].Type())
	assert.Equal(t, mgl32.Vec3{0, 1, 0}, s.Lights()[1].Color())
	assert.Equal(t, mgl32.Vec3{}, s.Lights()[1].Position())
}

func TestBuildSharesMeshesAcrossModels(t *testing.T) {
	ctx := newContext(t)
	desc := &config.SceneConfig{
		Materials: []config.MaterialConfig{{Name: "a"}, {Name: "b"}},
		Models: []config.ModelConfig{
			{Name: "left", Mesh: config.MeshCube, Materials: []string{"a"}},
			{Name: "right", Mesh: config.MeshCube, Materials: []string{"b"}},
		},
		Entities: []config.EntityConfig{{Model: "left"}, {Model: "right", Disabled: true}},
	}
	s, err := Build("shared", desc, ctx, camera.NewCamera(), 1)
	require.NoError(t, err)

	left, _ := ctx.Model(s.Entities()[0].Model())
	right, _ := ctx.Model(s.Entities()[1].Model())
	assert.Equal(t, left.Mesh, right.Mesh)
	assert.NotEqual(t, left.Materials[0], right.Materials[0])
	assert.Len(t, ctx.Meshes(), 1)
	assert.False(t, s.Entities()[1].Enabled())
}

func TestBuildFallsBackToDefaultTexture(t *testing.T) {
	ctx := newContext(t)
	desc := &config.SceneConfig{
		Textures:  []config.TextureConfig{{Name: "missing", Path: filepath.Join(t.TempDir(), "nope.png")}},
		Materials: []config.MaterialConfig{{Name: "m", AlbedoTexture: "missing"}},
		Models:    []config.ModelConfig{{Name: "box", Mesh: config.MeshCube, Materials: []string{"m"}}},
		Entities:  []config.EntityConfig{{Model: "box"}},
	}
	s, err := Build("fallback", desc, ctx, camera.NewCamera(), 2)
	require.NoError(t, err)

	mdl, _ := ctx.Model(s.Entities()[0].Model())
	assert.Equal(t, texture.DefaultIndex, ctx.Material(mdl.Materials[0]).AlbedoTexture())
	assert.Equal(t, 1, ctx.Textures.Len())
}

func TestBuildRejectsBadReferences(t *testing.T) {
	desc := &config.SceneConfig{Entities: []config.EntityConfig{{Model: "ghost"}}}
	_, err := Build("bad", desc, newContext(t), camera.NewCamera(), 1)
	assert.Error(t, err)
}

func TestPrepareGeneratesEachMeshOnce(t *testing.T) {
	desc := DefaultDescription()
	desc.Models = append(desc.Models, config.ModelConfig{Name: "second", Mesh: config.MeshStatue})
	a := prepare(desc, 3)

	assert.Len(t, a.meshes, 2)
	assert.Len(t, a.meshes[config.MeshStatue].SubMeshes, 2)
	require.Len(t, a.images, 1)
	require.NotNil(t, a.images[0])
	assert.Equal(t, "checker", a.images[0].Name)
	assert.Equal(t, defaultCheckerSize, a.images[0].Width)
}

func TestSceneMutation(t *testing.T) {
	a := entity.NewEntity(entity.WithRotationSpeed(mgl32.Vec3{0, 90, 0}))
	b := entity.NewEntity(entity.WithEnabled(false), entity.WithRotationSpeed(mgl32.Vec3{0, 90, 0}))
	l := light.NewLight(light.LightTypePoint)
	s := NewScene("test", nil, WithEntities(a, b), WithLights(l))

	assert.Equal(t, 2, s.Count())
	assert.Equal(t, b, s.Entity(b.ID()))

	s.Tick(1)
	assert.InDelta(t, 90, a.Rotation()[1], 1e-4)
	assert.InDelta(t, 0, b.Rotation()[1], 1e-4)

	s.RemoveEntity(a.ID())
	assert.Nil(t, s.Entity(a.ID()))
	assert.Equal(t, 1, s.Count())

	s.RemoveLight(l)
	assert.Empty(t, s.Lights())

	s.AddLight(l)
	s.Clear()
	assert.Zero(t, s.Count())
	assert.Empty(t, s.Lights())
}
