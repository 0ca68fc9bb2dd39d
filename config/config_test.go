package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlConfig = `
backend: wgpu
mode: bloom
vsync: false
log_level: debug
window:
  title: demo
  width: 800
camera:
  move_speed: 4
profiler:
  enabled: true
  interval: 2s
scene:
  textures:
    - name: grid
      kind: checker
      size: 64
      cell: 8
      colors: [[255, 255, 255, 255], [40, 40, 40, 255]]
  materials:
    - name: floor
      albedo: [1, 1, 1]
      albedo_texture: grid
    - name: glow
      albedo: [1, 0.2, 0.2]
      emissive: [4, 0.5, 0.5]
  models:
    - name: ground
      mesh: plane
      materials: [floor]
    - name: orb
      mesh: sphere
      materials: [glow]
  entities:
    - model: ground
      scale: [10, 1, 10]
    - model: orb
      position: [0, 2, 0]
  lights:
    - type: directional
      color: [1, 1, 1]
      direction: [1, -1, 1]
    - type: point
      color: [0, 1, 0]
`

const tomlConfig = `
backend = "opengl"
mode = "forward"
hot_reload = true
shader_dir = "shaders"

[window]
height = 600

[camera]
position = [0.0, 2.0, 8.0]
sensitivity = 0.25
`

func TestParseYAML(t *testing.T) {
	c, err := Parse([]byte(yamlConfig), ".yml")
	require.NoError(t, err)

	assert.Equal(t, backend.BackendTypeWGPU, c.BackendType())
	assert.Equal(t, renderer.ModeBloom, c.RenderMode())
	require.NotNil(t, c.VSync)
	assert.False(t, *c.VSync)
	assert.Equal(t, "demo", c.Window.Title)
	assert.Equal(t, 800, c.Window.Width)
	assert.Equal(t, defaultHeight, c.Window.Height)
	assert.Equal(t, float32(4), c.Camera.MoveSpeed)
	assert.Equal(t, float32(defaultSensitivity), c.Camera.Sensitivity)

	level, err := c.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	interval, err := c.ProfilerInterval()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, interval)

	require.NotNil(t, c.Scene)
	assert.Len(t, c.Scene.Entities, 2)
	assert.Equal(t, [3]float32{10, 1, 10}, c.Scene.Entities[0].Scale)
	assert.Equal(t, TextureChecker, c.Scene.Textures[0].TextureKind())
	assert.Equal(t, [4]int{40, 40, 40, 255}, c.Scene.Textures[0].Colors[1])
}

func TestParseTOML(t *testing.T) {
	c, err := Parse([]byte(tomlConfig), ".toml")
	require.NoError(t, err)

	assert.Equal(t, backend.BackendTypeOpenGL, c.BackendType())
	assert.Equal(t, renderer.ModeForward, c.RenderMode())
	assert.True(t, c.HotReload)
	assert.Equal(t, "shaders", c.ShaderDir)
	assert.Equal(t, defaultWidth, c.Window.Width)
	assert.Equal(t, 600, c.Window.Height)
	assert.Equal(t, []float32{0, 2, 8}, c.Camera.Position)
	require.NotNil(t, c.VSync)
	assert.True(t, *c.VSync)
	assert.Nil(t, c.Scene)
}

func TestParseRejects(t *testing.T) {
	_, err := Parse([]byte("backend: vulkan"), ".yaml")
	assert.Error(t, err)

	_, err = Parse([]byte("mode: sketch"), ".yaml")
	assert.Error(t, err)

	_, err = Parse([]byte("log_level: loud"), ".yaml")
	assert.Error(t, err)

	_, err = Parse([]byte("profiler:\n  interval: -1s"), ".yaml")
	assert.Error(t, err)

	_, err = Parse([]byte("camera:\n  position: [1, 2]"), ".yaml")
	assert.Error(t, err)

	_, err = Parse([]byte("{}"), ".json")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSceneReferences(t *testing.T) {
	s := &SceneConfig{
		Models:   []ModelConfig{{Name: "box", Mesh: MeshCube, Materials: []string{"missing"}}},
		Entities: []EntityConfig{{Model: "box"}},
	}
	assert.ErrorContains(t, s.Validate(), "unknown material")

	s = &SceneConfig{Entities: []EntityConfig{{Model: "ghost"}}}
	assert.ErrorContains(t, s.Validate(), "unknown model")

	s = &SceneConfig{Models: []ModelConfig{{Name: "x", Mesh: "teapot"}}}
	assert.ErrorContains(t, s.Validate(), "unknown mesh")

	s = &SceneConfig{Lights: []LightConfig{{Type: "spot"}}}
	assert.ErrorContains(t, s.Validate(), "unknown type")

	s = &SceneConfig{Textures: []TextureConfig{{Name: "t", Kind: TextureSolid}}}
	assert.ErrorContains(t, s.Validate(), "solid needs 1 color")

	s = &SceneConfig{Textures: []TextureConfig{{Name: "t", Path: "a.png"}}}
	assert.NoError(t, s.Validate())
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.Equal(t, renderer.ModeDeferred, c.RenderMode())
	assert.Equal(t, backend.BackendTypeOpenGL, c.BackendType())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oxy.toml")
	require.NoError(t, os.WriteFile(path, []byte(tomlConfig), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, renderer.ModeForward, c.RenderMode())
}

func TestShaderDirExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	c, err := Parse([]byte(`shader_dir: "~/shaders"`), ".yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "shaders"), c.ShaderDir)
}
