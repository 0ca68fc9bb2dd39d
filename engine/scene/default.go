package scene

import (
	"github.com/Carmen-Shannon/oxy-pipeline/config"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/camera"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer"
)

// DefaultName is the name of the built-in scene.
const DefaultName = "default"

// DefaultDescription describes the built-in scene: three statues in a row on a checkered ground plane,
// lit by a white directional light and a green point light at the origin.
func DefaultDescription() *config.SceneConfig {
	return &config.SceneConfig{
		Textures: []config.TextureConfig{
			{
				Name:   "checker",
				Kind:   config.TextureChecker,
				Size:   defaultCheckerSize,
				Cell:   defaultCheckerCell,
				Colors: [][4]int{{230, 230, 230, 255}, {90, 90, 90, 255}},
			},
		},
		Materials: []config.MaterialConfig{
			{Name: "stone", Albedo: [3]float32{0.7, 0.7, 0.75}, Smoothness: 0.3},
			{Name: "glow", Albedo: [3]float32{1, 0.8, 0.4}, Emissive: [3]float32{3, 2.4, 1.2}, Smoothness: 0.8},
			{Name: "ground", Albedo: [3]float32{1, 1, 1}, AlbedoTexture: "checker", Smoothness: 0.1},
		},
		Models: []config.ModelConfig{
			{Name: "statue", Mesh: config.MeshStatue, Materials: []string{"stone", "glow"}},
			{Name: "ground", Mesh: config.MeshPlane, Materials: []string{"ground"}},
		},
		Entities: []config.EntityConfig{
			{Model: "statue", Position: [3]float32{-10, 0, -2}},
			{Model: "statue", Position: [3]float32{0, 0, -2}},
			{Model: "statue", Position: [3]float32{-5, 0, -2}},
			{Model: "ground", Scale: [3]float32{10, 1, 10}},
		},
		Lights: []config.LightConfig{
			{Type: "directional", Color: [3]float32{1, 1, 1}, Direction: [3]float32{1, -1, 1}},
			{Type: "point", Color: [3]float32{0, 1, 0}},
		},
	}
}

// Default builds the built-in scene into ctx.
//
// Parameters:
//   - ctx: the renderer context that will own the uploaded resources
//   - cam: the scene camera
//   - workers: the maximum number of asset worker goroutines
//
// Returns:
//   - Scene: the scene
//   - error: error if an asset could not be uploaded
func Default(ctx *renderer.Context, cam camera.Camera, workers int) (Scene, error) {
	return Build(DefaultName, DefaultDescription(), ctx, cam, workers)
}
