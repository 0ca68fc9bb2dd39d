package scene

import (
	"fmt"
	"image/color"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/config"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/camera"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/entity"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/light"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/model"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/texture"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// MaxTextureSize is the largest side a decoded texture is kept at.
	MaxTextureSize = 2048

	defaultCheckerSize = 256
	defaultCheckerCell = 32
	sphereDetail       = 32
)

// assets is the CPU side of a scene description, built off the render thread.
type assets struct {
	// images holds one image per texture entry, nil when it failed to build.
	images []*texture.Image

	// meshes holds the generated mesh data keyed by mesh kind.
	meshes map[string]model.MeshData
}

// prepare generates meshes and decodes textures on a dynamic worker pool. It touches no GPU state.
// A texture that fails to build is logged and left nil; the default texture replaces it at upload.
//
// Parameters:
//   - desc: the scene description
//   - workers: the maximum number of worker goroutines
//
// Returns:
//   - *assets: the prepared data
func prepare(desc *config.SceneConfig, workers int) *assets {
	var kinds []string
	seen := make(map[string]bool)
	for _, m := range desc.Models {
		if !seen[m.Mesh] {
			seen[m.Mesh] = true
			kinds = append(kinds, m.Mesh)
		}
	}

	a := &assets{
		images: make([]*texture.Image, len(desc.Textures)),
		meshes: make(map[string]model.MeshData, len(kinds)),
	}
	meshes := make([]model.MeshData, len(kinds))
	tasks := len(desc.Textures) + len(kinds)
	if tasks == 0 {
		return a
	}

	// Workers idle-exit after the timeout, so the pool needs no explicit shutdown.
	pool := worker.NewDynamicWorkerPool(max(workers, 1), max(tasks, 256), time.Second)
	var wg sync.WaitGroup
	taskID := 0

	for i, tc := range desc.Textures {
		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID: taskID,
			Do: func() (any, error) {
				defer wg.Done()
				img, err := buildImage(tc)
				if err != nil {
					common.Logger().Error("texture build failed, using default texture", "texture", tc.Name, "error", err)
					return nil, err
				}
				a.images[i] = img
				return img, nil
			},
		})
		taskID++
	}

	for i, kind := range kinds {
		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID: taskID,
			Do: func() (any, error) {
				defer wg.Done()
				meshes[i] = buildMesh(kind)
				return nil, nil
			},
		})
		taskID++
	}
	wg.Wait()

	for i, kind := range kinds {
		a.meshes[kind] = meshes[i]
	}
	common.Logger().Debug("scene assets prepared", "textures", len(desc.Textures), "meshes", len(kinds), "workers", workers)
	return a
}

func buildMesh(kind string) model.MeshData {
	switch kind {
	case config.MeshPlane:
		return model.Plane()
	case config.MeshSphere:
		return model.Sphere(sphereDetail, sphereDetail)
	case config.MeshStatue:
		return Statue()
	default:
		return model.Cube()
	}
}

// Statue is the two-part model of the default scene: a cube with a sphere resting on top, one
// submesh each.
func Statue() model.MeshData {
	head := model.Sphere(sphereDetail, sphereDetail).Transform([3]float32{0.6, 0.6, 0.6}, [3]float32{0, 1.6, 0})
	return model.Merge(config.MeshStatue, model.Cube(), head)
}

func buildImage(tc config.TextureConfig) (*texture.Image, error) {
	var img *texture.Image
	switch tc.TextureKind() {
	case config.TextureFile:
		var err error
		if img, err = texture.Decode(tc.Path, MaxTextureSize); err != nil {
			return nil, err
		}
	case config.TextureChecker:
		if len(tc.Colors) != 2 {
			return nil, fmt.Errorf("checker texture needs 2 colors, got %d", len(tc.Colors))
		}
		img = texture.Checker(
			common.Coalesce(tc.Size, defaultCheckerSize),
			common.Coalesce(tc.Cell, defaultCheckerCell),
			rgba(tc.Colors[0]), rgba(tc.Colors[1]),
		)
	case config.TextureSolid:
		if len(tc.Colors) != 1 {
			return nil, fmt.Errorf("solid texture needs 1 color, got %d", len(tc.Colors))
		}
		img = texture.Solid(rgba(tc.Colors[0]))
	default:
		return nil, fmt.Errorf("unknown texture kind %q", tc.Kind)
	}
	img.Name = tc.Name
	return img, nil
}

func rgba(c [4]int) color.RGBA {
	ch := func(v int) uint8 { return uint8(common.Clamp(v, 0, 255)) }
	return color.RGBA{R: ch(c[0]), G: ch(c[1]), B: ch(c[2]), A: ch(c[3])}
}

// Build creates a scene from a description. CPU assets are prepared on a worker pool, then uploaded
// into ctx on the calling goroutine, which must be the render thread.
//
// Parameters:
//   - name: the scene name
//   - desc: the scene description
//   - ctx: the renderer context that will own the uploaded resources
//   - cam: the scene camera
//   - workers: the maximum number of asset worker goroutines
//
// Returns:
//   - Scene: the populated scene
//   - error: error if a mesh could not be uploaded or a reference does not resolve
func Build(name string, desc *config.SceneConfig, ctx *renderer.Context, cam camera.Camera, workers int) (Scene, error) {
	if err := desc.Validate(); err != nil {
		return nil, fmt.Errorf("scene %s: %w", name, err)
	}
	a := prepare(desc, workers)

	textures := make(map[string]int, len(desc.Textures))
	for i, tc := range desc.Textures {
		textures[tc.Name] = 0
		if a.images[i] == nil {
			continue
		}
		idx, err := ctx.Textures.Add(a.images[i])
		if err != nil {
			common.Logger().Error("texture upload failed, using default texture", "texture", tc.Name, "error", err)
			continue
		}
		textures[tc.Name] = idx
	}

	materials := make(map[string]int, len(desc.Materials))
	for _, mc := range desc.Materials {
		materials[mc.Name] = ctx.AddMaterial(material.NewMaterial(materialOptions(mc, textures)...))
	}

	meshes := make(map[string]int, len(a.meshes))
	models := make(map[string]int, len(desc.Models))
	for _, mc := range desc.Models {
		mesh, ok := meshes[mc.Mesh]
		if !ok {
			var err error
			if mesh, err = ctx.AddMesh(a.meshes[mc.Mesh]); err != nil {
				return nil, fmt.Errorf("scene %s: model %s: %w", name, mc.Name, err)
			}
			meshes[mc.Mesh] = mesh
		}
		mats := make([]int, len(mc.Materials))
		for i, ref := range mc.Materials {
			mats[i] = materials[ref]
		}
		idx, err := ctx.AddModel(model.Model{Name: mc.Name, Mesh: mesh, Materials: mats})
		if err != nil {
			return nil, fmt.Errorf("scene %s: %w", name, err)
		}
		models[mc.Name] = idx
	}

	s := NewScene(name, cam)
	for _, ec := range desc.Entities {
		s.AddEntity(entity.NewEntity(
			entity.WithModel(models[ec.Model]),
			entity.WithPosition(ec.Position),
			entity.WithRotation(ec.Rotation),
			entity.WithRotationSpeed(ec.RotationSpeed),
			entity.WithScale(scaleOrUnit(ec.Scale)),
			entity.WithEnabled(!ec.Disabled),
		))
	}
	for _, lc := range desc.Lights {
		t, _ := light.ParseLightType(lc.Type)
		s.AddLight(light.NewLight(t,
			light.WithColor(lc.Color),
			light.WithDirection(lc.Direction),
			light.WithPosition(lc.Position),
			light.WithEnabled(!lc.Disabled),
		))
	}

	common.Logger().Info("scene built", "scene", name, "entities", s.Count(), "lights", len(s.Lights()), "models", len(models))
	return s, nil
}

func materialOptions(mc config.MaterialConfig, textures map[string]int) []material.MaterialBuilderOption {
	ao := float32(1)
	if mc.AO != nil {
		ao = *mc.AO
	}
	opts := []material.MaterialBuilderOption{
		material.WithName(mc.Name),
		material.WithAlbedo(mc.Albedo),
		material.WithEmissive(mc.Emissive),
		material.WithSurface(mc.Smoothness, mc.Metallic, ao),
	}
	if mc.AlbedoTexture != "" {
		opts = append(opts, material.WithAlbedoTexture(textures[mc.AlbedoTexture]))
	}
	if mc.EmissiveTexture != "" {
		opts = append(opts, material.WithEmissiveTexture(textures[mc.EmissiveTexture]))
	}
	return opts
}

func scaleOrUnit(s [3]float32) mgl32.Vec3 {
	if s == ([3]float32{}) {
		return mgl32.Vec3{1, 1, 1}
	}
	return s
}
