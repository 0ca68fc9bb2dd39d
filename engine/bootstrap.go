package engine

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/config"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/camera"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend/opengl"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend/webgpu"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/scene"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/window"
	"github.com/go-gl/mathgl/mgl32"
)

// NewFromConfig creates the window, backend, renderer, camera and scene described by cfg and wires
// them into an Engine. It must be called from the main goroutine. Anything created before a failure
// is released again.
//
// Parameters:
//   - cfg: the application config
//
// Returns:
//   - Engine: the engine, ready to Run
//   - error: error if any part could not be created
func NewFromConfig(cfg *config.Config) (eng Engine, err error) {
	vsync := cfg.VSync == nil || *cfg.VSync

	w, err := window.NewWindow(
		window.WithTitle(cfg.Window.Title),
		window.WithSize(cfg.Window.Width, cfg.Window.Height),
		window.WithBackend(cfg.BackendType()),
		window.WithVSync(vsync),
	)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = w.Close()
		}
	}()

	b, err := newBackend(cfg.BackendType(), w, vsync)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			b.Release()
		}
	}()

	r, err := renderer.NewRenderer(b, w.Width(), w.Height(),
		renderer.WithMode(cfg.RenderMode()),
		renderer.WithShaderDir(cfg.ShaderDir),
		renderer.WithHotReload(cfg.HotReload),
	)
	if err != nil {
		return nil, fmt.Errorf("renderer: %w", err)
	}
	defer func() {
		if err != nil {
			r.Release()
		}
	}()

	cam := newCamera(cfg.Camera, b.Limits().DepthZeroToOne, w.Width(), w.Height())

	var s scene.Scene
	if cfg.Scene != nil {
		s, err = scene.Build("config", cfg.Scene, r.Context(), cam, cfg.Workers)
	} else {
		s, err = scene.Default(r.Context(), cam, cfg.Workers)
	}
	if err != nil {
		return nil, err
	}

	interval, err := cfg.ProfilerInterval()
	if err != nil {
		return nil, err
	}

	common.Logger().Info("engine ready", "backend", cfg.BackendType().String(), "mode", cfg.RenderMode().String(), "scene", s.Name())
	return NewEngine(w, b, r, s,
		WithProfiling(cfg.Profiler.Enabled),
		WithProfilerInterval(interval),
	), nil
}

func newBackend(t backend.BackendType, w window.Window, vsync bool) (backend.Backend, error) {
	switch t {
	case backend.BackendTypeOpenGL:
		b, err := opengl.NewBackend(w.Width(), w.Height())
		if err != nil {
			return nil, fmt.Errorf("opengl backend: %w", err)
		}
		return b, nil
	case backend.BackendTypeWGPU:
		desc := w.SurfaceDescriptor()
		if desc == nil {
			return nil, fmt.Errorf("wgpu backend: window has no surface")
		}
		b, err := webgpu.NewBackend(desc, w.Width(), w.Height(), webgpu.WithVSync(vsync))
		if err != nil {
			return nil, fmt.Errorf("wgpu backend: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown backend %s", t)
	}
}

// newCamera builds the fly camera from the camera settings. The depth convention follows the backend.
func newCamera(c config.CameraConfig, depthZeroToOne bool, width, height int) camera.Camera {
	ctrlOpts := []camera.CameraControllerOption{
		camera.WithMoveSpeed(c.MoveSpeed),
		camera.WithSensitivity(c.Sensitivity),
	}
	if len(c.Position) == 3 {
		ctrlOpts = append(ctrlOpts, camera.WithPosition(mgl32.Vec3{c.Position[0], c.Position[1], c.Position[2]}))
	}
	if c.Yaw != nil {
		ctrlOpts = append(ctrlOpts, camera.WithOrientation(*c.Yaw, c.Pitch))
	} else if c.Pitch != 0 {
		ctrlOpts = append(ctrlOpts, camera.WithOrientation(-90, c.Pitch))
	}

	return camera.NewCamera(
		camera.WithFov(mgl32.DegToRad(c.Fov)),
		camera.WithAspect(float32(width)/float32(max(height, 1))),
		camera.WithDepthZeroToOne(depthZeroToOne),
		camera.WithController(camera.NewCameraController(ctrlOpts...)),
	)
}
