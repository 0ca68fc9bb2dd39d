// Package renderer packs each frame's uniforms into the staging buffer and drives the backend
// through the Forward, Deferred and Bloom frame paths.
package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/model"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/render_target"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/staging"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/vao_cache"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	backend backend.Backend
	ctx     *Context
	staging staging.StagingBuffer
	vaos    vao_cache.VAOCache
	targets render_target.Manager
	quad    *model.Mesh

	mode        Mode
	pendingMode *Mode

	width, height int

	stagingCapacity int
	shaderDir       string
	hotReload       bool
	watching        bool
}

// Renderer owns the per-frame resources and draws a Scene in the selected Mode.
// It is single-threaded: every method must be called from the render thread.
type Renderer interface {
	// Context returns the resource tables.
	Context() *Context

	// Mode returns the mode the next frame is rendered in.
	Mode() Mode

	// SetMode selects a mode. The switch is applied at the start of the next Render call, never in
	// the middle of a frame.
	//
	// Parameters:
	//   - m: the new mode
	SetMode(m Mode)

	// Render packs the frame's uniform data and records every pass of the current mode.
	// Failures here are configuration errors and are fatal for the caller.
	//
	// Parameters:
	//   - sc: the scene to draw
	//
	// Returns:
	//   - error: a staging, vertex array or backend error
	Render(sc Scene) error

	// Resize reconfigures the back buffer and every render target. A zero size is ignored.
	//
	// Parameters:
	//   - width: display width in pixels
	//   - height: display height in pixels
	//
	// Returns:
	//   - error: error if a target could not be reconfigured
	Resize(width, height int) error

	// ReloadPrograms recompiles programs whose sources changed. Without a filesystem watcher the
	// sources' modification times are compared first.
	//
	// Returns:
	//   - []string: the programs that were reloaded
	ReloadPrograms() []string

	// Targets returns the render target manager.
	Targets() render_target.Manager

	// VAOCache returns the vertex array cache.
	VAOCache() vao_cache.VAOCache

	// Staging returns the per-frame uniform staging buffer.
	Staging() staging.StagingBuffer

	// Release destroys every resource the renderer owns. The backend itself is not released.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer loads every program, allocates the staging buffer and configures the G-buffer, the
// HDR target and the bloom chain for the display size.
//
// Parameters:
//   - b: the backend to draw with
//   - width: display width in pixels
//   - height: display height in pixels
//   - options: functional options
//
// Returns:
//   - Renderer: the renderer
//   - error: error if any resource could not be created
func NewRenderer(b backend.Backend, width, height int, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		backend: b,
		mode:    ModeDeferred,
		width:   width,
		height:  height,
		vaos:    vao_cache.NewVAOCache(b),
		targets: render_target.NewManager(b),
	}
	for _, opt := range options {
		opt(r)
	}

	libOpts := []program.LibraryBuilderOption{program.WithReloadCallback(r.retireProgram)}
	if r.shaderDir != "" {
		libOpts = append(libOpts, program.WithShaderDir(r.shaderDir))
	}
	lib := program.NewLibrary(b, libOpts...)
	if err := lib.LoadAll(); err != nil {
		return nil, fmt.Errorf("load programs: %w", err)
	}
	if r.hotReload {
		if err := lib.Watch(); err != nil {
			common.Logger().Warn("shader watcher unavailable, falling back to timestamps", "error", err)
		} else {
			r.watching = r.shaderDir != ""
		}
	}

	ctx, err := NewContext(b, lib)
	if err != nil {
		_ = lib.Close()
		return nil, err
	}
	r.ctx = ctx

	var stagingOpts []staging.StagingBufferBuilderOption
	if r.stagingCapacity > 0 {
		stagingOpts = append(stagingOpts, staging.WithCapacity(r.stagingCapacity))
	}
	if r.staging, err = staging.NewStagingBuffer(b, stagingOpts...); err != nil {
		r.Release()
		return nil, err
	}

	if r.quad, err = model.Quad().Upload(b); err != nil {
		r.Release()
		return nil, fmt.Errorf("fullscreen quad: %w", err)
	}

	if err := r.configureTargets(width, height); err != nil {
		r.Release()
		return nil, err
	}

	common.Logger().Info("renderer ready", "backend", b.Type().String(), "mode", r.mode.String(), "width", width, "height", height)
	return r, nil
}

// configureTargets builds the G-buffer, the HDR target and the bloom chain.
func (r *renderer) configureTargets(width, height int) error {
	if _, err := r.targets.Configure(render_target.GBufferSpec(width, height)); err != nil {
		return err
	}
	if _, err := r.targets.Configure(render_target.HDRSpec(width, height)); err != nil {
		return err
	}
	if _, err := r.targets.ConfigureBloom(width, height); err != nil {
		return err
	}
	return nil
}

// retireProgram drops the vertex arrays built for a program that is about to be replaced.
func (r *renderer) retireProgram(old *program.Program) {
	meshes := r.ctx.Meshes()
	if r.quad != nil {
		meshes = append(meshes[:len(meshes):len(meshes)], r.quad)
	}
	n := r.vaos.Invalidate(meshes, old.Handle)
	common.Logger().Debug("program retired", "program", old.Name, "vertex_arrays", n)
}

func (r *renderer) Context() *Context {
	return r.ctx
}

func (r *renderer) Mode() Mode {
	if r.pendingMode != nil {
		return *r.pendingMode
	}
	return r.mode
}

func (r *renderer) SetMode(m Mode) {
	r.pendingMode = &m
}

func (r *renderer) Targets() render_target.Manager {
	return r.targets
}

func (r *renderer) VAOCache() vao_cache.VAOCache {
	return r.vaos
}

func (r *renderer) Staging() staging.StagingBuffer {
	return r.staging
}

func (r *renderer) Render(sc Scene) error {
	if r.pendingMode != nil {
		if *r.pendingMode != r.mode {
			common.Logger().Info("render mode changed", "from", r.mode.String(), "to", r.pendingMode.String())
		}
		r.mode = *r.pendingMode
		r.pendingMode = nil
	}

	global, err := packFrame(r.staging, sc, r.backend.Limits().UniformOffsetAlignment)
	if err != nil {
		return fmt.Errorf("pack frame: %w", err)
	}

	if err := r.backend.BeginFrame(); err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}

	switch r.mode {
	case ModeForward:
		err = r.renderForward(sc, global)
	case ModeDeferred:
		err = r.renderDeferred(sc, global)
	case ModeBloom:
		err = r.renderBloom(sc, global)
	default:
		err = fmt.Errorf("unknown render mode %d", int(r.mode))
	}
	if err != nil {
		return fmt.Errorf("%s frame: %w", r.mode, err)
	}

	if err := r.backend.EndFrame(); err != nil {
		return fmt.Errorf("end frame: %w", err)
	}
	return nil
}

func (r *renderer) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	if width == r.width && height == r.height {
		return nil
	}
	r.width, r.height = width, height
	r.backend.Resize(width, height)
	if err := r.targets.Resize(width, height); err != nil {
		return fmt.Errorf("resize targets: %w", err)
	}
	common.Logger().Debug("renderer resized", "width", width, "height", height)
	return nil
}

func (r *renderer) ReloadPrograms() []string {
	lib := r.ctx.Programs
	if !r.watching {
		lib.CheckTimestamps()
	}
	reloaded := lib.ReloadDirty()
	for _, name := range reloaded {
		common.Logger().Info("program reloaded", "program", name)
	}
	return reloaded
}

func (r *renderer) Release() {
	if r.targets != nil {
		r.targets.Destroy()
	}
	if r.quad != nil {
		r.quad.Destroy(r.backend)
		r.quad = nil
	}
	if r.staging != nil {
		r.staging.Destroy()
		r.staging = nil
	}
	if r.ctx != nil {
		r.ctx.Destroy()
		r.ctx = nil
	}
}
